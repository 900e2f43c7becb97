package sbomjson

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/package-url/packageurl-go"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// IDAllocator hands out component ids that are unique within one document
type IDAllocator struct {
	used map[string]struct{}
}

// NewIDAllocator creates an empty allocator
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{used: make(map[string]struct{})}
}

// Allocate returns the declared id when it is free, the fallback when the
// declared id is empty, and a numbered variant on collision
func (a *IDAllocator) Allocate(declared, fallback string) string {
	base := strings.TrimSpace(declared)
	if base == "" {
		base = fallback
	}
	id := base
	for n := 2; a.taken(id); n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	a.used[id] = struct{}{}
	return id
}

func (a *IDAllocator) taken(id string) bool {
	_, ok := a.used[id]
	return ok
}

// Ecosystem returns the package type of a purl, or the default ecosystem when
// the component has no usable purl
func Ecosystem(purl string) string {
	if purl == "" {
		return entities.DefaultEcosystem
	}
	if parsed, err := packageurl.FromString(purl); err == nil && parsed.Type != "" {
		return parsed.Type
	}
	// Lenient fallback for purls the strict parser rejects (bad escaping etc.)
	rest, ok := strings.CutPrefix(purl, "pkg:")
	if !ok {
		return entities.DefaultEcosystem
	}
	rest = strings.TrimLeft(rest, "/")
	if typ, _, found := strings.Cut(rest, "/"); found && typ != "" {
		return strings.ToLower(typ)
	}
	return entities.DefaultEcosystem
}

var hashAlgorithms = map[string]cdx.HashAlgorithm{}

func init() {
	for _, alg := range []cdx.HashAlgorithm{
		cdx.HashAlgoMD5, cdx.HashAlgoSHA1, cdx.HashAlgoSHA256, cdx.HashAlgoSHA384, cdx.HashAlgoSHA512,
		cdx.HashAlgoSHA3_256, cdx.HashAlgoSHA3_384, cdx.HashAlgoSHA3_512,
		cdx.HashAlgoBlake2b_256, cdx.HashAlgoBlake2b_384, cdx.HashAlgoBlake2b_512, cdx.HashAlgoBlake3,
	} {
		hashAlgorithms[compactAlgorithm(string(alg))] = alg
	}
}

// compactAlgorithm folds case and drops separators so SHA256, sha-256 and
// SHA_256 compare equal
func compactAlgorithm(alg string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToUpper(strings.TrimSpace(alg)))
}

// NormalizeHashAlgorithm renders SPDX style names (SHA256) as CycloneDX
// algorithm names (SHA-256). Unknown algorithms are returned trimmed.
func NormalizeHashAlgorithm(alg string) string {
	if known, ok := hashAlgorithms[compactAlgorithm(alg)]; ok {
		return string(known)
	}
	return strings.TrimSpace(alg)
}

// SortHashes orders hashes SHA-256 first, keeping the source order otherwise
func SortHashes(hashes []entities.Hash) {
	slices.SortStableFunc(hashes, func(a, b entities.Hash) int {
		return cmp.Compare(hashRank(a), hashRank(b))
	})
}

func hashRank(h entities.Hash) int {
	if isSHA256(h.Algorithm) {
		return 0
	}
	return 1
}

func isSHA256(alg string) bool {
	return hashAlgorithms[compactAlgorithm(alg)] == cdx.HashAlgoSHA256
}
