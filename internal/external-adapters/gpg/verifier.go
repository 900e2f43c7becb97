// Package gpg provides OpenPGP detached signature verification for SBOM files.
package gpg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

const (
	maxKeyringSize   = 10 * 1024 * 1024
	maxSignatureSize = 64 * 1024
	armorPrefix      = "-----BEGIN PGP"
)

// Signature describes a verified detached signature
type Signature struct {
	KeyID       string
	Fingerprint string
	Identity    string
	CreatedAt   time.Time
}

// Verifier checks detached signatures against an in-memory keyring built
// with ProtonMail's go-crypto
type Verifier struct {
	keyring    openpgp.EntityList
	httpClient *http.Client
}

// NewVerifier creates a new GPG verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ImportKeyFromFile imports armored or binary public keys from a file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for GPG key import
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	return v.ImportKeys(bytes.NewReader(data))
}

// ImportKeysFromURL imports all keys of a published KEYS file
func (v *Verifier) ImportKeysFromURL(ctx context.Context, keysURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, keysURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download KEYS file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("KEYS file download failed with status %d", resp.StatusCode)
	}

	return v.ImportKeys(io.LimitReader(resp.Body, maxKeyringSize))
}

// ImportKeys reads an armored or binary keyring and appends it to the
// verifier's keyring
func (v *Verifier) ImportKeys(r io.Reader) error {
	br := bufio.NewReader(r)

	var (
		keys openpgp.EntityList
		err  error
	)
	if isArmored(br) {
		keys, err = openpgp.ReadArmoredKeyRing(br)
	} else {
		keys, err = openpgp.ReadKeyRing(br)
	}
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}
	if len(keys) == 0 {
		return errors.New("no keys found")
	}

	v.keyring = append(v.keyring, keys...)
	return nil
}

// VerifyFile verifies a detached signature file over a data file
func (v *Verifier) VerifyFile(filePath, sigPath string) (*Signature, error) {
	//nolint:gosec // G304: sigPath is user-provided for GPG verification
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer sigFile.Close()

	//nolint:gosec // G304: filePath is user-provided for GPG verification
	dataFile, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer dataFile.Close()

	return v.Verify(dataFile, io.LimitReader(sigFile, maxSignatureSize))
}

// Verify checks an armored or binary detached signature over signed
func (v *Verifier) Verify(signed, signature io.Reader) (*Signature, error) {
	if len(v.keyring) == 0 {
		return nil, errors.New("no GPG keys imported")
	}

	sigReader := bufio.NewReader(signature)
	var body io.Reader = sigReader
	if isArmored(sigReader) {
		block, err := armor.Decode(sigReader)
		if err != nil {
			return nil, fmt.Errorf("failed to decode armored signature: %w", err)
		}
		if block.Type != openpgp.SignatureType {
			return nil, fmt.Errorf("unexpected armor block %q", block.Type)
		}
		body = block.Body
	}

	sig, signer, err := openpgp.VerifyDetachedSignature(v.keyring, signed, body, nil)
	if err != nil {
		return nil, fmt.Errorf("signature verification failed: %w", err)
	}

	result := &Signature{CreatedAt: sig.CreationTime}
	if signer != nil && signer.PrimaryKey != nil {
		result.KeyID = signer.PrimaryKey.KeyIdString()
		result.Fingerprint = strings.ToUpper(fmt.Sprintf("%x", signer.PrimaryKey.Fingerprint))
		if identity := signer.PrimaryIdentity(); identity != nil {
			result.Identity = identity.Name
		}
	}
	return result, nil
}

// GetKeyringSize returns the number of keys in the keyring
func (v *Verifier) GetKeyringSize() int {
	return len(v.keyring)
}

func isArmored(r *bufio.Reader) bool {
	peek, _ := r.Peek(64)
	return bytes.HasPrefix(bytes.TrimLeft(peek, " \t\r\n"), []byte(armorPrefix))
}
