package sbomjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte("\xef\xbb\xbf{\"bomFormat\":\"CycloneDX\"}"), "bom.json")
	require.NoError(t, err)
	assert.Equal(t, "CycloneDX", doc["bomFormat"])

	for name, input := range map[string]string{
		"invalid json": `{"components": [`,
		"array root":   `[]`,
		"string root":  `"cyclonedx"`,
		"null root":    `null`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(input), "bad.json")
			var target *entities.MalformedInputError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, "bad.json", target.SourceFile)
		})
	}
}

func TestAccessors(t *testing.T) {
	m := map[string]any{
		"name":    "left-pad",
		"version": 1.5,
		"flag":    true,
		"obj":     map[string]any{"a": "b"},
		"list":    []any{"x", 3.0, map[string]any{"k": "v"}, "y"},
	}

	assert.Equal(t, "left-pad", String(m, "name"))
	assert.Equal(t, "1.5", String(m, "version"))
	assert.Equal(t, "true", String(m, "flag"))
	assert.Empty(t, String(m, "obj"))
	assert.Equal(t, "left-pad", FirstString(m, "missing", "name"))
	assert.Equal(t, "b", String(Object(m, "obj"), "a"))
	assert.Nil(t, Object(m, "name"))
	assert.Len(t, Array(m, "list"), 4)
	assert.Equal(t, []string{"x", "y"}, Strings(m, "list"))
	assert.Len(t, Objects(m, "list"), 1)
}

func TestComponentEntries(t *testing.T) {
	entries, err := ComponentEntries(map[string]any{}, "components", "")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	entries, err = ComponentEntries(map[string]any{"packages": []any{map[string]any{"name": "a"}}}, "packages", "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = ComponentEntries(map[string]any{"components": []any{map[string]any{}, "oops"}}, "components", "x.json")
	var target *entities.MalformedInputError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "components[1] must be an object", target.Reason)

	_, err = ComponentEntries(map[string]any{"components": "oops"}, "components", "")
	assert.ErrorAs(t, err, &target)
}

func TestIDAllocator(t *testing.T) {
	ids := NewIDAllocator()

	assert.Equal(t, "pkg:npm/a@1", ids.Allocate("pkg:npm/a@1", "component-0"))
	assert.Equal(t, "component-1", ids.Allocate("", "component-1"))
	assert.Equal(t, "pkg:npm/a@1-2", ids.Allocate("pkg:npm/a@1", "component-2"))
	assert.Equal(t, "pkg:npm/a@1-3", ids.Allocate(" pkg:npm/a@1 ", "component-3"))
	assert.Equal(t, "component-1-2", ids.Allocate("component-1", "component-4"))
}

func TestEcosystem(t *testing.T) {
	tests := []struct {
		purl string
		want string
	}{
		{"pkg:npm/%40angular/core@16.0.0", "npm"},
		{"pkg:pypi/requests@2.31.0", "pypi"},
		{"pkg:maven/org.apache.logging.log4j/log4j-core@2.14.1", "maven"},
		{"pkg:golang/github.com/spf13/cobra@v1.10.2", "golang"},
		{"pkg:Cargo/serde@1.0.0%zz", "cargo"},
		{"", entities.DefaultEcosystem},
		{"not-a-purl", entities.DefaultEcosystem},
	}
	for _, tt := range tests {
		t.Run(tt.purl, func(t *testing.T) {
			assert.Equal(t, tt.want, Ecosystem(tt.purl))
		})
	}
}

func TestNormalizeHashAlgorithm(t *testing.T) {
	assert.Equal(t, "SHA-256", NormalizeHashAlgorithm("SHA256"))
	assert.Equal(t, "SHA-1", NormalizeHashAlgorithm("sha1"))
	assert.Equal(t, "SHA-512", NormalizeHashAlgorithm("SHA-512"))
	assert.Equal(t, "SHA3-256", NormalizeHashAlgorithm("SHA3-256"))
	assert.Equal(t, "MD5", NormalizeHashAlgorithm("md5"))
	assert.Equal(t, "BLAKE2b-256", NormalizeHashAlgorithm("BLAKE2B256"))
	assert.Equal(t, "SHA-384", NormalizeHashAlgorithm(" sha_384 "))
	assert.Equal(t, "ADLER32", NormalizeHashAlgorithm("ADLER32"))
}

func TestSortHashes(t *testing.T) {
	hashes := []entities.Hash{
		{Algorithm: "SHA-1", Content: "1"},
		{Algorithm: "MD5", Content: "2"},
		{Algorithm: "sha256", Content: "3"},
		{Algorithm: "SHA-512", Content: "4"},
	}

	SortHashes(hashes)

	assert.Equal(t, []string{"3", "1", "2", "4"}, []string{
		hashes[0].Content, hashes[1].Content, hashes[2].Content, hashes[3].Content,
	})
}
