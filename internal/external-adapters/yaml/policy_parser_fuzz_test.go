package yaml

import (
	"testing"
)

// FuzzPolicyParser feeds random and malformed documents to the policy parser.
//
// Run with: go test -fuzz=FuzzPolicyParser -fuzztime=30s
func FuzzPolicyParser(f *testing.F) {
	f.Add([]byte(`approved_licenses:
  - MIT
  - Apache-2.0
denied_licenses:
  - AGPL-3.0
`))

	f.Add([]byte(`inactive_maintainers:
  - someone
overrides:
  pkg:npm/left-pad@1.3.0:
    license_approved: true
    maintainer_active: false
`))

	f.Add([]byte(``))
	f.Add([]byte(`{}`))
	f.Add([]byte(`[]`))
	f.Add([]byte("approved_licenses: [MIT]\n  bad"))
	f.Add([]byte("overrides:\n  x: 42\n"))

	parser := NewPolicyParser()

	f.Fuzz(func(_ *testing.T, data []byte) {
		_, _ = parser.Parse(data)
	})
}
