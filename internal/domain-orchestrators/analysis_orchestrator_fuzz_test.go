package orchestrators

import (
	"context"
	"errors"
	"testing"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/external-adapters/sbomjson"
)

// FuzzAnalyze feeds random and malformed documents through the full pipeline.
//
// Run with: go test -fuzz=FuzzAnalyze -fuzztime=30s
func FuzzAnalyze(f *testing.F) {
	f.Add([]byte(cycloneDXFixture))
	f.Add([]byte(spdxFixture))
	f.Add([]byte(`{"components":[{"bom-ref":"a"},{"bom-ref":"a"},{}]}`))
	f.Add([]byte(`{"bomFormat":"CycloneDX","components":[],"packages":"x"}`))
	f.Add([]byte(`{"components":[{"hashes":[{"alg":1}],"licenses":"MIT","releaseDate":"1900-13-45"}],"dependencies":[{"ref":"x","dependsOn":"y"}]}`))
	f.Add([]byte(`{"spdxVersion":"SPDX-2.3","packages":[{"externalRefs":[{"referenceType":"purl","referenceLocator":"pkg:"}]}],"relationships":[{}]}`))
	f.Add([]byte(`{"packages":[1,2]}`))
	f.Add([]byte(`{"components":null,"packages":null}`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`null`))
	f.Add([]byte(``))
	f.Add([]byte("\xef\xbb\xbf{}"))

	orchestrator := newTestOrchestrator(&stubLookup{})

	f.Fuzz(func(t *testing.T, data []byte) {
		result, err := orchestrator.Analyze(context.Background(), data, "fuzz.json")
		if err != nil {
			var unsupported *entities.UnsupportedFormatError
			var malformed *entities.MalformedInputError
			if !errors.As(err, &unsupported) && !errors.As(err, &malformed) {
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
			return
		}

		doc, err := sbomjson.Decode(data, "fuzz.json")
		if err != nil {
			t.Fatalf("analysis succeeded on undecodable input: %v", err)
		}
		key := "packages"
		if result.Document.BOMFormat == entities.BOMFormatCycloneDX {
			key = "components"
		}
		entries, _ := doc[key].([]any)
		if len(result.Components) != len(entries) {
			t.Fatalf("component count = %d, want %d", len(result.Components), len(entries))
		}

		ids := make(map[string]bool, len(result.Components))
		for _, c := range result.Components {
			if ids[c.ID] {
				t.Fatalf("duplicate component id %q", c.ID)
			}
			ids[c.ID] = true
			if c.RiskScore < 0 || c.RiskScore > 100 {
				t.Fatalf("component %q risk score %d out of range", c.ID, c.RiskScore)
			}
		}
		if result.OverallRiskScore < 0 || result.OverallRiskScore > 100 {
			t.Fatalf("overall risk score %d out of range", result.OverallRiskScore)
		}
		if result.NTIACompliance.Score < 0 || result.NTIACompliance.Score > 100 {
			t.Fatalf("NTIA score %d out of range", result.NTIACompliance.Score)
		}
	})
}
