package cyclonedx

import (
	"bytes"
	"encoding/json"
	"testing"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

func sampleResult() *entities.AnalysisResult {
	score := 9.8
	kev := true
	return &entities.AnalysisResult{
		Document: entities.SbomDocument{
			BOMFormat:  entities.BOMFormatSPDX,
			SourceFile: "sbom.spdx.json",
			Authors:    []entities.Author{{Name: "Jane", Email: "jane@example.com"}},
		},
		Components: []entities.AnalyzedComponent{
			{
				Component: entities.Component{
					ID: "SPDXRef-app", Name: "app", Version: "1.0.0", Type: "package",
					Ecosystem: "npm", License: entities.UnknownLicense, Hashes: []entities.Hash{},
				},
				Vulnerabilities: []entities.Vulnerability{},
				RiskScore:       100,
			},
			{
				Component: entities.Component{
					ID: "SPDXRef-log4j", Name: "log4j-core", Version: "2.14.1", Type: "library",
					Ecosystem: "maven", License: "Apache-2.0", Purl: "pkg:maven/org.apache.logging.log4j/log4j-core@2.14.1",
					Hashes:   []entities.Hash{{Algorithm: "SHA-256", Content: "abc"}},
					Supplier: "Apache",
				},
				Vulnerabilities: []entities.Vulnerability{
					{ID: "CVE-2021-44228", Severity: "CRITICAL", CVSSV3Score: &score, KEV: &kev},
				},
				RiskScore: 20,
			},
		},
		DependencyEdges: []entities.DependencyEdge{
			{From: "SPDXRef-app", To: "SPDXRef-log4j", Type: "DEPENDS_ON"},
		},
		NTIACompliance:   entities.NTIACompliance{Score: 80},
		OverallRiskScore: 60,
		AnalyzedAt:       "2026-03-15T12:00:00.000Z",
	}
}

func TestExporter_BuildBOM(t *testing.T) {
	bom := NewExporter("1.2.3").BuildBOM(sampleResult())

	assert.Equal(t, cdx.BOMFormat, bom.BOMFormat)
	assert.Contains(t, bom.SerialNumber, "urn:uuid:")
	require.NotNil(t, bom.Metadata)
	assert.Equal(t, "2026-03-15T12:00:00.000Z", bom.Metadata.Timestamp)
	require.NotNil(t, bom.Metadata.Authors)
	assert.Equal(t, "Jane", (*bom.Metadata.Authors)[0].Name)

	require.NotNil(t, bom.Components)
	components := *bom.Components
	require.Len(t, components, 2)
	assert.Equal(t, cdx.ComponentTypeLibrary, components[0].Type, "unknown types map to library")
	assert.Nil(t, components[0].Licenses)
	assert.Equal(t, "Apache", components[1].Supplier.Name)
	assert.Contains(t, *components[1].Properties, cdx.Property{Name: PropertyRiskScore, Value: "20"})

	require.NotNil(t, bom.Vulnerabilities)
	vulns := *bom.Vulnerabilities
	require.Len(t, vulns, 1)
	assert.Equal(t, "CVE-2021-44228", vulns[0].ID)
	assert.Equal(t, "SPDXRef-log4j", (*vulns[0].Affects)[0].Ref)
	rating := (*vulns[0].Ratings)[0]
	assert.Equal(t, cdx.SeverityCritical, rating.Severity)
	assert.Equal(t, cdx.ScoringMethodCVSSv31, rating.Method)
	assert.InDelta(t, 9.8, *rating.Score, 0.001)
	assert.Contains(t, *vulns[0].Properties, cdx.Property{Name: PropertyKEV, Value: "true"})

	require.NotNil(t, bom.Dependencies)
	deps := *bom.Dependencies
	require.Len(t, deps, 1)
	assert.Equal(t, "SPDXRef-app", deps[0].Ref)
	assert.Equal(t, []string{"SPDXRef-log4j"}, *deps[0].Dependencies)
}

func TestExporter_DependenciesFollowSPDXDirection(t *testing.T) {
	result := sampleResult()
	result.DependencyEdges = []entities.DependencyEdge{
		{From: "SPDXRef-log4j", To: "SPDXRef-app", Type: "DEPENDENCY_OF"},
		{From: "SPDXRef-app", To: "SPDXRef-log4j", Type: "DEPENDS_ON"},
		{From: "SPDXRef-log4j", To: "SPDXRef-app", Type: "DEV_DEPENDENCY_OF"},
		{From: "SPDXRef-DOCUMENT", To: "SPDXRef-app", Type: "DESCRIBES_DEPENDS_ON"},
		{From: "SPDXRef-app", To: "SPDXRef-missing", Type: "CONTAINS"},
	}

	bom := NewExporter("dev").BuildBOM(result)

	require.NotNil(t, bom.Dependencies)
	deps := *bom.Dependencies
	require.Len(t, deps, 1)
	assert.Equal(t, "SPDXRef-app", deps[0].Ref)
	assert.Equal(t, []string{"SPDXRef-log4j"}, *deps[0].Dependencies)
}

func TestExporter_VulnerabilityRefsAreUnique(t *testing.T) {
	result := sampleResult()
	result.Components[1].Vulnerabilities = []entities.Vulnerability{
		{Severity: "HIGH"},
		{Severity: "LOW"},
		{ID: "CVE-2021-44228", Severity: "CRITICAL"},
		{ID: "CVE-2021-44228", Severity: "CRITICAL"},
	}

	bom := NewExporter("dev").BuildBOM(result)

	require.NotNil(t, bom.Vulnerabilities)
	refs := map[string]bool{}
	for _, v := range *bom.Vulnerabilities {
		assert.False(t, refs[v.BOMRef], "duplicate bom-ref %q", v.BOMRef)
		refs[v.BOMRef] = true
	}
	assert.Len(t, refs, 4)
	assert.True(t, refs["SPDXRef-log4j#CVE-2021-44228"])
	assert.True(t, refs["SPDXRef-log4j#0"])
}

func TestExporter_SerialNumberIsStable(t *testing.T) {
	exporter := NewExporter("dev")
	first := exporter.BuildBOM(sampleResult()).SerialNumber
	second := exporter.BuildBOM(sampleResult()).SerialNumber
	assert.Equal(t, first, second)

	result := sampleResult()
	result.Document.SerialNumber = "urn:uuid:3e671687-395b-41f5-a30f-a58921a69b79"
	assert.Equal(t, result.Document.SerialNumber, exporter.BuildBOM(result).SerialNumber)
}

func TestExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter("dev").Export(&buf, sampleResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "CycloneDX", decoded["bomFormat"])

	components, ok := decoded["components"].([]any)
	require.True(t, ok)
	assert.Len(t, components, 2)
}

func TestExporter_RoundTripThroughParser(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter("dev").Export(&buf, sampleResult()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	parsed, err := NewParser().Parse(doc, "export.json")
	require.NoError(t, err)

	require.Len(t, parsed.Components, 2)
	assert.Equal(t, "SPDXRef-log4j", parsed.Components[1].ID)
	assert.Equal(t, "maven", parsed.Components[1].Ecosystem)
	assert.Equal(t, []entities.DependencyEdge{
		{From: "SPDXRef-app", To: "SPDXRef-log4j", Type: entities.EdgeTypeDependsOn},
	}, parsed.Edges)
	assert.Equal(t, []entities.Generator{{Name: "sbomrisk"}}, parsed.Document.Generators)
}
