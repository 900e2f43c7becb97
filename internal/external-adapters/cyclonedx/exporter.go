package cyclonedx

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// Property names carried on exported components and vulnerabilities
const (
	PropertyRiskScore        = "sbomrisk:riskScore"
	PropertyOverallRiskScore = "sbomrisk:overallRiskScore"
	PropertyNTIAScore        = "sbomrisk:ntiaScore"
	PropertyEcosystem        = "sbomrisk:ecosystem"
	PropertyKEV              = "sbomrisk:kev"
	PropertyEPSS             = "sbomrisk:epss"
	PropertyLookupError      = "sbomrisk:lookupError"
)

const exporterToolName = "sbomrisk"

var knownComponentTypes = map[string]cdx.ComponentType{
	string(cdx.ComponentTypeApplication):          cdx.ComponentTypeApplication,
	string(cdx.ComponentTypeContainer):            cdx.ComponentTypeContainer,
	string(cdx.ComponentTypeDevice):               cdx.ComponentTypeDevice,
	string(cdx.ComponentTypeFile):                 cdx.ComponentTypeFile,
	string(cdx.ComponentTypeFirmware):             cdx.ComponentTypeFirmware,
	string(cdx.ComponentTypeFramework):            cdx.ComponentTypeFramework,
	string(cdx.ComponentTypeLibrary):              cdx.ComponentTypeLibrary,
	string(cdx.ComponentTypeOS):                   cdx.ComponentTypeOS,
	string(cdx.ComponentTypePlatform):             cdx.ComponentTypePlatform,
	string(cdx.ComponentTypeData):                 cdx.ComponentTypeData,
	string(cdx.ComponentTypeMachineLearningModel): cdx.ComponentTypeMachineLearningModel,
}

// Exporter writes analysis results as CycloneDX JSON with the findings
// attached as vulnerabilities and properties
type Exporter struct {
	version string
}

// NewExporter creates an exporter that records the given tool version
func NewExporter(version string) *Exporter {
	return &Exporter{version: version}
}

// Export encodes the analysis result as a pretty-printed CycloneDX JSON BOM
func (e *Exporter) Export(w io.Writer, result *entities.AnalysisResult) error {
	bom := e.BuildBOM(result)
	if err := cdx.NewBOMEncoder(w, cdx.BOMFileFormatJSON).SetPretty(true).Encode(bom); err != nil {
		return fmt.Errorf("failed to encode CycloneDX BOM: %w", err)
	}
	return nil
}

// BuildBOM converts an analysis result into a CycloneDX BOM
func (e *Exporter) BuildBOM(result *entities.AnalysisResult) *cdx.BOM {
	bom := cdx.NewBOM()
	bom.SerialNumber = serialNumber(result)
	bom.Metadata = &cdx.Metadata{
		Timestamp: result.AnalyzedAt,
		Tools: &cdx.ToolsChoice{
			Components: &[]cdx.Component{{
				Type:    cdx.ComponentTypeApplication,
				Name:    exporterToolName,
				Version: e.version,
			}},
		},
		Properties: &[]cdx.Property{
			{Name: PropertyOverallRiskScore, Value: strconv.Itoa(result.OverallRiskScore)},
			{Name: PropertyNTIAScore, Value: strconv.Itoa(result.NTIACompliance.Score)},
		},
	}
	if len(result.Document.Authors) > 0 {
		authors := make([]cdx.OrganizationalContact, 0, len(result.Document.Authors))
		for _, a := range result.Document.Authors {
			authors = append(authors, cdx.OrganizationalContact{Name: a.Name, Email: a.Email})
		}
		bom.Metadata.Authors = &authors
	}

	components := make([]cdx.Component, 0, len(result.Components))
	componentRefs := make(map[string]struct{}, len(result.Components))
	vulnRefs := map[string]struct{}{}
	var vulnerabilities []cdx.Vulnerability
	for _, c := range result.Components {
		components = append(components, exportComponent(c))
		componentRefs[c.ID] = struct{}{}
		for i, v := range c.Vulnerabilities {
			vulnerabilities = append(vulnerabilities, exportVulnerability(vulnerabilityRef(vulnRefs, c.ID, v.ID, i), c.ID, v))
		}
	}
	bom.Components = &components
	bom.Dependencies = exportDependencies(result.DependencyEdges, componentRefs)
	if len(vulnerabilities) > 0 {
		bom.Vulnerabilities = &vulnerabilities
	}
	return bom
}

// serialNumber reuses the source serial number, otherwise derives a stable
// UUID from the source file and the analysis time
func serialNumber(result *entities.AnalysisResult) string {
	if strings.HasPrefix(result.Document.SerialNumber, "urn:uuid:") {
		return result.Document.SerialNumber
	}
	seed := result.Document.SourceFile + "|" + result.Document.DocumentNamespace + "|" + result.AnalyzedAt
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed)).String()
}

func exportComponent(c entities.AnalyzedComponent) cdx.Component {
	componentType, ok := knownComponentTypes[c.Type]
	if !ok {
		componentType = cdx.ComponentTypeLibrary
	}

	component := cdx.Component{
		BOMRef:      c.ID,
		Type:        componentType,
		Name:        c.Name,
		Version:     c.Version,
		Description: c.Description,
		PackageURL:  c.Purl,
	}
	if c.Supplier != "" {
		component.Supplier = &cdx.OrganizationalEntity{Name: c.Supplier}
	}
	if c.License != "" && c.License != entities.UnknownLicense {
		licenses := cdx.Licenses{}
		for _, name := range strings.Split(c.License, ", ") {
			licenses = append(licenses, cdx.LicenseChoice{License: &cdx.License{Name: name}})
		}
		component.Licenses = &licenses
	}
	if len(c.Hashes) > 0 {
		hashes := make([]cdx.Hash, 0, len(c.Hashes))
		for _, h := range c.Hashes {
			hashes = append(hashes, cdx.Hash{Algorithm: cdx.HashAlgorithm(h.Algorithm), Value: h.Content})
		}
		component.Hashes = &hashes
	}

	properties := []cdx.Property{
		{Name: PropertyRiskScore, Value: strconv.Itoa(c.RiskScore)},
		{Name: PropertyEcosystem, Value: c.Ecosystem},
	}
	if c.ReleaseDate != "" {
		properties = append(properties, cdx.Property{Name: releaseDateProperty, Value: c.ReleaseDate})
	}
	if c.LookupError != "" {
		properties = append(properties, cdx.Property{Name: PropertyLookupError, Value: c.LookupError})
	}
	component.Properties = &properties
	return component
}

// vulnerabilityRef builds a bom-ref unique within the BOM. Vulnerabilities
// without an id, or repeating one already used, fall back to their index.
func vulnerabilityRef(used map[string]struct{}, componentID, vulnID string, index int) string {
	ref := componentID + "#" + vulnID
	if vulnID == "" || isUsed(used, ref) {
		ref = componentID + "#" + strconv.Itoa(index)
	}
	for n := 2; isUsed(used, ref); n++ {
		ref = componentID + "#" + strconv.Itoa(index) + "-" + strconv.Itoa(n)
	}
	used[ref] = struct{}{}
	return ref
}

func isUsed(used map[string]struct{}, ref string) bool {
	_, ok := used[ref]
	return ok
}

func exportVulnerability(bomRef, componentID string, v entities.Vulnerability) cdx.Vulnerability {
	vuln := cdx.Vulnerability{
		BOMRef:      bomRef,
		ID:          v.ID,
		Description: v.Summary,
		Affects:     &[]cdx.Affects{{Ref: componentID}},
	}

	rating := cdx.VulnerabilityRating{Severity: severityToCDX(v.Severity)}
	switch {
	case v.CVSSV3Score != nil:
		rating.Score = v.CVSSV3Score
		rating.Method = cdx.ScoringMethodCVSSv31
	case v.CVSSV2Score != nil:
		rating.Score = v.CVSSV2Score
		rating.Method = cdx.ScoringMethodCVSSv2
	case v.CVSSMax != nil:
		rating.Score = v.CVSSMax
		rating.Method = cdx.ScoringMethodOther
	}
	vuln.Ratings = &[]cdx.VulnerabilityRating{rating}

	var properties []cdx.Property
	if v.KEV != nil {
		properties = append(properties, cdx.Property{Name: PropertyKEV, Value: strconv.FormatBool(*v.KEV)})
	}
	if v.EPSS != nil {
		properties = append(properties, cdx.Property{Name: PropertyEPSS, Value: strconv.FormatFloat(*v.EPSS, 'f', -1, 64)})
	}
	if len(properties) > 0 {
		vuln.Properties = &properties
	}
	return vuln
}

func severityToCDX(severity string) cdx.Severity {
	switch strings.ToUpper(severity) {
	case entities.SeverityCritical:
		return cdx.SeverityCritical
	case entities.SeverityHigh:
		return cdx.SeverityHigh
	case entities.SeverityMedium:
		return cdx.SeverityMedium
	case entities.SeverityLow:
		return cdx.SeverityLow
	default:
		return cdx.SeverityUnknown
	}
}

// exportDependencies groups edges by dependent component, keeping
// first-seen order. SPDX *DEPENDENCY_OF edges point from the dependency to
// its dependent and are reversed. Duplicate pairs collapse and refs that name
// no exported component are dropped.
func exportDependencies(edges []entities.DependencyEdge, componentRefs map[string]struct{}) *[]cdx.Dependency {
	order := []string{}
	targets := map[string][]string{}
	seen := map[[2]string]struct{}{}
	for _, e := range edges {
		from, to := e.From, e.To
		if strings.Contains(strings.ToUpper(e.Type), "DEPENDENCY_OF") {
			from, to = to, from
		}
		if !isUsed(componentRefs, from) || !isUsed(componentRefs, to) {
			continue
		}
		pair := [2]string{from, to}
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		if _, ok := targets[from]; !ok {
			order = append(order, from)
		}
		targets[from] = append(targets[from], to)
	}

	dependencies := make([]cdx.Dependency, 0, len(order))
	for _, ref := range order {
		dependsOn := targets[ref]
		dependencies = append(dependencies, cdx.Dependency{Ref: ref, Dependencies: &dependsOn})
	}
	return &dependencies
}
