package entities

// NTIA minimum-elements check names, in reporting order
const (
	CheckDependencyGraph                 = "hasDependencyGraph"
	CheckAuthorOrOriginator              = "hasAuthorOrOriginator"
	CheckSbomTimestamp                   = "hasSbomTimestamp"
	CheckSpecVersion                     = "hasSpecVersion"
	CheckSerialNumberOrDocumentNamespace = "hasSerialNumberOrDocumentNamespace"
)

// Data quality fields and messages
const (
	FieldPurl     = "purl"
	FieldHashes   = "hashes"
	FieldSupplier = "supplier"

	IssueMissingPurl     = "Missing package URL (purl) identifier"
	IssueMissingHashes   = "Missing component hashes (prefer SHA-256)"
	IssueMissingSupplier = "Missing supplier information"
)

// AnalyzedComponent is a component enriched with its vulnerabilities and score
type AnalyzedComponent struct {
	Component
	Vulnerabilities []Vulnerability   `json:"vulnerabilities"`
	RiskScore       int               `json:"riskScore"`
	DataQuality     *DataQualityFlags `json:"dataQuality,omitempty"`
	LookupError     string            `json:"lookupError,omitempty"`
}

// DataQualityFlags marks the identifying fields a component is missing.
// A nil pointer is used instead of an empty value when nothing is missing.
type DataQualityFlags struct {
	MissingPurl     bool `json:"missingPurl,omitempty"`
	MissingHashes   bool `json:"missingHashes,omitempty"`
	MissingSupplier bool `json:"missingSupplier,omitempty"`
}

// DataQualityIssue is one data quality finding for a component
type DataQualityIssue struct {
	ComponentID string `json:"componentId"`
	Field       string `json:"field"`
	Issue       string `json:"issue"`
}

// DataQualityReport lists all data quality findings of a document
type DataQualityReport struct {
	Issues []DataQualityIssue `json:"issues"`
}

// VulnerabilitySummary tallies vulnerabilities by severity band.
// Total counts every vulnerability, including ones with an unrecognized band.
type VulnerabilitySummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Unknown  int `json:"unknown"`
	Total    int `json:"total"`
}

// NTIACompliance is the verdict of the NTIA minimum elements validation
type NTIACompliance struct {
	Compliant    bool            `json:"compliant"`
	Score        int             `json:"score"`
	Checks       map[string]bool `json:"checks"`
	FailedChecks []string        `json:"failedChecks"`
}

// AnalysisResult is the complete risk analysis of one SBOM document
type AnalysisResult struct {
	Document             SbomDocument         `json:"document"`
	Components           []AnalyzedComponent  `json:"components"`
	DependencyEdges      []DependencyEdge     `json:"dependencyEdges"`
	VulnerabilitySummary VulnerabilitySummary `json:"vulnerabilitySummary"`
	NTIACompliance       NTIACompliance       `json:"ntiaCompliance"`
	DataQuality          DataQualityReport    `json:"dataQuality"`
	OverallRiskScore     int                  `json:"overallRiskScore"`
	AnalyzedAt           string               `json:"analyzedAt"`
}
