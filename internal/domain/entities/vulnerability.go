package entities

// Severity bands reported for a vulnerability
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
	SeverityUnknown  = "UNKNOWN"
)

// Vulnerability represents a single known vulnerability affecting a component.
// Scores are optional: a nil pointer means the source did not provide the value.
type Vulnerability struct {
	ID          string   `json:"id,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Severity    string   `json:"severity"` // CRITICAL, HIGH, MEDIUM, LOW, UNKNOWN
	CVSSMax     *float64 `json:"cvssMax,omitempty"`
	CVSSV3Score *float64 `json:"cvssV3Score,omitempty"`
	CVSSV2Score *float64 `json:"cvssV2Score,omitempty"`
	KEV         *bool    `json:"kev,omitempty"`
	EPSS        *float64 `json:"epss,omitempty"` // 0..1
}

// Identifiers returns the vulnerability ID followed by its aliases
func (v Vulnerability) Identifiers() []string {
	ids := make([]string, 0, len(v.Aliases)+1)
	if v.ID != "" {
		ids = append(ids, v.ID)
	}
	return append(ids, v.Aliases...)
}

// MaxCVSS returns the highest of the known CVSS scores, or 0
func (v Vulnerability) MaxCVSS() float64 {
	score := 0.0
	for _, s := range []*float64{v.CVSSMax, v.CVSSV3Score, v.CVSSV2Score} {
		if s != nil && *s > score {
			score = *s
		}
	}
	return score
}

// IsKEV reports whether the vulnerability is flagged as known exploited
func (v Vulnerability) IsKEV() bool {
	return v.KEV != nil && *v.KEV
}

// EPSSScore returns the exploitation probability, or 0 when unknown
func (v Vulnerability) EPSSScore() float64 {
	if v.EPSS == nil || *v.EPSS < 0 {
		return 0
	}
	return *v.EPSS
}
