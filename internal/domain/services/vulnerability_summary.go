package services

import (
	"strings"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// SummarizeVulnerabilities tallies vulnerabilities by severity band.
// Unrecognized bands are left out of the band counts but kept in Total.
func (s *analysisService) SummarizeVulnerabilities(vulnerabilities [][]entities.Vulnerability) entities.VulnerabilitySummary {
	var summary entities.VulnerabilitySummary
	for _, perComponent := range vulnerabilities {
		summary.Total += len(perComponent)
		for _, v := range perComponent {
			switch strings.ToUpper(v.Severity) {
			case entities.SeverityCritical:
				summary.Critical++
			case entities.SeverityHigh:
				summary.High++
			case entities.SeverityMedium:
				summary.Medium++
			case entities.SeverityLow:
				summary.Low++
			case entities.SeverityUnknown:
				summary.Unknown++
			}
		}
	}
	return summary
}
