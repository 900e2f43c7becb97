package services

import (
	"strings"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// AnalyzeDataQuality reports missing purl, hashes and supplier per component.
// The returned flags are index-aligned with components; an entry is nil when
// the component has no findings.
func (s *analysisService) AnalyzeDataQuality(components []entities.Component) (entities.DataQualityReport, []*entities.DataQualityFlags) {
	report := entities.DataQualityReport{Issues: []entities.DataQualityIssue{}}
	flags := make([]*entities.DataQualityFlags, len(components))

	for i, c := range components {
		var f entities.DataQualityFlags
		if strings.TrimSpace(c.Purl) == "" {
			f.MissingPurl = true
			report.Issues = append(report.Issues, entities.DataQualityIssue{
				ComponentID: c.ID, Field: entities.FieldPurl, Issue: entities.IssueMissingPurl,
			})
		}
		if len(c.Hashes) == 0 {
			f.MissingHashes = true
			report.Issues = append(report.Issues, entities.DataQualityIssue{
				ComponentID: c.ID, Field: entities.FieldHashes, Issue: entities.IssueMissingHashes,
			})
		}
		if strings.TrimSpace(c.Supplier) == "" {
			f.MissingSupplier = true
			report.Issues = append(report.Issues, entities.DataQualityIssue{
				ComponentID: c.ID, Field: entities.FieldSupplier, Issue: entities.IssueMissingSupplier,
			})
		}
		if f != (entities.DataQualityFlags{}) {
			flags[i] = &f
		}
	}

	return report, flags
}
