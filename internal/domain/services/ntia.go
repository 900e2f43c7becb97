package services

import (
	"math"
	"strings"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// ntiaCheckOrder is the reporting order of failed checks
var ntiaCheckOrder = []string{
	entities.CheckDependencyGraph,
	entities.CheckAuthorOrOriginator,
	entities.CheckSbomTimestamp,
	entities.CheckSpecVersion,
	entities.CheckSerialNumberOrDocumentNamespace,
}

// ValidateNTIA evaluates the NTIA minimum elements against a normalized
// document and its (post-synthesis) dependency edges. All checks always run.
func (s *analysisService) ValidateNTIA(doc entities.SbomDocument, edges []entities.DependencyEdge) entities.NTIACompliance {
	checks := map[string]bool{
		entities.CheckDependencyGraph:                 len(edges) > 0,
		entities.CheckAuthorOrOriginator:              len(doc.Authors) > 0 || len(doc.Generators) > 0,
		entities.CheckSbomTimestamp:                   strings.TrimSpace(doc.Created) != "",
		entities.CheckSpecVersion:                     strings.TrimSpace(doc.SpecVersion) != "",
		entities.CheckSerialNumberOrDocumentNamespace: doc.SerialNumber != "" || doc.DocumentNamespace != "",
	}

	passed := 0
	failed := make([]string, 0)
	for _, name := range ntiaCheckOrder {
		if checks[name] {
			passed++
		} else {
			failed = append(failed, name)
		}
	}

	return entities.NTIACompliance{
		Compliant:    len(failed) == 0,
		Score:        int(math.Round(100 * float64(passed) / float64(len(ntiaCheckOrder)))),
		Checks:       checks,
		FailedChecks: failed,
	}
}
