// Package services implements domain business logic and use cases.
package services

import (
	"time"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces/services"
)

// analyzedAtLayout renders timestamps as ISO-8601 with millisecond precision
const analyzedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// analysisService implements AnalysisService with pure business logic
type analysisService struct {
	policy *entities.RiskPolicy
	now    func() time.Time
}

// NewAnalysisService creates a new analysis service. A nil policy disables
// policy deductions.
func NewAnalysisService(policy *entities.RiskPolicy) services.AnalysisService {
	return NewAnalysisServiceWithClock(policy, time.Now)
}

// NewAnalysisServiceWithClock creates an analysis service whose package age
// computations use the given clock
func NewAnalysisServiceWithClock(policy *entities.RiskPolicy, now func() time.Time) services.AnalysisService {
	if now == nil {
		now = time.Now
	}
	return &analysisService{policy: policy, now: now}
}

// Assemble composes the stage outputs into the final analysis result
// Pure business logic - no I/O
func (s *analysisService) Assemble(input services.AssemblyInput) *entities.AnalysisResult {
	parsed := input.Parsed

	components := make([]entities.AnalyzedComponent, len(parsed.Components))
	for i, c := range parsed.Components {
		analyzed := entities.AnalyzedComponent{
			Component:       c,
			Vulnerabilities: []entities.Vulnerability{},
		}
		if i < len(input.Vulnerabilities) && input.Vulnerabilities[i] != nil {
			analyzed.Vulnerabilities = input.Vulnerabilities[i]
		}
		if i < len(input.Scores) {
			analyzed.RiskScore = input.Scores[i]
		}
		if i < len(input.QualityFlags) {
			analyzed.DataQuality = input.QualityFlags[i]
		}
		if i < len(input.LookupErrors) {
			analyzed.LookupError = input.LookupErrors[i]
		}
		components[i] = analyzed
	}

	edges := input.Edges
	if edges == nil {
		edges = []entities.DependencyEdge{}
	}

	quality := input.DataQuality
	if quality.Issues == nil {
		quality.Issues = []entities.DataQualityIssue{}
	}

	return &entities.AnalysisResult{
		Document:             parsed.Document,
		Components:           components,
		DependencyEdges:      edges,
		VulnerabilitySummary: input.Summary,
		NTIACompliance:       input.NTIA,
		DataQuality:          quality,
		OverallRiskScore:     s.CalculateOverallRisk(input.Scores),
		AnalyzedAt:           input.AnalyzedAt.UTC().Format(analyzedAtLayout),
	}
}
