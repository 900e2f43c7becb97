// Package services defines interfaces for domain service contracts.
package services

import (
	"time"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// AnalysisService defines the pure business rules of an SBOM risk analysis.
// None of the operations perform I/O.
type AnalysisService interface {
	// Classification and structure
	DetectFormat(doc map[string]any) (entities.BOMFormat, error)
	BuildDependencyGraph(components []entities.Component, edges []entities.DependencyEdge) []entities.DependencyEdge

	// Independent analysis stages
	ValidateNTIA(doc entities.SbomDocument, edges []entities.DependencyEdge) entities.NTIACompliance
	ScoreComponent(component entities.Component, vulnerabilities []entities.Vulnerability, policy entities.ComponentPolicy) int
	CalculateOverallRisk(scores []int) int
	SummarizeVulnerabilities(vulnerabilities [][]entities.Vulnerability) entities.VulnerabilitySummary
	AnalyzeDataQuality(components []entities.Component) (entities.DataQualityReport, []*entities.DataQualityFlags)
	EvaluatePolicy(component entities.Component) entities.ComponentPolicy

	// Composition
	Assemble(input AssemblyInput) *entities.AnalysisResult
}

// AssemblyInput carries the outputs of every analysis stage, index-aligned
// with Parsed.Components
type AssemblyInput struct {
	Parsed          *entities.ParsedSbom
	Edges           []entities.DependencyEdge
	Vulnerabilities [][]entities.Vulnerability
	LookupErrors    []string
	Scores          []int
	Summary         entities.VulnerabilitySummary
	NTIA            entities.NTIACompliance
	DataQuality     entities.DataQualityReport
	QualityFlags    []*entities.DataQualityFlags
	AnalyzedAt      time.Time
}
