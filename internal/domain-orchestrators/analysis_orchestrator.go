// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces/gateways"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces/parsers"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces/services"
)

// DocumentDecoder turns raw bytes into a generic JSON object
type DocumentDecoder func(data []byte, sourceFile string) (map[string]any, error)

// AnalysisOrchestratorConfig holds configuration for the orchestrator
type AnalysisOrchestratorConfig struct {
	// Concurrency bounds parallel vulnerability lookups per document
	Concurrency int
	// BatchConcurrency bounds documents analyzed in parallel
	BatchConcurrency int
	// Now stamps analyzedAt; defaults to time.Now
	Now func() time.Time
}

// AnalysisOrchestrator runs the full SBOM analysis pipeline: decode, detect,
// parse, graph, lookup, score and assemble
type AnalysisOrchestrator struct {
	service          services.AnalysisService
	lookup           gateways.VulnerabilityGateway
	decode           DocumentDecoder
	parsers          map[entities.BOMFormat]parsers.SbomParser
	logger           interfaces.Logger
	concurrency      int
	batchConcurrency int
	now              func() time.Time
}

// NewAnalysisOrchestrator creates a new analysis orchestrator
func NewAnalysisOrchestrator(
	service services.AnalysisService,
	lookup gateways.VulnerabilityGateway,
	decode DocumentDecoder,
	sbomParsers []parsers.SbomParser,
	logger interfaces.Logger,
	config AnalysisOrchestratorConfig,
) *AnalysisOrchestrator {
	registry := make(map[entities.BOMFormat]parsers.SbomParser, len(sbomParsers))
	for _, p := range sbomParsers {
		registry[p.Format()] = p
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = 4
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &AnalysisOrchestrator{
		service:          service,
		lookup:           lookup,
		decode:           decode,
		parsers:          registry,
		logger:           logger,
		concurrency:      config.Concurrency,
		batchConcurrency: config.BatchConcurrency,
		now:              config.Now,
	}
}

// Analyze runs the pipeline on one document. It returns either a complete
// result or an error; lookup failures are recorded per component instead.
func (o *AnalysisOrchestrator) Analyze(ctx context.Context, data []byte, sourceFile string) (*entities.AnalysisResult, error) {
	// Step 1: Decode and classify
	doc, err := o.decode(data, sourceFile)
	if err != nil {
		return nil, err
	}

	format, err := o.service.DetectFormat(doc)
	if err != nil {
		return nil, withSourceFile(err, sourceFile)
	}

	parser, ok := o.parsers[format]
	if !ok {
		return nil, fmt.Errorf("no parser registered for %s", format)
	}

	// Step 2: Normalize
	parsed, err := parser.Parse(doc, sourceFile)
	if err != nil {
		return nil, withSourceFile(err, sourceFile)
	}
	edges := o.service.BuildDependencyGraph(parsed.Components, parsed.Edges)

	o.logger.Debug("SBOM parsed",
		interfaces.F("file", sourceFile),
		interfaces.F("format", string(format)),
		interfaces.F("components", len(parsed.Components)),
		interfaces.F("edges", len(edges)),
		interfaces.F("synthesized", len(parsed.Edges) == 0 && len(edges) > 0),
	)

	// Step 3: Resolve vulnerabilities
	vulns, lookupErrors := o.lookupAll(ctx, parsed.Components)

	// Step 4: Independent analysis stages
	input := services.AssemblyInput{
		Parsed:          parsed,
		Edges:           edges,
		Vulnerabilities: vulns,
		LookupErrors:    lookupErrors,
	}
	o.runStages(parsed, vulns, &input)

	// Step 5: Assemble
	input.AnalyzedAt = o.now()
	result := o.service.Assemble(input)

	o.logger.Info("SBOM analyzed",
		interfaces.F("file", sourceFile),
		interfaces.F("overall_risk", result.OverallRiskScore),
		interfaces.F("vulnerabilities", result.VulnerabilitySummary.Total),
		interfaces.F("ntia_score", result.NTIACompliance.Score),
	)
	return result, nil
}

// AnalyzeFile reads and analyzes one SBOM file. The document records the
// file's base name as its source.
func (o *AnalysisOrchestrator) AnalyzeFile(ctx context.Context, path string) (*entities.AnalysisResult, error) {
	//nolint:gosec // G304: SBOM path is user-provided input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SBOM: %w", err)
	}
	return o.Analyze(ctx, data, filepath.Base(path))
}

// lookupAll fans out one lookup per component. A failed lookup yields an
// empty list and a recorded error for that component only.
func (o *AnalysisOrchestrator) lookupAll(ctx context.Context, components []entities.Component) ([][]entities.Vulnerability, []string) {
	vulns := make([][]entities.Vulnerability, len(components))
	lookupErrors := make([]string, len(components))

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i, component := range components {
		g.Go(func() error {
			found, err := o.lookup.Lookup(ctx, component)
			if err != nil {
				o.logger.Warn("vulnerability lookup failed",
					interfaces.F("component", component.ID),
					interfaces.F("name", component.Name),
					interfaces.F("error", err.Error()),
				)
				vulns[i] = []entities.Vulnerability{}
				lookupErrors[i] = err.Error()
				return nil
			}
			if found == nil {
				found = []entities.Vulnerability{}
			}
			vulns[i] = found
			return nil
		})
	}
	_ = g.Wait()

	return vulns, lookupErrors
}

// runStages computes scores, NTIA, summary and data quality concurrently.
// The stages are pure and write disjoint fields of input.
func (o *AnalysisOrchestrator) runStages(parsed *entities.ParsedSbom, vulns [][]entities.Vulnerability, input *services.AssemblyInput) {
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		scores := make([]int, len(parsed.Components))
		for i, c := range parsed.Components {
			scores[i] = o.service.ScoreComponent(c, vulns[i], o.service.EvaluatePolicy(c))
		}
		input.Scores = scores
	}()
	go func() {
		defer wg.Done()
		input.NTIA = o.service.ValidateNTIA(parsed.Document, input.Edges)
	}()
	go func() {
		defer wg.Done()
		input.Summary = o.service.SummarizeVulnerabilities(vulns)
	}()
	go func() {
		defer wg.Done()
		input.DataQuality, input.QualityFlags = o.service.AnalyzeDataQuality(parsed.Components)
	}()

	wg.Wait()
}

// BatchResult is the outcome of analyzing one file of a batch
type BatchResult struct {
	Path     string
	Result   *entities.AnalysisResult
	Error    error
	Duration time.Duration
}

// AnalyzeBatch analyzes every file independently and in parallel. Results
// are returned in input order; a failing file never stops the others.
func (o *AnalysisOrchestrator) AnalyzeBatch(ctx context.Context, paths []string) []BatchResult {
	results := make([]BatchResult, len(paths))

	var g errgroup.Group
	g.SetLimit(o.batchConcurrency)

	for i, path := range paths {
		g.Go(func() error {
			start := time.Now()
			result, err := o.AnalyzeFile(ctx, path)
			results[i] = BatchResult{
				Path:     path,
				Result:   result,
				Error:    err,
				Duration: time.Since(start),
			}
			if err != nil {
				o.logger.Error("SBOM analysis failed", interfaces.F("file", path), interfaces.F("error", err.Error()))
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Failed counts batch entries that produced an error
func Failed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Error != nil {
			n++
		}
	}
	return n
}

// withSourceFile stamps typed domain errors with the file they came from
func withSourceFile(err error, sourceFile string) error {
	var unsupported *entities.UnsupportedFormatError
	if errors.As(err, &unsupported) && unsupported.SourceFile == "" {
		unsupported.SourceFile = sourceFile
	}
	var malformed *entities.MalformedInputError
	if errors.As(err, &malformed) && malformed.SourceFile == "" {
		malformed.SourceFile = sourceFile
	}
	return err
}
