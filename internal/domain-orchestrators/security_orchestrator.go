package orchestrators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces/gateways"
)

// GatePolicy decides which analyzed SBOMs are blocked. Zero values disable
// the respective check.
type GatePolicy struct {
	// RequireSignature verifies <file><SignatureSuffix> before analysis
	RequireSignature bool
	SignatureSuffix  string
	// MinOverallScore blocks results whose overall risk score is lower
	MinOverallScore int
	// BlockOnKEV blocks results with any known exploited vulnerability
	BlockOnKEV bool
	// BlockOnCritical blocks results with any CRITICAL vulnerability
	BlockOnCritical bool
}

// SecurityOrchestrator coordinates the gated analysis workflow: signature
// verification, analysis and the release gate
type SecurityOrchestrator struct {
	analysis   *AnalysisOrchestrator
	signatures gateways.SignatureGateway
	logger     interfaces.Logger
}

// NewSecurityOrchestrator creates a new security orchestrator. signatures may
// be nil when no policy requires signatures.
func NewSecurityOrchestrator(analysis *AnalysisOrchestrator, signatures gateways.SignatureGateway, logger interfaces.Logger) *SecurityOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &SecurityOrchestrator{
		analysis:   analysis,
		signatures: signatures,
		logger:     logger,
	}
}

// SecurityWorkflowResult contains the gated analysis of one SBOM file
type SecurityWorkflowResult struct {
	BatchResult
	Signature        *entities.SignatureVerification
	Blocked          bool
	BlockReason      string
	WorkflowDuration time.Duration
}

// PerformSecurityWorkflow verifies, analyzes and gates every file. Files
// failing verification are not analyzed; results keep input order.
func (o *SecurityOrchestrator) PerformSecurityWorkflow(ctx context.Context, paths []string, policy GatePolicy) ([]SecurityWorkflowResult, error) {
	startTime := time.Now()
	results := make([]SecurityWorkflowResult, len(paths))

	// Step 1: Signature verification
	toAnalyze := make([]string, 0, len(paths))
	positions := make([]int, 0, len(paths))
	for i, path := range paths {
		results[i].Path = path
		if !policy.RequireSignature {
			toAnalyze, positions = append(toAnalyze, path), append(positions, i)
			continue
		}
		if o.signatures == nil {
			return nil, fmt.Errorf("signature verification required but no verifier configured")
		}

		suffix := policy.SignatureSuffix
		if suffix == "" {
			suffix = ".asc"
		}
		sig, err := o.signatures.VerifyGPGSignatureFromFile(path, path+suffix)
		if err != nil {
			results[i].Error = err
			o.logger.Warn("signature verification failed", interfaces.F("file", path), interfaces.F("error", err.Error()))
			continue
		}
		results[i].Signature = sig
		toAnalyze, positions = append(toAnalyze, path), append(positions, i)
	}

	// Step 2: Analysis
	for j, r := range o.analysis.AnalyzeBatch(ctx, toAnalyze) {
		results[positions[j]].BatchResult = r
	}

	// Step 3: Release gate
	for i := range results {
		r := &results[i]
		if r.Result == nil {
			continue
		}
		if reason := determineBlockReason(r.Result, policy); reason != "" {
			r.Blocked = true
			r.BlockReason = reason
			o.logger.Warn("SBOM blocked", interfaces.F("file", r.Path), interfaces.F("reason", reason))
		}
	}

	elapsed := time.Since(startTime)
	for i := range results {
		results[i].WorkflowDuration = elapsed
	}
	return results, nil
}

// determineBlockReason lists every gate the result violates, or returns ""
func determineBlockReason(result *entities.AnalysisResult, policy GatePolicy) string {
	var reasons []string

	if policy.BlockOnCritical && result.VulnerabilitySummary.Critical > 0 {
		reasons = append(reasons, fmt.Sprintf("%d CRITICAL vulnerabilities found", result.VulnerabilitySummary.Critical))
	}

	if policy.BlockOnKEV {
		kev := 0
		for _, c := range result.Components {
			for _, v := range c.Vulnerabilities {
				if v.IsKEV() {
					kev++
				}
			}
		}
		if kev > 0 {
			reasons = append(reasons, fmt.Sprintf("%d known exploited vulnerabilities found", kev))
		}
	}

	if policy.MinOverallScore > 0 && result.OverallRiskScore < policy.MinOverallScore {
		reasons = append(reasons, fmt.Sprintf("overall risk score %d/100 below threshold (%d)", result.OverallRiskScore, policy.MinOverallScore))
	}

	return strings.Join(reasons, "; ")
}

// GetSecuritySummary generates a human-readable summary of one result
func GetSecuritySummary(result *SecurityWorkflowResult) string {
	switch {
	case result.Error != nil:
		return fmt.Sprintf("✗ FAILED: %v", result.Error)
	case result.Blocked:
		return fmt.Sprintf("🚫 BLOCKED: %s", result.BlockReason)
	}

	r := result.Result
	summary := fmt.Sprintf("✅ PASSED: overall risk score %d/100\n", r.OverallRiskScore)
	summary += fmt.Sprintf("   Vulnerabilities: %d total\n", r.VulnerabilitySummary.Total)
	summary += fmt.Sprintf("   NTIA minimum elements: %d%%\n", r.NTIACompliance.Score)
	if result.Signature != nil {
		summary += fmt.Sprintf("   Signed by: %s\n", result.Signature.Signer)
	}
	summary += fmt.Sprintf("   Duration: %v", result.Duration)
	return summary
}
