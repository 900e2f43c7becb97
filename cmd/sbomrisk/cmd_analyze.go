package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ochairo/sbomrisk/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/sbomrisk/internal/domain-orchestrators"
	"github.com/ochairo/sbomrisk/internal/domain/entities"
	domaingateways "github.com/ochairo/sbomrisk/internal/domain/interfaces/gateways"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces/parsers"
	"github.com/ochairo/sbomrisk/internal/domain/services"
	"github.com/ochairo/sbomrisk/internal/external-adapters/cyclonedx"
	"github.com/ochairo/sbomrisk/internal/external-adapters/report"
	"github.com/ochairo/sbomrisk/internal/external-adapters/sbomjson"
	"github.com/ochairo/sbomrisk/internal/external-adapters/spdx"
	"github.com/ochairo/sbomrisk/internal/external-adapters/yaml"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <sbom-file>...",
		Short: "Analyze SBOM files and write risk reports",
		Long: `Analyze one or more CycloneDX or SPDX JSON files.

With the json output format each report is written as sbom-analysis-<name>.json
next to its SBOM, or into --out-dir. The table and markdown formats print to
standard output. Every file is processed even when some fail; the exit code is
non-zero if any file failed or was blocked by a --fail-* gate.`,
		Example: `  sbomrisk analyze bom.cdx.json
  sbomrisk analyze --lookup file --vulns-file vulns.json -o table *.json
  sbomrisk analyze --policy policy.yaml --kev --epss bom.spdx.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd.Context(), args)
		},
	}

	addAnalysisFlags(cmd.Flags())
	f := cmd.Flags()
	f.String("out-dir", "", "directory for json reports (default is next to each SBOM)")
	f.StringP("output", "o", report.FormatJSON, "output format: json, table or markdown")
	f.String("key", "", "public key file or URL; when set every SBOM must carry a valid <file>.asc signature")
	f.Int("fail-under", 0, "fail when the overall risk score is below this value")
	f.Bool("fail-on-kev", false, "fail when any known exploited vulnerability is found")
	f.Bool("fail-on-critical", false, "fail when any CRITICAL vulnerability is found")
	return cmd
}

// addAnalysisFlags registers the flags shared by analyze and export
func addAnalysisFlags(f *pflag.FlagSet) {
	f.String("lookup", gateways.LookupOSV, "vulnerability source: osv, file or none")
	f.String("osv-url", gateways.DefaultOSVURL, "OSV query endpoint")
	f.String("vulns-file", "", "JSON file mapping purl, name@version or name to vulnerabilities (lookup=file)")
	f.Int("concurrency", 8, "parallel vulnerability lookups per SBOM")
	f.Int("batch-concurrency", 4, "SBOM files analyzed in parallel")
	f.Float64("rate-limit", 10, "vulnerability lookups per second (0 disables the limit)")
	f.Int("rate-burst", 5, "burst size of the lookup rate limiter")
	f.Duration("lookup-timeout", 30*time.Second, "timeout of a single lookup attempt")
	f.Int("retries", 3, "retries of a failed lookup")
	f.Int("cache-size", 4096, "entries kept in the lookup cache (0 disables it)")
	f.Duration("cache-ttl", time.Hour, "lifetime of cached lookups")
	f.String("policy", "", "YAML risk policy with license and maintainer rules")
	f.Bool("kev", false, "flag vulnerabilities listed in the CISA KEV catalogue")
	f.String("kev-feed", gateways.DefaultKEVFeed, "KEV catalogue URL or file")
	f.Bool("epss", false, "attach FIRST EPSS exploitation probabilities")
	f.String("epss-url", gateways.DefaultEPSSURL, "EPSS API endpoint")
}

func (a *app) lookupConfig() gateways.LookupConfig {
	return gateways.LookupConfig{
		Mode:              a.v.GetString("lookup"),
		OSVURL:            a.v.GetString("osv-url"),
		VulnsFile:         a.v.GetString("vulns-file"),
		RequestsPerSecond: a.v.GetFloat64("rate-limit"),
		Burst:             a.v.GetInt("rate-burst"),
		Retries:           uint64(max(a.v.GetInt("retries"), 0)),
		Timeout:           a.v.GetDuration("lookup-timeout"),
		CacheSize:         a.v.GetInt("cache-size"),
		CacheTTL:          a.v.GetDuration("cache-ttl"),
		KEV:               a.v.GetBool("kev"),
		KEVFeed:           a.v.GetString("kev-feed"),
		EPSS:              a.v.GetBool("epss"),
		EPSSURL:           a.v.GetString("epss-url"),
	}
}

// newOrchestrator wires the analysis pipeline from configuration
func (a *app) newOrchestrator() (*orchestrators.AnalysisOrchestrator, error) {
	var policy *entities.RiskPolicy
	if path := a.v.GetString("policy"); path != "" {
		loaded, err := yaml.NewPolicyParser().ParseFile(path)
		if err != nil {
			return nil, err
		}
		policy = loaded
	}

	lookup, err := gateways.NewVulnerabilityGateway(a.lookupConfig(), a.logger)
	if err != nil {
		return nil, err
	}

	return orchestrators.NewAnalysisOrchestrator(
		services.NewAnalysisService(policy),
		lookup,
		sbomjson.Decode,
		[]parsers.SbomParser{cyclonedx.NewParser(), spdx.NewParser()},
		a.logger,
		orchestrators.AnalysisOrchestratorConfig{
			Concurrency:      a.v.GetInt("concurrency"),
			BatchConcurrency: a.v.GetInt("batch-concurrency"),
		},
	), nil
}

func (a *app) runAnalyze(ctx context.Context, paths []string) error {
	format := a.v.GetString("output")
	if !isKnownFormat(format) {
		return fmt.Errorf("unknown output format %q", format)
	}

	orch, err := a.newOrchestrator()
	if err != nil {
		return err
	}

	policy := orchestrators.GatePolicy{
		MinOverallScore: a.v.GetInt("fail-under"),
		BlockOnKEV:      a.v.GetBool("fail-on-kev"),
		BlockOnCritical: a.v.GetBool("fail-on-critical"),
	}
	var signatures domaingateways.SignatureGateway
	if key := a.v.GetString("key"); key != "" {
		signatures = gateways.NewSignatureGateway(a.logger)
		if err := importKey(ctx, signatures, key); err != nil {
			return err
		}
		policy.RequireSignature = true
	}

	results, err := orchestrators.NewSecurityOrchestrator(orch, signatures, a.logger).PerformSecurityWorkflow(ctx, paths, policy)
	if err != nil {
		return err
	}

	failed := 0
	claimed := map[string]struct{}{}
	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(a.stderr, "✗ %s: %v\n", r.Path, r.Error)
			failed++
			continue
		}
		if err := a.writeResult(r.Result, r.Path, format, claimed); err != nil {
			fmt.Fprintf(a.stderr, "✗ %s: %v\n", r.Path, err)
			failed++
			continue
		}
		if r.Blocked {
			fmt.Fprintf(a.stderr, "🚫 %s: %s\n", r.Path, r.BlockReason)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}
