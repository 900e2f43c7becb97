package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
	"github.com/ochairo/sbomrisk/internal/external-adapters/report"
)

func isKnownFormat(format string) bool {
	return slices.Contains(report.Formats, strings.ToLower(format))
}

// reportPath names the json report of an SBOM: sbom-analysis-<name>.json
// next to the SBOM or inside outDir
func reportPath(sbomPath, outDir string) string {
	base := filepath.Base(sbomPath)
	name := "sbom-analysis-" + strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
	if outDir == "" {
		outDir = filepath.Dir(sbomPath)
	}
	return filepath.Join(outDir, name)
}

// claimReportPath returns path, or a numbered variant when another input of
// this run already claimed it, so same-named SBOMs never overwrite each other
func claimReportPath(path string, claimed map[string]struct{}) string {
	candidate := path
	stem := strings.TrimSuffix(path, ".json")
	for n := 2; ; n++ {
		if _, taken := claimed[candidate]; !taken {
			break
		}
		candidate = stem + "-" + strconv.Itoa(n) + ".json"
	}
	claimed[candidate] = struct{}{}
	return candidate
}

// writeFile creates path, runs write against it and reports a failed close,
// which is where buffered write errors surface
func writeFile(path string, write func(io.Writer) error) error {
	//nolint:gosec // G304: path is user-provided or derived from user input
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return writeAndClose(f, write)
}

func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (a *app) writeResult(result *entities.AnalysisResult, sbomPath, format string, claimed map[string]struct{}) error {
	if !strings.EqualFold(format, report.FormatJSON) {
		return report.Render(a.stdout, result, format)
	}

	outDir := a.v.GetString("out-dir")
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	path := claimReportPath(reportPath(sbomPath, outDir), claimed)
	if err := writeFile(path, func(w io.Writer) error { return report.WriteJSON(w, result) }); err != nil {
		return err
	}

	a.logger.Info("report written", interfaces.F("file", path))
	fmt.Fprintf(a.stdout, "✓ %s: risk %d/100, %d vulnerabilities -> %s\n",
		sbomPath, result.OverallRiskScore, result.VulnerabilitySummary.Total, path)
	return nil
}
