package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
	"github.com/ochairo/sbomrisk/internal/external-adapters/cyclonedx"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <sbom-file>",
		Short: "Analyze an SBOM and export it as CycloneDX annotated with risk data",
		Long: `Analyze a CycloneDX or SPDX SBOM and write a CycloneDX 1.6 JSON BOM whose
components carry sbomrisk:* risk properties and whose vulnerabilities section
lists every resolved vulnerability.`,
		Example: `  sbomrisk export bom.spdx.json --out bom.risk.cdx.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd.Context(), args[0])
		},
	}

	addAnalysisFlags(cmd.Flags())
	cmd.Flags().String("out", "-", "output file, - for standard output")
	return cmd
}

func (a *app) runExport(ctx context.Context, path string) error {
	orch, err := a.newOrchestrator()
	if err != nil {
		return err
	}

	result, err := orch.AnalyzeFile(ctx, path)
	if err != nil {
		return err
	}

	exporter := cyclonedx.NewExporter(version)
	out := a.v.GetString("out")
	if out == "" || out == "-" {
		return exporter.Export(a.stdout, result)
	}

	if err := writeFile(out, func(w io.Writer) error { return exporter.Export(w, result) }); err != nil {
		return err
	}
	a.logger.Info("CycloneDX export written", interfaces.F("file", out))
	return nil
}
