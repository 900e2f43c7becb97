// Package report renders analysis results for terminals and documents.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// Output formats
const (
	FormatJSON     = "json"
	FormatTable    = "table"
	FormatMarkdown = "markdown"
)

// Formats lists the supported output formats
var Formats = []string{FormatJSON, FormatTable, FormatMarkdown}

// Render writes result to w in the requested format
func Render(w io.Writer, result *entities.AnalysisResult, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return WriteJSON(w, result)
	case FormatTable:
		_, err := fmt.Fprintln(w, summaryTable(result).Render()+"\n"+componentTable(result).Render())
		return err
	case FormatMarkdown:
		_, err := fmt.Fprintln(w, summaryTable(result).RenderMarkdown()+"\n\n"+componentTable(result).RenderMarkdown())
		return err
	default:
		return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteJSON writes the result as indented JSON
func WriteJSON(w io.Writer, result *entities.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	return nil
}

func summaryTable(result *entities.AnalysisResult) table.Writer {
	doc := result.Document
	summary := result.VulnerabilitySummary
	ntia := result.NTIACompliance

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(doc.SourceFile)
	tw.AppendRows([]table.Row{
		{"Format", strings.TrimSpace(string(doc.BOMFormat) + " " + doc.SpecVersion)},
		{"Components", len(result.Components)},
		{"Dependency edges", len(result.DependencyEdges)},
		{"Overall risk score", result.OverallRiskScore},
		{"NTIA compliance", ntiaCell(ntia)},
		{"Vulnerabilities", fmt.Sprintf("%d (critical %d, high %d, medium %d, low %d, unknown %d)",
			summary.Total, summary.Critical, summary.High, summary.Medium, summary.Low, summary.Unknown)},
		{"Data quality issues", len(result.DataQuality.Issues)},
		{"Analyzed at", result.AnalyzedAt},
	})
	return tw
}

func ntiaCell(ntia entities.NTIACompliance) string {
	cell := strconv.Itoa(ntia.Score) + "%"
	if ntia.Compliant {
		return cell + " compliant"
	}
	return cell + " missing " + strings.Join(ntia.FailedChecks, ", ")
}

// componentTable lists components from riskiest to safest
func componentTable(result *entities.AnalysisResult) table.Writer {
	components := slices.Clone(result.Components)
	slices.SortStableFunc(components, func(a, b entities.AnalyzedComponent) int {
		return a.RiskScore - b.RiskScore
	})

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Component", "Version", "Ecosystem", "License", "Risk", "Vulnerabilities", "Notes"})
	for _, c := range components {
		tw.AppendRow(table.Row{
			c.Name,
			c.Version,
			c.Ecosystem,
			text.WrapSoft(c.License, 40),
			c.RiskScore,
			vulnerabilityCell(c.Vulnerabilities),
			notesCell(c),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Risk", Align: text.AlignRight},
	})
	return tw
}

func vulnerabilityCell(vulns []entities.Vulnerability) string {
	if len(vulns) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(vulns))
	for _, v := range vulns {
		id := v.ID
		if v.IsKEV() {
			id += " (KEV)"
		}
		ids = append(ids, id)
	}
	return strings.Join(ids, ", ")
}

func notesCell(c entities.AnalyzedComponent) string {
	var notes []string
	if c.LookupError != "" {
		notes = append(notes, "lookup failed")
	}
	if dq := c.DataQuality; dq != nil {
		if dq.MissingPurl {
			notes = append(notes, "no purl")
		}
		if dq.MissingHashes {
			notes = append(notes, "no hashes")
		}
		if dq.MissingSupplier {
			notes = append(notes, "no supplier")
		}
	}
	return strings.Join(notes, ", ")
}
