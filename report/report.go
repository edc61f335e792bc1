// Package report renders scored evidence into shareable trust reports.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nile-security/nile/evidence"
	"github.com/nile-security/nile/internal/nile/score"
)

// Format represents the report output format.
type Format string

const (
	// FormatJSON is a machine-readable report.
	FormatJSON Format = "json"
	// FormatMarkdown is a human-readable report suitable for READMEs
	// and audit handoffs.
	FormatMarkdown Format = "markdown"
)

// ParseFormat converts a string to a Format type.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format: %s", s)
	}
}

// Stats summarizes the evidence behind a report.
type Stats struct {
	SlitherFindings int `json:"slither_findings"`
	HighFindings    int `json:"high_findings"`
	PatternMatches  int `json:"pattern_matches"`
	OpenIssues      int `json:"open_issues"`
}

// TrustReport is the result of report generation.
type TrustReport struct {
	Format      Format        `json:"format"`
	Content     string        `json:"content"`
	Address     string        `json:"address"`
	Name        string        `json:"name,omitempty"`
	Result      *score.Result `json:"result"`
	Stats       Stats         `json:"stats"`
	GeneratedAt time.Time     `json:"generated_at"`
	ToolName    string        `json:"tool_name"`
	ToolVersion string        `json:"tool_version"`
}

// Generator renders trust reports from scored evidence.
type Generator struct {
	ToolName    string
	ToolVersion string
	Weights     score.Weights
}

// NewGenerator creates a report generator with default settings.
func NewGenerator() *Generator {
	return &Generator{
		ToolName:    "NILE",
		ToolVersion: "1.0.0",
		Weights:     score.DefaultWeights,
	}
}

// Generate scores the document and renders it in the requested format.
// A document that already carries a score is re-scored from its raw
// evidence so the report never reflects stale numbers.
func (g *Generator) Generate(doc *evidence.Document, format Format) (*TrustReport, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	result, err := doc.Score(g.Weights)
	if err != nil {
		return nil, err
	}

	report := &TrustReport{
		Format:      format,
		Address:     doc.Address,
		Name:        doc.Name,
		Result:      result,
		Stats:       calculateStats(doc),
		GeneratedAt: time.Now().UTC(),
		ToolName:    g.ToolName,
		ToolVersion: g.ToolVersion,
	}

	switch format {
	case FormatJSON:
		report.Content, err = renderJSON(report)
	case FormatMarkdown:
		report.Content, err = renderMarkdown(report, doc)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func calculateStats(doc *evidence.Document) Stats {
	stats := Stats{
		SlitherFindings: len(doc.Analysis.SlitherFindings),
		PatternMatches:  len(doc.Analysis.PatternMatches),
		OpenIssues:      doc.Posture.OpenCritical + doc.Posture.OpenHigh + doc.Posture.OpenMedium,
	}
	for _, f := range doc.Analysis.SlitherFindings {
		if f.Severity == score.SeverityHigh {
			stats.HighFindings++
		}
	}
	return stats
}

func renderJSON(report *TrustReport) (string, error) {
	// Content is excluded from its own serialization.
	body := struct {
		Address     string        `json:"address"`
		Name        string        `json:"name,omitempty"`
		Result      *score.Result `json:"nile_score"`
		Stats       Stats         `json:"stats"`
		GeneratedAt time.Time     `json:"generated_at"`
		ToolName    string        `json:"tool_name"`
		ToolVersion string        `json:"tool_version"`
	}{
		Address:     report.Address,
		Name:        report.Name,
		Result:      report.Result,
		Stats:       report.Stats,
		GeneratedAt: report.GeneratedAt,
		ToolName:    report.ToolName,
		ToolVersion: report.ToolVersion,
	}
	out, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func renderMarkdown(report *TrustReport, doc *evidence.Document) (string, error) {
	var b strings.Builder

	title := report.Address
	if report.Name != "" {
		title = fmt.Sprintf("%s (`%s`)", report.Name, report.Address)
	}
	fmt.Fprintf(&b, "# NILE Trust Report: %s\n\n", title)
	fmt.Fprintf(&b, "**Grade: %s** — %.2f/100\n\n", report.Result.Grade, report.Result.TotalScore)
	fmt.Fprintf(&b, "Generated %s by %s %s\n\n",
		report.GeneratedAt.Format("2006-01-02"), report.ToolName, report.ToolVersion)

	fmt.Fprintf(&b, "## Dimensions\n\n")
	fmt.Fprintf(&b, "| Dimension | Score |\n|---|---|\n")
	fmt.Fprintf(&b, "| Name | %.2f |\n", report.Result.NameScore)
	fmt.Fprintf(&b, "| Image | %.2f |\n", report.Result.ImageScore)
	fmt.Fprintf(&b, "| Likeness | %.2f |\n", report.Result.LikenessScore)
	fmt.Fprintf(&b, "| Essence | %.2f |\n\n", report.Result.EssenceScore)

	for _, dim := range []string{"name", "image", "likeness", "essence"} {
		details := report.Result.Details[dim]
		if len(details) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", strings.ToUpper(dim[:1])+dim[1:])
		factors := make([]string, 0, len(details))
		for k := range details {
			factors = append(factors, k)
		}
		sort.Strings(factors)
		for _, f := range factors {
			fmt.Fprintf(&b, "- %s: %.2f\n", f, details[f])
		}
		fmt.Fprintln(&b)
	}

	if len(doc.Analysis.SlitherFindings) > 0 {
		fmt.Fprintf(&b, "## Static Analysis Findings\n\n")
		for _, f := range doc.Analysis.SlitherFindings {
			desc := f.Description
			if desc == "" {
				desc = f.Check
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", f.Severity, desc)
		}
		fmt.Fprintln(&b)
	}

	if len(doc.Analysis.PatternMatches) > 0 {
		fmt.Fprintf(&b, "## Known Vulnerability Patterns\n\n")
		for _, m := range doc.Analysis.PatternMatches {
			fmt.Fprintf(&b, "- %s (confidence %.2f)\n", m.SignatureID, m.Confidence)
		}
		fmt.Fprintln(&b)
	}

	stats := report.Stats
	fmt.Fprintf(&b, "## Evidence Summary\n\n")
	fmt.Fprintf(&b, "- Open issues (critical/high/medium): %d\n", stats.OpenIssues)
	fmt.Fprintf(&b, "- Static-analysis findings: %d (%d high)\n", stats.SlitherFindings, stats.HighFindings)
	fmt.Fprintf(&b, "- Pattern matches: %d\n", stats.PatternMatches)

	return b.String(), nil
}
