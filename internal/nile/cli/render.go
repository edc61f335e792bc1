package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var (
	success = lipgloss.Color("#22C55E") // green
	warning = lipgloss.Color("#F59E0B") // amber
	danger  = lipgloss.Color("#EF4444") // red
	dim     = lipgloss.Color("#6B7280") // muted gray

	gradeColors = map[string]lipgloss.Color{
		"A+": success,
		"A":  success,
		"B":  lipgloss.Color("#A3E635"), // lime
		"C":  warning,
		"D":  lipgloss.Color("#FB923C"), // orange
		"F":  danger,
	}

	dimStyle = lipgloss.NewStyle().Foreground(dim)
)

func gradeColor(grade string) lipgloss.Color {
	if c, ok := gradeColors[grade]; ok {
		return c
	}
	return dim
}

func renderGrade(grade string, color bool) string {
	if !color {
		return grade
	}
	return lipgloss.NewStyle().Bold(true).Foreground(gradeColor(grade)).Render(grade)
}

func renderSummaryTable(out io.Writer, results []scoredFile) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "CONTRACT\tGRADE\tTOTAL\tNAME\tIMAGE\tLIKENESS\tESSENCE\n")
	fmt.Fprintf(w, "--------\t-----\t-----\t----\t-----\t--------\t-------\n")
	for _, r := range results {
		label := r.Address
		if r.Name != "" {
			label = r.Name
		}
		res := r.Result
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			label,
			res.Grade, res.TotalScore,
			res.NameScore, res.ImageScore, res.LikenessScore, res.EssenceScore,
		)
	}
	w.Flush()
}

func renderDetailedScore(out io.Writer, r scoredFile, color bool) {
	label := r.Address
	if r.Name != "" {
		label = fmt.Sprintf("%s (%s)", r.Name, r.Address)
	}

	fmt.Fprintf(out, "NILE SCORE: %s  [%s] %.2f/100\n",
		label, renderGrade(r.Result.Grade, color), r.Result.TotalScore)
	line := strings.Repeat("─", 60)
	if color {
		line = dimStyle.Render(line)
	}
	fmt.Fprintln(out, line)

	renderDimension(out, "Name", r.Result.NameScore, r.Result.Details["name"])
	renderDimension(out, "Image", r.Result.ImageScore, r.Result.Details["image"])
	renderDimension(out, "Likeness", r.Result.LikenessScore, r.Result.Details["likeness"])
	renderDimension(out, "Essence", r.Result.EssenceScore, r.Result.Details["essence"])
}

func renderDimension(out io.Writer, name string, dimScore float64, details map[string]float64) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  %s\t%.2f/100\n", name, dimScore)
	w.Flush()

	factors := make([]string, 0, len(details))
	for k := range details {
		factors = append(factors, k)
	}
	sort.Strings(factors)
	for _, f := range factors {
		fmt.Fprintf(out, "    - %s: %.2f\n", f, details[f])
	}
}
