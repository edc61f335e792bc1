package slither

import (
	"sort"
	"strings"

	"github.com/nile-security/nile/internal/nile/score"
)

// GateThreshold defines the finding threshold for gating a scan pipeline.
type GateThreshold string

const (
	// GateNoHigh fails if any high-impact findings are present.
	GateNoHigh GateThreshold = "no_high"
	// GateNoHighMedium fails if any high- or medium-impact findings are present.
	GateNoHighMedium GateThreshold = "no_high_medium"
	// GateNoFindings fails if any findings at all are present.
	GateNoFindings GateThreshold = "no_findings"
)

// Summary contains finding counts by normalized severity.
type Summary struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Info   int `json:"info"`
	Total  int `json:"total"`
}

// Analysis contains the analysis results and gate decision.
type Analysis struct {
	Summary       Summary         `json:"summary"`
	PassesGate    bool            `json:"passes_gate"`
	GateThreshold GateThreshold   `json:"gate_threshold"`
	GateMessage   string          `json:"gate_message"`
	TopFindings   []score.Finding `json:"top_findings,omitempty"`
}

// Analyzer processes Slither results.
type Analyzer struct {
	Threshold  GateThreshold
	IgnoreInfo bool
}

// NewAnalyzer creates an analyzer with the specified gate threshold.
func NewAnalyzer(threshold GateThreshold) *Analyzer {
	return &Analyzer{Threshold: threshold}
}

// Analyze processes a Slither result and returns the analysis.
func (a *Analyzer) Analyze(result *Result) *Analysis {
	findings := Findings(result)
	if a.IgnoreInfo {
		var filtered []score.Finding
		for _, f := range findings {
			if f.Severity != score.SeverityInfo {
				filtered = append(filtered, f)
			}
		}
		findings = filtered
	}

	summary := summarize(findings)
	passes, message := a.checkGate(summary)

	return &Analysis{
		Summary:       summary,
		PassesGate:    passes,
		GateThreshold: a.Threshold,
		GateMessage:   message,
		TopFindings:   topFindings(findings, 10),
	}
}

// AnalyzeFromJSON parses raw Slither output and returns the analysis.
func (a *Analyzer) AnalyzeFromJSON(data []byte) (*Analysis, error) {
	result, err := ParseSlitherJSON(data)
	if err != nil {
		return nil, err
	}
	return a.Analyze(result), nil
}

// Findings converts detector results into normalized engine findings.
func Findings(result *Result) []score.Finding {
	var findings []score.Finding
	for _, d := range result.Detectors() {
		findings = append(findings, score.Finding{
			Severity:    NormalizeImpact(d.Impact),
			Check:       d.Check,
			Description: firstLine(d.Description),
		})
	}
	return findings
}

func summarize(findings []score.Finding) Summary {
	var s Summary
	s.Total = len(findings)
	for _, f := range findings {
		switch f.Severity {
		case score.SeverityHigh:
			s.High++
		case score.SeverityMedium:
			s.Medium++
		case score.SeverityLow:
			s.Low++
		default:
			s.Info++
		}
	}
	return s
}

func (a *Analyzer) checkGate(s Summary) (bool, string) {
	switch a.Threshold {
	case GateNoHigh:
		if s.High > 0 {
			return false, "Gate failed: high-impact findings present"
		}
		return true, "Gate passed: no high-impact findings"

	case GateNoHighMedium:
		if s.High > 0 || s.Medium > 0 {
			return false, "Gate failed: high- or medium-impact findings present"
		}
		return true, "Gate passed: no high- or medium-impact findings"

	case GateNoFindings:
		if s.Total > 0 {
			return false, "Gate failed: findings present"
		}
		return true, "Gate passed: no findings"

	default:
		// Default to no_high
		if s.High > 0 {
			return false, "Gate failed: high-impact findings present"
		}
		return true, "Gate passed"
	}
}

func topFindings(findings []score.Finding, limit int) []score.Finding {
	sorted := make([]score.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityRank(sorted[i].Severity) > severityRank(sorted[j].Severity)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func severityRank(sev score.Severity) int {
	switch sev {
	case score.SeverityHigh:
		return 3
	case score.SeverityMedium:
		return 2
	case score.SeverityLow:
		return 1
	default:
		return 0
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// ParseGateThreshold converts a string to a GateThreshold.
func ParseGateThreshold(s string) GateThreshold {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "no_high", "high":
		return GateNoHigh
	case "no_high_medium", "medium":
		return GateNoHighMedium
	case "no_findings", "none", "all":
		return GateNoFindings
	default:
		return GateNoHigh
	}
}
