package score

// Severity classifies a static-analysis finding.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
	SeverityInfo   Severity = "info"
)

// Finding is one static-analysis finding, as normalized by the ingestion
// layer from raw tool output.
type Finding struct {
	Severity    Severity `json:"severity"`
	Check       string   `json:"check,omitempty"`
	Description string   `json:"description,omitempty"`
}

// PatternMatch is a signature-based detection of a known vulnerability
// pattern. Confidence is in [0, 1].
type PatternMatch struct {
	SignatureID string  `json:"signature_id,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// LikenessInputs hold static-analysis findings and known-pattern matches.
// List order never affects the score; penalties are commutative sums.
type LikenessInputs struct {
	SlitherFindings []Finding      `json:"slither_findings"`
	PatternMatches  []PatternMatch `json:"pattern_matches"`
}

// severityPenalty returns the deduction for one finding. Unrecognized
// severities deduct nothing: an unexpected taxonomy value must never
// crash or skew scoring for an otherwise valid contract.
func severityPenalty(sev Severity) float64 {
	switch sev {
	case SeverityHigh:
		return 15
	case SeverityMedium:
		return 8
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 0
	default:
		return 0
	}
}

// confidencePenalty returns the deduction for one pattern match.
// Comparisons are strictly greater-than: a confidence of exactly 0.8
// lands in the 10-point tier, exactly 0.4 deducts nothing.
func confidencePenalty(confidence float64) float64 {
	switch {
	case confidence > 0.8:
		return 20
	case confidence > 0.6:
		return 10
	case confidence > 0.4:
		return 5
	default:
		return 0
	}
}

// computeLikeness scores pattern similarity to known vulnerabilities.
//
// Scoring:
//   - Start at 100
//   - Per static-analysis finding: high -15, medium -8, low -3, info 0
//   - Per pattern match: confidence >0.8 -20, >0.6 -10, >0.4 -5, else 0
func computeLikeness(in LikenessInputs) SubScore {
	slitherDeductions := 0.0
	for _, f := range in.SlitherFindings {
		slitherDeductions += severityPenalty(f.Severity)
	}

	patternDeductions := 0.0
	for _, m := range in.PatternMatches {
		patternDeductions += confidencePenalty(m.Confidence)
	}

	total := clamp(100 - slitherDeductions - patternDeductions)
	return SubScore{
		Score: total,
		Details: map[string]float64{
			"slither_deductions":       slitherDeductions,
			"pattern_match_deductions": patternDeductions,
			"slither_finding_count":    float64(len(in.SlitherFindings)),
			"pattern_match_count":      float64(len(in.PatternMatches)),
		},
	}
}
