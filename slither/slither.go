// Package slither parses Slither static-analysis output and provides
// gating logic for scan pipelines. It turns raw detector results into the
// normalized finding records the scoring engine consumes.
package slither

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nile-security/nile/internal/nile/score"
)

// Impact levels reported by Slither detectors.
const (
	ImpactHigh          = "High"
	ImpactMedium        = "Medium"
	ImpactLow           = "Low"
	ImpactInformational = "Informational"
	ImpactOptimization  = "Optimization"
)

// Detector is a single detector result from Slither JSON output.
type Detector struct {
	Check       string    `json:"check"`
	Impact      string    `json:"impact"`
	Confidence  string    `json:"confidence"`
	Description string    `json:"description"`
	Elements    []Element `json:"elements,omitempty"`
}

// Element points at the source construct a detector fired on.
type Element struct {
	Type          string         `json:"type"`
	Name          string         `json:"name"`
	SourceMapping *SourceMapping `json:"source_mapping,omitempty"`
}

// SourceMapping locates an element in the contract source.
type SourceMapping struct {
	Filename string `json:"filename_relative,omitempty"`
	Start    int    `json:"start,omitempty"`
	Length   int    `json:"length,omitempty"`
	Lines    []int  `json:"lines,omitempty"`
}

// Result is the complete Slither run output.
type Result struct {
	Success bool    `json:"success"`
	Error   *string `json:"error"`
	Results struct {
		Detectors []Detector `json:"detectors"`
	} `json:"results"`
}

// ParseSlitherJSON parses Slither `--json` output.
func ParseSlitherJSON(data []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing slither output: %w", err)
	}
	return &result, nil
}

// Detectors returns all detector results, nil-safe.
func (r *Result) Detectors() []Detector {
	return r.Results.Detectors
}

// FilterByImpact returns detector results matching the given impacts.
func (r *Result) FilterByImpact(impacts ...string) []Detector {
	want := make(map[string]bool)
	for _, i := range impacts {
		want[strings.ToLower(i)] = true
	}

	var filtered []Detector
	for _, d := range r.Detectors() {
		if want[strings.ToLower(d.Impact)] {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// NormalizeImpact maps a Slither impact string to an engine severity.
// Unrecognized impacts map to info so they never penalize a score.
func NormalizeImpact(impact string) score.Severity {
	switch strings.ToLower(strings.TrimSpace(impact)) {
	case "high":
		return score.SeverityHigh
	case "medium":
		return score.SeverityMedium
	case "low":
		return score.SeverityLow
	case "informational", "optimization":
		return score.SeverityInfo
	default:
		return score.SeverityInfo
	}
}

// ImpactRank returns a numeric rank for impact comparison.
// Higher rank means more severe.
func ImpactRank(impact string) int {
	switch NormalizeImpact(impact) {
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
