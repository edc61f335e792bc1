// Package evidence defines the scan evidence document consumed by the
// scoring engine. The same document is accepted over the HTTP API and
// read from .nile.json files by the CLI.
package evidence

import (
	"fmt"

	"github.com/nile-security/nile/internal/nile/score"
)

// Identity describes provenance signals for a contract.
type Identity struct {
	IsVerified     bool    `json:"is_verified"`
	AuditCount     int     `json:"audit_count"`
	AgeDays        int     `json:"age_days"`
	TeamIdentified bool    `json:"team_identified"`
	EcosystemScore float64 `json:"ecosystem_score"`
}

// Posture describes the current security posture.
type Posture struct {
	OpenCritical     int      `json:"open_critical"`
	OpenHigh         int      `json:"open_high"`
	OpenMedium       int      `json:"open_medium"`
	AvgPatchTimeDays *float64 `json:"avg_patch_time_days,omitempty"`
	Trend            float64  `json:"trend"`
}

// Analysis carries static-analysis findings and signature matches.
type Analysis struct {
	SlitherFindings []score.Finding      `json:"slither_findings"`
	PatternMatches  []score.PatternMatch `json:"pattern_matches"`
}

// Quality describes code quality and architectural risk signals.
// AvgCyclomaticComplexity and HasTimelock are pointers so that an
// absent field can take its documented default (5.0 and true).
type Quality struct {
	TestCoveragePct         float64  `json:"test_coverage_pct"`
	AvgCyclomaticComplexity *float64 `json:"avg_cyclomatic_complexity,omitempty"`
	HasProxyPattern         bool     `json:"has_proxy_pattern"`
	HasAdminKeys            bool     `json:"has_admin_keys"`
	HasTimelock             *bool    `json:"has_timelock,omitempty"`
	ExternalCallCount       int      `json:"external_call_count"`
}

// Document is one contract's scan evidence. Result holds the computed
// NILE score when the document has been scored and written back.
type Document struct {
	Address  string   `json:"address"`
	Name     string   `json:"name,omitempty"`
	Identity Identity `json:"identity"`
	Posture  Posture  `json:"posture"`
	Analysis Analysis `json:"analysis"`
	Quality  Quality  `json:"quality"`

	// Weights may override dimension weights for this evaluation.
	// Unknown dimension names are rejected, not ignored.
	Weights map[string]float64 `json:"weights,omitempty"`

	Result *score.Result `json:"nile_score,omitempty"`
}

// Validate checks the document for structural problems.
func (d *Document) Validate() error {
	if d.Address == "" {
		return fmt.Errorf("address is required")
	}
	_, err := ResolveWeights(score.DefaultWeights, d.Weights)
	return err
}

// Inputs builds the engine input records, applying boundary defaults:
// a missing complexity reads as the baseline of 5, a missing timelock
// flag reads as present.
func (d *Document) Inputs() score.Inputs {
	complexity := 5.0
	if d.Quality.AvgCyclomaticComplexity != nil {
		complexity = *d.Quality.AvgCyclomaticComplexity
	}
	timelock := true
	if d.Quality.HasTimelock != nil {
		timelock = *d.Quality.HasTimelock
	}

	return score.Inputs{
		Name: score.NameInputs{
			IsVerified:     d.Identity.IsVerified,
			AuditCount:     d.Identity.AuditCount,
			AgeDays:        d.Identity.AgeDays,
			TeamIdentified: d.Identity.TeamIdentified,
			EcosystemScore: d.Identity.EcosystemScore,
		},
		Image: score.ImageInputs{
			OpenCritical:     d.Posture.OpenCritical,
			OpenHigh:         d.Posture.OpenHigh,
			OpenMedium:       d.Posture.OpenMedium,
			AvgPatchTimeDays: d.Posture.AvgPatchTimeDays,
			Trend:            d.Posture.Trend,
		},
		Likeness: score.LikenessInputs{
			SlitherFindings: d.Analysis.SlitherFindings,
			PatternMatches:  d.Analysis.PatternMatches,
		},
		Essence: score.EssenceInputs{
			TestCoveragePct:         d.Quality.TestCoveragePct,
			AvgCyclomaticComplexity: complexity,
			HasProxyPattern:         d.Quality.HasProxyPattern,
			HasAdminKeys:            d.Quality.HasAdminKeys,
			HasTimelock:             timelock,
			ExternalCallCount:       d.Quality.ExternalCallCount,
		},
	}
}

// ResolveWeights validates an override map against a base weight set.
func ResolveWeights(base score.Weights, overrides map[string]float64) (score.Weights, error) {
	for k, v := range overrides {
		if v < 0 {
			return base, fmt.Errorf("weight %q is negative", k)
		}
		switch k {
		case "name":
			base.Name = v
		case "image":
			base.Image = v
		case "likeness":
			base.Likeness = v
		case "essence":
			base.Essence = v
		default:
			return base, fmt.Errorf("unknown weight dimension %q", k)
		}
	}
	return base, nil
}

// Score computes the document's NILE score against a base weight set,
// applying any per-document weight overrides.
func (d *Document) Score(base score.Weights) (*score.Result, error) {
	weights, err := ResolveWeights(base, d.Weights)
	if err != nil {
		return nil, err
	}
	return score.ComputeWithWeights(d.Inputs(), weights), nil
}
