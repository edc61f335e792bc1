package score

// EssenceInputs are code-quality and architectural-risk signals.
// HasTimelock defaults to true at the ingestion boundary: the absence of
// a timelock is the penalized state.
type EssenceInputs struct {
	TestCoveragePct         float64 `json:"test_coverage_pct"`
	AvgCyclomaticComplexity float64 `json:"avg_cyclomatic_complexity"`
	HasProxyPattern         bool    `json:"has_proxy_pattern"`
	HasAdminKeys            bool    `json:"has_admin_keys"`
	HasTimelock             bool    `json:"has_timelock"`
	ExternalCallCount       int     `json:"external_call_count"`
}

// computeEssence scores code quality and architectural risk. Four
// components of up to 25 points each, so the sum cannot exceed 100 by
// construction; the final clamp is a safety net.
//
// Scoring:
//   - coverage: 0.25 per coverage point, capped at 25
//   - complexity: full 25 at the baseline of 5, -2.5 per unit above, floor 0
//   - upgrade risk: 25, -10 for a proxy pattern, -5 for admin keys,
//     -5 for a missing timelock
//   - dependency risk: 25, -2 per external call, floor 0
func computeEssence(in EssenceInputs) SubScore {
	coverage := in.TestCoveragePct * 0.25
	if coverage > 25 {
		coverage = 25
	}

	complexity := 25 - (in.AvgCyclomaticComplexity-5)*2.5
	if complexity < 0 {
		complexity = 0
	}
	if complexity > 25 {
		complexity = 25
	}

	upgrade := 25.0
	if in.HasProxyPattern {
		upgrade -= 10
	}
	if in.HasAdminKeys {
		upgrade -= 5
	}
	if !in.HasTimelock {
		upgrade -= 5
	}

	deps := 25 - float64(in.ExternalCallCount)*2
	if deps < 0 {
		deps = 0
	}

	total := clamp(coverage + complexity + upgrade + deps)
	return SubScore{
		Score: total,
		Details: map[string]float64{
			"test_coverage":   coverage,
			"complexity":      complexity,
			"upgrade_risk":    upgrade,
			"dependency_risk": deps,
		},
	}
}
