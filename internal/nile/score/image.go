package score

// ImageInputs describe a contract's current vulnerability posture.
// Counts are findings still open at evaluation time. AvgPatchTimeDays is
// nil when no patch history exists. Trend is a pre-computed adjustment in
// [-10, 10] for recent improvement or regression.
type ImageInputs struct {
	OpenCritical     int      `json:"open_critical"`
	OpenHigh         int      `json:"open_high"`
	OpenMedium       int      `json:"open_medium"`
	AvgPatchTimeDays *float64 `json:"avg_patch_time_days,omitempty"`
	Trend            float64  `json:"trend"`
}

// computeImage scores current security posture.
//
// Scoring:
//   - Start at 100
//   - -25 per open critical, -15 per open high, -5 per open medium
//     (low/info findings belong to the Likeness dimension)
//   - Patch cadence bonus: max(0, 10 - avg patch days) when patch data
//     exists; missing data earns no bonus but is never penalized
//   - Signed trend adjustment added as-is
func computeImage(in ImageInputs) SubScore {
	base := 100.0
	base -= float64(in.OpenCritical) * 25
	base -= float64(in.OpenHigh) * 15
	base -= float64(in.OpenMedium) * 5

	patchBonus := 0.0
	if in.AvgPatchTimeDays != nil {
		patchBonus = 10 - *in.AvgPatchTimeDays
		if patchBonus < 0 {
			patchBonus = 0
		}
	}

	total := clamp(base + patchBonus + in.Trend)
	return SubScore{
		Score: total,
		Details: map[string]float64{
			"base_from_vulns":     base,
			"patch_cadence_bonus": patchBonus,
			"trend_adjustment":    in.Trend,
			"open_critical":       float64(in.OpenCritical),
			"open_high":           float64(in.OpenHigh),
			"open_medium":         float64(in.OpenMedium),
		},
	}
}
