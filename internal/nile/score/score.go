// Package score implements NILE composite security scoring for smart contracts.
//
// Each contract is scored on 4 dimensions, each 0-100:
//
//	Name:     identity verification, provenance, audit history
//	Image:    current vulnerability posture and patch cadence
//	Likeness: static-analysis findings and known-pattern matches
//	Essence:  test coverage, complexity, upgrade and dependency risk
//
// The total is a weighted sum of the four (default 0.25 each), rounded to
// 2 decimals and mapped to a letter grade. Every calculator is a pure
// function of its input record: same inputs always produce the same result,
// and every point gained or lost is attributable to a named factor in the
// Details breakdown.
package score

import "math"

// Weights control the contribution of each dimension to the total score.
// They are not required to sum to 1; callers that want a normalized total
// are responsible for normalizing.
type Weights struct {
	Name     float64 `json:"name"`
	Image    float64 `json:"image"`
	Likeness float64 `json:"likeness"`
	Essence  float64 `json:"essence"`
}

// DefaultWeights weighs the four dimensions equally.
var DefaultWeights = Weights{Name: 0.25, Image: 0.25, Likeness: 0.25, Essence: 0.25}

// SubScore is one dimension's score plus its factor breakdown.
type SubScore struct {
	Score   float64            `json:"score"`
	Details map[string]float64 `json:"details"`
}

// Inputs bundles the four input records for one evaluation.
type Inputs struct {
	Name     NameInputs     `json:"name"`
	Image    ImageInputs    `json:"image"`
	Likeness LikenessInputs `json:"likeness"`
	Essence  EssenceInputs  `json:"essence"`
}

// Result is the composite NILE score for a contract.
type Result struct {
	TotalScore    float64                       `json:"total_score"`
	NameScore     float64                       `json:"name_score"`
	ImageScore    float64                       `json:"image_score"`
	LikenessScore float64                       `json:"likeness_score"`
	EssenceScore  float64                       `json:"essence_score"`
	Grade         string                        `json:"grade"`
	Details       map[string]map[string]float64 `json:"details"`
}

// Compute evaluates a contract with the default weights.
func Compute(in Inputs) *Result {
	return ComputeWithWeights(in, DefaultWeights)
}

// ComputeWithWeights evaluates the four calculators independently and
// combines their scores. Sub-scores and the total are rounded to 2 decimals.
func ComputeWithWeights(in Inputs, w Weights) *Result {
	name := computeName(in.Name)
	image := computeImage(in.Image)
	likeness := computeLikeness(in.Likeness)
	essence := computeEssence(in.Essence)

	total := round2(
		name.Score*w.Name +
			image.Score*w.Image +
			likeness.Score*w.Likeness +
			essence.Score*w.Essence,
	)

	return &Result{
		TotalScore:    total,
		NameScore:     round2(name.Score),
		ImageScore:    round2(image.Score),
		LikenessScore: round2(likeness.Score),
		EssenceScore:  round2(essence.Score),
		Grade:         scoreToGrade(total),
		Details: map[string]map[string]float64{
			"name":     name.Details,
			"image":    image.Details,
			"likeness": likeness.Details,
			"essence":  essence.Details,
		},
	}
}

// scoreToGrade maps a 0-100 score to a letter grade. Band lower bounds
// are inclusive: exactly 90.00 is A+, exactly 50.00 is D.
func scoreToGrade(score float64) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

// round2 rounds to 2 decimals, halves away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clamp restricts v to [0, 100].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
