package engine

// Probability floor and ceiling. The deterministic model never claims
// certainty in either direction.
const (
	ProbabilityMin = 0.05
	ProbabilityMax = 0.99

	// JitterAmplitude bounds the symmetric perturbation applied by the
	// deterministic predictor when a randomness source is supplied.
	JitterAmplitude = 0.025
)

// Tier is the discrete risk classification derived from probability.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"

	tierMediumFloor = 0.35
	tierHighFloor   = 0.65
)

// Weights holds the fixed per-feature aggregation weights. They sum
// to 1.0 and are contract values shared with the explainability ranker.
var Weights = map[Feature]float64{
	FeatureChestPainType:  0.22,
	FeatureMaxHeartRate:   0.18,
	FeatureSTDepression:   0.15,
	FeatureAge:            0.12,
	FeatureRestingBP:      0.10,
	FeatureCholesterol:    0.08,
	FeatureSTSlope:        0.06,
	FeatureExerciseAngina: 0.05,
	FeatureSex:            0.02,
	FeatureFastingBS:      0.01,
	FeatureRestingECG:     0.01,
}

// Aggregate combines weighted sub-scores into a single probability,
// applies the supplied jitter, and clamps the result into
// [ProbabilityMin, ProbabilityMax]. Pass jitter 0 for a fully
// deterministic result.
func Aggregate(scores map[Feature]float64, jitter float64) float64 {
	var sum float64
	for f, w := range Weights {
		sum += scores[f] * w
	}
	return clampFloat(sum+jitter, ProbabilityMin, ProbabilityMax)
}

// TierFor classifies a probability. Boundaries are inclusive on the
// lower bound of each tier.
func TierFor(p float64) Tier {
	switch {
	case p >= tierHighFloor:
		return TierHigh
	case p >= tierMediumFloor:
		return TierMedium
	default:
		return TierLow
	}
}
