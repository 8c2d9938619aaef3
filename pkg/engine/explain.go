package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// Contributions are capped so the explanation stays scannable.
	maxContributions = 6

	// Only factors with a meaningful positive impact are named in the
	// interpretation text.
	interpretationImpactFloor = 0.05
	interpretationFactorLimit = 3
)

// Contribution is one signed, ranked explanatory factor.
type Contribution struct {
	Feature     Feature `json:"feature" yaml:"feature"`
	Label       string  `json:"label" yaml:"label"`
	Value       string  `json:"value" yaml:"value"`
	Impact      float64 `json:"impact" yaml:"impact"`
	Description string  `json:"description" yaml:"description"`
}

// ExplainScores converts sub-score deviations into contributions:
// impact is the sub-score's deviation from neutral (0.5), scaled by
// the feature's aggregation weight and doubled so the full range maps
// onto [-weight, +weight]. Results are sorted by descending absolute
// impact and truncated.
func ExplainScores(rec *PatientRecord, scores map[Feature]float64) []Contribution {
	out := make([]Contribution, 0, len(Features))
	for _, f := range Features {
		impact := round2((scores[f] - 0.5) * Weights[f] * 2)
		out = append(out, Contribution{
			Feature:     f,
			Label:       f.Label(),
			Value:       displayValue(f, rec),
			Impact:      impact,
			Description: describe(f, rec),
		})
	}
	return rankContributions(out)
}

// ExplainImportances builds structurally identical contributions from
// a learned model's raw per-feature importance vector. Importances are
// normalized by their maximum absolute value, signed by whether the
// prediction leans positive, and scaled into the [-0.5, 0.5] display
// range.
func ExplainImportances(rec *PatientRecord, probability float64, importances []float64) []Contribution {
	var maxAbs float64
	for _, v := range importances {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}

	sign := -1.0
	if probability > 0.5 {
		sign = 1.0
	}

	out := make([]Contribution, 0, len(Features))
	for i, f := range Features {
		if i >= len(importances) {
			break
		}
		var impact float64
		if maxAbs > 0 {
			impact = round2(sign * math.Abs(importances[i]) / maxAbs * 0.5)
		}
		out = append(out, Contribution{
			Feature:     f,
			Label:       f.Label(),
			Value:       displayValue(f, rec),
			Impact:      impact,
			Description: describe(f, rec),
		})
	}
	return rankContributions(out)
}

func rankContributions(cc []Contribution) []Contribution {
	sort.SliceStable(cc, func(i, j int) bool {
		return math.Abs(cc[i].Impact) > math.Abs(cc[j].Impact)
	})
	if len(cc) > maxContributions {
		cc = cc[:maxContributions]
	}
	return cc
}

// Interpretation renders the clinician-facing summary for a tier,
// probability, and ranked contributions.
func Interpretation(tier Tier, probability float64, cc []Contribution) string {
	pct := int(math.Round(probability * 100))

	var factors []string
	for _, c := range cc {
		if c.Impact > interpretationImpactFloor {
			factors = append(factors, c.Label)
		}
		if len(factors) == interpretationFactorLimit {
			break
		}
	}

	switch tier {
	case TierHigh:
		if len(factors) > 0 {
			return fmt.Sprintf("High risk of heart disease (%d%% probability). Primary concerns: %s. Urgent clinical evaluation is recommended.",
				pct, strings.Join(factors, ", "))
		}
		return fmt.Sprintf("High risk of heart disease (%d%% probability). Urgent clinical evaluation is recommended.", pct)
	case TierMedium:
		if len(factors) > 0 {
			return fmt.Sprintf("Moderate risk of heart disease (%d%% probability). Contributing factors: %s. Follow-up testing is advisable.",
				pct, strings.Join(factors, ", "))
		}
		return fmt.Sprintf("Moderate risk of heart disease (%d%% probability). Follow-up testing is advisable.", pct)
	default:
		return fmt.Sprintf("Low risk of heart disease (%d%% probability). Continue routine monitoring.", pct)
	}
}

func displayValue(f Feature, rec *PatientRecord) string {
	switch f {
	case FeatureAge:
		return fmt.Sprintf("%d years", rec.Age)
	case FeatureSex:
		return string(rec.Sex)
	case FeatureChestPainType:
		return strings.ReplaceAll(string(rec.ChestPainType), "_", " ")
	case FeatureRestingBP:
		return fmt.Sprintf("%d mmHg", rec.RestingBP)
	case FeatureCholesterol:
		return fmt.Sprintf("%d mg/dL", rec.Cholesterol)
	case FeatureFastingBS:
		return yesNo(rec.FastingBloodSugarHigh)
	case FeatureRestingECG:
		return strings.ReplaceAll(string(rec.RestingECG), "_", " ")
	case FeatureMaxHeartRate:
		return fmt.Sprintf("%d bpm", rec.MaxHeartRate)
	case FeatureExerciseAngina:
		return yesNo(rec.ExerciseAngina)
	case FeatureSTDepression:
		return fmt.Sprintf("%.1f mm", rec.STDepression)
	case FeatureSTSlope:
		return string(rec.STSlope)
	}
	return ""
}

func describe(f Feature, rec *PatientRecord) string {
	switch f {
	case FeatureAge:
		if rec.Age >= 60 {
			return "Cardiovascular risk rises substantially after age 60"
		}
		return "Age is a baseline cardiovascular risk factor"
	case FeatureSex:
		if rec.Sex == SexMale {
			return "Men face elevated heart disease risk at younger ages"
		}
		return "Pre-menopausal women have relatively lower baseline risk"
	case FeatureChestPainType:
		switch rec.ChestPainType {
		case ChestPainAsymptomatic:
			return "Asymptomatic presentation often indicates serious underlying condition"
		case ChestPainNonAnginal:
			return "Non-anginal pain is less specific but still warrants attention"
		case ChestPainAtypicalAngina:
			return "Atypical angina carries moderate diagnostic significance"
		default:
			return "Typical angina is a classic but treatable presentation"
		}
	case FeatureRestingBP:
		if rec.RestingBP >= bpHigh {
			return "Hypertension strains the heart and damages arteries over time"
		}
		return "Blood pressure within or near the normal range"
	case FeatureCholesterol:
		if rec.Cholesterol >= cholHigh {
			return "High cholesterol accelerates arterial plaque formation"
		}
		return "Cholesterol below the high-risk threshold"
	case FeatureFastingBS:
		if rec.FastingBloodSugarHigh {
			return "Elevated fasting blood sugar suggests diabetic risk factors"
		}
		return "Fasting blood sugar within normal limits"
	case FeatureRestingECG:
		if rec.RestingECG == ECGLVHypertrophy {
			return "Left ventricular hypertrophy indicates chronic cardiac strain"
		}
		return "Resting ECG without hypertrophy findings"
	case FeatureMaxHeartRate:
		return "Low achieved heart rate relative to age-predicted maximum signals reduced cardiac capacity"
	case FeatureExerciseAngina:
		if rec.ExerciseAngina {
			return "Exercise-induced angina indicates restricted coronary blood flow"
		}
		return "No angina during exercise"
	case FeatureSTDepression:
		if rec.STDepression >= 1 {
			return "ST depression during exercise suggests myocardial ischemia"
		}
		return "Minimal ST depression during exercise"
	case FeatureSTSlope:
		switch rec.STSlope {
		case SlopeDownsloping:
			return "Downsloping ST segment is a strong ischemia indicator"
		case SlopeFlat:
			return "Flat ST slope carries moderate ischemic significance"
		default:
			return "Upsloping ST segment is the expected exercise response"
		}
	}
	return ""
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
