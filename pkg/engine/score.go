package engine

// Feature identifies one of the eleven scored clinical inputs.
type Feature string

const (
	FeatureAge              Feature = "age"
	FeatureSex              Feature = "sex"
	FeatureChestPainType    Feature = "chest_pain_type"
	FeatureRestingBP        Feature = "resting_bp"
	FeatureCholesterol      Feature = "cholesterol"
	FeatureFastingBS        Feature = "fasting_blood_sugar"
	FeatureRestingECG       Feature = "resting_ecg"
	FeatureMaxHeartRate     Feature = "max_heart_rate"
	FeatureExerciseAngina   Feature = "exercise_angina"
	FeatureSTDepression     Feature = "st_depression"
	FeatureSTSlope          Feature = "st_slope"
)

// Features lists all scored features in the original model's column
// order (the order the external predictor expects its vector in).
var Features = []Feature{
	FeatureAge,
	FeatureSex,
	FeatureChestPainType,
	FeatureRestingBP,
	FeatureCholesterol,
	FeatureFastingBS,
	FeatureRestingECG,
	FeatureMaxHeartRate,
	FeatureExerciseAngina,
	FeatureSTDepression,
	FeatureSTSlope,
}

// Label returns the clinician-facing name of the feature.
func (f Feature) Label() string {
	switch f {
	case FeatureAge:
		return "Age"
	case FeatureSex:
		return "Sex"
	case FeatureChestPainType:
		return "Chest Pain Type"
	case FeatureRestingBP:
		return "Resting Blood Pressure"
	case FeatureCholesterol:
		return "Cholesterol"
	case FeatureFastingBS:
		return "Fasting Blood Sugar"
	case FeatureRestingECG:
		return "Resting ECG"
	case FeatureMaxHeartRate:
		return "Max Heart Rate"
	case FeatureExerciseAngina:
		return "Exercise-Induced Angina"
	case FeatureSTDepression:
		return "ST Depression"
	case FeatureSTSlope:
		return "ST Slope"
	}
	return string(f)
}

// Score converts each field of a normalized record into a [0,1]
// sub-score where higher means more abnormal. The breakpoints are
// fixed contract values; changing any of them changes every downstream
// probability.
func Score(rec *PatientRecord) map[Feature]float64 {
	return map[Feature]float64{
		FeatureAge:            scoreAge(rec.Age),
		FeatureSex:            scoreSex(rec.Sex),
		FeatureChestPainType:  scoreChestPain(rec.ChestPainType),
		FeatureRestingBP:      scoreRestingBP(rec.RestingBP),
		FeatureCholesterol:    scoreCholesterol(rec.Cholesterol),
		FeatureFastingBS:      scoreFastingBS(rec.FastingBloodSugarHigh),
		FeatureRestingECG:     scoreRestingECG(rec.RestingECG),
		FeatureMaxHeartRate:   scoreMaxHeartRate(rec.MaxHeartRate, rec.Age),
		FeatureExerciseAngina: scoreExerciseAngina(rec.ExerciseAngina),
		FeatureSTDepression:   scoreSTDepression(rec.STDepression),
		FeatureSTSlope:        scoreSTSlope(rec.STSlope),
	}
}

func scoreAge(age int) float64 {
	switch {
	case age < 40:
		return 0.1
	case age < 50:
		return 0.3
	case age < 60:
		return 0.5
	case age < 70:
		return 0.7
	default:
		return 0.9
	}
}

func scoreSex(s Sex) float64 {
	if s == SexMale {
		return 0.6
	}
	return 0.4
}

// Asymptomatic presentation scores highest: absence of chest pain in a
// patient under cardiac evaluation is a paradoxical clinical signal.
func scoreChestPain(cp ChestPainType) float64 {
	switch cp {
	case ChestPainAsymptomatic:
		return 0.9
	case ChestPainNonAnginal:
		return 0.4
	case ChestPainAtypicalAngina:
		return 0.3
	default:
		return 0.2
	}
}

func scoreRestingBP(bp int) float64 {
	switch {
	case bp < 120:
		return 0.1
	case bp < 130:
		return 0.3
	case bp < 140:
		return 0.5
	case bp < 160:
		return 0.7
	default:
		return 0.9
	}
}

func scoreCholesterol(chol int) float64 {
	switch {
	case chol < 200:
		return 0.1
	case chol < 240:
		return 0.4
	case chol < 280:
		return 0.6
	default:
		return 0.9
	}
}

func scoreFastingBS(high bool) float64 {
	if high {
		return 0.7
	}
	return 0.3
}

func scoreRestingECG(ecg RestingECG) float64 {
	if ecg == ECGLVHypertrophy {
		return 0.6
	}
	return 0.3
}

// A lower fraction of the age-predicted maximum heart rate achieved
// during exercise means higher risk.
func scoreMaxHeartRate(hr, age int) float64 {
	achieved := float64(hr) / float64(220-age)
	switch {
	case achieved > 0.85:
		return 0.1
	case achieved > 0.75:
		return 0.3
	case achieved > 0.65:
		return 0.6
	default:
		return 0.9
	}
}

func scoreExerciseAngina(present bool) float64 {
	if present {
		return 0.8
	}
	return 0.2
}

func scoreSTDepression(mm float64) float64 {
	switch {
	case mm <= 0:
		return 0.0
	case mm < 1:
		return 0.3
	case mm < 2:
		return 0.6
	default:
		return 0.9
	}
}

func scoreSTSlope(s STSlope) float64 {
	switch s {
	case SlopeUpsloping:
		return 0.1
	case SlopeFlat:
		return 0.6
	default:
		return 0.8
	}
}
