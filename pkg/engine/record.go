package engine

import (
	"fmt"
	"regexp"
)

// Field bounds. Values outside these ranges are rejected in strict mode
// and clamped in lenient mode.
const (
	AgeMin = 1
	AgeMax = 120

	RestingBPMin = 60
	RestingBPMax = 250

	CholesterolMin = 50
	CholesterolMax = 600

	MaxHeartRateMin = 40
	MaxHeartRateMax = 250

	STDepressionMin = 0.0
	STDepressionMax = 10.0

	idPattern = `^[a-zA-Z0-9_-]{1,50}$`
)

var idRegEx = regexp.MustCompile(idPattern)

// Sex is the patient's biological sex.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ChestPainType classifies the reported chest pain.
type ChestPainType string

const (
	ChestPainTypicalAngina  ChestPainType = "typical_angina"
	ChestPainAtypicalAngina ChestPainType = "atypical_angina"
	ChestPainNonAnginal     ChestPainType = "non_anginal"
	ChestPainAsymptomatic   ChestPainType = "asymptomatic"
)

// RestingECG classifies the resting electrocardiogram result.
type RestingECG string

const (
	ECGNormal         RestingECG = "normal"
	ECGLVHypertrophy  RestingECG = "lv_hypertrophy"
	ECGSTAbnormality  RestingECG = "st_t_abnormality"
)

// STSlope is the slope of the peak exercise ST segment.
type STSlope string

const (
	SlopeUpsloping   STSlope = "upsloping"
	SlopeFlat        STSlope = "flat"
	SlopeDownsloping STSlope = "downsloping"
)

// PatientRecord is the canonical, range-bounded clinical record. It is
// only produced by Normalize, which guarantees every field is within its
// bound before the record reaches the scorer.
type PatientRecord struct {
	ID                    string        `json:"id" yaml:"id"`
	Age                   int           `json:"age" yaml:"age"`
	Sex                   Sex           `json:"sex" yaml:"sex"`
	ChestPainType         ChestPainType `json:"chest_pain_type" yaml:"chestPainType"`
	RestingBP             int           `json:"resting_bp" yaml:"restingBP"`
	Cholesterol           int           `json:"cholesterol" yaml:"cholesterol"`
	FastingBloodSugarHigh bool          `json:"fasting_blood_sugar_high" yaml:"fastingBloodSugarHigh"`
	RestingECG            RestingECG    `json:"resting_ecg" yaml:"restingECG"`
	MaxHeartRate          int           `json:"max_heart_rate" yaml:"maxHeartRate"`
	ExerciseAngina        bool          `json:"exercise_angina" yaml:"exerciseAngina"`
	STDepression          float64       `json:"st_depression" yaml:"stDepression"`
	STSlope               STSlope       `json:"st_slope" yaml:"stSlope"`
}

// ValidID reports whether id matches the allowed patient ID pattern
// (alphanumeric plus hyphen/underscore, 1-50 chars).
func ValidID(id string) bool {
	return idRegEx.MatchString(id)
}

// ParseSex converts a raw value to a Sex. Accepts the canonical names
// plus the UCI dataset encodings (M/F, 1/0).
func ParseSex(v string) (Sex, error) {
	switch normalizeToken(v) {
	case "male", "m", "1":
		return SexMale, nil
	case "female", "f", "0":
		return SexFemale, nil
	}
	return "", fmt.Errorf("unknown sex: %q", v)
}

// ParseChestPainType converts a raw value to a ChestPainType. Accepts
// canonical names plus the UCI encodings (1-4 and the dataset labels).
func ParseChestPainType(v string) (ChestPainType, error) {
	switch normalizeToken(v) {
	case "typical_angina", "typical angina", "1":
		return ChestPainTypicalAngina, nil
	case "atypical_angina", "atypical angina", "2":
		return ChestPainAtypicalAngina, nil
	case "non_anginal", "non-anginal", "non anginal", "3":
		return ChestPainNonAnginal, nil
	case "asymptomatic", "4":
		return ChestPainAsymptomatic, nil
	}
	return "", fmt.Errorf("unknown chest pain type: %q", v)
}

// ParseRestingECG converts a raw value to a RestingECG.
func ParseRestingECG(v string) (RestingECG, error) {
	switch normalizeToken(v) {
	case "normal", "0":
		return ECGNormal, nil
	case "lv_hypertrophy", "lv hypertrophy", "left ventricular hypertrophy", "2":
		return ECGLVHypertrophy, nil
	case "st_t_abnormality", "st-t abnormality", "st-t wave abnormality", "1":
		return ECGSTAbnormality, nil
	}
	return "", fmt.Errorf("unknown resting ECG: %q", v)
}

// ParseSTSlope converts a raw value to an STSlope.
func ParseSTSlope(v string) (STSlope, error) {
	switch normalizeToken(v) {
	case "upsloping", "up", "1":
		return SlopeUpsloping, nil
	case "flat", "2":
		return SlopeFlat, nil
	case "downsloping", "down", "3":
		return SlopeDownsloping, nil
	}
	return "", fmt.Errorf("unknown ST slope: %q", v)
}

// ParseBool converts a raw value to a bool. Accepts true/false, yes/no,
// and the UCI 1/0 encodings.
func ParseBool(v string) (bool, error) {
	switch normalizeToken(v) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("unknown boolean: %q", v)
}
