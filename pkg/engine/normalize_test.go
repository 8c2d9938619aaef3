package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() RawRecord {
	return RawRecord{
		ID:                    "p-001",
		Age:                   "63",
		Sex:                   "male",
		ChestPainType:         "typical_angina",
		RestingBP:             "145",
		Cholesterol:           "233",
		FastingBloodSugarHigh: "true",
		RestingECG:            "lv_hypertrophy",
		MaxHeartRate:          "150",
		ExerciseAngina:        "false",
		STDepression:          "2.3",
		STSlope:               "downsloping",
	}
}

func TestNormalize_StrictValid(t *testing.T) {
	rec, warnings, err := Normalize(validRaw(), ModeStrict)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "p-001", rec.ID)
	assert.Equal(t, 63, rec.Age)
	assert.Equal(t, SexMale, rec.Sex)
	assert.Equal(t, ChestPainTypicalAngina, rec.ChestPainType)
	assert.Equal(t, 145, rec.RestingBP)
	assert.Equal(t, 233, rec.Cholesterol)
	assert.True(t, rec.FastingBloodSugarHigh)
	assert.Equal(t, ECGLVHypertrophy, rec.RestingECG)
	assert.Equal(t, 150, rec.MaxHeartRate)
	assert.False(t, rec.ExerciseAngina)
	assert.InDelta(t, 2.3, rec.STDepression, 1e-9)
	assert.Equal(t, SlopeDownsloping, rec.STSlope)

	// nothing substituted or clamped
	assert.Empty(t, warnings)
}

func TestNormalize_StrictRejectsDecimalInteger(t *testing.T) {
	raw := validRaw()
	raw.Age = "54.9"

	_, _, err := Normalize(raw, ModeStrict)
	require.Error(t, err)

	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be a whole number", verr["age"])
}

func TestNormalize_StrictMissingFields(t *testing.T) {
	_, _, err := Normalize(RawRecord{}, ModeStrict)
	require.Error(t, err)

	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "id")
	assert.Contains(t, verr, "age")
	assert.Contains(t, verr, "sex")
	assert.Contains(t, verr, "chestPainType")
	assert.Contains(t, verr, "restingBP")
	assert.Contains(t, verr, "cholesterol")
	assert.Contains(t, verr, "fastingBloodSugarHigh")
	assert.Contains(t, verr, "restingECG")
	assert.Contains(t, verr, "maxHeartRate")
	assert.Contains(t, verr, "exerciseAngina")
	assert.Contains(t, verr, "stDepression")
	assert.Contains(t, verr, "stSlope")
	assert.Equal(t, "required", verr["age"])
}

func TestNormalize_StrictOutOfRange(t *testing.T) {
	raw := validRaw()
	raw.Age = "500"
	raw.RestingBP = "20"

	_, _, err := Normalize(raw, ModeStrict)
	require.Error(t, err)

	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "age")
	assert.Contains(t, verr, "restingBP")
	assert.NotContains(t, verr, "cholesterol")
}

func TestNormalize_StrictBadID(t *testing.T) {
	raw := validRaw()
	raw.ID = "bad id with spaces!"

	_, _, err := Normalize(raw, ModeStrict)
	require.Error(t, err)

	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "id")
}

func TestNormalize_LenientClampsOutOfRange(t *testing.T) {
	raw := validRaw()
	raw.Age = "500"
	raw.RestingBP = "10"
	raw.Cholesterol = "9999"
	raw.MaxHeartRate = "0"
	raw.STDepression = "-4"

	rec, warnings, err := Normalize(raw, ModeLenient)
	require.NoError(t, err)

	assert.Equal(t, AgeMax, rec.Age)
	assert.Equal(t, RestingBPMin, rec.RestingBP)
	assert.Equal(t, CholesterolMax, rec.Cholesterol)
	assert.Equal(t, MaxHeartRateMin, rec.MaxHeartRate)
	assert.InDelta(t, STDepressionMin, rec.STDepression, 1e-9)

	// every clamp is reported
	require.Len(t, warnings, 5)
	assert.Contains(t, warnings[0], "age 500 is out of range, clamped to 120")
}

func TestNormalize_LenientDefaultsUnparseable(t *testing.T) {
	raw := validRaw()
	raw.Age = "abc"
	raw.Sex = "unknown"
	raw.ChestPainType = ""
	raw.STSlope = "sideways"

	rec, warnings, err := Normalize(raw, ModeLenient)
	require.NoError(t, err)

	assert.Equal(t, DefaultAge, rec.Age)
	assert.Equal(t, DefaultSex, rec.Sex)
	assert.Equal(t, DefaultChestPainType, rec.ChestPainType)
	assert.Equal(t, DefaultSTSlope, rec.STSlope)

	// every substitution is reported
	require.Len(t, warnings, 4)
	assert.Contains(t, warnings[0], `age value "abc" is not recognized, using default 50`)
	assert.Contains(t, warnings[1], `sex value "unknown" is not recognized, using default male`)
	assert.Contains(t, warnings[2], "chestPainType is missing, using default asymptomatic")
	assert.Contains(t, warnings[3], `stSlope value "sideways" is not recognized, using default flat`)
}

func TestNormalize_LenientNeverRejects(t *testing.T) {
	rec, _, err := Normalize(RawRecord{}, ModeLenient)
	require.NoError(t, err)
	require.NotNil(t, rec)

	// Every field within bounds regardless of input
	assert.GreaterOrEqual(t, rec.Age, AgeMin)
	assert.LessOrEqual(t, rec.Age, AgeMax)
	assert.GreaterOrEqual(t, rec.RestingBP, RestingBPMin)
	assert.LessOrEqual(t, rec.RestingBP, RestingBPMax)
	assert.GreaterOrEqual(t, rec.Cholesterol, CholesterolMin)
	assert.LessOrEqual(t, rec.Cholesterol, CholesterolMax)
	assert.GreaterOrEqual(t, rec.MaxHeartRate, MaxHeartRateMin)
	assert.LessOrEqual(t, rec.MaxHeartRate, MaxHeartRateMax)
}

func TestNormalize_UCIEncodings(t *testing.T) {
	raw := RawRecord{
		ID:                    "uci-1",
		Age:                   "54.0",
		Sex:                   "1",
		ChestPainType:         "4",
		RestingBP:             "130",
		Cholesterol:           "246",
		FastingBloodSugarHigh: "0",
		RestingECG:            "2",
		MaxHeartRate:          "173",
		ExerciseAngina:        "0",
		STDepression:          "0.0",
		STSlope:               "1",
	}

	rec, _, err := Normalize(raw, ModeLenient)
	require.NoError(t, err)

	assert.Equal(t, 54, rec.Age)
	assert.Equal(t, SexMale, rec.Sex)
	assert.Equal(t, ChestPainAsymptomatic, rec.ChestPainType)
	assert.False(t, rec.FastingBloodSugarHigh)
	assert.Equal(t, ECGLVHypertrophy, rec.RestingECG)
	assert.Equal(t, SlopeUpsloping, rec.STSlope)
}

func TestAdvisories(t *testing.T) {
	rec := testRecord()
	w := Advisories(rec)
	// 145 mmHg -> stage 2, 233 mg/dL -> borderline
	require.Len(t, w, 2)
	assert.Contains(t, w[0], "stage 2")
	assert.Contains(t, w[1], "borderline")
}

func TestAdvisories_HeartRatePlausibility(t *testing.T) {
	rec := testRecord()
	rec.RestingBP = 118
	rec.Cholesterol = 180
	rec.Age = 80
	rec.MaxHeartRate = 200 // predicted max 140, margin 20

	w := Advisories(rec)
	require.Len(t, w, 1)
	assert.Contains(t, w[0], "age-predicted maximum")
}

func TestAdvisories_None(t *testing.T) {
	rec := testRecord()
	rec.RestingBP = 115
	rec.Cholesterol = 180
	rec.MaxHeartRate = 150
	assert.Empty(t, Advisories(rec))
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("p-001"))
	assert.True(t, ValidID("A_b-3"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("has space"))
	assert.False(t, ValidID("emoji🙂"))
}
