package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cardiopulse/cardiopulse/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uciHeader = "id,age,sex,cp,trestbps,chol,fbs,restecg,thalch,exang,oldpeak,slope"

func TestParseCSV_UCIColumns(t *testing.T) {
	input := uciHeader + "\n" +
		"p-001,63,male,typical_angina,145,233,1,lv_hypertrophy,150,0,2.3,downsloping\n"

	res, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Zero(t, res.Skipped)

	rec := res.Rows[0].Record
	assert.Equal(t, "p-001", rec.ID)
	assert.Equal(t, 63, rec.Age)
	assert.Equal(t, engine.SexMale, rec.Sex)
	assert.Equal(t, engine.ChestPainTypicalAngina, rec.ChestPainType)
	assert.Equal(t, 145, rec.RestingBP)
	assert.Equal(t, 233, rec.Cholesterol)
	assert.True(t, rec.FastingBloodSugarHigh)
	assert.Equal(t, engine.ECGLVHypertrophy, rec.RestingECG)
	assert.Equal(t, 150, rec.MaxHeartRate)
	assert.False(t, rec.ExerciseAngina)
	assert.InDelta(t, 2.3, rec.STDepression, 1e-9)
	assert.Equal(t, engine.SlopeDownsloping, rec.STSlope)
}

func TestParseCSV_CaseInsensitiveHeaders(t *testing.T) {
	input := "AGE,Sex,CP,TrestBPS\n54,female,2,120\n"

	res, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	rec := res.Rows[0].Record
	assert.Equal(t, 54, rec.Age)
	assert.Equal(t, engine.SexFemale, rec.Sex)
	assert.Equal(t, engine.ChestPainAtypicalAngina, rec.ChestPainType)
	assert.Equal(t, 120, rec.RestingBP)
}

func TestParseCSV_UnmappedColumnsIgnored(t *testing.T) {
	input := "age,ca,thal,num\n63,0,3,1\n"

	res, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 63, res.Rows[0].Record.Age)
}

func TestParseCSV_NoRecognizedColumns(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("foo,bar\n1,2\n"))
	assert.Error(t, err)
}

func TestParseCSV_EmptyInput(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseCSV_RowCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("age\n")
	for i := 0; i < MaxRows+5; i++ {
		fmt.Fprintf(&b, "%d\n", 40+i)
	}

	res, err := ParseCSV(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Len(t, res.Rows, MaxRows)
	assert.Equal(t, 5, res.Ignored)
	assert.Zero(t, res.Skipped)
}

func TestParseCSV_UnparseableCellUsesDefault(t *testing.T) {
	input := "age,sex\nabc,male\n"

	res, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, engine.DefaultAge, res.Rows[0].Record.Age)
	assert.Equal(t, engine.SexMale, res.Rows[0].Record.Sex)
}

func TestParseCSV_OutOfRangeClamped(t *testing.T) {
	input := "age,trestbps\n500,10\n"

	res, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, engine.AgeMax, res.Rows[0].Record.Age)
	assert.Equal(t, engine.RestingBPMin, res.Rows[0].Record.RestingBP)
}

func TestParseCSV_MalformedRowSkipped(t *testing.T) {
	input := "age,sex\n63,male\n\"unterminated,55\n50,female\n"

	res, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	require.NotEmpty(t, res.Rows)
	assert.Equal(t, 63, res.Rows[0].Record.Age)
}

func TestParseCSV_GeneratedID(t *testing.T) {
	input := "age\n63\n"

	res, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "row-2", res.Rows[0].Record.ID)
	assert.True(t, engine.ValidID(res.Rows[0].Record.ID))
}

func TestParseCSV_WarningsCarried(t *testing.T) {
	input := "id,age,trestbps\np1,abc,500\n"

	res, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	warnings := strings.Join(res.Rows[0].Warnings, "; ")
	assert.Contains(t, warnings, `age value "abc" is not recognized, using default 50`)
	assert.Contains(t, warnings, "restingBP 500 is out of range, clamped to 250")
	assert.Contains(t, warnings, "sex is missing, using default male")
}
