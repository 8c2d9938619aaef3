package data

import (
	"context"
	"testing"

	"github.com/cardiopulse/cardiopulse/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssessment(t *testing.T, id string) *engine.RiskAssessment {
	t.Helper()
	rec := testPatientRecord(id)
	a := engine.NewAssessor(engine.NewDeterministicPredictor(nil))
	res, err := a.Assess(context.Background(), rec)
	require.NoError(t, err)
	return res
}

func TestSaveAssessment_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SavePatient(db, testPatientRecord("p-001")))

	want := testAssessment(t, "p-001")
	require.NoError(t, SaveAssessment(db, want))

	got, err := GetLatestAssessment(db, "p-001")
	require.NoError(t, err)

	assert.Equal(t, want.PatientID, got.PatientID)
	assert.InDelta(t, want.Probability, got.Probability, 1e-9)
	assert.Equal(t, want.Tier, got.Tier)
	assert.Equal(t, want.Contributions, got.Contributions)
	assert.Equal(t, want.Thresholds, got.Thresholds)
	assert.Equal(t, want.Interpretation, got.Interpretation)
	assert.NotEmpty(t, got.CreatedAt)
}

func TestSaveAssessment_NilDB(t *testing.T) {
	assert.Error(t, SaveAssessment(nil, &engine.RiskAssessment{}))
}

func TestSaveAssessment_Nil(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, SaveAssessment(db, nil))
}

func TestSaveAssessment_UnknownPatient(t *testing.T) {
	db := setupTestDB(t)
	a := &engine.RiskAssessment{PatientID: "ghost", Tier: engine.TierLow}
	assert.Error(t, SaveAssessment(db, a))
}

func TestGetAssessments_History(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SavePatient(db, testPatientRecord("p-001")))

	for i := 0; i < 3; i++ {
		require.NoError(t, SaveAssessment(db, testAssessment(t, "p-001")))
	}

	list, err := GetAssessments(db, "p-001", 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	// newest first
	for i := 1; i < len(list); i++ {
		assert.GreaterOrEqual(t, list[i-1].ID, list[i].ID)
	}
}

func TestGetAssessments_Empty(t *testing.T) {
	db := setupTestDB(t)
	list, err := GetAssessments(db, "p-001", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetLatestAssessment_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := GetLatestAssessment(db, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTierDistribution(t *testing.T) {
	db := setupTestDB(t)

	low := testPatientRecord("p-low")
	low.Age = 35
	low.ChestPainType = engine.ChestPainTypicalAngina
	low.RestingBP = 110
	low.Cholesterol = 180
	low.STDepression = 0
	low.STSlope = engine.SlopeUpsloping
	low.RestingECG = engine.ECGNormal
	low.FastingBloodSugarHigh = false
	low.MaxHeartRate = 180

	med := testPatientRecord("p-med")

	assessor := engine.NewAssessor(engine.NewDeterministicPredictor(nil))
	for _, rec := range []*engine.PatientRecord{low, med} {
		require.NoError(t, SavePatient(db, rec))
		res, err := assessor.Assess(context.Background(), rec)
		require.NoError(t, err)
		require.NoError(t, SaveAssessment(db, res))
	}

	d, err := GetTierDistribution(db)
	require.NoError(t, err)
	require.Equal(t, []string{"low", "medium", "high"}, d.Labels)
	assert.Equal(t, 1, d.Data[0])
	assert.Equal(t, 1, d.Data[1])
	assert.Equal(t, 0, d.Data[2])
}

func TestGetTierDistribution_UsesLatestOnly(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SavePatient(db, testPatientRecord("p-001")))

	first := testAssessment(t, "p-001")
	first.Tier = engine.TierHigh
	require.NoError(t, SaveAssessment(db, first))

	second := testAssessment(t, "p-001")
	second.Tier = engine.TierLow
	require.NoError(t, SaveAssessment(db, second))

	d, err := GetTierDistribution(db)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0}, d.Data)
}

func TestNilDBGuards(t *testing.T) {
	_, err := GetPatient(nil, "x")
	assert.Error(t, err)
	_, err = ListPatients(nil, 0)
	assert.Error(t, err)
	assert.Error(t, DeletePatient(nil, "x"))
	_, err = GetAssessments(nil, "x", 0)
	assert.Error(t, err)
	_, err = GetLatestAssessment(nil, "x")
	assert.Error(t, err)
	_, err = GetTierDistribution(nil)
	assert.Error(t, err)
}
