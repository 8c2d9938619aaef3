package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cardiopulse/cardiopulse/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() *engine.PatientRecord {
	return &engine.PatientRecord{
		ID:                    "p-001",
		Age:                   63,
		Sex:                   engine.SexMale,
		ChestPainType:         engine.ChestPainTypicalAngina,
		RestingBP:             145,
		Cholesterol:           233,
		FastingBloodSugarHigh: true,
		RestingECG:            engine.ECGLVHypertrophy,
		MaxHeartRate:          150,
		ExerciseAngina:        false,
		STDepression:          2.3,
		STSlope:               engine.SlopeDownsloping,
	}
}

func TestFeatureVector_OrderAndEncoding(t *testing.T) {
	v := FeatureVector(testRecord())
	require.Len(t, v, featureCount)

	want := []float64{63, 1, 1, 145, 233, 1, 2, 150, 0, 2.3, 3}
	assert.Equal(t, want, v)
}

func TestPredict_Success(t *testing.T) {
	var gotReq request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(response{
			Probability: 0.82,
			Importances: make([]float64, featureCount),
		})
	}))
	defer srv.Close()

	c := New(context.Background(), srv.URL, "")
	pred, err := c.Predict(context.Background(), testRecord())
	require.NoError(t, err)

	assert.InDelta(t, 0.82, pred.Probability, 1e-9)
	assert.Len(t, pred.Importances, featureCount)
	assert.Equal(t, "p-001", gotReq.PatientID)
	assert.Len(t, gotReq.Features, featureCount)
}

func TestPredict_NoImportances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(response{Probability: 0.4})
	}))
	defer srv.Close()

	c := New(context.Background(), srv.URL, "")
	pred, err := c.Predict(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Nil(t, pred.Importances)
}

func TestPredict_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(context.Background(), srv.URL, "")
	_, err := c.Predict(context.Background(), testRecord())
	assert.ErrorIs(t, err, engine.ErrPredictionUnavailable)
}

func TestPredict_ModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(response{Error: "model not loaded"})
	}))
	defer srv.Close()

	c := New(context.Background(), srv.URL, "")
	_, err := c.Predict(context.Background(), testRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrPredictionUnavailable)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestPredict_BadProbability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(response{Probability: 3.2})
	}))
	defer srv.Close()

	c := New(context.Background(), srv.URL, "")
	_, err := c.Predict(context.Background(), testRecord())
	assert.ErrorIs(t, err, engine.ErrPredictionUnavailable)
}

func TestPredict_WrongImportanceCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(response{Probability: 0.5, Importances: []float64{1, 2}})
	}))
	defer srv.Close()

	c := New(context.Background(), srv.URL, "")
	_, err := c.Predict(context.Background(), testRecord())
	assert.ErrorIs(t, err, engine.ErrPredictionUnavailable)
}

func TestPredict_ConnectionRefused(t *testing.T) {
	c := New(context.Background(), "http://127.0.0.1:1", "")
	_, err := c.Predict(context.Background(), testRecord())
	assert.ErrorIs(t, err, engine.ErrPredictionUnavailable)
}

func TestPredict_NoURL(t *testing.T) {
	c := New(context.Background(), "", "")
	_, err := c.Predict(context.Background(), testRecord())
	assert.ErrorIs(t, err, engine.ErrPredictionUnavailable)
}

func TestPredict_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(context.Background(), srv.URL, "")
	_, err := c.Predict(ctx, testRecord())
	assert.ErrorIs(t, err, engine.ErrPredictionUnavailable)
}

func TestPredict_EndToEndWithAssessor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		importances := make([]float64, featureCount)
		importances[2] = 1.0
		json.NewEncoder(w).Encode(response{Probability: 0.9, Importances: importances})
	}))
	defer srv.Close()

	a := engine.NewAssessor(New(context.Background(), srv.URL, ""))
	res, err := a.Assess(context.Background(), testRecord())
	require.NoError(t, err)

	assert.Equal(t, engine.TierHigh, res.Tier)
	require.NotEmpty(t, res.Contributions)
	assert.Equal(t, engine.FeatureChestPainType, res.Contributions[0].Feature)
}
