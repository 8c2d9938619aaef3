package engine

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"
)

// ErrPredictionUnavailable indicates the predictor backend failed or
// timed out. The caller decides whether to retry or surface it; the
// engine never silently substitutes a fallback result.
var ErrPredictionUnavailable = errors.New("prediction unavailable")

// Prediction is the output of any predictor backend. Importances is
// nil for the deterministic model, which exposes its sub-scores
// directly instead.
type Prediction struct {
	Probability float64
	Importances []float64
}

// Predictor produces a risk probability for a normalized record.
// Implementations must be safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, rec *PatientRecord) (*Prediction, error)
}

// DeterministicPredictor is the fallback weighted model. With a nil
// randomness source it is fully deterministic and idempotent; with one
// it perturbs each probability by up to ±JitterAmplitude so repeated
// assessments of the same record do not look machine-identical.
type DeterministicPredictor struct {
	rng *rand.Rand
}

// NewDeterministicPredictor returns the fallback model. Pass nil rng
// to disable jitter (the reproducible-test configuration).
func NewDeterministicPredictor(rng *rand.Rand) *DeterministicPredictor {
	return &DeterministicPredictor{rng: rng}
}

// Predict aggregates the record's weighted sub-scores. It never fails
// for a normalized record.
func (p *DeterministicPredictor) Predict(_ context.Context, rec *PatientRecord) (*Prediction, error) {
	var jitter float64
	if p.rng != nil {
		jitter = (p.rng.Float64()*2 - 1) * JitterAmplitude
	}
	return &Prediction{
		Probability: Aggregate(Score(rec), jitter),
	}, nil
}
