package engine

import (
	"context"

	"github.com/pkg/errors"
)

// RiskAssessment is the full result of one assessment. It is derived
// fresh on every Assess call and never mutated or cached.
type RiskAssessment struct {
	PatientID      string         `json:"patient_id" yaml:"patientID"`
	Probability    float64        `json:"probability" yaml:"probability"`
	Tier           Tier           `json:"tier" yaml:"tier"`
	Contributions  []Contribution `json:"contributions" yaml:"contributions"`
	Thresholds     []Threshold    `json:"thresholds" yaml:"thresholds"`
	Interpretation string         `json:"interpretation" yaml:"interpretation"`
}

// Assessor runs the full scoring and explanation pipeline against a
// predictor backend. The zero value is not usable; construct with
// NewAssessor.
type Assessor struct {
	predictor Predictor
}

// NewAssessor wires an assessor to a predictor backend. Pass the
// deterministic predictor for the self-contained model or an external
// predictor for a learned one.
func NewAssessor(p Predictor) *Assessor {
	return &Assessor{predictor: p}
}

// Assess produces a complete risk assessment for a normalized record.
// The only suspension point is the predictor call; a predictor failure
// is wrapped in ErrPredictionUnavailable and no partial result is
// returned.
func (a *Assessor) Assess(ctx context.Context, rec *PatientRecord) (*RiskAssessment, error) {
	if rec == nil {
		return nil, errors.New("record is required")
	}

	pred, err := a.predictor.Predict(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrPredictionUnavailable) {
			return nil, err
		}
		return nil, errors.Wrap(ErrPredictionUnavailable, err.Error())
	}

	var contributions []Contribution
	if pred.Importances == nil {
		contributions = ExplainScores(rec, Score(rec))
	} else {
		contributions = ExplainImportances(rec, pred.Probability, pred.Importances)
	}

	tier := TierFor(pred.Probability)

	return &RiskAssessment{
		PatientID:      rec.ID,
		Probability:    pred.Probability,
		Tier:           tier,
		Contributions:  contributions,
		Thresholds:     CompareThresholds(rec),
		Interpretation: Interpretation(tier, pred.Probability, contributions),
	}, nil
}
