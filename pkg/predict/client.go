// Package predict implements the external learned-model predictor: an
// HTTP client that submits the patient's feature vector to a remote
// model-serving endpoint and maps the response onto the engine's
// predictor contract.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cardiopulse/cardiopulse/pkg/engine"
	"github.com/cardiopulse/cardiopulse/pkg/net"
	"github.com/pkg/errors"
)

const (
	requestTimeoutDefault = 10 * time.Second

	featureCount = 11
)

// request is the model-serving wire format: the eleven features in the
// training column order (age, sex, cp, trestbps, chol, fbs, restecg,
// thalch, exang, oldpeak, slope).
type request struct {
	PatientID string    `json:"patient_id,omitempty"`
	Features  []float64 `json:"features"`
}

type response struct {
	Probability float64   `json:"probability"`
	Importances []float64 `json:"importances,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Client calls a remote model-serving endpoint. It satisfies
// engine.Predictor; any transport, decode, or server failure surfaces
// as engine.ErrPredictionUnavailable.
type Client struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// New creates a predictor client for the given endpoint URL. An empty
// token disables authentication.
func New(ctx context.Context, url, token string) *Client {
	return &Client{
		url:     url,
		client:  net.GetAuthClient(ctx, token),
		timeout: requestTimeoutDefault,
	}
}

// Predict submits the record's feature vector and returns the model's
// probability and raw importances. The caller's context controls
// cancellation; a default timeout applies on top of it.
func (c *Client) Predict(ctx context.Context, rec *engine.PatientRecord) (*engine.Prediction, error) {
	if c.url == "" {
		return nil, errors.Wrap(engine.ErrPredictionUnavailable, "predictor URL not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(request{
		PatientID: rec.ID,
		Features:  FeatureVector(rec),
	})
	if err != nil {
		return nil, errors.Wrap(engine.ErrPredictionUnavailable, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(engine.ErrPredictionUnavailable, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(engine.ErrPredictionUnavailable, err.Error())
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(engine.ErrPredictionUnavailable, "predictor returned %s", res.Status)
	}

	var out response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(engine.ErrPredictionUnavailable, err.Error())
	}
	if out.Error != "" {
		return nil, errors.Wrapf(engine.ErrPredictionUnavailable, "predictor error: %s", out.Error)
	}
	if out.Probability < 0 || out.Probability > 1 {
		return nil, errors.Wrapf(engine.ErrPredictionUnavailable, "probability out of range: %v", out.Probability)
	}
	if out.Importances != nil && len(out.Importances) != featureCount {
		return nil, errors.Wrapf(engine.ErrPredictionUnavailable, "expected %d importances, got %d", featureCount, len(out.Importances))
	}

	return &engine.Prediction{
		Probability: out.Probability,
		Importances: out.Importances,
	}, nil
}

// FeatureVector encodes a record as the numeric vector the trained
// model expects, preserving the training column order and categorical
// encodings.
func FeatureVector(rec *engine.PatientRecord) []float64 {
	v := make([]float64, 0, featureCount)
	v = append(v, float64(rec.Age))
	v = append(v, encodeSex(rec.Sex))
	v = append(v, encodeChestPain(rec.ChestPainType))
	v = append(v, float64(rec.RestingBP))
	v = append(v, float64(rec.Cholesterol))
	v = append(v, encodeBool(rec.FastingBloodSugarHigh))
	v = append(v, encodeECG(rec.RestingECG))
	v = append(v, float64(rec.MaxHeartRate))
	v = append(v, encodeBool(rec.ExerciseAngina))
	v = append(v, rec.STDepression)
	v = append(v, encodeSlope(rec.STSlope))
	return v
}

func encodeSex(s engine.Sex) float64 {
	if s == engine.SexMale {
		return 1
	}
	return 0
}

func encodeChestPain(cp engine.ChestPainType) float64 {
	switch cp {
	case engine.ChestPainTypicalAngina:
		return 1
	case engine.ChestPainAtypicalAngina:
		return 2
	case engine.ChestPainNonAnginal:
		return 3
	default:
		return 4
	}
}

func encodeECG(ecg engine.RestingECG) float64 {
	switch ecg {
	case engine.ECGNormal:
		return 0
	case engine.ECGSTAbnormality:
		return 1
	default:
		return 2
	}
}

func encodeSlope(s engine.STSlope) float64 {
	switch s {
	case engine.SlopeUpsloping:
		return 1
	case engine.SlopeFlat:
		return 2
	default:
		return 3
	}
}

func encodeBool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// String describes the client for logs.
func (c *Client) String() string {
	return fmt.Sprintf("external predictor at %s", c.url)
}
