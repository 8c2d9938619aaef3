package engine

import "fmt"

// Advisory thresholds. These warn the clinician about notable values
// but never block submission.
const (
	bpElevated = 130
	bpHigh     = 140
	bpCrisis   = 180

	cholBorderline = 200
	cholHigh       = 240
	cholVeryHigh   = 300

	hrPlausibilityMargin = 20
)

// Advisories returns informational warnings for a normalized record:
// blood pressure stage, cholesterol level, and an age-adjusted maximum
// heart rate plausibility check.
func Advisories(rec *PatientRecord) []string {
	var w []string

	switch {
	case rec.RestingBP >= bpCrisis:
		w = append(w, fmt.Sprintf("resting blood pressure %d mmHg indicates hypertensive crisis", rec.RestingBP))
	case rec.RestingBP >= bpHigh:
		w = append(w, fmt.Sprintf("resting blood pressure %d mmHg indicates stage 2 hypertension", rec.RestingBP))
	case rec.RestingBP >= bpElevated:
		w = append(w, fmt.Sprintf("resting blood pressure %d mmHg indicates stage 1 hypertension", rec.RestingBP))
	}

	switch {
	case rec.Cholesterol >= cholVeryHigh:
		w = append(w, fmt.Sprintf("cholesterol %d mg/dL is very high", rec.Cholesterol))
	case rec.Cholesterol >= cholHigh:
		w = append(w, fmt.Sprintf("cholesterol %d mg/dL is high", rec.Cholesterol))
	case rec.Cholesterol >= cholBorderline:
		w = append(w, fmt.Sprintf("cholesterol %d mg/dL is borderline high", rec.Cholesterol))
	}

	if agePredicted := 220 - rec.Age; rec.MaxHeartRate > agePredicted+hrPlausibilityMargin {
		w = append(w, fmt.Sprintf("max heart rate %d bpm exceeds age-predicted maximum (%d bpm) by more than %d",
			rec.MaxHeartRate, agePredicted, hrPlausibilityMargin))
	}

	return w
}
