package engine

import "fmt"

// ThresholdStatus is the badge shown next to each clinical metric.
type ThresholdStatus string

const (
	StatusNormal     ThresholdStatus = "normal"
	StatusElevated   ThresholdStatus = "elevated"
	StatusBorderline ThresholdStatus = "borderline"
	StatusHigh       ThresholdStatus = "high"
)

// Threshold compares one raw metric against its fixed clinical target.
type Threshold struct {
	Metric string          `json:"metric" yaml:"metric"`
	Value  string          `json:"value" yaml:"value"`
	Target string          `json:"target" yaml:"target"`
	Status ThresholdStatus `json:"status" yaml:"status"`
}

// CompareThresholds evaluates the four tracked metrics against their
// clinical targets. It reads only raw record values and is fully
// independent of the scorer and aggregator.
func CompareThresholds(rec *PatientRecord) []Threshold {
	return []Threshold{
		{
			Metric: "Blood Pressure",
			Value:  fmt.Sprintf("%d mmHg", rec.RestingBP),
			Target: "<120 mmHg",
			Status: bpStatus(rec.RestingBP),
		},
		{
			Metric: "Cholesterol",
			Value:  fmt.Sprintf("%d mg/dL", rec.Cholesterol),
			Target: "<200 mg/dL",
			Status: cholesterolStatus(rec.Cholesterol),
		},
		{
			Metric: "Max Heart Rate",
			Value:  fmt.Sprintf("%d bpm", rec.MaxHeartRate),
			Target: "> 85% of age-predicted max",
			Status: heartRateStatus(rec.MaxHeartRate, rec.Age),
		},
		{
			Metric: "ST Depression",
			Value:  fmt.Sprintf("%.1f mm", rec.STDepression),
			Target: "<1.0 mm",
			Status: stDepressionStatus(rec.STDepression),
		},
	}
}

func bpStatus(bp int) ThresholdStatus {
	switch {
	case bp >= 140:
		return StatusHigh
	case bp >= 130:
		return StatusElevated
	default:
		return StatusNormal
	}
}

func cholesterolStatus(chol int) ThresholdStatus {
	switch {
	case chol >= 240:
		return StatusHigh
	case chol >= 200:
		return StatusBorderline
	default:
		return StatusNormal
	}
}

func heartRateStatus(hr, age int) ThresholdStatus {
	predicted := float64(220 - age)
	switch {
	case float64(hr) < predicted*0.65:
		return StatusHigh
	case float64(hr) < predicted*0.85:
		return StatusBorderline
	default:
		return StatusNormal
	}
}

func stDepressionStatus(mm float64) ThresholdStatus {
	switch {
	case mm >= 2:
		return StatusHigh
	case mm >= 1:
		return StatusElevated
	default:
		return StatusNormal
	}
}
