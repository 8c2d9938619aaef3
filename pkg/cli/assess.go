package cli

import (
	"errors"
	"fmt"

	"github.com/cardiopulse/cardiopulse/pkg/data"
	"github.com/cardiopulse/cardiopulse/pkg/engine"
	urfave "github.com/urfave/cli/v2"
)

var (
	patientIDFlag = &urfave.StringFlag{
		Name:     "id",
		Usage:    "Patient identifier (alphanumeric, dash, underscore)",
		Required: true,
	}

	ageFlag = &urfave.StringFlag{
		Name:  "age",
		Usage: "Age in years",
	}

	sexFlag = &urfave.StringFlag{
		Name:  "sex",
		Usage: "Sex [male, female]",
	}

	chestPainFlag = &urfave.StringFlag{
		Name:  "chest-pain",
		Usage: "Chest pain type [typical_angina, atypical_angina, non_anginal, asymptomatic]",
	}

	restingBPFlag = &urfave.StringFlag{
		Name:  "resting-bp",
		Usage: "Resting systolic blood pressure (mmHg)",
	}

	cholesterolFlag = &urfave.StringFlag{
		Name:  "cholesterol",
		Usage: "Serum cholesterol (mg/dl)",
	}

	fastingBSFlag = &urfave.StringFlag{
		Name:  "fasting-bs",
		Usage: "Fasting blood sugar above 120 mg/dl [true, false]",
	}

	restingECGFlag = &urfave.StringFlag{
		Name:  "resting-ecg",
		Usage: "Resting ECG result [normal, st_t_abnormality, lv_hypertrophy]",
	}

	maxHeartRateFlag = &urfave.StringFlag{
		Name:  "max-heart-rate",
		Usage: "Maximum heart rate achieved (bpm)",
	}

	exerciseAnginaFlag = &urfave.StringFlag{
		Name:  "exercise-angina",
		Usage: "Exercise-induced angina [true, false]",
	}

	stDepressionFlag = &urfave.StringFlag{
		Name:  "st-depression",
		Usage: "ST depression induced by exercise (mm)",
	}

	stSlopeFlag = &urfave.StringFlag{
		Name:  "st-slope",
		Usage: "Slope of the peak exercise ST segment [upsloping, flat, downsloping]",
	}

	saveFlag = &urfave.BoolFlag{
		Name:  "save",
		Usage: "Persists the patient record and assessment to the local database",
	}

	lenientFlag = &urfave.BoolFlag{
		Name:  "lenient",
		Usage: "Substitutes clamped defaults for missing or invalid inputs instead of rejecting",
	}

	assessCmd = &urfave.Command{
		Name:  "assess",
		Usage: "Scores a single patient record and explains the result",
		Flags: []urfave.Flag{
			patientIDFlag,
			ageFlag,
			sexFlag,
			chestPainFlag,
			restingBPFlag,
			cholesterolFlag,
			fastingBSFlag,
			restingECGFlag,
			maxHeartRateFlag,
			exerciseAnginaFlag,
			stDepressionFlag,
			stSlopeFlag,
			saveFlag,
			lenientFlag,
		},
		Action: runAssessCmd,
	}
)

// AssessResult is the output of the assess command.
type AssessResult struct {
	Patient    *engine.PatientRecord  `json:"patient" yaml:"patient"`
	Assessment *engine.RiskAssessment `json:"assessment" yaml:"assessment"`
	Warnings   []string               `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Saved      bool                   `json:"saved,omitempty" yaml:"saved,omitempty"`
}

// ValidationResult is emitted when strict validation rejects the input.
type ValidationResult struct {
	Errors map[string]string `json:"validation_errors" yaml:"validation_errors"`
}

func runAssessCmd(c *urfave.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	raw := engine.RawRecord{
		ID:                    c.String(patientIDFlag.Name),
		Age:                   c.String(ageFlag.Name),
		Sex:                   c.String(sexFlag.Name),
		ChestPainType:         c.String(chestPainFlag.Name),
		RestingBP:             c.String(restingBPFlag.Name),
		Cholesterol:           c.String(cholesterolFlag.Name),
		FastingBloodSugarHigh: c.String(fastingBSFlag.Name),
		RestingECG:            c.String(restingECGFlag.Name),
		MaxHeartRate:          c.String(maxHeartRateFlag.Name),
		ExerciseAngina:        c.String(exerciseAnginaFlag.Name),
		STDepression:          c.String(stDepressionFlag.Name),
		STSlope:               c.String(stSlopeFlag.Name),
	}

	mode := engine.ModeStrict
	if c.Bool(lenientFlag.Name) {
		mode = engine.ModeLenient
	}

	rec, warnings, err := engine.Normalize(raw, mode)
	if err != nil {
		var verr engine.ValidationErrors
		if errors.As(err, &verr) {
			if encErr := encode(&ValidationResult{Errors: verr}); encErr != nil {
				return encErr
			}
			return fmt.Errorf("input validation failed (%d field(s))", len(verr))
		}
		return fmt.Errorf("normalizing record: %w", err)
	}

	assessor := getAssessor(c.Context, cfg)
	assessment, err := assessor.Assess(c.Context, rec)
	if err != nil {
		return fmt.Errorf("assessing patient %s: %w", rec.ID, err)
	}

	result := &AssessResult{
		Patient:    rec,
		Assessment: assessment,
		Warnings:   append(warnings, engine.Advisories(rec)...),
	}

	if c.Bool(saveFlag.Name) {
		if err := data.SavePatient(cfg.DB, rec); err != nil {
			return fmt.Errorf("saving patient %s: %w", rec.ID, err)
		}
		if err := data.SaveAssessment(cfg.DB, assessment); err != nil {
			return fmt.Errorf("saving assessment for %s: %w", rec.ID, err)
		}
		result.Saved = true
	}

	return encode(result)
}
