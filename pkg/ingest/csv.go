// Package ingest parses batch CSV uploads into normalized patient
// records using the engine's lenient mode: rows are clamped and
// defaulted rather than rejected, and only unreadable rows are skipped.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cardiopulse/cardiopulse/pkg/engine"
	"github.com/pkg/errors"
)

// MaxRows caps how many data rows of an upload are processed. Rows
// beyond the cap are ignored, not an error.
const MaxRows = 10

type column int

const (
	colUnmapped column = iota
	colID
	colAge
	colSex
	colChestPain
	colRestingBP
	colCholesterol
	colFastingBS
	colRestingECG
	colMaxHeartRate
	colExerciseAngina
	colSTDepression
	colSTSlope
)

// columnMap matches header names (case-insensitive) to record fields.
// Both the UCI dataset short names and the application's field names
// are accepted; anything else is ignored.
var columnMap = map[string]column{
	"id":                    colID,
	"patient_id":            colID,
	"age":                   colAge,
	"sex":                   colSex,
	"cp":                    colChestPain,
	"chestpaintype":         colChestPain,
	"chest_pain_type":       colChestPain,
	"trestbps":              colRestingBP,
	"restingbp":             colRestingBP,
	"resting_bp":            colRestingBP,
	"chol":                  colCholesterol,
	"cholesterol":           colCholesterol,
	"fbs":                   colFastingBS,
	"fastingbloodsugar":     colFastingBS,
	"fasting_blood_sugar":   colFastingBS,
	"restecg":               colRestingECG,
	"restingecg":            colRestingECG,
	"resting_ecg":           colRestingECG,
	"thalch":                colMaxHeartRate,
	"maxheartrate":          colMaxHeartRate,
	"max_heart_rate":        colMaxHeartRate,
	"exang":                 colExerciseAngina,
	"exerciseangina":        colExerciseAngina,
	"exercise_angina":       colExerciseAngina,
	"oldpeak":               colSTDepression,
	"stdepression":          colSTDepression,
	"st_depression":         colSTDepression,
	"slope":                 colSTSlope,
	"stslope":               colSTSlope,
	"st_slope":              colSTSlope,
}

// Row is one successfully ingested CSV row.
type Row struct {
	Line     int                   `json:"line" yaml:"line"`
	Record   *engine.PatientRecord `json:"record" yaml:"record"`
	Warnings []string              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Result summarizes one batch ingestion.
type Result struct {
	Rows    []Row `json:"rows" yaml:"rows"`
	Skipped int   `json:"skipped" yaml:"skipped"`
	Ignored int   `json:"ignored" yaml:"ignored"`
}

// ParseCSV reads a comma-separated upload with a required header row.
// Each of the first MaxRows data rows is normalized leniently; rows the
// CSV reader cannot parse are skipped and counted, never fatal to the
// batch. A missing or empty id cell gets a generated row-N id.
func ParseCSV(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV header")
	}

	cols := make([]column, len(header))
	mapped := 0
	for i, h := range header {
		c, ok := columnMap[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		cols[i] = c
		mapped++
	}
	if mapped == 0 {
		return nil, errors.New("no recognized columns in CSV header")
	}

	res := &Result{Rows: make([]Row, 0, MaxRows)}
	line := 1

	for {
		cells, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Debug("skipping malformed CSV row", "line", line, "error", err)
			res.Skipped++
			continue
		}

		if len(res.Rows) >= MaxRows {
			res.Ignored++
			continue
		}

		raw := rowToRaw(cols, cells)
		if raw.ID == "" || !engine.ValidID(raw.ID) {
			raw.ID = fmt.Sprintf("row-%d", line)
		}

		rec, warnings, err := engine.Normalize(raw, engine.ModeLenient)
		if err != nil {
			// lenient mode never rejects; guard anyway
			slog.Debug("skipping unnormalizable row", "line", line, "error", err)
			res.Skipped++
			continue
		}

		res.Rows = append(res.Rows, Row{Line: line, Record: rec, Warnings: warnings})
	}

	return res, nil
}

func rowToRaw(cols []column, cells []string) engine.RawRecord {
	var raw engine.RawRecord
	for i, cell := range cells {
		if i >= len(cols) {
			break
		}
		switch cols[i] {
		case colID:
			raw.ID = cell
		case colAge:
			raw.Age = cell
		case colSex:
			raw.Sex = cell
		case colChestPain:
			raw.ChestPainType = cell
		case colRestingBP:
			raw.RestingBP = cell
		case colCholesterol:
			raw.Cholesterol = cell
		case colFastingBS:
			raw.FastingBloodSugarHigh = cell
		case colRestingECG:
			raw.RestingECG = cell
		case colMaxHeartRate:
			raw.MaxHeartRate = cell
		case colExerciseAngina:
			raw.ExerciseAngina = cell
		case colSTDepression:
			raw.STDepression = cell
		case colSTSlope:
			raw.STSlope = cell
		}
	}
	return raw
}
