package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cardiopulse/cardiopulse/pkg/data"
	"github.com/cardiopulse/cardiopulse/pkg/engine"
	"github.com/cardiopulse/cardiopulse/pkg/ingest"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryParamInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Error("error converting query string to int", "value", v, "error", err)
		return def
	}

	if i < 1 {
		return def
	}

	return i
}

func queryParamBool(r *http.Request, key string) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && b
}

// assessRequest is the POST /data/assess body. Fields arrive as
// JSON strings or numbers from UI forms, so everything is decoded
// loosely and validated by the normalization pass.
type assessRequest struct {
	ID                    string `json:"id"`
	Age                   any    `json:"age"`
	Sex                   any    `json:"sex"`
	ChestPainType         any    `json:"chestPainType"`
	RestingBP             any    `json:"restingBP"`
	Cholesterol           any    `json:"cholesterol"`
	FastingBloodSugarHigh any    `json:"fastingBloodSugarHigh"`
	RestingECG            any    `json:"restingECG"`
	MaxHeartRate          any    `json:"maxHeartRate"`
	ExerciseAngina        any    `json:"exerciseAngina"`
	STDepression          any    `json:"stDepression"`
	STSlope               any    `json:"stSlope"`
}

func rawField(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (q *assessRequest) toRaw() engine.RawRecord {
	return engine.RawRecord{
		ID:                    q.ID,
		Age:                   rawField(q.Age),
		Sex:                   rawField(q.Sex),
		ChestPainType:         rawField(q.ChestPainType),
		RestingBP:             rawField(q.RestingBP),
		Cholesterol:           rawField(q.Cholesterol),
		FastingBloodSugarHigh: rawField(q.FastingBloodSugarHigh),
		RestingECG:            rawField(q.RestingECG),
		MaxHeartRate:          rawField(q.MaxHeartRate),
		ExerciseAngina:        rawField(q.ExerciseAngina),
		STDepression:          rawField(q.STDepression),
		STSlope:               rawField(q.STSlope),
	}
}

func assessAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assessRequest
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			slog.Error("error binding json", "error", err)
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		mode := engine.ModeStrict
		if r.URL.Query().Get("mode") == "lenient" {
			mode = engine.ModeLenient
		}

		rec, warnings, err := engine.Normalize(req.toRaw(), mode)
		if err != nil {
			var verr engine.ValidationErrors
			if errors.As(err, &verr) {
				writeJSON(w, http.StatusBadRequest, &ValidationResult{Errors: verr})
				return
			}
			writeError(w, http.StatusBadRequest, "invalid patient record")
			return
		}

		assessor := getAssessor(r.Context(), cfg)
		assessment, err := assessor.Assess(r.Context(), rec)
		if err != nil {
			slog.Error("failed to assess patient", "id", rec.ID, "error", err)
			if errors.Is(err, engine.ErrPredictionUnavailable) {
				writeError(w, http.StatusBadGateway, "prediction service unavailable")
				return
			}
			writeError(w, http.StatusInternalServerError, "error assessing patient")
			return
		}

		result := &AssessResult{
			Patient:    rec,
			Assessment: assessment,
			Warnings:   append(warnings, engine.Advisories(rec)...),
		}

		if queryParamBool(r, "save") {
			if err := saveAssessed(cfg.DB, rec, assessment); err != nil {
				slog.Error("failed to save assessment", "id", rec.ID, "error", err)
				writeError(w, http.StatusInternalServerError, "error saving assessment")
				return
			}
			result.Saved = true
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func saveAssessed(db *sql.DB, rec *engine.PatientRecord, a *engine.RiskAssessment) error {
	if err := data.SavePatient(db, rec); err != nil {
		return err
	}
	return data.SaveAssessment(db, a)
}

func importAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parsed, err := ingest.ParseCSV(r.Body)
		if err != nil {
			slog.Error("error parsing csv body", "error", err)
			writeError(w, http.StatusBadRequest, "invalid csv body")
			return
		}

		save := queryParamBool(r, "save")
		assessor := getAssessor(r.Context(), cfg)

		result := &ImportResult{
			File:    "upload",
			Skipped: parsed.Skipped,
			Ignored: parsed.Ignored,
			Tiers:   map[string]int{},
			Rows:    make([]*ImportRowResult, 0, len(parsed.Rows)),
			Saved:   save,
		}

		for _, row := range parsed.Rows {
			a, err := assessor.Assess(r.Context(), row.Record)
			if err != nil {
				slog.Error("failed to assess imported row", "line", row.Line, "error", err)
				writeError(w, http.StatusInternalServerError, "error assessing imported rows")
				return
			}

			if save {
				if err := saveAssessed(cfg.DB, row.Record, a); err != nil {
					slog.Error("failed to save imported row", "id", row.Record.ID, "error", err)
					writeError(w, http.StatusInternalServerError, "error saving imported rows")
					return
				}
			}

			result.Rows = append(result.Rows, &ImportRowResult{
				PatientID:   row.Record.ID,
				Probability: a.Probability,
				Tier:        string(a.Tier),
				Warnings:    append(row.Warnings, engine.Advisories(row.Record)...),
			})
			result.Tiers[string(a.Tier)]++
			result.Imported++
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func patientsAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryParamInt(r, "limit", data.ListLimitDefault)
		list, err := data.ListPatients(db, limit)
		if err != nil {
			slog.Error("failed to list patients", "error", err)
			writeError(w, http.StatusInternalServerError, "error listing patients")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func patientAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		p, err := data.GetPatient(db, id)
		if err != nil {
			if errors.Is(err, data.ErrNotFound) {
				writeError(w, http.StatusNotFound, "patient not found")
				return
			}
			slog.Error("failed to get patient", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "error getting patient")
			return
		}

		detail := &PatientDetail{Patient: p}
		a, err := data.GetLatestAssessment(db, id)
		if err != nil && !errors.Is(err, data.ErrNotFound) {
			slog.Error("failed to get latest assessment", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "error getting latest assessment")
			return
		}
		detail.Assessment = a

		writeJSON(w, http.StatusOK, detail)
	}
}

func deletePatientAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		if err := data.DeletePatient(db, id); err != nil {
			if errors.Is(err, data.ErrNotFound) {
				writeError(w, http.StatusNotFound, "patient not found")
				return
			}
			slog.Error("failed to delete patient", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "error deleting patient")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
	}
}

func assessmentsAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		limit := queryParamInt(r, "limit", data.ListLimitDefault)

		list, err := data.GetAssessments(db, id, limit)
		if err != nil {
			slog.Error("failed to get assessments", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "error getting assessments")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func tiersAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := data.GetTierDistribution(db)
		if err != nil {
			slog.Error("failed to get tier distribution", "error", err)
			writeError(w, http.StatusInternalServerError, "error getting tier distribution")
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
