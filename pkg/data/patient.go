package data

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/cardiopulse/cardiopulse/pkg/engine"
)

const (
	ListLimitDefault = 100

	upsertPatientSQL = `INSERT INTO patient (
			id, age, sex, chest_pain_type, resting_bp, cholesterol,
			fasting_blood_sugar_high, resting_ecg, max_heart_rate,
			exercise_angina, st_depression, st_slope, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			age = excluded.age,
			sex = excluded.sex,
			chest_pain_type = excluded.chest_pain_type,
			resting_bp = excluded.resting_bp,
			cholesterol = excluded.cholesterol,
			fasting_blood_sugar_high = excluded.fasting_blood_sugar_high,
			resting_ecg = excluded.resting_ecg,
			max_heart_rate = excluded.max_heart_rate,
			exercise_angina = excluded.exercise_angina,
			st_depression = excluded.st_depression,
			st_slope = excluded.st_slope,
			updated_at = excluded.updated_at
	`

	selectPatientSQL = `SELECT id, age, sex, chest_pain_type, resting_bp,
			cholesterol, fasting_blood_sugar_high, resting_ecg, max_heart_rate,
			exercise_angina, st_depression, st_slope, created_at, updated_at
		FROM patient
		WHERE id = ?
	`

	listPatientsSQL = `SELECT id, age, sex, chest_pain_type, resting_bp,
			cholesterol, fasting_blood_sugar_high, resting_ecg, max_heart_rate,
			exercise_angina, st_depression, st_slope, created_at, updated_at
		FROM patient
		ORDER BY updated_at DESC, id
		LIMIT ?
	`

	deletePatientSQL = `DELETE FROM patient WHERE id = ?`
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Patient is a stored patient record with persistence timestamps.
type Patient struct {
	engine.PatientRecord `yaml:",inline"`

	CreatedAt string `json:"created_at" yaml:"createdAt"`
	UpdatedAt string `json:"updated_at" yaml:"updatedAt"`
}

// SavePatient inserts or updates one patient record.
func SavePatient(db *sql.DB, rec *engine.PatientRecord) error {
	if db == nil {
		return errDBNotInitialized
	}
	if rec == nil {
		return errors.New("record is required")
	}

	now := nowUTC()
	_, err := db.Exec(upsertPatientSQL,
		rec.ID, rec.Age, string(rec.Sex), string(rec.ChestPainType),
		rec.RestingBP, rec.Cholesterol, boolToInt(rec.FastingBloodSugarHigh),
		string(rec.RestingECG), rec.MaxHeartRate, boolToInt(rec.ExerciseAngina),
		rec.STDepression, string(rec.STSlope), now, now)
	if err != nil {
		return fmt.Errorf("failed to save patient %s: %w", rec.ID, err)
	}

	return nil
}

// SavePatients inserts or updates a batch of records in one transaction.
func SavePatients(db *sql.DB, recs []*engine.PatientRecord) error {
	if db == nil {
		return errDBNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(upsertPatientSQL)
	if err != nil {
		rollbackTransaction(tx)
		return fmt.Errorf("failed to prepare patient statement: %w", err)
	}

	now := nowUTC()
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		if _, err := stmt.Exec(
			rec.ID, rec.Age, string(rec.Sex), string(rec.ChestPainType),
			rec.RestingBP, rec.Cholesterol, boolToInt(rec.FastingBloodSugarHigh),
			string(rec.RestingECG), rec.MaxHeartRate, boolToInt(rec.ExerciseAngina),
			rec.STDepression, string(rec.STSlope), now, now); err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("failed to save patient %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit patient batch: %w", err)
	}

	return nil
}

// GetPatient returns one stored patient or ErrNotFound.
func GetPatient(db *sql.DB, id string) (*Patient, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	p, err := scanPatient(db.QueryRow(selectPatientSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get patient %s: %w", id, err)
	}

	return p, nil
}

// ListPatients returns stored patients, most recently updated first.
func ListPatients(db *sql.DB, limit int) ([]*Patient, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = ListLimitDefault
	}

	rows, err := db.Query(listPatientsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	list := make([]*Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient row: %w", err)
		}
		list = append(list, p)
	}

	return list, rows.Err()
}

// DeletePatient removes a patient and, via cascade, its assessments.
func DeletePatient(db *sql.DB, id string) error {
	if db == nil {
		return errDBNotInitialized
	}

	res, err := db.Exec(deletePatientSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(r rowScanner) (*Patient, error) {
	var p Patient
	var sex, cp, ecg, slope string
	var fbs, exang int

	if err := r.Scan(&p.ID, &p.Age, &sex, &cp, &p.RestingBP, &p.Cholesterol,
		&fbs, &ecg, &p.MaxHeartRate, &exang, &p.STDepression, &slope,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	p.Sex = engine.Sex(sex)
	p.ChestPainType = engine.ChestPainType(cp)
	p.RestingECG = engine.RestingECG(ecg)
	p.STSlope = engine.STSlope(slope)
	p.FastingBloodSugarHigh = fbs != 0
	p.ExerciseAngina = exang != 0

	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func rollbackTransaction(tx *sql.Tx) {
	_ = tx.Rollback()
}
