package data

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cardiopulse/cardiopulse/pkg/engine"
)

const (
	insertAssessmentSQL = `INSERT INTO assessment (
			patient_id, probability, tier, contributions, thresholds,
			interpretation, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	selectAssessmentsSQL = `SELECT id, patient_id, probability, tier,
			contributions, thresholds, interpretation, created_at
		FROM assessment
		WHERE patient_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	selectLatestAssessmentSQL = `SELECT id, patient_id, probability, tier,
			contributions, thresholds, interpretation, created_at
		FROM assessment
		WHERE patient_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	selectTierDistributionSQL = `SELECT a.tier, COUNT(DISTINCT a.patient_id)
		FROM assessment a
		JOIN (
			SELECT patient_id, MAX(id) AS max_id FROM assessment GROUP BY patient_id
		) latest ON a.id = latest.max_id
		GROUP BY a.tier
	`
)

// StoredAssessment is a persisted risk assessment.
type StoredAssessment struct {
	ID        int64  `json:"id" yaml:"id"`
	CreatedAt string `json:"created_at" yaml:"createdAt"`

	engine.RiskAssessment `yaml:",inline"`
}

// TierDistribution is the dashboard chart data: per-tier patient
// counts based on each patient's most recent assessment.
type TierDistribution struct {
	Labels []string `json:"labels" yaml:"labels"`
	Data   []int    `json:"data" yaml:"data"`
}

// SaveAssessment persists one assessment result for a stored patient.
func SaveAssessment(db *sql.DB, a *engine.RiskAssessment) error {
	if db == nil {
		return errDBNotInitialized
	}
	if a == nil {
		return errors.New("assessment is required")
	}

	contributions, err := json.Marshal(a.Contributions)
	if err != nil {
		return fmt.Errorf("failed to marshal contributions for %s: %w", a.PatientID, err)
	}
	thresholds, err := json.Marshal(a.Thresholds)
	if err != nil {
		return fmt.Errorf("failed to marshal thresholds for %s: %w", a.PatientID, err)
	}

	_, err = db.Exec(insertAssessmentSQL,
		a.PatientID, a.Probability, string(a.Tier),
		string(contributions), string(thresholds), a.Interpretation, nowUTC())
	if err != nil {
		return fmt.Errorf("failed to save assessment for %s: %w", a.PatientID, err)
	}

	return nil
}

// GetAssessments returns a patient's assessment history, newest first.
func GetAssessments(db *sql.DB, patientID string, limit int) ([]*StoredAssessment, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = ListLimitDefault
	}

	rows, err := db.Query(selectAssessmentsSQL, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments for %s: %w", patientID, err)
	}
	defer rows.Close()

	list := make([]*StoredAssessment, 0)
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment row: %w", err)
		}
		list = append(list, a)
	}

	return list, rows.Err()
}

// GetLatestAssessment returns the most recent assessment for a patient
// or ErrNotFound.
func GetLatestAssessment(db *sql.DB, patientID string) (*StoredAssessment, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	a, err := scanAssessment(db.QueryRow(selectLatestAssessmentSQL, patientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest assessment for %s: %w", patientID, err)
	}

	return a, nil
}

// GetTierDistribution counts patients by the tier of their most recent
// assessment.
func GetTierDistribution(db *sql.DB) (*TierDistribution, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	counts := map[engine.Tier]int{}
	rows, err := db.Query(selectTierDistributionSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query tier distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, fmt.Errorf("failed to scan tier row: %w", err)
		}
		counts[engine.Tier(tier)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	d := &TierDistribution{
		Labels: make([]string, 0, 3),
		Data:   make([]int, 0, 3),
	}
	for _, tier := range []engine.Tier{engine.TierLow, engine.TierMedium, engine.TierHigh} {
		d.Labels = append(d.Labels, string(tier))
		d.Data = append(d.Data, counts[tier])
	}

	return d, nil
}

func scanAssessment(r rowScanner) (*StoredAssessment, error) {
	var a StoredAssessment
	var tier, contributions, thresholds string

	if err := r.Scan(&a.ID, &a.PatientID, &a.Probability, &tier,
		&contributions, &thresholds, &a.Interpretation, &a.CreatedAt); err != nil {
		return nil, err
	}

	a.Tier = engine.Tier(tier)
	if err := json.Unmarshal([]byte(contributions), &a.Contributions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contributions: %w", err)
	}
	if err := json.Unmarshal([]byte(thresholds), &a.Thresholds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thresholds: %w", err)
	}

	return &a, nil
}
