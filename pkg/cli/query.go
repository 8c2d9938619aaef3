package cli

import (
	"errors"
	"fmt"

	"github.com/cardiopulse/cardiopulse/pkg/data"
	urfave "github.com/urfave/cli/v2"
)

var (
	queryIDFlag = &urfave.StringFlag{
		Name:     "id",
		Usage:    "Patient identifier",
		Required: true,
	}

	limitFlag = &urfave.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of rows to return",
		Value: data.ListLimitDefault,
	}

	queryCmd = &urfave.Command{
		Name:  "query",
		Usage: "Queries previously saved patients and assessments",
		Subcommands: []*urfave.Command{
			{
				Name:   "patients",
				Usage:  "Lists saved patient records, most recently updated first",
				Flags:  []urfave.Flag{limitFlag},
				Action: runQueryPatientsCmd,
			},
			{
				Name:   "patient",
				Usage:  "Shows one patient record with its latest assessment",
				Flags:  []urfave.Flag{queryIDFlag},
				Action: runQueryPatientCmd,
			},
			{
				Name:   "assessments",
				Usage:  "Lists assessment history for one patient, newest first",
				Flags:  []urfave.Flag{queryIDFlag, limitFlag},
				Action: runQueryAssessmentsCmd,
			},
			{
				Name:   "tiers",
				Usage:  "Shows the risk tier distribution across saved patients",
				Action: runQueryTiersCmd,
			},
		},
	}
)

// PatientDetail pairs a patient record with its latest assessment.
type PatientDetail struct {
	Patient    *data.Patient          `json:"patient" yaml:"patient"`
	Assessment *data.StoredAssessment `json:"assessment,omitempty" yaml:"assessment,omitempty"`
}

func runQueryPatientsCmd(c *urfave.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	list, err := data.ListPatients(cfg.DB, c.Int(limitFlag.Name))
	if err != nil {
		return fmt.Errorf("listing patients: %w", err)
	}
	return encode(list)
}

func runQueryPatientCmd(c *urfave.Context) error {
	applyFlags(c)
	cfg := getConfig(c)
	id := c.String(queryIDFlag.Name)

	p, err := data.GetPatient(cfg.DB, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return fmt.Errorf("patient not found: %s", id)
		}
		return fmt.Errorf("getting patient %s: %w", id, err)
	}

	detail := &PatientDetail{Patient: p}
	a, err := data.GetLatestAssessment(cfg.DB, id)
	if err != nil && !errors.Is(err, data.ErrNotFound) {
		return fmt.Errorf("getting latest assessment for %s: %w", id, err)
	}
	detail.Assessment = a

	return encode(detail)
}

func runQueryAssessmentsCmd(c *urfave.Context) error {
	applyFlags(c)
	cfg := getConfig(c)
	id := c.String(queryIDFlag.Name)

	list, err := data.GetAssessments(cfg.DB, id, c.Int(limitFlag.Name))
	if err != nil {
		return fmt.Errorf("getting assessments for %s: %w", id, err)
	}
	return encode(list)
}

func runQueryTiersCmd(c *urfave.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	d, err := data.GetTierDistribution(cfg.DB)
	if err != nil {
		return fmt.Errorf("getting tier distribution: %w", err)
	}
	return encode(d)
}
