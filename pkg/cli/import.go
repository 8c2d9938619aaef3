package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cardiopulse/cardiopulse/pkg/data"
	"github.com/cardiopulse/cardiopulse/pkg/engine"
	"github.com/cardiopulse/cardiopulse/pkg/ingest"
	urfave "github.com/urfave/cli/v2"
)

var (
	importFileFlag = &urfave.StringFlag{
		Name:     "file",
		Usage:    "Path to the CSV file to import",
		Required: true,
	}

	importCmd = &urfave.Command{
		Name:  "import",
		Usage: "Imports patient records from a CSV file and assesses each row",
		Flags: []urfave.Flag{
			importFileFlag,
			saveFlag,
		},
		Action: runImportCmd,
	}
)

// ImportRowResult summarizes the assessment of one imported row.
type ImportRowResult struct {
	PatientID   string   `json:"patient_id" yaml:"patient_id"`
	Probability float64  `json:"probability" yaml:"probability"`
	Tier        string   `json:"tier" yaml:"tier"`
	Warnings    []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ImportResult is the output of the import command.
type ImportResult struct {
	File     string             `json:"file" yaml:"file"`
	Imported int                `json:"imported" yaml:"imported"`
	Skipped  int                `json:"skipped" yaml:"skipped"`
	Ignored  int                `json:"ignored" yaml:"ignored"`
	Duration string             `json:"duration" yaml:"duration"`
	Tiers    map[string]int     `json:"tiers" yaml:"tiers"`
	Rows     []*ImportRowResult `json:"rows" yaml:"rows"`
	Saved    bool               `json:"saved,omitempty" yaml:"saved,omitempty"`
}

func runImportCmd(c *urfave.Context) error {
	applyFlags(c)
	cfg := getConfig(c)
	start := time.Now()

	filePath := c.String(importFileFlag.Name)
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	parsed, err := ingest.ParseCSV(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", filePath, err)
	}

	if parsed.Ignored > 0 {
		slog.Warn("file exceeds row limit, extra rows ignored",
			"limit", ingest.MaxRows, "ignored", parsed.Ignored)
	}

	assessor := getAssessor(c.Context, cfg)

	result := &ImportResult{
		File:    filePath,
		Skipped: parsed.Skipped,
		Ignored: parsed.Ignored,
		Tiers:   map[string]int{},
		Rows:    make([]*ImportRowResult, 0, len(parsed.Rows)),
	}

	records := make([]*engine.PatientRecord, 0, len(parsed.Rows))
	assessments := make([]*engine.RiskAssessment, 0, len(parsed.Rows))

	for _, row := range parsed.Rows {
		a, err := assessor.Assess(c.Context, row.Record)
		if err != nil {
			return fmt.Errorf("assessing row %d (%s): %w", row.Line, row.Record.ID, err)
		}

		result.Rows = append(result.Rows, &ImportRowResult{
			PatientID:   row.Record.ID,
			Probability: a.Probability,
			Tier:        string(a.Tier),
			Warnings:    append(row.Warnings, engine.Advisories(row.Record)...),
		})
		result.Tiers[string(a.Tier)]++
		result.Imported++

		records = append(records, row.Record)
		assessments = append(assessments, a)
	}

	if c.Bool(saveFlag.Name) {
		if err := data.SavePatients(cfg.DB, records); err != nil {
			return fmt.Errorf("saving imported patients: %w", err)
		}
		for _, a := range assessments {
			if err := data.SaveAssessment(cfg.DB, a); err != nil {
				return fmt.Errorf("saving assessment for %s: %w", a.PatientID, err)
			}
		}
		result.Saved = true
	}

	result.Duration = time.Since(start).String()
	slog.Debug("import done",
		"file", filePath, "imported", result.Imported,
		"skipped", result.Skipped, "ignored", result.Ignored)

	return encode(result)
}
