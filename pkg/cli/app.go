package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path"
	"time"

	"github.com/cardiopulse/cardiopulse/pkg/config"
	"github.com/cardiopulse/cardiopulse/pkg/data"
	"github.com/cardiopulse/cardiopulse/pkg/engine"
	"github.com/cardiopulse/cardiopulse/pkg/logging"
	"github.com/cardiopulse/cardiopulse/pkg/predict"
	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "cardiopulse"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	outputFormat = formatJSON

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	dbFilePathFlag = &urfave.StringFlag{
		Name:  "db",
		Usage: "Path to the Sqlite database file",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}

	predictorURLFlag = &urfave.StringFlag{
		Name:  "predictor-url",
		Usage: "External model-serving endpoint (overrides config; empty uses the built-in model)",
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	DBPath       string
	Debug        bool
	DB           *sql.DB
	Conf         *config.Config
	PredictorURL string
}

func getConfig(c *urfave.Context) *appConfig {
	return c.App.Metadata[appConfigKey].(*appConfig)
}

// getAssessor wires the assessment pipeline to the configured
// predictor backend: the external model service when a predictor URL
// is set, otherwise the built-in deterministic model (with jitter
// unless disabled in config).
func getAssessor(ctx context.Context, cfg *appConfig) *engine.Assessor {
	if cfg.PredictorURL != "" {
		token, err := getPredictorToken()
		if err != nil {
			slog.Debug("no predictor token stored, calling unauthenticated", "error", err)
		}
		slog.Debug("using external predictor", "url", cfg.PredictorURL)
		return engine.NewAssessor(predict.New(ctx, cfg.PredictorURL, token))
	}

	var rng *rand.Rand
	if cfg.Conf == nil || cfg.Conf.Jitter {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return engine.NewAssessor(engine.NewDeterministicPredictor(rng))
}

func newApp() *urfave.App {
	return &urfave.App{
		Name:                 appName,
		Version:              fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Usage:                "CLI for cardiovascular risk assessment from clinical inputs",
		Flags: []urfave.Flag{
			debugFlag,
			dbFilePathFlag,
			formatFlag,
			predictorURLFlag,
		},
		Commands: []*urfave.Command{
			assessCmd,
			importCmd,
			queryCmd,
			authCmd,
			serverCmd,
			resetCmd,
		},
		Before: func(c *urfave.Context) error {
			if c.Bool(debugFlag.Name) {
				logging.SetDefaultCLILogger("debug")
			}

			f := c.String(formatFlag.Name)
			if f == formatYAML || f == "yml" {
				outputFormat = formatYAML
			}

			conf, err := config.ReadOrCreate(getHomeDir())
			if err != nil {
				return fmt.Errorf("reading config: %w", err)
			}

			dbPath := c.String(dbFilePathFlag.Name)
			if dbPath == "" {
				dbPath = path.Join(getHomeDir(), data.DataFileName)
			}

			if err := data.Init(dbPath); err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}

			db, err := data.GetDB(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}

			predictorURL := c.String(predictorURLFlag.Name)
			if predictorURL == "" {
				predictorURL = conf.PredictorURL
			}

			c.App.Metadata[appConfigKey] = &appConfig{
				DBPath:       dbPath,
				Debug:        c.Bool(debugFlag.Name),
				DB:           db,
				Conf:         conf,
				PredictorURL: predictorURL,
			}
			return nil
		},
		After: func(c *urfave.Context) error {
			if cfg, ok := c.App.Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func applyFlags(c *urfave.Context) {
	if c.Bool(debugFlag.Name) {
		logging.SetDefaultCLILogger("debug")
	}
}

func getHomeDir() string {
	dirPath, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	if created {
		slog.Debug("created app dir", "path", dirPath)
	}
	return dirPath
}

func encode(v any) error {
	if outputFormat == formatYAML {
		return yaml.NewEncoder(os.Stdout).Encode(v)
	}
	e := json.NewEncoder(os.Stdout)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
