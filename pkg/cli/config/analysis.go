package config

import (
	"errors"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
	"github.com/secmon-lab/safetyrisk/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Analysis holds CLI flags for an analysis run. Flags given explicitly win
// over the config file, which wins over built-in defaults.
type Analysis struct {
	configPath        string
	samples           int
	seed              uint64
	workers           int
	sensitivityFactor string
	sensitivityPoints int
	noSensitivity     bool
	exportSamples     bool
	label             string
	feature           string
}

// AnalysisSettings is the resolved result of flags and config file.
type AnalysisSettings struct {
	Request   usecase.AnalysisRequest
	Workers   int
	OutputDir string
}

// ConfigFlags returns only the config file flag
func (a *Analysis) ConfigFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Analysis config file (TOML, or legacy JSON when the extension is .json)",
			Sources:     cli.EnvVars("SAFETYRISK_CONFIG"),
			Destination: &a.configPath,
		},
	}
}

// Flags returns CLI flags for analysis configuration
func (a *Analysis) Flags() []cli.Flag {
	return append(a.ConfigFlags(),
		&cli.IntFlag{
			Name:        "samples",
			Aliases:     []string{"n"},
			Usage:       "Number of Monte Carlo samples per feature",
			Value:       model.DefaultSamples,
			Sources:     cli.EnvVars("SAFETYRISK_SAMPLES"),
			Destination: &a.samples,
		},
		&cli.Uint64Flag{
			Name:        "seed",
			Usage:       "Random seed for reproducible results (random when omitted)",
			Sources:     cli.EnvVars("SAFETYRISK_SEED"),
			Destination: &a.seed,
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Number of features computed concurrently (0 means number of CPUs)",
			Sources:     cli.EnvVars("SAFETYRISK_WORKERS"),
			Destination: &a.workers,
		},
		&cli.StringFlag{
			Name:        "sensitivity-factor",
			Usage:       "Factor to sweep (cf, tc, rs, sl_ef, sl_m or auto)",
			Value:       string(model.DefaultSensitivityFactor),
			Sources:     cli.EnvVars("SAFETYRISK_SENSITIVITY_FACTOR"),
			Destination: &a.sensitivityFactor,
		},
		&cli.IntFlag{
			Name:        "sensitivity-points",
			Usage:       "Number of swept values",
			Value:       model.DefaultSensitivityPoints,
			Sources:     cli.EnvVars("SAFETYRISK_SENSITIVITY_POINTS"),
			Destination: &a.sensitivityPoints,
		},
		&cli.StringFlag{
			Name:        "feature",
			Usage:       "Feature to sweep (name or ID, default: highest-ranked)",
			Sources:     cli.EnvVars("SAFETYRISK_FEATURE"),
			Destination: &a.feature,
		},
		&cli.BoolFlag{
			Name:        "no-sensitivity",
			Usage:       "Skip the sensitivity sweep",
			Sources:     cli.EnvVars("SAFETYRISK_NO_SENSITIVITY"),
			Destination: &a.noSensitivity,
		},
		&cli.BoolFlag{
			Name:        "export-samples",
			Usage:       "Write every raw sample to risk_samples.csv",
			Sources:     cli.EnvVars("SAFETYRISK_EXPORT_SAMPLES"),
			Destination: &a.exportSamples,
		},
		&cli.StringFlag{
			Name:        "label",
			Usage:       "Free-form label stored with the run",
			Sources:     cli.EnvVars("SAFETYRISK_LABEL"),
			Destination: &a.label,
		},
	)
}

// ConfigPath returns the config file path
func (a *Analysis) ConfigPath() string {
	return a.configPath
}

// LogValue implements slog.LogValuer
func (a Analysis) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("config", a.configPath),
		slog.Int("samples", a.samples),
		slog.Int("workers", a.workers),
		slog.String("sensitivity_factor", a.sensitivityFactor),
		slog.Int("sensitivity_points", a.sensitivityPoints),
	)
}

// LoadFile reads the config file, or returns an empty config when no path is set.
func (a *Analysis) LoadFile() (*AnalysisConfig, error) {
	if a.configPath == "" {
		return &AnalysisConfig{}, nil
	}
	return LoadAnalysisConfig(a.configPath)
}

func parseSweepFactor(s string) (types.FactorID, error) {
	if s == string(model.FactorAuto) {
		return model.FactorAuto, nil
	}
	f, err := types.ParseFactorID(s)
	if err != nil {
		return "", goerr.Wrap(errors.Join(ErrInvalidConfig, err), "invalid sensitivity factor", goerr.V(FactorKey, s))
	}
	return f, nil
}

// Configure resolves flags and the config file into analysis settings.
// Sensitivity is always requested when forceSensitivity is true.
func (a *Analysis) Configure(cmd *cli.Command, forceSensitivity bool) (*AnalysisSettings, error) {
	cfg, err := a.LoadFile()
	if err != nil {
		return nil, err
	}

	baseline, err := cfg.ApplyTo(model.DefaultBaseline())
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("samples") {
		baseline = baseline.WithSamples(a.samples)
	}

	req := usecase.AnalysisRequest{
		Label:         a.label,
		Baseline:      baseline,
		Seed:          cfg.Seed,
		ExportSamples: a.exportSamples || cfg.Output.ExportSamples,
	}
	if cmd.IsSet("seed") {
		seed := a.seed
		req.Seed = &seed
	}

	if forceSensitivity || !(a.noSensitivity || cfg.Sensitivity.Disabled) {
		factor, err := cfg.SensitivityFactor()
		if err != nil {
			return nil, err
		}
		if cmd.IsSet("sensitivity-factor") || factor == "" {
			if factor, err = parseSweepFactor(a.sensitivityFactor); err != nil {
				return nil, err
			}
		}

		points := cfg.Sensitivity.Points
		if cmd.IsSet("sensitivity-points") || points == 0 {
			points = a.sensitivityPoints
		}
		if points < 1 {
			return nil, goerr.Wrap(ErrInvalidConfig, "sensitivity points must be at least 1", goerr.V("points", points))
		}

		feature := cfg.Sensitivity.Feature
		if cmd.IsSet("feature") {
			feature = a.feature
		}

		req.Sensitivity = &usecase.SensitivityRequest{
			Feature: feature,
			Options: model.SensitivityOptions{Factor: factor, Points: points},
		}
	}

	workers := cfg.Workers
	if cmd.IsSet("workers") {
		workers = a.workers
	}

	return &AnalysisSettings{
		Request:   req,
		Workers:   workers,
		OutputDir: cfg.Output.Dir,
	}, nil
}
