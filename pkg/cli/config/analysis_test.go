package config_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/safetyrisk/pkg/cli/config"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func resolve(t *testing.T, force bool, args ...string) (*config.AnalysisSettings, error) {
	t.Helper()
	var a config.Analysis
	var settings *config.AnalysisSettings
	cmd := &cli.Command{
		Name:  "test",
		Flags: a.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			var err error
			settings, err = a.Configure(c, force)
			return err
		},
	}
	err := cmd.Run(context.Background(), append([]string{"test"}, args...))
	return settings, err
}

func TestAnalysis_Defaults(t *testing.T) {
	settings, err := resolve(t, false)
	gt.NoError(t, err).Required()

	req := settings.Request
	gt.Value(t, req.Baseline).Equal(model.DefaultBaseline())
	gt.Value(t, req.Seed).Nil()
	gt.Bool(t, req.ExportSamples).False()
	gt.Value(t, req.Sensitivity).NotNil()
	gt.Value(t, req.Sensitivity.Feature).Equal("")
	gt.Value(t, req.Sensitivity.Options.Factor).Equal(types.FactorResistanceStrength)
	gt.Value(t, req.Sensitivity.Options.Points).Equal(model.DefaultSensitivityPoints)
	gt.Value(t, settings.Workers).Equal(0)
}

func TestAnalysis_Flags(t *testing.T) {
	settings, err := resolve(t, false,
		"--samples", "200",
		"--seed", "9",
		"--workers", "3",
		"--sensitivity-factor", "auto",
		"--sensitivity-points", "4",
		"--feature", "speed-monitoring",
		"--export-samples",
		"--label", "nightly",
	)
	gt.NoError(t, err).Required()

	req := settings.Request
	gt.Value(t, req.Baseline.Samples).Equal(200)
	gt.Value(t, *req.Seed).Equal(uint64(9))
	gt.Value(t, req.Label).Equal("nightly")
	gt.Bool(t, req.ExportSamples).True()
	gt.Value(t, req.Sensitivity.Options.Factor).Equal(model.FactorAuto)
	gt.Value(t, req.Sensitivity.Options.Points).Equal(4)
	gt.Value(t, req.Sensitivity.Feature).Equal("speed-monitoring")
	gt.Value(t, settings.Workers).Equal(3)
}

func TestAnalysis_FileAndFlagPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.toml")
	content := `
samples = 300
seed = 5
workers = 2

[baseline.rs]
min = 2
max = 3

[sensitivity]
factor = "tc"
points = 6

[output]
dir = "from-file"
`
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()

	t.Run("file values apply", func(t *testing.T) {
		settings, err := resolve(t, false, "--config", path)
		gt.NoError(t, err).Required()
		gt.Value(t, settings.Request.Baseline.Samples).Equal(300)
		gt.Value(t, *settings.Request.Seed).Equal(uint64(5))
		gt.Value(t, settings.Request.Baseline.ResistanceStrength.Min()).Equal(2.0)
		gt.Value(t, settings.Request.Sensitivity.Options.Factor).Equal(types.FactorThreatCapability)
		gt.Value(t, settings.Request.Sensitivity.Options.Points).Equal(6)
		gt.Value(t, settings.Workers).Equal(2)
		gt.Value(t, settings.OutputDir).Equal("from-file")
	})

	t.Run("flags win over file", func(t *testing.T) {
		settings, err := resolve(t, false, "--config", path,
			"--samples", "50", "--seed", "6", "--sensitivity-factor", "cf", "--sensitivity-points", "2")
		gt.NoError(t, err).Required()
		gt.Value(t, settings.Request.Baseline.Samples).Equal(50)
		gt.Value(t, *settings.Request.Seed).Equal(uint64(6))
		gt.Value(t, settings.Request.Sensitivity.Options.Factor).Equal(types.FactorContactFrequency)
		gt.Value(t, settings.Request.Sensitivity.Options.Points).Equal(2)
		gt.Value(t, settings.Request.Baseline.ResistanceStrength.Min()).Equal(2.0)
	})
}

func TestAnalysis_Sensitivity(t *testing.T) {
	t.Run("disabled by flag", func(t *testing.T) {
		settings, err := resolve(t, false, "--no-sensitivity")
		gt.NoError(t, err).Required()
		gt.Value(t, settings.Request.Sensitivity).Nil()
	})

	t.Run("forced even when disabled", func(t *testing.T) {
		settings, err := resolve(t, true, "--no-sensitivity")
		gt.NoError(t, err).Required()
		gt.Value(t, settings.Request.Sensitivity).NotNil()
	})

	t.Run("invalid factor", func(t *testing.T) {
		_, err := resolve(t, false, "--sensitivity-factor", "weather")
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("zero points", func(t *testing.T) {
		_, err := resolve(t, false, "--sensitivity-points", "0")
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}

func TestAnalysis_MissingConfig(t *testing.T) {
	_, err := resolve(t, false, "--config", filepath.Join(t.TempDir(), "nope.toml"))
	gt.Error(t, err).Is(config.ErrConfigNotFound)
}

func TestRepository_Configure(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest("none", "", "").Configure(ctx)
		gt.NoError(t, err)
		gt.Value(t, repo).Nil()
	})

	t.Run("memory", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest("memory", "", "").Configure(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, repo).NotNil()
		gt.NoError(t, repo.Close())
	})

	t.Run("firestore without project", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("firestore", "", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("postgres", "", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := config.ParseLogLevel(tt.input)
			if tt.wantErr {
				gt.Error(t, err).Is(config.ErrInvalidConfig)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, got).Equal(tt.want)
		})
	}
}
