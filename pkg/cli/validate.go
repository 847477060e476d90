package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/cli/config"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/service/report"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var analysisCfg config.Analysis

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate an analysis configuration file and print the effective baseline",
		Flags:   analysisCfg.ConfigFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if analysisCfg.ConfigPath() == "" {
				return goerr.Wrap(config.ErrInvalidConfig, "--config is required")
			}

			cfg, err := analysisCfg.LoadFile()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			baseline, err := cfg.ApplyTo(model.DefaultBaseline())
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}
			if err := baseline.Validate(); err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			factor, err := cfg.SensitivityFactor()
			if err != nil {
				return err
			}
			if factor == "" {
				factor = model.DefaultSensitivityFactor
			}

			logging.Default().Info("Configuration validation passed",
				"config", analysisCfg.ConfigPath(),
				"samples", baseline.Samples,
			)

			w, _ := output(c)
			if err := report.WriteParameterSummary(w, baseline); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%-32s %s\n", "Sensitivity factor:", factor); err != nil {
				return goerr.Wrap(err, "failed to write output")
			}
			return nil
		},
	}
}
