package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/cli/config"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/service/fair"
	"github.com/secmon-lab/safetyrisk/pkg/service/report"
	"github.com/secmon-lab/safetyrisk/pkg/usecase"
	"github.com/secmon-lab/safetyrisk/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdSensitivity() *cli.Command {
	var analysisCfg config.Analysis
	var repoCfg config.Repository
	var runID string

	var flags []cli.Flag
	flags = append(flags, analysisCfg.Flags()...)
	flags = append(flags, repoCfg.Flags(config.BackendNone)...)
	flags = append(flags, &cli.StringFlag{
		Name:        "run-id",
		Usage:       "Sweep a stored run instead of running a new analysis (requires a repository backend)",
		Sources:     cli.EnvVars("SAFETYRISK_RUN_ID"),
		Destination: &runID,
	})

	return &cli.Command{
		Name:    "sensitivity",
		Aliases: []string{"s"},
		Usage:   "Sweep one factor for one feature and print the risk curve",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			settings, err := analysisCfg.Configure(c, true)
			if err != nil {
				return goerr.Wrap(err, "failed to configure analysis")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if repo != nil {
				defer safe.Close(ctx, repo)
			}

			uc := usecase.New(repo, usecase.WithEngine(fair.New(fair.WithWorkers(settings.Workers))))

			var result *model.SensitivityResult
			if runID != "" {
				result, err = uc.Analysis.Sensitivity(ctx, model.RunID(runID), *settings.Request.Sensitivity)
				if err != nil {
					return goerr.Wrap(err, "sensitivity analysis failed")
				}
			} else {
				analysis, err := uc.Analysis.Analyze(ctx, settings.Request)
				if err != nil {
					return goerr.Wrap(err, "sensitivity analysis failed")
				}
				result = analysis.Run.Sensitivity
			}

			w, opts := output(c)
			return report.WriteSensitivityTable(w, result, opts...)
		},
	}
}
