package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/cli/config"
	"github.com/secmon-lab/safetyrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/safetyrisk/pkg/service/fair"
	"github.com/secmon-lab/safetyrisk/pkg/service/report"
	"github.com/secmon-lab/safetyrisk/pkg/usecase"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
	"github.com/secmon-lab/safetyrisk/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdAnalyze() *cli.Command {
	var analysisCfg config.Analysis
	var artifactCfg config.Artifact
	var repoCfg config.Repository

	var flags []cli.Flag
	flags = append(flags, analysisCfg.Flags()...)
	flags = append(flags, artifactCfg.Flags()...)
	flags = append(flags, repoCfg.Flags(config.BackendNone)...)

	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   "Run the FAIR analysis for every safety feature and write report artifacts",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			settings, err := analysisCfg.Configure(c, false)
			if err != nil {
				return goerr.Wrap(err, "failed to configure analysis")
			}
			logging.Default().Debug("Analysis configured", "analysis", analysisCfg)

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if repo != nil {
				defer safe.Close(ctx, repo)
			}

			store, cleanup, err := artifactCfg.Configure(ctx, c, settings.OutputDir)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := []usecase.Option{
				usecase.WithEngine(fair.New(fair.WithWorkers(settings.Workers))),
			}
			if store != nil {
				opts = append(opts, usecase.WithArtifactStore(store))
			}
			uc := usecase.New(repo, opts...)

			result, err := uc.Analysis.Analyze(ctx, settings.Request)
			if err != nil {
				return goerr.Wrap(err, "analysis failed")
			}

			return printAnalysis(c, repo, result)
		},
	}
}

func printAnalysis(c *cli.Command, repo interfaces.Repository, result *usecase.AnalysisResult) error {
	w, opts := output(c)

	if err := report.WriteParameterSummary(w, result.Run.Baseline); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Seed: %d\n\nRisk ranking (expected annual loss):\n", result.Report.Seed); err != nil {
		return goerr.Wrap(err, "failed to write output")
	}
	if err := report.WriteSummaryTable(w, result.Report, opts...); err != nil {
		return err
	}

	if result.Run.Sensitivity != nil {
		if _, err := fmt.Fprintln(w); err != nil {
			return goerr.Wrap(err, "failed to write output")
		}
		if err := report.WriteSensitivityTable(w, result.Run.Sensitivity, opts...); err != nil {
			return err
		}
	}

	if err := report.WriteNotes(w); err != nil {
		return err
	}

	if len(result.Artifacts) > 0 {
		if _, err := fmt.Fprintln(w, "\nArtifacts:"); err != nil {
			return goerr.Wrap(err, "failed to write output")
		}
		for _, loc := range result.Artifacts {
			if _, err := fmt.Fprintf(w, "  %s\n", loc); err != nil {
				return goerr.Wrap(err, "failed to write output")
			}
		}
	}

	if repo != nil {
		if _, err := fmt.Fprintf(w, "\nRun ID: %s\n", result.Run.ID); err != nil {
			return goerr.Wrap(err, "failed to write output")
		}
	}
	return nil
}
