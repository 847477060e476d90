package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/cli/config"
	"github.com/secmon-lab/safetyrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/service/report"
	"github.com/secmon-lab/safetyrisk/pkg/usecase"
	"github.com/secmon-lab/safetyrisk/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func openRepository(ctx context.Context, repoCfg *config.Repository) (interfaces.Repository, error) {
	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, goerr.Wrap(usecase.ErrNoRepository, "run history needs a repository backend",
			goerr.V("backend", repoCfg.Backend()))
	}
	return repo, nil
}

func cmdRuns() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect stored analysis runs",
		Commands: []*cli.Command{
			cmdRunsList(),
			cmdRunsShow(),
		},
	}
}

func cmdRunsList() *cli.Command {
	var repoCfg config.Repository

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List stored runs, newest first",
		Flags:   repoCfg.Flags(config.BackendFirestore),
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := openRepository(ctx, &repoCfg)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, repo)

			runs, err := usecase.New(repo).Analysis.ListRuns(ctx)
			if err != nil {
				return err
			}

			w, opts := output(c)
			if len(runs) == 0 {
				_, err := fmt.Fprintln(w, "No runs found")
				return err
			}
			return report.WriteRuns(w, runs, opts...)
		},
	}
}

func cmdRunsShow() *cli.Command {
	var repoCfg config.Repository
	var id string

	flags := append(repoCfg.Flags(config.BackendFirestore), &cli.StringFlag{
		Name:        "id",
		Usage:       "Run ID",
		Required:    true,
		Destination: &id,
	})

	return &cli.Command{
		Name:  "show",
		Usage: "Show the summary table and sensitivity curve of a stored run",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := openRepository(ctx, &repoCfg)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, repo)

			run, err := usecase.New(repo).Analysis.GetRun(ctx, model.RunID(id))
			if err != nil {
				return err
			}

			w, opts := output(c)
			if _, err := fmt.Fprintf(w, "Run %s (%s) created %s, seed %d, %d samples\n\n",
				run.ID, run.Label, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Report.Seed, run.Report.Samples); err != nil {
				return goerr.Wrap(err, "failed to write output")
			}
			if err := report.WriteSummaryTable(w, run.Report, opts...); err != nil {
				return err
			}
			if run.Sensitivity != nil {
				if _, err := fmt.Fprintln(w); err != nil {
					return goerr.Wrap(err, "failed to write output")
				}
				return report.WriteSensitivityTable(w, run.Sensitivity, opts...)
			}
			return nil
		},
	}
}
