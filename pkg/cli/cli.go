package cli

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/secmon-lab/safetyrisk/pkg/cli/config"
	"github.com/secmon-lab/safetyrisk/pkg/service/report"
	"github.com/secmon-lab/safetyrisk/pkg/utils/errutil"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	return run(ctx, args, version, os.Stdout)
}

func run(ctx context.Context, args []string, version string, w io.Writer) error {
	var loggerCfg config.Logger
	var closer func()

	app := &cli.Command{
		Name:    "safetyrisk",
		Usage:   "FAIR Monte Carlo risk analysis for ride-share safety features",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Writer:  w,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			logging.Default().Debug("Starting safetyrisk", "logger", loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdAnalyze(),
			cmdSensitivity(),
			cmdFeatures(),
			cmdValidate(),
			cmdRuns(),
			cmdServe(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		return errutil.Handle(ctx, err, "failed to run app")
	}

	return nil
}

// output returns the writer of the root command and whether it is a
// terminal that should get colored tables.
func output(c *cli.Command) (io.Writer, []report.Option) {
	w := c.Root().Writer
	if w == nil {
		w = os.Stdout
	}
	colored := w == io.Writer(os.Stdout) && !color.NoColor
	return w, []report.Option{report.WithColor(colored)}
}
