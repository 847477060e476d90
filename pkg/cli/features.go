package cli

import (
	"context"

	"github.com/secmon-lab/safetyrisk/pkg/service/fair"
	"github.com/secmon-lab/safetyrisk/pkg/service/report"
	"github.com/urfave/cli/v3"
)

func cmdFeatures() *cli.Command {
	return &cli.Command{
		Name:    "features",
		Aliases: []string{"f"},
		Usage:   "List the safety feature catalog",
		Action: func(ctx context.Context, c *cli.Command) error {
			w, opts := output(c)
			return report.WriteFeatures(w, fair.DefaultRegistry().Features(), opts...)
		},
	}
}
