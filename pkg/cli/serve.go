package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/cli/config"
	httpctrl "github.com/secmon-lab/safetyrisk/pkg/controller/http"
	"github.com/secmon-lab/safetyrisk/pkg/service/fair"
	"github.com/secmon-lab/safetyrisk/pkg/usecase"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
	"github.com/secmon-lab/safetyrisk/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var workers int
	var requestTimeout time.Duration
	var maxSamples, maxPoints int
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("SAFETYRISK_ADDR"),
			Destination: &addr,
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Number of features computed concurrently per analysis (0 means number of CPUs)",
			Sources:     cli.EnvVars("SAFETYRISK_WORKERS"),
			Destination: &workers,
		},
		&cli.DurationFlag{
			Name:        "request-timeout",
			Usage:       "Maximum time spent on one API request",
			Value:       5 * time.Minute,
			Sources:     cli.EnvVars("SAFETYRISK_REQUEST_TIMEOUT"),
			Destination: &requestTimeout,
		},
		&cli.IntFlag{
			Name:        "max-samples",
			Usage:       "Largest Monte Carlo sample count accepted per request",
			Value:       httpctrl.DefaultMaxSamples,
			Sources:     cli.EnvVars("SAFETYRISK_MAX_SAMPLES"),
			Destination: &maxSamples,
		},
		&cli.IntFlag{
			Name:        "max-points",
			Usage:       "Largest number of sensitivity points accepted per request",
			Value:       httpctrl.DefaultMaxPoints,
			Sources:     cli.EnvVars("SAFETYRISK_MAX_POINTS"),
			Destination: &maxPoints,
		},
	}
	flags = append(flags, repoCfg.Flags(config.BackendMemory)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the analysis HTTP API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := openRepository(ctx, &repoCfg)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, repo)

			uc := usecase.New(repo, usecase.WithEngine(fair.New(fair.WithWorkers(workers))))

			server := &http.Server{
				Addr: addr,
				Handler: httpctrl.New(uc.Analysis,
					httpctrl.WithTimeout(requestTimeout),
					httpctrl.WithMaxSamples(maxSamples),
					httpctrl.WithMaxPoints(maxPoints),
				),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "backend", repoCfg.Backend())
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal, server error or cancellation
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)
			case <-ctx.Done():
				logging.Default().Info("Context canceled, shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logging.Default().Info("Server shutdown completed")
			return nil
		},
	}
}
