package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Logger holds CLI flags for the process-wide logger
type Logger struct {
	level  string
	format string
	output string
}

// Flags returns CLI flags for logger configuration
func (l *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("SAFETYRISK_LOG_LEVEL"),
			Destination: &l.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       "console",
			Sources:     cli.EnvVars("SAFETYRISK_LOG_FORMAT"),
			Destination: &l.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output (stdout, stderr, or file path)",
			Value:       "stderr",
			Sources:     cli.EnvVars("SAFETYRISK_LOG_OUTPUT"),
			Destination: &l.output,
		},
	}
}

// LogValue implements slog.LogValuer
func (l Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", l.level),
		slog.String("format", l.format),
		slog.String("output", l.output),
	)
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, goerr.Wrap(ErrInvalidConfig, "invalid log level", goerr.V("level", s))
}

// Configure builds the logger and installs it as the default. The returned
// closer releases the log file, if any.
func (l *Logger) Configure() (func(), error) {
	level, err := parseLogLevel(l.level)
	if err != nil {
		return nil, err
	}

	closer := func() {}
	var w io.Writer
	switch l.output {
	case "stdout", "-":
		w = os.Stdout
	case "stderr", "":
		w = os.Stderr
	default:
		// #nosec G304 - path is expected to be provided by CLI argument
		f, err := os.OpenFile(l.output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open log file", goerr.V("path", l.output))
		}
		w = f
		closer = func() {
			_ = f.Close()
		}
	}

	filter := masq.New(
		masq.WithTag("secret"),
		masq.WithFieldName("Authorization"),
		masq.WithFieldPrefix("secret_"),
	)

	var handler slog.Handler
	switch l.format {
	case "console", "":
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
			clog.WithSource(level <= slog.LevelDebug),
		)
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: filter,
		})
	default:
		closer()
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid log format", goerr.V(FormatKey, l.format))
	}

	logging.SetDefault(slog.New(handler))
	return closer, nil
}
