package logging

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

var (
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	defaultMu     sync.RWMutex
)

// Default returns the process-wide logger. It discards everything until
// SetDefault is called.
func Default() *slog.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger *slog.Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

type ctxLoggerKey struct{}

// With embeds logger into ctx.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger embedded in ctx, or Default when there is none.
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}
