package log

import (
	"context"

	"github.com/rs/zerolog"
)

// loggerKey carries the request-scoped logger installed by the gin
// middleware through the context chain.
type loggerKey struct{}

// WithLogger returns a child context carrying logger.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Ctx returns the request-scoped logger, or the process logger when the
// context has none (background goroutines, tests).
func Ctx(ctx context.Context) zerolog.Logger {
	logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger)
	if !ok {
		return L()
	}
	return logger
}
