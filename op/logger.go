package op

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with the fields reported for operation runs
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler, a text handler on
// stderr when handler is nil
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger writing human-readable text to stderr
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithOp adds the operation name to every record
func (l *Logger) WithOp(name string) *Logger {
	return &Logger{Logger: l.Logger.With("op", name)}
}

// LogRun logs the outcome of one run
func (l *Logger) LogRun(ctx context.Context, backend string, n int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "gather run failed",
			"backend", backend,
			"n", n,
			"elapsed", elapsed,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "gather run completed",
		"backend", backend,
		"n", n,
		"elapsed", elapsed,
	)
}

// LogStaging logs arrays promoted to or recalled from a device
func (l *Logger) LogStaging(ctx context.Context, direction, mode string, arrays int) {
	l.DebugContext(ctx, "staging arrays",
		"direction", direction,
		"device", mode,
		"arrays", arrays,
	)
}
