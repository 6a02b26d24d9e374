package colorcrunch

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with colorcrunch-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithAlgorithm adds the algorithm name to every record.
func (l *Logger) WithAlgorithm(a Algorithm) *Logger {
	return &Logger{
		Logger: l.Logger.With("algorithm", a.String()),
	}
}

// LogQuantize logs a quantization. colors is the number of palette colors
// used, zero when the image already fit the budget.
func (l *Logger) LogQuantize(ctx context.Context, pixels, colors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "quantize failed",
			"pixels", pixels,
			"error", err,
		)
		return
	}
	if colors == 0 {
		l.DebugContext(ctx, "quantize skipped, image within color budget",
			"pixels", pixels,
		)
		return
	}
	l.DebugContext(ctx, "quantize completed",
		"pixels", pixels,
		"colors", colors,
	)
}

// LogPalette logs a palette extraction.
func (l *Logger) LogPalette(ctx context.Context, pixels, colors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "palette failed",
			"pixels", pixels,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "palette extracted",
		"pixels", pixels,
		"colors", colors,
	)
}
