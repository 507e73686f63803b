// Package logger configures the process-wide slog logger and carries
// per-request attributes through a context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey struct{}

// Setup installs a logger writing to stdout as the slog default.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New returns a logger writing to w. Format "text" selects the text
// handler; anything else is JSON.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// WithAttrs returns a context whose FromContext logger carries args in
// addition to any attributes already attached.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	prev, _ := ctx.Value(contextKey{}).([]any)
	attrs := make([]any, 0, len(prev)+len(args))
	attrs = append(attrs, prev...)
	attrs = append(attrs, args...)
	return context.WithValue(ctx, contextKey{}, attrs)
}

// FromContext returns the default logger decorated with the attributes
// stored in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	l := slog.Default()
	if attrs, ok := ctx.Value(contextKey{}).([]any); ok && len(attrs) > 0 {
		l = l.With(attrs...)
	}
	return l
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
