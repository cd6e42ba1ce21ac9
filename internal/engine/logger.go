package engine

import (
	"context"
	"log/slog"
)

// Logger is the minimal logging surface the engine needs. The zero
// configuration is silent; deployments plug in the slog adapter or their own.
type Logger interface {
	Info(ctx context.Context, msg string, keysAndValues ...any)
	Warn(ctx context.Context, msg string, keysAndValues ...any)
	Error(ctx context.Context, msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}

// SlogLogger adapts a *slog.Logger to the engine's Logger interface.
type SlogLogger struct {
	L *slog.Logger
}

// NewSlogLogger wraps the given slog logger; nil falls back to slog.Default.
func NewSlogLogger(l *slog.Logger) SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return SlogLogger{L: l}
}

func (s SlogLogger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	s.L.InfoContext(ctx, msg, keysAndValues...)
}

func (s SlogLogger) Warn(ctx context.Context, msg string, keysAndValues ...any) {
	s.L.WarnContext(ctx, msg, keysAndValues...)
}

func (s SlogLogger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	s.L.ErrorContext(ctx, msg, keysAndValues...)
}
