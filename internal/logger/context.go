package logger

import (
	"context"

	"go.uber.org/zap"
)

// loggerContextKey is the context key type used to store the logger.
type loggerContextKey struct{}

// ToContext returns a new context carrying the provided logger.
func ToContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext extracts the logger from the context,
// falling back to the global logger when none is stored.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(loggerContextKey{}).(*zap.SugaredLogger); ok {
		return l
	}

	return global
}

// WithName returns a context whose logger is named after the given component.
func WithName(ctx context.Context, name string) context.Context {
	return ToContext(ctx, FromContext(ctx).Named(name))
}

// WithKV returns a context whose logger carries the provided key-value pair.
func WithKV(ctx context.Context, key string, value any) context.Context {
	return ToContext(ctx, FromContext(ctx).With(key, value))
}

// WithFields returns a context whose logger carries the provided zap fields.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, field)
	}

	return ToContext(ctx, FromContext(ctx).With(args...))
}
