package events

import (
	"context"
	"os"
)

type contextKey int

const (
	loggerKey contextKey = iota
	vaultIDKey
)

// FromContext extracts the logger from context, falling back to the
// package default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithVaultID attaches a vault id to the context and its logger.
func WithVaultID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("vault_id", id)
	ctx = context.WithValue(ctx, vaultIDKey, id)
	return WithLogger(ctx, logger)
}

// GetVaultID retrieves the vault id from context.
func GetVaultID(ctx context.Context) string {
	if id, ok := ctx.Value(vaultIDKey).(string); ok {
		return id
	}
	return ""
}

var defaultLogger = &Logger{
	level:  InfoLevel,
	format: "text",
	output: os.Stderr,
	fields: make(map[string]interface{}),
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
