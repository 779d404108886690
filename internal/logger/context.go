package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from the context.
// Returns zap.NewNop() if no logger is found.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// ForUpdate derives a per-update logger and stores it in the context.
func ForUpdate(ctx context.Context, base *zap.Logger, updateID int, userID int64) context.Context {
	l := base.With(zap.Int("update_id", updateID), zap.Int64("user_id", userID))
	return ContextWithLogger(ctx, l)
}
