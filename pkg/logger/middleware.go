package logger

import (
	"context"

	"github.com/google/uuid"
)

// correlationIDKey marks the context storage slot for the correlation identifier.
type correlationIDKey struct{}

// CorrelationIDFromContext returns the correlation identifier stored in ctx, or an empty string when absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}

	return ""
}

// WithCorrelationID stores id in ctx. An empty id generates a fresh one.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		id = NewCorrelationID()
	}

	return context.WithValue(ctx, correlationIDKey{}, id)
}

// NewCorrelationID returns a random identifier for one incoming update.
func NewCorrelationID() string {
	return uuid.NewString()
}
