package kernel

import "context"

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// CorrelationContextKey stores the per-request CorrelationID.
	CorrelationContextKey ContextKey = "correlation_id"
)

// WithCorrelationID returns a child context carrying the correlation ID.
func WithCorrelationID(ctx context.Context, id CorrelationID) context.Context {
	return context.WithValue(ctx, CorrelationContextKey, id)
}

// CorrelationFromContext extracts the correlation ID, empty if absent.
func CorrelationFromContext(ctx context.Context) CorrelationID {
	if id, ok := ctx.Value(CorrelationContextKey).(CorrelationID); ok {
		return id
	}
	return ""
}
