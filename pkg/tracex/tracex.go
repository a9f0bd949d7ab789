// Package tracex wraps broker operations with a correlation ID, elapsed-time
// measurement, and structured start/terminal log events. Tracing observes —
// it never alters the result or error of the wrapped operation.
package tracex

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/kernel"
	"github.com/libromesh/identity/pkg/logx"
)

// Operation is one in-flight traced call. It exists only for the duration of
// the request and is never persisted.
type Operation struct {
	Name          string
	Subject       string
	CorrelationID kernel.CorrelationID
	start         time.Time
}

// Start opens a traced operation: generates a fresh correlation ID and emits
// the start event. Subject may be empty when no username/user ID is known yet.
func Start(name, subject string) *Operation {
	op := &Operation{
		Name:          name,
		Subject:       subject,
		CorrelationID: kernel.CorrelationID(uuid.NewString()),
		start:         time.Now(),
	}

	entry := logx.WithFields(logx.Fields{
		"correlation_id": op.CorrelationID.String(),
		"method":         op.Name,
	})
	if op.Subject != "" {
		entry = entry.WithField("subject", op.Subject)
	}
	entry.Infof("%s started", op.Name)

	return op
}

// Context derives a child context carrying the correlation ID.
func (op *Operation) Context(ctx context.Context) context.Context {
	return kernel.WithCorrelationID(ctx, op.CorrelationID)
}

// ElapsedMillis returns the time since Start in milliseconds.
func (op *Operation) ElapsedMillis() int64 {
	return time.Since(op.start).Milliseconds()
}

// Succeed emits the terminal success event.
func (op *Operation) Succeed() {
	entry := logx.WithFields(logx.Fields{
		"correlation_id": op.CorrelationID.String(),
		"method":         op.Name,
		"status":         "success",
		"duration_ms":    op.ElapsedMillis(),
	})
	if op.Subject != "" {
		entry = entry.WithField("subject", op.Subject)
	}
	entry.Infof("%s successful", op.Name)
}

// Fail emits the terminal failure event with the normalized error code. The
// original provider status/body, when present in err.Details, lands here and
// nowhere else.
func (op *Operation) Fail(err *errx.Error) {
	entry := logx.WithFields(logx.Fields{
		"correlation_id": op.CorrelationID.String(),
		"method":         op.Name,
		"status":         "error",
		"error_code":     err.Code,
		"error_message":  err.Message,
		"duration_ms":    op.ElapsedMillis(),
	})
	if op.Subject != "" {
		entry = entry.WithField("subject", op.Subject)
	}
	if len(err.Details) > 0 {
		entry = entry.WithField("details", err.Details)
	}
	if err.Err != nil {
		entry = entry.WithField("cause", err.Err.Error())
	}
	entry.Errorf("%s failed", op.Name)
}

// Execute runs fn under a traced operation. Exactly one start event and one
// terminal event are logged, sharing the correlation ID that is also returned
// to the caller for the response envelope. Non-errx errors are normalized to
// an internal error with a generic message.
func Execute[T any](ctx context.Context, name, subject string, fn func(context.Context) (T, error)) (T, kernel.CorrelationID, *errx.Error) {
	op := Start(name, subject)

	value, err := fn(op.Context(ctx))
	if err != nil {
		xerr := Normalize(err)
		op.Fail(xerr)
		var zero T
		return zero, op.CorrelationID, xerr
	}

	op.Succeed()
	return value, op.CorrelationID, nil
}

// Normalize coerces any error into an *errx.Error, defaulting to a generic
// internal error so provider internals never leak outward.
func Normalize(err error) *errx.Error {
	var xerr *errx.Error
	if errx.As(err, &xerr) {
		return xerr
	}
	norm := errx.Wrap(err, "An internal error occurred", errx.TypeInternal)
	norm.Code = "SYSTEM_INTERNAL"
	return norm
}
