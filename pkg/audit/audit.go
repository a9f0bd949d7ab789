// Package audit records admin mutations on the identity directory. Recording
// is best-effort: a recorder failure never fails the operation it describes.
package audit

import (
	"context"
	"time"

	"github.com/libromesh/identity/pkg/kernel"
)

// Event is one recorded admin mutation.
type Event struct {
	Action        string               `json:"action" db:"action"`
	Subject       string               `json:"subject" db:"subject"`
	UserID        kernel.UserID        `json:"user_id" db:"user_id"`
	CorrelationID kernel.CorrelationID `json:"correlation_id" db:"correlation_id"`
	Success       bool                 `json:"success" db:"success"`
	ErrorCode     string               `json:"error_code" db:"error_code"`
	At            time.Time            `json:"at" db:"at"`
}

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// Succeeded builds a success event stamped with the current time.
func Succeeded(action, subject string, userID kernel.UserID, correlationID kernel.CorrelationID) Event {
	return Event{
		Action:        action,
		Subject:       subject,
		UserID:        userID,
		CorrelationID: correlationID,
		Success:       true,
		At:            time.Now(),
	}
}

// Failed builds a failure event carrying the normalized error code.
func Failed(action, subject string, correlationID kernel.CorrelationID, errorCode string) Event {
	return Event{
		Action:        action,
		Subject:       subject,
		CorrelationID: correlationID,
		Success:       false,
		ErrorCode:     errorCode,
		At:            time.Now(),
	}
}
