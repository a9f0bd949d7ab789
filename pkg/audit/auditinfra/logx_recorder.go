package auditinfra

import (
	"context"

	"github.com/libromesh/identity/pkg/audit"
	"github.com/libromesh/identity/pkg/logx"
)

// LogxRecorder implements audit.Recorder using structured logx logging.
type LogxRecorder struct{}

func NewLogxRecorder() *LogxRecorder {
	return &LogxRecorder{}
}

func (r *LogxRecorder) Record(_ context.Context, e audit.Event) {
	entry := logx.WithFields(logx.Fields{
		"audit_event":    e.Action,
		"subject":        e.Subject,
		"correlation_id": e.CorrelationID.String(),
		"success":        e.Success,
		"timestamp":      e.At,
	})
	if !e.UserID.IsEmpty() {
		entry = entry.WithField("user_id", e.UserID.String())
	}
	if e.ErrorCode != "" {
		entry = entry.WithField("error_code", e.ErrorCode)
	}
	entry.Infof("Audit: %s", e.Action)
}
