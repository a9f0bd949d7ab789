package auditinfra

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/libromesh/identity/pkg/audit"
	"github.com/libromesh/identity/pkg/logx"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id             BIGSERIAL PRIMARY KEY,
	action         TEXT        NOT NULL,
	subject        TEXT        NOT NULL DEFAULT '',
	user_id        TEXT        NOT NULL DEFAULT '',
	correlation_id TEXT        NOT NULL,
	success        BOOLEAN     NOT NULL,
	error_code     TEXT        NOT NULL DEFAULT '',
	at             TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_user_id ON audit_events (user_id);
CREATE INDEX IF NOT EXISTS idx_audit_events_at ON audit_events (at);`

// PostgresRecorder implements audit.Recorder on a Postgres table. Insert
// failures are logged and swallowed so the mutation they describe still
// succeeds.
type PostgresRecorder struct {
	db *sqlx.DB
}

func NewPostgresRecorder(db *sqlx.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// EnsureSchema creates the audit table when it does not exist yet.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, auditSchema)
	return err
}

func (r *PostgresRecorder) Record(ctx context.Context, e audit.Event) {
	query := `
		INSERT INTO audit_events (
			action, subject, user_id, correlation_id, success, error_code, at
		) VALUES (
			:action, :subject, :user_id, :correlation_id, :success, :error_code, :at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		logx.WithFields(logx.Fields{
			"audit_event":    e.Action,
			"correlation_id": e.CorrelationID.String(),
		}).Errorf("Failed to persist audit event: %v", err)
	}
}
