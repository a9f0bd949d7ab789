package tracex_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/kernel"
	"github.com/libromesh/identity/pkg/logx"
	"github.com/libromesh/identity/pkg/tracex"
)

// captureLogs swaps the default logger for a JSON logger writing into a
// buffer, and restores the previous logger on cleanup.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	buf := &bytes.Buffer{}
	lg := logx.NewLogger(&logx.Config{
		Level:  logx.LevelDebug,
		Format: logx.FormatJSON,
	})
	lg.SetOutput(buf)

	prev := logx.GetDefaultLogger()
	logx.SetDefaultLogger(lg)
	t.Cleanup(func() { logx.SetDefaultLogger(prev) })

	return buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", raw, err)
		}
		lines = append(lines, m)
	}
	return lines
}

func TestExecute_Success(t *testing.T) {
	buf := captureLogs(t)

	var seenCtx context.Context
	value, cid, xerr := tracex.Execute(context.Background(), "auth.login", "margaret",
		func(ctx context.Context) (string, error) {
			seenCtx = ctx
			return "ok", nil
		})

	if xerr != nil {
		t.Fatalf("expected success, got %v", xerr)
	}
	if value != "ok" {
		t.Fatalf("expected value to pass through, got %q", value)
	}
	if cid.IsEmpty() {
		t.Fatal("expected a correlation ID")
	}
	if got := kernel.CorrelationFromContext(seenCtx); got != cid {
		t.Fatalf("context correlation ID %q != returned %q", got, cid)
	}

	lines := logLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected exactly one start and one terminal event, got %d lines", len(lines))
	}

	start, terminal := lines[0], lines[1]
	if start["level"] != "INFO" || terminal["level"] != "INFO" {
		t.Fatalf("unexpected levels: %v / %v", start["level"], terminal["level"])
	}
	if start["correlation_id"] != cid.String() || terminal["correlation_id"] != cid.String() {
		t.Fatalf("events do not share the returned correlation ID: %v / %v", start["correlation_id"], terminal["correlation_id"])
	}
	if start["method"] != "auth.login" || terminal["method"] != "auth.login" {
		t.Fatalf("unexpected method fields: %v / %v", start["method"], terminal["method"])
	}
	if start["subject"] != "margaret" {
		t.Fatalf("expected subject on start event, got %v", start["subject"])
	}
	if terminal["status"] != "success" {
		t.Fatalf("expected success terminal event, got %v", terminal["status"])
	}
	if _, ok := terminal["duration_ms"]; !ok {
		t.Fatal("terminal event missing duration_ms")
	}
}

func TestExecute_Failure(t *testing.T) {
	buf := captureLogs(t)

	fail := &errx.Error{
		Code:       "AUTH_FAILED",
		Message:    "Invalid username or password",
		Type:       errx.TypeAuthorization,
		HTTPStatus: 401,
		Details:    map[string]interface{}{"idp_status": 401},
	}

	_, cid, xerr := tracex.Execute(context.Background(), "auth.login", "margaret",
		func(ctx context.Context) (string, error) {
			return "", fail
		})

	if xerr == nil {
		t.Fatal("expected error to surface")
	}
	if xerr != fail {
		t.Fatalf("tracing must not replace the error: got %v", xerr)
	}

	lines := logLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected exactly two events, got %d", len(lines))
	}

	terminal := lines[1]
	if terminal["level"] != "ERROR" {
		t.Fatalf("expected ERROR terminal event, got %v", terminal["level"])
	}
	if terminal["status"] != "error" {
		t.Fatalf("expected error status, got %v", terminal["status"])
	}
	if terminal["error_code"] != "AUTH_FAILED" {
		t.Fatalf("expected normalized code in terminal event, got %v", terminal["error_code"])
	}
	if terminal["correlation_id"] != cid.String() {
		t.Fatalf("terminal event correlation ID %v != returned %q", terminal["correlation_id"], cid)
	}
	if terminal["details"] == nil {
		t.Fatal("provider details should land in the failure event")
	}
}

func TestExecute_CorrelationIDsAreUnique(t *testing.T) {
	captureLogs(t)

	run := func() kernel.CorrelationID {
		_, cid, _ := tracex.Execute(context.Background(), "role.list_all", "",
			func(ctx context.Context) (int, error) { return 0, nil })
		return cid
	}

	if run() == run() {
		t.Fatal("expected a fresh correlation ID per operation")
	}
}

func TestNormalize(t *testing.T) {
	xerr := &errx.Error{Code: "USER_NOT_FOUND", Message: "nope", HTTPStatus: 404}
	if got := tracex.Normalize(xerr); got != xerr {
		t.Fatalf("errx errors must pass through unchanged, got %v", got)
	}

	plain := errors.New("connection reset")
	got := tracex.Normalize(plain)
	if got.Code != "SYSTEM_INTERNAL" {
		t.Fatalf("expected SYSTEM_INTERNAL, got %s", got.Code)
	}
	if got.Type != errx.TypeInternal {
		t.Fatalf("expected internal type, got %v", got.Type)
	}
	if strings.Contains(got.Message, "connection reset") {
		t.Fatalf("raw cause must not leak into the message: %q", got.Message)
	}
	if !errx.Is(got, plain) {
		t.Fatal("expected cause to be wrapped, not dropped")
	}
}
