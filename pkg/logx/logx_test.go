package logx_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/libromesh/identity/pkg/logx"
)

func newBufferedLogger(cfg *logx.Config) (*logx.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	lg := logx.NewLogger(cfg)
	lg.SetOutput(buf)
	return lg, buf
}

func TestJSONFormat_FlatFields(t *testing.T) {
	lg, buf := newBufferedLogger(&logx.Config{
		Level:           logx.LevelDebug,
		Format:          logx.FormatJSON,
		EnableTimestamp: true,
	})

	lg.WithFields(logx.Fields{
		"correlation_id": "cid-1",
		"method":         "auth.login",
	}).WithField("status", "success").Info("auth.login successful")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("output is not a JSON line: %q: %v", buf.String(), err)
	}

	if line["level"] != "INFO" {
		t.Fatalf("expected INFO level, got %v", line["level"])
	}
	if line["message"] != "auth.login successful" {
		t.Fatalf("unexpected message: %v", line["message"])
	}
	if line["correlation_id"] != "cid-1" || line["method"] != "auth.login" || line["status"] != "success" {
		t.Fatalf("fields must land at the top level: %v", line)
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatal("expected a timestamp")
	}
	if _, ok := line["fields"]; ok {
		t.Fatal("fields must not be nested")
	}
}

func TestLevelFiltering(t *testing.T) {
	lg, buf := newBufferedLogger(&logx.Config{
		Level:  logx.LevelWarn,
		Format: logx.FormatJSON,
	})

	lg.WithField("k", "v").Debug("dropped")
	lg.WithField("k", "v").Info("dropped")
	lg.WithField("k", "v").Warn("kept")
	lg.WithField("k", "v").Error("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines past the warn threshold, got %d: %q", len(lines), buf.String())
	}

	lg.SetLevel(logx.LevelOff)
	lg.WithField("k", "v").Error("dropped")
	if got := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(got) != 2 {
		t.Fatalf("off level must drop everything, got %d lines", len(got))
	}
}

func TestConsoleFormat_PlainLine(t *testing.T) {
	lg, buf := newBufferedLogger(&logx.Config{
		Level:        logx.LevelInfo,
		Format:       logx.FormatConsole,
		EnableColors: false,
	})

	lg.WithField("username", "margaret").Info("account registered")

	line := buf.String()
	if strings.Contains(line, "\033[") {
		t.Fatalf("colors disabled but escape codes present: %q", line)
	}
	if !strings.Contains(line, "[INFO]") {
		t.Fatalf("expected level tag: %q", line)
	}
	if !strings.Contains(line, "account registered") || !strings.Contains(line, "username=margaret") {
		t.Fatalf("message or fields missing: %q", line)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logx.Level{
		"debug":   logx.LevelDebug,
		"INFO":    logx.LevelInfo,
		"Warning": logx.LevelWarn,
		"error":   logx.LevelError,
		"off":     logx.LevelOff,
		"bogus":   logx.LevelInfo,
	}
	for in, want := range cases {
		if got := logx.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
