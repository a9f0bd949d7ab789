package logx

import (
	"time"
)

// Formatter renders a log entry into bytes.
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry is a single log record handed to a formatter.
type LogEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Timestamp time.Time
}

// Fields is the structured payload of a log entry. Trace events put their
// correlation_id, method, status and timing here.
type Fields map[string]interface{}
