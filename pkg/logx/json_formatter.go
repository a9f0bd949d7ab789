package logx

import (
	"encoding/json"
	"time"
)

// JSONFormatter renders one flat JSON object per line: level, message,
// timestamp, plus the entry's fields at the top level. Trace events rely on
// the flat layout so correlation_id is directly filterable.
type JSONFormatter struct {
	config *Config
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(config *Config) *JSONFormatter {
	return &JSONFormatter{config: config}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]interface{})

	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	if f.config.EnableTimestamp {
		data["timestamp"] = entry.Timestamp.Format(time.RFC3339Nano)
	}

	for k, v := range entry.Fields {
		data[k] = v
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return append(bytes, '\n'), nil
}
