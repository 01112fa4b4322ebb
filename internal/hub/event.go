package hub

import "time"

// Event is one change notification pushed to display clients. The hub
// stamps the version and timestamp; it never inspects Data.
type Event struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
	Version   int64          `json:"version"`
}

// timestampLayout is the field-format layout used across API payloads.
const timestampLayout = "2006-01-02T15:04:05"

// Timestamp returns the current wall-clock time in field format.
func Timestamp() string {
	return time.Now().Format(timestampLayout)
}
