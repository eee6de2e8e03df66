package events

import (
	"encoding/json"
	"time"
)

// Envelope is the shared event shape used across Showrunner services.
// Outbox rows persist a marshalled Envelope; the relay republishes it as-is.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	SourceService    string          `json:"source_service"`
	OccurredAt       time.Time       `json:"occurred_at"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}
