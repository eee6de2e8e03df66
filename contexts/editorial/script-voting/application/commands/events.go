package commands

import (
	"encoding/json"
	"time"

	"showrunner/internal/shared/events"
)

const (
	TopicScriptSelected = "script.selected"
	TopicScriptRejected = "script.rejected"
	TopicPeriodClosed   = "voting_period.closed"
)

func newVotingEnvelope(
	eventID string,
	eventType string,
	scriptID string,
	occurredAt time.Time,
	data map[string]any,
) (events.Envelope, error) {
	// Command-side events are partitioned by script for stable ordering on
	// script-scoped consumers.
	payload, err := json.Marshal(data)
	if err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "script-voting",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "script_id",
		PartitionKey:     scriptID,
		Data:             payload,
	}, nil
}
