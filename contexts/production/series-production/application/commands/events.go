package commands

import (
	"encoding/json"
	"time"

	"showrunner/internal/shared/events"
)

const (
	TopicSeriesQueued     = "series.queued"
	TopicSeriesCompleted  = "series.completed"
	TopicSeriesFailed     = "series.failed"
	TopicEpisodeReady     = "episode.ready"
	TopicClipWindowClosed = "clip_window.closed"
)

func newProductionEnvelope(
	eventID string,
	eventType string,
	seriesID string,
	occurredAt time.Time,
	data map[string]any,
) (events.Envelope, error) {
	// Production events are partitioned by series for stable ordering on
	// series-scoped consumers.
	payload, err := json.Marshal(data)
	if err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "series-production",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "series_id",
		PartitionKey:     seriesID,
		Data:             payload,
	}, nil
}
