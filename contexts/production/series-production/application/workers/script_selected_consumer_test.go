package workers_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"showrunner/contexts/production/series-production/adapters/memory"
	"showrunner/contexts/production/series-production/application/commands"
	"showrunner/contexts/production/series-production/application/workers"
	"showrunner/internal/shared/events"
)

// fakeSubscriber captures the registered handler so tests can deliver
// envelopes synchronously.
type fakeSubscriber struct {
	topic   string
	group   string
	handler func(context.Context, events.Envelope) error
}

func (f *fakeSubscriber) Subscribe(_ context.Context, topic string, consumerGroup string, handler func(context.Context, events.Envelope) error) error {
	f.topic = topic
	f.group = consumerGroup
	f.handler = handler
	return nil
}

func scriptSelectedEnvelope(t *testing.T, eventID string) events.Envelope {
	t.Helper()
	beats := make([]map[string]any, 0, 5)
	for number := 1; number <= 5; number++ {
		beats = append(beats, map[string]any{
			"episode_number": number,
			"beat":           "beat",
			"narration_text": "narration",
		})
	}
	data, err := json.Marshal(map[string]any{
		"script_id": "script-1",
		"group_id":  "group-1",
		"title":     "Tidewatch",
		"plan":      map[string]any{"beats": beats},
	})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return events.Envelope{
		EventID:       eventID,
		EventType:     "script.selected",
		SourceService: "script-voting",
		OccurredAt:    time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC),
		SchemaVersion: 1,
		PartitionKey:  "script-1",
		Data:          data,
	}
}

func TestScriptSelectedConsumerDispatchesOnce(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SetNow(base)
	subscriber := &fakeSubscriber{}

	consumer := workers.ScriptSelectedConsumer{
		Subscriber: subscriber,
		Dedup:      store,
		Dispatcher: commands.DispatcherUseCase{
			Series:   store,
			Episodes: store,
			Jobs:     store,
			Outbox:   store,
			Clock:    store,
			IDGen:    store,
		},
		Clock: store,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("consumer start failed: %v", err)
	}
	if subscriber.topic != "script.selected" || subscriber.handler == nil {
		t.Fatalf("expected subscription on script.selected, got %q", subscriber.topic)
	}

	envelope := scriptSelectedEnvelope(t, "event-1")
	if err := subscriber.handler(context.Background(), envelope); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	series, found, err := store.GetSeriesByScript(context.Background(), "script-1")
	if err != nil || !found {
		t.Fatalf("expected series dispatched, found=%v err=%v", found, err)
	}

	// At-least-once redelivery of the same event must not touch the queue.
	if err := subscriber.handler(context.Background(), envelope); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	jobs, err := store.ListJobsBySeries(context.Background(), series.SeriesID)
	if err != nil {
		t.Fatalf("list jobs failed: %v", err)
	}
	if len(jobs) != 5 {
		t.Fatalf("expected five jobs after replay, got %d", len(jobs))
	}
}

func TestScriptSelectedConsumerDedupsDistinctDeliveryIDs(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SetNow(base)
	subscriber := &fakeSubscriber{}

	consumer := workers.ScriptSelectedConsumer{
		Subscriber: subscriber,
		Dedup:      store,
		Dispatcher: commands.DispatcherUseCase{
			Series:   store,
			Episodes: store,
			Jobs:     store,
			Outbox:   store,
			Clock:    store,
			IDGen:    store,
		},
		Clock: store,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("consumer start failed: %v", err)
	}

	// A publisher retry under a fresh event id still lands on the
	// dispatcher's per-script idempotency.
	if err := subscriber.handler(context.Background(), scriptSelectedEnvelope(t, "event-1")); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := subscriber.handler(context.Background(), scriptSelectedEnvelope(t, "event-2")); err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}
	series, _, err := store.GetSeriesByScript(context.Background(), "script-1")
	if err != nil {
		t.Fatalf("get series failed: %v", err)
	}
	jobs, err := store.ListJobsBySeries(context.Background(), series.SeriesID)
	if err != nil {
		t.Fatalf("list jobs failed: %v", err)
	}
	if len(jobs) != 5 {
		t.Fatalf("expected a single production run, got %d jobs", len(jobs))
	}
}
