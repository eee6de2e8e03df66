package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "showrunner/contexts/production/series-production/application"
	"showrunner/contexts/production/series-production/application/commands"
	"showrunner/contexts/production/series-production/ports"
	"showrunner/internal/shared/events"
)

const (
	scriptSelectedTopic = "script.selected"
	defaultProductionCG = "series-production-script-cg"
)

// ScriptSelectedConsumer reacts to winning scripts by dispatching a full
// production run. Dedup makes at-least-once delivery safe on top of the
// dispatcher's own per-script idempotency.
type ScriptSelectedConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Dispatcher    commands.DispatcherUseCase
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

// Start subscribes series production to script selection events.
func (c ScriptSelectedConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultProductionCG
	}
	if err := c.Subscriber.Subscribe(ctx, scriptSelectedTopic, group, c.handleScriptSelected); err != nil {
		logger.Error("script selected consumer subscribe failed",
			"event", "production_consumer_subscribe_failed",
			"module", "production/series-production",
			"layer", "worker",
			"topic", scriptSelectedTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("script selected consumer active",
		"event", "production_consumer_started",
		"module", "production/series-production",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c ScriptSelectedConsumer) handleScriptSelected(ctx context.Context, event events.Envelope) error {
	logger := application.ResolveLogger(c.Logger)
	if alreadyProcessed, err := c.reserveEvent(ctx, event); err != nil {
		return err
	} else if alreadyProcessed {
		logger.Debug("script.selected replay skipped",
			"event", "production_script_selected_replayed",
			"module", "production/series-production",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload struct {
		ScriptID string `json:"script_id"`
		GroupID  string `json:"group_id"`
		Title    string `json:"title"`
		Plan     struct {
			Beats []struct {
				EpisodeNumber   int    `json:"episode_number"`
				Beat            string `json:"beat"`
				SceneDirection  string `json:"scene_direction"`
				CameraDirection string `json:"camera_direction"`
				NarrationText   string `json:"narration_text"`
			} `json:"beats"`
		} `json:"plan"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("script.selected payload decode failed",
			"event", "production_script_selected_decode_failed",
			"module", "production/series-production",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	plan := make([]commands.SeriesPlanInput, 0, len(payload.Plan.Beats))
	for _, beat := range payload.Plan.Beats {
		plan = append(plan, commands.SeriesPlanInput{
			EpisodeNumber:   beat.EpisodeNumber,
			Beat:            beat.Beat,
			SceneDirection:  beat.SceneDirection,
			CameraDirection: beat.CameraDirection,
			NarrationText:   beat.NarrationText,
		})
	}

	result, err := c.Dispatcher.EnqueueSeries(ctx, commands.EnqueueSeriesCommand{
		ScriptID: payload.ScriptID,
		GroupID:  payload.GroupID,
		Title:    payload.Title,
		Plan:     plan,
	})
	if err != nil {
		logger.Error("script.selected dispatch failed",
			"event", "production_script_selected_dispatch_failed",
			"module", "production/series-production",
			"layer", "worker",
			"event_id", event.EventID,
			"script_id", payload.ScriptID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("script.selected consumed",
		"event", "production_script_selected_consumed",
		"module", "production/series-production",
		"layer", "worker",
		"event_id", event.EventID,
		"script_id", payload.ScriptID,
		"series_id", result.Series.SeriesID,
		"replayed", result.Replayed,
	)
	return nil
}

func (c ScriptSelectedConsumer) reserveEvent(ctx context.Context, event events.Envelope) (bool, error) {
	logger := application.ResolveLogger(c.Logger)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
	if err != nil {
		logger.Error("script selected event dedupe failed",
			"event", "production_event_dedupe_failed",
			"module", "production/series-production",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return false, err
	}
	return alreadyProcessed, nil
}

func (c ScriptSelectedConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (c ScriptSelectedConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}
