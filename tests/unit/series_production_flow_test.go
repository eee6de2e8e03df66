package unit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	seriesproduction "showrunner/contexts/production/series-production"
	"showrunner/contexts/production/series-production/application/commands"
	"showrunner/contexts/production/series-production/domain/entities"
	httptransport "showrunner/contexts/production/series-production/transport/http"
	"showrunner/internal/shared/events"
)

func fiveEntryPlan() []httptransport.SeriesPlanEntry {
	plan := make([]httptransport.SeriesPlanEntry, 0, 5)
	for number := 1; number <= 5; number++ {
		plan = append(plan, httptransport.SeriesPlanEntry{
			EpisodeNumber: number,
			Beat:          "beat",
			NarrationText: "narration",
		})
	}
	return plan
}

func TestSeriesProductionEndToEnd(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	publisher := &capturingPublisher{}
	subscriber := &capturingSubscriber{}
	module := seriesproduction.NewInMemoryModule(
		stubVideo{},
		stubNarration{},
		newStubObjectStore(),
		stubDownloader{dir: t.TempDir()},
		stubMuxer{},
		publisher,
		subscriber,
		nil,
	)
	module.Store.SetNow(base)
	ctx := context.Background()

	enqueued, err := module.Handler.EnqueueSeriesHandler(ctx, httptransport.EnqueueSeriesRequest{
		ScriptID: "script-1",
		GroupID:  "group-1",
		Title:    "Tidewatch",
		Plan:     fiveEntryPlan(),
	})
	if err != nil {
		t.Fatalf("enqueue series failed: %v", err)
	}
	if enqueued.Replayed || enqueued.JobsEnqueued != 5 {
		t.Fatalf("expected five fresh jobs, got %+v", enqueued)
	}
	seriesID := enqueued.Series.SeriesID

	if err := module.QueueDrain.RunOnce(ctx); err != nil {
		t.Fatalf("queue drain failed: %v", err)
	}

	detail, err := module.Handler.SeriesDetailHandler(ctx, seriesID)
	if err != nil {
		t.Fatalf("series detail failed: %v", err)
	}
	var pilotID string
	for _, episode := range detail.Episodes {
		if episode.EpisodeNumber == 1 {
			pilotID = episode.EpisodeID
			if episode.Status != string(entities.EpisodeStatusClipVoting) {
				t.Fatalf("expected pilot in clip voting, got %s", episode.Status)
			}
		} else if episode.Status != string(entities.EpisodeStatusClipSelected) {
			t.Fatalf("expected episode %d selected, got %s", episode.EpisodeNumber, episode.Status)
		}
	}
	if pilotID == "" {
		t.Fatalf("pilot episode missing from detail")
	}

	clips, err := module.Handler.ClipStandingsHandler(ctx, pilotID)
	if err != nil {
		t.Fatalf("clip standings failed: %v", err)
	}
	if len(clips.Variants) != entities.PilotVariantCount {
		t.Fatalf("expected four pilot variants, got %d", len(clips.Variants))
	}

	voted, err := module.Handler.CastClipVoteHandler(ctx, clips.Variants[1].VariantID, "viewer-1", httptransport.CastClipVoteRequest{VoterKind: "user"})
	if err != nil {
		t.Fatalf("clip vote failed: %v", err)
	}
	if voted.Variant.VoteCount != 1 {
		t.Fatalf("expected one vote, got %d", voted.Variant.VoteCount)
	}

	module.Store.SetNow(base.Add(25 * time.Hour))
	if err := module.ClipWindows.RunOnce(ctx); err != nil {
		t.Fatalf("clip window close failed: %v", err)
	}

	detail, err = module.Handler.SeriesDetailHandler(ctx, seriesID)
	if err != nil {
		t.Fatalf("series detail after close failed: %v", err)
	}
	if detail.Series.Status != string(entities.SeriesStatusCompleted) || detail.Series.EpisodeCount != 5 {
		t.Fatalf("expected completed series with five episodes, got %+v", detail.Series)
	}
	for _, episode := range detail.Episodes {
		if episode.Status != string(entities.EpisodeStatusClipSelected) || episode.FinalVideoURL == "" {
			t.Fatalf("expected playable episode %d, got %+v", episode.EpisodeNumber, episode)
		}
	}
	pilotFinal := ""
	for _, episode := range detail.Episodes {
		if episode.EpisodeID == pilotID {
			pilotFinal = episode.FinalVideoURL
		}
	}
	if !strings.Contains(pilotFinal, "episodes/"+pilotID+"/final") {
		t.Fatalf("expected muxed pilot at the final key, got %q", pilotFinal)
	}

	if err := module.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("outbox relay failed: %v", err)
	}
	seen := map[string]int{}
	for _, topic := range publisher.topics() {
		seen[topic]++
	}
	if seen[commands.TopicSeriesQueued] != 1 || seen[commands.TopicClipWindowClosed] != 1 || seen[commands.TopicSeriesCompleted] != 1 {
		t.Fatalf("expected queued, window closed and completed events, got %v", seen)
	}
}

func TestScriptSelectedDeliveryDrivesProduction(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	publisher := &capturingPublisher{}
	subscriber := &capturingSubscriber{}
	module := seriesproduction.NewInMemoryModule(
		stubVideo{},
		stubNarration{},
		newStubObjectStore(),
		stubDownloader{dir: t.TempDir()},
		stubMuxer{},
		publisher,
		subscriber,
		nil,
	)
	module.Store.SetNow(base)
	ctx := context.Background()

	if err := module.Consumer.Start(ctx); err != nil {
		t.Fatalf("consumer start failed: %v", err)
	}
	if subscriber.handler == nil {
		t.Fatalf("expected consumer subscription")
	}

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
	envelope := events.Envelope{
		EventID:       "event-1",
		EventType:     "script.selected",
		SourceService: "script-voting",
		OccurredAt:    base,
		SchemaVersion: 1,
		PartitionKey:  "script-1",
		Data:          data,
	}
	if err := subscriber.handler(ctx, envelope); err != nil {
		t.Fatalf("delivery failed: %v", err)
	}
	series, found, err := module.Store.GetSeriesByScript(ctx, "script-1")
	if err != nil || !found {
		t.Fatalf("expected series from consumed event, found=%v err=%v", found, err)
	}
	jobs, err := module.Store.ListJobsBySeries(ctx, series.SeriesID)
	if err != nil {
		t.Fatalf("list jobs failed: %v", err)
	}
	if len(jobs) != 5 {
		t.Fatalf("expected five jobs, got %d", len(jobs))
	}
}
