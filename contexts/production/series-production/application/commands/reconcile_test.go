package commands_test

import (
	"context"
	"testing"
	"time"

	"showrunner/contexts/production/series-production/application/commands"
	"showrunner/contexts/production/series-production/domain/entities"
)

func TestReconcileCompletesSeriesExactlyOnce(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	fixture := newProductionFixture(t, base)
	result := fixture.enqueue(t, "script-1")

	if err := fixture.worker.ProcessQueuedJobs(context.Background(), 10, time.Minute); err != nil {
		t.Fatalf("drain queue failed: %v", err)
	}
	pilot := fixture.episodeByNumber(t, result.Series.SeriesID, 1)
	variants, err := fixture.store.ListVariantsByEpisode(context.Background(), pilot.EpisodeID)
	if err != nil {
		t.Fatalf("list variants failed: %v", err)
	}
	castClip(t, fixture, variants[0].VariantID, "voter-1")

	fixture.store.SetNow(base.Add(25 * time.Hour))
	if err := fixture.ballots.CloseDueClipWindows(context.Background()); err != nil {
		t.Fatalf("close clip windows failed: %v", err)
	}

	series, err := fixture.store.GetSeries(context.Background(), result.Series.SeriesID)
	if err != nil {
		t.Fatalf("get series failed: %v", err)
	}
	if series.Status != entities.SeriesStatusCompleted {
		t.Fatalf("expected completed series with five playable episodes, got %s", series.Status)
	}
	if series.CompletedAt == nil || series.EpisodeCount != entities.EpisodesPerSeries {
		t.Fatalf("expected completion stamp and full episode count, got %+v", series)
	}
	completedAt := *series.CompletedAt

	// A later reconcile pass must not move the completion stamp or re-emit.
	fixture.store.SetNow(base.Add(48 * time.Hour))
	if err := fixture.reconciler.Reconcile(context.Background(), result.Series.SeriesID); err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	series, err = fixture.store.GetSeries(context.Background(), result.Series.SeriesID)
	if err != nil {
		t.Fatalf("reload series failed: %v", err)
	}
	if series.CompletedAt == nil || !series.CompletedAt.Equal(completedAt) {
		t.Fatalf("expected completion stamp unchanged, got %v", series.CompletedAt)
	}

	pending, err := fixture.store.ListPendingOutbox(context.Background(), 50)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	completedEvents := 0
	for _, message := range pending {
		if message.EventType == commands.TopicSeriesCompleted {
			completedEvents++
		}
	}
	if completedEvents != 1 {
		t.Fatalf("expected exactly one series.completed event, got %d", completedEvents)
	}
}

func TestReconcileFailedSeriesStaysFailed(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	fixture := newProductionFixture(t, base)
	result := fixture.enqueue(t, "script-1")

	if err := fixture.worker.ProcessQueuedJobs(context.Background(), 10, time.Minute); err != nil {
		t.Fatalf("drain queue failed: %v", err)
	}
	if err := fixture.store.UpdateSeriesStatus(context.Background(), result.Series.SeriesID, entities.SeriesStatusFailed, 0, nil, base); err != nil {
		t.Fatalf("mark series failed: %v", err)
	}

	if err := fixture.reconciler.Reconcile(context.Background(), result.Series.SeriesID); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	series, err := fixture.store.GetSeries(context.Background(), result.Series.SeriesID)
	if err != nil {
		t.Fatalf("get series failed: %v", err)
	}
	if series.Status != entities.SeriesStatusFailed {
		t.Fatalf("expected failed series to stay failed, got %s", series.Status)
	}
}

func TestReconcileTracksPlayableCount(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	fixture := newProductionFixture(t, base)
	result := fixture.enqueue(t, "script-1")

	// Only the pilot runs; episodes 2..5 remain pending.
	if err := fixture.worker.ProcessQueuedJobs(context.Background(), 1, time.Minute); err != nil {
		t.Fatalf("pilot drain failed: %v", err)
	}
	series, err := fixture.store.GetSeries(context.Background(), result.Series.SeriesID)
	if err != nil {
		t.Fatalf("get series failed: %v", err)
	}
	if series.Status != entities.SeriesStatusProducing {
		t.Fatalf("expected producing series with no playable episodes, got %s", series.Status)
	}

	if err := fixture.worker.ProcessQueuedJobs(context.Background(), 10, time.Minute); err != nil {
		t.Fatalf("full drain failed: %v", err)
	}
	series, err = fixture.store.GetSeries(context.Background(), result.Series.SeriesID)
	if err != nil {
		t.Fatalf("reload series failed: %v", err)
	}
	if series.Status != entities.SeriesStatusActive || series.EpisodeCount != 4 {
		t.Fatalf("expected active series with four playable episodes, got %s/%d", series.Status, series.EpisodeCount)
	}
}
