package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"showrunner/contexts/production/series-production/application/commands"
	"showrunner/contexts/production/series-production/domain/entities"
	domainerrors "showrunner/contexts/production/series-production/domain/errors"
)

func TestEnqueueSeriesCreatesFullRun(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	fixture := newProductionFixture(t, base)

	result := fixture.enqueue(t, "script-1")
	if result.Replayed {
		t.Fatalf("expected fresh enqueue, got replay")
	}
	if result.JobsEnqueued != entities.EpisodesPerSeries {
		t.Fatalf("expected five jobs, got %d", result.JobsEnqueued)
	}
	if result.Series.Status != entities.SeriesStatusProducing {
		t.Fatalf("expected producing series, got %s", result.Series.Status)
	}

	episodes, err := fixture.store.ListEpisodesBySeries(context.Background(), result.Series.SeriesID)
	if err != nil {
		t.Fatalf("list episodes failed: %v", err)
	}
	if len(episodes) != entities.EpisodesPerSeries {
		t.Fatalf("expected five episodes, got %d", len(episodes))
	}

	jobs, err := fixture.store.ListJobsBySeries(context.Background(), result.Series.SeriesID)
	if err != nil {
		t.Fatalf("list jobs failed: %v", err)
	}
	pilotJobs := 0
	for _, job := range jobs {
		switch job.Type {
		case entities.JobTypePilotVariants:
			pilotJobs++
			if job.Priority != 10 {
				t.Fatalf("expected pilot priority 10, got %d", job.Priority)
			}
		case entities.JobTypeEpisodeSingle:
			if job.Priority != 0 {
				t.Fatalf("expected zero priority for episode job, got %d", job.Priority)
			}
		}
		if job.Status != entities.JobStatusPending {
			t.Fatalf("expected pending job, got %s", job.Status)
		}
	}
	if pilotJobs != 1 {
		t.Fatalf("expected exactly one pilot job, got %d", pilotJobs)
	}

	pending, err := fixture.store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != commands.TopicSeriesQueued {
		t.Fatalf("expected one series.queued outbox row, got %d", len(pending))
	}
}

func TestEnqueueSeriesReplayIsNoOp(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	fixture := newProductionFixture(t, base)

	first := fixture.enqueue(t, "script-1")
	second := fixture.enqueue(t, "script-1")
	if !second.Replayed {
		t.Fatalf("expected replayed enqueue")
	}
	if second.Series.SeriesID != first.Series.SeriesID {
		t.Fatalf("expected the existing series, got %s", second.Series.SeriesID)
	}
	if second.JobsEnqueued != 0 {
		t.Fatalf("expected no new jobs on replay, got %d", second.JobsEnqueued)
	}

	jobs, err := fixture.store.ListJobsBySeries(context.Background(), first.Series.SeriesID)
	if err != nil {
		t.Fatalf("list jobs failed: %v", err)
	}
	if len(jobs) != entities.EpisodesPerSeries {
		t.Fatalf("expected job count unchanged, got %d", len(jobs))
	}
}

func TestEnqueueSeriesValidatesPlan(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	fixture := newProductionFixture(t, base)

	short := fivePlan()[:4]
	_, err := fixture.dispatcher.EnqueueSeries(context.Background(), commands.EnqueueSeriesCommand{
		ScriptID: "script-1", GroupID: "group-1", Title: "Tidewatch", Plan: short,
	})
	if !errors.Is(err, domainerrors.ErrInvalidEnqueueInput) {
		t.Fatalf("expected invalid input for short plan, got %v", err)
	}

	misnumbered := fivePlan()
	misnumbered[2].EpisodeNumber = 9
	_, err = fixture.dispatcher.EnqueueSeries(context.Background(), commands.EnqueueSeriesCommand{
		ScriptID: "script-1", GroupID: "group-1", Title: "Tidewatch", Plan: misnumbered,
	})
	if !errors.Is(err, domainerrors.ErrInvalidEnqueueInput) {
		t.Fatalf("expected invalid input for misnumbered plan, got %v", err)
	}

	blank := fivePlan()
	blank[0].Beat = "   "
	_, err = fixture.dispatcher.EnqueueSeries(context.Background(), commands.EnqueueSeriesCommand{
		ScriptID: "script-1", GroupID: "group-1", Title: "Tidewatch", Plan: blank,
	})
	if !errors.Is(err, domainerrors.ErrInvalidEnqueueInput) {
		t.Fatalf("expected invalid input for blank beat, got %v", err)
	}

	_, err = fixture.dispatcher.EnqueueSeries(context.Background(), commands.EnqueueSeriesCommand{
		ScriptID: "  ", GroupID: "group-1", Title: "Tidewatch", Plan: fivePlan(),
	})
	if !errors.Is(err, domainerrors.ErrInvalidEnqueueInput) {
		t.Fatalf("expected invalid input for blank script id, got %v", err)
	}
}
