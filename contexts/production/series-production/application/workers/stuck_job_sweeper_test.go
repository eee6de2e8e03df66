package workers_test

import (
	"context"
	"testing"
	"time"

	"showrunner/contexts/production/series-production/adapters/memory"
	"showrunner/contexts/production/series-production/application/workers"
	"showrunner/contexts/production/series-production/domain/entities"
)

func seedProcessingJob(t *testing.T, store *memory.Store, jobID string, attemptCount int, startedAt time.Time) {
	t.Helper()
	ctx := context.Background()
	if err := store.CreateEpisode(ctx, entities.Episode{
		EpisodeID:     "episode-" + jobID,
		SeriesID:      "series-1",
		EpisodeNumber: 1,
		Status:        entities.EpisodeStatusGenerating,
		CreatedAt:     startedAt,
		UpdatedAt:     startedAt,
	}); err != nil {
		t.Fatalf("create episode failed: %v", err)
	}
	if err := store.CreateJob(ctx, entities.ProductionJob{
		JobID:        jobID,
		SeriesID:     "series-1",
		EpisodeID:    "episode-" + jobID,
		Type:         entities.JobTypeEpisodeSingle,
		Status:       entities.JobStatusPending,
		AttemptCount: attemptCount,
		MaxAttempts:  3,
		AvailableAt:  startedAt,
		CreatedAt:    startedAt,
		UpdatedAt:    startedAt,
	}); err != nil {
		t.Fatalf("create job failed: %v", err)
	}
	won, err := store.ClaimJob(ctx, jobID, startedAt)
	if err != nil || !won {
		t.Fatalf("claim job failed: won=%v err=%v", won, err)
	}
}

func TestStuckJobSweeperRequeuesLostJob(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SetNow(base.Add(time.Hour))
	seedProcessingJob(t, store, "job-1", 0, base)

	sweeper := workers.StuckJobSweeper{Jobs: store, Episodes: store, Clock: store, Threshold: 30 * time.Minute}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	job, err := store.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job failed: %v", err)
	}
	if job.Status != entities.JobStatusPending || job.AttemptCount != 1 {
		t.Fatalf("expected requeued job at attempt 1, got %s/%d", job.Status, job.AttemptCount)
	}
	if !job.AvailableAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected job available immediately, got %v", job.AvailableAt)
	}
	episode, err := store.GetEpisode(context.Background(), "episode-job-1")
	if err != nil {
		t.Fatalf("get episode failed: %v", err)
	}
	if episode.Status != entities.EpisodeStatusPending {
		t.Fatalf("expected episode returned to pending, got %s", episode.Status)
	}
}

func TestStuckJobSweeperFailsPastAttemptBudget(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SetNow(base.Add(time.Hour))
	seedProcessingJob(t, store, "job-1", 2, base)

	sweeper := workers.StuckJobSweeper{Jobs: store, Episodes: store, Clock: store, Threshold: 30 * time.Minute}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	job, err := store.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job failed: %v", err)
	}
	if job.Status != entities.JobStatusFailed || job.AttemptCount != 3 {
		t.Fatalf("expected failed job at attempt 3, got %s/%d", job.Status, job.AttemptCount)
	}
	if job.LastError == "" {
		t.Fatalf("expected last error recorded")
	}
	episode, err := store.GetEpisode(context.Background(), "episode-job-1")
	if err != nil {
		t.Fatalf("get episode failed: %v", err)
	}
	if episode.Status != entities.EpisodeStatusFailed {
		t.Fatalf("expected failed episode, got %s", episode.Status)
	}
}

func TestStuckJobSweeperIgnoresFreshJobs(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SetNow(base.Add(10 * time.Minute))
	seedProcessingJob(t, store, "job-1", 0, base)

	sweeper := workers.StuckJobSweeper{Jobs: store, Episodes: store, Clock: store, Threshold: 30 * time.Minute}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	job, err := store.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job failed: %v", err)
	}
	if job.Status != entities.JobStatusProcessing || job.AttemptCount != 0 {
		t.Fatalf("expected processing job untouched, got %s/%d", job.Status, job.AttemptCount)
	}
}
