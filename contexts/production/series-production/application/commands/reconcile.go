package commands

import (
	"context"
	"log/slog"
	"time"

	application "showrunner/contexts/production/series-production/application"
	"showrunner/contexts/production/series-production/domain/entities"
	"showrunner/contexts/production/series-production/ports"
)

// ReconcilerUseCase derives series status from episode and job state. It is
// pure derivation: running it any number of times converges on the same
// answer for the same inputs.
type ReconcilerUseCase struct {
	Series   ports.SeriesRepository
	Episodes ports.EpisodeRepository
	Jobs     ports.JobRepository
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc ReconcilerUseCase) Reconcile(ctx context.Context, seriesID string) error {
	logger := application.ResolveLogger(uc.Logger)

	series, err := uc.Series.GetSeries(ctx, seriesID)
	if err != nil {
		return err
	}
	// failed is terminal. A failed series is never resurrected by later
	// episode progress.
	if series.Status == entities.SeriesStatusFailed {
		return nil
	}

	episodes, err := uc.Episodes.ListEpisodesBySeries(ctx, seriesID)
	if err != nil {
		return err
	}
	playable := 0
	for _, episode := range episodes {
		if episode.Playable() {
			playable++
		}
	}
	now := uc.now()

	switch {
	case playable == entities.EpisodesPerSeries && len(episodes) == entities.EpisodesPerSeries:
		if series.Status == entities.SeriesStatusCompleted {
			return nil
		}
		completedAt := series.CompletedAt
		if completedAt == nil {
			stamp := now
			completedAt = &stamp
		}
		if err := uc.Series.UpdateSeriesStatus(ctx, seriesID, entities.SeriesStatusCompleted, playable, completedAt, now); err != nil {
			return err
		}
		if err := uc.emitCompleted(ctx, series, now); err != nil {
			return err
		}
		logger.Info("series completed",
			"event", "series_reconciled_completed",
			"module", "production/series-production",
			"layer", "application",
			"series_id", seriesID,
		)
	case playable >= 1:
		if series.Status == entities.SeriesStatusActive && series.EpisodeCount == playable {
			return nil
		}
		if err := uc.Series.UpdateSeriesStatus(ctx, seriesID, entities.SeriesStatusActive, playable, nil, now); err != nil {
			return err
		}
		logger.Info("series active",
			"event", "series_reconciled_active",
			"module", "production/series-production",
			"layer", "application",
			"series_id", seriesID,
			"playable_episodes", playable,
		)
	default:
		if series.Status == entities.SeriesStatusProducing {
			return nil
		}
		pending, err := uc.hasOutstandingJobs(ctx, seriesID)
		if err != nil {
			return err
		}
		if !pending {
			return nil
		}
		if err := uc.Series.UpdateSeriesStatus(ctx, seriesID, entities.SeriesStatusProducing, 0, nil, now); err != nil {
			return err
		}
	}
	return nil
}

func (uc ReconcilerUseCase) hasOutstandingJobs(ctx context.Context, seriesID string) (bool, error) {
	jobs, err := uc.Jobs.ListJobsBySeries(ctx, seriesID)
	if err != nil {
		return false, err
	}
	for _, job := range jobs {
		if job.Status == entities.JobStatusPending || job.Status == entities.JobStatusProcessing {
			return true, nil
		}
	}
	return false, nil
}

func (uc ReconcilerUseCase) emitCompleted(ctx context.Context, series entities.Series, now time.Time) error {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newProductionEnvelope(eventID, TopicSeriesCompleted, series.SeriesID, now, map[string]any{
		"series_id":   series.SeriesID,
		"script_id":   series.ScriptID,
		"occurred_at": now.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc ReconcilerUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
