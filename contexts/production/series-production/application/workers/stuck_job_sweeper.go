package workers

import (
	"context"
	"log/slog"
	"time"

	application "showrunner/contexts/production/series-production/application"
	"showrunner/contexts/production/series-production/domain/entities"
	"showrunner/contexts/production/series-production/ports"
)

// StuckJobSweeper returns jobs wedged in processing (crashed worker, lost
// pod) to the queue. Jobs past their attempt budget are failed instead of
// requeued.
type StuckJobSweeper struct {
	Jobs      ports.JobRepository
	Episodes  ports.EpisodeRepository
	Clock     ports.Clock
	Threshold time.Duration
	Logger    *slog.Logger
}

func (s StuckJobSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	now := s.now()
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = 30 * time.Minute
	}

	stuck, err := s.Jobs.ListStuckJobs(ctx, now.Add(-threshold))
	if err != nil {
		logger.Error("stuck job listing failed",
			"event", "production_stuck_sweep_list_failed",
			"module", "production/series-production",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, job := range stuck {
		attempt := job.AttemptCount + 1
		if attempt >= job.MaxAttempts {
			if err := s.Jobs.FailJob(ctx, job.JobID, attempt, "worker lost: processing exceeded stuck threshold", now); err != nil {
				return err
			}
			if err := s.Episodes.UpdateEpisodeStatus(ctx, job.EpisodeID, entities.EpisodeStatusFailed, now); err != nil {
				return err
			}
			logger.Error("stuck job failed past attempt budget",
				"event", "production_stuck_job_failed",
				"module", "production/series-production",
				"layer", "worker",
				"job_id", job.JobID,
				"attempts", attempt,
			)
			continue
		}
		if err := s.Jobs.RescheduleJob(ctx, job.JobID, attempt, now, "worker lost: processing exceeded stuck threshold", now); err != nil {
			return err
		}
		if err := s.Episodes.UpdateEpisodeStatus(ctx, job.EpisodeID, entities.EpisodeStatusPending, now); err != nil {
			return err
		}
		logger.Warn("stuck job returned to queue",
			"event", "production_stuck_job_requeued",
			"module", "production/series-production",
			"layer", "worker",
			"job_id", job.JobID,
			"attempt", attempt,
		)
	}
	return nil
}

func (s StuckJobSweeper) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
