package workers

import (
	"context"
	"log/slog"
	"time"

	application "showrunner/contexts/production/series-production/application"
	"showrunner/contexts/production/series-production/application/commands"
)

// QueueDrainJob runs one bounded pass over the production job queue.
type QueueDrainJob struct {
	Worker     commands.WorkerUseCase
	MaxJobs    int
	MaxRuntime time.Duration
	Logger     *slog.Logger
}

func (j QueueDrainJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if err := j.Worker.ProcessQueuedJobs(ctx, j.MaxJobs, j.MaxRuntime); err != nil {
		logger.Error("queue drain failed",
			"event", "production_queue_drain_failed",
			"module", "production/series-production",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	return nil
}
