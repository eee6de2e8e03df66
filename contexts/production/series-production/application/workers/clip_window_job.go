package workers

import (
	"context"
	"log/slog"

	application "showrunner/contexts/production/series-production/application"
	"showrunner/contexts/production/series-production/application/commands"
)

// ClipWindowJob closes expired clip voting windows.
type ClipWindowJob struct {
	Ballots commands.ClipBallotUseCase
	Logger  *slog.Logger
}

func (j ClipWindowJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if err := j.Ballots.CloseDueClipWindows(ctx); err != nil {
		logger.Error("clip window close pass failed",
			"event", "production_clip_window_pass_failed",
			"module", "production/series-production",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	return nil
}
