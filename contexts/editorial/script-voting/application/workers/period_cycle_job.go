package workers

import (
	"context"
	"log/slog"

	application "showrunner/contexts/editorial/script-voting/application"
	"showrunner/contexts/editorial/script-voting/application/commands"
)

// PeriodCycleJob runs one scheduler pass: open due periods, close expired
// ones, and keep a future period on the calendar. Safe to run concurrently
// from multiple worker processes; period processing is claim-guarded.
type PeriodCycleJob struct {
	Periods commands.PeriodUseCase
	Logger  *slog.Logger
}

func (j PeriodCycleJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)

	if err := j.Periods.OpenDuePeriods(ctx); err != nil {
		logger.Error("period cycle open step failed",
			"event", "voting_period_cycle_open_failed",
			"module", "editorial/script-voting",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if err := j.Periods.CloseDuePeriods(ctx); err != nil {
		logger.Error("period cycle close step failed",
			"event", "voting_period_cycle_close_failed",
			"module", "editorial/script-voting",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if err := j.Periods.EnsureUpcomingPeriod(ctx); err != nil {
		logger.Error("period cycle replenish step failed",
			"event", "voting_period_cycle_replenish_failed",
			"module", "editorial/script-voting",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	logger.Debug("period cycle completed",
		"event", "voting_period_cycle_completed",
		"module", "editorial/script-voting",
		"layer", "worker",
	)
	return nil
}
