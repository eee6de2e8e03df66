package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	application "showrunner/contexts/editorial/script-voting/application"
	"showrunner/contexts/editorial/script-voting/domain/entities"
	"showrunner/contexts/editorial/script-voting/ports"
)

// PeriodUseCase is the voting scheduler: it opens due periods, closes expired
// ones (tally + winner selection), and keeps a future period on the calendar.
type PeriodUseCase struct {
	Periods    ports.PeriodRepository
	Scripts    ports.ScriptRepository
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Schedule   Schedule
	MinScripts int
	Logger     *slog.Logger
}

// OpenDuePeriods activates inactive periods whose window has started, but
// only when enough submitted scripts are waiting. Activation assigns those
// scripts to the period and moves them to voting status.
func (uc PeriodUseCase) OpenDuePeriods(ctx context.Context) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()

	due, err := uc.Periods.ListPeriodsDueToOpen(ctx, now)
	if err != nil {
		logger.Error("period open listing failed",
			"event", "voting_period_open_list_failed",
			"module", "editorial/script-voting",
			"layer", "application",
			"error", err.Error(),
		)
		return err
	}

	for _, period := range due {
		waiting, err := uc.Scripts.ListSubmittedUnassigned(ctx)
		if err != nil {
			return err
		}
		minScripts := uc.MinScripts
		if minScripts <= 0 {
			minScripts = 1
		}
		if len(waiting) < minScripts {
			logger.Info("period activation deferred: not enough scripts",
				"event", "voting_period_open_deferred",
				"module", "editorial/script-voting",
				"layer", "application",
				"period_id", period.PeriodID,
				"waiting_scripts", len(waiting),
				"min_scripts", minScripts,
			)
			continue
		}

		if err := uc.Periods.ActivatePeriod(ctx, period.PeriodID, now); err != nil {
			return err
		}
		scriptIDs := make([]string, 0, len(waiting))
		for _, script := range waiting {
			scriptIDs = append(scriptIDs, script.ScriptID)
		}
		if err := uc.Scripts.AssignScriptsToPeriod(ctx, scriptIDs, period.PeriodID, now); err != nil {
			return err
		}
		logger.Info("voting period opened",
			"event", "voting_period_opened",
			"module", "editorial/script-voting",
			"layer", "application",
			"period_id", period.PeriodID,
			"assigned_scripts", len(scriptIDs),
		)
	}
	return nil
}

// CloseDuePeriods tallies every expired active period exactly once. The
// processed flag is claimed conditionally so concurrent ticks cannot
// double-close a period. The winner is announced through the outbox.
func (uc PeriodUseCase) CloseDuePeriods(ctx context.Context) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()

	due, err := uc.Periods.ListPeriodsDueToClose(ctx, now)
	if err != nil {
		logger.Error("period close listing failed",
			"event", "voting_period_close_list_failed",
			"module", "editorial/script-voting",
			"layer", "application",
			"error", err.Error(),
		)
		return err
	}

	for _, period := range due {
		won, err := uc.Periods.ClaimPeriodForProcessing(ctx, period.PeriodID, now)
		if err != nil {
			return err
		}
		if !won {
			logger.Debug("period close skipped: lost processing claim",
				"event", "voting_period_close_claim_lost",
				"module", "editorial/script-voting",
				"layer", "application",
				"period_id", period.PeriodID,
			)
			continue
		}
		if err := uc.closeAndSelectWinner(ctx, period, now); err != nil {
			return err
		}
	}
	return nil
}

// closeAndSelectWinner orders the period's scripts by
// (vote_count desc, upvotes desc, submitted_at asc) and selects the first.
func (uc PeriodUseCase) closeAndSelectWinner(ctx context.Context, period entities.VotingPeriod, now time.Time) error {
	logger := application.ResolveLogger(uc.Logger)

	scripts, err := uc.Scripts.ListScriptsByPeriod(ctx, period.PeriodID)
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		logger.Info("voting period closed with no scripts",
			"event", "voting_period_closed_empty",
			"module", "editorial/script-voting",
			"layer", "application",
			"period_id", period.PeriodID,
		)
		return nil
	}

	sort.SliceStable(scripts, func(i, j int) bool {
		if scripts[i].VoteCount != scripts[j].VoteCount {
			return scripts[i].VoteCount > scripts[j].VoteCount
		}
		if scripts[i].Upvotes != scripts[j].Upvotes {
			return scripts[i].Upvotes > scripts[j].Upvotes
		}
		return scripts[i].SubmittedAt.Before(scripts[j].SubmittedAt)
	})
	winner := scripts[0]

	if err := uc.Scripts.ApplySelection(ctx, period.PeriodID, winner.ScriptID, now); err != nil {
		return err
	}

	if err := uc.emitSelection(ctx, period, winner, len(scripts), now); err != nil {
		return err
	}

	logger.Info("voting period closed",
		"event", "voting_period_closed",
		"module", "editorial/script-voting",
		"layer", "application",
		"period_id", period.PeriodID,
		"winner_script_id", winner.ScriptID,
		"candidate_count", len(scripts),
		"winner_votes", winner.VoteCount,
	)
	return nil
}

func (uc PeriodUseCase) emitSelection(
	ctx context.Context,
	period entities.VotingPeriod,
	winner entities.Script,
	candidates int,
	now time.Time,
) error {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	plan, err := json.Marshal(winner.Plan)
	if err != nil {
		return err
	}
	envelope, err := newVotingEnvelope(eventID, TopicScriptSelected, winner.ScriptID, now, map[string]any{
		"script_id":   winner.ScriptID,
		"group_id":    winner.GroupID,
		"title":       winner.Title,
		"period_id":   period.PeriodID,
		"vote_count":  winner.VoteCount,
		"upvotes":     winner.Upvotes,
		"downvotes":   winner.Downvotes,
		"candidates":  candidates,
		"plan":        json.RawMessage(plan),
		"occurred_at": now.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

// EnsureUpcomingPeriod guarantees at least one future script-voting period
// exists, computed from the cadence policy.
func (uc PeriodUseCase) EnsureUpcomingPeriod(ctx context.Context) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()

	exists, err := uc.Periods.HasUpcomingPeriod(ctx, entities.PeriodKindScriptVoting, now)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	periodID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	startsAt, endsAt := uc.Schedule.NextWindow(now)
	period := entities.VotingPeriod{
		PeriodID:  periodID,
		Kind:      entities.PeriodKindScriptVoting,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.Periods.CreatePeriod(ctx, period); err != nil {
		return err
	}
	logger.Info("upcoming voting period scheduled",
		"event", "voting_period_scheduled",
		"module", "editorial/script-voting",
		"layer", "application",
		"period_id", periodID,
		"starts_at", startsAt.Format(time.RFC3339),
		"ends_at", endsAt.Format(time.RFC3339),
		"cadence", string(uc.Schedule.Cadence),
	)
	return nil
}

func (uc PeriodUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
