package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "showrunner/contexts/editorial/script-voting/application"
	"showrunner/contexts/editorial/script-voting/domain/entities"
	domainerrors "showrunner/contexts/editorial/script-voting/domain/errors"
	"showrunner/contexts/editorial/script-voting/ports"
)

// CastVoteCommand is the write-model input for script vote casting.
type CastVoteCommand struct {
	ScriptID string
	VoterID  string
	Value    entities.VoteValue
}

// CastVoteResult reports how the ballot box resolved the cast.
type CastVoteResult struct {
	Script  entities.Script
	Toggled bool // same-value re-vote removed the existing vote
	Swapped bool // different-value re-vote replaced the existing vote
}

// VoteUseCase is the script ballot box. It owns cast/toggle/swap semantics;
// the repository guarantees row+tally writes happen in one transaction.
type VoteUseCase struct {
	Scripts ports.ScriptRepository
	Votes   ports.VoteRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// CastVote records one voter's signed vote on a script. Casting the same
// value twice removes the vote; casting the opposite value swaps it.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	scriptID := strings.TrimSpace(cmd.ScriptID)
	voterID := strings.TrimSpace(cmd.VoterID)
	if scriptID == "" || voterID == "" ||
		(cmd.Value != entities.VoteValueUp && cmd.Value != entities.VoteValueDown) {
		logger.Warn("script vote validation failed",
			"event", "script_vote_validation_failed",
			"module", "editorial/script-voting",
			"layer", "application",
			"script_id", scriptID,
			"voter_id", voterID,
		)
		return CastVoteResult{}, domainerrors.ErrInvalidVoteInput
	}

	script, err := uc.Scripts.GetScript(ctx, scriptID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if script.Status != entities.ScriptStatusVoting {
		logger.Warn("script vote rejected: script not open",
			"event", "script_vote_not_open",
			"module", "editorial/script-voting",
			"layer", "application",
			"script_id", scriptID,
			"status", string(script.Status),
		)
		return CastVoteResult{}, domainerrors.ErrScriptNotVoting
	}
	if script.GroupID == voterID {
		logger.Warn("script vote rejected: self vote",
			"event", "script_vote_self_forbidden",
			"module", "editorial/script-voting",
			"layer", "application",
			"script_id", scriptID,
			"voter_id", voterID,
		)
		return CastVoteResult{}, domainerrors.ErrSelfVoteForbidden
	}

	now := uc.now()
	existing, found, err := uc.Votes.GetVoteByIdentity(ctx, scriptID, voterID)
	if err != nil {
		return CastVoteResult{}, err
	}

	switch {
	case found && existing.Value == cmd.Value:
		// Toggle: same value removes the vote and reverses its contribution.
		if err := uc.Votes.RemoveVote(ctx, scriptID, voterID, now); err != nil {
			return CastVoteResult{}, err
		}
		logger.Info("script vote toggled off",
			"event", "script_vote_toggled",
			"module", "editorial/script-voting",
			"layer", "application",
			"script_id", scriptID,
			"voter_id", voterID,
		)
	case found:
		// Swap: reverse the old contribution and apply the new one atomically.
		if err := uc.Votes.SwapVote(ctx, scriptID, voterID, cmd.Value, now); err != nil {
			return CastVoteResult{}, err
		}
		logger.Info("script vote swapped",
			"event", "script_vote_swapped",
			"module", "editorial/script-voting",
			"layer", "application",
			"script_id", scriptID,
			"voter_id", voterID,
			"value", int(cmd.Value),
		)
	default:
		voteID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return CastVoteResult{}, err
		}
		err = uc.Votes.InsertVote(ctx, entities.ScriptVote{
			VoteID:    voteID,
			ScriptID:  scriptID,
			VoterID:   voterID,
			Value:     cmd.Value,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			// A concurrent cast by the same voter won the unique constraint.
			// The losing attempt observes a conflict, not a crash.
			logger.Warn("script vote insert conflicted",
				"event", "script_vote_insert_conflict",
				"module", "editorial/script-voting",
				"layer", "application",
				"script_id", scriptID,
				"voter_id", voterID,
				"error", err.Error(),
			)
			return CastVoteResult{}, err
		}
		logger.Info("script vote recorded",
			"event", "script_vote_recorded",
			"module", "editorial/script-voting",
			"layer", "application",
			"script_id", scriptID,
			"voter_id", voterID,
			"value", int(cmd.Value),
		)
	}

	updated, err := uc.Scripts.GetScript(ctx, scriptID)
	if err != nil {
		return CastVoteResult{}, err
	}
	return CastVoteResult{
		Script:  updated,
		Toggled: found && existing.Value == cmd.Value,
		Swapped: found && existing.Value != cmd.Value,
	}, nil
}

func (uc VoteUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
