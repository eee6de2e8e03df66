package ports

import (
	"context"
	"time"

	"showrunner/contexts/editorial/script-voting/domain/entities"
	"showrunner/internal/shared/events"
	"showrunner/internal/shared/outbox"
)

type PeriodRepository interface {
	CreatePeriod(ctx context.Context, period entities.VotingPeriod) error
	GetPeriod(ctx context.Context, periodID string) (entities.VotingPeriod, error)
	ListPeriodsDueToOpen(ctx context.Context, now time.Time) ([]entities.VotingPeriod, error)
	ListPeriodsDueToClose(ctx context.Context, now time.Time) ([]entities.VotingPeriod, error)
	HasUpcomingPeriod(ctx context.Context, kind entities.PeriodKind, now time.Time) (bool, error)
	// ActivatePeriod flips is_active on an inactive, unprocessed period.
	ActivatePeriod(ctx context.Context, periodID string, now time.Time) error
	// ClaimPeriodForProcessing conditionally marks the period processed and
	// reports whether this caller won the claim. Losers observe false.
	ClaimPeriodForProcessing(ctx context.Context, periodID string, now time.Time) (bool, error)
}

type ScriptRepository interface {
	CreateScript(ctx context.Context, script entities.Script) error
	GetScript(ctx context.Context, scriptID string) (entities.Script, error)
	ListSubmittedUnassigned(ctx context.Context) ([]entities.Script, error)
	// AssignScriptsToPeriod moves the scripts to voting status and stamps
	// their voting_period_id in one transaction.
	AssignScriptsToPeriod(ctx context.Context, scriptIDs []string, periodID string, now time.Time) error
	ListScriptsByPeriod(ctx context.Context, periodID string) ([]entities.Script, error)
	// ApplySelection marks the winner selected and every other script of the
	// period rejected in one transaction.
	ApplySelection(ctx context.Context, periodID string, winnerID string, now time.Time) error
}

// VoteRepository owns script-vote rows and the running tallies on scripts.
// Each mutation adjusts the vote row and the script's vote_count/upvotes/
// downvotes inside one transaction so tallies never drift from the rows.
type VoteRepository interface {
	GetVoteByIdentity(ctx context.Context, scriptID string, voterID string) (entities.ScriptVote, bool, error)
	InsertVote(ctx context.Context, vote entities.ScriptVote) error
	RemoveVote(ctx context.Context, scriptID string, voterID string, now time.Time) error
	SwapVote(ctx context.Context, scriptID string, voterID string, value entities.VoteValue, now time.Time) error
	ListVotesByScript(ctx context.Context, scriptID string) ([]entities.ScriptVote, error)
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, event events.Envelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, at time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
