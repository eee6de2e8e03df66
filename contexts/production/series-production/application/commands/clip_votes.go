package commands

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "showrunner/contexts/production/series-production/application"
	"showrunner/contexts/production/series-production/domain/entities"
	domainerrors "showrunner/contexts/production/series-production/domain/errors"
	"showrunner/contexts/production/series-production/ports"
)

type CastClipVoteCommand struct {
	VariantID string
	VoterKind entities.VoterKind
	VoterID   string
}

type CastClipVoteResult struct {
	Variant     entities.ClipVariant
	Transferred bool // the voter's vote moved from another variant
	Replayed    bool // re-vote for the held variant, no-op
}

// ClipBallotUseCase owns clip voting for pilot episodes: one vote per
// (episode, voter), transferable between variants while the window is open,
// and winner selection when the window closes.
type ClipBallotUseCase struct {
	Episodes  ports.EpisodeRepository
	Variants  ports.VariantRepository
	ClipVotes ports.ClipVoteRepository

	Finalizer  FinalizerUseCase
	Reconciler ReconcilerUseCase
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// CastClipVote records one voter's single vote inside an episode's open clip
// window. Voting for the held variant is a no-op; voting for a different
// variant transfers the vote atomically.
func (uc ClipBallotUseCase) CastClipVote(ctx context.Context, cmd CastClipVoteCommand) (CastClipVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	variantID := strings.TrimSpace(cmd.VariantID)
	voterID := strings.TrimSpace(cmd.VoterID)
	if variantID == "" || voterID == "" ||
		(cmd.VoterKind != entities.VoterKindUser && cmd.VoterKind != entities.VoterKindGuest) {
		return CastClipVoteResult{}, domainerrors.ErrInvalidClipVoteInput
	}

	variant, err := uc.Variants.GetVariant(ctx, variantID)
	if err != nil {
		return CastClipVoteResult{}, err
	}
	episode, err := uc.Episodes.GetEpisode(ctx, variant.EpisodeID)
	if err != nil {
		return CastClipVoteResult{}, err
	}
	now := uc.now()
	if episode.Status != entities.EpisodeStatusClipVoting ||
		episode.ClipVotingEndsAt == nil || !episode.ClipVotingEndsAt.After(now) {
		logger.Warn("clip vote rejected: window not open",
			"event", "clip_vote_window_closed",
			"module", "production/series-production",
			"layer", "application",
			"episode_id", episode.EpisodeID,
			"variant_id", variantID,
		)
		return CastClipVoteResult{}, domainerrors.ErrEpisodeNotVoting
	}

	existing, found, err := uc.ClipVotes.GetClipVoteByIdentity(ctx, episode.EpisodeID, cmd.VoterKind, voterID)
	if err != nil {
		return CastClipVoteResult{}, err
	}
	if found && existing.VariantID == variantID {
		return CastClipVoteResult{Variant: variant, Replayed: true}, nil
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastClipVoteResult{}, err
	}
	vote := entities.ClipVote{
		VoteID:    voteID,
		EpisodeID: episode.EpisodeID,
		VariantID: variantID,
		VoterKind: cmd.VoterKind,
		VoterID:   voterID,
		CreatedAt: now,
	}

	if found {
		if err := uc.ClipVotes.TransferClipVote(ctx, vote, existing.VariantID, now); err != nil {
			return CastClipVoteResult{}, err
		}
	} else {
		if err := uc.ClipVotes.InsertClipVote(ctx, vote); err != nil {
			return CastClipVoteResult{}, err
		}
	}

	updated, err := uc.Variants.GetVariant(ctx, variantID)
	if err != nil {
		return CastClipVoteResult{}, err
	}
	logger.Info("clip vote recorded",
		"event", "clip_vote_recorded",
		"module", "production/series-production",
		"layer", "application",
		"episode_id", episode.EpisodeID,
		"variant_id", variantID,
		"voter_kind", string(cmd.VoterKind),
		"transferred", found,
	)
	return CastClipVoteResult{Variant: updated, Transferred: found}, nil
}

// CloseDueClipWindows selects a winner for every episode whose clip window
// has expired: variants ordered by vote_count desc then variant_number asc.
func (uc ClipBallotUseCase) CloseDueClipWindows(ctx context.Context) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()

	due, err := uc.Episodes.ListEpisodesInClipVoting(ctx, now)
	if err != nil {
		logger.Error("clip window listing failed",
			"event", "clip_window_list_failed",
			"module", "production/series-production",
			"layer", "application",
			"error", err.Error(),
		)
		return err
	}

	for _, episode := range due {
		if err := uc.closeWindow(ctx, episode, now); err != nil {
			return err
		}
	}
	return nil
}

func (uc ClipBallotUseCase) closeWindow(ctx context.Context, episode entities.Episode, now time.Time) error {
	logger := application.ResolveLogger(uc.Logger)

	variants, err := uc.Variants.ListVariantsByEpisode(ctx, episode.EpisodeID)
	if err != nil {
		return err
	}
	if len(variants) == 0 {
		logger.Warn("clip window closed with no variants",
			"event", "clip_window_empty",
			"module", "production/series-production",
			"layer", "application",
			"episode_id", episode.EpisodeID,
		)
		return nil
	}

	// Ties break toward the lowest variant number.
	sort.SliceStable(variants, func(i, j int) bool {
		if variants[i].VoteCount != variants[j].VoteCount {
			return variants[i].VoteCount > variants[j].VoteCount
		}
		return variants[i].VariantNumber < variants[j].VariantNumber
	})
	winner := variants[0]

	if err := uc.Variants.MarkVariantSelected(ctx, winner.VariantID, now); err != nil {
		return err
	}
	if err := uc.Episodes.SetFinalVideo(ctx, episode.EpisodeID, winner.VideoURL, now); err != nil {
		return err
	}
	if err := uc.emitWindowClosed(ctx, episode, winner, now); err != nil {
		return err
	}

	// Finalization is best effort here; the finalizer worker retries later.
	if err := uc.Finalizer.Finalize(ctx, episode.EpisodeID); err != nil {
		logger.Warn("post-selection finalization deferred",
			"event", "clip_window_finalize_deferred",
			"module", "production/series-production",
			"layer", "application",
			"episode_id", episode.EpisodeID,
			"error", err.Error(),
		)
	}
	if err := uc.Reconciler.Reconcile(ctx, episode.SeriesID); err != nil {
		return err
	}

	logger.Info("clip window closed",
		"event", "clip_window_closed",
		"module", "production/series-production",
		"layer", "application",
		"episode_id", episode.EpisodeID,
		"winner_variant_id", winner.VariantID,
		"winner_votes", winner.VoteCount,
	)
	return nil
}

func (uc ClipBallotUseCase) emitWindowClosed(ctx context.Context, episode entities.Episode, winner entities.ClipVariant, now time.Time) error {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newProductionEnvelope(eventID, TopicClipWindowClosed, episode.SeriesID, now, map[string]any{
		"series_id":      episode.SeriesID,
		"episode_id":     episode.EpisodeID,
		"variant_id":     winner.VariantID,
		"variant_number": winner.VariantNumber,
		"vote_count":     winner.VoteCount,
		"occurred_at":    now.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc ClipBallotUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
