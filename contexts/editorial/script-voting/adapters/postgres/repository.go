package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"showrunner/contexts/editorial/script-voting/domain/entities"
	domainerrors "showrunner/contexts/editorial/script-voting/domain/errors"
	"showrunner/internal/shared/events"
	"showrunner/internal/shared/outbox"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// --- PeriodRepository ---

func (r *Repository) CreatePeriod(ctx context.Context, period entities.VotingPeriod) error {
	row := periodModelFromEntity(period)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("script_voting_repo_create_period_failed", err, "period_id", period.PeriodID)
	}
	return nil
}

func (r *Repository) GetPeriod(ctx context.Context, periodID string) (entities.VotingPeriod, error) {
	var row periodModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(periodID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VotingPeriod{}, domainerrors.ErrPeriodNotFound
		}
		return entities.VotingPeriod{}, r.logError("script_voting_repo_get_period_failed", err, "period_id", periodID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListPeriodsDueToOpen(ctx context.Context, now time.Time) ([]entities.VotingPeriod, error) {
	var rows []periodModel
	err := r.db.WithContext(ctx).
		Where("kind = ?", string(entities.PeriodKindScriptVoting)).
		Where("is_active = ? AND is_processed = ?", false, false).
		Where("starts_at <= ? AND ends_at > ?", now, now).
		Order("starts_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("script_voting_repo_list_due_open_failed", err)
	}
	return toPeriodEntities(rows), nil
}

func (r *Repository) ListPeriodsDueToClose(ctx context.Context, now time.Time) ([]entities.VotingPeriod, error) {
	var rows []periodModel
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_processed = ?", true, false).
		Where("ends_at <= ?", now).
		Order("ends_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("script_voting_repo_list_due_close_failed", err)
	}
	return toPeriodEntities(rows), nil
}

func (r *Repository) HasUpcomingPeriod(ctx context.Context, kind entities.PeriodKind, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&periodModel{}).
		Where("kind = ? AND is_processed = ? AND starts_at > ?", string(kind), false, now).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("script_voting_repo_has_upcoming_failed", err)
	}
	return count > 0, nil
}

func (r *Repository) ActivatePeriod(ctx context.Context, periodID string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&periodModel{}).
		Where("id = ? AND is_active = ? AND is_processed = ?", strings.TrimSpace(periodID), false, false).
		Updates(map[string]any{"is_active": true, "updated_at": now})
	if result.Error != nil {
		return r.logError("script_voting_repo_activate_period_failed", result.Error, "period_id", periodID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

// ClaimPeriodForProcessing is a conditional update: only the caller that
// flips is_processed from false to true wins the close.
func (r *Repository) ClaimPeriodForProcessing(ctx context.Context, periodID string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&periodModel{}).
		Where("id = ? AND is_processed = ?", strings.TrimSpace(periodID), false).
		Updates(map[string]any{"is_processed": true, "is_active": false, "updated_at": now})
	if result.Error != nil {
		return false, r.logError("script_voting_repo_claim_period_failed", result.Error, "period_id", periodID)
	}
	return result.RowsAffected > 0, nil
}

// --- ScriptRepository ---

func (r *Repository) CreateScript(ctx context.Context, script entities.Script) error {
	row, err := scriptModelFromEntity(script)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("script_voting_repo_create_script_failed", err, "script_id", script.ScriptID)
	}
	return nil
}

func (r *Repository) GetScript(ctx context.Context, scriptID string) (entities.Script, error) {
	var row scriptModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(scriptID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Script{}, domainerrors.ErrScriptNotFound
		}
		return entities.Script{}, r.logError("script_voting_repo_get_script_failed", err, "script_id", scriptID)
	}
	return row.toEntity()
}

func (r *Repository) ListSubmittedUnassigned(ctx context.Context) ([]entities.Script, error) {
	var rows []scriptModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND voting_period_id IS NULL", string(entities.ScriptStatusSubmitted)).
		Order("submitted_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("script_voting_repo_list_unassigned_failed", err)
	}
	return toScriptEntities(rows)
}

func (r *Repository) AssignScriptsToPeriod(ctx context.Context, scriptIDs []string, periodID string, now time.Time) error {
	if len(scriptIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&scriptModel{}).
		Where("id IN ? AND status = ?", scriptIDs, string(entities.ScriptStatusSubmitted)).
		Updates(map[string]any{
			"status":           string(entities.ScriptStatusVoting),
			"voting_period_id": periodID,
			"updated_at":       now,
		}).
		Error
	if err != nil {
		return r.logError("script_voting_repo_assign_scripts_failed", err, "period_id", periodID)
	}
	return nil
}

func (r *Repository) ListScriptsByPeriod(ctx context.Context, periodID string) ([]entities.Script, error) {
	var rows []scriptModel
	err := r.db.WithContext(ctx).
		Where("voting_period_id = ?", strings.TrimSpace(periodID)).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("script_voting_repo_list_by_period_failed", err, "period_id", periodID)
	}
	return toScriptEntities(rows)
}

func (r *Repository) ApplySelection(ctx context.Context, periodID string, winnerID string, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&scriptModel{}).
			Where("id = ?", winnerID).
			Updates(map[string]any{"status": string(entities.ScriptStatusSelected), "updated_at": now}).
			Error; err != nil {
			return err
		}
		return tx.Model(&scriptModel{}).
			Where("voting_period_id = ? AND id <> ?", periodID, winnerID).
			Updates(map[string]any{"status": string(entities.ScriptStatusRejected), "updated_at": now}).
			Error
	})
	if err != nil {
		return r.logError("script_voting_repo_apply_selection_failed", err,
			"period_id", periodID,
			"winner_script_id", winnerID,
		)
	}
	return nil
}

// --- VoteRepository ---
// Vote row writes and script tally updates share one transaction so the
// tally invariant (vote_count == signed sum of rows) holds at every commit.

func (r *Repository) GetVoteByIdentity(ctx context.Context, scriptID string, voterID string) (entities.ScriptVote, bool, error) {
	var row scriptVoteModel
	err := r.db.WithContext(ctx).
		Where("script_id = ? AND voter_id = ?", strings.TrimSpace(scriptID), strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ScriptVote{}, false, nil
		}
		return entities.ScriptVote{}, false, r.logError("script_voting_repo_get_vote_failed", err, "script_id", scriptID)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) InsertVote(ctx context.Context, vote entities.ScriptVote) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := scriptVoteModel{
			ID:        vote.VoteID,
			ScriptID:  vote.ScriptID,
			VoterID:   vote.VoterID,
			Value:     int(vote.Value),
			CreatedAt: vote.CreatedAt,
			UpdatedAt: vote.UpdatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return r.adjustTally(tx, vote.ScriptID, vote.Value, 1, vote.UpdatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("script_voting_repo_insert_vote_failed", err,
			"script_id", vote.ScriptID,
			"voter_id", vote.VoterID,
		)
	}
	return nil
}

func (r *Repository) RemoveVote(ctx context.Context, scriptID string, voterID string, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row scriptVoteModel
		err := tx.Where("script_id = ? AND voter_id = ?", scriptID, voterID).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrConflict
			}
			return err
		}
		if err := tx.Delete(&scriptVoteModel{}, "id = ?", row.ID).Error; err != nil {
			return err
		}
		return r.adjustTally(tx, scriptID, entities.VoteValue(row.Value), -1, now)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			return err
		}
		return r.logError("script_voting_repo_remove_vote_failed", err,
			"script_id", scriptID,
			"voter_id", voterID,
		)
	}
	return nil
}

func (r *Repository) SwapVote(ctx context.Context, scriptID string, voterID string, value entities.VoteValue, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row scriptVoteModel
		err := tx.Where("script_id = ? AND voter_id = ?", scriptID, voterID).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrConflict
			}
			return err
		}
		previous := entities.VoteValue(row.Value)
		if previous == value {
			return domainerrors.ErrConflict
		}
		if err := tx.Model(&scriptVoteModel{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{"value": int(value), "updated_at": now}).
			Error; err != nil {
			return err
		}
		if err := r.adjustTally(tx, scriptID, previous, -1, now); err != nil {
			return err
		}
		return r.adjustTally(tx, scriptID, value, 1, now)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			return err
		}
		return r.logError("script_voting_repo_swap_vote_failed", err,
			"script_id", scriptID,
			"voter_id", voterID,
		)
	}
	return nil
}

func (r *Repository) ListVotesByScript(ctx context.Context, scriptID string) ([]entities.ScriptVote, error) {
	var rows []scriptVoteModel
	err := r.db.WithContext(ctx).
		Where("script_id = ?", strings.TrimSpace(scriptID)).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("script_voting_repo_list_votes_failed", err, "script_id", scriptID)
	}
	items := make([]entities.ScriptVote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) adjustTally(tx *gorm.DB, scriptID string, value entities.VoteValue, direction int, now time.Time) error {
	updates := map[string]any{
		"vote_count": gorm.Expr("vote_count + ?", int(value)*direction),
		"updated_at": now,
	}
	if value == entities.VoteValueUp {
		updates["upvotes"] = gorm.Expr("upvotes + ?", direction)
	} else {
		updates["downvotes"] = gorm.Expr("downvotes + ?", direction)
	}
	result := tx.Model(&scriptModel{}).Where("id = ?", scriptID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrScriptNotFound
	}
	return nil
}

// --- Outbox ---

func (r *Repository) AppendOutbox(ctx context.Context, event events.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    event.OccurredAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("script_voting_repo_append_outbox_failed", err, "event_id", event.EventID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	var rows []outboxModel
	query := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.logError("script_voting_repo_list_outbox_failed", err)
	}
	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, outbox.Message{
			ID:          row.OutboxID,
			EventType:   row.EventType,
			Payload:     row.Payload,
			Status:      row.Status,
			CreatedAt:   row.CreatedAt,
			PublishedAt: row.PublishedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{"status": outboxStatusPublished, "published_at": at}).
		Error
	if err != nil {
		return r.logError("script_voting_repo_mark_outbox_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func toPeriodEntities(rows []periodModel) []entities.VotingPeriod {
	items := make([]entities.VotingPeriod, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func toScriptEntities(rows []scriptModel) ([]entities.Script, error) {
	items := make([]entities.Script, 0, len(rows))
	for _, row := range rows {
		script, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, script)
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "editorial/script-voting",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("script voting repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
