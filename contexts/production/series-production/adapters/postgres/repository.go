package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"showrunner/contexts/production/series-production/domain/entities"
	domainerrors "showrunner/contexts/production/series-production/domain/errors"
	"showrunner/internal/shared/events"
	"showrunner/internal/shared/outbox"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

// --- SeriesRepository ---

func (r *Repository) CreateSeries(ctx context.Context, series entities.Series) error {
	row := seriesModelFromEntity(series)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("production_repo_create_series_failed", err, "series_id", series.SeriesID)
	}
	return nil
}

func (r *Repository) GetSeries(ctx context.Context, seriesID string) (entities.Series, error) {
	var row seriesModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(seriesID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Series{}, domainerrors.ErrSeriesNotFound
		}
		return entities.Series{}, r.logError("production_repo_get_series_failed", err, "series_id", seriesID)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetSeriesByScript(ctx context.Context, scriptID string) (entities.Series, bool, error) {
	var row seriesModel
	err := r.db.WithContext(ctx).
		Where("script_id = ?", strings.TrimSpace(scriptID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Series{}, false, nil
		}
		return entities.Series{}, false, r.logError("production_repo_get_series_by_script_failed", err, "script_id", scriptID)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpdateSeriesStatus(ctx context.Context, seriesID string, status entities.SeriesStatus, episodeCount int, completedAt *time.Time, now time.Time) error {
	updates := map[string]any{
		"status":        string(status),
		"episode_count": episodeCount,
		"updated_at":    now,
	}
	if completedAt != nil {
		updates["completed_at"] = gorm.Expr("COALESCE(completed_at, ?)", *completedAt)
	}
	err := r.db.WithContext(ctx).
		Model(&seriesModel{}).
		Where("id = ?", strings.TrimSpace(seriesID)).
		Updates(updates).
		Error
	if err != nil {
		return r.logError("production_repo_update_series_failed", err, "series_id", seriesID)
	}
	return nil
}

// --- EpisodeRepository ---

func (r *Repository) CreateEpisode(ctx context.Context, episode entities.Episode) error {
	row, err := episodeModelFromEntity(episode)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("production_repo_create_episode_failed", err, "episode_id", episode.EpisodeID)
	}
	return nil
}

func (r *Repository) GetEpisode(ctx context.Context, episodeID string) (entities.Episode, error) {
	var row episodeModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(episodeID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Episode{}, domainerrors.ErrEpisodeNotFound
		}
		return entities.Episode{}, r.logError("production_repo_get_episode_failed", err, "episode_id", episodeID)
	}
	return row.toEntity()
}

func (r *Repository) ListEpisodesBySeries(ctx context.Context, seriesID string) ([]entities.Episode, error) {
	var rows []episodeModel
	err := r.db.WithContext(ctx).
		Where("series_id = ?", strings.TrimSpace(seriesID)).
		Order("episode_number ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("production_repo_list_episodes_failed", err, "series_id", seriesID)
	}
	return toEpisodeEntities(rows)
}

func (r *Repository) ListEpisodesInClipVoting(ctx context.Context, now time.Time) ([]entities.Episode, error) {
	var rows []episodeModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND clip_voting_ends_at IS NOT NULL AND clip_voting_ends_at <= ?",
			string(entities.EpisodeStatusClipVoting), now).
		Order("clip_voting_ends_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("production_repo_list_clip_voting_failed", err)
	}
	return toEpisodeEntities(rows)
}

func (r *Repository) UpdateEpisodeStatus(ctx context.Context, episodeID string, status entities.EpisodeStatus, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&episodeModel{}).
		Where("id = ?", strings.TrimSpace(episodeID)).
		Updates(map[string]any{"status": string(status), "updated_at": now}).
		Error
	if err != nil {
		return r.logError("production_repo_update_episode_failed", err, "episode_id", episodeID)
	}
	return nil
}

func (r *Repository) OpenClipWindow(ctx context.Context, episodeID string, endsAt time.Time, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&episodeModel{}).
		Where("id = ?", strings.TrimSpace(episodeID)).
		Updates(map[string]any{
			"status":              string(entities.EpisodeStatusClipVoting),
			"clip_voting_ends_at": endsAt,
			"updated_at":          now,
		}).
		Error
	if err != nil {
		return r.logError("production_repo_open_clip_window_failed", err, "episode_id", episodeID)
	}
	return nil
}

func (r *Repository) SetFinalVideo(ctx context.Context, episodeID string, videoURL string, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&episodeModel{}).
		Where("id = ?", strings.TrimSpace(episodeID)).
		Updates(map[string]any{
			"status":          string(entities.EpisodeStatusClipSelected),
			"final_video_url": videoURL,
			"updated_at":      now,
		}).
		Error
	if err != nil {
		return r.logError("production_repo_set_final_video_failed", err, "episode_id", episodeID)
	}
	return nil
}

func (r *Repository) SetNarrationAudio(ctx context.Context, episodeID string, audioURL string, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&episodeModel{}).
		Where("id = ?", strings.TrimSpace(episodeID)).
		Updates(map[string]any{"narration_audio_url": audioURL, "updated_at": now}).
		Error
	if err != nil {
		return r.logError("production_repo_set_narration_failed", err, "episode_id", episodeID)
	}
	return nil
}

func (r *Repository) ReplaceFinalVideo(ctx context.Context, episodeID string, videoURL string, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&episodeModel{}).
		Where("id = ?", strings.TrimSpace(episodeID)).
		Updates(map[string]any{"final_video_url": videoURL, "updated_at": now}).
		Error
	if err != nil {
		return r.logError("production_repo_replace_final_video_failed", err, "episode_id", episodeID)
	}
	return nil
}

// --- VariantRepository ---

func (r *Repository) UpsertVariant(ctx context.Context, variant entities.ClipVariant) error {
	row := variantModelFromEntity(variant)
	// Regeneration overwrites media and prompt but never resets tallies.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "episode_id"}, {Name: "variant_number"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"prompt", "video_url", "seed", "model", "updated_at",
			}),
		}).
		Create(&row).
		Error
	if err != nil {
		return r.logError("production_repo_upsert_variant_failed", err,
			"episode_id", variant.EpisodeID,
			"variant_number", variant.VariantNumber,
		)
	}
	return nil
}

func (r *Repository) GetVariant(ctx context.Context, variantID string) (entities.ClipVariant, error) {
	var row variantModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(variantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ClipVariant{}, domainerrors.ErrVariantNotFound
		}
		return entities.ClipVariant{}, r.logError("production_repo_get_variant_failed", err, "variant_id", variantID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListVariantsByEpisode(ctx context.Context, episodeID string) ([]entities.ClipVariant, error) {
	var rows []variantModel
	err := r.db.WithContext(ctx).
		Where("episode_id = ?", strings.TrimSpace(episodeID)).
		Order("variant_number ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("production_repo_list_variants_failed", err, "episode_id", episodeID)
	}
	items := make([]entities.ClipVariant, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) MarkVariantSelected(ctx context.Context, variantID string, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&variantModel{}).
		Where("id = ?", strings.TrimSpace(variantID)).
		Updates(map[string]any{"is_selected": true, "updated_at": now}).
		Error
	if err != nil {
		return r.logError("production_repo_mark_variant_selected_failed", err, "variant_id", variantID)
	}
	return nil
}

// --- ClipVoteRepository ---
// Vote row writes and variant tallies share one transaction so counts never
// drift from rows.

func (r *Repository) GetClipVoteByIdentity(ctx context.Context, episodeID string, voterKind entities.VoterKind, voterID string) (entities.ClipVote, bool, error) {
	var row clipVoteModel
	err := r.db.WithContext(ctx).
		Where("episode_id = ? AND voter_kind = ? AND voter_id = ?",
			strings.TrimSpace(episodeID), string(voterKind), strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ClipVote{}, false, nil
		}
		return entities.ClipVote{}, false, r.logError("production_repo_get_clip_vote_failed", err, "episode_id", episodeID)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) InsertClipVote(ctx context.Context, vote entities.ClipVote) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := clipVoteModel{
			ID:        vote.VoteID,
			EpisodeID: vote.EpisodeID,
			VariantID: vote.VariantID,
			VoterKind: string(vote.VoterKind),
			VoterID:   vote.VoterID,
			CreatedAt: vote.CreatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return adjustVariantTally(tx, vote.VariantID, 1, vote.CreatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("production_repo_insert_clip_vote_failed", err,
			"episode_id", vote.EpisodeID,
			"variant_id", vote.VariantID,
		)
	}
	return nil
}

func (r *Repository) TransferClipVote(ctx context.Context, vote entities.ClipVote, fromVariantID string, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&clipVoteModel{}).
			Where("episode_id = ? AND voter_kind = ? AND voter_id = ?",
				vote.EpisodeID, string(vote.VoterKind), vote.VoterID).
			Updates(map[string]any{"variant_id": vote.VariantID})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrConflict
		}
		if err := adjustVariantTally(tx, fromVariantID, -1, now); err != nil {
			return err
		}
		return adjustVariantTally(tx, vote.VariantID, 1, now)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			return err
		}
		return r.logError("production_repo_transfer_clip_vote_failed", err,
			"episode_id", vote.EpisodeID,
			"variant_id", vote.VariantID,
		)
	}
	return nil
}

func adjustVariantTally(tx *gorm.DB, variantID string, direction int, now time.Time) error {
	result := tx.Model(&variantModel{}).
		Where("id = ?", variantID).
		Updates(map[string]any{
			"vote_count": gorm.Expr("vote_count + ?", direction),
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVariantNotFound
	}
	return nil
}

// --- JobRepository ---

func (r *Repository) CreateJob(ctx context.Context, job entities.ProductionJob) error {
	row := jobModelFromEntity(job)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("production_repo_create_job_failed", err, "job_id", job.JobID)
	}
	return nil
}

func (r *Repository) GetJob(ctx context.Context, jobID string) (entities.ProductionJob, error) {
	var row jobModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(jobID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ProductionJob{}, domainerrors.ErrJobNotFound
		}
		return entities.ProductionJob{}, r.logError("production_repo_get_job_failed", err, "job_id", jobID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListReadyJobs(ctx context.Context, now time.Time, limit int) ([]entities.ProductionJob, error) {
	var rows []jobModel
	query := r.db.WithContext(ctx).
		Where("status = ? AND available_at <= ?", string(entities.JobStatusPending), now).
		Order("priority DESC").
		Order("available_at ASC").
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.logError("production_repo_list_ready_jobs_failed", err)
	}
	items := make([]entities.ProductionJob, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// ClaimJob is a conditional update: only the caller that flips pending to
// processing wins the job.
func (r *Repository) ClaimJob(ctx context.Context, jobID string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&jobModel{}).
		Where("id = ? AND status = ?", strings.TrimSpace(jobID), string(entities.JobStatusPending)).
		Updates(map[string]any{
			"status":     string(entities.JobStatusProcessing),
			"started_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, r.logError("production_repo_claim_job_failed", result.Error, "job_id", jobID)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) CompleteJob(ctx context.Context, jobID string, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&jobModel{}).
		Where("id = ?", strings.TrimSpace(jobID)).
		Updates(map[string]any{
			"status":      string(entities.JobStatusCompleted),
			"finished_at": now,
			"updated_at":  now,
		}).
		Error
	if err != nil {
		return r.logError("production_repo_complete_job_failed", err, "job_id", jobID)
	}
	return nil
}

func (r *Repository) RescheduleJob(ctx context.Context, jobID string, attemptCount int, availableAt time.Time, lastError string, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&jobModel{}).
		Where("id = ?", strings.TrimSpace(jobID)).
		Updates(map[string]any{
			"status":        string(entities.JobStatusPending),
			"attempt_count": attemptCount,
			"available_at":  availableAt,
			"last_error":    lastError,
			"started_at":    nil,
			"updated_at":    now,
		}).
		Error
	if err != nil {
		return r.logError("production_repo_reschedule_job_failed", err, "job_id", jobID)
	}
	return nil
}

func (r *Repository) FailJob(ctx context.Context, jobID string, attemptCount int, lastError string, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&jobModel{}).
		Where("id = ?", strings.TrimSpace(jobID)).
		Updates(map[string]any{
			"status":        string(entities.JobStatusFailed),
			"attempt_count": attemptCount,
			"last_error":    lastError,
			"finished_at":   now,
			"updated_at":    now,
		}).
		Error
	if err != nil {
		return r.logError("production_repo_fail_job_failed", err, "job_id", jobID)
	}
	return nil
}

func (r *Repository) ListJobsBySeries(ctx context.Context, seriesID string) ([]entities.ProductionJob, error) {
	var rows []jobModel
	err := r.db.WithContext(ctx).
		Where("series_id = ?", strings.TrimSpace(seriesID)).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("production_repo_list_series_jobs_failed", err, "series_id", seriesID)
	}
	items := make([]entities.ProductionJob, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListStuckJobs(ctx context.Context, olderThan time.Time) ([]entities.ProductionJob, error) {
	var rows []jobModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND started_at IS NOT NULL AND started_at < ?",
			string(entities.JobStatusProcessing), olderThan).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("production_repo_list_stuck_jobs_failed", err)
	}
	items := make([]entities.ProductionJob, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// --- EventDedupStore ---

func (r *Repository) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	row := dedupModel{
		EventID:     eventID,
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return true, nil
		}
		return false, r.logError("production_repo_reserve_event_failed", err, "event_id", eventID)
	}
	return false, nil
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
		return r.logError("production_repo_append_outbox_failed", err, "event_id", event.EventID)
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
		return nil, r.logError("production_repo_list_outbox_failed", err)
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
		return r.logError("production_repo_mark_outbox_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func toEpisodeEntities(rows []episodeModel) ([]entities.Episode, error) {
	items := make([]entities.Episode, 0, len(rows))
	for _, row := range rows {
		episode, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, episode)
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "production/series-production",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("series production repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
