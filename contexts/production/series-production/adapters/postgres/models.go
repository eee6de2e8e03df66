package postgresadapter

import (
	"encoding/json"
	"time"

	"showrunner/contexts/production/series-production/domain/entities"
)

type seriesModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	ScriptID     string     `gorm:"column:script_id;uniqueIndex:ux_series_script"`
	GroupID      string     `gorm:"column:group_id;index"`
	Title        string     `gorm:"column:title"`
	Status       string     `gorm:"column:status;index"`
	EpisodeCount int        `gorm:"column:episode_count"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (seriesModel) TableName() string {
	return "series"
}

func (m seriesModel) toEntity() entities.Series {
	return entities.Series{
		SeriesID:     m.ID,
		ScriptID:     m.ScriptID,
		GroupID:      m.GroupID,
		Title:        m.Title,
		Status:       entities.SeriesStatus(m.Status),
		EpisodeCount: m.EpisodeCount,
		CompletedAt:  m.CompletedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func seriesModelFromEntity(series entities.Series) seriesModel {
	return seriesModel{
		ID:           series.SeriesID,
		ScriptID:     series.ScriptID,
		GroupID:      series.GroupID,
		Title:        series.Title,
		Status:       string(series.Status),
		EpisodeCount: series.EpisodeCount,
		CompletedAt:  series.CompletedAt,
		CreatedAt:    series.CreatedAt,
		UpdatedAt:    series.UpdatedAt,
	}
}

type episodeModel struct {
	ID                string     `gorm:"column:id;primaryKey"`
	SeriesID          string     `gorm:"column:series_id;index"`
	EpisodeNumber     int        `gorm:"column:episode_number"`
	Status            string     `gorm:"column:status;index"`
	Plan              []byte     `gorm:"column:plan;type:jsonb"`
	FinalVideoURL     string     `gorm:"column:final_video_url"`
	NarrationAudioURL string     `gorm:"column:narration_audio_url"`
	ClipVotingEndsAt  *time.Time `gorm:"column:clip_voting_ends_at;index"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (episodeModel) TableName() string {
	return "episodes"
}

func (m episodeModel) toEntity() (entities.Episode, error) {
	var plan entities.BeatSheet
	if len(m.Plan) > 0 {
		if err := json.Unmarshal(m.Plan, &plan); err != nil {
			return entities.Episode{}, err
		}
	}
	return entities.Episode{
		EpisodeID:         m.ID,
		SeriesID:          m.SeriesID,
		EpisodeNumber:     m.EpisodeNumber,
		Status:            entities.EpisodeStatus(m.Status),
		Plan:              plan,
		FinalVideoURL:     m.FinalVideoURL,
		NarrationAudioURL: m.NarrationAudioURL,
		ClipVotingEndsAt:  m.ClipVotingEndsAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}

func episodeModelFromEntity(episode entities.Episode) (episodeModel, error) {
	plan, err := json.Marshal(episode.Plan)
	if err != nil {
		return episodeModel{}, err
	}
	return episodeModel{
		ID:                episode.EpisodeID,
		SeriesID:          episode.SeriesID,
		EpisodeNumber:     episode.EpisodeNumber,
		Status:            string(episode.Status),
		Plan:              plan,
		FinalVideoURL:     episode.FinalVideoURL,
		NarrationAudioURL: episode.NarrationAudioURL,
		ClipVotingEndsAt:  episode.ClipVotingEndsAt,
		CreatedAt:         episode.CreatedAt,
		UpdatedAt:         episode.UpdatedAt,
	}, nil
}

type variantModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	EpisodeID     string    `gorm:"column:episode_id;uniqueIndex:ux_variants_episode_number"`
	VariantNumber int       `gorm:"column:variant_number;uniqueIndex:ux_variants_episode_number"`
	Prompt        string    `gorm:"column:prompt"`
	VideoURL      string    `gorm:"column:video_url"`
	Seed          int64     `gorm:"column:seed"`
	Model         string    `gorm:"column:model"`
	VoteCount     int       `gorm:"column:vote_count"`
	IsSelected    bool      `gorm:"column:is_selected"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (variantModel) TableName() string {
	return "clip_variants"
}

func (m variantModel) toEntity() entities.ClipVariant {
	return entities.ClipVariant{
		VariantID:     m.ID,
		EpisodeID:     m.EpisodeID,
		VariantNumber: m.VariantNumber,
		Prompt:        m.Prompt,
		VideoURL:      m.VideoURL,
		Seed:          m.Seed,
		Model:         m.Model,
		VoteCount:     m.VoteCount,
		IsSelected:    m.IsSelected,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func variantModelFromEntity(variant entities.ClipVariant) variantModel {
	return variantModel{
		ID:            variant.VariantID,
		EpisodeID:     variant.EpisodeID,
		VariantNumber: variant.VariantNumber,
		Prompt:        variant.Prompt,
		VideoURL:      variant.VideoURL,
		Seed:          variant.Seed,
		Model:         variant.Model,
		VoteCount:     variant.VoteCount,
		IsSelected:    variant.IsSelected,
		CreatedAt:     variant.CreatedAt,
		UpdatedAt:     variant.UpdatedAt,
	}
}

type clipVoteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	EpisodeID string    `gorm:"column:episode_id;uniqueIndex:ux_clip_votes_identity"`
	VariantID string    `gorm:"column:variant_id;index"`
	VoterKind string    `gorm:"column:voter_kind;uniqueIndex:ux_clip_votes_identity"`
	VoterID   string    `gorm:"column:voter_id;uniqueIndex:ux_clip_votes_identity"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (clipVoteModel) TableName() string {
	return "clip_votes"
}

func (m clipVoteModel) toEntity() entities.ClipVote {
	return entities.ClipVote{
		VoteID:    m.ID,
		EpisodeID: m.EpisodeID,
		VariantID: m.VariantID,
		VoterKind: entities.VoterKind(m.VoterKind),
		VoterID:   m.VoterID,
		CreatedAt: m.CreatedAt,
	}
}

type jobModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	SeriesID     string     `gorm:"column:series_id;index"`
	EpisodeID    string     `gorm:"column:episode_id;uniqueIndex:ux_jobs_episode_type"`
	JobType      string     `gorm:"column:job_type;uniqueIndex:ux_jobs_episode_type"`
	Status       string     `gorm:"column:status;index"`
	Priority     int        `gorm:"column:priority"`
	AttemptCount int        `gorm:"column:attempt_count"`
	MaxAttempts  int        `gorm:"column:max_attempts"`
	AvailableAt  time.Time  `gorm:"column:available_at;index"`
	StartedAt    *time.Time `gorm:"column:started_at"`
	FinishedAt   *time.Time `gorm:"column:finished_at"`
	LastError    string     `gorm:"column:last_error"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (jobModel) TableName() string {
	return "production_jobs"
}

func (m jobModel) toEntity() entities.ProductionJob {
	return entities.ProductionJob{
		JobID:        m.ID,
		SeriesID:     m.SeriesID,
		EpisodeID:    m.EpisodeID,
		Type:         entities.JobType(m.JobType),
		Status:       entities.JobStatus(m.Status),
		Priority:     m.Priority,
		AttemptCount: m.AttemptCount,
		MaxAttempts:  m.MaxAttempts,
		AvailableAt:  m.AvailableAt,
		StartedAt:    m.StartedAt,
		FinishedAt:   m.FinishedAt,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func jobModelFromEntity(job entities.ProductionJob) jobModel {
	return jobModel{
		ID:           job.JobID,
		SeriesID:     job.SeriesID,
		EpisodeID:    job.EpisodeID,
		JobType:      string(job.Type),
		Status:       string(job.Status),
		Priority:     job.Priority,
		AttemptCount: job.AttemptCount,
		MaxAttempts:  job.MaxAttempts,
		AvailableAt:  job.AvailableAt,
		StartedAt:    job.StartedAt,
		FinishedAt:   job.FinishedAt,
		LastError:    job.LastError,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}

type dedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (dedupModel) TableName() string {
	return "series_production_event_dedup"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "series_production_outbox"
}

// Models lists every gorm model this adapter owns, for platform migration.
func Models() []any {
	return []any{
		&seriesModel{},
		&episodeModel{},
		&variantModel{},
		&clipVoteModel{},
		&jobModel{},
		&dedupModel{},
		&outboxModel{},
	}
}
