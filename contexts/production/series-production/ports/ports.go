package ports

import (
	"context"
	"io"
	"time"

	"showrunner/contexts/production/series-production/domain/entities"
	"showrunner/internal/shared/events"
	"showrunner/internal/shared/outbox"
)

type SeriesRepository interface {
	// CreateSeries inserts a series guarded by a unique script_id. A second
	// insert for the same script surfaces ErrConflict.
	CreateSeries(ctx context.Context, series entities.Series) error
	GetSeries(ctx context.Context, seriesID string) (entities.Series, error)
	GetSeriesByScript(ctx context.Context, scriptID string) (entities.Series, bool, error)
	UpdateSeriesStatus(ctx context.Context, seriesID string, status entities.SeriesStatus, episodeCount int, completedAt *time.Time, now time.Time) error
}

type EpisodeRepository interface {
	CreateEpisode(ctx context.Context, episode entities.Episode) error
	GetEpisode(ctx context.Context, episodeID string) (entities.Episode, error)
	ListEpisodesBySeries(ctx context.Context, seriesID string) ([]entities.Episode, error)
	ListEpisodesInClipVoting(ctx context.Context, now time.Time) ([]entities.Episode, error)
	UpdateEpisodeStatus(ctx context.Context, episodeID string, status entities.EpisodeStatus, now time.Time) error
	// OpenClipWindow moves the episode to clip_voting and stamps the window end.
	OpenClipWindow(ctx context.Context, episodeID string, endsAt time.Time, now time.Time) error
	// SetFinalVideo records the playable URL and moves the episode to
	// clip_selected in one write.
	SetFinalVideo(ctx context.Context, episodeID string, videoURL string, now time.Time) error
	SetNarrationAudio(ctx context.Context, episodeID string, audioURL string, now time.Time) error
	// ReplaceFinalVideo swaps the playable URL without touching status, for
	// post-selection finalization.
	ReplaceFinalVideo(ctx context.Context, episodeID string, videoURL string, now time.Time) error
}

type VariantRepository interface {
	// UpsertVariant writes the variant keyed by (episode_id, variant_number)
	// so regeneration overwrites the previous render.
	UpsertVariant(ctx context.Context, variant entities.ClipVariant) error
	GetVariant(ctx context.Context, variantID string) (entities.ClipVariant, error)
	ListVariantsByEpisode(ctx context.Context, episodeID string) ([]entities.ClipVariant, error)
	MarkVariantSelected(ctx context.Context, variantID string, now time.Time) error
}

// ClipVoteRepository owns clip-vote rows and the variant tallies. Transfer
// moves a voter's single vote between variants in one transaction.
type ClipVoteRepository interface {
	GetClipVoteByIdentity(ctx context.Context, episodeID string, voterKind entities.VoterKind, voterID string) (entities.ClipVote, bool, error)
	InsertClipVote(ctx context.Context, vote entities.ClipVote) error
	TransferClipVote(ctx context.Context, vote entities.ClipVote, fromVariantID string, now time.Time) error
}

type JobRepository interface {
	// CreateJob inserts a job guarded by a unique (episode_id, job_type).
	CreateJob(ctx context.Context, job entities.ProductionJob) error
	GetJob(ctx context.Context, jobID string) (entities.ProductionJob, error)
	// ListReadyJobs returns pending jobs with available_at <= now ordered by
	// priority desc, available_at asc, created_at asc.
	ListReadyJobs(ctx context.Context, now time.Time, limit int) ([]entities.ProductionJob, error)
	// ClaimJob conditionally flips pending to processing and stamps
	// started_at. Reports whether this caller won the claim.
	ClaimJob(ctx context.Context, jobID string, now time.Time) (bool, error)
	CompleteJob(ctx context.Context, jobID string, now time.Time) error
	// RescheduleJob returns a processing job to pending with the next
	// available_at and the incremented attempt count.
	RescheduleJob(ctx context.Context, jobID string, attemptCount int, availableAt time.Time, lastError string, now time.Time) error
	FailJob(ctx context.Context, jobID string, attemptCount int, lastError string, now time.Time) error
	ListJobsBySeries(ctx context.Context, seriesID string) ([]entities.ProductionJob, error)
	// ListStuckJobs returns processing jobs whose started_at is older than
	// the threshold.
	ListStuckJobs(ctx context.Context, olderThan time.Time) ([]entities.ProductionJob, error)
}

// VideoGenerator renders one clip for one prompt. Implementations own their
// HTTP timeouts; callers treat any error as transient.
type VideoGenerator interface {
	Generate(ctx context.Context, prompt string, seed int64) (entities.GeneratedClip, error)
}

// PromptRefiner is optional: callers fall back to the raw prompt on error.
type PromptRefiner interface {
	Refine(ctx context.Context, prompt string) (string, error)
}

// NarrationSynthesizer is optional: narration failures never fail a job.
type NarrationSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader, size int64) (entities.StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Exists reports whether the key already holds an object.
	Exists(ctx context.Context, key string) (bool, error)
	// URLFor derives the public URL an object at key would be served from.
	URLFor(key string) string
}

// MediaDownloader fetches previously stored media by URL for local work.
type MediaDownloader interface {
	Download(ctx context.Context, url string) (string, error)
}

// MediaMuxer combines a video file and a narration audio file into one
// output file on disk.
type MediaMuxer interface {
	Mux(ctx context.Context, videoPath string, audioPath string, outputPath string) error
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

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(ctx context.Context, event events.Envelope) error) error
}

// EventDedupStore reserves event IDs for at-least-once consumers. ReserveEvent
// reports true when the event was already processed.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
