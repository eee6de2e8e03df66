package commands

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "showrunner/contexts/production/series-production/application"
	"showrunner/contexts/production/series-production/domain/entities"
	"showrunner/contexts/production/series-production/ports"
)

const lastErrorLimit = 500

// pilotStyles are the stylistic treatments applied to the base prompt to
// produce the four pilot variants voters choose between.
var pilotStyles = [entities.PilotVariantCount]string{
	"cinematic lighting, 35mm film grain",
	"vibrant stylized animation",
	"moody noir palette, high contrast",
	"handheld documentary realism",
}

// WorkerUseCase drains the production job queue. Jobs are claimed with a
// conditional status flip so concurrent workers never process the same job.
type WorkerUseCase struct {
	Jobs     ports.JobRepository
	Episodes ports.EpisodeRepository
	Variants ports.VariantRepository
	Series   ports.SeriesRepository

	Video     ports.VideoGenerator
	Refiner   ports.PromptRefiner
	Narration ports.NarrationSynthesizer
	Store     ports.ObjectStore

	Reconciler ReconcilerUseCase
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator

	ClipWindow  time.Duration
	BackoffBase time.Duration
	BackoffCap  time.Duration
	Logger      *slog.Logger
}

// ProcessQueuedJobs claims and runs up to maxJobs ready jobs within
// maxRuntime. Claim losers are skipped silently; they were taken by a
// concurrent worker.
func (uc WorkerUseCase) ProcessQueuedJobs(ctx context.Context, maxJobs int, maxRuntime time.Duration) error {
	logger := application.ResolveLogger(uc.Logger)
	if maxJobs <= 0 {
		maxJobs = 5
	}
	if maxRuntime <= 0 {
		maxRuntime = 10 * time.Minute
	}
	started := uc.now()
	deadline := started.Add(maxRuntime)

	ready, err := uc.Jobs.ListReadyJobs(ctx, started, maxJobs)
	if err != nil {
		logger.Error("job queue listing failed",
			"event", "production_jobs_list_failed",
			"module", "production/series-production",
			"layer", "application",
			"error", err.Error(),
		)
		return err
	}

	handlers := map[entities.JobType]func(context.Context, entities.ProductionJob) error{
		entities.JobTypePilotVariants: uc.runPilotVariants,
		entities.JobTypeEpisodeSingle: uc.runEpisodeSingle,
	}

	for _, job := range ready {
		if uc.now().After(deadline) {
			logger.Info("job drain stopped at runtime budget",
				"event", "production_jobs_runtime_budget",
				"module", "production/series-production",
				"layer", "application",
				"deadline", deadline.Format(time.RFC3339),
			)
			break
		}
		won, err := uc.Jobs.ClaimJob(ctx, job.JobID, uc.now())
		if err != nil {
			return err
		}
		if !won {
			continue
		}

		handler, ok := handlers[job.Type]
		if !ok {
			// Unknown job types are permanent failures; retrying cannot help.
			if err := uc.failPermanently(ctx, job, fmt.Sprintf("unknown job type %q", job.Type)); err != nil {
				return err
			}
			continue
		}

		if runErr := handler(ctx, job); runErr != nil {
			if err := uc.handleFailure(ctx, job, runErr); err != nil {
				return err
			}
			continue
		}
		if err := uc.Jobs.CompleteJob(ctx, job.JobID, uc.now()); err != nil {
			return err
		}
		if err := uc.Reconciler.Reconcile(ctx, job.SeriesID); err != nil {
			return err
		}
		logger.Info("production job completed",
			"event", "production_job_completed",
			"module", "production/series-production",
			"layer", "application",
			"job_id", job.JobID,
			"job_type", string(job.Type),
			"episode_id", job.EpisodeID,
		)
	}
	return nil
}

// runPilotVariants renders four stylistic variants of the pilot episode and
// opens the clip voting window once all four are stored.
func (uc WorkerUseCase) runPilotVariants(ctx context.Context, job entities.ProductionJob) error {
	logger := application.ResolveLogger(uc.Logger)

	episode, err := uc.Episodes.GetEpisode(ctx, job.EpisodeID)
	if err != nil {
		return err
	}
	now := uc.now()
	if err := uc.Episodes.UpdateEpisodeStatus(ctx, episode.EpisodeID, entities.EpisodeStatusGenerating, now); err != nil {
		return err
	}

	basePrompt := uc.buildPrompt(episode)
	refined := uc.refinePrompt(ctx, basePrompt)

	for variantNumber := 1; variantNumber <= entities.PilotVariantCount; variantNumber++ {
		prompt := fmt.Sprintf("%s, %s", refined, pilotStyles[variantNumber-1])
		seed := uc.now().UnixNano() + int64(variantNumber)

		clip, err := uc.Video.Generate(ctx, prompt, seed)
		if err != nil {
			return fmt.Errorf("generate variant %d: %w", variantNumber, err)
		}
		key := fmt.Sprintf("episodes/%s/variant-%d", episode.EpisodeID, variantNumber)
		stored, err := uc.Store.Put(ctx, key, "video/mp4", bytes.NewReader(clip.Video), int64(len(clip.Video)))
		if err != nil {
			return fmt.Errorf("store variant %d: %w", variantNumber, err)
		}

		variantID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		stamp := uc.now()
		variant := entities.ClipVariant{
			VariantID:     variantID,
			EpisodeID:     episode.EpisodeID,
			VariantNumber: variantNumber,
			Prompt:        prompt,
			VideoURL:      stored.URL,
			Seed:          clip.Seed,
			Model:         clip.Model,
			CreatedAt:     stamp,
			UpdatedAt:     stamp,
		}
		if err := uc.Variants.UpsertVariant(ctx, variant); err != nil {
			return fmt.Errorf("upsert variant %d: %w", variantNumber, err)
		}
	}

	endsAt := uc.now().Add(uc.clipWindow())
	if err := uc.Episodes.OpenClipWindow(ctx, episode.EpisodeID, endsAt, uc.now()); err != nil {
		return err
	}
	logger.Info("pilot variants ready, clip window opened",
		"event", "production_pilot_variants_ready",
		"module", "production/series-production",
		"layer", "application",
		"episode_id", episode.EpisodeID,
		"window_ends_at", endsAt.Format(time.RFC3339),
	)

	uc.synthesizeNarration(ctx, episode)
	return nil
}

// runEpisodeSingle renders one clip and marks the episode playable directly;
// non-pilot episodes skip clip voting.
func (uc WorkerUseCase) runEpisodeSingle(ctx context.Context, job entities.ProductionJob) error {
	episode, err := uc.Episodes.GetEpisode(ctx, job.EpisodeID)
	if err != nil {
		return err
	}
	now := uc.now()
	if err := uc.Episodes.UpdateEpisodeStatus(ctx, episode.EpisodeID, entities.EpisodeStatusGenerating, now); err != nil {
		return err
	}

	prompt := uc.refinePrompt(ctx, uc.buildPrompt(episode))
	seed := uc.now().UnixNano()

	clip, err := uc.Video.Generate(ctx, prompt, seed)
	if err != nil {
		return fmt.Errorf("generate episode clip: %w", err)
	}
	key := fmt.Sprintf("episodes/%s/variant-1", episode.EpisodeID)
	stored, err := uc.Store.Put(ctx, key, "video/mp4", bytes.NewReader(clip.Video), int64(len(clip.Video)))
	if err != nil {
		return fmt.Errorf("store episode clip: %w", err)
	}

	variantID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	stamp := uc.now()
	variant := entities.ClipVariant{
		VariantID:     variantID,
		EpisodeID:     episode.EpisodeID,
		VariantNumber: 1,
		Prompt:        prompt,
		VideoURL:      stored.URL,
		Seed:          clip.Seed,
		Model:         clip.Model,
		IsSelected:    true,
		CreatedAt:     stamp,
		UpdatedAt:     stamp,
	}
	if err := uc.Variants.UpsertVariant(ctx, variant); err != nil {
		return err
	}
	if err := uc.Episodes.SetFinalVideo(ctx, episode.EpisodeID, stored.URL, uc.now()); err != nil {
		return err
	}

	uc.synthesizeNarration(ctx, episode)
	return nil
}

// synthesizeNarration is best effort. A narration failure never fails the
// job; the finalizer simply skips muxing until audio exists.
func (uc WorkerUseCase) synthesizeNarration(ctx context.Context, episode entities.Episode) {
	logger := application.ResolveLogger(uc.Logger)
	text := strings.TrimSpace(episode.Plan.NarrationText)
	if uc.Narration == nil || text == "" {
		return
	}
	audio, err := uc.Narration.Synthesize(ctx, text)
	if err != nil {
		logger.Warn("narration synthesis failed",
			"event", "production_narration_failed",
			"module", "production/series-production",
			"layer", "application",
			"episode_id", episode.EpisodeID,
			"error", err.Error(),
		)
		return
	}
	key := fmt.Sprintf("episodes/%s/narration", episode.EpisodeID)
	stored, err := uc.Store.Put(ctx, key, "audio/mpeg", bytes.NewReader(audio), int64(len(audio)))
	if err != nil {
		logger.Warn("narration upload failed",
			"event", "production_narration_upload_failed",
			"module", "production/series-production",
			"layer", "application",
			"episode_id", episode.EpisodeID,
			"error", err.Error(),
		)
		return
	}
	if err := uc.Episodes.SetNarrationAudio(ctx, episode.EpisodeID, stored.URL, uc.now()); err != nil {
		logger.Warn("narration url persist failed",
			"event", "production_narration_persist_failed",
			"module", "production/series-production",
			"layer", "application",
			"episode_id", episode.EpisodeID,
			"error", err.Error(),
		)
	}
}

func (uc WorkerUseCase) buildPrompt(episode entities.Episode) string {
	parts := []string{episode.Plan.Beat}
	if episode.Plan.SceneDirection != "" {
		parts = append(parts, episode.Plan.SceneDirection)
	}
	if episode.Plan.CameraDirection != "" {
		parts = append(parts, episode.Plan.CameraDirection)
	}
	return strings.Join(parts, ". ")
}

// refinePrompt is optional; any refiner error falls back to the raw prompt.
func (uc WorkerUseCase) refinePrompt(ctx context.Context, prompt string) string {
	if uc.Refiner == nil {
		return prompt
	}
	refined, err := uc.Refiner.Refine(ctx, prompt)
	if err != nil || strings.TrimSpace(refined) == "" {
		application.ResolveLogger(uc.Logger).Warn("prompt refinement failed, using raw prompt",
			"event", "production_prompt_refine_failed",
			"module", "production/series-production",
			"layer", "application",
		)
		return prompt
	}
	return refined
}

// handleFailure reschedules the job with capped exponential backoff, or goes
// terminal once attempts are exhausted. A failed pilot fails the whole
// series; a failed non-pilot fails only its episode.
func (uc WorkerUseCase) handleFailure(ctx context.Context, job entities.ProductionJob, runErr error) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()
	attempt := job.AttemptCount + 1
	lastError := truncateError(runErr.Error())

	if attempt >= uc.maxAttempts(job) {
		return uc.failPermanentlyWithAttempt(ctx, job, attempt, lastError)
	}

	availableAt := now.Add(uc.backoff(attempt))
	if err := uc.Jobs.RescheduleJob(ctx, job.JobID, attempt, availableAt, lastError, now); err != nil {
		return err
	}
	if err := uc.Episodes.UpdateEpisodeStatus(ctx, job.EpisodeID, entities.EpisodeStatusPending, now); err != nil {
		return err
	}
	logger.Warn("production job rescheduled",
		"event", "production_job_rescheduled",
		"module", "production/series-production",
		"layer", "application",
		"job_id", job.JobID,
		"job_type", string(job.Type),
		"attempt", attempt,
		"available_at", availableAt.Format(time.RFC3339),
		"error", lastError,
	)
	return nil
}

func (uc WorkerUseCase) failPermanently(ctx context.Context, job entities.ProductionJob, lastError string) error {
	return uc.failPermanentlyWithAttempt(ctx, job, job.AttemptCount+1, lastError)
}

func (uc WorkerUseCase) failPermanentlyWithAttempt(ctx context.Context, job entities.ProductionJob, attempt int, lastError string) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()

	if err := uc.Jobs.FailJob(ctx, job.JobID, attempt, lastError, now); err != nil {
		return err
	}
	if err := uc.Episodes.UpdateEpisodeStatus(ctx, job.EpisodeID, entities.EpisodeStatusFailed, now); err != nil {
		return err
	}
	if job.Type == entities.JobTypePilotVariants {
		// Without a pilot there is nothing to vote on and nothing to launch.
		if err := uc.Series.UpdateSeriesStatus(ctx, job.SeriesID, entities.SeriesStatusFailed, 0, nil, now); err != nil {
			return err
		}
		if err := uc.emitSeriesFailed(ctx, job, lastError, now); err != nil {
			return err
		}
	}
	if err := uc.Reconciler.Reconcile(ctx, job.SeriesID); err != nil {
		return err
	}
	logger.Error("production job failed permanently",
		"event", "production_job_failed",
		"module", "production/series-production",
		"layer", "application",
		"job_id", job.JobID,
		"job_type", string(job.Type),
		"episode_id", job.EpisodeID,
		"attempts", attempt,
		"error", lastError,
	)
	return nil
}

func (uc WorkerUseCase) emitSeriesFailed(ctx context.Context, job entities.ProductionJob, lastError string, now time.Time) error {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newProductionEnvelope(eventID, TopicSeriesFailed, job.SeriesID, now, map[string]any{
		"series_id":   job.SeriesID,
		"episode_id":  job.EpisodeID,
		"job_id":      job.JobID,
		"reason":      lastError,
		"occurred_at": now.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

// backoff grows 1m, 2m, 4m, ... capped at 30m unless configured otherwise.
func (uc WorkerUseCase) backoff(attempt int) time.Duration {
	base := uc.BackoffBase
	if base <= 0 {
		base = time.Minute
	}
	limit := uc.BackoffCap
	if limit <= 0 {
		limit = 30 * time.Minute
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= limit {
			return limit
		}
	}
	if delay > limit {
		return limit
	}
	return delay
}

func (uc WorkerUseCase) maxAttempts(job entities.ProductionJob) int {
	if job.MaxAttempts > 0 {
		return job.MaxAttempts
	}
	return 3
}

func (uc WorkerUseCase) clipWindow() time.Duration {
	if uc.ClipWindow <= 0 {
		return 24 * time.Hour
	}
	return uc.ClipWindow
}

func (uc WorkerUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func truncateError(message string) string {
	if len(message) <= lastErrorLimit {
		return message
	}
	return message[:lastErrorLimit]
}
