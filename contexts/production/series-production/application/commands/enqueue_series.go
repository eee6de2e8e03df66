package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "showrunner/contexts/production/series-production/application"
	"showrunner/contexts/production/series-production/domain/entities"
	domainerrors "showrunner/contexts/production/series-production/domain/errors"
	"showrunner/contexts/production/series-production/ports"
)

// SeriesPlanInput carries the selected script's five-episode plan into
// dispatch. One entry per episode number 1..5.
type SeriesPlanInput struct {
	EpisodeNumber   int    `json:"episode_number"`
	Beat            string `json:"beat"`
	SceneDirection  string `json:"scene_direction"`
	CameraDirection string `json:"camera_direction"`
	NarrationText   string `json:"narration_text"`
}

type EnqueueSeriesCommand struct {
	ScriptID string
	GroupID  string
	Title    string
	Plan     []SeriesPlanInput
}

type EnqueueSeriesResult struct {
	Series       entities.Series
	EpisodeIDs   []string
	JobsEnqueued int
	Replayed     bool // a series for this script already existed
}

// DispatcherUseCase expands one selected script into a full production run:
// one series, five episodes with plan snapshots, and five queued jobs.
type DispatcherUseCase struct {
	Series   ports.SeriesRepository
	Episodes ports.EpisodeRepository
	Jobs     ports.JobRepository
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator

	MaxAttempts   int
	PilotPriority int
	Logger        *slog.Logger
}

// EnqueueSeries is idempotent per script. A replayed call observes the
// existing series and enqueues nothing. The pilot episode gets a
// pilot_variants job; episodes 2..5 get episode_single jobs.
func (uc DispatcherUseCase) EnqueueSeries(ctx context.Context, cmd EnqueueSeriesCommand) (EnqueueSeriesResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	scriptID := strings.TrimSpace(cmd.ScriptID)
	if scriptID == "" || len(cmd.Plan) != entities.EpisodesPerSeries {
		logger.Warn("series enqueue validation failed",
			"event", "series_enqueue_validation_failed",
			"module", "production/series-production",
			"layer", "application",
			"script_id", scriptID,
			"plan_entries", len(cmd.Plan),
		)
		return EnqueueSeriesResult{}, domainerrors.ErrInvalidEnqueueInput
	}
	for index, beat := range cmd.Plan {
		if beat.EpisodeNumber != index+1 || strings.TrimSpace(beat.Beat) == "" {
			return EnqueueSeriesResult{}, domainerrors.ErrInvalidEnqueueInput
		}
	}

	existing, found, err := uc.Series.GetSeriesByScript(ctx, scriptID)
	if err != nil {
		return EnqueueSeriesResult{}, err
	}
	if found {
		logger.Info("series enqueue replayed",
			"event", "series_enqueue_replayed",
			"module", "production/series-production",
			"layer", "application",
			"script_id", scriptID,
			"series_id", existing.SeriesID,
		)
		return EnqueueSeriesResult{Series: existing, Replayed: true}, nil
	}

	now := uc.now()
	seriesID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return EnqueueSeriesResult{}, err
	}
	series := entities.Series{
		SeriesID:  seriesID,
		ScriptID:  scriptID,
		GroupID:   strings.TrimSpace(cmd.GroupID),
		Title:     strings.TrimSpace(cmd.Title),
		Status:    entities.SeriesStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.Series.CreateSeries(ctx, series); err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			// A concurrent dispatch won the unique script_id. Observe it.
			winner, _, lookupErr := uc.Series.GetSeriesByScript(ctx, scriptID)
			if lookupErr != nil {
				return EnqueueSeriesResult{}, lookupErr
			}
			return EnqueueSeriesResult{Series: winner, Replayed: true}, nil
		}
		return EnqueueSeriesResult{}, err
	}

	episodeIDs := make([]string, 0, entities.EpisodesPerSeries)
	jobsEnqueued := 0
	for index, beat := range cmd.Plan {
		episodeNumber := index + 1
		episodeID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return EnqueueSeriesResult{}, err
		}
		episode := entities.Episode{
			EpisodeID:     episodeID,
			SeriesID:      seriesID,
			EpisodeNumber: episodeNumber,
			Status:        entities.EpisodeStatusPending,
			Plan: entities.BeatSheet{
				Beat:            strings.TrimSpace(beat.Beat),
				SceneDirection:  strings.TrimSpace(beat.SceneDirection),
				CameraDirection: strings.TrimSpace(beat.CameraDirection),
				NarrationText:   strings.TrimSpace(beat.NarrationText),
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := uc.Episodes.CreateEpisode(ctx, episode); err != nil {
			return EnqueueSeriesResult{}, err
		}
		episodeIDs = append(episodeIDs, episodeID)

		enqueued, err := uc.enqueueJob(ctx, seriesID, episodeID, episodeNumber, now)
		if err != nil {
			return EnqueueSeriesResult{}, err
		}
		if enqueued {
			jobsEnqueued++
		}
	}

	if jobsEnqueued > 0 {
		if err := uc.Series.UpdateSeriesStatus(ctx, seriesID, entities.SeriesStatusProducing, 0, nil, now); err != nil {
			return EnqueueSeriesResult{}, err
		}
		series.Status = entities.SeriesStatusProducing
	}

	if err := uc.emitQueued(ctx, series, jobsEnqueued, now); err != nil {
		return EnqueueSeriesResult{}, err
	}

	logger.Info("series enqueued",
		"event", "series_enqueued",
		"module", "production/series-production",
		"layer", "application",
		"script_id", scriptID,
		"series_id", seriesID,
		"episodes", len(episodeIDs),
		"jobs_enqueued", jobsEnqueued,
	)
	return EnqueueSeriesResult{
		Series:       series,
		EpisodeIDs:   episodeIDs,
		JobsEnqueued: jobsEnqueued,
	}, nil
}

func (uc DispatcherUseCase) enqueueJob(ctx context.Context, seriesID string, episodeID string, episodeNumber int, now time.Time) (bool, error) {
	jobID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return false, err
	}
	jobType := entities.JobTypeEpisodeSingle
	priority := 0
	if episodeNumber == 1 {
		jobType = entities.JobTypePilotVariants
		priority = uc.pilotPriority()
	}
	maxAttempts := uc.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	job := entities.ProductionJob{
		JobID:       jobID,
		SeriesID:    seriesID,
		EpisodeID:   episodeID,
		Type:        jobType,
		Status:      entities.JobStatusPending,
		Priority:    priority,
		MaxAttempts: maxAttempts,
		AvailableAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Jobs.CreateJob(ctx, job); err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			// The (episode_id, job_type) guard caught a double enqueue.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (uc DispatcherUseCase) emitQueued(ctx context.Context, series entities.Series, jobsEnqueued int, now time.Time) error {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newProductionEnvelope(eventID, TopicSeriesQueued, series.SeriesID, now, map[string]any{
		"series_id":     series.SeriesID,
		"script_id":     series.ScriptID,
		"group_id":      series.GroupID,
		"title":         series.Title,
		"jobs_enqueued": jobsEnqueued,
		"occurred_at":   now.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc DispatcherUseCase) pilotPriority() int {
	if uc.PilotPriority <= 0 {
		return 10
	}
	return uc.PilotPriority
}

func (uc DispatcherUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
