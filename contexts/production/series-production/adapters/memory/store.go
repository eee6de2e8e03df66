package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"showrunner/contexts/production/series-production/domain/entities"
	domainerrors "showrunner/contexts/production/series-production/domain/errors"
	"showrunner/internal/shared/events"
	"showrunner/internal/shared/outbox"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing tests and local runs. It implements
// every series-production repository and dedup port with the same claim and
// uniqueness semantics the postgres adapter provides.
type Store struct {
	mu sync.RWMutex

	series    map[string]entities.Series
	episodes  map[string]entities.Episode
	variants  map[string]entities.ClipVariant
	clipVotes map[string]entities.ClipVote // key: episodeID|voterKind|voterID
	jobs      map[string]entities.ProductionJob
	dedup     map[string]time.Time
	outbox    []outboxRecord

	now *time.Time
}

type outboxRecord struct {
	message   outbox.Message
	published bool
}

func NewStore() *Store {
	return &Store{
		series:    make(map[string]entities.Series),
		episodes:  make(map[string]entities.Episode),
		variants:  make(map[string]entities.ClipVariant),
		clipVotes: make(map[string]entities.ClipVote),
		jobs:      make(map[string]entities.ProductionJob),
		dedup:     make(map[string]time.Time),
	}
}

// SetNow pins the store clock for deterministic tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := now.UTC()
	s.now = &pinned
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now != nil {
		return *s.now
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func clipVoteKey(episodeID string, voterKind entities.VoterKind, voterID string) string {
	return episodeID + "|" + string(voterKind) + "|" + voterID
}

// --- SeriesRepository ---

func (s *Store) CreateSeries(_ context.Context, series entities.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.series {
		if existing.ScriptID == series.ScriptID {
			return domainerrors.ErrConflict
		}
	}
	if _, exists := s.series[series.SeriesID]; exists {
		return domainerrors.ErrConflict
	}
	s.series[series.SeriesID] = series
	return nil
}

func (s *Store) GetSeries(_ context.Context, seriesID string) (entities.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.series[seriesID]
	if !ok {
		return entities.Series{}, domainerrors.ErrSeriesNotFound
	}
	return series, nil
}

func (s *Store) GetSeriesByScript(_ context.Context, scriptID string) (entities.Series, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, series := range s.series {
		if series.ScriptID == scriptID {
			return series, true, nil
		}
	}
	return entities.Series{}, false, nil
}

func (s *Store) UpdateSeriesStatus(_ context.Context, seriesID string, status entities.SeriesStatus, episodeCount int, completedAt *time.Time, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	series, ok := s.series[seriesID]
	if !ok {
		return domainerrors.ErrSeriesNotFound
	}
	series.Status = status
	series.EpisodeCount = episodeCount
	if completedAt != nil && series.CompletedAt == nil {
		series.CompletedAt = completedAt
	}
	series.UpdatedAt = now
	s.series[seriesID] = series
	return nil
}

// --- EpisodeRepository ---

func (s *Store) CreateEpisode(_ context.Context, episode entities.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.episodes[episode.EpisodeID]; exists {
		return domainerrors.ErrConflict
	}
	s.episodes[episode.EpisodeID] = episode
	return nil
}

func (s *Store) GetEpisode(_ context.Context, episodeID string) (entities.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	episode, ok := s.episodes[episodeID]
	if !ok {
		return entities.Episode{}, domainerrors.ErrEpisodeNotFound
	}
	return episode, nil
}

func (s *Store) ListEpisodesBySeries(_ context.Context, seriesID string) ([]entities.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []entities.Episode
	for _, episode := range s.episodes {
		if episode.SeriesID == seriesID {
			items = append(items, episode)
		}
	}
	return items, nil
}

func (s *Store) ListEpisodesInClipVoting(_ context.Context, now time.Time) ([]entities.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []entities.Episode
	for _, episode := range s.episodes {
		if episode.Status == entities.EpisodeStatusClipVoting &&
			episode.ClipVotingEndsAt != nil && !episode.ClipVotingEndsAt.After(now) {
			due = append(due, episode)
		}
	}
	return due, nil
}

func (s *Store) UpdateEpisodeStatus(_ context.Context, episodeID string, status entities.EpisodeStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	episode, ok := s.episodes[episodeID]
	if !ok {
		return domainerrors.ErrEpisodeNotFound
	}
	episode.Status = status
	episode.UpdatedAt = now
	s.episodes[episodeID] = episode
	return nil
}

func (s *Store) OpenClipWindow(_ context.Context, episodeID string, endsAt time.Time, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	episode, ok := s.episodes[episodeID]
	if !ok {
		return domainerrors.ErrEpisodeNotFound
	}
	episode.Status = entities.EpisodeStatusClipVoting
	episode.ClipVotingEndsAt = &endsAt
	episode.UpdatedAt = now
	s.episodes[episodeID] = episode
	return nil
}

func (s *Store) SetFinalVideo(_ context.Context, episodeID string, videoURL string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	episode, ok := s.episodes[episodeID]
	if !ok {
		return domainerrors.ErrEpisodeNotFound
	}
	episode.Status = entities.EpisodeStatusClipSelected
	episode.FinalVideoURL = videoURL
	episode.UpdatedAt = now
	s.episodes[episodeID] = episode
	return nil
}

func (s *Store) SetNarrationAudio(_ context.Context, episodeID string, audioURL string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	episode, ok := s.episodes[episodeID]
	if !ok {
		return domainerrors.ErrEpisodeNotFound
	}
	episode.NarrationAudioURL = audioURL
	episode.UpdatedAt = now
	s.episodes[episodeID] = episode
	return nil
}

func (s *Store) ReplaceFinalVideo(_ context.Context, episodeID string, videoURL string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	episode, ok := s.episodes[episodeID]
	if !ok {
		return domainerrors.ErrEpisodeNotFound
	}
	episode.FinalVideoURL = videoURL
	episode.UpdatedAt = now
	s.episodes[episodeID] = episode
	return nil
}

// --- VariantRepository ---

func (s *Store) UpsertVariant(_ context.Context, variant entities.ClipVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.variants {
		if existing.EpisodeID == variant.EpisodeID && existing.VariantNumber == variant.VariantNumber {
			variant.VariantID = existing.VariantID
			variant.VoteCount = existing.VoteCount
			variant.CreatedAt = existing.CreatedAt
			s.variants[id] = variant
			return nil
		}
	}
	s.variants[variant.VariantID] = variant
	return nil
}

func (s *Store) GetVariant(_ context.Context, variantID string) (entities.ClipVariant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	variant, ok := s.variants[variantID]
	if !ok {
		return entities.ClipVariant{}, domainerrors.ErrVariantNotFound
	}
	return variant, nil
}

func (s *Store) ListVariantsByEpisode(_ context.Context, episodeID string) ([]entities.ClipVariant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []entities.ClipVariant
	for _, variant := range s.variants {
		if variant.EpisodeID == episodeID {
			items = append(items, variant)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].VariantNumber < items[j].VariantNumber
	})
	return items, nil
}

func (s *Store) MarkVariantSelected(_ context.Context, variantID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	variant, ok := s.variants[variantID]
	if !ok {
		return domainerrors.ErrVariantNotFound
	}
	variant.IsSelected = true
	variant.UpdatedAt = now
	s.variants[variantID] = variant
	return nil
}

// --- ClipVoteRepository ---

func (s *Store) GetClipVoteByIdentity(_ context.Context, episodeID string, voterKind entities.VoterKind, voterID string) (entities.ClipVote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.clipVotes[clipVoteKey(episodeID, voterKind, voterID)]
	return vote, ok, nil
}

func (s *Store) InsertClipVote(_ context.Context, vote entities.ClipVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := clipVoteKey(vote.EpisodeID, vote.VoterKind, vote.VoterID)
	if _, exists := s.clipVotes[key]; exists {
		return domainerrors.ErrConflict
	}
	variant, ok := s.variants[vote.VariantID]
	if !ok {
		return domainerrors.ErrVariantNotFound
	}
	s.clipVotes[key] = vote
	variant.VoteCount++
	variant.UpdatedAt = vote.CreatedAt
	s.variants[vote.VariantID] = variant
	return nil
}

func (s *Store) TransferClipVote(_ context.Context, vote entities.ClipVote, fromVariantID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := clipVoteKey(vote.EpisodeID, vote.VoterKind, vote.VoterID)
	if _, exists := s.clipVotes[key]; !exists {
		return domainerrors.ErrConflict
	}
	from, ok := s.variants[fromVariantID]
	if !ok {
		return domainerrors.ErrVariantNotFound
	}
	to, ok := s.variants[vote.VariantID]
	if !ok {
		return domainerrors.ErrVariantNotFound
	}
	from.VoteCount--
	from.UpdatedAt = now
	to.VoteCount++
	to.UpdatedAt = now
	s.variants[fromVariantID] = from
	s.variants[vote.VariantID] = to
	s.clipVotes[key] = vote
	return nil
}

// --- JobRepository ---

func (s *Store) CreateJob(_ context.Context, job entities.ProductionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.jobs {
		if existing.EpisodeID == job.EpisodeID && existing.Type == job.Type {
			return domainerrors.ErrConflict
		}
	}
	s.jobs[job.JobID] = job
	return nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (entities.ProductionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return entities.ProductionJob{}, domainerrors.ErrJobNotFound
	}
	return job, nil
}

func (s *Store) ListReadyJobs(_ context.Context, now time.Time, limit int) ([]entities.ProductionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ready []entities.ProductionJob
	for _, job := range s.jobs {
		if job.Ready(now) {
			ready = append(ready, job)
		}
	}
	sortJobs(ready)
	if limit > 0 && len(ready) > limit {
		ready = ready[:limit]
	}
	return ready, nil
}

func (s *Store) ClaimJob(_ context.Context, jobID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return false, domainerrors.ErrJobNotFound
	}
	if job.Status != entities.JobStatusPending {
		return false, nil
	}
	job.Status = entities.JobStatusProcessing
	started := now
	job.StartedAt = &started
	job.UpdatedAt = now
	s.jobs[jobID] = job
	return true, nil
}

func (s *Store) CompleteJob(_ context.Context, jobID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domainerrors.ErrJobNotFound
	}
	job.Status = entities.JobStatusCompleted
	finished := now
	job.FinishedAt = &finished
	job.UpdatedAt = now
	s.jobs[jobID] = job
	return nil
}

func (s *Store) RescheduleJob(_ context.Context, jobID string, attemptCount int, availableAt time.Time, lastError string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domainerrors.ErrJobNotFound
	}
	job.Status = entities.JobStatusPending
	job.AttemptCount = attemptCount
	job.AvailableAt = availableAt
	job.LastError = lastError
	job.StartedAt = nil
	job.UpdatedAt = now
	s.jobs[jobID] = job
	return nil
}

func (s *Store) FailJob(_ context.Context, jobID string, attemptCount int, lastError string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domainerrors.ErrJobNotFound
	}
	job.Status = entities.JobStatusFailed
	job.AttemptCount = attemptCount
	job.LastError = lastError
	finished := now
	job.FinishedAt = &finished
	job.UpdatedAt = now
	s.jobs[jobID] = job
	return nil
}

func (s *Store) ListJobsBySeries(_ context.Context, seriesID string) ([]entities.ProductionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []entities.ProductionJob
	for _, job := range s.jobs {
		if job.SeriesID == seriesID {
			items = append(items, job)
		}
	}
	return items, nil
}

func (s *Store) ListStuckJobs(_ context.Context, olderThan time.Time) ([]entities.ProductionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stuck []entities.ProductionJob
	for _, job := range s.jobs {
		if job.Status == entities.JobStatusProcessing &&
			job.StartedAt != nil && job.StartedAt.Before(olderThan) {
			stuck = append(stuck, job)
		}
	}
	return stuck, nil
}

func sortJobs(jobs []entities.ProductionJob) {
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].Priority != jobs[j].Priority {
			return jobs[i].Priority > jobs[j].Priority
		}
		if !jobs[i].AvailableAt.Equal(jobs[j].AvailableAt) {
			return jobs[i].AvailableAt.Before(jobs[j].AvailableAt)
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
}

// --- EventDedupStore ---

func (s *Store) ReserveEvent(_ context.Context, eventID string, _ string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.dedup[eventID]; exists {
		return true, nil
	}
	s.dedup[eventID] = expiresAt
	return false, nil
}

// --- Outbox ---

func (s *Store) AppendOutbox(_ context.Context, event events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outboxRecord{
		message: outbox.Message{
			ID:        event.EventID,
			EventType: event.EventType,
			Payload:   payload,
			Status:    "pending",
			CreatedAt: event.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []outbox.Message
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		pending = append(pending, record.message)
		if limit > 0 && len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for index := range s.outbox {
		if s.outbox[index].message.ID == outboxID {
			s.outbox[index].published = true
			s.outbox[index].message.Status = "published"
			s.outbox[index].message.PublishedAt = &at
			return nil
		}
	}
	return fmt.Errorf("outbox message %s not found", outboxID)
}
