package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"showrunner/contexts/editorial/script-voting/domain/entities"
	domainerrors "showrunner/contexts/editorial/script-voting/domain/errors"
	"showrunner/internal/shared/events"
	"showrunner/internal/shared/outbox"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing tests and local runs. It implements
// every script-voting port with the same transactional semantics the
// postgres adapter provides.
type Store struct {
	mu sync.RWMutex

	periods map[string]entities.VotingPeriod
	scripts map[string]entities.Script
	votes   map[string]entities.ScriptVote // key: scriptID + "|" + voterID
	outbox  []outboxRecord

	now *time.Time
}

type outboxRecord struct {
	message   outbox.Message
	published bool
}

func NewStore(seed []entities.Script) *Store {
	scripts := make(map[string]entities.Script, len(seed))
	for _, script := range seed {
		scripts[script.ScriptID] = script
	}
	return &Store{
		periods: make(map[string]entities.VotingPeriod),
		scripts: scripts,
		votes:   make(map[string]entities.ScriptVote),
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

func voteKey(scriptID, voterID string) string {
	return scriptID + "|" + voterID
}

// --- PeriodRepository ---

func (s *Store) CreatePeriod(_ context.Context, period entities.VotingPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.periods[period.PeriodID]; exists {
		return domainerrors.ErrConflict
	}
	s.periods[period.PeriodID] = period
	return nil
}

func (s *Store) GetPeriod(_ context.Context, periodID string) (entities.VotingPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	period, ok := s.periods[periodID]
	if !ok {
		return entities.VotingPeriod{}, domainerrors.ErrPeriodNotFound
	}
	return period, nil
}

func (s *Store) ListPeriodsDueToOpen(_ context.Context, now time.Time) ([]entities.VotingPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []entities.VotingPeriod
	for _, period := range s.periods {
		if period.Kind == entities.PeriodKindScriptVoting && period.DueToOpen(now) {
			due = append(due, period)
		}
	}
	return due, nil
}

func (s *Store) ListPeriodsDueToClose(_ context.Context, now time.Time) ([]entities.VotingPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []entities.VotingPeriod
	for _, period := range s.periods {
		if period.DueToClose(now) {
			due = append(due, period)
		}
	}
	return due, nil
}

func (s *Store) HasUpcomingPeriod(_ context.Context, kind entities.PeriodKind, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, period := range s.periods {
		if period.Kind == kind && !period.IsProcessed && period.StartsAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ActivatePeriod(_ context.Context, periodID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	period, ok := s.periods[periodID]
	if !ok {
		return domainerrors.ErrPeriodNotFound
	}
	if period.IsActive || period.IsProcessed {
		return domainerrors.ErrConflict
	}
	period.IsActive = true
	period.UpdatedAt = now
	s.periods[periodID] = period
	return nil
}

func (s *Store) ClaimPeriodForProcessing(_ context.Context, periodID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	period, ok := s.periods[periodID]
	if !ok {
		return false, domainerrors.ErrPeriodNotFound
	}
	if period.IsProcessed {
		return false, nil
	}
	period.IsProcessed = true
	period.IsActive = false
	period.UpdatedAt = now
	s.periods[periodID] = period
	return true, nil
}

// --- ScriptRepository ---

func (s *Store) CreateScript(_ context.Context, script entities.Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.scripts[script.ScriptID]; exists {
		return domainerrors.ErrConflict
	}
	s.scripts[script.ScriptID] = script
	return nil
}

func (s *Store) GetScript(_ context.Context, scriptID string) (entities.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	script, ok := s.scripts[scriptID]
	if !ok {
		return entities.Script{}, domainerrors.ErrScriptNotFound
	}
	return script, nil
}

func (s *Store) ListSubmittedUnassigned(_ context.Context) ([]entities.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var waiting []entities.Script
	for _, script := range s.scripts {
		if script.Status == entities.ScriptStatusSubmitted && script.VotingPeriodID == "" {
			waiting = append(waiting, script)
		}
	}
	return waiting, nil
}

func (s *Store) AssignScriptsToPeriod(_ context.Context, scriptIDs []string, periodID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, scriptID := range scriptIDs {
		script, ok := s.scripts[scriptID]
		if !ok {
			return domainerrors.ErrScriptNotFound
		}
		script.Status = entities.ScriptStatusVoting
		script.VotingPeriodID = periodID
		script.UpdatedAt = now
		s.scripts[scriptID] = script
	}
	return nil
}

func (s *Store) ListScriptsByPeriod(_ context.Context, periodID string) ([]entities.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var assigned []entities.Script
	for _, script := range s.scripts {
		if script.VotingPeriodID == periodID {
			assigned = append(assigned, script)
		}
	}
	return assigned, nil
}

func (s *Store) ApplySelection(_ context.Context, periodID string, winnerID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scripts[winnerID]; !ok {
		return domainerrors.ErrScriptNotFound
	}
	for id, script := range s.scripts {
		if script.VotingPeriodID != periodID {
			continue
		}
		if id == winnerID {
			script.Status = entities.ScriptStatusSelected
		} else {
			script.Status = entities.ScriptStatusRejected
		}
		script.UpdatedAt = now
		s.scripts[id] = script
	}
	return nil
}

// --- VoteRepository ---

func (s *Store) GetVoteByIdentity(_ context.Context, scriptID string, voterID string) (entities.ScriptVote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[voteKey(scriptID, voterID)]
	return vote, ok, nil
}

func (s *Store) InsertVote(_ context.Context, vote entities.ScriptVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(vote.ScriptID, vote.VoterID)
	if _, exists := s.votes[key]; exists {
		return domainerrors.ErrConflict
	}
	script, ok := s.scripts[vote.ScriptID]
	if !ok {
		return domainerrors.ErrScriptNotFound
	}
	s.votes[key] = vote
	s.applyTally(&script, vote.Value, 1)
	script.UpdatedAt = vote.UpdatedAt
	s.scripts[vote.ScriptID] = script
	return nil
}

func (s *Store) RemoveVote(_ context.Context, scriptID string, voterID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(scriptID, voterID)
	vote, exists := s.votes[key]
	if !exists {
		return domainerrors.ErrConflict
	}
	script, ok := s.scripts[scriptID]
	if !ok {
		return domainerrors.ErrScriptNotFound
	}
	delete(s.votes, key)
	s.applyTally(&script, vote.Value, -1)
	script.UpdatedAt = now
	s.scripts[scriptID] = script
	return nil
}

func (s *Store) SwapVote(_ context.Context, scriptID string, voterID string, value entities.VoteValue, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(scriptID, voterID)
	vote, exists := s.votes[key]
	if !exists || vote.Value == value {
		return domainerrors.ErrConflict
	}
	script, ok := s.scripts[scriptID]
	if !ok {
		return domainerrors.ErrScriptNotFound
	}
	s.applyTally(&script, vote.Value, -1)
	s.applyTally(&script, value, 1)
	vote.Value = value
	vote.UpdatedAt = now
	s.votes[key] = vote
	script.UpdatedAt = now
	s.scripts[scriptID] = script
	return nil
}

func (s *Store) ListVotesByScript(_ context.Context, scriptID string) ([]entities.ScriptVote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var scriptVotes []entities.ScriptVote
	for _, vote := range s.votes {
		if vote.ScriptID == scriptID {
			scriptVotes = append(scriptVotes, vote)
		}
	}
	return scriptVotes, nil
}

func (s *Store) applyTally(script *entities.Script, value entities.VoteValue, direction int) {
	script.VoteCount += int(value) * direction
	if value == entities.VoteValueUp {
		script.Upvotes += direction
	} else {
		script.Downvotes += direction
	}
}

// --- Outbox ---

func (s *Store) AppendOutbox(_ context.Context, event events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := marshalEnvelope(event)
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

func marshalEnvelope(event events.Envelope) ([]byte, error) {
	return json.Marshal(event)
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
