package entities

import "time"

const EpisodesPerSeries = 5

const PilotVariantCount = 4

type SeriesStatus string

const (
	SeriesStatusPending   SeriesStatus = "pending"
	SeriesStatusProducing SeriesStatus = "producing"
	SeriesStatusActive    SeriesStatus = "active"
	SeriesStatusCompleted SeriesStatus = "completed"
	SeriesStatusFailed    SeriesStatus = "failed"
)

// Series is the production run spawned from one selected script. One series
// per script, guarded by a unique script_id.
type Series struct {
	SeriesID     string
	ScriptID     string
	GroupID      string
	Title        string
	Status       SeriesStatus
	EpisodeCount int
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type EpisodeStatus string

const (
	EpisodeStatusPending      EpisodeStatus = "pending"
	EpisodeStatusGenerating   EpisodeStatus = "generating"
	EpisodeStatusClipVoting   EpisodeStatus = "clip_voting"
	EpisodeStatusClipSelected EpisodeStatus = "clip_selected"
	EpisodeStatusFailed       EpisodeStatus = "failed"
)

// BeatSheet is the episode's slice of the selected script's plan, snapshotted
// at dispatch so later script edits never change what gets produced.
type BeatSheet struct {
	Beat            string `json:"beat"`
	SceneDirection  string `json:"scene_direction"`
	CameraDirection string `json:"camera_direction"`
	NarrationText   string `json:"narration_text"`
}

type Episode struct {
	EpisodeID         string
	SeriesID          string
	EpisodeNumber     int
	Status            EpisodeStatus
	Plan              BeatSheet
	FinalVideoURL     string
	NarrationAudioURL string
	ClipVotingEndsAt  *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Playable reports whether the episode can be served to viewers.
func (e Episode) Playable() bool {
	return e.Status == EpisodeStatusClipSelected && e.FinalVideoURL != ""
}

// ClipVariant is one stylistic rendering of the pilot episode. Unique per
// (episode_id, variant_number) so regeneration overwrites instead of
// duplicating.
type ClipVariant struct {
	VariantID     string
	EpisodeID     string
	VariantNumber int
	Prompt        string
	VideoURL      string
	Seed          int64
	Model         string
	VoteCount     int
	IsSelected    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type VoterKind string

const (
	VoterKindUser  VoterKind = "user"
	VoterKindGuest VoterKind = "guest"
)

// ClipVote is one voter's single vote inside an episode's clip window.
// Unique per (episode_id, voter_kind, voter_id); re-voting transfers.
type ClipVote struct {
	VoteID    string
	EpisodeID string
	VariantID string
	VoterKind VoterKind
	VoterID   string
	CreatedAt time.Time
}

type JobType string

const (
	JobTypePilotVariants JobType = "pilot_variants"
	JobTypeEpisodeSingle JobType = "episode_single"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ProductionJob is one unit of heavy media work. Jobs reach processing only
// through an atomic claim, retry with capped exponential backoff, and go
// terminal at max_attempts.
type ProductionJob struct {
	JobID        string
	SeriesID     string
	EpisodeID    string
	Type         JobType
	Status       JobStatus
	Priority     int
	AttemptCount int
	MaxAttempts  int
	AvailableAt  time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (j ProductionJob) Ready(now time.Time) bool {
	return j.Status == JobStatusPending && !j.AvailableAt.After(now)
}

func (j ProductionJob) AttemptsExhausted() bool {
	return j.AttemptCount >= j.MaxAttempts
}

// GeneratedClip is what a video generator returns for one prompt.
type GeneratedClip struct {
	Video []byte
	Seed  int64
	Model string
}

// StoredObject locates a finished upload in the object store.
type StoredObject struct {
	Key string
	URL string
}
