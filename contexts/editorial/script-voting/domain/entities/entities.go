package entities

import "time"

type PeriodKind string

const (
	PeriodKindScriptVoting PeriodKind = "script_voting"
	// PeriodKindLegacyClipVoting exists for rows written by the retired
	// per-clip period scheduler. It is never scheduled anymore.
	PeriodKindLegacyClipVoting PeriodKind = "legacy_clip_voting"
)

// VotingPeriod is one scheduled window during which submitted scripts collect
// community votes. A period is processed exactly once when it closes.
type VotingPeriod struct {
	PeriodID    string
	Kind        PeriodKind
	StartsAt    time.Time
	EndsAt      time.Time
	IsActive    bool
	IsProcessed bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p VotingPeriod) DueToOpen(now time.Time) bool {
	return !p.IsActive && !p.IsProcessed &&
		!p.StartsAt.After(now) && p.EndsAt.After(now)
}

func (p VotingPeriod) DueToClose(now time.Time) bool {
	return p.IsActive && !p.IsProcessed && !p.EndsAt.After(now)
}

type ScriptStatus string

const (
	ScriptStatusDraft     ScriptStatus = "draft"
	ScriptStatusSubmitted ScriptStatus = "submitted"
	ScriptStatusVoting    ScriptStatus = "voting"
	ScriptStatusSelected  ScriptStatus = "selected"
	ScriptStatusRejected  ScriptStatus = "rejected"
	ScriptStatusProduced  ScriptStatus = "produced"
)

// Script is a community proposal. Content validation and moderation happen
// upstream; only schema-valid scripts ever reach submitted status here.
type Script struct {
	ScriptID       string
	GroupID        string
	Title          string
	Logline        string
	Status         ScriptStatus
	VoteCount      int
	Upvotes        int
	Downvotes      int
	VotingPeriodID string
	Plan           EpisodePlan
	SubmittedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type VoteValue int

const (
	VoteValueUp   VoteValue = 1
	VoteValueDown VoteValue = -1
)

// ScriptVote is one voter's signed vote on one script.
// Unique per (script_id, voter_id); re-voting toggles or swaps.
type ScriptVote struct {
	VoteID    string
	ScriptID  string
	VoterID   string
	Value     VoteValue
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EpisodeBeat is the per-episode slice of a script's production plan.
type EpisodeBeat struct {
	EpisodeNumber   int    `json:"episode_number"`
	Beat            string `json:"beat"`
	SceneDirection  string `json:"scene_direction"`
	CameraDirection string `json:"camera_direction"`
	NarrationText   string `json:"narration_text"`
}

// EpisodePlan carries the structured five-episode production plan a script
// was submitted with. It travels on the script.selected event so production
// never re-reads the winning script.
type EpisodePlan struct {
	Beats []EpisodeBeat `json:"beats"`
}

func (p EpisodePlan) BeatFor(episodeNumber int) (EpisodeBeat, bool) {
	for _, beat := range p.Beats {
		if beat.EpisodeNumber == episodeNumber {
			return beat, true
		}
	}
	return EpisodeBeat{}, false
}
