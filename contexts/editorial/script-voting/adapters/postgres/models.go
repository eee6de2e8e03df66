package postgresadapter

import (
	"encoding/json"
	"time"

	"showrunner/contexts/editorial/script-voting/domain/entities"
)

type periodModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Kind        string    `gorm:"column:kind;index"`
	StartsAt    time.Time `gorm:"column:starts_at;index"`
	EndsAt      time.Time `gorm:"column:ends_at;index"`
	IsActive    bool      `gorm:"column:is_active"`
	IsProcessed bool      `gorm:"column:is_processed"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (periodModel) TableName() string {
	return "voting_periods"
}

func (m periodModel) toEntity() entities.VotingPeriod {
	return entities.VotingPeriod{
		PeriodID:    m.ID,
		Kind:        entities.PeriodKind(m.Kind),
		StartsAt:    m.StartsAt,
		EndsAt:      m.EndsAt,
		IsActive:    m.IsActive,
		IsProcessed: m.IsProcessed,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func periodModelFromEntity(period entities.VotingPeriod) periodModel {
	return periodModel{
		ID:          period.PeriodID,
		Kind:        string(period.Kind),
		StartsAt:    period.StartsAt,
		EndsAt:      period.EndsAt,
		IsActive:    period.IsActive,
		IsProcessed: period.IsProcessed,
		CreatedAt:   period.CreatedAt,
		UpdatedAt:   period.UpdatedAt,
	}
}

type scriptModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	GroupID        string    `gorm:"column:group_id;index"`
	Title          string    `gorm:"column:title"`
	Logline        string    `gorm:"column:logline"`
	Status         string    `gorm:"column:status;index"`
	VoteCount      int       `gorm:"column:vote_count"`
	Upvotes        int       `gorm:"column:upvotes"`
	Downvotes      int       `gorm:"column:downvotes"`
	VotingPeriodID *string   `gorm:"column:voting_period_id;index"`
	Plan           []byte    `gorm:"column:plan;type:jsonb"`
	SubmittedAt    time.Time `gorm:"column:submitted_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (scriptModel) TableName() string {
	return "scripts"
}

func (m scriptModel) toEntity() (entities.Script, error) {
	var plan entities.EpisodePlan
	if len(m.Plan) > 0 {
		if err := json.Unmarshal(m.Plan, &plan); err != nil {
			return entities.Script{}, err
		}
	}
	periodID := ""
	if m.VotingPeriodID != nil {
		periodID = *m.VotingPeriodID
	}
	return entities.Script{
		ScriptID:       m.ID,
		GroupID:        m.GroupID,
		Title:          m.Title,
		Logline:        m.Logline,
		Status:         entities.ScriptStatus(m.Status),
		VoteCount:      m.VoteCount,
		Upvotes:        m.Upvotes,
		Downvotes:      m.Downvotes,
		VotingPeriodID: periodID,
		Plan:           plan,
		SubmittedAt:    m.SubmittedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}

func scriptModelFromEntity(script entities.Script) (scriptModel, error) {
	plan, err := json.Marshal(script.Plan)
	if err != nil {
		return scriptModel{}, err
	}
	var periodID *string
	if script.VotingPeriodID != "" {
		value := script.VotingPeriodID
		periodID = &value
	}
	return scriptModel{
		ID:             script.ScriptID,
		GroupID:        script.GroupID,
		Title:          script.Title,
		Logline:        script.Logline,
		Status:         string(script.Status),
		VoteCount:      script.VoteCount,
		Upvotes:        script.Upvotes,
		Downvotes:      script.Downvotes,
		VotingPeriodID: periodID,
		Plan:           plan,
		SubmittedAt:    script.SubmittedAt,
		CreatedAt:      script.CreatedAt,
		UpdatedAt:      script.UpdatedAt,
	}, nil
}

type scriptVoteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	ScriptID  string    `gorm:"column:script_id;uniqueIndex:ux_script_votes_identity"`
	VoterID   string    `gorm:"column:voter_id;uniqueIndex:ux_script_votes_identity"`
	Value     int       `gorm:"column:value"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (scriptVoteModel) TableName() string {
	return "script_votes"
}

func (m scriptVoteModel) toEntity() entities.ScriptVote {
	return entities.ScriptVote{
		VoteID:    m.ID,
		ScriptID:  m.ScriptID,
		VoterID:   m.VoterID,
		Value:     entities.VoteValue(m.Value),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
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
	return "script_voting_outbox"
}

// Models lists every gorm model this adapter owns, for platform migration.
func Models() []any {
	return []any{
		&periodModel{},
		&scriptModel{},
		&scriptVoteModel{},
		&outboxModel{},
	}
}
