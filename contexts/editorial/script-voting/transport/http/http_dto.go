package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type EpisodeBeatPayload struct {
	EpisodeNumber   int    `json:"episode_number"`
	Beat            string `json:"beat"`
	SceneDirection  string `json:"scene_direction,omitempty"`
	CameraDirection string `json:"camera_direction,omitempty"`
	NarrationText   string `json:"narration_text,omitempty"`
}

type SubmitScriptRequest struct {
	GroupID string               `json:"group_id"`
	Title   string               `json:"title"`
	Logline string               `json:"logline,omitempty"`
	Beats   []EpisodeBeatPayload `json:"beats"`
}

type ScriptResponse struct {
	ScriptID       string `json:"script_id"`
	GroupID        string `json:"group_id"`
	Title          string `json:"title"`
	Logline        string `json:"logline,omitempty"`
	Status         string `json:"status"`
	VoteCount      int    `json:"vote_count"`
	Upvotes        int    `json:"upvotes"`
	Downvotes      int    `json:"downvotes"`
	VotingPeriodID string `json:"voting_period_id,omitempty"`
	SubmittedAt    string `json:"submitted_at"`
}

type CastScriptVoteRequest struct {
	Value int `json:"value"`
}

type CastScriptVoteResponse struct {
	Script  ScriptResponse `json:"script"`
	Toggled bool           `json:"toggled"`
	Swapped bool           `json:"swapped"`
}

type VotingPeriodResponse struct {
	PeriodID    string `json:"period_id"`
	Kind        string `json:"kind"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	IsActive    bool   `json:"is_active"`
	IsProcessed bool   `json:"is_processed"`
}

type PeriodStandingsResponse struct {
	Period  VotingPeriodResponse `json:"period"`
	Scripts []ScriptResponse     `json:"scripts"`
}
