package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type EnqueueSeriesRequest struct {
	ScriptID string            `json:"script_id"`
	GroupID  string            `json:"group_id"`
	Title    string            `json:"title"`
	Plan     []SeriesPlanEntry `json:"plan"`
}

type SeriesPlanEntry struct {
	EpisodeNumber   int    `json:"episode_number"`
	Beat            string `json:"beat"`
	SceneDirection  string `json:"scene_direction,omitempty"`
	CameraDirection string `json:"camera_direction,omitempty"`
	NarrationText   string `json:"narration_text,omitempty"`
}

type SeriesResponse struct {
	SeriesID     string `json:"series_id"`
	ScriptID     string `json:"script_id"`
	GroupID      string `json:"group_id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	EpisodeCount int    `json:"episode_count"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

type EnqueueSeriesResponse struct {
	Series       SeriesResponse `json:"series"`
	EpisodeIDs   []string       `json:"episode_ids,omitempty"`
	JobsEnqueued int            `json:"jobs_enqueued"`
	Replayed     bool           `json:"replayed"`
}

type EpisodeResponse struct {
	EpisodeID         string `json:"episode_id"`
	SeriesID          string `json:"series_id"`
	EpisodeNumber     int    `json:"episode_number"`
	Status            string `json:"status"`
	FinalVideoURL     string `json:"final_video_url,omitempty"`
	NarrationAudioURL string `json:"narration_audio_url,omitempty"`
	ClipVotingEndsAt  string `json:"clip_voting_ends_at,omitempty"`
}

type SeriesDetailResponse struct {
	Series   SeriesResponse    `json:"series"`
	Episodes []EpisodeResponse `json:"episodes"`
}

type CastClipVoteRequest struct {
	VoterKind string `json:"voter_kind"`
}

type ClipVariantResponse struct {
	VariantID     string `json:"variant_id"`
	EpisodeID     string `json:"episode_id"`
	VariantNumber int    `json:"variant_number"`
	VideoURL      string `json:"video_url"`
	VoteCount     int    `json:"vote_count"`
	IsSelected    bool   `json:"is_selected"`
}

type CastClipVoteResponse struct {
	Variant     ClipVariantResponse `json:"variant"`
	Transferred bool                `json:"transferred"`
	Replayed    bool                `json:"replayed"`
}

type ClipStandingsResponse struct {
	EpisodeID string                `json:"episode_id"`
	Variants  []ClipVariantResponse `json:"variants"`
}
