package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"showrunner/contexts/editorial/script-voting/application/commands"
	"showrunner/contexts/editorial/script-voting/application/queries"
	"showrunner/contexts/editorial/script-voting/domain/entities"
	httptransport "showrunner/contexts/editorial/script-voting/transport/http"
)

type Handler struct {
	Scripts   commands.ScriptUseCase
	Votes     commands.VoteUseCase
	Standings queries.StandingsUseCase
	Logger    *slog.Logger
}

func (h Handler) SubmitScriptHandler(ctx context.Context, req httptransport.SubmitScriptRequest) (httptransport.ScriptResponse, error) {
	beats := make([]entities.EpisodeBeat, 0, len(req.Beats))
	for _, beat := range req.Beats {
		beats = append(beats, entities.EpisodeBeat{
			EpisodeNumber:   beat.EpisodeNumber,
			Beat:            beat.Beat,
			SceneDirection:  beat.SceneDirection,
			CameraDirection: beat.CameraDirection,
			NarrationText:   beat.NarrationText,
		})
	}
	script, err := h.Scripts.SubmitScript(ctx, commands.SubmitScriptCommand{
		GroupID: req.GroupID,
		Title:   req.Title,
		Logline: req.Logline,
		Plan:    entities.EpisodePlan{Beats: beats},
	})
	if err != nil {
		return httptransport.ScriptResponse{}, err
	}
	return mapScript(script), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	scriptID string,
	voterID string,
	req httptransport.CastScriptVoteRequest,
) (httptransport.CastScriptVoteResponse, error) {
	result, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		ScriptID: scriptID,
		VoterID:  voterID,
		Value:    entities.VoteValue(req.Value),
	})
	if err != nil {
		return httptransport.CastScriptVoteResponse{}, err
	}
	return httptransport.CastScriptVoteResponse{
		Script:  mapScript(result.Script),
		Toggled: result.Toggled,
		Swapped: result.Swapped,
	}, nil
}

func (h Handler) PeriodStandingsHandler(ctx context.Context, periodID string) (httptransport.PeriodStandingsResponse, error) {
	standings, err := h.Standings.PeriodStandings(ctx, periodID)
	if err != nil {
		return httptransport.PeriodStandingsResponse{}, err
	}
	scripts := make([]httptransport.ScriptResponse, 0, len(standings.Scripts))
	for _, script := range standings.Scripts {
		scripts = append(scripts, mapScript(script))
	}
	return httptransport.PeriodStandingsResponse{
		Period: httptransport.VotingPeriodResponse{
			PeriodID:    standings.Period.PeriodID,
			Kind:        string(standings.Period.Kind),
			StartsAt:    standings.Period.StartsAt.UTC().Format(time.RFC3339),
			EndsAt:      standings.Period.EndsAt.UTC().Format(time.RFC3339),
			IsActive:    standings.Period.IsActive,
			IsProcessed: standings.Period.IsProcessed,
		},
		Scripts: scripts,
	}, nil
}

func mapScript(script entities.Script) httptransport.ScriptResponse {
	return httptransport.ScriptResponse{
		ScriptID:       script.ScriptID,
		GroupID:        script.GroupID,
		Title:          script.Title,
		Logline:        script.Logline,
		Status:         string(script.Status),
		VoteCount:      script.VoteCount,
		Upvotes:        script.Upvotes,
		Downvotes:      script.Downvotes,
		VotingPeriodID: script.VotingPeriodID,
		SubmittedAt:    script.SubmittedAt.UTC().Format(time.RFC3339),
	}
}
