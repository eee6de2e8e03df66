package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"showrunner/contexts/production/series-production/application/commands"
	"showrunner/contexts/production/series-production/application/queries"
	"showrunner/contexts/production/series-production/domain/entities"
	httptransport "showrunner/contexts/production/series-production/transport/http"
)

type Handler struct {
	Dispatcher commands.DispatcherUseCase
	Ballots    commands.ClipBallotUseCase
	Catalog    queries.CatalogUseCase
	Logger     *slog.Logger
}

func (h Handler) EnqueueSeriesHandler(ctx context.Context, req httptransport.EnqueueSeriesRequest) (httptransport.EnqueueSeriesResponse, error) {
	plan := make([]commands.SeriesPlanInput, 0, len(req.Plan))
	for _, entry := range req.Plan {
		plan = append(plan, commands.SeriesPlanInput{
			EpisodeNumber:   entry.EpisodeNumber,
			Beat:            entry.Beat,
			SceneDirection:  entry.SceneDirection,
			CameraDirection: entry.CameraDirection,
			NarrationText:   entry.NarrationText,
		})
	}
	result, err := h.Dispatcher.EnqueueSeries(ctx, commands.EnqueueSeriesCommand{
		ScriptID: req.ScriptID,
		GroupID:  req.GroupID,
		Title:    req.Title,
		Plan:     plan,
	})
	if err != nil {
		return httptransport.EnqueueSeriesResponse{}, err
	}
	return httptransport.EnqueueSeriesResponse{
		Series:       mapSeries(result.Series),
		EpisodeIDs:   result.EpisodeIDs,
		JobsEnqueued: result.JobsEnqueued,
		Replayed:     result.Replayed,
	}, nil
}

func (h Handler) SeriesDetailHandler(ctx context.Context, seriesID string) (httptransport.SeriesDetailResponse, error) {
	detail, err := h.Catalog.SeriesDetail(ctx, seriesID)
	if err != nil {
		return httptransport.SeriesDetailResponse{}, err
	}
	episodes := make([]httptransport.EpisodeResponse, 0, len(detail.Episodes))
	for _, episode := range detail.Episodes {
		episodes = append(episodes, mapEpisode(episode))
	}
	return httptransport.SeriesDetailResponse{
		Series:   mapSeries(detail.Series),
		Episodes: episodes,
	}, nil
}

func (h Handler) CastClipVoteHandler(
	ctx context.Context,
	variantID string,
	voterID string,
	req httptransport.CastClipVoteRequest,
) (httptransport.CastClipVoteResponse, error) {
	result, err := h.Ballots.CastClipVote(ctx, commands.CastClipVoteCommand{
		VariantID: variantID,
		VoterKind: entities.VoterKind(req.VoterKind),
		VoterID:   voterID,
	})
	if err != nil {
		return httptransport.CastClipVoteResponse{}, err
	}
	return httptransport.CastClipVoteResponse{
		Variant:     mapVariant(result.Variant),
		Transferred: result.Transferred,
		Replayed:    result.Replayed,
	}, nil
}

func (h Handler) ClipStandingsHandler(ctx context.Context, episodeID string) (httptransport.ClipStandingsResponse, error) {
	variants, err := h.Catalog.ClipStandings(ctx, episodeID)
	if err != nil {
		return httptransport.ClipStandingsResponse{}, err
	}
	items := make([]httptransport.ClipVariantResponse, 0, len(variants))
	for _, variant := range variants {
		items = append(items, mapVariant(variant))
	}
	return httptransport.ClipStandingsResponse{
		EpisodeID: episodeID,
		Variants:  items,
	}, nil
}

func mapSeries(series entities.Series) httptransport.SeriesResponse {
	completedAt := ""
	if series.CompletedAt != nil {
		completedAt = series.CompletedAt.UTC().Format(time.RFC3339)
	}
	return httptransport.SeriesResponse{
		SeriesID:     series.SeriesID,
		ScriptID:     series.ScriptID,
		GroupID:      series.GroupID,
		Title:        series.Title,
		Status:       string(series.Status),
		EpisodeCount: series.EpisodeCount,
		CompletedAt:  completedAt,
	}
}

func mapEpisode(episode entities.Episode) httptransport.EpisodeResponse {
	endsAt := ""
	if episode.ClipVotingEndsAt != nil {
		endsAt = episode.ClipVotingEndsAt.UTC().Format(time.RFC3339)
	}
	return httptransport.EpisodeResponse{
		EpisodeID:         episode.EpisodeID,
		SeriesID:          episode.SeriesID,
		EpisodeNumber:     episode.EpisodeNumber,
		Status:            string(episode.Status),
		FinalVideoURL:     episode.FinalVideoURL,
		NarrationAudioURL: episode.NarrationAudioURL,
		ClipVotingEndsAt:  endsAt,
	}
}

func mapVariant(variant entities.ClipVariant) httptransport.ClipVariantResponse {
	return httptransport.ClipVariantResponse{
		VariantID:     variant.VariantID,
		EpisodeID:     variant.EpisodeID,
		VariantNumber: variant.VariantNumber,
		VideoURL:      variant.VideoURL,
		VoteCount:     variant.VoteCount,
		IsSelected:    variant.IsSelected,
	}
}
