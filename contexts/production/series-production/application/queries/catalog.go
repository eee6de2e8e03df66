package queries

import (
	"context"
	"sort"

	"showrunner/contexts/production/series-production/domain/entities"
	"showrunner/contexts/production/series-production/ports"
)

// CatalogUseCase serves the read side of a production run: series detail
// with episodes in order, and an episode's clip standings.
type CatalogUseCase struct {
	Series   ports.SeriesRepository
	Episodes ports.EpisodeRepository
	Variants ports.VariantRepository
}

type SeriesDetail struct {
	Series   entities.Series
	Episodes []entities.Episode
}

func (uc CatalogUseCase) SeriesDetail(ctx context.Context, seriesID string) (SeriesDetail, error) {
	series, err := uc.Series.GetSeries(ctx, seriesID)
	if err != nil {
		return SeriesDetail{}, err
	}
	episodes, err := uc.Episodes.ListEpisodesBySeries(ctx, seriesID)
	if err != nil {
		return SeriesDetail{}, err
	}
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
	})
	return SeriesDetail{Series: series, Episodes: episodes}, nil
}

// ClipStandings orders an episode's variants by the same tie-break the
// window close applies.
func (uc CatalogUseCase) ClipStandings(ctx context.Context, episodeID string) ([]entities.ClipVariant, error) {
	variants, err := uc.Variants.ListVariantsByEpisode(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(variants, func(i, j int) bool {
		if variants[i].VoteCount != variants[j].VoteCount {
			return variants[i].VoteCount > variants[j].VoteCount
		}
		return variants[i].VariantNumber < variants[j].VariantNumber
	})
	return variants, nil
}
