package queries

import (
	"context"
	"sort"

	"showrunner/contexts/editorial/script-voting/domain/entities"
	"showrunner/contexts/editorial/script-voting/ports"
)

// StandingsUseCase serves the read side of a voting period: candidates
// ordered by the same tie-break the scheduler applies at close.
type StandingsUseCase struct {
	Periods ports.PeriodRepository
	Scripts ports.ScriptRepository
}

type PeriodStandings struct {
	Period  entities.VotingPeriod
	Scripts []entities.Script
}

func (uc StandingsUseCase) PeriodStandings(ctx context.Context, periodID string) (PeriodStandings, error) {
	period, err := uc.Periods.GetPeriod(ctx, periodID)
	if err != nil {
		return PeriodStandings{}, err
	}
	scripts, err := uc.Scripts.ListScriptsByPeriod(ctx, periodID)
	if err != nil {
		return PeriodStandings{}, err
	}
	sort.SliceStable(scripts, func(i, j int) bool {
		if scripts[i].VoteCount != scripts[j].VoteCount {
			return scripts[i].VoteCount > scripts[j].VoteCount
		}
		if scripts[i].Upvotes != scripts[j].Upvotes {
			return scripts[i].Upvotes > scripts[j].Upvotes
		}
		return scripts[i].SubmittedAt.Before(scripts[j].SubmittedAt)
	})
	return PeriodStandings{Period: period, Scripts: scripts}, nil
}
