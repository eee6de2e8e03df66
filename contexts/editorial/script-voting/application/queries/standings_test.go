package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"showrunner/contexts/editorial/script-voting/adapters/memory"
	"showrunner/contexts/editorial/script-voting/application/queries"
	"showrunner/contexts/editorial/script-voting/domain/entities"
	domainerrors "showrunner/contexts/editorial/script-voting/domain/errors"
)

func TestPeriodStandingsOrdering(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore([]entities.Script{
		{
			ScriptID: "script-low", VotingPeriodID: "period-1",
			Status: entities.ScriptStatusVoting, VoteCount: 1, Upvotes: 1,
			SubmittedAt: base,
		},
		{
			ScriptID: "script-top", VotingPeriodID: "period-1",
			Status: entities.ScriptStatusVoting, VoteCount: 3, Upvotes: 3,
			SubmittedAt: base.Add(time.Minute),
		},
		{
			ScriptID: "script-tied-early", VotingPeriodID: "period-1",
			Status: entities.ScriptStatusVoting, VoteCount: 1, Upvotes: 1,
			SubmittedAt: base.Add(-time.Hour),
		},
	})
	if err := store.CreatePeriod(context.Background(), entities.VotingPeriod{
		PeriodID: "period-1",
		Kind:     entities.PeriodKindScriptVoting,
		StartsAt: base.Add(-time.Hour),
		EndsAt:   base.Add(time.Hour),
		IsActive: true,
	}); err != nil {
		t.Fatalf("create period failed: %v", err)
	}

	useCase := queries.StandingsUseCase{Periods: store, Scripts: store}
	standings, err := useCase.PeriodStandings(context.Background(), "period-1")
	if err != nil {
		t.Fatalf("period standings failed: %v", err)
	}
	if len(standings.Scripts) != 3 {
		t.Fatalf("expected three candidates, got %d", len(standings.Scripts))
	}
	order := []string{standings.Scripts[0].ScriptID, standings.Scripts[1].ScriptID, standings.Scripts[2].ScriptID}
	want := []string{"script-top", "script-tied-early", "script-low"}
	for index := range want {
		if order[index] != want[index] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestPeriodStandingsUnknownPeriod(t *testing.T) {
	store := memory.NewStore(nil)
	useCase := queries.StandingsUseCase{Periods: store, Scripts: store}

	_, err := useCase.PeriodStandings(context.Background(), "missing")
	if !errors.Is(err, domainerrors.ErrPeriodNotFound) {
		t.Fatalf("expected period not found, got %v", err)
	}
}
