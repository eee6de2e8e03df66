package unit

import (
	"context"
	"testing"
	"time"

	scriptvoting "showrunner/contexts/editorial/script-voting"
	"showrunner/contexts/editorial/script-voting/application/commands"
	"showrunner/contexts/editorial/script-voting/domain/entities"
	httptransport "showrunner/contexts/editorial/script-voting/transport/http"
)

func submitScript(t *testing.T, module scriptvoting.Module, groupID, title string) httptransport.ScriptResponse {
	t.Helper()
	beats := make([]httptransport.EpisodeBeatPayload, 0, 5)
	for number := 1; number <= 5; number++ {
		beats = append(beats, httptransport.EpisodeBeatPayload{
			EpisodeNumber: number,
			Beat:          "beat",
			NarrationText: "narration",
		})
	}
	script, err := module.Handler.SubmitScriptHandler(context.Background(), httptransport.SubmitScriptRequest{
		GroupID: groupID,
		Title:   title,
		Beats:   beats,
	})
	if err != nil {
		t.Fatalf("submit script for %s failed: %v", groupID, err)
	}
	return script
}

func TestScriptVotingEndToEnd(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	publisher := &capturingPublisher{}
	module := scriptvoting.NewInMemoryModule(nil, publisher, commands.Schedule{
		Cadence:        commands.CadenceImmediate,
		ImmediateDelay: time.Minute,
		PeriodLength:   time.Hour,
	}, nil)
	module.Store.SetNow(base)
	ctx := context.Background()

	first := submitScript(t, module, "group-1", "Tidewatch")
	second := submitScript(t, module, "group-2", "Night Ferry")
	third := submitScript(t, module, "group-3", "Salt Line")

	// First pass schedules the period; second opens it once the start passes.
	if err := module.PeriodCycle.RunOnce(ctx); err != nil {
		t.Fatalf("schedule pass failed: %v", err)
	}
	module.Store.SetNow(base.Add(2 * time.Minute))
	if err := module.PeriodCycle.RunOnce(ctx); err != nil {
		t.Fatalf("open pass failed: %v", err)
	}

	opened, err := module.Store.GetScript(ctx, second.ScriptID)
	if err != nil {
		t.Fatalf("get script failed: %v", err)
	}
	if opened.Status != entities.ScriptStatusVoting || opened.VotingPeriodID == "" {
		t.Fatalf("expected script in voting, got %+v", opened)
	}
	periodID := opened.VotingPeriodID

	castVote := func(scriptID, voterID string) {
		t.Helper()
		if _, err := module.Handler.CastVoteHandler(ctx, scriptID, voterID, httptransport.CastScriptVoteRequest{Value: 1}); err != nil {
			t.Fatalf("vote on %s failed: %v", scriptID, err)
		}
	}
	castVote(second.ScriptID, "viewer-1")
	castVote(second.ScriptID, "viewer-2")
	castVote(first.ScriptID, "viewer-1")

	standings, err := module.Handler.PeriodStandingsHandler(ctx, periodID)
	if err != nil {
		t.Fatalf("standings failed: %v", err)
	}
	if len(standings.Scripts) != 3 || standings.Scripts[0].ScriptID != second.ScriptID {
		t.Fatalf("expected the two-vote script on top, got %+v", standings.Scripts)
	}

	module.Store.SetNow(base.Add(2 * time.Hour))
	if err := module.PeriodCycle.RunOnce(ctx); err != nil {
		t.Fatalf("close pass failed: %v", err)
	}

	winner, err := module.Store.GetScript(ctx, second.ScriptID)
	if err != nil {
		t.Fatalf("get winner failed: %v", err)
	}
	if winner.Status != entities.ScriptStatusSelected {
		t.Fatalf("expected winner selected, got %s", winner.Status)
	}
	for _, loserID := range []string{first.ScriptID, third.ScriptID} {
		loser, err := module.Store.GetScript(ctx, loserID)
		if err != nil {
			t.Fatalf("get loser failed: %v", err)
		}
		if loser.Status != entities.ScriptStatusRejected {
			t.Fatalf("expected loser rejected, got %s", loser.Status)
		}
	}

	if err := module.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("outbox relay failed: %v", err)
	}
	topics := publisher.topics()
	if len(topics) != 1 || topics[0] != commands.TopicScriptSelected {
		t.Fatalf("expected one script.selected publication, got %v", topics)
	}

	// The relay marks rows published; a second pass republishes nothing.
	if err := module.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay pass failed: %v", err)
	}
	if len(publisher.topics()) != 1 {
		t.Fatalf("expected no duplicate publications, got %v", publisher.topics())
	}
}
