package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"showrunner/contexts/editorial/script-voting/adapters/memory"
	"showrunner/contexts/editorial/script-voting/application/commands"
	"showrunner/contexts/editorial/script-voting/domain/entities"
	domainerrors "showrunner/contexts/editorial/script-voting/domain/errors"
)

func votingScript(scriptID, groupID string, submittedAt time.Time) entities.Script {
	return entities.Script{
		ScriptID:       scriptID,
		GroupID:        groupID,
		Title:          "Title " + scriptID,
		Status:         entities.ScriptStatusVoting,
		VotingPeriodID: "period-1",
		SubmittedAt:    submittedAt,
		CreatedAt:      submittedAt,
		UpdatedAt:      submittedAt,
	}
}

func TestCastVoteToggleAndSwap(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore([]entities.Script{votingScript("script-1", "group-1", base)})
	store.SetNow(base)
	useCase := commands.VoteUseCase{Scripts: store, Votes: store, Clock: store, IDGen: store}

	first, err := useCase.CastVote(context.Background(), commands.CastVoteCommand{
		ScriptID: "script-1",
		VoterID:  "voter-1",
		Value:    entities.VoteValueUp,
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if first.Script.VoteCount != 1 || first.Script.Upvotes != 1 {
		t.Fatalf("expected tally 1/1 after upvote, got %d/%d", first.Script.VoteCount, first.Script.Upvotes)
	}

	toggled, err := useCase.CastVote(context.Background(), commands.CastVoteCommand{
		ScriptID: "script-1",
		VoterID:  "voter-1",
		Value:    entities.VoteValueUp,
	})
	if err != nil {
		t.Fatalf("toggle vote failed: %v", err)
	}
	if !toggled.Toggled || toggled.Script.VoteCount != 0 || toggled.Script.Upvotes != 0 {
		t.Fatalf("expected toggled vote with zero tally, got %+v", toggled.Script)
	}

	down, err := useCase.CastVote(context.Background(), commands.CastVoteCommand{
		ScriptID: "script-1",
		VoterID:  "voter-1",
		Value:    entities.VoteValueDown,
	})
	if err != nil {
		t.Fatalf("downvote failed: %v", err)
	}
	if down.Script.VoteCount != -1 || down.Script.Downvotes != 1 {
		t.Fatalf("expected tally -1 with one downvote, got %+v", down.Script)
	}

	swapped, err := useCase.CastVote(context.Background(), commands.CastVoteCommand{
		ScriptID: "script-1",
		VoterID:  "voter-1",
		Value:    entities.VoteValueUp,
	})
	if err != nil {
		t.Fatalf("swap vote failed: %v", err)
	}
	if !swapped.Swapped {
		t.Fatalf("expected swapped vote")
	}
	if swapped.Script.VoteCount != 1 || swapped.Script.Upvotes != 1 || swapped.Script.Downvotes != 0 {
		t.Fatalf("expected tally 1/1/0 after swap, got %+v", swapped.Script)
	}
}

func TestCastVoteSelfVoteForbidden(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore([]entities.Script{votingScript("script-1", "group-1", base)})
	store.SetNow(base)
	useCase := commands.VoteUseCase{Scripts: store, Votes: store, Clock: store, IDGen: store}

	_, err := useCase.CastVote(context.Background(), commands.CastVoteCommand{
		ScriptID: "script-1",
		VoterID:  "group-1",
		Value:    entities.VoteValueUp,
	})
	if !errors.Is(err, domainerrors.ErrSelfVoteForbidden) {
		t.Fatalf("expected self vote forbidden, got %v", err)
	}
}

func TestCastVoteRequiresOpenScript(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	script := votingScript("script-1", "group-1", base)
	script.Status = entities.ScriptStatusSubmitted
	store := memory.NewStore([]entities.Script{script})
	store.SetNow(base)
	useCase := commands.VoteUseCase{Scripts: store, Votes: store, Clock: store, IDGen: store}

	_, err := useCase.CastVote(context.Background(), commands.CastVoteCommand{
		ScriptID: "script-1",
		VoterID:  "voter-1",
		Value:    entities.VoteValueUp,
	})
	if !errors.Is(err, domainerrors.ErrScriptNotVoting) {
		t.Fatalf("expected script not voting, got %v", err)
	}
}

func TestCastVoteValidation(t *testing.T) {
	store := memory.NewStore(nil)
	useCase := commands.VoteUseCase{Scripts: store, Votes: store, Clock: store, IDGen: store}

	_, err := useCase.CastVote(context.Background(), commands.CastVoteCommand{
		ScriptID: "script-1",
		VoterID:  "voter-1",
		Value:    entities.VoteValue(3),
	})
	if !errors.Is(err, domainerrors.ErrInvalidVoteInput) {
		t.Fatalf("expected invalid vote input, got %v", err)
	}

	_, err = useCase.CastVote(context.Background(), commands.CastVoteCommand{
		ScriptID: "",
		VoterID:  "voter-1",
		Value:    entities.VoteValueUp,
	})
	if !errors.Is(err, domainerrors.ErrInvalidVoteInput) {
		t.Fatalf("expected invalid vote input for blank script, got %v", err)
	}
}

func TestSubmitScriptValidatesPlan(t *testing.T) {
	store := memory.NewStore(nil)
	store.SetNow(time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC))
	useCase := commands.ScriptUseCase{Scripts: store, Clock: store, IDGen: store}

	beats := make([]entities.EpisodeBeat, 0, 5)
	for number := 1; number <= 5; number++ {
		beats = append(beats, entities.EpisodeBeat{EpisodeNumber: number, Beat: "beat"})
	}

	script, err := useCase.SubmitScript(context.Background(), commands.SubmitScriptCommand{
		GroupID: "group-1",
		Title:   "The Lighthouse",
		Plan:    entities.EpisodePlan{Beats: beats},
	})
	if err != nil {
		t.Fatalf("submit script failed: %v", err)
	}
	if script.Status != entities.ScriptStatusSubmitted {
		t.Fatalf("expected submitted status, got %s", script.Status)
	}

	_, err = useCase.SubmitScript(context.Background(), commands.SubmitScriptCommand{
		GroupID: "group-1",
		Title:   "Short Plan",
		Plan:    entities.EpisodePlan{Beats: beats[:4]},
	})
	if !errors.Is(err, domainerrors.ErrInvalidScriptInput) {
		t.Fatalf("expected invalid script input for short plan, got %v", err)
	}

	misnumbered := make([]entities.EpisodeBeat, len(beats))
	copy(misnumbered, beats)
	misnumbered[2].EpisodeNumber = 7
	_, err = useCase.SubmitScript(context.Background(), commands.SubmitScriptCommand{
		GroupID: "group-1",
		Title:   "Bad Numbering",
		Plan:    entities.EpisodePlan{Beats: misnumbered},
	})
	if !errors.Is(err, domainerrors.ErrInvalidScriptInput) {
		t.Fatalf("expected invalid script input for misnumbered plan, got %v", err)
	}
}
