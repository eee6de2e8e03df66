package commands

import (
	"context"
	"log/slog"
	"strings"

	application "showrunner/contexts/editorial/script-voting/application"
	"showrunner/contexts/editorial/script-voting/domain/entities"
	domainerrors "showrunner/contexts/editorial/script-voting/domain/errors"
	"showrunner/contexts/editorial/script-voting/ports"
)

// SubmitScriptCommand registers a gatekeeper-approved script for the next
// voting period. Content validation and moderation happened upstream; this
// command only checks structural completeness of the episode plan.
type SubmitScriptCommand struct {
	GroupID string
	Title   string
	Logline string
	Plan    entities.EpisodePlan
}

type ScriptUseCase struct {
	Scripts ports.ScriptRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func (uc ScriptUseCase) SubmitScript(ctx context.Context, cmd SubmitScriptCommand) (entities.Script, error) {
	logger := application.ResolveLogger(uc.Logger)
	groupID := strings.TrimSpace(cmd.GroupID)
	title := strings.TrimSpace(cmd.Title)
	if groupID == "" || title == "" || len(cmd.Plan.Beats) != 5 {
		logger.Warn("script submission validation failed",
			"event", "script_submit_validation_failed",
			"module", "editorial/script-voting",
			"layer", "application",
			"group_id", groupID,
			"beat_count", len(cmd.Plan.Beats),
		)
		return entities.Script{}, domainerrors.ErrInvalidScriptInput
	}
	for index, beat := range cmd.Plan.Beats {
		if beat.EpisodeNumber != index+1 || strings.TrimSpace(beat.Beat) == "" {
			return entities.Script{}, domainerrors.ErrInvalidScriptInput
		}
	}

	scriptID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Script{}, err
	}
	now := uc.Clock.Now().UTC()
	script := entities.Script{
		ScriptID:    scriptID,
		GroupID:     groupID,
		Title:       title,
		Logline:     strings.TrimSpace(cmd.Logline),
		Status:      entities.ScriptStatusSubmitted,
		Plan:        cmd.Plan,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Scripts.CreateScript(ctx, script); err != nil {
		return entities.Script{}, err
	}
	logger.Info("script submitted",
		"event", "script_submitted",
		"module", "editorial/script-voting",
		"layer", "application",
		"script_id", scriptID,
		"group_id", groupID,
	)
	return script, nil
}
