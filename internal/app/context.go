package app

import (
	"context"
	"errors"
	"fmt"

	"crewboard/internal/domain"
	"crewboard/internal/engine"
	"crewboard/internal/repo"
)

// ResolveTeam picks the active team for a CLI invocation. An explicit
// override wins; otherwise a workspace with exactly one team uses it. When
// the workspace has no team at all, one is created named after the override
// so a fresh checkout works without a separate setup step.
func ResolveTeam(ctx context.Context, e engine.Engine, override, actorID string) (domain.Team, error) {
	if override != "" {
		t, err := e.Repo.GetTeam(ctx, override)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return domain.Team{}, err
		}
		// Allow referring to a team by name as well as by id.
		teams, listErr := e.Repo.ListTeams(ctx)
		if listErr != nil {
			return domain.Team{}, listErr
		}
		for _, t := range teams {
			if t.Name == override {
				return t, nil
			}
		}
		if len(teams) > 0 {
			return domain.Team{}, fmt.Errorf("team %q not found", override)
		}
		return e.CreateTeam(ctx, override, actorID)
	}
	t, err := e.Repo.SingleTeam(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Team{}, fmt.Errorf("no team in workspace; create one with 'crew team create'")
		}
		return domain.Team{}, err
	}
	return t, nil
}
