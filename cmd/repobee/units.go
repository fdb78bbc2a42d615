package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/repobee/repobee-sub000/internal/command"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/platform"
)

// maxConcurrent bounds parallel platform calls per command.
const maxConcurrent = 8

// unit is one (team, assignment) work item of a repos or issues
// command.
type unit struct {
	team       platform.Team
	assignment string
}

func (u unit) String() string {
	return u.team.Name + "/" + u.assignment
}

// expandUnits crosses the roster with the assignment list, preserving
// roster order.
func expandUnits(teams []platform.Team, assignments []string) []unit {
	units := make([]unit, 0, len(teams)*len(assignments))
	for _, team := range teams {
		for _, assignment := range assignments {
			units = append(units, unit{team: team, assignment: assignment})
		}
	}
	return units
}

// runUnits runs fn over all units with bounded parallelism. Results
// keep unit order regardless of completion order. A returned error is
// fatal and cancels the remaining units; per-unit failures belong in
// ERROR Results instead.
func runUnits(ctx context.Context, units []unit, fn func(ctx context.Context, u unit) ([]*hook.Result, error)) ([]*hook.Result, error) {
	perUnit := make([][]*hook.Result, len(units))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, u := range units {
		g.Go(func() error {
			res, err := fn(ctx, u)
			perUnit[i] = res
			return err
		})
	}
	err := g.Wait()

	var results []*hook.Result
	for _, res := range perUnit {
		results = append(results, res...)
	}
	return results, err
}

// unitRepoName resolves the repository name for a unit through the
// repo_name core hook.
func unitRepoName(ctx context.Context, inv *command.Invocation, u unit) (string, error) {
	ret, err := inv.Hooks.Core(ctx, hook.RepoName, hook.Args{
		"team":       u.team.Name,
		"assignment": u.assignment,
	})
	if err != nil {
		return "", err
	}
	name, ok := ret.(string)
	if !ok || name == "" {
		return "", fmt.Errorf("repo_name returned %T, want a non-empty string", ret)
	}
	return name, nil
}
