package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/repobee/repobee-sub000/internal/command"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/platform"
)

func newTeamsCategory() *command.Category {
	return &command.Category{
		Name: "teams",
		Help: "Manage student teams",
		Actions: []*command.Action{
			{
				Name: "create",
				Help: "Create one team per student team and assign the members",
				Args: append(studentArgs(), platformArgs()...),
				Body: teamsCreate,
			},
		},
	}
}

func teamsCreate(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	api, err := inv.Platform(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := loadRoster(inv)
	if err != nil {
		return nil, err
	}

	// Teams are independent of assignments; reuse the unit runner with
	// a blank assignment slot.
	units := make([]unit, len(teams))
	for i, team := range teams {
		units[i] = unit{team: team}
	}

	return runUnits(ctx, units, func(ctx context.Context, u unit) ([]*hook.Result, error) {
		team, err := ensureTeam(ctx, api, u.team)
		if err != nil {
			if platform.IsFatal(err) {
				return nil, err
			}
			return []*hook.Result{hook.Error(u.team.Name, err.Error())}, nil
		}
		msg := fmt.Sprintf("team %s with members %s", team.Name, strings.Join(team.Members, ", "))
		return []*hook.Result{hook.Success(u.team.Name, msg)}, nil
	})
}
