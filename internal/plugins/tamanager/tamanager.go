// Package tamanager maintains a course's teaching assistant team.
//
// The plugin keeps a single platform team holding all TAs and grants
// it read access to every student repository created by repos setup.
// It demonstrates all three extension surfaces: an extension hook
// (post_setup), an extension command argument on repos setup, and its
// own command category.
package tamanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/repobee/repobee-sub000/internal/command"
	"github.com/repobee/repobee-sub000/internal/config"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/output"
	"github.com/repobee/repobee-sub000/internal/platform"
	"github.com/repobee/repobee-sub000/internal/plugin"
	"github.com/repobee/repobee-sub000/internal/ui"
)

// Name is the plugin's stable catalog identifier.
const Name = "tamanager"

// TeamName is the platform team holding all teaching assistants.
const TeamName = "tas"

const version = "0.9.0"

// Init constructs the plugin manifest.
func Init(cfg *config.Config) (*plugin.Manifest, error) {
	return &plugin.Manifest{
		Name:        Name,
		Version:     version,
		Description: "TA team management",
		Hooks: []hook.Impl{
			{
				Name:   hook.PostSetup,
				Params: []string{"repo", "api"},
				Fn:     grantAccess,
			},
		},
		Categories: []*command.Category{
			{
				Name: Name,
				Help: "Manage the teaching assistant team",
				Actions: []*command.Action{
					{
						Name: "show",
						Help: "Show the TA team and its members",
						Body: showTeam,
					},
				},
			},
		},
		Extensions: []*command.Extension{
			{
				Plugin:   Name,
				Category: "repos",
				Action:   "setup",
				Args: []command.Argument{
					{
						Name:         Name + "-ta",
						Kind:         command.Option,
						Help:         "TA usernames to enroll (space or comma separated)",
						Configurable: true,
						Convert:      command.SplitList,
					},
				},
				Callback: enrollTAs,
			},
		},
	}, nil
}

// grantAccess runs after each repository is set up and grants the TA
// team read access. The team is created on first use.
func grantAccess(ctx context.Context, args hook.Args) (any, error) {
	repo, ok := args.Value("repo").(platform.Repo)
	if !ok {
		return nil, fmt.Errorf("tamanager: repo argument missing")
	}
	api, ok := args.Value("api").(platform.API)
	if !ok {
		return nil, fmt.Errorf("tamanager: api argument missing")
	}

	team, err := ensureTeam(ctx, api)
	if err != nil {
		return nil, err
	}
	if err := api.AssignRepo(ctx, team, repo, platform.PermissionPull); err != nil {
		return nil, fmt.Errorf("grant %s read access to %s: %w", TeamName, repo.Name, err)
	}
	return hook.Success(Name, fmt.Sprintf("granted %s read access to %s", TeamName, repo.Name)), nil
}

// enrollTAs runs after repos setup and adds the TAs named by the
// tamanager-ta argument to the team.
func enrollTAs(ctx context.Context, inv *command.Invocation) (*hook.Result, error) {
	tas := inv.Values.Strings(Name + "-ta")
	if len(tas) == 0 {
		return nil, nil
	}

	api, err := inv.Platform(ctx)
	if err != nil {
		return nil, err
	}
	team, err := ensureTeam(ctx, api)
	if err != nil {
		return nil, err
	}
	team, err = api.AssignMembers(ctx, team, tas)
	if err != nil {
		return nil, fmt.Errorf("enroll TAs: %w", err)
	}
	return hook.Success(Name, fmt.Sprintf("enrolled %s in %s", strings.Join(tas, ", "), TeamName)), nil
}

// showTeam prints the TA team roster.
func showTeam(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	api, err := inv.Platform(ctx)
	if err != nil {
		return nil, err
	}
	team, err := api.GetTeam(ctx, TeamName)
	if err != nil {
		if platform.IsNotFound(err) {
			output.FromContext(ctx).Printf("no %s team exists yet\n", TeamName)
			return nil, nil
		}
		return nil, err
	}

	rows := make([][]string, len(team.Members))
	for i, member := range team.Members {
		rows[i] = []string{member}
	}
	output.FromContext(ctx).Print(ui.RenderTable([]string{"MEMBER"}, rows))
	return nil, nil
}

// ensureTeam fetches the TA team, creating it if absent.
func ensureTeam(ctx context.Context, api platform.API) (platform.Team, error) {
	team, err := api.GetTeam(ctx, TeamName)
	if err == nil {
		return team, nil
	}
	if !platform.IsNotFound(err) {
		return platform.Team{}, err
	}
	team, err = api.CreateTeam(ctx, TeamName)
	if err != nil && !platform.IsConflict(err) {
		return platform.Team{}, fmt.Errorf("create %s team: %w", TeamName, err)
	}
	return team, nil
}
