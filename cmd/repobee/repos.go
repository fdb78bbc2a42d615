package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/repobee/repobee-sub000/internal/command"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/log"
	"github.com/repobee/repobee-sub000/internal/platform"
)

func newReposCategory() *command.Category {
	return &command.Category{
		Name: "repos",
		Help: "Manage student repositories",
		Actions: []*command.Action{
			{
				Name: "setup",
				Help: "Create student teams and repositories for assignments",
				Long: `Creates one repository per (team, assignment) pair: the team is
created if missing, its members are assigned, the repository is created
and the team gets push access. Already existing repositories are left
untouched and reported as warnings.`,
				Args: append(append(studentArgs(), platformArgs()...),
					assignmentsArg(),
					command.Argument{Name: "public", Kind: command.Flag, Help: "Create repositories as public"},
				),
				Body: reposSetup,
			},
			{
				Name: "clone",
				Help: "Materialize student repositories into a local directory",
				Args: append(append(studentArgs(), platformArgs()...),
					assignmentsArg(),
					command.Argument{Name: "target-dir", Kind: command.Option, Default: ".", Configurable: true, Help: "Directory to clone into"},
				),
				Body: reposClone,
			},
			{
				Name: "update",
				Help: "Re-sync team access on existing student repositories",
				Args: append(append(studentArgs(), platformArgs()...),
					assignmentsArg(),
					command.Argument{Name: "issue", Kind: command.Option, Help: "Issue file (first line title, rest body) to open on repos that fail", Convert: issueFromFile},
				),
				Body: reposUpdate,
			},
		},
	}
}

// reposSetup creates teams and repositories for every unit and fires
// post_setup per repository.
func reposSetup(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	api, err := inv.Platform(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := loadRoster(inv)
	if err != nil {
		return nil, err
	}
	units := expandUnits(teams, inv.Values.Strings("assignments"))
	private := !inv.Values.Bool("public")

	return runUnits(ctx, units, func(ctx context.Context, u unit) ([]*hook.Result, error) {
		repo, created, err := setupUnit(ctx, inv, api, u, private)
		if err != nil {
			if platform.IsFatal(err) {
				return nil, err
			}
			return []*hook.Result{hook.Error(u.String(), err.Error())}, nil
		}

		results := []*hook.Result{}
		if created {
			results = append(results, hook.Success(u.String(), "created "+repo.Name))
		} else {
			results = append(results, hook.Warning(u.String(), repo.Name+" already exists"))
		}

		extResults, err := inv.Hooks.Extension(ctx, hook.PostSetup, hook.Args{"repo": repo, "api": api})
		results = append(results, extResults...)
		return results, err
	})
}

// setupUnit performs the platform work of one setup unit.
func setupUnit(ctx context.Context, inv *command.Invocation, api platform.API, u unit, private bool) (platform.Repo, bool, error) {
	team, err := ensureTeam(ctx, api, u.team)
	if err != nil {
		return platform.Repo{}, false, err
	}

	name, err := unitRepoName(ctx, inv, u)
	if err != nil {
		return platform.Repo{}, false, err
	}

	created := false
	repo, err := api.GetRepo(ctx, name)
	if platform.IsNotFound(err) {
		desc := fmt.Sprintf("%s for %s", u.assignment, u.team.Name)
		repo, err = api.CreateRepo(ctx, name, desc, private)
		created = err == nil
	}
	if err != nil {
		return platform.Repo{}, false, err
	}

	if err := api.AssignRepo(ctx, team, repo, platform.PermissionPush); err != nil {
		return platform.Repo{}, false, err
	}
	return repo, created, nil
}

// ensureTeam fetches a team, creating it and assigning the members if
// it does not exist yet.
func ensureTeam(ctx context.Context, api platform.API, want platform.Team) (platform.Team, error) {
	team, err := api.GetTeam(ctx, want.Name)
	if platform.IsNotFound(err) {
		team, err = api.CreateTeam(ctx, want.Name)
	}
	if err != nil {
		return platform.Team{}, err
	}
	return api.AssignMembers(ctx, team, want.Members)
}

// reposClone materializes every unit's repository under the target
// directory and fires post_clone per repository.
func reposClone(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	api, err := inv.Platform(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := loadRoster(inv)
	if err != nil {
		return nil, err
	}
	units := expandUnits(teams, inv.Values.Strings("assignments"))

	targetDir := inv.Values.String("target-dir")
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("create target directory: %w", err)
	}

	return runUnits(ctx, units, func(ctx context.Context, u unit) ([]*hook.Result, error) {
		name, err := unitRepoName(ctx, inv, u)
		if err != nil {
			return nil, err
		}
		repo, err := api.GetRepo(ctx, name)
		if err != nil {
			if platform.IsFatal(err) {
				return nil, err
			}
			return []*hook.Result{hook.Error(u.String(), err.Error())}, nil
		}

		if err := materialize(targetDir, repo); err != nil {
			return []*hook.Result{hook.Error(u.String(), err.Error())}, nil
		}

		results := []*hook.Result{hook.Success(u.String(), "cloned "+repo.Name)}
		extResults, err := inv.Hooks.Extension(ctx, hook.PostClone, hook.Args{"repo": repo, "api": api})
		results = append(results, extResults...)
		return results, err
	})
}

// materialize writes the repository's working directory and a metadata
// document under dir. An existing directory is an error so a re-run
// never clobbers local work.
func materialize(dir string, repo platform.Repo) error {
	path := filepath.Join(dir, repo.Name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(repo, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(path, ".repobee.json"), data, 0644)
}

// reposUpdate re-asserts team access on every unit's repository. When
// --issue is given, repositories that fail get the issue opened on
// them instead of a bare ERROR Result.
func reposUpdate(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	api, err := inv.Platform(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := loadRoster(inv)
	if err != nil {
		return nil, err
	}
	units := expandUnits(teams, inv.Values.Strings("assignments"))

	var issue *issueContent
	if inv.Values.Has("issue") {
		ic := inv.Values.Value("issue").(issueContent)
		issue = &ic
	}

	return runUnits(ctx, units, func(ctx context.Context, u unit) ([]*hook.Result, error) {
		res, err := updateUnit(ctx, inv, api, u, issue)
		if err != nil {
			if platform.IsFatal(err) {
				return nil, err
			}
			return []*hook.Result{hook.Error(u.String(), err.Error())}, nil
		}
		return []*hook.Result{res}, nil
	})
}

func updateUnit(ctx context.Context, inv *command.Invocation, api platform.API, u unit, issue *issueContent) (*hook.Result, error) {
	name, err := unitRepoName(ctx, inv, u)
	if err != nil {
		return nil, err
	}

	repo, getErr := api.GetRepo(ctx, name)
	if getErr == nil {
		team, terr := api.GetTeam(ctx, u.team.Name)
		if terr == nil {
			terr = api.AssignRepo(ctx, team, repo, platform.PermissionPush)
		}
		if terr == nil {
			return hook.Success(u.String(), "updated "+repo.Name), nil
		}
		getErr = terr
	}
	if platform.IsFatal(getErr) {
		return nil, getErr
	}

	// The update failed; open the issue on the repo if one was given
	// and the repo at least exists.
	if issue != nil && repo.Name != "" {
		if _, ierr := api.OpenIssue(ctx, repo, issue.Title, issue.Body); ierr != nil {
			log.FromContext(ctx).Warnf("open issue on %s: %v", repo.Name, ierr)
		}
	}
	return hook.Error(u.String(), getErr.Error()), nil
}
