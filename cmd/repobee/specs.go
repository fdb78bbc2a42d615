package main

import (
	"context"
	"fmt"

	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/platform"
)

// registerDefaults installs the host defaults for every core hook, so
// that --no-plugins mode leaves all of them resolvable.
func registerDefaults(reg *hook.Registry) error {
	defaults := []hook.Impl{
		{
			Name:   hook.SelectPlatform,
			Params: []string{"base_url", "org"},
			Fn:     defaultSelectPlatform,
		},
		{
			Name:   hook.RepoName,
			Params: []string{"team", "assignment"},
			Fn:     defaultRepoName,
		},
	}
	for _, impl := range defaults {
		if err := reg.SetDefault(impl); err != nil {
			return err
		}
	}
	return nil
}

// defaultSelectPlatform binds the filesystem-backed local platform.
func defaultSelectPlatform(ctx context.Context, args hook.Args) (any, error) {
	return platform.NewLocal(args.String("base_url"), args.String("org"))
}

// defaultRepoName joins team and assignment with a dash.
func defaultRepoName(ctx context.Context, args hook.Args) (any, error) {
	team := args.String("team")
	assignment := args.String("assignment")
	if team == "" || assignment == "" {
		return nil, fmt.Errorf("repo_name: team and assignment are required")
	}
	return team + "-" + assignment, nil
}
