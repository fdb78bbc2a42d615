// Package gitlab binds repobee to a GitLab-flavored platform backend.
//
// The plugin replaces the select_platform core hook: when activated,
// every command talks to the GitLab binding instead of the built-in
// local platform. Connection settings come from the [gitlab] section
// of the configuration file, falling back to the core settings.
package gitlab

import (
	"context"
	"fmt"

	"github.com/repobee/repobee-sub000/internal/config"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/platform"
	"github.com/repobee/repobee-sub000/internal/plugin"
)

// Name is the plugin's stable catalog identifier.
const Name = "gitlab"

const version = "1.1.0"

// Init constructs the plugin manifest.
func Init(cfg *config.Config) (*plugin.Manifest, error) {
	return &plugin.Manifest{
		Name:        Name,
		Version:     version,
		Description: "GitLab platform backend",
		Hooks: []hook.Impl{
			{
				Name:   hook.SelectPlatform,
				Params: []string{"config", "token", "org"},
				Fn:     selectPlatform,
			},
			{
				Name:   hook.ConfigHook,
				Params: []string{"config"},
				Fn:     checkConfig,
			},
		},
	}, nil
}

// selectPlatform builds the GitLab platform binding. The [gitlab]
// section's base_url takes precedence over the core one, so the same
// config file can address both backends.
func selectPlatform(ctx context.Context, args hook.Args) (any, error) {
	cfg, ok := args.Value("config").(*config.Config)
	if !ok {
		return nil, fmt.Errorf("gitlab: config argument missing")
	}
	if args.String("token") == "" {
		return nil, platform.NewError("gitlab.select_platform", platform.KindBadCredentials,
			"token is not configured, set it in the config file or %s", config.TokenEnv)
	}

	// The core base_url is validated and ~-expanded by the config
	// loader; a section override arrives raw and gets the same
	// treatment here.
	baseURL := cfg.BaseURL
	if v, found := cfg.Section(Name)("base_url"); found {
		if err := config.ValidatePath(v, "base_url in ["+Name+"]"); err != nil {
			return nil, err
		}
		expanded, err := config.ExpandPath(v)
		if err != nil {
			return nil, fmt.Errorf("expand base_url in [%s]: %w", Name, err)
		}
		baseURL = expanded
	}

	api, err := platform.NewLocal(baseURL, args.String("org"))
	if err != nil {
		return nil, err
	}
	return api.WithName(Name), nil
}

// checkConfig validates the [gitlab] section during config verify.
func checkConfig(ctx context.Context, args hook.Args) (any, error) {
	cfg, ok := args.Value("config").(*config.Config)
	if !ok {
		return nil, fmt.Errorf("gitlab: config argument missing")
	}

	section := cfg.Section(Name)
	if v, found := section("base_url"); found {
		if v == "" {
			return hook.Error(Name, "base_url in [gitlab] is empty"), nil
		}
		if err := config.ValidatePath(v, "base_url in [gitlab]"); err != nil {
			return hook.Error(Name, err.Error()), nil
		}
	}
	if _, found := section("token"); found {
		return hook.Warning(Name, "token in [gitlab] is ignored, set it in ["+config.CoreSection+"] or "+config.TokenEnv), nil
	}
	return hook.Success(Name, "section ok"), nil
}
