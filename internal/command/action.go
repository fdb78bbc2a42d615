package command

import (
	"context"
	"fmt"

	"github.com/repobee/repobee-sub000/internal/config"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/platform"
)

// Invocation carries the per-invocation state a command body needs:
// the resolved argument values, the configuration, and the hook
// dispatcher. Nothing here is global; the tree builder constructs one
// Invocation per executed action.
type Invocation struct {
	Values *Values
	Config *config.Config
	Hooks  *hook.Dispatcher

	api platform.API
}

// platformConfig applies the per-invocation platform overrides
// (--base-url, --org-name, --token, --user) on top of the loaded
// configuration. The original Config is never mutated.
func (inv *Invocation) platformConfig() *config.Config {
	if inv.Values == nil {
		return inv.Config
	}
	cfg := *inv.Config
	if v := inv.Values.String("base-url"); v != "" {
		cfg.BaseURL = v
	}
	if v := inv.Values.String("org-name"); v != "" {
		cfg.Org = v
	}
	if v := inv.Values.String("token"); v != "" {
		cfg.Token = v
	}
	if v := inv.Values.String("user"); v != "" {
		cfg.User = v
	}
	return &cfg
}

// Platform resolves the platform API for this invocation through the
// select_platform core hook. The result is memoized: exactly one
// platform binding is active per invocation.
func (inv *Invocation) Platform(ctx context.Context) (platform.API, error) {
	if inv.api != nil {
		return inv.api, nil
	}
	cfg := inv.platformConfig()
	ret, err := inv.Hooks.Core(ctx, hook.SelectPlatform, hook.Args{
		"config":   cfg,
		"base_url": cfg.BaseURL,
		"token":    cfg.Token,
		"org":      cfg.Org,
	})
	if err != nil {
		return nil, err
	}
	api, ok := ret.(platform.API)
	if !ok {
		return nil, fmt.Errorf("select_platform returned %T, want platform.API", ret)
	}
	inv.api = api
	return api, nil
}

// Body is the single command body of an action. It returns the
// aggregated per-unit Results; a non-nil error is fatal to the
// invocation (Results gathered so far are still reported).
type Body func(ctx context.Context, inv *Invocation) ([]*hook.Result, error)

// Action is a named operation within a category: its CLI arguments
// and a single command body. Plugins may attach extensions but never
// redefine an existing action.
type Action struct {
	Name string
	Help string
	Long string
	Args []Argument
	Body Body

	// Section is the configuration section consulted for this
	// action's configurable arguments. Empty means the host core
	// section; the tree builder sets the owning plugin's name for
	// plugin-contributed actions.
	Section string

	exts []*Extension
}

// section returns the effective configuration section.
func (a *Action) section() string {
	if a.Section == "" {
		return config.CoreSection
	}
	return a.Section
}

// positionals returns the declared positional arguments in order.
func (a *Action) positionals() []Argument {
	var pos []Argument
	for _, arg := range a.Args {
		if arg.Kind == Positional {
			pos = append(pos, arg)
		}
	}
	return pos
}

// Extensions returns the extensions attached to this action.
func (a *Action) Extensions() []*Extension {
	return a.exts
}

// Category is a named grouping of actions. Category names are unique
// across the merged tree.
type Category struct {
	Name    string
	Help    string
	Actions []*Action
}

// Extension is a plugin contribution that attaches extra arguments
// and an extra callback to an existing action without redefining it.
// Extension argument names must carry the plugin name as a prefix
// ("<plugin>-<name>") so independently authored extensions cannot
// collide.
type Extension struct {
	Plugin   string
	Category string
	Action   string
	Args     []Argument

	// Callback runs after the action body, with the same Invocation.
	// Its Result (if any) is appended to the body's Results; a
	// failure is isolated and reported as an ERROR Result.
	Callback func(ctx context.Context, inv *Invocation) (*hook.Result, error)
}

// Contribution is everything one plugin adds to the command tree.
type Contribution struct {
	Plugin     string
	Categories []*Category
	Extensions []*Extension
}
