package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/repobee/repobee-sub000/internal/config"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/log"
)

// Tree is the merged category/action hierarchy for one invocation.
type Tree struct {
	categories []*Category
	byName     map[string]*Category
}

// Categories returns the merged categories in declaration order:
// host first, then plugin contributions in activation order.
func (t *Tree) Categories() []*Category {
	return t.categories
}

// Find returns an action by category and action name.
func (t *Tree) Find(category, action string) (*Action, bool) {
	cat, ok := t.byName[category]
	if !ok {
		return nil, false
	}
	for _, a := range cat.Actions {
		if a.Name == action {
			return a, true
		}
	}
	return nil, false
}

// Build merges host categories with plugin contributions, in
// activation order, enforcing the tree invariants: category names are
// unique, (category, action) pairs are unique, extensions only attach
// to existing actions, and extension argument names are prefixed with
// the contributing plugin's name and collide with nothing.
func Build(host []*Category, contribs []*Contribution) (*Tree, error) {
	t := &Tree{byName: make(map[string]*Category)}

	for _, cat := range host {
		if err := t.addCategory(cat, ""); err != nil {
			return nil, err
		}
	}

	for _, contrib := range contribs {
		for _, cat := range contrib.Categories {
			if err := t.addCategory(cat, contrib.Plugin); err != nil {
				return nil, fmt.Errorf("plugin %q: %w", contrib.Plugin, err)
			}
		}
	}

	// Extensions attach after all categories exist, so a plugin may
	// extend an action contributed by an earlier-activated plugin.
	for _, contrib := range contribs {
		for _, ext := range contrib.Extensions {
			if ext.Plugin == "" {
				ext.Plugin = contrib.Plugin
			}
			if err := t.attach(ext); err != nil {
				return nil, fmt.Errorf("plugin %q: %w", contrib.Plugin, err)
			}
		}
	}

	return t, nil
}

// addCategory inserts or merges one category. A plugin adding actions
// to an existing category merges into it; duplicate (category, action)
// pairs are an error.
func (t *Tree) addCategory(cat *Category, plugin string) error {
	existing, ok := t.byName[cat.Name]
	if !ok {
		merged := &Category{Name: cat.Name, Help: cat.Help}
		t.categories = append(t.categories, merged)
		t.byName[cat.Name] = merged
		existing = merged
	}

	for _, action := range cat.Actions {
		for _, have := range existing.Actions {
			if have.Name == action.Name {
				return fmt.Errorf("action %q %q is already defined", cat.Name, action.Name)
			}
		}
		pos := action.positionals()
		for i, p := range pos {
			if p.Variadic && i != len(pos)-1 {
				return fmt.Errorf("action %q %q: variadic positional %q must be last", cat.Name, action.Name, p.Name)
			}
		}
		if plugin != "" && action.Section == "" {
			action.Section = plugin
		}
		existing.Actions = append(existing.Actions, action)
	}
	return nil
}

// attach validates and attaches one extension to its target action.
func (t *Tree) attach(ext *Extension) error {
	action, ok := t.Find(ext.Category, ext.Action)
	if !ok {
		return fmt.Errorf("extension targets unknown action %q %q", ext.Category, ext.Action)
	}

	prefix := ext.Plugin + "-"
	for _, arg := range ext.Args {
		if arg.Kind == Positional {
			return fmt.Errorf("extension argument %q: extensions cannot add positional arguments", arg.Name)
		}
		if !strings.HasPrefix(arg.Name, prefix) {
			return fmt.Errorf("extension argument %q must be prefixed with the plugin name (%q)", arg.Name, prefix)
		}
		if conflict := argOwner(action, arg.Name); conflict != "" {
			return fmt.Errorf("extension argument %q collides with an argument owned by %s", arg.Name, conflict)
		}
	}

	action.exts = append(action.exts, ext)
	return nil
}

// argOwner reports who already declares an argument with this name on
// the action, or "" if nobody does.
func argOwner(action *Action, name string) string {
	for _, arg := range action.Args {
		if arg.Name == name {
			return fmt.Sprintf("action %q", action.Name)
		}
	}
	for _, ext := range action.exts {
		for _, arg := range ext.Args {
			if arg.Name == name {
				return fmt.Sprintf("plugin %q", ext.Plugin)
			}
		}
	}
	return ""
}

// Env is the per-invocation environment the rendered commands run in.
// It is constructed once per process start and passed explicitly; no
// global registry state survives across invocations.
type Env struct {
	Config *config.Config
	Hooks  *hook.Dispatcher

	// Report renders the aggregated Results of one executed action.
	Report func(ctx context.Context, results []*hook.Result)

	// Traceback propagates extension callback errors instead of
	// converting them to ERROR Results.
	Traceback bool
}

// Commands renders the merged tree to one cobra command per category,
// each with one subcommand per action. Help output is derived from the
// declared arguments and their help strings.
func (t *Tree) Commands(env *Env) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(t.categories))
	for _, cat := range t.categories {
		catCmd := &cobra.Command{
			Use:   cat.Name,
			Short: cat.Help,
		}
		for _, action := range cat.Actions {
			catCmd.AddCommand(actionCommand(env, cat, action))
		}
		cmds = append(cmds, catCmd)
	}
	return cmds
}

// actionCommand renders one action to a cobra command.
func actionCommand(env *Env, cat *Category, action *Action) *cobra.Command {
	pos := action.positionals()

	use := action.Name
	for _, p := range pos {
		name := p.Name
		if p.Variadic {
			name += "..."
		}
		if p.Required {
			use += fmt.Sprintf(" <%s>", name)
		} else {
			use += fmt.Sprintf(" [%s]", name)
		}
	}

	argsCheck := cobra.MaximumNArgs(len(pos))
	if len(pos) > 0 && pos[len(pos)-1].Variadic {
		argsCheck = cobra.ArbitraryArgs
	}

	cmd := &cobra.Command{
		Use:           use,
		Short:         action.Help,
		Long:          action.Long,
		Args:          argsCheck,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			vals, err := Bind(action, cmd.Flags(), args, env.Config)
			if err != nil {
				return err
			}

			inv := &Invocation{Values: vals, Config: env.Config, Hooks: env.Hooks}
			results, bodyErr := action.Body(ctx, inv)

			// Extension callbacks run even when the body collected
			// per-unit failures, but not after a fatal body error.
			if bodyErr == nil {
				extResults, extErr := runExtensions(ctx, env, action, inv)
				results = append(results, extResults...)
				bodyErr = extErr
			}

			// Partial failure is a first-class success path: report
			// whatever was gathered before surfacing a fatal error.
			if env.Report != nil && len(results) > 0 {
				env.Report(ctx, results)
			}
			if bodyErr != nil {
				return fmt.Errorf("%s %s: %w", cat.Name, action.Name, bodyErr)
			}
			return nil
		},
	}

	registerFlags(cmd.Flags(), action)
	return cmd
}

// runExtensions invokes attached extension callbacks in activation
// order, isolating each failure like the extension hook dispatcher.
func runExtensions(ctx context.Context, env *Env, action *Action, inv *Invocation) ([]*hook.Result, error) {
	var results []*hook.Result
	var firstErr error
	for _, ext := range action.exts {
		if ext.Callback == nil {
			continue
		}
		res, err := safeCallback(ctx, ext, inv)
		if err != nil {
			log.FromContext(ctx).Warnf("extension %q failed: %v", ext.Plugin, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("extension %q: %w", ext.Plugin, err)
			}
			if !env.Traceback {
				results = append(results, hook.Error(ext.Plugin, err.Error()))
			}
			continue
		}
		if res != nil {
			results = append(results, res)
		}
	}
	if env.Traceback && firstErr != nil {
		return results, firstErr
	}
	return results, nil
}

func safeCallback(ctx context.Context, ext *Extension, inv *Invocation) (res *hook.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ext.Callback(ctx, inv)
}

// registerFlags declares the pflag surface for an action: one string
// flag per option, one bool flag per flag argument, for host and
// extension arguments alike. Defaults are left zero here; the binder
// applies precedence and typed defaults itself.
func registerFlags(fs *pflag.FlagSet, action *Action) {
	add := func(arg Argument) {
		switch arg.Kind {
		case Option:
			fs.StringP(arg.Name, arg.Short, "", arg.Help)
		case Flag:
			fs.BoolP(arg.Name, arg.Short, false, arg.Help)
		}
	}
	for _, arg := range action.Args {
		add(arg)
	}
	for _, ext := range action.exts {
		for _, arg := range ext.Args {
			add(arg)
		}
	}
}
