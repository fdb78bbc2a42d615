package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/repobee/repobee-sub000/internal/command"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/output"
	"github.com/repobee/repobee-sub000/internal/ui"
)

func (h *host) newPluginCategory() *command.Category {
	return &command.Category{
		Name: "plugin",
		Help: "Manage plugins",
		Actions: []*command.Action{
			{
				Name: "list",
				Help: "List available plugins and their activation state",
				Body: h.pluginList,
			},
			{
				Name: "activate",
				Help: "Toggle persistent plugin activation",
				Long: `Toggles the named plugins in the persisted activation list. Without
arguments an interactive picker opens, seeded with the currently active
set.`,
				Args: []command.Argument{
					{Name: "plugins", Kind: command.Positional, Variadic: true, Help: "plugin names to toggle", Convert: command.SplitList},
				},
				Body: h.pluginActivate,
			},
		},
	}
}

// pluginState classifies one plugin's activation for display.
func (h *host) pluginState(name string) string {
	switch {
	case slices.Contains(h.opts.plugs, name):
		return "transient"
	case h.state.IsActive(name):
		return "active"
	default:
		return "inactive"
	}
}

func (h *host) pluginList(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	var rows [][]string
	for _, name := range h.catalog.Names() {
		version, description := "?", ""
		if init, ok := h.catalog.Lookup(name); ok {
			if m, err := init(h.cfg); err == nil && m != nil {
				version, description = m.Version, m.Description
			} else {
				description = "load error"
			}
		}
		rows = append(rows, []string{name, version, h.pluginState(name), description})
	}
	output.FromContext(ctx).Print(ui.RenderTable([]string{"NAME", "VERSION", "STATE", "DESCRIPTION"}, rows))
	return nil, nil
}

func (h *host) pluginActivate(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	names := inv.Values.Strings("plugins")
	if len(names) == 0 {
		return h.pluginActivateInteractive(ctx)
	}

	for _, name := range names {
		if _, ok := h.catalog.Lookup(name); !ok {
			return nil, fmt.Errorf("unknown plugin %q (known: %s)", name, strings.Join(h.catalog.Names(), ", "))
		}
	}
	for _, name := range names {
		if h.state.IsActive(name) {
			h.state.Deactivate(name)
		} else {
			h.state.Activate(name)
		}
	}
	return nil, h.saveState(ctx)
}

// pluginActivateInteractive opens the multi-select picker. The picker
// requires a terminal; scripted callers must name plugins explicitly.
func (h *host) pluginActivateInteractive(ctx context.Context) ([]*hook.Result, error) {
	if !ui.IsInteractive() {
		return nil, fmt.Errorf("no plugin names given and no terminal for the interactive picker")
	}

	choices := make([]ui.PluginChoice, 0, len(h.catalog.Names()))
	for _, name := range h.catalog.Names() {
		choice := ui.PluginChoice{Name: name, Active: h.state.IsActive(name)}
		if init, ok := h.catalog.Lookup(name); ok {
			if m, err := init(h.cfg); err == nil && m != nil {
				choice.Description = m.Description
			}
		}
		choices = append(choices, choice)
	}

	res, err := ui.RunPluginSelector(choices)
	if err != nil {
		return nil, err
	}
	if res.Cancelled {
		output.FromContext(ctx).Println("aborted, activation unchanged")
		return nil, nil
	}

	// Keep activation order for plugins that stay active; newly picked
	// ones append in catalog order.
	var next []string
	for _, name := range h.state.Active {
		if slices.Contains(res.Active, name) {
			next = append(next, name)
		}
	}
	for _, name := range res.Active {
		if !slices.Contains(next, name) {
			next = append(next, name)
		}
	}
	h.state.Active = next
	return nil, h.saveState(ctx)
}

func (h *host) saveState(ctx context.Context) error {
	if err := h.state.Save(h.cfg.StateFile); err != nil {
		return err
	}
	active := "none"
	if len(h.state.Active) > 0 {
		active = strings.Join(h.state.Active, ", ")
	}
	output.FromContext(ctx).Printf("active plugins: %s\n", active)
	return nil
}
