package main

import (
	"context"

	"github.com/repobee/repobee-sub000/internal/command"
	"github.com/repobee/repobee-sub000/internal/config"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/output"
	"github.com/repobee/repobee-sub000/internal/ui"
)

func (h *host) newConfigCategory() *command.Category {
	return &command.Category{
		Name: "config",
		Help: "Inspect and verify the configuration",
		Actions: []*command.Action{
			{
				Name: "show",
				Help: "Print the effective configuration (token redacted)",
				Body: h.configShow,
			},
			{
				Name: "verify",
				Help: "Check configuration and platform connectivity",
				Args: platformArgs(),
				Body: h.configVerify,
			},
			{
				Name: "init",
				Help: "Write a commented default configuration file",
				Args: []command.Argument{
					{Name: "force", Kind: command.Flag, Help: "Overwrite an existing file"},
				},
				Body: h.configInit,
			},
		},
	}
}

func redact(token string) string {
	if token == "" {
		return "<not set>"
	}
	return "*****"
}

func orUnset(v string) string {
	if v == "" {
		return "<not set>"
	}
	return v
}

func (h *host) configShow(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	printer := output.FromContext(ctx)

	path := h.cfg.Path()
	if path == "" {
		printer.Println("no config file found, showing defaults")
	} else {
		printer.Printf("config file: %s\n", path)
	}

	rows := [][]string{
		{"base_url", orUnset(h.cfg.BaseURL)},
		{"org", orUnset(h.cfg.Org)},
		{"template_org", orUnset(h.cfg.TemplateOrg)},
		{"user", orUnset(h.cfg.User)},
		{"students_file", orUnset(h.cfg.StudentsFile)},
		{"token", redact(h.cfg.Token)},
		{"state_file", orUnset(h.cfg.StateFile)},
	}
	printer.Print(ui.RenderTable([]string{"KEY", "VALUE"}, rows))
	return nil, nil
}

// configVerify reports one Result per check so partial configuration
// problems show up side by side.
func (h *host) configVerify(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	var results []*hook.Result
	check := func(name, value string) {
		if value == "" {
			results = append(results, hook.Error("config", name+" is not set"))
		} else {
			results = append(results, hook.Success("config", name+" is set"))
		}
	}
	base := h.cfg.BaseURL
	if v := inv.Values.String("base-url"); v != "" {
		base = v
	}
	org := h.cfg.Org
	if v := inv.Values.String("org-name"); v != "" {
		org = v
	}
	check("base_url", base)
	check("org", org)

	api, err := inv.Platform(ctx)
	if err != nil {
		results = append(results, hook.Error("platform", err.Error()))
		return results, nil
	}
	if err := api.VerifyAccess(ctx); err != nil {
		results = append(results, hook.Error(api.Name(), err.Error()))
		return results, nil
	}
	results = append(results, hook.Success(api.Name(), "platform access verified"))
	return results, nil
}

func (h *host) configInit(ctx context.Context, inv *command.Invocation) ([]*hook.Result, error) {
	path, err := config.Init(h.opts.configFile, inv.Values.Bool("force"))
	if err != nil {
		return nil, err
	}
	output.FromContext(ctx).Printf("wrote %s\n", path)
	return nil, nil
}
