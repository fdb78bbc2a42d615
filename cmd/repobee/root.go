package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/repobee/repobee-sub000/internal/command"
	"github.com/repobee/repobee-sub000/internal/config"
	"github.com/repobee/repobee-sub000/internal/hook"
	"github.com/repobee/repobee-sub000/internal/log"
	"github.com/repobee/repobee-sub000/internal/output"
	"github.com/repobee/repobee-sub000/internal/plugin"
	"github.com/repobee/repobee-sub000/internal/plugins/gitlab"
	"github.com/repobee/repobee-sub000/internal/plugins/tamanager"
	"github.com/repobee/repobee-sub000/internal/ui"
)

// globalOptions are the framework flags that must be known before the
// command tree exists: plugin loading precedes cobra parsing, so they
// are pre-scanned from the raw argument list.
type globalOptions struct {
	plugs      []string
	noPlugins  bool
	strict     bool
	traceback  bool
	configFile string
	verbose    bool
	quiet      bool
}

// parseGlobals scans args for the global flags without consuming them;
// cobra parses the same flags again later for validation and help.
// Shorthand options follow the pflag spellings: -p NAME, -p=NAME and
// -pNAME all carry a value.
func parseGlobals(args []string) globalOptions {
	var opts globalOptions
	next := func(i int) string {
		if i+1 < len(args) {
			return args[i+1]
		}
		return ""
	}
	// shortValue extracts the value of a shorthand option like -p:
	// attached (-pNAME), equals (-p=NAME), or the following argument.
	shortValue := func(arg, short string, i *int) string {
		v := arg[len(short):]
		if v == "" {
			v = next(*i)
			*i = *i + 1
			return v
		}
		return strings.TrimPrefix(v, "=")
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--plug":
			if v := next(i); v != "" {
				opts.plugs = append(opts.plugs, splitNames(v)...)
				i++
			}
		case strings.HasPrefix(arg, "--plug="):
			opts.plugs = append(opts.plugs, splitNames(strings.TrimPrefix(arg, "--plug="))...)
		case arg == "--no-plugins":
			opts.noPlugins = true
		case arg == "--strict":
			opts.strict = true
		case arg == "--traceback":
			opts.traceback = true
		case arg == "--config-file":
			if v := next(i); v != "" {
				opts.configFile = v
				i++
			}
		case strings.HasPrefix(arg, "--config-file="):
			opts.configFile = strings.TrimPrefix(arg, "--config-file=")
		case arg == "-v" || arg == "--verbose":
			opts.verbose = true
		case arg == "-q" || arg == "--quiet":
			opts.quiet = true
		case strings.HasPrefix(arg, "-p") && !strings.HasPrefix(arg, "--"):
			opts.plugs = append(opts.plugs, splitNames(shortValue(arg, "-p", &i))...)
		case strings.HasPrefix(arg, "-c") && !strings.HasPrefix(arg, "--"):
			if v := shortValue(arg, "-c", &i); v != "" {
				opts.configFile = v
			}
		}
	}
	return opts
}

// splitNames splits a comma-separated plugin list, matching cobra's
// string slice flag behavior.
func splitNames(v string) []string {
	var names []string
	for _, name := range strings.Split(v, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// host carries the state the built-in plugin and config commands need
// beyond the per-invocation environment.
type host struct {
	catalog *plugin.Catalog
	state   *plugin.State
	cfg     *config.Config
	opts    globalOptions
}

// categories assembles the host command surface.
func (h *host) categories() []*command.Category {
	return []*command.Category{
		newReposCategory(),
		newTeamsCategory(),
		newIssuesCategory(),
		h.newConfigCategory(),
		h.newPluginCategory(),
	}
}

// newCatalog registers the plugins shipped in-tree.
func newCatalog() (*plugin.Catalog, error) {
	c := plugin.NewCatalog()
	if err := c.Register(gitlab.Name, gitlab.Init); err != nil {
		return nil, err
	}
	if err := c.Register(tamanager.Name, tamanager.Init); err != nil {
		return nil, err
	}
	return c, nil
}

// Execute loads configuration and plugins, builds the command tree and
// runs the requested command.
func Execute() {
	opts := parseGlobals(os.Args[1:])

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stderr, opts.verbose, opts.quiet)
	ctx = log.WithLogger(ctx, logger)
	ctx = output.WithPrinter(ctx, os.Stdout)

	root, err := buildRoot(ctx, opts)
	if err != nil {
		fatal(err, opts.traceback)
	}
	root.SetContext(ctx)

	if err := root.Execute(); err != nil {
		fatal(err, opts.traceback)
	}
}

// fatal prints one concise line and exits non-zero. Traceback mode has
// already preserved the original error through the dispatch layers.
func fatal(err error, traceback bool) {
	fmt.Fprintf(os.Stderr, "repobee: %v\n", err)
	if !traceback {
		fmt.Fprintln(os.Stderr, "Run with --traceback for the underlying error")
	}
	os.Exit(1)
}

// buildRoot assembles the full cobra tree for one invocation: config,
// plugin activation, hook registry, merged command tree.
func buildRoot(ctx context.Context, opts globalOptions) (*cobra.Command, error) {
	logger := log.FromContext(ctx)

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}

	catalog, err := newCatalog()
	if err != nil {
		return nil, err
	}

	state, err := plugin.LoadState(cfg.StateFile)
	if err != nil {
		return nil, err
	}

	loader := plugin.NewLoader(catalog, cfg)
	loaded, warnings, err := loader.Load(plugin.Options{
		Persisted: state.Active,
		Transient: opts.plugs,
		NoPlugins: opts.noPlugins,
		Strict:    opts.strict,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warnf("plugin %q skipped: %v", w.Plugin, w.Err)
	}

	reg := hook.NewRegistry(hook.Specs()...)
	if err := registerDefaults(reg); err != nil {
		return nil, err
	}

	// A plugin whose hooks fail validation is dropped entirely: its
	// commands and extensions must not appear either.
	var active []*plugin.Loaded
	for _, p := range loaded {
		if err := reg.Register(p.Name, p.Hooks); err != nil {
			if opts.strict {
				return nil, err
			}
			logger.Warnf("plugin %q skipped: %v", p.Name, err)
			continue
		}
		active = append(active, p)
	}

	dispatcher := hook.NewDispatcher(reg, opts.traceback)

	// Let plugins validate their config section before any command runs.
	results, err := dispatcher.Extension(ctx, hook.ConfigHook, hook.Args{"config": cfg})
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.Status != hook.StatusSuccess {
			logger.Warnf("config (%s): %s", res.Name, res.Msg)
		}
	}

	h := &host{catalog: catalog, state: state, cfg: cfg, opts: opts}

	contribs := make([]*command.Contribution, 0, len(active))
	for _, p := range active {
		contribs = append(contribs, p.Contribution())
	}
	tree, err := command.Build(h.categories(), contribs)
	if err != nil {
		return nil, err
	}

	env := &command.Env{
		Config:    cfg,
		Hooks:     dispatcher,
		Traceback: opts.traceback,
		Report: func(ctx context.Context, results []*hook.Result) {
			output.FromContext(ctx).Print(ui.RenderResults(results))
		},
	}

	root := newRootCmd()
	for _, cmd := range tree.Commands(env) {
		root.AddCommand(cmd)
	}
	return root, nil
}

// newRootCmd creates the bare root command with the global flags
// registered so that cobra validates them and renders them in help.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "repobee",
		Short: "Administer course repositories on a git hosting platform",
		Long: `repobee manages student teams, repositories and issues for a course
organization. Every command runs through a plugin framework: plugins can
replace the platform backend, add commands, and extend existing ones.`,
		SilenceUsage:               true,
		SilenceErrors:              true,
		SuggestionsMinimumDistance: 2,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, _ := cmd.Flags().GetBool("verbose")
			q, _ := cmd.Flags().GetBool("quiet")
			if v && q {
				return errors.New("--verbose and --quiet are mutually exclusive")
			}
			return nil
		},
	}

	root.PersistentFlags().StringSliceP("plug", "p", nil, "Activate a plugin for this invocation only (repeatable)")
	root.PersistentFlags().Bool("no-plugins", false, "Disable all plugins")
	root.PersistentFlags().Bool("strict", false, "Treat plugin load failures as fatal")
	root.PersistentFlags().Bool("traceback", false, "Show full errors from failing plugins")
	root.PersistentFlags().StringP("config-file", "c", "", "Configuration file to use")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show hook and platform calls")
	root.PersistentFlags().BoolP("quiet", "q", false, "Suppress all log output")

	root.Version = versionString()
	root.SetVersionTemplate("{{.Version}}\n")

	return root
}
