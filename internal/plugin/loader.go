package plugin

import (
	"fmt"
	"slices"

	"github.com/sahilm/fuzzy"

	"github.com/repobee/repobee-sub000/internal/config"
)

// Options control which plugins are active for one invocation.
type Options struct {
	// Persisted is the previously activated list, in activation
	// order.
	Persisted []string

	// Transient plugins are requested for this invocation only.
	// They are always loaded and appended after persisted plugins,
	// so a transient activation can override core hooks supplied by
	// persisted plugins.
	Transient []string

	// NoPlugins disables all plugins; core hooks fall back to host
	// defaults.
	NoPlugins bool

	// Strict turns load failures into errors instead of warnings.
	Strict bool
}

// Loaded is one successfully initialized plugin in the active set.
type Loaded struct {
	*Manifest
	Transient bool
}

// Warning reports a plugin that could not be loaded. Its absence must
// not prevent the rest of the command from running.
type Warning struct {
	Plugin string
	Err    error
}

// Loader produces the ordered active plugin set for one invocation.
type Loader struct {
	catalog *Catalog
	cfg     *config.Config
}

// NewLoader creates a loader over the given catalog.
func NewLoader(catalog *Catalog, cfg *config.Config) *Loader {
	return &Loader{catalog: catalog, cfg: cfg}
}

// Load resolves the active set. The order is deterministic: persisted
// plugins in activation order, then transient plugins in request
// order; a plugin named in both lists takes its transient (later)
// position. In strict mode the first failure aborts; otherwise failed
// plugins are returned as warnings and skipped.
func (l *Loader) Load(opts Options) ([]*Loaded, []Warning, error) {
	if opts.NoPlugins {
		return nil, nil, nil
	}

	type request struct {
		name      string
		transient bool
	}
	var requests []request
	for _, name := range opts.Persisted {
		if slices.Contains(opts.Transient, name) {
			continue
		}
		requests = append(requests, request{name: name})
	}
	for _, name := range opts.Transient {
		requests = append(requests, request{name: name, transient: true})
	}

	var loaded []*Loaded
	var warnings []Warning
	seen := make(map[string]bool, len(requests))
	for _, req := range requests {
		if seen[req.name] {
			continue
		}
		seen[req.name] = true

		p, err := l.load(req.name)
		if err != nil {
			if opts.Strict {
				return nil, nil, err
			}
			warnings = append(warnings, Warning{Plugin: req.name, Err: err})
			continue
		}
		loaded = append(loaded, &Loaded{Manifest: p, Transient: req.transient})
	}
	return loaded, warnings, nil
}

// load initializes one plugin from the catalog.
func (l *Loader) load(name string) (*Manifest, error) {
	init, ok := l.catalog.Lookup(name)
	if !ok {
		if suggestion := l.suggest(name); suggestion != "" {
			return nil, fmt.Errorf("unknown plugin %q (did you mean %q?)", name, suggestion)
		}
		return nil, fmt.Errorf("unknown plugin %q", name)
	}
	m, err := init(l.cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize plugin %q: %w", name, err)
	}
	if m == nil {
		return nil, fmt.Errorf("plugin %q produced no manifest", name)
	}
	if m.Name != name {
		return nil, fmt.Errorf("plugin %q declares mismatched name %q", name, m.Name)
	}
	return m, nil
}

// suggest fuzzy-matches an unknown name against the catalog.
func (l *Loader) suggest(name string) string {
	matches := fuzzy.Find(name, l.catalog.Names())
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
