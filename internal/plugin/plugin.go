package plugin

import (
	"fmt"
	"sort"

	"github.com/repobee/repobee-sub000/internal/command"
	"github.com/repobee/repobee-sub000/internal/config"
	"github.com/repobee/repobee-sub000/internal/hook"
)

// Manifest is the explicit declaration of everything one plugin
// contributes: hook implementations, new command categories, and
// extensions to existing actions. The framework inspects only the
// manifest; nothing else about the plugin is visible to discovery.
type Manifest struct {
	Name        string
	Version     string
	Description string

	Hooks      []hook.Impl
	Categories []*command.Category
	Extensions []*command.Extension
}

// Contribution returns the plugin's command-tree contribution.
func (m *Manifest) Contribution() *command.Contribution {
	return &command.Contribution{
		Plugin:     m.Name,
		Categories: m.Categories,
		Extensions: m.Extensions,
	}
}

// InitFunc constructs a plugin's manifest for one invocation. The
// configuration is passed in so a plugin can read its own section;
// returning an error marks the plugin as failed to initialize.
type InitFunc func(cfg *config.Config) (*Manifest, error)

// Catalog is the discovery table: stable plugin identifier to
// manifest constructor. The host populates it at startup with the
// plugins shipped in-tree.
type Catalog struct {
	entries map[string]InitFunc
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]InitFunc)}
}

// Register adds a plugin under its stable identifier.
func (c *Catalog) Register(name string, init InitFunc) error {
	if name == "" {
		return fmt.Errorf("plugin name is empty")
	}
	if _, ok := c.entries[name]; ok {
		return fmt.Errorf("plugin %q is already registered", name)
	}
	c.entries[name] = init
	return nil
}

// Lookup returns the constructor for a plugin identifier.
func (c *Catalog) Lookup(name string) (InitFunc, bool) {
	fn, ok := c.entries[name]
	return fn, ok
}

// Names returns all registered identifiers, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
