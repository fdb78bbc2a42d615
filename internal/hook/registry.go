package hook

import (
	"fmt"
	"slices"
)

// HookNameError reports an implementation that does not structurally
// match any known hook spec. It is fatal to the owning plugin only;
// other plugins continue loading.
type HookNameError struct {
	Plugin string
	Hook   string
	Reason string
}

func (e *HookNameError) Error() string {
	return fmt.Sprintf("plugin %q: hook %q: %s", e.Plugin, e.Hook, e.Reason)
}

// binding pairs an implementation with the plugin that contributed it.
type binding struct {
	plugin string
	impl   Impl
}

// Registry holds the canonical hook spec table plus the implementations
// offered by active plugins. It is rebuilt per process start; nothing
// survives across invocations.
type Registry struct {
	specs    map[string]Spec
	defaults map[string]Impl
	impls    map[string][]binding
}

// NewRegistry creates a registry over the given spec table.
func NewRegistry(specs ...Spec) *Registry {
	r := &Registry{
		specs:    make(map[string]Spec, len(specs)),
		defaults: make(map[string]Impl),
		impls:    make(map[string][]binding),
	}
	for _, s := range specs {
		r.specs[s.Name] = s
	}
	return r
}

// Spec looks up a spec by name.
func (r *Registry) Spec(name string) (Spec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// SetDefault installs the host default for a core hook. Every core
// spec must have a default so that "no plugins" mode leaves all core
// hooks resolvable.
func (r *Registry) SetDefault(impl Impl) error {
	spec, ok := r.specs[impl.Name]
	if !ok {
		return fmt.Errorf("default for unknown hook %q", impl.Name)
	}
	if spec.Kind != Core {
		return fmt.Errorf("default for %q: only core hooks have host defaults", impl.Name)
	}
	if err := validateParams(spec, impl); err != nil {
		return fmt.Errorf("default for %q: %w", impl.Name, err)
	}
	r.defaults[impl.Name] = impl
	return nil
}

// Register validates and stores all implementations offered by one
// plugin. Validation is all-or-nothing: if any implementation fails,
// none of the plugin's implementations become visible and the returned
// error is a *HookNameError identifying plugin and hook. Registration
// order across plugins is activation order, which the dispatcher
// relies on for both dispatch modes.
func (r *Registry) Register(plugin string, impls []Impl) error {
	seen := make(map[string]bool, len(impls))
	for _, impl := range impls {
		spec, ok := r.specs[impl.Name]
		if !ok {
			return &HookNameError{Plugin: plugin, Hook: impl.Name, Reason: "no hook spec with this name"}
		}
		if seen[impl.Name] {
			return &HookNameError{Plugin: plugin, Hook: impl.Name, Reason: "implemented twice by the same plugin"}
		}
		seen[impl.Name] = true
		if err := validateParams(spec, impl); err != nil {
			return &HookNameError{Plugin: plugin, Hook: impl.Name, Reason: err.Error()}
		}
		if impl.Fn == nil {
			return &HookNameError{Plugin: plugin, Hook: impl.Name, Reason: "implementation has no callable"}
		}
	}
	for _, impl := range impls {
		r.impls[impl.Name] = append(r.impls[impl.Name], binding{plugin: plugin, impl: impl})
	}
	return nil
}

// validateParams checks that the implementation's declared roles are a
// subset of the spec's. Omitting roles is fine (extra context the
// implementation does not need); inventing or renaming them is not.
func validateParams(spec Spec, impl Impl) error {
	for _, p := range impl.Params {
		if !slices.Contains(spec.Params, p) {
			return fmt.Errorf("parameter %q is not declared by the hook spec (known: %v)", p, spec.Params)
		}
	}
	return nil
}

// bindings returns the registered implementations for a hook in
// activation order.
func (r *Registry) bindings(name string) []binding {
	return r.impls[name]
}
