package hook

import "context"

// Kind distinguishes single-winner core hooks from fan-out extension hooks.
type Kind int

const (
	// Core hooks alter fundamental behavior (e.g. which platform
	// backend to talk to). Exactly one implementation runs per
	// invocation; a plugin implementation replaces the host default.
	Core Kind = iota

	// Extension hooks augment behavior. Every active implementation
	// runs, in plugin activation order, and their Results are
	// aggregated.
	Extension
)

// String returns "core" or "extension".
func (k Kind) String() string {
	if k == Core {
		return "core"
	}
	return "extension"
}

// Spec is the immutable declaration of a hook: its name, its kind, and
// the parameter roles implementations may consume. Specs are created
// once at host startup and never mutated.
type Spec struct {
	Name   string
	Kind   Kind
	Params []string
}

// Args carries the named parameter values for one hook invocation,
// keyed by parameter role.
type Args map[string]any

// String returns the value for role as a string, or "" if absent or
// not a string.
func (a Args) String(role string) string {
	s, _ := a[role].(string)
	return s
}

// Value returns the raw value for role, or nil if absent.
func (a Args) Value(role string) any {
	return a[role]
}

// Func is the callable shape of every hook implementation. Core hook
// implementations return an arbitrary value (e.g. a platform API
// handle); extension hook implementations return a *Result or nil.
type Func func(ctx context.Context, args Args) (any, error)

// Impl is a concrete hook implementation offered by a plugin. Params
// lists the roles the callable consumes; it must be a subset of the
// matching Spec's params. The dispatcher passes only the declared
// roles, so an implementation that does not need a context parameter
// simply omits it.
type Impl struct {
	Name   string
	Params []string
	Fn     Func
}
