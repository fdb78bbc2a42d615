package hook

import (
	"context"
	"fmt"

	"github.com/repobee/repobee-sub000/internal/log"
)

// Dispatcher resolves hook names to implementations and invokes them.
// It is constructed once per invocation, after all plugins have been
// loaded and validated, and is not mutated afterwards.
type Dispatcher struct {
	reg *Registry

	// traceback re-raises the first uncaught implementation error
	// instead of converting it to an ERROR Result. Sibling
	// implementations still run first.
	traceback bool
}

// NewDispatcher creates a dispatcher over a fully populated registry.
func NewDispatcher(reg *Registry, traceback bool) *Dispatcher {
	return &Dispatcher{reg: reg, traceback: traceback}
}

// Core dispatches a core hook: the implementation from the most
// recently activated plugin wins and entirely replaces the host
// default. Exactly one implementation runs.
func (d *Dispatcher) Core(ctx context.Context, name string, args Args) (any, error) {
	spec, ok := d.reg.Spec(name)
	if !ok {
		return nil, fmt.Errorf("dispatch %q: unknown hook", name)
	}
	if spec.Kind != Core {
		return nil, fmt.Errorf("dispatch %q: not a core hook", name)
	}

	bindings := d.reg.bindings(name)
	chosen, owner := d.reg.defaults[name], "host default"
	if len(bindings) > 0 {
		last := bindings[len(bindings)-1]
		chosen, owner = last.impl, "plugin "+last.plugin
	}
	if chosen.Fn == nil {
		return nil, fmt.Errorf("dispatch %q: no host default registered", name)
	}

	log.FromContext(ctx).Hook(name, owner)
	ret, err := safeInvoke(ctx, chosen, args)
	if err != nil {
		return nil, fmt.Errorf("hook %q (%s): %w", name, owner, err)
	}
	return ret, nil
}

// Extension dispatches an extension hook: every active implementation
// runs, in activation order, and every non-nil Result is collected.
// One implementation failing never prevents the others from running;
// an uncaught error or panic becomes an ERROR Result named after the
// offending plugin. In traceback mode the first original error is
// returned after all implementations have run, alongside the Results
// gathered so far.
func (d *Dispatcher) Extension(ctx context.Context, name string, args Args) ([]*Result, error) {
	spec, ok := d.reg.Spec(name)
	if !ok {
		return nil, fmt.Errorf("dispatch %q: unknown hook", name)
	}
	if spec.Kind != Extension {
		return nil, fmt.Errorf("dispatch %q: not an extension hook", name)
	}

	logger := log.FromContext(ctx)

	var results []*Result
	var firstErr error
	for _, b := range d.reg.bindings(name) {
		logger.Hook(name, "plugin "+b.plugin)
		ret, err := safeInvoke(ctx, b.impl, args)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("hook %q (plugin %s): %w", name, b.plugin, err)
			}
			if !d.traceback {
				results = append(results, Error(b.plugin, err.Error()))
			}
			continue
		}
		switch res := ret.(type) {
		case nil:
			// No result contributed; fine.
		case *Result:
			if res != nil {
				results = append(results, res)
			}
		default:
			results = append(results, Error(b.plugin, fmt.Sprintf("hook %q returned %T, want *hook.Result", name, ret)))
		}
	}
	if d.traceback && firstErr != nil {
		return results, firstErr
	}
	return results, nil
}

// safeInvoke calls one implementation with its arguments narrowed to
// the declared roles, converting panics into errors so that a
// misbehaving plugin cannot take down the dispatch loop.
func safeInvoke(ctx context.Context, impl Impl, args Args) (ret any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	narrowed := make(Args, len(impl.Params))
	for _, role := range impl.Params {
		if v, ok := args[role]; ok {
			narrowed[role] = v
		}
	}
	return impl.Fn(ctx, narrowed)
}
