// Package natives is the pluggable native-function lookup table (spec §9:
// "a function marked native whose implementation the harness has not
// registered is a fatal condition, not a skip"). The harness ships with no
// natives registered by default — embedding hosts add their own.
package natives

import (
	"fmt"

	"github.com/wudi/hey/registry"
	"github.com/wudi/hey/values"
)

// Func is a native function implementation: it receives its already-popped
// arguments (in declaration order) and returns its results in declaration
// order, or an error, which the driver reports as a revert (Reverted=true).
type Func func(args []*values.Value, tyArgs []values.Type) ([]*values.Value, error)

// Registry is a lookup table from (module, function name) to a native
// implementation.
type Registry struct {
	fns map[registry.ModuleID]map[string]Func
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[registry.ModuleID]map[string]Func)}
}

// Register installs fn as the implementation of module::name, overwriting
// any previous registration.
func (r *Registry) Register(module registry.ModuleID, name string, fn Func) {
	m, ok := r.fns[module]
	if !ok {
		m = make(map[string]Func)
		r.fns[module] = m
	}
	m[name] = fn
}

// Lookup returns the implementation of module::name, if registered.
func (r *Registry) Lookup(module registry.ModuleID, name string) (Func, bool) {
	m, ok := r.fns[module]
	if !ok {
		return nil, false
	}
	fn, ok := m[name]
	return fn, ok
}

// DefaultNatives returns an always-miss registry: every lookup fails, so
// the driver's native-function check (spec §4.D, §9) always treats a
// native call as fatal unless the embedding host registers something
// first. This preserves the original's behavior where no natives are
// wired into the fuzzing harness by default.
func DefaultNatives() *Registry {
	return NewRegistry()
}

// ErrNotRegistered is the sentinel for a missing native. Nothing in this
// package returns it: Lookup reports a miss through its boolean result.
var ErrNotRegistered = fmt.Errorf("natives: function not registered")
