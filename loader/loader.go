// Package loader is the module cache adapter (spec §4.C): it owns the set
// of deployed modules and a fast lookup index from (module, function name)
// to a resolved FunctionHandle, mirroring the teacher's recents/signatures
// ARC caches in consensus/pob/pob.go but keyed on function identity instead
// of block hash.
package loader

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/wudi/hey/registry"
	"github.com/wudi/hey/values"
)

const defaultFunctionsCacheSize = 4096

// FunctionKey identifies a function within a deployed module.
type FunctionKey struct {
	Module registry.ModuleID
	Name   string
}

// Loader is the embedding host's module cache: the set of deployed modules
// plus a derived functions index. Safe for concurrent use.
type Loader struct {
	mu        sync.Mutex
	modules   map[registry.ModuleID]*registry.CompiledModule
	functions *lru.ARCCache
}

// New builds an empty Loader with the default functions-index capacity.
func New() *Loader {
	cache, err := lru.NewARC(defaultFunctionsCacheSize)
	if err != nil {
		// NewARC only errors on a non-positive size, which defaultFunctionsCacheSize
		// never is; preserved as a panic rather than a silently nil cache.
		panic(fmt.Errorf("loader: building functions cache: %w", err))
	}
	return &Loader{
		modules:   make(map[registry.ModuleID]*registry.CompiledModule),
		functions: cache,
	}
}

// Deploy installs module into the cache and indexes each of its functions,
// per spec §4.C:
//  1. reject a module ID that's already deployed (addresses are one-shot)
//  2. record the module under its ID
//  3. wrap every FunctionDef into a FunctionHandle and add it to the index
//
// A collision is spec §7's class-5 "Deploy collision": a caller-contract
// violation, not a data-dependent outcome, so it panics rather than
// returning an ordinary error — the same propagation class-2-through-5
// conditions use in the driver package, and the same idiom New already
// uses above for its own unreachable-in-practice failure.
func (l *Loader) Deploy(module *registry.CompiledModule) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.modules[module.ID]; exists {
		panic(fmt.Errorf("loader: module %s already deployed", module.ID))
	}
	l.modules[module.ID] = module

	for _, def := range module.Functions {
		handle := registry.NewFunctionHandle(module.ID, def)
		l.functions.Add(FunctionKey{Module: module.ID, Name: def.Name}, handle)
	}
	return nil
}

// Module returns the compiled module registered under id, if any.
func (l *Loader) Module(id registry.ModuleID) (*registry.CompiledModule, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.modules[id]
	return m, ok
}

// FunctionFromHandle resolves (module, name) to its FunctionHandle — the
// driver's entry point for looking up the function an Input names (spec
// §4.D step 1) and for resolving a Call instruction's target.
func (l *Loader) FunctionFromHandle(module registry.ModuleID, name string) (*registry.FunctionHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.functions.Get(FunctionKey{Module: module, Name: name})
	if !ok {
		return nil, fmt.Errorf("loader: function %s::%s not found", module, name)
	}
	return v.(*registry.FunctionHandle), nil
}

// FunctionFromInstantiation resolves a CallGeneric target: the same lookup
// as FunctionFromHandle, with tyArgs substituted into the handle's
// parameter and return types so the caller sees a fully concrete signature.
func (l *Loader) FunctionFromInstantiation(module registry.ModuleID, name string, tyArgs []values.Type) (*registry.FunctionHandle, error) {
	base, err := l.FunctionFromHandle(module, name)
	if err != nil {
		return nil, err
	}
	if len(tyArgs) == 0 {
		return base, nil
	}
	return InstantiateGenericFunction(base, tyArgs), nil
}

// InstantiateGenericFunction substitutes tyArgs for base's type parameters
// in its declared signature, leaving its code and constants untouched
// (instantiation only changes what the driver/tracer see as the declared
// types, not the bytecode that runs).
func InstantiateGenericFunction(base *registry.FunctionHandle, tyArgs []values.Type) *registry.FunctionHandle {
	inst := *base
	inst.ParamTypes = make([]values.Type, len(base.ParamTypes))
	for i, t := range base.ParamTypes {
		inst.ParamTypes[i] = t.Instantiate(tyArgs)
	}
	inst.ReturnTypes = make([]values.Type, len(base.ReturnTypes))
	for i, t := range base.ReturnTypes {
		inst.ReturnTypes[i] = t.Instantiate(tyArgs)
	}
	return &inst
}

// Abilities returns the ability set of t, looking up struct definitions in
// their declaring module where needed (spec §6's has_metadata/abilities
// side channel depends on this for struct and vector element types).
func (l *Loader) Abilities(module registry.ModuleID, t values.Type) (values.AbilitySet, error) {
	switch t.Kind {
	case values.TyStruct, values.TyStructInstantiation:
		l.mu.Lock()
		mod, ok := l.modules[module]
		l.mu.Unlock()
		if !ok {
			return 0, fmt.Errorf("loader: module %s not deployed", module)
		}
		if int(t.StructIndex) >= len(mod.Structs) {
			return 0, fmt.Errorf("loader: struct index %d out of range in %s", t.StructIndex, module)
		}
		return mod.Structs[t.StructIndex].Abilities, nil
	case values.TyVector:
		// A vector has its element's copy/drop/store abilities, never key.
		elem, err := l.Abilities(module, *t.Elem)
		if err != nil {
			return 0, err
		}
		return elem & values.PrimitiveAbilities(), nil
	case values.TyReference, values.TyMutableReference:
		// References themselves are never copy/store/key; drop is implicit
		// and not modeled as an ability bit here.
		return 0, nil
	default:
		return values.PrimitiveAbilities(), nil
	}
}
