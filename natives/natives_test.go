package natives

import (
	"testing"

	"github.com/wudi/hey/registry"
	"github.com/wudi/hey/values"
)

func TestRegisterThenLookup(t *testing.T) {
	r := NewRegistry()
	mod := registry.ModuleID{Name: "m"}
	fn := func(args []*values.Value, tyArgs []values.Type) ([]*values.Value, error) {
		return args, nil
	}
	r.Register(mod, "echo", fn)

	got, ok := r.Lookup(mod, "echo")
	if !ok {
		t.Fatalf("expected Lookup to find the registered native")
	}
	out, err := got(nil, nil)
	if err != nil || out != nil {
		t.Fatalf("unexpected result from registered native: %v %v", out, err)
	}
}

func TestLookupMissingModuleOrFunction(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup(registry.ModuleID{Name: "missing"}, "f"); ok {
		t.Fatalf("expected Lookup to miss on an undeployed module")
	}

	mod := registry.ModuleID{Name: "m"}
	r.Register(mod, "g", func(args []*values.Value, tyArgs []values.Type) ([]*values.Value, error) { return nil, nil })
	if _, ok := r.Lookup(mod, "h"); ok {
		t.Fatalf("expected Lookup to miss on an unregistered function name")
	}
}

func TestDefaultNativesAlwaysMisses(t *testing.T) {
	r := DefaultNatives()
	if _, ok := r.Lookup(registry.ModuleID{Name: "any"}, "any"); ok {
		t.Fatalf("expected DefaultNatives to never have a registered function")
	}
}
