package loader

import (
	"testing"

	"github.com/wudi/hey/registry"
	"github.com/wudi/hey/values"
)

func testModule() *registry.CompiledModule {
	var addr values.Address
	addr[31] = 1
	id := registry.ModuleID{Address: addr, Name: "m"}
	return &registry.CompiledModule{
		ID: id,
		Structs: []*registry.StructDef{
			{Name: "S", Abilities: values.NewAbilitySet(values.AbilityKey)},
		},
		Functions: []*registry.FunctionDef{
			{Name: "f", ParamTypes: []values.Type{values.U64()}, ReturnTypes: []values.Type{values.Bool()}, TypeParams: 1},
		},
	}
}

func TestDeployThenFunctionFromHandle(t *testing.T) {
	l := New()
	m := testModule()
	if err := l.Deploy(m); err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	handle, err := l.FunctionFromHandle(m.ID, "f")
	if err != nil {
		t.Fatalf("FunctionFromHandle: %v", err)
	}
	if handle.Name != "f" {
		t.Fatalf("expected handle for f, got %s", handle.Name)
	}
}

func TestDeployRejectsDuplicateModuleID(t *testing.T) {
	l := New()
	m := testModule()
	if err := l.Deploy(m); err != nil {
		t.Fatalf("first Deploy: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected redeploying the same module ID to panic")
		}
	}()
	_ = l.Deploy(m)
}

func TestFunctionFromHandleUnknownFunctionErrors(t *testing.T) {
	l := New()
	m := testModule()
	_ = l.Deploy(m)
	if _, err := l.FunctionFromHandle(m.ID, "missing"); err == nil {
		t.Fatalf("expected an error resolving an undeployed function")
	}
}

func TestFunctionFromInstantiationSubstitutesTypeParams(t *testing.T) {
	l := New()
	var addr values.Address
	addr[31] = 2
	id := registry.ModuleID{Address: addr, Name: "m2"}
	m := &registry.CompiledModule{
		ID: id,
		Functions: []*registry.FunctionDef{
			{Name: "g", ParamTypes: []values.Type{values.TypeParamTy(0)}, ReturnTypes: []values.Type{values.TypeParamTy(0)}, TypeParams: 1},
		},
	}
	if err := l.Deploy(m); err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	inst, err := l.FunctionFromInstantiation(id, "g", []values.Type{values.U64()})
	if err != nil {
		t.Fatalf("FunctionFromInstantiation: %v", err)
	}
	if inst.ParamTypes[0].Kind != values.TyU64 || inst.ReturnTypes[0].Kind != values.TyU64 {
		t.Fatalf("expected type param substituted with u64, got %+v", inst)
	}
}

func TestAbilitiesForStructType(t *testing.T) {
	l := New()
	m := testModule()
	_ = l.Deploy(m)
	a, err := l.Abilities(m.ID, values.StructTy(0))
	if err != nil {
		t.Fatalf("Abilities: %v", err)
	}
	if !a.HasKey() {
		t.Fatalf("expected the deployed struct's key ability to be reported")
	}
}

func TestAbilitiesForPrimitiveType(t *testing.T) {
	l := New()
	a, err := l.Abilities(registry.ModuleID{}, values.U64())
	if err != nil {
		t.Fatalf("Abilities: %v", err)
	}
	if !a.HasCopy() || !a.HasDrop() || !a.HasStore() {
		t.Fatalf("expected primitive abilities copy+drop+store, got %v", a)
	}
}
