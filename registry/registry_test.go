package registry

import (
	"testing"

	"github.com/wudi/hey/values"
)

func TestNewFunctionHandleCopiesCallTargets(t *testing.T) {
	def := &FunctionDef{
		Name:        "f",
		ParamTypes:  []values.Type{values.U64()},
		ReturnTypes: []values.Type{values.Bool()},
		LocalCount:  1,
		CallTargets: []CallTarget{{Module: ModuleID{Name: "other"}, Name: "g"}},
	}
	handle := NewFunctionHandle(ModuleID{Name: "m"}, def)

	if handle.Module.Name != "m" {
		t.Fatalf("expected handle bound to module m, got %s", handle.Module.Name)
	}
	if len(handle.CallTargets) != 1 || handle.CallTargets[0].Name != "g" {
		t.Fatalf("expected CallTargets copied from def, got %+v", handle.CallTargets)
	}
}

func TestModuleIDString(t *testing.T) {
	var addr values.Address
	addr[31] = 7
	id := ModuleID{Address: addr, Name: "counter"}
	if id.String() == "" {
		t.Fatalf("expected a non-empty ModuleID string")
	}
}
