package registry

import (
	"github.com/wudi/hey/opcodes"
	"github.com/wudi/hey/values"
)

// FieldDef describes one field of a struct definition.
type FieldDef struct {
	Name string
	Type values.Type
}

// StructDef is a compiled struct definition (spec §3.1's StructTag
// analogue): its declared abilities and field layout.
type StructDef struct {
	Name       string
	Fields     []FieldDef
	Abilities  values.AbilitySet
	TypeParams int // number of generic type parameters the struct declares
}

// ModuleID identifies a deployed module by its publishing address and name
// (spec §3 "module_id").
type ModuleID struct {
	Address values.Address
	Name    string
}

func (m ModuleID) String() string {
	return m.Name + "@" + (values.Value{Kind: values.KindAddress, Data: m.Address}).String()
}

// CallTarget is one entry of a function's call-target table: the
// resolved (module, name) a Call/CallGeneric instruction's Instruction.Idx
// refers to. Mirrors a Move module's function-handle table, the
// indirection Bytecode::Call(FunctionHandleIndex) resolves through.
type CallTarget struct {
	Module ModuleID
	Name   string
}

// FunctionDef is a function as it appears inside a CompiledModule, before
// being wrapped into a FunctionHandle by the loader.
type FunctionDef struct {
	Name         string
	Instructions []*opcodes.Instruction
	Constants    []*values.Value
	ParamTypes   []values.Type
	ReturnTypes  []values.Type
	LocalCount   int
	TypeParams   int
	IsNative     bool
	CallTargets  []CallTarget
}

// CompiledModule is a deployable unit: a self-id, its struct definitions,
// and its functions (spec §3 "module cache").
type CompiledModule struct {
	ID        ModuleID
	Structs   []*StructDef
	Functions []*FunctionDef
}
