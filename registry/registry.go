package registry

import (
	"github.com/wudi/hey/opcodes"
	"github.com/wudi/hey/values"
)

// FunctionHandle is a read-only reference to a resolved function (spec §3
// "Function handle"): shared by longest-holder across the loader's
// functions index and every frame that calls into it.
type FunctionHandle struct {
	Module       ModuleID
	Name         string
	ParamTypes   []values.Type
	ReturnTypes  []values.Type
	LocalCount   int
	TypeParams   int
	IsNative     bool
	Instructions []*opcodes.Instruction
	Constants    []*values.Value
	CallTargets  []CallTarget
}

// NewFunctionHandle builds the read-only handle the loader indexes after a
// successful deploy (spec §4.C step 3).
func NewFunctionHandle(mod ModuleID, def *FunctionDef) *FunctionHandle {
	return &FunctionHandle{
		Module:       mod,
		Name:         def.Name,
		ParamTypes:   def.ParamTypes,
		ReturnTypes:  def.ReturnTypes,
		LocalCount:   def.LocalCount,
		TypeParams:   def.TypeParams,
		IsNative:     def.IsNative,
		Instructions: def.Instructions,
		Constants:    def.Constants,
		CallTargets:  def.CallTargets,
	}
}
