package vm

import (
	"fmt"

	"github.com/wudi/hey/registry"
	"github.com/wudi/hey/values"
)

// Frame is one activation record of the explicit call stack the driver
// owns outside this package (spec §4.D: "the driver owns an explicit
// frame/call-stack"). It carries exactly what a Move interpreter frame
// needs to resume: where it is, its locals, which function it's running,
// and the concrete type arguments a generic instantiation bound.
type Frame struct {
	PC       int
	Locals   *values.Locals
	Function *registry.FunctionHandle
	TyArgs   []values.Type
}

// NewFrame builds a fresh frame for function, pre-populated with args in
// its first len(args) local slots (spec §4.D step 1/5e: argument transfer
// into a freshly allocated Locals).
func NewFrame(function *registry.FunctionHandle, tyArgs []values.Type, args []*values.Value) (*Frame, error) {
	locals := values.NewLocals(function.LocalCount)
	for i, a := range args {
		if err := locals.StoreLoc(i, a); err != nil {
			return nil, fmt.Errorf("vm: building frame for %s: %w", function.Name, err)
		}
	}
	return &Frame{PC: 0, Locals: locals, Function: function, TyArgs: tyArgs}, nil
}

// ExitKind classifies why ExecuteFrame returned control to the driver.
type ExitKind int

const (
	// ExitReturn: the frame ran its Ret/fell off the end; the driver pops
	// its own call stack and resumes the caller (spec §4.D ExitCode::Return).
	ExitReturn ExitKind = iota
	// ExitCall: frame hit a Call instruction; the driver resolves the
	// callee, transfers arguments, and pushes a new frame.
	ExitCall
	// ExitCallGeneric: as ExitCall, but the callee is generic and must be
	// instantiated against the caller's concrete type arguments first.
	ExitCallGeneric
)

// ExitCode describes why a frame's ExecuteFrame call returned, and (for
// the Call/CallGeneric cases) which call-target table entry to resolve —
// the index into Frame.Function.CallTargets that a Call/CallGeneric
// instruction referenced.
type ExitCode struct {
	Kind       ExitKind
	TargetIdx  int
	ReturnVals []*values.Value // not set by ExecuteFrame: a returning frame's results stay on the shared operand stack
}

// GlobalStorage is the narrow view into the embedding host's persistent
// state that global-storage opcodes need: MoveTo/MoveFrom/Exists/
// BorrowGlobal, keyed by (address, struct-definition index) exactly as the
// tracer buckets its read/write maps (spec §3 "global storage").
type GlobalStorage interface {
	Exists(addr values.Address, structIdx uint16) bool
	MoveTo(addr values.Address, structIdx uint16, resource *values.Value) error
	MoveFrom(addr values.Address, structIdx uint16) (*values.Value, error)
	BorrowGlobal(addr values.Address, structIdx uint16) (*values.Value, error)
}

// Resolver is the embedded VM's view of the module cache: resolving a
// Call/CallGeneric's target and a type's ability set. Implemented by
// loader.Loader; declared here (rather than imported) so this package
// depends only on the narrow surface it actually calls, matching the
// original's Resolver abstraction layered over move_vm_runtime::loader.
type Resolver interface {
	FunctionFromHandle(module registry.ModuleID, name string) (*registry.FunctionHandle, error)
	FunctionFromInstantiation(module registry.ModuleID, name string, tyArgs []values.Type) (*registry.FunctionHandle, error)
	Abilities(module registry.ModuleID, t values.Type) (values.AbilitySet, error)
}
