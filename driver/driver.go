// Package driver is the top-level entry point an embedding fuzzer drives
// (spec §4.D/§4.E): it owns the explicit frame/call stack the vm package's
// Executor does not, dispatches Return/Call/CallGeneric transitions, and
// extracts a function's result once the call stack unwinds completely.
package driver

import (
	"fmt"

	"github.com/wudi/hey/loader"
	"github.com/wudi/hey/natives"
	"github.com/wudi/hey/registry"
	"github.com/wudi/hey/tracer"
	"github.com/wudi/hey/values"
	"github.com/wudi/hey/vm"
)

// Driver ties the module cache, native-function table, fuzzing feedback
// and frame executor together into the one object an embedding fuzzer
// calls Deploy/Execute against.
type Driver struct {
	Loader   *loader.Loader
	Natives  *natives.Registry
	Feedback *tracer.Feedback
	Tracer   *tracer.Tracer
	Executor *vm.Executor
}

// New builds a Driver with an empty module cache, no natives registered,
// and fresh fuzzing-feedback maps.
func New() *Driver {
	feedback := tracer.NewFeedback()
	return &Driver{
		Loader:   loader.New(),
		Natives:  natives.DefaultNatives(),
		Feedback: feedback,
		Tracer:   tracer.New(feedback),
		Executor: vm.NewExecutor(),
	}
}

// Deploy installs module into the loader's cache (spec §4.C).
func (d *Driver) Deploy(module *registry.CompiledModule) error {
	return d.Loader.Deploy(module)
}

// Execute runs one fuzzing input to completion against a clone of state
// (spec §4.D step 3: "Clone the per-run VM state from input.vm_state"): it
// resolves the entry function, drives the trampolined frame/call-stack
// loop against that clone, and (§4.E) extracts a result — including the
// mutated clone as NewState — from whatever the operand stack holds once
// the call stack empties, even if the run reverted partway through. The
// caller's own resource table is never mutated; its metadata is cloned
// shallowly, so an abilities table it already holds is shared with
// NewState and receives this run's entries. Callers that want this run's
// effects to persist pass the returned NewState into the next Execute.
func (d *Driver) Execute(state *StagedState, input Input) (*ExecutionResult, error) {
	d.Feedback.ResetStateChanged()
	runState := state.Clone()

	initial, err := d.resolveFunction(input.Module, input.FunctionName, input.TyArgs)
	if err != nil {
		Fatal("resolve", err)
	}

	frame, err := vm.NewFrame(initial, input.TyArgs, input.Args)
	if err != nil {
		Fatal("frame", err)
	}

	interp := vm.NewInterpreter()
	callStack := []*vm.Frame{frame}

	reverted := false
	var revertErr error

runLoop:
	for len(callStack) > 0 {
		current := callStack[len(callStack)-1]
		exit, err := d.Executor.ExecuteFrame(d.Loader, runState, d.Tracer, interp, current)
		if err != nil {
			reverted = true
			revertErr = err
			break runLoop
		}

		switch exit.Kind {
		case vm.ExitReturn:
			callStack = callStack[:len(callStack)-1]
			if len(callStack) > 0 {
				callStack[len(callStack)-1].PC++
			}

		case vm.ExitCall, vm.ExitCallGeneric:
			if exit.TargetIdx < 0 || exit.TargetIdx >= len(current.Function.CallTargets) {
				Fatal("call-target", fmt.Errorf("call-target index %d out of range", exit.TargetIdx))
			}
			target := current.Function.CallTargets[exit.TargetIdx]

			var callee *registry.FunctionHandle
			if exit.Kind == vm.ExitCallGeneric {
				callee, err = d.Loader.FunctionFromInstantiation(target.Module, target.Name, current.TyArgs)
			} else {
				callee, err = d.Loader.FunctionFromHandle(target.Module, target.Name)
			}
			if err != nil {
				Fatal("call-resolve", err)
			}

			if callee.IsNative {
				fn, ok := d.Natives.Lookup(target.Module, target.Name)
				if !ok {
					Fatal("native", fmt.Errorf("%s::%s has no registered native implementation", target.Module, target.Name))
				}
				args, err := popArgs(interp.Stack, callee.LocalCount)
				if err != nil {
					Fatal("native-args", err)
				}
				// Only the leading len(ParamTypes) popped locals are real
				// arguments; a native's declared param count never exceeds
				// its local count, matching a compiled native stub's layout.
				results, err := fn(args[:len(callee.ParamTypes)], current.TyArgs)
				if err != nil {
					reverted = true
					revertErr = err
					break runLoop
				}
				for _, r := range results {
					interp.Stack.Push(r)
				}
				current.PC++
				continue runLoop
			}

			// Verbatim-preserved quirk: argc is the callee's full local
			// count, not its parameter count, and slots are filled back to
			// front as values come off the shared operand stack.
			argc := callee.LocalCount
			locals := values.NewLocals(argc)
			for i := 0; i < argc; i++ {
				v, err := interp.Stack.Pop()
				if err != nil {
					Fatal("call-args", err)
				}
				if err := locals.StoreLoc(argc-i-1, v); err != nil {
					Fatal("call-args", err)
				}
			}

			var tyArgs []values.Type
			if exit.Kind == vm.ExitCallGeneric {
				tyArgs = current.TyArgs
			}
			callStack = append(callStack, &vm.Frame{PC: 0, Locals: locals, Function: callee, TyArgs: tyArgs})
		}
	}

	result := d.extractResult(runState, initial, interp, reverted, revertErr)
	return result, nil
}

// resolveFunction looks up the entry function an Input names, instantiating
// it if the caller supplied type arguments.
func (d *Driver) resolveFunction(module registry.ModuleID, name string, tyArgs []values.Type) (*registry.FunctionHandle, error) {
	if len(tyArgs) == 0 {
		return d.Loader.FunctionFromHandle(module, name)
	}
	return d.Loader.FunctionFromInstantiation(module, name, tyArgs)
}

// popArgs pops n values off stack, returning them in original push order
// (bottom of the popped group first) — the same reverse-then-index
// convention the generic Call path uses.
func popArgs(stack *vm.OperandStack, n int) ([]*values.Value, error) {
	args := make([]*values.Value, n)
	for i := 0; i < n; i++ {
		v, err := stack.Pop()
		if err != nil {
			return nil, err
		}
		args[n-i-1] = v
	}
	return args, nil
}

// extractResult implements spec §4.E: zip whatever the shared operand
// stack holds, bottom to top, against the entry function's declared return
// types — regardless of whether the run completed normally or reverted —
// and record each output type's ability set into state's metadata side
// channel.
func (d *Driver) extractResult(state *StagedState, initial *registry.FunctionHandle, interp *vm.Interpreter, reverted bool, revertErr error) *ExecutionResult {
	abilities := GetOrInsertMetadata(state.Metadata, func() StructAbilities { return NewStructAbilities() })

	stackValues := interp.Stack.Values()
	returnTypes := initial.ReturnTypes

	n := len(stackValues)
	if len(returnTypes) < n {
		n = len(returnTypes)
	}

	output := make([]OutputVar, 0, n)
	for i := 0; i < n; i++ {
		t := returnTypes[i]
		v := stackValues[i]
		output = append(output, OutputVar{Type: t, Value: v})

		if a, err := d.Loader.Abilities(initial.Module, t); err == nil {
			abilities.SetAbility(t, a)
		}
	}

	return &ExecutionResult{
		Output:         output,
		Reverted:       reverted,
		AdditionalInfo: revertErr,
		NewState:       state,
	}
}

// FastStaticCall is reserved for a read-only, feedback-free variant of
// Execute the embedding fuzzer can use to probe a function's behavior
// without recording coverage/comparison/storage observations. Not
// implemented by this harness.
func (d *Driver) FastStaticCall(state *StagedState, input Input) (*ExecutionResult, error) {
	return nil, fmt.Errorf("driver: FastStaticCall is not implemented")
}
