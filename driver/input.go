package driver

import (
	"github.com/wudi/hey/registry"
	"github.com/wudi/hey/values"
)

// Input is one fuzzing execution request: a deployed function to call plus
// its concrete arguments, (for generic functions) type arguments, and the
// address the call is made as (spec §4.A "ExecuteInput": "{ module_id,
// function_name, args, ty_args, caller: Address, vm_state, … }"). Caller is
// not yet read by Execute — no instruction in this opcode set consults a
// transaction sender distinct from an explicit &signer argument — but is
// carried on Input for data-model fidelity with the embedding fuzzer's
// corpus format, which always includes one.
type Input struct {
	Module       registry.ModuleID
	FunctionName string
	Args         []*values.Value
	TyArgs       []values.Type
	Caller       values.Address
}

// OutputVar pairs one residual stack value with the declared return type
// it was zipped against by the result extractor (spec §4.E).
type OutputVar struct {
	Type  values.Type
	Value *values.Value
}

// ExecutionResult is everything the driver reports back to the embedding
// fuzzer for one Execute call (spec §4.D/§4.E/§7): the extracted outputs,
// whether the run reverted, whatever additional diagnostic info the caller
// wants attached (e.g. the aborting error), and the post-run StagedState —
// the clone Execute forked from its input state and mutated over the
// course of the run (spec §4.E: "emit { new_state = StagedState::
// new_with_state(state), output, reverted, additional_info = none }"). The
// caller's own resource table is left untouched (metadata entries are
// shared, see Metadata.Clone); NewState is what the next
// corpus entry should run against if this run's effects are to stick.
type ExecutionResult struct {
	Output         []OutputVar
	Reverted       bool
	AdditionalInfo interface{}
	NewState       *StagedState
}
