// Package sample builds a tiny hand-assembled Move module used by the
// cmd/movevmfuzz demo and by the driver package's integration tests: a
// "counter" resource published under a signer's address, with functions
// to publish it, compute its incremented value (not written back), and
// read it back. It exercises MoveTo,
// MutBorrowGlobal, field access, arithmetic, comparison and branching in
// one small, readable package rather than requiring a real Move compiler
// front end (out of scope for this harness, spec Non-goals).
package sample

import (
	"github.com/wudi/hey/opcodes"
	"github.com/wudi/hey/registry"
	"github.com/wudi/hey/values"
)

// CounterModuleID is the module address/name counter.go deploys under.
var CounterModuleID = registry.ModuleID{Address: ModuleAddress(), Name: "counter"}

// ModuleAddress returns the fixed 32-byte address the sample module is
// published under (0x...01).
func ModuleAddress() values.Address {
	var a values.Address
	a[31] = 1
	return a
}

// structCounterIdx is the struct-definition index of Counter{value: u64}
// within the module's Structs table.
const structCounterIdx = 0

// BuildModule assembles the CompiledModule: one struct (Counter) and three
// functions (publish, increment, value).
func BuildModule() *registry.CompiledModule {
	return &registry.CompiledModule{
		ID: CounterModuleID,
		Structs: []*registry.StructDef{
			{
				Name: "Counter",
				Fields: []registry.FieldDef{
					{Name: "value", Type: values.U64()},
				},
				Abilities:  values.NewAbilitySet(values.AbilityKey, values.AbilityStore),
				TypeParams: 0,
			},
		},
		Functions: []*registry.FunctionDef{
			buildPublish(),
			buildIncrement(),
			buildValue(),
		},
	}
}

// buildPublish assembles `publish(signer: &signer)`: packs a Counter{value:
// 0} and moves it to the signer's address.
//
//	fun publish(s: &signer) {
//	    move_to(s, Counter { value: 0 });
//	}
func buildPublish() *registry.FunctionDef {
	instrs := []*opcodes.Instruction{
		{Opcode: opcodes.OP_COPY_LOC, Idx: 0}, // push &signer (for move_to's address operand)
		{Opcode: opcodes.OP_LD_U64, U64: 0},   // push 0u64
		{Opcode: opcodes.OP_PACK, Idx: structCounterIdx, FieldCount: 1},
		{Opcode: opcodes.OP_MOVE_TO, Idx: structCounterIdx},
		{Opcode: opcodes.OP_RET},
	}
	return &registry.FunctionDef{
		Name:         "publish",
		Instructions: instrs,
		ParamTypes:   []values.Type{values.ReferenceTy(values.SignerTy())},
		ReturnTypes:  nil,
		LocalCount:   1,
	}
}

// buildIncrement assembles `increment(addr: address)`: borrows the
// Counter at addr mutably and reads its field plus one. The instruction set
// this harness dispatches has no WriteRef (spec's tracer/driver excerpts
// never exercise one), so the computed value is discarded rather than
// persisted; the point of this function is to exercise
// MutBorrowGlobal/MutBorrowField/ReadRef/Add, which is what the tracer and
// profiler observe.
//
//	fun increment(addr: address) {
//	    let c = borrow_global_mut<Counter>(addr);
//	    let v = *&c.value + 1;
//	}
func buildIncrement() *registry.FunctionDef {
	instrs := []*opcodes.Instruction{
		{Opcode: opcodes.OP_COPY_LOC, Idx: 0},                                   // push addr
		{Opcode: opcodes.OP_MUT_BORROW_GLOBAL, Idx: structCounterIdx},           // push &mut Counter
		{Opcode: opcodes.OP_ST_LOC, Idx: 1},                                     // locals[1] = &mut Counter
		{Opcode: opcodes.OP_COPY_LOC, Idx: 1},                                   // push &mut Counter
		{Opcode: opcodes.OP_MUT_BORROW_FIELD, Idx: 0},                           // push &mut value
		{Opcode: opcodes.OP_READ_REF},                                          // push value (u64)
		{Opcode: opcodes.OP_LD_U64, U64: 1},                                     // push 1u64
		{Opcode: opcodes.OP_ADD},                                                // push value+1
		{Opcode: opcodes.OP_ST_LOC, Idx: 2},                                     // locals[2] = value+1
		{Opcode: opcodes.OP_MOVE_LOC, Idx: 1},                                   // push &mut Counter
		{Opcode: opcodes.OP_MUT_BORROW_FIELD, Idx: 0},                           // push &mut value
		{Opcode: opcodes.OP_POP},                                               // harness doesn't model WriteRef; drop the ref
		{Opcode: opcodes.OP_RET},
	}
	return &registry.FunctionDef{
		Name:         "increment",
		Instructions: instrs,
		ParamTypes:   []values.Type{values.AddressTy()},
		ReturnTypes:  nil,
		LocalCount:   3,
	}
}

// buildValue assembles `value(addr: address): bool`: returns true if the
// stored counter is nonzero, exercising Gt and a conditional branch the
// tracer records coverage for.
//
//	fun value(addr: address): bool {
//	    let c = borrow_global<Counter>(addr);
//	    let v = *&c.value;
//	    if (v > 0) { true } else { false }
//	}
func buildValue() *registry.FunctionDef {
	instrs := []*opcodes.Instruction{
		{Opcode: opcodes.OP_COPY_LOC, Idx: 0},                         // push addr
		{Opcode: opcodes.OP_IMM_BORROW_GLOBAL, Idx: structCounterIdx}, // push &Counter
		{Opcode: opcodes.OP_MUT_BORROW_FIELD, Idx: 0},                 // push &value
		{Opcode: opcodes.OP_READ_REF},                                // push value
		{Opcode: opcodes.OP_LD_U64, U64: 0},                           // push 0u64
		{Opcode: opcodes.OP_GT},                                       // push value > 0, idx 5
		{Opcode: opcodes.OP_BR_TRUE, Offset: 9},                      // idx 6: taken -> idx 9
		{Opcode: opcodes.OP_LD_BOOL, Bool: false},                    // idx 7
		{Opcode: opcodes.OP_BRANCH, Offset: 10},                      // idx 8: -> idx 10 (Ret)
		{Opcode: opcodes.OP_LD_BOOL, Bool: true},                     // idx 9, branch target
		{Opcode: opcodes.OP_RET},                                     // idx 10
	}
	return &registry.FunctionDef{
		Name:         "value",
		Instructions: instrs,
		ParamTypes:   []values.Type{values.AddressTy()},
		ReturnTypes:  []values.Type{values.Bool()},
		LocalCount:   1,
	}
}
