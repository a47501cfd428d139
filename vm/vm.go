// Package vm is the embedded frame executor: the part of the harness that
// corresponds to the original's `Frame::execute_code` — it runs a single
// frame's instructions against a shared operand stack until it must yield
// control back to the driver (a Return, Call or CallGeneric), or errors.
// The cross-frame call stack itself is NOT owned here; it belongs to the
// driver package, which is what makes this design trampolined rather than
// recursive (spec §4.D).
package vm

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/wudi/hey/opcodes"
	"github.com/wudi/hey/tracer"
	"github.com/wudi/hey/values"
)

// Interpreter holds the state shared across every frame of one Execute
// call: principally the operand stack, which is never reset between
// caller and callee (arguments for a Call sit on the same stack the
// callee's Ret eventually leaves its results on).
type Interpreter struct {
	Stack *OperandStack
}

// NewInterpreter builds a fresh Interpreter with an empty operand stack.
func NewInterpreter() *Interpreter {
	return &Interpreter{Stack: NewOperandStack()}
}

// Executor runs frames. It is stateless aside from profiling counters, so
// a single Executor can be reused across many Execute calls (the teacher's
// VirtualMachine plays the same role for PHP bytecode).
type Executor struct {
	mu      sync.Mutex
	profile *profileState
}

// NewExecutor constructs an Executor with profiling enabled.
func NewExecutor() *Executor {
	return &Executor{profile: newProfileState()}
}

// GetPerformanceReport renders a summary of the collected profiling data.
func (e *Executor) GetPerformanceReport() string {
	return e.profile.render()
}

// GetHotSpots returns the n most-executed instruction pointers.
func (e *Executor) GetHotSpots(n int) []HotSpot {
	return e.profile.hotSpots(n)
}

// ExecuteFrame runs frame's instructions against interp's shared stack
// until it must yield: a Ret (ExitReturn), a Call/CallGeneric (ExitCall /
// ExitCallGeneric), or an error (an abort, a stack fault, an
// unimplemented opcode). The tracer, if non-nil, observes every
// instruction immediately before its effect runs (spec §4.B).
func (e *Executor) ExecuteFrame(resolver Resolver, storage GlobalStorage, tr *tracer.Tracer, interp *Interpreter, frame *Frame) (*ExitCode, error) {
	for {
		instrs := frame.Function.Instructions
		if frame.PC < 0 || frame.PC >= len(instrs) {
			// Falling off the end of a function body with no explicit Ret
			// is treated the same as hitting Ret: spec §4.D.
			return &ExitCode{Kind: ExitReturn}, nil
		}

		inst := instrs[frame.PC]
		e.profile.observe(frame.PC, inst.Opcode)

		if tr != nil {
			tr.OnStep(interp.Stack, uint16(frame.PC), inst)
		}

		advance, exit, err := e.executeInstruction(resolver, storage, interp, frame, inst)
		if err != nil {
			return nil, DecorateError(err, frame, inst)
		}
		if exit != nil {
			return exit, nil
		}
		if advance {
			frame.PC++
		}
	}
}

func (e *Executor) executeInstruction(resolver Resolver, storage GlobalStorage, interp *Interpreter, frame *Frame, inst *opcodes.Instruction) (bool, *ExitCode, error) {
	stack := interp.Stack

	switch inst.Opcode {
	case opcodes.OP_NOP:
		return true, nil, nil

	case opcodes.OP_POP:
		if _, err := stack.Pop(); err != nil {
			return false, nil, err
		}
		return true, nil, nil

	case opcodes.OP_LD_U8:
		stack.Push(values.NewU8(inst.U8))
		return true, nil, nil
	case opcodes.OP_LD_U16:
		stack.Push(values.NewU16(inst.U16))
		return true, nil, nil
	case opcodes.OP_LD_U32:
		stack.Push(values.NewU32(inst.U32))
		return true, nil, nil
	case opcodes.OP_LD_U64:
		stack.Push(values.NewU64(inst.U64))
		return true, nil, nil
	case opcodes.OP_LD_U128:
		stack.Push(values.NewU128(leBytesToUint256(inst.U128[:])))
		return true, nil, nil
	case opcodes.OP_LD_U256:
		stack.Push(values.NewU256(leBytesToUint256(inst.U256[:])))
		return true, nil, nil
	case opcodes.OP_LD_BOOL:
		stack.Push(values.NewBool(inst.Bool))
		return true, nil, nil
	case opcodes.OP_LD_ADDRESS:
		stack.Push(values.NewAddress(inst.Address))
		return true, nil, nil
	case opcodes.OP_LD_CONST:
		if int(inst.Idx) >= len(frame.Function.Constants) {
			return false, nil, NewVMError(ErrConstantOutOfRange, "index %d", inst.Idx)
		}
		stack.Push(frame.Function.Constants[inst.Idx])
		return true, nil, nil

	case opcodes.OP_COPY_LOC:
		v, err := frame.Locals.CopyLoc(int(inst.Idx))
		if err != nil {
			return false, nil, err
		}
		stack.Push(v)
		return true, nil, nil
	case opcodes.OP_MOVE_LOC:
		v, err := frame.Locals.MoveLoc(int(inst.Idx))
		if err != nil {
			return false, nil, err
		}
		stack.Push(v)
		return true, nil, nil
	case opcodes.OP_ST_LOC:
		v, err := stack.Pop()
		if err != nil {
			return false, nil, err
		}
		if err := frame.Locals.StoreLoc(int(inst.Idx), v); err != nil {
			return false, nil, err
		}
		return true, nil, nil

	case opcodes.OP_ADD, opcodes.OP_SUB, opcodes.OP_MUL, opcodes.OP_DIV, opcodes.OP_MOD:
		if err := NewArithmeticExecutor(stack).Execute(inst.Opcode); err != nil {
			return false, nil, err
		}
		return true, nil, nil

	case opcodes.OP_EQ, opcodes.OP_NEQ, opcodes.OP_LT, opcodes.OP_LE, opcodes.OP_GT, opcodes.OP_GE:
		if err := NewComparisonExecutor(stack).Execute(inst.Opcode); err != nil {
			return false, nil, err
		}
		return true, nil, nil

	case opcodes.OP_BR_TRUE:
		v, err := stack.Pop()
		if err != nil {
			return false, nil, err
		}
		if v.Kind != values.KindBool {
			return false, nil, NewVMError(ErrInvalidOperandType, "br_true on %s", v.Kind)
		}
		if v.Bool() {
			frame.PC = int(inst.Offset)
			return false, nil, nil
		}
		return true, nil, nil
	case opcodes.OP_BR_FALSE:
		v, err := stack.Pop()
		if err != nil {
			return false, nil, err
		}
		if v.Kind != values.KindBool {
			return false, nil, NewVMError(ErrInvalidOperandType, "br_false on %s", v.Kind)
		}
		if !v.Bool() {
			frame.PC = int(inst.Offset)
			return false, nil, nil
		}
		return true, nil, nil
	case opcodes.OP_BRANCH:
		frame.PC = int(inst.Offset)
		return false, nil, nil

	case opcodes.OP_PACK:
		fields := make([]*values.Value, inst.FieldCount)
		for i := inst.FieldCount - 1; i >= 0; i-- {
			v, err := stack.Pop()
			if err != nil {
				return false, nil, err
			}
			fields[i] = v
		}
		stack.Push(values.NewStruct(inst.Idx, fields))
		return true, nil, nil
	case opcodes.OP_UNPACK:
		v, err := stack.Pop()
		if err != nil {
			return false, nil, err
		}
		if v.Kind != values.KindStruct {
			return false, nil, NewVMError(ErrInvalidOperandType, "unpack on %s", v.Kind)
		}
		for _, f := range v.Struct().Fields {
			stack.Push(f)
		}
		return true, nil, nil
	case opcodes.OP_MUT_BORROW_FIELD:
		v, err := stack.Pop()
		if err != nil {
			return false, nil, err
		}
		s := v.Deref()
		if s == nil || s.Kind != values.KindStruct {
			return false, nil, NewVMError(ErrInvalidOperandType, "borrow_field on %s", v.Kind)
		}
		if int(inst.Idx) >= len(s.Struct().Fields) {
			return false, nil, NewVMError(ErrFieldIndexOutOfRange, "field %d", inst.Idx)
		}
		stack.Push(values.NewReference(s.Struct().Fields[inst.Idx], true))
		return true, nil, nil
	case opcodes.OP_READ_REF:
		v, err := stack.Pop()
		if err != nil {
			return false, nil, err
		}
		if !v.IsReference() {
			return false, nil, NewVMError(ErrInvalidOperandType, "read_ref on %s", v.Kind)
		}
		stack.Push(v.Deref())
		return true, nil, nil

	case opcodes.OP_MUT_BORROW_GLOBAL, opcodes.OP_IMM_BORROW_GLOBAL, opcodes.OP_EXISTS, opcodes.OP_MOVE_FROM,
		opcodes.OP_MUT_BORROW_GLOBAL_GENERIC, opcodes.OP_IMM_BORROW_GLOBAL_GENERIC, opcodes.OP_EXISTS_GENERIC, opcodes.OP_MOVE_FROM_GENERIC:
		return e.executeGlobalRead(storage, stack, inst)

	case opcodes.OP_MOVE_TO, opcodes.OP_MOVE_TO_GENERIC:
		return e.executeGlobalWrite(storage, stack, inst)

	case opcodes.OP_CALL:
		return false, &ExitCode{Kind: ExitCall, TargetIdx: int(inst.Idx)}, nil
	case opcodes.OP_CALL_GENERIC:
		return false, &ExitCode{Kind: ExitCallGeneric, TargetIdx: int(inst.Idx)}, nil

	case opcodes.OP_RET:
		return false, &ExitCode{Kind: ExitReturn}, nil

	case opcodes.OP_ABORT:
		code, err := stack.Pop()
		if err != nil {
			return false, nil, err
		}
		return false, nil, NewVMError(ErrAborted, "code %s", code)

	default:
		return false, nil, NewVMError(ErrOpcodeNotImplemented, "%s", inst.Opcode)
	}
}

func (e *Executor) executeGlobalRead(storage GlobalStorage, stack *OperandStack, inst *opcodes.Instruction) (bool, *ExitCode, error) {
	addrVal, err := stack.Pop()
	if err != nil {
		return false, nil, err
	}
	if addrVal.Kind != values.KindAddress {
		return false, nil, NewVMError(ErrInvalidOperandType, "global op on %s", addrVal.Kind)
	}
	addr := addrVal.AddressValue()

	switch {
	case inst.Opcode == opcodes.OP_EXISTS || inst.Opcode == opcodes.OP_EXISTS_GENERIC:
		stack.Push(values.NewBool(storage.Exists(addr, inst.Idx)))
	case inst.Opcode == opcodes.OP_MOVE_FROM || inst.Opcode == opcodes.OP_MOVE_FROM_GENERIC:
		v, err := storage.MoveFrom(addr, inst.Idx)
		if err != nil {
			return false, nil, err
		}
		stack.Push(v)
	default: // MutBorrowGlobal / ImmBorrowGlobal (+ Generic)
		v, err := storage.BorrowGlobal(addr, inst.Idx)
		if err != nil {
			return false, nil, err
		}
		mutable := inst.Opcode == opcodes.OP_MUT_BORROW_GLOBAL || inst.Opcode == opcodes.OP_MUT_BORROW_GLOBAL_GENERIC
		stack.Push(values.NewReference(v, mutable))
	}
	return true, nil, nil
}

func (e *Executor) executeGlobalWrite(storage GlobalStorage, stack *OperandStack, inst *opcodes.Instruction) (bool, *ExitCode, error) {
	resource, err := stack.Pop()
	if err != nil {
		return false, nil, err
	}
	signerRef, err := stack.Pop()
	if err != nil {
		return false, nil, err
	}
	if signerRef.Deref() == nil || signerRef.Deref().Kind != values.KindSigner {
		return false, nil, NewVMError(ErrInvalidOperandType, "move_to without a signer operand")
	}
	signer := signerRef.Deref()
	if err := storage.MoveTo(signer.AddressValue(), inst.Idx, resource); err != nil {
		return false, nil, err
	}
	return true, nil, nil
}

// leBytesToUint256 interprets b (little-endian, as Instruction.U128/U256
// store their constant payloads) as a uint256.Int.
func leBytesToUint256(b []byte) *uint256.Int {
	reversed := make([]byte, len(b))
	for i, v := range b {
		reversed[len(b)-1-i] = v
	}
	return new(uint256.Int).SetBytes(reversed)
}
