package tracer

import (
	"testing"

	"github.com/wudi/hey/opcodes"
	"github.com/wudi/hey/values"
)

// fakeStack is a minimal OperandStack double: a fixed slice read back to
// front, the same shape PeekBack(k) expects of the real vm.OperandStack.
type fakeStack struct {
	vals []*values.Value // top of stack is vals[len-1]
}

func (s *fakeStack) PeekBack(k int) *values.Value {
	idx := len(s.vals) - k
	if idx < 0 || idx >= len(s.vals) {
		return nil
	}
	return s.vals[idx]
}

func TestOnStepBrTrueRecordsTakenTarget(t *testing.T) {
	f := NewFeedback()
	tr := New(f)
	stack := &fakeStack{vals: []*values.Value{values.NewBool(true)}}
	instr := &opcodes.Instruction{Opcode: opcodes.OP_BR_TRUE, Offset: 42}

	tr.OnStep(stack, 5, instr)

	jmp := f.GetJmp()
	if jmp[42] != 1 {
		t.Fatalf("expected cov[42] bumped once for a taken BrTrue, got %d", jmp[42])
	}
}

func TestOnStepBrTrueRecordsFallthroughWhenNotTaken(t *testing.T) {
	f := NewFeedback()
	tr := New(f)
	stack := &fakeStack{vals: []*values.Value{values.NewBool(false)}}
	instr := &opcodes.Instruction{Opcode: opcodes.OP_BR_TRUE, Offset: 42}

	tr.OnStep(stack, 5, instr)

	jmp := f.GetJmp()
	if jmp[6] != 1 {
		t.Fatalf("expected cov[pc+1=6] bumped once for a fallthrough BrTrue, got %d", jmp[6])
	}
}

func TestOnStepEqRecordsZeroDistanceOnMatch(t *testing.T) {
	f := NewFeedback()
	tr := New(f)
	stack := &fakeStack{vals: []*values.Value{values.NewU64(7), values.NewU64(7)}}
	instr := &opcodes.Instruction{Opcode: opcodes.OP_EQ}

	tr.OnStep(stack, 9, instr)

	cmp := f.GetCmp()
	if !cmp[9].IsZero() {
		t.Fatalf("expected zero compare distance for equal operands, got %s", cmp[9])
	}
}

func TestOnStepNeqIsANoOp(t *testing.T) {
	f := NewFeedback()
	tr := New(f)
	stack := &fakeStack{vals: []*values.Value{values.NewU64(1), values.NewU64(2)}}
	instr := &opcodes.Instruction{Opcode: opcodes.OP_NEQ}

	tr.OnStep(stack, 3, instr)

	cmp := f.GetCmp()
	if cmp[3].Cmp(maxU128()) != 0 {
		t.Fatalf("expected Neq to leave cmp[3] at its initial sentinel, got %s", cmp[3])
	}
}

func TestOnStepBrTrueWithNonBoolTopIsFatal(t *testing.T) {
	f := NewFeedback()
	tr := New(f)
	stack := &fakeStack{vals: []*values.Value{values.NewU64(1)}}
	instr := &opcodes.Instruction{Opcode: opcodes.OP_BR_TRUE, Offset: 42}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a br_true with a non-bool operand-stack top to panic")
		}
		if _, ok := r.(*FatalError); !ok {
			t.Fatalf("expected a *tracer.FatalError, got %T", r)
		}
	}()

	tr.OnStep(stack, 5, instr)
}

func TestOnStepGlobalReadMarksAddressBucket(t *testing.T) {
	f := NewFeedback()
	tr := New(f)
	var addr values.Address
	addr[31] = 5
	stack := &fakeStack{vals: []*values.Value{values.NewAddress(addr)}}
	instr := &opcodes.Instruction{Opcode: opcodes.OP_EXISTS, Idx: 2}

	tr.OnStep(stack, 0, instr)

	offset := globalStorageOffset(addr, 2)
	read := f.GetRead()
	if !read[offset] {
		t.Fatalf("expected read[%d] set for Exists on address bucket", offset)
	}
}

func TestOnStepGlobalWriteMarksBucketAndStateChanged(t *testing.T) {
	f := NewFeedback()
	tr := New(f)
	var addr values.Address
	addr[31] = 9
	resource := values.NewStruct(0, nil)
	signer := values.NewSigner(addr)
	stack := &fakeStack{vals: []*values.Value{signer, resource}}
	instr := &opcodes.Instruction{Opcode: opcodes.OP_MOVE_TO, Idx: 1}

	tr.OnStep(stack, 0, instr)

	offset := globalStorageOffset(addr, 1)
	write := f.GetWrite()
	if write[offset] == 0 {
		t.Fatalf("expected write[%d] set for MoveTo", offset)
	}
	if !f.StateChanged() {
		t.Fatalf("expected MoveTo to set stateChanged")
	}
}
