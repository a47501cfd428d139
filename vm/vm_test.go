package vm

import (
	"testing"

	"github.com/wudi/hey/opcodes"
	"github.com/wudi/hey/registry"
	"github.com/wudi/hey/values"
)

// noopResolver/noopStorage satisfy Resolver/GlobalStorage for frame tests
// that never issue a Call or global-storage instruction.
type noopResolver struct{}

func (noopResolver) FunctionFromHandle(registry.ModuleID, string) (*registry.FunctionHandle, error) {
	return nil, ErrFunctionNotFound
}
func (noopResolver) FunctionFromInstantiation(registry.ModuleID, string, []values.Type) (*registry.FunctionHandle, error) {
	return nil, ErrFunctionNotFound
}
func (noopResolver) Abilities(registry.ModuleID, values.Type) (values.AbilitySet, error) {
	return values.PrimitiveAbilities(), nil
}

type fakeStorage struct {
	resources map[uint16]*values.Value
}

func newFakeStorage() *fakeStorage { return &fakeStorage{resources: map[uint16]*values.Value{}} }

func (s *fakeStorage) Exists(addr values.Address, structIdx uint16) bool {
	_, ok := s.resources[structIdx]
	return ok
}
func (s *fakeStorage) MoveTo(addr values.Address, structIdx uint16, resource *values.Value) error {
	if _, ok := s.resources[structIdx]; ok {
		return ErrResourceAlreadyExists
	}
	s.resources[structIdx] = resource
	return nil
}
func (s *fakeStorage) MoveFrom(addr values.Address, structIdx uint16) (*values.Value, error) {
	v, ok := s.resources[structIdx]
	if !ok {
		return nil, ErrResourceNotFound
	}
	delete(s.resources, structIdx)
	return v, nil
}
func (s *fakeStorage) BorrowGlobal(addr values.Address, structIdx uint16) (*values.Value, error) {
	v, ok := s.resources[structIdx]
	if !ok {
		return nil, ErrResourceNotFound
	}
	return v, nil
}

func runFrame(t *testing.T, instrs []*opcodes.Instruction, locals int, storage GlobalStorage) (*Executor, *Interpreter, *Frame, *ExitCode) {
	t.Helper()
	fn := &registry.FunctionHandle{Name: "t", Instructions: instrs, LocalCount: locals}
	frame, err := NewFrame(fn, nil, nil)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	interp := NewInterpreter()
	exec := NewExecutor()
	exit, err := exec.ExecuteFrame(noopResolver{}, storage, nil, interp, frame)
	if err != nil {
		t.Fatalf("ExecuteFrame: %v", err)
	}
	return exec, interp, frame, exit
}

func TestExecuteFrameAddAndReturn(t *testing.T) {
	instrs := []*opcodes.Instruction{
		{Opcode: opcodes.OP_LD_U64, U64: 2},
		{Opcode: opcodes.OP_LD_U64, U64: 3},
		{Opcode: opcodes.OP_ADD},
		{Opcode: opcodes.OP_RET},
	}
	_, interp, _, exit := runFrame(t, instrs, 0, newFakeStorage())
	if exit.Kind != ExitReturn {
		t.Fatalf("expected ExitReturn, got %v", exit.Kind)
	}
	vals := interp.Stack.Values()
	if len(vals) != 1 || vals[0].Data.(uint64) != 5 {
		t.Fatalf("expected [5] on the stack, got %v", vals)
	}
}

func TestExecuteFrameSubUnderflowErrors(t *testing.T) {
	instrs := []*opcodes.Instruction{
		{Opcode: opcodes.OP_LD_U8, U8: 1},
		{Opcode: opcodes.OP_LD_U8, U8: 2},
		{Opcode: opcodes.OP_SUB},
		{Opcode: opcodes.OP_RET},
	}
	fn := &registry.FunctionHandle{Name: "t", Instructions: instrs}
	frame, err := NewFrame(fn, nil, nil)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	interp := NewInterpreter()
	exec := NewExecutor()
	_, err = exec.ExecuteFrame(noopResolver{}, newFakeStorage(), nil, interp, frame)
	if err == nil {
		t.Fatalf("expected an arithmetic overflow error for 1-2 underflow")
	}
	vmErr := GetVMError(err)
	if vmErr == nil || vmErr.Type != ErrArithmeticOverflow {
		t.Fatalf("expected ErrArithmeticOverflow, got %v", err)
	}
}

func TestExecuteFrameDivisionByZero(t *testing.T) {
	instrs := []*opcodes.Instruction{
		{Opcode: opcodes.OP_LD_U64, U64: 4},
		{Opcode: opcodes.OP_LD_U64, U64: 0},
		{Opcode: opcodes.OP_DIV},
		{Opcode: opcodes.OP_RET},
	}
	fn := &registry.FunctionHandle{Name: "t", Instructions: instrs}
	frame, _ := NewFrame(fn, nil, nil)
	interp := NewInterpreter()
	exec := NewExecutor()
	_, err := exec.ExecuteFrame(noopResolver{}, newFakeStorage(), nil, interp, frame)
	if GetVMError(err) == nil || GetVMError(err).Type != ErrDivisionByZero {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestExecuteFrameBranchTaken(t *testing.T) {
	instrs := []*opcodes.Instruction{
		{Opcode: opcodes.OP_LD_BOOL, Bool: true},
		{Opcode: opcodes.OP_BR_TRUE, Offset: 3},
		{Opcode: opcodes.OP_LD_U8, U8: 111}, // skipped
		{Opcode: opcodes.OP_LD_U8, U8: 9},
		{Opcode: opcodes.OP_RET},
	}
	_, interp, _, _ := runFrame(t, instrs, 0, newFakeStorage())
	vals := interp.Stack.Values()
	if len(vals) != 1 || vals[0].Data.(uint8) != 9 {
		t.Fatalf("expected branch to skip the dead store, got %v", vals)
	}
}

func TestExecuteFrameCallYieldsExitCall(t *testing.T) {
	instrs := []*opcodes.Instruction{
		{Opcode: opcodes.OP_LD_U64, U64: 1},
		{Opcode: opcodes.OP_CALL, Idx: 0},
	}
	_, _, _, exit := runFrame(t, instrs, 0, newFakeStorage())
	if exit.Kind != ExitCall || exit.TargetIdx != 0 {
		t.Fatalf("expected ExitCall{TargetIdx:0}, got %+v", exit)
	}
}

func TestExecuteFrameAbortReturnsError(t *testing.T) {
	instrs := []*opcodes.Instruction{
		{Opcode: opcodes.OP_LD_U64, U64: 7},
		{Opcode: opcodes.OP_ABORT},
	}
	fn := &registry.FunctionHandle{Name: "t", Instructions: instrs}
	frame, _ := NewFrame(fn, nil, nil)
	interp := NewInterpreter()
	exec := NewExecutor()
	_, err := exec.ExecuteFrame(noopResolver{}, newFakeStorage(), nil, interp, frame)
	if GetVMError(err) == nil || GetVMError(err).Type != ErrAborted {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestExecuteFrameGlobalStorageRoundTrip(t *testing.T) {
	var addr values.Address
	addr[31] = 1
	storage := newFakeStorage()

	signerSlot := values.NewSigner(addr)
	fn := &registry.FunctionHandle{
		Name: "publish",
		Instructions: []*opcodes.Instruction{
			{Opcode: opcodes.OP_COPY_LOC, Idx: 0},
			{Opcode: opcodes.OP_LD_U64, U64: 0},
			{Opcode: opcodes.OP_PACK, Idx: 0, FieldCount: 1},
			{Opcode: opcodes.OP_MOVE_TO, Idx: 0},
			{Opcode: opcodes.OP_RET},
		},
		LocalCount: 1,
	}
	frame, err := NewFrame(fn, nil, []*values.Value{signerSlot})
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	interp := NewInterpreter()
	exec := NewExecutor()
	_, err = exec.ExecuteFrame(noopResolver{}, storage, nil, interp, frame)
	if err != nil {
		t.Fatalf("ExecuteFrame: %v", err)
	}
	if !storage.Exists(addr, 0) {
		t.Fatalf("expected MoveTo to publish a resource under struct index 0")
	}
}
