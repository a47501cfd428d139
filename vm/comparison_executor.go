package vm

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/wudi/hey/opcodes"
	"github.com/wudi/hey/values"
)

// ComparisonExecutor performs the actual push/pop semantics of a
// comparison opcode: popping both operands, computing the bool result,
// and pushing it back. This is deliberately separate from the tracer's
// distance bookkeeping (package tracer), which only observes the same
// operands a moment earlier without disturbing the stack.
type ComparisonExecutor struct {
	stack *OperandStack
}

func NewComparisonExecutor(stack *OperandStack) *ComparisonExecutor {
	return &ComparisonExecutor{stack: stack}
}

// Execute pops two operands and pushes the bool result of applying op.
func (c *ComparisonExecutor) Execute(op opcodes.Opcode) error {
	r, err := c.stack.Pop()
	if err != nil {
		return fmt.Errorf("comparison %s: %w", op, err)
	}
	l, err := c.stack.Pop()
	if err != nil {
		return fmt.Errorf("comparison %s: %w", op, err)
	}

	var result bool
	switch op {
	case opcodes.OP_EQ:
		result, err = c.isEqual(l, r)
	case opcodes.OP_NEQ:
		result, err = c.isNotEqual(l, r)
	case opcodes.OP_LT:
		result, err = c.isSmaller(l, r)
	case opcodes.OP_LE:
		result, err = c.isSmallerOrEqual(l, r)
	case opcodes.OP_GT:
		result, err = c.isGreater(l, r)
	case opcodes.OP_GE:
		result, err = c.isGreaterOrEqual(l, r)
	default:
		return NewVMError(ErrOpcodeNotImplemented, "%s is not a comparison opcode", op)
	}
	if err != nil {
		return err
	}
	c.stack.Push(values.NewBool(result))
	return nil
}

func (c *ComparisonExecutor) isEqual(l, r *values.Value) (bool, error) {
	l, r = l.Deref(), r.Deref()
	if l.Kind == values.KindBool && r.Kind == values.KindBool {
		return l.Bool() == r.Bool(), nil
	}
	if l.Kind == values.KindAddress && r.Kind == values.KindAddress {
		return l.AddressValue() == r.AddressValue(), nil
	}
	lv, rv, err := asComparableInts(l, r)
	if err != nil {
		return false, err
	}
	return lv.Cmp(rv) == 0, nil
}

func (c *ComparisonExecutor) isNotEqual(l, r *values.Value) (bool, error) {
	eq, err := c.isEqual(l, r)
	if err != nil {
		return false, err
	}
	return !eq, nil
}

func (c *ComparisonExecutor) isSmaller(l, r *values.Value) (bool, error) {
	lv, rv, err := asComparableInts(l.Deref(), r.Deref())
	if err != nil {
		return false, err
	}
	return lv.Cmp(rv) < 0, nil
}

func (c *ComparisonExecutor) isSmallerOrEqual(l, r *values.Value) (bool, error) {
	lv, rv, err := asComparableInts(l.Deref(), r.Deref())
	if err != nil {
		return false, err
	}
	return lv.Cmp(rv) <= 0, nil
}

func (c *ComparisonExecutor) isGreater(l, r *values.Value) (bool, error) {
	lv, rv, err := asComparableInts(l.Deref(), r.Deref())
	if err != nil {
		return false, err
	}
	return lv.Cmp(rv) > 0, nil
}

func (c *ComparisonExecutor) isGreaterOrEqual(l, r *values.Value) (bool, error) {
	lv, rv, err := asComparableInts(l.Deref(), r.Deref())
	if err != nil {
		return false, err
	}
	return lv.Cmp(rv) >= 0, nil
}

func asComparableInts(l, r *values.Value) (*uint256.Int, *uint256.Int, error) {
	lv, lok := l.AsUint256()
	rv, rok := r.AsUint256()
	if !lok || !rok {
		return nil, nil, NewVMError(ErrInvalidOperandType, "cannot order %s and %s", l.Kind, r.Kind)
	}
	return lv, rv, nil
}
