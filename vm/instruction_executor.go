package vm

import (
	"github.com/holiman/uint256"

	"github.com/wudi/hey/opcodes"
	"github.com/wudi/hey/values"
)

// ArithmeticExecutor performs Add/Sub/Mul/Div/Mod: pop two operands of the
// same integer kind, compute in 256-bit space, check the result fits the
// operand width, and push the result. Move arithmetic traps on overflow
// and division by zero rather than wrapping; this executor mirrors that by
// returning an error instead of silently truncating.
type ArithmeticExecutor struct {
	stack *OperandStack
}

func NewArithmeticExecutor(stack *OperandStack) *ArithmeticExecutor {
	return &ArithmeticExecutor{stack: stack}
}

func (a *ArithmeticExecutor) Execute(op opcodes.Opcode) error {
	r, err := a.stack.Pop()
	if err != nil {
		return err
	}
	l, err := a.stack.Pop()
	if err != nil {
		return err
	}
	if l.Kind != r.Kind {
		return NewVMError(ErrInvalidOperandType, "%s on mismatched kinds %s/%s", op, l.Kind, r.Kind)
	}
	lv, lok := l.AsUint256()
	rv, rok := r.AsUint256()
	if !lok || !rok {
		return NewVMError(ErrInvalidOperandType, "%s on non-integer kind %s", op, l.Kind)
	}

	var raw uint256.Int
	switch op {
	case opcodes.OP_ADD:
		raw.Add(lv, rv)
		if raw.Cmp(lv) < 0 {
			return NewVMError(ErrArithmeticOverflow, "u256 overflow")
		}
	case opcodes.OP_SUB:
		if lv.Cmp(rv) < 0 {
			return NewVMError(ErrArithmeticOverflow, "subtraction underflow")
		}
		raw.Sub(lv, rv)
	case opcodes.OP_MUL:
		raw.Mul(lv, rv)
		if !lv.IsZero() && new(uint256.Int).Div(&raw, lv).Cmp(rv) != 0 {
			return NewVMError(ErrArithmeticOverflow, "u256 overflow")
		}
	case opcodes.OP_DIV:
		if rv.IsZero() {
			return NewVMError(ErrDivisionByZero, "")
		}
		raw.Div(lv, rv)
	case opcodes.OP_MOD:
		if rv.IsZero() {
			return NewVMError(ErrModuloByZero, "")
		}
		raw.Mod(lv, rv)
	default:
		return NewVMError(ErrOpcodeNotImplemented, "%s is not arithmetic", op)
	}

	result, err := widthLimitedValue(l.Kind, &raw)
	if err != nil {
		return err
	}
	a.stack.Push(result)
	return nil
}

// widthLimitedValue rebuilds a typed Value of kind from raw, erroring if
// raw doesn't fit — the overflow check Move's bytecode verifier/runtime
// performs on every fixed-width arithmetic op.
func widthLimitedValue(kind values.Kind, raw *uint256.Int) (*values.Value, error) {
	switch kind {
	case values.KindU8:
		if !raw.IsUint64() || raw.Uint64() > 0xff {
			return nil, NewVMError(ErrArithmeticOverflow, "u8 overflow")
		}
		return values.NewU8(uint8(raw.Uint64())), nil
	case values.KindU16:
		if !raw.IsUint64() || raw.Uint64() > 0xffff {
			return nil, NewVMError(ErrArithmeticOverflow, "u16 overflow")
		}
		return values.NewU16(uint16(raw.Uint64())), nil
	case values.KindU32:
		if !raw.IsUint64() || raw.Uint64() > 0xffffffff {
			return nil, NewVMError(ErrArithmeticOverflow, "u32 overflow")
		}
		return values.NewU32(uint32(raw.Uint64())), nil
	case values.KindU64:
		if !raw.IsUint64() {
			return nil, NewVMError(ErrArithmeticOverflow, "u64 overflow")
		}
		return values.NewU64(raw.Uint64()), nil
	case values.KindU128:
		var max uint256.Int
		max.SetAllOne()
		max.Rsh(&max, 128)
		if raw.Cmp(&max) > 0 {
			return nil, NewVMError(ErrArithmeticOverflow, "u128 overflow")
		}
		return values.NewU128(raw), nil
	case values.KindU256:
		return values.NewU256(raw), nil
	default:
		return nil, NewVMError(ErrInvalidOperandType, "unsupported arithmetic kind %s", kind)
	}
}
