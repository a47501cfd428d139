// Package opcodes defines the Move bytecode instruction set understood by
// the embedded frame executor (vm package) and observed by the tracer
// package.
package opcodes

import "fmt"

// Opcode represents a Move bytecode instruction type.
type Opcode byte

// Stack & constant loading (0-19)
const (
	OP_NOP Opcode = iota // No operation

	OP_POP // discard top of stack

	OP_LD_U8      // push a u8 constant (Instruction.U8)
	OP_LD_U16     // push a u16 constant (Instruction.U16)
	OP_LD_U32     // push a u32 constant (Instruction.U32)
	OP_LD_U64     // push a u64 constant (Instruction.U64)
	OP_LD_U128    // push a u128 constant (Instruction.U128)
	OP_LD_U256    // push a u256 constant (Instruction.U256)
	OP_LD_BOOL    // push a bool constant (Instruction.Bool)
	OP_LD_ADDRESS // push an address constant (Instruction.Address)
	OP_LD_CONST   // push frame.Constants[Instruction.Idx]

	OP_COPY_LOC // push a copy of locals[Idx]
	OP_MOVE_LOC // push locals[Idx], leaving it unset behind
	OP_ST_LOC   // pop into locals[Idx]
)

// Arithmetic operations (20-29), integer-width agnostic: operate on the
// dynamic integer kind of their operands.
const (
	OP_ADD Opcode = iota + 20
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
)

// Comparison & branch operations (30-49) — the family the tracer (package
// tracer) observes.
const (
	OP_EQ Opcode = iota + 30
	OP_NEQ
	OP_LT
	OP_LE
	OP_GT
	OP_GE

	OP_BR_TRUE  // Instruction.Offset is the taken target
	OP_BR_FALSE // Instruction.Offset is the taken target
	OP_BRANCH   // unconditional jump to Instruction.Offset
)

// Struct & global-storage operations (50-69). The "Generic" variants carry
// the same sd_idx field but are instantiated against the current frame's
// type arguments before resolution; the tracer treats both forms
// identically (spec §4.B).
const (
	OP_PACK Opcode = iota + 50 // pop FieldCount values, push a Struct(Idx)
	OP_UNPACK
	OP_MUT_BORROW_FIELD // pop a struct ref, push a reference to field Idx
	OP_READ_REF         // pop a reference, push the referent's value

	OP_MUT_BORROW_GLOBAL
	OP_IMM_BORROW_GLOBAL
	OP_EXISTS
	OP_MOVE_FROM
	OP_MOVE_TO

	OP_MUT_BORROW_GLOBAL_GENERIC
	OP_IMM_BORROW_GLOBAL_GENERIC
	OP_EXISTS_GENERIC
	OP_MOVE_FROM_GENERIC
	OP_MOVE_TO_GENERIC
)

// Control flow & calls (70-79).
const (
	OP_CALL Opcode = iota + 70
	OP_CALL_GENERIC
	OP_RET
	OP_ABORT
)

var opcodeNames = map[Opcode]string{
	OP_NOP:        "Nop",
	OP_POP:        "Pop",
	OP_LD_U8:      "LdU8",
	OP_LD_U16:     "LdU16",
	OP_LD_U32:     "LdU32",
	OP_LD_U64:     "LdU64",
	OP_LD_U128:    "LdU128",
	OP_LD_U256:    "LdU256",
	OP_LD_BOOL:    "LdBool",
	OP_LD_ADDRESS: "LdAddress",
	OP_LD_CONST:   "LdConst",
	OP_COPY_LOC:   "CopyLoc",
	OP_MOVE_LOC:   "MoveLoc",
	OP_ST_LOC:     "StLoc",

	OP_ADD: "Add",
	OP_SUB: "Sub",
	OP_MUL: "Mul",
	OP_DIV: "Div",
	OP_MOD: "Mod",

	OP_EQ:       "Eq",
	OP_NEQ:      "Neq",
	OP_LT:       "Lt",
	OP_LE:       "Le",
	OP_GT:       "Gt",
	OP_GE:       "Ge",
	OP_BR_TRUE:  "BrTrue",
	OP_BR_FALSE: "BrFalse",
	OP_BRANCH:   "Branch",

	OP_PACK:             "Pack",
	OP_UNPACK:           "Unpack",
	OP_MUT_BORROW_FIELD: "MutBorrowField",
	OP_READ_REF:         "ReadRef",

	OP_MUT_BORROW_GLOBAL: "MutBorrowGlobal",
	OP_IMM_BORROW_GLOBAL: "ImmBorrowGlobal",
	OP_EXISTS:            "Exists",
	OP_MOVE_FROM:         "MoveFrom",
	OP_MOVE_TO:           "MoveTo",

	OP_MUT_BORROW_GLOBAL_GENERIC: "MutBorrowGlobalGeneric",
	OP_IMM_BORROW_GLOBAL_GENERIC: "ImmBorrowGlobalGeneric",
	OP_EXISTS_GENERIC:            "ExistsGeneric",
	OP_MOVE_FROM_GENERIC:         "MoveFromGeneric",
	OP_MOVE_TO_GENERIC:           "MoveToGeneric",

	OP_CALL:         "Call",
	OP_CALL_GENERIC: "CallGeneric",
	OP_RET:          "Ret",
	OP_ABORT:        "Abort",
}

// String renders the opcode's mnemonic, matching the names used throughout
// the spec's per-opcode table.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

// IsGlobalStorageBorrow reports whether op is one of the non-generic
// MutBorrowGlobal/ImmBorrowGlobal/Exists/MoveFrom family.
func (op Opcode) IsGlobalStorageBorrow() bool {
	switch op {
	case OP_MUT_BORROW_GLOBAL, OP_IMM_BORROW_GLOBAL, OP_EXISTS, OP_MOVE_FROM:
		return true
	default:
		return false
	}
}

// IsGlobalStorageBorrowGeneric reports whether op is the Generic form of
// IsGlobalStorageBorrow.
func (op Opcode) IsGlobalStorageBorrowGeneric() bool {
	switch op {
	case OP_MUT_BORROW_GLOBAL_GENERIC, OP_IMM_BORROW_GLOBAL_GENERIC, OP_EXISTS_GENERIC, OP_MOVE_FROM_GENERIC:
		return true
	default:
		return false
	}
}

// IsMoveTo reports whether op is MoveTo or MoveToGeneric.
func (op Opcode) IsMoveTo() bool {
	return op == OP_MOVE_TO || op == OP_MOVE_TO_GENERIC
}

// IsOrderedComparison reports whether op is one of the Lt/Le/Gt/Ge family that the
// tracer records a branch distance for (Eq is tracked separately since Neq
// is an explicit no-op, spec §4.B).
func (op Opcode) IsOrderedComparison() bool {
	switch op {
	case OP_LT, OP_LE, OP_GT, OP_GE:
		return true
	default:
		return false
	}
}
