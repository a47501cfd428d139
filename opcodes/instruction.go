package opcodes

// Instruction is one decoded bytecode instruction. Not every field is
// meaningful for every opcode — which fields apply is determined by Opcode,
// mirroring the teacher's tagged-operand-slot encoding.
type Instruction struct {
	Opcode Opcode

	// Idx is the generic operand slot: a locals slot for CopyLoc/MoveLoc/
	// StLoc, a constant-pool index for LdConst, a struct-definition index
	// for Pack/Unpack/the global-storage family, a field index for
	// MutBorrowField, or a function-handle index for Call/CallGeneric.
	Idx uint16

	// Offset is the jump target for BrTrue/BrFalse/Branch.
	Offset int32

	// Immediate constant payloads for the Ld* family. Only the field
	// matching Opcode is populated.
	U8      uint8
	U16     uint16
	U32     uint32
	U64     uint64
	U128    [16]byte // little-endian
	U256    [32]byte // little-endian
	Bool    bool
	Address [32]byte

	// FieldCount is the arity consumed by Pack/Unpack.
	FieldCount int
}
