// Package values implements the Move runtime value representation: a
// tagged union over Move's primitive and structural types, the same shape
// as the teacher's PHP values.Value{Type, Data} but re-purposed for Move's
// typed integers, addresses, structs, vectors and references.
package values

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Kind identifies which variant of Value.Data is populated.
type Kind byte

const (
	KindBool Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindU256
	KindAddress
	KindSigner
	KindStruct
	KindVector
	KindReference
	KindMutableReference
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindU128:
		return "u128"
	case KindU256:
		return "u256"
	case KindAddress:
		return "address"
	case KindSigner:
		return "signer"
	case KindStruct:
		return "struct"
	case KindVector:
		return "vector"
	case KindReference:
		return "&"
	case KindMutableReference:
		return "&mut"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// Address is a 32-byte Move account address.
type Address [32]byte

// Low128 returns the address's low-order 16 bytes, interpreted
// little-endian, as a 128-bit unsigned integer — the exact extraction the
// tracer performs for global-storage bucket addressing (spec §4.B).
func (a Address) Low128() *uint256.Int {
	var reversed [16]byte
	low := a[16:32]
	for i := 0; i < 16; i++ {
		reversed[i] = low[15-i]
	}
	return new(uint256.Int).SetBytes(reversed[:])
}

// Signer is Move's capability-bearing wrapper around an Address.
type Signer struct {
	Addr Address
}

// Struct is a runtime instance of a Move struct. Index refers back into the
// declaring module's struct-definition table (registry.StructDef), kept as
// a bare index here to avoid an import cycle between values and registry.
type Struct struct {
	Index  uint16
	Fields []*Value
}

// Vector is a homogeneous runtime Move vector.
type Vector struct {
	Elem Kind
	Elems []*Value
}

// Value is a Move runtime value. Data holds the payload selected by Kind;
// see the New* constructors for the Data type each Kind holds.
type Value struct {
	Kind Kind
	Data interface{}
}

func NewBool(b bool) *Value              { return &Value{Kind: KindBool, Data: b} }
func NewU8(v uint8) *Value               { return &Value{Kind: KindU8, Data: v} }
func NewU16(v uint16) *Value             { return &Value{Kind: KindU16, Data: v} }
func NewU32(v uint32) *Value             { return &Value{Kind: KindU32, Data: v} }
func NewU64(v uint64) *Value             { return &Value{Kind: KindU64, Data: v} }
func NewAddress(a Address) *Value        { return &Value{Kind: KindAddress, Data: a} }
func NewSigner(a Address) *Value         { return &Value{Kind: KindSigner, Data: Signer{Addr: a}} }

// NewU128 masks v to its low 128 bits, matching the VM's fixed-width u128.
func NewU128(v *uint256.Int) *Value {
	masked := new(uint256.Int).Set(v)
	maskU128(masked)
	return &Value{Kind: KindU128, Data: masked}
}

// NewU256 stores v verbatim as a u256.
func NewU256(v *uint256.Int) *Value {
	return &Value{Kind: KindU256, Data: new(uint256.Int).Set(v)}
}

func NewStruct(index uint16, fields []*Value) *Value {
	return &Value{Kind: KindStruct, Data: &Struct{Index: index, Fields: fields}}
}

func NewVector(elem Kind, elems []*Value) *Value {
	return &Value{Kind: KindVector, Data: &Vector{Elem: elem, Elems: elems}}
}

// NewReference wraps target so that ReadRef indirects through it.
// mutable selects KindMutableReference over KindReference.
func NewReference(target *Value, mutable bool) *Value {
	kind := KindReference
	if mutable {
		kind = KindMutableReference
	}
	return &Value{Kind: kind, Data: target}
}

func maskU128(z *uint256.Int) {
	var mask uint256.Int
	mask.SetAllOne()
	mask.Rsh(&mask, 128)
	z.And(z, &mask)
}

// IsReference reports whether v is a (mutable or immutable) reference.
func (v *Value) IsReference() bool {
	return v.Kind == KindReference || v.Kind == KindMutableReference
}

// Deref follows a reference to the value it points at; a non-reference
// Value derefs to itself. Mirrors the teacher's Value.Deref() used
// throughout comparison_executor.go.
func (v *Value) Deref() *Value {
	if v == nil {
		return v
	}
	if v.IsReference() {
		target, _ := v.Data.(*Value)
		return target
	}
	return v
}

// Bool reads the boolean payload, panicking if Kind != KindBool — callers
// at the opcode-dispatch boundary are expected to have already validated
// the operand's kind (an unreachable-in-practice Move VM invariant, spec
// §4.B / §7 class 4).
func (v *Value) Bool() bool {
	return v.Data.(bool)
}

func (v *Value) AddressValue() Address {
	if v.Kind == KindSigner {
		return v.Data.(Signer).Addr
	}
	return v.Data.(Address)
}

func (v *Value) Struct() *Struct {
	return v.Data.(*Struct)
}

// AsUint256 returns the value's integer payload widened into a uint256.Int,
// for any of the U8..U256 kinds. Used by the tracer's distance computation.
func (v *Value) AsUint256() (*uint256.Int, bool) {
	switch v.Kind {
	case KindU8:
		return uint256.NewInt(uint64(v.Data.(uint8))), true
	case KindU16:
		return uint256.NewInt(uint64(v.Data.(uint16))), true
	case KindU32:
		return uint256.NewInt(uint64(v.Data.(uint32))), true
	case KindU64:
		return uint256.NewInt(v.Data.(uint64)), true
	case KindU128, KindU256:
		return new(uint256.Int).Set(v.Data.(*uint256.Int)), true
	default:
		return nil, false
	}
}

func (v *Value) String() string {
	switch v.Kind {
	case KindBool:
		return fmt.Sprintf("%v", v.Data)
	case KindU8, KindU16, KindU32, KindU64:
		return fmt.Sprintf("%d", v.Data)
	case KindU128, KindU256:
		return v.Data.(*uint256.Int).Dec()
	case KindAddress:
		a := v.Data.(Address)
		return fmt.Sprintf("0x%x", a)
	case KindSigner:
		return fmt.Sprintf("signer(0x%x)", v.Data.(Signer).Addr)
	case KindStruct:
		return fmt.Sprintf("struct#%d{%d fields}", v.Data.(*Struct).Index, len(v.Data.(*Struct).Fields))
	case KindVector:
		return fmt.Sprintf("vector<%s>[%d]", v.Data.(*Vector).Elem, len(v.Data.(*Vector).Elems))
	case KindReference, KindMutableReference:
		return fmt.Sprintf("%s%s", v.Kind, v.Deref())
	default:
		return "?"
	}
}
