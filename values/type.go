package values

import "fmt"

// TypeKind identifies the shape of a Type.
type TypeKind byte

const (
	TyBool TypeKind = iota
	TyU8
	TyU16
	TyU32
	TyU64
	TyU128
	TyU256
	TyAddress
	TySigner
	TyVector
	TyStruct
	TyStructInstantiation
	TyReference
	TyMutableReference
	TyTypeParam
)

// Type is a Move type. It mirrors move_vm_types::loaded_data::Type from
// the original Rust, ported as a tagged struct since Go has no sum types
// (spec §3.1).
type Type struct {
	Kind        TypeKind
	Elem        *Type  // Vector / Reference / MutableReference element type
	StructIndex uint16 // Struct / StructInstantiation
	TypeArgs    []Type // StructInstantiation
	Param       uint16 // TypeParam
}

func Bool() Type    { return Type{Kind: TyBool} }
func U8() Type      { return Type{Kind: TyU8} }
func U16() Type     { return Type{Kind: TyU16} }
func U32() Type     { return Type{Kind: TyU32} }
func U64() Type     { return Type{Kind: TyU64} }
func U128() Type    { return Type{Kind: TyU128} }
func U256() Type    { return Type{Kind: TyU256} }
func AddressTy() Type { return Type{Kind: TyAddress} }
func SignerTy() Type  { return Type{Kind: TySigner} }

func VectorTy(elem Type) Type {
	return Type{Kind: TyVector, Elem: &elem}
}

func StructTy(index uint16) Type {
	return Type{Kind: TyStruct, StructIndex: index}
}

func StructInstantiationTy(index uint16, args []Type) Type {
	return Type{Kind: TyStructInstantiation, StructIndex: index, TypeArgs: args}
}

func ReferenceTy(elem Type) Type {
	return Type{Kind: TyReference, Elem: &elem}
}

func MutableReferenceTy(elem Type) Type {
	return Type{Kind: TyMutableReference, Elem: &elem}
}

func TypeParamTy(idx uint16) Type {
	return Type{Kind: TyTypeParam, Param: idx}
}

// Instantiate substitutes TypeParam occurrences in t with the concrete
// types in tyArgs, used when resolving CallGeneric's callee and when
// instantiating a struct-definition's generic type arguments.
func (t Type) Instantiate(tyArgs []Type) Type {
	switch t.Kind {
	case TyTypeParam:
		if int(t.Param) < len(tyArgs) {
			return tyArgs[t.Param]
		}
		return t
	case TyVector, TyReference, TyMutableReference:
		elem := t.Elem.Instantiate(tyArgs)
		return Type{Kind: t.Kind, Elem: &elem}
	case TyStructInstantiation:
		args := make([]Type, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			args[i] = a.Instantiate(tyArgs)
		}
		return Type{Kind: t.Kind, StructIndex: t.StructIndex, TypeArgs: args}
	default:
		return t
	}
}

// Key renders a canonical string for t, used to index the abilities table
// (spec §6's test-state metadata channel) since Type itself (holding a
// slice field) is not a valid Go map key.
func (t Type) Key() string {
	switch t.Kind {
	case TyVector:
		return "vector<" + t.Elem.Key() + ">"
	case TyReference:
		return "&" + t.Elem.Key()
	case TyMutableReference:
		return "&mut " + t.Elem.Key()
	case TyStruct:
		return fmt.Sprintf("struct#%d", t.StructIndex)
	case TyStructInstantiation:
		s := fmt.Sprintf("struct#%d<", t.StructIndex)
		for i, a := range t.TypeArgs {
			if i > 0 {
				s += ","
			}
			s += a.Key()
		}
		return s + ">"
	case TyTypeParam:
		return fmt.Sprintf("tyarg#%d", t.Param)
	default:
		return kindName(t.Kind)
	}
}

func kindName(k TypeKind) string {
	switch k {
	case TyBool:
		return "bool"
	case TyU8:
		return "u8"
	case TyU16:
		return "u16"
	case TyU32:
		return "u32"
	case TyU64:
		return "u64"
	case TyU128:
		return "u128"
	case TyU256:
		return "u256"
	case TyAddress:
		return "address"
	case TySigner:
		return "signer"
	default:
		return fmt.Sprintf("TypeKind(%d)", byte(k))
	}
}

func (t Type) String() string { return t.Key() }
