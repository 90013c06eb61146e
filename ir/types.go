package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Type identifies one member of the engine's closed value-type lattice.
// Types are used for node results, function inputs/outputs, struct
// members, and resource element types.
type Type struct {
	Kind    TypeKind
	Of      *Type  // element type, for Array
	Len     int    // array length, for Array
	Struct  string // struct id, for Struct
}

// TypeKind enumerates the closed set of value type kinds.
type TypeKind uint8

const (
	KindInvalid TypeKind = iota
	KindFloat
	KindInt
	KindBool
	KindString
	KindFloat2
	KindFloat3
	KindFloat4
	KindInt2
	KindInt3
	KindInt4
	KindFloat3x3
	KindFloat4x4
	KindArray
	KindStruct
)

var kindNames = map[TypeKind]string{
	KindInvalid:  "invalid",
	KindFloat:    "float",
	KindInt:      "int",
	KindBool:     "bool",
	KindString:   "string",
	KindFloat2:   "float2",
	KindFloat3:   "float3",
	KindFloat4:   "float4",
	KindInt2:     "int2",
	KindInt3:     "int3",
	KindInt4:     "int4",
	KindFloat3x3: "float3x3",
	KindFloat4x4: "float4x4",
	KindArray:    "array",
	KindStruct:   "struct",
}

// String renders the type the way it appears in document source and in
// validator diagnostics (e.g. "float3", "array<int, 4>", "struct Particle").
func (t Type) String() string {
	switch t.Kind {
	case KindArray:
		if t.Of == nil {
			return "array<?, ?>"
		}
		return fmt.Sprintf("array<%s, %d>", t.Of.String(), t.Len)
	case KindStruct:
		return "struct " + t.Struct
	default:
		if name, ok := kindNames[t.Kind]; ok {
			return name
		}
		return "unknown"
	}
}

// Equal reports whether two types are identical (same kind, and for
// Array/Struct the same element type/length or struct id).
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindArray:
		if t.Len != o.Len {
			return false
		}
		if t.Of == nil || o.Of == nil {
			return t.Of == o.Of
		}
		return t.Of.Equal(*o.Of)
	case KindStruct:
		return t.Struct == o.Struct
	default:
		return true
	}
}

// Convenience constructors.
func Float() Type    { return Type{Kind: KindFloat} }
func Int() Type      { return Type{Kind: KindInt} }
func Bool() Type     { return Type{Kind: KindBool} }
func StringT() Type  { return Type{Kind: KindString} }
func Float2() Type   { return Type{Kind: KindFloat2} }
func Float3() Type   { return Type{Kind: KindFloat3} }
func Float4() Type   { return Type{Kind: KindFloat4} }
func Int2() Type     { return Type{Kind: KindInt2} }
func Int3() Type     { return Type{Kind: KindInt3} }
func Int4() Type     { return Type{Kind: KindInt4} }
func Float3x3() Type { return Type{Kind: KindFloat3x3} }
func Float4x4() Type { return Type{Kind: KindFloat4x4} }

// ArrayOf builds a fixed-size array<T, N> type.
func ArrayOf(elem Type, n int) Type {
	e := elem
	return Type{Kind: KindArray, Of: &e, Len: n}
}

// StructOf builds a reference to a user-declared struct by id.
func StructOf(id string) Type {
	return Type{Kind: KindStruct, Struct: id}
}

// IsNumericScalar reports whether t is float or int (bool participates
// in numeric contexts only via the explicit bool<->0/1 cast).
func (t Type) IsNumericScalar() bool {
	return t.Kind == KindFloat || t.Kind == KindInt
}

// IsVector reports whether t is one of the fixed-arity vector kinds.
func (t Type) IsVector() bool {
	switch t.Kind {
	case KindFloat2, KindFloat3, KindFloat4, KindInt2, KindInt3, KindInt4:
		return true
	}
	return false
}

// IsFloatVector and IsIntVector distinguish vector element type, which
// matters because cross-element-type vector coercion is not permitted.
func (t Type) IsFloatVector() bool {
	switch t.Kind {
	case KindFloat2, KindFloat3, KindFloat4:
		return true
	}
	return false
}

func (t Type) IsIntVector() bool {
	switch t.Kind {
	case KindInt2, KindInt3, KindInt4:
		return true
	}
	return false
}

// IsMatrix reports whether t is float3x3 or float4x4.
func (t Type) IsMatrix() bool {
	return t.Kind == KindFloat3x3 || t.Kind == KindFloat4x4
}

// VectorArity returns the component count of a vector type (2, 3, or 4)
// and ok=false for non-vector types.
func (t Type) VectorArity() (int, bool) {
	switch t.Kind {
	case KindFloat2, KindInt2:
		return 2, true
	case KindFloat3, KindInt3:
		return 3, true
	case KindFloat4, KindInt4:
		return 4, true
	}
	return 0, false
}

// MatrixDim returns the column/row size of a matrix type (3 or 4).
func (t Type) MatrixDim() (int, bool) {
	switch t.Kind {
	case KindFloat3x3:
		return 3, true
	case KindFloat4x4:
		return 4, true
	}
	return 0, false
}

// FlatSize returns the number of flat-float ABI elements this type
// occupies, per the canonical encoding table in spec section 4.6.
// Struct and dynamic-array sizes depend on the document and are
// computed by the resource package's marshaller instead.
func (t Type) FlatSize() int {
	switch t.Kind {
	case KindFloat, KindInt, KindBool:
		return 1
	case KindFloat2, KindInt2:
		return 2
	case KindFloat3, KindInt3:
		return 3
	case KindFloat4, KindInt4:
		return 4
	case KindFloat3x3:
		return 9
	case KindFloat4x4:
		return 16
	case KindArray:
		if t.Of == nil {
			return 0
		}
		return t.Len * t.Of.FlatSize()
	default:
		return 0
	}
}

// ParseType parses a type's canonical string spelling, the document
// surface form for every type field (spec section 3): a bare scalar
// name, "array<T, N>" or "array<T>" (dynamic, Len -1), or
// "struct <id>".
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "array<") && strings.HasSuffix(s, ">"):
		inner := s[len("array<") : len(s)-1]
		parts := strings.SplitN(inner, ",", 2)
		elemName := strings.TrimSpace(parts[0])
		elem, err := ParseType(elemName)
		if err != nil {
			return Type{}, fmt.Errorf("ir: parsing array element type: %w", err)
		}
		if len(parts) == 1 {
			return Type{Kind: KindArray, Of: &elem, Len: -1}, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Type{}, fmt.Errorf("ir: parsing array length: %w", err)
		}
		return ArrayOf(elem, n), nil
	case strings.HasPrefix(s, "struct "):
		return StructOf(strings.TrimSpace(s[len("struct "):])), nil
	default:
		kind, ok := kindByName(s)
		if !ok {
			return Type{}, fmt.Errorf("ir: unknown type %q", s)
		}
		return Type{Kind: kind}, nil
	}
}
