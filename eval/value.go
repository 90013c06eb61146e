package eval

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/shadeflow/ir"
	"github.com/gogpu/shadeflow/resource"
)

// Value is the interpreter's tagged-variant runtime value (spec section
// 9, Design Note "Value representation"): scalars in Num, a
// fixed-arity vector/matrix in Vec/Mat, a string in Str, an array in
// Arr, and a struct's named fields in Struct.
type Value struct {
	Type   ir.Type
	Num    float32
	Str    string
	Vec    [4]float32
	Mat    [16]float32
	Arr    []Value
	Struct map[string]Value
}

func Float(f float32) Value { return Value{Type: ir.Float(), Num: f} }
func Int(i int32) Value     { return Value{Type: ir.Int(), Num: float32(i)} }
func Bool(b bool) Value {
	if b {
		return Value{Type: ir.Bool(), Num: 1}
	}
	return Value{Type: ir.Bool(), Num: 0}
}
func StringV(s string) Value { return Value{Type: ir.StringT(), Str: s} }

// Zero returns the zero value of t (spec section 4.4: "Uninitialised
// local reads return the zero of the variable's declared type").
func Zero(t ir.Type) Value {
	switch t.Kind {
	case ir.KindString:
		return Value{Type: t}
	case ir.KindArray:
		n := t.Len
		if n < 0 {
			n = 0
		}
		elems := make([]Value, n)
		for i := range elems {
			if t.Of != nil {
				elems[i] = Zero(*t.Of)
			}
		}
		return Value{Type: t, Arr: elems}
	case ir.KindStruct:
		return Value{Type: t, Struct: map[string]Value{}}
	default:
		return Value{Type: t}
	}
}

// AsBool interprets v as a boolean (spec section 4.1: comparisons and
// logic ops produce bool stored as 0/1 in Num).
func (v Value) AsBool() bool { return v.Num != 0 }

// AsInt32 truncates toward zero and wraps out-of-range values, the
// documented int<-float semantics (spec section 4.1).
func (v Value) AsInt32() int32 {
	if v.Type.Kind == ir.KindFloat {
		return resource.WrapFloatToInt(v.Num)
	}
	return int32(v.Num)
}

func (v Value) AsFloat32() float32 { return v.Num }

// Equal implements cmp_eq/cmp_ne's value comparison across the scalar,
// vector, and string kinds Unify permits comparing.
func (v Value) Equal(o Value) bool {
	switch {
	case v.Type.Kind == ir.KindString || o.Type.Kind == ir.KindString:
		return v.Str == o.Str
	case v.Type.IsVector() || o.Type.IsVector():
		arity, _ := widerArity(v.Type, o.Type)
		for i := 0; i < arity; i++ {
			if v.Vec[i] != o.Vec[i] {
				return false
			}
		}
		return true
	default:
		return v.Num == o.Num
	}
}

func widerArity(a, b ir.Type) (int, bool) {
	if n, ok := a.VectorArity(); ok {
		return n, true
	}
	if n, ok := b.VectorArity(); ok {
		return n, true
	}
	return 0, false
}

// Widen returns v cast per c, the coercion ir.Unify requested for one
// operand of a binary op (spec section 4.1, Design Note 9).
func Widen(v Value, c ir.Cast, target ir.Type) Value {
	switch c {
	case ir.CastNone:
		return v
	case ir.CastIntToFloat:
		if target.IsVector() {
			out := v
			out.Type = target
			if !v.Type.IsVector() {
				n, _ := target.VectorArity()
				for i := 0; i < n; i++ {
					out.Vec[i] = v.Num
				}
			}
			return out
		}
		return Value{Type: ir.Float(), Num: v.Num}
	case ir.CastFloatToInt:
		return Value{Type: ir.Int(), Num: float32(resource.WrapFloatToInt(v.Num))}
	case ir.CastBroadcast:
		out := Value{Type: target}
		if n, ok := target.VectorArity(); ok {
			for i := 0; i < n; i++ {
				out.Vec[i] = v.Num
			}
		}
		return out
	case ir.CastBoolToFloat:
		return Value{Type: ir.Float(), Num: v.Num}
	default:
		return v
	}
}

// ToResourceValue converts an interpreter Value into the flat-ABI tree
// shape resource.Flatten consumes, used when marshalling arguments for
// a cmd_dispatch (spec section 4.6). structs resolves struct-typed
// values to their declared member order, matching resource.Unflatten's
// own resolution against Doc.Structs — required for struct fields to
// serialise deterministically rather than in Go map order.
func ToResourceValue(v Value, structs []ir.Struct) resource.Value {
	switch v.Type.Kind {
	case ir.KindFloat, ir.KindInt, ir.KindBool:
		return resource.Value{Type: v.Type, Scalar: v.Num}
	case ir.KindFloat2, ir.KindInt2, ir.KindFloat3, ir.KindInt3, ir.KindFloat4, ir.KindInt4:
		return resource.Value{Type: v.Type, Vector: v.Vec}
	case ir.KindFloat3x3, ir.KindFloat4x4:
		return resource.Value{Type: v.Type, Matrix: v.Mat}
	case ir.KindArray:
		out := resource.Value{Type: v.Type}
		for _, e := range v.Arr {
			out.Array = append(out.Array, ToResourceValue(e, structs))
		}
		return out
	case ir.KindStruct:
		out := resource.Value{Type: v.Type}
		for _, member := range structMembers(structs, v.Type.Struct) {
			out.Fields = append(out.Fields, ToResourceValue(v.Struct[member.Name], structs))
		}
		return out
	default:
		return resource.Value{Type: v.Type}
	}
}

func structMembers(structs []ir.Struct, id string) []ir.StructMember {
	for _, s := range structs {
		if s.ID == id {
			return s.Members
		}
	}
	return nil
}

// Sqrt, Sin, Cos, Floor, Fract, Pow, Atan2 wrap math32 so every
// interpreter arithmetic path uses binary32 precision identical to the
// generated device code (spec section 4.1: "fast-math must be
// disabled... NaN/±∞ semantics are preserved").
var (
	mathSqrt  = math32.Sqrt
	mathSin   = math32.Sin
	mathCos   = math32.Cos
	mathFloor = math32.Floor
	mathPow   = math32.Pow
	mathAtan2 = math32.Atan2
	mathAbs   = math32.Abs
	mathMod   = math32.Mod
)

func mathFract(f float32) float32 { return f - mathFloor(f) }
