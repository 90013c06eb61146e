package resource

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/shadeflow/ir"
)

// Value is a host-side shader argument value, tagged by the type it was
// declared with. Flatten/Unflatten convert between this tree shape and
// the canonical flat-float ABI (spec section 4.6).
type Value struct {
	Type    ir.Type
	Scalar  float32
	Vector  [4]float32
	Matrix  [16]float32
	Array   []Value
	Fields  []Value // struct members, declaration order
}

// FloatValue, IntValue, and BoolValue build scalar Values, widening
// int/bool to the float32 encoding the ABI table specifies.
func FloatValue(f float32) Value { return Value{Type: ir.Float(), Scalar: f} }
func IntValue(i int32) Value     { return Value{Type: ir.Int(), Scalar: float32(i)} }
func BoolValue(b bool) Value {
	if b {
		return Value{Type: ir.Bool(), Scalar: 1}
	}
	return Value{Type: ir.Bool(), Scalar: 0}
}

// Builtins is the set of CPU-auto-injected builtin values a dispatch
// may carry, keyed by name (spec section 4.6).
type Builtins struct {
	Time        float32
	DeltaTime   float32
	BPM         float32
	BeatNumber  float32
	BeatDelta   float32
	OutputSize  [2]float32
}

// Layout describes, for one shader, which builtins it references and
// whether it references output_size — the marshaller must iterate
// exactly this set, in exactly this order, for both the host driver
// and the device generator to agree on ABI offsets (spec section 4.6).
type Layout struct {
	Inputs             []ir.Input
	ReferencedBuiltins []string // subset of {"time","delta_time","bpm","beat_number","beat_delta"}, in that canonical order
	ReferencesOutputSize bool
}

// CanonicalBuiltinOrder is the fixed iteration order both Flatten and
// the device generators must use when packing referenced builtins into
// the flat ABI, so host and device agree on offsets regardless of the
// order builtin_get nodes were discovered in (spec section 4.6).
var CanonicalBuiltinOrder = []string{"time", "delta_time", "bpm", "beat_number", "beat_delta"}

// Flatten serialises a dispatch's arguments into the canonical
// contiguous float32 sequence: user-declared inputs first (declaration
// order), then referenced CPU builtins (canonical order), then
// output_size if referenced (spec section 4.6).
func Flatten(layout Layout, args map[string]Value, builtins Builtins) []float32 {
	var out []float32
	for _, in := range layout.Inputs {
		v, ok := args[in.Name]
		if !ok {
			v = Zero(in.Type)
		}
		out = appendValue(out, v)
	}

	referenced := make(map[string]bool, len(layout.ReferencedBuiltins))
	for _, b := range layout.ReferencedBuiltins {
		referenced[b] = true
	}
	for _, name := range CanonicalBuiltinOrder {
		if !referenced[name] {
			continue
		}
		switch name {
		case "time":
			out = append(out, builtins.Time)
		case "delta_time":
			out = append(out, builtins.DeltaTime)
		case "bpm":
			out = append(out, builtins.BPM)
		case "beat_number":
			out = append(out, builtins.BeatNumber)
		case "beat_delta":
			out = append(out, builtins.BeatDelta)
		}
	}
	if layout.ReferencesOutputSize {
		out = append(out, builtins.OutputSize[0], builtins.OutputSize[1])
	}
	return out
}

func appendValue(out []float32, v Value) []float32 {
	switch v.Type.Kind {
	case ir.KindFloat, ir.KindInt, ir.KindBool:
		return append(out, v.Scalar)
	case ir.KindFloat2, ir.KindInt2:
		return append(out, v.Vector[0], v.Vector[1])
	case ir.KindFloat3, ir.KindInt3:
		return append(out, v.Vector[0], v.Vector[1], v.Vector[2])
	case ir.KindFloat4, ir.KindInt4:
		return append(out, v.Vector[0], v.Vector[1], v.Vector[2], v.Vector[3])
	case ir.KindFloat3x3:
		return append(out, v.Matrix[:9]...)
	case ir.KindFloat4x4:
		return append(out, v.Matrix[:16]...)
	case ir.KindStruct:
		for _, f := range v.Fields {
			out = appendValue(out, f)
		}
		return out
	case ir.KindArray:
		if v.Type.Of != nil && v.Type.Len < 0 {
			// dynamic array: length prefix then elements
			out = append(out, float32(len(v.Array)))
		}
		for _, e := range v.Array {
			out = appendValue(out, e)
		}
		return out
	default:
		return out
	}
}

// Unflatten is the inverse of Flatten's per-value encoding, reading a
// single typed Value (and the number of float32 elements consumed)
// from the front of data. Round-tripping unflatten(flatten(v)) == v is
// spec section 8 Property 3.
func Unflatten(t ir.Type, data []float32, structs []ir.Struct) (Value, int) {
	switch t.Kind {
	case ir.KindFloat, ir.KindInt, ir.KindBool:
		return Value{Type: t, Scalar: data[0]}, 1
	case ir.KindFloat2, ir.KindInt2:
		return Value{Type: t, Vector: [4]float32{data[0], data[1]}}, 2
	case ir.KindFloat3, ir.KindInt3:
		return Value{Type: t, Vector: [4]float32{data[0], data[1], data[2]}}, 3
	case ir.KindFloat4, ir.KindInt4:
		return Value{Type: t, Vector: [4]float32{data[0], data[1], data[2], data[3]}}, 4
	case ir.KindFloat3x3:
		var m [16]float32
		copy(m[:9], data[:9])
		return Value{Type: t, Matrix: m}, 9
	case ir.KindFloat4x4:
		var m [16]float32
		copy(m[:16], data[:16])
		return Value{Type: t, Matrix: m}, 16
	case ir.KindArray:
		n := t.Len
		dynamic := n < 0
		consumed := 0
		if dynamic {
			n = int(data[0])
			consumed = 1
		}
		fields := make([]Value, 0, n)
		off := consumed
		for i := 0; i < n; i++ {
			elem, used := Unflatten(*t.Of, data[off:], structs)
			fields = append(fields, elem)
			off += used
		}
		return Value{Type: t, Array: fields}, off
	case ir.KindStruct:
		members := structMembers(structs, t.Struct)
		fields := make([]Value, 0, len(members))
		off := 0
		for _, m := range members {
			field, used := Unflatten(m.Type, data[off:], structs)
			fields = append(fields, field)
			off += used
		}
		return Value{Type: t, Fields: fields}, off
	default:
		return Value{}, 0
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

// Zero returns the zero value of t, used for uninitialised locals and
// omitted inputs (spec section 3: "uninitialised local reads return
// the zero of the variable's declared type").
func Zero(t ir.Type) Value {
	switch t.Kind {
	case ir.KindArray:
		n := t.Len
		if n < 0 {
			n = 0
		}
		elems := make([]Value, n)
		for i := range elems {
			elems[i] = Zero(*t.Of)
		}
		return Value{Type: t, Array: elems}
	default:
		return Value{Type: t}
	}
}

// WrapFloatToInt performs the documented wrapping float->int cast: the
// truncated value is reduced modulo 2^32 and reinterpreted as a signed
// 32-bit integer, rather than saturating at int32's range (spec
// section 4.1). Uses math32 so the truncation happens in the same
// binary32 precision the GPU backends use.
func WrapFloatToInt(f float32) int32 {
	truncated := math32.Trunc(f)
	if math32.IsNaN(truncated) || math32.IsInf(truncated, 0) {
		return 0
	}
	wrapped := uint32(int64(truncated) & 0xFFFFFFFF)
	return int32(wrapped)
}
