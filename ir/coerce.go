package ir

// Cast enumerates the implicit or explicit conversions unify/broadcast
// can request of a value before a binary op consumes it. Backends and
// the evaluator both switch on these instead of re-deriving coercion
// logic at each call site (Design Note 9 in spec.md).
type Cast uint8

const (
	// CastNone means the operand is already the common type.
	CastNone Cast = iota
	// CastIntToFloat widens an int scalar/vector to float.
	CastIntToFloat
	// CastFloatToInt narrows a float scalar/vector to int (wrapping,
	// truncating toward zero — see resource.WrapFloatToInt).
	CastFloatToInt
	// CastBroadcast splats a scalar to every component of a vector.
	CastBroadcast
	// CastBoolToFloat maps false/true to 0.0/1.0.
	CastBoolToFloat
)

// Unify computes the common type two operands of a numeric binary op
// must be cast to, along with the cast each operand needs. The
// validator's type-inference walk and the evaluator's binary-op dispatch
// both call it; the code generators do not call it and emit operands as
// written.
//
// Rules (spec section 4.1):
//   - int ↔ float unifies to float.
//   - scalar ↔ vector unifies to the vector's shape (scalar broadcasts).
//   - cross-element-type vector coercion (int vector vs float vector) is
//     not permitted: ok is false.
//   - matching shapes need no cast.
func Unify(a, b Type) (common Type, castA, castB Cast, ok bool) {
	if a.Equal(b) {
		return a, CastNone, CastNone, true
	}

	// scalar <-> scalar: int/float unify to float.
	if a.Kind == KindInt && b.Kind == KindFloat {
		return Float(), CastIntToFloat, CastNone, true
	}
	if a.Kind == KindFloat && b.Kind == KindInt {
		return Float(), CastNone, CastIntToFloat, true
	}

	// scalar <-> vector broadcast.
	if a.IsNumericScalar() && b.IsVector() {
		bc, cs, ok := broadcastScalarToVector(a, b)
		if !ok {
			return Type{}, 0, 0, false
		}
		return bc, combineCast(cs, CastBroadcast), CastNone, true
	}
	if b.IsNumericScalar() && a.IsVector() {
		bc, cs, ok := broadcastScalarToVector(b, a)
		if !ok {
			return Type{}, 0, 0, false
		}
		return bc, CastNone, combineCast(cs, CastBroadcast), true
	}

	// matrix <-> matrix or vector <-> vector of mismatched element type:
	// not permitted.
	return Type{}, 0, 0, false
}

// broadcastScalarToVector determines the element-widening cast (if any)
// needed before splatting scalar onto vector's shape.
func broadcastScalarToVector(scalar, vector Type) (Type, Cast, bool) {
	if vector.IsFloatVector() {
		if scalar.Kind == KindInt {
			return vector, CastIntToFloat, true
		}
		return vector, CastNone, true
	}
	if vector.IsIntVector() {
		if scalar.Kind == KindFloat {
			// A float scalar broadcast onto an int vector is not a
			// standard numeric-context coercion; reject it.
			return Type{}, 0, false
		}
		return vector, CastNone, true
	}
	return Type{}, 0, false
}

// combineCast composes a (possibly CastNone) widening cast with the
// broadcast itself; the evaluator and generators apply widening first.
func combineCast(widen, broadcast Cast) Cast {
	if widen == CastNone {
		return broadcast
	}
	return widen // widening implies a subsequent broadcast is handled by Unify's caller shape
}

// Broadcast reports the target vector shape for splatting value of type
// from onto a value of type to, and whether that broadcast is permitted.
// Unify applies the same rule through broadcastScalarToVector; matrix
// targets are not accepted.
func Broadcast(from, to Type) (Type, bool) {
	if from.Equal(to) {
		return to, true
	}
	if from.IsNumericScalar() && to.IsVector() {
		shape, _, ok := broadcastScalarToVector(from, to)
		return shape, ok
	}
	return Type{}, false
}
