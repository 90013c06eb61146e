package resource

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shadeflow/ir"
)

func TestFlattenUnflattenScalarRoundTrip(t *testing.T) {
	v := FloatValue(3.5)
	flat := appendValue(nil, v)
	require.Equal(t, []float32{3.5}, flat)

	got, n := Unflatten(ir.Float(), flat, nil)
	assert.Equal(t, 1, n)
	assert.Equal(t, float32(3.5), got.Scalar)
}

func TestFlattenUnflattenVectorRoundTrip(t *testing.T) {
	v := Value{Type: ir.Float3(), Vector: [4]float32{1, 2, 3, 0}}
	flat := appendValue(nil, v)
	require.Equal(t, []float32{1, 2, 3}, flat)

	got, n := Unflatten(ir.Float3(), flat, nil)
	assert.Equal(t, 3, n)
	assert.Equal(t, [4]float32{1, 2, 3, 0}, got.Vector)
}

func TestFlattenUnflattenMatrixRoundTrip(t *testing.T) {
	var m [16]float32
	for i := range m[:9] {
		m[i] = float32(i + 1)
	}
	v := Value{Type: ir.Float3x3(), Matrix: m}
	flat := appendValue(nil, v)
	require.Len(t, flat, 9)

	got, n := Unflatten(ir.Float3x3(), flat, nil)
	assert.Equal(t, 9, n)
	assert.Equal(t, m, got.Matrix)
}

func TestFlattenUnflattenFixedArrayRoundTrip(t *testing.T) {
	arrType := ir.ArrayOf(ir.Float(), 3)
	v := Value{Type: arrType, Array: []Value{FloatValue(1), FloatValue(2), FloatValue(3)}}
	flat := appendValue(nil, v)
	require.Equal(t, []float32{1, 2, 3}, flat)

	got, n := Unflatten(arrType, flat, nil)
	assert.Equal(t, 3, n)
	require.Len(t, got.Array, 3)
	assert.Equal(t, float32(2), got.Array[1].Scalar)
}

func TestFlattenUnflattenDynamicArrayRoundTrip(t *testing.T) {
	arrType := ir.ArrayOf(ir.Float(), -1)
	v := Value{Type: arrType, Array: []Value{FloatValue(10), FloatValue(20)}}
	flat := appendValue(nil, v)
	require.Equal(t, []float32{2, 10, 20}, flat) // length prefix then elements

	got, n := Unflatten(arrType, flat, nil)
	assert.Equal(t, 3, n)
	require.Len(t, got.Array, 2)
	assert.Equal(t, float32(20), got.Array[1].Scalar)
}

func TestFlattenUnflattenStructRoundTrip(t *testing.T) {
	structs := []ir.Struct{
		{ID: "Particle", Members: []ir.StructMember{
			{Name: "pos", Type: ir.Float2()},
			{Name: "mass", Type: ir.Float()},
		}},
	}
	structType := ir.StructOf("Particle")
	v := Value{Type: structType, Fields: []Value{
		{Type: ir.Float2(), Vector: [4]float32{1, 2, 0, 0}},
		FloatValue(5),
	}}
	flat := appendValue(nil, v)
	require.Equal(t, []float32{1, 2, 5}, flat)

	got, n := Unflatten(structType, flat, structs)
	assert.Equal(t, 3, n)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, [4]float32{1, 2, 0, 0}, got.Fields[0].Vector)
	assert.Equal(t, float32(5), got.Fields[1].Scalar)
}

func TestFlattenLayoutOrdersInputsThenBuiltinsThenOutputSize(t *testing.T) {
	layout := Layout{
		Inputs:               []ir.Input{{Name: "scale", Type: ir.Float()}},
		ReferencedBuiltins:   []string{"bpm", "time"}, // deliberately out of canonical order
		ReferencesOutputSize: true,
	}
	args := map[string]Value{"scale": FloatValue(2)}
	builtins := Builtins{Time: 1.5, BPM: 120, OutputSize: [2]float32{800, 600}}

	flat := Flatten(layout, args, builtins)
	// canonical order is time before bpm, regardless of ReferencedBuiltins order
	assert.Equal(t, []float32{2, 1.5, 120, 800, 600}, flat)
}

func TestFlattenMissingInputDefaultsToZero(t *testing.T) {
	layout := Layout{Inputs: []ir.Input{{Name: "scale", Type: ir.Float()}}}
	flat := Flatten(layout, nil, Builtins{})
	assert.Equal(t, []float32{0}, flat)
}

func TestZeroArrayProducesZeroedElements(t *testing.T) {
	z := Zero(ir.ArrayOf(ir.Float2(), 2))
	require.Len(t, z.Array, 2)
	assert.Equal(t, [4]float32{0, 0, 0, 0}, z.Array[0].Vector)
}

func TestWrapFloatToIntTruncatesTowardZero(t *testing.T) {
	assert.Equal(t, int32(3), WrapFloatToInt(3.9))
	assert.Equal(t, int32(-3), WrapFloatToInt(-3.9))
}

func TestWrapFloatToIntNaNAndInfiniteAreZero(t *testing.T) {
	assert.Equal(t, int32(0), WrapFloatToInt(float32(math.NaN())))
	assert.Equal(t, int32(0), WrapFloatToInt(float32(math.Inf(1))))
}

func TestWrapFloatToIntWrapsOutOfRangeValues(t *testing.T) {
	// 2^32 wraps to 0, not a saturated max-int32.
	got := WrapFloatToInt(4294967296.0)
	assert.Equal(t, int32(0), got)
}
