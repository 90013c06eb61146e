package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeStringRoundTrip(t *testing.T) {
	cases := []struct {
		t    Type
		want string
	}{
		{Float(), "float"},
		{Int2(), "int2"},
		{Float4x4(), "float4x4"},
		{ArrayOf(Float(), 4), "array<float, 4>"},
		{StructOf("Particle"), "struct Particle"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.t.String())
	}
}

func TestParseTypeRoundTripsConstructors(t *testing.T) {
	cases := []struct {
		name string
		want Type
	}{
		{"float", Float()},
		{"int", Int()},
		{"bool", Bool()},
		{"float3", Float3()},
		{"int4", Int4()},
		{"float3x3", Float3x3()},
	}
	for _, c := range cases {
		got, err := ParseType(c.name)
		require.NoError(t, err)
		assert.True(t, got.Equal(c.want), "ParseType(%q) = %v, want %v", c.name, got, c.want)
	}
}

func TestParseTypeArray(t *testing.T) {
	got, err := ParseType("array<float, 3>")
	require.NoError(t, err)
	require.Equal(t, KindArray, got.Kind)
	require.NotNil(t, got.Of)
	assert.Equal(t, KindFloat, got.Of.Kind)
	assert.Equal(t, 3, got.Len)
}

func TestParseTypeDynamicArray(t *testing.T) {
	got, err := ParseType("array<int>")
	require.NoError(t, err)
	assert.Equal(t, -1, got.Len)
}

func TestParseTypeStruct(t *testing.T) {
	got, err := ParseType("struct Particle")
	require.NoError(t, err)
	assert.Equal(t, KindStruct, got.Kind)
	assert.Equal(t, "Particle", got.Struct)
}

func TestParseTypeUnknown(t *testing.T) {
	_, err := ParseType("nonsense")
	require.Error(t, err)
}

func TestTypeEqual(t *testing.T) {
	assert.True(t, Float3().Equal(Float3()))
	assert.False(t, Float3().Equal(Float4()))
	assert.True(t, ArrayOf(Int(), 4).Equal(ArrayOf(Int(), 4)))
	assert.False(t, ArrayOf(Int(), 4).Equal(ArrayOf(Int(), 5)))
	assert.False(t, ArrayOf(Int(), 4).Equal(ArrayOf(Float(), 4)))
	assert.True(t, StructOf("A").Equal(StructOf("A")))
	assert.False(t, StructOf("A").Equal(StructOf("B")))
}

func TestVectorArityAndMatrixDim(t *testing.T) {
	n, ok := Float3().VectorArity()
	require.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = Float().VectorArity()
	assert.False(t, ok)

	dim, ok := Float4x4().MatrixDim()
	require.True(t, ok)
	assert.Equal(t, 4, dim)
}

func TestFlatSize(t *testing.T) {
	assert.Equal(t, 1, Float().FlatSize())
	assert.Equal(t, 3, Float3().FlatSize())
	assert.Equal(t, 16, Float4x4().FlatSize())
	assert.Equal(t, 12, ArrayOf(Float3(), 4).FlatSize())
}

func TestIsVectorClassification(t *testing.T) {
	assert.True(t, Float2().IsVector())
	assert.True(t, Float2().IsFloatVector())
	assert.False(t, Float2().IsIntVector())
	assert.True(t, Int3().IsIntVector())
	assert.False(t, Int3().IsFloatVector())
	assert.False(t, Float().IsVector())
	assert.True(t, Float().IsNumericScalar())
	assert.False(t, Bool().IsNumericScalar())
}
