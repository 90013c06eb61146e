package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifyMatchingTypesNeedNoCast(t *testing.T) {
	common, castA, castB, ok := Unify(Float3(), Float3())
	require.True(t, ok)
	assert.True(t, common.Equal(Float3()))
	assert.Equal(t, CastNone, castA)
	assert.Equal(t, CastNone, castB)
}

func TestUnifyIntFloatWidensToFloat(t *testing.T) {
	common, castA, castB, ok := Unify(Int(), Float())
	require.True(t, ok)
	assert.True(t, common.Equal(Float()))
	assert.Equal(t, CastIntToFloat, castA)
	assert.Equal(t, CastNone, castB)

	common, castA, castB, ok = Unify(Float(), Int())
	require.True(t, ok)
	assert.True(t, common.Equal(Float()))
	assert.Equal(t, CastNone, castA)
	assert.Equal(t, CastIntToFloat, castB)
}

func TestUnifyScalarBroadcastsOntoVector(t *testing.T) {
	common, _, castB, ok := Unify(Float3(), Float())
	require.True(t, ok)
	assert.True(t, common.Equal(Float3()))
	assert.Equal(t, CastBroadcast, castB)
}

func TestUnifyRejectsCrossElementTypeVectors(t *testing.T) {
	_, _, _, ok := Unify(Float3(), Int3())
	assert.False(t, ok)
}

func TestUnifyRejectsFloatScalarOntoIntVector(t *testing.T) {
	_, _, _, ok := Unify(Int3(), Float())
	assert.False(t, ok)
}

func TestBroadcastIdentity(t *testing.T) {
	shape, ok := Broadcast(Float3(), Float3())
	require.True(t, ok)
	assert.True(t, shape.Equal(Float3()))
}

func TestBroadcastScalarToVector(t *testing.T) {
	shape, ok := Broadcast(Float(), Float4())
	require.True(t, ok)
	assert.True(t, shape.Equal(Float4()))
}

func TestBroadcastRejectsVectorToVector(t *testing.T) {
	_, ok := Broadcast(Float3(), Float4())
	assert.False(t, ok)
}
