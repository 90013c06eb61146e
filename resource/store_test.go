package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shadeflow/ir"
)

func TestNewStoreAllocatesBufferTextureCounter(t *testing.T) {
	store := NewStore([]ir.Resource{
		{ID: "buf", Kind: ir.ResourceBuffer, ElementType: ir.Float2(), Size: ir.SizeSpec{Width: 4}},
		{ID: "tex", Kind: ir.ResourceTexture2D, ElementType: ir.Float4(), Size: ir.SizeSpec{Width: 2, Height: 3}},
		{ID: "cnt", Kind: ir.ResourceAtomicCounter, ElementType: ir.Int(), Size: ir.SizeSpec{Width: 1}},
	})

	buf, ok := store.Get("buf")
	require.True(t, ok)
	assert.Len(t, buf.Data, 8) // 4 elements * 2 components

	tex, ok := store.Get("tex")
	require.True(t, ok)
	assert.Len(t, tex.Data, 2*3*4)

	cnt, ok := store.Get("cnt")
	require.True(t, ok)
	assert.Len(t, cnt.Cells, 1)

	assert.Equal(t, []string{"buf", "tex", "cnt"}, store.IDs())
}

func TestStoreGetUnknownResource(t *testing.T) {
	store := NewStore(nil)
	_, ok := store.Get("nope")
	assert.False(t, ok)
}

func TestClearFrameResourcesOnlyAffectsFlaggedResources(t *testing.T) {
	store := NewStore([]ir.Resource{
		{ID: "a", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 2}, Persistence: ir.Persistence{ClearEveryFrame: true}},
		{ID: "b", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 2}},
	})
	resources := []ir.Resource{
		{ID: "a", Persistence: ir.Persistence{ClearEveryFrame: true}},
		{ID: "b"},
	}
	a, _ := store.Get("a")
	b, _ := store.Get("b")
	a.Data[0] = 5
	b.Data[0] = 5

	store.ClearFrameResources(resources)

	assert.Equal(t, float32(0), a.Data[0])
	assert.Equal(t, float32(5), b.Data[0])
}

func TestResizeGrowPreservesPrefixWhenNotClearing(t *testing.T) {
	store := NewStore([]ir.Resource{
		{ID: "buf", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 2}},
	})
	st, _ := store.Get("buf")
	st.Data[0], st.Data[1] = 1, 2

	require.NoError(t, store.Resize("buf", 4, 0))
	st, _ = store.Get("buf")
	require.Len(t, st.Data, 4)
	assert.Equal(t, []float32{1, 2, 0, 0}, st.Data)
}

func TestResizeClearOnResizeZeroesEverything(t *testing.T) {
	store := NewStore([]ir.Resource{
		{ID: "buf", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 2}, Persistence: ir.Persistence{ClearOnResize: true}},
	})
	st, _ := store.Get("buf")
	st.Data[0] = 9

	require.NoError(t, store.Resize("buf", 2, 0))
	st, _ = store.Get("buf")
	assert.Equal(t, []float32{0, 0}, st.Data)
}

func TestResizeUnknownResource(t *testing.T) {
	store := NewStore(nil)
	err := store.Resize("nope", 4, 0)
	require.Error(t, err)
	var nfe *NotFoundError
	assert.ErrorAs(t, err, &nfe)
}

func TestResizeTexturePreservesOverlap(t *testing.T) {
	store := NewStore([]ir.Resource{
		{ID: "tex", Kind: ir.ResourceTexture2D, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 2, Height: 2}},
	})
	st, _ := store.Get("tex")
	// row 0: [1,2], row 1: [3,4]
	copy(st.Data, []float32{1, 2, 3, 4})

	require.NoError(t, store.Resize("tex", 3, 3))
	st, _ = store.Get("tex")
	// row 0 preserved at cols 0-1, row 1 preserved at cols 0-1
	assert.Equal(t, float32(1), st.Data[0])
	assert.Equal(t, float32(2), st.Data[1])
	assert.Equal(t, float32(3), st.Data[3])
	assert.Equal(t, float32(4), st.Data[4])
}

func TestAtomicRMWReturnsPreviousValue(t *testing.T) {
	store := NewStore([]ir.Resource{
		{ID: "cnt", Kind: ir.ResourceAtomicCounter, ElementType: ir.Int(), Size: ir.SizeSpec{Width: 1}},
	})
	old, err := store.AtomicRMW("cnt", 0, func(v int32) int32 { return v + 1 })
	require.NoError(t, err)
	assert.Equal(t, int32(0), old)

	old, err = store.AtomicRMW("cnt", 0, func(v int32) int32 { return v + 1 })
	require.NoError(t, err)
	assert.Equal(t, int32(1), old)

	st, _ := store.Get("cnt")
	assert.Equal(t, int32(2), st.Cells[0])
}

func TestAtomicRMWOutOfBounds(t *testing.T) {
	store := NewStore([]ir.Resource{
		{ID: "cnt", Kind: ir.ResourceAtomicCounter, ElementType: ir.Int(), Size: ir.SizeSpec{Width: 1}},
	})
	_, err := store.AtomicRMW("cnt", 5, func(v int32) int32 { return v })
	require.Error(t, err)
	var oobe *OOBError
	assert.ErrorAs(t, err, &oobe)
}

func TestCopyBufferRejectsMismatchedElementType(t *testing.T) {
	store := NewStore([]ir.Resource{
		{ID: "a", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 2}},
		{ID: "b", Kind: ir.ResourceBuffer, ElementType: ir.Float2(), Size: ir.SizeSpec{Width: 2}},
	})
	err := store.CopyBuffer("a", "b")
	require.Error(t, err)
}

func TestCopyBufferCopiesData(t *testing.T) {
	store := NewStore([]ir.Resource{
		{ID: "a", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 2}},
		{ID: "b", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 2}},
	})
	a, _ := store.Get("a")
	a.Data[0], a.Data[1] = 3, 4

	require.NoError(t, store.CopyBuffer("a", "b"))
	b, _ := store.Get("b")
	assert.Equal(t, []float32{3, 4}, b.Data)
}
