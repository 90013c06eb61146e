package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocYAML = `
version: 1
entryPoint: main
resources:
  - id: buf
    kind: 0
    elementType: float
    size: { width: 4 }
functions:
  - id: main
    kind: 0
    nodes:
      - id: idx
        op: literal
        value: 0
        type: int
      - id: val
        op: literal
        value: 1.5
        type: float
      - id: store
        op: buffer_store
        buffer: buf
        index: idx
        value: val
`

func TestLoadDocumentDecodesNodesAndArgs(t *testing.T) {
	doc, err := LoadDocument([]byte(sampleDocYAML))
	require.NoError(t, err)
	require.Equal(t, "main", doc.EntryPoint)
	require.Len(t, doc.Functions, 1)

	fn := &doc.Functions[0]
	store, ok := fn.Node("store")
	require.True(t, ok, "Index() must run automatically on load")
	assert.Equal(t, "buffer_store", store.Op)
	assert.Equal(t, "buf", store.Args["buffer"])
	assert.Equal(t, "idx", store.Args["index"])
}

func TestLoadDocumentRejectsGarbage(t *testing.T) {
	_, err := LoadDocument([]byte("not: [valid"))
	assert.Error(t, err)
}

func TestLoadDocumentDecodesInputType(t *testing.T) {
	const typeDoc = `
version: 1
entryPoint: main
functions:
  - id: main
    kind: 0
    nodes: []
inputs:
  - name: x
    type: float3
`
	doc, err := LoadDocument([]byte(typeDoc))
	require.NoError(t, err)
	require.Len(t, doc.Inputs, 1)
	assert.True(t, doc.Inputs[0].Type.Equal(Float3()))
}
