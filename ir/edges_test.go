package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDataRefSibling(t *testing.T) {
	fn := &Function{Nodes: []Node{{ID: "a"}, {ID: "b"}}}
	fn.Index()

	ref, ok := ResolveDataRef(fn, "a")
	require.True(t, ok)
	assert.Equal(t, "a", ref.NodeID)
	assert.Equal(t, "", ref.Port)
}

func TestResolveDataRefWithSwizzle(t *testing.T) {
	fn := &Function{Nodes: []Node{{ID: "v"}}}
	fn.Index()

	ref, ok := ResolveDataRef(fn, "v.xy")
	require.True(t, ok)
	assert.Equal(t, "v", ref.NodeID)
	assert.Equal(t, "xy", ref.Port)
}

func TestResolveDataRefLiteralIsNotARef(t *testing.T) {
	fn := &Function{Nodes: []Node{{ID: "a"}}}
	fn.Index()

	_, ok := ResolveDataRef(fn, "not_a_node")
	assert.False(t, ok)
}

func TestBuildEdgesDataAndExec(t *testing.T) {
	fn := &Function{
		Nodes: []Node{
			{ID: "a", Op: "literal"},
			{ID: "b", Op: "literal"},
			{ID: "sum", Op: "math_add", Args: map[string]interface{}{"a": "a", "b": "b"}, ExecOut: "done"},
			{ID: "done", Op: "func_return", Args: map[string]interface{}{"value": "sum"}},
		},
	}
	fn.Index()
	edges := BuildEdges(fn)

	var dataEdges, execEdges int
	for _, e := range edges {
		if e.Kind == EdgeData {
			dataEdges++
		} else {
			execEdges++
		}
	}
	assert.Equal(t, 3, dataEdges) // sum<-a, sum<-b, done<-sum
	assert.Equal(t, 1, execEdges) // sum -(exec_out)-> done
}

func TestFirstExecNodeEntryHasNoPredecessor(t *testing.T) {
	fn := &Function{
		Nodes: []Node{
			{ID: "resize", Op: "cmd_resize_resource", ExecOut: "dispatch"},
			{ID: "dispatch", Op: "cmd_dispatch"},
		},
	}
	fn.Index()
	first, ok := FirstExecNode(fn)
	require.True(t, ok)
	assert.Equal(t, "resize", first)
}

func TestFirstExecNodeEmptyFunction(t *testing.T) {
	fn := &Function{}
	_, ok := FirstExecNode(fn)
	assert.False(t, ok)
}
