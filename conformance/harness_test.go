package conformance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/shadeflow/ir"
)

func scenarioByName(t *testing.T, name string) *ir.Document {
	t.Helper()
	for _, s := range Scenarios {
		if s.Name == name {
			return s.Build()
		}
	}
	t.Fatalf("no such scenario %q", name)
	return nil
}

func TestResizeThenDispatch(t *testing.T) {
	doc := scenarioByName(t, "a-resize-then-dispatch")
	snap, err := Run(doc, ir.NewRegistry(), Interpreter, InvokeArgs)
	require.NoError(t, err)
	require.Len(t, snap.Buffers["b_output"], 10)
	for i, v := range snap.Buffers["b_output"] {
		require.Equal(t, float32(i), v)
	}
}

func TestAtomicAccumulation(t *testing.T) {
	doc := scenarioByName(t, "b-atomic-accumulation")
	snap, err := Run(doc, ir.NewRegistry(), Interpreter, InvokeArgs)
	require.NoError(t, err)
	require.Equal(t, float32(64), snap.Buffers["b_res"][0])
}

func TestStructExtract(t *testing.T) {
	doc := scenarioByName(t, "c-struct-extract")
	snap, err := Run(doc, ir.NewRegistry(), Interpreter, InvokeArgs)
	require.NoError(t, err)
	require.Equal(t, float32(1), snap.Buffers["b_result"][0])
}

func TestStaticOOBDetected(t *testing.T) {
	doc := scenarioByName(t, "d-static-oob")
	errs := ir.Validate(doc, ir.NewRegistry())
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if e.Kind == ir.ErrStaticOOB {
			found = true
		}
	}
	require.True(t, found, "expected a Static OOB error, got %+v", errs)
}

func TestDivisionSemantics(t *testing.T) {
	doc := scenarioByName(t, "e-division-semantics")
	registry := ir.NewRegistry()

	doc.EntryPoint = "div_int_pos"
	snap, err := Run(doc, registry, Interpreter, InvokeArgs)
	require.NoError(t, err)
	require.Equal(t, float32(3), snap.Return.Num)

	doc.EntryPoint = "div_float"
	snap, err = Run(doc, registry, Interpreter, InvokeArgs)
	require.NoError(t, err)
	require.Equal(t, float32(3.5), snap.Return.Num)

	doc.EntryPoint = "div_int_neg"
	snap, err = Run(doc, registry, Interpreter, InvokeArgs)
	require.NoError(t, err)
	require.Equal(t, float32(-3), snap.Return.Num)
}

func TestMatrixVectorTranslation(t *testing.T) {
	doc := scenarioByName(t, "f-matrix-vector")
	snap, err := Run(doc, ir.NewRegistry(), Interpreter, InvokeArgs)
	require.NoError(t, err)
	require.Equal(t, [4]float32{10, 20, 0, 1}, snap.Return.Vec)
}

// TestCrossBackendParity runs scenario (a) against two independent
// interpreter backends and confirms Compare finds no mismatch — the
// harness's own diffing logic, exercised the way a real second backend
// (e.g. webgpu.NativeRuntime, wired in behind the webgpu_native build
// tag) would be compared against the interpreter.
func TestCrossBackendParity(t *testing.T) {
	doc := scenarioByName(t, "a-resize-then-dispatch")
	registry := ir.NewRegistry()
	snaps, err := RunAll(doc, registry, []Backend{Interpreter, {Name: "interpreter-replay"}}, InvokeArgs)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	diff := Compare(snaps[0], snaps[1], doc.Resources, DefaultTolerance)
	require.True(t, diff.Empty(), "unexpected mismatch: %v", diff.Mismatches)
}

func TestCompareDetectsMismatch(t *testing.T) {
	resources := []ir.Resource{{ID: "b", Kind: ir.ResourceBuffer, ElementType: ir.Float()}}
	a := Snapshot{Buffers: map[string][]float32{"b": {1, 2, 3}}}
	b := Snapshot{Buffers: map[string][]float32{"b": {1, 2, 3.5}}}
	diff := Compare(a, b, resources, DefaultTolerance)
	require.False(t, diff.Empty())
}
