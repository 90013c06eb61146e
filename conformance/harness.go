package conformance

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/shadeflow/eval"
	"github.com/gogpu/shadeflow/ir"
	"github.com/gogpu/shadeflow/resource"
)

// Backend names one eval.RuntimeContext-backed way of executing a
// document. RuntimeFactory may be nil, in which case Evaluator installs
// its own InterpreterRuntime (the default execution path every document
// must support); a non-nil factory lets a caller substitute another
// RuntimeContext implementation (e.g. a real-hardware dispatch path
// built with the webgpu_native tag) without this package depending on
// it directly.
type Backend struct {
	Name           string
	RuntimeFactory func(*eval.Evaluator) eval.RuntimeContext
}

// Interpreter is the always-available backend: the bundled tree-walking
// evaluator running against its own InterpreterRuntime.
var Interpreter = Backend{Name: "interpreter"}

// Run executes doc's entry point once against backend, returning a
// Snapshot of every resource's post-invocation state plus the entry
// point's return value.
func Run(doc *ir.Document, registry *ir.Registry, backend Backend, args map[string]eval.Value) (Snapshot, error) {
	ctx := eval.NewContext(doc, registry)
	e := eval.NewEvaluator(ctx)
	if backend.RuntimeFactory != nil {
		ctx.Runtime = backend.RuntimeFactory(e)
	}
	ret, err := e.Invoke(args)
	if err != nil {
		return Snapshot{}, fmt.Errorf("conformance: backend %q: %w", backend.Name, err)
	}
	return snapshot(ctx.Store, doc.Resources, ret), nil
}

// Snapshot is the comparable output of one backend run: every declared
// resource's live contents plus the entry point's return value (spec
// section 8, "same inputs/backend -> byte-identical resource states and
// return values").
type Snapshot struct {
	Buffers map[string][]float32
	Cells   map[string][]int32
	Return  eval.Value
}

func snapshot(store *resource.Store, resources []ir.Resource, ret eval.Value) Snapshot {
	s := Snapshot{Buffers: map[string][]float32{}, Cells: map[string][]int32{}, Return: ret}
	for _, r := range resources {
		st, ok := store.Get(r.ID)
		if !ok {
			continue
		}
		if st.Data != nil {
			cp := make([]float32, len(st.Data))
			copy(cp, st.Data)
			s.Buffers[r.ID] = cp
		}
		if st.Cells != nil {
			cp := make([]int32, len(st.Cells))
			copy(cp, st.Cells)
			s.Cells[r.ID] = cp
		}
	}
	return s
}

// Tolerance selects the absolute-error bound spec.md section 8 Property
// 2 assigns to a comparison: pixel-valued resources compare loosest,
// scalar returns tighter, and any resource whose element type is a pure
// integer kind compares exactly.
type Tolerance struct {
	Pixel  float32
	Scalar float32
}

// DefaultTolerance is the tolerance spec.md section 8 names: 0.1
// absolute error for rendered pixels, 0.0001 for scalar outputs.
var DefaultTolerance = Tolerance{Pixel: 0.1, Scalar: 0.0001}

// RunAll runs doc against every backend concurrently and returns each
// backend's Snapshot in backends' order. A failing backend's error is
// returned; all other backends still run to completion.
func RunAll(doc *ir.Document, registry *ir.Registry, backends []Backend, args map[string]eval.Value) ([]Snapshot, error) {
	results := make([]Snapshot, len(backends))
	var g errgroup.Group
	for i, b := range backends {
		i, b := i, b
		g.Go(func() error {
			// Each backend gets its own Context/Store: spec section 5's
			// "the resource store is exclusively owned by the active
			// context" forbids two backends sharing one Store.
			snap, err := Run(doc, registry, b, args)
			if err != nil {
				return err
			}
			results[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Diff reports every resource id and/or the return value whose values
// across a and b exceed tol, keyed by a human-readable description of
// the mismatch. An empty Diff means a and b agree within tolerance.
type Diff struct {
	Mismatches []string
}

func (d Diff) Empty() bool { return len(d.Mismatches) == 0 }

// Compare diffs two Snapshots of the same document against tol,
// classifying each resource's element type from resources to pick the
// pixel, scalar, or exact bound (spec section 8 Property 2).
func Compare(a, b Snapshot, resources []ir.Resource, tol Tolerance) Diff {
	var d Diff
	byID := make(map[string]ir.Resource, len(resources))
	for _, r := range resources {
		byID[r.ID] = r
	}
	for id, av := range a.Buffers {
		bv := b.Buffers[id]
		bound := boundFor(byID[id], tol)
		if mismatch := compareFloats(av, bv, bound); mismatch != "" {
			d.Mismatches = append(d.Mismatches, fmt.Sprintf("buffer %q: %s", id, mismatch))
		}
	}
	for id, av := range a.Cells {
		bv := b.Cells[id]
		if mismatch := compareInts(av, bv); mismatch != "" {
			d.Mismatches = append(d.Mismatches, fmt.Sprintf("counter %q: %s", id, mismatch))
		}
	}
	if !withinTolerance(a.Return.Num, b.Return.Num, tol.Scalar) {
		d.Mismatches = append(d.Mismatches, fmt.Sprintf("return value: %v vs %v", a.Return.Num, b.Return.Num))
	}
	if mismatch := compareFloats(a.Return.Vec[:], b.Return.Vec[:], tol.Scalar); mismatch != "" {
		d.Mismatches = append(d.Mismatches, fmt.Sprintf("return value vector: %s", mismatch))
	}
	if mismatch := compareFloats(a.Return.Mat[:], b.Return.Mat[:], tol.Scalar); mismatch != "" {
		d.Mismatches = append(d.Mismatches, fmt.Sprintf("return value matrix: %s", mismatch))
	}
	return d
}

func boundFor(r ir.Resource, tol Tolerance) float32 {
	if r.Kind == ir.ResourceTexture2D {
		return tol.Pixel
	}
	switch r.ElementType.Kind {
	case ir.KindInt, ir.KindInt2, ir.KindInt3, ir.KindInt4:
		return 0
	default:
		return tol.Scalar
	}
}

func compareFloats(a, b []float32, bound float32) string {
	if len(a) != len(b) {
		return fmt.Sprintf("length %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !withinTolerance(a[i], b[i], bound) {
			return fmt.Sprintf("index %d: %v vs %v (bound %v)", i, a[i], b[i], bound)
		}
	}
	return ""
}

func compareInts(a, b []int32) string {
	if len(a) != len(b) {
		return fmt.Sprintf("length %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			return fmt.Sprintf("index %d: %d vs %d", i, a[i], b[i])
		}
	}
	return ""
}

func withinTolerance(a, b, bound float32) bool {
	if math.IsNaN(float64(a)) && math.IsNaN(float64(b)) {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= bound
}
