package eval

import (
	"github.com/gogpu/shadeflow/ir"
	"github.com/gogpu/shadeflow/resource"
)

// PipelineState mirrors the draw-call options a cmd_draw node may carry
// (spec section 6).
type PipelineState struct {
	Topology    string
	CullMode    string
	FrontFace   string
	LoadOp      string // "load" | "clear"
	DepthStencil map[string]interface{}
	Blend        map[string]interface{}
}

// LogEntry records one `log` runtime-context call (spec section 6).
type LogEntry struct {
	Channel string
	Payload interface{}
}

// RuntimeContext is the host-driver runtime surface consumed both by
// generated host code and by this package's interpreter-backed host
// backend — an identical surface either way (spec section 6).
type RuntimeContext interface {
	DispatchShader(name string, threadsX, threadsY, threadsZ int, flatArgs []float32) error
	Draw(target string, vertexFn, fragmentFn string, count int, flatArgs []float32, pipeline *PipelineState) error
	Resize(resID string, width, height int) error
	CopyBuffer(srcID, dstID string) error
	BufferLoad(id string, index int) (Value, error)
	BufferStore(id string, index int, v Value) error
	TextureSample(id string, coord [2]float32) (Value, error)
	TextureLoad(id string, coord [2]int) (Value, error)
	TextureStore(id string, coord [2]int, v Value) error
	AtomicLoad(id string, index int) (int32, error)
	AtomicStore(id string, index int, v int32) error
	AtomicRMW(id string, index int, op string, operand int32) (int32, error)
	Log(channel string, payload interface{})
}

// InterpreterRuntime implements RuntimeContext directly over a
// resource.Store, running dispatched shader functions through the same
// Evaluator that runs host functions (spec section 4.5, "dispatch
// dimensions denote thread counts, not workgroup counts").
type InterpreterRuntime struct {
	eval  *Evaluator
	store *resource.Store
	doc   *ir.Document
}

func NewInterpreterRuntime(e *Evaluator) *InterpreterRuntime {
	return &InterpreterRuntime{eval: e, store: e.ctx.Store, doc: e.ctx.Doc}
}

func (r *InterpreterRuntime) DispatchShader(name string, tx, ty, tz int, flatArgs []float32) error {
	fn := r.findFunction(name)
	if fn == nil {
		return ir.NewRuntimeError(ir.RuntimeGeneric, "dispatch: shader function %q does not exist", name)
	}
	total := tx * ty * tz
	if total < 0 {
		total = 0
	}
	for gid := 0; gid < total; gid++ {
		x := gid % max1(tx)
		y := (gid / max1(tx)) % max1(ty)
		z := gid / max1(tx*ty)
		if _, err := r.eval.EvalShaderInvocation(fn, flatArgs, [3]int{x, y, z}); err != nil {
			return err
		}
	}
	return nil
}

func max1(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

func (r *InterpreterRuntime) Draw(target, vertexFn, fragmentFn string, count int, flatArgs []float32, pipeline *PipelineState) error {
	vfn := r.findFunction(vertexFn)
	ffn := r.findFunction(fragmentFn)
	if vfn == nil || ffn == nil {
		return ir.NewRuntimeError(ir.RuntimeGeneric, "draw: vertex/fragment function does not exist")
	}
	for i := 0; i < count; i++ {
		if _, err := r.eval.EvalShaderInvocation(vfn, flatArgs, [3]int{i, 0, 0}); err != nil {
			return err
		}
		if _, err := r.eval.EvalShaderInvocation(ffn, flatArgs, [3]int{i, 0, 0}); err != nil {
			return err
		}
	}
	return nil
}

func (r *InterpreterRuntime) Resize(resID string, width, height int) error {
	return r.store.Resize(resID, width, height)
}

func (r *InterpreterRuntime) CopyBuffer(srcID, dstID string) error {
	return r.store.CopyBuffer(srcID, dstID)
}

func (r *InterpreterRuntime) BufferLoad(id string, index int) (Value, error) {
	st, ok := r.store.Get(id)
	if !ok {
		return Value{}, &resource.NotFoundError{ID: id}
	}
	width := st.ElementType.FlatSize()
	if width == 0 {
		width = 1
	}
	off := index * width
	if index < 0 || off+width > len(st.Data) {
		return Value{}, ir.NewRuntimeError(ir.RuntimeBufferOOB, "buffer %q index %d", id, index)
	}
	v, _ := resource.Unflatten(st.ElementType, st.Data[off:], r.doc.Structs)
	return fromResourceValue(v), nil
}

func (r *InterpreterRuntime) BufferStore(id string, index int, v Value) error {
	st, ok := r.store.Get(id)
	if !ok {
		return &resource.NotFoundError{ID: id}
	}
	width := st.ElementType.FlatSize()
	if width == 0 {
		width = 1
	}
	off := index * width
	if index < 0 || off+width > len(st.Data) {
		return ir.NewRuntimeError(ir.RuntimeBufferOOB, "buffer %q index %d", id, index)
	}
	flat := flattenValue(v, r.doc.Structs)
	copy(st.Data[off:off+width], flat)
	return nil
}

func (r *InterpreterRuntime) TextureSample(id string, coord [2]float32) (Value, error) {
	st, ok := r.store.Get(id)
	if !ok {
		return Value{}, &resource.NotFoundError{ID: id}
	}
	x := int(coord[0] * float32(st.Width))
	y := int(coord[1] * float32(st.Height))
	return r.TextureLoad(id, [2]int{x, y})
}

func (r *InterpreterRuntime) TextureLoad(id string, coord [2]int) (Value, error) {
	st, ok := r.store.Get(id)
	if !ok {
		return Value{}, &resource.NotFoundError{ID: id}
	}
	x, y := clampCoord(coord[0], st.Width), clampCoord(coord[1], st.Height)
	width := st.ElementType.FlatSize()
	if width == 0 {
		width = 1
	}
	off := (y*st.Width + x) * width
	if off+width > len(st.Data) {
		return Zero(st.ElementType), nil
	}
	v, _ := resource.Unflatten(st.ElementType, st.Data[off:], r.doc.Structs)
	return fromResourceValue(v), nil
}

func (r *InterpreterRuntime) TextureStore(id string, coord [2]int, v Value) error {
	st, ok := r.store.Get(id)
	if !ok {
		return &resource.NotFoundError{ID: id}
	}
	if coord[0] < 0 || coord[0] >= st.Width || coord[1] < 0 || coord[1] >= st.Height {
		return ir.NewRuntimeError(ir.RuntimeBufferOOB, "texture %q coord out of bounds", id)
	}
	width := st.ElementType.FlatSize()
	if width == 0 {
		width = 1
	}
	off := (coord[1]*st.Width + coord[0]) * width
	flat := flattenValue(v, r.doc.Structs)
	copy(st.Data[off:off+width], flat)
	return nil
}

func clampCoord(v, size int) int {
	if v < 0 {
		return 0
	}
	if size > 0 && v >= size {
		return size - 1
	}
	return v
}

func (r *InterpreterRuntime) AtomicLoad(id string, index int) (int32, error) {
	st, ok := r.store.Get(id)
	if !ok {
		return 0, &resource.NotFoundError{ID: id}
	}
	if index < 0 || index >= len(st.Cells) {
		return 0, &resource.OOBError{ID: id, Index: index, Size: len(st.Cells)}
	}
	return st.Cells[index], nil
}

func (r *InterpreterRuntime) AtomicStore(id string, index int, v int32) error {
	_, err := r.store.AtomicRMW(id, index, func(int32) int32 { return v })
	return err
}

func (r *InterpreterRuntime) AtomicRMW(id string, index int, op string, operand int32) (int32, error) {
	return r.store.AtomicRMW(id, index, func(old int32) int32 {
		switch op {
		case "add":
			return old + operand
		case "sub":
			return old - operand
		case "min":
			if operand < old {
				return operand
			}
			return old
		case "max":
			if operand > old {
				return operand
			}
			return old
		case "exchange":
			return operand
		default:
			return old
		}
	})
}

func (r *InterpreterRuntime) Log(channel string, payload interface{}) {
	r.eval.ctx.Log = append(r.eval.ctx.Log, LogEntry{Channel: channel, Payload: payload})
}

func (r *InterpreterRuntime) findFunction(name string) *ir.Function {
	for i := range r.doc.Functions {
		if r.doc.Functions[i].ID == name {
			return &r.doc.Functions[i]
		}
	}
	return nil
}

func fromResourceValue(v resource.Value) Value {
	out := Value{Type: v.Type}
	switch v.Type.Kind {
	case ir.KindFloat, ir.KindInt, ir.KindBool:
		out.Num = v.Scalar
	case ir.KindFloat2, ir.KindInt2, ir.KindFloat3, ir.KindInt3, ir.KindFloat4, ir.KindInt4:
		out.Vec = v.Vector
	case ir.KindFloat3x3, ir.KindFloat4x4:
		out.Mat = v.Matrix
	case ir.KindArray:
		for _, e := range v.Array {
			out.Arr = append(out.Arr, fromResourceValue(e))
		}
	}
	return out
}

func flattenValue(v Value, structs []ir.Struct) []float32 {
	rv := ToResourceValue(v, structs)
	layout := resource.Layout{Inputs: []ir.Input{{Name: "_", Type: v.Type}}}
	full := resource.Flatten(layout, map[string]resource.Value{"_": rv}, resource.Builtins{})
	return full
}
