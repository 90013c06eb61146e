package eval

import (
	"github.com/gogpu/shadeflow/ir"
	"github.com/gogpu/shadeflow/resource"
)

// Evaluator runs a document's functions against one Context, resolving
// data nodes lazily and walking execution edges (spec section 4.4).
type Evaluator struct {
	ctx *Context
}

// NewEvaluator builds an Evaluator over ctx, installing an
// InterpreterRuntime as the RuntimeContext if the caller did not
// already set one (so a bare interpreter run dispatches shaders
// through itself, spec section 6).
func NewEvaluator(ctx *Context) *Evaluator {
	e := &Evaluator{ctx: ctx}
	if ctx.Runtime == nil {
		ctx.Runtime = NewInterpreterRuntime(e)
	}
	return e
}

// Invoke runs the document's entry point as a host (cpu) function
// (spec section 5: "a host entry invocation yields exactly once at the
// outermost level"). clearEveryFrame resources are zeroed first.
func (e *Evaluator) Invoke(args map[string]Value) (Value, error) {
	e.ctx.Store.ClearFrameResources(e.ctx.Doc.Resources)
	fn := e.findFunction(e.ctx.Doc.EntryPoint)
	if fn == nil {
		return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "entry point %q does not exist", e.ctx.Doc.EntryPoint)
	}
	return e.callFunction(fn, nil, args)
}

// EvalShaderInvocation runs one device-stage invocation: a single
// thread id executing a shader/vertex/fragment function's body with
// its flat-ABI arguments unpacked into frame vars (spec section 4.6).
func (e *Evaluator) EvalShaderInvocation(fn *ir.Function, flatArgs []float32, globalID [3]int) (Value, error) {
	frame := newFrame(fn, nil)
	e.bindFlatArgs(fn, frame, flatArgs)
	frame.setVar("global_invocation_id", Value{Type: ir.Int3(), Vec: [4]float32{float32(globalID[0]), float32(globalID[1]), float32(globalID[2])}})
	for _, lv := range fn.LocalVars {
		frame.setVar(lv.Name, e.localInitialValue(lv))
	}
	if len(fn.WorkgroupSize) == 3 {
		// Threads beyond the declared thread count early-return; callers
		// (InterpreterRuntime.DispatchShader) only invoke gids < threads,
		// so there is nothing further to gate here.
	}
	start, ok := ir.FirstExecNode(fn)
	if !ok {
		return Value{}, nil
	}
	return e.execFrom(fn, frame, start)
}

func (e *Evaluator) bindFlatArgs(fn *ir.Function, frame *Frame, flat []float32) {
	off := 0
	for _, in := range fn.Inputs {
		v, n := resource.Unflatten(in.Type, flat[off:], e.ctx.Doc.Structs)
		frame.setVar(in.Name, fromResourceValue(v))
		off += n
	}
}

func (e *Evaluator) localInitialValue(lv ir.LocalVar) Value {
	if lv.InitialValue == nil {
		return Zero(lv.Type)
	}
	return literalValue(lv.Type, lv.InitialValue)
}

func (e *Evaluator) findFunction(id string) *ir.Function {
	for i := range e.ctx.Doc.Functions {
		if e.ctx.Doc.Functions[i].ID == id {
			return &e.ctx.Doc.Functions[i]
		}
	}
	return nil
}

func (e *Evaluator) findStruct(id string) *ir.Struct {
	for i := range e.ctx.Doc.Structs {
		if e.ctx.Doc.Structs[i].ID == id {
			return &e.ctx.Doc.Structs[i]
		}
	}
	return nil
}

// callFunction pushes a frame for fn, binds args to its declared
// inputs, runs it to completion or a func_return, and pops (spec
// section 4.4). Exceeding maxRecursionDepth raises Recursion detected
// (Testable Property 7).
func (e *Evaluator) callFunction(fn *ir.Function, parent *Frame, args map[string]Value) (Value, error) {
	depth := 0
	if parent != nil {
		depth = parent.depth + 1
	}
	if depth >= maxRecursionDepth {
		return Value{}, ir.NewRuntimeError(ir.RuntimeRecursion, "")
	}
	frame := newFrame(fn, parent)
	for _, in := range fn.Inputs {
		v, ok := args[in.Name]
		if !ok {
			v = Zero(in.Type)
		}
		frame.setVar(in.Name, v)
	}
	for _, lv := range fn.LocalVars {
		frame.setVar(lv.Name, e.localInitialValue(lv))
	}
	start, ok := ir.FirstExecNode(fn)
	if !ok {
		return Value{}, nil
	}
	return e.execFrom(fn, frame, start)
}

// execFrom walks execution edges starting at nodeID until a
// func_return unwinds the frame or the chain ends (spec section 4.4).
func (e *Evaluator) execFrom(fn *ir.Function, frame *Frame, nodeID string) (Value, error) {
	for nodeID != "" {
		node, ok := fn.Node(nodeID)
		if !ok {
			return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "exec chain references unknown node %q", nodeID)
		}
		next, returning, retVal, err := e.execNode(fn, frame, node)
		if err != nil {
			return Value{}, err
		}
		if returning {
			return retVal, nil
		}
		nodeID = next
	}
	return Value{}, nil
}

// evalData resolves node nodeID's value within frame, lazily computing
// and memoising it on first reference (spec section 4.4: "resolved
// lazily... memoised per function invocation"). port selects a
// sub-component (swizzle letters or a struct field name) of the
// resolved value, or "" for the whole value.
func (e *Evaluator) evalData(fn *ir.Function, frame *Frame, nodeID, port string) (Value, error) {
	v, ok := frame.memo[nodeID]
	if !ok {
		node, exists := fn.Node(nodeID)
		if !exists {
			return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "data reference to unknown node %q", nodeID)
		}
		resolved, err := e.evalPureNode(fn, frame, node)
		if err != nil {
			return Value{}, err
		}
		frame.memo[nodeID] = resolved
		v = resolved
	}
	if port == "" {
		return v, nil
	}
	return applyPort(v, port), nil
}

// applyPort slices a swizzle ("xy", "rgba") or struct field out of v.
func applyPort(v Value, port string) Value {
	if v.Type.Kind == ir.KindStruct {
		if f, ok := v.Struct[port]; ok {
			return f
		}
		return Value{}
	}
	return swizzle(v, port)
}
