package eval

import (
	"github.com/gogpu/shadeflow/ir"
	"github.com/gogpu/shadeflow/resource"
)

// execNode runs one execution-edge node: control flow, a side-effecting
// op, or a pass-through pure node reached directly in the exec chain
// (e.g. comment). It returns the id of the next node to run, whether
// the frame is unwinding via func_return, and that return value (spec
// section 4.4).
func (e *Evaluator) execNode(fn *ir.Function, frame *Frame, node *ir.Node) (next string, returning bool, retVal Value, err error) {
	switch node.Op {
	case "flow_branch":
		return e.execBranch(fn, frame, node)
	case "flow_loop":
		return e.execLoop(fn, frame, node)
	case "call_func":
		v, cerr := e.execCall(fn, frame, node)
		if cerr != nil {
			return "", false, Value{}, cerr
		}
		frame.memo[node.ID] = v
		return pickNext(node), false, Value{}, nil
	case "func_return":
		v, rerr := e.returnValue(fn, frame, node)
		if rerr != nil {
			return "", false, Value{}, rerr
		}
		return "", true, v, nil

	case "var_set":
		if serr := e.execVarSet(fn, frame, node); serr != nil {
			return "", false, Value{}, serr
		}
		return pickNext(node), false, Value{}, nil
	case "array_set":
		if serr := e.execArraySet(fn, frame, node); serr != nil {
			return "", false, Value{}, serr
		}
		return pickNext(node), false, Value{}, nil

	case "buffer_store":
		if serr := e.execBufferStore(fn, frame, node); serr != nil {
			return "", false, Value{}, serr
		}
		return pickNext(node), false, Value{}, nil
	case "texture_store":
		if serr := e.execTextureStore(fn, frame, node); serr != nil {
			return "", false, Value{}, serr
		}
		return pickNext(node), false, Value{}, nil
	case "atomic_store":
		if serr := e.execAtomicRMW(fn, frame, node, "exchange"); serr != nil {
			return "", false, Value{}, serr
		}
		return pickNext(node), false, Value{}, nil
	case "atomic_add", "atomic_sub", "atomic_min", "atomic_max", "atomic_exchange":
		if serr := e.execAtomicRMW(fn, frame, node, node.Op[len("atomic_"):]); serr != nil {
			return "", false, Value{}, serr
		}
		return pickNext(node), false, Value{}, nil

	case "cmd_dispatch":
		if serr := e.execDispatch(fn, frame, node); serr != nil {
			return "", false, Value{}, serr
		}
		return pickNext(node), false, Value{}, nil
	case "cmd_draw":
		if serr := e.execDraw(fn, frame, node); serr != nil {
			return "", false, Value{}, serr
		}
		return pickNext(node), false, Value{}, nil
	case "cmd_resize_resource":
		if serr := e.execResize(fn, frame, node); serr != nil {
			return "", false, Value{}, serr
		}
		return pickNext(node), false, Value{}, nil
	case "cmd_copy_buffer":
		src := e.resourceID(node, "src")
		dst := e.resourceID(node, "dst")
		if serr := e.ctx.Runtime.CopyBuffer(src, dst); serr != nil {
			return "", false, Value{}, serr
		}
		return pickNext(node), false, Value{}, nil
	case "cmd_sync_to_cpu", "cmd_wait_cpu_sync":
		// The interpreter's resource store is always host-visible
		// immediately; these are no-ops beyond execution-order sequencing.
		return pickNext(node), false, Value{}, nil

	default:
		// A pure node reached directly on an execution chain (e.g.
		// "comment") is evaluated and discarded; its next hop is "next".
		if _, verr := e.evalPureNode(fn, frame, node); verr != nil {
			return "", false, Value{}, verr
		}
		return pickNext(node), false, Value{}, nil
	}
}

// pickNext chooses the next execution-chain hop for a side-effecting
// or pass-through node: exec_out if present, else next.
func pickNext(node *ir.Node) string {
	if node.ExecOut != "" {
		return node.ExecOut
	}
	return node.Next
}

func (e *Evaluator) execBranch(fn *ir.Function, frame *Frame, node *ir.Node) (string, bool, Value, error) {
	cond, err := e.resolveNumericArg(fn, frame, node, "cond")
	if err != nil {
		return "", false, Value{}, err
	}
	if cond.AsBool() {
		return node.ExecTrue, false, Value{}, nil
	}
	return node.ExecFalse, false, Value{}, nil
}

// execLoop iterates exec_body over [0,count) or [start,end), exposing
// the current index to loop_index nodes sharing tag, then follows
// exec_completed (spec section 4.4).
func (e *Evaluator) execLoop(fn *ir.Function, frame *Frame, node *ir.Node) (string, bool, Value, error) {
	tag, _ := node.Args["tag"].(string)
	start, end := 0, 0
	if _, ok := node.Args["count"]; ok {
		count, err := e.resolveNumericArg(fn, frame, node, "count")
		if err != nil {
			return "", false, Value{}, err
		}
		end = int(count.Num)
	} else {
		s, err := e.resolveNumericArg(fn, frame, node, "start")
		if err != nil {
			return "", false, Value{}, err
		}
		en, err := e.resolveNumericArg(fn, frame, node, "end")
		if err != nil {
			return "", false, Value{}, err
		}
		start, end = int(s.Num), int(en.Num)
	}
	for i := start; i < end; i++ {
		frame.loopIndex[tag] = i
		if node.ExecBody == "" {
			continue
		}
		// Pure-node memoisation must not leak between iterations, since
		// loop_index-dependent nodes resolve to a different value each
		// pass; clear the frame's whole memo before each pass.
		clearLoopMemo(frame)
		v, returning, retVal, err := e.execBodyChain(fn, frame, node.ExecBody)
		_ = v
		if err != nil {
			return "", false, Value{}, err
		}
		if returning {
			return "", true, retVal, nil
		}
	}
	delete(frame.loopIndex, tag)
	return node.ExecCompleted, false, Value{}, nil
}

// clearLoopMemo drops memoised pure-data results so a loop body's
// per-iteration reads of loop_index recompute correctly on each pass.
func clearLoopMemo(frame *Frame) {
	frame.memo = make(map[string]Value, len(frame.memo))
}

// execBodyChain runs execFrom starting at start but surfaces a
// func_return as returning=true instead of unwinding the whole frame
// immediately, so the caller (execLoop) can still react to it.
func (e *Evaluator) execBodyChain(fn *ir.Function, frame *Frame, start string) (Value, bool, Value, error) {
	nodeID := start
	for nodeID != "" {
		node, ok := fn.Node(nodeID)
		if !ok {
			return Value{}, false, Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "exec chain references unknown node %q", nodeID)
		}
		next, returning, retVal, err := e.execNode(fn, frame, node)
		if err != nil {
			return Value{}, false, Value{}, err
		}
		if returning {
			return Value{}, true, retVal, nil
		}
		nodeID = next
	}
	return Value{}, false, Value{}, nil
}

func (e *Evaluator) execCall(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	target, _ := node.Args["func"].(string)
	callee := e.findFunction(target)
	if callee == nil {
		return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "Referenced resource/function/variable '%s' does not exist", target)
	}
	args := map[string]Value{}
	if raw, ok := node.Args["args"].([]interface{}); ok {
		for i, a := range raw {
			if i >= len(callee.Inputs) {
				break
			}
			v, err := e.resolveGeneric(fn, frame, a)
			if err != nil {
				return Value{}, err
			}
			args[callee.Inputs[i].Name] = v
		}
	}
	return e.callFunction(callee, frame, args)
}

func (e *Evaluator) returnValue(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	if _, ok := node.Args["value"]; !ok {
		return Value{}, nil
	}
	return e.resolveNumericArg(fn, frame, node, "value")
}

func (e *Evaluator) execVarSet(fn *ir.Function, frame *Frame, node *ir.Node) error {
	name, _ := node.Args["name"].(string)
	v, err := e.resolveNumericArg(fn, frame, node, "value")
	if err != nil {
		return err
	}
	frame.setVar(name, v)
	return nil
}

func (e *Evaluator) execArraySet(fn *ir.Function, frame *Frame, node *ir.Node) error {
	name, _ := node.Args["array"].(string)
	arr, ok := frame.getVar(name)
	if !ok {
		return ir.NewRuntimeError(ir.RuntimeUndefinedVar, "Variable '%s' is not defined", name)
	}
	idx, err := e.resolveNumericArg(fn, frame, node, "index")
	if err != nil {
		return err
	}
	val, err := e.resolveNumericArg(fn, frame, node, "value")
	if err != nil {
		return err
	}
	i := int(idx.Num)
	if i < 0 || i >= len(arr.Arr) {
		return ir.NewRuntimeError(ir.RuntimeBufferOOB, "array_set index %d", i)
	}
	arr.Arr[i] = val
	frame.setVar(name, arr)
	return nil
}

func (e *Evaluator) execBufferStore(fn *ir.Function, frame *Frame, node *ir.Node) error {
	idx, err := e.resolveNumericArg(fn, frame, node, "index")
	if err != nil {
		return err
	}
	val, err := e.resolveNumericArg(fn, frame, node, "value")
	if err != nil {
		return err
	}
	return e.ctx.Runtime.BufferStore(e.resourceID(node, "buffer"), int(idx.Num), val)
}

func (e *Evaluator) execTextureStore(fn *ir.Function, frame *Frame, node *ir.Node) error {
	coord, err := e.resolveIdentifierValue(fn, frame, node, "coord")
	if err != nil {
		return err
	}
	val, err := e.resolveNumericArg(fn, frame, node, "value")
	if err != nil {
		return err
	}
	return e.ctx.Runtime.TextureStore(e.resourceID(node, "texture"), [2]int{int(coord.Vec[0]), int(coord.Vec[1])}, val)
}

func (e *Evaluator) execAtomicRMW(fn *ir.Function, frame *Frame, node *ir.Node, op string) error {
	idx, err := e.resolveNumericArg(fn, frame, node, "index")
	if err != nil {
		return err
	}
	val, err := e.resolveNumericArg(fn, frame, node, "value")
	if err != nil {
		return err
	}
	_, err = e.ctx.Runtime.AtomicRMW(e.resourceID(node, "counter"), int(idx.Num), op, val.AsInt32())
	return err
}

func (e *Evaluator) execDispatch(fn *ir.Function, frame *Frame, node *ir.Node) error {
	shaderName, _ := node.Args["shader"].(string)
	shader := e.findFunction(shaderName)
	if shader == nil {
		return ir.NewRuntimeError(ir.RuntimeGeneric, "Referenced resource/function/variable '%s' does not exist", shaderName)
	}
	threads := node.Threads
	flatArgs, err := e.buildDispatchArgs(fn, frame, shader, node)
	if err != nil {
		return err
	}
	return e.ctx.Runtime.DispatchShader(shaderName, threads[0], threads[1], threads[2], flatArgs)
}

// buildDispatchArgs resolves a dispatched shader's bound inputs (if the
// document supplies them via the node's own argument fields matching
// the shader's input names) and marshals them through the canonical
// flat-ABI layout (spec section 4.6), injecting the builtins the
// shader references.
func (e *Evaluator) buildDispatchArgs(fn *ir.Function, frame *Frame, shader *ir.Function, node *ir.Node) ([]float32, error) {
	args := map[string]resource.Value{}
	for _, in := range shader.Inputs {
		if raw, ok := node.Args[in.Name]; ok {
			v, err := e.resolveGeneric(fn, frame, raw)
			if err != nil {
				return nil, err
			}
			args[in.Name] = ToResourceValue(v, e.ctx.Doc.Structs)
		}
	}
	layout := shaderLayout(shader)
	return resource.Flatten(layout, args, e.ctx.Builtins), nil
}

// shaderLayout derives a shader function's flat-ABI layout by scanning
// its nodes for builtin_get references, so dispatch argument
// marshalling and the device generators agree on which CPU builtins
// (and output_size) this shader's argument buffer carries (spec
// section 4.6).
func shaderLayout(shader *ir.Function) resource.Layout {
	layout := resource.Layout{Inputs: shader.Inputs}
	seen := map[string]bool{}
	for _, n := range shader.Nodes {
		if n.Op != "builtin_get" {
			continue
		}
		name, _ := n.Args["name"].(string)
		if name == string(ir.BuiltinOutputSize) {
			layout.ReferencesOutputSize = true
			continue
		}
		if !seen[name] {
			seen[name] = true
			layout.ReferencedBuiltins = append(layout.ReferencedBuiltins, name)
		}
	}
	return layout
}

func (e *Evaluator) execDraw(fn *ir.Function, frame *Frame, node *ir.Node) error {
	target := e.resourceID(node, "target")
	vertex, _ := node.Args["vertex"].(string)
	fragment, _ := node.Args["fragment"].(string)
	count, err := e.resolveNumericArg(fn, frame, node, "count")
	if err != nil {
		return err
	}
	return e.ctx.Runtime.Draw(target, vertex, fragment, int(count.Num), nil, nil)
}

func (e *Evaluator) execResize(fn *ir.Function, frame *Frame, node *ir.Node) error {
	resID := e.resourceID(node, "resource")
	raw, ok := node.Args["size"]
	if !ok {
		return ir.NewRuntimeError(ir.RuntimeGeneric, "cmd_resize_resource: missing 'size'")
	}
	w, h := 0, 0
	switch size := raw.(type) {
	case []interface{}:
		if len(size) > 0 {
			w = int(toFloat32(size[0]))
		}
		if len(size) > 1 {
			h = int(toFloat32(size[1]))
		}
	default:
		v, err := e.resolveGeneric(fn, frame, raw)
		if err != nil {
			return err
		}
		w = int(v.Num)
	}
	return e.ctx.Runtime.Resize(resID, w, h)
}
