// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package webgpu

import (
	"fmt"

	"github.com/gogpu/shadeflow/ir"
)

// writeExecChain walks execution edges from id, emitting one WGSL
// statement per control-flow/side-effecting node, the device-codegen
// counterpart to eval.execFrom's interpreted walk.
func (w *Writer) writeExecChain(id string) error {
	for id != "" {
		n, ok := w.fn.Node(id)
		if !ok {
			return fmt.Errorf("webgpu: node %q does not exist", id)
		}
		next, err := w.writeStatement(n)
		if err != nil {
			return err
		}
		id = next
	}
	return nil
}

//nolint:gocyclo
func (w *Writer) writeStatement(n *ir.Node) (string, error) {
	switch n.Op {
	case "flow_branch":
		cond, err := w.resolveArg(n, "cond")
		if err != nil {
			return "", err
		}
		w.writeLine("if (%s) {", cond)
		w.pushIndent()
		if n.ExecTrue != "" {
			if err := w.writeExecChain(n.ExecTrue); err != nil {
				return "", err
			}
		}
		w.popIndent()
		w.writeLine("} else {")
		w.pushIndent()
		if n.ExecFalse != "" {
			if err := w.writeExecChain(n.ExecFalse); err != nil {
				return "", err
			}
		}
		w.popIndent()
		w.writeLine("}")
		return n.ExecOut, nil

	case "flow_loop":
		return w.writeLoop(n)

	case "var_set":
		name, _ := n.Args["name"].(string)
		val, err := w.resolveArg(n, "value")
		if err != nil {
			return "", err
		}
		local, ok := w.locals[name]
		if !ok {
			local = w.namer.call(name)
			w.locals[name] = local
		}
		w.writeLine("%s = %s;", local, val)
		return n.ExecOut, nil

	case "array_set":
		arr, err1 := w.resolveArg(n, "array")
		idx, err2 := w.resolveArg(n, "index")
		val, err3 := w.resolveArg(n, "value")
		if err := firstErr(err1, err2, err3); err != nil {
			return "", err
		}
		w.writeLine("%s[%s] = %s;", arr, idx, val)
		return n.ExecOut, nil

	case "buffer_store":
		id, _ := n.Args["buffer"].(string)
		idx, err1 := w.resolveArg(n, "index")
		val, err2 := w.resolveArg(n, "value")
		if err := firstErr(err1, err2); err != nil {
			return "", err
		}
		w.writeLine("%s[%s] = %s;", sanitizeIdent(id), idx, val)
		return n.ExecOut, nil

	case "texture_store":
		id, _ := n.Args["texture"].(string)
		x, e1 := w.resolveArg(n, "x")
		y, e2 := w.resolveArg(n, "y")
		val, e3 := w.resolveArg(n, "value")
		if err := firstErr(e1, e2, e3); err != nil {
			return "", err
		}
		w.writeLine("textureStore(%s, vec2<i32>(%s, %s), %s);", sanitizeIdent(id), x, y, val)
		return n.ExecOut, nil

	case "atomic_store":
		id, _ := n.Args["counter"].(string)
		idx, e1 := w.resolveArg(n, "index")
		val, e2 := w.resolveArg(n, "value")
		if err := firstErr(e1, e2); err != nil {
			return "", err
		}
		w.writeLine("atomicStore(&%s[%s], %s);", sanitizeIdent(id), idx, val)
		return n.ExecOut, nil

	case "atomic_add", "atomic_sub", "atomic_min", "atomic_max", "atomic_exchange":
		fnName := map[string]string{
			"atomic_add": "atomicAdd", "atomic_sub": "atomicSub", "atomic_min": "atomicMin",
			"atomic_max": "atomicMax", "atomic_exchange": "atomicExchange",
		}[n.Op]
		id, _ := n.Args["counter"].(string)
		idx, e1 := w.resolveArg(n, "index")
		operand, e2 := w.resolveArg(n, "operand")
		if err := firstErr(e1, e2); err != nil {
			return "", err
		}
		local := w.namer.call(n.ID)
		w.locals[n.ID] = local
		w.writeLine("let %s = %s(&%s[%s], %s);", local, fnName, sanitizeIdent(id), idx, operand)
		return n.ExecOut, nil

	case "func_return":
		if val, ok := n.Args["value"]; ok {
			s, err := w.resolveGeneric(val)
			if err != nil {
				return "", err
			}
			w.writeLine("return %s;", s)
		} else if w.fn.Kind == ir.FuncVertex || w.fn.Kind == ir.FuncFragment {
			w.writeLine("return vec4<f32>(0.0, 0.0, 0.0, 0.0);")
		} else {
			w.writeLine("return;")
		}
		return "", nil

	case "call_func":
		// Device functions do not support call_func: non-entry shader
		// helper functions are inlined by the document author, the
		// same restriction the interpreter's recursion ceiling exists
		// to bound on the host side (spec section 4.4).
		return "", fmt.Errorf("webgpu: call_func is not supported in device functions (node %q)", n.ID)

	default:
		// A pure node reached directly on an execution chain (e.g.
		// "comment") is evaluated for side effects only and discarded.
		if _, err := w.emitPure(n); err != nil {
			return "", err
		}
		return n.ExecOut, nil
	}
}

func (w *Writer) writeLoop(n *ir.Node) (string, error) {
	tag, _ := n.Args["tag"].(string)
	idxName := "i_" + sanitizeIdent(tag)

	if count, ok := n.Args["count"]; ok {
		countExpr, err := w.resolveGeneric(count)
		if err != nil {
			return "", err
		}
		w.writeLine("for (var %s: i32 = 0; %s < %s; %s = %s + 1) {", idxName, idxName, countExpr, idxName, idxName)
	} else {
		start, e1 := w.resolveArg(n, "start")
		end, e2 := w.resolveArg(n, "end")
		if err := firstErr(e1, e2); err != nil {
			return "", err
		}
		w.writeLine("for (var %s: i32 = %s; %s < %s; %s = %s + 1) {", idxName, start, idxName, end, idxName, idxName)
	}
	w.pushIndent()
	if n.ExecBody != "" {
		if err := w.writeExecChain(n.ExecBody); err != nil {
			return "", err
		}
	}
	w.popIndent()
	w.writeLine("}")
	return n.ExecCompleted, nil
}
