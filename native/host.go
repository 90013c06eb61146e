// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadeflow/ir"
)

// hostWriter emits a Go source function for one cpu Function, the
// native-backend counterpart to webgpu.hostWriter — both target the
// same eval.RuntimeContext surface, so a document's cmd_* sequencing
// behaves identically regardless of which device backend it pairs
// with (spec section 6, "identical surface").
type hostWriter struct {
	doc *ir.Document
	fn  *ir.Function

	out    strings.Builder
	indent int

	namer  *namer
	locals map[string]string
}

// GenerateHost emits a Go source function implementing fn, a cpu
// function belonging to doc, with the signature:
//
//	func <Name>(rt eval.RuntimeContext, args map[string]float32) ([]float32, error)
//
// Not executed by this package — reference output meant to be
// compiled alongside a concrete eval.RuntimeContext implementation.
func GenerateHost(doc *ir.Document, fn *ir.Function) (string, error) {
	if fn.Kind != ir.FuncCPU {
		return "", fmt.Errorf("native: GenerateHost: %q is not a cpu function", fn.ID)
	}
	w := &hostWriter{doc: doc, fn: fn, namer: newNamer(), locals: make(map[string]string)}
	if err := w.writeFunction(); err != nil {
		return "", err
	}
	return w.out.String(), nil
}

func (w *hostWriter) writeFunction() error {
	name := sanitizeIdent(w.fn.ID)
	w.writeLine("func %s(rt eval.RuntimeContext, args map[string]float32) ([]float32, error) {", name)
	w.pushIndent()
	for _, lv := range w.fn.LocalVars {
		local := w.namer.call(lv.Name)
		w.locals[lv.Name] = local
		w.writeLine("var %s float32 // %s", local, lv.Type.String())
	}
	if start, ok := ir.FirstExecNode(w.fn); ok {
		if err := w.writeExecChain(start); err != nil {
			return err
		}
	}
	w.writeLine("return nil, nil")
	w.popIndent()
	w.writeLine("}")
	return nil
}

func (w *hostWriter) writeExecChain(id string) error {
	for id != "" {
		n, ok := w.fn.Node(id)
		if !ok {
			return fmt.Errorf("native: node %q does not exist", id)
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
func (w *hostWriter) writeStatement(n *ir.Node) (string, error) {
	switch n.Op {
	case "flow_branch":
		cond, err := w.resolveExpr(n, "cond")
		if err != nil {
			return "", err
		}
		w.writeLine("if %s != 0 {", cond)
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
		tag, _ := n.Args["tag"].(string)
		idx := "i_" + sanitizeIdent(tag)
		if count, ok := n.Args["count"]; ok {
			c, err := w.resolveGeneric(count)
			if err != nil {
				return "", err
			}
			w.writeLine("for %s := 0; %s < int(%s); %s++ {", idx, idx, c, idx)
		} else {
			start, e1 := w.resolveExpr(n, "start")
			end, e2 := w.resolveExpr(n, "end")
			if err := firstErr(e1, e2); err != nil {
				return "", err
			}
			w.writeLine("for %s := int(%s); %s < int(%s); %s++ {", idx, start, idx, end, idx)
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

	case "call_func":
		target, _ := n.Args["func"].(string)
		w.writeLine("if _, err := %s(rt, args); err != nil {", sanitizeIdent(target))
		w.pushIndent()
		w.writeLine("return nil, err")
		w.popIndent()
		w.writeLine("}")
		return n.ExecOut, nil

	case "func_return":
		if _, ok := n.Args["value"]; ok {
			v, err := w.resolveExpr(n, "value")
			if err != nil {
				return "", err
			}
			w.writeLine("return []float32{%s}, nil", v)
		} else {
			w.writeLine("return nil, nil")
		}
		return "", nil

	case "var_set":
		name, _ := n.Args["name"].(string)
		val, err := w.resolveExpr(n, "value")
		if err != nil {
			return "", err
		}
		local, ok := w.locals[name]
		if !ok {
			local = w.namer.call(name)
			w.locals[name] = local
		}
		w.writeLine("%s = %s", local, val)
		return n.ExecOut, nil

	case "buffer_store":
		id, _ := n.Args["buffer"].(string)
		idx, e1 := w.resolveExpr(n, "index")
		val, e2 := w.resolveExpr(n, "value")
		if err := firstErr(e1, e2); err != nil {
			return "", err
		}
		w.writeLine("if err := rt.BufferStore(%q, int(%s), eval.Float(%s)); err != nil { return nil, err }", id, idx, val)
		return n.ExecOut, nil

	case "texture_store":
		id, _ := n.Args["texture"].(string)
		x, e1 := w.resolveExpr(n, "x")
		y, e2 := w.resolveExpr(n, "y")
		val, e3 := w.resolveExpr(n, "value")
		if err := firstErr(e1, e2, e3); err != nil {
			return "", err
		}
		w.writeLine("if err := rt.TextureStore(%q, [2]int{int(%s), int(%s)}, eval.Float(%s)); err != nil { return nil, err }", id, x, y, val)
		return n.ExecOut, nil

	case "atomic_store":
		id, _ := n.Args["counter"].(string)
		idx, e1 := w.resolveExpr(n, "index")
		val, e2 := w.resolveExpr(n, "value")
		if err := firstErr(e1, e2); err != nil {
			return "", err
		}
		w.writeLine("if err := rt.AtomicStore(%q, int(%s), int32(%s)); err != nil { return nil, err }", id, idx, val)
		return n.ExecOut, nil

	case "atomic_add", "atomic_sub", "atomic_min", "atomic_max", "atomic_exchange":
		op := strings.TrimPrefix(n.Op, "atomic_")
		id, _ := n.Args["counter"].(string)
		idx, e1 := w.resolveExpr(n, "index")
		operand, e2 := w.resolveExpr(n, "operand")
		if err := firstErr(e1, e2); err != nil {
			return "", err
		}
		w.writeLine("if _, err := rt.AtomicRMW(%q, int(%s), %q, int32(%s)); err != nil { return nil, err }", id, idx, op, operand)
		return n.ExecOut, nil

	case "cmd_dispatch":
		shader, _ := n.Args["shader"].(string)
		tx, e1 := w.resolveDim(n, 0)
		ty, e2 := w.resolveDim(n, 1)
		tz, e3 := w.resolveDim(n, 2)
		if err := firstErr(e1, e2, e3); err != nil {
			return "", err
		}
		w.writeLine("if err := rt.DispatchShader(%q, %s, %s, %s, flatArgsFor(args)); err != nil { return nil, err }", shader, tx, ty, tz)
		return n.ExecOut, nil

	case "cmd_draw":
		target, _ := n.Args["target"].(string)
		vertex, _ := n.Args["vertex"].(string)
		fragment, _ := n.Args["fragment"].(string)
		count, err := w.resolveExpr(n, "count")
		if err != nil {
			return "", err
		}
		w.writeLine("if err := rt.Draw(%q, %q, %q, int(%s), flatArgsFor(args), nil); err != nil { return nil, err }", target, vertex, fragment, count)
		return n.ExecOut, nil

	case "cmd_resize_resource":
		resID, _ := n.Args["resource"].(string)
		width, e1 := w.resolveExpr(n, "width")
		height, e2 := w.resolveExpr(n, "height")
		if err := firstErr(e1, e2); err != nil {
			return "", err
		}
		w.writeLine("if err := rt.Resize(%q, int(%s), int(%s)); err != nil { return nil, err }", resID, width, height)
		return n.ExecOut, nil

	case "cmd_copy_buffer":
		src, _ := n.Args["src"].(string)
		dst, _ := n.Args["dst"].(string)
		w.writeLine("if err := rt.CopyBuffer(%q, %q); err != nil { return nil, err }", src, dst)
		return n.ExecOut, nil

	case "cmd_sync_to_cpu", "cmd_wait_cpu_sync":
		w.writeLine("// %s: no-op beyond execution-order sequencing", n.Op)
		return n.ExecOut, nil

	case "array_set":
		w.writeLine("// array_set: host-local aggregate mutation, interpreter-only")
		return n.ExecOut, nil

	default:
		if _, err := w.resolveExpr(n, ""); err != nil {
			return "", err
		}
		return n.ExecOut, nil
	}
}

func (w *hostWriter) resolveDim(n *ir.Node, axis int) (string, error) {
	names := [3]string{"threadsX", "threadsY", "threadsZ"}
	if _, ok := n.Args[names[axis]]; ok {
		return w.resolveExpr(n, names[axis])
	}
	return fmt.Sprintf("%d", n.Threads[axis]), nil
}

func (w *hostWriter) resolveExpr(n *ir.Node, argName string) (string, error) {
	if argName == "" {
		_, err := w.emitExpr(n)
		return "", err
	}
	raw, ok := n.Args[argName]
	if !ok {
		return "", fmt.Errorf("native: node %q missing argument %q", n.ID, argName)
	}
	return w.resolveGeneric(raw)
}

func (w *hostWriter) resolveGeneric(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		if ref, ok := ir.ResolveDataRef(w.fn, v); ok {
			target, ok := w.fn.Node(ref.NodeID)
			if !ok {
				return "", fmt.Errorf("native: node %q does not exist", ref.NodeID)
			}
			return w.emitExpr(target)
		}
		if local, ok := w.locals[v]; ok {
			return local, nil
		}
		return v, nil
	case int:
		return fmt.Sprintf("float32(%d)", v), nil
	case float64:
		return fmt.Sprintf("float32(%s)", formatFloat(v)), nil
	case bool:
		if v {
			return "float32(1)", nil
		}
		return "float32(0)", nil
	default:
		return "", fmt.Errorf("native: unsupported literal argument %T", raw)
	}
}

func (w *hostWriter) emitExpr(n *ir.Node) (string, error) {
	switch n.Op {
	case "literal":
		raw, ok := n.Args["value"]
		if !ok {
			return "0", nil
		}
		return w.resolveGeneric(raw)
	case "var_get":
		name, _ := n.Args["name"].(string)
		if local, ok := w.locals[name]; ok {
			return local, nil
		}
		return fmt.Sprintf("args[%q]", name), nil
	case "math_add", "math_sub", "math_mul", "math_div":
		op := map[string]string{"math_add": "+", "math_sub": "-", "math_mul": "*", "math_div": "/"}[n.Op]
		a, e1 := w.resolveExpr(n, "a")
		b, e2 := w.resolveExpr(n, "b")
		if err := firstErr(e1, e2); err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", a, op, b), nil
	case "buffer_load":
		id, _ := n.Args["buffer"].(string)
		idx, err := w.resolveExpr(n, "index")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("mustFloat(rt.BufferLoad(%q, int(%s)))", id, idx), nil
	case "atomic_load":
		id, _ := n.Args["counter"].(string)
		idx, err := w.resolveExpr(n, "index")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("mustAtomic(rt.AtomicLoad(%q, int(%s)))", id, idx), nil
	default:
		return "0", nil
	}
}

func (w *hostWriter) writeLine(format string, args ...interface{}) {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("\t")
	}
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

func (w *hostWriter) pushIndent() { w.indent++ }
func (w *hostWriter) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}
