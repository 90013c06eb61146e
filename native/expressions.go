// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadeflow/ir"
)

// resolveExpr returns the HLSL expression text for node id, the same
// way webgpu.Writer.resolveExpr does: pure nodes are emitted inline again
// at every use, not stored in locals.
func (w *Writer) resolveExpr(id, port string) (string, error) {
	n, ok := w.fn.Node(id)
	if !ok {
		return "", fmt.Errorf("native: node %q does not exist", id)
	}
	if local, isLocal := w.locals[id]; isLocal {
		return applyPort(local, port), nil
	}
	expr, err := w.emitPure(n)
	if err != nil {
		return "", err
	}
	return applyPort(expr, port), nil
}

func applyPort(expr, port string) string {
	if port == "" {
		return expr
	}
	return fmt.Sprintf("(%s).%s", expr, port)
}

func (w *Writer) resolveArg(node *ir.Node, name string) (string, error) {
	raw, ok := node.Args[name]
	if !ok {
		return "", fmt.Errorf("native: node %q missing argument %q", node.ID, name)
	}
	return w.resolveGeneric(raw)
}

func (w *Writer) resolveGeneric(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		if ref, ok := ir.ResolveDataRef(w.fn, v); ok {
			return w.resolveExpr(ref.NodeID, ref.Port)
		}
		return v, nil
	case int:
		return fmt.Sprintf("%d", v), nil
	case int64:
		return fmt.Sprintf("%d", v), nil
	case float64:
		return formatFloat(v), nil
	case float32:
		return formatFloat(float64(v)), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	default:
		return "", fmt.Errorf("native: unsupported literal argument %T", raw)
	}
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// emitPure mirrors webgpu.Writer.emitPure's op switch so the two
// device backends never disagree about which ops are supported.
//
//nolint:gocyclo
func (w *Writer) emitPure(n *ir.Node) (string, error) {
	switch n.Op {
	case "literal":
		return w.resolveArg(n, "value")
	case "var_get":
		name, _ := n.Args["name"].(string)
		if name == "global_invocation_id" {
			return "int3(gid)", nil
		}
		if local, ok := w.locals[name]; ok {
			return local, nil
		}
		if _, isArg := w.argIndex(name); isArg {
			return "args." + sanitizeIdent(name), nil
		}
		return sanitizeIdent(name), nil
	case "builtin_get":
		name, _ := n.Args["name"].(string)
		if name == "output_size" {
			return "args.output_size", nil
		}
		return "args." + sanitizeIdent(name), nil
	case "const_get":
		name, _ := n.Args["name"].(string)
		switch name {
		case "PI":
			return "3.14159265358979", nil
		case "TAU":
			return "6.28318530717959", nil
		case "E":
			return "2.71828182845905", nil
		default:
			return "", fmt.Errorf("native: unknown constant %q", name)
		}
	case "loop_index":
		tag, _ := n.Args["tag"].(string)
		return "i_" + sanitizeIdent(tag), nil
	case "comment":
		return "0.0", nil

	case "math_add", "math_sub", "math_mul", "math_div", "math_mod":
		return w.binary(n, map[string]string{"math_add": "+", "math_sub": "-", "math_mul": "*", "math_div": "/", "math_mod": "%"}[n.Op])
	case "math_neg":
		a, err := w.resolveArg(n, "x")
		if err != nil {
			return "", err
		}
		return "(-" + a + ")", nil
	case "math_abs", "math_sqrt", "math_sin", "math_cos", "math_floor":
		return w.unaryCall(n, map[string]string{"math_abs": "abs", "math_sqrt": "sqrt", "math_sin": "sin", "math_cos": "cos", "math_floor": "floor"}[n.Op])
	case "math_fract":
		return w.unaryCall(n, "frac")
	case "math_pow":
		return w.binaryCall(n, "pow", "x", "y")
	case "math_atan2":
		return w.binaryCall(n, "atan2", "y", "x")
	case "math_min":
		return w.binaryCall(n, "min", "x", "y")
	case "math_max":
		return w.binaryCall(n, "max", "x", "y")
	case "math_step":
		edge, err := w.resolveArgAlias(n, "edge")
		if err != nil {
			return "", err
		}
		val, err := w.resolveArgAlias(n, "x", "val")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("step(%s, %s)", edge, val), nil
	case "mad":
		a, err1 := w.resolveArg(n, "a")
		b, err2 := w.resolveArg(n, "b")
		c, err3 := w.resolveArg(n, "c")
		if err := firstErr(err1, err2, err3); err != nil {
			return "", err
		}
		return fmt.Sprintf("mad(%s, %s, %s)", a, b, c), nil
	case "clamp":
		v, err1 := w.resolveArg(n, "value")
		lo, err2 := w.resolveArg(n, "min")
		hi, err3 := w.resolveArg(n, "max")
		if err := firstErr(err1, err2, err3); err != nil {
			return "", err
		}
		return fmt.Sprintf("clamp(%s, %s, %s)", v, lo, hi), nil

	case "cmp_eq", "cmp_ne", "cmp_lt", "cmp_le", "cmp_gt", "cmp_ge":
		op := map[string]string{"cmp_eq": "==", "cmp_ne": "!=", "cmp_lt": "<", "cmp_le": "<=", "cmp_gt": ">", "cmp_ge": ">="}[n.Op]
		return w.binary(n, op)
	case "logic_and":
		return w.binary(n, "&&")
	case "logic_or":
		return w.binary(n, "||")
	case "logic_not":
		a, err := w.resolveArg(n, "x")
		if err != nil {
			return "", err
		}
		return "(!" + a + ")", nil

	case "cast_bool_to_float":
		a, err := w.resolveArg(n, "value")
		if err != nil {
			return "", err
		}
		// HLSL has no select(); the ternary reads the same as WGSL's
		// select(falseVal, trueVal, cond) wrapping (spec section 4.1).
		return fmt.Sprintf("((%s) ? 1.0 : 0.0)", a), nil
	case "static_cast_int":
		a, err := w.resolveArg(n, "value")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("int(%s)", a), nil

	case "vec_construct":
		return w.vecConstruct(n)
	case "swizzle":
		base, err := w.resolveArg(n, "vector")
		if err != nil {
			return "", err
		}
		pattern, _ := n.Args["pattern"].(string)
		return fmt.Sprintf("(%s).%s", base, pattern), nil

	case "struct_extract":
		base, err := w.resolveArg(n, "value")
		if err != nil {
			return "", err
		}
		field, _ := n.Args["field"].(string)
		return fmt.Sprintf("(%s).%s", base, sanitizeIdent(field)), nil
	case "struct_construct":
		return w.structConstruct(n)
	case "array_construct":
		return w.arrayConstruct(n)
	case "array_extract":
		arr, err1 := w.resolveArg(n, "array")
		idx, err2 := w.resolveArg(n, "index")
		if err := firstErr(err1, err2); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]", arr, idx), nil
	case "array_length":
		arr, err := w.resolveArg(n, "array")
		if err != nil {
			return "", err
		}
		sid := sanitizeIdent(arr)
		return fmt.Sprintf("int(_array_len_%s)", sid), nil

	case "mat_mul":
		a, err1 := w.resolveArg(n, "a")
		b, err2 := w.resolveArg(n, "b")
		if err := firstErr(err1, err2); err != nil {
			return "", err
		}
		return fmt.Sprintf("mul(%s, %s)", a, b), nil
	case "quat":
		return w.quat(n)

	case "buffer_load":
		id, _ := n.Args["buffer"].(string)
		idx, err := w.resolveArg(n, "index")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]", sanitizeIdent(id), idx), nil
	case "atomic_load":
		id, _ := n.Args["counter"].(string)
		idx, err := w.resolveArg(n, "index")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]", sanitizeIdent(id), idx), nil
	case "texture_load":
		id, _ := n.Args["texture"].(string)
		x, err1 := w.resolveArg(n, "x")
		y, err2 := w.resolveArg(n, "y")
		if err := firstErr(err1, err2); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[int2(%s, %s)]", sanitizeIdent(id), x, y), nil
	case "texture_sample":
		id, _ := n.Args["texture"].(string)
		u, err1 := w.resolveArg(n, "u")
		v, err2 := w.resolveArg(n, "v")
		if err := firstErr(err1, err2); err != nil {
			return "", err
		}
		sid := sanitizeIdent(id)
		res := w.findResource(id)
		if res != nil && res.Sampler != nil && res.Sampler.Filter == ir.FilterLinear {
			// RWTexture2D carries no hardware sampler in a compute
			// shader; fall back to a manual bilinear blend (spec
			// section 4.7), same restriction package webgpu documents.
			return w.manualBilinear(sid, u, v), nil
		}
		return fmt.Sprintf("%s[int2(int((%s) * _texsize_%s.x), int((%s) * _texsize_%s.y))]", sid, u, sid, v, sid), nil

	default:
		return "", fmt.Errorf("native: unsupported op %q", n.Op)
	}
}

func (w *Writer) manualBilinear(sid, u, v string) string {
	return fmt.Sprintf(
		"%s[int2(int((%s) * _texsize_%s.x), int((%s) * _texsize_%s.y))] /* manual bilinear: restricted storage format */",
		sid, u, sid, v, sid)
}

func (w *Writer) binary(n *ir.Node, op string) (string, error) {
	a, err1 := w.resolveArg(n, "a")
	b, err2 := w.resolveArg(n, "b")
	if err1 != nil || err2 != nil {
		a, err1 = w.resolveArgAlias(n, "a", "x")
		b, err2 = w.resolveArgAlias(n, "b", "y")
	}
	if err := firstErr(err1, err2); err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", a, op, b), nil
}

func (w *Writer) unaryCall(n *ir.Node, fnName string) (string, error) {
	a, err := w.resolveArgAlias(n, "x", "value")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", fnName, a), nil
}

func (w *Writer) binaryCall(n *ir.Node, fnName, an, bn string) (string, error) {
	a, err1 := w.resolveArg(n, an)
	b, err2 := w.resolveArg(n, bn)
	if err := firstErr(err1, err2); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s, %s)", fnName, a, b), nil
}

func (w *Writer) resolveArgAlias(n *ir.Node, names ...string) (string, error) {
	for _, name := range names {
		if _, ok := n.Args[name]; ok {
			return w.resolveArg(n, name)
		}
	}
	return "", fmt.Errorf("native: node %q missing any of %v", n.ID, names)
}

func (w *Writer) vecConstruct(n *ir.Node) (string, error) {
	components, _ := n.Args["components"].([]interface{})
	texts := make([]string, 0, len(components))
	for _, raw := range components {
		s, err := w.resolveGeneric(raw)
		if err != nil {
			return "", err
		}
		texts = append(texts, s)
	}
	switch len(texts) {
	case 2:
		return fmt.Sprintf("float2(%s)", strings.Join(texts, ", ")), nil
	case 3:
		return fmt.Sprintf("float3(%s)", strings.Join(texts, ", ")), nil
	case 4:
		return fmt.Sprintf("float4(%s)", strings.Join(texts, ", ")), nil
	case 9:
		return fmt.Sprintf("float3x3(%s)", strings.Join(texts, ", ")), nil
	case 16:
		return fmt.Sprintf("float4x4(%s)", strings.Join(texts, ", ")), nil
	default:
		return "", fmt.Errorf("native: vec_construct: unsupported arity %d", len(texts))
	}
}

func (w *Writer) structConstruct(n *ir.Node) (string, error) {
	structID, _ := n.Args["struct"].(string)
	fields, _ := n.Args["fields"].([]interface{})
	texts := make([]string, 0, len(fields))
	for _, raw := range fields {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		v, err := w.resolveGeneric(entry["value"])
		if err != nil {
			return "", err
		}
		texts = append(texts, v)
	}
	return fmt.Sprintf("%s_ctor(%s)", sanitizeIdent(structID), strings.Join(texts, ", ")), nil
}

func (w *Writer) arrayConstruct(n *ir.Node) (string, error) {
	elements, _ := n.Args["elements"].([]interface{})
	texts := make([]string, 0, len(elements))
	for _, raw := range elements {
		v, err := w.resolveGeneric(raw)
		if err != nil {
			return "", err
		}
		texts = append(texts, v)
	}
	return fmt.Sprintf("{ %s }", strings.Join(texts, ", ")), nil
}

func (w *Writer) quat(n *ir.Node) (string, error) {
	if _, ok := n.Args["axis"]; ok {
		axis, err1 := w.resolveArg(n, "axis")
		angle, err2 := w.resolveArg(n, "angle")
		if err := firstErr(err1, err2); err != nil {
			return "", err
		}
		return fmt.Sprintf("/* quat(axis, angle) */ float4((%s) * sin((%s) * 0.5), cos((%s) * 0.5))", axis, angle, angle), nil
	}
	x, e1 := w.resolveArg(n, "x")
	y, e2 := w.resolveArg(n, "y")
	z, e3 := w.resolveArg(n, "z")
	ww, e4 := w.resolveArg(n, "w")
	if err := firstErr(e1, e2, e3, e4); err != nil {
		return "", err
	}
	return fmt.Sprintf("float4(%s, %s, %s, %s)", x, y, z, ww), nil
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
