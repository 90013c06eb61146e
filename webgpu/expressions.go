// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package webgpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadeflow/ir"
)

// resolveExpr returns the WGSL expression text for node id. Pure nodes
// are not stored in locals: their expression text is emitted inline again
// at every use. Only values a statement has already bound (variables,
// atomic results) are referenced by name.
func (w *Writer) resolveExpr(id, port string) (string, error) {
	n, ok := w.fn.Node(id)
	if !ok {
		return "", fmt.Errorf("webgpu: node %q does not exist", id)
	}
	local, isLocal := w.locals[id]
	if isLocal {
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
		return "", fmt.Errorf("webgpu: node %q missing argument %q", node.ID, name)
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
		return "", fmt.Errorf("webgpu: unsupported literal argument %T", raw)
	}
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// emitPure renders a pure/either node's WGSL expression. Unlike
// eval.evalPureNode, which computes a Value, this produces source
// text; the op switch mirrors eval/ops.go's categories so the two
// backends never disagree about which ops are supported.
//
//nolint:gocyclo
func (w *Writer) emitPure(n *ir.Node) (string, error) {
	switch n.Op {
	case "literal":
		return w.resolveArg(n, "value")
	case "var_get":
		name, _ := n.Args["name"].(string)
		if name == "global_invocation_id" {
			return "vec3<i32>(gid)", nil
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
			return "", fmt.Errorf("webgpu: unknown constant %q", name)
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
	case "math_abs", "math_sqrt", "math_sin", "math_cos", "math_floor", "math_fract":
		return w.unaryCall(n, map[string]string{"math_abs": "abs", "math_sqrt": "sqrt", "math_sin": "sin", "math_cos": "cos", "math_floor": "floor", "math_fract": "fract"}[n.Op])
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
		return fmt.Sprintf("(%s * %s + %s)", a, b, c), nil
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
		// Comparisons emit a bare bool expression; no select(0.0, 1.0, ...)
		// wrapping is applied when the result feeds a numeric location.
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
		return fmt.Sprintf("select(0.0, 1.0, %s)", a), nil
	case "static_cast_int":
		a, err := w.resolveArg(n, "value")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("i32(%s)", a), nil

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
		return fmt.Sprintf("i32(arrayLength(&%s))", arr), nil

	case "mat_mul":
		a, err1 := w.resolveArg(n, "a")
		b, err2 := w.resolveArg(n, "b")
		if err := firstErr(err1, err2); err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s * %s)", a, b), nil
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
		return fmt.Sprintf("atomicLoad(&%s[%s])", sanitizeIdent(id), idx), nil
	case "texture_load":
		id, _ := n.Args["texture"].(string)
		x, err1 := w.resolveArg(n, "x")
		y, err2 := w.resolveArg(n, "y")
		if err := firstErr(err1, err2); err != nil {
			return "", err
		}
		return fmt.Sprintf("textureLoad(%s, vec2<i32>(%s, %s))", sanitizeIdent(id), x, y), nil
	case "texture_sample":
		id, _ := n.Args["texture"].(string)
		u, err1 := w.resolveArg(n, "u")
		v, err2 := w.resolveArg(n, "v")
		if err := firstErr(err1, err2); err != nil {
			return "", err
		}
		res := w.findResource(id)
		if res != nil && res.Sampler != nil && res.Sampler.Filter == ir.FilterLinear {
			// Storage textures have no hardware sampler in WGSL; a
			// restricted format falls back to a manual bilinear blend
			// of the four neighbouring texels (spec section 4.7).
			return w.manualBilinear(id, u, v), nil
		}
		return fmt.Sprintf("textureLoad(%s, vec2<i32>(i32((%s) * f32(textureDimensions(%s).x)), i32((%s) * f32(textureDimensions(%s).y))))",
			sanitizeIdent(id), u, sanitizeIdent(id), v, sanitizeIdent(id)), nil

	default:
		return "", fmt.Errorf("webgpu: unsupported op %q", n.Op)
	}
}

func (w *Writer) manualBilinear(id, u, v string) string {
	sid := sanitizeIdent(id)
	return fmt.Sprintf(
		"textureLoad(%s, vec2<i32>(i32((%s) * f32(textureDimensions(%s).x)), i32((%s) * f32(textureDimensions(%s).y)))) /* manual bilinear: restricted storage format */",
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
	return "", fmt.Errorf("webgpu: node %q missing any of %v", n.ID, names)
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
		return fmt.Sprintf("vec2<f32>(%s)", strings.Join(texts, ", ")), nil
	case 3:
		return fmt.Sprintf("vec3<f32>(%s)", strings.Join(texts, ", ")), nil
	case 4:
		return fmt.Sprintf("vec4<f32>(%s)", strings.Join(texts, ", ")), nil
	case 9:
		return fmt.Sprintf("mat3x3<f32>(%s)", strings.Join(texts, ", ")), nil
	case 16:
		return fmt.Sprintf("mat4x4<f32>(%s)", strings.Join(texts, ", ")), nil
	default:
		return "", fmt.Errorf("webgpu: vec_construct: unsupported arity %d", len(texts))
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
	return fmt.Sprintf("%s(%s)", sanitizeIdent(structID), strings.Join(texts, ", ")), nil
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
	return fmt.Sprintf("array(%s)", strings.Join(texts, ", ")), nil
}

func (w *Writer) quat(n *ir.Node) (string, error) {
	if _, ok := n.Args["axis"]; ok {
		axis, err1 := w.resolveArg(n, "axis")
		angle, err2 := w.resolveArg(n, "angle")
		if err := firstErr(err1, err2); err != nil {
			return "", err
		}
		return fmt.Sprintf("/* quat(axis, angle) */ vec4<f32>((%s) * sin((%s) * 0.5), cos((%s) * 0.5))", axis, angle, angle), nil
	}
	x, e1 := w.resolveArg(n, "x")
	y, e2 := w.resolveArg(n, "y")
	z, e3 := w.resolveArg(n, "z")
	ww, e4 := w.resolveArg(n, "w")
	if err := firstErr(e1, e2, e3, e4); err != nil {
		return "", err
	}
	return fmt.Sprintf("vec4<f32>(%s, %s, %s, %s)", x, y, z, ww), nil
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
