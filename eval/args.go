package eval

import (
	"github.com/gogpu/shadeflow/ir"
)

// argRaw returns node's raw argument value under name or one of
// aliases (spec section 9, Open Question: math_step's edge/x vs
// edge/val naming — resolved as an alias set everywhere, not just
// math_step).
func argRaw(node *ir.Node, name string, aliases ...string) (interface{}, bool) {
	if v, ok := node.Args[name]; ok {
		return v, true
	}
	for _, alt := range aliases {
		if v, ok := node.Args[alt]; ok {
			return v, true
		}
	}
	return nil, false
}

// resolveNumericArg resolves a refable numeric argument: a data
// reference (string matching a sibling node id, optionally
// ".<swizzle>"), or a literal number/bool.
func (e *Evaluator) resolveNumericArg(fn *ir.Function, frame *Frame, node *ir.Node, name string, aliases ...string) (Value, error) {
	raw, ok := argRaw(node, name, aliases...)
	if !ok {
		return Value{}, nil
	}
	return e.resolveGeneric(fn, frame, raw)
}

// resolveGeneric resolves a data-ref string or a literal scalar/bool.
// Array-shaped arguments such as vec_construct's "components" are walked
// by their op, which resolves each element here; any other shape yields
// the zero Value.
func (e *Evaluator) resolveGeneric(fn *ir.Function, frame *Frame, raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case string:
		if ref, ok := ir.ResolveDataRef(fn, v); ok {
			return e.evalData(fn, frame, ref.NodeID, ref.Port)
		}
		return StringV(v), nil
	case int:
		return Int(int32(v)), nil
	case int64:
		return Int(int32(v)), nil
	case float64:
		return Float(float32(v)), nil
	case float32:
		return Float(v), nil
	case bool:
		return Bool(v), nil
	default:
		return Value{}, nil
	}
}

// resolveIdentifierValue resolves an argument that is itself a data
// reference naming another node's full value (used by swizzle's
// "vector", struct_extract's "value", array ops' "array").
func (e *Evaluator) resolveIdentifierValue(fn *ir.Function, frame *Frame, node *ir.Node, name string) (Value, error) {
	raw, ok := node.Args[name]
	if !ok {
		return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "missing argument '%s'", name)
	}
	s, ok := raw.(string)
	if !ok {
		return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "argument '%s' is not a reference", name)
	}
	ref, ok := ir.ResolveDataRef(fn, s)
	if !ok {
		return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "argument '%s' does not resolve to a node", name)
	}
	return e.evalData(fn, frame, ref.NodeID, ref.Port)
}

func (e *Evaluator) literalOp(node *ir.Node) (Value, error) {
	raw, ok := node.Args["value"]
	if !ok {
		return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "literal: missing 'value'")
	}
	if tname, ok := node.Args["type"].(string); ok {
		t, err := ir.ParseType(tname)
		if err != nil {
			return Value{}, err
		}
		return literalValue(t, raw), nil
	}
	switch v := raw.(type) {
	case int:
		return Int(int32(v)), nil
	case int64:
		return Int(int32(v)), nil
	case float64:
		return Float(float32(v)), nil
	case bool:
		return Bool(v), nil
	case string:
		return StringV(v), nil
	default:
		return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "literal: unsupported value shape")
	}
}

// literalValue builds a Value of type t from a raw decoded YAML value,
// used for explicitly-typed literal nodes and LocalVar.InitialValue.
func literalValue(t ir.Type, raw interface{}) Value {
	switch t.Kind {
	case ir.KindFloat:
		return Float(toFloat32(raw))
	case ir.KindInt:
		return Int(int32(toFloat32(raw)))
	case ir.KindBool:
		b, _ := raw.(bool)
		return Bool(b)
	case ir.KindString:
		s, _ := raw.(string)
		return StringV(s)
	case ir.KindFloat2, ir.KindFloat3, ir.KindFloat4, ir.KindInt2, ir.KindInt3, ir.KindInt4:
		arr, _ := raw.([]interface{})
		out := Value{Type: t}
		n, _ := t.VectorArity()
		for i := 0; i < n && i < len(arr); i++ {
			out.Vec[i] = toFloat32(arr[i])
		}
		return out
	case ir.KindArray:
		arr, _ := raw.([]interface{})
		out := Value{Type: t}
		for _, e := range arr {
			if t.Of != nil {
				out.Arr = append(out.Arr, literalValue(*t.Of, e))
			}
		}
		return out
	default:
		return Value{Type: t}
	}
}

func toFloat32(raw interface{}) float32 {
	switch v := raw.(type) {
	case int:
		return float32(v)
	case int64:
		return float32(v)
	case float64:
		return float32(v)
	case float32:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (e *Evaluator) vecConstruct(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	raw, ok := node.Args["components"]
	if !ok {
		return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "vec_construct: missing 'components'")
	}
	var comps []Value
	switch c := raw.(type) {
	case []interface{}:
		for _, elem := range c {
			v, err := e.resolveGeneric(fn, frame, elem)
			if err != nil {
				return Value{}, err
			}
			comps = append(comps, v)
		}
	case string:
		// a bare data reference naming a node that already produced the
		// full vector/matrix value.
		v, err := e.resolveGeneric(fn, frame, c)
		if err != nil {
			return Value{}, err
		}
		return v, nil
	}
	isInt := true
	for _, c := range comps {
		if c.Type.Kind == ir.KindFloat {
			isInt = false
		}
	}
	switch len(comps) {
	case 2, 3, 4:
		t := vectorKindFor(len(comps), isInt)
		out := Value{Type: t}
		for i, c := range comps {
			out.Vec[i] = c.Num
		}
		return out, nil
	case 9:
		out := Value{Type: ir.Float3x3()}
		for i, c := range comps {
			out.Mat[i] = c.Num
		}
		return out, nil
	case 16:
		out := Value{Type: ir.Float4x4()}
		for i, c := range comps {
			out.Mat[i] = c.Num
		}
		return out, nil
	default:
		return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "vec_construct: unsupported component count %d", len(comps))
	}
}

func vectorKindFor(arity int, isInt bool) ir.Type {
	switch arity {
	case 2:
		if isInt {
			return ir.Int2()
		}
		return ir.Float2()
	case 3:
		if isInt {
			return ir.Int3()
		}
		return ir.Float3()
	default:
		if isInt {
			return ir.Int4()
		}
		return ir.Float4()
	}
}

func (e *Evaluator) resourceID(node *ir.Node, name string) string {
	s, _ := node.Args[name].(string)
	return s
}

func (e *Evaluator) textureSample(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	coord, err := e.resolveIdentifierValue(fn, frame, node, "coord")
	if err != nil {
		return Value{}, err
	}
	return e.ctx.Runtime.TextureSample(e.resourceID(node, "texture"), [2]float32{coord.Vec[0], coord.Vec[1]})
}

func (e *Evaluator) textureLoad(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	coord, err := e.resolveIdentifierValue(fn, frame, node, "coord")
	if err != nil {
		return Value{}, err
	}
	return e.ctx.Runtime.TextureLoad(e.resourceID(node, "texture"), [2]int{int(coord.Vec[0]), int(coord.Vec[1])})
}

func (e *Evaluator) bufferLoad(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	idx, err := e.resolveNumericArg(fn, frame, node, "index")
	if err != nil {
		return Value{}, err
	}
	return e.ctx.Runtime.BufferLoad(e.resourceID(node, "buffer"), int(idx.Num))
}

func (e *Evaluator) atomicLoad(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	idx, err := e.resolveNumericArg(fn, frame, node, "index")
	if err != nil {
		return Value{}, err
	}
	v, err := e.ctx.Runtime.AtomicLoad(e.resourceID(node, "counter"), int(idx.Num))
	if err != nil {
		return Value{}, err
	}
	return Int(v), nil
}

func (e *Evaluator) matMul(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	a, err := e.resolveNumericArg(fn, frame, node, "a")
	if err != nil {
		return Value{}, err
	}
	b, err := e.resolveNumericArg(fn, frame, node, "b")
	if err != nil {
		return Value{}, err
	}
	if dim, ok := a.Type.MatrixDim(); ok {
		if _, isVec := b.Type.VectorArity(); isVec {
			return matVecMul(a, b, dim), nil
		}
		return matMatMul(a, b, dim), nil
	}
	return Value{}, ir.ValidationError{Kind: ir.ErrTypeMismatch, Message: "mat_mul: 'a' is not a matrix"}
}

// matVecMul multiplies a column-major dim x dim matrix by a dim vector
// (spec section 4.1: "matrix element access is flat column-major:
// index = col * colSize + row").
func matVecMul(m, v Value, dim int) Value {
	out := Value{Type: v.Type}
	for row := 0; row < dim; row++ {
		var sum float32
		for col := 0; col < dim; col++ {
			sum += m.Mat[col*dim+row] * v.Vec[col]
		}
		out.Vec[row] = sum
	}
	return out
}

func matMatMul(a, b Value, dim int) Value {
	out := Value{Type: a.Type}
	for col := 0; col < dim; col++ {
		for row := 0; row < dim; row++ {
			var sum float32
			for k := 0; k < dim; k++ {
				sum += a.Mat[k*dim+row] * b.Mat[col*dim+k]
			}
			out.Mat[col*dim+row] = sum
		}
	}
	return out
}

func (e *Evaluator) quat(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	if _, hasAxis := node.Args["axis"]; hasAxis {
		axis, err := e.resolveNumericArg(fn, frame, node, "axis")
		if err != nil {
			return Value{}, err
		}
		angle, err := e.resolveNumericArg(fn, frame, node, "angle")
		if err != nil {
			return Value{}, err
		}
		half := angle.Num / 2
		s, c := mathSin(half), mathCos(half)
		return Value{Type: ir.Float4(), Vec: [4]float32{axis.Vec[0] * s, axis.Vec[1] * s, axis.Vec[2] * s, c}}, nil
	}
	x, _ := e.resolveNumericArg(fn, frame, node, "x")
	y, _ := e.resolveNumericArg(fn, frame, node, "y")
	z, _ := e.resolveNumericArg(fn, frame, node, "z")
	w, _ := e.resolveNumericArg(fn, frame, node, "w")
	return Value{Type: ir.Float4(), Vec: [4]float32{x.Num, y.Num, z.Num, w.Num}}, nil
}

func (e *Evaluator) structConstruct(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	structID, _ := node.Args["struct"].(string)
	out := Value{Type: ir.StructOf(structID), Struct: map[string]Value{}}
	if def := e.findStruct(structID); def != nil {
		for _, m := range def.Members {
			out.Struct[m.Name] = Zero(m.Type)
		}
	}
	fields, _ := node.Args["fields"].([]interface{})
	for _, raw := range fields {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		v, err := e.resolveGeneric(fn, frame, entry["value"])
		if err != nil {
			return Value{}, err
		}
		out.Struct[name] = v
	}
	return out, nil
}

func (e *Evaluator) structExtract(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	v, err := e.resolveIdentifierValue(fn, frame, node, "value")
	if err != nil {
		return Value{}, err
	}
	field, _ := node.Args["field"].(string)
	f, ok := v.Struct[field]
	if !ok {
		return Value{}, ir.ValidationError{Kind: ir.ErrTypeMismatch, Message: "struct_extract: no such field '" + field + "'"}
	}
	return f, nil
}

func (e *Evaluator) arrayConstruct(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	elements, _ := node.Args["elements"].([]interface{})
	out := Value{Type: ir.ArrayOf(ir.Float(), len(elements))}
	for _, raw := range elements {
		v, err := e.resolveGeneric(fn, frame, raw)
		if err != nil {
			return Value{}, err
		}
		out.Arr = append(out.Arr, v)
	}
	if len(out.Arr) > 0 {
		out.Type = ir.ArrayOf(out.Arr[0].Type, len(out.Arr))
	}
	return out, nil
}

func (e *Evaluator) arrayExtract(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	arr, err := e.resolveIdentifierValue(fn, frame, node, "array")
	if err != nil {
		return Value{}, err
	}
	idx, err := e.resolveNumericArg(fn, frame, node, "index")
	if err != nil {
		return Value{}, err
	}
	i := int(idx.Num)
	if i < 0 || i >= len(arr.Arr) {
		return Value{}, ir.NewRuntimeError(ir.RuntimeBufferOOB, "array_extract index %d", i)
	}
	return arr.Arr[i], nil
}

func (e *Evaluator) builtinGet(frame *Frame, name string) (Value, error) {
	if v, ok := frame.getVar(name); ok && (name == "global_invocation_id" || name == "position" || name == "vertex_index") {
		return v, nil
	}
	b := e.ctx.Builtins
	switch ir.Builtin(name) {
	case ir.BuiltinTime:
		return Float(b.Time), nil
	case ir.BuiltinDeltaTime:
		return Float(b.DeltaTime), nil
	case ir.BuiltinBPM:
		return Float(b.BPM), nil
	case ir.BuiltinBeatNumber:
		return Float(b.BeatNumber), nil
	case ir.BuiltinBeatDelta:
		return Float(b.BeatDelta), nil
	case ir.BuiltinOutputSize:
		return Value{Type: ir.Float2(), Vec: [4]float32{b.OutputSize[0], b.OutputSize[1]}}, nil
	default:
		return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "unknown builtin '%s'", name)
	}
}

func engineConstant(name string) (Value, error) {
	switch name {
	case "PI":
		return Float(3.14159265), nil
	case "TAU":
		return Float(6.2831853), nil
	case "E":
		return Float(2.71828183), nil
	default:
		return Value{}, ir.ValidationError{Kind: ir.ErrInvalidConstName, Message: "Invalid constant name '" + name + "'"}
	}
}
