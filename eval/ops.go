package eval

import (
	"strings"

	"github.com/gogpu/shadeflow/ir"
)

// evalPureNode computes node's value from its arguments (spec section
// 4.2's "pure" and "either" operation categories). Side-effecting and
// control-flow ops never reach here; they are handled by execNode.
func (e *Evaluator) evalPureNode(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	switch node.Op {
	case "math_add":
		return e.binaryNumeric(fn, frame, node, "a", "b", opAdd)
	case "math_sub":
		return e.binaryNumeric(fn, frame, node, "a", "b", opSub)
	case "math_mul":
		return e.binaryNumeric(fn, frame, node, "a", "b", opMul)
	case "math_div":
		return e.binaryNumeric(fn, frame, node, "a", "b", opDiv)
	case "math_mod":
		return e.binaryNumeric(fn, frame, node, "a", "b", opMod)
	case "math_pow":
		return e.binaryNumeric(fn, frame, node, "a", "b", opPow)
	case "math_atan2":
		return e.binaryNumeric(fn, frame, node, "a", "b", opAtan2)
	case "math_min":
		return e.binaryNumeric(fn, frame, node, "a", "b", opMin)
	case "math_max":
		return e.binaryNumeric(fn, frame, node, "a", "b", opMax)
	case "math_step":
		canonical, aliases := ir.StepArgAliases()
		_ = canonical
		a, err := e.resolveNumericArg(fn, frame, node, "edge")
		if err != nil {
			return Value{}, err
		}
		b, err := e.resolveNumericArg(fn, frame, node, "edge2", aliases...)
		if err != nil {
			return Value{}, err
		}
		return combineNumeric(a, b, opStep)
	case "math_neg":
		return e.unaryNumeric(fn, frame, node, "a", func(x float32) float32 { return -x })
	case "math_abs":
		return e.unaryNumeric(fn, frame, node, "a", mathAbs)
	case "math_sqrt":
		return e.unaryNumeric(fn, frame, node, "a", mathSqrt)
	case "math_sin":
		return e.unaryNumeric(fn, frame, node, "a", mathSin)
	case "math_cos":
		return e.unaryNumeric(fn, frame, node, "a", mathCos)
	case "math_floor":
		return e.unaryNumeric(fn, frame, node, "a", mathFloor)
	case "math_fract":
		return e.unaryNumeric(fn, frame, node, "a", mathFract)

	case "cmp_eq":
		return e.comparison(fn, frame, node, func(a, b Value) bool { return a.Equal(b) })
	case "cmp_ne":
		return e.comparison(fn, frame, node, func(a, b Value) bool { return !a.Equal(b) })
	case "cmp_lt":
		return e.comparison(fn, frame, node, func(a, b Value) bool { return a.Num < b.Num })
	case "cmp_le":
		return e.comparison(fn, frame, node, func(a, b Value) bool { return a.Num <= b.Num })
	case "cmp_gt":
		return e.comparison(fn, frame, node, func(a, b Value) bool { return a.Num > b.Num })
	case "cmp_ge":
		return e.comparison(fn, frame, node, func(a, b Value) bool { return a.Num >= b.Num })

	case "logic_and":
		a, b, err := e.resolveBoolPair(fn, frame, node)
		if err != nil {
			return Value{}, err
		}
		return Bool(a && b), nil
	case "logic_or":
		a, b, err := e.resolveBoolPair(fn, frame, node)
		if err != nil {
			return Value{}, err
		}
		return Bool(a || b), nil
	case "logic_not":
		a, err := e.resolveNumericArg(fn, frame, node, "a")
		if err != nil {
			return Value{}, err
		}
		return Bool(!a.AsBool()), nil

	case "clamp":
		return e.clamp(fn, frame, node)
	case "mad":
		return e.mad(fn, frame, node)

	case "cast_bool_to_float":
		v, err := e.resolveNumericArg(fn, frame, node, "value")
		if err != nil {
			return Value{}, err
		}
		return Float(v.Num), nil
	case "static_cast_int":
		v, err := e.resolveNumericArg(fn, frame, node, "value")
		if err != nil {
			return Value{}, err
		}
		return Int(v.AsInt32()), nil

	case "literal":
		return e.literalOp(node)
	case "vec_construct":
		return e.vecConstruct(fn, frame, node)
	case "swizzle":
		return e.swizzleOp(fn, frame, node)

	case "texture_sample":
		return e.textureSample(fn, frame, node)
	case "texture_load":
		return e.textureLoad(fn, frame, node)
	case "buffer_load":
		return e.bufferLoad(fn, frame, node)
	case "atomic_load":
		return e.atomicLoad(fn, frame, node)

	case "mat_mul":
		return e.matMul(fn, frame, node)
	case "quat":
		return e.quat(fn, frame, node)

	case "struct_construct":
		return e.structConstruct(fn, frame, node)
	case "struct_extract":
		return e.structExtract(fn, frame, node)
	case "array_construct":
		return e.arrayConstruct(fn, frame, node)
	case "array_extract":
		return e.arrayExtract(fn, frame, node)
	case "array_length":
		v, err := e.resolveIdentifierValue(fn, frame, node, "array")
		if err != nil {
			return Value{}, err
		}
		return Int(int32(len(v.Arr))), nil

	case "var_get":
		name, _ := node.Args["name"].(string)
		v, ok := frame.getVar(name)
		if !ok {
			return Value{}, ir.NewRuntimeError(ir.RuntimeUndefinedVar, "Variable '%s' is not defined", name)
		}
		return v, nil
	case "builtin_get":
		name, _ := node.Args["name"].(string)
		return e.builtinGet(frame, name)
	case "const_get":
		name, _ := node.Args["name"].(string)
		return engineConstant(name)
	case "loop_index":
		tag, _ := node.Args["tag"].(string)
		i, _ := frame.loopValue(tag)
		return Int(int32(i)), nil

	case "comment":
		return Value{}, nil

	default:
		return Value{}, ir.NewRuntimeError(ir.RuntimeGeneric, "op '%s' is not a data-producing operation", node.Op)
	}
}

func opAdd(k ir.TypeKind, x, y float32) float32 { return x + y }
func opSub(k ir.TypeKind, x, y float32) float32 { return x - y }
func opMul(k ir.TypeKind, x, y float32) float32 { return x * y }

func opDiv(k ir.TypeKind, x, y float32) float32 {
	if k == ir.KindInt {
		yi := int32(y)
		if yi == 0 {
			return 0
		}
		return float32(int32(x) / yi)
	}
	return x / y
}

func opMod(k ir.TypeKind, x, y float32) float32 {
	if k == ir.KindInt {
		yi := int32(y)
		if yi == 0 {
			return 0
		}
		return float32(int32(x) % yi)
	}
	return mathMod(x, y)
}

func opPow(k ir.TypeKind, x, y float32) float32   { return mathPow(x, y) }
func opAtan2(k ir.TypeKind, x, y float32) float32 { return mathAtan2(x, y) }

func opMin(k ir.TypeKind, x, y float32) float32 {
	if x < y {
		return x
	}
	return y
}

func opMax(k ir.TypeKind, x, y float32) float32 {
	if x > y {
		return x
	}
	return y
}

func opStep(k ir.TypeKind, edge, edge2 float32) float32 {
	if edge2 < edge {
		return 0
	}
	return 1
}

// binaryNumeric resolves two named args, unifies their types per spec
// section 4.1, and applies fn component-wise across the common shape.
func (e *Evaluator) binaryNumeric(fn *ir.Function, frame *Frame, node *ir.Node, nameA, nameB string, op func(ir.TypeKind, float32, float32) float32) (Value, error) {
	a, err := e.resolveNumericArg(fn, frame, node, nameA)
	if err != nil {
		return Value{}, err
	}
	b, err := e.resolveNumericArg(fn, frame, node, nameB)
	if err != nil {
		return Value{}, err
	}
	return combineNumeric(a, b, op)
}

func combineNumeric(a, b Value, op func(ir.TypeKind, float32, float32) float32) (Value, error) {
	common, ca, cb, ok := ir.Unify(a.Type, b.Type)
	if !ok {
		return Value{}, ir.ValidationError{Kind: ir.ErrTypeMismatch, Message: "incompatible operand shapes at runtime"}
	}
	wa, wb := Widen(a, ca, common), Widen(b, cb, common)
	if arity, isVec := common.VectorArity(); isVec {
		out := Value{Type: common}
		for i := 0; i < arity; i++ {
			out.Vec[i] = op(elementKind(common), wa.Vec[i], wb.Vec[i])
		}
		return out, nil
	}
	return Value{Type: common, Num: op(common.Kind, wa.Num, wb.Num)}, nil
}

func elementKind(t ir.Type) ir.TypeKind {
	if t.IsIntVector() {
		return ir.KindInt
	}
	return ir.KindFloat
}

func (e *Evaluator) unaryNumeric(fn *ir.Function, frame *Frame, node *ir.Node, name string, op func(float32) float32) (Value, error) {
	a, err := e.resolveNumericArg(fn, frame, node, name)
	if err != nil {
		return Value{}, err
	}
	if arity, isVec := a.Type.VectorArity(); isVec {
		out := Value{Type: a.Type}
		for i := 0; i < arity; i++ {
			out.Vec[i] = op(a.Vec[i])
		}
		return out, nil
	}
	return Value{Type: a.Type, Num: op(a.Num)}, nil
}

func (e *Evaluator) comparison(fn *ir.Function, frame *Frame, node *ir.Node, cmp func(a, b Value) bool) (Value, error) {
	a, err := e.resolveNumericArg(fn, frame, node, "a")
	if err != nil {
		return Value{}, err
	}
	b, err := e.resolveNumericArg(fn, frame, node, "b")
	if err != nil {
		return Value{}, err
	}
	common, ca, cb, ok := ir.Unify(a.Type, b.Type)
	if ok {
		a, b = Widen(a, ca, common), Widen(b, cb, common)
	}
	return Bool(cmp(a, b)), nil
}

func (e *Evaluator) resolveBoolPair(fn *ir.Function, frame *Frame, node *ir.Node) (bool, bool, error) {
	a, err := e.resolveNumericArg(fn, frame, node, "a")
	if err != nil {
		return false, false, err
	}
	b, err := e.resolveNumericArg(fn, frame, node, "b")
	if err != nil {
		return false, false, err
	}
	return a.AsBool(), b.AsBool(), nil
}

func (e *Evaluator) clamp(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	a, err := e.resolveNumericArg(fn, frame, node, "a")
	if err != nil {
		return Value{}, err
	}
	lo, err := e.resolveNumericArg(fn, frame, node, "lo")
	if err != nil {
		return Value{}, err
	}
	hi, err := e.resolveNumericArg(fn, frame, node, "hi")
	if err != nil {
		return Value{}, err
	}
	v, err := combineNumeric(a, lo, opMax)
	if err != nil {
		return Value{}, err
	}
	return combineNumeric(v, hi, opMin)
}

func (e *Evaluator) mad(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	a, err := e.resolveNumericArg(fn, frame, node, "a")
	if err != nil {
		return Value{}, err
	}
	b, err := e.resolveNumericArg(fn, frame, node, "b")
	if err != nil {
		return Value{}, err
	}
	c, err := e.resolveNumericArg(fn, frame, node, "c")
	if err != nil {
		return Value{}, err
	}
	prod, err := combineNumeric(a, b, opMul)
	if err != nil {
		return Value{}, err
	}
	return combineNumeric(prod, c, opAdd)
}

// swizzle maps pattern (e.g. "xy", "rgba", "x") onto vector's
// components, following the xyzw/rgba convention (spec section 4.2).
func swizzle(v Value, pattern string) Value {
	idx := func(r byte) int {
		switch r {
		case 'x', 'r':
			return 0
		case 'y', 'g':
			return 1
		case 'z', 'b':
			return 2
		case 'w', 'a':
			return 3
		default:
			return -1
		}
	}
	if len(pattern) == 1 {
		i := idx(pattern[0])
		if i < 0 || i >= 4 {
			return Value{}
		}
		elemType := ir.Float()
		if v.Type.IsIntVector() {
			elemType = ir.Int()
		}
		return Value{Type: elemType, Num: v.Vec[i]}
	}
	var out Value
	for i := 0; i < len(pattern) && i < 4; i++ {
		out.Vec[i] = v.Vec[idx(pattern[i])]
	}
	out.Type = vectorTypeFor(v.Type, len(pattern))
	return out
}

func vectorTypeFor(elemSource ir.Type, arity int) ir.Type {
	isInt := elemSource.IsIntVector()
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

func (e *Evaluator) swizzleOp(fn *ir.Function, frame *Frame, node *ir.Node) (Value, error) {
	v, err := e.resolveIdentifierValue(fn, frame, node, "vector")
	if err != nil {
		return Value{}, err
	}
	pattern, _ := node.Args["pattern"].(string)
	return swizzle(v, strings.ToLower(pattern)), nil
}
