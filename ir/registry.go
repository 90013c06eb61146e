package ir

// ExecKind classifies how an operation participates in execution order
// and where it may legally appear (spec section 4.2).
type ExecKind uint8

const (
	ExecPure ExecKind = iota
	ExecSideEffecting
	ExecControlFlow
	ExecHostOnly
	ExecDeviceOnly
	ExecEither
)

// RefKind classifies what an argument reference resolves to, when the
// argument's value is an identifier rather than a literal.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefData
	RefExec
	RefVar
	RefFunc
	RefResource
	RefStruct
	RefBuiltin
	RefLoop
	RefField
	RefConst
)

// LiteralKind enumerates the literal value shapes an argument may
// accept, independent of whether it is also refable.
type LiteralKind uint8

const (
	LitNone LiteralKind = iota
	LitNumber
	LitString
	LitBool
	LitArray
)

// ArgDescriptor describes one named argument an op accepts.
type ArgDescriptor struct {
	Name string

	// Required, when false, means the argument may be omitted.
	Required bool

	// LiteralTypes lists the literal shapes accepted directly.
	LiteralTypes []LiteralKind

	// Refable means the argument's value may be a data reference
	// (a string naming another node/var/resource/etc) in addition to
	// any accepted literal. RequiredRef means it must be one.
	Refable     bool
	RequiredRef bool
	RefKind     RefKind

	// Identifier means the argument names something (a var, a
	// resource, a constant) rather than carrying a value itself; such
	// arguments are never themselves literals even when Refable.
	Identifier bool

	// PrimaryResource marks the argument validators use to determine
	// which resource kind (buffer/texture/atomic_counter) this op
	// requires.
	PrimaryResource bool

	// Aliases lists alternative argument-name spellings accepted in
	// place of Name (spec section 9, Open Question: math_step's
	// edge/x vs edge/val naming). An unrecognised alternative key is a
	// schema error.
	Aliases []string
}

// OpDescriptor is the registry entry for one operation: its accepted
// arguments, execution kind, and documentation. The registry is the
// single source of truth consumed by the validator, the evaluator, and
// both code generators (spec section 4.2).
type OpDescriptor struct {
	Name string
	Doc  string
	Exec ExecKind

	// HostOnly is redundant with Exec == ExecHostOnly but kept as an
	// explicit gate so ExecEither ops can still be restricted.
	HostOnly bool

	Args []ArgDescriptor

	// ResultKind, when non-zero, gives the op a type-independent of its
	// arguments (e.g. comparisons always produce bool). KindInvalid
	// means the validator must infer the result type from arguments.
	ResultKind TypeKind
}

// Registry is the catalog of every operation the engine understands.
type Registry struct {
	ops map[string]OpDescriptor
}

// NewRegistry builds the standard op registry (spec section 4.2).
func NewRegistry() *Registry {
	r := &Registry{ops: make(map[string]OpDescriptor, 128)}
	for _, op := range standardOps() {
		r.ops[op.Name] = op
	}
	return r
}

// Lookup returns the descriptor for name, or ok=false if name is not a
// registered op (an unknown op is a validation error, spec section 6).
func (r *Registry) Lookup(name string) (OpDescriptor, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Names returns every registered op name, for documentation helpers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	return names
}

func arg(name string, required bool) ArgDescriptor {
	return ArgDescriptor{Name: name, Required: required, LiteralTypes: []LiteralKind{LitNumber}, Refable: true, RefKind: RefData}
}

func refArg(name string, kind RefKind, required bool) ArgDescriptor {
	return ArgDescriptor{Name: name, Required: required, Refable: true, RequiredRef: true, RefKind: kind, Identifier: true}
}

// standardOps enumerates the op catalog from spec section 4.2: numeric/
// logic/comparison/equality/cast, constructors, swizzle/element access,
// texture and buffer access, atomics, matrix/quaternion helpers, struct/
// array ops, commands, and control flow.
func standardOps() []OpDescriptor {
	var ops []OpDescriptor

	binaryNumeric := func(name, doc string) OpDescriptor {
		return OpDescriptor{Name: name, Doc: doc, Exec: ExecPure, Args: []ArgDescriptor{arg("a", true), arg("b", true)}}
	}
	unaryNumeric := func(name, doc string) OpDescriptor {
		return OpDescriptor{Name: name, Doc: doc, Exec: ExecPure, Args: []ArgDescriptor{arg("a", true)}}
	}
	comparison := func(name, doc string) OpDescriptor {
		return OpDescriptor{Name: name, Doc: doc, Exec: ExecPure, ResultKind: KindBool, Args: []ArgDescriptor{arg("a", true), arg("b", true)}}
	}

	ops = append(ops,
		binaryNumeric("math_add", "Addition, with scalar-broadcast and int/float unification."),
		binaryNumeric("math_sub", "Subtraction."),
		binaryNumeric("math_mul", "Multiplication."),
		binaryNumeric("math_div", "Division; integer operands truncate toward zero."),
		binaryNumeric("math_mod", "Modulo (remainder)."),
		binaryNumeric("math_pow", "Power."),
		binaryNumeric("math_atan2", "Two-argument arctangent."),
		binaryNumeric("math_min", "Minimum of two values."),
		binaryNumeric("math_max", "Maximum of two values."),
		OpDescriptor{
			Name: "math_step", Doc: "Step function: edge2 < edge ? 0 : 1. The second argument accepts the aliases x or val.",
			Exec: ExecPure,
			Args: []ArgDescriptor{
				{Name: "edge", Required: true, LiteralTypes: []LiteralKind{LitNumber}, Refable: true, RefKind: RefData},
				{Name: "edge2", Required: true, LiteralTypes: []LiteralKind{LitNumber}, Refable: true, RefKind: RefData, Aliases: []string{"x", "val"}},
			},
		},
		unaryNumeric("math_neg", "Arithmetic negation."),
		unaryNumeric("math_abs", "Absolute value."),
		unaryNumeric("math_sqrt", "Square root."),
		unaryNumeric("math_sin", "Sine."),
		unaryNumeric("math_cos", "Cosine."),
		unaryNumeric("math_floor", "Round toward negative infinity."),
		unaryNumeric("math_fract", "Fractional part."),

		comparison("cmp_eq", "Equality comparison."),
		comparison("cmp_ne", "Inequality comparison."),
		comparison("cmp_lt", "Less-than comparison."),
		comparison("cmp_le", "Less-or-equal comparison."),
		comparison("cmp_gt", "Greater-than comparison."),
		comparison("cmp_ge", "Greater-or-equal comparison."),

		OpDescriptor{Name: "logic_and", Doc: "Logical AND.", Exec: ExecPure, ResultKind: KindBool, Args: []ArgDescriptor{arg("a", true), arg("b", true)}},
		OpDescriptor{Name: "logic_or", Doc: "Logical OR.", Exec: ExecPure, ResultKind: KindBool, Args: []ArgDescriptor{arg("a", true), arg("b", true)}},
		OpDescriptor{Name: "logic_not", Doc: "Logical NOT.", Exec: ExecPure, ResultKind: KindBool, Args: []ArgDescriptor{arg("a", true)}},

		OpDescriptor{Name: "clamp", Doc: "Clamp a to [lo, hi].", Exec: ExecPure, Args: []ArgDescriptor{arg("a", true), arg("lo", true), arg("hi", true)}},
		OpDescriptor{Name: "mad", Doc: "Fused multiply-add: a*b+c.", Exec: ExecPure, Args: []ArgDescriptor{arg("a", true), arg("b", true), arg("c", true)}},

		OpDescriptor{
			Name: "cast_bool_to_float", Doc: "Explicit bool->{0.0,1.0} cast.", Exec: ExecPure,
			Args: []ArgDescriptor{arg("value", true)},
		},
		OpDescriptor{
			Name: "static_cast_int", Doc: "Float->int cast with wrapping semantics on out-of-range values.", Exec: ExecPure,
			Args: []ArgDescriptor{arg("value", true)},
		},

		OpDescriptor{
			Name: "literal", Doc: "A typed literal constant.", Exec: ExecPure,
			Args: []ArgDescriptor{
				{Name: "value", Required: true, LiteralTypes: []LiteralKind{LitNumber, LitString, LitBool, LitArray}},
				{Name: "type", Required: false, LiteralTypes: []LiteralKind{LitString}},
			},
		},
		OpDescriptor{
			Name: "vec_construct", Doc: "Typed vector/matrix constructor from components.", Exec: ExecPure,
			Args: []ArgDescriptor{{Name: "components", Required: true, LiteralTypes: []LiteralKind{LitArray}, Refable: true, RefKind: RefData}},
		},
		OpDescriptor{
			Name: "swizzle", Doc: "Vector component access/reorder by pattern (e.g. \"xy\", \"zw\").", Exec: ExecPure,
			Args: []ArgDescriptor{refArg("vector", RefData, true), {Name: "pattern", Required: true, LiteralTypes: []LiteralKind{LitString}}},
		},

		OpDescriptor{
			Name: "texture_sample", Doc: "Sample a texture at normalized coordinates.", Exec: ExecEither,
			Args: []ArgDescriptor{
				{Name: "texture", Required: true, Refable: true, RequiredRef: true, RefKind: RefResource, Identifier: true, PrimaryResource: true},
				refArg("coord", RefData, true),
			},
		},
		OpDescriptor{
			Name: "texture_load", Doc: "Load a texel at integer coordinates.", Exec: ExecEither,
			Args: []ArgDescriptor{
				{Name: "texture", Required: true, Refable: true, RequiredRef: true, RefKind: RefResource, Identifier: true, PrimaryResource: true},
				refArg("coord", RefData, true),
			},
		},
		OpDescriptor{
			Name: "texture_store", Doc: "Store a texel at integer coordinates.", Exec: ExecSideEffecting,
			Args: []ArgDescriptor{
				{Name: "texture", Required: true, Refable: true, RequiredRef: true, RefKind: RefResource, Identifier: true, PrimaryResource: true},
				refArg("coord", RefData, true),
				refArg("value", RefData, true),
			},
		},

		OpDescriptor{
			Name: "buffer_load", Doc: "Load an element from a buffer at index.", Exec: ExecEither,
			Args: []ArgDescriptor{
				{Name: "buffer", Required: true, Refable: true, RequiredRef: true, RefKind: RefResource, Identifier: true, PrimaryResource: true},
				arg("index", true),
			},
		},
		OpDescriptor{
			Name: "buffer_store", Doc: "Store an element into a buffer at index.", Exec: ExecSideEffecting,
			Args: []ArgDescriptor{
				{Name: "buffer", Required: true, Refable: true, RequiredRef: true, RefKind: RefResource, Identifier: true, PrimaryResource: true},
				arg("index", true),
				arg("value", true),
			},
		},

		OpDescriptor{
			Name: "atomic_load", Doc: "Sequentially-consistent load of an atomic cell.", Exec: ExecEither,
			Args: []ArgDescriptor{atomicResourceArg(), arg("index", true)},
		},
		OpDescriptor{
			Name: "atomic_store", Doc: "Sequentially-consistent store to an atomic cell.", Exec: ExecSideEffecting,
			Args: []ArgDescriptor{atomicResourceArg(), arg("index", true), arg("value", true)},
		},
	)
	for _, fn := range []string{"add", "sub", "min", "max", "exchange"} {
		ops = append(ops, OpDescriptor{
			Name: "atomic_" + fn,
			Doc:  "Atomic read-modify-write, returning the value strictly before the modification.",
			Exec: ExecSideEffecting,
			Args: []ArgDescriptor{atomicResourceArg(), arg("index", true), arg("value", true)},
		})
	}

	ops = append(ops,
		OpDescriptor{
			Name: "mat_mul", Doc: "Matrix-vector or matrix-matrix multiplication.", Exec: ExecPure,
			Args: []ArgDescriptor{arg("a", true), arg("b", true)},
		},
		OpDescriptor{
			Name: "quat", Doc: "Quaternion construction: exactly one of {axis,angle} or {x,y,z,w}.", Exec: ExecPure,
			Args: []ArgDescriptor{
				{Name: "axis", Required: false, Refable: true, RefKind: RefData},
				{Name: "angle", Required: false, Refable: true, RefKind: RefData, LiteralTypes: []LiteralKind{LitNumber}},
				{Name: "x", Required: false, Refable: true, RefKind: RefData, LiteralTypes: []LiteralKind{LitNumber}},
				{Name: "y", Required: false, Refable: true, RefKind: RefData, LiteralTypes: []LiteralKind{LitNumber}},
				{Name: "z", Required: false, Refable: true, RefKind: RefData, LiteralTypes: []LiteralKind{LitNumber}},
				{Name: "w", Required: false, Refable: true, RefKind: RefData, LiteralTypes: []LiteralKind{LitNumber}},
			},
		},

		OpDescriptor{
			Name: "struct_construct", Doc: "Construct a struct value from named field expressions.", Exec: ExecPure,
			Args: []ArgDescriptor{refArg("struct", RefStruct, true), {Name: "fields", Required: true, LiteralTypes: []LiteralKind{LitArray}}},
		},
		OpDescriptor{
			Name: "struct_extract", Doc: "Extract a named field from a struct value.", Exec: ExecPure,
			Args: []ArgDescriptor{refArg("value", RefData, true), refArg("field", RefField, true)},
		},
		OpDescriptor{
			Name: "array_construct", Doc: "Construct a fixed array from element expressions.", Exec: ExecPure,
			Args: []ArgDescriptor{{Name: "elements", Required: true, LiteralTypes: []LiteralKind{LitArray}}},
		},
		OpDescriptor{
			Name: "array_extract", Doc: "Read an array element by index.", Exec: ExecPure,
			Args: []ArgDescriptor{refArg("array", RefData, true), arg("index", true)},
		},
		OpDescriptor{
			Name: "array_set", Doc: "Write an array element by index (in-place on a local/resource-backed array).", Exec: ExecSideEffecting,
			Args: []ArgDescriptor{refArg("array", RefVar, true), arg("index", true), arg("value", true)},
		},
		OpDescriptor{
			Name: "array_length", Doc: "Length of an array value.", Exec: ExecPure, ResultKind: KindInt,
			Args: []ArgDescriptor{refArg("array", RefData, true)},
		},

		OpDescriptor{
			Name: "cmd_dispatch", Doc: "Dispatch a shader function over a thread-count grid.", Exec: ExecHostOnly, HostOnly: true,
			Args: []ArgDescriptor{refArg("shader", RefFunc, true), {Name: "threads", Required: true, LiteralTypes: []LiteralKind{LitArray}, Refable: true, RefKind: RefData}},
		},
		OpDescriptor{
			Name: "cmd_draw", Doc: "Issue a draw call with a vertex and fragment function pair.", Exec: ExecHostOnly, HostOnly: true,
			Args: []ArgDescriptor{
				refArg("target", RefResource, true),
				refArg("vertex", RefFunc, true),
				refArg("fragment", RefFunc, true),
				arg("count", true),
			},
		},
		OpDescriptor{
			Name: "cmd_resize_resource", Doc: "Resize a resource; honors its clearOnResize policy.", Exec: ExecHostOnly, HostOnly: true,
			Args: []ArgDescriptor{refArg("resource", RefResource, true), {Name: "size", Required: true, LiteralTypes: []LiteralKind{LitArray, LitNumber}, Refable: true, RefKind: RefData}},
		},
		OpDescriptor{
			Name: "cmd_copy_buffer", Doc: "Elementwise copy between two same-element-type resources.", Exec: ExecHostOnly, HostOnly: true,
			Args: []ArgDescriptor{refArg("src", RefResource, true), refArg("dst", RefResource, true)},
		},
		OpDescriptor{
			Name: "cmd_sync_to_cpu", Doc: "Request host-visible coherency for a CPU-accessible resource.", Exec: ExecHostOnly, HostOnly: true,
			Args: []ArgDescriptor{refArg("resource", RefResource, true)},
		},
		OpDescriptor{
			Name: "cmd_wait_cpu_sync", Doc: "Block until a prior cmd_sync_to_cpu for this resource is observable.", Exec: ExecHostOnly, HostOnly: true,
			Args: []ArgDescriptor{refArg("resource", RefResource, true)},
		},

		OpDescriptor{
			Name: "var_get", Doc: "Read a local variable or function input.", Exec: ExecPure,
			Args: []ArgDescriptor{refArg("name", RefVar, true)},
		},
		OpDescriptor{
			Name: "var_set", Doc: "Write a local variable.", Exec: ExecSideEffecting,
			Args: []ArgDescriptor{refArg("name", RefVar, true), arg("value", true)},
		},
		OpDescriptor{
			Name: "builtin_get", Doc: "Read a CPU-injected or stage builtin.", Exec: ExecPure,
			Args: []ArgDescriptor{refArg("name", RefBuiltin, true)},
		},
		OpDescriptor{
			Name: "const_get", Doc: "Read a named engine constant.", Exec: ExecPure,
			Args: []ArgDescriptor{refArg("name", RefConst, true)},
		},
		OpDescriptor{
			Name: "loop_index", Doc: "Read the current index of an enclosing flow_loop by tag.", Exec: ExecPure, ResultKind: KindInt,
			Args: []ArgDescriptor{refArg("tag", RefLoop, true)},
		},
		OpDescriptor{
			Name: "flow_branch", Doc: "Evaluate cond and follow exec_true or exec_false.", Exec: ExecControlFlow,
			Args: []ArgDescriptor{arg("cond", true)},
		},
		OpDescriptor{
			Name: "flow_loop", Doc: "Iterate exec_body either [0,count) or [start,end), exposing the index to loop_index nodes sharing tag.", Exec: ExecControlFlow,
			Args: []ArgDescriptor{
				{Name: "tag", Required: true, LiteralTypes: []LiteralKind{LitString}},
				{Name: "count", Required: false, Refable: true, RefKind: RefData, LiteralTypes: []LiteralKind{LitNumber}},
				{Name: "start", Required: false, Refable: true, RefKind: RefData, LiteralTypes: []LiteralKind{LitNumber}},
				{Name: "end", Required: false, Refable: true, RefKind: RefData, LiteralTypes: []LiteralKind{LitNumber}},
			},
		},
		OpDescriptor{
			Name: "call_func", Doc: "Call another function, binding named arguments in declaration order or by name.", Exec: ExecEither,
			Args: []ArgDescriptor{refArg("func", RefFunc, true), {Name: "args", Required: false, LiteralTypes: []LiteralKind{LitArray}}},
		},
		OpDescriptor{
			Name: "func_return", Doc: "Unwind the current frame, optionally with a value.", Exec: ExecControlFlow,
			Args: []ArgDescriptor{{Name: "value", Required: false, Refable: true, RefKind: RefData, LiteralTypes: []LiteralKind{LitNumber, LitString, LitBool, LitArray}}},
		},
		OpDescriptor{
			Name: "comment", Doc: "No-op annotation node.", Exec: ExecPure,
			Args: nil,
		},
	)

	return ops
}

func atomicResourceArg() ArgDescriptor {
	return ArgDescriptor{Name: "counter", Required: true, Refable: true, RequiredRef: true, RefKind: RefResource, Identifier: true, PrimaryResource: true}
}

// StepArgAliases returns the canonical name and accepted aliases for
// math_step's second argument (spec section 9, Open Question).
func StepArgAliases() (canonical string, aliases []string) {
	return "edge2", []string{"x", "val"}
}
