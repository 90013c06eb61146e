package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Validator runs the two-pass static validation described in spec
// section 4.3: a structural (schema) pass and a logic (type-inference)
// pass. Both passes accumulate into a single error list; execution may
// proceed only when that list is empty.
type Validator struct {
	doc      *Document
	registry *Registry
	errors   []ValidationError
	seen     map[[2]string]bool // dedup by (node, field) per spec section 8 Property 8

	resources map[string]*Resource
	structs   map[string]*Struct
	functions map[string]*Function
}

// Validate runs the full validator over doc and returns every
// accumulated error (nil/empty means doc is clean).
func Validate(doc *Document, registry *Registry) []ValidationError {
	v := &Validator{
		doc:       doc,
		registry:  registry,
		seen:      make(map[[2]string]bool),
		resources: make(map[string]*Resource, len(doc.Resources)),
		structs:   make(map[string]*Struct, len(doc.Structs)),
		functions: make(map[string]*Function, len(doc.Functions)),
	}
	for i := range doc.Resources {
		v.resources[doc.Resources[i].ID] = &doc.Resources[i]
	}
	for i := range doc.Structs {
		v.structs[doc.Structs[i].ID] = &doc.Structs[i]
	}
	for i := range doc.Functions {
		doc.Functions[i].Index()
		v.functions[doc.Functions[i].ID] = &doc.Functions[i]
	}

	for i := range doc.Functions {
		v.validateFunction(&doc.Functions[i])
	}
	return v.errors
}

func (v *Validator) addError(kind ErrorKind, fn, node, arg, format string, args ...interface{}) {
	// Property 8: never emit the same (node, field) pair twice for the
	// same underlying offence; distinguish by full message text so
	// genuinely distinct errors on one field can still both surface.
	key := [2]string{node, arg + "|" + fmt.Sprintf(format, args...)}
	if v.seen[key] {
		return
	}
	v.seen[key] = true
	v.errors = append(v.errors, ValidationError{
		Kind: kind, Function: fn, Node: node, Arg: arg,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *Validator) validateFunction(fn *Function) {
	types := make(map[string]Type, len(fn.Nodes))
	for i := range fn.Nodes {
		n := &fn.Nodes[i]
		v.validateNodeSchema(fn, n)
		v.inferNodeType(fn, n, types)
	}
}

// validateNodeSchema runs the structural pass for one node: op exists,
// required args present, literal/ref shapes accepted, identifiers
// resolve in scope, resource-kind matches, host-only gating.
func (v *Validator) validateNodeSchema(fn *Function, n *Node) {
	op, ok := v.registry.Lookup(n.Op)
	if !ok {
		v.addError(ErrSchema, fn.ID, n.ID, "op", "unknown op %q", n.Op)
		return
	}

	if op.HostOnly && fn.Kind != FuncCPU {
		v.addError(ErrHostOnlyInShader, fn.ID, n.ID, "op", "host-only op %q not allowed in shader functions", n.Op)
	}

	if n.Op == "quat" {
		v.validateQuatForm(fn, n)
	}

	for _, ad := range op.Args {
		val, present := v.lookupArg(n, ad)
		if !present {
			if ad.Required {
				v.addError(ErrMissingArg, fn.ID, n.ID, ad.Name, "Missing required argument for op '%s'", n.Op)
			}
			continue
		}
		v.validateArgValue(fn, n, ad, val)
	}

	// Reject argument keys the op's schema does not recognise (not one
	// of the declared names or their aliases).
	known := map[string]bool{}
	for _, ad := range op.Args {
		known[ad.Name] = true
		for _, a := range ad.Aliases {
			known[a] = true
		}
	}
	if n.Op == "literal" {
		known["type"] = true
	}
	for key := range n.Args {
		if !known[key] {
			v.addError(ErrSchema, fn.ID, n.ID, key, "unrecognized argument %q for op '%s'", key, n.Op)
		}
	}

	if n.Op == "literal" {
		v.validateLiteralType(fn, n)
	}
	if n.Op == "buffer_store" || n.Op == "buffer_load" {
		v.validateBufferAccess(fn, n)
	}
}

// lookupArg finds an argument's raw value by its canonical name or any
// declared alias.
func (v *Validator) lookupArg(n *Node, ad ArgDescriptor) (interface{}, bool) {
	if val, ok := n.Args[ad.Name]; ok {
		return val, true
	}
	for _, alias := range ad.Aliases {
		if val, ok := n.Args[alias]; ok {
			return val, true
		}
	}
	return nil, false
}

func (v *Validator) validateArgValue(fn *Function, n *Node, ad ArgDescriptor, val interface{}) {
	if s, ok := val.(string); ok {
		if ref, isRef := ResolveDataRef(fn, s); isRef {
			_ = ref
			return
		}
		if ad.RequiredRef {
			v.validateIdentifierRef(fn, n, ad, s)
			return
		}
	}
	_ = ad
}

// validateIdentifierRef resolves a required-ref argument (resource,
// function, var, struct, builtin, const, field, loop tag) according to
// its RefKind, emitting ErrUnresolved if it does not exist in scope.
func (v *Validator) validateIdentifierRef(fn *Function, n *Node, ad ArgDescriptor, name string) {
	switch ad.RefKind {
	case RefResource:
		res, ok := v.resources[name]
		if !ok {
			v.addError(ErrUnresolved, fn.ID, n.ID, ad.Name, "Referenced resource/function/variable '%s' does not exist", name)
			return
		}
		if ad.PrimaryResource {
			v.validateResourceKind(fn, n, name, res)
		}
	case RefFunc:
		if _, ok := v.functions[name]; !ok {
			v.addError(ErrUnresolved, fn.ID, n.ID, ad.Name, "Referenced resource/function/variable '%s' does not exist", name)
		}
	case RefStruct:
		if _, ok := v.structs[name]; !ok {
			v.addError(ErrUnresolved, fn.ID, n.ID, ad.Name, "Referenced resource/function/variable '%s' does not exist", name)
		}
	case RefVar:
		if !v.varInScope(fn, name) {
			v.addError(ErrUnresolved, fn.ID, n.ID, ad.Name, "Referenced resource/function/variable '%s' does not exist", name)
		}
	case RefConst:
		if !isEngineConstant(name) {
			v.addError(ErrInvalidConstName, fn.ID, n.ID, ad.Name, "Invalid constant name '%s'", name)
		}
	case RefBuiltin:
		// Builtins are validated against the fixed builtin set; an
		// unknown name is a schema error since builtins are a closed
		// enumeration (spec section 4.6).
		if !isKnownBuiltin(name) {
			v.addError(ErrSchema, fn.ID, n.ID, ad.Name, "unknown builtin '%s'", name)
		}
	case RefField, RefLoop:
		// Field/loop-tag validity is checked contextually during type
		// inference (struct_extract, loop_index), not here.
	}
}

func (v *Validator) varInScope(fn *Function, name string) bool {
	for _, in := range fn.Inputs {
		if in.Name == name {
			return true
		}
	}
	for _, lv := range fn.LocalVars {
		if lv.Name == name {
			return true
		}
	}
	return false
}

func isEngineConstant(name string) bool {
	switch name {
	case "PI", "TAU", "E":
		return true
	}
	return false
}

func isKnownBuiltin(name string) bool {
	switch Builtin(name) {
	case BuiltinTime, BuiltinDeltaTime, BuiltinBPM, BuiltinBeatNumber, BuiltinBeatDelta,
		BuiltinOutputSize, BuiltinPosition, BuiltinVertexIndex:
		return true
	}
	return false
}

// validateResourceKind enforces that a primary-resource argument names
// a resource of the kind the op requires (spec section 4.3).
func (v *Validator) validateResourceKind(fn *Function, n *Node, name string, res *Resource) {
	wantBuffer := map[string]bool{"buffer_load": true, "buffer_store": true, "cmd_copy_buffer": true}
	wantTexture := map[string]bool{"texture_sample": true, "texture_load": true, "texture_store": true}
	wantAtomic := map[string]bool{
		"atomic_load": true, "atomic_store": true, "atomic_add": true, "atomic_sub": true,
		"atomic_min": true, "atomic_max": true, "atomic_exchange": true,
	}
	switch {
	case wantBuffer[n.Op] && res.Kind != ResourceBuffer:
		v.addError(ErrTypeMismatch, fn.ID, n.ID, "buffer", "Type Mismatch: op '%s' requires a buffer resource, '%s' is not one", n.Op, name)
	case wantTexture[n.Op] && res.Kind != ResourceTexture2D:
		v.addError(ErrTypeMismatch, fn.ID, n.ID, "texture", "Type Mismatch: op '%s' requires a texture resource, '%s' is not one", n.Op, name)
	case wantAtomic[n.Op]:
		if res.Kind != ResourceAtomicCounter {
			v.addError(ErrTypeMismatch, fn.ID, n.ID, "counter", "Type Mismatch: op '%s' requires an atomic_counter resource, '%s' is not one", n.Op, name)
		} else if res.ElementType.Kind != KindInt {
			v.addError(ErrTypeMismatch, fn.ID, n.ID, "counter", "Type Mismatch: atomic counter '%s' must have element type int", name)
		}
	}
}

// validateQuatForm enforces the Open Question resolution: a quat node
// must use exactly one of the {axis,angle} or {x,y,z,w} argument sets.
func (v *Validator) validateQuatForm(fn *Function, n *Node) {
	_, hasAxis := n.Args["axis"]
	_, hasAngle := n.Args["angle"]
	axisForm := hasAxis || hasAngle

	hasXYZW := true
	for _, k := range []string{"x", "y", "z", "w"} {
		if _, ok := n.Args[k]; !ok {
			hasXYZW = false
			break
		}
	}

	switch {
	case axisForm && hasXYZW:
		v.addError(ErrSchema, fn.ID, n.ID, "", "quat node must use exactly one of {axis,angle} or {x,y,z,w}, not both")
	case !axisForm && !hasXYZW:
		v.addError(ErrSchema, fn.ID, n.ID, "", "quat node must specify either {axis,angle} or {x,y,z,w}")
	case axisForm && (!hasAxis || !hasAngle):
		v.addError(ErrMissingArg, fn.ID, n.ID, "axis", "Missing required argument for op 'quat'")
	}
}

// validateLiteralType rejects an explicit literal type that is not in
// the closed type lattice.
func (v *Validator) validateLiteralType(fn *Function, n *Node) {
	raw, ok := n.Args["type"]
	if !ok {
		return
	}
	name, ok := raw.(string)
	if !ok {
		return
	}
	if _, ok := kindByName(name); !ok {
		v.addError(ErrInvalidExplicitTy, fn.ID, n.ID, "type", "Invalid explicit type '%s'", name)
	}
}

func kindByName(name string) (TypeKind, bool) {
	for k, s := range kindNames {
		if s == name {
			return k, true
		}
	}
	return 0, false
}

// validateBufferAccess checks literal-index static bounds and sign,
// against the buffer's fixed size, when both the index and the
// buffer's size are statically known (spec section 4.3).
func (v *Validator) validateBufferAccess(fn *Function, n *Node) {
	raw, ok := n.Args["index"]
	if !ok {
		return
	}
	idx, isLiteral := asNumber(raw)
	if !isLiteral {
		return
	}
	if idx < 0 {
		v.addError(ErrNegativeIndex, fn.ID, n.ID, "index", "Invalid Negative Index: %v", idx)
		return
	}
	bufName, _ := n.Args["buffer"].(string)
	res, ok := v.resources[bufName]
	if !ok || res.Size.TracksViewport {
		return
	}
	if int(idx) >= res.Size.Width {
		v.addError(ErrStaticOOB, fn.ID, n.ID, "index", "Static OOB Access: index %v >= size %d", idx, res.Size.Width)
	}
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// inferNodeType walks a node's pure-data arguments, computing its
// result type and recording mismatches. Side-effecting/control-flow
// nodes have no result type and are skipped.
func (v *Validator) inferNodeType(fn *Function, n *Node, types map[string]Type) {
	op, ok := v.registry.Lookup(n.Op)
	if !ok {
		return
	}

	switch n.Op {
	case "math_add", "math_sub", "math_mul", "math_div", "math_mod", "math_pow", "math_atan2",
		"math_min", "math_max", "math_step", "clamp", "mad",
		"cmp_eq", "cmp_ne", "cmp_lt", "cmp_le", "cmp_gt", "cmp_ge":
		v.inferBinaryLike(fn, n, types, op)
	case "struct_extract":
		v.inferStructExtract(fn, n, types)
	case "swizzle":
		v.inferSwizzle(fn, n, types)
	}
}

func (v *Validator) resolvedArgType(fn *Function, val interface{}, types map[string]Type) (Type, bool) {
	s, ok := val.(string)
	if !ok {
		return Type{}, false
	}
	ref, isRef := ResolveDataRef(fn, s)
	if !isRef {
		return Type{}, false
	}
	t, ok := types[ref.NodeID]
	return t, ok
}

func (v *Validator) inferBinaryLike(fn *Function, n *Node, types map[string]Type, op OpDescriptor) {
	if len(op.Args) < 2 {
		return
	}
	aVal, aOK := v.lookupArg(n, op.Args[0])
	bVal, bOK := v.lookupArg(n, op.Args[1])
	if !aOK || !bOK {
		return
	}
	aT, aKnown := v.resolvedArgType(fn, aVal, types)
	bT, bKnown := v.resolvedArgType(fn, bVal, types)
	if !aKnown || !bKnown {
		return
	}
	result, _, _, ok := Unify(aT, bT)
	if !ok {
		v.addError(ErrTypeMismatch, fn.ID, n.ID, "", "Type Mismatch: incompatible operand shapes %s and %s for op '%s'", aT, bT, n.Op)
		return
	}
	if op.ResultKind == KindBool {
		types[n.ID] = Bool()
	} else {
		types[n.ID] = result
	}
}

func (v *Validator) inferStructExtract(fn *Function, n *Node, types map[string]Type) {
	val, ok := n.Args["value"]
	if !ok {
		return
	}
	t, known := v.resolvedArgType(fn, val, types)
	if !known {
		return
	}
	if t.Kind != KindStruct {
		v.addError(ErrTypeMismatch, fn.ID, n.ID, "value", "Type Mismatch: struct_extract on non-struct type %s", t)
		return
	}
	st, ok := v.structs[t.Struct]
	if !ok {
		return
	}
	field, _ := n.Args["field"].(string)
	for _, m := range st.Members {
		if m.Name == field {
			types[n.ID] = m.Type
			return
		}
	}
	v.addError(ErrUnresolved, fn.ID, n.ID, "field", "Referenced resource/function/variable '%s' does not exist", field)
}

func (v *Validator) inferSwizzle(fn *Function, n *Node, types map[string]Type) {
	val, ok := n.Args["vector"]
	if !ok {
		return
	}
	t, known := v.resolvedArgType(fn, val, types)
	if !known {
		return
	}
	if !t.IsVector() {
		v.addError(ErrTypeMismatch, fn.ID, n.ID, "vector", "Type Mismatch: swizzle on non-vector type %s", t)
		return
	}
	pattern, _ := n.Args["pattern"].(string)
	arity, _ := t.VectorArity()
	for _, c := range pattern {
		idx := strings.IndexRune("xyzw", c)
		if idx < 0 || idx >= arity {
			v.addError(ErrTypeMismatch, fn.ID, n.ID, "pattern", "Type Mismatch: swizzle component '%c' out of arity for %s", c, t)
			return
		}
	}
	switch len(pattern) {
	case 1:
		if t.IsFloatVector() {
			types[n.ID] = Float()
		} else {
			types[n.ID] = Int()
		}
	case 2:
		if t.IsFloatVector() {
			types[n.ID] = Float2()
		} else {
			types[n.ID] = Int2()
		}
	case 3:
		if t.IsFloatVector() {
			types[n.ID] = Float3()
		} else {
			types[n.ID] = Int3()
		}
	case 4:
		if t.IsFloatVector() {
			types[n.ID] = Float4()
		} else {
			types[n.ID] = Int4()
		}
	}
}

// SortErrors orders a ValidationError slice deterministically by
// function then node then arg, for stable diagnostics output.
func SortErrors(errs []ValidationError) {
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Function != errs[j].Function {
			return errs[i].Function < errs[j].Function
		}
		if errs[i].Node != errs[j].Node {
			return errs[i].Node < errs[j].Node
		}
		return errs[i].Arg < errs[j].Arg
	})
}
