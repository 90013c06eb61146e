package conformance

import (
	"github.com/gogpu/shadeflow/eval"
	"github.com/gogpu/shadeflow/ir"
)

// Scenario is one of the six named end-to-end fixtures spec.md section
// 8 specifies literally (inputs, expected outputs). Build constructs a
// fresh Document each call so a caller may mutate it freely.
type Scenario struct {
	Name  string
	Build func() *ir.Document
}

// Scenarios lists the six lettered fixtures in spec order.
var Scenarios = []Scenario{
	{Name: "a-resize-then-dispatch", Build: resizeThenDispatchDoc},
	{Name: "b-atomic-accumulation", Build: atomicAccumulationDoc},
	{Name: "c-struct-extract", Build: structExtractDoc},
	{Name: "d-static-oob", Build: staticOOBDoc},
	{Name: "e-division-semantics", Build: divisionSemanticsDoc},
	{Name: "f-matrix-vector", Build: matrixVectorDoc},
}

func indexed(fn *ir.Function) ir.Function {
	fn.Index()
	return *fn
}

// resizeThenDispatchDoc is scenario (a): b_output starts at size 2,
// main resizes it to 10 then dispatches shader_fill, which stores
// gid.x at b_output[gid.x]. Expected: width 10, data 0..9.
func resizeThenDispatchDoc() *ir.Document {
	doc := &ir.Document{
		EntryPoint: "main",
		Resources: []ir.Resource{
			{ID: "b_output", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 2}},
		},
		Functions: []ir.Function{
			indexed(&ir.Function{
				ID:   "shader_fill",
				Kind: ir.FuncShader,
				Nodes: []ir.Node{
					{
						ID: "store", Op: "buffer_store",
						Args: map[string]interface{}{"buffer": "b_output", "index": "gidx", "value": "gidx"},
					},
					{ID: "gid_v", Op: "var_get", Args: map[string]interface{}{"name": "global_invocation_id"}},
					{ID: "gidx", Op: "swizzle", Args: map[string]interface{}{"vector": "gid_v", "pattern": "x"}},
				},
			}),
			indexed(&ir.Function{
				ID:   "main",
				Kind: ir.FuncCPU,
				Nodes: []ir.Node{
					{
						ID: "resize", Op: "cmd_resize_resource", ExecOut: "dispatch",
						Args: map[string]interface{}{"resource": "b_output", "size": []interface{}{10}},
					},
					{
						ID: "dispatch", Op: "cmd_dispatch",
						Args:    map[string]interface{}{"shader": "shader_fill"},
						Threads: [3]int{10, 1, 1},
					},
				},
			}),
		},
	}
	return doc
}

// atomicAccumulationDoc is scenario (b): 64 threads each atomic_add the
// counter by 1, then a second dispatch reads the total into b_res[0].
// Expected: b_res[0] == 64.
func atomicAccumulationDoc() *ir.Document {
	doc := &ir.Document{
		EntryPoint: "main",
		Resources: []ir.Resource{
			{ID: "cnt", Kind: ir.ResourceAtomicCounter, ElementType: ir.Int(), Size: ir.SizeSpec{Width: 1}},
			{ID: "b_res", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 1}},
		},
		Functions: []ir.Function{
			indexed(&ir.Function{
				ID:   "shader_add",
				Kind: ir.FuncShader,
				Nodes: []ir.Node{
					{
						ID: "add", Op: "atomic_add",
						Args: map[string]interface{}{"counter": "cnt", "index": 0, "value": 1},
					},
				},
			}),
			indexed(&ir.Function{
				ID:   "shader_read",
				Kind: ir.FuncShader,
				Nodes: []ir.Node{
					{
						ID: "store", Op: "buffer_store",
						Args: map[string]interface{}{"buffer": "b_res", "index": 0, "value": "load"},
					},
					{ID: "load", Op: "atomic_load", Args: map[string]interface{}{"counter": "cnt", "index": 0}},
				},
			}),
			indexed(&ir.Function{
				ID:   "main",
				Kind: ir.FuncCPU,
				Nodes: []ir.Node{
					{
						ID: "dispatch_add", Op: "cmd_dispatch", ExecOut: "dispatch_read",
						Args:    map[string]interface{}{"shader": "shader_add"},
						Threads: [3]int{64, 1, 1},
					},
					{
						ID: "dispatch_read", Op: "cmd_dispatch",
						Args:    map[string]interface{}{"shader": "shader_read"},
						Threads: [3]int{1, 1, 1},
					},
				},
			}),
		},
	}
	return doc
}

// structExtractDoc is scenario (c): construct Particle{pos,vel}, extract
// pos, then pos.x into b_result[0]. Expected: b_result[0] == 1.
func structExtractDoc() *ir.Document {
	doc := &ir.Document{
		EntryPoint: "main",
		Structs: []ir.Struct{
			{ID: "Particle", Members: []ir.StructMember{
				{Name: "pos", Type: ir.Float2()},
				{Name: "vel", Type: ir.Float2()},
			}},
		},
		Resources: []ir.Resource{
			{ID: "b_result", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 1}},
		},
		Functions: []ir.Function{
			indexed(&ir.Function{
				ID:   "main",
				Kind: ir.FuncCPU,
				Nodes: []ir.Node{
					{
						ID: "store", Op: "buffer_store",
						Args: map[string]interface{}{"buffer": "b_result", "index": 0, "value": "pos_x"},
					},
					{
						ID: "p", Op: "struct_construct",
						Args: map[string]interface{}{
							"struct": "Particle",
							"fields": []interface{}{
								map[string]interface{}{"name": "pos", "value": []interface{}{1, 2}},
								map[string]interface{}{"name": "vel", "value": []interface{}{0, 0}},
							},
						},
					},
					{ID: "pos", Op: "struct_extract", Args: map[string]interface{}{"value": "p", "field": "pos"}},
					{ID: "pos_x", Op: "swizzle", Args: map[string]interface{}{"vector": "pos", "pattern": "x"}},
				},
			}),
		},
	}
	return doc
}

// staticOOBDoc is scenario (d): buffer size 2, buffer_store at literal
// index 5. Expected: ir.Validate reports an ErrStaticOOB error.
func staticOOBDoc() *ir.Document {
	doc := &ir.Document{
		EntryPoint: "main",
		Resources: []ir.Resource{
			{ID: "buf", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 2}},
		},
		Functions: []ir.Function{
			indexed(&ir.Function{
				ID:   "main",
				Kind: ir.FuncCPU,
				Nodes: []ir.Node{
					{
						ID: "store", Op: "buffer_store",
						Args: map[string]interface{}{"buffer": "buf", "index": 5, "value": 100},
					},
				},
			}),
		},
	}
	return doc
}

// divisionSemanticsDoc is scenario (e): math_div(7,2) typed int truncates
// to 3, typed float yields 3.5, math_div(-7,2) int truncates to -3.
// Expressed as three independent cpu functions (a caller invokes the
// one it wants to check) rather than one Document's single entry point,
// since each case types its literals differently.
func divisionSemanticsDoc() *ir.Document {
	intDiv := func(id string, a, b int) ir.Function {
		return indexed(&ir.Function{
			ID:   id,
			Kind: ir.FuncCPU,
			Nodes: []ir.Node{
				{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "div"}},
				{ID: "a", Op: "literal", Args: map[string]interface{}{"value": a, "type": "int"}},
				{ID: "b", Op: "literal", Args: map[string]interface{}{"value": b, "type": "int"}},
				{ID: "div", Op: "math_div", Args: map[string]interface{}{"a": "a", "b": "b"}},
			},
		})
	}
	floatDiv := indexed(&ir.Function{
		ID:   "div_float",
		Kind: ir.FuncCPU,
		Nodes: []ir.Node{
			{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "div"}},
			{ID: "a", Op: "literal", Args: map[string]interface{}{"value": 7.0, "type": "float"}},
			{ID: "b", Op: "literal", Args: map[string]interface{}{"value": 2.0, "type": "float"}},
			{ID: "div", Op: "math_div", Args: map[string]interface{}{"a": "a", "b": "b"}},
		},
	})
	doc := &ir.Document{
		EntryPoint: "div_int_pos",
		Functions: []ir.Function{
			intDiv("div_int_pos", 7, 2),
			floatDiv,
			intDiv("div_int_neg", -7, 2),
		},
	}
	return doc
}

// matrixVectorDoc is scenario (f): a float4x4 translation by [10,20,0]
// applied (via mat_mul) to the point [0,0,0,1]. Expected: [10,20,0,1].
// The matrix is column-major, matching eval.matVecMul's layout.
func matrixVectorDoc() *ir.Document {
	translation := []interface{}{
		1.0, 0.0, 0.0, 0.0,
		0.0, 1.0, 0.0, 0.0,
		0.0, 0.0, 1.0, 0.0,
		10.0, 20.0, 0.0, 1.0,
	}
	doc := &ir.Document{
		EntryPoint: "main",
		Functions: []ir.Function{
			indexed(&ir.Function{
				ID:   "main",
				Kind: ir.FuncCPU,
				Nodes: []ir.Node{
					{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "result"}},
					{ID: "m", Op: "vec_construct", Args: map[string]interface{}{"components": translation}},
					{ID: "v", Op: "vec_construct", Args: map[string]interface{}{"components": []interface{}{0.0, 0.0, 0.0, 1.0}}},
					{ID: "result", Op: "mat_mul", Args: map[string]interface{}{"a": "m", "b": "v"}},
				},
			}),
		},
	}
	return doc
}

// InvokeArgs is the empty argument map every scenario above expects
// (none of them declare a host Input), kept as a named value so callers
// don't construct a fresh empty map at each call site.
var InvokeArgs = map[string]eval.Value{}
