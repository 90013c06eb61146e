package eval

import (
	"testing"

	"github.com/gogpu/shadeflow/ir"
)

func invokeDoc(t *testing.T, doc *ir.Document, args map[string]Value) (Value, *Context) {
	t.Helper()
	for i := range doc.Functions {
		doc.Functions[i].Index()
	}
	ctx := NewContext(doc, ir.NewRegistry())
	e := NewEvaluator(ctx)
	ret, err := e.Invoke(args)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	return ret, ctx
}

func cpuDoc(nodes ...ir.Node) *ir.Document {
	return &ir.Document{
		EntryPoint: "main",
		Functions:  []ir.Function{{ID: "main", Kind: ir.FuncCPU, Nodes: nodes}},
	}
}

func TestInvokeIntegerDivisionTruncates(t *testing.T) {
	doc := cpuDoc(
		ir.Node{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "div"}},
		ir.Node{ID: "a", Op: "literal", Args: map[string]interface{}{"value": -7, "type": "int"}},
		ir.Node{ID: "b", Op: "literal", Args: map[string]interface{}{"value": 2, "type": "int"}},
		ir.Node{ID: "div", Op: "math_div", Args: map[string]interface{}{"a": "a", "b": "b"}},
	)
	ret, _ := invokeDoc(t, doc, nil)
	if ret.Num != -3 {
		t.Fatalf("expected -7/2 == -3, got %v", ret.Num)
	}
}

func TestInvokeFloatDivisionDoesNotTruncate(t *testing.T) {
	doc := cpuDoc(
		ir.Node{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "div"}},
		ir.Node{ID: "a", Op: "literal", Args: map[string]interface{}{"value": 7.0, "type": "float"}},
		ir.Node{ID: "b", Op: "literal", Args: map[string]interface{}{"value": 2.0, "type": "float"}},
		ir.Node{ID: "div", Op: "math_div", Args: map[string]interface{}{"a": "a", "b": "b"}},
	)
	ret, _ := invokeDoc(t, doc, nil)
	if ret.Num != 3.5 {
		t.Fatalf("expected 3.5, got %v", ret.Num)
	}
}

func TestInvokeClamp(t *testing.T) {
	doc := cpuDoc(
		ir.Node{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "c"}},
		ir.Node{ID: "a", Op: "literal", Args: map[string]interface{}{"value": 12.0, "type": "float"}},
		ir.Node{ID: "lo", Op: "literal", Args: map[string]interface{}{"value": 0.0, "type": "float"}},
		ir.Node{ID: "hi", Op: "literal", Args: map[string]interface{}{"value": 10.0, "type": "float"}},
		ir.Node{ID: "c", Op: "clamp", Args: map[string]interface{}{"a": "a", "lo": "lo", "hi": "hi"}},
	)
	ret, _ := invokeDoc(t, doc, nil)
	if ret.Num != 10 {
		t.Fatalf("expected clamp to 10, got %v", ret.Num)
	}
}

func TestInvokeVectorConstructAndSwizzle(t *testing.T) {
	doc := cpuDoc(
		ir.Node{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "y"}},
		ir.Node{ID: "a", Op: "literal", Args: map[string]interface{}{"value": 1.0, "type": "float"}},
		ir.Node{ID: "b", Op: "literal", Args: map[string]interface{}{"value": 2.0, "type": "float"}},
		ir.Node{ID: "c", Op: "literal", Args: map[string]interface{}{"value": 3.0, "type": "float"}},
		ir.Node{ID: "v", Op: "vec_construct", Args: map[string]interface{}{"components": []interface{}{"a", "b", "c"}}},
		ir.Node{ID: "y", Op: "swizzle", Args: map[string]interface{}{"vector": "v", "pattern": "y"}},
	)
	ret, _ := invokeDoc(t, doc, nil)
	if ret.Num != 2 {
		t.Fatalf("expected .y == 2, got %v", ret.Num)
	}
}

func TestInvokeBranchTakesTrueEdge(t *testing.T) {
	doc := cpuDoc(
		ir.Node{ID: "branch", Op: "flow_branch", Args: map[string]interface{}{"cond": "cond"}, ExecTrue: "ret_true", ExecFalse: "ret_false"},
		ir.Node{ID: "ret_true", Op: "func_return", Args: map[string]interface{}{"value": "one"}},
		ir.Node{ID: "ret_false", Op: "func_return", Args: map[string]interface{}{"value": "zero"}},
		ir.Node{ID: "one", Op: "literal", Args: map[string]interface{}{"value": 1.0, "type": "float"}},
		ir.Node{ID: "zero", Op: "literal", Args: map[string]interface{}{"value": 0.0, "type": "float"}},
		ir.Node{ID: "cond", Op: "literal", Args: map[string]interface{}{"value": true, "type": "bool"}},
	)
	ret, _ := invokeDoc(t, doc, nil)
	if ret.Num != 1 {
		t.Fatalf("expected true branch taken (1), got %v", ret.Num)
	}
}

func TestInvokeLoopAccumulates(t *testing.T) {
	doc := cpuDoc(
		ir.Node{ID: "loop", Op: "flow_loop", Args: map[string]interface{}{"tag": "i", "count": 5}, ExecBody: "add", ExecCompleted: "ret"},
		ir.Node{ID: "idx", Op: "loop_index", Args: map[string]interface{}{"tag": "i"}},
		ir.Node{ID: "cur", Op: "var_get", Args: map[string]interface{}{"name": "acc"}},
		ir.Node{ID: "sum", Op: "math_add", Args: map[string]interface{}{"a": "cur", "b": "idx"}},
		ir.Node{ID: "add", Op: "var_set", Args: map[string]interface{}{"name": "acc", "value": "sum"}},
		ir.Node{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "cur2"}},
		ir.Node{ID: "cur2", Op: "var_get", Args: map[string]interface{}{"name": "acc"}},
	)
	doc.Functions[0].LocalVars = []ir.LocalVar{{Name: "acc", Type: ir.Float()}}
	ret, _ := invokeDoc(t, doc, nil)
	if ret.Num != 10 { // 0+1+2+3+4
		t.Fatalf("expected loop sum 10, got %v", ret.Num)
	}
}

func TestInvokeStructConstructAndExtract(t *testing.T) {
	doc := cpuDoc(
		ir.Node{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "x"}},
		ir.Node{ID: "px", Op: "literal", Args: map[string]interface{}{"value": 7.0, "type": "float"}},
		ir.Node{ID: "p", Op: "struct_construct", Args: map[string]interface{}{
			"struct": "Particle",
			"fields": []interface{}{
				map[string]interface{}{"name": "x", "value": "px"},
			},
		}},
		ir.Node{ID: "x", Op: "struct_extract", Args: map[string]interface{}{"value": "p", "field": "x"}},
	)
	doc.Structs = []ir.Struct{{ID: "Particle", Members: []ir.StructMember{{Name: "x", Type: ir.Float()}}}}
	ret, _ := invokeDoc(t, doc, nil)
	if ret.Num != 7 {
		t.Fatalf("expected struct field 7, got %v", ret.Num)
	}
}

func TestInvokeArrayConstructExtractAndLength(t *testing.T) {
	doc := cpuDoc(
		ir.Node{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "sum"}},
		ir.Node{ID: "a", Op: "literal", Args: map[string]interface{}{"value": 10.0, "type": "float"}},
		ir.Node{ID: "b", Op: "literal", Args: map[string]interface{}{"value": 20.0, "type": "float"}},
		ir.Node{ID: "arr", Op: "array_construct", Args: map[string]interface{}{"elements": []interface{}{"a", "b"}}},
		ir.Node{ID: "one", Op: "literal", Args: map[string]interface{}{"value": 1, "type": "int"}},
		ir.Node{ID: "elem", Op: "array_extract", Args: map[string]interface{}{"array": "arr", "index": "one"}},
		ir.Node{ID: "len", Op: "array_length", Args: map[string]interface{}{"array": "arr"}},
		ir.Node{ID: "sum", Op: "math_add", Args: map[string]interface{}{"a": "elem", "b": "len"}},
	)
	ret, _ := invokeDoc(t, doc, nil)
	if ret.Num != 22 { // arr[1]=20 + len(arr)=2
		t.Fatalf("expected 22, got %v", ret.Num)
	}
}

func TestInvokeEntryInputDefaultsToZero(t *testing.T) {
	doc := cpuDoc(
		ir.Node{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "x"}},
		ir.Node{ID: "x", Op: "var_get", Args: map[string]interface{}{"name": "scale"}},
	)
	doc.Functions[0].Inputs = []ir.Input{{Name: "scale", Type: ir.Float()}}
	ret, _ := invokeDoc(t, doc, nil)
	if ret.Num != 0 {
		t.Fatalf("expected zero default for unbound input, got %v", ret.Num)
	}

	ret, _ = invokeDoc(t, doc, map[string]Value{"scale": Float(4)})
	if ret.Num != 4 {
		t.Fatalf("expected bound input 4, got %v", ret.Num)
	}
}

func TestInvokeUndefinedVariableIsRuntimeError(t *testing.T) {
	doc := cpuDoc(
		ir.Node{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "x"}},
		ir.Node{ID: "x", Op: "var_get", Args: map[string]interface{}{"name": "does_not_exist"}},
	)
	for i := range doc.Functions {
		doc.Functions[i].Index()
	}
	ctx := NewContext(doc, ir.NewRegistry())
	e := NewEvaluator(ctx)
	_, err := e.Invoke(nil)
	if err == nil {
		t.Fatal("expected a runtime error for an undefined variable")
	}
	rerr, ok := err.(*ir.RuntimeError)
	if !ok || rerr.Kind != ir.RuntimeUndefinedVar {
		t.Fatalf("expected RuntimeUndefinedVar, got %v", err)
	}
}

func TestInvokeRecursionLimitDetected(t *testing.T) {
	doc := &ir.Document{
		EntryPoint: "main",
		Functions: []ir.Function{
			{
				ID:   "main",
				Kind: ir.FuncCPU,
				Nodes: []ir.Node{
					{ID: "call", Op: "call_func", Args: map[string]interface{}{"func": "main", "args": []interface{}{}}, ExecOut: "ret"},
					{ID: "ret", Op: "func_return"},
				},
			},
		},
	}
	for i := range doc.Functions {
		doc.Functions[i].Index()
	}
	ctx := NewContext(doc, ir.NewRegistry())
	e := NewEvaluator(ctx)
	_, err := e.Invoke(nil)
	if err == nil {
		t.Fatal("expected recursion to be detected")
	}
	rerr, ok := err.(*ir.RuntimeError)
	if !ok || rerr.Kind != ir.RuntimeRecursion {
		t.Fatalf("expected RuntimeRecursion, got %v", err)
	}
}
