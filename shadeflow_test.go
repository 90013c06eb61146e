package shadeflow

import (
	"testing"

	"github.com/gogpu/shadeflow/ir"
)

func addOneDoc() *ir.Document {
	doc := &ir.Document{
		EntryPoint: "main",
		Functions: []ir.Function{
			{
				ID:   "main",
				Kind: ir.FuncCPU,
				Nodes: []ir.Node{
					{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "sum"}},
					{ID: "a", Op: "literal", Args: map[string]interface{}{"value": 1.0, "type": "float"}},
					{ID: "b", Op: "literal", Args: map[string]interface{}{"value": 2.0, "type": "float"}},
					{ID: "sum", Op: "math_add", Args: map[string]interface{}{"a": "a", "b": "b"}},
				},
			},
		},
	}
	for i := range doc.Functions {
		doc.Functions[i].Index()
	}
	return doc
}

func TestEngineValidateAndExecute(t *testing.T) {
	engine := New(addOneDoc())
	if errs := engine.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %+v", errs)
	}
	ret, _, err := engine.Execute(nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if ret.Num != 3 {
		t.Fatalf("expected 3, got %v", ret.Num)
	}
}

func TestEngineGenerateDeviceBothLanguages(t *testing.T) {
	doc := &ir.Document{
		Resources: []ir.Resource{
			{ID: "b_output", Kind: ir.ResourceBuffer, ElementType: ir.Float()},
		},
		Functions: []ir.Function{
			{
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
			},
		},
	}
	doc.Functions[0].Index()
	engine := New(doc)

	wgsl, err := engine.GenerateDevice(WGSL, &doc.Functions[0])
	if err != nil {
		t.Fatalf("WGSL GenerateDevice: %v", err)
	}
	if wgsl == "" {
		t.Fatal("empty WGSL source")
	}

	hlsl, err := engine.GenerateDevice(HLSL, &doc.Functions[0])
	if err != nil {
		t.Fatalf("HLSL GenerateDevice: %v", err)
	}
	if hlsl == "" {
		t.Fatal("empty HLSL source")
	}
}

func TestEngineValidateReportsStaticOOB(t *testing.T) {
	doc := &ir.Document{
		Resources: []ir.Resource{
			{ID: "buf", Kind: ir.ResourceBuffer, ElementType: ir.Float(), Size: ir.SizeSpec{Width: 2}},
		},
		Functions: []ir.Function{
			{
				ID:   "main",
				Kind: ir.FuncCPU,
				Nodes: []ir.Node{
					{ID: "store", Op: "buffer_store", Args: map[string]interface{}{"buffer": "buf", "index": 5, "value": 1}},
				},
			},
		},
	}
	doc.Functions[0].Index()
	errs := New(doc).Validate()
	if len(errs) == 0 {
		t.Fatal("expected at least one validation error")
	}
}
