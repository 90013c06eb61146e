// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/shadeflow/ir"
)

func dispatchCPUDoc() *ir.Document {
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
			{
				ID:     "main",
				Kind:   ir.FuncCPU,
				Inputs: []ir.Input{{Name: "n", Type: ir.Float()}},
				Nodes: []ir.Node{
					{
						ID: "dispatch", Op: "cmd_dispatch",
						Args:    map[string]interface{}{"shader": "shader_fill"},
						Threads: [3]int{4, 1, 1},
						ExecOut: "ret",
					},
					{
						ID: "load", Op: "buffer_load",
						Args: map[string]interface{}{"buffer": "b_output", "index": 0},
					},
					{
						ID: "ret", Op: "func_return",
						Args: map[string]interface{}{"value": "load"},
					},
				},
			},
		},
	}
	for i := range doc.Functions {
		doc.Functions[i].Index()
	}
	return doc
}

func TestGenerateHostCPUFunction(t *testing.T) {
	doc := dispatchCPUDoc()
	src, err := GenerateHost(doc, &doc.Functions[1])
	require.NoError(t, err)
	require.Contains(t, src, "func main(rt eval.RuntimeContext, args map[string]float32) ([]float32, error) {")
	require.Contains(t, src, `rt.DispatchShader("shader_fill", 4, 1, 1, flatArgsFor(args))`)
	require.Contains(t, src, "mustFloat(rt.BufferLoad(\"b_output\", int(float32(0))))")
	require.Contains(t, src, "return []float32{")
}

func TestGenerateHostRejectsDeviceFunction(t *testing.T) {
	doc := dispatchCPUDoc()
	_, err := GenerateHost(doc, &doc.Functions[0])
	require.Error(t, err)
}

func TestGenerateHostPackageEmitsSupportShims(t *testing.T) {
	doc := dispatchCPUDoc()
	src, err := GenerateHostPackage(doc, "generated")
	require.NoError(t, err)
	require.Contains(t, src, "package generated")
	require.Contains(t, src, "func mustFloat(")
	require.Contains(t, src, "func main(rt eval.RuntimeContext")
}
