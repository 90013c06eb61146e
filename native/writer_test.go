// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/shadeflow/ir"
)

func fillShaderDoc() *ir.Document {
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
	return doc
}

func TestGenerateDeviceFillShader(t *testing.T) {
	doc := fillShaderDoc()
	src, err := GenerateDevice(doc, &doc.Functions[0])
	require.NoError(t, err)
	require.Contains(t, src, "[numthreads(1, 1, 1)]")
	require.Contains(t, src, "void shader_fill(")
	require.Contains(t, src, "b_output[")
}

func TestGenerateDeviceRejectsCPUFunction(t *testing.T) {
	doc := &ir.Document{Functions: []ir.Function{{ID: "main", Kind: ir.FuncCPU}}}
	doc.Functions[0].Index()
	_, err := GenerateDevice(doc, &doc.Functions[0])
	require.Error(t, err)
}

func TestGenerateDeviceOrdersBuiltinsCanonicallyNotAlphabetically(t *testing.T) {
	doc := &ir.Document{
		Resources: []ir.Resource{
			{ID: "b_output", Kind: ir.ResourceBuffer, ElementType: ir.Float()},
		},
		Functions: []ir.Function{
			{
				ID:   "shader_builtins",
				Kind: ir.FuncShader,
				Nodes: []ir.Node{
					{ID: "store", Op: "buffer_store", Args: map[string]interface{}{"buffer": "b_output", "index": "zero", "value": "sum"}},
					{ID: "zero", Op: "literal", Args: map[string]interface{}{"value": 0, "type": "int"}},
					// Reference delta_time before time: alphabetical order
					// would put delta_time first, but canonical order
					// (matching resource.Flatten) puts time first.
					{ID: "dt", Op: "builtin_get", Args: map[string]interface{}{"name": "delta_time"}},
					{ID: "t", Op: "builtin_get", Args: map[string]interface{}{"name": "time"}},
					{ID: "sum", Op: "math_add", Args: map[string]interface{}{"a": "t", "b": "dt"}},
				},
			},
		},
	}
	doc.Functions[0].Index()

	src, err := GenerateDevice(doc, &doc.Functions[0])
	require.NoError(t, err)

	timeIdx := strings.Index(src, "\n    float time;")
	deltaIdx := strings.Index(src, "\n    float delta_time;")
	require.NotEqual(t, -1, timeIdx, "expected time field in Args cbuffer")
	require.NotEqual(t, -1, deltaIdx, "expected delta_time field in Args cbuffer")
	require.Less(t, timeIdx, deltaIdx, "time must precede delta_time to match resource.Flatten's canonical order")
}

func TestSanitizeIdentEscapesDots(t *testing.T) {
	require.Equal(t, "a_b", sanitizeIdent("a.b"))
	require.True(t, strings.HasPrefix(sanitizeIdent("0foo"), "v_"))
}
