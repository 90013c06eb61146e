// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"strconv"

	"github.com/gogpu/shadeflow/ir"
)

// hlslType maps an ir.Type to its HLSL spelling.
func hlslType(t ir.Type) string {
	switch t.Kind {
	case ir.KindFloat:
		return "float"
	case ir.KindInt:
		return "int"
	case ir.KindBool:
		return "bool"
	case ir.KindFloat2:
		return "float2"
	case ir.KindFloat3:
		return "float3"
	case ir.KindFloat4:
		return "float4"
	case ir.KindInt2:
		return "int2"
	case ir.KindInt3:
		return "int3"
	case ir.KindInt4:
		return "int4"
	case ir.KindFloat3x3:
		return "float3x3"
	case ir.KindFloat4x4:
		return "float4x4"
	case ir.KindStruct:
		return sanitizeIdent(t.Struct)
	case ir.KindArray:
		if t.Of == nil {
			return "float[1]"
		}
		n := t.Len
		if n < 0 {
			n = 1
		}
		return hlslType(*t.Of) + "[" + strconv.Itoa(n) + "]"
	default:
		return "float"
	}
}

// hlslZero spells the zero value of t as an HLSL initializer.
func hlslZero(t ir.Type) string {
	switch t.Kind {
	case ir.KindFloat:
		return "0.0"
	case ir.KindInt:
		return "0"
	case ir.KindBool:
		return "false"
	case ir.KindFloat2:
		return "float2(0.0, 0.0)"
	case ir.KindFloat3:
		return "float3(0.0, 0.0, 0.0)"
	case ir.KindFloat4:
		return "float4(0.0, 0.0, 0.0, 0.0)"
	case ir.KindInt2:
		return "int2(0, 0)"
	case ir.KindInt3:
		return "int3(0, 0, 0)"
	case ir.KindInt4:
		return "int4(0, 0, 0, 0)"
	case ir.KindFloat3x3:
		return "float3x3(0.0,0.0,0.0, 0.0,0.0,0.0, 0.0,0.0,0.0)"
	case ir.KindFloat4x4:
		return "float4x4(0.0,0.0,0.0,0.0, 0.0,0.0,0.0,0.0, 0.0,0.0,0.0,0.0, 0.0,0.0,0.0,0.0)"
	default:
		return "(" + hlslType(t) + ")0"
	}
}

// hlslTexFormat maps an ir.TextureFormat to the element type
// RWTexture2D is declared over.
func hlslTexFormat(f ir.TextureFormat) string {
	switch f {
	case ir.FormatRGBA8Unorm, ir.FormatRGBA32Float:
		return "float4"
	case ir.FormatR32Float:
		return "float"
	case ir.FormatR32Uint:
		return "uint"
	default:
		return "float4"
	}
}
