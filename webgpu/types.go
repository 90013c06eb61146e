// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package webgpu

import (
	"strconv"

	"github.com/gogpu/shadeflow/ir"
)

// wgslType maps an IR type to its WGSL spelling.
func wgslType(t ir.Type) string {
	switch t.Kind {
	case ir.KindFloat:
		return "f32"
	case ir.KindInt:
		return "i32"
	case ir.KindBool:
		return "bool"
	case ir.KindFloat2:
		return "vec2<f32>"
	case ir.KindFloat3:
		return "vec3<f32>"
	case ir.KindFloat4:
		return "vec4<f32>"
	case ir.KindInt2:
		return "vec2<i32>"
	case ir.KindInt3:
		return "vec3<i32>"
	case ir.KindInt4:
		return "vec4<i32>"
	case ir.KindFloat3x3:
		return "mat3x3<f32>"
	case ir.KindFloat4x4:
		return "mat4x4<f32>"
	case ir.KindArray:
		if t.Of == nil {
			return "array<f32>"
		}
		if t.Len < 0 {
			return "array<" + wgslType(*t.Of) + ">"
		}
		return "array<" + wgslType(*t.Of) + ", " + strconv.Itoa(t.Len) + ">"
	case ir.KindStruct:
		return sanitizeIdent(t.Struct)
	default:
		return "f32"
	}
}

// wgslScalarType is wgslType restricted to the element types a buffer
// resource may declare (float/int, plus the vector/matrix shapes a
// buffer of structs may carry).
func wgslScalarType(t ir.Type) string { return wgslType(t) }

func wgslZero(t ir.Type) string {
	switch t.Kind {
	case ir.KindFloat:
		return "0.0"
	case ir.KindInt:
		return "0"
	case ir.KindBool:
		return "false"
	case ir.KindFloat2, ir.KindFloat3, ir.KindFloat4, ir.KindInt2, ir.KindInt3, ir.KindInt4, ir.KindFloat3x3, ir.KindFloat4x4:
		return wgslType(t) + "()"
	default:
		return wgslType(t) + "()"
	}
}

func wgslTexFormat(f ir.TextureFormat) string {
	switch f {
	case ir.FormatRGBA8Unorm:
		return "rgba8unorm"
	case ir.FormatRGBA32Float:
		return "rgba32float"
	case ir.FormatR32Float:
		return "r32float"
	case ir.FormatR32Uint:
		return "r32uint"
	default:
		return "rgba8unorm"
	}
}
