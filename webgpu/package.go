// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package webgpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadeflow/ir"
)

// GenerateHostPackage emits a complete, self-contained Go source file
// declaring one function per cpu Function in doc plus the small
// support shims (mustFloat, mustAtomic, flatArgsFor) the generated
// bodies call into, so the output of GenerateHost is directly
// compilable once eval.RuntimeContext is in scope.
func GenerateHostPackage(doc *ir.Document, packageName string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by shadeflow/webgpu. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", packageName)
	b.WriteString("import \"github.com/gogpu/shadeflow/eval\"\n\n")
	b.WriteString(hostSupport)

	for i := range doc.Functions {
		fn := &doc.Functions[i]
		if fn.Kind != ir.FuncCPU {
			continue
		}
		src, err := GenerateHost(doc, fn)
		if err != nil {
			return "", fmt.Errorf("webgpu: generating host driver for %q: %w", fn.ID, err)
		}
		b.WriteString(src)
		b.WriteString("\n")
	}
	return b.String(), nil
}

const hostSupport = `func mustFloat(v eval.Value, err error) float32 {
	if err != nil {
		return 0
	}
	return v.AsFloat32()
}

func mustAtomic(v int32, err error) float32 {
	if err != nil {
		return 0
	}
	return float32(v)
}

func flatArgsFor(args map[string]float32) []float32 {
	out := make([]float32, 0, len(args))
	for _, v := range args {
		out = append(out, v)
	}
	return out
}

`
