// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadeflow/ir"
	"github.com/gogpu/shadeflow/resource"
)

// Writer emits HLSL device source for one shader/vertex/fragment
// function, honouring the same canonical flat-ABI layout and
// first-reference binding order as package webgpu's Writer, so the two
// backends bind resources identically (spec section 4.6/4.7).
type Writer struct {
	doc *ir.Document
	fn  *ir.Function

	out    strings.Builder
	indent int

	namer   *namer
	locals  map[string]string
	layout  resource.Layout
	emitted map[string]bool
}

// namer assigns collision-free HLSL identifiers. HLSL keyword matching
// is case-insensitive, so names are tracked lowercased.
type namer struct {
	used    map[string]struct{}
	counter uint32
}

func newNamer() *namer { return &namer{used: make(map[string]struct{})} }

func (n *namer) call(base string) string {
	base = sanitizeIdent(base)
	key := strings.ToLower(base)
	if _, used := n.used[key]; !used {
		n.used[key] = struct{}{}
		return base
	}
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", base, n.counter)
		key := strings.ToLower(candidate)
		if _, used := n.used[key]; !used {
			n.used[key] = struct{}{}
			return candidate
		}
	}
}

func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '.' || r == '-' {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		return "v"
	}
	if out[0] >= '0' && out[0] <= '9' {
		return "v_" + out
	}
	return out
}

// GenerateDevice emits HLSL source for fn, a shader/vertex/fragment
// function belonging to doc.
func GenerateDevice(doc *ir.Document, fn *ir.Function) (string, error) {
	if fn.Kind == ir.FuncCPU {
		return "", fmt.Errorf("native: GenerateDevice: %q is a host function, not a device function", fn.ID)
	}
	w := &Writer{
		doc:     doc,
		fn:      fn,
		namer:   newNamer(),
		locals:  make(map[string]string),
		emitted: make(map[string]bool),
		layout:  deviceLayout(doc, fn),
	}
	if err := w.writeFunction(); err != nil {
		return "", err
	}
	return w.out.String(), nil
}

func (w *Writer) writeFunction() error {
	w.writeArgsStruct()
	w.writeResourceBindings()
	w.writeLine("")

	switch w.fn.Kind {
	case ir.FuncShader:
		wg := w.fn.WorkgroupSize
		if wg[0] == 0 {
			wg[0] = 1
		}
		if wg[1] == 0 {
			wg[1] = 1
		}
		if wg[2] == 0 {
			wg[2] = 1
		}
		w.writeLine("[numthreads(%d, %d, %d)]", wg[0], wg[1], wg[2])
		w.writeLine("void %s(uint3 gid : SV_DispatchThreadID) {", sanitizeIdent(w.fn.ID))
	case ir.FuncVertex:
		w.writeLine("float4 %s(uint gid_x : SV_VertexID) : SV_Position {", sanitizeIdent(w.fn.ID))
	case ir.FuncFragment:
		w.writeLine("float4 %s(float4 frag_coord : SV_Position) : SV_Target {", sanitizeIdent(w.fn.ID))
	}

	w.pushIndent()
	if w.fn.Kind == ir.FuncShader {
		w.writeLine("if (args.input_threads_x != 0 && gid.x >= args.input_threads_x) { return; }")
	}
	w.writeLocalVars()

	if start, ok := ir.FirstExecNode(w.fn); ok {
		if err := w.writeExecChain(start); err != nil {
			return err
		}
	} else if w.fn.Kind != ir.FuncShader {
		w.writeLine("return float4(0.0, 0.0, 0.0, 0.0);")
	}
	w.popIndent()
	w.writeLine("}")
	return nil
}

// writeArgsStruct declares the flat-ABI constant buffer in the same
// field order package webgpu uses: declared inputs, referenced
// builtins, then output_size (spec section 4.6).
func (w *Writer) writeArgsStruct() {
	w.writeLine("cbuffer Args : register(b0) {")
	w.pushIndent()
	for _, in := range w.layout.Inputs {
		w.writeLine("%s %s;", hlslType(in.Type), sanitizeIdent(in.Name))
	}
	for _, b := range w.layout.ReferencedBuiltins {
		w.writeLine("float %s;", sanitizeIdent(b))
	}
	if w.layout.ReferencesOutputSize {
		w.writeLine("float2 output_size;")
	}
	w.writeLine("uint input_threads_x;")
	w.popIndent()
	w.writeLine("};")
}

// writeResourceBindings emits one UAV/SRV register per resource this
// function's node graph touches, in first-reference order starting at
// register slot 1 — the same cross-backend convention as webgpu.Writer
// (spec section 4.6).
func (w *Writer) writeResourceBindings() {
	ids := referencedResources(w.fn)
	slot := 1
	for _, id := range ids {
		res := w.findResource(id)
		if res == nil {
			continue
		}
		switch res.Kind {
		case ir.ResourceBuffer:
			w.writeLine("RWStructuredBuffer<%s> %s : register(u%d);", hlslType(res.ElementType), sanitizeIdent(id), slot)
		case ir.ResourceTexture2D:
			w.writeLine("RWTexture2D<%s> %s : register(u%d);", hlslTexFormat(res.Format), sanitizeIdent(id), slot)
		case ir.ResourceAtomicCounter:
			w.writeLine("RWStructuredBuffer<int> %s : register(u%d);", sanitizeIdent(id), slot)
		}
		slot++
	}
}

// argIndex reports whether name is one of fn's declared inputs, in
// which case var_get resolves to a field on the Args cbuffer rather
// than an HLSL local.
func (w *Writer) argIndex(name string) (int, bool) {
	for i, in := range w.fn.Inputs {
		if in.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (w *Writer) findResource(id string) *ir.Resource {
	for i := range w.doc.Resources {
		if w.doc.Resources[i].ID == id {
			return &w.doc.Resources[i]
		}
	}
	return nil
}

func (w *Writer) writeLocalVars() {
	for _, lv := range w.fn.LocalVars {
		name := w.namer.call(lv.Name)
		w.locals[lv.Name] = name
		w.writeLine("%s %s = %s;", hlslType(lv.Type), name, hlslZero(lv.Type))
	}
}

func (w *Writer) writeLine(format string, args ...interface{}) {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

func (w *Writer) pushIndent() { w.indent++ }
func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}

// deviceLayout statically scans fn for builtin_get references, mirroring
// webgpu.deviceLayout and eval.shaderLayout so every backend agrees on
// a shader's Args layout.
func deviceLayout(doc *ir.Document, fn *ir.Function) resource.Layout {
	layout := resource.Layout{Inputs: fn.Inputs}
	seen := map[string]bool{}
	for _, n := range fn.Nodes {
		if n.Op != "builtin_get" {
			continue
		}
		name, _ := n.Args["name"].(string)
		if name == "output_size" {
			layout.ReferencesOutputSize = true
			continue
		}
		if name != "" && !seen[name] {
			seen[name] = true
		}
	}
	for _, name := range resource.CanonicalBuiltinOrder {
		if seen[name] {
			layout.ReferencedBuiltins = append(layout.ReferencedBuiltins, name)
		}
	}
	_ = doc
	return layout
}

// referencedResources returns the set of resource ids fn's nodes name,
// in first-reference order.
func referencedResources(fn *ir.Function) []string {
	var out []string
	seen := map[string]bool{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, n := range fn.Nodes {
		for _, key := range []string{"buffer", "texture", "counter", "resource", "src", "dst", "target"} {
			if id, ok := n.Args[key].(string); ok {
				add(id)
			}
		}
	}
	return out
}
