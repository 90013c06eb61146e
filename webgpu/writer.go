// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package webgpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadeflow/ir"
	"github.com/gogpu/shadeflow/resource"
)

// Writer emits WGSL device source for one shader/vertex/fragment
// function, honouring the canonical flat-ABI layout and fixed binding
// slots (spec section 4.6/4.7).
type Writer struct {
	doc *ir.Document
	fn  *ir.Function

	out    strings.Builder
	indent int

	namer   *namer
	locals  map[string]string // node id -> WGSL local identifier
	layout  resource.Layout
	emitted map[string]bool
}

// namer assigns collision-free WGSL identifiers, mirroring the
// teacher's GLSL/HLSL writers' own namer.
type namer struct {
	used    map[string]struct{}
	counter uint32
}

func newNamer() *namer { return &namer{used: make(map[string]struct{})} }

func (n *namer) call(base string) string {
	base = sanitizeIdent(base)
	if _, used := n.used[base]; !used {
		n.used[base] = struct{}{}
		return base
	}
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", base, n.counter)
		if _, used := n.used[candidate]; !used {
			n.used[candidate] = struct{}{}
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

// GenerateDevice emits WGSL source for fn, a shader/vertex/fragment
// function belonging to doc. The emitted entry point reads the flat
// float argument buffer at binding slot 0 through an Args struct whose
// fields follow the resource package's marshaller order, so host and device agree
// on binding slot 0's contents without either side hard-coding offsets.
func GenerateDevice(doc *ir.Document, fn *ir.Function) (string, error) {
	if fn.Kind == ir.FuncCPU {
		return "", fmt.Errorf("webgpu: GenerateDevice: %q is a host function, not a device function", fn.ID)
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
		w.writeLine("@compute @workgroup_size(%d, %d, %d)", wg[0], wg[1], wg[2])
		w.writeLine("fn %s(@builtin(global_invocation_id) gid: vec3<u32>) {", sanitizeIdent(w.fn.ID))
	case ir.FuncVertex:
		w.writeLine("@vertex")
		w.writeLine("fn %s(@builtin(vertex_index) gid_x: u32) -> @builtin(position) vec4<f32> {", sanitizeIdent(w.fn.ID))
	case ir.FuncFragment:
		w.writeLine("@fragment")
		w.writeLine("fn %s(@builtin(position) frag_coord: vec4<f32>) -> @location(0) vec4<f32> {", sanitizeIdent(w.fn.ID))
	}

	w.pushIndent()
	if w.fn.Kind == ir.FuncShader {
		total := fmt.Sprintf("%du", uint32(1))
		w.writeLine("let gid_total = %s; _ = gid_total;", total)
		w.writeLine("if (args.input_threads_x != 0u && gid.x >= args.input_threads_x) { return; }")
	}
	w.writeLocalVars()

	if start, ok := ir.FirstExecNode(w.fn); ok {
		if err := w.writeExecChain(start); err != nil {
			return err
		}
	} else if w.fn.Kind != ir.FuncShader {
		w.writeLine("return vec4<f32>(0.0, 0.0, 0.0, 0.0);")
	}
	w.popIndent()
	w.writeLine("}")
	return nil
}

// writeArgsStruct declares the flat-ABI argument struct in the exact
// field order resource.Flatten computes: declared inputs, then
// referenced builtins in canonical order, then output_size if
// referenced (spec section 4.6).
func (w *Writer) writeArgsStruct() {
	w.writeLine("struct Args {")
	w.pushIndent()
	for _, in := range w.layout.Inputs {
		w.writeLine("%s: %s,", sanitizeIdent(in.Name), wgslType(in.Type))
	}
	for _, b := range w.layout.ReferencedBuiltins {
		w.writeLine("%s: f32,", sanitizeIdent(b))
	}
	if w.layout.ReferencesOutputSize {
		w.writeLine("output_size: vec2<f32>,")
	}
	w.writeLine("input_threads_x: u32,")
	w.popIndent()
	w.writeLine("}")
	w.writeLine("")
	w.writeLine("@group(0) @binding(0) var<storage, read> args: Args;")
}

// writeResourceBindings emits one binding per resource this function's
// node graph touches, slots 1.. in the order first referenced — the
// same order every backend must inherit (spec section 4.6).
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
			w.writeLine("@group(0) @binding(%d) var<storage, read_write> %s: array<%s>;", slot, sanitizeIdent(id), wgslScalarType(res.ElementType))
		case ir.ResourceTexture2D:
			w.writeLine("@group(0) @binding(%d) var %s: texture_storage_2d<%s, read_write>;", slot, sanitizeIdent(id), wgslTexFormat(res.Format))
		case ir.ResourceAtomicCounter:
			w.writeLine("@group(0) @binding(%d) var<storage, read_write> %s: array<atomic<i32>>;", slot, sanitizeIdent(id))
		}
		slot++
	}
}

// argIndex reports whether name is one of fn's declared inputs, in
// which case var_get resolves to a field on the Args struct rather
// than a WGSL local.
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
		w.writeLine("var %s: %s = %s;", name, wgslType(lv.Type), wgslZero(lv.Type))
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

// deviceLayout statically scans fn for builtin_get references, the
// same way eval.shaderLayout does for the interpreter backend, so
// both backends compute an identical Args layout for a given shader.
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
