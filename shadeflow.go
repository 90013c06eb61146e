// Package shadeflow provides a multi-backend execution engine for a
// typed, graph-structured shader/compute intermediate representation.
//
// A Document describes resources, structs, and a graph of functions
// (cpu, shader, vertex, fragment); Engine validates a Document and
// either executes it directly against the bundled interpreter or
// generates WGSL/HLSL device source plus Go host-driver source for an
// external toolchain to consume.
//
// Example usage (direct execution):
//
//	doc := &ir.Document{ /* ... */ }
//	engine := shadeflow.New(doc)
//	if errs := engine.Validate(); len(errs) > 0 {
//	    log.Fatal(errs[0])
//	}
//	ret, _, err := engine.Execute(nil)
//
// For WGSL device source, use:
//
//	src, err := engine.GenerateDevice(shadeflow.WGSL, fn)
//
// For HLSL device source (generated by package native), use:
//
//	src, err := engine.GenerateDevice(shadeflow.HLSL, fn)
package shadeflow

import (
	"fmt"

	"github.com/gogpu/shadeflow/eval"
	"github.com/gogpu/shadeflow/ir"
	"github.com/gogpu/shadeflow/native"
	"github.com/gogpu/shadeflow/webgpu"
)

// DeviceLanguage selects which of the two device code generators
// Engine.GenerateDevice/GenerateHost/GenerateHostPackage targets.
type DeviceLanguage uint8

const (
	WGSL DeviceLanguage = iota
	HLSL
)

func (l DeviceLanguage) String() string {
	if l == HLSL {
		return "HLSL"
	}
	return "WGSL"
}

// Engine is the entry point a caller builds once per Document: it owns
// the document, the op registry, and exposes the four operations the
// rest of this module composes (Validate, Execute, GenerateDevice,
// GenerateHost).
type Engine struct {
	Doc      *ir.Document
	Registry *ir.Registry
}

// New builds an Engine over doc using the standard op registry.
func New(doc *ir.Document) *Engine {
	return &Engine{Doc: doc, Registry: ir.NewRegistry()}
}

// Validate runs the two-pass validator over the engine's document,
// returning every accumulated error (empty means the document may be
// executed or compiled).
func (e *Engine) Validate() []ir.ValidationError {
	return ir.Validate(e.Doc, e.Registry)
}

// Execute validates nothing itself (call Validate first); it runs the
// document's entry point once against a fresh eval.Context backed by
// the bundled interpreter, returning the entry point's return value,
// the context it ran in (so a caller can inspect resulting resource
// state via ctx.Store), and any error.
func (e *Engine) Execute(args map[string]eval.Value) (eval.Value, *eval.Context, error) {
	ctx := eval.NewContext(e.Doc, e.Registry)
	evaluator := eval.NewEvaluator(ctx)
	ret, err := evaluator.Invoke(args)
	return ret, ctx, err
}

// GenerateDevice emits device-stage source for fn (a shader, vertex, or
// fragment function) in the requested language.
func (e *Engine) GenerateDevice(lang DeviceLanguage, fn *ir.Function) (string, error) {
	switch lang {
	case WGSL:
		return webgpu.GenerateDevice(e.Doc, fn)
	case HLSL:
		return native.GenerateDevice(e.Doc, fn)
	default:
		return "", fmt.Errorf("shadeflow: unknown device language %d", lang)
	}
}

// GenerateHost emits one Go function implementing fn (a cpu function)
// against the shared eval.RuntimeContext surface.
func (e *Engine) GenerateHost(lang DeviceLanguage, fn *ir.Function) (string, error) {
	switch lang {
	case WGSL:
		return webgpu.GenerateHost(e.Doc, fn)
	case HLSL:
		return native.GenerateHost(e.Doc, fn)
	default:
		return "", fmt.Errorf("shadeflow: unknown device language %d", lang)
	}
}

// GenerateHostPackage emits a complete, compilable Go source file named
// packageName holding every cpu function in the document plus the
// generator's support shims.
func (e *Engine) GenerateHostPackage(lang DeviceLanguage, packageName string) (string, error) {
	switch lang {
	case WGSL:
		return webgpu.GenerateHostPackage(e.Doc, packageName)
	case HLSL:
		return native.GenerateHostPackage(e.Doc, packageName)
	default:
		return "", fmt.Errorf("shadeflow: unknown device language %d", lang)
	}
}
