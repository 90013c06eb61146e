package eval

import (
	"github.com/gogpu/shadeflow/ir"
	"github.com/gogpu/shadeflow/resource"
)

// maxRecursionDepth is the hard ceiling on call_func nesting (spec
// section 4.4: "a recursion-depth counter (hard ceiling; exceeding
// emits Recursion detected)").
const maxRecursionDepth = 256

// Context is the execution context one document invocation runs
// against: the validated document, the op registry, the resource
// store, the runtime-context surface dispatches and cmd_* ops go
// through, the current builtin values, and the accumulated log (spec
// sections 4.4, 4.5, 6).
type Context struct {
	Doc      *ir.Document
	Registry *ir.Registry
	Store    *resource.Store
	Runtime  RuntimeContext
	Builtins resource.Builtins
	Log      []LogEntry
}

// NewContext builds a fresh execution context with a freshly allocated
// resource store (spec section 3: "resources are allocated when the
// context is built").
func NewContext(doc *ir.Document, registry *ir.Registry) *Context {
	return &Context{
		Doc:      doc,
		Registry: registry,
		Store:    resource.NewStore(doc.Resources),
	}
}
