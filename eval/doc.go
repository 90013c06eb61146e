// Package eval implements the reference backend: a tree-walking
// interpreter over a validated ir.Document (spec section 4.4).
//
// Execution is driven by walking execution edges starting at a
// function's entry node; non-execution arguments are pure data,
// resolved lazily and memoised once per node per frame.
// InterpreterRuntime implements RuntimeContext directly against a
// resource.Store, so host cpu functions and generated host drivers
// share one runtime-context surface (spec section 6).
package eval
