// Package conformance runs one document against several
// eval.RuntimeContext-backed backends concurrently and diffs their
// resulting resource state and return values within the tolerances
// spec.md section 8 names (0.1 absolute for pixels, 0.0001 for
// scalars, exact for pure-integer paths). It also hosts the six named
// end-to-end scenarios from that section.
//
// This module does not invoke a real GPU or an external HLSL/WGSL
// toolchain, so "backend" here means any eval.RuntimeContext
// implementation: the bundled interpreter, and (when built with
// webgpu_native) a real-hardware dispatch path. Both satisfy the same
// interface, so the harness treats them identically (spec section 6,
// "identical surface").
package conformance
