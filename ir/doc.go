// Package ir defines the document model for shadeflow's graph-structured
// shader/compute intermediate representation.
//
// A Document describes resources (buffers, textures, atomic counters),
// typed structs, and functions classified as host-side (CPU control flow)
// or device-side (compute/vertex/fragment). Each function's body is a
// graph of operation Nodes connected by data edges (value flow, carried
// implicitly as string references inside argument fields) and execution
// edges (side-effect ordering, carried explicitly in exec_* fields).
//
// The package also hosts the closed value-type lattice and coercion
// rules (types.go, coerce.go), the op registry that is the single
// source of truth for node argument schemas (registry.go), and the
// static validator (validate.go). The evaluator, resource store, and
// code generators are separate packages that all consume this one.
package ir
