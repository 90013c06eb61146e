// Package resource implements the engine's resource store and the
// canonical flat-float ABI marshaller shared by every device backend
// (spec sections 4.5 and 4.6).
//
// The store is arena-indexed by resource id, in the same spirit as
// naga's ir.TypeRegistry indexes types by handle: a side table owns the
// backing arrays so resource state can be reflected back into an
// execution context without aliasing concerns.
package resource
