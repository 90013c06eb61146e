// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package webgpu emits device shading source (WGSL-flavored) for
// shader/vertex/fragment functions and host driver source for cpu
// functions, both honouring the canonical flat-float ABI and fixed
// binding-slot layout shared by every backend.
//
// GenerateDevice walks a function's nodes in execution order the way
// the interpreter does, emitting each resolved pure node's expression
// inline at its use instead of evaluating it; GenerateHost does the same for a cpu
// function's control flow, translating cmd_* nodes into calls on the
// RuntimeContext interface rather than executing them directly.
//
// An optional real-hardware RuntimeContext implementation lives in
// runtime_native.go, built only under the webgpu_native tag so this
// module has no CGO dependency by default.
package webgpu
