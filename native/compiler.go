// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import "fmt"

// Profile names the DirectX shader profile a Target compiles for
// (e.g. "cs_5_1", "vs_5_1", "ps_5_1"), the HLSL analogue of
// ShaderModel.ProfileSuffix in the teacher's own backend.
type Profile string

// Target describes one invocation of an external HLSL compiler:
// which entry point in a GenerateDevice source to compile, and for
// which shader profile.
type Target struct {
	EntryPoint string
	Profile    Profile
}

// Artifact is the result of compiling a Target: either a bytecode
// blob (e.g. DXBC/DXIL) or, for toolchains that only validate, a
// human-readable disassembly/log.
type Artifact struct {
	Bytecode    []byte
	Disassembly string
}

// Compiler is the boundary this module draws around invoking an
// actual on-disk HLSL toolchain (fxc, dxc, or similar). Running that
// toolchain is outside this module's scope; Compiler exists so a
// caller can supply whatever invocation their build carries —
// shelling out to dxc, calling into a cgo binding, or a pure-Go
// validator — without native depending on any of them.
type Compiler interface {
	// Compile takes HLSL source text (as produced by GenerateDevice)
	// and a Target, and returns the compiled Artifact.
	Compile(source string, target Target) (Artifact, error)
}

// UnavailableCompiler is a Compiler that always fails, useful as a
// default wiring when no real toolchain is configured: callers get a
// clear error at the compile boundary instead of a nil-pointer panic.
type UnavailableCompiler struct{}

func (UnavailableCompiler) Compile(string, Target) (Artifact, error) {
	return Artifact{}, fmt.Errorf("native: no Compiler configured; device HLSL was generated but not compiled")
}
