// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"

	"github.com/gogpu/spvcross/spirv"
)

// ShaderModel represents a DirectX Shader Model version.
// Shader Models define the feature set available for shader compilation.
type ShaderModel uint8

// Supported Shader Model versions.
const (
	// ShaderModel5_0 is the base SM5 version (DirectX 11).
	ShaderModel5_0 ShaderModel = iota

	// ShaderModel5_1 adds register spaces. It is the default.
	ShaderModel5_1

	// ShaderModel6_0 introduces DXIL and 64-bit integers.
	ShaderModel6_0

	ShaderModel6_1

	// ShaderModel6_2 adds native 16-bit types.
	ShaderModel6_2

	ShaderModel6_3
	ShaderModel6_4
	ShaderModel6_5
	ShaderModel6_6
	ShaderModel6_7
)

// String returns a human-readable representation of the shader model.
// Example: "SM 5.1", "SM 6.0"
func (sm ShaderModel) String() string {
	major, minor := sm.version()
	return fmt.Sprintf("SM %d.%d", major, minor)
}

// ProfileSuffix returns the shader profile suffix for this model.
// Example: "5_1", "6_0"
// Used to construct profiles like "vs_5_1", "ps_6_0".
func (sm ShaderModel) ProfileSuffix() string {
	major, minor := sm.version()
	return fmt.Sprintf("%d_%d", major, minor)
}

// version returns the major and minor version numbers.
func (sm ShaderModel) version() (major, minor uint8) {
	switch sm {
	case ShaderModel5_0:
		return 5, 0
	case ShaderModel5_1:
		return 5, 1
	case ShaderModel6_0:
		return 6, 0
	case ShaderModel6_1:
		return 6, 1
	case ShaderModel6_2:
		return 6, 2
	case ShaderModel6_3:
		return 6, 3
	case ShaderModel6_4:
		return 6, 4
	case ShaderModel6_5:
		return 6, 5
	case ShaderModel6_6:
		return 6, 6
	case ShaderModel6_7:
		return 6, 7
	default:
		return 5, 1 // Default to 5.1 for unknown
	}
}

// Major returns the major version number.
func (sm ShaderModel) Major() uint8 {
	major, _ := sm.version()
	return major
}

// Minor returns the minor version number.
func (sm ShaderModel) Minor() uint8 {
	_, minor := sm.version()
	return minor
}

// SupportsSpaces reports register space support, introduced in
// Shader Model 5.1.
func (sm ShaderModel) SupportsSpaces() bool {
	return sm >= ShaderModel5_1
}

// SupportsInt64 reports 64-bit integer support, introduced in Shader
// Model 6.0.
func (sm ShaderModel) SupportsInt64() bool {
	return sm >= ShaderModel6_0
}

// SupportsFloat16 reports native 16-bit types, introduced in Shader
// Model 6.2.
func (sm ShaderModel) SupportsFloat16() bool {
	return sm >= ShaderModel6_2
}

// Profile returns the compiler target profile for a stage, such as
// "ps_5_1". It is empty for stages HLSL cannot express.
func (sm ShaderModel) Profile(model spirv.ExecutionModel) string {
	var prefix string
	switch model {
	case spirv.ExecutionModelVertex:
		prefix = "vs"
	case spirv.ExecutionModelFragment:
		prefix = "ps"
	case spirv.ExecutionModelGLCompute:
		prefix = "cs"
	case spirv.ExecutionModelGeometry:
		prefix = "gs"
	case spirv.ExecutionModelTessellationControl:
		prefix = "hs"
	case spirv.ExecutionModelTessellationEvaluation:
		prefix = "ds"
	default:
		return ""
	}
	return prefix + "_" + sm.ProfileSuffix()
}
