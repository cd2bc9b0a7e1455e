// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/spvcross/ir"
)

// Options configures HLSL code generation.
type Options struct {
	// ShaderModel specifies the target shader model.
	// Defaults to ShaderModel5_1 for maximum compatibility.
	ShaderModel ShaderModel

	// BindingMap maps source resource bindings to HLSL register targets.
	// Resources missing from the map use their Binding decoration as the
	// register and their DescriptorSet as the space.
	BindingMap map[ResourceBinding]BindTarget

	// PushConstants is the constant buffer register of the push constant
	// block. When nil the first free b register of space 0 is used.
	PushConstants *BindTarget

	// FlipVertexY negates the y coordinate of the vertex position.
	FlipVertexY bool

	// FixupClipSpace maps clip-space depth from [-w, w] to [0, w].
	FixupClipSpace bool
}

// DefaultOptions returns sensible default options for HLSL generation.
func DefaultOptions() Options {
	return Options{
		ShaderModel: ShaderModel5_1,
		BindingMap:  make(map[ResourceBinding]BindTarget),
	}
}

// FeatureFlags indicates which HLSL features are used by the generated code.
type FeatureFlags uint32

const (
	// FeatureNone indicates no special features are used.
	FeatureNone FeatureFlags = 0

	// Feature64BitIntegers indicates 64-bit integer types are used.
	Feature64BitIntegers FeatureFlags = 1 << iota

	// FeatureFloat16 indicates native 16-bit types are used (SM 6.2+).
	FeatureFloat16

	// FeatureDoubles indicates double precision types are used.
	FeatureDoubles
)

// Has returns true if the flags contain the specified feature.
func (f FeatureFlags) Has(feature FeatureFlags) bool {
	return f&feature != 0
}

// String returns a human-readable list of enabled features.
func (f FeatureFlags) String() string {
	var features []string
	if f.Has(Feature64BitIntegers) {
		features = append(features, "64BitIntegers")
	}
	if f.Has(FeatureFloat16) {
		features = append(features, "Float16")
	}
	if f.Has(FeatureDoubles) {
		features = append(features, "Doubles")
	}
	if len(features) == 0 {
		return "none"
	}
	return strings.Join(features, ", ")
}

// TranslationInfo contains metadata about the HLSL translation.
type TranslationInfo struct {
	// EntryPoint is the name of the translated entry point in the module.
	// The generated entry function is always main.
	EntryPoint string

	// Profile is the compiler target, such as "ps_5_1".
	Profile string

	// UsedFeatures indicates which shader features are used.
	UsedFeatures FeatureFlags

	// RequiredShaderModel is the minimum shader model the output needs.
	RequiredShaderModel ShaderModel

	// RegisterBindings maps resource names to their register clause.
	// Format: "resourceName" -> "register(t0, space1)"
	RegisterBindings map[string]string
}

// Compile generates HLSL source code for the first entry point of module.
// Returns the HLSL source, translation info, or an error.
func Compile(module *ir.Module, options Options) (string, TranslationInfo, error) {
	c, err := New(module, options)
	if err != nil {
		return "", TranslationInfo{}, fmt.Errorf("hlsl: %w", err)
	}
	source, err := c.Compile()
	if err != nil {
		return "", TranslationInfo{}, err
	}
	return source, c.TranslationInfo(), nil
}
