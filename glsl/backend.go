// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/spvcross/ir"
)

// Version represents a GLSL version.
type Version struct {
	Major uint8
	Minor uint8
	ES    bool // true for GLSL ES (OpenGL ES / WebGL)
}

// Common GLSL versions.
var (
	// Desktop OpenGL versions
	Version330 = Version{Major: 3, Minor: 30, ES: false} // OpenGL 3.3 Core
	Version400 = Version{Major: 4, Minor: 0, ES: false}  // OpenGL 4.0
	Version410 = Version{Major: 4, Minor: 10, ES: false} // OpenGL 4.1
	Version420 = Version{Major: 4, Minor: 20, ES: false} // OpenGL 4.2
	Version430 = Version{Major: 4, Minor: 30, ES: false} // OpenGL 4.3 (compute shaders)
	Version440 = Version{Major: 4, Minor: 40, ES: false} // OpenGL 4.4 (explicit offsets)
	Version450 = Version{Major: 4, Minor: 50, ES: false} // OpenGL 4.5
	Version460 = Version{Major: 4, Minor: 60, ES: false} // OpenGL 4.6

	// OpenGL ES / WebGL versions
	VersionES300 = Version{Major: 3, Minor: 0, ES: true}  // ES 3.0 / WebGL 2.0
	VersionES310 = Version{Major: 3, Minor: 10, ES: true} // ES 3.1 (compute shaders)
	VersionES320 = Version{Major: 3, Minor: 20, ES: true} // ES 3.2
)

// String returns the version as a GLSL version directive value.
func (v Version) String() string {
	if v.ES {
		return fmt.Sprintf("%d%02d es", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d%02d core", v.Major, v.Minor)
}

// VersionNumber returns just the numeric version (e.g., "330", "300").
func (v Version) VersionNumber() string {
	return fmt.Sprintf("%d%02d", v.Major, v.Minor)
}

// versionLessThan returns true if the numeric version (Major*100+Minor) is
// less than the given number. For example, versionLessThan(410) returns true
// for GLSL 330 (3*100+30=330 < 410) and false for GLSL 410 (4*100+10=410).
func (v Version) versionLessThan(number int) bool {
	return int(v.Major)*100+int(v.Minor) < number
}

// SupportsCompute returns true if this version supports compute shaders.
func (v Version) SupportsCompute() bool {
	if v.ES {
		return !v.versionLessThan(310)
	}
	return !v.versionLessThan(430)
}

// SupportsStorageBuffers returns true if this version supports storage buffers.
func (v Version) SupportsStorageBuffers() bool {
	return v.SupportsCompute()
}

// SupportsBindings reports whether layout(binding = N) is core.
func (v Version) SupportsBindings() bool {
	if v.ES {
		return !v.versionLessThan(310)
	}
	return !v.versionLessThan(420)
}

// SupportsVaryingLocations reports whether inter-stage variables may carry
// layout(location = N).
func (v Version) SupportsVaryingLocations() bool {
	if v.ES {
		return !v.versionLessThan(310)
	}
	return !v.versionLessThan(410)
}

// Options configures GLSL code generation.
type Options struct {
	// LangVersion is the target GLSL version.
	// Defaults to Version330 if zero.
	LangVersion Version

	// VulkanSemantics emits GLSL for Vulkan (GL_KHR_vulkan_glsl):
	// descriptor sets, push constant blocks, separate images and samplers
	// and specialization constants by constant_id.
	VulkanSemantics bool

	// SeparateShaderObjects redeclares the gl_PerVertex output block of
	// vertex shaders.
	SeparateShaderObjects bool

	// TextureBindingBase adds offset to texture and storage image binding
	// indices.
	TextureBindingBase uint32

	// UniformBindingBase adds offset to uniform buffer binding indices.
	UniformBindingBase uint32

	// StorageBindingBase adds offset to storage buffer binding indices.
	StorageBindingBase uint32

	// ForceHighPrecision forces highp precision for all float types (ES only).
	// If false, float defaults to mediump.
	ForceHighPrecision bool

	// FlipVertexY negates gl_Position.y before a vertex shader returns.
	FlipVertexY bool

	// FixupClipSpace maps clip-space depth from [0, w] to [-w, w] before a
	// vertex shader returns.
	FixupClipSpace bool
}

// DefaultOptions returns sensible default options for GLSL generation.
func DefaultOptions() Options {
	return Options{
		LangVersion:        Version450,
		ForceHighPrecision: true,
	}
}

// TranslationInfo contains metadata about the translation.
type TranslationInfo struct {
	// EntryPoint is the name of the translated entry point in the module.
	// The generated function is always main.
	EntryPoint string

	// UsedExtensions lists GLSL extensions required by the shader.
	UsedExtensions []string

	// TextureSamplerPairs lists the combined image-samplers synthesized
	// for separate images and samplers.
	TextureSamplerPairs []string
}

// Compile generates GLSL source code for the first entry point of module.
// Returns the GLSL source as a string, translation info, or an error.
func Compile(module *ir.Module, options Options) (string, TranslationInfo, error) {
	c, err := New(module, options)
	if err != nil {
		return "", TranslationInfo{}, fmt.Errorf("glsl: %w", err)
	}
	source, err := c.Compile()
	if err != nil {
		return "", TranslationInfo{}, err
	}
	return source, c.TranslationInfo(), nil
}
