// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glsl provides a GLSL (OpenGL Shading Language) backend.
//
// It targets desktop GLSL from 3.30 core and GLSL ES from 3.00, and with
// VulkanSemantics set, the GL_KHR_vulkan_glsl dialect:
//
//   - GLSL ES 3.00: WebGL 2.0, Mobile OpenGL ES 3.0
//   - GLSL 3.30 Core: Desktop OpenGL 3.3+
//   - GLSL ES 3.10: Android 5.0+ with compute shaders
//   - GLSL 4.30 Core: Desktop OpenGL 4.3+ with compute shaders
//
// # Basic Usage
//
//	source, info, err := glsl.Compile(module, glsl.Options{
//	    LangVersion: glsl.Version330,
//	})
//
// # Texture/Sampler Handling
//
// SPIR-V may separate images and samplers, but OpenGL GLSL combines them.
// Outside Vulkan semantics the backend synthesizes one combined sampler
// uniform per image-sampler pair used together and reports them in
// TranslationInfo.TextureSamplerPairs.
//
// # Buffer Layout
//
// Uniform and storage blocks are declared std140 or std430, whichever
// reproduces the declared member offsets. Offsets neither can express are
// spelled with explicit layout(offset = N), which requires GLSL 4.40 or
// GL_ARB_enhanced_layouts.
//
// # Reserved Words
//
// GLSL has over 500 reserved words (including future reserved).
// The backend automatically escapes conflicting identifier names
// by prefixing them with an underscore. Names starting with gl_ or
// SPIRV_Cross_ are reserved for the backend.
package glsl
