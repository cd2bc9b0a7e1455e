// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package hlsl provides an HLSL (High-Level Shading Language) backend.
//
// HLSL is Microsoft's shader language for DirectX. The generated source
// targets both legacy FXC (Shader Model 5.x) and DXC (Shader Model 6.x).
//
// # Shader Model Support
//
// Shader Models 5.0 to 6.7 are supported:
//   - SM 5.0-5.1: Legacy FXC compiler, DXBC output
//   - SM 6.0+: Modern DXC compiler, DXIL output
//
// Constructs that need a newer model than Options.ShaderModel, such as
// 16-bit types or register spaces on SM 5.0, fail with an unsupported
// input error. TranslationInfo.RequiredShaderModel reports the minimum.
//
// # Usage
//
//	options := hlsl.DefaultOptions()
//	options.ShaderModel = hlsl.ShaderModel6_0
//
//	source, info, err := hlsl.Compile(module, options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Entry Point
//
// The entry function is renamed after its stage (vert_main, frag_main,
// comp_main) and operates on static globals. A generated main copies the
// SPIRV_Cross_Input struct into the statics, calls it and gathers the
// SPIRV_Cross_Output struct. User varyings use TEXCOORD semantics; fragment
// outputs use SV_Target.
//
// # Register Binding
//
// HLSL uses register-based resource binding with spaces:
//
//	cbuffer : register(b#, space#)  // Constant buffers
//	Texture : register(t#, space#)  // Textures/SRVs
//	Sampler : register(s#, space#)  // Samplers
//	RWTexture: register(u#, space#) // UAVs
//
// Options.BindingMap overrides the register of a set and binding; other
// resources use their binding as the register and their set as the
// space. Combined image-samplers are split into a texture and a sampler
// sharing the register number.
package hlsl
