// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"testing"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

func TestScalarToHLSL(t *testing.T) {
	tests := []struct {
		name string
		typ  ir.Type
		want string
	}{
		{"bool", ir.Type{Base: ir.BaseBool}, "bool"},
		{"int16", ir.Type{Base: ir.BaseInt, Width: 16}, "int16_t"},
		{"int32", ir.Type{Base: ir.BaseInt, Width: 32}, "int"},
		{"int64", ir.Type{Base: ir.BaseInt, Width: 64}, "int64_t"},
		{"uint16", ir.Type{Base: ir.BaseUInt, Width: 16}, "uint16_t"},
		{"uint32", ir.Type{Base: ir.BaseUInt, Width: 32}, "uint"},
		{"uint64", ir.Type{Base: ir.BaseUInt, Width: 64}, "uint64_t"},
		{"half", ir.Type{Base: ir.BaseFloat, Width: 16}, "half"},
		{"float", ir.Type{Base: ir.BaseFloat, Width: 32}, "float"},
		{"double", ir.Type{Base: ir.BaseFloat, Width: 64}, "double"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scalarToHLSL(&tt.typ); got != tt.want {
				t.Errorf("scalarToHLSL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNumericToHLSL(t *testing.T) {
	tests := []struct {
		name string
		typ  ir.Type
		want string
	}{
		{"scalar", ir.Type{Base: ir.BaseFloat, Width: 32, VecSize: 1, Columns: 1}, "float"},
		{"vec3", ir.Type{Base: ir.BaseFloat, Width: 32, VecSize: 3, Columns: 1}, "float3"},
		{"uvec2", ir.Type{Base: ir.BaseUInt, Width: 32, VecSize: 2, Columns: 1}, "uint2"},
		{"mat4", ir.Type{Base: ir.BaseFloat, Width: 32, VecSize: 4, Columns: 4}, "float4x4"},
		// Two columns of three rows: each column is an HLSL row.
		{"mat2x3", ir.Type{Base: ir.BaseFloat, Width: 32, VecSize: 3, Columns: 2}, "float2x3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := numericToHLSL(&tt.typ); got != tt.want {
				t.Errorf("numericToHLSL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImageToHLSL(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	u32 := b.Int(32, false)
	m := b.Module()

	tests := []struct {
		name       string
		typ        ir.Type
		readOnly   bool
		comparison bool
		want       string
	}{
		{"sampler", ir.Type{Base: ir.BaseSampler}, false, false, "SamplerState"},
		{"comparison sampler", ir.Type{Base: ir.BaseSampler}, false, true, "SamplerComparisonState"},
		{
			"texture2d",
			ir.Type{Base: ir.BaseImage, Image: ir.ImageType{SampledType: f32, Dim: spirv.Dim2D, Sampled: 1}},
			false, false, "Texture2D<float4>",
		},
		{
			"utexture2d array",
			ir.Type{Base: ir.BaseImage, Image: ir.ImageType{SampledType: u32, Dim: spirv.Dim2D, Arrayed: true, Sampled: 1}},
			false, false, "Texture2DArray<uint4>",
		},
		{
			"multisampled",
			ir.Type{Base: ir.BaseImage, Image: ir.ImageType{SampledType: f32, Dim: spirv.Dim2D, MS: true, Sampled: 1}},
			false, false, "Texture2DMS<float4>",
		},
		{
			"cube",
			ir.Type{Base: ir.BaseImage, Image: ir.ImageType{SampledType: f32, Dim: spirv.DimCube, Sampled: 1}},
			false, false, "TextureCube<float4>",
		},
		{
			"storage rgba8",
			ir.Type{Base: ir.BaseImage, Image: ir.ImageType{SampledType: f32, Dim: spirv.Dim2D, Sampled: 2, Format: spirv.ImageFormatRgba8}},
			false, false, "RWTexture2D<unorm float4>",
		},
		{
			"read-only storage r32f",
			ir.Type{Base: ir.BaseImage, Image: ir.ImageType{SampledType: f32, Dim: spirv.Dim3D, Sampled: 2, Format: spirv.ImageFormatR32f}},
			true, false, "Texture3D<float>",
		},
		{
			"texel buffer",
			ir.Type{Base: ir.BaseImage, Image: ir.ImageType{SampledType: u32, Dim: spirv.DimBuffer, Sampled: 2, Format: spirv.ImageFormatR32ui}},
			false, false, "RWBuffer<uint>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := imageToHLSL(m, &tt.typ, tt.readOnly, tt.comparison); got != tt.want {
				t.Errorf("imageToHLSL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImageCoordinates(t *testing.T) {
	tests := []struct {
		img  ir.ImageType
		want int
	}{
		{ir.ImageType{Dim: spirv.Dim1D}, 1},
		{ir.ImageType{Dim: spirv.DimBuffer}, 1},
		{ir.ImageType{Dim: spirv.Dim2D}, 2},
		{ir.ImageType{Dim: spirv.Dim2D, Arrayed: true}, 3},
		{ir.ImageType{Dim: spirv.Dim3D}, 3},
		{ir.ImageType{Dim: spirv.DimCube, Arrayed: true}, 3},
	}
	for _, tt := range tests {
		if got := imageCoordinates(tt.img); got != tt.want {
			t.Errorf("imageCoordinates(%+v) = %d, want %d", tt.img, got, tt.want)
		}
	}
}

func TestPackOffset(t *testing.T) {
	tests := []struct {
		off  uint32
		want string
	}{
		{0, "packoffset(c0)"},
		{4, "packoffset(c0.y)"},
		{12, "packoffset(c0.w)"},
		{32, "packoffset(c2)"},
		{40, "packoffset(c2.z)"},
	}
	for _, tt := range tests {
		if got := packOffset(tt.off); got != tt.want {
			t.Errorf("packOffset(%d) = %q, want %q", tt.off, got, tt.want)
		}
	}
}

func TestInterpolationModifier(t *testing.T) {
	tests := []struct {
		name string
		decs []spirv.Decoration
		want string
	}{
		{"none", nil, ""},
		{"flat", []spirv.Decoration{spirv.DecorationFlat}, "nointerpolation "},
		{"noperspective", []spirv.Decoration{spirv.DecorationNoPerspective}, "noperspective "},
		{"centroid", []spirv.Decoration{spirv.DecorationCentroid}, "centroid "},
		{"sample", []spirv.Decoration{spirv.DecorationSample}, "sample "},
		{
			"noperspective centroid",
			[]spirv.Decoration{spirv.DecorationNoPerspective, spirv.DecorationCentroid},
			"noperspective centroid ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			has := func(d spirv.Decoration) bool {
				for _, x := range tt.decs {
					if x == d {
						return true
					}
				}
				return false
			}
			if got := interpolationModifier(has); got != tt.want {
				t.Errorf("interpolationModifier() = %q, want %q", got, tt.want)
			}
		})
	}
}
