// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"sort"
	"testing"
)

func TestIsReserved(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"fxc_keyword_bool", "bool", true},
		{"fxc_keyword_struct", "struct", true},
		{"fxc_keyword_cbuffer", "cbuffer", true},
		{"fxc_keyword_texture2d", "Texture2D", true},
		{"fxc_reserved_auto", "auto", true},
		{"fxc_intrinsic_lerp", "lerp", true},
		{"fxc_intrinsic_saturate", "saturate", true},
		{"fxc_intrinsic_mul", "mul", true},
		{"dxc_keyword_constexpr", "constexpr", true},
		{"dxc_wave_isFirstLane", "WaveIsFirstLane", true},
		{"dxc_resource_rwTexture2dms", "RWTexture2DMS", true},
		{"storage_groupshared", "groupshared", true},
		{"shorthand_vector", "float4", true},
		{"shorthand_matrix", "half3x4", true},
		{"shorthand_min16", "min16uint2", true},
		{"case_insensitive_upper", "TECHNIQUE", true},
		{"case_insensitive_mixed", "Texture3d", true},
		{"non_reserved_color", "color", false},
		{"non_reserved_camelCase", "myShaderVariable", false},
		{"non_reserved_vector_suffix", "float5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsReserved(tt.input)
			if got != tt.expected {
				t.Errorf("IsReserved(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestKeywordListIsSortedAndUnique(t *testing.T) {
	list := keywordList()
	if !sort.StringsAreSorted(list) {
		t.Fatal("keywordList() is not sorted")
	}
	for i := 1; i < len(list); i++ {
		if list[i] == list[i-1] {
			t.Errorf("keywordList() repeats %q", list[i])
		}
	}
	for _, want := range []string{"float4x4", "SamplerState", "technique"} {
		i := sort.SearchStrings(list, want)
		if i == len(list) || list[i] != want {
			t.Errorf("keywordList() lacks %q", want)
		}
	}
}

func TestTypeShorthandsGeneration(t *testing.T) {
	set := make(map[string]bool, len(typeShorthands))
	for _, s := range typeShorthands {
		set[s] = true
	}
	for _, want := range []string{"float", "float1", "float4", "float4x4", "int2x3", "uint64_t3", "float16_t2x2", "int8_t4_packed"} {
		if !set[want] {
			t.Errorf("typeShorthands lacks %q", want)
		}
	}
	if set["float0"] || set["float4x5"] {
		t.Error("typeShorthands contains out-of-range dimensions")
	}
}
