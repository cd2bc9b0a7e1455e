// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"testing"

	"github.com/gogpu/spvcross/spirv"
)

func TestShaderModel_String(t *testing.T) {
	tests := []struct {
		name string
		sm   ShaderModel
		want string
	}{
		{"SM 5.0", ShaderModel5_0, "SM 5.0"},
		{"SM 5.1", ShaderModel5_1, "SM 5.1"},
		{"SM 6.0", ShaderModel6_0, "SM 6.0"},
		{"SM 6.1", ShaderModel6_1, "SM 6.1"},
		{"SM 6.2", ShaderModel6_2, "SM 6.2"},
		{"SM 6.3", ShaderModel6_3, "SM 6.3"},
		{"SM 6.4", ShaderModel6_4, "SM 6.4"},
		{"SM 6.5", ShaderModel6_5, "SM 6.5"},
		{"SM 6.6", ShaderModel6_6, "SM 6.6"},
		{"SM 6.7", ShaderModel6_7, "SM 6.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sm.String()
			if got != tt.want {
				t.Errorf("ShaderModel.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShaderModel_ProfileSuffix(t *testing.T) {
	tests := []struct {
		name string
		sm   ShaderModel
		want string
	}{
		{"SM 5.0 suffix", ShaderModel5_0, "5_0"},
		{"SM 5.1 suffix", ShaderModel5_1, "5_1"},
		{"SM 6.0 suffix", ShaderModel6_0, "6_0"},
		{"SM 6.5 suffix", ShaderModel6_5, "6_5"},
		{"SM 6.7 suffix", ShaderModel6_7, "6_7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sm.ProfileSuffix()
			if got != tt.want {
				t.Errorf("ShaderModel.ProfileSuffix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShaderModel_Version(t *testing.T) {
	tests := []struct {
		name      string
		sm        ShaderModel
		wantMajor uint8
		wantMinor uint8
	}{
		{"SM 5.0", ShaderModel5_0, 5, 0},
		{"SM 5.1", ShaderModel5_1, 5, 1},
		{"SM 6.0", ShaderModel6_0, 6, 0},
		{"SM 6.3", ShaderModel6_3, 6, 3},
		{"SM 6.7", ShaderModel6_7, 6, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMajor := tt.sm.Major()
			gotMinor := tt.sm.Minor()
			if gotMajor != tt.wantMajor {
				t.Errorf("Major() = %d, want %d", gotMajor, tt.wantMajor)
			}
			if gotMinor != tt.wantMinor {
				t.Errorf("Minor() = %d, want %d", gotMinor, tt.wantMinor)
			}
		})
	}
}

func TestShaderModel_Features(t *testing.T) {
	tests := []struct {
		name    string
		sm      ShaderModel
		spaces  bool
		int64   bool
		float16 bool
	}{
		{"SM 5.0", ShaderModel5_0, false, false, false},
		{"SM 5.1", ShaderModel5_1, true, false, false},
		{"SM 6.0", ShaderModel6_0, true, true, false},
		{"SM 6.2", ShaderModel6_2, true, true, true},
		{"SM 6.6", ShaderModel6_6, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sm.SupportsSpaces(); got != tt.spaces {
				t.Errorf("SupportsSpaces() = %v, want %v", got, tt.spaces)
			}
			if got := tt.sm.SupportsInt64(); got != tt.int64 {
				t.Errorf("SupportsInt64() = %v, want %v", got, tt.int64)
			}
			if got := tt.sm.SupportsFloat16(); got != tt.float16 {
				t.Errorf("SupportsFloat16() = %v, want %v", got, tt.float16)
			}
		})
	}
}

func TestShaderModel_Profile(t *testing.T) {
	tests := []struct {
		name  string
		sm    ShaderModel
		model spirv.ExecutionModel
		want  string
	}{
		{"vertex", ShaderModel5_0, spirv.ExecutionModelVertex, "vs_5_0"},
		{"fragment", ShaderModel5_1, spirv.ExecutionModelFragment, "ps_5_1"},
		{"compute", ShaderModel6_0, spirv.ExecutionModelGLCompute, "cs_6_0"},
		{"geometry", ShaderModel5_1, spirv.ExecutionModelGeometry, "gs_5_1"},
		{"hull", ShaderModel5_0, spirv.ExecutionModelTessellationControl, "hs_5_0"},
		{"domain", ShaderModel6_2, spirv.ExecutionModelTessellationEvaluation, "ds_6_2"},
		{"unknown", ShaderModel5_1, spirv.ExecutionModel(99), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sm.Profile(tt.model); got != tt.want {
				t.Errorf("Profile(%v) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}

func TestShaderModel_Unknown(t *testing.T) {
	// Test unknown shader model falls back to 5.1
	unknown := ShaderModel(255)
	if unknown.Major() != 5 {
		t.Errorf("Unknown shader model major = %d, want 5", unknown.Major())
	}
	if unknown.Minor() != 1 {
		t.Errorf("Unknown shader model minor = %d, want 1", unknown.Minor())
	}
}
