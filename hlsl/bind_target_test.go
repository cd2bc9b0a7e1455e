// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import "testing"

func TestBindTarget_Default(t *testing.T) {
	bt := DefaultBindTarget()

	if bt.Space != 0 {
		t.Errorf("Space = %d, want 0", bt.Space)
	}
	if bt.Register != 0 {
		t.Errorf("Register = %d, want 0", bt.Register)
	}
}

func TestBindTarget_Chaining(t *testing.T) {
	bt := DefaultBindTarget().
		WithSpace(2).
		WithRegister(5)

	if bt.Space != 2 {
		t.Errorf("Space = %d, want 2", bt.Space)
	}
	if bt.Register != 5 {
		t.Errorf("Register = %d, want 5", bt.Register)
	}
}

func TestBindTarget_Immutability(t *testing.T) {
	original := DefaultBindTarget()
	_ = original.WithSpace(5)
	_ = original.WithRegister(10)

	if original.Space != 0 || original.Register != 0 {
		t.Errorf("With* modified the receiver: %+v", original)
	}
}

func TestRegisterType_String(t *testing.T) {
	tests := []struct {
		rt   RegisterType
		want string
	}{
		{RegisterTypeB, "b"},
		{RegisterTypeT, "t"},
		{RegisterTypeS, "s"},
		{RegisterTypeU, "u"},
		{RegisterType(255), "b"}, // Unknown defaults to b
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.rt.String()
			if got != tt.want {
				t.Errorf("RegisterType.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBindTarget_Format(t *testing.T) {
	tests := []struct {
		name string
		bt   BindTarget
		rt   RegisterType
		sm   ShaderModel
		want string
	}{
		{"space zero", BindTarget{Register: 3}, RegisterTypeT, ShaderModel5_1, "register(t3)"},
		{"space one", BindTarget{Space: 1, Register: 0}, RegisterTypeB, ShaderModel5_1, "register(b0, space1)"},
		{"no spaces before 5.1", BindTarget{Space: 1, Register: 2}, RegisterTypeU, ShaderModel5_0, "register(u2)"},
		{"sampler", BindTarget{Space: 4, Register: 7}, RegisterTypeS, ShaderModel6_0, "register(s7, space4)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bt.format(tt.rt, tt.sm); got != tt.want {
				t.Errorf("format() = %q, want %q", got, tt.want)
			}
		})
	}
}
