// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import "fmt"

// BindTarget specifies the HLSL register binding for a resource.
// HLSL uses register(x#, space#) syntax for resource binding.
type BindTarget struct {
	// Space is the register space (0-based). Spaces require Shader
	// Model 5.1.
	Space uint8

	// Register is the register index within the space.
	Register uint32
}

// ResourceBinding identifies a resource in the source shader by its
// SPIR-V DescriptorSet and Binding decorations.
type ResourceBinding struct {
	// Group is the descriptor set.
	Group uint32

	// Binding is the binding within the set.
	Binding uint32
}

// RegisterType represents the HLSL register type.
type RegisterType uint8

const (
	// RegisterTypeB is for constant buffers (cbuffer).
	RegisterTypeB RegisterType = iota

	// RegisterTypeT is for textures and shader resource views.
	RegisterTypeT

	// RegisterTypeS is for samplers.
	RegisterTypeS

	// RegisterTypeU is for unordered access views (UAV).
	RegisterTypeU
)

// String returns the single-character register prefix.
func (rt RegisterType) String() string {
	switch rt {
	case RegisterTypeB:
		return "b"
	case RegisterTypeT:
		return "t"
	case RegisterTypeS:
		return "s"
	case RegisterTypeU:
		return "u"
	default:
		return "b"
	}
}

// DefaultBindTarget returns register 0 in space 0.
func DefaultBindTarget() BindTarget {
	return BindTarget{}
}

// WithSpace returns a copy of the BindTarget with the specified space.
func (bt BindTarget) WithSpace(space uint8) BindTarget {
	bt.Space = space
	return bt
}

// WithRegister returns a copy of the BindTarget with the specified register.
func (bt BindTarget) WithRegister(register uint32) BindTarget {
	bt.Register = register
	return bt
}

// format spells the register clause. Shader models without register
// spaces drop the space.
//
//	register(b0)
//	register(t0, space1)
func (bt BindTarget) format(rt RegisterType, sm ShaderModel) string {
	if !sm.SupportsSpaces() || bt.Space == 0 {
		return fmt.Sprintf("register(%s%d)", rt, bt.Register)
	}
	return fmt.Sprintf("register(%s%d, space%d)", rt, bt.Register, bt.Space)
}
