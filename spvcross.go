// Package spvcross translates SPIR-V shader modules to high-level shading
// languages.
//
// The input is an already parsed module (see package ir). Supported outputs:
//   - GLSL for OpenGL 3.3+, ES 3.0+ and Vulkan GLSL (package glsl)
//   - HLSL for Shader Model 5.0 to 6.7 (package hlsl)
//   - MSL for Metal 1.2 to 3.0 on macOS and iOS (package msl)
//   - a JSON reflection document (package reflection)
//
// Compile is the one-call entry point. For reflection queries, binding
// overrides or repeated compilation with different options, use the
// backend packages directly; hosts without Go pointers use package capi.
//
// Example:
//
//	opts := spvcross.DefaultOptions(spvcross.TargetMSL)
//	opts.MSL.Platform = msl.PlatformIOS
//	src, err := spvcross.Compile(module, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
package spvcross

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/glsl"
	"github.com/gogpu/spvcross/hlsl"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/msl"
	"github.com/gogpu/spvcross/reflection"
	"github.com/gogpu/spvcross/spirv"
)

// Target is an output language.
type Target uint8

// Targets.
const (
	TargetGLSL Target = iota
	TargetHLSL
	TargetMSL
	TargetJSON
)

var targetNames = [...]string{"glsl", "hlsl", "msl", "json"}

// String returns the lower-case target name.
func (t Target) String() string {
	if int(t) < len(targetNames) {
		return targetNames[t]
	}
	return fmt.Sprintf("Target(%d)", t)
}

// ParseTarget looks a target up by name, ignoring case.
func ParseTarget(name string) (Target, error) {
	for i, n := range targetNames {
		if strings.EqualFold(name, n) {
			return Target(i), nil
		}
	}
	return 0, cross.Errorf(cross.ErrInvalidArgument, "unknown target %q", name)
}

// CompileOptions configures Compile. Only the options of Target are used.
type CompileOptions struct {
	Target Target

	// EntryPoint selects the entry point by name. Empty selects the first.
	EntryPoint string

	// Stage disambiguates EntryPoint when several stages share the name.
	Stage *spirv.ExecutionModel

	GLSL       glsl.Options
	HLSL       hlsl.Options
	MSL        msl.Options
	Reflection reflection.Options

	// Logger receives debug events of the compilation. Nil discards them.
	Logger *zap.Logger
}

// DefaultOptions returns the default options of every backend with target
// selected.
func DefaultOptions(target Target) CompileOptions {
	return CompileOptions{
		Target:     target,
		GLSL:       glsl.DefaultOptions(),
		HLSL:       hlsl.DefaultOptions(),
		MSL:        msl.DefaultOptions(),
		Reflection: reflection.DefaultOptions(),
	}
}

// compiler is what Compile needs from a backend.
type compiler interface {
	SelectEntryPoint(name string, model *spirv.ExecutionModel) error
	Compile() (string, error)
}

// Compile translates module to the target language. The module is not
// modified.
func Compile(module *ir.Module, opts CompileOptions) (string, error) {
	copts := []cross.Option{cross.WithLogger(opts.Logger)}
	var (
		c   compiler
		err error
	)
	switch opts.Target {
	case TargetGLSL:
		c, err = glsl.New(module, opts.GLSL, copts...)
	case TargetHLSL:
		c, err = hlsl.New(module, opts.HLSL, copts...)
	case TargetMSL:
		c, err = msl.New(module, opts.MSL, copts...)
	case TargetJSON:
		c, err = reflection.New(module, opts.Reflection, copts...)
	default:
		return "", cross.Errorf(cross.ErrInvalidArgument, "unknown target %d", opts.Target)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", opts.Target, err)
	}
	if opts.EntryPoint != "" {
		if err := c.SelectEntryPoint(opts.EntryPoint, opts.Stage); err != nil {
			return "", fmt.Errorf("%s: %w", opts.Target, err)
		}
	}
	return c.Compile()
}

// Validate checks module for dangling references. Every backend runs it
// before compiling.
func Validate(module *ir.Module) error {
	return ir.Validate(module)
}
