// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
)

// Compiler translates a module to HLSL.
type Compiler struct {
	*cross.Compiler

	opts Options
	info TranslationInfo
}

// New creates an HLSL compiler over m.
func New(m *ir.Module, opts Options, copts ...cross.Option) (*Compiler, error) {
	base, err := cross.New(m, copts...)
	if err != nil {
		return nil, err
	}
	return &Compiler{Compiler: base, opts: opts}, nil
}

// Options returns the current options.
func (c *Compiler) Options() Options { return c.opts }

// SetOptions replaces the options used by the next compilation.
func (c *Compiler) SetOptions(opts Options) { c.opts = opts }

// SetResourceBinding overrides the register of the resource at set and
// binding.
func (c *Compiler) SetResourceBinding(set, binding uint32, target BindTarget) {
	if c.opts.BindingMap == nil {
		c.opts.BindingMap = make(map[ResourceBinding]BindTarget)
	}
	c.opts.BindingMap[ResourceBinding{Group: set, Binding: binding}] = target
}

// TranslationInfo returns the description of the last compilation.
func (c *Compiler) TranslationInfo() TranslationInfo { return c.info }

// Compile generates HLSL for the selected entry point.
func (c *Compiler) Compile() (string, error) {
	if c.EntryPoint() == nil {
		return "", fmt.Errorf("hlsl: %w", cross.Invalid("module has no entry point"))
	}
	var last *writer
	text, err := emit.FixedPoint(c.Logger(), emit.MaxPasses, func(int) (string, bool, error) {
		w := newWriter(c, c.Fork(c.Module().Clone()))
		text, err := w.write()
		if err != nil {
			return "", false, err
		}
		last = w
		return text, false, nil
	})
	if err != nil {
		return "", fmt.Errorf("hlsl: %w", err)
	}
	c.info = TranslationInfo{
		EntryPoint:          c.EntryPoint().Name,
		Profile:             c.opts.ShaderModel.Profile(c.EntryPoint().Model),
		UsedFeatures:        last.features,
		RequiredShaderModel: last.required,
		RegisterBindings:    last.registers,
	}
	c.Logger().Debug("compiled hlsl",
		zap.String("entry", c.info.EntryPoint),
		zap.String("profile", c.info.Profile),
		zap.Stringer("features", last.features),
		zap.Stringer("required", last.required))
	return text, nil
}
