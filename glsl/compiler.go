// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
)

// Compiler translates a module to GLSL.
type Compiler struct {
	*cross.Compiler

	opts Options
	info TranslationInfo
}

// New creates a GLSL compiler over m.
func New(m *ir.Module, opts Options, copts ...cross.Option) (*Compiler, error) {
	base, err := cross.New(m, copts...)
	if err != nil {
		return nil, err
	}
	if opts.LangVersion.Major == 0 {
		opts.LangVersion = Version330
	}
	return &Compiler{Compiler: base, opts: opts}, nil
}

// Options returns the current options.
func (c *Compiler) Options() Options { return c.opts }

// SetOptions replaces the options used by the next compilation.
func (c *Compiler) SetOptions(opts Options) {
	if opts.LangVersion.Major == 0 {
		opts.LangVersion = Version330
	}
	c.opts = opts
}

// TranslationInfo returns the description of the last compilation.
func (c *Compiler) TranslationInfo() TranslationInfo { return c.info }

// Compile generates GLSL for the selected entry point.
func (c *Compiler) Compile() (string, error) {
	if c.EntryPoint() == nil {
		return "", fmt.Errorf("glsl: %w", cross.Invalid("module has no entry point"))
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
		return "", fmt.Errorf("glsl: %w", err)
	}
	c.info = TranslationInfo{
		EntryPoint:          c.EntryPoint().Name,
		UsedExtensions:      last.extensions,
		TextureSamplerPairs: last.combinedNames,
	}
	c.Logger().Debug("compiled glsl",
		zap.String("entry", c.info.EntryPoint),
		zap.Stringer("version", c.opts.LangVersion),
		zap.Strings("extensions", last.extensions))
	return text, nil
}
