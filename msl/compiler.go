package msl

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// Compiler translates a module to the Metal Shading Language.
//
// Every compilation runs on a fresh clone of the module: interface
// structs, packed and widened types and resource indices are synthesized
// on the clone and discarded afterwards, so compiling twice yields the
// same text.
type Compiler struct {
	*cross.Compiler

	opts     Options
	bindings map[bindingKey]*bindingState

	// helpers persists the helper functions discovered by earlier passes.
	helpers map[string]bool
	info    TranslationInfo
}

type bindingState struct {
	ResourceBinding
	used bool
}

// New creates an MSL compiler over m.
func New(m *ir.Module, opts Options, copts ...cross.Option) (*Compiler, error) {
	base, err := cross.New(m, copts...)
	if err != nil {
		return nil, err
	}
	if opts.LangVersion == (Version{}) {
		opts.LangVersion = Version2_1
	}
	c := &Compiler{
		Compiler: base,
		opts:     opts,
		bindings: make(map[bindingKey]*bindingState),
		helpers:  make(map[string]bool),
	}
	c.SetNameCleanser(cleanseEntryName)
	return c, nil
}

// cleanseEntryName maps an entry point name to a legal Metal function
// name. "main" is reserved by Metal.
func cleanseEntryName(name string, _ spirv.ExecutionModel) string {
	if name == "main" {
		return "main0"
	}
	n := emit.NewNamer(mslKeywords, emit.WithReservedPrefixes(reservedPrefixes...))
	if out := n.Escape(emit.Sanitize(name)); out != "" {
		return out
	}
	return "main0"
}

// Options returns the current options.
func (c *Compiler) Options() Options { return c.opts }

// SetOptions replaces the options used by the next compilation.
func (c *Compiler) SetOptions(opts Options) {
	if opts.LangVersion == (Version{}) {
		opts.LangVersion = Version2_1
	}
	c.opts = opts
}

// AddResourceBinding registers an explicit index override. A later
// override for the same (stage, set, binding) replaces the earlier one.
func (c *Compiler) AddResourceBinding(b ResourceBinding) {
	key := bindingKey{stage: b.Stage, set: b.DescriptorSet, binding: b.Binding}
	c.bindings[key] = &bindingState{ResourceBinding: b}
}

// IsResourceUsed reports whether the last compilation bound a resource
// through the override registered for (stage, set, binding).
func (c *Compiler) IsResourceUsed(stage spirv.ExecutionModel, set, binding uint32) bool {
	b, ok := c.bindings[bindingKey{stage: stage, set: set, binding: binding}]
	return ok && b.used
}

// TranslationInfo returns the description of the last compilation.
func (c *Compiler) TranslationInfo() TranslationInfo { return c.info }

// Compile generates MSL for the selected entry point.
func (c *Compiler) Compile() (string, error) {
	if c.EntryPoint() == nil {
		return "", fmt.Errorf("msl: %w", cross.Invalid("module has no entry point"))
	}
	for _, b := range c.bindings {
		b.used = false
	}

	var last *writer
	text, err := emit.FixedPoint(c.Logger(), emit.MaxPasses, func(pass int) (string, bool, error) {
		w := newWriter(c, c.Fork(c.Module().Clone()))
		text, err := w.write()
		if err != nil {
			return "", false, err
		}
		last = w
		return text, w.again, nil
	})
	if err != nil {
		return "", fmt.Errorf("msl: %w", err)
	}

	// Keep exactly the helpers of the converged pass so that recompiling
	// with other options does not carry stale ones.
	c.helpers = last.used
	for key, b := range last.boundOverrides {
		if s, ok := c.bindings[key]; ok {
			s.used = b
		}
	}
	c.info = TranslationInfo{
		EntryPoint:       last.entryName,
		Resources:        last.assigned(),
		NeedsBufferSizes: last.needsSizes,
	}
	c.Logger().Debug("compiled msl",
		zap.String("entry", last.entryName),
		zap.Int("resources", len(c.info.Resources)),
		zap.Int("helpers", len(c.helpers)))
	return text, nil
}

// useHelper records that the pass emits a call to a helper function. The
// first use of a helper unknown to earlier passes requests another pass,
// since helpers are declared before the functions calling them.
func (w *writer) useHelper(name string) {
	for _, dep := range helperDeps[name] {
		w.useHelper(dep)
	}
	w.used[name] = true
	if !w.c.helpers[name] {
		w.c.helpers[name] = true
		w.again = true
		w.log.Debug("helper discovered", zap.String("helper", name))
	}
}

// sortedHelpers returns the helpers to declare, in a fixed order.
func (w *writer) sortedHelpers() []string {
	out := make([]string, 0, len(w.c.helpers))
	for name := range w.c.helpers {
		if _, ok := helperSources[name]; ok {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return helperRank(out[i]) < helperRank(out[j]) })
	return out
}
