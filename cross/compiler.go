package cross

import (
	"go.uber.org/zap"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// Compiler answers reflection queries over a module and holds the state
// shared by every backend: the selected entry point, the set of enabled
// interface variables and the combined image-sampler pairing.
type Compiler struct {
	ir    *ir.Module
	log   *zap.Logger
	entry int

	enabledInterface map[ir.ID]struct{}
	combined         []CombinedImageSampler

	// globalsMemo caches the transitive global-variable set of each
	// function reached from the entry point.
	globalsMemo map[ir.ID][]ir.ID

	cleanse func(name string, model spirv.ExecutionModel) string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for diagnostics. The default discards
// everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a compiler over m. The module is validated for reference
// integrity; dangling IDs are reported as ErrInvalidInput. The first entry
// point is selected.
func New(m *ir.Module, opts ...Option) (*Compiler, error) {
	if m == nil {
		return nil, NewError(ErrInvalidArgument, "module is nil")
	}
	if err := ir.Validate(m); err != nil {
		return nil, &Error{Kind: ErrInvalidInput, Message: "module failed validation", Err: err}
	}
	c := &Compiler{ir: m, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fork returns a compiler over m (usually a clone of the receiver's module)
// sharing the receiver's entry point selection, enabled interface and
// combined samplers.
func (c *Compiler) Fork(m *ir.Module) *Compiler {
	f := &Compiler{
		ir:               m,
		log:              c.log,
		entry:            c.entry,
		enabledInterface: c.enabledInterface,
		combined:         c.combined,
		cleanse:          c.cleanse,
	}
	return f
}

// Module returns the IR the compiler operates on.
func (c *Compiler) Module() *ir.Module { return c.ir }

// Logger returns the diagnostics logger.
func (c *Compiler) Logger() *zap.Logger { return c.log }

// SetLogger replaces the diagnostics logger.
func (c *Compiler) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	c.log = l
}

// SetNameCleanser installs the backend rule that maps an entry point name
// to the identifier emitted for it.
func (c *Compiler) SetNameCleanser(fn func(name string, model spirv.ExecutionModel) string) {
	c.cleanse = fn
}

// Type returns the type record of id.
func (c *Compiler) Type(id ir.ID) *ir.Type { return c.ir.Type(id) }

// TypeOf returns the type ID of a value.
func (c *Compiler) TypeOf(id ir.ID) ir.ID { return c.ir.TypeOf(id) }

// VariableType returns the pointee type of a variable.
func (c *Compiler) VariableType(id ir.ID) ir.ID {
	v := c.ir.Variable(id)
	if v == nil {
		return 0
	}
	return c.ir.Type(v.Type).Parent
}

// Decoration returns the literal of dec on id.
func (c *Compiler) Decoration(id ir.ID, dec spirv.Decoration) uint32 {
	return c.ir.DecorationValue(id, dec)
}

// HasDecoration reports whether id carries dec.
func (c *Compiler) HasDecoration(id ir.ID, dec spirv.Decoration) bool {
	return c.ir.HasDecoration(id, dec)
}

// SetDecoration records dec on id, replacing any previous value.
func (c *Compiler) SetDecoration(id ir.ID, dec spirv.Decoration, value uint32) {
	c.ir.Decorate(id, dec, value)
}

// UnsetDecoration removes dec from id.
func (c *Compiler) UnsetDecoration(id ir.ID, dec spirv.Decoration) {
	if meta, ok := c.ir.Meta[id]; ok {
		meta.Decoration.Unset(dec)
	}
}

// DecorationBitset returns the set of decorations present on id.
func (c *Compiler) DecorationBitset(id ir.ID) ir.Bitset {
	if meta, ok := c.ir.Meta[id]; ok {
		return meta.Decoration.Flags.Clone()
	}
	return ir.Bitset{}
}

// MemberDecoration returns the literal of dec on member i of a struct.
// Array and pointer types resolve to their struct.
func (c *Compiler) MemberDecoration(typeID ir.ID, i int, dec spirv.Decoration) uint32 {
	return c.ir.MemberDecorationValue(c.structOf(typeID), i, dec)
}

// HasMemberDecoration reports whether member i of a struct carries dec.
func (c *Compiler) HasMemberDecoration(typeID ir.ID, i int, dec spirv.Decoration) bool {
	return c.ir.HasMemberDecoration(c.structOf(typeID), i, dec)
}

// SetMemberDecoration records dec on member i of a struct.
func (c *Compiler) SetMemberDecoration(typeID ir.ID, i int, dec spirv.Decoration, value uint32) {
	c.ir.MemberDecorate(c.structOf(typeID), i, dec, value)
}

// MemberDecorationBitset returns the decorations present on member i.
func (c *Compiler) MemberDecorationBitset(typeID ir.ID, i int) ir.Bitset {
	meta, ok := c.ir.Meta[c.structOf(typeID)]
	if !ok || i >= len(meta.Members) {
		return ir.Bitset{}
	}
	return meta.Members[i].Flags.Clone()
}

// Name returns the debug name of id.
func (c *Compiler) Name(id ir.ID) string { return c.ir.Name(id) }

// SetName sets the debug name of id.
func (c *Compiler) SetName(id ir.ID, name string) { c.ir.SetName(id, name) }

// MemberName returns the debug name of member i of a struct.
func (c *Compiler) MemberName(typeID ir.ID, i int) string {
	return c.ir.MemberName(c.structOf(typeID), i)
}

// SetMemberName sets the debug name of member i of a struct.
func (c *Compiler) SetMemberName(typeID ir.ID, i int, name string) {
	c.ir.SetMemberName(c.structOf(typeID), i, name)
}

// MemberTypes returns the member list of a struct type.
func (c *Compiler) MemberTypes(typeID ir.ID) []ir.ID {
	t := c.ir.Type(c.structOf(typeID))
	if t == nil {
		return nil
	}
	return t.MemberTypes
}

func (c *Compiler) structOf(typeID ir.ID) ir.ID {
	if t := c.ir.Type(typeID); t != nil && t.Self != 0 {
		return t.Self
	}
	return typeID
}

// IsBuiltinVariable reports whether a variable is a builtin, either by its
// own decoration or through a block whose members are builtins.
func (c *Compiler) IsBuiltinVariable(id ir.ID) bool {
	if c.ir.HasDecoration(id, spirv.DecorationBuiltIn) {
		return true
	}
	return c.IsBuiltinBlock(c.VariableType(id))
}

// IsBuiltinBlock reports whether a struct type carries builtin members.
func (c *Compiler) IsBuiltinBlock(typeID ir.ID) bool {
	t := c.ir.Type(typeID)
	if t == nil || t.Base != ir.BaseStruct {
		return false
	}
	meta, ok := c.ir.Meta[t.Self]
	if !ok {
		return false
	}
	for i := range meta.Members {
		if meta.Members[i].Has(spirv.DecorationBuiltIn) {
			return true
		}
	}
	return false
}

// BuiltinOf returns the builtin of a variable and whether it has one.
func (c *Compiler) BuiltinOf(id ir.ID) (spirv.BuiltIn, bool) {
	if !c.ir.HasDecoration(id, spirv.DecorationBuiltIn) {
		return 0, false
	}
	return spirv.BuiltIn(c.ir.DecorationValue(id, spirv.DecorationBuiltIn)), true
}
