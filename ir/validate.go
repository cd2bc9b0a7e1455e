package ir

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/gogpu/spvcross/spirv"
)

// ValidationError reports one dangling or inconsistent reference.
type ValidationError struct {
	// ID is the record holding the bad reference.
	ID      ID
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("id %d: %s", e.ID, e.Message)
}

// Validator checks reference integrity: every ID referenced anywhere in the
// module must resolve to a record of the expected kind. It does not check
// SPIR-V semantic rules.
type Validator struct {
	module *Module
	err    error
}

// Validate checks the module and returns every problem found, combined
// with multierr. Use multierr.Errors to split the result.
func Validate(module *Module) error {
	if module == nil {
		return fmt.Errorf("module is nil")
	}
	v := &Validator{module: module}
	v.validateDeclarations()
	v.validateFunctions()
	v.validateEntryPoints()
	return v.err
}

func (v *Validator) addError(id ID, format string, args ...any) {
	v.err = multierr.Append(v.err, ValidationError{ID: id, Message: fmt.Sprintf(format, args...)})
}

func (v *Validator) expect(owner, ref ID, kind Kind, what string) {
	if got := v.module.Kind(ref); got != kind {
		v.addError(owner, "%s %d is %s, want %s", what, ref, got, kind)
	}
}

func (v *Validator) validateDeclarations() {
	m := v.module
	for _, id := range m.Declarations {
		switch m.Kind(id) {
		case KindType:
			v.validateType(id, m.Types[id])
		case KindConstant:
			c := m.Constants[id]
			v.expect(id, c.Type, KindType, "constant type")
			for _, sub := range c.Subconstants {
				if k := m.Kind(sub); k != KindConstant && k != KindUndef {
					v.addError(id, "sub-constant %d is %s", sub, k)
				}
			}
		case KindVariable:
			v.validateVariable(id, m.Variables[id])
		case KindUndef:
			v.expect(id, m.Undefs[id], KindType, "undef type")
		}
	}
}

func (v *Validator) validateType(id ID, t *Type) {
	if t.Parent != 0 {
		v.expect(id, t.Parent, KindType, "parent type")
	}
	for i, mt := range t.MemberTypes {
		v.expect(id, mt, KindType, fmt.Sprintf("member %d type", i))
	}
	for i, dim := range t.Array {
		if !t.ArrayLiteral[i] {
			v.expect(id, ID(dim), KindConstant, "array size")
		}
	}
	if t.Base == BaseImage && t.Image.SampledType != 0 {
		v.expect(id, t.Image.SampledType, KindType, "sampled type")
	}
}

func (v *Validator) validateVariable(id ID, va *Variable) {
	t := v.module.Type(va.Type)
	if t == nil || !t.Pointer {
		v.addError(id, "variable type %d is not a pointer", va.Type)
		return
	}
	if t.Storage != va.Storage {
		v.addError(id, "storage class %s does not match pointer storage %s", va.Storage, t.Storage)
	}
	if va.Initializer != 0 && v.module.Kind(va.Initializer) == KindUnused {
		v.addError(id, "initializer %d is undefined", va.Initializer)
	}
}

func (v *Validator) validateFunctions() {
	m := v.module
	for _, fid := range m.FunctionOrder {
		fn := m.Functions[fid]
		v.expect(fid, fn.ReturnType, KindType, "return type")
		if len(fn.Blocks) == 0 {
			v.addError(fid, "function has no blocks")
		}
		for _, p := range fn.Parameters {
			v.expect(fid, p.Type, KindType, "parameter type")
		}
		for _, lv := range fn.LocalVariables {
			v.expect(fid, lv, KindVariable, "local variable")
			if lv != 0 && m.Kind(lv) == KindVariable {
				v.validateVariable(lv, m.Variables[lv])
			}
		}
		for _, bid := range fn.Blocks {
			blk := m.Block(bid)
			if blk == nil {
				v.addError(fid, "block %d is undefined", bid)
				continue
			}
			v.validateBlock(blk)
		}
	}
}

func (v *Validator) validateBlock(blk *Block) {
	m := v.module
	for i := range blk.Ops {
		in := &blk.Ops[i]
		if in.ResultType != 0 {
			v.expect(blk.Self, in.ResultType, KindType, in.Op.String()+" result type")
		}
		for _, ref := range in.IDOperands() {
			if m.Kind(ref) == KindUnused {
				v.addError(blk.Self, "%s references undefined id %d", in.Op, ref)
			}
		}
	}
	for _, phi := range blk.Phis {
		for _, src := range phi.Incoming {
			v.expect(blk.Self, src.Parent, KindBlock, "phi parent")
			if m.Kind(src.Value) == KindUnused {
				v.addError(blk.Self, "phi %d references undefined id %d", phi.Result, src.Value)
			}
		}
	}
	if blk.Terminator == TermUnknown {
		v.addError(blk.Self, "block has no terminator")
	}
	for _, succ := range blk.Successors() {
		v.expect(blk.Self, succ, KindBlock, "branch target")
	}
	if blk.Merge != MergeNone {
		v.expect(blk.Self, blk.MergeBlock, KindBlock, "merge block")
	}
	if blk.Merge == MergeLoop {
		v.expect(blk.Self, blk.ContinueBlock, KindBlock, "continue block")
	}
	if blk.Terminator == TermSelect || blk.Terminator == TermMultiSelect {
		if m.Kind(blk.Condition) == KindUnused {
			v.addError(blk.Self, "branch condition %d is undefined", blk.Condition)
		}
	}
	if blk.ReturnValue != 0 && m.Kind(blk.ReturnValue) == KindUnused {
		v.addError(blk.Self, "return value %d is undefined", blk.ReturnValue)
	}
}

func (v *Validator) validateEntryPoints() {
	m := v.module
	for _, ep := range m.EntryPoints {
		if m.Kind(ep.Function) != KindFunction {
			v.addError(ep.Function, "entry point %q has no function", ep.Name)
		}
		for _, iv := range ep.Interface {
			va := m.Variable(iv)
			if va == nil {
				v.addError(iv, "entry point %q interface is not a variable", ep.Name)
				continue
			}
			if va.Storage == spirv.StorageClassFunction {
				v.addError(iv, "entry point %q interface variable is function-local", ep.Name)
			}
		}
	}
}
