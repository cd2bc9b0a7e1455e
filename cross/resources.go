package cross

import (
	"sort"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// Resource is one reflected resource.
type Resource struct {
	// ID is the variable.
	ID ir.ID
	// TypeID is the pointee type of the variable, arrays included.
	TypeID ir.ID
	// BaseTypeID is TypeID with arrays stripped.
	BaseTypeID ir.ID
	// Name is the variable name, falling back to the block type name.
	Name string
}

// BuiltInResource is a builtin stage input or output.
type BuiltInResource struct {
	BuiltIn spirv.BuiltIn
	// ValueTypeID is the type of the builtin value itself.
	ValueTypeID ir.ID
	Resource    Resource
}

// ShaderResources groups the resources of a module by category.
type ShaderResources struct {
	UniformBuffers         []Resource
	StorageBuffers         []Resource
	StageInputs            []Resource
	StageOutputs           []Resource
	SubpassInputs          []Resource
	StorageImages          []Resource
	SampledImages          []Resource
	AtomicCounters         []Resource
	PushConstantBuffers    []Resource
	SeparateImages         []Resource
	SeparateSamplers       []Resource
	AccelerationStructures []Resource

	BuiltinInputs  []BuiltInResource
	BuiltinOutputs []BuiltInResource
}

// ShaderResources enumerates every non-hidden module-scope variable.
func (c *Compiler) ShaderResources() ShaderResources {
	return c.shaderResources(nil)
}

// ShaderResourcesForActiveVariables enumerates only the variables in
// active, typically the result of ActiveInterfaceVariables.
func (c *Compiler) ShaderResourcesForActiveVariables(active map[ir.ID]struct{}) ShaderResources {
	if active == nil {
		active = map[ir.ID]struct{}{}
	}
	return c.shaderResources(active)
}

func (c *Compiler) shaderResources(active map[ir.ID]struct{}) ShaderResources {
	var res ShaderResources
	m := c.ir
	for _, id := range m.Declarations {
		v := m.Variable(id)
		if v == nil || v.Hidden || v.Storage == spirv.StorageClassFunction {
			continue
		}
		if active != nil {
			if _, ok := active[id]; !ok {
				continue
			}
		}
		typeID := c.VariableType(id)
		t := m.Type(typeID)
		r := Resource{ID: id, TypeID: typeID, BaseTypeID: c.baseTypeID(typeID), Name: c.resourceName(id, t)}

		switch v.Storage {
		case spirv.StorageClassInput, spirv.StorageClassOutput:
			if c.IsBuiltinVariable(id) {
				c.appendBuiltins(&res, v.Storage, r)
				continue
			}
			if v.Storage == spirv.StorageClassInput {
				res.StageInputs = append(res.StageInputs, r)
			} else {
				res.StageOutputs = append(res.StageOutputs, r)
			}
		case spirv.StorageClassUniform:
			switch {
			case m.HasDecoration(t.Self, spirv.DecorationBufferBlock):
				res.StorageBuffers = append(res.StorageBuffers, r)
			case m.HasDecoration(t.Self, spirv.DecorationBlock):
				res.UniformBuffers = append(res.UniformBuffers, r)
			}
		case spirv.StorageClassStorageBuffer:
			res.StorageBuffers = append(res.StorageBuffers, r)
		case spirv.StorageClassPushConstant:
			res.PushConstantBuffers = append(res.PushConstantBuffers, r)
		case spirv.StorageClassAtomicCounter:
			res.AtomicCounters = append(res.AtomicCounters, r)
		case spirv.StorageClassUniformConstant:
			switch t.Base {
			case ir.BaseImage:
				switch {
				case t.Image.Dim == spirv.DimSubpassData:
					res.SubpassInputs = append(res.SubpassInputs, r)
				case t.Image.Sampled == 2:
					res.StorageImages = append(res.StorageImages, r)
				default:
					res.SeparateImages = append(res.SeparateImages, r)
				}
			case ir.BaseSampledImage:
				res.SampledImages = append(res.SampledImages, r)
			case ir.BaseSampler:
				res.SeparateSamplers = append(res.SeparateSamplers, r)
			case ir.BaseAccelerationStructure:
				res.AccelerationStructures = append(res.AccelerationStructures, r)
			}
		}
	}
	return res
}

func (c *Compiler) appendBuiltins(res *ShaderResources, storage spirv.StorageClass, r Resource) {
	add := func(b BuiltInResource) {
		if storage == spirv.StorageClassInput {
			res.BuiltinInputs = append(res.BuiltinInputs, b)
		} else {
			res.BuiltinOutputs = append(res.BuiltinOutputs, b)
		}
	}
	if b, ok := c.BuiltinOf(r.ID); ok {
		add(BuiltInResource{BuiltIn: b, ValueTypeID: r.TypeID, Resource: r})
		return
	}
	t := c.ir.Type(r.BaseTypeID)
	meta := c.ir.Meta[t.Self]
	for i, mt := range t.MemberTypes {
		if meta == nil || i >= len(meta.Members) || !meta.Members[i].Has(spirv.DecorationBuiltIn) {
			continue
		}
		add(BuiltInResource{BuiltIn: meta.Members[i].BuiltIn, ValueTypeID: mt, Resource: r})
	}
}

func (c *Compiler) baseTypeID(typeID ir.ID) ir.ID {
	t := c.ir.Type(typeID)
	for t != nil && t.IsArray() {
		typeID = t.Parent
		t = c.ir.Type(typeID)
	}
	return typeID
}

func (c *Compiler) resourceName(id ir.ID, t *ir.Type) string {
	if name := c.ir.Name(id); name != "" {
		return name
	}
	if t != nil {
		return c.ir.Name(t.Self)
	}
	return ""
}

// ActiveInterfaceVariables returns the module-scope variables statically
// referenced by the selected entry point, following calls.
func (c *Compiler) ActiveInterfaceVariables() map[ir.ID]struct{} {
	out := make(map[ir.ID]struct{})
	ep := c.EntryPoint()
	if ep == nil {
		return out
	}
	for _, id := range c.GlobalsUsedBy(ep.Function) {
		out[id] = struct{}{}
	}
	return out
}

// SetEnabledInterfaceVariables restricts emission to the given variables.
// A nil set enables everything.
func (c *Compiler) SetEnabledInterfaceVariables(set map[ir.ID]struct{}) {
	c.enabledInterface = set
}

// IsEnabled reports whether a variable takes part in emission.
func (c *Compiler) IsEnabled(id ir.ID) bool {
	if c.enabledInterface == nil {
		return true
	}
	_, ok := c.enabledInterface[id]
	return ok
}

// GlobalsUsedBy returns, in ascending ID order, every module-scope variable
// a function touches directly or through the functions it calls. Results
// are memoized per function, so each function is analyzed once and
// recursive call graphs terminate.
func (c *Compiler) GlobalsUsedBy(fn ir.ID) []ir.ID {
	if c.globalsMemo == nil {
		c.globalsMemo = make(map[ir.ID][]ir.ID)
	}
	return c.globalsUsedBy(fn, make(map[ir.ID]bool))
}

func (c *Compiler) globalsUsedBy(fn ir.ID, visiting map[ir.ID]bool) []ir.ID {
	if done, ok := c.globalsMemo[fn]; ok {
		return done
	}
	if visiting[fn] {
		return nil
	}
	visiting[fn] = true

	m := c.ir
	f := m.Function(fn)
	if f == nil {
		return nil
	}
	set := make(map[ir.ID]struct{})
	note := func(id ir.ID) {
		if v := m.Variable(id); v != nil && v.Storage != spirv.StorageClassFunction {
			set[id] = struct{}{}
		}
	}
	for _, lv := range f.LocalVariables {
		if v := m.Variable(lv); v != nil && v.Initializer != 0 {
			note(v.Initializer)
		}
	}
	for _, bid := range f.Blocks {
		blk := m.Block(bid)
		for i := range blk.Ops {
			in := &blk.Ops[i]
			for _, ref := range in.IDOperands() {
				note(ref)
			}
			if in.Op == spirv.OpFunctionCall {
				for _, g := range c.globalsUsedBy(in.Arg(0), visiting) {
					set[g] = struct{}{}
				}
			}
		}
		for _, phi := range blk.Phis {
			for _, src := range phi.Incoming {
				note(src.Value)
			}
		}
		note(blk.ReturnValue)
	}

	out := make([]ir.ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	c.globalsMemo[fn] = out
	return out
}

// ReachableFunctions returns the functions reachable from the selected
// entry point in depth-first call order, entry point first.
func (c *Compiler) ReachableFunctions() []ir.ID {
	ep := c.EntryPoint()
	if ep == nil {
		return nil
	}
	var order []ir.ID
	seen := make(map[ir.ID]bool)
	var walk func(fn ir.ID)
	walk = func(fn ir.ID) {
		if seen[fn] {
			return
		}
		seen[fn] = true
		order = append(order, fn)
		f := c.ir.Function(fn)
		if f == nil {
			return
		}
		for _, bid := range f.Blocks {
			blk := c.ir.Block(bid)
			for i := range blk.Ops {
				if blk.Ops[i].Op == spirv.OpFunctionCall {
					walk(blk.Ops[i].Arg(0))
				}
			}
		}
	}
	walk(ep.Function)
	return order
}

// ActiveBuiltins returns the builtins read and written by the selected
// entry point, including builtin members of blocks.
func (c *Compiler) ActiveBuiltins() (inputs, outputs ir.Bitset) {
	res := c.ShaderResourcesForActiveVariables(c.ActiveInterfaceVariables())
	for _, b := range res.BuiltinInputs {
		inputs.Set(uint32(b.BuiltIn))
	}
	for _, b := range res.BuiltinOutputs {
		outputs.Set(uint32(b.BuiltIn))
	}
	return inputs, outputs
}
