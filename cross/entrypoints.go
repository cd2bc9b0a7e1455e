package cross

import (
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// EntryPointInfo names one entry point.
type EntryPointInfo struct {
	Name  string
	Model spirv.ExecutionModel
}

// EntryPoints lists the entry points in module order.
func (c *Compiler) EntryPoints() []EntryPointInfo {
	out := make([]EntryPointInfo, 0, len(c.ir.EntryPoints))
	for _, ep := range c.ir.EntryPoints {
		out = append(out, EntryPointInfo{Name: ep.Name, Model: ep.Model})
	}
	return out
}

// EntryPoint returns the selected entry point, or nil for a module
// without entry points.
func (c *Compiler) EntryPoint() *ir.EntryPoint {
	if c.entry >= len(c.ir.EntryPoints) {
		return nil
	}
	return c.ir.EntryPoints[c.entry]
}

// SetEntryPoint selects the entry point with the given name and stage.
func (c *Compiler) SetEntryPoint(name string, model spirv.ExecutionModel) error {
	return c.SelectEntryPoint(name, &model)
}

// SelectEntryPoint selects an entry point by name. When model is nil the
// name must be unique across stages.
func (c *Compiler) SelectEntryPoint(name string, model *spirv.ExecutionModel) error {
	idx, err := c.findEntryPoint(name, model)
	if err != nil {
		return err
	}
	if idx != c.entry {
		c.entry = idx
		c.globalsMemo = nil
	}
	return nil
}

func (c *Compiler) findEntryPoint(name string, model *spirv.ExecutionModel) (int, error) {
	found := -1
	for i, ep := range c.ir.EntryPoints {
		if ep.Name != name {
			continue
		}
		if model != nil {
			if ep.Model == *model {
				return i, nil
			}
			continue
		}
		if found >= 0 {
			return -1, Errorf(ErrInvalidArgument,
				"entry point %q is defined for several stages; a stage is required", name)
		}
		found = i
	}
	if found < 0 {
		if model != nil {
			return -1, Errorf(ErrInvalidArgument, "entry point %q (%s) not found", name, *model)
		}
		return -1, Errorf(ErrInvalidArgument, "entry point %q not found", name)
	}
	return found, nil
}

// RenameEntryPoint changes the emitted name of an entry point. The new
// name must not collide with another entry point of the same stage.
func (c *Compiler) RenameEntryPoint(oldName, newName string, model spirv.ExecutionModel) error {
	idx, err := c.findEntryPoint(oldName, &model)
	if err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if other, _ := c.findEntryPoint(newName, &model); other >= 0 {
		return Errorf(ErrInvalidArgument, "entry point %q (%s) already exists", newName, model)
	}
	c.ir.EntryPoints[idx].Name = newName
	return nil
}

// CleansedEntryPointName returns the identifier the backend emits for the
// entry point.
func (c *Compiler) CleansedEntryPointName(name string, model spirv.ExecutionModel) (string, error) {
	idx, err := c.findEntryPoint(name, &model)
	if err != nil {
		return "", err
	}
	ep := c.ir.EntryPoints[idx]
	if c.cleanse != nil {
		return c.cleanse(ep.Name, ep.Model), nil
	}
	return ep.Name, nil
}

// ExecutionModel returns the stage of the selected entry point.
func (c *Compiler) ExecutionModel() spirv.ExecutionModel {
	if ep := c.EntryPoint(); ep != nil {
		return ep.Model
	}
	return spirv.ExecutionModelVertex
}

// ExecutionModeBitset returns the execution modes of the selected entry
// point.
func (c *Compiler) ExecutionModeBitset() ir.Bitset {
	if ep := c.EntryPoint(); ep != nil {
		return ep.Modes.Clone()
	}
	return ir.Bitset{}
}

// HasExecutionMode reports whether the selected entry point declares mode.
func (c *Compiler) HasExecutionMode(mode spirv.ExecutionMode) bool {
	ep := c.EntryPoint()
	return ep != nil && ep.Modes.Get(uint32(mode))
}

// WorkgroupSize returns the compute workgroup size of the selected entry
// point. A constant decorated with the WorkgroupSize builtin overrides
// the execution mode, and LocalSizeId operands resolve to their constant
// defaults.
func (c *Compiler) WorkgroupSize() [3]uint32 {
	ep := c.EntryPoint()
	if ep == nil {
		return [3]uint32{1, 1, 1}
	}
	if wg := c.workgroupSizeConstant(); wg != nil && len(wg.Subconstants) == 3 {
		var out [3]uint32
		for i, part := range wg.Subconstants {
			if k := c.ir.Constant(part); k != nil {
				out[i] = k.ScalarU32()
			}
		}
		return out
	}
	size := ep.WorkgroupSize
	if ep.Modes.Get(uint32(spirv.ExecutionModeLocalSizeID)) {
		for i, id := range ep.WorkgroupSizeIDs {
			if k := c.ir.Constant(id); k != nil {
				size[i] = k.ScalarU32()
			}
		}
	}
	return size
}

func (c *Compiler) workgroupSizeConstant() *ir.Constant {
	for _, id := range c.ir.Declarations {
		k := c.ir.Constant(id)
		if k == nil {
			continue
		}
		if b, ok := c.BuiltinOf(id); ok && b == spirv.BuiltInWorkgroupSize {
			return k
		}
	}
	return nil
}

// SpecializationConstant ties a constant to its SpecId.
type SpecializationConstant struct {
	ID     ir.ID
	SpecID uint32
}

// SpecializationConstants lists the specialization constants that carry a
// SpecId, in declaration order.
func (c *Compiler) SpecializationConstants() []SpecializationConstant {
	var out []SpecializationConstant
	for _, id := range c.ir.Declarations {
		k := c.ir.Constant(id)
		if k == nil || !k.Specialization || !c.ir.HasDecoration(id, spirv.DecorationSpecID) {
			continue
		}
		out = append(out, SpecializationConstant{ID: id, SpecID: c.ir.DecorationValue(id, spirv.DecorationSpecID)})
	}
	return out
}

// Constant returns the constant record of id.
func (c *Compiler) Constant(id ir.ID) *ir.Constant { return c.ir.Constant(id) }

// WorkgroupSizeSpecializationConstants returns the specialization constants
// feeding the x, y and z workgroup dimensions. Dimensions that are not
// specializable have a zero ID.
func (c *Compiler) WorkgroupSizeSpecializationConstants() (x, y, z SpecializationConstant) {
	wg := c.workgroupSizeConstant()
	if wg == nil || len(wg.Subconstants) != 3 {
		return
	}
	dims := [3]SpecializationConstant{}
	for i, part := range wg.Subconstants {
		k := c.ir.Constant(part)
		if k != nil && k.Specialization && c.ir.HasDecoration(part, spirv.DecorationSpecID) {
			dims[i] = SpecializationConstant{ID: part, SpecID: c.ir.DecorationValue(part, spirv.DecorationSpecID)}
		}
	}
	return dims[0], dims[1], dims[2]
}
