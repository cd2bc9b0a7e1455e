package capi

import (
	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// ResourceType selects a resource list.
type ResourceType uint8

// Resource types.
const (
	ResourceTypeUnknown ResourceType = iota
	ResourceTypeUniformBuffer
	ResourceTypeStorageBuffer
	ResourceTypeStageInput
	ResourceTypeStageOutput
	ResourceTypeSubpassInput
	ResourceTypeStorageImage
	ResourceTypeSampledImage
	ResourceTypeAtomicCounter
	ResourceTypePushConstant
	ResourceTypeSeparateImage
	ResourceTypeSeparateSamplers
	ResourceTypeAccelerationStructure
)

// BuiltinResourceType selects a builtin resource list.
type BuiltinResourceType uint8

// Builtin resource types.
const (
	BuiltinResourceTypeUnknown BuiltinResourceType = iota
	BuiltinResourceTypeStageInput
	BuiltinResourceTypeStageOutput
)

// typeRecord pins a type to the compiler it was queried from.
type typeRecord struct {
	comp *compiler
	id   ir.ID
	t    *ir.Type
}

type constantRecord struct {
	comp *compiler
	k    *ir.Constant
}

// CompilerCreateShaderResources reflects every resource of the module.
func (ctx *Context) CompilerCreateShaderResources(h Compiler) (Resources, Result) {
	return ctx.createResources("CompilerCreateShaderResources", h, nil)
}

// CompilerCreateShaderResourcesForActiveVariables reflects only the
// variables in set.
func (ctx *Context) CompilerCreateShaderResourcesForActiveVariables(h Compiler, set Set) (Resources, Result) {
	return ctx.createResources("CompilerCreateShaderResourcesForActiveVariables", h, &set)
}

func (ctx *Context) createResources(op string, h Compiler, set *Set) (Resources, Result) {
	var out Resources
	res := ctx.call(op, func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		var r cross.ShaderResources
		if set == nil {
			r = c.base.ShaderResources()
		} else {
			active, err := lookup[map[ir.ID]struct{}](ctx, set.handle, kindSet)
			if err != nil {
				return err
			}
			r = c.base.ShaderResourcesForActiveVariables(active)
		}
		out = Resources{ctx.arena.add(kindResources, &r)}
		return nil
	})
	if res != Success {
		return Resources{}, res
	}
	return out, res
}

// ResourcesGetResourceListForType returns one resource list.
func (ctx *Context) ResourcesGetResourceListForType(h Resources, typ ResourceType) ([]cross.Resource, Result) {
	var out []cross.Resource
	res := ctx.call("ResourcesGetResourceListForType", func() error {
		r, err := lookup[*cross.ShaderResources](ctx, h.handle, kindResources)
		if err != nil {
			return err
		}
		switch typ {
		case ResourceTypeUniformBuffer:
			out = r.UniformBuffers
		case ResourceTypeStorageBuffer:
			out = r.StorageBuffers
		case ResourceTypeStageInput:
			out = r.StageInputs
		case ResourceTypeStageOutput:
			out = r.StageOutputs
		case ResourceTypeSubpassInput:
			out = r.SubpassInputs
		case ResourceTypeStorageImage:
			out = r.StorageImages
		case ResourceTypeSampledImage:
			out = r.SampledImages
		case ResourceTypeAtomicCounter:
			out = r.AtomicCounters
		case ResourceTypePushConstant:
			out = r.PushConstantBuffers
		case ResourceTypeSeparateImage:
			out = r.SeparateImages
		case ResourceTypeSeparateSamplers:
			out = r.SeparateSamplers
		case ResourceTypeAccelerationStructure:
			out = r.AccelerationStructures
		default:
			return cross.Errorf(cross.ErrInvalidArgument, "invalid resource type %d", typ)
		}
		return nil
	})
	return out, res
}

// ResourcesGetBuiltinResourceListForType returns the builtin stage inputs
// or outputs.
func (ctx *Context) ResourcesGetBuiltinResourceListForType(h Resources, typ BuiltinResourceType) ([]cross.BuiltInResource, Result) {
	var out []cross.BuiltInResource
	res := ctx.call("ResourcesGetBuiltinResourceListForType", func() error {
		r, err := lookup[*cross.ShaderResources](ctx, h.handle, kindResources)
		if err != nil {
			return err
		}
		switch typ {
		case BuiltinResourceTypeStageInput:
			out = r.BuiltinInputs
		case BuiltinResourceTypeStageOutput:
			out = r.BuiltinOutputs
		default:
			return cross.Errorf(cross.ErrInvalidArgument, "invalid builtin resource type %d", typ)
		}
		return nil
	})
	return out, res
}

// CompilerGetActiveInterfaceVariables returns the module-scope variables
// statically used by the selected entry point.
func (ctx *Context) CompilerGetActiveInterfaceVariables(h Compiler) (Set, Result) {
	var out Set
	res := ctx.call("CompilerGetActiveInterfaceVariables", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out = Set{ctx.arena.add(kindSet, c.base.ActiveInterfaceVariables())}
		return nil
	})
	if res != Success {
		return Set{}, res
	}
	return out, res
}

// CompilerSetEnabledInterfaceVariables restricts emission to set.
func (ctx *Context) CompilerSetEnabledInterfaceVariables(h Compiler, set Set) Result {
	return ctx.call("CompilerSetEnabledInterfaceVariables", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		active, err := lookup[map[ir.ID]struct{}](ctx, set.handle, kindSet)
		if err != nil {
			return err
		}
		c.base.SetEnabledInterfaceVariables(active)
		return nil
	})
}

// CompilerGetTypeHandle returns a handle to the type id.
func (ctx *Context) CompilerGetTypeHandle(h Compiler, id ir.ID) (Type, Result) {
	var out Type
	res := ctx.call("CompilerGetTypeHandle", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		t := c.base.Type(id)
		if t == nil {
			return cross.Errorf(cross.ErrInvalidArgument, "%%%d is not a type", id)
		}
		out = Type{ctx.arena.add(kindType, &typeRecord{comp: c, id: id, t: t})}
		return nil
	})
	if res != Success {
		return Type{}, res
	}
	return out, res
}

// typeQuery runs fn on the type behind h.
func (ctx *Context) typeQuery(op string, h Type, fn func(*typeRecord) error) Result {
	return ctx.call(op, func() error {
		r, err := lookup[*typeRecord](ctx, h.handle, kindType)
		if err != nil {
			return err
		}
		return fn(r)
	})
}

// TypeGetBaseType returns the base type.
func (ctx *Context) TypeGetBaseType(h Type) (ir.BaseType, Result) {
	var out ir.BaseType
	res := ctx.typeQuery("TypeGetBaseType", h, func(r *typeRecord) error {
		out = r.t.Base
		return nil
	})
	return out, res
}

// TypeGetBitWidth returns the width of a scalar, vector or matrix type.
func (ctx *Context) TypeGetBitWidth(h Type) (uint32, Result) {
	var out uint32
	res := ctx.typeQuery("TypeGetBitWidth", h, func(r *typeRecord) error {
		out = r.t.Width
		return nil
	})
	return out, res
}

// TypeGetVectorSize returns the component count.
func (ctx *Context) TypeGetVectorSize(h Type) (uint32, Result) {
	var out uint32
	res := ctx.typeQuery("TypeGetVectorSize", h, func(r *typeRecord) error {
		out = r.t.VecSize
		return nil
	})
	return out, res
}

// TypeGetColumns returns the matrix column count, 1 for non-matrices.
func (ctx *Context) TypeGetColumns(h Type) (uint32, Result) {
	var out uint32
	res := ctx.typeQuery("TypeGetColumns", h, func(r *typeRecord) error {
		out = r.t.Columns
		return nil
	})
	return out, res
}

// TypeGetNumArrayDimensions returns the array rank.
func (ctx *Context) TypeGetNumArrayDimensions(h Type) (int, Result) {
	var out int
	res := ctx.typeQuery("TypeGetNumArrayDimensions", h, func(r *typeRecord) error {
		out = len(r.t.Array)
		return nil
	})
	return out, res
}

// TypeGetArrayDimension returns array dimension i, outermost last. When
// literal is false the size is the ID of a specialization constant.
func (ctx *Context) TypeGetArrayDimension(h Type, i int) (size uint32, literal bool, res Result) {
	res = ctx.typeQuery("TypeGetArrayDimension", h, func(r *typeRecord) error {
		if i < 0 || i >= len(r.t.Array) {
			return cross.Errorf(cross.ErrInvalidArgument, "array dimension %d out of range", i)
		}
		size = r.t.Array[i]
		literal = i >= len(r.t.ArrayLiteral) || r.t.ArrayLiteral[i]
		return nil
	})
	return size, literal, res
}

// TypeGetNumMemberTypes returns the member count of a struct.
func (ctx *Context) TypeGetNumMemberTypes(h Type) (int, Result) {
	var out int
	res := ctx.typeQuery("TypeGetNumMemberTypes", h, func(r *typeRecord) error {
		out = len(r.comp.base.MemberTypes(r.id))
		return nil
	})
	return out, res
}

// TypeGetMemberType returns the type of member i.
func (ctx *Context) TypeGetMemberType(h Type, i int) (ir.ID, Result) {
	var out ir.ID
	res := ctx.typeQuery("TypeGetMemberType", h, func(r *typeRecord) error {
		members := r.comp.base.MemberTypes(r.id)
		if i < 0 || i >= len(members) {
			return cross.Errorf(cross.ErrInvalidArgument, "member %d out of range", i)
		}
		out = members[i]
		return nil
	})
	return out, res
}

// TypeGetStorageClass returns the storage class of a pointer type.
func (ctx *Context) TypeGetStorageClass(h Type) (spirv.StorageClass, Result) {
	var out spirv.StorageClass
	res := ctx.typeQuery("TypeGetStorageClass", h, func(r *typeRecord) error {
		if !r.t.Pointer {
			return cross.Errorf(cross.ErrInvalidArgument, "%%%d is not a pointer", r.id)
		}
		out = r.t.Storage
		return nil
	})
	return out, res
}

// TypeGetImage returns the description of an image or sampled image.
func (ctx *Context) TypeGetImage(h Type) (ir.ImageType, Result) {
	var out ir.ImageType
	res := ctx.typeQuery("TypeGetImage", h, func(r *typeRecord) error {
		if r.t.Base != ir.BaseImage && r.t.Base != ir.BaseSampledImage {
			return cross.Errorf(cross.ErrInvalidArgument, "%%%d is not an image", r.id)
		}
		out = r.t.Image
		return nil
	})
	return out, res
}

// CompilerGetDeclaredStructSize returns the size of a struct as laid out
// by its Offset decorations. A trailing runtime array counts as empty.
func (ctx *Context) CompilerGetDeclaredStructSize(h Compiler, t Type) (uint32, Result) {
	var out uint32
	res := ctx.call("CompilerGetDeclaredStructSize", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		r, err := lookup[*typeRecord](ctx, t.handle, kindType)
		if err != nil {
			return err
		}
		out, err = c.base.DeclaredStructSize(r.id)
		return err
	})
	return out, res
}

// CompilerGetConstantHandle returns a handle to the constant id.
func (ctx *Context) CompilerGetConstantHandle(h Compiler, id ir.ID) (Constant, Result) {
	var out Constant
	res := ctx.call("CompilerGetConstantHandle", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		k := c.base.Constant(id)
		if k == nil {
			return cross.Errorf(cross.ErrInvalidArgument, "%%%d is not a constant", id)
		}
		out = Constant{ctx.arena.add(kindConstant, &constantRecord{comp: c, k: k})}
		return nil
	})
	if res != Success {
		return Constant{}, res
	}
	return out, res
}

// ConstantGetType returns the type of the constant.
func (ctx *Context) ConstantGetType(h Constant) (ir.ID, Result) {
	var out ir.ID
	res := ctx.call("ConstantGetType", func() error {
		r, err := lookup[*constantRecord](ctx, h.handle, kindConstant)
		if err != nil {
			return err
		}
		out = r.k.Type
		return nil
	})
	return out, res
}

// ConstantGetSubconstants returns the parts of a composite constant.
func (ctx *Context) ConstantGetSubconstants(h Constant) ([]ir.ID, Result) {
	var out []ir.ID
	res := ctx.call("ConstantGetSubconstants", func() error {
		r, err := lookup[*constantRecord](ctx, h.handle, kindConstant)
		if err != nil {
			return err
		}
		out = append([]ir.ID(nil), r.k.Subconstants...)
		ctx.keep(out)
		return nil
	})
	return out, res
}

// ConstantGetScalar returns the raw bits of component (col, row).
func (ctx *Context) ConstantGetScalar(h Constant, col, row int) (uint64, Result) {
	var out uint64
	res := ctx.call("ConstantGetScalar", func() error {
		r, err := lookup[*constantRecord](ctx, h.handle, kindConstant)
		if err != nil {
			return err
		}
		if col < 0 || col >= len(r.k.Values) || row < 0 || row >= len(r.k.Values[col]) {
			return cross.Errorf(cross.ErrInvalidArgument, "component (%d, %d) out of range", col, row)
		}
		out = r.k.Values[col][row]
		return nil
	})
	return out, res
}

// ConstantSetScalar overrides component (col, row) of a specialization
// constant's default value.
func (ctx *Context) ConstantSetScalar(h Constant, col, row int, bits uint64) Result {
	return ctx.call("ConstantSetScalar", func() error {
		r, err := lookup[*constantRecord](ctx, h.handle, kindConstant)
		if err != nil {
			return err
		}
		if !r.k.Specialization {
			return cross.Errorf(cross.ErrInvalidArgument, "%%%d is not a specialization constant", r.k.Self)
		}
		if col < 0 || col >= len(r.k.Values) || row < 0 || row >= len(r.k.Values[col]) {
			return cross.Errorf(cross.ErrInvalidArgument, "component (%d, %d) out of range", col, row)
		}
		r.k.Values[col][row] = bits
		return nil
	})
}
