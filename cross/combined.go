package cross

import (
	"strconv"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// CombinedImageSampler pairs a synthesized combined variable with the
// separate image and sampler it replaces.
type CombinedImageSampler struct {
	CombinedID ir.ID
	ImageID    ir.ID
	SamplerID  ir.ID
}

// BuildCombinedImageSamplers scans every sampling operation reachable from
// the selected entry point, following images and samplers passed as call
// arguments, and synthesizes one combined image-sampler variable per
// distinct (image, sampler) pair. The combined variable inherits the
// descriptor set and binding of the image.
func (c *Compiler) BuildCombinedImageSamplers() error {
	ep := c.EntryPoint()
	if ep == nil {
		return Invalid("module has no entry point")
	}
	seen := make(map[[2]ir.ID]bool)
	for _, p := range c.combined {
		seen[[2]ir.ID{p.ImageID, p.SamplerID}] = true
	}
	var pairs [][2]ir.ID
	err := c.collectSamplingPairs(ep.Function, nil, make(map[ir.ID]bool), func(img, samp ir.ID) {
		key := [2]ir.ID{img, samp}
		if !seen[key] {
			seen[key] = true
			pairs = append(pairs, key)
		}
	})
	if err != nil {
		return err
	}
	for _, p := range pairs {
		c.combined = append(c.combined, c.synthesizeCombined(p[0], p[1]))
	}
	c.log.Debug("built combined image samplers")
	return nil
}

// CombinedImageSamplers returns the pairing built so far.
func (c *Compiler) CombinedImageSamplers() []CombinedImageSampler {
	return append([]CombinedImageSampler(nil), c.combined...)
}

// CombinedFor returns the combined variable replacing (image, sampler).
func (c *Compiler) CombinedFor(image, sampler ir.ID) (ir.ID, bool) {
	for _, p := range c.combined {
		if p.ImageID == image && p.SamplerID == sampler {
			return p.CombinedID, true
		}
	}
	return 0, false
}

// IsCombinedSource reports whether a variable was folded into a combined
// image-sampler.
func (c *Compiler) IsCombinedSource(id ir.ID) bool {
	for _, p := range c.combined {
		if p.ImageID == id || p.SamplerID == id {
			return true
		}
	}
	return false
}

// collectSamplingPairs walks fn. bindings maps opaque parameters of fn to
// the global variables the caller passed for them.
func (c *Compiler) collectSamplingPairs(fn ir.ID, bindings map[ir.ID]ir.ID, stack map[ir.ID]bool, emit func(img, samp ir.ID)) error {
	if stack[fn] {
		return Invalid("recursive call through function %d", fn)
	}
	stack[fn] = true
	defer delete(stack, fn)

	m := c.ir
	f := m.Function(fn)
	origins := make(map[ir.ID]ir.ID)
	resolve := func(id ir.ID) ir.ID {
		if o, ok := origins[id]; ok {
			id = o
		}
		if g, ok := bindings[id]; ok {
			return g
		}
		return id
	}
	for _, bid := range f.Blocks {
		blk := m.Block(bid)
		for i := range blk.Ops {
			in := &blk.Ops[i]
			switch in.Op {
			case spirv.OpLoad, spirv.OpCopyObject:
				origins[in.Result] = resolve(in.Arg(0))
			case spirv.OpAccessChain, spirv.OpInBoundsAccessChain:
				origins[in.Result] = resolve(in.Arg(0))
			case spirv.OpSampledImage:
				img, samp := resolve(in.Arg(0)), resolve(in.Arg(1))
				if m.Kind(img) != ir.KindVariable || m.Kind(samp) != ir.KindVariable {
					return Unsupported("sampled image %d is built from values that do not resolve to module variables", in.Result)
				}
				emit(img, samp)
			case spirv.OpFunctionCall:
				callee := m.Function(in.Arg(0))
				child := make(map[ir.ID]ir.ID)
				for p, param := range callee.Parameters {
					if !m.Type(param.Type).IsOpaque() && !c.isOpaquePointer(param.Type) {
						continue
					}
					if arg := resolve(in.Arg(p + 1)); m.Kind(arg) == ir.KindVariable {
						child[param.ID] = arg
					}
				}
				if err := c.collectSamplingPairs(callee.Self, child, stack, emit); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (c *Compiler) isOpaquePointer(typeID ir.ID) bool {
	t := c.ir.Type(typeID)
	return t != nil && t.Pointer && t.IsOpaque()
}

func (c *Compiler) synthesizeCombined(img, samp ir.ID) CombinedImageSampler {
	m := c.ir
	imgType := m.Type(c.VariableType(img))
	base := m.Type(c.baseTypeID(c.VariableType(img)))

	sampled := *base
	sampled.Base = ir.BaseSampledImage
	sampled.Parent = c.baseTypeID(c.VariableType(img))
	sampled.Self = 0
	sampled.Array = nil
	sampled.ArrayLiteral = nil
	typeID := m.DeclareType(&sampled)
	elem := typeID
	for i := range imgType.Array {
		arr := *m.Type(elem)
		arr.Array = append(append([]uint32(nil), arr.Array...), imgType.Array[i])
		arr.ArrayLiteral = append(append([]bool(nil), arr.ArrayLiteral...), imgType.ArrayLiteral[i])
		arr.Parent = elem
		arr.Self = typeID
		elem = m.DeclareType(&arr)
	}
	ptr := m.PointerType(spirv.StorageClassUniformConstant, elem)
	id := m.DeclareVariable(ptr, spirv.StorageClassUniformConstant)
	m.SetName(id, "SPIRV_Cross_Combined"+c.nameOrID(img)+c.nameOrID(samp))
	if m.HasDecoration(img, spirv.DecorationDescriptorSet) {
		m.Decorate(id, spirv.DecorationDescriptorSet, m.DecorationValue(img, spirv.DecorationDescriptorSet))
	}
	if m.HasDecoration(img, spirv.DecorationBinding) {
		m.Decorate(id, spirv.DecorationBinding, m.DecorationValue(img, spirv.DecorationBinding))
	}
	return CombinedImageSampler{CombinedID: id, ImageID: img, SamplerID: samp}
}

func (c *Compiler) nameOrID(id ir.ID) string {
	if n := c.ir.Name(id); n != "" {
		return n
	}
	return "_" + strconv.FormatUint(uint64(id), 10)
}
