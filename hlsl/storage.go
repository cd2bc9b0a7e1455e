// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// HLSL buffer object names.
const (
	hlslStructuredBuffer   = "StructuredBuffer"
	hlslRWStructuredBuffer = "RWStructuredBuffer"
	hlslConstantBuffer     = "ConstantBuffer"
	hlslCBuffer            = "cbuffer"
)

type resourceKind uint8

const (
	// resourceConstantBuffer is a uniform block flattened into a cbuffer;
	// its members become globals.
	resourceConstantBuffer resourceKind = iota
	// resourceConstantBufferArray is an array of uniform blocks declared
	// as ConstantBuffer<T>.
	resourceConstantBufferArray
	// resourceStructuredElements is a storage block holding a single
	// runtime array, declared as a structured buffer of its elements.
	resourceStructuredElements
	// resourceStructuredBlock is a storage block of fixed size, declared
	// as a one-element structured buffer of the block.
	resourceStructuredBlock
	resourceTexture
	resourceSampler
)

// resource is a module-scope variable bound to a register.
type resource struct {
	id       ir.ID
	kind     resourceKind
	name     string
	structID ir.ID
	// typ spells the object type without the name.
	typ    string
	suffix string
	class  RegisterType
	count  uint32
	target BindTarget
	// explicit is set when the register comes from a decoration, the
	// binding map or the push constant option.
	explicit bool

	coherent   bool
	packOffset bool
	// whole marks constant buffers loaded as a whole value, which need
	// their block declared as a struct.
	whole   bool
	token   string
	members []string

	// sampler is the sampler declared for a combined image-sampler.
	sampler *resource
}

// expr returns the expression a variable access starts from.
func (r *resource) expr() string {
	switch r.kind {
	case resourceConstantBuffer, resourceStructuredElements:
		return r.token
	case resourceStructuredBlock:
		return r.name + "[0]"
	}
	return r.name
}

// wholeValue initializes a block struct from the flattened members.
func (r *resource) wholeValue() string {
	return "{ " + strings.Join(r.members, ", ") + " }"
}

func (w *writer) resourceOf(id ir.ID) *resource { return w.byVar[id] }

type indexRange struct{ lo, hi uint32 }

// allocator hands out registers of one class and space, skipping reserved
// ranges.
type allocator struct {
	taken []indexRange
	next  uint32
}

func (a *allocator) reserve(lo, count uint32) {
	a.taken = append(a.taken, indexRange{lo, lo + count})
}

func (a *allocator) overlaps(lo, count uint32) bool {
	for _, r := range a.taken {
		if lo < r.hi && r.lo < lo+count {
			return true
		}
	}
	return false
}

func (a *allocator) take(count uint32) uint32 {
	for a.overlaps(a.next, count) {
		a.next++
	}
	idx := a.next
	a.reserve(idx, count)
	a.next += count
	return idx
}

type allocKey struct {
	class RegisterType
	space uint8
}

// buildResources classifies the resources the entry point uses and
// assigns their registers. Explicit registers are reserved first; the
// rest take the lowest free register of their class in space 0.
func (w *writer) buildResources() error {
	for _, id := range w.variables() {
		r, err := w.classify(id, w.m.Variable(id))
		if err != nil {
			return err
		}
		if r == nil {
			continue
		}
		w.resources = append(w.resources, r)
		w.byVar[id] = r
	}
	w.markWholeLoads()

	allocs := make(map[allocKey]*allocator)
	alloc := func(class RegisterType, space uint8) *allocator {
		k := allocKey{class, space}
		if allocs[k] == nil {
			allocs[k] = &allocator{}
		}
		return allocs[k]
	}
	for _, r := range w.resources {
		if !r.explicit {
			continue
		}
		if r.target.Space != 0 {
			w.need(ShaderModel5_1, "register spaces")
		}
		alloc(r.class, r.target.Space).reserve(r.target.Register, r.count)
		if r.sampler != nil {
			alloc(RegisterTypeS, r.target.Space).reserve(r.target.Register, r.count)
		}
	}
	for _, r := range w.resources {
		if r.explicit {
			continue
		}
		if r.sampler != nil {
			// The texture and sampler halves share a register number.
			reg := alloc(r.class, 0).next
			for alloc(r.class, 0).overlaps(reg, r.count) || alloc(RegisterTypeS, 0).overlaps(reg, r.count) {
				reg++
			}
			alloc(r.class, 0).reserve(reg, r.count)
			alloc(RegisterTypeS, 0).reserve(reg, r.count)
			r.target = BindTarget{Register: reg}
			continue
		}
		r.target = BindTarget{Register: alloc(r.class, 0).take(r.count)}
	}
	for _, r := range w.resources {
		w.registers[r.name] = r.target.format(r.class, w.opts.ShaderModel)
		if r.sampler != nil {
			r.sampler.target = r.target
			w.registers[r.sampler.name] = r.target.format(RegisterTypeS, w.opts.ShaderModel)
		}
	}
	if len(w.resources) > 0 {
		w.log.Debug("assigned hlsl registers", zap.Strings("registers", w.sortedRegisters()))
	}
	return nil
}

// explicitTarget returns the register of a resource carrying a binding,
// looked up in the binding map first.
func (w *writer) explicitTarget(id ir.ID) (BindTarget, bool) {
	if !w.m.HasDecoration(id, spirv.DecorationBinding) {
		return BindTarget{}, false
	}
	set := w.m.DecorationValue(id, spirv.DecorationDescriptorSet)
	binding := w.m.DecorationValue(id, spirv.DecorationBinding)
	if t, ok := w.opts.BindingMap[ResourceBinding{Group: set, Binding: binding}]; ok {
		return t, true
	}
	return BindTarget{Space: uint8(set), Register: binding}, true
}

// arrayCount returns the number of registers an array of resources
// occupies; runtime arrays occupy one.
func (w *writer) arrayCount(typeID ir.ID) uint32 {
	t := w.m.Type(typeID)
	n := uint32(1)
	for i := range t.Array {
		size, literal, ok := w.m.ArrayDimension(t, i)
		if !ok || !literal || size == 0 {
			continue
		}
		n *= size
	}
	return n
}

// classify decides how a variable is declared, or returns nil for
// variables that are not register-bound resources.
func (w *writer) classify(id ir.ID, v *ir.Variable) (*resource, error) {
	pointee := w.cc.VariableType(id)
	pt := w.m.Type(pointee)
	r := &resource{id: id, name: w.g.ValueName(id), count: w.arrayCount(pointee)}
	switch v.Storage {
	case spirv.StorageClassUniform, spirv.StorageClassStorageBuffer, spirv.StorageClassPushConstant:
		r.structID = pt.Self
		ssbo := v.Storage == spirv.StorageClassStorageBuffer ||
			(v.Storage == spirv.StorageClassUniform && w.m.HasDecoration(pt.Self, spirv.DecorationBufferBlock))
		var err error
		if ssbo {
			err = w.classifyStorageBuffer(r, pt)
		} else {
			err = w.classifyConstantBuffer(r, pt)
		}
		if err != nil {
			return nil, err
		}
		if v.Storage == spirv.StorageClassPushConstant && w.opts.PushConstants != nil {
			r.target, r.explicit = *w.opts.PushConstants, true
			return r, nil
		}
	case spirv.StorageClassUniformConstant:
		if !w.classifyOpaque(r, pt) {
			return nil, cross.Unsupported("resource %s has a type the HLSL backend cannot declare", r.name)
		}
	default:
		return nil, nil
	}
	if v.Storage != spirv.StorageClassPushConstant {
		r.target, r.explicit = w.explicitTarget(id)
	}
	return r, nil
}

func (w *writer) classifyConstantBuffer(r *resource, pt *ir.Type) error {
	p, ok := emit.SelectPacking(w.cc, r.structID, cross.PackingHLSLCbuffer, cross.PackingHLSLCbufferPackOffset)
	if !ok {
		return cross.Unsupported("constant buffer %s cannot be expressed with HLSL packing rules", r.name)
	}
	r.class = RegisterTypeB
	if pt.IsArray() {
		w.need(ShaderModel5_1, "arrays of constant buffers")
		if p != cross.PackingHLSLCbuffer {
			return cross.Unsupported("constant buffer array %s needs member offsets, which ConstantBuffer<T> cannot declare", r.name)
		}
		r.kind = resourceConstantBufferArray
		r.typ = hlslConstantBuffer + "<" + w.g.TypeName(r.structID) + ">"
		r.suffix = w.g.ArraySuffix(w.cc.VariableType(r.id))
		return nil
	}
	r.kind = resourceConstantBuffer
	r.packOffset = p == cross.PackingHLSLCbufferPackOffset
	r.token = tokenMark + r.name + tokenMark
	w.hiddenStructs[r.structID] = true
	for i := range w.m.Type(r.structID).MemberTypes {
		r.members = append(r.members, w.names.Call(r.name+"_"+w.g.MemberName(r.structID, i)))
	}
	w.flat[r.token] = func(i int) string { return r.members[i] }
	w.log.Debug("selected cbuffer packing",
		zap.String("block", r.name),
		zap.Stringer("packing", p))
	return nil
}

// readOnlyBuffer reports whether a storage block is never written: the
// variable or every member is NonWritable.
func (w *writer) readOnlyBuffer(id, structID ir.ID) bool {
	if w.m.HasDecoration(id, spirv.DecorationNonWritable) {
		return true
	}
	members := w.m.Type(structID).MemberTypes
	for i := range members {
		if !w.m.HasMemberDecoration(structID, i, spirv.DecorationNonWritable) {
			return false
		}
	}
	return len(members) > 0
}

func (w *writer) classifyStorageBuffer(r *resource, pt *ir.Type) error {
	if pt.IsArray() {
		return cross.Unsupported("arrays of storage buffers are not supported by the HLSL backend")
	}
	if _, ok := emit.SelectPacking(w.cc, r.structID, cross.PackingScalar); !ok {
		return cross.Unsupported("storage buffer %s has padding a structured buffer cannot reproduce", r.name)
	}
	st := w.m.Type(r.structID)
	runtime := -1
	for i, mt := range st.MemberTypes {
		if w.m.Type(mt).IsRuntimeArray() {
			runtime = i
		}
	}
	object := hlslRWStructuredBuffer
	r.class = RegisterTypeU
	if w.readOnlyBuffer(r.id, r.structID) {
		object = hlslStructuredBuffer
		r.class = RegisterTypeT
	} else if w.m.HasDecoration(r.id, spirv.DecorationCoherent) {
		r.coherent = true
	}
	switch {
	case runtime < 0:
		r.kind = resourceStructuredBlock
		r.typ = object + "<" + w.g.TypeName(r.structID) + ">"
	case len(st.MemberTypes) == 1:
		r.kind = resourceStructuredElements
		elem := w.m.Type(st.MemberTypes[0]).Parent
		if w.m.Type(elem).IsArray() {
			return cross.Unsupported("storage buffer %s holds a runtime array of arrays", r.name)
		}
		r.typ = object + "<" + w.g.TypeName(elem) + ">"
		r.token = tokenMark + r.name + tokenMark
		w.hiddenStructs[r.structID] = true
		w.flat[r.token] = func(int) string { return r.name }
	default:
		return cross.Unsupported("storage buffer %s mixes a runtime array with other members", r.name)
	}
	return nil
}

func (w *writer) classifyOpaque(r *resource, pt *ir.Type) bool {
	r.suffix = w.g.ArraySuffix(w.cc.VariableType(r.id))
	switch pt.Base {
	case ir.BaseSampler:
		r.kind = resourceSampler
		r.class = RegisterTypeS
		r.typ = imageToHLSL(w.m, pt, false, w.comparison[r.id])
	case ir.BaseImage, ir.BaseSampledImage:
		r.kind = resourceTexture
		r.class = RegisterTypeT
		readOnly := pt.Image.Sampled != 2 || w.m.HasDecoration(r.id, spirv.DecorationNonWritable)
		if !readOnly {
			r.class = RegisterTypeU
			r.coherent = w.m.HasDecoration(r.id, spirv.DecorationCoherent)
		}
		r.typ = imageToHLSL(w.m, pt, readOnly, false)
		if pt.Base == ir.BaseSampledImage {
			samplerType := &ir.Type{Base: ir.BaseSampler, VecSize: 1, Columns: 1}
			r.sampler = &resource{
				kind:   resourceSampler,
				name:   w.names.Call("_" + r.name + "_sampler"),
				typ:    imageToHLSL(w.m, samplerType, false, w.comparison[r.id]),
				suffix: r.suffix,
				class:  RegisterTypeS,
				count:  r.count,
			}
		}
	default:
		return false
	}
	return true
}

// markWholeLoads finds constant buffers read as a whole value. Their
// block is declared as a struct and the cbuffer takes another name.
func (w *writer) markWholeLoads() {
	_ = w.instructions(func(in *ir.Instruction) error {
		if in.Op != spirv.OpLoad {
			return nil
		}
		if r := w.byVar[in.Arg(0)]; r != nil && r.kind == resourceConstantBuffer {
			r.whole = true
			delete(w.hiddenStructs, r.structID)
		}
		return nil
	})
}

// samplerExpr returns the sampler paired with a sampled image value.
func (w *writer) samplerExpr(g *emit.Generator, id ir.ID) (string, error) {
	if s, ok := w.samplerOf[id]; ok {
		return s, nil
	}
	if v, ok := w.opaque[id]; ok {
		if r := w.byVar[v]; r != nil && r.sampler != nil {
			// Keep any array index applied to the texture.
			return r.sampler.name + strings.TrimPrefix(g.Expr(id), r.name), nil
		}
	}
	return "", cross.Unsupported("sampling an image whose sampler is not a module-scope resource")
}

func (w *writer) writeResources() error {
	if len(w.resources) == 0 {
		return nil
	}
	for _, r := range w.resources {
		reg := w.registers[r.name]
		prefix := ""
		if r.coherent {
			prefix = "globallycoherent "
		}
		switch r.kind {
		case resourceConstantBuffer:
			w.writeConstantBuffer(r, reg)
		default:
			w.out.Line("%s%s %s%s : %s;", prefix, r.typ, r.name, r.suffix, reg)
		}
		if r.sampler != nil {
			s := r.sampler
			w.out.Line("%s %s%s : %s;", s.typ, s.name, s.suffix, w.registers[s.name])
		}
	}
	w.out.Line("")
	return nil
}

func (w *writer) writeConstantBuffer(r *resource, reg string) {
	name := w.g.TypeName(r.structID)
	if r.whole {
		name = w.names.Call("type_" + name)
	}
	w.out.Line("%s %s : %s", hlslCBuffer, name, reg)
	w.out.Begin()
	for i, mt := range w.m.Type(r.structID).MemberTypes {
		decl := w.matrixLayout(r.structID, i) + w.g.Declare(mt, r.members[i])
		if r.packOffset {
			off := w.cc.MemberOffset(r.structID, i)
			decl += " : " + packOffset(off)
		}
		w.out.Line("%s;", decl)
	}
	w.out.End(";")
}

// packOffset spells the packoffset of a byte offset: a 16-byte constant
// register and the component within it.
func packOffset(off uint32) string {
	c := fmt.Sprintf("packoffset(c%d", off/16)
	if comp := (off % 16) / 4; comp != 0 {
		c += "." + swizzle[comp:comp+1]
	}
	return c + ")"
}
