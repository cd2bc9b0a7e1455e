package msl

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// resource is an entry parameter bound to a Metal argument table.
type resource struct {
	id       ir.ID
	name     string
	kind     ResourceKind
	index    uint32
	count    uint32
	override bool
	key      bindingKey

	// typ spells the parameter type without the name.
	typ string
	// sampler is the sampler half of a combined image-sampler.
	sampler *resource
}

func (r *resource) decl() string {
	return r.typ + " " + r.name + " [[" + r.kind.String() + "(" + strconv.Itoa(int(r.index)) + ")]]"
}

func (r *resource) plain() string { return r.typ + " " + r.name }

type indexRange struct{ lo, hi uint32 }

// allocator hands out Metal indices of one kind, skipping reserved ranges.
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

// allocateResources assigns Metal indices to the resources the entry point
// uses. Registered overrides are honored first and their ranges reserved;
// remaining resources take the lowest free indices of their kind in
// declaration order, or their Binding decoration when that option is set.
func (w *writer) allocateResources() error {
	active := w.cc.ActiveInterfaceVariables()
	var list []*resource
	for _, id := range w.m.Declarations {
		v := w.m.Variable(id)
		if v == nil || v.Hidden || !w.cc.IsEnabled(id) {
			continue
		}
		if _, ok := active[id]; !ok {
			continue
		}
		r, err := w.classify(id, v)
		if err != nil {
			return err
		}
		if r != nil {
			list = append(list, r)
		}
	}

	allocs := map[ResourceKind]*allocator{
		ResourceBuffer:  {},
		ResourceTexture: {},
		ResourceSampler: {},
	}
	if w.needsSizes {
		allocs[ResourceBuffer].reserve(w.opts.BufferSizeBufferIndex, 1)
	}

	assignOverride := func(r *resource, b *bindingState) {
		switch r.kind {
		case ResourceBuffer:
			r.index = b.Buffer
		case ResourceTexture:
			r.index = b.Texture
		default:
			r.index = b.Sampler
		}
		r.override = true
		allocs[r.kind].reserve(r.index, r.count)
	}
	for _, r := range list {
		b, ok := w.c.bindings[r.key]
		if !ok {
			continue
		}
		assignOverride(r, b)
		if r.sampler != nil {
			r.sampler.index = b.Sampler
			r.sampler.override = true
			allocs[ResourceSampler].reserve(b.Sampler, r.sampler.count)
		}
		w.boundOverrides[r.key] = true
	}

	decorated := func(r *resource) bool {
		return w.opts.EnableDecorationBinding && w.m.HasDecoration(r.id, spirv.DecorationBinding)
	}
	for _, r := range list {
		if !decorated(r) {
			continue
		}
		for _, part := range []*resource{r, r.sampler} {
			if part == nil || part.override {
				continue
			}
			idx := w.m.DecorationValue(r.id, spirv.DecorationBinding)
			if allocs[part.kind].overlaps(idx, part.count) {
				return cross.Unsupported("%s index %d of %q is already bound", part.kind, idx, w.m.Name(r.id))
			}
			part.index = idx
			allocs[part.kind].reserve(idx, part.count)
		}
	}
	for _, r := range list {
		if decorated(r) {
			continue
		}
		for _, part := range []*resource{r, r.sampler} {
			if part == nil || part.override {
				continue
			}
			part.index = allocs[part.kind].take(part.count)
		}
	}

	for _, r := range list {
		meta := w.m.MetaFor(r.id)
		meta.Decoration.SetExtended(ir.ExtResourceIndexPrimary, r.index)
		if r.sampler != nil {
			meta.Decoration.SetExtended(ir.ExtResourceIndexSecondary, r.sampler.index)
		}
		w.resByVar[r.id] = r
		w.resources = append(w.resources, r)
	}
	return nil
}

// classify describes a module-scope variable as a resource, or returns nil
// for variables that are not bound through argument tables.
func (w *writer) classify(id ir.ID, v *ir.Variable) (*resource, error) {
	pointee := w.cc.VariableType(id)
	t := w.m.Type(pointee)
	key := bindingKey{
		stage:   w.model,
		set:     w.m.DecorationValue(id, spirv.DecorationDescriptorSet),
		binding: w.m.DecorationValue(id, spirv.DecorationBinding),
	}
	name := w.g.ValueName(id)

	switch v.Storage {
	case spirv.StorageClassUniform, spirv.StorageClassStorageBuffer, spirv.StorageClassPushConstant:
		if t.IsArray() {
			return nil, cross.Unsupported("buffer array %q is not supported by the Metal backend", w.m.Name(id))
		}
		if v.Storage == spirv.StorageClassPushConstant {
			key.set, key.binding = PushConstantDescriptorSet, PushConstantBinding
		}
		space := addressSpaceName(w.m, v.Storage, pointee)
		if space == "device" && w.readOnlyBuffer(id, t.Self) {
			space = "const device"
		}
		return &resource{
			id: id, name: name, kind: ResourceBuffer, count: 1, key: key,
			typ: space + " " + w.g.TypeName(pointee) + "&",
		}, nil
	case spirv.StorageClassUniformConstant:
	default:
		return nil, nil
	}

	count, err := w.resourceCount(id, t)
	if err != nil {
		return nil, err
	}
	wrap := func(elem string) string {
		if t.IsArray() {
			return "array<" + elem + ", " + strconv.Itoa(int(count)) + ">"
		}
		return elem
	}

	switch t.Base {
	case ir.BaseImage:
		return &resource{
			id: id, name: name, kind: ResourceTexture, count: count, key: key,
			typ: wrap(textureTypeName(w.m, t, accessOf(w.m, id))),
		}, nil
	case ir.BaseSampler:
		return &resource{
			id: id, name: name, kind: ResourceSampler, count: count, key: key,
			typ: wrap("sampler"),
		}, nil
	case ir.BaseSampledImage:
		smplr := w.names.Call(name + "Smplr")
		w.samplerByExpr[name] = smplr
		return &resource{
			id: id, name: name, kind: ResourceTexture, count: count, key: key,
			typ: wrap(textureTypeName(w.m, t, accessRead)),
			sampler: &resource{
				id: id, name: smplr, kind: ResourceSampler, count: count, key: key,
				typ: wrap("sampler"),
			},
		}, nil
	}
	return nil, cross.Unsupported("resource %q of type %d is not supported by the Metal backend", w.m.Name(id), pointee)
}

// resourceCount is the number of argument slots an opaque resource
// occupies.
func (w *writer) resourceCount(id ir.ID, t *ir.Type) (uint32, error) {
	if !t.IsArray() {
		return 1, nil
	}
	if len(t.Array) > 1 {
		return 0, cross.Unsupported("multi-dimensional resource array %q is not supported by the Metal backend", w.m.Name(id))
	}
	n, literal, ok := w.m.ArrayDimension(t, 0)
	switch {
	case !ok:
		return 0, cross.Invalid("resource array %q has an invalid size", w.m.Name(id))
	case !literal:
		return 0, cross.Unsupported("resource array %q is sized by a specialization constant", w.m.Name(id))
	case n == 0:
		return 0, cross.Unsupported("runtime-sized resource array %q is not supported by the Metal backend", w.m.Name(id))
	}
	return n, nil
}

// readOnlyBuffer reports buffers whose variable or every member is
// NonWritable.
func (w *writer) readOnlyBuffer(id, structID ir.ID) bool {
	if w.m.HasDecoration(id, spirv.DecorationNonWritable) {
		return true
	}
	members := w.m.Type(structID).MemberTypes
	if len(members) == 0 {
		return false
	}
	for i := range members {
		if !w.m.HasMemberDecoration(structID, i, spirv.DecorationNonWritable) {
			return false
		}
	}
	return true
}

// entryParams lists the parameters of the entry function: the stage input
// struct, resources by kind and index, the buffer size table and builtin
// inputs.
func (w *writer) entryParams() []string {
	var params []string
	if w.inBlock != nil {
		params = append(params, w.inBlock.typeName+" in [[stage_in]]")
	}
	var parts []*resource
	for _, r := range w.resources {
		parts = append(parts, r)
		if r.sampler != nil {
			parts = append(parts, r.sampler)
		}
	}
	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].kind != parts[j].kind {
			return parts[i].kind < parts[j].kind
		}
		return parts[i].index < parts[j].index
	})
	for _, r := range parts {
		params = append(params, r.decl())
	}
	if w.needsSizes {
		params = append(params, "constant uint* spvBufferSizeConstants [[buffer("+strconv.Itoa(int(w.opts.BufferSizeBufferIndex))+")]]")
	}
	for _, b := range w.builtins {
		params = append(params, b.decl)
	}
	return params
}

// entrySignature spells the declaration of the entry function.
func (w *writer) entrySignature() string {
	stage := "kernel"
	switch w.model {
	case spirv.ExecutionModelVertex:
		stage = "vertex"
	case spirv.ExecutionModelFragment:
		stage = "fragment"
	}
	ret := "void"
	if w.outBlock != nil {
		ret = w.outBlock.typeName
	}
	prefix := ""
	if w.model == spirv.ExecutionModelFragment && w.cc.HasExecutionMode(spirv.ExecutionModeEarlyFragmentTests) {
		prefix = "[[ early_fragment_tests ]] "
	}
	return prefix + stage + " " + ret + " " + w.entryName + "(" + strings.Join(w.entryParams(), ", ") + ")"
}

// assigned reports the resource parameters in parameter order.
func (w *writer) assigned() []AssignedResource {
	var out []AssignedResource
	for _, r := range w.resources {
		for _, part := range []*resource{r, r.sampler} {
			if part == nil {
				continue
			}
			out = append(out, AssignedResource{
				ID:       r.id,
				Name:     part.name,
				Kind:     part.kind,
				Index:    part.index,
				Count:    part.count,
				Override: part.override,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// threading is the set of globals a helper function receives as extra
// parameters, since Metal has no mutable module-scope variables.
type threading struct {
	decls []string
	args  []string
}

// threadingFor returns the extra parameters of a non-entry function.
func (w *writer) threadingFor(fn ir.ID) *threading {
	if t, ok := w.threads[fn]; ok {
		return t
	}
	t := &threading{}
	add := func(decl, arg string) {
		t.decls = append(t.decls, decl)
		t.args = append(t.args, arg)
	}
	needIn, needOut := false, false
	var rest threading
	addRest := func(decl, arg string) {
		rest.decls = append(rest.decls, decl)
		rest.args = append(rest.args, arg)
	}

	for _, id := range w.cc.GlobalsUsedBy(fn) {
		v := w.m.Variable(id)
		if v == nil || v.Hidden {
			continue
		}
		if iv, ok := w.io[id]; ok {
			switch {
			case iv.param != nil:
				addRest(iv.param.plain, iv.param.name)
			case iv.local != nil:
				addRest(w.refDecl("thread", iv.local.typeID, iv.local.name), iv.local.name)
			case iv.inBlock:
				needIn = true
			case iv.outBlock:
				needOut = true
			}
			continue
		}
		if r := w.resByVar[id]; r != nil {
			addRest(r.plain(), r.name)
			if r.sampler != nil {
				addRest(r.sampler.plain(), r.sampler.name)
			}
			continue
		}
		name := w.g.ValueName(id)
		switch v.Storage {
		case spirv.StorageClassPrivate:
			addRest(w.refDecl("thread", w.cc.VariableType(id), name), name)
		case spirv.StorageClassWorkgroup:
			addRest(w.refDecl("threadgroup", w.cc.VariableType(id), name), name)
		}
	}
	if needIn {
		add("thread "+w.inBlock.typeName+"& in", "in")
	}
	if needOut {
		add("thread "+w.outBlock.typeName+"& out", "out")
	}
	t.decls = append(t.decls, rest.decls...)
	t.args = append(t.args, rest.args...)
	if w.usesSizes(fn, make(map[ir.ID]bool)) {
		add("constant uint* spvBufferSizeConstants", "spvBufferSizeConstants")
	}
	w.threads[fn] = t
	return t
}

// refDecl spells a reference parameter in an address space, using the
// reference-to-array form for arrays.
func (w *writer) refDecl(space string, typeID ir.ID, name string) string {
	if w.m.Type(typeID).IsArray() {
		return space + " " + w.g.TypeName(typeID) + " (&" + name + ")" + w.arraySuffix(typeID)
	}
	return space + " " + w.g.TypeName(typeID) + "& " + name
}
