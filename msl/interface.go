package msl

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// ioBlock is a synthesized stage interface struct: main0_in, passed with
// [[stage_in]], or main0_out, returned by the entry function.
type ioBlock struct {
	typeID   ir.ID
	varID    ir.ID
	typeName string
	varName  string
	storage  spirv.StorageClass
	members  []*ioMember
	taken    map[string]bool
}

type ioMember struct {
	name   string
	typeID ir.ID
	// typ overrides the spelling of typeID for builtins whose Metal type
	// differs from the declared one.
	typ     string
	attr    string
	builtin bool

	location  uint32
	component uint32
	offset    uint32
	hasOffset bool
	order     int

	origID     ir.ID
	origMember int
}

// unique returns a member name not yet used in the block.
func (b *ioBlock) unique(name string) string {
	if !b.taken[name] {
		b.taken[name] = true
		return name
	}
	for i := 1; ; i++ {
		candidate := name + "_" + strconv.Itoa(i)
		if !b.taken[candidate] {
			b.taken[candidate] = true
			return candidate
		}
	}
}

func (b *ioBlock) add(mem *ioMember) *ioMember {
	mem.order = len(b.members)
	b.members = append(b.members, mem)
	return mem
}

// ioVar tells how a stage interface variable is referenced from code.
type ioVar struct {
	// expr references the whole variable. It is empty for dropped
	// outputs.
	expr string
	flat *flatNode

	// loadCast converts loads of a builtin parameter to the declared
	// type; storeType converts stores to a builtin output.
	loadCast  bool
	storeType string

	inBlock  bool
	outBlock bool
	param    *entryParam
	local    *localDecl
}

// entryParam is a builtin input passed to the entry function directly.
type entryParam struct {
	decl  string
	plain string
	name  string
}

// localDecl is an entry function local standing in for an interface
// variable that Metal cannot express directly.
type localDecl struct {
	typeID ir.ID
	name   string
}

// flatNode is a struct interface variable flattened into members of the
// interface struct. Struct nodes are referenced through an opaque token
// that MemberAccess, LoadExpr and Store resolve; leaves hold the member
// expression, empty when the member was dropped.
type flatNode struct {
	token   string
	typeID  ir.ID
	leaf    string
	dropped bool
	members []*flatNode
}

const tokenMark = "\x00"

func (w *writer) newFlat(typeID ir.ID) *flatNode {
	w.flatCount++
	n := &flatNode{token: tokenMark + strconv.Itoa(w.flatCount) + tokenMark, typeID: typeID}
	w.flat[n.token] = n
	return n
}

func (w *writer) newLeaf(typeID ir.ID, expr string) *flatNode {
	n := w.newFlat(typeID)
	n.leaf = expr
	return n
}

func (w *writer) droppedLeaf(typeID ir.ID) *flatNode {
	n := w.newFlat(typeID)
	n.dropped = true
	return n
}

// resolveToken splits an expression starting with a flat token into the
// node and the suffix applied to it.
func (w *writer) resolveToken(expr string) (*flatNode, string, bool) {
	if !strings.HasPrefix(expr, tokenMark) {
		return nil, "", false
	}
	end := strings.Index(expr[1:], tokenMark)
	if end < 0 {
		return nil, "", false
	}
	n := w.flat[expr[:end+2]]
	if n == nil {
		return nil, "", false
	}
	return n, expr[end+2:], true
}

// expression returns the text referencing a flat node: the leaf member
// or the token of a struct node.
func (n *flatNode) expression() string {
	if n.leaf != "" && !n.dropped {
		return n.leaf
	}
	return n.token
}

// builtinDesc describes how Metal spells a builtin.
type builtinDesc struct {
	name string
	attr string
	// base and vec give the Metal type; BaseUnknown keeps the declared
	// type.
	base ir.BaseType
	vec  uint32
}

func (w *writer) builtinDesc(b spirv.BuiltIn, output bool) (builtinDesc, error) {
	switch b {
	case spirv.BuiltInPosition:
		return builtinDesc{name: "gl_Position", attr: "position"}, nil
	case spirv.BuiltInFragCoord:
		return builtinDesc{name: "gl_FragCoord", attr: "position", base: ir.BaseFloat, vec: 4}, nil
	case spirv.BuiltInPointSize:
		return builtinDesc{name: "gl_PointSize", attr: "point_size"}, nil
	case spirv.BuiltInClipDistance:
		return builtinDesc{name: "gl_ClipDistance", attr: "clip_distance"}, nil
	case spirv.BuiltInVertexID, spirv.BuiltInVertexIndex:
		return builtinDesc{name: "gl_VertexIndex", attr: "vertex_id", base: ir.BaseUInt, vec: 1}, nil
	case spirv.BuiltInInstanceID, spirv.BuiltInInstanceIndex:
		return builtinDesc{name: "gl_InstanceIndex", attr: "instance_id", base: ir.BaseUInt, vec: 1}, nil
	case spirv.BuiltInBaseVertex:
		return builtinDesc{name: "gl_BaseVertex", attr: "base_vertex", base: ir.BaseUInt, vec: 1}, nil
	case spirv.BuiltInBaseInstance:
		return builtinDesc{name: "gl_BaseInstance", attr: "base_instance", base: ir.BaseUInt, vec: 1}, nil
	case spirv.BuiltInFrontFacing:
		return builtinDesc{name: "gl_FrontFacing", attr: "front_facing", base: ir.BaseBool, vec: 1}, nil
	case spirv.BuiltInSampleID:
		return builtinDesc{name: "gl_SampleID", attr: "sample_id", base: ir.BaseUInt, vec: 1}, nil
	case spirv.BuiltInSampleMask:
		if output {
			return builtinDesc{name: "gl_SampleMask", attr: "sample_mask", base: ir.BaseUInt, vec: 1}, nil
		}
		return builtinDesc{name: "gl_SampleMaskIn", attr: "sample_mask", base: ir.BaseUInt, vec: 1}, nil
	case spirv.BuiltInPointCoord:
		return builtinDesc{name: "gl_PointCoord", attr: "point_coord", base: ir.BaseFloat, vec: 2}, nil
	case spirv.BuiltInFragDepth:
		attr := "depth(any)"
		switch {
		case w.cc.HasExecutionMode(spirv.ExecutionModeDepthGreater):
			attr = "depth(greater)"
		case w.cc.HasExecutionMode(spirv.ExecutionModeDepthLess):
			attr = "depth(less)"
		}
		return builtinDesc{name: "gl_FragDepth", attr: attr, base: ir.BaseFloat, vec: 1}, nil
	case spirv.BuiltInLayer:
		return builtinDesc{name: "gl_Layer", attr: "render_target_array_index", base: ir.BaseUInt, vec: 1}, nil
	case spirv.BuiltInViewportIndex:
		return builtinDesc{name: "gl_ViewportIndex", attr: "viewport_array_index", base: ir.BaseUInt, vec: 1}, nil
	case spirv.BuiltInPrimitiveID:
		return builtinDesc{name: "gl_PrimitiveID", attr: "primitive_id", base: ir.BaseUInt, vec: 1}, nil
	case spirv.BuiltInGlobalInvocationID:
		return builtinDesc{name: "gl_GlobalInvocationID", attr: "thread_position_in_grid", base: ir.BaseUInt, vec: 3}, nil
	case spirv.BuiltInLocalInvocationID:
		return builtinDesc{name: "gl_LocalInvocationID", attr: "thread_position_in_threadgroup", base: ir.BaseUInt, vec: 3}, nil
	case spirv.BuiltInWorkgroupID:
		return builtinDesc{name: "gl_WorkGroupID", attr: "threadgroup_position_in_grid", base: ir.BaseUInt, vec: 3}, nil
	case spirv.BuiltInNumWorkgroups:
		return builtinDesc{name: "gl_NumWorkGroups", attr: "threadgroups_per_grid", base: ir.BaseUInt, vec: 3}, nil
	case spirv.BuiltInLocalInvocationIndex:
		return builtinDesc{name: "gl_LocalInvocationIndex", attr: "thread_index_in_threadgroup", base: ir.BaseUInt, vec: 1}, nil
	}
	return builtinDesc{}, cross.Unsupported("builtin %s is not supported by the Metal backend", b)
}

// builtinTypeName spells the Metal type of a builtin whose declared type is
// typeID.
func (w *writer) builtinTypeName(d builtinDesc, typeID ir.ID) string {
	if d.base == ir.BaseUnknown {
		return w.g.TypeName(typeID)
	}
	return numericTypeName(&ir.Type{Base: d.base, Width: 32, VecSize: d.vec, Columns: 1})
}

// buildInterface gathers the active Input and Output variables of the
// entry point into the synthesized interface structs, builtin parameters
// and entry locals.
func (w *writer) buildInterface() error {
	w.inBlock = &ioBlock{typeName: w.entryName + "_in", varName: "in", storage: spirv.StorageClassInput, taken: map[string]bool{}}
	w.outBlock = &ioBlock{typeName: w.entryName + "_out", varName: "out", storage: spirv.StorageClassOutput, taken: map[string]bool{}}

	active := w.cc.ActiveInterfaceVariables()
	for _, id := range w.m.Declarations {
		v := w.m.Variable(id)
		if v == nil || v.Hidden {
			continue
		}
		if v.Storage != spirv.StorageClassInput && v.Storage != spirv.StorageClassOutput {
			continue
		}
		if _, ok := active[id]; !ok || !w.cc.IsEnabled(id) {
			continue
		}
		if err := w.addInterfaceVariable(id, v.Storage == spirv.StorageClassOutput); err != nil {
			return err
		}
	}

	w.inBlock = w.finishBlock(w.inBlock)
	w.outBlock = w.finishBlock(w.outBlock)
	return nil
}

func (w *writer) addInterfaceVariable(id ir.ID, output bool) error {
	typeID := w.cc.VariableType(id)
	t := w.m.Type(typeID)
	block := w.inBlock
	if output {
		block = w.outBlock
	}

	if b, ok := w.cc.BuiltinOf(id); ok {
		return w.addBuiltinVariable(id, typeID, b, output)
	}
	if w.cc.IsBuiltinBlock(typeID) {
		if !output || t.IsArray() {
			return cross.Unsupported("builtin block %q is not supported by the Metal backend", w.m.Name(id))
		}
		node, err := w.flattenBuiltinBlock(id, typeID)
		if err != nil {
			return err
		}
		w.io[id] = &ioVar{flat: node, outBlock: true}
		return nil
	}
	if w.model == spirv.ExecutionModelGLCompute {
		return cross.Unsupported("user %s variable %q in a compute shader", block.storage, w.m.Name(id))
	}

	base := w.memberBase(id)
	loc := w.m.DecorationValue(id, spirv.DecorationLocation)
	varDec := w.varDecoration(id)
	iv := &ioVar{inBlock: !output, outBlock: output}
	w.io[id] = iv

	switch {
	case t.Base == ir.BaseStruct && !t.IsArray():
		node, err := w.flattenStruct(block, id, typeID, base, &loc, varDec, output)
		if err != nil {
			return err
		}
		iv.flat = node
	case t.IsArray():
		elem := w.m.Type(t.Parent)
		if elem.Base == ir.BaseStruct || elem.Columns > 1 || len(t.Array) > 1 {
			return cross.Unsupported("stage %s %q: arrays of structs, matrices or arrays are not supported by the Metal backend", block.storage, w.m.Name(id))
		}
		n, literal, _ := w.m.ArrayDimension(t, 0)
		if !literal || n == 0 {
			return cross.Unsupported("stage %s %q has no constant size", block.storage, w.m.Name(id))
		}
		w.splitVariable(block, iv, id, typeID, t.Parent, n, base, loc, varDec, output)
	case t.Columns > 1:
		w.splitVariable(block, iv, id, typeID, t.Parent, t.Columns, base, loc, varDec, output)
	default:
		pad := output && w.model == spirv.ExecutionModelFragment && w.opts.PadFragmentOutputs && t.VecSize < 4
		memberType := typeID
		if pad {
			memberType = numericType(w.m, t.Base, t.Width, 4, 1)
		}
		name := block.unique(base)
		block.add(&ioMember{
			name:      name,
			typeID:    memberType,
			attr:      w.locationAttr(output, loc, varDec, nil),
			location:  loc,
			component: varDec.Get(spirv.DecorationComponent),
			offset:    varDec.Get(spirv.DecorationOffset),
			hasOffset: varDec.Has(spirv.DecorationOffset),
			origID:    id,
		})
		if !pad {
			iv.expr = block.varName + "." + name
			break
		}
		local := w.g.ValueName(id)
		iv.expr = local
		iv.local = &localDecl{typeID: typeID, name: local}
		w.prologue = append(w.prologue, w.g.Declare(typeID, local)+" = {};")
		parts := []string{local}
		zero := w.g.ZeroExpr(t.Parent)
		if t.VecSize == 1 {
			zero = w.g.ZeroExpr(typeID)
		}
		for i := t.VecSize; i < 4; i++ {
			parts = append(parts, zero)
		}
		w.epilogue = append(w.epilogue, "out."+name+" = "+w.g.TypeName(memberType)+"("+strings.Join(parts, ", ")+");")
	}
	return nil
}

// splitVariable declares one interface member per element of an array or
// column of a matrix, copied from or to an entry local.
func (w *writer) splitVariable(block *ioBlock, iv *ioVar, id, typeID, elemType ir.ID, n uint32, base string, loc uint32, varDec *ir.Decoration, output bool) {
	local := w.g.ValueName(id)
	iv.expr = local
	iv.local = &localDecl{typeID: typeID, name: local}
	names := make([]string, n)
	for i := uint32(0); i < n; i++ {
		name := block.unique(base + "_" + strconv.Itoa(int(i)))
		names[i] = block.varName + "." + name
		block.add(&ioMember{
			name:     name,
			typeID:   elemType,
			attr:     w.locationAttr(output, loc+i, varDec, nil),
			location: loc + i,
			origID:   id,
		})
		if output {
			w.epilogue = append(w.epilogue, names[i]+" = "+local+"["+strconv.Itoa(int(i))+"];")
		}
	}
	switch {
	case output:
		w.prologue = append(w.prologue, w.g.Declare(typeID, local)+" = {};")
	case w.m.Type(typeID).IsArray():
		w.prologue = append(w.prologue, w.g.Declare(typeID, local)+" = { "+strings.Join(names, ", ")+" };")
	default:
		w.prologue = append(w.prologue, w.g.Declare(typeID, local)+" = "+w.g.TypeName(typeID)+"("+strings.Join(names, ", ")+");")
	}
}

func (w *writer) addBuiltinVariable(id, typeID ir.ID, b spirv.BuiltIn, output bool) error {
	t := w.m.Type(typeID)
	if output && b == spirv.BuiltInPointSize && !w.opts.EnablePointSize {
		w.io[id] = &ioVar{}
		return nil
	}
	desc, err := w.builtinDesc(b, output)
	if err != nil {
		return err
	}
	w.names.Set(id, desc.name)
	declared := w.g.TypeName(typeID)
	metal := w.builtinTypeName(desc, typeID)

	// Sample masks are arrays in SPIR-V and scalars in Metal.
	if t.IsArray() && b == spirv.BuiltInSampleMask {
		iv := &ioVar{expr: desc.name, local: &localDecl{typeID: typeID, name: desc.name}}
		w.io[id] = iv
		if output {
			name := w.outBlock.unique(desc.name)
			w.outBlock.add(&ioMember{name: name, typeID: t.Parent, typ: metal, attr: desc.attr, builtin: true, origID: id})
			iv.outBlock = true
			w.prologue = append(w.prologue, w.g.Declare(typeID, desc.name)+" = {};")
			w.epilogue = append(w.epilogue, "out."+name+" = "+metal+"("+desc.name+"[0]);")
			return nil
		}
		param := "spvSampleMaskIn"
		w.builtins = append(w.builtins, entryParam{
			decl:  metal + " " + param + " [[" + desc.attr + "]]",
			plain: metal + " " + param,
			name:  param,
		})
		w.prologue = append(w.prologue, w.g.Declare(typeID, desc.name)+" = { "+w.g.TypeName(t.Parent)+"("+param+") };")
		return nil
	}
	if t.IsArray() && b != spirv.BuiltInClipDistance {
		return cross.Unsupported("builtin array %s is not supported by the Metal backend", b)
	}

	if output {
		name := w.outBlock.unique(desc.name)
		w.outBlock.add(&ioMember{name: name, typeID: typeID, typ: metal, attr: desc.attr, builtin: true, origID: id})
		iv := &ioVar{expr: "out." + name, outBlock: true}
		if metal != declared {
			iv.storeType = metal
		}
		w.io[id] = iv
		return nil
	}
	param := entryParam{
		decl:  metal + " " + desc.name + " [[" + desc.attr + "]]",
		plain: metal + " " + desc.name,
		name:  desc.name,
	}
	w.builtins = append(w.builtins, param)
	w.io[id] = &ioVar{expr: desc.name, loadCast: metal != declared, param: &param}
	return nil
}

// flattenBuiltinBlock turns the used members of an output block such as
// gl_PerVertex into members of the output struct. Position is always
// kept in vertex shaders.
func (w *writer) flattenBuiltinBlock(id, typeID ir.ID) (*flatNode, error) {
	self := w.m.Type(typeID).Self
	st := w.m.Type(self)
	used, all := w.usedMembers(id)
	node := w.newFlat(typeID)
	for i, mt := range st.MemberTypes {
		dec := memberDecoration(w.m, self, i)
		if dec == nil || !dec.Has(spirv.DecorationBuiltIn) {
			node.members = append(node.members, w.droppedLeaf(mt))
			continue
		}
		b := spirv.BuiltIn(dec.Get(spirv.DecorationBuiltIn))
		keep := all || used[i] || (b == spirv.BuiltInPosition && w.model == spirv.ExecutionModelVertex)
		if b == spirv.BuiltInPointSize && !w.opts.EnablePointSize {
			keep = false
		}
		if !keep {
			node.members = append(node.members, w.droppedLeaf(mt))
			continue
		}
		desc, err := w.builtinDesc(b, true)
		if err != nil {
			return nil, err
		}
		name := w.outBlock.unique(desc.name)
		w.outBlock.add(&ioMember{
			name:       name,
			typeID:     mt,
			typ:        w.builtinTypeName(desc, mt),
			attr:       desc.attr,
			builtin:    true,
			origID:     id,
			origMember: i,
		})
		node.members = append(node.members, w.newLeaf(mt, "out."+name))
	}
	return node, nil
}

// flattenStruct turns a user struct interface variable into one member per
// leaf, consuming consecutive locations.
func (w *writer) flattenStruct(block *ioBlock, id, typeID ir.ID, prefix string, loc *uint32, varDec *ir.Decoration, output bool) (*flatNode, error) {
	self := w.m.Type(typeID).Self
	st := w.m.Type(self)
	node := w.newFlat(typeID)
	for i, mt := range st.MemberTypes {
		t := w.m.Type(mt)
		md := memberDecoration(w.m, self, i)
		user := emit.Sanitize(w.m.MemberName(self, i))
		if user == "" {
			user = "m" + strconv.Itoa(i)
		}
		name := prefix + "_" + user
		switch {
		case t.Base == ir.BaseStruct && !t.IsArray():
			child, err := w.flattenStruct(block, id, mt, name, loc, varDec, output)
			if err != nil {
				return nil, err
			}
			node.members = append(node.members, child)
		case t.IsArray() || t.Columns > 1:
			return nil, cross.Unsupported("member %q of stage %s struct %q: arrays and matrices inside interface structs are not supported by the Metal backend",
				user, block.storage, w.m.Name(id))
		default:
			l := *loc
			if md != nil && md.Has(spirv.DecorationLocation) {
				l = md.Get(spirv.DecorationLocation)
			}
			name = block.unique(name)
			mem := &ioMember{
				name:       name,
				typeID:     mt,
				attr:       w.locationAttr(output, l, md, varDec),
				location:   l,
				origID:     id,
				origMember: i,
			}
			if md != nil {
				mem.component = md.Get(spirv.DecorationComponent)
				mem.offset, mem.hasOffset = md.Get(spirv.DecorationOffset), md.Has(spirv.DecorationOffset)
			}
			block.add(mem)
			*loc = l + 1
			node.members = append(node.members, w.newLeaf(mt, block.varName+"."+name))
		}
	}
	return node, nil
}

// usedMembers reports the members of a block variable that the entry
// point selects through access chains. all is set when the variable is
// used as a whole.
func (w *writer) usedMembers(varID ir.ID) (used map[int]bool, all bool) {
	used = make(map[int]bool)
	for _, fn := range w.cc.ReachableFunctions() {
		f := w.m.Function(fn)
		for _, bid := range f.Blocks {
			blk := w.m.Block(bid)
			for i := range blk.Ops {
				in := &blk.Ops[i]
				switch in.Op {
				case spirv.OpAccessChain, spirv.OpInBoundsAccessChain:
					if in.Arg(0) != varID {
						continue
					}
					if k := w.m.Constant(in.Arg(1)); k != nil {
						used[int(k.ScalarU32())] = true
					} else {
						all = true
					}
				default:
					for _, ref := range in.IDOperands() {
						if ref == varID {
							all = true
						}
					}
				}
			}
		}
	}
	return used, all
}

func (w *writer) memberBase(id ir.ID) string {
	name := w.names.Escape(emit.Sanitize(w.m.Name(id)))
	if name == "" || name == "_" {
		name = "_" + strconv.FormatUint(uint64(id), 10)
	}
	return name
}

func (w *writer) varDecoration(id ir.ID) *ir.Decoration {
	if meta, ok := w.m.Meta[id]; ok {
		return &meta.Decoration
	}
	return &ir.Decoration{}
}

// locationAttr spells the attribute of a user interface member. decs are
// consulted in order for Component, Index and interpolation decorations.
func (w *writer) locationAttr(output bool, loc uint32, decs ...*ir.Decoration) string {
	has := func(dec spirv.Decoration) (uint32, bool) {
		for _, d := range decs {
			if d != nil && d.Has(dec) {
				return d.Get(dec), true
			}
		}
		return 0, false
	}
	switch {
	case w.model == spirv.ExecutionModelVertex && !output:
		return "attribute(" + strconv.Itoa(int(loc)) + ")"
	case w.model == spirv.ExecutionModelFragment && output:
		attr := "color(" + strconv.Itoa(int(loc)) + ")"
		if idx, ok := has(spirv.DecorationIndex); ok {
			attr += ", index(" + strconv.Itoa(int(idx)) + ")"
		}
		return attr
	}
	attr := "user(locn" + strconv.Itoa(int(loc))
	if comp, ok := has(spirv.DecorationComponent); ok {
		attr += "_" + strconv.Itoa(int(comp))
	}
	attr += ")"
	if w.model == spirv.ExecutionModelFragment {
		if q := interpolation(has); q != "" {
			attr += ", " + q
		}
	}
	return attr
}

func interpolation(has func(spirv.Decoration) (uint32, bool)) string {
	flag := func(d spirv.Decoration) bool {
		_, ok := has(d)
		return ok
	}
	switch {
	case flag(spirv.DecorationFlat):
		return "flat"
	case flag(spirv.DecorationNoPerspective):
		switch {
		case flag(spirv.DecorationCentroid):
			return "centroid_no_perspective"
		case flag(spirv.DecorationSample):
			return "sample_no_perspective"
		}
		return "center_no_perspective"
	case flag(spirv.DecorationCentroid):
		return "centroid_perspective"
	case flag(spirv.DecorationSample):
		return "sample_perspective"
	}
	return ""
}

// finishBlock orders the members of an interface struct and records it on
// the working module. It returns nil for an empty block.
func (w *writer) finishBlock(b *ioBlock) *ioBlock {
	if len(b.members) == 0 {
		return nil
	}
	key := w.opts.InterfaceSort
	sort.SliceStable(b.members, func(i, j int) bool {
		x, y := b.members[i], b.members[j]
		if x.builtin != y.builtin {
			return !x.builtin
		}
		if x.builtin {
			return x.order < y.order
		}
		switch key {
		case SortByOffset:
			if x.hasOffset != y.hasOffset {
				return x.hasOffset
			}
			if x.offset != y.offset {
				return x.offset < y.offset
			}
			return x.order < y.order
		case SortByName:
			return x.name < y.name
		}
		if x.location != y.location {
			return x.location < y.location
		}
		if x.component != y.component {
			return x.component < y.component
		}
		return x.order < y.order
	})

	members := make([]ir.ID, len(b.members))
	for i, mem := range b.members {
		members[i] = mem.typeID
	}
	b.typeID = w.m.DeclareType(&ir.Type{Base: ir.BaseStruct, VecSize: 1, Columns: 1, MemberTypes: members})
	w.m.SetName(b.typeID, b.typeName)
	w.names.Set(b.typeID, b.typeName)
	for i, mem := range b.members {
		w.m.SetMemberName(b.typeID, i, mem.name)
		d := w.m.MetaFor(b.typeID).Member(i)
		if mem.builtin {
			if meta, ok := w.m.Meta[mem.origID]; ok && meta.Decoration.Has(spirv.DecorationBuiltIn) {
				d.Set(spirv.DecorationBuiltIn, meta.Decoration.Get(spirv.DecorationBuiltIn))
			} else if od := memberDecoration(w.m, w.m.Type(w.cc.VariableType(mem.origID)).Self, mem.origMember); od != nil {
				d.Set(spirv.DecorationBuiltIn, od.Get(spirv.DecorationBuiltIn))
			}
		} else {
			d.Set(spirv.DecorationLocation, mem.location)
		}
		d.SetExtended(ir.ExtInterfaceOrigID, uint32(mem.origID))
		d.SetExtended(ir.ExtInterfaceMemberIndex, uint32(mem.origMember))
		if mem.typ == "" {
			mem.typ = w.g.TypeName(mem.typeID)
		}
	}
	b.varID = w.m.DeclareVariable(w.m.PointerType(b.storage, b.typeID), b.storage)
	w.m.Variable(b.varID).Hidden = true
	w.m.SetName(b.varID, b.varName)
	return b
}
