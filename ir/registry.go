package ir

import (
	"math"
	"strconv"

	"github.com/gogpu/spvcross/spirv"
)

// Builder constructs modules programmatically. Structurally identical
// non-struct types are declared once, the way a SPIR-V producer must emit
// them; struct types are nominal and never merged.
type Builder struct {
	m       *Module
	typeMap map[string]ID
	keyBuf  []byte
	glsl    ID
}

// NewBuilder creates a builder over an empty module.
func NewBuilder() *Builder {
	return &Builder{
		m:       NewModule(),
		typeMap: make(map[string]ID, 16),
		keyBuf:  make([]byte, 0, 64),
	}
}

// Module returns the module under construction.
func (b *Builder) Module() *Module { return b.m }

// getOrCreate returns the ID of an existing structurally identical type or
// registers t under a new ID.
func (b *Builder) getOrCreate(t *Type) ID {
	key := b.normalizeType(t)
	if id, ok := b.typeMap[key]; ok {
		return id
	}
	id := b.m.NewID()
	if t.Self == 0 {
		t.Self = id
	}
	b.m.AddType(id, t)
	b.typeMap[key] = id
	return id
}

// normalizeType creates a unique key for a type based on its structure.
func (b *Builder) normalizeType(t *Type) string {
	k := b.keyBuf[:0]
	k = strconv.AppendUint(k, uint64(t.Base), 10)
	k = append(k, ':')
	k = strconv.AppendUint(k, uint64(t.Width), 10)
	k = append(k, 'x')
	k = strconv.AppendUint(k, uint64(t.VecSize), 10)
	k = append(k, 'x')
	k = strconv.AppendUint(k, uint64(t.Columns), 10)
	for i, dim := range t.Array {
		k = append(k, '[')
		if !t.ArrayLiteral[i] {
			k = append(k, '$')
		}
		k = strconv.AppendUint(k, uint64(dim), 10)
		k = append(k, ']')
	}
	if t.Pointer {
		k = append(k, '*')
		k = strconv.AppendUint(k, uint64(t.Storage), 10)
	}
	k = append(k, '^')
	k = strconv.AppendUint(k, uint64(t.Parent), 10)
	if t.Base == BaseImage {
		img := t.Image
		k = append(k, "img:"...)
		for _, v := range []uint64{uint64(img.SampledType), uint64(img.Dim), b2u(img.Depth), b2u(img.Arrayed), b2u(img.MS), uint64(img.Sampled), uint64(img.Format)} {
			k = strconv.AppendUint(k, v, 10)
			k = append(k, ',')
		}
	}
	if t.Params != nil || t.Return != 0 {
		k = append(k, "fn:"...)
		k = strconv.AppendUint(k, uint64(t.Return), 10)
		for _, p := range t.Params {
			k = append(k, ',')
			k = strconv.AppendUint(k, uint64(p), 10)
		}
	}
	b.keyBuf = k
	return string(k)
}

func b2u(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

// Void returns the void type.
func (b *Builder) Void() ID { return b.getOrCreate(&Type{Base: BaseVoid, VecSize: 1, Columns: 1}) }

// Bool returns the boolean type.
func (b *Builder) Bool() ID {
	return b.getOrCreate(&Type{Base: BaseBool, Width: 32, VecSize: 1, Columns: 1})
}

// Int returns an integer type of the given bit width.
func (b *Builder) Int(width uint32, signed bool) ID {
	base := BaseUInt
	if signed {
		base = BaseInt
	}
	return b.getOrCreate(&Type{Base: base, Width: width, VecSize: 1, Columns: 1})
}

// Float returns a floating-point type of the given bit width.
func (b *Builder) Float(width uint32) ID {
	return b.getOrCreate(&Type{Base: BaseFloat, Width: width, VecSize: 1, Columns: 1})
}

// Vector returns a vector of n components.
func (b *Builder) Vector(component ID, n uint32) ID {
	t := b.derive(component)
	t.VecSize = n
	t.Parent = component
	return b.getOrCreate(t)
}

// Matrix returns a matrix of n columns.
func (b *Builder) Matrix(column ID, n uint32) ID {
	t := b.derive(column)
	t.Columns = n
	t.Parent = column
	return b.getOrCreate(t)
}

// Array returns an array of n elements.
func (b *Builder) Array(elem ID, n uint32) ID { return b.array(elem, n, true) }

// ArraySpec returns an array sized by a specialization constant.
func (b *Builder) ArraySpec(elem, size ID) ID { return b.array(elem, uint32(size), false) }

// RuntimeArray returns a runtime-sized array.
func (b *Builder) RuntimeArray(elem ID) ID { return b.array(elem, 0, true) }

func (b *Builder) array(elem ID, n uint32, literal bool) ID {
	t := b.derive(elem)
	t.Array = append(append([]uint32(nil), t.Array...), n)
	t.ArrayLiteral = append(append([]bool(nil), t.ArrayLiteral...), literal)
	t.Parent = elem
	t.Pointer = false
	self := b.m.Type(elem).Self
	id := b.getOrCreate(t)
	b.m.Type(id).Self = self
	return id
}

// Struct declares a new struct type.
func (b *Builder) Struct(name string, members ...ID) ID {
	id := b.m.NewID()
	b.m.AddType(id, &Type{
		Base:        BaseStruct,
		VecSize:     1,
		Columns:     1,
		Self:        id,
		MemberTypes: append([]ID(nil), members...),
	})
	if name != "" {
		b.m.SetName(id, name)
	}
	return id
}

// Pointer returns a pointer to pointee in the given storage class.
func (b *Builder) Pointer(storage spirv.StorageClass, pointee ID) ID {
	t := b.derive(pointee)
	t.Pointer = true
	t.Storage = storage
	t.Parent = pointee
	self := b.m.Type(pointee).Self
	id := b.getOrCreate(t)
	b.m.Type(id).Self = self
	return id
}

// Image returns an image type.
func (b *Builder) Image(sampled ID, dim spirv.Dim, depth, arrayed, ms bool, mode uint32, format spirv.ImageFormat) ID {
	return b.getOrCreate(&Type{
		Base: BaseImage, VecSize: 1, Columns: 1,
		Image: ImageType{SampledType: sampled, Dim: dim, Depth: depth, Arrayed: arrayed, MS: ms, Sampled: mode, Format: format},
	})
}

// SampledImage returns the combined image-sampler type of img.
func (b *Builder) SampledImage(img ID) ID {
	t := b.derive(img)
	t.Base = BaseSampledImage
	t.Parent = img
	return b.getOrCreate(t)
}

// Sampler returns the sampler type.
func (b *Builder) Sampler() ID { return b.getOrCreate(&Type{Base: BaseSampler, VecSize: 1, Columns: 1}) }

// FunctionType returns a function signature type.
func (b *Builder) FunctionType(ret ID, params ...ID) ID {
	if params == nil {
		params = []ID{}
	}
	return b.getOrCreate(&Type{Base: BaseUnknown, Return: ret, Params: append([]ID(nil), params...)})
}

func (b *Builder) derive(from ID) *Type {
	src := b.m.Type(from)
	t := *src
	t.Array = append([]uint32(nil), src.Array...)
	t.ArrayLiteral = append([]bool(nil), src.ArrayLiteral...)
	t.MemberTypes = nil
	t.Self = 0
	return &t
}

// ConstantU32 declares a 32-bit unsigned constant.
func (b *Builder) ConstantU32(v uint32) ID {
	return b.scalarConstant(b.Int(32, false), uint64(v), false)
}

// ConstantI32 declares a 32-bit signed constant.
func (b *Builder) ConstantI32(v int32) ID {
	return b.scalarConstant(b.Int(32, true), uint64(uint32(v)), false) //nolint:gosec // G115: bit reinterpretation
}

// ConstantF32 declares a 32-bit float constant.
func (b *Builder) ConstantF32(v float32) ID {
	return b.scalarConstant(b.Float(32), uint64(math.Float32bits(v)), false)
}

// ConstantBool declares a boolean constant.
func (b *Builder) ConstantBool(v bool) ID { return b.scalarConstant(b.Bool(), b2u(v), false) }

// SpecConstant declares a scalar specialization constant.
func (b *Builder) SpecConstant(typ ID, value uint64, specID uint32) ID {
	id := b.scalarConstant(typ, value, true)
	b.m.Decorate(id, spirv.DecorationSpecID, specID)
	return id
}

func (b *Builder) scalarConstant(typ ID, bits uint64, spec bool) ID {
	id := b.m.NewID()
	b.m.AddConstant(id, &Constant{Type: typ, Values: [][]uint64{{bits}}, Specialization: spec})
	return id
}

// ConstantComposite declares a composite constant.
func (b *Builder) ConstantComposite(typ ID, parts ...ID) ID {
	id := b.m.NewID()
	b.m.AddConstant(id, &Constant{Type: typ, Subconstants: append([]ID(nil), parts...)})
	return id
}

// ConstantNull declares a zero-initialized constant.
func (b *Builder) ConstantNull(typ ID) ID {
	id := b.m.NewID()
	b.m.AddConstant(id, &Constant{Type: typ, Values: [][]uint64{{0}}, Null: true})
	return id
}

// Undef declares an undefined value.
func (b *Builder) Undef(typ ID) ID {
	id := b.m.NewID()
	b.m.AddUndef(id, typ)
	return id
}

// Variable declares a module-scope variable of the given pointee type.
func (b *Builder) Variable(storage spirv.StorageClass, pointee ID, name string) ID {
	ptr := b.Pointer(storage, pointee)
	id := b.m.NewID()
	b.m.AddVariable(id, &Variable{Type: ptr, Storage: storage})
	if name != "" {
		b.m.SetName(id, name)
	}
	return id
}

// Decorate records a decoration. Flag decorations take no value.
func (b *Builder) Decorate(id ID, dec spirv.Decoration, value ...uint32) {
	b.m.Decorate(id, dec, first(value))
}

// MemberDecorate records a member decoration.
func (b *Builder) MemberDecorate(id ID, member int, dec spirv.Decoration, value ...uint32) {
	b.m.MemberDecorate(id, member, dec, first(value))
}

func first(v []uint32) uint32 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

// Name sets the debug name of id.
func (b *Builder) Name(id ID, name string) { b.m.SetName(id, name) }

// MemberName sets the debug name of a struct member.
func (b *Builder) MemberName(id ID, member int, name string) { b.m.SetMemberName(id, member, name) }

// GLSL450 returns the GLSL.std.450 import, declaring it on first use.
func (b *Builder) GLSL450() ID {
	if b.glsl == 0 {
		b.glsl = b.m.NewID()
		b.m.AddExtInstImport(b.glsl, spirv.ExtInstSetGLSL450)
	}
	return b.glsl
}

// EntryPoint declares an entry point.
func (b *Builder) EntryPoint(model spirv.ExecutionModel, fn ID, name string, iface ...ID) *EntryPoint {
	ep := &EntryPoint{
		Function:  fn,
		Name:      name,
		OrigName:  name,
		Model:     model,
		Interface: append([]ID(nil), iface...),
	}
	b.m.EntryPoints = append(b.m.EntryPoints, ep)
	return ep
}

// LocalSize sets the LocalSize execution mode of a compute entry point.
func (ep *EntryPoint) LocalSize(x, y, z uint32) {
	ep.Modes.Set(uint32(spirv.ExecutionModeLocalSize))
	ep.WorkgroupSize = [3]uint32{x, y, z}
}

// Function starts a function definition with a fresh entry block.
func (b *Builder) Function(name string, ret ID, params ...ID) *FunctionBuilder {
	id := b.m.NewID()
	fn := &Function{ReturnType: ret, FunctionType: b.FunctionType(ret, params...)}
	b.m.AddFunction(id, fn)
	if name != "" {
		b.m.SetName(id, name)
	}
	for _, p := range params {
		pid := b.m.NewID()
		b.m.AddValue(pid, p)
		fn.Parameters = append(fn.Parameters, Parameter{ID: pid, Type: p})
	}
	fb := &FunctionBuilder{b: b, fn: fn}
	fb.cur = fb.NewBlock()
	return fb
}

// FunctionBuilder appends blocks and instructions to one function.
type FunctionBuilder struct {
	b   *Builder
	fn  *Function
	cur ID
}

// ID returns the function ID.
func (f *FunctionBuilder) ID() ID { return f.fn.Self }

// Param returns the ID of parameter i.
func (f *FunctionBuilder) Param(i int) ID { return f.fn.Parameters[i].ID }

// NewBlock creates a block without making it current.
func (f *FunctionBuilder) NewBlock() ID {
	id := f.b.m.NewID()
	f.b.m.AddBlock(id, &Block{})
	f.fn.Blocks = append(f.fn.Blocks, id)
	return id
}

// SetBlock makes id the block receiving instructions.
func (f *FunctionBuilder) SetBlock(id ID) { f.cur = id }

// Current returns the block receiving instructions.
func (f *FunctionBuilder) Current() ID { return f.cur }

func (f *FunctionBuilder) block() *Block { return f.b.m.Block(f.cur) }

// Local declares a function-scope variable.
func (f *FunctionBuilder) Local(pointee ID, name string) ID {
	ptr := f.b.Pointer(spirv.StorageClassFunction, pointee)
	id := f.b.m.NewID()
	f.b.m.AddVariable(id, &Variable{Type: ptr, Storage: spirv.StorageClassFunction})
	f.fn.LocalVariables = append(f.fn.LocalVariables, id)
	if name != "" {
		f.b.m.SetName(id, name)
	}
	return id
}

// Op appends an instruction. A non-zero resultType allocates a result ID,
// which is returned.
func (f *FunctionBuilder) Op(op spirv.OpCode, resultType ID, args ...uint32) ID {
	var result ID
	if resultType != 0 {
		result = f.b.m.NewID()
		f.b.m.AddValue(result, resultType)
	}
	blk := f.block()
	blk.Ops = append(blk.Ops, Instruction{Op: op, ResultType: resultType, Result: result, Args: append([]uint32(nil), args...)})
	return result
}

// Load reads through a pointer.
func (f *FunctionBuilder) Load(ptr ID) ID {
	return f.Op(spirv.OpLoad, f.b.m.PointeeType(ptr), uint32(ptr))
}

// Store writes through a pointer.
func (f *FunctionBuilder) Store(ptr, value ID) { f.Op(spirv.OpStore, 0, uint32(ptr), uint32(value)) }

// AccessChain indexes into a composite through a pointer. Struct indices
// must be integer constants.
func (f *FunctionBuilder) AccessChain(base ID, indices ...ID) ID {
	m := f.b.m
	ptrType := m.Type(m.TypeOf(base))
	cur := ptrType.Parent
	for _, idx := range indices {
		cur = m.ElementType(cur, idx)
	}
	args := []uint32{uint32(base)}
	for _, idx := range indices {
		args = append(args, uint32(idx))
	}
	return f.Op(spirv.OpAccessChain, f.b.Pointer(ptrType.Storage, cur), args...)
}

// Call calls fn with args.
func (f *FunctionBuilder) Call(fn ID, args ...ID) ID {
	callee := f.b.m.Function(fn)
	words := []uint32{uint32(fn)}
	for _, a := range args {
		words = append(words, uint32(a))
	}
	return f.Op(spirv.OpFunctionCall, callee.ReturnType, words...)
}

// ExtInst calls a GLSL.std.450 instruction.
func (f *FunctionBuilder) ExtInst(resultType ID, inst spirv.GLSLstd450, args ...ID) ID {
	words := []uint32{uint32(f.b.GLSL450()), uint32(inst)}
	for _, a := range args {
		words = append(words, uint32(a))
	}
	return f.Op(spirv.OpExtInst, resultType, words...)
}

// Phi adds a phi node to the current block.
func (f *FunctionBuilder) Phi(typ ID, incoming ...PhiSource) ID {
	id := f.b.m.NewID()
	f.b.m.AddValue(id, typ)
	blk := f.block()
	blk.Phis = append(blk.Phis, Phi{Result: id, Type: typ, Incoming: append([]PhiSource(nil), incoming...)})
	return id
}

// SelectionMerge marks the current block as a selection header.
func (f *FunctionBuilder) SelectionMerge(merge ID) {
	blk := f.block()
	blk.Merge = MergeSelection
	blk.MergeBlock = merge
}

// LoopMerge marks the current block as a loop header.
func (f *FunctionBuilder) LoopMerge(merge, cont ID) {
	blk := f.block()
	blk.Merge = MergeLoop
	blk.MergeBlock = merge
	blk.ContinueBlock = cont
}

// Branch ends the current block with an unconditional branch.
func (f *FunctionBuilder) Branch(target ID) {
	blk := f.block()
	blk.Terminator = TermDirect
	blk.Next = target
}

// BranchConditional ends the current block with a two-way branch.
func (f *FunctionBuilder) BranchConditional(cond, t, e ID) {
	blk := f.block()
	blk.Terminator = TermSelect
	blk.Condition = cond
	blk.TrueBlock = t
	blk.FalseBlock = e
}

// Switch ends the current block with a multi-way branch.
func (f *FunctionBuilder) Switch(selector, def ID, cases ...Case) {
	blk := f.block()
	blk.Terminator = TermMultiSelect
	blk.Condition = selector
	blk.Default = def
	blk.Cases = append([]Case(nil), cases...)
}

// Return ends the current block with a void return.
func (f *FunctionBuilder) Return() { f.block().Terminator = TermReturn }

// ReturnValue ends the current block with a value return.
func (f *FunctionBuilder) ReturnValue(v ID) {
	blk := f.block()
	blk.Terminator = TermReturn
	blk.ReturnValue = v
}

// Kill ends the current block with a fragment discard.
func (f *FunctionBuilder) Kill() { f.block().Terminator = TermKill }
