package ir

import "github.com/gogpu/spvcross/spirv"

// ID addresses every record of a module. Zero is never a valid ID.
type ID uint32

// Kind tells which arena an ID belongs to.
type Kind uint8

// ID kinds.
const (
	KindUnused Kind = iota
	KindType
	KindVariable
	KindConstant
	KindFunction
	KindBlock
	KindUndef
	KindValue
	KindExtInstImport
)

var kindNames = [...]string{"unused", "type", "variable", "constant", "function", "block", "undef", "value", "ext-inst-import"}

// String returns a short name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Module is a parsed SPIR-V module.
//
// Records live in per-category arenas keyed by ID; kinds holds the arena of
// every allocated ID so lookups never scan. Declarations preserves the
// module-level declaration order of types, constants, undefs and global
// variables, and FunctionOrder the order of function definitions; all
// iteration that affects generated output follows these two slices.
type Module struct {
	// Bound is one past the largest allocated ID.
	Bound ID

	kinds []Kind

	Types          map[ID]*Type
	Variables      map[ID]*Variable
	Constants      map[ID]*Constant
	Functions      map[ID]*Function
	Blocks         map[ID]*Block
	Undefs         map[ID]ID
	Values         map[ID]ID
	ExtInstImports map[ID]string
	Meta           map[ID]*Meta

	EntryPoints   []*EntryPoint
	Declarations  []ID
	FunctionOrder []ID
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{
		Bound:          1,
		kinds:          make([]Kind, 1, 64),
		Types:          make(map[ID]*Type),
		Variables:      make(map[ID]*Variable),
		Constants:      make(map[ID]*Constant),
		Functions:      make(map[ID]*Function),
		Blocks:         make(map[ID]*Block),
		Undefs:         make(map[ID]ID),
		Values:         make(map[ID]ID),
		ExtInstImports: make(map[ID]string),
		Meta:           make(map[ID]*Meta),
	}
}

// NewID allocates a fresh ID.
func (m *Module) NewID() ID {
	id := m.Bound
	m.Bound++
	for len(m.kinds) < int(m.Bound) {
		m.kinds = append(m.kinds, KindUnused)
	}
	return id
}

// Kind returns the arena of id.
func (m *Module) Kind(id ID) Kind {
	if int(id) >= len(m.kinds) {
		return KindUnused
	}
	return m.kinds[id]
}

func (m *Module) setKind(id ID, k Kind) {
	for int(id) >= len(m.kinds) {
		m.kinds = append(m.kinds, KindUnused)
	}
	if id >= m.Bound {
		m.Bound = id + 1
	}
	m.kinds[id] = k
}

// AddType registers a type under id.
func (m *Module) AddType(id ID, t *Type) {
	m.setKind(id, KindType)
	m.Types[id] = t
	m.Declarations = append(m.Declarations, id)
}

// DeclareType registers t under a fresh ID without deduplication.
func (m *Module) DeclareType(t *Type) ID {
	id := m.NewID()
	if t.Self == 0 {
		t.Self = id
	}
	m.AddType(id, t)
	return id
}

// DeclareVariable registers a module-scope variable under a fresh ID.
func (m *Module) DeclareVariable(ptrType ID, storage spirv.StorageClass) ID {
	id := m.NewID()
	m.AddVariable(id, &Variable{Type: ptrType, Storage: storage})
	return id
}

// PointerType returns a pointer type to pointee in storage, reusing an
// existing declaration when there is one.
func (m *Module) PointerType(storage spirv.StorageClass, pointee ID) ID {
	for _, id := range m.Declarations {
		if t := m.Types[id]; t != nil && t.Pointer && t.Storage == storage && t.Parent == pointee {
			return id
		}
	}
	src := m.Type(pointee)
	t := *src
	t.Array = append([]uint32(nil), src.Array...)
	t.ArrayLiteral = append([]bool(nil), src.ArrayLiteral...)
	t.MemberTypes = nil
	t.Pointer = true
	t.Storage = storage
	t.Parent = pointee
	return m.DeclareType(&t)
}

// AddConstant registers a constant under id.
func (m *Module) AddConstant(id ID, c *Constant) {
	c.Self = id
	m.setKind(id, KindConstant)
	m.Constants[id] = c
	m.Declarations = append(m.Declarations, id)
}

// AddVariable registers a variable under id. Function-local variables are
// not part of the module declaration order.
func (m *Module) AddVariable(id ID, v *Variable) {
	v.Self = id
	m.setKind(id, KindVariable)
	m.Variables[id] = v
	if v.Storage != spirv.StorageClassFunction {
		m.Declarations = append(m.Declarations, id)
	}
}

// AddUndef registers an undefined value of the given type.
func (m *Module) AddUndef(id, typ ID) {
	m.setKind(id, KindUndef)
	m.Undefs[id] = typ
	m.Declarations = append(m.Declarations, id)
}

// AddFunction registers a function under id.
func (m *Module) AddFunction(id ID, f *Function) {
	f.Self = id
	m.setKind(id, KindFunction)
	m.Functions[id] = f
	m.FunctionOrder = append(m.FunctionOrder, id)
}

// AddBlock registers a basic block under id.
func (m *Module) AddBlock(id ID, b *Block) {
	b.Self = id
	m.setKind(id, KindBlock)
	m.Blocks[id] = b
}

// AddValue registers an instruction result or function parameter.
func (m *Module) AddValue(id, typ ID) {
	m.setKind(id, KindValue)
	m.Values[id] = typ
}

// AddExtInstImport registers an extended instruction set import.
func (m *Module) AddExtInstImport(id ID, name string) {
	m.setKind(id, KindExtInstImport)
	m.ExtInstImports[id] = name
}

// Type returns the type record of id, or nil.
func (m *Module) Type(id ID) *Type { return m.Types[id] }

// Variable returns the variable record of id, or nil.
func (m *Module) Variable(id ID) *Variable { return m.Variables[id] }

// Constant returns the constant record of id, or nil.
func (m *Module) Constant(id ID) *Constant { return m.Constants[id] }

// Function returns the function record of id, or nil.
func (m *Module) Function(id ID) *Function { return m.Functions[id] }

// Block returns the block record of id, or nil.
func (m *Module) Block(id ID) *Block { return m.Blocks[id] }

// EntryPointFor returns the entry point whose function is fn and whose
// model matches, or nil.
func (m *Module) EntryPointFor(fn ID, model spirv.ExecutionModel) *EntryPoint {
	for _, ep := range m.EntryPoints {
		if ep.Function == fn && ep.Model == model {
			return ep
		}
	}
	return nil
}

// BaseType is the fundamental kind of a type.
type BaseType uint8

// Base types.
const (
	BaseUnknown BaseType = iota
	BaseVoid
	BaseBool
	BaseInt
	BaseUInt
	BaseFloat
	BaseStruct
	BaseImage
	BaseSampledImage
	BaseSampler
	BaseAccelerationStructure
)

// ImageType describes an OpTypeImage.
type ImageType struct {
	SampledType ID
	Dim         spirv.Dim
	Depth       bool
	Arrayed     bool
	MS          bool
	// Sampled is 1 for sampled images and 2 for storage images.
	Sampled uint32
	Format  spirv.ImageFormat
}

// Type is a SPIR-V type.
//
// Array and pointer types copy the fields of the type they derive from and
// append their own property, so the base description is available without
// chasing Parent. Array holds dimensions with the outermost dimension last;
// when ArrayLiteral[i] is false, Array[i] is the ID of a specialization
// constant. A literal zero marks a runtime-sized dimension.
type Type struct {
	Base    BaseType
	Width   uint32
	VecSize uint32
	Columns uint32

	Array        []uint32
	ArrayLiteral []bool

	Pointer bool
	Storage spirv.StorageClass

	// Parent is the type this one was derived from: the element of an
	// array, the pointee of a pointer, the column of a matrix or the
	// component of a vector.
	Parent ID
	// Self is the innermost type that is neither an array nor a pointer.
	// Member lists and member decorations live on Self.
	Self ID

	MemberTypes []ID
	Image       ImageType
	// Params and Return describe OpTypeFunction.
	Params []ID
	Return ID
}

// IsScalar reports a single-component numeric or boolean type.
func (t *Type) IsScalar() bool {
	return t.isNumericOrBool() && t.VecSize == 1 && t.Columns == 1 && len(t.Array) == 0
}

// IsVector reports a vector type.
func (t *Type) IsVector() bool {
	return t.isNumericOrBool() && t.VecSize > 1 && t.Columns == 1 && len(t.Array) == 0
}

// IsMatrix reports a matrix type.
func (t *Type) IsMatrix() bool {
	return t.isNumericOrBool() && t.Columns > 1 && len(t.Array) == 0
}

// IsArray reports an array type.
func (t *Type) IsArray() bool { return len(t.Array) > 0 }

// IsRuntimeArray reports whether the outermost dimension is runtime sized.
func (t *Type) IsRuntimeArray() bool {
	n := len(t.Array)
	return n > 0 && t.ArrayLiteral[n-1] && t.Array[n-1] == 0
}

// IsStruct reports a struct or an array/pointer derived from one.
func (t *Type) IsStruct() bool { return t.Base == BaseStruct }

// IsOpaque reports images, samplers and acceleration structures.
func (t *Type) IsOpaque() bool {
	switch t.Base {
	case BaseImage, BaseSampledImage, BaseSampler, BaseAccelerationStructure:
		return true
	}
	return false
}

// IsInteger reports signed or unsigned integer component types.
func (t *Type) IsInteger() bool { return t.Base == BaseInt || t.Base == BaseUInt }

// IsFloat reports floating-point component types.
func (t *Type) IsFloat() bool { return t.Base == BaseFloat }

// ScalarSize returns the size of one component in bytes.
func (t *Type) ScalarSize() uint32 {
	if t.Base == BaseBool {
		return 4
	}
	return t.Width / 8
}

func (t *Type) isNumericOrBool() bool {
	switch t.Base {
	case BaseBool, BaseInt, BaseUInt, BaseFloat:
		return true
	}
	return false
}

// Variable is an OpVariable.
type Variable struct {
	Self ID
	// Type is the pointer type of the variable.
	Type        ID
	Storage     spirv.StorageClass
	Initializer ID
	// Hidden marks compiler-generated variables that must not be emitted
	// as standalone declarations.
	Hidden bool
}

// Constant is a constant or specialization constant.
//
// Scalars, vectors and matrices carry raw component bits in Values indexed
// by [column][row]; structs and arrays list their parts in Subconstants.
type Constant struct {
	Self           ID
	Type           ID
	Values         [][]uint64
	Subconstants   []ID
	Specialization bool
	Null           bool
}

// Scalar returns the raw bits of the first component.
func (c *Constant) Scalar() uint64 {
	if len(c.Values) == 0 || len(c.Values[0]) == 0 {
		return 0
	}
	return c.Values[0][0]
}

// ScalarU32 returns the first component as a 32-bit unsigned integer.
func (c *Constant) ScalarU32() uint32 {
	return uint32(c.Scalar()) //nolint:gosec // G115: constants store 32-bit payloads in the low word
}

// ScalarI32 returns the first component as a 32-bit signed integer.
func (c *Constant) ScalarI32() int32 {
	return int32(c.ScalarU32()) //nolint:gosec // G115: bit reinterpretation
}

// Parameter is a function parameter.
type Parameter struct {
	ID   ID
	Type ID
}

// Function is a function definition. Blocks lists the entry block first.
type Function struct {
	Self           ID
	ReturnType     ID
	FunctionType   ID
	Parameters     []Parameter
	LocalVariables []ID
	Blocks         []ID
}

// Entry returns the entry block of the function.
func (f *Function) Entry() ID {
	if len(f.Blocks) == 0 {
		return 0
	}
	return f.Blocks[0]
}

// Instruction is a non-terminating instruction inside a block. Args holds
// the raw operand words following the result ID.
type Instruction struct {
	Op         spirv.OpCode
	ResultType ID
	Result     ID
	Args       []uint32
}

// Arg returns argument i as an ID.
func (in *Instruction) Arg(i int) ID {
	if i >= len(in.Args) {
		return 0
	}
	return ID(in.Args[i])
}

// Terminator is the kind of control transfer ending a block.
type Terminator uint8

// Block terminators.
const (
	TermUnknown Terminator = iota
	TermDirect
	TermSelect
	TermMultiSelect
	TermReturn
	TermKill
	TermUnreachable
)

// MergeKind is the structured-control-flow header role of a block.
type MergeKind uint8

// Merge kinds.
const (
	MergeNone MergeKind = iota
	MergeSelection
	MergeLoop
)

// Case is one OpSwitch target.
type Case struct {
	Value uint64
	Block ID
}

// PhiSource is one incoming edge of a phi.
type PhiSource struct {
	Value  ID
	Parent ID
}

// Phi is an OpPhi at the top of a block.
type Phi struct {
	Result   ID
	Type     ID
	Incoming []PhiSource
}

// Block is a basic block.
type Block struct {
	Self ID
	Ops  []Instruction
	Phis []Phi

	Terminator  Terminator
	Next        ID
	Condition   ID
	TrueBlock   ID
	FalseBlock  ID
	Cases       []Case
	Default     ID
	ReturnValue ID

	Merge         MergeKind
	MergeBlock    ID
	ContinueBlock ID
}

// Successors returns the branch targets of the block in a stable order.
func (b *Block) Successors() []ID {
	switch b.Terminator {
	case TermDirect:
		return []ID{b.Next}
	case TermSelect:
		return []ID{b.TrueBlock, b.FalseBlock}
	case TermMultiSelect:
		out := make([]ID, 0, len(b.Cases)+1)
		for _, c := range b.Cases {
			out = append(out, c.Block)
		}
		return append(out, b.Default)
	}
	return nil
}

// EntryPoint is an OpEntryPoint with its execution modes.
type EntryPoint struct {
	Function ID
	// Name is the current name; OrigName is the name in the module and
	// stays fixed across renames.
	Name      string
	OrigName  string
	Model     spirv.ExecutionModel
	Interface []ID
	Modes     Bitset

	WorkgroupSize [3]uint32
	// WorkgroupSizeIDs are set for LocalSizeId and hold constant IDs.
	WorkgroupSizeIDs [3]ID
}
