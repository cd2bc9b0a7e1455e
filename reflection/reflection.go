package reflection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// Options configures the reflection document.
type Options struct {
	// ActiveOnly limits resources to the variables the selected entry
	// point uses.
	ActiveOnly bool

	// Indent is the indentation of nested values. An empty string writes
	// the document on one line.
	Indent string
}

// DefaultOptions returns options producing an indented document of every
// resource.
func DefaultOptions() Options {
	return Options{Indent: "\t"}
}

// Compiler describes a module as JSON.
type Compiler struct {
	*cross.Compiler

	opts Options
}

// New creates a reflection compiler over m.
func New(m *ir.Module, opts Options, copts ...cross.Option) (*Compiler, error) {
	base, err := cross.New(m, copts...)
	if err != nil {
		return nil, err
	}
	return &Compiler{Compiler: base, opts: opts}, nil
}

// Options returns the current options.
func (c *Compiler) Options() Options { return c.opts }

// SetOptions replaces the options used by the next compilation.
func (c *Compiler) SetOptions(opts Options) { c.opts = opts }

// Compile renders the reflection document.
func (c *Compiler) Compile() (string, error) {
	r := &reflector{c: c.Compiler, m: c.Module(), types: make(map[string]*typeInfo)}
	doc, err := r.document(c.opts.ActiveOnly)
	if err != nil {
		return "", fmt.Errorf("reflection: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if c.opts.Indent != "" {
		enc.SetIndent("", c.opts.Indent)
	}
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("reflection: %w", cross.Errorf(cross.ErrInternal, "encoding: %v", err))
	}
	c.Logger().Debug("reflected module",
		zap.Int("entry_points", len(doc.EntryPoints)),
		zap.Int("types", len(doc.Types)),
		zap.Bool("active_only", c.opts.ActiveOnly))
	return buf.String(), nil
}

// Compile describes module as JSON.
func Compile(module *ir.Module, options Options) (string, error) {
	c, err := New(module, options)
	if err != nil {
		return "", fmt.Errorf("reflection: %w", err)
	}
	return c.Compile()
}

type document struct {
	EntryPoints            []entryPoint          `json:"entryPoints,omitempty"`
	Types                  map[string]*typeInfo  `json:"types,omitempty"`
	Inputs                 []resource            `json:"inputs,omitempty"`
	Outputs                []resource            `json:"outputs,omitempty"`
	Textures               []resource            `json:"textures,omitempty"`
	SeparateImages         []resource            `json:"separate_images,omitempty"`
	SeparateSamplers       []resource            `json:"separate_samplers,omitempty"`
	Images                 []resource            `json:"images,omitempty"`
	SSBOs                  []resource            `json:"ssbos,omitempty"`
	UBOs                   []resource            `json:"ubos,omitempty"`
	PushConstants          []resource            `json:"push_constants,omitempty"`
	SubpassInputs          []resource            `json:"subpass_inputs,omitempty"`
	AtomicCounters         []resource            `json:"atomic_counters,omitempty"`
	AccelerationStructures []resource            `json:"acceleration_structures,omitempty"`
	SpecConstants          []specializationValue `json:"specialization_constants,omitempty"`
}

type entryPoint struct {
	Name string `json:"name"`
	Mode string `json:"mode"`
	// WorkgroupSize holds the SpecId instead of the size for dimensions
	// marked in WorkgroupSizeIsSpecConstantID.
	WorkgroupSize                 []uint32 `json:"workgroup_size,omitempty"`
	WorkgroupSizeIsSpecConstantID []bool   `json:"workgroup_size_is_spec_constant_id,omitempty"`
}

type typeInfo struct {
	Name    string   `json:"name"`
	Members []member `json:"members"`
}

type member struct {
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	Array              []uint32 `json:"array,omitempty"`
	ArraySizeIsLiteral []bool   `json:"array_size_is_literal,omitempty"`
	Offset             *uint32  `json:"offset,omitempty"`
	ArrayStride        *uint32  `json:"array_stride,omitempty"`
	MatrixStride       *uint32  `json:"matrix_stride,omitempty"`
	RowMajor           bool     `json:"row_major,omitempty"`
}

type resource struct {
	Type                 string   `json:"type"`
	Name                 string   `json:"name"`
	Array                []uint32 `json:"array,omitempty"`
	ArraySizeIsLiteral   []bool   `json:"array_size_is_literal,omitempty"`
	Location             *uint32  `json:"location,omitempty"`
	Component            *uint32  `json:"component,omitempty"`
	Index                *uint32  `json:"index,omitempty"`
	ReadOnly             bool     `json:"readonly,omitempty"`
	WriteOnly            bool     `json:"writeonly,omitempty"`
	BlockSize            *uint32  `json:"block_size,omitempty"`
	Set                  *uint32  `json:"set,omitempty"`
	Binding              *uint32  `json:"binding,omitempty"`
	InputAttachmentIndex *uint32  `json:"input_attachment_index,omitempty"`
	Format               string   `json:"format,omitempty"`
}

type specializationValue struct {
	Name         string `json:"name"`
	ID           uint32 `json:"id"`
	Type         string `json:"type"`
	VariableID   ir.ID  `json:"variable_id"`
	DefaultValue any    `json:"default_value"`
}

// reflector builds one document.
type reflector struct {
	c     *cross.Compiler
	m     *ir.Module
	types map[string]*typeInfo
}

func (r *reflector) document(activeOnly bool) (*document, error) {
	var res cross.ShaderResources
	if activeOnly {
		if r.c.EntryPoint() == nil {
			return nil, cross.Errorf(cross.ErrInvalidArgument, "active resources need an entry point")
		}
		res = r.c.ShaderResourcesForActiveVariables(r.c.ActiveInterfaceVariables())
	} else {
		res = r.c.ShaderResources()
	}

	doc := &document{EntryPoints: r.entryPoints(), Types: r.types}
	groups := []struct {
		list []cross.Resource
		dst  *[]resource
		kind resourceKind
	}{
		{res.StageInputs, &doc.Inputs, kindStage},
		{res.StageOutputs, &doc.Outputs, kindStage},
		{res.SampledImages, &doc.Textures, kindOpaque},
		{res.SeparateImages, &doc.SeparateImages, kindOpaque},
		{res.SeparateSamplers, &doc.SeparateSamplers, kindOpaque},
		{res.StorageImages, &doc.Images, kindStorageImage},
		{res.StorageBuffers, &doc.SSBOs, kindStorageBuffer},
		{res.UniformBuffers, &doc.UBOs, kindBuffer},
		{res.PushConstantBuffers, &doc.PushConstants, kindPushConstant},
		{res.SubpassInputs, &doc.SubpassInputs, kindOpaque},
		{res.AtomicCounters, &doc.AtomicCounters, kindOpaque},
		{res.AccelerationStructures, &doc.AccelerationStructures, kindOpaque},
	}
	for _, g := range groups {
		for _, cr := range g.list {
			out, err := r.resource(cr, g.kind)
			if err != nil {
				return nil, err
			}
			*g.dst = append(*g.dst, out)
		}
	}
	for _, sc := range r.c.SpecializationConstants() {
		doc.SpecConstants = append(doc.SpecConstants, r.specializationValue(sc))
	}
	return doc, nil
}

func (r *reflector) entryPoints() []entryPoint {
	x, y, z := r.c.WorkgroupSizeSpecializationConstants()
	specs := [3]cross.SpecializationConstant{x, y, z}
	var out []entryPoint
	for _, ep := range r.m.EntryPoints {
		e := entryPoint{Name: ep.Name, Mode: modeNames[ep.Model]}
		if e.Mode == "" {
			e.Mode = ep.Model.String()
		}
		if ep.Model == spirv.ExecutionModelGLCompute {
			size := ep.WorkgroupSize
			if ep == r.c.EntryPoint() {
				size = r.c.WorkgroupSize()
			}
			e.WorkgroupSize = make([]uint32, 3)
			e.WorkgroupSizeIsSpecConstantID = make([]bool, 3)
			for i := 0; i < 3; i++ {
				if specs[i].ID != 0 {
					e.WorkgroupSize[i] = specs[i].SpecID
					e.WorkgroupSizeIsSpecConstantID[i] = true
					continue
				}
				e.WorkgroupSize[i] = size[i]
			}
		}
		out = append(out, e)
	}
	return out
}

type resourceKind uint8

const (
	kindStage resourceKind = iota
	kindOpaque
	kindStorageImage
	kindStorageBuffer
	kindBuffer
	kindPushConstant
)

// decoration returns the value of a decoration, or nil when absent.
func (r *reflector) decoration(id ir.ID, dec spirv.Decoration) *uint32 {
	if !r.m.HasDecoration(id, dec) {
		return nil
	}
	v := r.m.DecorationValue(id, dec)
	return &v
}

func (r *reflector) resource(cr cross.Resource, kind resourceKind) (resource, error) {
	t := r.m.Type(cr.TypeID)
	out := resource{
		Type:               r.typeName(cr.BaseTypeID),
		Name:               cr.Name,
		Array:              append([]uint32(nil), t.Array...),
		ArraySizeIsLiteral: append([]bool(nil), t.ArrayLiteral...),
	}
	if bt := r.m.Type(cr.BaseTypeID); bt != nil && bt.Base == ir.BaseStruct {
		if err := r.addStruct(bt.Self); err != nil {
			return resource{}, err
		}
	}

	switch kind {
	case kindStage:
		out.Location = r.decoration(cr.ID, spirv.DecorationLocation)
		out.Component = r.decoration(cr.ID, spirv.DecorationComponent)
		out.Index = r.decoration(cr.ID, spirv.DecorationIndex)
		return out, nil
	case kindStorageImage:
		out.ReadOnly = r.m.HasDecoration(cr.ID, spirv.DecorationNonWritable)
		out.WriteOnly = r.m.HasDecoration(cr.ID, spirv.DecorationNonReadable)
		out.Format = formatNames[t.Image.Format]
	case kindStorageBuffer:
		st := r.m.Type(cr.BaseTypeID).Self
		out.ReadOnly = r.allMembers(cr.ID, st, spirv.DecorationNonWritable)
		out.WriteOnly = r.allMembers(cr.ID, st, spirv.DecorationNonReadable)
		fallthrough
	case kindBuffer, kindPushConstant:
		size, err := r.c.DeclaredStructSize(cr.BaseTypeID)
		if err != nil {
			return resource{}, err
		}
		out.BlockSize = &size
		if kind == kindPushConstant {
			return out, nil
		}
	}
	out.Set = r.decoration(cr.ID, spirv.DecorationDescriptorSet)
	out.Binding = r.decoration(cr.ID, spirv.DecorationBinding)
	out.InputAttachmentIndex = r.decoration(cr.ID, spirv.DecorationInputAttachmentIndex)
	if out.Binding != nil && out.Set == nil {
		var zero uint32
		out.Set = &zero
	}
	return out, nil
}

// allMembers reports a decoration on the variable or on every member of
// its block.
func (r *reflector) allMembers(id, structID ir.ID, dec spirv.Decoration) bool {
	if r.m.HasDecoration(id, dec) {
		return true
	}
	members := r.m.Type(structID).MemberTypes
	for i := range members {
		if !r.m.HasMemberDecoration(structID, i, dec) {
			return false
		}
	}
	return len(members) > 0
}

// addStruct records a struct and every struct nested in it.
func (r *reflector) addStruct(id ir.ID) error {
	key := structKey(id)
	if _, ok := r.types[key]; ok {
		return nil
	}
	st := r.m.Type(id)
	info := &typeInfo{Name: r.m.Name(id), Members: make([]member, 0, len(st.MemberTypes))}
	r.types[key] = info
	for i, mt := range st.MemberTypes {
		t := r.m.Type(mt)
		mem := member{
			Name:               r.m.MemberName(id, i),
			Type:               r.typeName(mt),
			Array:              append([]uint32(nil), t.Array...),
			ArraySizeIsLiteral: append([]bool(nil), t.ArrayLiteral...),
			Offset:             r.memberDecoration(id, i, spirv.DecorationOffset),
			ArrayStride:        r.memberDecoration(id, i, spirv.DecorationArrayStride),
			MatrixStride:       r.memberDecoration(id, i, spirv.DecorationMatrixStride),
			RowMajor:           r.m.HasMemberDecoration(id, i, spirv.DecorationRowMajor),
		}
		if mem.ArrayStride == nil && t.IsArray() {
			mem.ArrayStride = r.decoration(mt, spirv.DecorationArrayStride)
		}
		if mem.Name == "" {
			mem.Name = fmt.Sprintf("_m%d", i)
		}
		info.Members = append(info.Members, mem)
		if t.Base == ir.BaseStruct {
			if err := r.addStruct(t.Self); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *reflector) memberDecoration(id ir.ID, i int, dec spirv.Decoration) *uint32 {
	if !r.m.HasMemberDecoration(id, i, dec) {
		return nil
	}
	v := r.m.MemberDecorationValue(id, i, dec)
	return &v
}

func (r *reflector) specializationValue(sc cross.SpecializationConstant) specializationValue {
	k := r.m.Constant(sc.ID)
	out := specializationValue{
		Name:       r.m.Name(sc.ID),
		ID:         sc.SpecID,
		Type:       r.typeName(k.Type),
		VariableID: sc.ID,
	}
	if t := r.m.Type(k.Type); t != nil && t.IsScalar() {
		out.DefaultValue = scalarValue(t, k.Scalar())
	}
	return out
}

// scalarValue decodes the bits of a scalar constant.
func scalarValue(t *ir.Type, bits uint64) any {
	switch t.Base {
	case ir.BaseBool:
		return bits != 0
	case ir.BaseFloat:
		switch t.Width {
		case 16:
			return halfValue(uint16(bits))
		case 64:
			return math.Float64frombits(bits)
		}
		return float64(math.Float32frombits(uint32(bits)))
	case ir.BaseInt:
		shift := 64 - t.Width
		return int64(bits<<shift) >> shift
	}
	return bits
}

// halfValue widens IEEE 754 binary16 bits.
func halfValue(h uint16) float64 {
	sign := 1.0
	if h&0x8000 != 0 {
		sign = -1
	}
	exp := int(h>>10) & 0x1f
	frac := float64(h & 0x3ff)
	switch exp {
	case 0:
		return sign * math.Ldexp(frac, -24)
	case 0x1f:
		if frac != 0 {
			return math.NaN()
		}
		return math.Inf(int(sign))
	}
	return sign * math.Ldexp(1+frac/1024, exp-15)
}
