// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// writer renders one compilation on a clone of the module.
type writer struct {
	c    *Compiler
	cc   *cross.Compiler
	m    *ir.Module
	opts Options
	log  *zap.Logger

	names *emit.Namer
	out   *emit.Buffer
	g     *emit.Generator

	ep    *ir.EntryPoint
	model spirv.ExecutionModel

	// active holds the module-scope variables the entry point uses.
	active map[ir.ID]struct{}
	// blockTypes are struct types declared as interface blocks rather
	// than as structs.
	blockTypes map[ir.ID]bool

	extensions    []string
	combinedNames []string

	// opaque maps loads of images and samplers to the variable they read.
	opaque map[ir.ID]ir.ID

	hasPosition bool
}

func newWriter(c *Compiler, cc *cross.Compiler) *writer {
	return &writer{
		c:          c,
		cc:         cc,
		m:          cc.Module(),
		opts:       c.opts,
		log:        cc.Logger(),
		out:        &emit.Buffer{},
		blockTypes: make(map[ir.ID]bool),
		opaque:     make(map[ir.ID]ir.ID),
	}
}

// require records an extension the output depends on.
func (w *writer) require(ext string) {
	for _, e := range w.extensions {
		if e == ext {
			return
		}
	}
	w.extensions = append(w.extensions, ext)
}

func (w *writer) vulkan() bool { return w.opts.VulkanSemantics }

// write renders the translation unit. The body is rendered first because
// it determines the extensions listed in the header.
func (w *writer) write() (string, error) {
	if err := w.prepare(); err != nil {
		return "", err
	}
	w.writeExecutionModes()
	w.writeSpecConstants()
	w.writeStructs()
	w.writeConstants()
	if err := w.writeResources(); err != nil {
		return "", err
	}
	if err := w.writeStageIO(); err != nil {
		return "", err
	}
	w.writeGlobals()

	for _, fn := range w.g.FunctionOrder() {
		if err := w.g.EmitFunction(w.m.Function(fn), fn == w.ep.Function); err != nil {
			return "", err
		}
	}

	head := &emit.Buffer{}
	w.writeHeader(head)
	return head.String() + w.out.String(), nil
}

// prepare checks the target can express the entry point and assigns the
// names every later step relies on.
func (w *writer) prepare() error {
	w.ep = w.cc.EntryPoint()
	w.model = w.ep.Model
	v := w.opts.LangVersion
	switch w.model {
	case spirv.ExecutionModelVertex, spirv.ExecutionModelFragment:
	case spirv.ExecutionModelGLCompute:
		if !v.SupportsCompute() {
			return cross.Unsupported("compute shaders require GLSL 430 or GLSL ES 310, targeting %s", v)
		}
	default:
		return cross.Unsupported("%s shaders are not supported by the GLSL backend", w.model)
	}

	w.names = emit.NewNamer(keywordList(), emit.WithReservedPrefixes(reservedPrefixes...))
	w.names.Set(w.ep.Function, "main")
	w.names.Reserve(baseInstanceUniform)
	w.g = emit.NewGenerator(w.cc, &dialect{w: w}, w.names, w.out, emit.Style{DoubleSuffix: "lf"})

	if !w.vulkan() {
		if err := w.cc.BuildCombinedImageSamplers(); err != nil {
			return err
		}
		for _, p := range w.cc.CombinedImageSamplers() {
			name := w.m.Name(p.CombinedID)
			w.names.Set(p.CombinedID, name)
			w.combinedNames = append(w.combinedNames, name)
		}
	}

	w.active = w.cc.ActiveInterfaceVariables()
	for _, id := range w.variables() {
		v := w.m.Variable(id)
		st := w.m.Type(w.m.Type(v.Type).Parent).Self
		if w.m.Type(st).Base != ir.BaseStruct {
			continue
		}
		switch v.Storage {
		case spirv.StorageClassUniform, spirv.StorageClassStorageBuffer, spirv.StorageClassInput, spirv.StorageClassOutput:
			w.blockTypes[st] = true
		case spirv.StorageClassPushConstant:
			if w.vulkan() {
				w.blockTypes[st] = true
			}
		}
	}
	if w.model == spirv.ExecutionModelVertex {
		w.hasPosition = w.writesPosition()
	}

	for _, id := range w.m.Declarations {
		if w.m.Constant(id) == nil {
			continue
		}
		if b, ok := w.cc.BuiltinOf(id); ok && b == spirv.BuiltInWorkgroupSize {
			w.names.Set(id, "gl_WorkGroupSize")
		}
	}
	return nil
}

// writesPosition reports whether the entry point has a position output,
// declared on its own or inside gl_PerVertex.
func (w *writer) writesPosition() bool {
	for _, id := range w.variables() {
		v := w.m.Variable(id)
		if v.Storage != spirv.StorageClassOutput {
			continue
		}
		if b, ok := w.cc.BuiltinOf(id); ok && b == spirv.BuiltInPosition {
			return true
		}
		st := w.m.Type(w.m.Type(v.Type).Parent).Self
		if !w.cc.IsBuiltinBlock(st) {
			continue
		}
		for i := range w.m.Type(st).MemberTypes {
			if w.m.HasMemberDecoration(st, i, spirv.DecorationBuiltIn) &&
				spirv.BuiltIn(w.m.MemberDecorationValue(st, i, spirv.DecorationBuiltIn)) == spirv.BuiltInPosition {
				return true
			}
		}
	}
	return false
}

// variables returns the enabled module-scope variables the entry point
// uses, in declaration order.
func (w *writer) variables() []ir.ID {
	var out []ir.ID
	for _, id := range w.m.Declarations {
		v := w.m.Variable(id)
		if v == nil || v.Hidden || !w.cc.IsEnabled(id) {
			continue
		}
		if _, ok := w.active[id]; !ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (w *writer) writeHeader(out *emit.Buffer) {
	out.Line("#version %s", w.opts.LangVersion.String())
	exts := append([]string(nil), w.extensions...)
	sort.Strings(exts)
	for _, e := range exts {
		out.Line("#extension %s : require", e)
	}
	out.Line("")

	if !w.opts.LangVersion.ES {
		return
	}
	// ES requires precision qualifiers
	if w.opts.ForceHighPrecision {
		out.Line("precision highp float;")
	} else {
		out.Line("precision mediump float;")
	}
	out.Line("precision highp int;")
	out.Line("")
}

func (w *writer) writeExecutionModes() {
	switch w.model {
	case spirv.ExecutionModelGLCompute:
		size := w.cc.WorkgroupSize()
		specs := [3]cross.SpecializationConstant{}
		specs[0], specs[1], specs[2] = w.cc.WorkgroupSizeSpecializationConstants()
		parts := make([]string, 3)
		for i, axis := range []string{"x", "y", "z"} {
			if w.vulkan() && specs[i].ID != 0 {
				parts[i] = fmt.Sprintf("local_size_%s_id = %d", axis, specs[i].SpecID)
				continue
			}
			parts[i] = fmt.Sprintf("local_size_%s = %d", axis, max(size[i], 1))
		}
		w.out.Line("layout(%s) in;", strings.Join(parts, ", "))
		w.out.Line("")
	case spirv.ExecutionModelFragment:
		if w.cc.HasExecutionMode(spirv.ExecutionModeEarlyFragmentTests) {
			w.out.Line("layout(early_fragment_tests) in;")
			w.out.Line("")
		}
	}
}

// isScalarSpec reports specialization constants that become overridable
// declarations.
func (w *writer) isScalarSpec(id ir.ID) bool {
	k := w.m.Constant(id)
	return k != nil && k.Specialization && len(k.Subconstants) == 0 && w.m.Type(k.Type).IsScalar()
}

func (w *writer) writeSpecConstants() {
	wrote := false
	for _, id := range w.m.Declarations {
		if !w.isScalarSpec(id) {
			continue
		}
		k := w.m.Constant(id)
		typ := w.g.TypeName(k.Type)
		name := w.g.ValueName(id)
		value := w.g.ConstantExpr(id)
		switch {
		case !w.m.HasDecoration(id, spirv.DecorationSpecID):
			w.out.Line("const %s %s = %s;", typ, name, value)
		case w.vulkan():
			w.out.Line("layout(constant_id = %d) const %s %s = %s;", w.m.DecorationValue(id, spirv.DecorationSpecID), typ, name, value)
		default:
			macro := fmt.Sprintf("SPIRV_CROSS_CONSTANT_ID_%d", w.m.DecorationValue(id, spirv.DecorationSpecID))
			w.out.Line("#ifndef %s", macro)
			w.out.Line("#define %s %s", macro, value)
			w.out.Line("#endif")
			w.out.Line("const %s %s = %s;", typ, name, macro)
		}
		wrote = true
	}
	if wrote {
		w.out.Line("")
	}
}

// writeStructs declares struct types that are not declared inline as
// interface blocks.
func (w *writer) writeStructs() {
	for _, id := range w.m.Declarations {
		t := w.m.Type(id)
		if t == nil || t.Base != ir.BaseStruct || t.IsArray() || t.Pointer || t.Self != id {
			continue
		}
		if w.blockTypes[id] || w.cc.IsBuiltinBlock(id) {
			continue
		}
		w.out.Line("struct %s", w.g.TypeName(id))
		w.out.Begin()
		for i, mt := range t.MemberTypes {
			w.out.Line("%s;", w.g.Declare(mt, w.g.MemberName(id, i)))
		}
		w.out.End(";")
		w.out.Line("")
	}
}

// writeConstants declares named composite constants.
func (w *writer) writeConstants() {
	wrote := false
	for _, id := range w.m.Declarations {
		k := w.m.Constant(id)
		if k == nil || w.isScalarSpec(id) || !w.g.NamedConstant(id) {
			continue
		}
		if name, ok := w.names.Lookup(id); ok && name == "gl_WorkGroupSize" {
			continue
		}
		w.out.Line("const %s = %s;", w.g.Declare(k.Type, w.g.ValueName(id)), w.g.ConstantExpr(id))
		wrote = true
	}
	if wrote {
		w.out.Line("")
	}
}

// layoutQualifier joins non-empty layout qualifiers into layout(...).
func layoutQualifier(quals ...string) string {
	var parts []string
	for _, q := range quals {
		if q != "" {
			parts = append(parts, q)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "layout(" + strings.Join(parts, ", ") + ") "
}

// bindingQualifiers spells the descriptor set and binding of a resource
// as far as the target supports them.
func (w *writer) bindingQualifiers(id ir.ID, base uint32) []string {
	var quals []string
	if w.vulkan() && w.m.HasDecoration(id, spirv.DecorationDescriptorSet) {
		quals = append(quals, fmt.Sprintf("set = %d", w.m.DecorationValue(id, spirv.DecorationDescriptorSet)))
	}
	if !w.m.HasDecoration(id, spirv.DecorationBinding) {
		return quals
	}
	v := w.opts.LangVersion
	switch {
	case w.vulkan(), v.SupportsBindings():
	case !v.ES:
		w.require("GL_ARB_shading_language_420pack")
	default:
		w.log.Debug("dropping binding unsupported by the target", zap.String("resource", w.g.ValueName(id)))
		return quals
	}
	return append(quals, fmt.Sprintf("binding = %d", w.m.DecorationValue(id, spirv.DecorationBinding)+base))
}

func (w *writer) writeResources() error {
	wrote := false
	for _, id := range w.variables() {
		v := w.m.Variable(id)
		switch v.Storage {
		case spirv.StorageClassUniform, spirv.StorageClassStorageBuffer, spirv.StorageClassPushConstant:
			if err := w.writeBlock(id, v); err != nil {
				return err
			}
			wrote = true
		case spirv.StorageClassUniformConstant:
			if !w.vulkan() && w.cc.IsCombinedSource(id) {
				continue
			}
			pointee := w.m.Type(v.Type).Parent
			if !w.vulkan() && w.m.Type(pointee).Base == ir.BaseSampler {
				continue
			}
			w.writeOpaque(id, pointee)
			wrote = true
		}
	}
	for _, p := range w.cc.CombinedImageSamplers() {
		w.writeOpaque(p.CombinedID, w.m.Type(w.m.Variable(p.CombinedID).Type).Parent)
		wrote = true
	}
	if wrote {
		w.out.Line("")
	}
	return nil
}

// writeOpaque declares an image, sampler or combined image-sampler
// uniform.
func (w *writer) writeOpaque(id, pointee ir.ID) {
	t := w.m.Type(pointee)
	var quals []string
	if t.Base == ir.BaseImage && t.Image.Sampled == 2 {
		if f, ok := imageFormats[t.Image.Format]; ok {
			quals = append(quals, f)
		}
	}
	quals = append(quals, w.bindingQualifiers(id, w.opts.TextureBindingBase)...)
	prefix := ""
	if t.Base == ir.BaseImage && t.Image.Sampled == 2 {
		if w.m.HasDecoration(id, spirv.DecorationNonWritable) {
			prefix = "readonly "
		} else if w.m.HasDecoration(id, spirv.DecorationNonReadable) {
			prefix = "writeonly "
		}
	}
	w.out.Line("%suniform %s%s;", layoutQualifier(quals...), prefix, w.g.Declare(pointee, w.g.ValueName(id)))
}

// blockPacking picks the layout standard that reproduces the declared
// offsets of a buffer block.
func (w *writer) blockPacking(structID ir.ID, ssbo bool) (cross.PackingStandard, bool, error) {
	candidates := []cross.PackingStandard{cross.PackingStd140, cross.PackingStd140EnhancedLayout}
	if ssbo {
		candidates = []cross.PackingStandard{
			cross.PackingStd430, cross.PackingStd140,
			cross.PackingStd430EnhancedLayout, cross.PackingStd140EnhancedLayout,
		}
	}
	p, ok := emit.SelectPacking(w.cc, structID, candidates...)
	if !ok {
		return 0, false, cross.Unsupported("buffer block %s cannot be expressed with std140 or std430 layout", w.g.TypeName(structID))
	}
	explicit := p == cross.PackingStd140EnhancedLayout || p == cross.PackingStd430EnhancedLayout
	if explicit {
		v := w.opts.LangVersion
		switch {
		case v.ES:
			return 0, false, cross.Unsupported("buffer block %s needs explicit member offsets, which GLSL ES lacks", w.g.TypeName(structID))
		case !w.vulkan() && v.versionLessThan(440):
			w.require("GL_ARB_enhanced_layouts")
		}
	}
	w.log.Debug("selected block packing",
		zap.String("block", w.g.TypeName(structID)),
		zap.Stringer("packing", p))
	return p, explicit, nil
}

func packingName(p cross.PackingStandard) string {
	switch p {
	case cross.PackingStd430, cross.PackingStd430EnhancedLayout:
		return "std430"
	}
	return "std140"
}

func (w *writer) writeBlock(id ir.ID, v *ir.Variable) error {
	pointee := w.m.Type(v.Type).Parent
	structID := w.m.Type(pointee).Self
	name := w.g.ValueName(id)

	if v.Storage == spirv.StorageClassPushConstant && !w.vulkan() {
		w.out.Line("uniform %s;", w.g.Declare(pointee, name))
		return nil
	}

	ssbo := v.Storage == spirv.StorageClassStorageBuffer ||
		(v.Storage == spirv.StorageClassUniform && w.m.HasDecoration(structID, spirv.DecorationBufferBlock))
	if ssbo && !w.vulkan() && !w.opts.LangVersion.SupportsStorageBuffers() {
		return cross.Unsupported("storage buffer %s requires GLSL 430 or GLSL ES 310", name)
	}
	packing, explicit, err := w.blockPacking(structID, ssbo || v.Storage == spirv.StorageClassPushConstant)
	if err != nil {
		return err
	}

	quals := []string{packingName(packing)}
	keyword := "uniform"
	switch {
	case v.Storage == spirv.StorageClassPushConstant:
		quals = append([]string{"push_constant"}, quals...)
	case ssbo:
		keyword = "buffer"
		quals = append(quals, w.bindingQualifiers(id, w.opts.StorageBindingBase)...)
	default:
		quals = append(quals, w.bindingQualifiers(id, w.opts.UniformBindingBase)...)
	}
	access := ""
	if ssbo && w.m.HasDecoration(id, spirv.DecorationNonWritable) {
		access = "readonly "
	}

	w.out.Line("%s%s%s %s", layoutQualifier(quals...), access, keyword, w.g.TypeName(structID))
	w.out.Begin()
	st := w.m.Type(structID)
	for i, mt := range st.MemberTypes {
		var mq []string
		if explicit {
			mq = append(mq, fmt.Sprintf("offset = %d", w.cc.MemberOffset(structID, i)))
		}
		if w.m.Type(mt).Columns > 1 && w.m.HasMemberDecoration(structID, i, spirv.DecorationRowMajor) {
			mq = append(mq, "row_major")
		}
		w.out.Line("%s%s;", layoutQualifier(mq...), w.g.Declare(mt, w.g.MemberName(structID, i)))
	}
	w.out.End(" " + name + w.g.ArraySuffix(pointee) + ";")
	return nil
}

// interpolation spells the interpolation qualifiers of a stage variable
// or block member.
func (w *writer) interpolation(has func(spirv.Decoration) bool) string {
	var sb strings.Builder
	if has(spirv.DecorationFlat) {
		sb.WriteString("flat ")
	}
	if has(spirv.DecorationNoPerspective) {
		if w.opts.LangVersion.ES {
			w.require("GL_NV_shader_noperspective_interpolation")
		}
		sb.WriteString("noperspective ")
	}
	if has(spirv.DecorationCentroid) {
		sb.WriteString("centroid ")
	}
	if has(spirv.DecorationSample) {
		sb.WriteString("sample ")
	}
	return sb.String()
}

// locationAllowed reports whether a stage variable may carry an explicit
// location on the target.
func (w *writer) locationAllowed(storage spirv.StorageClass) bool {
	if w.vulkan() {
		return true
	}
	if (w.model == spirv.ExecutionModelVertex && storage == spirv.StorageClassInput) ||
		(w.model == spirv.ExecutionModelFragment && storage == spirv.StorageClassOutput) {
		return true
	}
	if w.opts.LangVersion.SupportsVaryingLocations() {
		return true
	}
	if w.opts.SeparateShaderObjects && !w.opts.LangVersion.ES {
		w.require("GL_ARB_separate_shader_objects")
		return true
	}
	return false
}

func (w *writer) writeStageIO() error {
	wrote := false
	usesBaseInstance := false
	for _, id := range w.variables() {
		v := w.m.Variable(id)
		if v.Storage != spirv.StorageClassInput && v.Storage != spirv.StorageClassOutput {
			continue
		}
		pointee := w.m.Type(v.Type).Parent
		pt := w.m.Type(pointee)
		dir := "in"
		if v.Storage == spirv.StorageClassOutput {
			dir = "out"
		}

		if w.cc.IsBuiltinBlock(pt.Self) {
			if v.Storage == spirv.StorageClassOutput && w.model == spirv.ExecutionModelVertex && w.opts.SeparateShaderObjects {
				w.writePerVertex(pt.Self)
				wrote = true
			}
			continue
		}
		if b, ok := w.cc.BuiltinOf(id); ok {
			info, known := builtinName(b, v.Storage, w.vulkan())
			if !known {
				return cross.Unsupported("builtin %s is not supported by the GLSL backend", b)
			}
			if strings.HasSuffix(info.name, "ARB") {
				w.require("GL_ARB_shader_draw_parameters")
			}
			if strings.Contains(info.name, baseInstanceUniform) {
				usesBaseInstance = true
			}
			continue
		}

		var quals []string
		if w.m.HasDecoration(id, spirv.DecorationLocation) && w.locationAllowed(v.Storage) {
			quals = append(quals, fmt.Sprintf("location = %d", w.m.DecorationValue(id, spirv.DecorationLocation)))
		}
		interp := w.interpolation(func(d spirv.Decoration) bool { return w.m.HasDecoration(id, d) })

		if pt.Base == ir.BaseStruct && w.blockTypes[pt.Self] {
			if w.opts.LangVersion.ES && w.opts.LangVersion.versionLessThan(320) {
				return cross.Unsupported("stage interface blocks require GLSL ES 320")
			}
			w.out.Line("%s%s%s %s", layoutQualifier(quals...), interp, dir, w.g.TypeName(pt.Self))
			w.out.Begin()
			for i, mt := range w.m.Type(pt.Self).MemberTypes {
				var mq []string
				if w.m.HasMemberDecoration(pt.Self, i, spirv.DecorationLocation) && w.locationAllowed(v.Storage) {
					mq = append(mq, fmt.Sprintf("location = %d", w.m.MemberDecorationValue(pt.Self, i, spirv.DecorationLocation)))
				}
				mi := w.interpolation(func(d spirv.Decoration) bool { return w.m.HasMemberDecoration(pt.Self, i, d) })
				w.out.Line("%s%s%s;", layoutQualifier(mq...), mi, w.g.Declare(mt, w.g.MemberName(pt.Self, i)))
			}
			w.out.End(" " + w.g.ValueName(id) + w.g.ArraySuffix(pointee) + ";")
			wrote = true
			continue
		}

		w.out.Line("%s%s%s %s;", layoutQualifier(quals...), interp, dir, w.g.Declare(pointee, w.g.ValueName(id)))
		wrote = true
	}
	if usesBaseInstance {
		w.out.Line("uniform int %s;", baseInstanceUniform)
		wrote = true
	}
	if wrote {
		w.out.Line("")
	}
	return nil
}

// writePerVertex redeclares the builtin output block, as separable
// programs require.
func (w *writer) writePerVertex(structID ir.ID) {
	w.out.Line("out gl_PerVertex")
	w.out.Begin()
	for i, mt := range w.m.Type(structID).MemberTypes {
		if !w.m.HasMemberDecoration(structID, i, spirv.DecorationBuiltIn) {
			continue
		}
		b := spirv.BuiltIn(w.m.MemberDecorationValue(structID, i, spirv.DecorationBuiltIn))
		if info, ok := builtinName(b, spirv.StorageClassOutput, w.vulkan()); ok {
			w.out.Line("%s;", w.g.TypeName(mt)+" "+info.name+w.g.ArraySuffix(mt))
		}
	}
	w.out.End(";")
}

// writeGlobals declares Private and Workgroup variables.
func (w *writer) writeGlobals() {
	wrote := false
	for _, id := range w.variables() {
		v := w.m.Variable(id)
		pointee := w.m.Type(v.Type).Parent
		decl := w.g.Declare(pointee, w.g.ValueName(id))
		switch v.Storage {
		case spirv.StorageClassPrivate:
			if v.Initializer != 0 {
				w.out.Line("%s = %s;", decl, w.g.Expr(v.Initializer))
			} else {
				w.out.Line("%s;", decl)
			}
		case spirv.StorageClassWorkgroup:
			w.out.Line("shared %s;", decl)
		default:
			continue
		}
		wrote = true
	}
	if wrote {
		w.out.Line("")
	}
}
