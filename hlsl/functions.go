// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// stageMember is a member of the synthesized input or output struct. The
// shader body works on a static global of the same name, copied from the
// input struct before the entry function runs and into the output struct
// after it returns.
type stageMember struct {
	name     string
	typ      string
	suffix   string
	semantic string
	interp   string
	// location orders user members; builtins have -1 and come last.
	location int
	copy     string
}

// buildStageInterface declares a static global for every stage variable
// and lays out the input and output structs of main.
func (w *writer) buildStageInterface() error {
	next := w.firstFreeLocations()
	declared := make(map[string]bool)
	for _, id := range w.variables() {
		v := w.m.Variable(id)
		if v.Storage != spirv.StorageClassInput && v.Storage != spirv.StorageClassOutput {
			continue
		}
		input := v.Storage == spirv.StorageClassInput
		pointee := w.cc.VariableType(id)
		pt := w.m.Type(pointee)

		if w.cc.IsBuiltinBlock(pt.Self) {
			for i, mt := range w.m.Type(pt.Self).MemberTypes {
				if !w.m.HasMemberDecoration(pt.Self, i, spirv.DecorationBuiltIn) {
					continue
				}
				b := spirv.BuiltIn(w.m.MemberDecorationValue(pt.Self, i, spirv.DecorationBuiltIn))
				// Members without an equivalent fail when accessed.
				if desc, ok := builtins[b]; ok && !declared[desc.name] {
					declared[desc.name] = true
					w.addBuiltin(b, desc, mt, input)
				}
			}
			continue
		}
		if b, ok := w.cc.BuiltinOf(id); ok {
			desc, known := builtins[b]
			if !known {
				return cross.Unsupported("builtin %s is not supported by the HLSL backend", b)
			}
			w.names.Set(id, desc.name)
			if !declared[desc.name] {
				declared[desc.name] = true
				w.addBuiltin(b, desc, pointee, input)
			}
			continue
		}
		if w.model == spirv.ExecutionModelGLCompute {
			return cross.Unsupported("compute shaders have no user stage inputs or outputs")
		}

		interpolated := (input && w.model == spirv.ExecutionModelFragment) || (!input && w.model == spirv.ExecutionModelVertex)
		interp := ""
		if interpolated {
			interp = interpolationModifier(func(d spirv.Decoration) bool { return w.m.HasDecoration(id, d) })
		}
		loc, ok := w.location(id)
		if !ok {
			loc = next[v.Storage]
		}
		if pt.Base == ir.BaseStruct && !pt.IsArray() {
			end, err := w.flattenStageStruct(id, pt.Self, loc, input, interpolated, interp)
			if err != nil {
				return err
			}
			next[v.Storage] = max(next[v.Storage], end)
			continue
		}
		name := w.g.ValueName(id)
		w.addUser(name, pointee, loc, input, interp)
		next[v.Storage] = max(next[v.Storage], loc+w.locationCount(pointee))
	}

	for _, list := range [][]*stageMember{w.inputs, w.outputs} {
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i].location, list[j].location
			if (a < 0) != (b < 0) {
				return b < 0
			}
			return a < b
		})
	}
	return nil
}

func (w *writer) location(id ir.ID) (int, bool) {
	if !w.m.HasDecoration(id, spirv.DecorationLocation) {
		return 0, false
	}
	return int(w.m.DecorationValue(id, spirv.DecorationLocation)), true
}

// firstFreeLocations returns, per direction, the location after the
// highest one declared. Variables without a location are numbered from
// there.
func (w *writer) firstFreeLocations() map[spirv.StorageClass]int {
	next := make(map[spirv.StorageClass]int)
	for _, id := range w.variables() {
		v := w.m.Variable(id)
		if loc, ok := w.location(id); ok {
			next[v.Storage] = max(next[v.Storage], loc+w.locationCount(w.cc.VariableType(id)))
		}
	}
	return next
}

// locationCount returns the number of locations a stage value consumes:
// one per matrix column and array element.
func (w *writer) locationCount(typeID ir.ID) int {
	t := w.m.Type(typeID)
	n := int(max(t.Columns, 1))
	for i := range t.Array {
		if size, _, ok := w.m.ArrayDimension(t, i); ok && size > 0 {
			n *= int(size)
		}
	}
	if t.Base == ir.BaseStruct && !t.IsArray() {
		n = 0
		for _, mt := range t.MemberTypes {
			n += w.locationCount(mt)
		}
	}
	return n
}

// semantic returns the user semantic of a location. Fragment outputs are
// render targets.
func (w *writer) semantic(loc int, input bool) string {
	if !input && w.model == spirv.ExecutionModelFragment {
		return fmt.Sprintf("SV_Target%d", loc)
	}
	return fmt.Sprintf("TEXCOORD%d", loc)
}

func (w *writer) addUser(name string, typeID ir.ID, loc int, input bool, interp string) {
	w.statics = append(w.statics, "static "+w.g.Declare(typeID, name)+";")
	m := &stageMember{
		name:     name,
		typ:      w.g.TypeName(typeID),
		suffix:   w.g.ArraySuffix(typeID),
		semantic: w.semantic(loc, input),
		interp:   interp,
		location: loc,
	}
	if input {
		m.copy = name + " = stage_input." + name + ";"
		w.inputs = append(w.inputs, m)
		return
	}
	m.copy = "stage_output." + name + " = " + name + ";"
	w.outputs = append(w.outputs, m)
}

// flattenStageStruct turns each member of a struct-typed stage variable
// into its own static, reached through a placeholder expression. It
// returns the location after the last member.
func (w *writer) flattenStageStruct(id, structID ir.ID, loc int, input, interpolated bool, interp string) (int, error) {
	base := w.g.ValueName(id)
	st := w.m.Type(structID)
	names := make([]string, len(st.MemberTypes))
	for i, mt := range st.MemberTypes {
		if w.m.Type(mt).Base == ir.BaseStruct {
			return 0, cross.Unsupported("stage variable %s has a nested struct member", base)
		}
		if w.m.HasMemberDecoration(structID, i, spirv.DecorationLocation) {
			loc = int(w.m.MemberDecorationValue(structID, i, spirv.DecorationLocation))
		}
		mi := interp
		if interpolated && mi == "" {
			mi = interpolationModifier(func(d spirv.Decoration) bool { return w.m.HasMemberDecoration(structID, i, d) })
		}
		names[i] = w.names.Call(base + "_" + w.g.MemberName(structID, i))
		w.addUser(names[i], mt, loc, input, mi)
		loc += w.locationCount(mt)
	}
	token := tokenMark + base + tokenMark
	w.flatIO[id] = token
	w.flat[token] = func(i int) string { return names[i] }
	return loc, nil
}

// addBuiltin declares the static of a builtin and, when Direct3D has a
// system value for it, the stage struct member it is copied through.
func (w *writer) addBuiltin(b spirv.BuiltIn, desc builtinDesc, typeID ir.ID, input bool) {
	w.statics = append(w.statics, "static "+w.g.Declare(typeID, desc.name)+";")
	if desc.semantic == "" {
		return
	}
	t := w.m.Type(typeID)
	elem, static := typeID, desc.name
	if t.IsArray() {
		elem, static = t.Parent, desc.name+"[0]"
	}
	declared := w.g.TypeName(elem)
	memberType := declared
	if desc.base != ir.BaseUnknown {
		memberType = numericToHLSL(&ir.Type{Base: desc.base, Width: 32, VecSize: desc.vec, Columns: 1})
	}
	semantic := desc.semantic
	if b == spirv.BuiltInFragDepth {
		switch {
		case w.cc.HasExecutionMode(spirv.ExecutionModeDepthGreater):
			semantic = "SV_DepthGreaterEqual"
		case w.cc.HasExecutionMode(spirv.ExecutionModeDepthLess):
			semantic = "SV_DepthLessEqual"
		}
	}
	m := &stageMember{name: desc.name, typ: memberType, semantic: semantic, location: -1}
	if input {
		rhs := "stage_input." + desc.name
		if memberType != declared {
			rhs = declared + "(" + rhs + ")"
		}
		m.copy = static + " = " + rhs + ";"
		w.inputs = append(w.inputs, m)
		if b == spirv.BuiltInFragCoord {
			w.prologue = append(w.prologue, "gl_FragCoord.w = 1.0 / gl_FragCoord.w;")
		}
		return
	}
	rhs := static
	if memberType != declared {
		rhs = memberType + "(" + static + ")"
	}
	m.copy = "stage_output." + desc.name + " = " + rhs + ";"
	w.outputs = append(w.outputs, m)
	if b == spirv.BuiltInPosition {
		w.hasPosition = true
	}
}

func (w *writer) writeStageStatics() {
	if len(w.statics) == 0 {
		return
	}
	for _, s := range w.statics {
		w.out.Line("%s", s)
	}
	w.out.Line("")
}

func (w *writer) writeStageStructs() {
	for _, s := range []struct {
		name    string
		members []*stageMember
	}{{inputStructName, w.inputs}, {outputStructName, w.outputs}} {
		if len(s.members) == 0 {
			continue
		}
		w.out.Line("struct %s", s.name)
		w.out.Begin()
		for _, m := range s.members {
			w.out.Line("%s%s %s%s : %s;", m.interp, m.typ, m.name, m.suffix, m.semantic)
		}
		w.out.End(";")
		w.out.Line("")
	}
}

// entryAttributes spells the attributes preceding main.
func (w *writer) entryAttributes() []string {
	switch w.model {
	case spirv.ExecutionModelGLCompute:
		size := w.cc.WorkgroupSize()
		specs := [3]cross.SpecializationConstant{}
		specs[0], specs[1], specs[2] = w.cc.WorkgroupSizeSpecializationConstants()
		parts := make([]string, 3)
		for i := range parts {
			if specs[i].ID != 0 {
				parts[i] = specMacro(specs[i].SpecID)
				continue
			}
			parts[i] = fmt.Sprint(max(size[i], 1))
		}
		return []string{"[numthreads(" + strings.Join(parts, ", ") + ")]"}
	case spirv.ExecutionModelFragment:
		if w.cc.HasExecutionMode(spirv.ExecutionModeEarlyFragmentTests) {
			return []string{"[earlydepthstencil]"}
		}
	}
	return nil
}

// vertexEpilogue returns the clip-space adjustments applied after the
// vertex entry function returns.
func (w *writer) vertexEpilogue() []string {
	if w.model != spirv.ExecutionModelVertex || !w.hasPosition {
		return nil
	}
	var lines []string
	if w.opts.FixupClipSpace {
		lines = append(lines, "gl_Position.z = (gl_Position.z + gl_Position.w) * 0.5;")
	}
	if w.opts.FlipVertexY {
		lines = append(lines, "gl_Position.y = -gl_Position.y;")
	}
	return lines
}

// writeEntryWrapper writes main, which copies the stage inputs into their
// statics, runs the entry function and gathers the outputs.
func (w *writer) writeEntryWrapper() {
	for _, a := range w.entryAttributes() {
		w.out.Line("%s", a)
	}
	ret, param := "void", ""
	if len(w.outputs) > 0 {
		ret = outputStructName
	}
	if len(w.inputs) > 0 {
		param = inputStructName + " stage_input"
	}
	w.out.Line("%s main(%s)", ret, param)
	w.out.Begin()
	for _, m := range w.inputs {
		w.out.Line("%s", m.copy)
	}
	for _, line := range w.prologue {
		w.out.Line("%s", line)
	}
	w.out.Line("%s();", w.g.FunctionName(w.ep.Function))
	for _, line := range w.vertexEpilogue() {
		w.out.Line("%s", line)
	}
	if len(w.outputs) > 0 {
		w.out.Line("%s stage_output;", outputStructName)
		for _, m := range w.outputs {
			w.out.Line("%s", m.copy)
		}
		w.out.Line("return stage_output;")
	}
	w.out.End("")
}
