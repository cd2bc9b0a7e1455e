// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// imageOf returns the image type an image instruction operates on.
func imageOf(g *emit.Generator, id ir.ID) *ir.Type {
	return g.M.Type(g.M.TypeOf(id))
}

type imageOperands struct {
	bias, lod, gradX, gradY, offset, sample string
}

func readImageOperands(g *emit.Generator, in *ir.Instruction) imageOperands {
	mask, ids := in.ImageOperands()
	var ops imageOperands
	k := 0
	next := func() string {
		if k >= len(ids) {
			return ""
		}
		e := g.Expr(ids[k])
		k++
		return e
	}
	if mask&spirv.ImageOperandsBias != 0 {
		ops.bias = next()
	}
	if mask&spirv.ImageOperandsLod != 0 {
		ops.lod = next()
	}
	if mask&spirv.ImageOperandsGrad != 0 {
		ops.gradX = next()
		ops.gradY = next()
	}
	if mask&spirv.ImageOperandsConstOffset != 0 {
		ops.offset = next()
	}
	if mask&spirv.ImageOperandsOffset != 0 {
		ops.offset = next()
	}
	if mask&spirv.ImageOperandsSample != 0 {
		ops.sample = next()
	}
	return ops
}

// lowerSampledImage combines an image and a sampler. Vulkan GLSL builds
// the combination at the use site; OpenGL GLSL refers to the combined
// uniform synthesized for the pair.
func (w *writer) lowerSampledImage(g *emit.Generator, in *ir.Instruction) error {
	img, smp := in.Arg(0), in.Arg(1)
	if w.vulkan() {
		g.SetExpression(in.Result, g.TypeName(in.ResultType)+"("+g.Expr(img)+", "+g.Expr(smp)+")")
		return nil
	}
	imgVar, ok1 := w.opaque[img]
	smpVar, ok2 := w.opaque[smp]
	if !ok1 || !ok2 {
		return cross.Unsupported("sampling an image or sampler that is not a module-scope resource")
	}
	combined, ok := w.cc.CombinedFor(imgVar, smpVar)
	if !ok {
		return cross.Errorf(cross.ErrInternal, "no combined image-sampler for %s and %s", g.ValueName(imgVar), g.ValueName(smpVar))
	}
	expr := g.ValueName(combined) + strings.TrimPrefix(g.Expr(img), g.ValueName(imgVar))
	g.SetExpression(in.Result, expr)
	w.opaque[in.Result] = combined
	return nil
}

// samplerless records the extension Vulkan GLSL needs to fetch from or
// query a texture without a sampler.
func (w *writer) samplerless(img *ir.Type) {
	if w.vulkan() && img.Base == ir.BaseImage && img.Image.Sampled == 1 {
		w.require("GL_EXT_samplerless_texture_functions")
	}
}

func (w *writer) lowerSample(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	img := imageOf(g, imgID)
	dref := in.Op == spirv.OpImageSampleDrefImplicitLod || in.Op == spirv.OpImageSampleDrefExplicitLod
	ops := readImageOperands(g, in)

	coord := g.Expr(in.Arg(1))
	var extra []string
	if dref {
		ct := g.M.Type(g.M.TypeOf(in.Arg(1)))
		d := g.Expr(in.Arg(2))
		if ct.VecSize >= 4 {
			// samplerCubeArrayShadow takes the reference separately.
			extra = append(extra, d)
		} else {
			coord = fmt.Sprintf("vec%d(%s, %s)", ct.VecSize+1, coord, d)
		}
	}

	fn := "texture"
	args := []string{g.Expr(imgID), coord}
	switch {
	case ops.gradX != "":
		fn = "textureGrad"
		args = append(args, ops.gradX, ops.gradY)
	case ops.lod != "":
		fn = "textureLod"
		args = append(args, ops.lod)
	}
	if ops.offset != "" {
		fn += "Offset"
		args = append(args, ops.offset)
	}
	args = append(args, extra...)
	if ops.bias != "" {
		args = append(args, ops.bias)
	}
	expr := fn + "(" + strings.Join(args, ", ") + ")"
	if img.Image.Depth && !dref {
		expr = g.TypeName(in.ResultType) + "(" + expr + ")"
	}
	g.Bind(in, expr)
	return nil
}

// texelCoord converts an integer coordinate to the signed vector GLSL
// fetches and image loads take.
func texelCoord(g *emit.Generator, coord ir.ID) string {
	ct := g.M.Type(g.M.TypeOf(coord))
	if ct.Base == ir.BaseInt {
		return g.Expr(coord)
	}
	if ct.VecSize > 1 {
		return fmt.Sprintf("ivec%d(%s)", ct.VecSize, g.Expr(coord))
	}
	return "int(" + g.Expr(coord) + ")"
}

// lowerRead handles OpImageFetch on sampled images and OpImageRead on
// storage images.
func (w *writer) lowerRead(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	img := imageOf(g, imgID)
	args := []string{g.Expr(imgID), texelCoord(g, in.Arg(1))}
	ops := readImageOperands(g, in)

	var fn string
	if img.Image.Sampled == 2 {
		fn = "imageLoad"
		if img.Image.MS && ops.sample != "" {
			args = append(args, ops.sample)
		}
	} else {
		w.samplerless(img)
		fn = "texelFetch"
		switch {
		case img.Image.MS:
			args = append(args, ops.sample)
		case img.Image.Dim == spirv.DimBuffer:
		case ops.lod != "":
			args = append(args, ops.lod)
		default:
			args = append(args, "0")
		}
		if ops.offset != "" {
			fn = "texelFetchOffset"
			args = append(args, ops.offset)
		}
	}
	g.Bind(in, fn+"("+strings.Join(args, ", ")+")")
	return nil
}

func (w *writer) lowerWrite(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	g.Out.Line("imageStore(%s, %s, %s);", g.Expr(imgID), texelCoord(g, in.Arg(1)), g.Expr(in.Arg(2)))
	return nil
}

func (w *writer) lowerGather(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	args := []string{g.Expr(imgID), g.Expr(in.Arg(1))}
	ops := readImageOperands(g, in)
	var component uint32
	if k := g.M.Constant(in.Arg(2)); k != nil {
		component = k.ScalarU32()
	}
	if component > 3 {
		return cross.Invalid("gather component %d", component)
	}
	fn := "textureGather"
	if ops.offset != "" {
		fn = "textureGatherOffset"
		args = append(args, ops.offset)
	}
	if component != 0 {
		args = append(args, fmt.Sprint(component))
	}
	g.Bind(in, fn+"("+strings.Join(args, ", ")+")")
	return nil
}

func (w *writer) lowerQuery(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	img := imageOf(g, imgID)
	expr := g.Expr(imgID)
	rt := g.M.Type(in.ResultType)

	var call string
	switch {
	case in.Op == spirv.OpImageQueryLevels:
		v := w.opts.LangVersion
		switch {
		case v.ES:
			return cross.Unsupported("textureQueryLevels is not available in GLSL ES")
		case !w.vulkan() && v.versionLessThan(430):
			w.require("GL_ARB_texture_query_levels")
		}
		w.samplerless(img)
		call = "textureQueryLevels(" + expr + ")"
	case img.Image.Sampled == 2:
		call = "imageSize(" + expr + ")"
	default:
		w.samplerless(img)
		lod := ""
		if !img.Image.MS && img.Image.Dim != spirv.DimBuffer && img.Image.Dim != spirv.DimRect {
			lod = "0"
			if in.Op == spirv.OpImageQuerySizeLod {
				lod = g.Expr(in.Arg(1))
			}
		}
		if lod != "" {
			call = "textureSize(" + expr + ", " + lod + ")"
		} else {
			call = "textureSize(" + expr + ")"
		}
	}
	if rt.Base != ir.BaseInt {
		call = g.TypeName(in.ResultType) + "(" + call + ")"
	}
	g.Bind(in, call)
	return nil
}
