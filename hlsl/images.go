// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

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

// lowerSample spells sampling as a method of the texture taking the
// paired sampler.
func (w *writer) lowerSample(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	smp, err := w.samplerExpr(g, imgID)
	if err != nil {
		return err
	}
	dref := in.Op == spirv.OpImageSampleDrefImplicitLod || in.Op == spirv.OpImageSampleDrefExplicitLod
	ops := readImageOperands(g, in)

	args := []string{smp, g.Expr(in.Arg(1))}
	var method string
	switch {
	case dref && in.Op == spirv.OpImageSampleDrefExplicitLod:
		// Comparison sampling outside fragment shaders only exists at
		// level zero.
		method = "SampleCmpLevelZero"
		args = append(args, g.Expr(in.Arg(2)))
	case dref:
		method = "SampleCmp"
		args = append(args, g.Expr(in.Arg(2)))
	case ops.gradX != "":
		method = "SampleGrad"
		args = append(args, ops.gradX, ops.gradY)
	case ops.lod != "":
		method = "SampleLevel"
		args = append(args, ops.lod)
	case ops.bias != "":
		method = "SampleBias"
		args = append(args, ops.bias)
	default:
		method = "Sample"
	}
	if method == "Sample" && w.model != spirv.ExecutionModelFragment {
		return cross.Unsupported("implicit level-of-detail sampling outside fragment shaders")
	}
	if ops.offset != "" {
		args = append(args, ops.offset)
	}
	g.Bind(in, g.Operand(imgID)+"."+method+"("+strings.Join(args, ", ")+")")
	return nil
}

// texelComponents counts the components of a texture's element type.
func texelComponents(texel string) int {
	if n := texel[len(texel)-1]; n >= '2' && n <= '4' {
		return int(n - '0')
	}
	return 1
}

// widen expands a texel of n components to the width of the result,
// repeating the last component as SPIR-V reads of narrow formats do.
func widen(expr string, n int, rt *ir.Type) string {
	want := int(rt.VecSize)
	if n >= want {
		return expr
	}
	sw := swizzle[:n] + strings.Repeat(swizzle[n-1:n], want-n)
	return emit.Enclose(expr) + "." + sw
}

// lowerRead handles OpImageFetch on sampled images and OpImageRead on
// storage images.
func (w *writer) lowerRead(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	img := imageOf(g, imgID)
	coord := g.Expr(in.Arg(1))
	ops := readImageOperands(g, in)
	rt := g.M.Type(in.ResultType)

	if img.Image.Sampled == 2 {
		if img.Image.MS {
			return cross.Unsupported("reading multisampled storage images")
		}
		texel := texelType(g.M, img.Image)
		g.Bind(in, widen(g.Operand(imgID)+"["+coord+"]", texelComponents(texel), rt))
		return nil
	}

	var args []string
	switch {
	case img.Image.Dim == spirv.DimBuffer:
		args = append(args, coord)
	case img.Image.MS:
		args = append(args, coord, ops.sample)
	default:
		lod := ops.lod
		if lod == "" {
			lod = "0"
		}
		args = append(args, fmt.Sprintf("int%d(%s, %s)", imageCoordinates(img.Image)+1, coord, lod))
	}
	if ops.offset != "" {
		args = append(args, ops.offset)
	}
	g.Bind(in, g.Operand(imgID)+".Load("+strings.Join(args, ", ")+")")
	return nil
}

func (w *writer) lowerWrite(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	img := imageOf(g, imgID)
	value := g.Expr(in.Arg(2))
	n := texelComponents(texelType(g.M, img.Image))
	if vt := g.M.Type(g.M.TypeOf(in.Arg(2))); vt != nil && int(vt.VecSize) > n {
		value = emit.Enclose(value) + "." + swizzle[:n]
	}
	g.Out.Line("%s[%s] = %s;", g.Operand(imgID), g.Expr(in.Arg(1)), value)
	return nil
}

// gatherMethods select the channel a gather reads.
var gatherMethods = [4]string{"GatherRed", "GatherGreen", "GatherBlue", "GatherAlpha"}

func (w *writer) lowerGather(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	smp, err := w.samplerExpr(g, imgID)
	if err != nil {
		return err
	}
	var component uint32
	if k := g.M.Constant(in.Arg(2)); k != nil {
		component = k.ScalarU32()
	}
	if component > 3 {
		return cross.Invalid("gather component %d", component)
	}
	ops := readImageOperands(g, in)
	args := []string{smp, g.Expr(in.Arg(1))}
	if ops.offset != "" {
		args = append(args, ops.offset)
	}
	g.Bind(in, g.Operand(imgID)+"."+gatherMethods[component]+"("+strings.Join(args, ", ")+")")
	return nil
}

// lowerQuery reads image dimensions through GetDimensions, which writes
// the sizes followed by the level or sample count into out parameters.
func (w *writer) lowerQuery(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	img := imageOf(g, imgID).Image
	n := imageCoordinates(img)

	mipmapped := img.Sampled != 2 && !img.MS && img.Dim != spirv.DimBuffer
	if in.Op == spirv.OpImageQueryLevels && !mipmapped {
		return cross.Unsupported("querying the levels of an image without mipmaps")
	}
	dims := w.names.Call(g.ValueName(in.Result) + "_dims")
	g.Out.Line("uint4 %s;", dims)

	var args []string
	if mipmapped {
		lod := "0u"
		if in.Op == spirv.OpImageQuerySizeLod {
			lod = "uint(" + g.Expr(in.Arg(1)) + ")"
		}
		args = append(args, lod)
	}
	for i := 0; i < n; i++ {
		args = append(args, dims+"."+swizzle[i:i+1])
	}
	if mipmapped || img.MS {
		args = append(args, dims+"."+swizzle[n:n+1])
	}
	g.Out.Line("%s.GetDimensions(%s);", g.Operand(imgID), strings.Join(args, ", "))

	expr := dims + "." + swizzle[:n]
	if in.Op == spirv.OpImageQueryLevels {
		expr = dims + "." + swizzle[n:n+1]
	}
	g.Bind(in, g.TypeName(in.ResultType)+"("+expr+")")
	return nil
}
