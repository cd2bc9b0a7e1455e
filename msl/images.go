package msl

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

// sampleCoords splits a float coordinate into the texture coordinate and,
// for arrayed images, the rounded array layer.
func sampleCoords(g *emit.Generator, img *ir.Type, coord ir.ID) []string {
	n := coordinateCount(img.Image.Dim)
	ct := g.M.Type(g.M.TypeOf(coord))
	expr := g.Operand(coord)
	if !img.Image.Arrayed {
		if int(ct.VecSize) > n {
			return []string{expr + "." + swizzle[:n]}
		}
		return []string{g.Expr(coord)}
	}
	return []string{
		expr + "." + swizzle[:n],
		"uint(rint(" + expr + "." + swizzle[n:n+1] + "))",
	}
}

// texelCoords converts an integer coordinate to the unsigned coordinate
// and layer arguments of read and write.
func texelCoords(g *emit.Generator, img *ir.Type, coord ir.ID) []string {
	n := coordinateCount(img.Image.Dim)
	if img.Image.Dim == spirv.DimCube {
		n = 2
	}
	ct := g.M.Type(g.M.TypeOf(coord))
	expr := g.Operand(coord)
	vec := func(k int, e string) string {
		if k == 1 {
			return "uint(" + e + ")"
		}
		return fmt.Sprintf("uint%d(%s)", k, e)
	}
	if !img.Image.Arrayed && img.Image.Dim != spirv.DimCube {
		if int(ct.VecSize) > n {
			return []string{vec(n, expr+"."+swizzle[:n])}
		}
		return []string{vec(n, g.Expr(coord))}
	}
	out := []string{vec(n, expr+"."+swizzle[:n])}
	if int(ct.VecSize) > n {
		out = append(out, "uint("+expr+"."+swizzle[n:n+1]+")")
	}
	return out
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

func gradientName(dim spirv.Dim) string {
	switch dim {
	case spirv.Dim3D:
		return "gradient3d"
	case spirv.DimCube:
		return "gradientcube"
	}
	return "gradient2d"
}

func (w *writer) lowerSample(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	img := imageOf(g, imgID)
	smp := w.samplerFor(g, imgID)
	if smp == "" {
		return cross.Unsupported("sampled image %d has no sampler", imgID)
	}
	dref := in.Op == spirv.OpImageSampleDrefImplicitLod || in.Op == spirv.OpImageSampleDrefExplicitLod
	args := append([]string{smp}, sampleCoords(g, img, in.Arg(1))...)
	if dref {
		args = append(args, g.Expr(in.Arg(2)))
	}
	ops := readImageOperands(g, in)
	switch {
	case ops.bias != "":
		args = append(args, "bias("+ops.bias+")")
	case ops.lod != "" && dref && img.Image.Dim != spirv.DimCube:
		args = append(args, "level("+ops.lod+")")
	case ops.lod != "" && !dref:
		args = append(args, "level("+ops.lod+")")
	case ops.gradX != "":
		args = append(args, gradientName(img.Image.Dim)+"("+ops.gradX+", "+ops.gradY+")")
	}
	if ops.offset != "" {
		args = append(args, ops.offset)
	}
	fn := "sample"
	if dref {
		fn = "sample_compare"
	}
	expr := emit.Enclose(g.Expr(imgID)) + "." + fn + "(" + strings.Join(args, ", ") + ")"
	if img.Image.Depth && !dref {
		expr = g.TypeName(in.ResultType) + "(" + expr + ")"
	}
	g.Bind(in, expr)
	return nil
}

// lowerRead handles OpImageFetch on sampled images and OpImageRead on
// storage images.
func (w *writer) lowerRead(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	img := imageOf(g, imgID)
	args := texelCoords(g, img, in.Arg(1))
	ops := readImageOperands(g, in)
	switch {
	case img.Image.MS && ops.sample != "":
		args = append(args, "uint("+ops.sample+")")
	case ops.lod != "" && img.Image.Dim != spirv.DimBuffer:
		args = append(args, "uint("+ops.lod+")")
	case in.Op == spirv.OpImageFetch && !img.Image.MS && img.Image.Dim != spirv.DimBuffer:
		args = append(args, "0")
	}
	expr := emit.Enclose(g.Expr(imgID)) + ".read(" + strings.Join(args, ", ") + ")"
	if img.Image.Depth {
		expr = g.TypeName(in.ResultType) + "(" + expr + ")"
	}
	g.Bind(in, expr)
	return nil
}

func (w *writer) lowerWrite(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	img := imageOf(g, imgID)
	args := append([]string{g.Expr(in.Arg(2))}, texelCoords(g, img, in.Arg(1))...)
	g.Out.Line("%s.write(%s);", emit.Enclose(g.Expr(imgID)), strings.Join(args, ", "))
	return nil
}

func (w *writer) lowerGather(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	img := imageOf(g, imgID)
	smp := w.samplerFor(g, imgID)
	if smp == "" {
		return cross.Unsupported("sampled image %d has no sampler", imgID)
	}
	args := append([]string{smp}, sampleCoords(g, img, in.Arg(1))...)
	ops := readImageOperands(g, in)
	var component uint32
	if k := g.M.Constant(in.Arg(2)); k != nil {
		component = k.ScalarU32()
	}
	if component > 3 {
		return cross.Invalid("gather component %d", component)
	}
	switch {
	case ops.offset != "":
		args = append(args, ops.offset)
	case component != 0:
		args = append(args, "int2(0)")
	}
	if component != 0 {
		args = append(args, "component::"+swizzle[component:component+1])
	}
	g.Bind(in, emit.Enclose(g.Expr(imgID))+".gather("+strings.Join(args, ", ")+")")
	return nil
}

func (w *writer) lowerQuery(g *emit.Generator, in *ir.Instruction) error {
	imgID := in.Arg(0)
	img := imageOf(g, imgID)
	expr := emit.Enclose(g.Expr(imgID))
	if in.Op == spirv.OpImageQueryLevels {
		g.Bind(in, g.TypeName(in.ResultType)+"("+expr+".get_num_mip_levels())")
		return nil
	}
	lod := ""
	if in.Op == spirv.OpImageQuerySizeLod && !img.Image.MS && img.Image.Dim != spirv.DimBuffer {
		lod = g.Expr(in.Arg(1))
	}
	var parts []string
	parts = append(parts, expr+".get_width("+lod+")")
	switch img.Image.Dim {
	case spirv.Dim2D, spirv.DimCube, spirv.DimRect:
		parts = append(parts, expr+".get_height("+lod+")")
	case spirv.Dim3D:
		parts = append(parts, expr+".get_height("+lod+")", expr+".get_depth("+lod+")")
	}
	if img.Image.Arrayed {
		parts = append(parts, expr+".get_array_size()")
	}
	g.Bind(in, g.TypeName(in.ResultType)+"("+strings.Join(parts, ", ")+")")
	return nil
}
