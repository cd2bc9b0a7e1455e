// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

func compile(t *testing.T, b *ir.Builder, opts Options) (string, *Compiler) {
	t.Helper()
	c, err := New(b.Module(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src, err := c.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return src, c
}

func compileErr(t *testing.T, b *ir.Builder, opts Options) error {
	t.Helper()
	c, err := New(b.Module(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Compile()
	if err == nil {
		t.Fatal("Compile succeeded, want an error")
	}
	return err
}

func mustContain(t *testing.T, src string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(src, w) {
			t.Errorf("output does not contain %q\n%s", w, src)
		}
	}
}

func mustNotContain(t *testing.T, src string, bad ...string) {
	t.Helper()
	for _, b := range bad {
		if strings.Contains(src, b) {
			t.Errorf("output contains %q\n%s", b, src)
		}
	}
}

// fragmentPassthrough builds a fragment shader copying vColor to
// FragColor.
func fragmentPassthrough() *ir.Builder {
	b := ir.NewBuilder()
	vec4 := b.Vector(b.Float(32), 4)
	in := b.Variable(spirv.StorageClassInput, vec4, "vColor")
	b.Decorate(in, spirv.DecorationLocation, 0)
	out := b.Variable(spirv.StorageClassOutput, vec4, "FragColor")
	b.Decorate(out, spirv.DecorationLocation, 0)

	fn := b.Function("main", b.Void())
	fn.Store(out, fn.Load(in))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main", in, out)
	return b
}

func TestCompileFragmentPassthrough(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    []string
		notWant []string
	}{
		{
			name: "GLSL 330 default",
			opts: Options{},
			want: []string{
				"#version 330 core\n",
				"\nin vec4 vColor;\n",
				"layout(location = 0) out vec4 FragColor;",
				"void main()\n{\n    FragColor = vColor;\n}\n",
			},
			notWant: []string{"precision"},
		},
		{
			name: "GLSL 450",
			opts: DefaultOptions(),
			want: []string{
				"#version 450 core\n",
				"layout(location = 0) in vec4 vColor;",
				"layout(location = 0) out vec4 FragColor;",
			},
		},
		{
			name: "GLSL ES 300",
			opts: Options{LangVersion: VersionES300},
			want: []string{
				"#version 300 es\n",
				"precision mediump float;",
				"precision highp int;",
				"\nin vec4 vColor;\n",
			},
		},
		{
			name: "GLSL ES 300 high precision",
			opts: Options{LangVersion: VersionES300, ForceHighPrecision: true},
			want: []string{"precision highp float;"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, c := compile(t, fragmentPassthrough(), tt.opts)
			mustContain(t, src, tt.want...)
			mustNotContain(t, src, tt.notWant...)
			if got := c.TranslationInfo().EntryPoint; got != "main" {
				t.Errorf("EntryPoint = %q, want main", got)
			}
		})
	}
}

func TestCompileIsRepeatable(t *testing.T) {
	c, err := New(fragmentPassthrough().Module(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	first, err := c.Compile()
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("second compilation differs:\n%s\n---\n%s", first, second)
	}
}

// uniformFragment writes ubo.tint * ubo.scale, reading the block from the
// given storage class.
func uniformFragment(storage spirv.StorageClass) *ir.Builder {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	vec4 := b.Vector(f32, 4)

	ubo := b.Struct("UBO", vec4, f32)
	b.MemberName(ubo, 0, "tint")
	b.MemberName(ubo, 1, "scale")
	b.MemberDecorate(ubo, 0, spirv.DecorationOffset, 0)
	b.MemberDecorate(ubo, 1, spirv.DecorationOffset, 16)
	b.Decorate(ubo, spirv.DecorationBlock)
	v := b.Variable(storage, ubo, "ubo")
	if storage == spirv.StorageClassUniform {
		b.Decorate(v, spirv.DecorationDescriptorSet, 1)
		b.Decorate(v, spirv.DecorationBinding, 2)
	}
	out := b.Variable(spirv.StorageClassOutput, vec4, "FragColor")
	b.Decorate(out, spirv.DecorationLocation, 0)

	fn := b.Function("main", b.Void())
	tint := fn.Load(fn.AccessChain(v, b.ConstantI32(0)))
	scale := fn.Load(fn.AccessChain(v, b.ConstantI32(1)))
	fn.Store(out, fn.Op(spirv.OpVectorTimesScalar, vec4, uint32(tint), uint32(scale)))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main", out)
	return b
}

func TestCompileUniformBlock(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    []string
		exts    []string
		notWant []string
	}{
		{
			name: "GLSL 450",
			opts: DefaultOptions(),
			want: []string{
				"layout(std140, binding = 2) uniform UBO\n{\n    vec4 tint;\n    float scale;\n} ubo;",
				"FragColor = ubo.tint * ubo.scale;",
			},
			notWant: []string{"set =", "#extension", "struct UBO"},
		},
		{
			name: "binding base",
			opts: Options{LangVersion: Version450, UniformBindingBase: 4},
			want: []string{"layout(std140, binding = 6) uniform UBO"},
		},
		{
			name: "GLSL 330 needs 420pack",
			opts: Options{LangVersion: Version330},
			want: []string{
				"#extension GL_ARB_shading_language_420pack : require",
				"layout(std140, binding = 2) uniform UBO",
			},
			exts: []string{"GL_ARB_shading_language_420pack"},
		},
		{
			name:    "GLSL ES 300 drops bindings",
			opts:    Options{LangVersion: VersionES300},
			want:    []string{"layout(std140) uniform UBO\n"},
			notWant: []string{"binding"},
		},
		{
			name: "Vulkan",
			opts: Options{LangVersion: Version450, VulkanSemantics: true},
			want: []string{"layout(std140, set = 1, binding = 2) uniform UBO\n"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, c := compile(t, uniformFragment(spirv.StorageClassUniform), tt.opts)
			mustContain(t, src, tt.want...)
			mustNotContain(t, src, tt.notWant...)
			for _, e := range tt.exts {
				if !slices.Contains(c.TranslationInfo().UsedExtensions, e) {
					t.Errorf("UsedExtensions = %v, want %s", c.TranslationInfo().UsedExtensions, e)
				}
			}
		})
	}
}

func TestCompilePushConstants(t *testing.T) {
	src, _ := compile(t, uniformFragment(spirv.StorageClassPushConstant), Options{LangVersion: Version450, VulkanSemantics: true})
	mustContain(t, src, "layout(push_constant, std430) uniform UBO\n{\n    vec4 tint;\n    float scale;\n} ubo;")

	src, _ = compile(t, uniformFragment(spirv.StorageClassPushConstant), DefaultOptions())
	mustContain(t, src,
		"struct UBO\n{\n    vec4 tint;\n    float scale;\n};",
		"uniform UBO ubo;",
		"FragColor = ubo.tint * ubo.scale;",
	)
	mustNotContain(t, src, "push_constant")
}

// offsetBlock declares a uniform block whose second member sits past its
// std140 offset.
func offsetBlock() *ir.Builder {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	vec4 := b.Vector(f32, 4)

	st := b.Struct("Params", vec4, f32)
	b.MemberName(st, 0, "color")
	b.MemberName(st, 1, "gain")
	b.MemberDecorate(st, 0, spirv.DecorationOffset, 0)
	b.MemberDecorate(st, 1, spirv.DecorationOffset, 32)
	b.Decorate(st, spirv.DecorationBlock)
	v := b.Variable(spirv.StorageClassUniform, st, "params")
	b.Decorate(v, spirv.DecorationBinding, 0)
	out := b.Variable(spirv.StorageClassOutput, vec4, "FragColor")
	b.Decorate(out, spirv.DecorationLocation, 0)

	fn := b.Function("main", b.Void())
	c := fn.Load(fn.AccessChain(v, b.ConstantI32(0)))
	g := fn.Load(fn.AccessChain(v, b.ConstantI32(1)))
	fn.Store(out, fn.Op(spirv.OpVectorTimesScalar, vec4, uint32(c), uint32(g)))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main", out)
	return b
}

func TestCompileExplicitOffsets(t *testing.T) {
	src, c := compile(t, offsetBlock(), Options{LangVersion: Version430})
	mustContain(t, src,
		"#extension GL_ARB_enhanced_layouts : require",
		"layout(std140, binding = 0) uniform Params\n{\n    layout(offset = 0) vec4 color;\n    layout(offset = 32) float gain;\n} params;",
	)
	if !slices.Contains(c.TranslationInfo().UsedExtensions, "GL_ARB_enhanced_layouts") {
		t.Errorf("UsedExtensions = %v", c.TranslationInfo().UsedExtensions)
	}

	src, _ = compile(t, offsetBlock(), Options{LangVersion: Version450})
	mustContain(t, src, "layout(offset = 32) float gain;")
	mustNotContain(t, src, "GL_ARB_enhanced_layouts")

	err := compileErr(t, offsetBlock(), Options{LangVersion: VersionES310})
	if !cross.IsKind(err, cross.ErrUnsupportedInput) {
		t.Errorf("error kind = %v, want UnsupportedInput: %v", cross.KindOf(err), err)
	}
}

// computeCounter increments buf.count, accumulates into a shared tally and
// stores the runtime array length into buf.data[0].
func computeCounter() *ir.Builder {
	b := ir.NewBuilder()
	u32 := b.Int(32, false)
	rt := b.RuntimeArray(u32)
	b.Decorate(rt, spirv.DecorationArrayStride, 4)
	st := b.Struct("Counter", u32, rt)
	b.MemberName(st, 0, "count")
	b.MemberName(st, 1, "data")
	b.MemberDecorate(st, 0, spirv.DecorationOffset, 0)
	b.MemberDecorate(st, 1, spirv.DecorationOffset, 4)
	b.Decorate(st, spirv.DecorationBlock)
	buf := b.Variable(spirv.StorageClassStorageBuffer, st, "buf")
	b.Decorate(buf, spirv.DecorationDescriptorSet, 0)
	b.Decorate(buf, spirv.DecorationBinding, 0)
	tally := b.Variable(spirv.StorageClassWorkgroup, u32, "tally")

	scope := b.ConstantU32(1)
	workgroup := b.ConstantU32(2)
	relaxed := b.ConstantU32(0)
	acqRelShared := b.ConstantU32(0x108)

	fn := b.Function("main", b.Void())
	count := fn.AccessChain(buf, b.ConstantI32(0))
	fn.Op(spirv.OpAtomicIIncrement, u32, uint32(count), uint32(scope), uint32(relaxed))
	fn.Op(spirv.OpAtomicIAdd, u32, uint32(tally), uint32(workgroup), uint32(relaxed), uint32(b.ConstantU32(2)))
	fn.Op(spirv.OpControlBarrier, 0, uint32(workgroup), uint32(workgroup), uint32(acqRelShared))
	length := fn.Op(spirv.OpArrayLength, u32, uint32(buf), 1)
	fn.Store(fn.AccessChain(buf, b.ConstantI32(1), b.ConstantI32(0)), length)
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelGLCompute, fn.ID(), "main").LocalSize(64, 1, 1)
	return b
}

func TestCompileCompute(t *testing.T) {
	src, _ := compile(t, computeCounter(), Options{LangVersion: Version430})
	mustContain(t, src,
		"#version 430 core\n",
		"layout(local_size_x = 64, local_size_y = 1, local_size_z = 1) in;",
		"layout(std430, binding = 0) buffer Counter\n{\n    uint count;\n    uint data[];\n} buf;",
		"shared uint tally;",
		"atomicAdd(buf.count, 1u);",
		"atomicAdd(tally, 2u);",
		"memoryBarrierShared();\n    barrier();",
		"uint(buf.data.length())",
	)
	mustNotContain(t, src, "struct Counter")
}

func TestCompileComputeRequiresVersion(t *testing.T) {
	for _, v := range []Version{Version330, VersionES300} {
		t.Run(v.String(), func(t *testing.T) {
			err := compileErr(t, computeCounter(), Options{LangVersion: v})
			if !cross.IsKind(err, cross.ErrUnsupportedInput) {
				t.Errorf("error kind = %v, want UnsupportedInput: %v", cross.KindOf(err), err)
			}
		})
	}
}

func TestCompileBarrierOutsideComputeFails(t *testing.T) {
	b := ir.NewBuilder()
	c := b.ConstantU32(2)
	fn := b.Function("main", b.Void())
	fn.Op(spirv.OpControlBarrier, 0, uint32(c), uint32(c), uint32(b.ConstantU32(0x108)))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main")

	err := compileErr(t, b, DefaultOptions())
	if !cross.IsKind(err, cross.ErrUnsupportedInput) {
		t.Errorf("error kind = %v, want UnsupportedInput: %v", cross.KindOf(err), err)
	}
}

// separateSampler samples image uTex with sampler uSmp.
func separateSampler() *ir.Builder {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	vec2 := b.Vector(f32, 2)
	vec4 := b.Vector(f32, 4)

	img := b.Image(f32, spirv.Dim2D, false, false, false, 1, spirv.ImageFormatUnknown)
	tex := b.Variable(spirv.StorageClassUniformConstant, img, "uTex")
	b.Decorate(tex, spirv.DecorationDescriptorSet, 0)
	b.Decorate(tex, spirv.DecorationBinding, 1)
	smp := b.Variable(spirv.StorageClassUniformConstant, b.Sampler(), "uSmp")
	b.Decorate(smp, spirv.DecorationDescriptorSet, 0)
	b.Decorate(smp, spirv.DecorationBinding, 2)

	uv := b.Variable(spirv.StorageClassInput, vec2, "vUV")
	b.Decorate(uv, spirv.DecorationLocation, 0)
	out := b.Variable(spirv.StorageClassOutput, vec4, "FragColor")
	b.Decorate(out, spirv.DecorationLocation, 0)

	fn := b.Function("main", b.Void())
	si := fn.Op(spirv.OpSampledImage, b.SampledImage(img), uint32(fn.Load(tex)), uint32(fn.Load(smp)))
	texel := fn.Op(spirv.OpImageSampleImplicitLod, vec4, uint32(si), uint32(fn.Load(uv)))
	fn.Store(out, texel)
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main", uv, out)
	return b
}

func TestCompileVulkanSeparateSamplers(t *testing.T) {
	src, c := compile(t, separateSampler(), Options{LangVersion: Version450, VulkanSemantics: true})
	mustContain(t, src,
		"layout(set = 0, binding = 1) uniform texture2D uTex;",
		"layout(set = 0, binding = 2) uniform sampler uSmp;",
		"FragColor = texture(sampler2D(uTex, uSmp), vUV);",
	)
	if n := len(c.TranslationInfo().TextureSamplerPairs); n != 0 {
		t.Errorf("TextureSamplerPairs = %v, want none", c.TranslationInfo().TextureSamplerPairs)
	}
}

func TestCompileCombinesSeparateSamplers(t *testing.T) {
	src, c := compile(t, separateSampler(), DefaultOptions())
	mustContain(t, src,
		"layout(binding = 1) uniform sampler2D SPIRV_Cross_CombineduTexuSmp;",
		"FragColor = texture(SPIRV_Cross_CombineduTexuSmp, vUV);",
	)
	mustNotContain(t, src, "texture2D", "uniform sampler uSmp")
	if got := c.TranslationInfo().TextureSamplerPairs; !slices.Equal(got, []string{"SPIRV_Cross_CombineduTexuSmp"}) {
		t.Errorf("TextureSamplerPairs = %v", got)
	}
}

// specScaled scales vColor by the specialization constant scale.
func specScaled() *ir.Builder {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	vec4 := b.Vector(f32, 4)
	scale := b.SpecConstant(f32, 0x3f800000, 3)
	b.Name(scale, "scale")
	in := b.Variable(spirv.StorageClassInput, vec4, "vColor")
	b.Decorate(in, spirv.DecorationLocation, 0)
	out := b.Variable(spirv.StorageClassOutput, vec4, "FragColor")
	b.Decorate(out, spirv.DecorationLocation, 0)

	fn := b.Function("main", b.Void())
	fn.Store(out, fn.Op(spirv.OpVectorTimesScalar, vec4, uint32(fn.Load(in)), uint32(scale)))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main", in, out)
	return b
}

func TestCompileSpecConstants(t *testing.T) {
	src, _ := compile(t, specScaled(), DefaultOptions())
	mustContain(t, src,
		"#ifndef SPIRV_CROSS_CONSTANT_ID_3\n#define SPIRV_CROSS_CONSTANT_ID_3 1.0\n#endif\nconst float scale = SPIRV_CROSS_CONSTANT_ID_3;",
		"FragColor = vColor * scale;",
	)

	src, _ = compile(t, specScaled(), Options{LangVersion: Version450, VulkanSemantics: true})
	mustContain(t, src, "layout(constant_id = 3) const float scale = 1.0;")
	mustNotContain(t, src, "SPIRV_CROSS_CONSTANT_ID")
}

// vertexPosition copies aPos to gl_Position.
func vertexPosition() *ir.Builder {
	b := ir.NewBuilder()
	vec4 := b.Vector(b.Float(32), 4)
	pos := b.Variable(spirv.StorageClassInput, vec4, "aPos")
	b.Decorate(pos, spirv.DecorationLocation, 0)
	glPos := b.Variable(spirv.StorageClassOutput, vec4, "gl_Position")
	b.Decorate(glPos, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPosition))

	fn := b.Function("main", b.Void())
	fn.Store(glPos, fn.Load(pos))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelVertex, fn.ID(), "main", pos, glPos)
	return b
}

func TestCompileVertexClipSpace(t *testing.T) {
	src, _ := compile(t, vertexPosition(), DefaultOptions())
	mustContain(t, src,
		"layout(location = 0) in vec4 aPos;",
		"void main()\n{\n    gl_Position = aPos;\n}\n",
	)
	mustNotContain(t, src, "out vec4 gl_Position", "_gl_Position")

	opts := DefaultOptions()
	opts.FlipVertexY = true
	opts.FixupClipSpace = true
	src, _ = compile(t, vertexPosition(), opts)
	mustContain(t, src, "    gl_Position = aPos;\n"+
		"    gl_Position.z = 2.0 * gl_Position.z - gl_Position.w;\n"+
		"    gl_Position.y = -gl_Position.y;\n}\n")
}

// instanceIndex forwards the instance index to a flat varying.
func instanceIndex() *ir.Builder {
	b := ir.NewBuilder()
	i32 := b.Int(32, true)
	idx := b.Variable(spirv.StorageClassInput, i32, "")
	b.Decorate(idx, spirv.DecorationBuiltIn, uint32(spirv.BuiltInInstanceIndex))
	out := b.Variable(spirv.StorageClassOutput, i32, "vInstance")
	b.Decorate(out, spirv.DecorationLocation, 0)
	b.Decorate(out, spirv.DecorationFlat)

	fn := b.Function("main", b.Void())
	fn.Store(out, fn.Load(idx))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelVertex, fn.ID(), "main", idx, out)
	return b
}

func TestCompileInstanceIndex(t *testing.T) {
	src, _ := compile(t, instanceIndex(), DefaultOptions())
	mustContain(t, src,
		"layout(location = 0) flat out int vInstance;",
		"uniform int SPIRV_Cross_BaseInstance;",
		"vInstance = (gl_InstanceID + SPIRV_Cross_BaseInstance);",
	)

	src, _ = compile(t, instanceIndex(), Options{LangVersion: Version450, VulkanSemantics: true})
	mustContain(t, src, "vInstance = gl_InstanceIndex;")
	mustNotContain(t, src, "SPIRV_Cross_BaseInstance")
}

func TestCompileVectorRelations(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	vec4 := b.Vector(f32, 4)
	bvec4 := b.Vector(b.Bool(), 4)
	a := b.Variable(spirv.StorageClassInput, vec4, "vA")
	b.Decorate(a, spirv.DecorationLocation, 0)
	c := b.Variable(spirv.StorageClassInput, vec4, "vB")
	b.Decorate(c, spirv.DecorationLocation, 1)
	out := b.Variable(spirv.StorageClassOutput, vec4, "FragColor")
	b.Decorate(out, spirv.DecorationLocation, 0)

	fn := b.Function("main", b.Void())
	x, y := fn.Load(a), fn.Load(c)
	less := fn.Op(spirv.OpFOrdLessThan, bvec4, uint32(x), uint32(y))
	fn.Store(out, fn.Op(spirv.OpSelect, vec4, uint32(less), uint32(x), uint32(y)))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main", a, c, out)

	src, _ := compile(t, b, DefaultOptions())
	mustContain(t, src, "lessThan(", "mix(")
	mustNotContain(t, src, " < ", " ? ")
}

func TestCompileRejectsGeometryShaders(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.Function("main", b.Void())
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelGeometry, fn.ID(), "main")

	err := compileErr(t, b, DefaultOptions())
	if !cross.IsKind(err, cross.ErrUnsupportedInput) {
		t.Errorf("error kind = %v, want UnsupportedInput: %v", cross.KindOf(err), err)
	}
}

func TestVersionString(t *testing.T) {
	tests := []struct {
		v    Version
		want string
	}{
		{Version330, "330 core"},
		{Version450, "450 core"},
		{VersionES300, "300 es"},
		{VersionES310, "310 es"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestVersionFeatures(t *testing.T) {
	tests := []struct {
		v                          Version
		compute, bindings, varying bool
	}{
		{Version330, false, false, false},
		{Version410, false, false, true},
		{Version420, false, true, true},
		{Version430, true, true, true},
		{VersionES300, false, false, false},
		{VersionES310, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.v.String(), func(t *testing.T) {
			if got := tt.v.SupportsCompute(); got != tt.compute {
				t.Errorf("SupportsCompute = %v", got)
			}
			if got := tt.v.SupportsBindings(); got != tt.bindings {
				t.Errorf("SupportsBindings = %v", got)
			}
			if got := tt.v.SupportsVaryingLocations(); got != tt.varying {
				t.Errorf("SupportsVaryingLocations = %v", got)
			}
		})
	}
}
