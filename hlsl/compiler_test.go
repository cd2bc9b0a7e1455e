// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
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

func wantUnsupported(t *testing.T, err error) {
	t.Helper()
	if !cross.IsKind(err, cross.ErrUnsupportedInput) {
		t.Errorf("error kind = %v, want UnsupportedInput: %v", cross.KindOf(err), err)
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
	src, c := compile(t, fragmentPassthrough(), DefaultOptions())
	mustContain(t, src,
		"static float4 vColor;\nstatic float4 FragColor;\n",
		"struct SPIRV_Cross_Input\n{\n    float4 vColor : TEXCOORD0;\n};",
		"struct SPIRV_Cross_Output\n{\n    float4 FragColor : SV_Target0;\n};",
		"void frag_main()\n{\n    FragColor = vColor;\n}\n",
		"SPIRV_Cross_Output main(SPIRV_Cross_Input stage_input)\n{\n"+
			"    vColor = stage_input.vColor;\n"+
			"    frag_main();\n"+
			"    SPIRV_Cross_Output stage_output;\n"+
			"    stage_output.FragColor = FragColor;\n"+
			"    return stage_output;\n}\n",
	)
	mustNotContain(t, src, "spvMod")

	info := c.TranslationInfo()
	if info.EntryPoint != "main" {
		t.Errorf("EntryPoint = %q, want main", info.EntryPoint)
	}
	if info.Profile != "ps_5_1" {
		t.Errorf("Profile = %q, want ps_5_1", info.Profile)
	}
	if info.UsedFeatures != FeatureNone {
		t.Errorf("UsedFeatures = %v, want none", info.UsedFeatures)
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

func TestCompileInterpolation(t *testing.T) {
	b := ir.NewBuilder()
	vec4 := b.Vector(b.Float(32), 4)
	in := b.Variable(spirv.StorageClassInput, vec4, "vColor")
	b.Decorate(in, spirv.DecorationLocation, 2)
	b.Decorate(in, spirv.DecorationNoPerspective)
	// No location: numbered after the highest declared one.
	extra := b.Variable(spirv.StorageClassInput, vec4, "vExtra")
	b.Decorate(extra, spirv.DecorationFlat)
	out := b.Variable(spirv.StorageClassOutput, vec4, "FragColor")
	b.Decorate(out, spirv.DecorationLocation, 1)

	fn := b.Function("main", b.Void())
	fn.Store(out, fn.Op(spirv.OpFAdd, vec4, uint32(fn.Load(in)), uint32(fn.Load(extra))))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main", in, extra, out)

	src, _ := compile(t, b, DefaultOptions())
	mustContain(t, src,
		"    noperspective float4 vColor : TEXCOORD2;\n    nointerpolation float4 vExtra : TEXCOORD3;\n",
		"float4 FragColor : SV_Target1;",
		"FragColor = vColor + vExtra;",
	)
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

func TestCompileConstantBuffer(t *testing.T) {
	tests := []struct {
		name     string
		opts     func() Options
		want     []string
		register string
	}{
		{
			name: "SM 5.1 keeps the space",
			opts: DefaultOptions,
			want: []string{
				"cbuffer UBO : register(b2, space1)\n{\n    float4 ubo_tint;\n    float ubo_scale;\n};",
				"FragColor = ubo_tint * ubo_scale;",
			},
			register: "register(b2, space1)",
		},
		{
			name: "binding map",
			opts: func() Options {
				o := DefaultOptions()
				o.BindingMap[ResourceBinding{Group: 1, Binding: 2}] = BindTarget{Register: 7}
				return o
			},
			want:     []string{"cbuffer UBO : register(b7)"},
			register: "register(b7)",
		},
		{
			name: "SM 5.0 without a space",
			opts: func() Options {
				o := DefaultOptions()
				o.ShaderModel = ShaderModel5_0
				o.BindingMap[ResourceBinding{Group: 1, Binding: 2}] = BindTarget{Register: 3}
				return o
			},
			want:     []string{"cbuffer UBO : register(b3)\n"},
			register: "register(b3)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, c := compile(t, uniformFragment(spirv.StorageClassUniform), tt.opts())
			mustContain(t, src, tt.want...)
			mustNotContain(t, src, "struct UBO", "packoffset")
			if got := c.TranslationInfo().RegisterBindings["ubo"]; got != tt.register {
				t.Errorf("RegisterBindings[ubo] = %q, want %q", got, tt.register)
			}
		})
	}
}

func TestCompileSpaceNeedsShaderModel51(t *testing.T) {
	opts := DefaultOptions()
	opts.ShaderModel = ShaderModel5_0
	wantUnsupported(t, compileErr(t, uniformFragment(spirv.StorageClassUniform), opts))
}

func TestCompileSetResourceBinding(t *testing.T) {
	c, err := New(uniformFragment(spirv.StorageClassUniform).Module(), Options{ShaderModel: ShaderModel6_0})
	if err != nil {
		t.Fatal(err)
	}
	c.SetResourceBinding(1, 2, DefaultBindTarget().WithSpace(4).WithRegister(5))
	src, err := c.Compile()
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, src, "cbuffer UBO : register(b5, space4)")
	if got := c.TranslationInfo().Profile; got != "ps_6_0" {
		t.Errorf("Profile = %q, want ps_6_0", got)
	}
}

func TestCompilePushConstants(t *testing.T) {
	src, _ := compile(t, uniformFragment(spirv.StorageClassPushConstant), DefaultOptions())
	mustContain(t, src, "cbuffer UBO : register(b0)")

	opts := DefaultOptions()
	opts.PushConstants = &BindTarget{Space: 3, Register: 1}
	src, _ = compile(t, uniformFragment(spirv.StorageClassPushConstant), opts)
	mustContain(t, src, "cbuffer UBO : register(b1, space3)")
}

// offsetBlock declares a uniform block whose second member sits past its
// natural cbuffer offset.
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

func TestCompilePackOffset(t *testing.T) {
	src, _ := compile(t, offsetBlock(), DefaultOptions())
	mustContain(t, src,
		"cbuffer Params : register(b0)\n{\n"+
			"    float4 params_color : packoffset(c0);\n"+
			"    float params_gain : packoffset(c2);\n};",
		"FragColor = params_color * params_gain;",
	)
}

// transformVertex writes mvp * aPos to gl_Position.
func transformVertex() *ir.Builder {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	vec4 := b.Vector(f32, 4)
	mat4 := b.Matrix(vec4, 4)

	st := b.Struct("Transform", mat4)
	b.MemberName(st, 0, "mvp")
	b.MemberDecorate(st, 0, spirv.DecorationOffset, 0)
	b.MemberDecorate(st, 0, spirv.DecorationColMajor)
	b.MemberDecorate(st, 0, spirv.DecorationMatrixStride, 16)
	b.Decorate(st, spirv.DecorationBlock)
	ubo := b.Variable(spirv.StorageClassUniform, st, "xform")
	b.Decorate(ubo, spirv.DecorationBinding, 0)

	pos := b.Variable(spirv.StorageClassInput, vec4, "aPos")
	b.Decorate(pos, spirv.DecorationLocation, 0)
	glPos := b.Variable(spirv.StorageClassOutput, vec4, "gl_Position")
	b.Decorate(glPos, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPosition))

	fn := b.Function("main", b.Void())
	m := fn.Load(fn.AccessChain(ubo, b.ConstantI32(0)))
	fn.Store(glPos, fn.Op(spirv.OpMatrixTimesVector, vec4, uint32(m), uint32(fn.Load(pos))))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelVertex, fn.ID(), "main", pos, glPos)
	return b
}

func TestCompileVertexMatrix(t *testing.T) {
	src, c := compile(t, transformVertex(), DefaultOptions())
	mustContain(t, src,
		"    row_major float4x4 xform_mvp;\n",
		"static float4 gl_Position;",
		"float4 aPos : TEXCOORD0;",
		"float4 gl_Position : SV_Position;",
		"void vert_main()\n{\n    gl_Position = mul(aPos, xform_mvp);\n}\n",
		"    vert_main();\n    SPIRV_Cross_Output stage_output;\n    stage_output.gl_Position = gl_Position;\n",
	)
	mustNotContain(t, src, "_gl_Position", "gl_Position.y = -")
	if got := c.TranslationInfo().Profile; got != "vs_5_1" {
		t.Errorf("Profile = %q, want vs_5_1", got)
	}

	opts := DefaultOptions()
	opts.FlipVertexY = true
	opts.FixupClipSpace = true
	src, _ = compile(t, transformVertex(), opts)
	mustContain(t, src, "    vert_main();\n"+
		"    gl_Position.z = (gl_Position.z + gl_Position.w) * 0.5;\n"+
		"    gl_Position.y = -gl_Position.y;\n")
}

// computeBuffer increments data[0] of a buffer holding only a runtime
// array, accumulates into a shared tally and stores the array length
// into data[1].
func computeBuffer() *ir.Builder {
	b := ir.NewBuilder()
	u32 := b.Int(32, false)
	rt := b.RuntimeArray(u32)
	b.Decorate(rt, spirv.DecorationArrayStride, 4)
	st := b.Struct("Data", rt)
	b.MemberName(st, 0, "values")
	b.MemberDecorate(st, 0, spirv.DecorationOffset, 0)
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
	first := fn.AccessChain(buf, b.ConstantI32(0), b.ConstantI32(0))
	fn.Op(spirv.OpAtomicIIncrement, u32, uint32(first), uint32(scope), uint32(relaxed))
	fn.Op(spirv.OpAtomicIAdd, u32, uint32(tally), uint32(workgroup), uint32(relaxed), uint32(b.ConstantU32(2)))
	fn.Op(spirv.OpControlBarrier, 0, uint32(workgroup), uint32(workgroup), uint32(acqRelShared))
	length := fn.Op(spirv.OpArrayLength, u32, uint32(buf), 0)
	fn.Store(fn.AccessChain(buf, b.ConstantI32(0), b.ConstantI32(1)), length)
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelGLCompute, fn.ID(), "main").LocalSize(64, 1, 1)
	return b
}

func TestCompileCompute(t *testing.T) {
	src, c := compile(t, computeBuffer(), DefaultOptions())
	mustContain(t, src,
		"RWStructuredBuffer<uint> buf : register(u0);",
		"groupshared uint tally;",
		"InterlockedAdd(buf[0], 1);",
		"InterlockedAdd(tally, 2u);",
		"GroupMemoryBarrierWithGroupSync();",
		"buf.GetDimensions(",
		"[numthreads(64, 1, 1)]\nvoid main()\n{\n    comp_main();\n}\n",
	)
	mustNotContain(t, src, "struct Data", "SPIRV_Cross_Input")
	if got := c.TranslationInfo().Profile; got != "cs_5_1" {
		t.Errorf("Profile = %q, want cs_5_1", got)
	}
}

func TestCompileReadOnlyBuffer(t *testing.T) {
	b := computeBuffer()
	m := b.Module()
	for _, id := range m.Declarations {
		if v := m.Variable(id); v != nil && v.Storage == spirv.StorageClassStorageBuffer {
			b.Decorate(id, spirv.DecorationNonWritable)
		}
	}
	src, _ := compile(t, b, DefaultOptions())
	mustContain(t, src, "StructuredBuffer<uint> buf : register(t0);")
	mustNotContain(t, src, "RWStructuredBuffer")
}

func TestCompileBarrierOutsideComputeFails(t *testing.T) {
	b := ir.NewBuilder()
	c := b.ConstantU32(2)
	fn := b.Function("main", b.Void())
	fn.Op(spirv.OpControlBarrier, 0, uint32(c), uint32(c), uint32(b.ConstantU32(0x108)))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main")

	wantUnsupported(t, compileErr(t, b, DefaultOptions()))
}

func TestCompileMixedStorageBufferFails(t *testing.T) {
	b := ir.NewBuilder()
	u32 := b.Int(32, false)
	rt := b.RuntimeArray(u32)
	b.Decorate(rt, spirv.DecorationArrayStride, 4)
	st := b.Struct("Counter", u32, rt)
	b.MemberDecorate(st, 0, spirv.DecorationOffset, 0)
	b.MemberDecorate(st, 1, spirv.DecorationOffset, 4)
	b.Decorate(st, spirv.DecorationBlock)
	buf := b.Variable(spirv.StorageClassStorageBuffer, st, "buf")
	b.Decorate(buf, spirv.DecorationBinding, 0)

	fn := b.Function("main", b.Void())
	fn.Store(fn.AccessChain(buf, b.ConstantI32(0)), b.ConstantU32(1))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelGLCompute, fn.ID(), "main").LocalSize(1, 1, 1)

	wantUnsupported(t, compileErr(t, b, DefaultOptions()))
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

func TestCompileSeparateSampler(t *testing.T) {
	src, c := compile(t, separateSampler(), DefaultOptions())
	mustContain(t, src,
		"Texture2D<float4> uTex : register(t1);",
		"SamplerState uSmp : register(s2);",
		"FragColor = uTex.Sample(uSmp, vUV);",
	)
	regs := c.TranslationInfo().RegisterBindings
	if regs["uTex"] != "register(t1)" || regs["uSmp"] != "register(s2)" {
		t.Errorf("RegisterBindings = %v", regs)
	}
}

// combinedSampler samples the combined image-sampler uTex, which has no
// binding.
func combinedSampler() *ir.Builder {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	vec2 := b.Vector(f32, 2)
	vec4 := b.Vector(f32, 4)

	img := b.Image(f32, spirv.Dim2D, false, false, false, 1, spirv.ImageFormatUnknown)
	tex := b.Variable(spirv.StorageClassUniformConstant, b.SampledImage(img), "uTex")
	uv := b.Variable(spirv.StorageClassInput, vec2, "vUV")
	b.Decorate(uv, spirv.DecorationLocation, 0)
	out := b.Variable(spirv.StorageClassOutput, vec4, "FragColor")
	b.Decorate(out, spirv.DecorationLocation, 0)

	fn := b.Function("main", b.Void())
	fn.Store(out, fn.Op(spirv.OpImageSampleImplicitLod, vec4, uint32(fn.Load(tex)), uint32(fn.Load(uv))))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main", uv, out)
	return b
}

func TestCompileCombinedSamplerSplit(t *testing.T) {
	src, c := compile(t, combinedSampler(), DefaultOptions())
	mustContain(t, src,
		"Texture2D<float4> uTex : register(t0);\nSamplerState _uTex_sampler : register(s0);",
		"FragColor = uTex.Sample(_uTex_sampler, vUV);",
	)
	if got := c.TranslationInfo().RegisterBindings["_uTex_sampler"]; got != "register(s0)" {
		t.Errorf("RegisterBindings[_uTex_sampler] = %q", got)
	}
}

func TestCompileImplicitSampleOutsideFragmentFails(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	vec2 := b.Vector(f32, 2)
	vec4 := b.Vector(f32, 4)
	img := b.Image(f32, spirv.Dim2D, false, false, false, 1, spirv.ImageFormatUnknown)
	tex := b.Variable(spirv.StorageClassUniformConstant, b.SampledImage(img), "uTex")
	glPos := b.Variable(spirv.StorageClassOutput, vec4, "gl_Position")
	b.Decorate(glPos, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPosition))

	fn := b.Function("main", b.Void())
	coord := b.ConstantComposite(vec2, b.ConstantF32(0), b.ConstantF32(0))
	fn.Store(glPos, fn.Op(spirv.OpImageSampleImplicitLod, vec4, uint32(fn.Load(tex)), uint32(coord)))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelVertex, fn.ID(), "main", glPos)

	wantUnsupported(t, compileErr(t, b, DefaultOptions()))
}

// halfPrecision round-trips vColor through a 16-bit vector.
func halfPrecision() *ir.Builder {
	b := ir.NewBuilder()
	vec4 := b.Vector(b.Float(32), 4)
	half4 := b.Vector(b.Float(16), 4)
	in := b.Variable(spirv.StorageClassInput, vec4, "vColor")
	b.Decorate(in, spirv.DecorationLocation, 0)
	out := b.Variable(spirv.StorageClassOutput, vec4, "FragColor")
	b.Decorate(out, spirv.DecorationLocation, 0)

	fn := b.Function("main", b.Void())
	h := fn.Op(spirv.OpFConvert, half4, uint32(fn.Load(in)))
	fn.Store(out, fn.Op(spirv.OpFConvert, vec4, uint32(h)))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main", in, out)
	return b
}

func TestCompileHalfPrecision(t *testing.T) {
	wantUnsupported(t, compileErr(t, halfPrecision(), DefaultOptions()))

	src, c := compile(t, halfPrecision(), Options{ShaderModel: ShaderModel6_2})
	mustContain(t, src, "half4(vColor)")
	info := c.TranslationInfo()
	if !info.UsedFeatures.Has(FeatureFloat16) {
		t.Errorf("UsedFeatures = %v, want Float16", info.UsedFeatures)
	}
	if info.RequiredShaderModel != ShaderModel6_2 {
		t.Errorf("RequiredShaderModel = %v, want 6.2", info.RequiredShaderModel)
	}
}

func TestCompileEarlyDepthStencil(t *testing.T) {
	b := fragmentPassthrough()
	for _, ep := range b.Module().EntryPoints {
		ep.Modes.Set(uint32(spirv.ExecutionModeEarlyFragmentTests))
	}
	src, _ := compile(t, b, DefaultOptions())
	mustContain(t, src, "[earlydepthstencil]\nSPIRV_Cross_Output main(")
}

func TestCompileFragCoord(t *testing.T) {
	b := ir.NewBuilder()
	vec4 := b.Vector(b.Float(32), 4)
	coord := b.Variable(spirv.StorageClassInput, vec4, "")
	b.Decorate(coord, spirv.DecorationBuiltIn, uint32(spirv.BuiltInFragCoord))
	out := b.Variable(spirv.StorageClassOutput, vec4, "FragColor")
	b.Decorate(out, spirv.DecorationLocation, 0)

	fn := b.Function("main", b.Void())
	fn.Store(out, fn.Load(coord))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main", coord, out)

	src, _ := compile(t, b, DefaultOptions())
	mustContain(t, src,
		"float4 gl_FragCoord : SV_Position;",
		"    gl_FragCoord = stage_input.gl_FragCoord;\n    gl_FragCoord.w = 1.0 / gl_FragCoord.w;\n    frag_main();\n",
		"FragColor = gl_FragCoord;",
	)
}

func TestCompileRejectsGeometryShaders(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.Function("main", b.Void())
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelGeometry, fn.ID(), "main")

	wantUnsupported(t, compileErr(t, b, DefaultOptions()))
}

func TestCompileWithoutEntryPoint(t *testing.T) {
	_, _, err := Compile(ir.NewBuilder().Module(), DefaultOptions())
	if err == nil {
		t.Fatal("Compile succeeded, want an error")
	}
}
