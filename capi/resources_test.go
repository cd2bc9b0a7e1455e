package capi

import (
	"math"
	"strings"
	"testing"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// tintedFragment scales vColor by ubo.tint. A second uniform block is
// declared but never read, and a specialization constant is declared.
func tintedFragment() (b *ir.Builder, ubo, spare, gain ir.ID) {
	b = ir.NewBuilder()
	f32 := b.Float(32)
	vec4 := b.Vector(f32, 4)

	st := b.Struct("UBO", vec4, f32)
	b.MemberName(st, 0, "tint")
	b.MemberName(st, 1, "scale")
	b.MemberDecorate(st, 0, spirv.DecorationOffset, 0)
	b.MemberDecorate(st, 1, spirv.DecorationOffset, 16)
	b.Decorate(st, spirv.DecorationBlock)
	ubo = b.Variable(spirv.StorageClassUniform, st, "ubo")
	b.Decorate(ubo, spirv.DecorationDescriptorSet, 0)
	b.Decorate(ubo, spirv.DecorationBinding, 0)
	spare = b.Variable(spirv.StorageClassUniform, st, "spare")
	b.Decorate(spare, spirv.DecorationDescriptorSet, 0)
	b.Decorate(spare, spirv.DecorationBinding, 1)

	gain = b.SpecConstant(f32, uint64(math.Float32bits(0.5)), 3)
	b.Name(gain, "gain")

	in := b.Variable(spirv.StorageClassInput, vec4, "vColor")
	b.Decorate(in, spirv.DecorationLocation, 0)
	out := b.Variable(spirv.StorageClassOutput, vec4, "FragColor")
	b.Decorate(out, spirv.DecorationLocation, 0)

	fn := b.Function("main", b.Void())
	tint := fn.Load(fn.AccessChain(ubo, b.ConstantI32(0)))
	fn.Store(out, fn.Op(spirv.OpFMul, vec4, uint32(fn.Load(in)), uint32(tint)))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main", in, out)
	return b, ubo, spare, gain
}

func resourceNames(t *testing.T, ctx *Context, r Resources, typ ResourceType) []string {
	t.Helper()
	list, res := ctx.ResourcesGetResourceListForType(r, typ)
	if res != Success {
		t.Fatalf("ResourcesGetResourceListForType = %v: %s", res, ctx.LastErrorString())
	}
	var names []string
	for _, r := range list {
		names = append(names, r.Name)
	}
	return names
}

func TestShaderResources(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	b, _, _, _ := tintedFragment()
	c := newCompiler(t, ctx, b, BackendNone)

	r, res := ctx.CompilerCreateShaderResources(c)
	wantResult(t, "CompilerCreateShaderResources", res, Success)

	if got := resourceNames(t, ctx, r, ResourceTypeUniformBuffer); len(got) != 2 || got[0] != "ubo" || got[1] != "spare" {
		t.Errorf("uniform buffers = %v", got)
	}
	if got := resourceNames(t, ctx, r, ResourceTypeStageInput); len(got) != 1 || got[0] != "vColor" {
		t.Errorf("stage inputs = %v", got)
	}
	if got := resourceNames(t, ctx, r, ResourceTypeStorageBuffer); len(got) != 0 {
		t.Errorf("storage buffers = %v", got)
	}
	if builtins, res := ctx.ResourcesGetBuiltinResourceListForType(r, BuiltinResourceTypeStageOutput); res != Success || len(builtins) != 0 {
		t.Errorf("builtin outputs = %v, %v", builtins, res)
	}

	_, res = ctx.ResourcesGetResourceListForType(r, ResourceType(99))
	wantResult(t, "invalid resource type", res, ErrorInvalidArgument)
	_, res = ctx.ResourcesGetBuiltinResourceListForType(r, BuiltinResourceTypeUnknown)
	wantResult(t, "invalid builtin type", res, ErrorInvalidArgument)
}

func TestActiveInterfaceVariables(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	b, _, _, _ := tintedFragment()
	c := newCompiler(t, ctx, b, BackendGLSL)

	active, res := ctx.CompilerGetActiveInterfaceVariables(c)
	wantResult(t, "CompilerGetActiveInterfaceVariables", res, Success)
	r, res := ctx.CompilerCreateShaderResourcesForActiveVariables(c, active)
	wantResult(t, "CompilerCreateShaderResourcesForActiveVariables", res, Success)
	if got := resourceNames(t, ctx, r, ResourceTypeUniformBuffer); len(got) != 1 || got[0] != "ubo" {
		t.Errorf("active uniform buffers = %v", got)
	}

	wantResult(t, "enable", ctx.CompilerSetEnabledInterfaceVariables(c, active), Success)
	src := mustCompile(t, ctx, c)
	if !containsAll(src, "uniform UBO", "} ubo;") || containsAll(src, "spare") {
		t.Errorf("output after restricting the interface:\n%s", src)
	}

	_, res = ctx.CompilerCreateShaderResourcesForActiveVariables(c, Set{})
	wantResult(t, "zero set", res, ErrorInvalidArgument)
}

func TestTypeQueries(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	b, _, _, _ := tintedFragment()
	c := newCompiler(t, ctx, b, BackendNone)

	r, _ := ctx.CompilerCreateShaderResources(c)
	list, _ := ctx.ResourcesGetResourceListForType(r, ResourceTypeUniformBuffer)
	if len(list) == 0 {
		t.Fatal("no uniform buffers")
	}
	typ, res := ctx.CompilerGetTypeHandle(c, list[0].BaseTypeID)
	wantResult(t, "CompilerGetTypeHandle", res, Success)

	if base, _ := ctx.TypeGetBaseType(typ); base != ir.BaseStruct {
		t.Errorf("base type = %v, want struct", base)
	}
	if n, _ := ctx.TypeGetNumMemberTypes(typ); n != 2 {
		t.Errorf("member count = %d, want 2", n)
	}
	member, res := ctx.TypeGetMemberType(typ, 0)
	wantResult(t, "TypeGetMemberType", res, Success)
	_, res = ctx.TypeGetMemberType(typ, 2)
	wantResult(t, "member out of range", res, ErrorInvalidArgument)

	vec, _ := ctx.CompilerGetTypeHandle(c, member)
	if size, _ := ctx.TypeGetVectorSize(vec); size != 4 {
		t.Errorf("vector size = %d, want 4", size)
	}
	if width, _ := ctx.TypeGetBitWidth(vec); width != 32 {
		t.Errorf("bit width = %d, want 32", width)
	}
	if dims, _ := ctx.TypeGetNumArrayDimensions(vec); dims != 0 {
		t.Errorf("array dimensions = %d", dims)
	}
	_, _, res = ctx.TypeGetArrayDimension(vec, 0)
	wantResult(t, "array dimension of a vector", res, ErrorInvalidArgument)
	_, res = ctx.TypeGetImage(vec)
	wantResult(t, "image of a vector", res, ErrorInvalidArgument)

	size, res := ctx.CompilerGetDeclaredStructSize(c, typ)
	if res != Success || size != 20 {
		t.Errorf("declared size = %d, %v; want 20", size, res)
	}
	if name, _ := ctx.CompilerGetMemberName(c, list[0].BaseTypeID, 1); name != "scale" {
		t.Errorf("member name = %q", name)
	}
	if off, _ := ctx.CompilerGetMemberDecoration(c, list[0].BaseTypeID, 1, spirv.DecorationOffset); off != 16 {
		t.Errorf("member offset = %d", off)
	}

	_, res = ctx.CompilerGetTypeHandle(c, list[0].ID)
	wantResult(t, "variable as type", res, ErrorInvalidArgument)
}

func TestDecorationsAndNames(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	b, ubo, _, _ := tintedFragment()
	c := newCompiler(t, ctx, b, BackendGLSL)

	wantResult(t, "set binding", ctx.CompilerSetDecoration(c, ubo, spirv.DecorationBinding, 5), Success)
	if got, _ := ctx.CompilerGetDecoration(c, ubo, spirv.DecorationBinding); got != 5 {
		t.Errorf("binding = %d, want 5", got)
	}
	wantResult(t, "rename", ctx.CompilerSetName(c, ubo, "params"), Success)
	if got, _ := ctx.CompilerGetName(c, ubo); got != "params" {
		t.Errorf("name = %q", got)
	}
	src := mustCompile(t, ctx, c)
	if !containsAll(src, "binding = 5", "} params;") {
		t.Errorf("output:\n%s", src)
	}

	wantResult(t, "unset", ctx.CompilerUnsetDecoration(c, ubo, spirv.DecorationBinding), Success)
	if has, _ := ctx.CompilerHasDecoration(c, ubo, spirv.DecorationBinding); has {
		t.Error("binding still set")
	}
}

func TestSpecializationConstants(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	b, _, _, gain := tintedFragment()
	c := newCompiler(t, ctx, b, BackendNone)

	consts, res := ctx.CompilerGetSpecializationConstants(c)
	wantResult(t, "CompilerGetSpecializationConstants", res, Success)
	if len(consts) != 1 || consts[0].ID != gain || consts[0].SpecID != 3 {
		t.Fatalf("specialization constants = %+v", consts)
	}

	k, res := ctx.CompilerGetConstantHandle(c, gain)
	wantResult(t, "CompilerGetConstantHandle", res, Success)
	bits, _ := ctx.ConstantGetScalar(k, 0, 0)
	if math.Float32frombits(uint32(bits)) != 0.5 {
		t.Errorf("default = %v, want 0.5", math.Float32frombits(uint32(bits)))
	}
	wantResult(t, "set", ctx.ConstantSetScalar(k, 0, 0, uint64(math.Float32bits(2))), Success)
	bits, _ = ctx.ConstantGetScalar(k, 0, 0)
	if math.Float32frombits(uint32(bits)) != 2 {
		t.Errorf("after set = %v, want 2", math.Float32frombits(uint32(bits)))
	}
	_, res = ctx.ConstantGetScalar(k, 1, 0)
	wantResult(t, "out of range", res, ErrorInvalidArgument)

	x, y, z, res := ctx.CompilerGetWorkgroupSizeSpecializationConstants(c)
	if res != Success || x.ID != 0 || y.ID != 0 || z.ID != 0 {
		t.Errorf("workgroup constants = %v %v %v, %v", x, y, z, res)
	}
}

func TestConstantSetScalarRejectsPlainConstants(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	b := fragmentPassthrough()
	one := b.ConstantU32(1)
	c := newCompiler(t, ctx, b, BackendNone)

	k, res := ctx.CompilerGetConstantHandle(c, one)
	wantResult(t, "CompilerGetConstantHandle", res, Success)
	wantResult(t, "set", ctx.ConstantSetScalar(k, 0, 0, 7), ErrorInvalidArgument)
	if typ, _ := ctx.ConstantGetType(k); typ == 0 {
		t.Error("constant has no type")
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
