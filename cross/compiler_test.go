package cross

import (
	"testing"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

func mustCompiler(t *testing.T, b *ir.Builder) *Compiler {
	t.Helper()
	c, err := New(b.Module())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// voidEntry declares an empty entry point function.
func voidEntry(b *ir.Builder, model spirv.ExecutionModel, name string, iface ...ir.ID) *ir.FunctionBuilder {
	fn := b.Function(name, b.Void())
	fn.Return()
	b.EntryPoint(model, fn.ID(), name, iface...)
	return fn
}

func TestNewRejectsDanglingReferences(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.Function("main", b.Void())
	fn.Store(ir.ID(900), ir.ID(901))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelVertex, fn.ID(), "main")

	_, err := New(b.Module())
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if KindOf(err) != ErrInvalidInput {
		t.Errorf("kind = %v, want InvalidInput", KindOf(err))
	}
	if _, err := New(nil); KindOf(err) != ErrInvalidArgument {
		t.Errorf("nil module: kind = %v, want InvalidArgument", KindOf(err))
	}
}

func TestDecorationRoundTrip(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	v := b.Variable(spirv.StorageClassInput, f32, "v")
	voidEntry(b, spirv.ExecutionModelFragment, "main", v)
	c := mustCompiler(t, b)

	c.SetDecoration(v, spirv.DecorationLocation, 3)
	if !c.HasDecoration(v, spirv.DecorationLocation) || c.Decoration(v, spirv.DecorationLocation) != 3 {
		t.Fatal("Location not recorded")
	}
	if !c.DecorationBitset(v).Get(uint32(spirv.DecorationLocation)) {
		t.Error("bitset missing Location")
	}
	c.UnsetDecoration(v, spirv.DecorationLocation)
	if c.HasDecoration(v, spirv.DecorationLocation) {
		t.Error("Location still present after unset")
	}
	if c.VariableType(v) != f32 {
		t.Errorf("VariableType = %d, want %d", c.VariableType(v), f32)
	}
}

func TestMemberQueriesResolveThroughArrays(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	s := b.Struct("S", f32, f32)
	b.MemberName(s, 1, "second")
	arr := b.Array(s, 4)
	c := mustCompiler(t, b)

	c.SetMemberDecoration(arr, 1, spirv.DecorationOffset, 4)
	if got := c.MemberDecoration(s, 1, spirv.DecorationOffset); got != 4 {
		t.Errorf("Offset via struct = %d, want 4", got)
	}
	if c.MemberName(arr, 1) != "second" {
		t.Errorf("MemberName = %q", c.MemberName(arr, 1))
	}
	if len(c.MemberTypes(arr)) != 2 {
		t.Errorf("MemberTypes = %v", c.MemberTypes(arr))
	}
}

func TestBuiltinBlockDetection(t *testing.T) {
	b := ir.NewBuilder()
	vec4 := b.Vector(b.Float(32), 4)
	perVertex := b.Struct("gl_PerVertex", vec4, b.Float(32))
	b.Decorate(perVertex, spirv.DecorationBlock)
	b.MemberDecorate(perVertex, 0, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPosition))
	b.MemberDecorate(perVertex, 1, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPointSize))
	out := b.Variable(spirv.StorageClassOutput, perVertex, "")
	idx := b.Variable(spirv.StorageClassInput, b.Int(32, true), "idx")
	b.Decorate(idx, spirv.DecorationBuiltIn, uint32(spirv.BuiltInVertexIndex))
	voidEntry(b, spirv.ExecutionModelVertex, "main", out, idx)
	c := mustCompiler(t, b)

	if !c.IsBuiltinVariable(out) || !c.IsBuiltinBlock(perVertex) {
		t.Error("gl_PerVertex block not detected")
	}
	if bi, ok := c.BuiltinOf(idx); !ok || bi != spirv.BuiltInVertexIndex {
		t.Errorf("BuiltinOf = %v, %v", bi, ok)
	}
	res := c.ShaderResources()
	if len(res.BuiltinOutputs) != 2 || len(res.BuiltinInputs) != 1 {
		t.Fatalf("builtins: %d outputs, %d inputs", len(res.BuiltinOutputs), len(res.BuiltinInputs))
	}
	if res.BuiltinOutputs[0].BuiltIn != spirv.BuiltInPosition || res.BuiltinOutputs[0].ValueTypeID != vec4 {
		t.Errorf("first output builtin = %+v", res.BuiltinOutputs[0])
	}
	if len(res.StageOutputs) != 0 {
		t.Error("builtin block listed as a stage output")
	}
}
