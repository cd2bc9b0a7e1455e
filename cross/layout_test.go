package cross

import (
	"testing"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// layoutStruct declares a struct whose members carry the given offsets.
func layoutStruct(b *ir.Builder, offsets []uint32, members ...ir.ID) ir.ID {
	s := b.Struct("Block", members...)
	b.Decorate(s, spirv.DecorationBlock)
	for i, off := range offsets {
		b.MemberDecorate(s, i, spirv.DecorationOffset, off)
	}
	return s
}

func TestVec3FollowedByScalar(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	s := layoutStruct(b, []uint32{0, 12}, b.Vector(f32, 3), f32)
	c := mustCompiler(t, b)

	for _, p := range []PackingStandard{PackingStd140, PackingStd430, PackingScalar, PackingHLSLCbuffer} {
		if !c.BufferIsPackingStandard(s, p) {
			t.Errorf("%s: expected layout to match", p)
		}
	}
	size, err := c.DeclaredStructSize(s)
	if err != nil || size != 16 {
		t.Errorf("DeclaredStructSize = %d, %v; want 16", size, err)
	}
}

func TestScalarArrayStrideSeparatesStd140(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	arr := b.Array(f32, 4)
	b.Decorate(arr, spirv.DecorationArrayStride, 4)
	s := layoutStruct(b, []uint32{0}, arr)
	c := mustCompiler(t, b)

	if c.BufferIsPackingStandard(s, PackingStd140) {
		t.Error("std140 requires a 16-byte array stride")
	}
	if !c.BufferIsPackingStandard(s, PackingStd430) {
		t.Error("stride 4 is std430")
	}
	if got := c.PackingArrayStride(c.Type(arr), ir.Bitset{}, PackingStd140); got != 16 {
		t.Errorf("std140 stride = %d, want 16", got)
	}
	if got, _ := c.DeclaredStructMemberSize(s, 0); got != 16 {
		t.Errorf("member size = %d, want 16", got)
	}
}

func TestHLSLPackingAllowsTightVectors(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	s := layoutStruct(b, []uint32{0, 4}, f32, b.Vector(f32, 3))
	c := mustCompiler(t, b)

	if !c.BufferIsPackingStandard(s, PackingHLSLCbuffer) {
		t.Error("float3 after float fits in one register")
	}
	if c.BufferIsPackingStandard(s, PackingStd140) {
		t.Error("std140 aligns vec3 to 16")
	}
}

func TestHLSLStraddleRule(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	s := layoutStruct(b, []uint32{0, 8}, b.Vector(f32, 2), b.Vector(f32, 3))
	c := mustCompiler(t, b)

	if c.BufferIsPackingStandard(s, PackingHLSLCbuffer) {
		t.Error("float3 at offset 8 straddles a register")
	}
	if !c.BufferIsPackingStandard(s, PackingScalar) {
		t.Error("scalar layout accepts offset 8")
	}
}

func TestEnhancedLayoutAcceptsLargerOffsets(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	s := layoutStruct(b, []uint32{0, 32}, f32, b.Vector(f32, 4))
	c := mustCompiler(t, b)

	if c.BufferIsPackingStandard(s, PackingStd430) {
		t.Error("plain std430 requires the natural offset 16")
	}
	if !c.BufferIsPackingStandard(s, PackingStd430EnhancedLayout) {
		t.Error("explicit offsets may skip ahead")
	}
}

func TestMatrixLayout(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	mat := b.Matrix(b.Vector(f32, 4), 4)
	s := layoutStruct(b, []uint32{0}, mat)
	b.MemberDecorate(s, 0, spirv.DecorationColMajor)
	b.MemberDecorate(s, 0, spirv.DecorationMatrixStride, 16)
	c := mustCompiler(t, b)

	if !c.BufferIsPackingStandard(s, PackingStd140) {
		t.Error("mat4 with stride 16 is std140")
	}
	size, err := c.DeclaredStructSize(s)
	if err != nil || size != 64 {
		t.Errorf("DeclaredStructSize = %d, %v; want 64", size, err)
	}
	if got := c.PackingSize(c.Type(mat), ir.Bitset{}, PackingHLSLCbuffer); got != 64 {
		t.Errorf("HLSL float4x4 size = %d, want 64", got)
	}
}

func TestRuntimeArrayStructSize(t *testing.T) {
	b := ir.NewBuilder()
	u32 := b.Int(32, false)
	rt := b.RuntimeArray(b.Float(32))
	b.Decorate(rt, spirv.DecorationArrayStride, 4)
	s := layoutStruct(b, []uint32{0, 4}, u32, rt)
	c := mustCompiler(t, b)

	size, err := c.DeclaredStructSize(s)
	if err != nil || size != 4 {
		t.Errorf("DeclaredStructSize = %d, %v; want 4", size, err)
	}
	size, err = c.DeclaredStructSizeRuntimeArray(s, 10)
	if err != nil || size != 44 {
		t.Errorf("DeclaredStructSizeRuntimeArray = %d, %v; want 44", size, err)
	}
	if !c.BufferIsPackingStandard(s, PackingStd430) {
		t.Error("trailing runtime array must not break std430")
	}
}

func TestDeclaredStructSizeErrors(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	mat := b.Matrix(b.Vector(f32, 2), 2)
	s := layoutStruct(b, []uint32{0}, mat)
	c := mustCompiler(t, b)

	if _, err := c.DeclaredStructSize(f32); KindOf(err) != ErrInvalidInput {
		t.Errorf("non-struct: err = %v", err)
	}
	if _, err := c.DeclaredStructSize(s); KindOf(err) != ErrInvalidInput {
		t.Errorf("matrix without stride: err = %v", err)
	}
	if _, err := c.DeclaredStructMemberSize(s, 5); KindOf(err) != ErrInvalidArgument {
		t.Errorf("member out of range: err = %v", err)
	}
}
