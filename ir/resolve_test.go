package ir

import (
	"testing"

	"github.com/gogpu/spvcross/spirv"
)

func TestAccessChainResultType(t *testing.T) {
	b := NewBuilder()
	f32 := b.Float(32)
	vec3 := b.Vector(f32, 3)
	s := b.Struct("Block", vec3, b.Array(f32, 4))
	ubo := b.Variable(spirv.StorageClassUniform, s, "ubo")

	fn := b.Function("main", b.Void())
	p := fn.AccessChain(ubo, b.ConstantI32(1), b.ConstantI32(2))
	fn.Return()

	m := b.Module()
	pt := m.Type(m.TypeOf(p))
	if !pt.Pointer || pt.Storage != spirv.StorageClassUniform {
		t.Fatalf("access chain must yield a Uniform pointer, got %+v", pt)
	}
	if pt.Parent != f32 {
		t.Errorf("pointee = %d, want float %d", pt.Parent, f32)
	}
}

func TestIDOperands(t *testing.T) {
	tests := []struct {
		name string
		in   Instruction
		want []ID
	}{
		{"extract", Instruction{Op: spirv.OpCompositeExtract, Args: []uint32{7, 0, 1}}, []ID{7}},
		{"shuffle", Instruction{Op: spirv.OpVectorShuffle, Args: []uint32{7, 8, 0, 1}}, []ID{7, 8}},
		{"sample lod", Instruction{Op: spirv.OpImageSampleExplicitLod, Args: []uint32{4, 5, 2, 6}}, []ID{4, 5, 6}},
		{"ext inst", Instruction{Op: spirv.OpExtInst, Args: []uint32{1, 31, 9}}, []ID{9}},
		{"add", Instruction{Op: spirv.OpIAdd, Args: []uint32{3, 4}}, []ID{3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.IDOperands()
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestMemberTypeAt(t *testing.T) {
	b := NewBuilder()
	f32 := b.Float(32)
	vec2 := b.Vector(f32, 2)
	s := b.Struct("S", b.Int(32, true), b.Array(vec2, 3))
	m := b.Module()
	if got := m.MemberTypeAt(s, []uint32{1, 2, 0}); got != f32 {
		t.Errorf("MemberTypeAt = %d, want %d", got, f32)
	}
	if got := m.MemberTypeAt(s, []uint32{5}); got != 0 {
		t.Errorf("out of range member resolved to %d", got)
	}
}

func TestArrayDimensionSpecConstant(t *testing.T) {
	b := NewBuilder()
	u32 := b.Int(32, false)
	size := b.SpecConstant(u32, 6, 0)
	arr := b.Module().Type(b.ArraySpec(b.Float(32), size))
	n, literal, ok := b.Module().ArrayDimension(arr, 0)
	if !ok || literal || n != 6 {
		t.Errorf("ArrayDimension = %d, %v, %v", n, literal, ok)
	}
}
