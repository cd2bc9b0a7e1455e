package ir

import (
	"testing"

	"github.com/gogpu/spvcross/spirv"
)

func TestBuilder_ScalarDeduplication(t *testing.T) {
	b := NewBuilder()

	f1 := b.Float(32)
	f2 := b.Float(32)
	if f1 != f2 {
		t.Errorf("Expected same ID for identical scalar types, got %d and %d", f1, f2)
	}

	ids := []ID{b.Float(32), b.Int(32, true), b.Int(32, false), b.Float(16), b.Bool()}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[i] == ids[j] {
				t.Errorf("Expected different IDs for different types, got %d == %d", ids[i], ids[j])
			}
		}
	}
}

func TestBuilder_DerivedTypes(t *testing.T) {
	b := NewBuilder()
	f32 := b.Float(32)
	vec4 := b.Vector(f32, 4)
	if b.Vector(f32, 4) != vec4 {
		t.Error("vector types not deduplicated")
	}
	mat := b.Matrix(vec4, 4)
	m := b.Module()

	mt := m.Type(mat)
	if !mt.IsMatrix() || mt.Columns != 4 || mt.VecSize != 4 || mt.Parent != vec4 {
		t.Errorf("unexpected matrix type %+v", mt)
	}

	arr := b.Array(vec4, 3)
	arr2 := b.Array(arr, 2)
	at := m.Type(arr2)
	if len(at.Array) != 2 || at.Array[0] != 3 || at.Array[1] != 2 {
		t.Errorf("array dimensions = %v, want [3 2] (outermost last)", at.Array)
	}
	if at.Parent != arr || at.VecSize != 4 {
		t.Errorf("array did not inherit element description: %+v", at)
	}

	rt := m.Type(b.RuntimeArray(f32))
	if !rt.IsRuntimeArray() {
		t.Error("runtime array not detected")
	}
}

func TestBuilder_StructsAreNominal(t *testing.T) {
	b := NewBuilder()
	f32 := b.Float(32)
	s1 := b.Struct("A", f32)
	s2 := b.Struct("A", f32)
	if s1 == s2 {
		t.Fatal("identical structs must stay distinct")
	}

	ptr := b.Pointer(spirv.StorageClassUniform, s1)
	pt := b.Module().Type(ptr)
	if !pt.Pointer || pt.Self != s1 || pt.Parent != s1 {
		t.Errorf("pointer to struct: %+v", pt)
	}
	arr := b.Module().Type(b.Array(s1, 4))
	if arr.Self != s1 {
		t.Errorf("array of struct Self = %d, want %d", arr.Self, s1)
	}
}

func TestBuilder_FunctionBody(t *testing.T) {
	b := NewBuilder()
	f32 := b.Float(32)
	vec4 := b.Vector(f32, 4)
	out := b.Variable(spirv.StorageClassOutput, vec4, "color")

	fn := b.Function("main", b.Void())
	one := b.ConstantF32(1)
	v := fn.Op(spirv.OpCompositeConstruct, vec4, uint32(one), uint32(one), uint32(one), uint32(one))
	fn.Store(out, v)
	fn.Return()

	m := b.Module()
	f := m.Function(fn.ID())
	blk := m.Block(f.Entry())
	if len(blk.Ops) != 2 || blk.Terminator != TermReturn {
		t.Fatalf("unexpected block: %+v", blk)
	}
	if m.TypeOf(v) != vec4 {
		t.Errorf("TypeOf(result) = %d, want %d", m.TypeOf(v), vec4)
	}
	if m.Name(out) != "color" {
		t.Errorf("Name = %q", m.Name(out))
	}
}
