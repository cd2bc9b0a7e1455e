package ir

import (
	"testing"

	"github.com/gogpu/spvcross/spirv"
)

func TestBitset(t *testing.T) {
	var b Bitset
	b.Set(3)
	b.Set(5300)
	b.Set(63)
	if !b.Get(3) || !b.Get(5300) || !b.Get(63) || b.Get(4) {
		t.Fatal("Get mismatch")
	}
	bits := b.Bits()
	want := []uint32{3, 63, 5300}
	for i := range want {
		if bits[i] != want[i] {
			t.Fatalf("Bits() = %v, want %v", bits, want)
		}
	}
	c := b.Clone()
	c.Clear(5300)
	if !b.Get(5300) {
		t.Error("Clone shares storage with original")
	}
}

func TestDecorationValues(t *testing.T) {
	m := NewModule()
	id := m.NewID()
	m.Decorate(id, spirv.DecorationLocation, 3)
	m.Decorate(id, spirv.DecorationFlat, 0)
	if !m.HasDecoration(id, spirv.DecorationFlat) || m.DecorationValue(id, spirv.DecorationLocation) != 3 {
		t.Fatal("decoration lost")
	}
	m.MetaFor(id).Decoration.Unset(spirv.DecorationLocation)
	if m.HasDecoration(id, spirv.DecorationLocation) {
		t.Error("Unset kept the decoration")
	}

	m.MemberDecorate(id, 2, spirv.DecorationOffset, 12)
	if m.MemberDecorationValue(id, 2, spirv.DecorationOffset) != 12 || m.HasMemberDecoration(id, 1, spirv.DecorationOffset) {
		t.Error("member decoration mismatch")
	}

	d := m.MetaFor(id).Member(2)
	d.SetExtended(ExtPaddingTarget, 4)
	if d.GetExtended(ExtPaddingTarget) != 4 || d.HasExtended(ExtPhysicalTypePacked) {
		t.Error("extended decoration mismatch")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := validModule()
	m := b.Module()
	c := m.Clone()

	c.SetName(m.EntryPoints[0].Interface[0], "renamed")
	c.EntryPoints[0].Name = "other"
	c.NewID()

	if m.Name(m.EntryPoints[0].Interface[0]) != "o" || m.EntryPoints[0].Name != "main" {
		t.Error("clone mutation leaked into original")
	}
	if c.Bound == m.Bound {
		t.Error("clone shares ID allocation")
	}
	blk := c.Block(c.Function(c.EntryPoints[0].Function).Entry())
	blk.Ops[0].Args[1] = 0
	orig := m.Block(m.Function(m.EntryPoints[0].Function).Entry())
	if orig.Ops[0].Args[1] == 0 {
		t.Error("clone shares instruction operands")
	}
}
