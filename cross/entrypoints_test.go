package cross

import (
	"testing"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

func TestSelectEntryPointDisambiguation(t *testing.T) {
	b := ir.NewBuilder()
	voidEntry(b, spirv.ExecutionModelVertex, "main")
	voidEntry(b, spirv.ExecutionModelFragment, "main")
	voidEntry(b, spirv.ExecutionModelGLCompute, "cs")
	c := mustCompiler(t, b)

	if err := c.SelectEntryPoint("main", nil); KindOf(err) != ErrInvalidArgument {
		t.Fatalf("ambiguous name: err = %v", err)
	}
	frag := spirv.ExecutionModelFragment
	if err := c.SelectEntryPoint("main", &frag); err != nil {
		t.Fatalf("SelectEntryPoint(main, fragment): %v", err)
	}
	if c.ExecutionModel() != spirv.ExecutionModelFragment {
		t.Errorf("model = %v", c.ExecutionModel())
	}
	if err := c.SelectEntryPoint("cs", nil); err != nil {
		t.Fatalf("unique name: %v", err)
	}
	if err := c.SelectEntryPoint("missing", nil); KindOf(err) != ErrInvalidArgument {
		t.Errorf("missing name: err = %v", err)
	}
	if got := len(c.EntryPoints()); got != 3 {
		t.Errorf("EntryPoints() = %d entries", got)
	}
}

func TestRenameEntryPoint(t *testing.T) {
	b := ir.NewBuilder()
	voidEntry(b, spirv.ExecutionModelVertex, "main")
	voidEntry(b, spirv.ExecutionModelVertex, "other")
	c := mustCompiler(t, b)

	if err := c.RenameEntryPoint("main", "other", spirv.ExecutionModelVertex); err == nil {
		t.Error("rename onto an existing name must fail")
	}
	if err := c.RenameEntryPoint("main", "vs_main", spirv.ExecutionModelVertex); err != nil {
		t.Fatalf("RenameEntryPoint: %v", err)
	}
	if c.Module().EntryPoints[0].OrigName != "main" {
		t.Error("OrigName changed by rename")
	}

	c.SetNameCleanser(func(name string, _ spirv.ExecutionModel) string { return name + "0" })
	got, err := c.CleansedEntryPointName("vs_main", spirv.ExecutionModelVertex)
	if err != nil || got != "vs_main0" {
		t.Errorf("CleansedEntryPointName = %q, %v", got, err)
	}
}

func TestWorkgroupSize(t *testing.T) {
	t.Run("execution mode", func(t *testing.T) {
		b := ir.NewBuilder()
		fn := b.Function("main", b.Void())
		fn.Return()
		b.EntryPoint(spirv.ExecutionModelGLCompute, fn.ID(), "main").LocalSize(8, 4, 1)
		c := mustCompiler(t, b)
		if got := c.WorkgroupSize(); got != [3]uint32{8, 4, 1} {
			t.Errorf("WorkgroupSize = %v", got)
		}
		x, _, _ := c.WorkgroupSizeSpecializationConstants()
		if x.ID != 0 {
			t.Error("no specialization constants expected")
		}
	})

	t.Run("builtin constant overrides", func(t *testing.T) {
		b := ir.NewBuilder()
		u32 := b.Int(32, false)
		x := b.SpecConstant(u32, 64, 7)
		y := b.ConstantU32(1)
		z := b.ConstantU32(1)
		wg := b.ConstantComposite(b.Vector(u32, 3), x, y, z)
		b.Module().Constants[wg].Specialization = true
		b.Decorate(wg, spirv.DecorationBuiltIn, uint32(spirv.BuiltInWorkgroupSize))
		fn := b.Function("main", b.Void())
		fn.Return()
		b.EntryPoint(spirv.ExecutionModelGLCompute, fn.ID(), "main").LocalSize(8, 8, 1)
		c := mustCompiler(t, b)

		if got := c.WorkgroupSize(); got != [3]uint32{64, 1, 1} {
			t.Errorf("WorkgroupSize = %v", got)
		}
		sx, sy, _ := c.WorkgroupSizeSpecializationConstants()
		if sx.ID != x || sx.SpecID != 7 || sy.ID != 0 {
			t.Errorf("spec constants = %+v %+v", sx, sy)
		}
		specs := c.SpecializationConstants()
		if len(specs) != 1 || specs[0].SpecID != 7 {
			t.Errorf("SpecializationConstants = %+v", specs)
		}
	})
}
