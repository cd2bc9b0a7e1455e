package emit

import (
	"strings"
	"testing"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// testDialect spells GLSL-like types on top of the defaults.
type testDialect struct{ Base }

func (testDialect) TypeName(_ *Generator, t *ir.Type) string {
	var scalar string
	switch t.Base {
	case ir.BaseVoid:
		return "void"
	case ir.BaseBool:
		scalar = "bool"
	case ir.BaseInt:
		scalar = "int"
	case ir.BaseUInt:
		scalar = "uint"
	case ir.BaseFloat:
		scalar = "float"
	default:
		return "unknown"
	}
	switch {
	case t.Columns > 1:
		return "mat" + uitoa(t.Columns)
	case t.VecSize > 1:
		prefix := map[string]string{"bool": "b", "int": "i", "uint": "u", "float": ""}[scalar]
		return prefix + "vec" + uitoa(t.VecSize)
	}
	return scalar
}

func generate(t *testing.T, b *ir.Builder, fn ir.ID) string {
	t.Helper()
	c, err := cross.New(b.Module())
	if err != nil {
		t.Fatalf("cross.New: %v", err)
	}
	out := &Buffer{}
	g := NewGenerator(c, testDialect{}, NewNamer([]string{"main"}), out, Style{})
	if err := g.EmitFunction(b.Module().Function(fn), false); err != nil {
		t.Fatalf("EmitFunction: %v", err)
	}
	return out.String()
}

func TestEncloseWrapsCompoundExpressions(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a", "a"},
		{"a + b", "(a + b)"},
		{"f(a, b)", "f(a, b)"},
		{"-a", "(-a)"},
		{"v[i + 1]", "v[i + 1]"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Enclose(tt.in); got != tt.want {
			t.Errorf("Enclose(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNamer(t *testing.T) {
	n := NewNamer([]string{"float", "main"}, WithReservedPrefixes("gl_"))

	if got := n.Name(1, "color"); got != "color" {
		t.Errorf("Name(color) = %q", got)
	}
	if got := n.Name(2, "color"); got != "color_1" {
		t.Errorf("duplicate name = %q, want color_1", got)
	}
	if got := n.Name(1, "ignored"); got != "color" {
		t.Errorf("memoized name = %q, want color", got)
	}
	if got := n.Name(3, "float"); got != "_float" {
		t.Errorf("keyword = %q, want _float", got)
	}
	if got := n.Name(4, "gl_Position"); got != "_gl_Position" {
		t.Errorf("reserved prefix = %q, want _gl_Position", got)
	}
	if got := n.Name(5, ""); got != "_5" {
		t.Errorf("unnamed = %q, want _5", got)
	}
	if got := n.Name(6, "a.b-c"); got != "a_b_c" {
		t.Errorf("sanitized = %q, want a_b_c", got)
	}
	if got := n.Name(7, "3d"); got != "_3d" {
		t.Errorf("leading digit = %q, want _3d", got)
	}

	if got := n.Member(10, 0, "pos"); got != "pos" {
		t.Errorf("member = %q", got)
	}
	if got := n.Member(11, 0, "pos"); got != "pos" {
		t.Errorf("member of another struct = %q, want pos", got)
	}
	if got := n.Member(10, 1, ""); got != "_m1" {
		t.Errorf("unnamed member = %q, want _m1", got)
	}
}

func TestNamerCaseInsensitive(t *testing.T) {
	n := NewNamer([]string{"Texture2D"}, CaseInsensitive())
	if got := n.Name(1, "texture2d"); got != "_texture2d" {
		t.Errorf("keyword folded = %q, want _texture2d", got)
	}
	if got := n.Name(2, "UBO"); got != "UBO" {
		t.Errorf("Name(UBO) = %q", got)
	}
	if got := n.Name(3, "ubo"); got != "ubo" {
		t.Errorf("names differing in case = %q, want ubo", got)
	}
	if got := n.Name(4, "ubo"); got != "ubo_1" {
		t.Errorf("exact collision = %q, want ubo_1", got)
	}
}

func TestNamerMemberCollisions(t *testing.T) {
	n := NewNamer(nil)
	got := []string{
		n.Member(1, 0, "a"),
		n.Member(1, 1, "a_1"),
		n.Member(1, 2, "a"),
		n.Member(1, 3, "a"),
	}
	seen := map[string]bool{}
	for i, name := range got {
		if seen[name] {
			t.Errorf("member %d reuses %q: %v", i, name, got)
		}
		seen[name] = true
	}
	if got[0] != "a" || got[1] != "a_1" || got[2] != "a_2" || got[3] != "a_3" {
		t.Errorf("members = %v, want [a a_1 a_2 a_3]", got)
	}

	m := NewNamer(nil)
	m.Member(2, 0, "b")
	m.Member(2, 2, "b_1")
	m.Member(2, 3, "b_1_1")
	if got := m.Member(2, 1, "b"); got != "b_1_2" {
		t.Errorf("member after repeated collisions = %q, want b_1_2", got)
	}
}

func TestFixedPoint(t *testing.T) {
	t.Run("converges", func(t *testing.T) {
		text, err := FixedPoint(nil, MaxPasses, func(pass int) (string, bool, error) {
			return "pass" + uitoa(uint32(pass)), pass == 0, nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if text != "pass1" {
			t.Errorf("text = %q, want pass1", text)
		}
	})
	t.Run("bounded", func(t *testing.T) {
		calls := 0
		_, err := FixedPoint(nil, MaxPasses, func(int) (string, bool, error) {
			calls++
			return "", true, nil
		})
		if !cross.IsKind(err, cross.ErrInternal) {
			t.Fatalf("err = %v, want ErrInternal", err)
		}
		if calls != MaxPasses {
			t.Errorf("render called %d times, want %d", calls, MaxPasses)
		}
	})
}

func TestScalarLiterals(t *testing.T) {
	b := ir.NewBuilder()
	m := b.Module()
	c, err := cross.New(m)
	if err != nil {
		t.Fatal(err)
	}
	g := NewGenerator(c, testDialect{}, NewNamer(nil), &Buffer{}, Style{FloatSuffix: "f"})

	tests := []struct {
		id   ir.ID
		want string
	}{
		{b.ConstantU32(7), "7u"},
		{b.ConstantI32(-3), "-3"},
		{b.ConstantI32(-2147483648), "int(0x80000000)"},
		{b.ConstantF32(1), "1.0f"},
		{b.ConstantF32(0.5), "0.5f"},
		{b.ConstantBool(true), "true"},
	}
	for _, tt := range tests {
		if got := g.ConstantExpr(tt.id); got != tt.want {
			t.Errorf("ConstantExpr = %q, want %q", got, tt.want)
		}
	}

	vec := b.Vector(b.Float(32), 3)
	one := b.ConstantF32(1)
	splat := b.ConstantComposite(vec, one, one, one)
	if got := g.ConstantExpr(splat); got != "vec3(1.0f)" {
		t.Errorf("splat = %q, want vec3(1.0f)", got)
	}
}

func TestAnalyzeForwarding(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	fb := b.Function("f", f32, f32)
	x := fb.Param(0)
	local := fb.Local(f32, "v")

	once := fb.Op(spirv.OpFMul, f32, uint32(x), uint32(x))
	twice := fb.Op(spirv.OpFAdd, f32, uint32(once), uint32(x))
	both := fb.Op(spirv.OpFAdd, f32, uint32(twice), uint32(twice))
	loaded := fb.Load(local)
	fb.Store(local, both)
	sum := fb.Op(spirv.OpFAdd, f32, uint32(loaded), uint32(both))

	next := fb.NewBlock()
	fb.Branch(next)
	fb.SetBlock(next)
	fb.ReturnValue(sum)

	fi := Analyze(b.Module(), b.Module().Function(fb.ID()))
	if !fi.Forwarded(once) {
		t.Error("single-use result not forwarded")
	}
	if fi.Forwarded(twice) {
		t.Error("result used twice was forwarded")
	}
	if fi.Forwarded(loaded) {
		t.Error("load forwarded across a store")
	}
	if !fi.Hoisted(sum) {
		t.Error("result used in another block not hoisted")
	}
	if got := fi.HoistedTemporaries(); len(got) != 1 || got[0] != sum {
		t.Errorf("HoistedTemporaries = %v, want [%d]", got, sum)
	}
}

func TestAnalyzeAccessChainOperandsStayTemporaries(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	i32 := b.Int(32, true)
	arr := b.Array(f32, 4)
	fb := b.Function("f", f32, i32)
	local := fb.Local(arr, "a")
	idx := fb.Op(spirv.OpIAdd, i32, uint32(fb.Param(0)), uint32(b.ConstantI32(1)))
	ptr := fb.AccessChain(local, idx)
	v := fb.Load(ptr)
	fb.ReturnValue(v)

	fi := Analyze(b.Module(), b.Module().Function(fb.ID()))
	if !fi.Alias(ptr) {
		t.Error("access chain is not an alias")
	}
	if fi.Forwarded(idx) {
		t.Error("access chain index was forwarded")
	}
	if !fi.Forwarded(v) {
		t.Error("load with a single use was not forwarded")
	}
}

func TestEmitIfElseWithPhi(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	fb := b.Function("pick", f32, b.Bool(), f32)
	cond, x := fb.Param(0), fb.Param(1)
	b.Name(cond, "c")
	b.Name(x, "x")

	thenBlk, elseBlk, merge := fb.NewBlock(), fb.NewBlock(), fb.NewBlock()
	fb.SelectionMerge(merge)
	fb.BranchConditional(cond, thenBlk, elseBlk)

	fb.SetBlock(thenBlk)
	doubled := fb.Op(spirv.OpFMul, f32, uint32(x), uint32(b.ConstantF32(2)))
	fb.Branch(merge)

	fb.SetBlock(elseBlk)
	negated := fb.Op(spirv.OpFNegate, f32, uint32(x))
	fb.Branch(merge)

	fb.SetBlock(merge)
	phi := fb.Phi(f32, ir.PhiSource{Value: doubled, Parent: thenBlk}, ir.PhiSource{Value: negated, Parent: elseBlk})
	fb.ReturnValue(phi)

	out := generate(t, b, fb.ID())
	for _, want := range []string{
		"float pick(bool c, float x)",
		"if (c)",
		"else",
		" = x * 2.0;",
		" = -x;",
		"return ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestEmitLoop(t *testing.T) {
	b := ir.NewBuilder()
	i32 := b.Int(32, true)
	boolT := b.Bool()
	fb := b.Function("count", i32, i32)
	n := fb.Param(0)
	b.Name(n, "n")

	entry := fb.Current()
	header, body, cont, merge := fb.NewBlock(), fb.NewBlock(), fb.NewBlock(), fb.NewBlock()
	fb.Branch(header)

	fb.SetBlock(header)
	i := fb.Phi(i32, ir.PhiSource{Value: b.ConstantI32(0), Parent: entry})
	b.Name(i, "i")
	fb.LoopMerge(merge, cont)
	cmp := fb.Op(spirv.OpSLessThan, boolT, uint32(i), uint32(n))
	fb.BranchConditional(cmp, body, merge)

	fb.SetBlock(body)
	fb.Branch(cont)

	fb.SetBlock(cont)
	inc := fb.Op(spirv.OpIAdd, i32, uint32(i), uint32(b.ConstantI32(1)))
	fb.Branch(header)
	b.Module().Block(header).Phis[0].Incoming = append(b.Module().Block(header).Phis[0].Incoming,
		ir.PhiSource{Value: inc, Parent: cont})

	fb.SetBlock(merge)
	fb.ReturnValue(i)

	out := generate(t, b, fb.ID())
	for _, want := range []string{
		"int i;",
		"i = 0;",
		"for (;;)",
		"if (!(i < n))",
		"break;",
		"continue;",
		"return i;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestEmitSwitchGroupsCases(t *testing.T) {
	b := ir.NewBuilder()
	i32 := b.Int(32, true)
	fb := b.Function("classify", i32, i32)
	sel := fb.Param(0)
	b.Name(sel, "s")

	small, merge := fb.NewBlock(), fb.NewBlock()
	fb.SelectionMerge(merge)
	fb.Switch(sel, merge, ir.Case{Value: 1, Block: small}, ir.Case{Value: 2, Block: small})

	fb.SetBlock(small)
	fb.ReturnValue(b.ConstantI32(10))

	fb.SetBlock(merge)
	fb.ReturnValue(b.ConstantI32(0))

	out := generate(t, b, fb.ID())
	for _, want := range []string{"switch (s)", "case 1:", "case 2:", "return 10;", "return 0;"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "default:") {
		t.Errorf("default equal to the merge block was emitted:\n%s", out)
	}
}

func TestEmitRejectsUnstructuredCycle(t *testing.T) {
	b := ir.NewBuilder()
	fb := b.Function("spin", b.Void())
	a, c := fb.NewBlock(), fb.NewBlock()
	fb.Branch(a)
	fb.SetBlock(a)
	fb.Branch(c)
	fb.SetBlock(c)
	fb.Branch(a)

	cc, err := cross.New(b.Module())
	if err != nil {
		t.Fatal(err)
	}
	g := NewGenerator(cc, testDialect{}, NewNamer(nil), &Buffer{}, Style{})
	err = g.EmitFunction(b.Module().Function(fb.ID()), false)
	if !cross.IsKind(err, cross.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
