package spvcross

import (
	"strings"
	"testing"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// twoFragments declares fragment entry points "shade" and "tint" writing
// different outputs.
func twoFragments() *ir.Module {
	b := ir.NewBuilder()
	vec4 := b.Vector(b.Float(32), 4)
	in := b.Variable(spirv.StorageClassInput, vec4, "vColor")
	b.Decorate(in, spirv.DecorationLocation, 0)
	shadeOut := b.Variable(spirv.StorageClassOutput, vec4, "shadeColor")
	b.Decorate(shadeOut, spirv.DecorationLocation, 0)
	tintOut := b.Variable(spirv.StorageClassOutput, vec4, "tintColor")
	b.Decorate(tintOut, spirv.DecorationLocation, 1)

	shade := b.Function("shade", b.Void())
	shade.Store(shadeOut, shade.Load(in))
	shade.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, shade.ID(), "shade", in, shadeOut)

	tint := b.Function("tint", b.Void())
	tint.Store(tintOut, tint.Load(in))
	tint.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, tint.ID(), "tint", in, tintOut)
	return b.Module()
}

func TestCompileTargets(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{TargetGLSL, "#version 450 core\n"},
		{TargetHLSL, "void frag_main()"},
		{TargetMSL, "fragment shade_out shade("},
		{TargetJSON, `"mode": "frag"`},
	}
	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			src, err := Compile(twoFragments(), DefaultOptions(tt.target))
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if !strings.Contains(src, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, src)
			}
		})
	}
}

func TestCompileSelectsEntryPoint(t *testing.T) {
	opts := DefaultOptions(TargetMSL)
	opts.EntryPoint = "tint"
	src, err := Compile(twoFragments(), opts)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(src, "fragment tint_out tint(") {
		t.Errorf("tint entry point missing:\n%s", src)
	}
	if strings.Contains(src, "shadeColor") {
		t.Errorf("output of the other entry point leaked:\n%s", src)
	}

	vertex := spirv.ExecutionModelVertex
	opts.Stage = &vertex
	_, err = Compile(twoFragments(), opts)
	if !cross.IsKind(err, cross.ErrInvalidArgument) {
		t.Errorf("vertex tint: err = %v, want InvalidArgument", err)
	}
}

func TestCompileRejectsInvalidModule(t *testing.T) {
	m := twoFragments()
	m.EntryPoints[0].Interface = append(m.EntryPoints[0].Interface, 900)
	if err := Validate(m); err == nil {
		t.Fatal("Validate accepted a dangling interface reference")
	}
	_, err := Compile(m, DefaultOptions(TargetGLSL))
	if !cross.IsKind(err, cross.ErrInvalidInput) {
		t.Errorf("err = %v, want InvalidInput", err)
	}
	if err != nil && !strings.HasPrefix(err.Error(), "glsl: ") {
		t.Errorf("err = %q, want the target prefix", err)
	}
}

func TestCompileUnknownTarget(t *testing.T) {
	_, err := Compile(twoFragments(), CompileOptions{Target: Target(9)})
	if !cross.IsKind(err, cross.ErrInvalidArgument) {
		t.Errorf("err = %v, want InvalidArgument", err)
	}
}

func TestParseTarget(t *testing.T) {
	for _, name := range []string{"glsl", "HLSL", "Msl", "json"} {
		target, err := ParseTarget(name)
		if err != nil {
			t.Errorf("ParseTarget(%q): %v", name, err)
			continue
		}
		if !strings.EqualFold(target.String(), name) {
			t.Errorf("ParseTarget(%q) = %v", name, target)
		}
	}
	if _, err := ParseTarget("wgsl"); err == nil {
		t.Error("ParseTarget(wgsl) succeeded")
	}
	if got := Target(7).String(); got != "Target(7)" {
		t.Errorf("String() = %q", got)
	}
}
