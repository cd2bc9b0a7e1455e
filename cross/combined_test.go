package cross

import (
	"testing"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

func TestBuildCombinedImageSamplers(t *testing.T) {
	b := ir.NewBuilder()
	f32 := b.Float(32)
	vec2 := b.Vector(f32, 2)
	vec4 := b.Vector(f32, 4)
	imgType := b.Image(f32, spirv.Dim2D, false, false, false, 1, spirv.ImageFormatUnknown)
	sampType := b.Sampler()
	tex := b.Variable(spirv.StorageClassUniformConstant, imgType, "tex")
	samp := b.Variable(spirv.StorageClassUniformConstant, sampType, "samp")
	b.Decorate(tex, spirv.DecorationDescriptorSet, 1)
	b.Decorate(tex, spirv.DecorationBinding, 3)

	// The sampling happens in a helper receiving the objects by value.
	helper := b.Function("sample", vec4, imgType, sampType)
	si := helper.Op(spirv.OpSampledImage, b.SampledImage(imgType), uint32(helper.Param(0)), uint32(helper.Param(1)))
	coord := b.ConstantComposite(vec2, b.ConstantF32(0.5), b.ConstantF32(0.5))
	helper.ReturnValue(helper.Op(spirv.OpImageSampleImplicitLod, vec4, uint32(si), uint32(coord)))

	fn := b.Function("main", b.Void())
	fn.Call(helper.ID(), fn.Load(tex), fn.Load(samp))
	fn.Call(helper.ID(), fn.Load(tex), fn.Load(samp))
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, fn.ID(), "main")
	c := mustCompiler(t, b)

	if err := c.BuildCombinedImageSamplers(); err != nil {
		t.Fatalf("BuildCombinedImageSamplers: %v", err)
	}
	pairs := c.CombinedImageSamplers()
	if len(pairs) != 1 {
		t.Fatalf("pairs = %+v, want one", pairs)
	}
	p := pairs[0]
	if p.ImageID != tex || p.SamplerID != samp {
		t.Errorf("pair = %+v", p)
	}
	if got := c.Name(p.CombinedID); got != "SPIRV_Cross_Combinedtexsamp" {
		t.Errorf("name = %q", got)
	}
	if c.Decoration(p.CombinedID, spirv.DecorationDescriptorSet) != 1 || c.Decoration(p.CombinedID, spirv.DecorationBinding) != 3 {
		t.Error("combined variable did not inherit the image binding")
	}
	if c.Type(c.VariableType(p.CombinedID)).Base != ir.BaseSampledImage {
		t.Error("combined variable is not a sampled image")
	}
	if id, ok := c.CombinedFor(tex, samp); !ok || id != p.CombinedID {
		t.Error("CombinedFor lookup failed")
	}
	if !c.IsCombinedSource(tex) || c.IsCombinedSource(p.CombinedID) {
		t.Error("IsCombinedSource mismatch")
	}

	// A second build adds nothing.
	if err := c.BuildCombinedImageSamplers(); err != nil || len(c.CombinedImageSamplers()) != 1 {
		t.Errorf("rebuild changed pairing: %v", err)
	}
	res := c.ShaderResources()
	if len(res.SampledImages) != 1 {
		t.Errorf("sampled images = %d, want the synthesized one", len(res.SampledImages))
	}
}
