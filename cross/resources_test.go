package cross

import (
	"testing"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

type resourceModule struct {
	b                       *ir.Builder
	ubo, ssbo, push         ir.ID
	in, out                 ir.ID
	tex, samp, storage, sub ir.ID
	unused                  ir.ID
	fn                      *ir.FunctionBuilder
}

func newResourceModule() *resourceModule {
	r := &resourceModule{b: ir.NewBuilder()}
	b := r.b
	f32 := b.Float(32)
	vec4 := b.Vector(f32, 4)

	uboType := b.Struct("UBO", vec4)
	b.Decorate(uboType, spirv.DecorationBlock)
	r.ubo = b.Variable(spirv.StorageClassUniform, uboType, "ubo")

	ssboType := b.Struct("SSBO", b.RuntimeArray(f32))
	b.Decorate(ssboType, spirv.DecorationBlock)
	r.ssbo = b.Variable(spirv.StorageClassStorageBuffer, ssboType, "")

	pushType := b.Struct("Push", f32)
	b.Decorate(pushType, spirv.DecorationBlock)
	r.push = b.Variable(spirv.StorageClassPushConstant, pushType, "push")

	r.in = b.Variable(spirv.StorageClassInput, vec4, "color")
	r.out = b.Variable(spirv.StorageClassOutput, vec4, "frag")
	r.tex = b.Variable(spirv.StorageClassUniformConstant, b.Image(f32, spirv.Dim2D, false, false, false, 1, spirv.ImageFormatUnknown), "tex")
	r.samp = b.Variable(spirv.StorageClassUniformConstant, b.Sampler(), "samp")
	r.storage = b.Variable(spirv.StorageClassUniformConstant, b.Image(f32, spirv.Dim2D, false, false, false, 2, spirv.ImageFormatRgba8), "img")
	r.sub = b.Variable(spirv.StorageClassUniformConstant, b.Image(f32, spirv.DimSubpassData, false, false, false, 2, spirv.ImageFormatUnknown), "sub")
	r.unused = b.Variable(spirv.StorageClassInput, f32, "unused")

	helper := b.Function("helper", b.Void())
	helper.Store(r.out, helper.Load(r.in))
	helper.Return()

	r.fn = b.Function("main", b.Void())
	r.fn.Load(r.ubo)
	r.fn.Call(helper.ID())
	r.fn.Return()
	b.EntryPoint(spirv.ExecutionModelFragment, r.fn.ID(), "main", r.in, r.out, r.unused)
	return r
}

func TestShaderResourcesClassification(t *testing.T) {
	r := newResourceModule()
	c := mustCompiler(t, r.b)
	res := c.ShaderResources()

	tests := []struct {
		name string
		got  []Resource
		want ir.ID
	}{
		{"uniform buffers", res.UniformBuffers, r.ubo},
		{"storage buffers", res.StorageBuffers, r.ssbo},
		{"push constants", res.PushConstantBuffers, r.push},
		{"separate images", res.SeparateImages, r.tex},
		{"separate samplers", res.SeparateSamplers, r.samp},
		{"storage images", res.StorageImages, r.storage},
		{"subpass inputs", res.SubpassInputs, r.sub},
		{"stage outputs", res.StageOutputs, r.out},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.got) != 1 || tt.got[0].ID != tt.want {
				t.Errorf("got %+v, want variable %d", tt.got, tt.want)
			}
		})
	}
	if len(res.StageInputs) != 2 {
		t.Errorf("stage inputs = %d, want 2", len(res.StageInputs))
	}
	if res.StorageBuffers[0].Name != "SSBO" {
		t.Errorf("unnamed buffer should fall back to its block name, got %q", res.StorageBuffers[0].Name)
	}
}

func TestActiveInterfaceVariablesFollowCalls(t *testing.T) {
	r := newResourceModule()
	c := mustCompiler(t, r.b)

	active := c.ActiveInterfaceVariables()
	for _, id := range []ir.ID{r.ubo, r.in, r.out} {
		if _, ok := active[id]; !ok {
			t.Errorf("variable %d should be active", id)
		}
	}
	if _, ok := active[r.unused]; ok {
		t.Error("unused input reported active")
	}

	res := c.ShaderResourcesForActiveVariables(active)
	if len(res.StageInputs) != 1 || res.StageInputs[0].ID != r.in {
		t.Errorf("active stage inputs = %+v", res.StageInputs)
	}
	if len(res.SeparateImages) != 0 {
		t.Error("inactive texture listed")
	}

	order := c.ReachableFunctions()
	if len(order) != 2 || order[0] != r.fn.ID() {
		t.Errorf("ReachableFunctions = %v", order)
	}
}

func TestGlobalsUsedByIsMemoizedAndSorted(t *testing.T) {
	r := newResourceModule()
	c := mustCompiler(t, r.b)

	first := c.GlobalsUsedBy(r.fn.ID())
	for i := 1; i < len(first); i++ {
		if first[i-1] >= first[i] {
			t.Fatalf("not ascending: %v", first)
		}
	}
	if len(c.globalsMemo) != 2 {
		t.Errorf("memo holds %d functions, want 2", len(c.globalsMemo))
	}
	second := c.GlobalsUsedBy(r.fn.ID())
	if &first[0] != &second[0] {
		t.Error("second query did not reuse the memoized slice")
	}
}

func TestRecursiveCallGraphTerminates(t *testing.T) {
	b := ir.NewBuilder()
	g := b.Variable(spirv.StorageClassPrivate, b.Float(32), "g")
	fn := b.Function("main", b.Void())
	fn.Load(g)
	fn.Call(fn.ID())
	fn.Return()
	b.EntryPoint(spirv.ExecutionModelVertex, fn.ID(), "main")
	c := mustCompiler(t, b)

	if got := c.GlobalsUsedBy(fn.ID()); len(got) != 1 || got[0] != g {
		t.Errorf("GlobalsUsedBy = %v", got)
	}
}

func TestEnabledInterfaceVariables(t *testing.T) {
	r := newResourceModule()
	c := mustCompiler(t, r.b)
	if !c.IsEnabled(r.unused) {
		t.Error("nil set must enable everything")
	}
	c.SetEnabledInterfaceVariables(c.ActiveInterfaceVariables())
	if c.IsEnabled(r.unused) || !c.IsEnabled(r.in) {
		t.Error("enabled set not honored")
	}
}
