package capi

import (
	"strings"
	"testing"

	"github.com/gogpu/spvcross/hlsl"
	"github.com/gogpu/spvcross/msl"
)

func createOptions(t *testing.T, ctx *Context, c Compiler) CompilerOptions {
	t.Helper()
	o, res := ctx.CreateCompilerOptions(c)
	if res != Success {
		t.Fatalf("CreateCompilerOptions = %v: %s", res, ctx.LastErrorString())
	}
	return o
}

func TestOptionsTakeEffectOnInstall(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	c := newCompiler(t, ctx, fragmentPassthrough(), BackendGLSL)
	o := createOptions(t, ctx, c)

	wantResult(t, "version", ctx.CompilerOptionsSetUint(o, OptionGLSLVersion, 310), Success)
	wantResult(t, "es", ctx.CompilerOptionsSetBool(o, OptionGLSLES, true), Success)
	if src := mustCompile(t, ctx, c); !strings.Contains(src, "#version 450 core\n") {
		t.Fatalf("options applied before install:\n%s", src)
	}

	wantResult(t, "install", ctx.CompilerInstallCompilerOptions(c, o), Success)
	if src := mustCompile(t, ctx, c); !strings.Contains(src, "#version 310 es\n") {
		t.Errorf("installed version missing:\n%s", src)
	}
}

func TestOptionValidation(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	glslc := newCompiler(t, ctx, fragmentPassthrough(), BackendGLSL)
	hlslc := newCompiler(t, ctx, fragmentPassthrough(), BackendHLSL)
	mslc := newCompiler(t, ctx, fragmentPassthrough(), BackendMSL)

	tests := []struct {
		name    string
		comp    Compiler
		opt     Option
		value   uint32
		want    Result
		message string
	}{
		{"glsl version", glslc, OptionGLSLVersion, 460, Success, ""},
		{"unknown glsl version", glslc, OptionGLSLVersion, 451, ErrorInvalidArgument, "unknown GLSL version 451"},
		{"bool as uint", glslc, OptionGLSLVulkanSemantics, 1, Success, ""},
		{"bool out of range", glslc, OptionGLSLVulkanSemantics, 2, ErrorInvalidArgument, "is boolean"},
		{"common on glsl", glslc, OptionFlipVertexY, 1, Success, ""},
		{"common on hlsl", hlslc, OptionFixupClipSpace, 1, Success, ""},
		{"common on msl", mslc, OptionFlipVertexY, 1, ErrorInvalidArgument, "not supported by the msl backend"},
		{"msl option on glsl", glslc, OptionMSLPlatform, 1, ErrorInvalidArgument, "msl.platform is not supported by the glsl backend"},
		{"shader model", hlslc, OptionHLSLShaderModel, 62, Success, ""},
		{"unknown shader model", hlslc, OptionHLSLShaderModel, 45, ErrorInvalidArgument, "unknown shader model 45"},
		{"msl version", mslc, OptionMSLVersion, 20300, Success, ""},
		{"unknown msl version", mslc, OptionMSLVersion, 20200, ErrorInvalidArgument, "unknown MSL version"},
		{"interface sort", mslc, OptionMSLInterfaceSort, 3, ErrorInvalidArgument, "unknown interface sort"},
		{"unknown option", mslc, Option(0x8000999), 0, ErrorInvalidArgument, "unknown option 0x8000999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := createOptions(t, ctx, tt.comp)
			got := ctx.CompilerOptionsSetUint(o, tt.opt, tt.value)
			if got != tt.want {
				t.Fatalf("CompilerOptionsSetUint = %v, want %v (%s)", got, tt.want, ctx.LastErrorString())
			}
			if tt.message != "" && !strings.Contains(ctx.LastErrorString(), tt.message) {
				t.Errorf("LastErrorString = %q, want %q", ctx.LastErrorString(), tt.message)
			}
		})
	}
}

func TestInstallIsAtomic(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	c := newCompiler(t, ctx, fragmentPassthrough(), BackendGLSL)
	o := createOptions(t, ctx, c)

	wantResult(t, "separate objects", ctx.CompilerOptionsSetBool(o, OptionGLSLSeparateShaderObjects, true), Success)
	wantResult(t, "version", ctx.CompilerOptionsSetUint(o, OptionGLSLVersion, 310), Success)
	wantResult(t, "install", ctx.CompilerInstallCompilerOptions(c, o), ErrorInvalidArgument)
	if !strings.Contains(ctx.LastErrorString(), "GLSL version 310 is not valid with es=false") {
		t.Errorf("LastErrorString = %q", ctx.LastErrorString())
	}

	rec, err := ctx.compiler(c)
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.glsl.Options(); got.SeparateShaderObjects || got.LangVersion.Major != 4 {
		t.Errorf("rejected install changed options: %+v", got)
	}
}

func TestInstallRejectsOtherBackend(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	glslc := newCompiler(t, ctx, fragmentPassthrough(), BackendGLSL)
	mslc := newCompiler(t, ctx, fragmentPassthrough(), BackendMSL)

	o := createOptions(t, ctx, glslc)
	wantResult(t, "install", ctx.CompilerInstallCompilerOptions(mslc, o), ErrorInvalidArgument)
	if !strings.Contains(ctx.LastErrorString(), "options are for the glsl backend, compiler is msl") {
		t.Errorf("LastErrorString = %q", ctx.LastErrorString())
	}
}

func TestOptionsSnapshotCurrentValues(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	c := newCompiler(t, ctx, fragmentPassthrough(), BackendHLSL)

	first := createOptions(t, ctx, c)
	wantResult(t, "shader model", ctx.CompilerOptionsSetUint(first, OptionHLSLShaderModel, 60), Success)
	wantResult(t, "install", ctx.CompilerInstallCompilerOptions(c, first), Success)

	second := createOptions(t, ctx, c)
	s, err := lookup[*optionSet](ctx, second.handle, kindOptions)
	if err != nil {
		t.Fatal(err)
	}
	if s.hlsl.ShaderModel != hlsl.ShaderModel6_0 {
		t.Errorf("snapshot shader model = %v, want 6.0", s.hlsl.ShaderModel)
	}
}

func TestOptionsLoadTOML(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	c := newCompiler(t, ctx, fragmentPassthrough(), BackendMSL)
	o := createOptions(t, ctx, c)

	doc := []byte(`
[msl]
version = 20300
platform = "ios"
interface_sort = "name"
pad_fragment_outputs = true
buffer_size_buffer_index = 7
`)
	if res := ctx.CompilerOptionsLoadTOML(o, doc); res != Success {
		t.Fatalf("CompilerOptionsLoadTOML = %v: %s", res, ctx.LastErrorString())
	}
	wantResult(t, "install", ctx.CompilerInstallCompilerOptions(c, o), Success)

	rec, _ := ctx.compiler(c)
	got := rec.msl.Options()
	if got.LangVersion != msl.Version2_3 || got.Platform != msl.PlatformIOS || got.InterfaceSort != msl.SortByName {
		t.Errorf("options = %+v", got)
	}
	if !got.PadFragmentOutputs || got.BufferSizeBufferIndex != 7 {
		t.Errorf("options = %+v", got)
	}
	if src := mustCompile(t, ctx, c); !strings.Contains(src, "float4 FragColor [[color(0)]];") {
		t.Errorf("output:\n%s", src)
	}
}

func TestOptionsLoadTOMLDottedKeys(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	c := newCompiler(t, ctx, fragmentPassthrough(), BackendGLSL)
	o := createOptions(t, ctx, c)

	doc := []byte("glsl.version = 300\nglsl.es = true\ncommon.flip_vertex_y = true\n")
	if res := ctx.CompilerOptionsLoadTOML(o, doc); res != Success {
		t.Fatalf("CompilerOptionsLoadTOML = %v: %s", res, ctx.LastErrorString())
	}
	wantResult(t, "install", ctx.CompilerInstallCompilerOptions(c, o), Success)
	if src := mustCompile(t, ctx, c); !strings.Contains(src, "#version 300 es\n") {
		t.Errorf("output:\n%s", src)
	}
}

func TestOptionsLoadTOMLIsAllOrNothing(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	c := newCompiler(t, ctx, fragmentPassthrough(), BackendGLSL)
	o := createOptions(t, ctx, c)

	doc := []byte(`
[glsl]
version = 310
es = true
vulkan_semantics = 1
colour = "blue"

[msl]
platform = "ios"
`)
	wantResult(t, "load", ctx.CompilerOptionsLoadTOML(o, doc), ErrorInvalidArgument)
	msg := ctx.LastErrorString()
	for _, want := range []string{
		`unknown option "glsl.colour"`,
		"glsl.vulkan_semantics takes a boolean",
		"msl.platform is not supported by the glsl backend",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	s, _ := lookup[*optionSet](ctx, o.handle, kindOptions)
	if s.glsl.LangVersion.Minor != 50 || s.glsl.LangVersion.ES {
		t.Errorf("rejected document changed the snapshot: %+v", s.glsl.LangVersion)
	}
}

func TestOptionsLoadTOMLSyntaxError(t *testing.T) {
	ctx := CreateContext()
	defer ctx.Destroy()
	c := newCompiler(t, ctx, fragmentPassthrough(), BackendJSON)
	o := createOptions(t, ctx, c)

	wantResult(t, "load", ctx.CompilerOptionsLoadTOML(o, []byte("[json\nactive_only = ")), ErrorInvalidArgument)
	if !strings.Contains(ctx.LastErrorString(), "parse option document") {
		t.Errorf("LastErrorString = %q", ctx.LastErrorString())
	}

	wantResult(t, "load", ctx.CompilerOptionsLoadTOML(o, []byte("[json]\nactive_only = true\n")), Success)
	wantResult(t, "install", ctx.CompilerInstallCompilerOptions(c, o), Success)
	rec, _ := ctx.compiler(c)
	if !rec.json.Options().ActiveOnly {
		t.Error("ActiveOnly not installed")
	}
}

func TestOptionString(t *testing.T) {
	if got := OptionMSLBufferSizeBufferIndex.String(); got != "msl.buffer_size_buffer_index" {
		t.Errorf("String() = %q", got)
	}
	if got := Option(0x2000999).String(); got != "option(0x2000999)" {
		t.Errorf("String() = %q", got)
	}
}
