// Package capi is a handle-based interface to the compilers for hosts that
// cannot hold Go pointers, such as a cgo shim or a WebAssembly export table.
//
// A Context owns every object created through it. Objects are addressed by
// generation-tagged handles which are never freed one by one:
// ReleaseAllocations invalidates all of them at once and Destroy tears the
// context down. Every call returns a Result; on failure the message is
// recorded on the context, replacing the previous one, and passed to the
// error callback if one is registered. A failed call never returns a usable
// handle.
//
// Options follow a two-phase protocol. CreateCompilerOptions snapshots the
// options of a compiler, the setters validate each change against the
// options the backend understands, and InstallCompilerOptions applies the
// snapshot in one step. Options may also be loaded from a TOML document:
//
//	[glsl]
//	version = 310
//	es = true
//
//	[common]
//	flip_vertex_y = true
//
// Usage:
//
//	ctx := capi.CreateContext()
//	defer ctx.Destroy()
//
//	parsed, _ := ctx.ParseIR(module)
//	comp, _ := ctx.CreateCompiler(capi.BackendMSL, parsed, capi.CaptureCopy)
//	src, res := ctx.Compile(comp)
//	if res != capi.Success {
//		log.Fatal(ctx.LastErrorString())
//	}
//
// A Context is not safe for concurrent use.
package capi
