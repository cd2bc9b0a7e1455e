// Package msl translates SPIR-V modules to the Metal Shading Language.
//
// Metal differs from the source model in ways that need rewriting rather
// than spelling:
//
//   - Stage inputs and outputs are members of synthesized structs
//     (main0_in, main0_out) whose members carry [[attribute(n)]],
//     [[user(locnN)]] or [[color(n)]] attributes. Builtin blocks such as
//     gl_PerVertex are flattened into those structs and builtins without
//     a location become entry parameters.
//   - Buffer structs follow the declared Offset decorations exactly:
//     filler members are inserted, three-component vectors are packed or
//     widened, and row-major matrices are declared transposed.
//   - Resources become entry parameters with [[buffer(n)]],
//     [[texture(n)]] and [[sampler(n)]] indices, either from a
//     ResourceBinding or allocated in declaration order.
//   - There are no mutable globals: Private and Workgroup variables are
//     entry locals passed by reference to the functions that use them.
//
// # Usage
//
//	c, err := msl.New(module, msl.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	c.AddResourceBinding(msl.ResourceBinding{
//	    Stage:         spirv.ExecutionModelFragment,
//	    DescriptorSet: 0,
//	    Binding:       1,
//	    Texture:       3,
//	    Sampler:       3,
//	})
//	source, err := c.Compile()
//
// Each call to Compile works on a fresh clone of the module, so compiling
// again with other options gives the same result as a new compiler would.
// Helper functions (spvFMod, spvInverse4x4, ...) are declared before the
// functions using them; discovering a new helper reruns the pass.
//
// # Type Mapping
//
//	SPIR-V                 MSL
//	------                 ---
//	bool                   bool
//	int / uint             int / uint
//	float / half           float / half
//	vecN<T>                TN
//	matCxR<float>          floatCxR
//	vec3 in a buffer       packed_float3 or float4
//	OpTypeImage 2D         texture2d<T>
//	OpTypeImage 2D depth   depth2d<float>
//	storage image          texture2d<T, access::read_write>
//	OpTypeSampler          sampler
//
// # Limitations
//
// Only vertex, fragment and compute entry points are translated. Arrays of
// buffers, multi-dimensional resource arrays and stage interface arrays of
// structs are rejected with an error wrapping cross.ErrUnsupportedInput.
package msl
