// Package cross implements the reflection core shared by every backend.
//
// A Compiler wraps an ir.Module and answers queries without emitting
// text: type and decoration lookup, categorized resource enumeration,
// entry point selection and renaming, specialization constants, buffer
// layout math against the std140, std430, scalar and HLSL packing
// standards, and combined image-sampler synthesis for targets without
// separate texture and sampler objects.
//
// # Usage
//
//	c, err := cross.New(module, cross.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := c.SelectEntryPoint("main", nil); err != nil {
//	    return err
//	}
//	res := c.ShaderResourcesForActiveVariables(c.ActiveInterfaceVariables())
//	for _, ubo := range res.UniformBuffers {
//	    size, _ := c.DeclaredStructSize(ubo.BaseTypeID)
//	    fmt.Println(ubo.Name, size)
//	}
//
// # Errors
//
// Every failure is an *Error carrying one of the kinds InvalidInput,
// UnsupportedInput, AllocationFailure, InvalidArgument or Internal.
// Backends wrap these with their own prefix; use KindOf or errors.As to
// recover the kind.
package cross
