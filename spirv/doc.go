// Package spirv defines the SPIR-V enumerations consumed by the cross
// compiler: opcodes, decorations, builtins, storage classes, execution
// models and modes, image descriptors and the GLSL.std.450 extended
// instruction set.
//
// Every enumeration carries the numeric value assigned by the Khronos
// registry, so records decoded by an external binary parser can be stored
// in the IR without translation.
//
// # Name Tables
//
// Human-readable names are kept in static tables built once at package
// initialization and exposed through String methods and Parse functions:
//
//	model, ok := spirv.ParseExecutionModel("Fragment")
//	fmt.Println(spirv.BuiltInFragCoord) // "FragCoord"
package spirv
