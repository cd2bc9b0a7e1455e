// Package reflection describes a module as JSON.
//
// The document lists the entry points, every struct type reachable from a
// resource, and the resources grouped by category (stage inputs and
// outputs, textures, images, buffers, push constants and specialization
// constants) with their bindings, locations and declared block sizes.
// Types are referenced by GLSL-style names; structs by "_<id>" keys into
// the types table.
//
// Output is deterministic: resources keep declaration order and the types
// table is keyed.
//
//	doc, err := reflection.Compile(module, reflection.DefaultOptions())
package reflection
