// Package ir defines the in-memory SPIR-V graph consumed by the cross
// compiler.
//
// The graph is produced by an external binary parser (or by Builder in
// tests and tools) and is addressed entirely by small integer IDs:
//
//   - Types: scalars, vectors, matrices, arrays, structs, pointers, images
//   - Variables: module-scope and function-scope OpVariable records
//   - Constants: scalar bits per (column, row) or sub-constant lists
//   - Functions: parameters, local variables and basic blocks
//   - Decorations: per-ID and per-member tables plus extended annotations
//
// Records reference each other by ID, never by pointer, so cyclic graphs
// (recursive struct pointers, call graphs, back edges) need no special
// ownership handling. Every ID maps to exactly one arena and is reachable
// in O(1).
//
// # Structured Control Flow
//
// Blocks carry their terminator and, for selection and loop headers, the
// merge and continue targets declared by OpSelectionMerge and
// OpLoopMerge. Backends rebuild if/else, loops and switches from this
// information.
package ir
