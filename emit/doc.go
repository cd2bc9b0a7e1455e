// Package emit is the text emission framework shared by the C-like
// backends.
//
// It provides the pieces every backend needs between the reflection core
// and the final source text:
//
//   - Buffer, an indented statement buffer that is reset for every pass.
//   - Namer, which assigns stable, sanitized, unique identifiers.
//   - Analyze, the per-function forwarding analysis deciding which results
//     are inlined at their single use and which become temporaries.
//   - FixedPoint, the bounded recompilation loop. A pass that discovers a
//     new requirement (a helper function, a widened type) asks for another
//     pass; more than MaxPasses passes is an internal error.
//   - SelectPacking, which finds the layout rule a buffer block follows.
//   - Generator, the structured control flow and instruction emitter. A
//     Dialect supplies the target spelling.
//
// All iteration that shapes the output follows module declaration order,
// so identical input always produces identical text.
package emit
