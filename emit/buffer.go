package emit

import (
	"fmt"
	"strings"
)

// Buffer accumulates generated source with indentation tracking.
type Buffer struct {
	out    strings.Builder
	indent int
}

// Write writes text without indentation. If args are provided, format is
// passed through fmt.Fprintf.
//
//nolint:goprintffuncname
func (b *Buffer) Write(format string, args ...any) {
	if len(args) == 0 {
		b.out.WriteString(format)
	} else {
		fmt.Fprintf(&b.out, format, args...)
	}
}

// Line writes an indented line followed by a newline.
//
//nolint:goprintffuncname
func (b *Buffer) Line(format string, args ...any) {
	if format == "" && len(args) == 0 {
		b.out.WriteByte('\n')
		return
	}
	b.WriteIndent()
	b.Write(format, args...)
	b.out.WriteByte('\n')
}

// WriteIndent writes the current indentation.
func (b *Buffer) WriteIndent() {
	for i := 0; i < b.indent; i++ {
		b.out.WriteString("    ")
	}
}

// Push increases indentation.
func (b *Buffer) Push() { b.indent++ }

// Pop decreases indentation.
func (b *Buffer) Pop() {
	if b.indent > 0 {
		b.indent--
	}
}

// Begin opens a brace scope on its own line.
func (b *Buffer) Begin() {
	b.Line("{")
	b.Push()
}

// End closes a brace scope. suffix follows the brace, as in "};".
func (b *Buffer) End(suffix string) {
	b.Pop()
	b.Line("}" + suffix)
}

// Depth returns the indentation level.
func (b *Buffer) Depth() int { return b.indent }

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return b.out.Len() }

// String returns the accumulated text.
func (b *Buffer) String() string { return b.out.String() }

// Reset discards all text and indentation.
func (b *Buffer) Reset() {
	b.out.Reset()
	b.indent = 0
}

// child returns an empty buffer at the same indentation.
func (b *Buffer) child() *Buffer { return &Buffer{indent: b.indent} }
