// Package span provides source position and span types used across the interpreter.
package span

import "fmt"

// Position represents a position in source code.
//
// A Position is a snapshot: it is copied by value into tokens, nodes and
// values and never updated after capture. Source holds the full text of the
// unit so diagnostics can render an excerpt without another lookup.
type Position struct {
	Offset int    `json:"offset"` // byte offset from beginning of source
	Line   int    `json:"line"`   // 1-based line number
	Column int    `json:"column"` // 1-based column number (runes)
	File   string `json:"file"`
	Source string `json:"-"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span represents a range in source code [Start, End).
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (s Span) String() string {
	return fmt.Sprintf("%s..%s", s.Start, s.End)
}

// Len returns the byte length of the span.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Join returns the span covering a through b.
func Join(a, b Span) Span {
	return Span{Start: a.Start, End: b.End}
}
