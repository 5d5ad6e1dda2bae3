// Package diag provides the diagnostic (error) type shared by the lexer,
// parser and evaluator, together with its caret and traceback rendering.
package diag

import (
	"fmt"
	"lambda-lang/internal/span"
	"strings"
	"unicode/utf8"
)

// Kind classifies a diagnostic by the stage that produced it.
type Kind int

const (
	Lex Kind = iota
	Syntax
	Runtime
)

func (k Kind) String() string {
	switch k {
	case Lex:
		return "lex"
	case Syntax:
		return "syntax"
	case Runtime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Stable diagnostic codes.
const (
	CodeIllegalChar       = "E1001"
	CodeExpectedChar      = "E1002"
	CodeInvalidSyntax     = "E2001"
	CodeUndefinedVariable = "E3001"
	CodeIllegalOperation  = "E3002"
	CodeDivisionByZero    = "E3003"
	CodeArgumentCount     = "E3004"
	CodeIndexOutOfBounds  = "E3005"
	CodeArgumentType      = "E3006"
	CodeScriptLoad        = "E3007"
	CodeRecursionDepth    = "E3008"
	CodeInput             = "E3009"
	CodeConstant          = "E3010"
)

// Frame is one line of a runtime traceback.
type Frame struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Name string `json:"name"`
}

// Diagnostic represents an interpreter diagnostic message.
type Diagnostic struct {
	Code    string    `json:"code"`            // stable error code, e.g. "E1001"
	Kind    Kind      `json:"kind"`            // stage that raised it
	Name    string    `json:"name"`            // e.g. "Illegal Character"
	Message string    `json:"message"`         // human-readable description
	Span    span.Span `json:"span"`            // source location
	Trace   []Frame   `json:"trace,omitempty"` // runtime only, outermost first
}

// Error returns a one-line representation of the diagnostic.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s (%s:%d:%d)", d.Name, d.Message,
		d.Span.Start.File, d.Span.Start.Line, d.Span.Start.Column)
}

// Style decorates parts of a rendered report, typically with terminal
// colour. A nil field leaves that part plain.
type Style struct {
	Trace   func(string) string // traceback header and frame lines
	Message func(string) string // the "Name: Message" line
}

func (s Style) apply(f func(string) string, text string) string {
	if f == nil {
		return text
	}
	return f(text)
}

// Render returns the full multi-line report: traceback (runtime errors
// only), name and message, and a caret-annotated excerpt of the source.
func (d *Diagnostic) Render() string {
	return d.RenderStyled(Style{})
}

// RenderStyled is Render with st applied to the traceback and message lines.
// Decorations never span a line break.
func (d *Diagnostic) RenderStyled(st Style) string {
	var b strings.Builder
	message := st.apply(st.Message, fmt.Sprintf("%s: %s", d.Name, d.Message))
	if d.Kind == Runtime {
		b.WriteString(st.apply(st.Trace, "Traceback (most recent call last):"))
		b.WriteString("\n")
		for _, f := range d.Trace {
			b.WriteString(st.apply(st.Trace, fmt.Sprintf("  File %s, line %d, in %s", f.File, f.Line, f.Name)))
			b.WriteString("\n")
		}
		b.WriteString(message)
		b.WriteString("\n")
	} else {
		b.WriteString(message)
		b.WriteString("\n")
		fmt.Fprintf(&b, "File %s, line %d\n", d.Span.Start.File, d.Span.Start.Line)
	}
	b.WriteString("\n")
	b.WriteString(Excerpt(d.Span))
	return b.String()
}

// IllegalChar creates a lexer diagnostic for a character no token starts with.
func IllegalChar(s span.Span, ch rune) *Diagnostic {
	return &Diagnostic{
		Code:    CodeIllegalChar,
		Kind:    Lex,
		Name:    "Illegal Character",
		Message: fmt.Sprintf("'%c'", ch),
		Span:    s,
	}
}

// ExpectedChar creates a lexer diagnostic for an incomplete token.
func ExpectedChar(s span.Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Code:    CodeExpectedChar,
		Kind:    Lex,
		Name:    "Expected Character",
		Message: fmt.Sprintf(format, args...),
		Span:    s,
	}
}

// Syntaxf creates an invalid-syntax diagnostic at the given span.
func Syntaxf(s span.Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Code:    CodeInvalidSyntax,
		Kind:    Syntax,
		Name:    "Invalid Syntax",
		Message: fmt.Sprintf(format, args...),
		Span:    s,
	}
}

// Runtimef creates a runtime diagnostic with the given traceback.
func Runtimef(code string, s span.Span, trace []Frame, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Code:    code,
		Kind:    Runtime,
		Name:    "Runtime Error",
		Message: fmt.Sprintf(format, args...),
		Span:    s,
		Trace:   trace,
	}
}

// Excerpt renders the source lines covered by s with carets underneath.
// A span on one line is underlined exactly; a span crossing lines marks
// every affected line in full.
func Excerpt(s span.Span) string {
	lines := strings.Split(s.Start.Source, "\n")
	first, last := s.Start.Line, s.End.Line
	if last < first {
		last = first
	}

	var b strings.Builder
	for ln := first; ln <= last && ln-1 < len(lines); ln++ {
		if ln < 1 {
			continue
		}
		line := strings.NewReplacer("\t", " ", "\r", "").Replace(lines[ln-1])
		from, to := 0, utf8.RuneCountInString(line)
		if first == last {
			from, to = s.Start.Column-1, s.End.Column-1
		}
		if from < 0 {
			from = 0
		}
		if to <= from {
			to = from + 1
		}
		if ln > first {
			b.WriteString("\n")
		}
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(strings.Repeat(" ", from))
		b.WriteString(strings.Repeat("^", to-from))
	}
	return b.String()
}
