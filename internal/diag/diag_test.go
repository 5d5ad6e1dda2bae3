package diag

import (
	"lambda-lang/internal/span"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pos(src string, offset, line, col int) span.Position {
	return span.Position{Offset: offset, Line: line, Column: col, File: "t.lambda", Source: src}
}

func TestExcerptSingleLine(t *testing.T) {
	src := "a + bc"
	s := span.Span{Start: pos(src, 4, 1, 5), End: pos(src, 6, 1, 7)}
	assert.Equal(t, "a + bc\n    ^^", Excerpt(s))
}

func TestExcerptEmptySpanGetsOneCaret(t *testing.T) {
	src := "abc"
	s := span.Span{Start: pos(src, 3, 1, 4), End: pos(src, 3, 1, 4)}
	assert.Equal(t, "abc\n   ^", Excerpt(s))
}

func TestExcerptMultiLine(t *testing.T) {
	src := "one\ntwo\nthree"
	s := span.Span{Start: pos(src, 1, 1, 2), End: pos(src, 6, 2, 3)}
	assert.Equal(t, "one\n^^^\ntwo\n^^^", Excerpt(s))
}

func TestExcerptTabsBecomeSpaces(t *testing.T) {
	src := "\tx"
	s := span.Span{Start: pos(src, 1, 1, 2), End: pos(src, 2, 1, 3)}
	assert.Equal(t, " x\n ^", Excerpt(s))
}

func TestErrorAndKind(t *testing.T) {
	src := "1 @"
	d := IllegalChar(span.Span{Start: pos(src, 2, 1, 3), End: pos(src, 3, 1, 4)}, '@')
	assert.Equal(t, "Illegal Character: '@' (t.lambda:1:3)", d.Error())
	assert.Equal(t, "lex", d.Kind.String())
	assert.Equal(t, CodeIllegalChar, d.Code)
}

func TestRenderRuntimeWithoutFrames(t *testing.T) {
	src := "x"
	d := Runtimef(CodeUndefinedVariable, span.Span{Start: pos(src, 0, 1, 1), End: pos(src, 1, 1, 2)}, nil, "'%s' is not defined", "x")
	assert.Equal(t, "Traceback (most recent call last):\nRuntime Error: 'x' is not defined\n\nx\n^", d.Render())
}

func TestRenderStyledWrapsEachLine(t *testing.T) {
	src := "1 / 0"
	s := span.Span{Start: pos(src, 4, 1, 5), End: pos(src, 5, 1, 6)}
	d := Runtimef(CodeDivisionByZero, s, []Frame{{File: "t.lambda", Line: 1, Name: "<program>"}}, "Division by zero")

	st := Style{
		Trace:   func(s string) string { return "<" + s + ">" },
		Message: func(s string) string { return "*" + s + "*" },
	}
	want := "<Traceback (most recent call last):>\n" +
		"<  File t.lambda, line 1, in <program>>\n" +
		"*Runtime Error: Division by zero*\n" +
		"\n" +
		"1 / 0\n" +
		"    ^"
	assert.Equal(t, want, d.RenderStyled(st))
	assert.Equal(t, d.Render(), d.RenderStyled(Style{}))
}

func TestRenderStyledSyntax(t *testing.T) {
	src := "1 +"
	d := Syntaxf(span.Span{Start: pos(src, 3, 1, 4), End: pos(src, 3, 1, 4)}, "Expected int or float")
	st := Style{Message: func(s string) string { return "*" + s + "*" }}
	assert.Equal(t, "*Invalid Syntax: Expected int or float*\nFile t.lambda, line 1\n\n1 +\n   ^", d.RenderStyled(st))
}
