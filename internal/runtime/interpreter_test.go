package runtime

import (
	"bytes"
	"lambda-lang/internal/diag"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestInterp returns an interpreter reading stdin and writing to the
// returned buffer.
func newTestInterp(stdin string, opts Options) (*Interpreter, *bytes.Buffer) {
	var out bytes.Buffer
	opts.Stdout = &out
	opts.Stdin = strings.NewReader(stdin)
	return NewInterpreter(opts), &out
}

// runSource evaluates source and returns its value and captured stdout.
func runSource(source string) (Value, string, error) {
	interp, out := newTestInterp("", Options{})
	v, err := interp.Run("test.lambda", source)
	return v, out.String(), err
}

func expectOutput(t *testing.T, source, expected string) {
	t.Helper()
	_, out, err := runSource(source)
	require.NoError(t, err)
	assert.Equal(t, expected, out)
}

// expectRepr checks the REPL form of the last statement's value.
func expectRepr(t *testing.T, source, expected string) {
	t.Helper()
	v, _, err := runSource(source)
	require.NoError(t, err)
	assert.Equal(t, expected, last(v, source).Repr(), source)
}

func expectError(t *testing.T, source, code string) *diag.Diagnostic {
	t.Helper()
	_, _, err := runSource(source)
	require.Error(t, err, source)
	d, isDiag := err.(*diag.Diagnostic)
	require.True(t, isDiag, "expected *diag.Diagnostic, got %T", err)
	assert.Equal(t, code, d.Code, d.Render())
	return d
}

// last unwraps the value of a multi-statement program.
func last(v Value, source string) Value {
	if l, isList := v.(*List); isList && strings.Contains(strings.TrimSpace(source), "\n") {
		return l.Items()[l.Len()-1]
	}
	return v
}

// ---- literals ----

func TestIntegerLiterals(t *testing.T) {
	for _, src := range []string{"0", "7", "42", "1000000", "9223372036854775807"} {
		v, _, err := runSource(src)
		require.NoError(t, err)
		n, isNum := v.(*Number)
		require.True(t, isNum)
		assert.False(t, n.IsFloat())
		assert.Equal(t, src, n.String())
	}
}

func TestEmptyProgram(t *testing.T) {
	v, _, err := runSource("\n\n")
	require.NoError(t, err)
	assert.Equal(t, "0", v.Repr())
}

func TestMultiStatementProgramYieldsList(t *testing.T) {
	v, _, err := runSource("1\n\"a\"\n[2]")
	require.NoError(t, err)
	assert.Equal(t, `[1, "a", [2]]`, v.Repr())
}

func TestConstants(t *testing.T) {
	expectRepr(t, "null", "0")
	expectRepr(t, "true", "1")
	expectRepr(t, "false", "0")
	expectRepr(t, "PI", "3.141592653589793")
}

func TestConstantTakesCurrentContext(t *testing.T) {
	v, _, err := runSource("true")
	require.NoError(t, err)
	require.NotNil(t, v.Context())
	assert.Equal(t, "<program>", v.Context().Name)

	d := expectError(t, "func f() -> null()\nf()", diag.CodeIllegalOperation)
	require.Len(t, d.Trace, 2)
	assert.Equal(t, "f", d.Trace[1].Name)
}

// ---- arithmetic ----

func TestArithmetic(t *testing.T) {
	tests := []struct{ src, want string }{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"2 - 5", "-3"},
		{"10 / 4", "2.5"},
		{"10 / 2", "5.0"},
		{"7 % 3", "1"},
		{"-7 % 3", "2"},
		{"7 % -3", "-2"},
		{"--4", "4"},
		{"+4", "4"},
		{"10 / 4 * 2", "5.0"},
		{"9223372036854775807 + 1", "9.223372036854776e+18"},
	}
	for _, tt := range tests {
		expectRepr(t, tt.src, tt.want)
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct{ src, want string }{
		{"3 < 5", "1"},
		{"3 > 5", "0"},
		{"3 <= 3", "1"},
		{"3 >= 4", "0"},
		{"2 == 2", "1"},
		{"2 != 2", "0"},
		{"10 / 2 == 5", "1"},
		{`"abc" == "abc"`, "1"},
		{`"a" < "b"`, "1"},
	}
	for _, tt := range tests {
		expectRepr(t, tt.src, tt.want)
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, src := range []string{"5 / 0", "0 / 0", "-3 % 0", "10 / (2 - 2)", "(10 / 4) % 0"} {
		d := expectError(t, src, diag.CodeDivisionByZero)
		assert.Equal(t, "Division by zero", d.Message)
	}

	d := expectError(t, "5 / 0", diag.CodeDivisionByZero)
	assert.Equal(t, 5, d.Span.Start.Column)
	assert.Equal(t, 6, d.Span.End.Column)
}

// ---- strings ----

func TestStringConcatenationIsAssociative(t *testing.T) {
	left, _, err := runSource(`("a" + "b") + "c"`)
	require.NoError(t, err)
	right, _, err := runSource(`"a" + ("b" + "c")`)
	require.NoError(t, err)

	assert.Equal(t, `"abc"`, left.Repr())
	assert.Equal(t, left.Repr(), right.Repr())
}

func TestStringRepetition(t *testing.T) {
	expectRepr(t, `"ab" * 3`, `"ababab"`)
	expectRepr(t, `"ab" * 0`, `""`)
	expectRepr(t, `"ab" * -2`, `""`)
	expectError(t, `"ab" * (1 / 2)`, diag.CodeIllegalOperation)
}

func TestIllegalOperationSpan(t *testing.T) {
	d := expectError(t, `"a" - 1`, diag.CodeIllegalOperation)
	assert.Equal(t, "Illegal operation", d.Message)
	assert.Equal(t, 1, d.Span.Start.Column)
	assert.Equal(t, 8, d.Span.End.Column)
}

// ---- logic ----

func TestLogicalOperators(t *testing.T) {
	tests := []struct{ src, want string }{
		{"1 and 0", "0"},
		{"1 and 2", "1"},
		{"0 or 5", "1"},
		{"0 or 0", "0"},
		{"not 0", "1"},
		{`not "x"`, "0"},
		{`"" or "y"`, "1"},
		{"not 1 == 2", "1"},
	}
	for _, tt := range tests {
		expectRepr(t, tt.src, tt.want)
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	expectRepr(t, "0 and missing", "0")
	expectRepr(t, "1 or missing", "1")
	expectError(t, "1 and missing", diag.CodeUndefinedVariable)
}

func TestNoTruthinessForListsAndFunctions(t *testing.T) {
	expectError(t, "[1] and 1", diag.CodeIllegalOperation)
	expectError(t, "1 and [1]", diag.CodeIllegalOperation)
	expectError(t, "not print", diag.CodeIllegalOperation)
	expectError(t, "-[1]", diag.CodeIllegalOperation)
}

// ---- lists ----

func TestListOperators(t *testing.T) {
	tests := []struct{ src, want string }{
		{"[1, 2] + 3", "[1, 2, 3]"},
		{"[1, 2, 3] - 0", "[2, 3]"},
		{"[1, 2, 3] - -1", "[1, 2]"},
		{"[1] * [2, 3]", "[1, 2, 3]"},
		{"[1, 2, 3] / 0", "1"},
		{"[1, 2, 3] / -1", "3"},
		{`[[1], "a"] / 0`, "[1]"},
	}
	for _, tt := range tests {
		expectRepr(t, tt.src, tt.want)
	}
}

func TestListIndexOutOfBounds(t *testing.T) {
	d := expectError(t, "[1, 2, 3] / 3", diag.CodeIndexOutOfBounds)
	assert.Contains(t, d.Message, "could not be retrieved")
	assert.Equal(t, 13, d.Span.Start.Column)

	d = expectError(t, "[1, 2, 3] - 5", diag.CodeIndexOutOfBounds)
	assert.Contains(t, d.Message, "could not be removed")

	expectError(t, "[1, 2, 3] / -4", diag.CodeIndexOutOfBounds)
	expectError(t, "[1, 2, 3] / (1 / 2)", diag.CodeIndexOutOfBounds)
	expectError(t, `[1] / "0"`, diag.CodeIllegalOperation)
}

func TestListAliasingThroughParameters(t *testing.T) {
	src := `func grow(l)
  l + 4
  return l
end
grow([1, 2, 3])`
	expectRepr(t, src, "[1, 2, 3, 4]")
}

func TestListPrintForm(t *testing.T) {
	expectOutput(t, `print([1, "a", [2, 3]])`, "1, a, 2, 3\n")
}

func TestSelfContainingList(t *testing.T) {
	expectOutput(t, "func f(x) -> x + x\nprint(f([1]))", "1, [...]\n")
	expectRepr(t, "func f(x) -> x + x\nf([1])", "[1, [...]]")
	expectRepr(t, "func f(x) -> x + [x]\nf([1])", "[1, [[...]]]")
	expectRepr(t, "func f(x) -> [x, x]\nf([1])", "[[1], [1]]")
}

// ---- functions ----

func TestFunctionForms(t *testing.T) {
	expectRepr(t, "func f() -> 1\nf()", "1")
	expectRepr(t, "func f()\n  return 1\nend\nf()", "1")
	expectRepr(t, "func add(a, b) -> a + b\nadd(2, 3)", "5")
}

func TestBlockFunctionWithoutReturnYieldsNull(t *testing.T) {
	expectRepr(t, "func f()\n  1 + 1\nend\nf()", "0")
	expectRepr(t, "func f()\n  return\nend\nf()", "0")
}

func TestReturnUnwindsImmediately(t *testing.T) {
	src := `func f()
  return 1
  print("unreachable")
end
f()`
	v, out, err := runSource(src)
	require.NoError(t, err)
	assert.Equal(t, "1", last(v, src).Repr())
	assert.Empty(t, out)
}

func TestTopLevelReturn(t *testing.T) {
	v, out, err := runSource("return 5\nprint(1)")
	require.NoError(t, err)
	assert.Equal(t, "5", v.Repr())
	assert.Empty(t, out)
}

func TestArgumentCount(t *testing.T) {
	d := expectError(t, "func f(a, b) -> a\nf(1)", diag.CodeArgumentCount)
	assert.Equal(t, "1 too few args passed into <function f>", d.Message)

	d = expectError(t, "func f(a, b) -> a\nf(1, 2, 3, 4)", diag.CodeArgumentCount)
	assert.Equal(t, "2 too many args passed into <function f>", d.Message)

	d = expectError(t, "print()", diag.CodeArgumentCount)
	assert.Equal(t, "1 too few args passed into <built-in function print>", d.Message)

	d = expectError(t, "lambda (x) : x\n(lambda (x) : x)()", diag.CodeArgumentCount)
	assert.Equal(t, "1 too few args passed into <lambda <anonymous>>", d.Message)
}

func TestArgumentsEvaluatedBeforeCall(t *testing.T) {
	src := `func f(a, b) -> a
f(print("first"), print("second"))`
	expectOutput(t, src, "first\nsecond\n")

	_, out, err := runSource("func f(a) -> print(\"body\")\nf(missing)")
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestClosureCapturesDefiningEnvironment(t *testing.T) {
	src := `func makeReader(x) -> lambda () : x
func callWith(x, fn) -> fn()
callWith(2, makeReader(1))`
	expectRepr(t, src, "1")
}

func TestChainedCall(t *testing.T) {
	expectRepr(t, "func adder(x) -> lambda (y) : x + y\nadder(1)(10)", "11")
}

func TestFunctionValues(t *testing.T) {
	expectRepr(t, "func f() -> 1\nf", "<function f>")
	expectRepr(t, "lambda sq(x) : x * x\nsq", "<lambda sq>")
	expectRepr(t, "lambda (x) : x", "<lambda <anonymous>>")
	expectRepr(t, "func (x) -> x", "<function <anonymous>>")
	expectRepr(t, "print", "<built-in function print>")
	expectRepr(t, "cls", "<built-in function clear>")
}

func TestLambdaCopyStaysLambda(t *testing.T) {
	src := "lambda sq(x) : x * x\nsq"
	v, _, err := runSource(src)
	require.NoError(t, err)
	fn, isFn := last(v, src).(*Function)
	require.True(t, isFn)
	assert.True(t, fn.Lambda)

	c, isFn := fn.Copy().(*Function)
	require.True(t, isFn)
	assert.True(t, c.Lambda)
	assert.Equal(t, "lambda", c.TypeName())
}

func TestFunctionsShadowLocally(t *testing.T) {
	src := `func outer()
  func print(x) -> x
  return print(5)
end
outer()
print("still native")`
	v, out, err := runSource(src)
	require.NoError(t, err)
	assert.Equal(t, "still native\n", out)
	items := v.(*List).Items()
	assert.Equal(t, "5", items[1].Repr())
}

func TestCannotRedefineConstant(t *testing.T) {
	d := expectError(t, "func PI() -> 3", diag.CodeConstant)
	assert.Equal(t, "Cannot redefine constant 'PI'", d.Message)

	// Parameters live in their own scope.
	expectRepr(t, "func f(PI) -> PI\nf(3)", "3")
}

func TestUndefinedVariable(t *testing.T) {
	d := expectError(t, "1 + foo", diag.CodeUndefinedVariable)
	assert.Equal(t, "'foo' is not defined", d.Message)
	assert.Equal(t, 5, d.Span.Start.Column)
}

func TestCallingNonCallable(t *testing.T) {
	expectError(t, "1()", diag.CodeIllegalOperation)
	expectError(t, `"f"(1)`, diag.CodeIllegalOperation)
}

// ---- diagnostics ----

func TestTracebackOrder(t *testing.T) {
	src := `func inner() -> 1 / 0
func outer() -> inner()
outer()`
	d := expectError(t, src, diag.CodeDivisionByZero)

	require.Len(t, d.Trace, 3)
	assert.Equal(t, diag.Frame{File: "test.lambda", Line: 3, Name: "<program>"}, d.Trace[0])
	assert.Equal(t, diag.Frame{File: "test.lambda", Line: 2, Name: "outer"}, d.Trace[1])
	assert.Equal(t, diag.Frame{File: "test.lambda", Line: 1, Name: "inner"}, d.Trace[2])

	want := "Traceback (most recent call last):\n" +
		"  File test.lambda, line 3, in <program>\n" +
		"  File test.lambda, line 2, in outer\n" +
		"  File test.lambda, line 1, in inner\n" +
		"Runtime Error: Division by zero\n" +
		"\n" +
		"func inner() -> 1 / 0\n" +
		strings.Repeat(" ", 20) + "^"
	assert.Equal(t, want, d.Render())
}

func TestAnonymousFrameName(t *testing.T) {
	d := expectError(t, "(lambda () : missing)()", diag.CodeUndefinedVariable)
	require.Len(t, d.Trace, 2)
	assert.Equal(t, "<anonymous>", d.Trace[1].Name)
}

func TestMultiLineSpanExcerpt(t *testing.T) {
	src := "(func g()\n  return 1\nend) + 1"
	d := expectError(t, src, diag.CodeIllegalOperation)
	assert.Equal(t, 1, d.Span.Start.Line)
	assert.Equal(t, 3, d.Span.End.Line)

	want := "(func g()\n^^^^^^^^^\n  return 1\n^^^^^^^^^^\nend) + 1\n^^^^^^^^"
	assert.True(t, strings.HasSuffix(d.Render(), want), d.Render())
}

func TestRecursionLimit(t *testing.T) {
	interp, _ := newTestInterp("", Options{MaxDepth: 50})
	_, err := interp.Run("test.lambda", "func f() -> f()\nf()")
	require.Error(t, err)
	d := err.(*diag.Diagnostic)
	assert.Equal(t, diag.CodeRecursionDepth, d.Code)
	assert.Equal(t, "Maximum recursion depth exceeded (50)", d.Message)
	assert.Len(t, d.Trace, 51)

	// The interpreter is usable again afterwards.
	v, err := interp.Run("test.lambda", "1 + 1")
	require.NoError(t, err)
	assert.Equal(t, "2", v.Repr())
}

func TestDefaultRecursionLimit(t *testing.T) {
	d := expectError(t, "func f() -> f()\nf()", diag.CodeRecursionDepth)
	assert.Len(t, d.Trace, DefaultMaxDepth+1)
}

func TestLexAndSyntaxErrorsFromRun(t *testing.T) {
	d := expectError(t, "1 @ 2", diag.CodeIllegalChar)
	assert.Equal(t, diag.Lex, d.Kind)
	assert.Equal(t, 3, d.Span.Start.Column)

	d = expectError(t, "func (", diag.CodeInvalidSyntax)
	assert.Equal(t, "Expected identifier or ')'", d.Message)
}

func TestStatePersistsAcrossRuns(t *testing.T) {
	interp, out := newTestInterp("", Options{})
	_, err := interp.Run("<stdin>", "func sq(x) -> x * x")
	require.NoError(t, err)
	_, err = interp.Run("<stdin>", "print(sq(7))")
	require.NoError(t, err)
	assert.Equal(t, "49\n", out.String())
	assert.Contains(t, interp.Env().Names(), "sq")
}
