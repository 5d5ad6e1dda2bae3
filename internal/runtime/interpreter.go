package runtime

import (
	"bufio"
	"errors"
	"io"
	"lambda-lang/internal/ast"
	"lambda-lang/internal/diag"
	"lambda-lang/internal/parser"
	"lambda-lang/internal/span"
	"lambda-lang/internal/token"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"
)

// DefaultMaxDepth is the call depth ceiling used when Options.MaxDepth is 0.
const DefaultMaxDepth = 1000

// ============================================================
// Evaluation result
// ============================================================

// ExecResult is the outcome of evaluating one node: a value, an error, or a
// pending return. Evaluation stops and propagates as soon as Err or Return
// is set; Return is absorbed by the nearest enclosing call.
type ExecResult struct {
	Value  Value
	Return Value
	Err    error
}

func (r ExecResult) stop() bool { return r.Err != nil || r.Return != nil }

func done(v Value) ExecResult { return ExecResult{Value: v} }

func failed(err error) ExecResult { return ExecResult{Err: err} }

func returning(v Value) ExecResult { return ExecResult{Return: v} }

// ============================================================
// Interpreter
// ============================================================

// Loader provides the source text of scripts evaluated by run().
type Loader interface {
	Load(name string) (string, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(name string) (string, error)

func (f LoaderFunc) Load(name string) (string, error) { return f(name) }

var errNoLoader = errors.New("no script loader configured")

// Options configures an Interpreter. Zero values select defaults.
type Options struct {
	Stdout   io.Writer
	Stdin    io.Reader
	Loader   Loader
	MaxDepth int
	Logger   *zap.Logger
}

// Interpreter walks the AST and evaluates it.
type Interpreter struct {
	root *Environment
	env  *Environment
	ctx  *Context

	depth    int
	maxDepth int

	out    io.Writer
	in     *bufio.Reader
	loader Loader
	log    *zap.Logger
}

var _ ast.Visitor[ExecResult] = (*Interpreter)(nil)

// NewInterpreter creates an interpreter whose root environment holds the
// constants and the native functions.
func NewInterpreter(opts Options) *Interpreter {
	i := &Interpreter{
		maxDepth: opts.MaxDepth,
		out:      opts.Stdout,
		loader:   opts.Loader,
		log:      opts.Logger,
	}
	if i.maxDepth <= 0 {
		i.maxDepth = DefaultMaxDepth
	}
	if i.out == nil {
		i.out = os.Stdout
	}
	in := opts.Stdin
	if in == nil {
		in = os.Stdin
	}
	i.in = bufio.NewReader(in)
	if i.loader == nil {
		i.loader = LoaderFunc(func(string) (string, error) { return "", errNoLoader })
	}
	if i.log == nil {
		i.log = zap.NewNop()
	}

	root, err := newRootEnvironment()
	if err != nil {
		panic(err)
	}
	i.root = root
	i.env = root
	return i
}

// newRootEnvironment defines the constants and built-in functions. It fails
// only if two of them share a name.
func newRootEnvironment() (*Environment, error) {
	root := NewEnvironment(nil)
	consts := []struct {
		name  string
		value Value
	}{
		{"null", Null()},
		{"false", NewInt(0)},
		{"true", NewInt(1)},
		{"PI", NewFloat(math.Pi)},
	}
	for _, c := range consts {
		if err := root.Define(c.name, c.value, true); err != nil {
			return nil, err
		}
	}
	if err := RegisterBuiltins(root); err != nil {
		return nil, err
	}
	return root, nil
}

// Env returns the root environment shared by every Run.
func (i *Interpreter) Env() *Environment {
	return i.root
}

// Run lexes, parses and evaluates source as the unit name in the root
// environment. A one-statement program yields that statement's value, a
// longer one the List of its statement values. The error, if any, is a
// *diag.Diagnostic.
func (i *Interpreter) Run(name, source string) (Value, error) {
	i.log.Debug("run", zap.String("file", name), zap.Int("bytes", len(source)))

	block, err := parser.Parse(source, name)
	if err != nil {
		return nil, err
	}

	prevEnv, prevCtx := i.env, i.ctx
	i.env = i.root
	i.ctx = &Context{Name: "<program>"}
	defer func() { i.env, i.ctx = prevEnv, prevCtx }()

	res := ast.Visit[ExecResult](block, i)
	switch {
	case res.Err != nil:
		return nil, res.Err
	case res.Return != nil:
		return res.Return, nil
	}

	switch len(block.Stmts) {
	case 0:
		return Null(), nil
	case 1:
		return res.Value.(*List).Items()[0], nil
	default:
		return res.Value, nil
	}
}

// ---- helpers ----

func (i *Interpreter) raise(code string, s span.Span, format string, args ...interface{}) ExecResult {
	return failed(i.ctx.errorf(code, s, format, args...))
}

func (i *Interpreter) raiseOp(err *opError) ExecResult {
	return i.raise(err.code, err.span, "%s", err.msg)
}

// literal stamps a freshly built value with its node span and the current context.
func (i *Interpreter) literal(v Value, s span.Span) ExecResult {
	v.stamp(s, i.ctx)
	return done(v)
}

// adopt copies v for use at s. Plain values move into the current context;
// callables keep the context they were defined in.
func (i *Interpreter) adopt(v Value, s span.Span) Value {
	c := v.Copy()
	ctx := i.ctx
	if _, callable := c.(Callable); callable {
		ctx = c.Context()
	}
	c.stamp(s, ctx)
	return c
}

// readLine reads one line of input without its terminator. io.EOF is
// returned only when no input is left at all.
func (i *Interpreter) readLine() (string, error) {
	line, err := i.in.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ============================================================
// Literals and references
// ============================================================

func (i *Interpreter) VisitNumberLiteral(n *ast.NumberLiteral) ExecResult {
	if n.IsFloat {
		return i.literal(NewFloat(n.Float), n.Span)
	}
	return i.literal(NewInt(n.Value), n.Span)
}

func (i *Interpreter) VisitStringLiteral(n *ast.StringLiteral) ExecResult {
	return i.literal(NewString(n.Value), n.Span)
}

func (i *Interpreter) VisitListLiteral(n *ast.ListLiteral) ExecResult {
	items := make([]Value, 0, len(n.Elements))
	for _, elem := range n.Elements {
		res := ast.Visit[ExecResult](elem, i)
		if res.stop() {
			return res
		}
		items = append(items, res.Value)
	}
	return i.literal(NewList(items...), n.Span)
}

func (i *Interpreter) VisitVariableRef(n *ast.VariableRef) ExecResult {
	v, found := i.env.Get(n.Name)
	if !found {
		return i.raise(diag.CodeUndefinedVariable, n.Span, "'%s' is not defined", n.Name)
	}
	return done(i.adopt(v, n.Span))
}

func (i *Interpreter) VisitBooleanRef(n *ast.BooleanRef) ExecResult {
	v, found := i.env.Get(n.Name)
	if !found {
		return i.raise(diag.CodeUndefinedVariable, n.Span, "'%s' is not defined", n.Name)
	}
	return done(i.adopt(v, n.Span))
}

// ============================================================
// Operators
// ============================================================

func (i *Interpreter) VisitBinaryOp(n *ast.BinaryOp) ExecResult {
	left := ast.Visit[ExecResult](n.Left, i)
	if left.stop() {
		return left
	}

	if n.Op == token.KW_AND || n.Op == token.KW_OR {
		return i.logical(n, left.Value)
	}

	right := ast.Visit[ExecResult](n.Right, i)
	if right.stop() {
		return right
	}

	result, err := binaryOp(n.Op, left.Value, right.Value)
	if err != nil {
		return i.raiseOp(err)
	}
	return i.literal(result, n.Span)
}

// logical evaluates and/or, skipping the right operand when the left one
// already decides the result.
func (i *Interpreter) logical(n *ast.BinaryOp, left Value) ExecResult {
	lt, valid := IsTrue(left)
	if !valid {
		return i.raise(diag.CodeIllegalOperation, span.Join(left.Span(), n.Right.GetSpan()), "Illegal operation")
	}
	if n.Op == token.KW_AND && !lt {
		return i.literal(boolNumber(false), n.Span)
	}
	if n.Op == token.KW_OR && lt {
		return i.literal(boolNumber(true), n.Span)
	}

	right := ast.Visit[ExecResult](n.Right, i)
	if right.stop() {
		return right
	}
	rt, valid := IsTrue(right.Value)
	if !valid {
		return i.raiseOp(illegalOperation(left, right.Value))
	}
	return i.literal(boolNumber(rt), n.Span)
}

func (i *Interpreter) VisitUnaryOp(n *ast.UnaryOp) ExecResult {
	operand := ast.Visit[ExecResult](n.Operand, i)
	if operand.stop() {
		return operand
	}
	v := operand.Value

	switch n.Op {
	case token.MINUS:
		if neg, valid := negate(v); valid {
			return i.literal(neg, n.Span)
		}
	case token.PLUS:
		if _, isNum := v.(*Number); isNum {
			return i.literal(v.Copy(), n.Span)
		}
	case token.KW_NOT:
		if t, valid := IsTrue(v); valid {
			return i.literal(boolNumber(!t), n.Span)
		}
	}
	return i.raise(diag.CodeIllegalOperation, n.Span, "Illegal operation")
}

// ============================================================
// Statements and definitions
// ============================================================

func (i *Interpreter) VisitReturn(n *ast.Return) ExecResult {
	if n.Value == nil {
		return returning(Null())
	}
	res := ast.Visit[ExecResult](n.Value, i)
	if res.stop() {
		return res
	}
	return returning(res.Value)
}

func (i *Interpreter) VisitFunctionDef(n *ast.FunctionDef) ExecResult {
	return i.define(&Function{
		Name:       n.Name,
		Params:     n.Params,
		Body:       n.Body,
		AutoReturn: n.AutoReturn,
		Env:        i.env,
	}, n.Span)
}

func (i *Interpreter) VisitLambdaDef(n *ast.LambdaDef) ExecResult {
	return i.define(&Function{
		Name:       n.Name,
		Params:     n.Params,
		Body:       n.Body,
		AutoReturn: true,
		Lambda:     true,
		Env:        i.env,
	}, n.Span)
}

// define closes fn over the current environment and binds it if named.
func (i *Interpreter) define(fn *Function, s span.Span) ExecResult {
	fn.stamp(s, i.ctx)
	if fn.Name != "" {
		if err := i.env.Bind(fn.Name, fn); err != nil {
			return i.raise(diag.CodeConstant, s, "Cannot redefine constant '%s'", fn.Name)
		}
	}
	return done(fn)
}

func (i *Interpreter) VisitBlock(n *ast.Block) ExecResult {
	values := make([]Value, 0, len(n.Stmts))
	for _, stmt := range n.Stmts {
		res := ast.Visit[ExecResult](stmt, i)
		if res.stop() {
			return res
		}
		values = append(values, res.Value)
	}
	return i.literal(NewList(values...), n.Span)
}

// ============================================================
// Calls
// ============================================================

func (i *Interpreter) VisitCall(n *ast.Call) ExecResult {
	callee := ast.Visit[ExecResult](n.Callee, i)
	if callee.stop() {
		return callee
	}

	args := make([]Value, 0, len(n.Args))
	for _, arg := range n.Args {
		res := ast.Visit[ExecResult](arg, i)
		if res.stop() {
			return res
		}
		args = append(args, res.Value)
	}

	fn, isCallable := callee.Value.(Callable)
	if !isCallable {
		return i.raise(diag.CodeIllegalOperation, n.Span, "Illegal operation")
	}
	if i.depth >= i.maxDepth {
		return i.raise(diag.CodeRecursionDepth, n.Span, "Maximum recursion depth exceeded (%d)", i.maxDepth)
	}
	if res := i.checkArity(fn, len(args), n.Span); res.stop() {
		return res
	}

	i.depth++
	defer func() { i.depth-- }()
	i.log.Debug("call", zap.String("name", fn.DisplayName()), zap.Int("depth", i.depth))

	ctx := &Context{Name: fn.DisplayName(), Parent: i.ctx, Entry: n.Span.Start}

	var (
		result Value
		err    error
	)
	switch f := fn.(type) {
	case *Function:
		result, err = i.callFunction(f, args, ctx)
	case *Builtin:
		result, err = f.Native.Fn(&Call{interp: i, Args: args, Span: n.Span, Ctx: ctx})
	}
	if err != nil {
		return failed(err)
	}
	return done(i.adopt(result, n.Span))
}

// checkArity is shared by user and native callables.
func (i *Interpreter) checkArity(fn Callable, got int, s span.Span) ExecResult {
	want := fn.Arity()
	switch {
	case got > want:
		return i.raise(diag.CodeArgumentCount, s, "%d too many args passed into %s", got-want, fn.Repr())
	case got < want:
		return i.raise(diag.CodeArgumentCount, s, "%d too few args passed into %s", want-got, fn.Repr())
	}
	return ExecResult{}
}

// callFunction runs f's body in a child of its captured environment.
func (i *Interpreter) callFunction(f *Function, args []Value, ctx *Context) (Value, error) {
	prevEnv, prevCtx := i.env, i.ctx
	i.env = NewEnvironment(f.Env)
	i.ctx = ctx
	defer func() { i.env, i.ctx = prevEnv, prevCtx }()

	// The new scope holds no constants, so Bind cannot fail here.
	for idx, param := range f.Params {
		_ = i.env.Bind(param, args[idx])
	}

	res := ast.Visit[ExecResult](f.Body, i)
	switch {
	case res.Err != nil:
		return nil, res.Err
	case f.AutoReturn:
		return res.Value, nil
	case res.Return != nil:
		return res.Return, nil
	default:
		return Null(), nil
	}
}
