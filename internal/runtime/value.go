// Package runtime implements the evaluator and runtime value system for lambda-lang.
package runtime

import (
	"fmt"
	"lambda-lang/internal/ast"
	"lambda-lang/internal/span"
	"math"
	"strconv"
	"strings"
)

// Value is the interface for all runtime values.
//
// Every value carries the span it was produced at and the call context that
// owns it; both are used only for diagnostics. The set of implementations is
// closed to this package.
type Value interface {
	TypeName() string
	// String is the display form used by print.
	String() string
	// Repr is the form shown by the REPL and inside lists.
	Repr() string
	Span() span.Span
	Context() *Context
	// Copy returns a value of the same kind with the same metadata.
	Copy() Value

	stamp(s span.Span, ctx *Context)
}

// meta holds the position and context shared by all values.
type meta struct {
	span span.Span
	ctx  *Context
}

func (m *meta) Span() span.Span                 { return m.span }
func (m *meta) Context() *Context               { return m.ctx }
func (m *meta) stamp(s span.Span, ctx *Context) { m.span, m.ctx = s, ctx }

// ---- Number ----

// Number is an integer or a float. Integer arithmetic stays integral until
// it overflows or meets a float.
type Number struct {
	meta
	i       int64
	f       float64
	isFloat bool
}

// NewInt returns an integral Number.
func NewInt(v int64) *Number { return &Number{i: v} }

// NewFloat returns a floating-point Number.
func NewFloat(v float64) *Number { return &Number{f: v, isFloat: true} }

// Null returns the null value, which is the Number 0.
func Null() *Number { return NewInt(0) }

func boolNumber(b bool) *Number {
	if b {
		return NewInt(1)
	}
	return NewInt(0)
}

func (n *Number) IsFloat() bool { return n.isFloat }

// Int64 returns the integral value, truncating floats.
func (n *Number) Int64() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}

func (n *Number) Float64() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n *Number) isZero() bool { return n.Float64() == 0 }

func (n *Number) TypeName() string { return "number" }
func (n *Number) Repr() string     { return n.String() }
func (n *Number) Copy() Value      { c := *n; return &c }

func (n *Number) String() string {
	if !n.isFloat {
		return strconv.FormatInt(n.i, 10)
	}
	return formatFloat(n.f)
}

// formatFloat renders integral floats with a trailing ".0" and switches to
// exponent form for very large or very small magnitudes.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ---- String ----

// String is an immutable text value.
type String struct {
	meta
	Value string
}

// NewString returns a String value.
func NewString(s string) *String { return &String{Value: s} }

func (s *String) TypeName() string { return "string" }
func (s *String) String() string   { return s.Value }
func (s *String) Repr() string     { return `"` + s.Value + `"` }
func (s *String) Copy() Value      { c := *s; return &c }

// ---- List ----

// listStore is the element storage a List handle points at. Copies of a
// List share one store, so mutations through any copy are visible to all.
type listStore struct {
	items []Value
}

// List is a handle on a mutable, shared sequence of values.
type List struct {
	meta
	store *listStore
}

// NewList returns a List holding items in a fresh store.
func NewList(items ...Value) *List {
	return &List{store: &listStore{items: items}}
}

// Items returns the live element slice. It must not be modified.
func (l *List) Items() []Value { return l.store.items }

func (l *List) Len() int { return len(l.store.items) }

func (l *List) TypeName() string { return "list" }
func (l *List) Copy() Value      { c := *l; return &c }

func (l *List) String() string { return l.render(false, nil) }

func (l *List) Repr() string { return l.render(true, nil) }

// render formats the elements of l. A list whose store is already being
// rendered further up (one that contains itself) prints as [...].
func (l *List) render(repr bool, active map[*listStore]bool) string {
	if active[l.store] {
		return "[...]"
	}
	if active == nil {
		active = make(map[*listStore]bool)
	}
	active[l.store] = true
	defer delete(active, l.store)

	parts := make([]string, len(l.store.items))
	for i, v := range l.store.items {
		if inner, ok := v.(*List); ok {
			parts[i] = inner.render(repr, active)
		} else if repr {
			parts[i] = v.Repr()
		} else {
			parts[i] = v.String()
		}
	}
	if !repr {
		return strings.Join(parts, ", ")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ---- Callables ----

// Callable is implemented by values that can be invoked.
type Callable interface {
	Value
	DisplayName() string
	Arity() int
}

// Function is a user-defined function or lambda closed over the
// environment it was defined in.
type Function struct {
	meta
	Name       string
	Params     []string
	Body       ast.Node
	AutoReturn bool
	Lambda     bool
	Env        *Environment
}

func (f *Function) DisplayName() string {
	if f.Name == "" {
		return "<anonymous>"
	}
	return f.Name
}

func (f *Function) Arity() int { return len(f.Params) }

func (f *Function) TypeName() string {
	if f.Lambda {
		return "lambda"
	}
	return "function"
}

func (f *Function) String() string { return f.Repr() }

func (f *Function) Repr() string {
	return fmt.Sprintf("<%s %s>", f.TypeName(), f.DisplayName())
}

func (f *Function) Copy() Value { c := *f; return &c }

// Builtin is a native function from the registry.
type Builtin struct {
	meta
	Native *Native
}

func (b *Builtin) DisplayName() string { return b.Native.Name }
func (b *Builtin) Arity() int          { return len(b.Native.Params) }
func (b *Builtin) TypeName() string    { return "built-in function" }
func (b *Builtin) String() string      { return b.Repr() }
func (b *Builtin) Repr() string        { return fmt.Sprintf("<built-in function %s>", b.Native.Name) }
func (b *Builtin) Copy() Value         { c := *b; return &c }

// ---- Truthiness ----

// IsTrue reports the truthiness of v. The second result is false for kinds
// that have no truthiness (lists and callables).
func IsTrue(v Value) (bool, bool) {
	switch val := v.(type) {
	case *Number:
		return !val.isZero(), true
	case *String:
		return val.Value != "", true
	default:
		return false, false
	}
}
