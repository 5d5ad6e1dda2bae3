package runtime

import (
	"lambda-lang/internal/diag"
	"lambda-lang/internal/span"
	"lambda-lang/internal/token"
	"math"
	"strings"
)

// opError is an operator failure before it is attached to a call context.
type opError struct {
	code string
	span span.Span
	msg  string
}

func illegalOperation(left, right Value) *opError {
	return &opError{
		code: diag.CodeIllegalOperation,
		span: span.Join(left.Span(), right.Span()),
		msg:  "Illegal operation",
	}
}

// binaryOp applies a non-logical binary operator.
func binaryOp(op token.Kind, left, right Value) (Value, *opError) {
	switch l := left.(type) {
	case *Number:
		if r, ok := right.(*Number); ok {
			return numberOp(op, l, r)
		}
	case *String:
		return stringOp(op, l, right)
	case *List:
		return listOp(op, l, right)
	}
	return nil, illegalOperation(left, right)
}

// ---- numbers ----

func numberOp(op token.Kind, a, b *Number) (Value, *opError) {
	ints := !a.isFloat && !b.isFloat

	switch op {
	case token.PLUS:
		if ints {
			if r, ok := addInt(a.i, b.i); ok {
				return NewInt(r), nil
			}
		}
		return NewFloat(a.Float64() + b.Float64()), nil

	case token.MINUS:
		if ints {
			if r, ok := subInt(a.i, b.i); ok {
				return NewInt(r), nil
			}
		}
		return NewFloat(a.Float64() - b.Float64()), nil

	case token.STAR:
		if ints {
			if r, ok := mulInt(a.i, b.i); ok {
				return NewInt(r), nil
			}
		}
		return NewFloat(a.Float64() * b.Float64()), nil

	case token.SLASH:
		if b.isZero() {
			return nil, divisionByZero(b)
		}
		return NewFloat(a.Float64() / b.Float64()), nil

	case token.PERCENT:
		if b.isZero() {
			return nil, divisionByZero(b)
		}
		if ints {
			r := a.i % b.i
			if r != 0 && (r < 0) != (b.i < 0) {
				r += b.i
			}
			return NewInt(r), nil
		}
		r := math.Mod(a.Float64(), b.Float64())
		if r != 0 && (r < 0) != (b.Float64() < 0) {
			r += b.Float64()
		}
		return NewFloat(r), nil
	}

	if v, ok := compare(op, compareNumbers(a, b)); ok {
		return v, nil
	}
	return nil, illegalOperation(a, b)
}

func divisionByZero(divisor *Number) *opError {
	return &opError{code: diag.CodeDivisionByZero, span: divisor.Span(), msg: "Division by zero"}
}

func compareNumbers(a, b *Number) int {
	if !a.isFloat && !b.isFloat {
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	}
	x, y := a.Float64(), b.Float64()
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// compare turns a three-way comparison into the Number result of op.
func compare(op token.Kind, c int) (Value, bool) {
	switch op {
	case token.EQ:
		return boolNumber(c == 0), true
	case token.NEQ:
		return boolNumber(c != 0), true
	case token.LT:
		return boolNumber(c < 0), true
	case token.GT:
		return boolNumber(c > 0), true
	case token.LTE:
		return boolNumber(c <= 0), true
	case token.GTE:
		return boolNumber(c >= 0), true
	}
	return nil, false
}

func addInt(a, b int64) (int64, bool) {
	r := a + b
	if (a > 0 && b > 0 && r < 0) || (a < 0 && b < 0 && r >= 0) {
		return 0, false
	}
	return r, true
}

func subInt(a, b int64) (int64, bool) {
	r := a - b
	if (a >= 0 && b < 0 && r < 0) || (a < 0 && b > 0 && r >= 0) {
		return 0, false
	}
	return r, true
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}

// ---- strings ----

func stringOp(op token.Kind, s *String, right Value) (Value, *opError) {
	switch r := right.(type) {
	case *String:
		if op == token.PLUS {
			return NewString(s.Value + r.Value), nil
		}
		if v, ok := compare(op, strings.Compare(s.Value, r.Value)); ok {
			return v, nil
		}
	case *Number:
		if op == token.STAR && !r.isFloat {
			n := r.i
			if n <= 0 || s.Value == "" {
				return NewString(""), nil
			}
			if n > math.MaxInt32 || int64(len(s.Value))*n > math.MaxInt32 {
				break
			}
			return NewString(strings.Repeat(s.Value, int(n))), nil
		}
	}
	return nil, illegalOperation(s, right)
}

// ---- lists ----

// listOp implements the list operators. They mutate the shared store, so
// every alias of the list observes the change.
func listOp(op token.Kind, l *List, right Value) (Value, *opError) {
	st := l.store

	switch op {
	case token.PLUS:
		st.items = append(st.items, right)
		return &List{store: st}, nil

	case token.MINUS:
		n, ok := right.(*Number)
		if !ok {
			break
		}
		idx, err := listIndex(l, n, "removed from")
		if err != nil {
			return nil, err
		}
		st.items = append(st.items[:idx], st.items[idx+1:]...)
		return &List{store: st}, nil

	case token.STAR:
		other, ok := right.(*List)
		if !ok {
			break
		}
		st.items = append(st.items, other.store.items...)
		return &List{store: st}, nil

	case token.SLASH:
		n, ok := right.(*Number)
		if !ok {
			break
		}
		idx, err := listIndex(l, n, "retrieved from")
		if err != nil {
			return nil, err
		}
		return st.items[idx].Copy(), nil
	}
	return nil, illegalOperation(l, right)
}

// listIndex resolves n against l. Negative indices count from the end.
func listIndex(l *List, n *Number, action string) (int, *opError) {
	size := int64(l.Len())
	idx := n.i
	if n.isFloat || idx < -size || idx >= size {
		return 0, &opError{
			code: diag.CodeIndexOutOfBounds,
			span: n.Span(),
			msg:  "Element at this index could not be " + action + " list because index is out of bounds",
		}
	}
	if idx < 0 {
		idx += size
	}
	return int(idx), nil
}

// ---- unary ----

func negate(v Value) (Value, bool) {
	n, ok := v.(*Number)
	if !ok {
		return nil, false
	}
	if n.isFloat {
		return NewFloat(-n.f), true
	}
	if n.i == math.MinInt64 {
		return NewFloat(-float64(n.i)), true
	}
	return NewInt(-n.i), true
}
