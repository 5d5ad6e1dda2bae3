// Package ast defines the abstract syntax tree for lambda-lang.
//
// The node set is closed: every node kind has a method on Visitor, and Visit
// is the only place that switches on concrete node types. Adding a kind means
// adding a Visitor method, which every visitor must then implement.
package ast

import (
	"lambda-lang/internal/span"
	"lambda-lang/internal/token"
)

// ============================================================
// Node interface
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ============================================================
// Literals and references
// ============================================================

// NumberLiteral represents an integer literal.
type NumberLiteral struct {
	NodeBase
	Value int64
	// Float is set when the literal does not fit in an int64.
	Float   float64
	IsFloat bool
}

// StringLiteral represents a string literal.
type StringLiteral struct {
	NodeBase
	Value string
}

// ListLiteral represents [a, b, c].
type ListLiteral struct {
	NodeBase
	Elements []Node
}

// VariableRef represents a read of a named variable.
type VariableRef struct {
	NodeBase
	Name string
}

// BooleanRef represents true or false, resolved through the environment.
type BooleanRef struct {
	NodeBase
	Name string
}

// ============================================================
// Operators
// ============================================================

// BinaryOp represents a binary operation: a + b, x == y, p and q.
type BinaryOp struct {
	NodeBase
	Op    token.Kind
	Left  Node
	Right Node
}

// UnaryOp represents a prefix operation: -x, +x, not x.
type UnaryOp struct {
	NodeBase
	Op      token.Kind
	Operand Node
}

// ============================================================
// Statements and definitions
// ============================================================

// Return represents `return [expr]`. Value is nil for a bare return.
type Return struct {
	NodeBase
	Value Node
}

// FunctionDef represents `func [name](params) -> expr` or a block body
// terminated by `end`. Name is empty for anonymous functions.
type FunctionDef struct {
	NodeBase
	Name       string
	Params     []string
	Body       Node
	AutoReturn bool
}

// LambdaDef represents `lambda [name](params) : expr`. It always auto-returns.
type LambdaDef struct {
	NodeBase
	Name   string
	Params []string
	Body   Node
}

// Call represents a call: f(a, b).
type Call struct {
	NodeBase
	Callee Node
	Args   []Node
}

// Block represents a newline-separated statement sequence.
type Block struct {
	NodeBase
	Stmts []Node
}
