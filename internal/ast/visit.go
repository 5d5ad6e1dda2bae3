package ast

import "fmt"

// Visitor has one method per node kind.
type Visitor[R any] interface {
	VisitNumberLiteral(n *NumberLiteral) R
	VisitStringLiteral(n *StringLiteral) R
	VisitListLiteral(n *ListLiteral) R
	VisitVariableRef(n *VariableRef) R
	VisitBooleanRef(n *BooleanRef) R
	VisitBinaryOp(n *BinaryOp) R
	VisitUnaryOp(n *UnaryOp) R
	VisitReturn(n *Return) R
	VisitFunctionDef(n *FunctionDef) R
	VisitLambdaDef(n *LambdaDef) R
	VisitCall(n *Call) R
	VisitBlock(n *Block) R
}

// Visit dispatches node to the matching Visitor method.
func Visit[R any](node Node, v Visitor[R]) R {
	switch n := node.(type) {
	case *NumberLiteral:
		return v.VisitNumberLiteral(n)
	case *StringLiteral:
		return v.VisitStringLiteral(n)
	case *ListLiteral:
		return v.VisitListLiteral(n)
	case *VariableRef:
		return v.VisitVariableRef(n)
	case *BooleanRef:
		return v.VisitBooleanRef(n)
	case *BinaryOp:
		return v.VisitBinaryOp(n)
	case *UnaryOp:
		return v.VisitUnaryOp(n)
	case *Return:
		return v.VisitReturn(n)
	case *FunctionDef:
		return v.VisitFunctionDef(n)
	case *LambdaDef:
		return v.VisitLambdaDef(n)
	case *Call:
		return v.VisitCall(n)
	case *Block:
		return v.VisitBlock(n)
	default:
		// Unreachable: nodeNode is unexported, so no other package can add kinds.
		panic(fmt.Sprintf("ast: unknown node type %T", node))
	}
}
