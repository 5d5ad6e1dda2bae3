package ast

import (
	"lambda-lang/internal/span"
)

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// Every node has a "kind" and a "span" field.
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}
	return Visit[map[string]interface{}](node, mapper{})
}

type mapper struct{}

func (mapper) VisitNumberLiteral(n *NumberLiteral) map[string]interface{} {
	if n.IsFloat {
		return m("NumberLiteral", n.Span, "value", n.Float)
	}
	return m("NumberLiteral", n.Span, "value", n.Value)
}

func (mapper) VisitStringLiteral(n *StringLiteral) map[string]interface{} {
	return m("StringLiteral", n.Span, "value", n.Value)
}

func (mapper) VisitListLiteral(n *ListLiteral) map[string]interface{} {
	return m("ListLiteral", n.Span, "elements", nodeSlice(n.Elements))
}

func (mapper) VisitVariableRef(n *VariableRef) map[string]interface{} {
	return m("VariableRef", n.Span, "name", n.Name)
}

func (mapper) VisitBooleanRef(n *BooleanRef) map[string]interface{} {
	return m("BooleanRef", n.Span, "name", n.Name)
}

func (mapper) VisitBinaryOp(n *BinaryOp) map[string]interface{} {
	return m("BinaryOp", n.Span,
		"op", n.Op.String(),
		"left", NodeToMap(n.Left),
		"right", NodeToMap(n.Right))
}

func (mapper) VisitUnaryOp(n *UnaryOp) map[string]interface{} {
	return m("UnaryOp", n.Span, "op", n.Op.String(), "operand", NodeToMap(n.Operand))
}

func (mapper) VisitReturn(n *Return) map[string]interface{} {
	result := m("Return", n.Span)
	if n.Value != nil {
		result["value"] = NodeToMap(n.Value)
	}
	return result
}

func (mapper) VisitFunctionDef(n *FunctionDef) map[string]interface{} {
	return m("FunctionDef", n.Span,
		"name", n.Name,
		"params", params(n.Params),
		"autoReturn", n.AutoReturn,
		"body", NodeToMap(n.Body))
}

func (mapper) VisitLambdaDef(n *LambdaDef) map[string]interface{} {
	return m("LambdaDef", n.Span,
		"name", n.Name,
		"params", params(n.Params),
		"body", NodeToMap(n.Body))
}

func (mapper) VisitCall(n *Call) map[string]interface{} {
	return m("Call", n.Span,
		"callee", NodeToMap(n.Callee),
		"args", nodeSlice(n.Args))
}

func (mapper) VisitBlock(n *Block) map[string]interface{} {
	return m("Block", n.Span, "stmts", nodeSlice(n.Stmts))
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		result[kvs[i].(string)] = kvs[i+1]
	}
	return result
}

func spanToMap(s span.Span) map[string]interface{} {
	pos := func(p span.Position) map[string]interface{} {
		return map[string]interface{}{
			"offset": p.Offset,
			"line":   p.Line,
			"column": p.Column,
		}
	}
	return map[string]interface{}{"start": pos(s.Start), "end": pos(s.End)}
}

func nodeSlice(nodes []Node) []interface{} {
	result := make([]interface{}, len(nodes))
	for i, n := range nodes {
		result[i] = NodeToMap(n)
	}
	return result
}

// params keeps an empty parameter list as [] rather than null in JSON.
func params(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
