// Package parser implements the syntax analysis for lambda-lang.
// It is a recursive-descent parser with one generic helper for every
// left-associative binary level and speculative sub-parses for optional
// constructs.
package parser

import (
	"lambda-lang/internal/ast"
	"lambda-lang/internal/diag"
	"lambda-lang/internal/lexer"
	"lambda-lang/internal/span"
	"lambda-lang/internal/token"
	"strconv"
)

// Accepted-token enumerations used in syntax errors.
const (
	statementExpected = "Expected 'return', 'func', 'lambda', int, string, identifier, '+', '-', '(', '[' or 'not'"
	exprExpected      = "Expected 'func', 'lambda', int, string, identifier, '+', '-', '(', '[' or 'not'"
	atomExpected      = "Expected int, string, identifier, '+', '-', '(', '[', 'func' or 'lambda'"
	argExpected       = "Expected ')', 'func', 'lambda', int, string, identifier, '+', '-', '(', '[' or 'not'"
	elementExpected   = "Expected ']', 'func', 'lambda', int, string, identifier, '+', '-', '(', '[' or 'not'"
	operatorExpected  = "Expected '+', '-', '*', '/', '%', '==', '!=', '<', '>', '<=', '>=', 'and' or 'or'"
)

// syntaxErr is a failed parse attempt. at is the index of the token where
// the failure was detected, which is how far the attempt got.
type syntaxErr struct {
	diag *diag.Diagnostic
	at   int
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int

	// deepest is the failure that got furthest, including failures of
	// speculative attempts that were rolled back.
	deepest *syntaxErr
}

// New creates a new parser from a token slice ending in EOF.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// Parse lexes and parses source in one step.
func Parse(source, filename string) (*ast.Block, error) {
	tokens, err := lexer.New(source, filename).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(tokens).ParseFile()
}

// ParseFile parses the whole token stream as a program.
//
// A source holding nothing but newlines yields an empty Block. On failure the
// returned error is a *diag.Diagnostic for the deepest failure seen.
func (p *Parser) ParseFile() (*ast.Block, error) {
	if p.onlyBlank() {
		tok := p.peek()
		return &ast.Block{NodeBase: ast.NodeBase{Span: tok.Span}}, nil
	}

	block, err := p.statements()
	if err == nil && !p.check(token.EOF) {
		err = p.expected(operatorExpected)
	}
	if err != nil {
		if p.deepest != nil && p.deepest.at > err.at {
			err = p.deepest
		}
		return nil, err.diag
	}
	return block, nil
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= 0 && p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1]
	}
	return token.Token{Kind: token.EOF}
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) checkAny(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// prevEnd returns the end position of the last consumed token.
func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) skipNewlines() int {
	n := 0
	for p.check(token.NEWLINE) {
		p.advance()
		n++
	}
	return n
}

func (p *Parser) onlyBlank() bool {
	for _, tok := range p.tokens {
		if tok.Kind != token.NEWLINE && tok.Kind != token.EOF {
			return false
		}
	}
	return true
}

// ============================================================
// Error handling
// ============================================================

// expected builds a syntax error at the current token and records it as a
// candidate for the deepest failure.
func (p *Parser) expected(what string) *syntaxErr {
	err := &syntaxErr{diag: diag.Syntaxf(p.peek().Span, "%s", what), at: p.pos}
	if p.deepest == nil || err.at > p.deepest.at {
		p.deepest = err
	}
	return err
}

// wrap keeps inner if it got past start, otherwise replaces it with the
// broader enumeration of what was acceptable at start.
func (p *Parser) wrap(inner *syntaxErr, start int, what string) *syntaxErr {
	if inner.at > start {
		return inner
	}
	tok := p.peek()
	if start >= 0 && start < len(p.tokens) {
		tok = p.tokens[start]
	}
	return &syntaxErr{diag: diag.Syntaxf(tok.Span, "%s", what), at: start}
}

// try runs parse speculatively. On failure the cursor is restored to
// exactly where the attempt began and nil is returned.
func (p *Parser) try(parse func() (ast.Node, *syntaxErr)) ast.Node {
	save := p.pos
	node, err := parse()
	if err != nil {
		p.pos = save
		return nil
	}
	return node
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) statements() (*ast.Block, *syntaxErr) {
	start := p.peek().Span.Start
	p.skipNewlines()

	first, err := p.statement()
	if err != nil {
		return nil, err
	}
	stmts := []ast.Node{first}

	for p.skipNewlines() > 0 {
		stmt := p.try(p.statement)
		if stmt == nil {
			break
		}
		stmts = append(stmts, stmt)
	}

	return &ast.Block{
		NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: p.prevEnd()}},
		Stmts:    stmts,
	}, nil
}

func (p *Parser) statement() (ast.Node, *syntaxErr) {
	start := p.pos

	if p.check(token.KW_RETURN) {
		kw := p.advance()
		value := p.try(p.expr)
		s := kw.Span
		if value != nil {
			s = span.Join(kw.Span, value.GetSpan())
		}
		return &ast.Return{NodeBase: ast.NodeBase{Span: s}, Value: value}, nil
	}

	node, err := p.expr()
	if err != nil {
		return nil, p.wrap(err, start, statementExpected)
	}
	return node, nil
}

// ============================================================
// Expressions
// ============================================================

func (p *Parser) expr() (ast.Node, *syntaxErr) {
	start := p.pos
	node, err := p.binaryOp(p.comp, token.KW_AND, token.KW_OR)
	if err != nil {
		return nil, p.wrap(err, start, exprExpected)
	}
	return node, nil
}

func (p *Parser) comp() (ast.Node, *syntaxErr) {
	if p.check(token.KW_NOT) {
		op := p.advance()
		operand, err := p.comp()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{
			NodeBase: ast.NodeBase{Span: span.Join(op.Span, operand.GetSpan())},
			Op:       op.Kind,
			Operand:  operand,
		}, nil
	}
	return p.binaryOp(p.arith, token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE)
}

func (p *Parser) arith() (ast.Node, *syntaxErr) {
	return p.binaryOp(p.term, token.PLUS, token.MINUS)
}

func (p *Parser) term() (ast.Node, *syntaxErr) {
	return p.binaryOp(p.factor, token.STAR, token.SLASH, token.PERCENT)
}

// binaryOp parses next (op next)* and folds the result to the left.
func (p *Parser) binaryOp(next func() (ast.Node, *syntaxErr), ops ...token.Kind) (ast.Node, *syntaxErr) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.checkAny(ops...) {
		op := p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{
			NodeBase: ast.NodeBase{Span: span.Join(left.GetSpan(), right.GetSpan())},
			Op:       op.Kind,
			Left:     left,
			Right:    right,
		}
	}
	return left, nil
}

func (p *Parser) factor() (ast.Node, *syntaxErr) {
	if p.checkAny(token.PLUS, token.MINUS) {
		op := p.advance()
		operand, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{
			NodeBase: ast.NodeBase{Span: span.Join(op.Span, operand.GetSpan())},
			Op:       op.Kind,
			Operand:  operand,
		}, nil
	}
	return p.call()
}

func (p *Parser) call() (ast.Node, *syntaxErr) {
	node, err := p.atom()
	if err != nil {
		return nil, err
	}

	for p.check(token.LPAREN) {
		p.advance()
		args, err := p.exprList(token.RPAREN, argExpected, "Expected ',' or ')'")
		if err != nil {
			return nil, err
		}
		node = &ast.Call{
			NodeBase: ast.NodeBase{Span: span.Span{Start: node.GetSpan().Start, End: p.prevEnd()}},
			Callee:   node,
			Args:     args,
		}
	}
	return node, nil
}

// exprList parses a comma-separated expression list after its opening
// delimiter, consuming the closing one.
func (p *Parser) exprList(closing token.Kind, firstExpected, sepExpected string) ([]ast.Node, *syntaxErr) {
	var items []ast.Node
	if p.check(closing) {
		p.advance()
		return items, nil
	}

	start := p.pos
	first, err := p.expr()
	if err != nil {
		return nil, p.wrap(err, start, firstExpected)
	}
	items = append(items, first)

	for p.check(token.COMMA) {
		p.advance()
		item, err := p.expr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if !p.check(closing) {
		return nil, p.expected(sepExpected)
	}
	p.advance()
	return items, nil
}

func (p *Parser) atom() (ast.Node, *syntaxErr) {
	tok := p.peek()
	base := ast.NodeBase{Span: tok.Span}

	switch tok.Kind {
	case token.INT:
		p.advance()
		return numberLiteral(tok), nil

	case token.STRING:
		p.advance()
		return &ast.StringLiteral{NodeBase: base, Value: tok.Lexeme}, nil

	case token.IDENT:
		p.advance()
		return &ast.VariableRef{NodeBase: base, Name: tok.Lexeme}, nil

	case token.BOOL:
		p.advance()
		return &ast.BooleanRef{NodeBase: base, Name: tok.Lexeme}, nil

	case token.LPAREN:
		p.advance()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if !p.check(token.RPAREN) {
			return nil, p.expected("Expected ')'")
		}
		p.advance()
		return inner, nil

	case token.LBRACKET:
		p.advance()
		elems, err := p.exprList(token.RBRACKET, elementExpected, "Expected ',' or ']'")
		if err != nil {
			return nil, err
		}
		return &ast.ListLiteral{
			NodeBase: ast.NodeBase{Span: span.Span{Start: tok.Span.Start, End: p.prevEnd()}},
			Elements: elems,
		}, nil

	case token.KW_FUNC:
		return p.funcDef()

	case token.KW_LAMBDA:
		return p.lambdaDef()

	default:
		return nil, p.expected(atomExpected)
	}
}

func numberLiteral(tok token.Token) *ast.NumberLiteral {
	lit := &ast.NumberLiteral{NodeBase: ast.NodeBase{Span: tok.Span}}
	if v, err := strconv.ParseInt(tok.Lexeme, 10, 64); err == nil {
		lit.Value = v
		return lit
	}
	// Digit runs too large for int64 become floats.
	f, _ := strconv.ParseFloat(tok.Lexeme, 64)
	lit.Float = f
	lit.IsFloat = true
	return lit
}

// ============================================================
// Definitions
// ============================================================

func (p *Parser) funcDef() (ast.Node, *syntaxErr) {
	kw := p.advance() // 'func'
	name, params, err := p.signature()
	if err != nil {
		return nil, err
	}

	def := &ast.FunctionDef{Name: name, Params: params}

	switch {
	case p.check(token.ARROW):
		p.advance()
		body, err := p.expr()
		if err != nil {
			return nil, err
		}
		def.Body = body
		def.AutoReturn = true

	case p.check(token.NEWLINE):
		p.advance()
		body, err := p.statements()
		if err != nil {
			return nil, err
		}
		if !p.check(token.KW_END) {
			return nil, p.expected("Expected 'end'")
		}
		p.advance()
		def.Body = body

	default:
		return nil, p.expected("Expected '->' or NEWLINE")
	}

	def.Span = span.Span{Start: kw.Span.Start, End: p.prevEnd()}
	return def, nil
}

func (p *Parser) lambdaDef() (ast.Node, *syntaxErr) {
	kw := p.advance() // 'lambda'
	name, params, err := p.signature()
	if err != nil {
		return nil, err
	}

	if !p.checkAny(token.COLON, token.ARROW) {
		return nil, p.expected("Expected ':' or '->'")
	}
	p.advance()

	body, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.LambdaDef{
		NodeBase: ast.NodeBase{Span: span.Span{Start: kw.Span.Start, End: p.prevEnd()}},
		Name:     name,
		Params:   params,
		Body:     body,
	}, nil
}

// signature parses the optional name and the parameter list that follow
// 'func' or 'lambda'.
func (p *Parser) signature() (string, []string, *syntaxErr) {
	var name string
	if p.check(token.IDENT) {
		name = p.advance().Lexeme
		if !p.check(token.LPAREN) {
			return "", nil, p.expected("Expected '('")
		}
	} else if !p.check(token.LPAREN) {
		return "", nil, p.expected("Expected identifier or '('")
	}
	p.advance() // '('

	var params []string
	if p.check(token.IDENT) {
		params = append(params, p.advance().Lexeme)
		for p.check(token.COMMA) {
			p.advance()
			if !p.check(token.IDENT) {
				return "", nil, p.expected("Expected identifier")
			}
			params = append(params, p.advance().Lexeme)
		}
		if !p.check(token.RPAREN) {
			return "", nil, p.expected("Expected ',' or ')'")
		}
	} else if !p.check(token.RPAREN) {
		return "", nil, p.expected("Expected identifier or ')'")
	}
	p.advance() // ')'

	return name, params, nil
}
