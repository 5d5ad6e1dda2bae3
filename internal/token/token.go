// Package token defines the token types produced by the lexer.
package token

import (
	"fmt"
	"lambda-lang/internal/span"
	"sort"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF
	NEWLINE

	// Literals
	IDENT  // identifiers: x, foo, my_var
	INT    // integer literals: 123
	STRING // string literals: "hello"
	BOOL   // true, false

	// Operators
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %

	EQ  // ==
	NEQ // !=
	LT  // <
	LTE // <=
	GT  // >
	GTE // >=

	ARROW // ->

	// Delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	COMMA    // ,
	COLON    // :

	// Keywords
	KW_FUNC
	KW_LAMBDA
	KW_RETURN
	KW_END
	KW_AND
	KW_OR
	KW_NOT
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",
	NEWLINE: "NEWLINE",

	IDENT:  "IDENT",
	INT:    "INT",
	STRING: "STRING",
	BOOL:   "BOOL",

	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	PERCENT: "%",
	EQ:      "==",
	NEQ:     "!=",
	LT:      "<",
	LTE:     "<=",
	GT:      ">",
	GTE:     ">=",
	ARROW:   "->",

	LPAREN:   "(",
	RPAREN:   ")",
	LBRACKET: "[",
	RBRACKET: "]",
	COMMA:    ",",
	COLON:    ":",

	KW_FUNC:   "func",
	KW_LAMBDA: "lambda",
	KW_RETURN: "return",
	KW_END:    "end",
	KW_AND:    "and",
	KW_OR:     "or",
	KW_NOT:    "not",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword returns true if the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= KW_FUNC && k <= KW_NOT
}

// IsLiteral returns true if the kind is a literal (ident/int/string/bool).
func (k Kind) IsLiteral() bool {
	return k >= IDENT && k <= BOOL
}

var keywords = map[string]Kind{
	"func":   KW_FUNC,
	"lambda": KW_LAMBDA,
	"return": KW_RETURN,
	"end":    KW_END,
	"and":    KW_AND,
	"or":     KW_OR,
	"not":    KW_NOT,
	"true":   BOOL,
	"false":  BOOL,
}

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a keyword.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Keywords returns the reserved words, sorted.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for w := range keywords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Token represents a lexical token with its kind, text, and source location.
// For STRING tokens Lexeme holds the decoded value, escapes already applied.
type Token struct {
	Kind   Kind      `json:"kind"`
	Lexeme string    `json:"lexeme"`
	Span   span.Span `json:"span"`
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}

// Is reports whether the token has the given kind.
func (t Token) Is(kind Kind) bool {
	return t.Kind == kind
}
