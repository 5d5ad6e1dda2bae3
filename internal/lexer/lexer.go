// Package lexer implements the lexical analysis (tokenization) for lambda-lang.
package lexer

import (
	"lambda-lang/internal/diag"
	"lambda-lang/internal/span"
	"lambda-lang/internal/token"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source (bytes)
	line int // current line (1-based)
	col  int // current column (1-based, runes)

	err *diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source and returns all tokens.
//
// Scanning stops at the first error. The tokens produced before it are
// still returned (without a trailing EOF) but do not form a usable stream.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok := l.nextToken()
		if l.err != nil {
			return tokens, l.err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, nil
}

// ---- internal helpers ----

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.source) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// curPos returns the current position as a span.Position.
func (l *Lexer) curPos() span.Position {
	return span.Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
		File:   l.filename,
		Source: l.source,
	}
}

// makeSpan returns a span from start to current position.
func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

func (l *Lexer) makeToken(kind token.Kind, lexeme string, start span.Position) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

// skipWhitespace skips spaces, tabs and carriage returns (not newlines).
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		ch := l.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' {
			l.advance()
		} else {
			break
		}
	}
}

// ---- token reading ----

func (l *Lexer) nextToken() token.Token {
	l.skipWhitespace()

	start := l.curPos()
	if l.pos >= len(l.source) {
		return token.Token{Kind: token.EOF, Span: l.makeSpan(start)}
	}

	ch := l.peek()

	switch {
	case ch == '\n':
		// A newline token stays on the line it ends so its excerpt is one line.
		l.advance()
		end := start
		end.Offset++
		end.Column++
		return token.Token{Kind: token.NEWLINE, Lexeme: "\\n", Span: span.Span{Start: start, End: end}}
	case ch == '"':
		return l.readString(start)
	case isDigit(ch):
		return l.readNumber(start)
	case isIdentStart(ch):
		return l.readIdentifier(start)
	default:
		return l.readOperator(start)
	}
}

// readString reads a double-quoted string literal, decoding escapes.
func (l *Lexer) readString(start span.Position) token.Token {
	l.advance() // skip opening "
	var value []rune

	for l.pos < len(l.source) {
		ch := l.advance()
		switch ch {
		case '"':
			return l.makeToken(token.STRING, string(value), start)
		case '\\':
			if l.pos >= len(l.source) {
				continue
			}
			esc := l.advance()
			switch esc {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			default:
				value = append(value, esc)
			}
		default:
			value = append(value, ch)
		}
	}

	l.err = diag.ExpectedChar(l.makeSpan(start), "'\"' to close string literal")
	return token.Token{}
}

// readNumber reads a maximal run of digits.
func (l *Lexer) readNumber(start span.Position) token.Token {
	numStart := l.pos
	for l.pos < len(l.source) && isDigit(l.peek()) {
		l.advance()
	}
	return l.makeToken(token.INT, l.source[numStart:l.pos], start)
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	identStart := l.pos
	for l.pos < len(l.source) && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := l.source[identStart:l.pos]
	return l.makeToken(token.LookupIdent(lexeme), lexeme, start)
}

// readOperator reads an operator or delimiter token.
func (l *Lexer) readOperator(start span.Position) token.Token {
	ch := l.advance()

	switch ch {
	case '(':
		return l.makeToken(token.LPAREN, "(", start)
	case ')':
		return l.makeToken(token.RPAREN, ")", start)
	case '[':
		return l.makeToken(token.LBRACKET, "[", start)
	case ']':
		return l.makeToken(token.RBRACKET, "]", start)
	case ',':
		return l.makeToken(token.COMMA, ",", start)
	case ':':
		return l.makeToken(token.COLON, ":", start)
	case '+':
		return l.makeToken(token.PLUS, "+", start)
	case '-':
		if l.peek() == '>' {
			l.advance()
			return l.makeToken(token.ARROW, "->", start)
		}
		return l.makeToken(token.MINUS, "-", start)
	case '*':
		return l.makeToken(token.STAR, "*", start)
	case '/':
		return l.makeToken(token.SLASH, "/", start)
	case '%':
		return l.makeToken(token.PERCENT, "%", start)
	case '=':
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.EQ, "==", start)
		}
		l.err = diag.ExpectedChar(l.makeSpan(start), "'=' (after '=')")
		return token.Token{}
	case '!':
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.NEQ, "!=", start)
		}
		l.err = diag.ExpectedChar(l.makeSpan(start), "'=' (after '!')")
		return token.Token{}
	case '<':
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.LTE, "<=", start)
		}
		return l.makeToken(token.LT, "<", start)
	case '>':
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.GTE, ">=", start)
		}
		return l.makeToken(token.GT, ">", start)
	default:
		l.err = diag.IllegalChar(l.makeSpan(start), ch)
		return token.Token{}
	}
}

// ---- character classification ----

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}
