package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"lambda-lang/internal/diag"
	"lambda-lang/internal/token"

	"github.com/fatih/color"
)

var (
	errorColor  = color.New(color.FgRed)
	traceColor  = color.New(color.FgHiBlack)
	valueColor  = color.New(color.FgCyan)
	promptColor = color.New(color.FgGreen)
	bannerColor = color.New(color.FgCyan, color.Bold)
)

// ---- output helpers ----

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// printError writes the full report of a diagnostic, or the plain text of
// any other error.
func printError(w io.Writer, err error) {
	var d *diag.Diagnostic
	if !errors.As(err, &d) {
		errorColor.Fprintf(w, "error: %s\n", err)
		return
	}

	fmt.Fprintln(w, d.RenderStyled(diag.Style{
		Trace:   func(s string) string { return traceColor.Sprint(s) },
		Message: func(s string) string { return errorColor.Sprint(s) },
	}))
}

func diagsToSlice(err error) []map[string]interface{} {
	var d *diag.Diagnostic
	if !errors.As(err, &d) {
		return []map[string]interface{}{}
	}
	return []map[string]interface{}{{
		"code":    d.Code,
		"kind":    d.Kind.String(),
		"name":    d.Name,
		"message": d.Message,
		"file":    d.Span.Start.File,
		"line":    d.Span.Start.Line,
		"column":  d.Span.Start.Column,
		"offset":  d.Span.Start.Offset,
	}}
}

// ---- token output helpers ----

func printTokensText(w io.Writer, tokens []token.Token) {
	for _, tok := range tokens {
		lexeme := tok.Lexeme
		if tok.Kind == token.STRING {
			lexeme = fmt.Sprintf("%q", tok.Lexeme)
		}
		fmt.Fprintf(w, "%-12s %-20s %d:%d\n", tok.Kind, lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
}

func printTokensJSON(w io.Writer, tokens []token.Token, lexErr error) error {
	type tokenJSON struct {
		Kind   string `json:"kind"`
		Lexeme string `json:"lexeme"`
		Line   int    `json:"line"`
		Column int    `json:"column"`
		Offset int    `json:"offset"`
	}

	toks := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:   tok.Kind.String(),
			Lexeme: tok.Lexeme,
			Line:   tok.Span.Start.Line,
			Column: tok.Span.Start.Column,
			Offset: tok.Span.Start.Offset,
		})
	}

	return printJSON(w, map[string]interface{}{
		"tokens":      toks,
		"diagnostics": diagsToSlice(lexErr),
	})
}
