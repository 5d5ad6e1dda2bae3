package main

import (
	"errors"
	"fmt"
	"io"
	"lambda-lang/internal/diag"
	"lambda-lang/internal/parser"
	"lambda-lang/internal/runtime"
	"lambda-lang/internal/token"
	"sort"
	"strings"
	"unicode"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
)

const replFile = "<stdin>"

// ---- repl command ----

func (a *app) cmdRepl() error {
	var interp *runtime.Interpreter

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            promptColor.Sprint("lambda> "),
		HistoryFile:       a.cfg.HistoryFile,
		AutoComplete:      &completer{names: func() []string { return interp.Env().Names() }},
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("readline init failed: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s %s\n\n",
		bannerColor.Sprint("lambda-lang REPL"), traceColor.Sprint("(type 'exit' or Ctrl+D to quit)"))

	interp = a.newInterpreter(rl.Stdout(), &promptReader{rl: rl})
	var accumulated strings.Builder

	for {
		if accumulated.Len() > 0 {
			rl.SetPrompt(traceColor.Sprint("...     "))
		} else {
			rl.SetPrompt(promptColor.Sprint("lambda> "))
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if accumulated.Len() > 0 {
					accumulated.Reset()
					continue
				}
				fmt.Fprintf(rl.Stdout(), "%s\n", traceColor.Sprint("(use 'exit' or Ctrl+D to quit)"))
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			return nil
		}

		if accumulated.Len() == 0 && strings.TrimSpace(line) == "exit" {
			return nil
		}

		blank := strings.TrimSpace(line) == ""
		accumulated.WriteString(line)
		accumulated.WriteString("\n")
		source := accumulated.String()

		if strings.TrimSpace(source) == "" {
			accumulated.Reset()
			continue
		}
		// A blank line forces evaluation of whatever has been typed.
		if !blank && needsMore(source) {
			continue
		}
		accumulated.Reset()

		a.log.Debug("repl input", zap.Int("bytes", len(source)))
		v, err := interp.Run(replFile, source)
		if err != nil {
			printError(rl.Stderr(), err)
			continue
		}
		valueColor.Fprintln(rl.Stdout(), v.Repr())
	}
}

// needsMore reports whether source fails to parse only because the input
// ended, as in an unfinished func ... end block.
func needsMore(source string) bool {
	_, err := parser.Parse(source, replFile)
	var d *diag.Diagnostic
	if !errors.As(err, &d) || d.Kind != diag.Syntax {
		return false
	}
	return d.Span.Start.Offset >= len(source)
}

// promptReader feeds INPUT() and INPUT_INT() from readline so they do not
// compete with it for the terminal.
type promptReader struct {
	rl  *readline.Instance
	buf []byte
}

func (r *promptReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		r.rl.SetPrompt("")
		line, err := r.rl.Readline()
		if err == readline.ErrInterrupt {
			return 0, errors.New("interrupted")
		}
		if err != nil {
			return 0, err
		}
		r.buf = []byte(line + "\n")
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// completer completes keywords and the names bound in the session.
type completer struct {
	names func() []string
}

func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	start := pos
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	var out [][]rune
	for _, name := range c.candidates() {
		if strings.HasPrefix(name, prefix) && name != prefix {
			out = append(out, []rune(name[len(prefix):]))
		}
	}
	return out, pos - start
}

func (c *completer) candidates() []string {
	seen := make(map[string]bool)
	var all []string
	for _, name := range append(token.Keywords(), c.names()...) {
		if !seen[name] {
			seen[name] = true
			all = append(all, name)
		}
	}
	sort.Strings(all)
	return all
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
