// Command lambda is the CLI entry point for the lambda-lang toolchain.
//
// Usage:
//
//	lambda tokens <file> [--json]   Print tokens
//	lambda parse  <file>            Print AST as JSON
//	lambda run    <file>            Run a script
//	lambda watch  <file>            Re-run a script whenever it changes
//	lambda repl                     Start interactive REPL
package main

import (
	"errors"
	"fmt"
	"io"
	"lambda-lang/internal/ast"
	"lambda-lang/internal/config"
	"lambda-lang/internal/lexer"
	"lambda-lang/internal/loader"
	"lambda-lang/internal/parser"
	"lambda-lang/internal/runtime"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errReported marks a failure whose details were already printed.
var errReported = errors.New("failed")

// app carries what every subcommand needs once flags and config are read.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

var (
	configPath string
	verbose    bool
	noColor    bool
	maxDepth   int
	tokensJSON bool
)

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "lambda",
		Short:         "lambda-lang interpreter and tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default: ./lambda.yaml if present)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&noColor, "no-color", false, "disable coloured output")
	flags.IntVar(&maxDepth, "max-depth", 0, "maximum call depth (overrides config)")

	tokensCmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Tokenize a script and print its tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cmdTokens(args[0])
		},
	}
	tokensCmd.Flags().BoolVar(&tokensJSON, "json", false, "print tokens as JSON")

	rootCmd.AddCommand(
		tokensCmd,
		&cobra.Command{
			Use:   "parse <file>",
			Short: "Parse a script and print its AST as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.cmdParse(args[0])
			},
		},
		&cobra.Command{
			Use:   "run <file>",
			Short: "Run a script",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.cmdRun(args[0])
			},
		},
		&cobra.Command{
			Use:   "watch <file>",
			Short: "Run a script and run it again whenever it changes",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.cmdWatch(args[0])
			},
		},
		&cobra.Command{
			Use:   "repl",
			Short: "Start the interactive REPL",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.cmdRepl()
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// setup loads the config and applies flag overrides.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-depth") {
		if maxDepth < 1 {
			return fmt.Errorf("--max-depth must be at least 1, got: %d", maxDepth)
		}
		cfg.MaxDepth = maxDepth
	}
	if noColor || !cfg.Color {
		color.NoColor = true
	}

	level := cfg.Level()
	if verbose {
		level = zapcore.DebugLevel
	}
	log, err := newLogger(level)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	a.cfg, a.log = cfg, log
	log.Debug("config loaded", zap.Int("max_depth", cfg.MaxDepth), zap.Strings("search_paths", cfg.SearchPaths))
	return nil
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = true
	zc.OutputPaths = []string{"stderr"}
	if !color.NoColor {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zc.Build()
}

// newInterpreter builds an interpreter whose run() loads scripts from the
// configured search paths.
func (a *app) newInterpreter(out io.Writer, in io.Reader) *runtime.Interpreter {
	return runtime.NewInterpreter(runtime.Options{
		Stdout:   out,
		Stdin:    in,
		Loader:   loader.NewOS(a.cfg.SearchPaths, a.log),
		MaxDepth: a.cfg.MaxDepth,
		Logger:   a.log,
	})
}

func readFile(filename string) (string, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	return string(source), nil
}

// ---- tokens command ----

func (a *app) cmdTokens(filename string) error {
	source, err := readFile(filename)
	if err != nil {
		return err
	}

	tokens, lexErr := lexer.New(source, filename).Tokenize()
	if tokensJSON {
		if err := printTokensJSON(os.Stdout, tokens, lexErr); err != nil {
			return err
		}
	} else {
		printTokensText(os.Stdout, tokens)
		if lexErr != nil {
			printError(os.Stderr, lexErr)
		}
	}

	if lexErr != nil {
		return errReported
	}
	return nil
}

// ---- parse command ----

func (a *app) cmdParse(filename string) error {
	source, err := readFile(filename)
	if err != nil {
		return err
	}

	block, parseErr := parser.Parse(source, filename)
	output := map[string]interface{}{
		"ast":         nil,
		"diagnostics": diagsToSlice(parseErr),
	}
	if parseErr == nil {
		output["ast"] = ast.NodeToMap(block)
	}
	if err := printJSON(os.Stdout, output); err != nil {
		return err
	}

	if parseErr != nil {
		return errReported
	}
	return nil
}

// ---- run command ----

func (a *app) cmdRun(filename string) error {
	source, err := readFile(filename)
	if err != nil {
		return err
	}

	interp := a.newInterpreter(os.Stdout, os.Stdin)
	if _, err := interp.Run(filename, source); err != nil {
		printError(os.Stderr, err)
		return errReported
	}
	return nil
}
