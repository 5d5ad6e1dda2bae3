package runtime

import (
	"errors"
	"fmt"
	"io"
	"lambda-lang/internal/diag"
	"lambda-lang/internal/span"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ScriptExt is the extension run() requires of script names.
const ScriptExt = ".lambda"

// clearScreen is the ANSI sequence that clears the terminal and homes the cursor.
const clearScreen = "\033[2J\033[H"

// Native is a registry entry: a built-in function with a fixed parameter list.
type Native struct {
	Name   string
	Params []string
	Fn     func(c *Call) (Value, error)
}

// Call is the invocation of a native function.
type Call struct {
	interp *Interpreter
	Args   []Value
	Span   span.Span // the call site
	Ctx    *Context  // the native's own frame
}

// Arg returns the i-th argument.
func (c *Call) Arg(i int) Value { return c.Args[i] }

// Errorf returns a runtime diagnostic raised from inside the native.
func (c *Call) Errorf(code, format string, args ...interface{}) error {
	return c.Ctx.errorf(code, c.Span, format, args...)
}

// natives maps global names to registry entries. Filled once in init and
// read-only afterwards.
var natives map[string]*Native

func init() {
	clearNative := &Native{Name: "clear", Fn: nativeClear}
	natives = map[string]*Native{
		"print":     {Name: "print", Params: []string{"value"}, Fn: nativePrint},
		"INPUT":     {Name: "INPUT", Fn: nativeInput},
		"INPUT_INT": {Name: "INPUT_INT", Fn: nativeInputInt},
		"clear":     clearNative,
		"cls":       clearNative,
		"isNum":     {Name: "isNum", Params: []string{"value"}, Fn: nativeIsNum},
		"isFunc":    {Name: "isFunc", Params: []string{"value"}, Fn: nativeIsFunc},
		"run":       {Name: "run", Params: []string{"fn"}, Fn: nativeRun},
	}
}

// RegisterBuiltins defines every native function in env. It fails if env
// already declares one of their names.
func RegisterBuiltins(env *Environment) error {
	names := make([]string, 0, len(natives))
	for name := range natives {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := env.Define(name, &Builtin{Native: natives[name]}, false); err != nil {
			return fmt.Errorf("registering built-ins: %w", err)
		}
	}
	return nil
}

func nativePrint(c *Call) (Value, error) {
	fmt.Fprintln(c.interp.out, c.Arg(0).String())
	return Null(), nil
}

func nativeInput(c *Call) (Value, error) {
	text, err := c.interp.readLine()
	if err != nil {
		return nil, inputError(c, err)
	}
	return NewString(text), nil
}

func nativeInputInt(c *Call) (Value, error) {
	for {
		text, err := c.interp.readLine()
		if err != nil {
			return nil, inputError(c, err)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err == nil {
			return NewInt(n), nil
		}
		fmt.Fprintf(c.interp.out, "'%s' must be an integer. Try again!\n", text)
	}
}

func inputError(c *Call, err error) error {
	if err == io.EOF {
		return c.Errorf(diag.CodeInput, "Unexpected end of input")
	}
	return c.Errorf(diag.CodeInput, "Failed to read input: %s", err)
}

func nativeClear(c *Call) (Value, error) {
	io.WriteString(c.interp.out, clearScreen)
	return Null(), nil
}

func nativeIsNum(c *Call) (Value, error) {
	_, ok := c.Arg(0).(*Number)
	return boolNumber(ok), nil
}

func nativeIsFunc(c *Call) (Value, error) {
	_, ok := c.Arg(0).(Callable)
	return boolNumber(ok), nil
}

// nativeRun loads a script through the configured Loader and evaluates it
// in the shared root environment.
func nativeRun(c *Call) (Value, error) {
	fn, ok := c.Arg(0).(*String)
	if !ok {
		return nil, c.Errorf(diag.CodeArgumentType, "Argument 'fn' must be a string")
	}
	name := fn.Value
	if !strings.HasSuffix(name, ScriptExt) {
		return nil, c.Errorf(diag.CodeArgumentType, "File name needs to end with '%s'", ScriptExt)
	}

	i := c.interp
	i.log.Debug("loading script", zap.String("name", name))
	text, err := i.loader.Load(name)
	if err != nil {
		return nil, c.Errorf(diag.CodeScriptLoad, "Failed to load script \"%s\"\n%s", name, err)
	}

	if _, err := i.Run(name, text); err != nil {
		var d *diag.Diagnostic
		detail := err.Error()
		if errors.As(err, &d) {
			detail = d.Render()
		}
		return nil, c.Errorf(diag.CodeScriptLoad, "Failed to finish executing script \"%s\"\n%s", name, detail)
	}
	return Null(), nil
}
