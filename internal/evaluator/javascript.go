package evaluator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dop251/goja"
	"github.com/techieRahul17/intervuex/internal/types"
)

// declRe finds the first function binding a script declares.
var declRe = regexp.MustCompile(`(?:function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\()|(?:(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=)`)

// JavaScriptExecutor runs submissions in an embedded ECMAScript runtime.
// Every case gets a fresh runtime so state cannot leak between cases.
type JavaScriptExecutor struct {
	// Timeout interrupts a single case that runs longer than this. Zero disables it.
	Timeout time.Duration
}

// Execute compiles the submission, invokes it with the parsed arguments and compares
// the stringified return value with the stringified expected value.
func (e *JavaScriptExecutor) Execute(ctx context.Context, src Source, tc Case) types.TestResult {
	result := types.TestResult{TestCase: tc.Input, Expected: tc.Expected}

	vm := goja.New()
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	installConsole(vm)
	fn, err := compileFunction(vm, src)
	if err != nil {
		result.Result = errorResult(jsError(err))
		return result
	}

	jsonObj := vm.Get("JSON").ToObject(vm)
	parse, _ := goja.AssertFunction(jsonObj.Get("parse"))
	stringify, _ := goja.AssertFunction(jsonObj.Get("stringify"))

	argList, err := parse(goja.Undefined(), vm.ToValue("["+tc.Input+"]"))
	if err != nil {
		result.Result = errorResult(jsError(err))
		return result
	}
	args := arrayElements(vm, argList)

	expected, err := parse(goja.Undefined(), vm.ToValue(tc.Expected))
	if err != nil {
		result.Result = errorResult(jsError(err))
		return result
	}

	start := time.Now()
	actual, err := fn(goja.Undefined(), args...)
	result.ExecutionTime = millis(time.Since(start))
	if err != nil {
		result.Result = errorResult(jsError(err))
		return result
	}

	actualText, err := stringifyValue(stringify, actual)
	if err != nil {
		result.Result = errorResult(jsError(err))
		return result
	}
	expectedText, err := stringifyValue(stringify, expected)
	if err != nil {
		result.Result = errorResult(jsError(err))
		return result
	}

	result.Result = actualText
	result.Passed = actualText == expectedText
	return result
}

// installConsole gives submissions a console whose methods discard their arguments.
func installConsole(vm *goja.Runtime) {
	console := vm.NewObject()
	discard := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"log", "info", "warn", "error", "debug", "trace", "table"} {
		_ = console.Set(name, discard)
	}
	_ = vm.Set("console", console)
}

// declaredName returns the first function binding code declares, or "".
func declaredName(code string) string {
	m := declRe.FindStringSubmatch(code)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// lookupFunction returns the global binding name when it holds a function.
func lookupFunction(vm *goja.Runtime, name string) (goja.Callable, bool) {
	v, err := vm.RunString("typeof " + name + " === 'function' ? " + name + " : undefined")
	if err != nil {
		return nil, false
	}
	return goja.AssertFunction(v)
}

// compileFunction resolves the callable a submission defines.
// Order: explicit function name, the text as a function expression, the starter code
// entry point, the first declared binding.
func compileFunction(vm *goja.Runtime, src Source) (goja.Callable, error) {
	if src.FunctionName == "" {
		if prog, err := goja.Compile("submission", "(\n"+src.Code+"\n)", false); err == nil {
			v, err := vm.RunProgram(prog)
			if err != nil {
				return nil, err
			}
			if fn, ok := goja.AssertFunction(v); ok {
				return fn, nil
			}
		}
	}

	if _, err := vm.RunScript("submission", src.Code); err != nil {
		return nil, err
	}

	name := src.FunctionName
	if name == "" && src.EntryPoint != "" {
		if fn, ok := lookupFunction(vm, src.EntryPoint); ok {
			return fn, nil
		}
	}
	if name == "" {
		if name = declaredName(src.Code); name == "" {
			return nil, errors.New("no function found in submission")
		}
	}

	v, err := vm.RunString(name)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("%s is not a function", name)
	}
	return fn, nil
}

func arrayElements(vm *goja.Runtime, v goja.Value) []goja.Value {
	obj := v.ToObject(vm)
	n := int(obj.Get("length").ToInteger())
	out := make([]goja.Value, n)
	for i := 0; i < n; i++ {
		out[i] = obj.Get(fmt.Sprint(i))
	}
	return out
}

// stringifyValue mirrors JSON.stringify, reporting undefined as the literal "undefined".
func stringifyValue(stringify goja.Callable, v goja.Value) (string, error) {
	out, err := stringify(goja.Undefined(), v)
	if err != nil {
		return "", err
	}
	if goja.IsUndefined(out) {
		return "undefined", nil
	}
	return out.String(), nil
}

// jsError strips runtime stack details from thrown errors, keeping the message.
func jsError(err error) error {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		if obj, ok := ex.Value().(*goja.Object); ok {
			if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
				return errors.New(msg.String())
			}
		}
		return errors.New(ex.Value().String())
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("execution interrupted: %v", interrupted.Value())
	}
	return err
}

func millis(d time.Duration) float64 {
	return roundTo(float64(d)/float64(time.Millisecond), 2)
}
