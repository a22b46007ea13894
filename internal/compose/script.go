package compose

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"

	"github.com/puzzle-labs/puzzle/internal/hook"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// ScriptName is the Go lifecycle file of a module.
const ScriptName = "piece.go"

var hookNames = []string{"Prepare", "Setup", "Prompt"}

// scriptHooks interprets a piece.go file and returns the hooks it defines.
// Hook functions take a hook.Context; Prepare and Setup may return an
// error, Prompt returns a value and optionally an error.
func scriptHooks(path string) (prepare, setup HookFunc, prompt PromptFunc, err error) {
	declared, err := declaredFuncs(path)
	if err != nil {
		return nil, nil, nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, nil, nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}
	if err := i.Use(hook.Symbols); err != nil {
		return nil, nil, nil, fmt.Errorf("loading hook symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, nil, nil, fmt.Errorf("interpreting %s: %w", path, err)
	}

	fns := make(map[string]reflect.Value)
	for _, name := range hookNames {
		if !declared[name] {
			continue
		}
		v, err := i.Eval(name)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s: resolving %s: %w", path, name, err)
		}
		if v.Kind() != reflect.Func || v.Type().NumIn() != 1 {
			return nil, nil, nil, fmt.Errorf("%s: %s must be func(hook.Context)", path, name)
		}
		fns[name] = v
	}

	if fn, ok := fns["Prepare"]; ok {
		prepare = phaseFunc(fn, "Prepare")
	}
	if fn, ok := fns["Setup"]; ok {
		setup = phaseFunc(fn, "Setup")
	}
	if fn, ok := fns["Prompt"]; ok {
		prompt = func(_ context.Context, c hook.Context) (any, error) {
			return invoke(fn, "Prompt", c)
		}
	}
	return prepare, setup, prompt, nil
}

func phaseFunc(fn reflect.Value, name string) HookFunc {
	return func(_ context.Context, c hook.Context) error {
		_, err := invoke(fn, name, c)
		return err
	}
}

// invoke calls a script hook and normalizes its results to (value, error).
func invoke(fn reflect.Value, name string, c hook.Context) (any, error) {
	arg := reflect.ValueOf(&c).Elem()
	if !arg.Type().AssignableTo(fn.Type().In(0)) {
		return nil, fmt.Errorf("%s takes %s, want hook.Context", name, fn.Type().In(0))
	}
	results := fn.Call([]reflect.Value{arg})

	var value any
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		if err, ok := asError(results[0]); ok {
			return nil, err
		}
		value = results[0].Interface()
	case 2:
		if err, ok := asError(results[1]); ok && err != nil {
			return nil, err
		}
		value = results[0].Interface()
	default:
		return nil, fmt.Errorf("%s returns %d values, want at most 2", name, len(results))
	}
	return value, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// asError reports whether v is an error-typed result and returns it.
func asError(v reflect.Value) (error, bool) {
	if !v.Type().Implements(errorType) && v.Type() != errorType {
		return nil, false
	}
	if (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) && v.IsNil() {
		return nil, true
	}
	err, _ := v.Interface().(error)
	return err, true
}

// declaredFuncs lists the top-level function names of a Go file.
func declaredFuncs(path string) (map[string]bool, error) {
	f, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if f.Name.Name != "main" {
		return nil, fmt.Errorf("%s: piece scripts must use package main", path)
	}
	names := make(map[string]bool)
	for _, d := range f.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Recv == nil {
			names[fd.Name.Name] = true
		}
	}
	return names, nil
}
