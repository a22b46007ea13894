package manifest

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// EvalCondition evaluates a when: expression against env. An empty
// condition is true. Names missing from env evaluate to nil.
func EvalCondition(condition string, env map[string]any) (bool, error) {
	if strings.TrimSpace(condition) == "" {
		return true, nil
	}
	program, err := expr.Compile(condition, expr.Env(env), expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compiling condition %q: %w", condition, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluating condition %q: %w", condition, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not evaluate to a boolean", condition)
	}
	return b, nil
}

// SelectFiles returns the paths of entries whose condition holds.
func SelectFiles(entries []FileEntry, env map[string]any) ([]string, error) {
	var out []string
	for _, e := range entries {
		ok, err := EvalCondition(e.When, env)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e.Path)
		}
	}
	return out, nil
}
