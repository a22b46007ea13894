package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/puzzle-labs/puzzle/internal/expand"
	"github.com/puzzle-labs/puzzle/internal/prompt"
	"github.com/puzzle-labs/puzzle/internal/vars"
)

// ErrAbortedInput is returned when the user cancels a prompt or the
// prompter cannot be used.
var ErrAbortedInput = errors.New("input aborted")

// Spec declares how a variable is asked for.
type Spec struct {
	Kind    vars.Kind
	Message string
	// Options is the fixed choice set for list and search variables.
	Options []string
	// From is a path pattern whose matches contribute their base names as
	// options. It may reference other variables.
	From string
	// DirsOnly restricts From matches and Within entries to directories.
	DirsOnly bool
	// Within keeps only options naming an entry of this directory, compared
	// case-sensitively.
	Within string
}

// Resolver prompts for unresolved variables.
type Resolver struct {
	Prompter  prompt.Prompter
	Expander  *expand.Expander
	Templater vars.Templater
	// Defaults pre-fill prompts, typically from history.
	Defaults map[string]vars.Value
	// Specs declares non-input variables. Undeclared names are inputs.
	Specs  map[string]Spec
	Logger *slog.Logger
}

// Resolve prompts for every unset variable of t in depth order over paths.
// Assigned variables, whether from overrides or earlier passes, are never
// asked for again.
func (r *Resolver) Resolve(ctx context.Context, t *vars.Table, paths []string) error {
	for _, name := range vars.Order(t.Unresolved(), paths) {
		if t.IsSet(name) {
			continue
		}
		v, err := r.ask(ctx, t, name, paths)
		if err != nil {
			return err
		}
		t.Set(name, v)
		r.logger().Debug("variable resolved", "name", name, "value", v.String())
	}
	return nil
}

func (r *Resolver) ask(ctx context.Context, t *vars.Table, name string, paths []string) (vars.Value, error) {
	spec := r.specFor(t, name)
	q := prompt.Question{
		Name:    name,
		Message: message(name, spec, paths),
		Default: r.Defaults[name].String(),
	}

	var (
		answer string
		err    error
	)
	switch spec.Kind {
	case vars.KindList, vars.KindSearch:
		var options []string
		options, err = r.options(spec, t)
		if err != nil {
			return vars.Value{}, fmt.Errorf("listing choices for %s: %w", name, err)
		}
		if len(options) == 0 {
			r.logger().Warn("no choices available, asking for free text", "variable", name)
			answer, err = r.Prompter.Input(ctx, q)
			break
		}
		if spec.Kind == vars.KindSearch {
			q.Choices = prompt.WithDefaultFirst(q.Default, options)
			q.AllowCustom = true
			answer, err = r.Prompter.Search(ctx, q)
			break
		}
		if q.Default != "" && slices.Contains(options, q.Default) {
			options = prompt.WithDefaultFirst(q.Default, options)
		} else {
			q.Default = ""
		}
		q.Choices = options
		answer, err = r.Prompter.Select(ctx, q)
	default:
		answer, err = r.Prompter.Input(ctx, q)
	}
	if err != nil {
		return vars.Value{}, fmt.Errorf("%w: %s: %w", ErrAbortedInput, name, err)
	}
	return vars.String(answer), nil
}

func (r *Resolver) specFor(t *vars.Table, name string) Spec {
	if s, ok := r.Specs[name]; ok {
		if s.Kind == "" {
			s.Kind = vars.KindInput
		}
		return s
	}
	kind := vars.KindInput
	if v, ok := t.Lookup(name); ok && v.Kind != "" {
		kind = v.Kind
	}
	return Spec{Kind: kind}
}

func message(name string, spec Spec, paths []string) string {
	msg := spec.Message
	if msg == "" {
		msg = "Please provide a value for " + name
	}
	if ref, ok := vars.FirstReference(name, paths); ok {
		msg += " (used in " + vars.Hint(name, ref) + ")"
	}
	return msg
}

// options builds the choice list for spec, substituting known variables
// into its patterns.
func (r *Resolver) options(spec Spec, t *vars.Table) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(o string) {
		if o != "" && !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	for _, o := range spec.Options {
		add(o)
	}

	if spec.From != "" && r.Expander != nil {
		pattern := r.Templater.Apply(spec.From, t)
		matches, err := r.Expander.Expand(pattern, expand.Options{DirsOnly: spec.DirsOnly})
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			add(filepath.Base(m))
		}
	}

	if spec.Within == "" {
		return out, nil
	}
	dir := r.Templater.Apply(spec.Within, t)
	if !filepath.IsAbs(dir) && r.Expander != nil {
		dir = filepath.Join(r.Expander.Root(), dir)
	}
	members, err := entryNames(dir, spec.DirsOnly)
	if err != nil {
		return nil, err
	}
	filtered := out[:0]
	for _, o := range out {
		if members[o] {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

// entryNames lists the names in dir exactly as stored, so that membership
// is case-sensitive even on case-folding filesystems.
func entryNames(dir string, dirsOnly bool) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		if dirsOnly && !e.IsDir() {
			continue
		}
		names[e.Name()] = true
	}
	return names, nil
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
