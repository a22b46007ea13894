package prompt

import (
	"context"
	"errors"
	"os"

	"github.com/sahilm/fuzzy"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user dismisses a prompt.
var ErrCancelled = errors.New("prompt cancelled")

// Question describes a single-answer prompt.
type Question struct {
	Name    string
	Message string
	Default string
	Choices []string
	// AllowCustom returns any answer that is not exactly a choice as typed.
	AllowCustom bool
}

// Choice is one entry of a multi-select prompt.
type Choice struct {
	Label   string
	Value   string
	Checked bool
	// Separator rows are headings and cannot be selected.
	Separator bool
}

// MultiQuestion describes a checkbox prompt.
type MultiQuestion struct {
	Message string
	Choices []Choice
}

// Prompter asks questions on behalf of the resolver and the commands.
type Prompter interface {
	Input(ctx context.Context, q Question) (string, error)
	Select(ctx context.Context, q Question) (string, error)
	Search(ctx context.Context, q Question) (string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
	MultiSelect(ctx context.Context, q MultiQuestion) ([]string, error)
}

// New returns a Terminal prompter when in and out are terminals and plain
// is false, otherwise a Line prompter.
func New(in, out *os.File, plain bool) Prompter {
	if !plain && term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd())) {
		return &Terminal{In: in, Out: out}
	}
	return &Line{In: in, Out: out}
}

// Filter returns the choices fuzzy-matching query, best match first. An
// empty query returns every choice in its original order.
func Filter(query string, choices []string) []string {
	if query == "" {
		out := make([]string, len(choices))
		copy(out, choices)
		return out
	}
	matches := fuzzy.Find(query, choices)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}

// WithDefaultFirst moves def to the front of choices, adding it when it is
// absent and non-empty.
func WithDefaultFirst(def string, choices []string) []string {
	if def == "" {
		return choices
	}
	out := []string{def}
	for _, c := range choices {
		if c != def {
			out = append(out, c)
		}
	}
	return out
}
