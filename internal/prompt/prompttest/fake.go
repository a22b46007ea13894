// Package prompttest provides a scripted Prompter for tests.
package prompttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/puzzle-labs/puzzle/internal/prompt"
)

// Call records one question that was asked.
type Call struct {
	Method   string
	Question prompt.Question
	Multi    prompt.MultiQuestion
	Message  string
}

// Fake answers questions from fixed tables. Answers are looked up by
// question name, then by message. A missing answer returns the default,
// or ErrCancelled when Strict is set.
type Fake struct {
	Answers  map[string]string
	Confirms map[string]bool
	// Multi answers every MultiSelect; nil keeps the pre-checked values.
	Multi  []string
	Strict bool
	Err    error

	mu    sync.Mutex
	Calls []Call
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)
}

// Asked returns the names of the single-answer questions in order.
func (f *Fake) Asked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Calls {
		if c.Question.Name != "" {
			out = append(out, c.Question.Name)
		}
	}
	return out
}

func (f *Fake) answer(q prompt.Question) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	if a, ok := f.Answers[q.Name]; ok {
		return a, nil
	}
	if a, ok := f.Answers[q.Message]; ok {
		return a, nil
	}
	if f.Strict {
		return "", fmt.Errorf("no answer for %q: %w", q.Name, prompt.ErrCancelled)
	}
	return q.Default, nil
}

func (f *Fake) Input(_ context.Context, q prompt.Question) (string, error) {
	f.record(Call{Method: "Input", Question: q})
	return f.answer(q)
}

func (f *Fake) Select(_ context.Context, q prompt.Question) (string, error) {
	f.record(Call{Method: "Select", Question: q})
	return f.answer(q)
}

func (f *Fake) Search(_ context.Context, q prompt.Question) (string, error) {
	f.record(Call{Method: "Search", Question: q})
	return f.answer(q)
}

func (f *Fake) Confirm(_ context.Context, message string, def bool) (bool, error) {
	f.record(Call{Method: "Confirm", Message: message})
	if f.Err != nil {
		return false, f.Err
	}
	if v, ok := f.Confirms[message]; ok {
		return v, nil
	}
	return def, nil
}

func (f *Fake) MultiSelect(_ context.Context, q prompt.MultiQuestion) ([]string, error) {
	f.record(Call{Method: "MultiSelect", Multi: q})
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Multi != nil {
		return f.Multi, nil
	}
	var out []string
	for _, c := range q.Choices {
		if c.Checked && !c.Separator {
			out = append(out, c.Value)
		}
	}
	return out, nil
}

var _ prompt.Prompter = (*Fake)(nil)
