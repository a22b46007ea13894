package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

// Line prompts one line at a time. It works on pipes as well as
// terminals, offering tab completion over choices when interactive.
type Line struct {
	In  io.Reader
	Out io.Writer

	once sync.Once
	rl   *readline.Instance
	err  error
}

func (l *Line) instance() (*readline.Instance, error) {
	l.once.Do(func() {
		in, ok := l.In.(io.ReadCloser)
		if !ok {
			in = io.NopCloser(l.In)
		}
		l.rl, l.err = readline.NewEx(&readline.Config{
			Stdin:           in,
			Stdout:          l.Out,
			InterruptPrompt: "^C",
		})
		if l.err != nil {
			l.err = fmt.Errorf("init readline: %w", l.err)
		}
	})
	return l.rl, l.err
}

// Close releases the terminal.
func (l *Line) Close() error {
	if l.rl != nil {
		return l.rl.Close()
	}
	return nil
}

func (l *Line) readLine(ctx context.Context, prompt string, completions []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrCancelled
	}
	rl, err := l.instance()
	if err != nil {
		return "", err
	}
	completer := readline.NewPrefixCompleter()
	for _, c := range completions {
		completer.Children = append(completer.Children, readline.PcItem(c))
	}
	rl.Config.AutoComplete = completer
	rl.SetPrompt(prompt)

	line, err := rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func questionPrompt(q Question) string {
	if q.Default != "" {
		return fmt.Sprintf("%s [%s]: ", q.Message, q.Default)
	}
	return q.Message + ": "
}

// Input asks for free text. An empty answer takes the default.
func (l *Line) Input(ctx context.Context, q Question) (string, error) {
	answer, err := l.readLine(ctx, questionPrompt(q), nil)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return q.Default, nil
	}
	return answer, nil
}

// Select lists numbered choices and asks until one is picked.
func (l *Line) Select(ctx context.Context, q Question) (string, error) {
	q.AllowCustom = false
	return l.choose(ctx, q)
}

// Search narrows choices by fuzzy match until one remains or the answer
// names a choice exactly. With AllowCustom, any other non-empty answer is
// returned as typed.
func (l *Line) Search(ctx context.Context, q Question) (string, error) {
	return l.choose(ctx, q)
}

func (l *Line) choose(ctx context.Context, q Question) (string, error) {
	visible := q.Choices
	for {
		l.printChoices(visible)
		answer, err := l.readLine(ctx, questionPrompt(q), visible)
		if err != nil {
			return "", err
		}
		if answer == "" && q.Default != "" {
			return q.Default, nil
		}
		if v, ok := PickChoice(answer, visible); ok {
			return v, nil
		}
		if q.AllowCustom && answer != "" {
			return answer, nil
		}
		narrowed := Filter(answer, q.Choices)
		switch {
		case len(narrowed) == 1:
			return narrowed[0], nil
		case len(narrowed) == 0:
			fmt.Fprintf(l.Out, "no choice matches %q\n", answer)
		default:
			visible = narrowed
		}
	}
}

func (l *Line) printChoices(choices []string) {
	for i, c := range choices {
		fmt.Fprintf(l.Out, "  %d) %s\n", i+1, c)
	}
}

// Confirm asks a yes/no question.
func (l *Line) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		answer, err := l.readLine(ctx, fmt.Sprintf("%s (%s): ", message, hint), []string{"yes", "no"})
		if err != nil {
			return false, err
		}
		if v, ok := ParseYesNo(answer, def); ok {
			return v, nil
		}
	}
}

// MultiSelect lists choices and reads a comma-separated list of numbers.
// An empty answer keeps the pre-checked choices, "none" clears them.
func (l *Line) MultiSelect(ctx context.Context, q MultiQuestion) ([]string, error) {
	fmt.Fprintln(l.Out, q.Message)
	var selectable []Choice
	var preset []string
	for _, c := range q.Choices {
		if c.Separator {
			fmt.Fprintln(l.Out, c.Label)
			continue
		}
		selectable = append(selectable, c)
		mark := " "
		if c.Checked {
			mark = "x"
			preset = append(preset, c.Value)
		}
		fmt.Fprintf(l.Out, "  %d) [%s] %s\n", len(selectable), mark, c.Label)
	}
	for {
		answer, err := l.readLine(ctx, "select (e.g. 1,3-5; enter keeps checked; none): ", nil)
		if err != nil {
			return nil, err
		}
		switch answer {
		case "":
			return preset, nil
		case "none":
			return nil, nil
		}
		idx, err := ParseSelection(answer, len(selectable))
		if err != nil {
			fmt.Fprintln(l.Out, err)
			continue
		}
		out := make([]string, 0, len(idx))
		for _, i := range idx {
			out = append(out, selectable[i].Value)
		}
		return out, nil
	}
}

// PickChoice resolves an answer to a choice by 1-based index or exact value.
func PickChoice(answer string, choices []string) (string, bool) {
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1], true
	}
	if slices.Contains(choices, answer) {
		return answer, true
	}
	return "", false
}

// ParseYesNo interprets a yes/no answer. ok is false for anything else.
func ParseYesNo(answer string, def bool) (value, ok bool) {
	switch strings.ToLower(answer) {
	case "":
		return def, true
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	}
	return false, false
}

// ParseSelection parses "1,3-5" into sorted, distinct 0-based indexes
// below n.
func ParseSelection(s string, n int) ([]int, error) {
	seen := make(map[int]bool)
	var out []int
	add := func(i int) error {
		if i < 1 || i > n {
			return fmt.Errorf("selection %d out of range 1-%d", i, n)
		}
		if !seen[i-1] {
			seen[i-1] = true
			out = append(out, i-1)
		}
		return nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q", part)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || b < a {
				return nil, fmt.Errorf("invalid range %q", part)
			}
		}
		for i := a; i <= b; i++ {
			if err := add(i); err != nil {
				return nil, err
			}
		}
	}
	slices.Sort(out)
	return out, nil
}
