package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const maxVisibleChoices = 10

// Terminal prompts with full-screen-less bubbletea programs.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func (t *Terminal) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	p := tea.NewProgram(m, tea.WithInput(t.In), tea.WithOutput(t.Out), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("running prompt: %w", err)
	}
	return final, nil
}

// Input asks for free text. An empty answer takes the default.
func (t *Terminal) Input(ctx context.Context, q Question) (string, error) {
	final, err := t.run(ctx, newInputModel(q))
	if err != nil {
		return "", err
	}
	m := final.(inputModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.answer, nil
}

// Select asks for one of q.Choices.
func (t *Terminal) Select(ctx context.Context, q Question) (string, error) {
	q.AllowCustom = false
	return t.choose(ctx, q)
}

// Search asks for one of q.Choices with type-to-filter, accepting free
// text when q.AllowCustom is set.
func (t *Terminal) Search(ctx context.Context, q Question) (string, error) {
	return t.choose(ctx, q)
}

func (t *Terminal) choose(ctx context.Context, q Question) (string, error) {
	final, err := t.run(ctx, newSelectModel(q))
	if err != nil {
		return "", err
	}
	m := final.(selectModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.answer, nil
}

// Confirm asks a yes/no question.
func (t *Terminal) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	final, err := t.run(ctx, confirmModel{message: message, answer: def})
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	if m.cancelled {
		return false, ErrCancelled
	}
	return m.answer, nil
}

// MultiSelect asks for any number of q.Choices.
func (t *Terminal) MultiSelect(ctx context.Context, q MultiQuestion) ([]string, error) {
	final, err := t.run(ctx, newMultiModel(q))
	if err != nil {
		return nil, err
	}
	m := final.(multiModel)
	if m.cancelled {
		return nil, ErrCancelled
	}
	return m.selected(), nil
}

// --- input ---

type inputModel struct {
	q         Question
	input     textinput.Model
	answer    string
	done      bool
	cancelled bool
}

func newInputModel(q Question) inputModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = q.Default
	ti.Focus()
	return inputModel{q: q, input: ti}
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			m.answer = m.input.Value()
			if m.answer == "" {
				m.answer = m.q.Default
			}
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return questionStyle.Render(m.q.Message) + "\n" + m.input.View() + "\n"
}

// --- select / search ---

type selectModel struct {
	q         Question
	filter    textinput.Model
	visible   []string
	cursor    int
	answer    string
	done      bool
	cancelled bool
}

func newSelectModel(q Question) selectModel {
	ti := textinput.New()
	ti.Prompt = "filter: "
	ti.Focus()
	m := selectModel{q: q, filter: ti}
	m.refresh()
	return m
}

// refresh recomputes the visible options from the filter text. With
// AllowCustom, the typed text is offered first unless it is already a
// choice.
func (m *selectModel) refresh() {
	query := m.filter.Value()
	m.visible = Filter(query, m.q.Choices)
	if m.q.AllowCustom && query != "" && !slices.Contains(m.visible, query) {
		m.visible = append([]string{query}, m.visible...)
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m selectModel) Init() tea.Cmd { return textinput.Blink }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			m.answer = m.visible[m.cursor]
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case tea.KeyDown:
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refresh()
	return m, cmd
}

func (m selectModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(questionStyle.Render(m.q.Message))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n")

	start := 0
	if m.cursor >= maxVisibleChoices {
		start = m.cursor - maxVisibleChoices + 1
	}
	end := min(start+maxVisibleChoices, len(m.visible))
	for i := start; i < end; i++ {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + m.visible[i]))
		} else {
			b.WriteString("  " + m.visible[i])
		}
		b.WriteString("\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(defaultStyle.Render("  no matches"))
		b.WriteString("\n")
	}
	return b.String()
}

// --- confirm ---

type confirmModel struct {
	message   string
	answer    bool
	done      bool
	cancelled bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "y", "Y":
		m.answer = true
	case "n", "N":
		m.answer = false
	case "enter":
	case "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	default:
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	hint := "(y/N)"
	if m.answer {
		hint = "(Y/n)"
	}
	return questionStyle.Render(m.message) + " " + defaultStyle.Render(hint) + "\n"
}

// --- multi select ---

type multiModel struct {
	q         MultiQuestion
	checked   []bool
	cursor    int
	done      bool
	cancelled bool
}

func newMultiModel(q MultiQuestion) multiModel {
	m := multiModel{q: q, checked: make([]bool, len(q.Choices))}
	for i, c := range q.Choices {
		m.checked[i] = c.Checked && !c.Separator
	}
	m.cursor = m.next(-1, 1)
	return m
}

// next returns the first selectable index after from in direction dir,
// or from when there is none.
func (m multiModel) next(from, dir int) int {
	for i := from + dir; i >= 0 && i < len(m.q.Choices); i += dir {
		if !m.q.Choices[i].Separator {
			return i
		}
	}
	return from
}

func (m multiModel) Init() tea.Cmd { return nil }

func (m multiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "up", "k":
		m.cursor = m.next(m.cursor, -1)
	case "down", "j":
		m.cursor = m.next(m.cursor, 1)
	case " ":
		if m.cursor >= 0 && m.cursor < len(m.checked) {
			m.checked[m.cursor] = !m.checked[m.cursor]
		}
	case "a":
		all := true
		for i, c := range m.q.Choices {
			if !c.Separator && !m.checked[i] {
				all = false
			}
		}
		for i, c := range m.q.Choices {
			m.checked[i] = !all && !c.Separator
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	case "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m multiModel) selected() []string {
	var out []string
	for i, c := range m.q.Choices {
		if m.checked[i] {
			out = append(out, c.Value)
		}
	}
	return out
}

func (m multiModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(questionStyle.Render(m.q.Message))
	b.WriteString("\n")
	for i, c := range m.q.Choices {
		if c.Separator {
			b.WriteString(separatorStyle.Render(c.Label))
			b.WriteString("\n")
			continue
		}
		box := "[ ]"
		if m.checked[i] {
			box = "[x]"
		}
		line := box + " " + c.Label
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("space: toggle  a: all  enter: confirm"))
	b.WriteString("\n")
	return b.String()
}
