package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

// PrintRuntime shows what would be sent to the agent without running it.
type PrintRuntime struct {
	Out     io.Writer
	Command string
	Args    map[string]any
	// Markdown renders the instruction with glamour.
	Markdown bool
}

func (p *PrintRuntime) Run(_ context.Context, job *Job) (*Output, error) {
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	command := p.Command
	if command == "" {
		command = RuntimeAider
	}

	var b strings.Builder
	b.WriteString(renderInstruction(job.Instruction, p.Markdown))
	b.WriteString("\n\n")
	b.WriteString(FormatCommand(command, BuildArgs(p.Args, job, "<message-file>")))
	b.WriteString("\n")
	if _, err := io.WriteString(out, b.String()); err != nil {
		return nil, fmt.Errorf("writing preview: %w", err)
	}
	return &Output{Stdout: b.String()}, nil
}

// FormatCommand renders a command line with one flag per line.
func FormatCommand(command string, args []string) string {
	var b strings.Builder
	b.WriteString(command)
	for i := 0; i < len(args); i++ {
		b.WriteString(" \\\n  ")
		b.WriteString(quote(args[i]))
		if strings.HasPrefix(args[i], "--") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			b.WriteString(" ")
			b.WriteString(quote(args[i+1]))
			i++
		}
	}
	return b.String()
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"'$`\\{}*<>|&;()") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

func renderInstruction(md string, styled bool) string {
	if !styled || strings.TrimSpace(md) == "" {
		return md
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
