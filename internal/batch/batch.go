package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/puzzle-labs/puzzle/internal/expand"
	"github.com/puzzle-labs/puzzle/internal/prompt"
	"github.com/puzzle-labs/puzzle/internal/runtime"
	"github.com/puzzle-labs/puzzle/internal/vars"
)

// ErrMissingMessage is returned when a batch has no instruction.
var ErrMissingMessage = errors.New("one of --message, --msg or --message-file must be set")

// Variables that carry the batch instruction.
const (
	MessageVar     = "MESSAGE"
	MsgVar         = "MSG"
	MessageFileVar = "MESSAGE-FILE"
)

// Request describes one batch.
type Request struct {
	Pattern     string
	Message     string
	MessageFile string
	// ReadFiles are sent with every group. Wildcards are expanded.
	ReadFiles []string
	Env       map[string]string
}

// FromVars fills Message and MessageFile from the batch variables when
// they are not already set.
func (r *Request) FromVars(t *vars.Table) {
	if r.Message == "" {
		for _, name := range []string{MessageVar, MsgVar} {
			if v, ok := t.Get(name); ok && v.Truthy() {
				r.Message = v.String()
				break
			}
		}
	}
	if r.MessageFile == "" {
		if v, ok := t.Get(MessageFileVar); ok && v.Truthy() {
			r.MessageFile = v.String()
		}
	}
}

// Instruction returns the message, reading MessageFile when Message is
// empty.
func (r *Request) Instruction() (string, error) {
	if r.Message != "" {
		return r.Message, nil
	}
	if r.MessageFile == "" {
		return "", ErrMissingMessage
	}
	data, err := os.ReadFile(r.MessageFile)
	if err != nil {
		return "", fmt.Errorf("reading message file: %w", err)
	}
	return string(data), nil
}

// Summary reports what a batch did.
type Summary struct {
	Matched   []expand.Group
	Processed []expand.Group
	Outputs   []*runtime.Output
}

// Processor runs batches.
type Processor struct {
	Expander   *expand.Expander
	Prompter   prompt.Prompter
	Runtime    runtime.Runtime
	RepoPath   string
	WorkingDir string
	// Out receives status and progress banners.
	Out    io.Writer
	Logger *slog.Logger
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bannerStyle = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("1")).Padding(0, 2)
)

// Run expands the pattern, asks which files to process and dispatches the
// agent once per group that kept at least one file. Selecting nothing
// ends the batch without dispatching.
func (p *Processor) Run(ctx context.Context, req Request) (*Summary, error) {
	instruction, err := req.Instruction()
	if err != nil {
		return nil, err
	}

	groups, err := p.Expander.Groups(req.Pattern)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Matched: groups}
	if len(groups) == 0 {
		p.logger().Info("no files match batch pattern", "pattern", req.Pattern)
		return summary, nil
	}

	reads, err := p.Expander.ExpandAll(req.ReadFiles, expand.Options{})
	if err != nil {
		return nil, err
	}

	total := len(expand.Flatten(groups))
	p.printf("%s\n", statusStyle.Render(fmt.Sprintf("Found %d groups with total %d files matching pattern: %s",
		len(groups), total, req.Pattern)))

	selected, err := p.Prompter.MultiSelect(ctx, prompt.MultiQuestion{
		Message: "Select files to process:",
		Choices: p.choices(groups),
	})
	if err != nil {
		return summary, err
	}
	if len(selected) == 0 {
		p.printf("No files selected. Batch processing cancelled.\n")
		return summary, nil
	}

	summary.Processed = Regroup(groups, selected)
	for i, g := range summary.Processed {
		p.printf("%s\n", Banner(i+1, len(summary.Processed), g))
		p.logger().Info("processing group", "dir", g.Dir, "files", len(g.Files), "index", i+1)

		out, err := p.Runtime.Run(ctx, &runtime.Job{
			Instruction: instruction,
			ReadFiles:   reads,
			WriteFiles:  g.Files,
			Dir:         p.WorkingDir,
			Env:         req.Env,
		})
		if out != nil {
			summary.Outputs = append(summary.Outputs, out)
		}
		if err != nil {
			return summary, fmt.Errorf("group %s: %w", g.Dir, err)
		}
		if out != nil && out.ExitCode != 0 {
			return summary, fmt.Errorf("group %s: agent exited with status %d", g.Dir, out.ExitCode)
		}
	}
	return summary, nil
}

// choices lists every file pre-checked. Multi-file groups get a heading.
func (p *Processor) choices(groups []expand.Group) []prompt.Choice {
	grouped := false
	for _, g := range groups {
		if len(g.Files) > 1 {
			grouped = true
			break
		}
	}
	var out []prompt.Choice
	for i, g := range groups {
		if grouped {
			out = append(out, prompt.Choice{Label: fmt.Sprintf("=== Group %d ===", i+1), Separator: true})
		}
		for _, f := range g.Files {
			out = append(out, prompt.Choice{Label: p.relative(f), Value: f, Checked: true})
		}
	}
	return out
}

func (p *Processor) relative(path string) string {
	if p.RepoPath == "" {
		return path
	}
	rel, err := filepath.Rel(p.RepoPath, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// Regroup keeps the selected files in their original groups and order,
// dropping groups left empty.
func Regroup(groups []expand.Group, selected []string) []expand.Group {
	keep := make(map[string]bool, len(selected))
	for _, s := range selected {
		keep[s] = true
	}
	var out []expand.Group
	for _, g := range groups {
		var files []string
		for _, f := range g.Files {
			if keep[f] {
				files = append(files, f)
			}
		}
		if len(files) > 0 {
			out = append(out, expand.Group{Dir: g.Dir, Files: files})
		}
	}
	return out
}

// Banner renders the progress box shown before a group is dispatched.
func Banner(n, total int, g expand.Group) string {
	percent := n * 100 / total
	lines := []string{
		fmt.Sprintf("Progress: %d%% (%d/%d groups)", percent, n, total),
		fmt.Sprintf("Processing group %d (%d files)", n, len(g.Files)),
	}
	return bannerStyle.Render(strings.Join(lines, "\n"))
}

func (p *Processor) printf(format string, args ...any) {
	if p.Out == nil {
		return
	}
	fmt.Fprintf(p.Out, format, args...)
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
