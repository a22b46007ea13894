package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/puzzle-labs/puzzle/internal/compose"
	"github.com/puzzle-labs/puzzle/internal/config"
	"github.com/puzzle-labs/puzzle/internal/expand"
	"github.com/puzzle-labs/puzzle/internal/git"
	"github.com/puzzle-labs/puzzle/internal/history"
	"github.com/puzzle-labs/puzzle/internal/hook"
	"github.com/puzzle-labs/puzzle/internal/logging"
	"github.com/puzzle-labs/puzzle/internal/prompt"
	"github.com/puzzle-labs/puzzle/internal/resolve"
	"github.com/puzzle-labs/puzzle/internal/runtime"
	"github.com/puzzle-labs/puzzle/internal/vars"
)

// State is a step of a run.
type State string

const (
	StateLoading         State = "loading"
	StateCollectingFiles State = "collecting_files"
	StatePreparing       State = "preparing"
	StateResolvingPass1  State = "resolving_pass_1"
	StateSettingUp       State = "setting_up"
	StateResolvingPass2  State = "resolving_pass_2"
	StatePrompting       State = "prompting"
	StateFinalizing      State = "finalizing"
	StateDispatching     State = "dispatching"
	StateCompleted       State = "completed"
	StateAborted         State = "aborted"
)

var (
	// ErrInvalidPromptContract is returned when a prompt hook returns
	// something other than nil, a string or a prompt object.
	ErrInvalidPromptContract = errors.New("invalid prompt hook result")
	// ErrThresholdDeclined is returned when the user declines to send more
	// read files than the configured maximum.
	ErrThresholdDeclined = errors.New("read file threshold declined")
)

// maxResolvePasses bounds the scan-resolve-template loop of one
// resolution state.
const maxResolvePasses = 3

// PieceVar names the variable holding the running piece.
const PieceVar = history.PieceVar

// Request describes one piece invocation.
type Request struct {
	Piece string
	// Vars holds explicit values. They are never prompted for.
	Vars *vars.Table
	// GitRead and GitWrite add the working tree's modified files to the
	// read and write sets.
	GitRead  bool
	GitWrite bool
	Chat     bool
	// Env is passed to the agent process.
	Env map[string]string
}

// Result is the outcome of a run.
type Result struct {
	Piece         string
	State         State
	Vars          *vars.Table
	Instruction   string
	TemplateFiles []string
	ReadFiles     []string
	WriteFiles    []string
	Output        *runtime.Output
}

// Orchestrator drives runs. Its collaborators are injected so the CLI can
// wire real terminals and agents while tests substitute fakes.
type Orchestrator struct {
	Settings   *config.Settings
	WorkingDir string
	Composer   *compose.Composer
	Expander   *expand.Expander
	Prompter   prompt.Prompter
	Runtime    runtime.Runtime
	Templater  vars.Templater
	// Defaults pre-fill prompts.
	Defaults map[string]vars.Value
	// History, when set, stores the variables of every completed run.
	History *history.Store
	// ModifiedFiles lists changed files for git-read and git-write.
	ModifiedFiles func(ctx context.Context) ([]string, error)
	// DryRun skips creating directories for write targets.
	DryRun bool
	// OnState observes state transitions.
	OnState func(piece string, s State)
	Logger  *slog.Logger
}

// RunAll runs pieces one after another. Values resolved by one piece carry
// over to the next; history is saved after each piece completes.
func (o *Orchestrator) RunAll(ctx context.Context, pieces []string, base Request) ([]*Result, error) {
	table := base.Vars
	if table == nil {
		table = vars.NewTable()
	}
	var results []*Result
	for _, piece := range pieces {
		req := base
		req.Piece = piece
		req.Vars = table
		res, err := o.Run(ctx, req)
		results = append(results, res)
		if err != nil {
			return results, err
		}
		table = res.Vars
	}
	return results, nil
}

// Run executes one piece. The returned Result is non-nil even on failure
// and reports the state the run stopped in.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	logger := o.logger().With("piece", req.Piece, "run_id", uuid.NewString())
	ctx = logging.WithLogger(ctx, logger)

	table := vars.NewTable()
	if req.Vars != nil {
		table = req.Vars.Clone()
	}
	table.Set(PieceVar, vars.String(req.Piece))

	r := &run{
		o:      o,
		req:    req,
		logger: logger,
		rc: &runContext{
			table:    table,
			settings: o.Settings,
			defaults: o.Defaults,
			piece:    req.Piece,
			workDir:  o.WorkingDir,
		},
		res: &Result{Piece: req.Piece, Vars: table},
	}

	if err := r.execute(ctx); err != nil {
		r.enter(StateAborted)
		logger.Debug("run aborted", "error", err)
		return r.res, err
	}
	r.enter(StateCompleted)

	if o.History != nil {
		if err := o.History.Save(table); err != nil {
			logger.Warn("saving history failed", "error", err)
		}
	}
	return r.res, nil
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// run holds the state of one Run call.
type run struct {
	o        *Orchestrator
	req      Request
	logger   *slog.Logger
	rc       *runContext
	res      *Result
	modules  []*compose.Module
	resolver *resolve.Resolver
}

func (r *run) enter(s State) {
	r.res.State = s
	r.logger.Debug("state", "state", string(s))
	if r.o.OnState != nil {
		r.o.OnState(r.req.Piece, s)
	}
}

func (r *run) execute(ctx context.Context) error {
	r.enter(StateLoading)
	modules, err := r.o.Composer.Compose(r.req.Piece)
	if err != nil {
		return err
	}
	r.modules = modules
	if err := r.buildResolver(); err != nil {
		return err
	}

	r.enter(StateCollectingFiles)
	if err := r.collect(ctx); err != nil {
		return err
	}

	r.enter(StatePreparing)
	for _, m := range r.modules {
		r.rc.moduleDir = m.Dir
		if err := m.Prepare(ctx, r.rc); err != nil {
			return err
		}
	}
	if err := r.deriveWriteTargets(); err != nil {
		return err
	}

	r.enter(StateResolvingPass1)
	if err := r.resolveFiles(ctx); err != nil {
		return err
	}

	r.enter(StateSettingUp)
	for _, m := range r.modules {
		r.rc.moduleDir = m.Dir
		if err := m.Setup(ctx, r.rc); err != nil {
			return err
		}
	}

	r.enter(StateResolvingPass2)
	if err := r.resolveFiles(ctx); err != nil {
		return err
	}

	r.enter(StatePrompting)
	instruction, err := r.instruction(ctx)
	if err != nil {
		return err
	}
	r.res.Instruction = instruction

	r.enter(StateFinalizing)
	if err := r.finalize(ctx); err != nil {
		return err
	}

	r.enter(StateDispatching)
	return r.dispatch(ctx)
}

func (r *run) buildResolver() error {
	specs := make(map[string]resolve.Spec)
	for _, m := range r.modules {
		s, err := m.VariableSpecs()
		if err != nil {
			return err
		}
		// Later modules win.
		for name, spec := range s {
			specs[name] = spec
		}
	}
	r.resolver = &resolve.Resolver{
		Prompter:  r.o.Prompter,
		Expander:  r.o.Expander,
		Templater: r.o.Templater,
		Defaults:  r.o.Defaults,
		Specs:     specs,
		Logger:    r.logger,
	}
	return nil
}

func (r *run) collect(ctx context.Context) error {
	for _, m := range r.modules {
		templates, err := m.TemplateFiles()
		if err != nil {
			return fmt.Errorf("listing %s templates: %w", m.Name, err)
		}
		extras, err := m.ExtraFiles()
		if err != nil {
			return fmt.Errorf("listing %s extras: %w", m.Name, err)
		}
		r.rc.templates = append(r.rc.templates, templates...)
		r.rc.reads = append(r.rc.reads, extras...)
	}

	gitRead := r.req.GitRead || git.ReadRequested(r.rc.table)
	gitWrite := r.req.GitWrite || git.WriteRequested(r.rc.table)
	if !gitRead && !gitWrite {
		return nil
	}
	if r.o.ModifiedFiles == nil {
		r.logger.Warn("modified files requested but unavailable")
		return nil
	}
	modified, err := r.o.ModifiedFiles(ctx)
	if err != nil {
		return fmt.Errorf("listing modified files: %w", err)
	}
	r.logger.Debug("modified files", "count", len(modified), "read", gitRead, "write", gitWrite)
	if gitRead {
		r.rc.reads = append(r.rc.reads, modified...)
	}
	if gitWrite {
		r.rc.writes = append(r.rc.writes, modified...)
	}
	return nil
}

// deriveWriteTargets maps every template file to its destination under the
// working directory by dropping the module's template root.
func (r *run) deriveWriteTargets() error {
	for _, m := range r.modules {
		templates, err := m.TemplateFiles()
		if err != nil {
			return fmt.Errorf("listing %s templates: %w", m.Name, err)
		}
		root := m.TemplateRoot()
		for _, tf := range r.o.Templater.ApplyAll(templates, r.rc.table) {
			rel, err := filepath.Rel(root, tf)
			if err != nil || strings.HasPrefix(rel, "..") {
				r.logger.Warn("template outside its module", "path", tf)
				continue
			}
			r.rc.writes = append(r.rc.writes, filepath.Join(r.o.WorkingDir, rel))
		}
	}
	return nil
}

// resolveFiles scans every file reference, asks for unset variables in
// depth order and rewrites the read and write lists. It repeats while
// expansion surfaces new placeholders, up to maxResolvePasses.
func (r *run) resolveFiles(ctx context.Context) error {
	t := r.rc.table
	for pass := 0; pass < maxResolvePasses; pass++ {
		all := r.rc.allFiles()
		vars.ScanAll(all, t)
		if len(t.Unresolved()) > 0 {
			if err := r.resolver.Resolve(ctx, t, all); err != nil {
				return err
			}
		}
		if err := r.rewrite(); err != nil {
			return err
		}
		vars.ScanAll(r.rc.allFiles(), t)
		if len(t.Unresolved()) == 0 {
			return nil
		}
	}
	r.logger.Warn("variables left unresolved", "names", t.Unresolved())
	return nil
}

// rewrite substitutes resolved values into the read and write lists and
// expands their wildcards. Reads are kept only when they exist.
func (r *run) rewrite() error {
	t := r.rc.table
	reads, err := r.expand(r.o.Templater.ApplyAll(r.rc.reads, t))
	if err != nil {
		return err
	}
	writes, err := r.expand(r.o.Templater.ApplyAll(r.rc.writes, t))
	if err != nil {
		return err
	}
	r.rc.reads = existing(reads)
	r.rc.writes = writes
	return nil
}

func (r *run) expand(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if !expand.HasWildcard(p) || len(vars.Tokens(p)) > 0 {
			out = append(out, p)
			continue
		}
		matches, err := r.o.Expander.Expand(p, expand.Options{})
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return out, nil
}

func existing(paths []string) []string {
	out := paths[:0:0]
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}

func (r *run) instruction(ctx context.Context) (string, error) {
	var fragments []string
	for _, m := range r.modules {
		r.rc.moduleDir = m.Dir
		results, err := m.Prompt(ctx, r.rc)
		if err != nil {
			return "", err
		}
		for _, v := range results {
			text, err := promptText(v)
			if err != nil {
				return "", fmt.Errorf("%s prompt hook: %w", m.Name, err)
			}
			if strings.TrimSpace(text) != "" {
				fragments = append(fragments, text)
			}
		}
	}
	return strings.Join(fragments, "\n\n"), nil
}

// promptText accepts nil, a string, a hook.Prompt or a map carrying a
// string "prompt" entry.
func promptText(v any) (string, error) {
	switch p := v.(type) {
	case nil:
		return "", nil
	case string:
		return p, nil
	case hook.Prompt:
		return p.Prompt, nil
	case *hook.Prompt:
		if p == nil {
			return "", nil
		}
		return p.Prompt, nil
	case map[string]any:
		s, ok := p["prompt"].(string)
		if !ok {
			return "", fmt.Errorf("%w: map without a string prompt field", ErrInvalidPromptContract)
		}
		return s, nil
	case map[string]string:
		s, ok := p["prompt"]
		if !ok {
			return "", fmt.Errorf("%w: map without a prompt field", ErrInvalidPromptContract)
		}
		return s, nil
	}
	return "", fmt.Errorf("%w: got %T", ErrInvalidPromptContract, v)
}

func (r *run) finalize(ctx context.Context) error {
	writes := unique(r.resolvedOnly(r.rc.writes))
	inWrites := make(map[string]bool, len(writes))
	for _, w := range writes {
		inWrites[w] = true
	}
	without := func(paths []string) []string {
		var out []string
		for _, p := range unique(paths) {
			if !inWrites[p] {
				out = append(out, p)
			}
		}
		return out
	}
	r.res.WriteFiles = writes
	r.res.ReadFiles = without(r.resolvedOnly(r.rc.reads))
	r.res.TemplateFiles = without(r.rc.templates)

	limit := 10
	if r.o.Settings != nil && r.o.Settings.MaxReadFiles > 0 {
		limit = r.o.Settings.MaxReadFiles
	}
	if n := len(r.res.ReadFiles); n > limit {
		ok, err := r.o.Prompter.Confirm(ctx,
			fmt.Sprintf("Total referenced files is %d, do you wish to continue?", n), false)
		if err != nil {
			return fmt.Errorf("%w: %w", resolve.ErrAbortedInput, err)
		}
		if !ok {
			return fmt.Errorf("%w: %d read files", ErrThresholdDeclined, n)
		}
	}
	return nil
}

// resolvedOnly drops paths that still carry a {NAME} token.
func (r *run) resolvedOnly(paths []string) []string {
	var out []string
	for _, p := range paths {
		if len(vars.Tokens(p)) > 0 {
			r.logger.Warn("dropping unresolved path", "path", p)
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r *run) dispatch(ctx context.Context) error {
	if !r.o.DryRun {
		for _, w := range r.res.WriteFiles {
			if err := os.MkdirAll(filepath.Dir(w), 0o755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", w, err)
			}
		}
	}
	job := &runtime.Job{
		Instruction:   r.res.Instruction,
		TemplateFiles: r.res.TemplateFiles,
		ReadFiles:     r.res.ReadFiles,
		WriteFiles:    r.res.WriteFiles,
		Chat:          r.req.Chat,
		Dir:           r.o.WorkingDir,
		Env:           r.req.Env,
	}
	r.logger.Info("dispatching agent",
		"read", len(job.ReadFiles), "write", len(job.WriteFiles), "templates", len(job.TemplateFiles))
	out, err := r.o.Runtime.Run(ctx, job)
	r.res.Output = out
	if err != nil {
		return err
	}
	if out != nil && out.ExitCode != 0 {
		return fmt.Errorf("agent exited with status %d", out.ExitCode)
	}
	return nil
}

func unique(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
