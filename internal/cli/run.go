package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/puzzle-labs/puzzle/internal/action"
	"github.com/puzzle-labs/puzzle/internal/compose"
	"github.com/puzzle-labs/puzzle/internal/git"
	"github.com/puzzle-labs/puzzle/internal/history"
	"github.com/puzzle-labs/puzzle/internal/prompt"
	"github.com/puzzle-labs/puzzle/internal/vars"
	"github.com/spf13/cobra"
)

var (
	runVars     []string
	runHistory  bool
	runGitRead  bool
	runGitWrite bool
	runChat     bool
	runDryRun   bool
)

func init() {
	f := rootCmd.Flags()
	f.StringArrayVarP(&runVars, "var", "V", nil, "Set a variable as KEY=VALUE (can be specified multiple times)")
	f.BoolVarP(&runHistory, "history", "H", false, "Pick a history record to use as defaults")
	f.BoolVar(&runGitRead, "git-read", false, "Add modified git files to the read set")
	f.BoolVar(&runGitWrite, "git-write", false, "Add modified git files to the write set")
	f.BoolVar(&runChat, "chat", false, "Leave the agent in chat mode")
	f.BoolVar(&runDryRun, "dry-run", false, "Print the instruction and agent command without running it")
}

func runPieces(cmd *cobra.Command, args []string) error {
	pieces, assignments := splitArgs(args)
	overrides, err := parseAssignments(append(append([]string{}, runVars...), assignments...))
	if err != nil {
		return err
	}

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s := ws.settings

	store := history.NewStore(s.PuzzlePath(), s.History.Size)
	_, statErr := os.Stat(store.Path)
	firstUse := os.IsNotExist(statErr)
	records, err := store.Load()
	if err != nil {
		ws.logger.Warn("ignoring unreadable history", "path", store.Path, "error", err)
	}
	defaults := history.Defaults(records, s.History.Defaults)
	if runHistory {
		rec, ok, err := history.Choose(ctx, ws.prompter, records, s.History.Defaults)
		if err != nil {
			return err
		}
		if ok {
			defaults = history.RecordDefaults(rec)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No history records yet.")
		}
	}

	if len(pieces) == 0 {
		pieces, err = selectPieces(ctx, ws.prompter, ws.composer, defaults[action.PieceVar].String())
		if err != nil {
			return err
		}
		if len(pieces) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No pieces selected.")
			return nil
		}
	}

	if firstUse && !runDryRun {
		offerHistoryIgnore(ctx, ws, store.Path)
	}

	env, err := ws.agentEnv()
	if err != nil {
		return err
	}
	table := vars.NewTable()
	for _, a := range overrides {
		table.Set(a.Name, a.Value)
	}

	orch := &action.Orchestrator{
		Settings:   s,
		WorkingDir: ws.workDir,
		Composer:   ws.composer,
		Expander:   ws.expander,
		Prompter:   ws.prompter,
		Runtime:    ws.agentRuntime(runDryRun, cmd.OutOrStdout()),
		Defaults:   defaults,
		History:    store,
		DryRun:     runDryRun,
		ModifiedFiles: func(ctx context.Context) ([]string, error) {
			return git.ModifiedFiles(ctx, ws.workDir, s.PuzzlePath())
		},
		OnState: func(piece string, st action.State) {
			ws.logger.Debug("state", "piece", piece, "state", st)
		},
		Logger: ws.logger,
	}
	req := action.Request{
		Vars:     table,
		GitRead:  runGitRead,
		GitWrite: runGitWrite,
		Chat:     runChat,
		Env:      env,
	}
	results, err := orch.RunAll(ctx, pieces, req)
	for _, r := range results {
		if r != nil && r.State == action.StateCompleted {
			ws.logger.Info("piece completed", "piece", r.Piece, "writes", len(r.WriteFiles), "reads", len(r.ReadFiles))
		}
	}
	return err
}

// offerHistoryIgnore asks once whether the history file should be ignored
// by git. Failures only warn.
func offerHistoryIgnore(ctx context.Context, ws *workspace, historyPath string) {
	rel, err := filepath.Rel(ws.settings.RepoPath, historyPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	if _, err := history.OfferGitignore(ctx, ws.prompter, ws.settings.RepoPath, filepath.ToSlash(rel)); err != nil {
		ws.logger.Warn("updating .gitignore", "error", err)
	}
}

// selectPieces offers the available pieces as a checklist with last
// pre-checked.
func selectPieces(ctx context.Context, p prompt.Prompter, c *compose.Composer, last string) ([]string, error) {
	names, err := c.Pieces()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no pieces found in %s (run `create-piece` to add one)", filepath.Join(c.PuzzleDir, compose.PiecesDir))
	}
	choices := make([]prompt.Choice, len(names))
	for i, n := range names {
		choices[i] = prompt.Choice{Label: n, Value: n, Checked: n == last}
	}
	return p.MultiSelect(ctx, prompt.MultiQuestion{
		Message: "Select pieces to run:",
		Choices: choices,
	})
}

// assignment is one KEY=VALUE override.
type assignment struct {
	Name  string
	Value vars.Value
}

// splitArgs separates piece names from KEY=VALUE arguments.
func splitArgs(args []string) (pieces, assignments []string) {
	for _, a := range args {
		if strings.Contains(a, "=") {
			assignments = append(assignments, a)
		} else {
			pieces = append(pieces, a)
		}
	}
	return pieces, assignments
}

// parseAssignments turns KEY=VALUE strings into values. "true" and "false"
// become booleans and a bare KEY means true. Keys are uppercased and later
// entries win.
func parseAssignments(raw []string) ([]assignment, error) {
	index := make(map[string]int)
	var out []assignment
	for _, r := range raw {
		name, value, hasValue := strings.Cut(r, "=")
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			return nil, fmt.Errorf("invalid variable %q: expected KEY=VALUE", r)
		}
		v := vars.Bool(true)
		if hasValue {
			v = parseValue(value)
		}
		if i, ok := index[name]; ok {
			out[i].Value = v
			continue
		}
		index[name] = len(out)
		out = append(out, assignment{Name: name, Value: v})
	}
	return out, nil
}

func parseValue(s string) vars.Value {
	switch strings.ToLower(s) {
	case "true":
		return vars.Bool(true)
	case "false":
		return vars.Bool(false)
	}
	return vars.String(s)
}
