package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/puzzle-labs/puzzle/internal/compose"
	"github.com/puzzle-labs/puzzle/internal/config"
	"github.com/puzzle-labs/puzzle/internal/expand"
	"github.com/puzzle-labs/puzzle/internal/git"
	"github.com/puzzle-labs/puzzle/internal/logging"
	"github.com/puzzle-labs/puzzle/internal/prompt"
	"github.com/puzzle-labs/puzzle/internal/runtime"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// workspace bundles what a command needs to act on one repository.
type workspace struct {
	settings *config.Settings
	workDir  string
	logger   *slog.Logger
	prompter prompt.Prompter
	expander *expand.Expander
	composer *compose.Composer

	closers []io.Closer
}

// openWorkspace loads settings for the working directory, sets up logging
// and the prompter. Callers must Close the workspace.
func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	workDir, err := workingDir()
	if err != nil {
		return nil, err
	}
	settings, err := config.Load(workDir)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if settings.ProjectFile == "" {
		if top, err := git.TopLevel(cmd.Context(), workDir); err == nil {
			settings.SetRepoPath(top)
		}
	}

	logger, logCloser := logging.New(logOptions(settings, cmd.ErrOrStderr()))
	slog.SetDefault(logger)
	logger.Debug("workspace", "repo", settings.RepoPath, "puzzle_dir", settings.PuzzlePath(), "project_file", settings.ProjectFile)

	ws := &workspace{
		settings: settings,
		workDir:  workDir,
		logger:   logger,
		prompter: prompt.New(os.Stdin, os.Stdout, flagPlain),
		expander: expand.New(settings.RepoPath, settings.IgnoreDirs, logger),
		composer: &compose.Composer{PuzzleDir: settings.PuzzlePath(), Logger: logger},
		closers:  []io.Closer{logCloser},
	}
	if c, ok := ws.prompter.(io.Closer); ok {
		ws.closers = append(ws.closers, c)
	}
	return ws, nil
}

// Close releases the prompter and the log file.
func (w *workspace) Close() error {
	var first error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// agentRuntime returns the agent boundary. dryRun previews instead of running.
func (w *workspace) agentRuntime(dryRun bool, out io.Writer) runtime.Runtime {
	opts := runtime.Options{
		Command: w.settings.Agent.Command,
		Args:    w.settings.Agent.Args,
		Stdin:   os.Stdin,
		Stdout:  out,
		Stderr:  os.Stderr,
	}
	if !dryRun {
		return runtime.DispatchRuntime(w.settings.Agent.Command, opts)
	}
	rt := runtime.DispatchRuntime(runtime.RuntimePrint, opts)
	if p, ok := rt.(*runtime.PrintRuntime); ok {
		p.Markdown = isTerminal(out)
	}
	return rt
}

// agentEnv loads the agent environment from the user and puzzle
// directories, the puzzle directory winning.
func (w *workspace) agentEnv() (map[string]string, error) {
	env, err := runtime.LoadEnv(
		filepath.Join(config.Dir(), runtime.EnvFileName),
		filepath.Join(w.settings.PuzzlePath(), runtime.EnvFileName),
	)
	if err != nil {
		return nil, err
	}
	for k, v := range env {
		w.logger.Debug("agent env", "key", k, "value", runtime.RedactValue(k, v))
	}
	return env, nil
}

func workingDir() (string, error) {
	dir := flagCwd
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", fmt.Errorf("working directory %s is not a directory", abs)
	}
	return abs, nil
}

// logOptions lets the log flags override the configured log settings.
func logOptions(s *config.Settings, stderr io.Writer) logging.Options {
	opts := logging.Options{
		Level:  s.Log.Level,
		Format: s.Log.Format,
		File:   s.Log.File,
		Stderr: stderr,
	}
	if flagLogLevel != "" {
		opts.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		opts.Format = flagLogFormat
	}
	if flagLogFile != "" {
		opts.File = flagLogFile
	}
	return opts
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
