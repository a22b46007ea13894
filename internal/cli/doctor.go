package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/puzzle-labs/puzzle/internal/compose"
	"github.com/puzzle-labs/puzzle/internal/config"
	"github.com/puzzle-labs/puzzle/internal/manifest"
	"github.com/puzzle-labs/puzzle/internal/runtime"
	"github.com/spf13/cobra"
)

var (
	checkAgent    bool
	checkPieces   bool
	checkManifest string
)

func init() {
	doctorCmd.Flags().BoolVar(&checkAgent, "check-agent", false, "Verify the agent binary and its version")
	doctorCmd.Flags().BoolVar(&checkPieces, "check-pieces", false, "Validate every piece manifest and script")
	doctorCmd.Flags().StringVar(&checkManifest, "check-manifest", "", "Validate a manifest file at the given path")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the puzzle setup",
	Long:  `Check the agent installation, the project layout and every piece.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if checkManifest != "" {
			if n := runManifestCheck(out, checkManifest); n > 0 {
				return fmt.Errorf("manifest %s has %d validation issue(s)", checkManifest, n)
			}
			return nil
		}

		ws, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		defer ws.Close()

		all := !checkAgent && !checkPieces
		failures := 0
		if all || checkAgent {
			failures += runAgentCheck(cmd.Context(), out, ws.settings)
		}
		if all {
			failures += runProjectCheck(out, ws.settings)
		}
		if all || checkPieces {
			failures += runPiecesCheck(out, ws.composer)
		}
		if failures > 0 {
			return fmt.Errorf("%d check(s) failed", failures)
		}
		return nil
	},
}

func runAgentCheck(ctx context.Context, w io.Writer, s *config.Settings) int {
	fmt.Fprintln(w, "Agent check:")
	command := s.Agent.Command
	if command == runtime.RuntimePrint {
		fmt.Fprintf(w, "  [INFO] agent.command is %q, nothing is spawned\n", command)
		return 0
	}
	path, err := exec.LookPath(command)
	if err != nil {
		fmt.Fprintf(w, "  [MISS] %s not found\n", command)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] %s found at %s\n", command, path)

	v, err := runtime.AgentVersion(ctx, path)
	if err != nil {
		fmt.Fprintf(w, "  [WARN] cannot determine %s version: %v\n", command, err)
		return 0
	}
	ok, err := runtime.CheckVersion(v, s.Agent.MinVersion)
	switch {
	case err != nil:
		fmt.Fprintf(w, "  [FAIL] agent.min_version: %v\n", err)
		return 1
	case !ok:
		fmt.Fprintf(w, "  [FAIL] %s %s does not satisfy %s\n", command, v, s.Agent.MinVersion)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] %s version %s\n", command, v)

	if _, err := exec.LookPath("git"); err != nil {
		fmt.Fprintln(w, "  [WARN] git not found, --git-read and --git-write will fail")
	}
	return 0
}

func runProjectCheck(w io.Writer, s *config.Settings) int {
	fmt.Fprintln(w, "Project check:")
	if s.ProjectFile == "" {
		fmt.Fprintf(w, "  [WARN] no project file found, using %s as repository root\n", s.RepoPath)
	} else {
		fmt.Fprintf(w, "  [ OK ] project file %s\n", s.ProjectFile)
	}
	info, err := os.Stat(s.PuzzlePath())
	if err != nil || !info.IsDir() {
		fmt.Fprintf(w, "  [FAIL] puzzle directory %s missing (run `init`)\n", s.PuzzlePath())
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] puzzle directory %s\n", s.PuzzlePath())
	return 0
}

// runPiecesCheck validates the shared module and every piece. It returns
// the number of failing modules.
func runPiecesCheck(w io.Writer, c *compose.Composer) int {
	fmt.Fprintln(w, "Pieces check:")
	failures := 0

	sharedDir := filepath.Join(c.PuzzleDir, compose.SharedDir)
	if _, err := os.Stat(sharedDir); err == nil {
		failures += checkModule(w, sharedDir, compose.SharedDir, true)
	}

	names, err := c.Pieces()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return failures + 1
	}
	if len(names) == 0 {
		fmt.Fprintln(w, "  [INFO] no pieces")
	}
	for _, name := range names {
		failures += checkModule(w, c.PieceDir(name), name, false)
	}
	return failures
}

func checkModule(w io.Writer, dir, name string, shared bool) int {
	manifestPath := filepath.Join(dir, manifest.FileName)
	if _, err := os.Stat(manifestPath); err == nil {
		result, err := manifest.ValidateFile(manifestPath)
		if err != nil {
			fmt.Fprintf(w, "  [FAIL] %s: %v\n", name, err)
			return 1
		}
		if !result.Valid {
			fmt.Fprintf(w, "  [FAIL] %s: %d validation issue(s)\n", name, len(result.Issues))
			printIssues(w, result.Issues)
			return 1
		}
	}
	if _, err := compose.Load(dir, name, shared); err != nil {
		if shared && errors.Is(err, compose.ErrModuleNotFound) {
			fmt.Fprintf(w, "  [INFO] %s has no lifecycle file\n", name)
			return 0
		}
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", name, err)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] %s\n", name)
	return 0
}

// runManifestCheck validates one manifest file and returns the number of
// issues found.
func runManifestCheck(w io.Writer, path string) int {
	fmt.Fprintf(w, "Manifest validation: %s\n", path)
	result, err := manifest.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return 1
	}
	if result.Valid {
		fmt.Fprintln(w, "  [ OK ] Valid piece manifest")
		return 0
	}
	fmt.Fprintf(w, "  [FAIL] %d validation issue(s):\n", len(result.Issues))
	printIssues(w, result.Issues)
	return len(result.Issues)
}

func printIssues(w io.Writer, issues []manifest.ValidationIssue) {
	for _, issue := range issues {
		if issue.Path != "" {
			fmt.Fprintf(w, "    - %s: %s\n", issue.Path, issue.Message)
		} else {
			fmt.Fprintf(w, "    - %s\n", issue.Message)
		}
	}
}
