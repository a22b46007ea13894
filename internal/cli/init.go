package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/puzzle-labs/puzzle/internal/branding"
	"github.com/puzzle-labs/puzzle/internal/compose"
	"github.com/puzzle-labs/puzzle/internal/config"
	"github.com/puzzle-labs/puzzle/internal/git"
	"github.com/puzzle-labs/puzzle/internal/manifest"
	"github.com/spf13/cobra"
)

var initPuzzleDirName string

func init() {
	initCmd.Flags().StringVar(&initPuzzleDirName, "puzzle-dir", branding.HomeDir(), "Puzzle directory, relative to the repository root")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a puzzle directory",
	Long: `Create the project config and the puzzle directory skeleton:
the shared common/ module and an empty pieces/ folder.

The repository root is the git toplevel when inside a repository,
otherwise the working directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := workingDir()
		if err != nil {
			return err
		}
		if top, err := git.TopLevel(cmd.Context(), root); err == nil {
			root = top
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Initializing %s in %s\n", branding.DisplayName(), root)

		projectFile, created, err := config.WriteProjectFile(root, initPuzzleDirName)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "  created %s\n", projectFile)
		} else {
			fmt.Fprintf(out, "  kept    %s\n", projectFile)
		}

		puzzleDir := initPuzzleDirName
		if !filepath.IsAbs(puzzleDir) {
			puzzleDir = filepath.Join(root, puzzleDir)
		}
		made, err := initPuzzleDir(puzzleDir)
		if err != nil {
			return err
		}
		for _, p := range made {
			fmt.Fprintf(out, "  created %s\n", p)
		}

		fmt.Fprintf(out, "\nUse '%s create-piece' to add a piece.\n", branding.CLIName())
		return nil
	},
}

const commonManifest = `name: common
description: Shared setup composed before every piece
# variables:
#   - name: MODULE_NAME
#     type: list
#     from: src/modules/*
#     dirs_only: true
`

// initPuzzleDir creates the puzzle directory skeleton and returns the
// paths it created. Existing files are left alone.
func initPuzzleDir(dir string) ([]string, error) {
	var made []string
	dirs := []string{
		filepath.Join(dir, compose.SharedDir, compose.TemplateDir),
		filepath.Join(dir, compose.SharedDir, compose.ExtraDir),
		filepath.Join(dir, compose.PiecesDir),
	}
	for _, d := range dirs {
		if _, err := os.Stat(d); err == nil {
			continue
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return made, fmt.Errorf("creating %s: %w", d, err)
		}
		made = append(made, d)
	}

	manifestPath := filepath.Join(dir, compose.SharedDir, manifest.FileName)
	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		if err := os.WriteFile(manifestPath, []byte(commonManifest), 0o644); err != nil {
			return made, fmt.Errorf("writing %s: %w", manifestPath, err)
		}
		made = append(made, manifestPath)
	}
	return made, nil
}
