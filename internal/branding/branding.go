// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into
// the binary with //go:embed. Forks rename the tool by editing that file.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	ProjectFile string `yaml:"project_file"`
	HistoryFile string `yaml:"history_file"`
}

func load() {
	once.Do(func() {
		defaults = brand{
			CLIName:     "puzzle",
			DisplayName: "Puzzle",
			Description: "Assemble file sets and instructions for AI coding agents",
			HomeDir:     ".puzzle",
			EnvPrefix:   "PUZZLE",
			ProjectFile: "puzzle",
			HistoryFile: ".puzzle.history.json",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "puzzle").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".puzzle").
// The same name is the default puzzle directory inside a repository.
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "PUZZLE").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ProjectFile returns the project config base name without extension.
func ProjectFile() string { load(); return defaults.ProjectFile }

// HistoryFile returns the history file name stored in the puzzle directory.
func HistoryFile() string { load(); return defaults.HistoryFile }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "PUZZLE_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
