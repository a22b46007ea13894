package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/puzzle-labs/puzzle/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Settings is the merged configuration for one invocation.
type Settings struct {
	// RepoPath is the directory holding the project file, or the working
	// directory when there is none.
	RepoPath string `mapstructure:"-"`
	// ProjectFile is the project config path, empty when none was found.
	ProjectFile string `mapstructure:"-"`

	PuzzleDir    string          `mapstructure:"puzzle_dir"`
	MaxReadFiles int             `mapstructure:"max_read_files"`
	IgnoreDirs   []string        `mapstructure:"ignore_dirs"`
	History      HistorySettings `mapstructure:"history"`
	Agent        AgentSettings   `mapstructure:"agent"`
	Log          LogSettings     `mapstructure:"log"`

	values map[string]any
}

// HistorySettings bounds the stored answer history.
type HistorySettings struct {
	Size     int `mapstructure:"size"`
	Defaults int `mapstructure:"defaults"`
}

// AgentSettings describes the external coding agent.
type AgentSettings struct {
	Command    string         `mapstructure:"command"`
	Args       map[string]any `mapstructure:"args"`
	MinVersion string         `mapstructure:"min_version"`
}

// LogSettings selects the log level, format and optional file sink.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// PuzzlePath returns the absolute puzzle directory.
func (s *Settings) PuzzlePath() string {
	if filepath.IsAbs(s.PuzzleDir) {
		return s.PuzzleDir
	}
	return filepath.Join(s.RepoPath, s.PuzzleDir)
}

// Value returns a setting by dotted key in display form, or "" when the
// key is unknown. Hooks read configuration through it.
func (s *Settings) Value(key string) string {
	var cur any = s.values
	for _, part := range strings.Split(strings.ToLower(key), ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		if cur, ok = m[part]; !ok {
			return ""
		}
	}
	switch v := cur.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(v, ",")
	}
	return fmt.Sprint(cur)
}

// SetRepoPath moves the repository root, e.g. to the git toplevel when no
// project file was found.
func (s *Settings) SetRepoPath(dir string) {
	s.RepoPath = dir
	if s.values != nil {
		s.values["repo_path"] = dir
	}
}

// All returns the merged settings as nested maps keyed by lowercase name.
func (s *Settings) All() map[string]any { return s.values }

// Dir returns the user config directory, ~/.puzzle unless PUZZLE_HOME is set.
func Dir() string {
	if d := os.Getenv(branding.EnvVar("HOME")); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the user config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// ProjectFileNames lists the accepted project config names in lookup order.
func ProjectFileNames() []string {
	base := branding.ProjectFile()
	return []string{base + ".yaml", base + ".yml", base + ".json"}
}

// FindProjectFile walks up from start looking for a project config file.
func FindProjectFile(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		for _, name := range ProjectFileNames() {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("puzzle_dir", branding.HomeDir())
	v.SetDefault("max_read_files", 10)
	v.SetDefault("ignore_dirs", []string{"node_modules", ".git"})
	v.SetDefault("history.size", 20)
	v.SetDefault("history.defaults", 10)
	v.SetDefault("agent.command", "aider")
	v.SetDefault("agent.args", map[string]any{
		"suggest-shell-commands": false,
		"detect-urls":            false,
		"auto-commits":           false,
		"auto-lint":              false,
	})
	v.SetDefault("agent.min_version", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load merges the user config, the project config found above workDir and
// the environment into Settings.
func Load(workDir string) (*Settings, error) {
	v := newViper()

	if _, err := os.Stat(FilePath()); err == nil {
		v.SetConfigFile(FilePath())
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", FilePath(), err)
		}
	}

	s := &Settings{}
	if project, ok := FindProjectFile(workDir); ok {
		v.SetConfigFile(project)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", project, err)
		}
		s.ProjectFile = project
		s.RepoPath = filepath.Dir(project)
	} else {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", workDir, err)
		}
		s.RepoPath = abs
	}

	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	s.values = v.AllSettings()
	s.values["repo_path"] = s.RepoPath
	if s.MaxReadFiles <= 0 {
		return nil, errors.New("max_read_files must be positive")
	}
	return s, nil
}

func userViper() *viper.Viper {
	v := newViper()
	v.SetConfigFile(FilePath())
	v.SetConfigType(fileType)
	// A missing file reads as empty.
	_ = v.ReadInConfig()
	return v
}

// Get returns a user config value by key. Returns empty string if not set.
func Get(key string) string {
	return userViper().GetString(key)
}

// Set writes a key-value pair to the user config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	v := userViper()
	v.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// WriteProjectFile creates a project config in dir pointing at puzzleDir.
// An existing file is left untouched and its path returned.
func WriteProjectFile(dir, puzzleDir string) (string, bool, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false, fmt.Errorf("resolving %s: %w", dir, err)
	}
	if existing, ok := FindProjectFile(dir); ok && filepath.Dir(existing) == dir {
		return existing, false, nil
	}
	v := viper.New()
	v.Set("puzzle_dir", puzzleDir)
	path := filepath.Join(dir, ProjectFileNames()[0])
	if err := v.WriteConfigAs(path); err != nil {
		return "", false, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, true, nil
}
