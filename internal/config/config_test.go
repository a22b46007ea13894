package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadDefaultsWithoutProjectFile(t *testing.T) {
	t.Setenv("PUZZLE_HOME", t.TempDir())
	work := t.TempDir()

	s, err := Load(work)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.ProjectFile != "" {
		t.Errorf("ProjectFile = %q, want empty", s.ProjectFile)
	}
	if s.PuzzleDir != ".puzzle" || s.MaxReadFiles != 10 {
		t.Errorf("defaults = %+v", s)
	}
	if s.History.Size != 20 || s.History.Defaults != 10 {
		t.Errorf("history defaults = %+v", s.History)
	}
	if s.Agent.Command != "aider" {
		t.Errorf("Agent.Command = %q, want aider", s.Agent.Command)
	}
}

func TestLoadFindsProjectFileUpwards(t *testing.T) {
	t.Setenv("PUZZLE_HOME", t.TempDir())
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "puzzle.json"), `{"puzzle_dir": "tools/puzzle", "max_read_files": 4}`)
	nested := filepath.Join(repo, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	s, err := Load(nested)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.RepoPath != repo {
		t.Errorf("RepoPath = %q, want %q", s.RepoPath, repo)
	}
	if got, want := s.PuzzlePath(), filepath.Join(repo, "tools", "puzzle"); got != want {
		t.Errorf("PuzzlePath() = %q, want %q", got, want)
	}
	if s.MaxReadFiles != 4 {
		t.Errorf("MaxReadFiles = %d, want 4", s.MaxReadFiles)
	}
}

func TestLoadProjectOverridesUserAndEnvOverridesBoth(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PUZZLE_HOME", home)
	writeFile(t, filepath.Join(home, "config.yaml"), "agent:\n  command: my-agent\nlog:\n  level: debug\n")
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "puzzle.yaml"), "log:\n  level: warn\n")
	t.Setenv("PUZZLE_AGENT_COMMAND", "env-agent")

	s, err := Load(repo)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", s.Log.Level)
	}
	if s.Agent.Command != "env-agent" {
		t.Errorf("Agent.Command = %q, want env-agent", s.Agent.Command)
	}
}

func TestSetAndGet(t *testing.T) {
	t.Setenv("PUZZLE_HOME", filepath.Join(t.TempDir(), "home"))

	if err := Set("agent.command", "claude"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := Get("agent.command"); got != "claude" {
		t.Errorf("Get() = %q, want claude", got)
	}
}

func TestWriteProjectFileIsIdempotent(t *testing.T) {
	repo := t.TempDir()
	path, created, err := WriteProjectFile(repo, ".puzzle")
	if err != nil || !created {
		t.Fatalf("WriteProjectFile() = (%q, %v, %v)", path, created, err)
	}
	again, created, err := WriteProjectFile(repo, "other")
	if err != nil || created || again != path {
		t.Errorf("second WriteProjectFile() = (%q, %v, %v), want existing %q", again, created, err, path)
	}
}

func TestSettingsValue(t *testing.T) {
	t.Setenv("PUZZLE_HOME", t.TempDir())
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "puzzle.yaml"), "puzzle_dir: tools\nagent:\n  command: my-agent\n")

	s, err := Load(repo)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	tests := map[string]string{
		"puzzle_dir":              "tools",
		"agent.command":           "my-agent",
		"AGENT.COMMAND":           "my-agent",
		"max_read_files":          "10",
		"ignore_dirs":             "node_modules,.git",
		"agent.args.auto-commits": "false",
		"repo_path":               repo,
		"unknown":                 "",
		"agent.command.too.deep":  "",
	}
	for key, want := range tests {
		if got := s.Value(key); got != want {
			t.Errorf("Value(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestSetRepoPath(t *testing.T) {
	t.Setenv("PUZZLE_HOME", t.TempDir())
	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s.SetRepoPath("/repo")
	if got := s.Value("repo_path"); got != "/repo" {
		t.Errorf("Value(repo_path) = %q, want /repo", got)
	}
	if got := s.PuzzlePath(); got != filepath.Join("/repo", ".puzzle") {
		t.Errorf("PuzzlePath() = %q", got)
	}
	if s.All()["max_read_files"] == nil {
		t.Error("All() is missing max_read_files")
	}
}
