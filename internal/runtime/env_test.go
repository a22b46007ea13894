package runtime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), EnvFileName)
	content := "# agent settings\nOPENAI_API_KEY=sk-123456\n\nexport AIDER_MODEL = \"gpt-4o\"\nNAME='x y'\nbroken line\n=novalue\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadEnvFile(path)
	if err != nil {
		t.Fatalf("ReadEnvFile() error = %v", err)
	}
	want := map[string]string{
		"OPENAI_API_KEY": "sk-123456",
		"AIDER_MODEL":    "gpt-4o",
		"NAME":           "x y",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadEnvFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvLaterFileWins(t *testing.T) {
	dir := t.TempDir()
	user := filepath.Join(dir, "user.env")
	project := filepath.Join(dir, "project.env")
	if err := os.WriteFile(user, []byte("A=user\nB=user\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(project, []byte("B=project\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadEnv(user, filepath.Join(dir, "missing.env"), project)
	if err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if diff := cmp.Diff(map[string]string{"A": "user", "B": "project"}, got); diff != "" {
		t.Errorf("LoadEnv() mismatch (-want +got):\n%s", diff)
	}

	none, err := LoadEnv(filepath.Join(dir, "missing.env"))
	if err != nil || none != nil {
		t.Errorf("LoadEnv(missing) = %v, %v, want nil, nil", none, err)
	}
}

func TestRedactValue(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"OPENAI_API_KEY", "sk-123456", "sk-1***"},
		{"GITHUB_TOKEN", "abc", "***"},
		{"AIDER_MODEL", "gpt-4o", "gpt-4o"},
	}
	for _, tt := range tests {
		if got := RedactValue(tt.key, tt.value); got != tt.want {
			t.Errorf("RedactValue(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}
