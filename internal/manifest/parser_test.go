package manifest

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func TestParse_ValidPiece(t *testing.T) {
	m, err := Parse(testPath("valid-piece.yaml"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Name != "add-endpoint" {
		t.Errorf("Name = %q", m.Name)
	}
	if len(m.Variables) != 2 || m.Variables[0].Type != "list" || !m.Variables[0].DirsOnly {
		t.Errorf("Variables = %+v", m.Variables)
	}
	wantPrepare := []FileEntry{{Path: "docs/CONVENTIONS.md"}}
	if diff := cmp.Diff(wantPrepare, m.Prepare.Read); diff != "" {
		t.Errorf("Prepare.Read mismatch (-want +got):\n%s", diff)
	}
	wantWrite := []FileEntry{{Path: "src/modules/{MODULE}/{ENTITY}.spec.ts", When: "WITH_TESTS == true"}}
	if diff := cmp.Diff(wantWrite, m.Setup.Write); diff != "" {
		t.Errorf("Setup.Write mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_FileNotFound(t *testing.T) {
	if _, err := Parse(testPath("nonexistent.yaml")); err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestParseBytes_BadFileEntry(t *testing.T) {
	_, err := ParseBytes([]byte("setup:\n  read:\n    - [a, b]\n"), "inline")
	if err == nil {
		t.Fatal("expected error for sequence file entry")
	}
}

func TestEvalCondition(t *testing.T) {
	env := map[string]any{"WITH_TESTS": true, "MODULE": "billing"}
	tests := []struct {
		cond string
		want bool
	}{
		{"", true},
		{"WITH_TESTS == true", true},
		{`MODULE == "users"`, false},
		{`MODULE startsWith "bill"`, true},
		{"UNSET == nil", true},
	}
	for _, tt := range tests {
		got, err := EvalCondition(tt.cond, env)
		if err != nil {
			t.Fatalf("EvalCondition(%q) error = %v", tt.cond, err)
		}
		if got != tt.want {
			t.Errorf("EvalCondition(%q) = %v, want %v", tt.cond, got, tt.want)
		}
	}
	if _, err := EvalCondition(`MODULE + 1`, env); err == nil {
		t.Error("expected error for non-boolean condition")
	}
}

func TestSelectFiles(t *testing.T) {
	entries := []FileEntry{
		{Path: "always.ts"},
		{Path: "tests.ts", When: "WITH_TESTS"},
		{Path: "never.ts", When: "false"},
	}
	got, err := SelectFiles(entries, map[string]any{"WITH_TESTS": true})
	if err != nil {
		t.Fatalf("SelectFiles() error = %v", err)
	}
	if diff := cmp.Diff([]string{"always.ts", "tests.ts"}, got); diff != "" {
		t.Errorf("SelectFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderPrompt(t *testing.T) {
	m, err := Parse(testPath("valid-piece.yaml"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got, err := RenderPrompt(m, map[string]string{"ENTITY": "Invoice"})
	if err != nil {
		t.Fatalf("RenderPrompt() error = %v", err)
	}
	want := "Create the Invoice endpoint in the  module."
	if got != want {
		t.Errorf("RenderPrompt() = %q, want %q", got, want)
	}
}
