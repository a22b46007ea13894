package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/puzzle-labs/puzzle/internal/vars"
)

func TestParseNames(t *testing.T) {
	root := filepath.FromSlash("/repo")
	output := "src/a.ts\n\nsrc/b.ts\n.puzzle/pieces/x/piece.yaml\nsrc/a.ts\n  \nsrc/gone.ts\n"
	keep := func(p string) bool { return filepath.Base(p) != "gone.ts" }

	got := ParseNames(root, output, filepath.Join(root, ".puzzle"), keep)
	want := []string{
		filepath.Join(root, "src", "a.ts"),
		filepath.Join(root, "src", "b.ts"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNamesKeepsSiblingWithSharedPrefix(t *testing.T) {
	root := filepath.FromSlash("/repo")
	got := ParseNames(root, ".puzzle-notes.md\n", filepath.Join(root, ".puzzle"), nil)
	want := []string{filepath.Join(root, ".puzzle-notes.md")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestRequested(t *testing.T) {
	tbl := vars.NewTable()
	if ReadRequested(tbl) || WriteRequested(tbl) {
		t.Fatal("empty table requests git files")
	}
	tbl.Set("GR", vars.Bool(true))
	tbl.Set("GIT-WRITE", vars.Bool(false))
	if !ReadRequested(tbl) {
		t.Error("ReadRequested() = false with GR set")
	}
	if WriteRequested(tbl) {
		t.Error("WriteRequested() = true with GIT-WRITE=false")
	}
}

func TestModifiedFiles(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	gitCmd := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	write := func(name, content string) {
		t.Helper()
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	gitCmd("init", "-q")
	write("a.txt", "a")
	write("b.txt", "b")
	write("c.txt", "c")
	write(".puzzle/pieces/p/piece.yaml", "name: p\n")
	gitCmd("add", ".")
	gitCmd("commit", "-q", "-m", "init")

	write("a.txt", "a2")
	write("b.txt", "b2")
	gitCmd("add", "b.txt")
	write(".puzzle/pieces/p/piece.yaml", "name: q\n")
	if err := os.Remove(filepath.Join(dir, "c.txt")); err != nil {
		t.Fatal(err)
	}

	got, err := ModifiedFiles(context.Background(), dir, filepath.Join(dir, ".puzzle"))
	if err != nil {
		t.Fatalf("ModifiedFiles() error: %v", err)
	}
	root, _ := TopLevel(context.Background(), dir)
	want := []string{filepath.Join(root, "a.txt"), filepath.Join(root, "b.txt")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ModifiedFiles() mismatch (-want +got):\n%s", diff)
	}
}
