package compose

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/puzzle-labs/puzzle/internal/hook"
	"github.com/puzzle-labs/puzzle/internal/vars"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// stubContext is a minimal hook.Context backed by a variable table.
type stubContext struct {
	table  *vars.Table
	reads  []string
	writes []string
}

func newStubContext() *stubContext { return &stubContext{table: vars.NewTable()} }

func (s *stubContext) Var(name string) string {
	v, _ := s.table.Get(name)
	return v.String()
}
func (s *stubContext) Flag(name string) bool {
	v, _ := s.table.Get(name)
	return v.Truthy()
}
func (s *stubContext) IsSet(name string) bool { return s.table.IsSet(name) }
func (s *stubContext) SetVar(name, value string) { s.table.Set(name, vars.String(value)) }
func (s *stubContext) Vars() map[string]string { return s.table.Strings() }
func (s *stubContext) Values() map[string]any { return s.table.Snapshot() }
func (s *stubContext) Default(string) string { return "" }
func (s *stubContext) ReadFiles() []string { return append([]string(nil), s.reads...) }
func (s *stubContext) WriteFiles() []string { return append([]string(nil), s.writes...) }
func (s *stubContext) AddReadFile(p string) { s.reads = append(s.reads, p) }
func (s *stubContext) AddWriteFile(p string) { s.writes = append(s.writes, p) }
func (s *stubContext) Setting(string) string { return "" }
func (s *stubContext) PieceName() string { return s.Var("PIECE_NAME") }
func (s *stubContext) ModuleDir() string { return "" }
func (s *stubContext) WorkingDir() string { return "" }
func (s *stubContext) RepoPath() string { return "" }

var _ hook.Context = (*stubContext)(nil)

func TestComposeSharedThenAction(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "common/piece.yaml", "prepare:\n  read: [docs/STYLE.md]\n")
	writeFile(t, root, "pieces/add/piece.yaml", "description: Add things\n")
	writeFile(t, root, "pieces/add/template/{NAME}/a.ts", "")
	writeFile(t, root, "pieces/add/extra/examples/b.ts", "")

	c := &Composer{PuzzleDir: root}
	modules, err := c.Compose("add")
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(modules) != 2 || !modules[0].Shared || modules[1].Name != "add" {
		t.Fatalf("modules = %+v", modules)
	}
	if got := modules[1].Description(); got != "Add things" {
		t.Errorf("Description() = %q", got)
	}

	templates, err := modules[1].TemplateFiles()
	if err != nil {
		t.Fatalf("TemplateFiles() error = %v", err)
	}
	want := []string{filepath.Join(root, "pieces", "add", "template", "{NAME}", "a.ts")}
	if diff := cmp.Diff(want, templates); diff != "" {
		t.Errorf("TemplateFiles() mismatch (-want +got):\n%s", diff)
	}
	extras, err := modules[1].ExtraFiles()
	if err != nil || len(extras) != 1 {
		t.Errorf("ExtraFiles() = %v, %v", extras, err)
	}
}

func TestComposeWithoutSharedModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pieces/add/piece.yaml", "")

	modules, err := (&Composer{PuzzleDir: root}).Compose("add")
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(modules) != 1 {
		t.Errorf("got %d modules, want 1", len(modules))
	}
}

func TestComposeSharedWithoutLifecycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "common/extra/style.md", "# style\n")
	writeFile(t, root, "pieces/add/piece.yaml", "")

	modules, err := (&Composer{PuzzleDir: root}).Compose("add")
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(modules) != 2 || !modules[0].Shared || modules[0].Manifest != nil || modules[0].Script != "" {
		t.Fatalf("modules = %+v", modules)
	}
	extras, err := modules[0].ExtraFiles()
	if err != nil {
		t.Fatalf("ExtraFiles() error = %v", err)
	}
	want := []string{filepath.Join(root, "common", "extra", "style.md")}
	if diff := cmp.Diff(want, extras); diff != "" {
		t.Errorf("ExtraFiles() mismatch (-want +got):\n%s", diff)
	}
	if err := modules[0].Prepare(context.Background(), &stubContext{}); err != nil {
		t.Errorf("Prepare() error = %v", err)
	}
}

func TestComposeMissingAction(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pieces/empty/template/x.ts", "")

	c := &Composer{PuzzleDir: root}
	for _, action := range []string{"missing", "empty"} {
		if _, err := c.Compose(action); !errors.Is(err, ErrModuleNotFound) {
			t.Errorf("Compose(%q) error = %v, want ErrModuleNotFound", action, err)
		}
	}
}

func TestPieces(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pieces/zeta/piece.go", "package main\n")
	writeFile(t, root, "pieces/alpha/piece.yaml", "")
	writeFile(t, root, "pieces/no-lifecycle/template/a", "")

	got, err := (&Composer{PuzzleDir: root}).Pieces()
	if err != nil {
		t.Fatalf("Pieces() error = %v", err)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, got); diff != "" {
		t.Errorf("Pieces() mismatch (-want +got):\n%s", diff)
	}
}

func TestManifestHooks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pieces/add/piece.yaml", `
variables:
  - name: KIND
    type: list
    options: [a, b]
setup:
  read:
    - always.md
    - path: tests.md
      when: WITH_TESTS == true
  write:
    - out/{NAME}.ts
prompt: "Build {{.NAME}} as {{.PIECE_NAME}}"
`)
	m, err := Load(filepath.Join(root, "pieces", "add"), "add", false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	c := newStubContext()
	c.table.Set("NAME", vars.String("Invoice"))
	c.table.Set("PIECE_NAME", vars.String("add"))
	ctx := context.Background()
	if err := m.Prepare(ctx, c); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if err := m.Setup(ctx, c); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if diff := cmp.Diff([]string{"always.md"}, c.reads); diff != "" {
		t.Errorf("reads mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"out/{NAME}.ts"}, c.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}

	prompts, err := m.Prompt(ctx, c)
	if err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
	if diff := cmp.Diff([]any{"Build Invoice as add"}, prompts); diff != "" {
		t.Errorf("Prompt() mismatch (-want +got):\n%s", diff)
	}

	specs, err := m.VariableSpecs()
	if err != nil {
		t.Fatalf("VariableSpecs() error = %v", err)
	}
	if specs["KIND"].Kind != vars.KindList {
		t.Errorf("KIND kind = %q, want list", specs["KIND"].Kind)
	}
}

func TestScriptHooks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pieces/add/piece.go", `package main

import (
	"strings"

	"puzzle/hook"
)

func Setup(c hook.Context) error {
	if c.Flag("WITH_TESTS") {
		c.AddWriteFile("src/{NAME}.spec.ts")
	}
	return nil
}

func Prompt(c hook.Context) (any, error) {
	return hook.Prompt{Prompt: "Create " + strings.ToUpper(c.Var("NAME"))}, nil
}
`)
	m, err := Load(filepath.Join(root, "pieces", "add"), "add", false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	c := newStubContext()
	c.table.Set("NAME", vars.String("invoice"))
	c.table.Set("WITH_TESTS", vars.Bool(true))
	ctx := context.Background()

	if err := m.Prepare(ctx, c); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if err := m.Setup(ctx, c); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if diff := cmp.Diff([]string{"src/{NAME}.spec.ts"}, c.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
	prompts, err := m.Prompt(ctx, c)
	if err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
	if len(prompts) != 1 {
		t.Fatalf("Prompt() returned %d results", len(prompts))
	}
	p, ok := prompts[0].(hook.Prompt)
	if !ok || p.Prompt != "Create INVOICE" {
		t.Errorf("Prompt() = %#v", prompts[0])
	}
}

func TestScriptHookErrorPropagates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pieces/add/piece.go", `package main

import (
	"errors"

	"puzzle/hook"
)

func Prepare(c hook.Context) error {
	return errors.New("boom")
}
`)
	m, err := Load(filepath.Join(root, "pieces", "add"), "add", false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := m.Prepare(context.Background(), newStubContext()); err == nil || err.Error() != "add prepare hook: boom" {
		t.Errorf("Prepare() error = %v, want wrapped boom", err)
	}
}

func TestScriptMustBePackageMain(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "piece.go", "package other\n")
	if _, err := Load(root, "x", false); err == nil {
		t.Fatal("expected error for non-main package")
	}
}
