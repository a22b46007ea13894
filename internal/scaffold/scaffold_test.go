package scaffold

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/puzzle-labs/puzzle/internal/compose"
	"github.com/puzzle-labs/puzzle/internal/expand"
	"github.com/puzzle-labs/puzzle/internal/logging"
	"github.com/puzzle-labs/puzzle/internal/manifest"
	"github.com/puzzle-labs/puzzle/internal/prompt/prompttest"
	"github.com/puzzle-labs/puzzle/internal/runtime"
)

func TestValidateName(t *testing.T) {
	for _, name := range []string{"PostApiEndpoint", "integration-test", "doc_2"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", "has space", "dots.not.ok", "slash/no"} {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestGenerateManifest(t *testing.T) {
	pieceDir := filepath.Join(t.TempDir(), "pieces", "PostApiEndpoint")

	result, err := Generate(KindManifest, NewScaffoldData("PostApiEndpoint"), pieceDir)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if diff := cmp.Diff([]string{"piece.yaml"}, result.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
	for _, dir := range []string{"template", filepath.Join("extra", "examples")} {
		if !expand.IsDir(filepath.Join(pieceDir, dir)) {
			t.Errorf("missing directory %s", dir)
		}
	}

	m, err := manifest.Parse(filepath.Join(pieceDir, "piece.yaml"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if m.Name != "PostApiEndpoint" || m.Description != "Scaffolding piece PostApiEndpoint" {
		t.Errorf("manifest = %+v", m)
	}
	if got, _ := manifest.RenderPrompt(m, nil); got != "Create files for the PostApiEndpoint piece." {
		t.Errorf("prompt = %q", got)
	}
}

func TestGenerateScriptLoads(t *testing.T) {
	pieceDir := filepath.Join(t.TempDir(), "pieces", "Docs")

	result, err := Generate(KindScript, NewScaffoldData("Docs"), pieceDir)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if diff := cmp.Diff([]string{"piece.go"}, result.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	content, err := os.ReadFile(filepath.Join(pieceDir, "piece.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), `"Create files for the Docs piece."`) {
		t.Errorf("piece.go missing prompt:\n%s", content)
	}
	if _, err := compose.Load(pieceDir, "Docs", false); err != nil {
		t.Errorf("generated script does not load: %v", err)
	}
}

func TestGenerateRefusesNonEmptyDir(t *testing.T) {
	pieceDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(pieceDir, "keep.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Generate(KindManifest, NewScaffoldData("x"), pieceDir); err == nil {
		t.Error("Generate() into a non-empty directory should fail")
	}
}

func TestTemplatePath(t *testing.T) {
	tests := map[string]string{
		"src/controllers/UserController.js": "src/controllers/{ENTITY_NAME}.js",
		"src/models/userModel.ts":           "src/models/{entity_name}.ts",
		"User.test.ts":                      "{ENTITY_NAME}.test.ts",
		"src/utils.js":                      "src/utils.js",
		"Makefile":                          "Makefile",
	}
	for in, want := range tests {
		if got := TemplatePath(filepath.FromSlash(in)); got != filepath.FromSlash(want) {
			t.Errorf("TemplatePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseReferences(t *testing.T) {
	got := ParseReferences("# comment\nsrc/a.ts, src/b.ts\n\n  docs/  \n")
	want := []string{"src/a.ts", "src/b.ts", "docs/"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseReferences() mismatch (-want +got):\n%s", diff)
	}
}

type recordingRuntime struct {
	jobs []*runtime.Job
}

func (r *recordingRuntime) Run(_ context.Context, job *runtime.Job) (*runtime.Output, error) {
	r.jobs = append(r.jobs, job)
	return &runtime.Output{}, nil
}

func newWizard(t *testing.T, fake *prompttest.Fake) (*Wizard, *recordingRuntime) {
	t.Helper()
	repo := t.TempDir()
	agent := &recordingRuntime{}
	return &Wizard{
		PuzzleDir: filepath.Join(repo, ".puzzle"),
		RepoPath:  repo,
		Prompter:  fake,
		Expander:  expand.New(repo, nil, logging.Discard()),
		Runtime:   agent,
		Logger:    logging.Discard(),
	}, agent
}

func touch(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestWizardCreateWithReferences(t *testing.T) {
	fake := &prompttest.Fake{Answers: map[string]string{
		"PIECE_NAME": "AddModel",
		"REFERENCES": "src/models/, docs/*.md",
	}}
	w, agent := newWizard(t, fake)
	touch(t, w.RepoPath, "src/models/User.ts", "src/models/order.ts", "docs/GUIDE.md")

	out, err := w.Create(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if out.Name != "AddModel" || out.Cancelled {
		t.Fatalf("outcome = %+v", out)
	}
	wantRefs := []string{
		filepath.Join(w.RepoPath, "src", "models", "User.ts"),
		filepath.Join(w.RepoPath, "src", "models", "order.ts"),
		filepath.Join(w.RepoPath, "docs", "GUIDE.md"),
	}
	if diff := cmp.Diff(wantRefs, out.References); diff != "" {
		t.Errorf("references mismatch (-want +got):\n%s", diff)
	}
	if len(agent.jobs) != 1 {
		t.Fatalf("dispatched %d jobs, want 1", len(agent.jobs))
	}
	pieceDir := filepath.Join(w.PuzzleDir, "pieces", "AddModel")
	wantWrites := []string{
		filepath.Join(pieceDir, "piece.yaml"),
		filepath.Join(pieceDir, "template", "src", "models", "{ENTITY_NAME}.ts"),
		filepath.Join(pieceDir, "template", "src", "models", "order.ts"),
		filepath.Join(pieceDir, "template", "docs", "{ENTITY_NAME}.md"),
	}
	if diff := cmp.Diff(wantWrites, agent.jobs[0].WriteFiles); diff != "" {
		t.Errorf("write files mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(agent.jobs[0].Instruction, `named "AddModel"`) {
		t.Errorf("instruction = %q", agent.jobs[0].Instruction)
	}
}

func TestWizardSkipsAgentWithoutReferences(t *testing.T) {
	w, agent := newWizard(t, &prompttest.Fake{})
	out, err := w.Create(context.Background(), Options{Name: "Plain", Kind: KindScript, References: []string{}})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if len(agent.jobs) != 0 {
		t.Error("agent dispatched without references")
	}
	if out.Result == nil || out.Result.Files[0] != "piece.go" {
		t.Errorf("result = %+v", out.Result)
	}
}

func TestWizardOverwrite(t *testing.T) {
	question := "A piece named 'Existing' already exists. Do you want to overwrite it?"
	for _, accept := range []bool{false, true} {
		fake := &prompttest.Fake{Confirms: map[string]bool{question: accept}}
		w, _ := newWizard(t, fake)
		old := filepath.Join(w.PuzzleDir, "pieces", "Existing", "old.txt")
		touch(t, filepath.Dir(old), "old.txt")

		out, err := w.Create(context.Background(), Options{Name: "Existing", References: []string{}})
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		_, statErr := os.Stat(old)
		if accept {
			if out.Cancelled || statErr == nil {
				t.Errorf("accepted overwrite kept old files (cancelled=%v)", out.Cancelled)
			}
			continue
		}
		if !out.Cancelled || statErr != nil {
			t.Errorf("declined overwrite changed the piece (cancelled=%v, stat=%v)", out.Cancelled, statErr)
		}
	}
}

func TestWizardRejectsInvalidName(t *testing.T) {
	w, _ := newWizard(t, &prompttest.Fake{Answers: map[string]string{"PIECE_NAME": "bad name"}})
	if _, err := w.Create(context.Background(), Options{}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Create() error = %v, want ErrInvalidName", err)
	}
}
