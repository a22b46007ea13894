package scaffold

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/puzzle-labs/puzzle/internal/compose"
	"github.com/puzzle-labs/puzzle/internal/expand"
	"github.com/puzzle-labs/puzzle/internal/prompt"
	"github.com/puzzle-labs/puzzle/internal/runtime"
)

// Options configures one create-piece run. Empty fields are asked for.
type Options struct {
	Name string
	Kind Kind
	// References are files, directories or globs relative to the repository
	// root. Nil asks for them.
	References []string
}

// Wizard creates pieces interactively.
type Wizard struct {
	PuzzleDir string
	RepoPath  string
	Prompter  prompt.Prompter
	Expander  *expand.Expander
	// Runtime derives template files from references. Nil skips that step.
	Runtime runtime.Runtime
	// Env is added to the agent's environment.
	Env     map[string]string
	Out     io.Writer
	Logger  *slog.Logger
}

// Outcome reports what Create did.
type Outcome struct {
	Name       string
	Cancelled  bool
	Result     *Result
	References []string
	// Templates counts the files under template/ after the run.
	Templates int
}

// Create asks for a name, replaces an existing piece after confirmation,
// scaffolds the piece and optionally hands reference files to the agent.
func (w *Wizard) Create(ctx context.Context, opts Options) (*Outcome, error) {
	name := opts.Name
	if name == "" {
		answer, err := w.Prompter.Input(ctx, prompt.Question{
			Name:    "PIECE_NAME",
			Message: `Enter the name for your new piece (e.g. "PostApiEndpoint", "IntegrationTest")`,
		})
		if err != nil {
			return nil, err
		}
		name = strings.TrimSpace(answer)
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	out := &Outcome{Name: name}

	pieceDir := filepath.Join(w.PuzzleDir, compose.PiecesDir, name)
	if _, err := os.Stat(pieceDir); err == nil {
		ok, err := w.Prompter.Confirm(ctx,
			fmt.Sprintf("A piece named '%s' already exists. Do you want to overwrite it?", name), false)
		if err != nil {
			return nil, err
		}
		if !ok {
			w.printf("Piece creation cancelled.\n")
			out.Cancelled = true
			return out, nil
		}
		w.logger().Info("removing existing piece", "dir", pieceDir)
		if err := os.RemoveAll(pieceDir); err != nil {
			return nil, fmt.Errorf("removing %s: %w", pieceDir, err)
		}
	}

	kind := opts.Kind
	if kind == "" {
		kind = KindManifest
	}
	result, err := Generate(kind, NewScaffoldData(name), pieceDir)
	if err != nil {
		return nil, err
	}
	out.Result = result
	for _, warn := range result.Warnings {
		w.logger().Warn("generated manifest issue", "issue", warn)
	}

	refs := opts.References
	if refs == nil {
		answer, err := w.Prompter.Input(ctx, prompt.Question{
			Name:    "REFERENCES",
			Message: "Reference files, directories or globs relative to the repository root (comma separated, empty to skip)",
		})
		if err != nil {
			return nil, err
		}
		refs = ParseReferences(answer)
	}
	if len(refs) > 0 {
		expanded, err := w.expandReferences(refs)
		if err != nil {
			return nil, err
		}
		out.References = expanded
		w.printf("Expanded reference files:\n")
		for _, f := range expanded {
			w.printf("- %s\n", f)
		}
		if err := w.deriveTemplates(ctx, name, kind, pieceDir, expanded); err != nil {
			return nil, err
		}
	}

	templates, err := expand.WalkFiles(filepath.Join(pieceDir, compose.TemplateDir))
	if err != nil {
		return nil, err
	}
	out.Templates = len(templates)

	w.printf("\nPiece '%s' created in %s\n", name, pieceDir)
	w.printf("\nNext steps:\n")
	w.printf("1. Add template files to the %s/ directory\n", compose.TemplateDir)
	w.printf("2. Edit %s to configure your piece\n", kind.LifecycleFile())
	w.printf("3. Run 'puzzle %s' to use your new piece\n", name)
	return out, nil
}

func (w *Wizard) deriveTemplates(ctx context.Context, name string, kind Kind, pieceDir string, refs []string) error {
	if w.Runtime == nil {
		return nil
	}
	ok, err := w.Prompter.Confirm(ctx, "Would you like to generate template files using the agent?", true)
	if err != nil || !ok {
		return err
	}

	templateDir := filepath.Join(pieceDir, compose.TemplateDir)
	lifecycle := filepath.Join(pieceDir, kind.LifecycleFile())
	writes := []string{lifecycle}
	for _, ref := range refs {
		rel, err := filepath.Rel(w.RepoPath, ref)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		writes = append(writes, filepath.Join(templateDir, TemplatePath(rel)))
	}

	w.printf("\nGenerating template files using the agent...\n")
	res, err := w.Runtime.Run(ctx, &runtime.Job{
		Instruction: TemplateInstruction(name, kind),
		ReadFiles:   refs,
		WriteFiles:  writes,
		Dir:         w.RepoPath,
		Env:         w.Env,
	})
	if err != nil {
		w.logger().Error("generating template files failed", "error", err)
		w.printf("You can still create template files manually in the %s directory.\n", compose.TemplateDir)
		return nil
	}
	if res != nil && res.ExitCode != 0 {
		w.logger().Warn("agent exited with non-zero status", "status", res.ExitCode)
	}
	return nil
}

// expandReferences turns globs and directories into the files they cover.
// Patterns matching nothing are kept as given.
func (w *Wizard) expandReferences(refs []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, ref := range refs {
		full := ref
		if !filepath.IsAbs(full) {
			full = filepath.Join(w.RepoPath, filepath.FromSlash(ref))
		}
		pattern := ""
		switch {
		case expand.HasWildcard(ref):
			pattern = full
		case strings.HasSuffix(ref, "/") || expand.IsDir(full):
			pattern = filepath.Join(full, "**", "*")
		default:
			add(full)
			continue
		}
		matches, err := w.Expander.Expand(pattern, expand.Options{})
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			add(pattern)
			continue
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

// ParseReferences splits a reference list on newlines and commas, dropping
// blank entries and # comments.
func ParseReferences(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, part := range strings.Split(line, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var (
	pascalBase = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
	camelBase  = regexp.MustCompile(`^[a-z]+([A-Z][a-zA-Z0-9]*)+$`)
)

// TemplatePath guesses a template path for a reference file by replacing a
// PascalCase base name with {ENTITY_NAME} and a camelCase one with
// {entity_name}.
func TemplatePath(rel string) string {
	rel = filepath.ToSlash(rel)
	file := rel[strings.LastIndex(rel, "/")+1:]
	base, _, hasExt := strings.Cut(file, ".")
	if !hasExt {
		return filepath.FromSlash(rel)
	}
	dir := strings.TrimSuffix(rel, file)
	switch {
	case pascalBase.MatchString(base):
		file = "{ENTITY_NAME}" + strings.TrimPrefix(file, base)
	case camelBase.MatchString(base):
		file = "{entity_name}" + strings.TrimPrefix(file, base)
	}
	return filepath.FromSlash(dir + file)
}

// TemplateInstruction is the agent instruction for deriving templates.
func TemplateInstruction(name string, kind Kind) string {
	promptHint := "the prompt field of piece.yaml"
	if kind == KindScript {
		promptHint = "the Prompt function of piece.go"
	}
	return fmt.Sprintf(`Your task is to create a set of template files for a new software component (a "piece") named %q.
You will be given a set of reference files that demonstrate the desired structure and style.

1. File and directory structure:
   - Replicate the file and directory structure of the reference files.
   - In file and directory names, replace specific names (like User, Product, Client) with uppercase placeholder variables such as {ENTITY_NAME} or {MODULE_NAME}.
   - For example, src/api/services/UserService.js becomes src/api/services/{ENTITY_NAME}Service.js.
   - Do not use the word "Example" in file or directory names.

2. File content:
   - Keep the content generic and reusable.
   - Replace hardcoded names from the reference files with descriptive placeholders such as ExampleEntity or ExampleService.
   - Do not use the {VARIABLE_NAME} syntax inside file content. It is only for file and directory names.
   - The code in each file must be syntactically correct and serve as a working example.

3. Lifecycle file:
   - Update %s with an instruction that generates the final code from these templates.
   - Do not change the read files it declares.

Create the template files in the template/ directory.`, name, promptHint)
}

func (w *Wizard) printf(format string, args ...any) {
	if w.Out == nil {
		return
	}
	fmt.Fprintf(w.Out, format, args...)
}

func (w *Wizard) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
