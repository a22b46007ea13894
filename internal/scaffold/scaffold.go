package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/puzzle-labs/puzzle/internal/compose"
	"github.com/puzzle-labs/puzzle/internal/manifest"
)

// ErrInvalidName is returned for piece names outside [a-zA-Z0-9_-].
var ErrInvalidName = errors.New("piece name may only contain letters, numbers, hyphens and underscores")

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateName checks a piece name.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Kind selects the lifecycle file a new piece starts with.
type Kind string

const (
	KindManifest Kind = "yaml"
	KindScript   Kind = "go"
)

// LifecycleFile returns the file name a kind produces.
func (k Kind) LifecycleFile() string {
	if k == KindScript {
		return compose.ScriptName
	}
	return manifest.FileName
}

// ScaffoldData holds the values available to scaffold templates.
type ScaffoldData struct {
	Name        string // e.g. "PostApiEndpoint"
	Description string
}

// NewScaffoldData creates ScaffoldData with a default description.
func NewScaffoldData(name string) *ScaffoldData {
	return &ScaffoldData{
		Name:        name,
		Description: fmt.Sprintf("Scaffolding piece %s", name),
	}
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	PieceDir string
	// Files lists the generated files relative to PieceDir.
	Files    []string
	Warnings []string
}

// Generate creates pieceDir with template/ and extra/examples/ sections and
// a lifecycle file of the given kind. pieceDir must not already contain
// files.
func Generate(kind Kind, data *ScaffoldData, pieceDir string) (*Result, error) {
	if err := ValidateName(data.Name); err != nil {
		return nil, err
	}
	templatesDir := filepath.ToSlash(filepath.Join("scaffolds", string(kind)))

	entries, err := fs.ReadDir(scaffoldFS, templatesDir)
	if err != nil {
		return nil, fmt.Errorf("template set %q not found: %w", kind, err)
	}

	// Check for existing files to prevent accidental overwrites.
	existing, err := os.ReadDir(pieceDir)
	if err == nil && len(existing) > 0 {
		return nil, fmt.Errorf("piece directory %s is not empty; remove existing files first", pieceDir)
	}

	for _, dir := range []string{
		filepath.Join(pieceDir, compose.TemplateDir),
		filepath.Join(pieceDir, compose.ExtraDir, "examples"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	result := &Result{PieceDir: pieceDir}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		tmplPath := templatesDir + "/" + entry.Name()
		tmplBytes, err := fs.ReadFile(scaffoldFS, tmplPath)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", tmplPath, err)
		}

		// Strip .tmpl extension for the output filename.
		outName := strings.TrimSuffix(entry.Name(), ".tmpl")
		outPath := filepath.Join(pieceDir, outName)

		tmpl, err := template.New(entry.Name()).Parse(string(tmplBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing template %s: %w", entry.Name(), err)
		}

		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", outPath, err)
		}

		result.Files = append(result.Files, outName)
	}

	// Validate the generated manifest against JSON Schema.
	manifestFile := filepath.Join(pieceDir, manifest.FileName)
	if _, err := os.Stat(manifestFile); err == nil {
		valResult, valErr := manifest.ValidateFile(manifestFile)
		if valErr != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Could not validate manifest: %v", valErr))
		} else if !valResult.Valid {
			for _, issue := range valResult.Issues {
				msg := issue.Message
				if issue.Path != "" {
					msg = issue.Path + ": " + msg
				}
				result.Warnings = append(result.Warnings, msg)
			}
		}
	}

	return result, nil
}
