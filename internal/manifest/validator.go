package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/expr-lang/expr"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/piece.schema.json
var schemaBytes []byte

const schemaName = "piece.schema.json"

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// ValidationResult contains the outcome of a manifest validation.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is a single schema or semantic problem.
type ValidationIssue struct {
	Path    string // Instance location (e.g., "/variables/0/type")
	Message string // Human-readable error message
	Keyword string // Schema keyword or semantic check that failed
}

func (r *ValidationResult) add(path, keyword, format string, args ...any) {
	r.Valid = false
	r.Issues = append(r.Issues, ValidationIssue{Path: path, Keyword: keyword, Message: fmt.Sprintf(format, args...)})
}

// getSchema compiles the embedded JSON schema once and returns it.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaName, doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaName)
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks raw manifest YAML against the schema and, when the shape
// is right, against the rules the schema cannot express: unique variable
// names, choice sources for list variables, compilable conditions and a
// parseable prompt template. The error return is for YAML or schema
// compilation failures only.
func Validate(data []byte) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	// Round-trip through JSON so the validator sees json.Number values.
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("unexpected validation error type: %w", err)
		}
		return &ValidationResult{Valid: false, Issues: extractIssues(ve)}, nil
	}

	m, err := ParseBytes(data, "manifest")
	if err != nil {
		return nil, err
	}
	result := &ValidationResult{Valid: true}
	checkSemantics(m, result)
	return result, nil
}

// ValidateFile reads a file and validates it.
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(data)
}

func checkSemantics(m *PieceManifest, r *ValidationResult) {
	seen := make(map[string]bool)
	for i, v := range m.Variables {
		path := fmt.Sprintf("/variables/%d", i)
		if seen[v.Name] {
			r.add(path+"/name", "unique", "variable %q declared twice", v.Name)
		}
		seen[v.Name] = true
		if v.Type == "list" && len(v.Options) == 0 && v.From == "" {
			r.add(path, "choices", "list variable %q needs options or from", v.Name)
		}
	}

	phases := []struct {
		name  string
		phase *Phase
	}{{"prepare", m.Prepare}, {"setup", m.Setup}}
	for _, p := range phases {
		if p.phase == nil {
			continue
		}
		checkConditions("/"+p.name+"/read", p.phase.Read, r)
		checkConditions("/"+p.name+"/write", p.phase.Write, r)
	}

	if m.Prompt != "" {
		if _, err := template.New("prompt").Parse(m.Prompt); err != nil {
			r.add("/prompt", "template", "%v", err)
		}
	}
}

func checkConditions(base string, entries []FileEntry, r *ValidationResult) {
	for i, e := range entries {
		if strings.TrimSpace(e.When) == "" {
			continue
		}
		if _, err := expr.Compile(e.When, expr.AllowUndefinedVariables()); err != nil {
			r.add(fmt.Sprintf("%s/%d/when", base, i), "condition", "%v", err)
		}
	}
}

// extractIssues walks the ValidationError tree and returns leaf-level issues.
// For oneOf schemas, all branches are walked to collect specific
// property-level errors rather than just "oneOf failed".
func extractIssues(ve *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	collectValidationIssues(ve, &issues)

	if len(issues) == 0 {
		return []ValidationIssue{{
			Message: ve.Error(),
		}}
	}
	return deduplicateIssues(issues)
}

// collectValidationIssues recursively walks the error tree to find leaf errors.
func collectValidationIssues(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectValidationIssues(cause, issues)
		}
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}

	keyword, msg := "", ""
	if ve.ErrorKind != nil {
		if kwPath := ve.ErrorKind.KeywordPath(); len(kwPath) > 0 {
			keyword = kwPath[len(kwPath)-1]
		}
		msg = ve.ErrorKind.LocalizedString(printer)
	}

	switch keyword {
	case "", "oneOf", "allOf", "$ref":
		return
	}
	*issues = append(*issues, ValidationIssue{Path: path, Message: msg, Keyword: keyword})
}

// deduplicateIssues removes duplicate issues (same path + keyword + message).
func deduplicateIssues(issues []ValidationIssue) []ValidationIssue {
	seen := make(map[string]bool)
	var result []ValidationIssue
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	return result
}
