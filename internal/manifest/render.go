package manifest

import (
	"fmt"
	"strings"
	"text/template"
)

// RenderPrompt executes the manifest prompt template over values. Missing
// keys render as empty strings.
func RenderPrompt(m *PieceManifest, values map[string]string) (string, error) {
	if strings.TrimSpace(m.Prompt) == "" {
		return "", nil
	}
	tmpl, err := template.New(m.Name).Option("missingkey=zero").Parse(m.Prompt)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template: %w", err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, values); err != nil {
		return "", fmt.Errorf("rendering prompt template: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}
