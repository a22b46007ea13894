package manifest

import (
	"fmt"

	"go.yaml.in/yaml/v3"
)

// FileName is the manifest file looked up in a piece directory.
const FileName = "piece.yaml"

// PieceManifest is the declarative lifecycle of a piece.
type PieceManifest struct {
	Name        string     `yaml:"name,omitempty" json:"name,omitempty"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string     `yaml:"version,omitempty" json:"version,omitempty"`
	Tags        []string   `yaml:"tags,omitempty" json:"tags,omitempty"`
	Variables   []Variable `yaml:"variables,omitempty" json:"variables,omitempty"`
	Prepare     *Phase     `yaml:"prepare,omitempty" json:"prepare,omitempty"`
	Setup       *Phase     `yaml:"setup,omitempty" json:"setup,omitempty"`
	// Prompt is a text/template rendered over the variable table.
	Prompt string `yaml:"prompt,omitempty" json:"prompt,omitempty"`
}

// Variable declares how one variable is asked for.
type Variable struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type,omitempty" json:"type,omitempty"`
	Message  string   `yaml:"message,omitempty" json:"message,omitempty"`
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`
	From     string   `yaml:"from,omitempty" json:"from,omitempty"`
	DirsOnly bool     `yaml:"dirs_only,omitempty" json:"dirs_only,omitempty"`
	Within   string   `yaml:"within,omitempty" json:"within,omitempty"`
}

// Phase lists the files a lifecycle phase adds to the action.
type Phase struct {
	Read  []FileEntry `yaml:"read,omitempty" json:"read,omitempty"`
	Write []FileEntry `yaml:"write,omitempty" json:"write,omitempty"`
}

// FileEntry is a path pattern, optionally guarded by a condition over the
// variable table. In YAML it is either a plain string or a mapping with
// path and when keys.
type FileEntry struct {
	Path string `yaml:"path" json:"path"`
	When string `yaml:"when,omitempty" json:"when,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (f *FileEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		f.Path = node.Value
		f.When = ""
		return nil
	case yaml.MappingNode:
		type plain FileEntry
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*f = FileEntry(p)
		return nil
	}
	return fmt.Errorf("line %d: file entry must be a string or a mapping", node.Line)
}
