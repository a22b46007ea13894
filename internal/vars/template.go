package vars

import (
	"os"
	"strings"
)

// Templater substitutes variable values into path templates.
type Templater struct {
	// Exists reports whether a path is already present. Defaults to an
	// os.Stat check.
	Exists func(path string) bool
}

// Apply substitutes the truthy values of t into path, one variable at a
// time in depth order. Before each substitution the current path is
// checked for existence and substitution stops as soon as it exists, so a
// placeholder that names a literal on-disk segment is never replaced.
func (tp Templater) Apply(path string, t *Table) string {
	exists := tp.Exists
	if exists == nil {
		exists = pathExists
	}

	current := path
	for _, name := range Order(Tokens(path), []string{path}) {
		if exists(current) {
			break
		}
		v, ok := t.Get(name)
		if !ok {
			continue
		}
		text, ok := v.Substitution()
		if !ok {
			continue
		}
		current = strings.ReplaceAll(current, Placeholder(name), text)
	}
	return current
}

// ApplyAll templates every path in place and returns the slice.
func (tp Templater) ApplyAll(paths []string, t *Table) []string {
	for i, p := range paths {
		paths[i] = tp.Apply(p, t)
	}
	return paths
}

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
