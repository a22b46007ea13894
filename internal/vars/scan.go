package vars

import "regexp"

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Placeholder returns the literal placeholder text for name.
func Placeholder(name string) string { return "{" + name + "}" }

// Tokens returns the distinct placeholder names in text, in order of first
// appearance.
func Tokens(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Scan declares every placeholder found in text and returns the names that
// were not known to the table before.
func Scan(text string, t *Table) []string {
	var added []string
	for _, name := range Tokens(text) {
		if t.Declare(name) {
			added = append(added, name)
		}
	}
	return added
}

// ScanAll runs Scan over each text.
func ScanAll(texts []string, t *Table) []string {
	var added []string
	for _, text := range texts {
		added = append(added, Scan(text, t)...)
	}
	return added
}
