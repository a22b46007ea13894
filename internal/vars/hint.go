package vars

import "strings"

const hintContext = 2

// FirstReference returns the first path that contains {name}.
func FirstReference(name string, paths []string) (string, bool) {
	token := Placeholder(name)
	for _, p := range paths {
		if strings.Contains(p, token) {
			return p, true
		}
	}
	return "", false
}

// Hint shortens path to the segment holding {name} plus two segments on
// either side, marking elided parts with "...".
func Hint(name, path string) string {
	segs := segments(path)
	idx := -1
	for i, s := range segs {
		if strings.Contains(s, Placeholder(name)) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return path
	}
	start := max(idx-hintContext, 0)
	end := min(idx+hintContext+1, len(segs))

	parts := segs[start:end]
	out := strings.Join(parts, "/")
	if start > 0 {
		out = ".../" + out
	}
	if end < len(segs) {
		out += "/..."
	}
	return out
}
