package expand

import (
	"path/filepath"
	"strings"
)

// GroupMarker suffixes the pattern segment whose matches become groups.
const GroupMarker = ":G"

// Group is a set of files that share an ancestor matched by the marked
// segment of a pattern.
type Group struct {
	// Dir is the matched directory, or the file's parent for
	// single-file groups.
	Dir   string
	Files []string
}

// SplitGroupPattern separates a pattern at its marked segment. ok is false
// when no segment carries the marker.
func SplitGroupPattern(pattern string) (dirPattern, filePattern string, ok bool) {
	segs := strings.Split(filepath.ToSlash(pattern), "/")
	for i, s := range segs {
		if !strings.HasSuffix(s, GroupMarker) {
			continue
		}
		head := append([]string{}, segs[:i]...)
		head = append(head, strings.TrimSuffix(s, GroupMarker))
		rest := segs[i+1:]
		filePattern = strings.Join(rest, "/")
		if filePattern == "" {
			filePattern = "*"
		}
		return strings.Join(head, "/"), filePattern, true
	}
	return pattern, "", false
}

// Groups expands pattern into groups. Without a marker every matched file
// is its own group. With a marker, each directory matched by the marked
// prefix collects the files matched by the remainder beneath it. Empty
// groups are dropped.
func (e *Expander) Groups(pattern string) ([]Group, error) {
	dirPattern, filePattern, marked := SplitGroupPattern(Normalize(pattern))
	if !marked {
		files, err := e.Expand(pattern, Options{})
		if err != nil {
			return nil, err
		}
		groups := make([]Group, 0, len(files))
		for _, f := range files {
			groups = append(groups, Group{Dir: filepath.Dir(f), Files: []string{f}})
		}
		return groups, nil
	}

	dirs, err := e.Expand(dirPattern, Options{DirsOnly: true})
	if err != nil {
		return nil, err
	}
	var groups []Group
	for _, dir := range dirs {
		files, err := e.Expand(filepath.Join(dir, filepath.FromSlash(filePattern)), Options{})
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			continue
		}
		groups = append(groups, Group{Dir: dir, Files: files})
	}
	return groups, nil
}

// Flatten returns the files of every group in order.
func Flatten(groups []Group) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g.Files...)
	}
	return out
}
