package expand

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultIgnoreDirs are never traversed into by a wildcard match.
var DefaultIgnoreDirs = []string{"node_modules", ".git"}

// Options tunes a single expansion.
type Options struct {
	// DirsOnly keeps directories and drops regular files.
	DirsOnly bool
}

// Expander resolves patterns relative to a root directory.
type Expander struct {
	root   string
	ignore *ignore.GitIgnore
	logger *slog.Logger
}

// New returns an Expander rooted at root. ignoreDirs names directories
// whose contents never appear in results; nil selects DefaultIgnoreDirs.
func New(root string, ignoreDirs []string, logger *slog.Logger) *Expander {
	if ignoreDirs == nil {
		ignoreDirs = DefaultIgnoreDirs
	}
	if logger == nil {
		logger = slog.Default()
	}
	lines := make([]string, 0, len(ignoreDirs))
	for _, d := range ignoreDirs {
		d = strings.Trim(filepath.ToSlash(d), "/")
		if d != "" {
			lines = append(lines, d)
		}
	}
	return &Expander{
		root:   root,
		ignore: ignore.CompileIgnoreLines(lines...),
		logger: logger,
	}
}

// Root returns the directory relative patterns resolve against.
func (e *Expander) Root() string { return e.root }

// HasWildcard reports whether p contains a wildcard character.
func HasWildcard(p string) bool {
	return strings.ContainsAny(p, "*$")
}

// Normalize rewrites the $ alias to *.
func Normalize(p string) string {
	return strings.ReplaceAll(p, "$", "*")
}

// Expand returns the sorted absolute paths matching pattern. A pattern
// matching nothing logs a warning and yields an empty result.
func (e *Expander) Expand(pattern string, opts Options) ([]string, error) {
	full := e.absPattern(Normalize(pattern))

	hits, err := doublestar.FilepathGlob(full)
	if err != nil {
		return nil, fmt.Errorf("expanding %q: %w", pattern, err)
	}

	slashPattern := filepath.ToSlash(full)
	seen := make(map[string]bool, len(hits))
	for _, hit := range hits {
		abs, err := filepath.Abs(hit)
		if err != nil {
			continue
		}
		// The filesystem may fold case on literal segments; the pattern
		// must not.
		if ok, _ := doublestar.Match(slashPattern, filepath.ToSlash(abs)); !ok {
			continue
		}
		if e.ignored(abs) {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			continue
		}
		if info.IsDir() != opts.DirsOnly {
			continue
		}
		seen[abs] = true
	}

	if len(seen) == 0 {
		e.logger.Warn("no files match pattern", "pattern", pattern)
		return nil, nil
	}
	return sortedSet(seen), nil
}

// ExpandAll replaces each wildcard path in paths by its matches, leaving
// literal paths in place. Duplicates keep their first position.
func (e *Expander) ExpandAll(paths []string, opts Options) ([]string, error) {
	var out []string
	seen := make(map[string]bool, len(paths))
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range paths {
		if !HasWildcard(p) {
			add(p)
			continue
		}
		matches, err := e.Expand(p, opts)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

// absPattern returns p as a clean absolute pattern so it compares equal to
// the absolute paths of its hits.
func (e *Expander) absPattern(p string) string {
	p = filepath.FromSlash(p)
	switch {
	case filepath.IsAbs(p):
	case e.root != "":
		p = filepath.Join(e.root, p)
	default:
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	return filepath.Clean(p)
}

func (e *Expander) ignored(abs string) bool {
	rel := abs
	if e.root != "" {
		if r, err := filepath.Rel(e.root, abs); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	return e.ignore.MatchesPath(filepath.ToSlash(rel))
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// IsDir reports whether p names an existing directory.
func IsDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// WalkFiles returns every regular file below dir, sorted. A missing dir
// yields no files and no error.
func WalkFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
