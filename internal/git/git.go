package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/puzzle-labs/puzzle/internal/vars"
)

// Variable names that request modified files as read or write targets.
var (
	ReadVars  = []string{"GIT-R", "GIT-READ", "GR"}
	WriteVars = []string{"GIT-W", "GIT-WRITE", "GW"}
)

// ReadRequested reports whether any git-read variable is truthy.
func ReadRequested(t *vars.Table) bool { return anyTruthy(t, ReadVars) }

// WriteRequested reports whether any git-write variable is truthy.
func WriteRequested(t *vars.Table) bool { return anyTruthy(t, WriteVars) }

func anyTruthy(t *vars.Table, names []string) bool {
	for _, n := range names {
		if v, ok := t.Get(n); ok && v.Truthy() {
			return true
		}
	}
	return false
}

// TopLevel returns the root of the repository containing dir.
func TopLevel(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ModifiedFiles returns the absolute paths of unstaged and staged changes
// in the repository containing dir. Deleted files, directories and
// anything inside excludeDir are skipped.
func ModifiedFiles(ctx context.Context, dir, excludeDir string) ([]string, error) {
	if err := ensureGit(); err != nil {
		return nil, err
	}
	root, err := TopLevel(ctx, dir)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(excludeDir); err == nil {
		excludeDir = resolved
	}
	unstaged, err := run(ctx, root, "diff", "--name-only")
	if err != nil {
		return nil, err
	}
	staged, err := run(ctx, root, "diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}
	return ParseNames(root, unstaged+"\n"+staged, excludeDir, existingFile), nil
}

// ParseNames turns `git diff --name-only` output into sorted absolute
// paths under root. keep filters out paths that should not be returned.
func ParseNames(root, output, excludeDir string, keep func(string) bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p := filepath.Join(root, filepath.FromSlash(line))
		if excludeDir != "" && within(p, excludeDir) {
			continue
		}
		if seen[p] || (keep != nil && !keep(p)) {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func within(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func existingFile(p string) bool {
	info, err := os.Lstat(p)
	return err == nil && !info.IsDir()
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// ensureGit checks that git is available on PATH.
func ensureGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git is required but not found in PATH")
	}
	return nil
}
