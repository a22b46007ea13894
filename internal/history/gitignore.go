package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/puzzle-labs/puzzle/internal/prompt"
)

// IsIgnored reports whether .gitignore in repoRoot mentions entry.
func IsIgnored(repoRoot, entry string) (bool, error) {
	content, err := os.ReadFile(filepath.Join(repoRoot, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading .gitignore: %w", err)
	}
	for _, l := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(l) == entry {
			return true, nil
		}
	}
	return false, nil
}

// AddToGitignore appends entry to .gitignore in repoRoot, creating the file
// when needed. If the line already exists, this is a no-op.
func AddToGitignore(repoRoot, entry string) error {
	gitignorePath := filepath.Join(repoRoot, ".gitignore")

	content, err := os.ReadFile(gitignorePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading .gitignore: %w", err)
	}
	if ok, _ := IsIgnored(repoRoot, entry); ok {
		return nil
	}

	// Ensure there's a newline before our addition.
	suffix := entry + "\n"
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		suffix = "\n" + suffix
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening .gitignore for append: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(suffix); err != nil {
		return fmt.Errorf("writing to .gitignore: %w", err)
	}
	return nil
}

// OfferGitignore asks whether to ignore entry when .gitignore does not
// already list it, and adds it on confirmation. It reports whether the
// file was changed.
func OfferGitignore(ctx context.Context, p prompt.Prompter, repoRoot, entry string) (bool, error) {
	ignored, err := IsIgnored(repoRoot, entry)
	if err != nil || ignored {
		return false, err
	}

	message := fmt.Sprintf("Would you like to add %s to .gitignore?", entry)
	if _, err := os.Stat(filepath.Join(repoRoot, ".gitignore")); os.IsNotExist(err) {
		message = fmt.Sprintf("Would you like to create a .gitignore file to exclude %s?", entry)
	}
	ok, err := p.Confirm(ctx, message, true)
	if err != nil || !ok {
		return false, err
	}
	if err := AddToGitignore(repoRoot, entry); err != nil {
		return false, err
	}
	return true, nil
}
