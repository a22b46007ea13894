package runtime

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var versionRe = regexp.MustCompile(`v?\d+\.\d+(\.\d+)?([-+][0-9A-Za-z.-]+)?`)

// AgentVersion runs "<command> --version" and parses the first version
// number in its output.
func AgentVersion(ctx context.Context, command string) (*semver.Version, error) {
	out, err := exec.CommandContext(ctx, command, "--version").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("running %s --version: %w", command, err)
	}
	return ParseVersion(string(out))
}

// ParseVersion extracts a semantic version from free-form text.
func ParseVersion(text string) (*semver.Version, error) {
	m := versionRe.FindString(strings.TrimSpace(text))
	if m == "" {
		return nil, fmt.Errorf("no version in %q", strings.TrimSpace(text))
	}
	v, err := semver.NewVersion(m)
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", m, err)
	}
	return v, nil
}

// CheckVersion reports whether v satisfies constraint. An empty constraint
// accepts any version.
func CheckVersion(v *semver.Version, constraint string) (bool, error) {
	if strings.TrimSpace(constraint) == "" {
		return true, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	return c.Check(v), nil
}
