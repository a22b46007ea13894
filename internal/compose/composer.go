package compose

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/puzzle-labs/puzzle/internal/manifest"
)

const (
	// SharedDir holds the module every action composes first.
	SharedDir = "common"
	// PiecesDir holds one directory per action.
	PiecesDir = "pieces"
)

// ErrModuleNotFound is returned when an action has no lifecycle module.
var ErrModuleNotFound = errors.New("module not found")

// Composer loads modules from a puzzle directory.
type Composer struct {
	PuzzleDir string
	Logger    *slog.Logger
}

// Compose returns the modules of action in execution order: the shared
// module when present, then the action module. A shared directory without a
// lifecycle file still contributes its template and extra files, with no
// hooks. A missing shared directory is logged and skipped; a missing action
// module is ErrModuleNotFound.
func (c *Composer) Compose(action string) ([]*Module, error) {
	var modules []*Module

	sharedDir := filepath.Join(c.PuzzleDir, SharedDir)
	shared, err := Load(sharedDir, SharedDir, true)
	switch {
	case errors.Is(err, ErrModuleNotFound):
		if info, statErr := os.Stat(sharedDir); statErr == nil && info.IsDir() {
			c.logger().Debug("shared module has no lifecycle file", "dir", sharedDir)
			modules = append(modules, &Module{Name: SharedDir, Dir: sharedDir, Shared: true})
			break
		}
		c.logger().Debug("no shared module", "dir", sharedDir)
	case err != nil:
		return nil, err
	default:
		modules = append(modules, shared)
	}

	piece, err := Load(c.PieceDir(action), action, false)
	if err != nil {
		return nil, err
	}
	return append(modules, piece), nil
}

// PieceDir returns the directory of an action module.
func (c *Composer) PieceDir(action string) string {
	return filepath.Join(c.PuzzleDir, PiecesDir, action)
}

// Pieces lists the available action names, sorted.
func (c *Composer) Pieces() ([]string, error) {
	root := filepath.Join(c.PuzzleDir, PiecesDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := findLifecycle(filepath.Join(root, e.Name())); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (c *Composer) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// lifecycle names the lifecycle files present in a module directory.
type lifecycle struct {
	manifest string
	script   string
}

// findLifecycle searches a directory for lifecycle files.
func findLifecycle(dir string) (lifecycle, error) {
	var lc lifecycle
	candidates := []struct {
		name string
		dst  *string
	}{
		{manifest.FileName, &lc.manifest},
		{ScriptName, &lc.script},
	}
	for _, cand := range candidates {
		p := filepath.Join(dir, cand.name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			*cand.dst = p
		}
	}
	if lc.manifest == "" && lc.script == "" {
		return lc, fmt.Errorf("%w: no %s or %s in %s", ErrModuleNotFound, manifest.FileName, ScriptName, dir)
	}
	return lc, nil
}

// Load reads the module in dir. Manifest hooks run before script hooks.
func Load(dir, name string, shared bool) (*Module, error) {
	lc, err := findLifecycle(dir)
	if err != nil {
		return nil, err
	}

	m := &Module{Name: name, Dir: dir, Shared: shared, Script: lc.script}

	if lc.manifest != "" {
		pm, err := manifest.Parse(lc.manifest)
		if err != nil {
			return nil, err
		}
		m.Manifest = pm
		prepare, setup, prompt := manifestHooks(pm)
		m.add(prepare, setup, prompt)
	}

	if lc.script != "" {
		prepare, setup, prompt, err := scriptHooks(lc.script)
		if err != nil {
			return nil, err
		}
		m.add(prepare, setup, prompt)
	}
	return m, nil
}

func (m *Module) add(prepare, setup HookFunc, prompt PromptFunc) {
	if prepare != nil {
		m.prepare = append(m.prepare, prepare)
	}
	if setup != nil {
		m.setup = append(m.setup, setup)
	}
	if prompt != nil {
		m.prompt = append(m.prompt, prompt)
	}
}
