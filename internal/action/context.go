package action

import (
	"path/filepath"
	"slices"

	"github.com/puzzle-labs/puzzle/internal/config"
	"github.com/puzzle-labs/puzzle/internal/hook"
	"github.com/puzzle-labs/puzzle/internal/vars"
)

// runContext is the state one run shares with its hooks.
type runContext struct {
	table     *vars.Table
	reads     []string
	writes    []string
	templates []string

	settings  *config.Settings
	defaults  map[string]vars.Value
	piece     string
	moduleDir string
	workDir   string
}

var _ hook.Context = (*runContext)(nil)

func (c *runContext) Var(name string) string {
	v, _ := c.table.Get(name)
	return v.String()
}

func (c *runContext) Flag(name string) bool {
	v, _ := c.table.Get(name)
	return v.Truthy()
}

func (c *runContext) IsSet(name string) bool { return c.table.IsSet(name) }

func (c *runContext) SetVar(name, value string) { c.table.Set(name, vars.String(value)) }

func (c *runContext) Vars() map[string]string { return c.table.Strings() }

func (c *runContext) Values() map[string]any { return c.table.Snapshot() }

func (c *runContext) Default(name string) string { return c.defaults[name].String() }

func (c *runContext) ReadFiles() []string { return slices.Clone(c.reads) }

func (c *runContext) WriteFiles() []string { return slices.Clone(c.writes) }

// AddReadFile anchors path at the repository root and records any new
// placeholders it carries.
func (c *runContext) AddReadFile(path string) {
	c.reads = append(c.reads, c.register(path))
}

// AddWriteFile anchors path at the repository root and records any new
// placeholders it carries.
func (c *runContext) AddWriteFile(path string) {
	c.writes = append(c.writes, c.register(path))
}

func (c *runContext) register(path string) string {
	full := filepath.FromSlash(path)
	if !filepath.IsAbs(full) {
		full = filepath.Join(c.RepoPath(), full)
	}
	vars.Scan(full, c.table)
	return full
}

func (c *runContext) Setting(key string) string {
	if c.settings == nil {
		return ""
	}
	return c.settings.Value(key)
}

func (c *runContext) PieceName() string { return c.piece }

func (c *runContext) ModuleDir() string { return c.moduleDir }

func (c *runContext) WorkingDir() string { return c.workDir }

func (c *runContext) RepoPath() string {
	if c.settings == nil || c.settings.RepoPath == "" {
		return c.workDir
	}
	return c.settings.RepoPath
}

func (c *runContext) allFiles() []string {
	all := make([]string, 0, len(c.templates)+len(c.reads)+len(c.writes))
	all = append(all, c.templates...)
	all = append(all, c.reads...)
	return append(all, c.writes...)
}
