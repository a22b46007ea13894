package compose

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/puzzle-labs/puzzle/internal/expand"
	"github.com/puzzle-labs/puzzle/internal/hook"
	"github.com/puzzle-labs/puzzle/internal/manifest"
	"github.com/puzzle-labs/puzzle/internal/resolve"
	"github.com/puzzle-labs/puzzle/internal/vars"
)

const (
	TemplateDir = "template"
	ExtraDir    = "extra"
)

// HookFunc runs a prepare or setup phase.
type HookFunc func(ctx context.Context, c hook.Context) error

// PromptFunc produces an instruction fragment: nil, a string or a
// hook.Prompt.
type PromptFunc func(ctx context.Context, c hook.Context) (any, error)

// Module is one loaded lifecycle module.
type Module struct {
	Name   string
	Dir    string
	Shared bool
	// Manifest is nil when the module has no piece.yaml.
	Manifest *manifest.PieceManifest
	// Script is the piece.go path, empty when absent.
	Script string

	prepare []HookFunc
	setup   []HookFunc
	prompt  []PromptFunc
}

// Description returns the manifest description, if any.
func (m *Module) Description() string {
	if m.Manifest == nil {
		return ""
	}
	return m.Manifest.Description
}

// TemplateRoot returns the module's template directory.
func (m *Module) TemplateRoot() string { return filepath.Join(m.Dir, TemplateDir) }

// ExtraRoot returns the module's extra directory.
func (m *Module) ExtraRoot() string { return filepath.Join(m.Dir, ExtraDir) }

// TemplateFiles lists every file under template/, recursively and sorted.
func (m *Module) TemplateFiles() ([]string, error) {
	return expand.WalkFiles(m.TemplateRoot())
}

// ExtraFiles lists every file under extra/, recursively and sorted.
func (m *Module) ExtraFiles() ([]string, error) {
	return expand.WalkFiles(m.ExtraRoot())
}

// Prepare runs the module's prepare hooks in order.
func (m *Module) Prepare(ctx context.Context, c hook.Context) error {
	return runHooks(ctx, c, m.prepare, m.Name, "prepare")
}

// Setup runs the module's setup hooks in order.
func (m *Module) Setup(ctx context.Context, c hook.Context) error {
	return runHooks(ctx, c, m.setup, m.Name, "setup")
}

// Prompt runs the module's prompt hooks and returns their raw results.
func (m *Module) Prompt(ctx context.Context, c hook.Context) ([]any, error) {
	var out []any
	for _, fn := range m.prompt {
		v, err := fn(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("%s prompt hook: %w", m.Name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// VariableSpecs returns the variable declarations of the manifest.
func (m *Module) VariableSpecs() (map[string]resolve.Spec, error) {
	specs := make(map[string]resolve.Spec)
	if m.Manifest == nil {
		return specs, nil
	}
	for _, v := range m.Manifest.Variables {
		kind, err := vars.ParseKind(v.Type)
		if err != nil {
			return nil, fmt.Errorf("%s variable %s: %w", m.Name, v.Name, err)
		}
		specs[v.Name] = resolve.Spec{
			Kind:     kind,
			Message:  v.Message,
			Options:  v.Options,
			From:     v.From,
			DirsOnly: v.DirsOnly,
			Within:   v.Within,
		}
	}
	return specs, nil
}

func runHooks(ctx context.Context, c hook.Context, hooks []HookFunc, module, phase string) error {
	for _, fn := range hooks {
		if err := fn(ctx, c); err != nil {
			return fmt.Errorf("%s %s hook: %w", module, phase, err)
		}
	}
	return nil
}

// manifestHooks turns the declarative phases of m into hooks.
func manifestHooks(m *manifest.PieceManifest) (prepare, setup HookFunc, prompt PromptFunc) {
	phase := func(p *manifest.Phase) HookFunc {
		if p == nil {
			return nil
		}
		return func(_ context.Context, c hook.Context) error {
			env := c.Values()
			reads, err := manifest.SelectFiles(p.Read, env)
			if err != nil {
				return err
			}
			writes, err := manifest.SelectFiles(p.Write, env)
			if err != nil {
				return err
			}
			for _, r := range reads {
				c.AddReadFile(r)
			}
			for _, w := range writes {
				c.AddWriteFile(w)
			}
			return nil
		}
	}
	if m.Prompt != "" {
		prompt = func(_ context.Context, c hook.Context) (any, error) {
			text, err := manifest.RenderPrompt(m, c.Vars())
			if err != nil || text == "" {
				return nil, err
			}
			return text, nil
		}
	}
	return phase(m.Prepare), phase(m.Setup), prompt
}
