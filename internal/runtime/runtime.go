package runtime

import (
	"context"
	"fmt"
	"io"
)

// Job is one agent invocation.
type Job struct {
	Instruction string
	// TemplateFiles are piece template sources. The agent reads them like
	// ReadFiles.
	TemplateFiles []string
	ReadFiles     []string
	WriteFiles    []string
	// Chat leaves the agent interactive instead of running the
	// instruction as a one-shot message.
	Chat bool
	// Dir is the agent's working directory.
	Dir string
	// Env is added to the inherited environment.
	Env map[string]string
}

// Runtime runs a Job.
type Runtime interface {
	Run(ctx context.Context, job *Job) (*Output, error)
}

// Output captures the result of an agent run.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Supported runtime identifiers.
const (
	RuntimeAider = "aider"
	RuntimePrint = "print"
)

// Options configures the runtime DispatchRuntime builds.
type Options struct {
	Command string
	Args    map[string]any
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// DispatchRuntime returns the Runtime for name. Any command other than
// "print" is treated as an aider-compatible binary.
func DispatchRuntime(name string, opts Options) Runtime {
	switch name {
	case RuntimePrint:
		return &PrintRuntime{Out: opts.Stdout, Command: opts.Command, Args: opts.Args}
	case "":
		return &unknownRuntime{name: name}
	default:
		cmd := opts.Command
		if cmd == "" {
			cmd = name
		}
		return &AiderRuntime{Command: cmd, Args: opts.Args, Stdin: opts.Stdin, Stdout: opts.Stdout, Stderr: opts.Stderr}
	}
}

// unknownRuntime is returned when no runtime is configured.
type unknownRuntime struct {
	name string
}

func (u *unknownRuntime) Run(context.Context, *Job) (*Output, error) {
	return nil, fmt.Errorf("unknown runtime %q: set agent.command (e.g. %q) or use %q", u.name, RuntimeAider, RuntimePrint)
}
