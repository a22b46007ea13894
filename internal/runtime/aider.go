package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// PromptEnv carries the instruction in chat mode.
const PromptEnv = "PUZZLE_PROMPT"

// AiderRuntime runs an aider-compatible agent with the instruction passed
// as a message file, read files as --read and write files as --file.
type AiderRuntime struct {
	Command string
	Args    map[string]any
	// Stdin, Stdout and Stderr default to the process streams. Files are
	// handed to the agent as is so it sees a terminal; any other writer is
	// also captured into Output.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run writes the instruction to a temporary message file, runs the agent
// and removes the file afterwards. A non-zero exit is reported through
// Output.ExitCode, not as an error.
func (a *AiderRuntime) Run(ctx context.Context, job *Job) (*Output, error) {
	bin, err := exec.LookPath(a.Command)
	if err != nil {
		return nil, fmt.Errorf("agent %q not found: %w", a.Command, err)
	}

	messageFile := ""
	if !job.Chat && job.Instruction != "" {
		f, err := os.CreateTemp("", "puzzle-message-*.txt")
		if err != nil {
			return nil, fmt.Errorf("creating message file: %w", err)
		}
		messageFile = f.Name()
		defer os.Remove(messageFile)
		if _, err := f.WriteString(job.Instruction); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing message file: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("writing message file: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, bin, BuildArgs(a.Args, job, messageFile)...)
	cmd.Dir = job.Dir
	cmd.Env = buildEnv(os.Environ(), job)

	cmd.Stdin = a.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = streamWriter(a.Stdout, os.Stdout, &stdoutBuf)
	cmd.Stderr = streamWriter(a.Stderr, os.Stderr, &stderrBuf)

	err = cmd.Run()
	output := &Output{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			output.ExitCode = exitErr.ExitCode()
			return output, nil
		}
		return output, fmt.Errorf("running agent: %w", err)
	}
	return output, nil
}

// streamWriter picks the agent's output stream. A nil w uses def and an
// *os.File is passed through uncaptured, since exec only shares file
// descriptors directly.
func streamWriter(w io.Writer, def *os.File, capture *bytes.Buffer) io.Writer {
	switch w := w.(type) {
	case nil:
		return def
	case *os.File:
		return w
	default:
		return io.MultiWriter(w, capture)
	}
}

// BuildArgs assembles the agent command line. Configured args come first in
// key order: true renders --key, false renders --no-key and any other value
// renders --key value. Template and read files follow as --read.
func BuildArgs(configured map[string]any, job *Job, messageFile string) []string {
	keys := make([]string, 0, len(configured))
	for k := range configured {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []string
	for _, k := range keys {
		flag := strings.TrimLeft(k, "-")
		switch v := configured[k].(type) {
		case bool:
			if v {
				args = append(args, "--"+flag)
			} else {
				args = append(args, "--no-"+flag)
			}
		case nil:
			args = append(args, "--"+flag)
		default:
			args = append(args, "--"+flag, fmt.Sprint(v))
		}
	}
	if messageFile != "" {
		args = append(args, "--message-file", messageFile)
	}
	for _, r := range job.TemplateFiles {
		args = append(args, "--read", r)
	}
	for _, r := range job.ReadFiles {
		args = append(args, "--read", r)
	}
	for _, w := range job.WriteFiles {
		args = append(args, "--file", w)
	}
	return args
}

func buildEnv(base []string, job *Job) []string {
	env := append([]string(nil), base...)
	keys := make([]string, 0, len(job.Env))
	for k := range job.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = setEnv(env, k, job.Env[k])
	}
	if job.Chat && job.Instruction != "" {
		env = setEnv(env, PromptEnv, job.Instruction)
	}
	return env
}

// setEnv sets or replaces an environment variable in the env slice.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
