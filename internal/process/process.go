// Package process runs child processes synchronously and captures their output.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// RedactToken replaces the project directory in captured output.
const RedactToken = "<PROJECT_DIR>"

// Command is a program and its arguments.
type Command struct {
	Program string
	Args    []string
}

// NewCommand creates a command for program with optional leading arguments.
func NewCommand(program string, args ...string) *Command {
	return &Command{Program: program, Args: append([]string(nil), args...)}
}

// AddOptions appends arguments and returns the command for chaining.
func (c *Command) AddOptions(opts ...string) *Command {
	c.Args = append(c.Args, opts...)
	return c
}

// AddFlags splits each flag string on whitespace and appends the parts.
// Empty strings add nothing.
func (c *Command) AddFlags(flags ...string) *Command {
	for _, flag := range flags {
		c.Args = append(c.Args, strings.Fields(flag)...)
	}
	return c
}

func (c *Command) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// Result captures the outcome of a finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the process exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Executor runs commands to completion.
//
// A nonzero exit status is reported through Result.ExitCode. An error means
// the process could not be run at all.
type Executor interface {
	Run(ctx context.Context, cmd *Command) (*Result, error)
}

// Exec is the os/exec backed Executor.
type Exec struct {
	// Dir is the working directory of the child. Empty means the caller's.
	Dir string
	// Redact is replaced with RedactToken in stdout and stderr. Empty disables it.
	Redact string
}

// Run starts cmd and blocks until it exits.
func (e *Exec) Run(ctx context.Context, cmd *Command) (*Result, error) {
	if cmd == nil || cmd.Program == "" {
		return nil, errors.New("command is empty")
	}

	execCmd := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	execCmd.Dir = e.Dir

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	start := time.Now()
	err := execCmd.Run()
	duration := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("run %s: %w", cmd.Program, ctxErr)
	}

	result := &Result{
		Stdout:   Redact(stdout.String(), e.Redact),
		Stderr:   Redact(stderr.String(), e.Redact),
		Duration: duration,
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// not started: missing binary, permissions, bad Dir
			return nil, fmt.Errorf("run %s: %w", cmd.Program, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	return result, nil
}

// Redact replaces every occurrence of path in s with RedactToken.
func Redact(s, path string) string {
	if path == "" {
		return s
	}
	return strings.ReplaceAll(s, path, RedactToken)
}
