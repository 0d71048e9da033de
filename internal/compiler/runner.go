package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Command is one external process invocation.
type Command struct {
	Path   string
	Args   []string
	Dir    string
	Env    []string // appended to the current environment
	Stdout io.Writer
	Stderr io.Writer
}

// Runner starts a command and waits for it to terminate.
// A non-zero exit or signal termination is reported as *ExitError.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExitError describes an unsuccessful process termination.
type ExitError struct {
	Code   int    // -1 when terminated by a signal
	Status string // e.g. "exit status 1", "signal: killed"
}

func (e *ExitError) Error() string { return e.Status }

// Signaled reports whether the process was terminated by a signal.
func (e *ExitError) Signaled() bool { return e.Code < 0 }

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ExitError{Code: ee.ExitCode(), Status: ee.ProcessState.String()}
	}
	return fmt.Errorf("start %s: %w", c.Path, err)
}
