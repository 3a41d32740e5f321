// SPDX-License-Identifier: MPL-2.0

package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/corky/corky/pkg/types"

	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrToolNotFound is returned when an external program cannot be started
	// because it is not installed or not in PATH.
	ErrToolNotFound = errors.New("tool not found")

	// ErrCommandFailed is the sentinel error wrapped by CommandError.
	ErrCommandFailed = errors.New("command failed")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures a Runner.
	Option func(*Runner)

	// Runner starts child processes and reports their exit codes.
	Runner struct {
		execCommand ExecCommandFunc
		stdin       io.Reader
		stdout      io.Writer
		stderr      io.Writer
	}

	// Result is the captured outcome of a child process.
	Result struct {
		ExitCode types.ExitCode
		Stdout   []byte
		Stderr   []byte
	}

	// CommandError reports a child process that exited unsuccessfully.
	// Code is the child's exit status, which the CLI propagates unchanged.
	CommandError struct {
		Command string
		Code    types.ExitCode
	}
)

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// Unwrap returns ErrCommandFailed so callers can use errors.Is.
func (e *CommandError) Unwrap() error { return ErrCommandFailed }

// WithExecCommand overrides how commands are constructed.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(r *Runner) {
		r.execCommand = fn
	}
}

// WithStdio overrides the streams inherited by interactive children.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdin = stdin
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewRunner creates a Runner that inherits the process' standard streams.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		execCommand: exec.CommandContext,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes name with the caller's terminal attached and blocks until it
// exits. A non-zero exit is not an error: the code is returned for the caller
// to propagate. An error is returned only if the child could not be started.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (types.ExitCode, error) {
	return r.RunEnv(ctx, nil, name, args...)
}

// RunEnv is Run with extra KEY=VALUE entries appended to the child's environment.
// The extra entries are visible to the child only.
func (r *Runner) RunEnv(ctx context.Context, env []string, name string, args ...string) (types.ExitCode, error) {
	cmd := r.execCommand(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	return exitStatus(name, cmd.Run())
}

// Output executes name and captures its stdout and stderr.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := r.execCommand(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	code, err := exitStatus(name, cmd.Run())
	return Result{ExitCode: code, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}

// Check converts a non-zero exit code into a *CommandError for callers that
// treat any failure of the child as fatal.
func Check(code types.ExitCode, name string, args ...string) error {
	if code.IsSuccess() {
		return nil
	}
	return &CommandError{Command: Quote(name, args...), Code: code}
}

// ExitCodeOf extracts the child exit code carried by err, if any.
func ExitCodeOf(err error) (types.ExitCode, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code, true
	}
	return 0, false
}

// Quote renders a command line the way an operator would type it in bash.
func Quote(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, word := range append([]string{name}, args...) {
		quoted, err := syntax.Quote(word, syntax.LangBash)
		if err != nil {
			quoted = strconv.Quote(word)
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}

func exitStatus(name string, err error) (types.ExitCode, error) {
	if err == nil {
		return types.ExitSuccess, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return types.ExitCode(exitErr.ExitCode()).OrFailure(), nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return types.ExitFailure, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	return types.ExitFailure, fmt.Errorf("failed to run %s: %w", name, err)
}
