// SPDX-License-Identifier: MPL-2.0

package elevate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/corky/corky/internal/proc"
	"github.com/corky/corky/internal/supervisor"
	"github.com/corky/corky/pkg/types"
)

var (
	// ErrElevationLoop is returned when an already-elevated process asks to
	// elevate again. No child is spawned.
	ErrElevationLoop = errors.New("elevation loop detected: already running with elevated privileges")

	// ErrHelperNotFound is returned when the privilege helper is not installed.
	ErrHelperNotFound = errors.New("privilege helper not found")
)

type (
	// Option configures an Elevator.
	Option func(*Elevator)

	// Elevator re-executes the current binary with root privileges.
	Elevator struct {
		runner     *proc.Runner
		helper     string
		current    Context
		executable func() (string, error)
		getwd      func() (string, error)
		geteuid    func() int
	}
)

// WithExecutable overrides how the current binary's path is found.
func WithExecutable(fn func() (string, error)) Option {
	return func(e *Elevator) { e.executable = fn }
}

// WithGetwd overrides how the working directory is captured.
func WithGetwd(fn func() (string, error)) Option {
	return func(e *Elevator) { e.getwd = fn }
}

// WithEUID overrides how the effective user ID is read.
func WithEUID(fn func() int) Option {
	return func(e *Elevator) { e.geteuid = fn }
}

// NewElevator creates an Elevator that runs helper (normally "sudo") through
// runner. current is the Context of the running process.
func NewElevator(runner *proc.Runner, helper string, current Context, opts ...Option) *Elevator {
	if helper == "" {
		helper = "sudo"
	}
	e := &Elevator{
		runner:     runner,
		helper:     helper,
		current:    current,
		executable: os.Executable,
		getwd:      os.Getwd,
		geteuid:    os.Geteuid,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Current returns the Context the process was started with.
func (e *Elevator) Current() Context { return e.current }

// IsRoot reports whether the process already has root privileges.
func (e *Elevator) IsRoot() bool { return e.geteuid() == 0 }

// NeedsElevation reports whether op on scope must re-execute through the helper.
func (e *Elevator) NeedsElevation(op Operation, scope supervisor.Scope) bool {
	return RequiresElevation(op, scope) && !e.IsRoot()
}

// Elevate re-executes the current binary with args through the helper and
// returns the child's exit code. extra is added to the child's environment
// together with the re-entrancy guard and the current working directory.
func (e *Elevator) Elevate(ctx context.Context, args []string, extra Context) (types.ExitCode, error) {
	if e.current.Elevated {
		return types.ExitFailure, ErrElevationLoop
	}

	code, err := e.runner.Run(ctx, e.helper, "-v")
	if err != nil {
		return code, e.helperError(err)
	}
	if err := proc.Check(code, e.helper, "-v"); err != nil {
		return code, fmt.Errorf("failed to obtain privileges: %w", err)
	}

	child, helperArgs, err := e.plan(args, extra)
	if err != nil {
		return types.ExitFailure, err
	}

	code, err = e.runner.RunEnv(ctx, child.Environ(), e.helper, helperArgs...)
	if err != nil {
		return code, e.helperError(err)
	}
	return code, nil
}

// Describe renders the command Elevate would run, for dry-run output.
func (e *Elevator) Describe(args []string, extra Context) (string, error) {
	_, helperArgs, err := e.plan(args, extra)
	if err != nil {
		return "", err
	}
	return proc.Quote(e.helper, helperArgs...), nil
}

func (e *Elevator) plan(args []string, extra Context) (Context, []string, error) {
	cwd, err := e.getwd()
	if err != nil {
		return Context{}, nil, fmt.Errorf("failed to capture working directory: %w", err)
	}
	exe, err := e.executable()
	if err != nil {
		return Context{}, nil, fmt.Errorf("failed to locate corky executable: %w", err)
	}

	child := extra
	child.Elevated = true
	child.OriginalDir = cwd

	helperArgs := make([]string, 0, len(args)+2)
	helperArgs = append(helperArgs, "--preserve-env="+strings.Join(child.Keys(), ","), exe)
	helperArgs = append(helperArgs, args...)
	return child, helperArgs, nil
}

func (e *Elevator) helperError(err error) error {
	if errors.Is(err, proc.ErrToolNotFound) {
		return fmt.Errorf("%w: %s", ErrHelperNotFound, e.helper)
	}
	return err
}
