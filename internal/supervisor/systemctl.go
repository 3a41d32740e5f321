// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/corky/corky/internal/proc"
	"github.com/corky/corky/pkg/types"
)

// UnitSuffix is appended to service names to form unit names.
const UnitSuffix = ".service"

type (
	// Tools names the supervisor programs. Empty fields fall back to the
	// defaults found in PATH.
	Tools struct {
		Systemctl  string
		Journalctl string
	}

	// Client issues systemctl and journalctl commands.
	Client struct {
		runner     *proc.Runner
		systemctl  string
		journalctl string
	}
)

// NewClient creates a Client that runs its commands through runner.
func NewClient(runner *proc.Runner, tools Tools) *Client {
	c := &Client{runner: runner, systemctl: "systemctl", journalctl: "journalctl"}
	if tools.Systemctl != "" {
		c.systemctl = tools.Systemctl
	}
	if tools.Journalctl != "" {
		c.journalctl = tools.Journalctl
	}
	return c
}

// UnitName appends the unit suffix to a service name unless already present.
func UnitName(service string) string {
	if strings.HasSuffix(service, UnitSuffix) {
		return service
	}
	return service + UnitSuffix
}

// ListUnitFiles returns the unit file names registered in scope that match
// pattern (e.g. "corky-*.service"). Only the first field of each line is kept.
func (c *Client) ListUnitFiles(ctx context.Context, scope Scope, pattern string) ([]string, error) {
	args := append(scope.flags(), "list-unit-files", pattern, "--no-legend")
	res, err := c.runner.Output(ctx, c.systemctl, args...)
	if err != nil {
		return nil, err
	}
	if err := proc.Check(res.ExitCode, c.systemctl, args...); err != nil {
		return nil, err
	}

	var units []string
	sc := bufio.NewScanner(bytes.NewReader(res.Stdout))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		units = append(units, fields[0])
	}
	return units, sc.Err()
}

// CommandLine returns the systemctl invocation for action on unit, for echoing.
func (c *Client) CommandLine(scope Scope, action Action, unit string) string {
	return proc.Quote(c.systemctl, c.controlArgs(scope, action, unit)...)
}

// Line renders an arbitrary systemctl invocation in scope, for echoing.
func (c *Client) Line(scope Scope, args ...string) string {
	return proc.Quote(c.systemctl, append(scope.flags(), args...)...)
}

// Control runs action on unit with the operator's terminal attached and
// returns systemctl's exit code. Verbs outside Actions are rejected before
// systemctl is spawned.
func (c *Client) Control(ctx context.Context, scope Scope, action Action, unit string) (types.ExitCode, error) {
	if err := action.Validate(); err != nil {
		return types.ExitFailure, err
	}
	return c.runner.Run(ctx, c.systemctl, c.controlArgs(scope, action, unit)...)
}

// ControlOutput runs action on unit and captures its output.
func (c *Client) ControlOutput(ctx context.Context, scope Scope, action Action, unit string) (proc.Result, error) {
	if err := action.Validate(); err != nil {
		return proc.Result{}, err
	}
	return c.runner.Output(ctx, c.systemctl, c.controlArgs(scope, action, unit)...)
}

// DaemonReload makes the service manager of scope re-read unit files.
func (c *Client) DaemonReload(ctx context.Context, scope Scope) error {
	args := append(scope.flags(), "daemon-reload")
	code, err := c.runner.Run(ctx, c.systemctl, args...)
	if err != nil {
		return err
	}
	return proc.Check(code, c.systemctl, args...)
}

// ResetFailed clears the failed state of unit. Output is discarded.
func (c *Client) ResetFailed(ctx context.Context, scope Scope, unit string) error {
	args := append(scope.flags(), "reset-failed", UnitName(unit))
	res, err := c.runner.Output(ctx, c.systemctl, args...)
	if err != nil {
		return err
	}
	return proc.Check(res.ExitCode, c.systemctl, args...)
}

// Follow streams the journal of unit until ctx is cancelled or journalctl exits.
func (c *Client) Follow(ctx context.Context, scope Scope, unit string) (types.ExitCode, error) {
	return c.runner.Run(ctx, c.journalctl, c.followArgs(scope, unit)...)
}

// FollowLine returns the journalctl invocation used by Follow, for echoing.
func (c *Client) FollowLine(scope Scope, unit string) string {
	return proc.Quote(c.journalctl, c.followArgs(scope, unit)...)
}

// InspectHints returns the commands an operator should run to diagnose a unit
// that failed to start.
func (c *Client) InspectHints(unit string) []string {
	unit = UnitName(unit)
	return []string{
		proc.Quote(c.systemctl, "status", unit),
		proc.Quote(c.journalctl, "-u", unit, "-e"),
	}
}

func (c *Client) followArgs(scope Scope, unit string) []string {
	return append(scope.flags(), "-u", UnitName(unit), "-f")
}

func (c *Client) controlArgs(scope Scope, action Action, unit string) []string {
	return append(scope.flags(), string(action), UnitName(unit))
}
