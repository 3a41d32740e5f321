// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/corky/corky/internal/proc"
	"github.com/corky/corky/internal/proc/proctest"
)

func TestHelperProcess(t *testing.T) { proctest.HelperProcess(t) }

func newTestClient(t *testing.T, rec *proctest.Recorder) (*Client, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	runner := proc.NewRunner(proc.WithExecCommand(rec.CommandFunc(t)), proc.WithStdio(nil, &out, &out))
	return NewClient(runner, Tools{}), &out
}

func TestClient_ListUnitFiles(t *testing.T) {
	t.Parallel()

	rec := proctest.NewRecorder().On("--user list-unit-files", proctest.Response{
		Stdout: "corky-alpha.service enabled enabled\n\ncorky-beta.service  disabled enabled\n",
	})
	c, _ := newTestClient(t, rec)

	units, err := c.ListUnitFiles(context.Background(), ScopeUser, "corky-*.service")
	if err != nil {
		t.Fatalf("ListUnitFiles() error = %v", err)
	}

	want := []string{"corky-alpha.service", "corky-beta.service"}
	if !slices.Equal(units, want) {
		t.Errorf("ListUnitFiles() = %v, want %v", units, want)
	}
	rec.AssertCalled(t, "systemctl --user list-unit-files corky-*.service --no-legend")
}

func TestClient_ListUnitFilesSystemScopeHasNoUserFlag(t *testing.T) {
	t.Parallel()

	rec := proctest.NewRecorder()
	c, _ := newTestClient(t, rec)

	if _, err := c.ListUnitFiles(context.Background(), ScopeSystem, "corky-*.service"); err != nil {
		t.Fatalf("ListUnitFiles() error = %v", err)
	}
	rec.AssertNotCalled(t, "--user")
	rec.AssertCalled(t, "systemctl list-unit-files corky-*.service --no-legend")
}

func TestClient_ListUnitFilesFailure(t *testing.T) {
	t.Parallel()

	rec := proctest.NewRecorder().On("list-unit-files", proctest.Response{ExitCode: 1, Stderr: "Failed to connect to bus"})
	c, _ := newTestClient(t, rec)

	_, err := c.ListUnitFiles(context.Background(), ScopeUser, "corky-*.service")
	if !errors.Is(err, proc.ErrCommandFailed) {
		t.Errorf("ListUnitFiles() error = %v, want ErrCommandFailed", err)
	}
}

func TestClient_Control(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scope  Scope
		action Action
		unit   string
		want   string
	}{
		{"user status", ScopeUser, ActionStatus, "corky-alpha", "systemctl --user status corky-alpha.service"},
		{"system restart", ScopeSystem, ActionRestart, "corky-beta.service", "systemctl restart corky-beta.service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := proctest.NewRecorder().On(tt.want, proctest.Response{ExitCode: 3})
			c, _ := newTestClient(t, rec)

			code, err := c.Control(context.Background(), tt.scope, tt.action, tt.unit)
			if err != nil {
				t.Fatalf("Control() error = %v", err)
			}
			if code != 3 {
				t.Errorf("Control() code = %d, want 3", code)
			}
			rec.AssertInvocationCount(t, 1)
			rec.AssertCalled(t, tt.want)

			if got := c.CommandLine(tt.scope, tt.action, tt.unit); got != tt.want {
				t.Errorf("CommandLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_ControlOutputCaptures(t *testing.T) {
	t.Parallel()

	rec := proctest.NewRecorder().On("start", proctest.Response{Stderr: "Job failed", ExitCode: 1})
	c, out := newTestClient(t, rec)

	res, err := c.ControlOutput(context.Background(), ScopeSystem, ActionStart, "corky-alpha")
	if err != nil {
		t.Fatalf("ControlOutput() error = %v", err)
	}
	if res.ExitCode != 1 || string(res.Stderr) != "Job failed" {
		t.Errorf("ControlOutput() = %+v", res)
	}
	if out.Len() != 0 {
		t.Errorf("captured output leaked to terminal: %q", out.String())
	}
}

func TestClient_ControlRejectsUnknownVerb(t *testing.T) {
	t.Parallel()

	rec := proctest.NewRecorder()
	c, _ := newTestClient(t, rec)

	code, err := c.Control(context.Background(), ScopeSystem, Action("kill"), "corky-alpha")
	if !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Control() error = %v, want ErrInvalidAction", err)
	}
	if code.IsSuccess() {
		t.Error("Control() should not report success for a rejected verb")
	}

	var invalid *InvalidActionError
	if _, err := c.ControlOutput(context.Background(), ScopeUser, Action("mask"), "corky-alpha"); !errors.As(err, &invalid) || invalid.Value != "mask" {
		t.Errorf("ControlOutput() error = %v, want InvalidActionError for mask", err)
	}
	rec.AssertInvocationCount(t, 0)
}

func TestClient_ResetFailedSuppressesOutput(t *testing.T) {
	t.Parallel()

	rec := proctest.NewRecorder().On("reset-failed", proctest.Response{Stderr: "Unit not loaded.", ExitCode: 1})
	c, out := newTestClient(t, rec)

	err := c.ResetFailed(context.Background(), ScopeSystem, "corky-alpha")
	if !errors.Is(err, proc.ErrCommandFailed) {
		t.Errorf("ResetFailed() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("reset-failed output should be suppressed, got %q", out.String())
	}
}

func TestClient_Follow(t *testing.T) {
	t.Parallel()

	rec := proctest.NewRecorder()
	c, _ := newTestClient(t, rec)

	if _, err := c.Follow(context.Background(), ScopeUser, "corky-alpha"); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	rec.AssertCalled(t, "journalctl --user -u corky-alpha.service -f")
	if got := c.FollowLine(ScopeSystem, "corky-alpha"); got != "journalctl -u corky-alpha.service -f" {
		t.Errorf("FollowLine() = %q", got)
	}
}

func TestClient_CustomTools(t *testing.T) {
	t.Parallel()

	rec := proctest.NewRecorder()
	var out bytes.Buffer
	runner := proc.NewRunner(proc.WithExecCommand(rec.CommandFunc(t)), proc.WithStdio(nil, &out, &out))
	c := NewClient(runner, Tools{Systemctl: "/opt/bin/systemctl", Journalctl: "/opt/bin/journalctl"})

	if err := c.DaemonReload(context.Background(), ScopeSystem); err != nil {
		t.Fatalf("DaemonReload() error = %v", err)
	}
	rec.AssertCalled(t, "/opt/bin/systemctl daemon-reload")

	hints := c.InspectHints("corky-alpha")
	want := []string{
		"/opt/bin/systemctl status corky-alpha.service",
		"/opt/bin/journalctl -u corky-alpha.service -e",
	}
	if !slices.Equal(hints, want) {
		t.Errorf("InspectHints() = %v, want %v", hints, want)
	}
}

func TestUnitName(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"corky-alpha":         "corky-alpha.service",
		"corky-alpha.service": "corky-alpha.service",
	} {
		if got := UnitName(in); got != want {
			t.Errorf("UnitName(%q) = %q, want %q", in, got, want)
		}
	}
}
