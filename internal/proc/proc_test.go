// SPDX-License-Identifier: MPL-2.0

package proc

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/corky/corky/internal/proc/proctest"
	"github.com/corky/corky/pkg/types"
)

func TestHelperProcess(t *testing.T) { proctest.HelperProcess(t) }

func newTestRunner(t *testing.T, rec *proctest.Recorder) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	r := NewRunner(
		WithExecCommand(rec.CommandFunc(t)),
		WithStdio(nil, &stdout, &stderr),
	)
	return r, &stdout, &stderr
}

func TestRunner_RunPropagatesExitCode(t *testing.T) {
	t.Parallel()

	rec := proctest.NewRecorder().On("systemctl status", proctest.Response{ExitCode: 3, Stdout: "inactive\n"})
	r, stdout, _ := newTestRunner(t, rec)

	code, err := r.Run(context.Background(), "systemctl", "status", "corky-alpha.service")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 3 {
		t.Errorf("Run() code = %d, want 3", code)
	}
	if stdout.String() != "inactive\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunner_RunEnvAppendsToChildOnly(t *testing.T) {
	t.Parallel()

	rec := proctest.NewRecorder()
	r, _, _ := newTestRunner(t, rec)

	if _, err := r.RunEnv(context.Background(), []string{"CORKY_ELEVATED=1"}, "sudo", "-v"); err != nil {
		t.Fatalf("RunEnv() error = %v", err)
	}

	inv, ok := rec.Find("sudo -v")
	if !ok {
		t.Fatal("sudo was not invoked")
	}
	if v, ok := inv.EnvValue("CORKY_ELEVATED"); !ok || v != "1" {
		t.Errorf("child env CORKY_ELEVATED = %q, %v", v, ok)
	}
}

func TestRunner_OutputCaptures(t *testing.T) {
	t.Parallel()

	rec := proctest.NewRecorder()
	rec.Default = proctest.Response{ExitCode: 1, Stdout: "out", Stderr: "err"}
	r, _, _ := newTestRunner(t, rec)

	res, err := r.Output(context.Background(), "systemctl", "stop", "corky-alpha.service")
	if err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if res.ExitCode != 1 || string(res.Stdout) != "out" || string(res.Stderr) != "err" {
		t.Errorf("Output() = %+v", res)
	}
}

func TestRunner_ToolNotFound(t *testing.T) {
	t.Parallel()

	r := NewRunner(WithStdio(nil, &bytes.Buffer{}, &bytes.Buffer{}))
	_, err := r.Run(context.Background(), "corky-definitely-not-a-real-tool")
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("Run() error = %v, want ErrToolNotFound", err)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	if err := Check(types.ExitSuccess, "cargo", "build"); err != nil {
		t.Errorf("Check(0) = %v, want nil", err)
	}

	err := Check(101, "cargo", "build", "--release")
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("Check(101) = %v, want ErrCommandFailed", err)
	}
	code, ok := ExitCodeOf(err)
	if !ok || code != 101 {
		t.Errorf("ExitCodeOf() = %d, %v; want 101, true", code, ok)
	}
	if err.Error() != "cargo build --release exited with status 101" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"systemctl", []string{"--user", "status", "corky-alpha.service"}, "systemctl --user status corky-alpha.service"},
		{"systemctl", []string{"list-unit-files", "corky-*.service"}, "systemctl list-unit-files 'corky-*.service'"},
		{"cp", []string{"my file"}, "cp 'my file'"},
	}

	for _, tt := range tests {
		if got := Quote(tt.name, tt.args...); got != tt.want {
			t.Errorf("Quote(%q, %q) = %q, want %q", tt.name, tt.args, got, tt.want)
		}
	}
}
