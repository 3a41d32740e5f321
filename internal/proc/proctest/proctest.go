// SPDX-License-Identifier: MPL-2.0

// Package proctest provides a command recorder for tests that exercise code
// built on proc.Runner. Recorded commands re-execute the test binary through
// the TestHelperProcess pattern, so every package using the recorder must
// declare:
//
//	func TestHelperProcess(t *testing.T) { proctest.HelperProcess(t) }
package proctest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
)

const (
	envWantHelper = "GO_WANT_HELPER_PROCESS"
	envExitCode   = "GO_HELPER_EXIT_CODE"
	envStdout     = "GO_HELPER_STDOUT"
	envStderr     = "GO_HELPER_STDERR"
)

type (
	// Response is the scripted behavior of a recorded command.
	Response struct {
		ExitCode int
		Stdout   string
		Stderr   string
	}

	// Invocation is a single recorded command.
	Invocation struct {
		// Name is the program name (e.g., "systemctl", "sudo").
		Name string
		// Args are the arguments passed to the program.
		Args []string
		// Cmd is the constructed command; its Env is final once the command ran.
		Cmd *exec.Cmd
	}

	rule struct {
		match    string
		response Response
	}

	// Recorder captures commands and answers them with scripted responses.
	// Rules are matched in registration order against "name arg1 arg2 ...";
	// the first rule whose substring matches wins, otherwise Default applies.
	Recorder struct {
		Invocations []Invocation
		Default     Response
		rules       []rule
	}
)

// NewRecorder creates a recorder whose commands succeed silently by default.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// On registers a response for commands whose command line contains match.
func (r *Recorder) On(match string, resp Response) *Recorder {
	r.rules = append(r.rules, rule{match: match, response: resp})
	return r
}

// CommandFunc returns a function that can replace exec.CommandContext.
func (r *Recorder) CommandFunc(t testing.TB) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		resp := r.responseFor(name, args)

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		//nolint:gosec // TestHelperProcess is a test-only pattern
		cmd := exec.Command(os.Args[0], cs...) //nolint:noctx // exec.Command used intentionally for test helper
		cmd.Env = []string{
			envWantHelper + "=1",
			fmt.Sprintf("%s=%d", envExitCode, resp.ExitCode),
			envStdout + "=" + resp.Stdout,
			envStderr + "=" + resp.Stderr,
		}

		r.Invocations = append(r.Invocations, Invocation{Name: name, Args: args, Cmd: cmd})
		return cmd
	}
}

// Lines returns every recorded invocation rendered as "name arg1 arg2 ...".
func (r *Recorder) Lines() []string {
	lines := make([]string, 0, len(r.Invocations))
	for _, inv := range r.Invocations {
		lines = append(lines, inv.Line())
	}
	return lines
}

// Find returns the first invocation whose command line contains match.
func (r *Recorder) Find(match string) (Invocation, bool) {
	for _, inv := range r.Invocations {
		if strings.Contains(inv.Line(), match) {
			return inv, true
		}
	}
	return Invocation{}, false
}

// AssertInvocationCount verifies the number of command invocations.
func (r *Recorder) AssertInvocationCount(t testing.TB, expected int) {
	t.Helper()
	if len(r.Invocations) != expected {
		t.Errorf("expected %d invocations, got %d: %q", expected, len(r.Invocations), r.Lines())
	}
}

// AssertCalled verifies some invocation's command line contains match.
func (r *Recorder) AssertCalled(t testing.TB, match string) {
	t.Helper()
	if _, ok := r.Find(match); !ok {
		t.Errorf("expected a command containing %q, got: %q", match, r.Lines())
	}
}

// AssertNotCalled verifies no invocation's command line contains match.
func (r *Recorder) AssertNotCalled(t testing.TB, match string) {
	t.Helper()
	if inv, ok := r.Find(match); ok {
		t.Errorf("expected no command containing %q, got %q", match, inv.Line())
	}
}

// Line renders the invocation as "name arg1 arg2 ...".
func (i Invocation) Line() string {
	return strings.TrimSpace(i.Name + " " + strings.Join(i.Args, " "))
}

// EnvValue looks up key in the environment the command was started with.
func (i Invocation) EnvValue(key string) (string, bool) {
	prefix := key + "="
	for _, kv := range i.Cmd.Env {
		if strings.HasPrefix(kv, prefix) {
			return strings.TrimPrefix(kv, prefix), true
		}
	}
	return "", false
}

func (r *Recorder) responseFor(name string, args []string) Response {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	for _, rl := range r.rules {
		if strings.Contains(line, rl.match) {
			return rl.response
		}
	}
	return r.Default
}

// HelperProcess is the body of TestHelperProcess. It writes the scripted
// output and exits with the scripted code. It returns immediately when the
// test binary was not started by a Recorder.
func HelperProcess(t *testing.T) {
	t.Helper()
	if os.Getenv(envWantHelper) != "1" {
		return
	}

	if stdout := os.Getenv(envStdout); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv(envStderr); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}

	code, err := strconv.Atoi(os.Getenv(envExitCode))
	if err != nil {
		code = 0
	}
	os.Exit(code)
}
