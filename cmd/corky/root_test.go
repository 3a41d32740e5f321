// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/corky/corky/internal/issue"

	"github.com/charmbracelet/fang"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"

		if got := getVersionString(); got != "dev (built from source)" {
			t.Errorf("getVersionString() = %q, want %q", got, "dev (built from source)")
		}
	})
}

func TestHandleError(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	app := NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &stderr})

	t.Run("reported exit error prints nothing", func(t *testing.T) {
		var w bytes.Buffer
		app.handleError(&w, fang.Styles{}, &ExitError{Code: 3})
		if w.Len() != 0 {
			t.Errorf("expected no output, got %q", w.String())
		}
	})

	t.Run("service error renders message and help", func(t *testing.T) {
		var w bytes.Buffer
		err := &ExitError{Code: 2, Err: newServiceError(errors.New("x"), issue.BulkSelectionId, "Cannot perform this operation on all services.\n")}
		app.handleError(&w, fang.Styles{}, err)
		out := w.String()
		if !strings.HasPrefix(out, "Cannot perform this operation on all services.\n") {
			t.Errorf("output = %q, want the styled message first", out)
		}
		if !strings.Contains(out, "Please specify a single service name.") {
			t.Errorf("output = %q, want the issue help", out)
		}
	})
}

func TestIssueStyle_NonTerminal(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	if got := app.issueStyle(); got != "notty" {
		t.Errorf("issueStyle() = %q, want %q", got, "notty")
	}
}

func TestRootCommand_Tree(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	root := newRootCommand(app)

	want := []string{
		"install", "uninstall", "status", "start", "stop", "restart", "enable", "disable",
		"logs", "list", "completion", "completion-items", "config",
	}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("command %q not registered", name)
		}
	}
	if cmd, _, _ := root.Find([]string{"completion-items"}); cmd != nil && !cmd.Hidden {
		t.Error("completion-items should be hidden")
	}
}
