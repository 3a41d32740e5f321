// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/corky/corky/internal/elevate"
	"github.com/corky/corky/internal/install"
	"github.com/corky/corky/internal/integrity"
	"github.com/corky/corky/internal/issue"
	"github.com/corky/corky/internal/manifest"
	"github.com/corky/corky/internal/proc"
	"github.com/corky/corky/internal/services"
	"github.com/corky/corky/internal/supervisor"
	"github.com/corky/corky/pkg/types"
)

func TestNewServiceError_PanicsOnNilErr(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on nil Err, got none")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("expected string panic, got %T", r)
		}
		if msg != "ServiceError: Err must not be nil" {
			t.Fatalf("unexpected panic message: %s", msg)
		}
	}()

	newServiceError(nil, 0, "")
}

func TestServiceError_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()

	underlying := errors.New("underlying error")
	svcErr := newServiceError(underlying, 0, "")

	if svcErr.Error() != "underlying error" {
		t.Errorf("Error() = %q, want %q", svcErr.Error(), "underlying error")
	}
	if !errors.Is(svcErr, underlying) {
		t.Error("errors.Is should find underlying error via Unwrap")
	}
}

func TestRenderServiceError_NilServiceError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderServiceError(&buf, nil, "notty")

	if buf.Len() != 0 {
		t.Errorf("expected no output for nil ServiceError, got %q", buf.String())
	}
}

func TestRenderServiceError_WithoutStyleOmitsHelp(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	svcErr := newServiceError(errors.New("test"), issue.ManifestNotFoundId, "styled output\n")
	renderServiceError(&buf, svcErr, "")

	if buf.String() != "styled output\n" {
		t.Errorf("output = %q, want only the styled message", buf.String())
	}
}

func TestRenderServiceError_WithIssueHelp(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	svcErr := newServiceError(errors.New("test"), issue.NotManageableId, "styled output\n")
	renderServiceError(&buf, svcErr, "notty")

	output := buf.String()
	if !strings.HasPrefix(output, "styled output\n") {
		t.Errorf("styled message should come first, got %q", output)
	}
	if !strings.Contains(output, "is_corky_package") {
		t.Errorf("expected issue help text in output, got %q", output)
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	alpha := services.Record{Name: "corky-alpha", Scope: supervisor.ScopeUser}
	beta := services.Record{Name: "corky-beta", Scope: supervisor.ScopeSystem}

	tests := []struct {
		name      string
		err       error
		wantIssue issue.Id
		wantLines []string
	}{
		{
			name:      "elevation loop",
			err:       elevate.ErrElevationLoop,
			wantIssue: issue.ElevationLoopId,
			wantLines: []string{"Elevation loop detected"},
		},
		{
			name:      "manifest missing",
			err:       fmt.Errorf("load: %w", manifest.ErrManifestNotFound),
			wantIssue: issue.ManifestNotFoundId,
			wantLines: []string{"No Cargo.toml found in the current directory."},
		},
		{
			name:      "not a corky package",
			err:       manifest.ErrNotManageable,
			wantIssue: issue.NotManageableId,
			wantLines: []string{
				"This does not appear to be a Corky package.",
				"A Corky package must have [corky] section with is_corky_package = true in Cargo.toml.",
			},
		},
		{
			name:      "no services",
			err:       services.ErrNoServicesFound,
			wantIssue: issue.NoServicesFoundId,
			wantLines: []string{"No Corky services found. You may need to install a service first."},
		},
		{
			name:      "ambiguous auto",
			err:       &services.AmbiguousSelectionError{Selector: "auto", Candidates: []services.Record{alpha, beta}},
			wantIssue: issue.AmbiguousServiceId,
			wantLines: []string{
				"Multiple services found. Please specify one:",
				"  1. corky-alpha (user)",
				"  2. corky-beta (system)",
			},
		},
		{
			name:      "ambiguous name",
			err:       &services.AmbiguousSelectionError{Selector: "alpha", Candidates: []services.Record{alpha, alpha}},
			wantIssue: issue.AmbiguousServiceId,
			wantLines: []string{"Multiple services match the name: alpha", "Please specify which one:"},
		},
		{
			name:      "not found",
			err:       &services.NotFoundError{Name: "gamma", Available: []services.Record{alpha}},
			wantIssue: issue.ServiceNotFoundId,
			wantLines: []string{"No service found with name: gamma", "Available services:", "  corky-alpha (user)"},
		},
		{
			name:      "bulk selection",
			err:       services.ErrBulkSelection,
			wantIssue: issue.BulkSelectionId,
			wantLines: []string{"Cannot perform this operation on all services.", "Please specify a single service name."},
		},
		{
			name:      "cancelled",
			err:       services.ErrSelectionCancelled,
			wantIssue: 0,
			wantLines: []string{"Service selection cancelled."},
		},
		{
			name:      "integrity",
			err:       fmt.Errorf("verify: %w", integrity.ErrIntegrityViolation),
			wantIssue: issue.IntegrityViolationId,
		},
		{
			name:      "helper missing",
			err:       elevate.ErrHelperNotFound,
			wantIssue: issue.HelperNotFoundId,
		},
		{
			name:      "systemctl missing",
			err:       fmt.Errorf("systemctl: %w", proc.ErrToolNotFound),
			wantIssue: issue.SupervisorNotFoundId,
		},
		{
			name: "start failure",
			err: &install.StartError{
				Unit:  "corky-alpha.service",
				Code:  3,
				Hints: []string{"systemctl status corky-alpha.service"},
			},
			wantIssue: issue.ServiceStartFailedId,
			wantLines: []string{"Inspect the service with:", "systemctl status corky-alpha.service"},
		},
		{
			name:      "user scope uninstall",
			err:       fmt.Errorf("%w: corky-beta (user)", install.ErrUserScopeUninstall),
			wantIssue: 0,
			wantLines: []string{"corky-beta (user)", "systemctl --user"},
		},
		{
			name:      "artifact missing",
			err:       install.ErrArtifactNotFound,
			wantIssue: issue.BuildFailedId,
		},
		{
			name: "config",
			err: issue.NewErrorContext().
				WithOperation("load configuration").
				Wrap(errors.New("boom")).
				BuildError(),
			wantIssue: issue.ConfigLoadFailedId,
		},
		{
			name:      "unclassified",
			err:       errors.New("boom"),
			wantIssue: 0,
			wantLines: []string{"boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svcErr := classifyError(tt.err, false)
			if svcErr.IssueID != tt.wantIssue {
				t.Errorf("IssueID = %d, want %d", svcErr.IssueID, tt.wantIssue)
			}
			if !errors.Is(svcErr, tt.err) {
				t.Errorf("classified error should wrap %v", tt.err)
			}
			for _, line := range tt.wantLines {
				if !strings.Contains(svcErr.StyledMessage, line) {
					t.Errorf("StyledMessage = %q, want it to contain %q", svcErr.StyledMessage, line)
				}
			}
		})
	}
}

func TestClassifyError_KeepsServiceError(t *testing.T) {
	t.Parallel()

	orig := newServiceError(errors.New("inner"), issue.BuildFailedId, "msg\n")
	if got := classifyError(fmt.Errorf("outer: %w", orig), false); got != orig {
		t.Errorf("classifyError() = %v, want the wrapped ServiceError", got)
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want types.ExitCode
	}{
		{"exit error", &ExitError{Code: 4}, 4},
		{"exit error with zero code", &ExitError{Code: 0, Err: errors.New("x")}, types.ExitFailure},
		{"signal code", &ExitError{Code: -1}, types.ExitFailure},
		{"command error", fmt.Errorf("build: %w", &proc.CommandError{Command: "cargo build", Code: 101}), 101},
		{"start failure", &install.StartError{Unit: "corky-alpha.service", Code: 3}, 3},
		{"classified start failure", classifyError(&install.StartError{Unit: "corky-alpha.service", Code: 3}, false), 3},
		{"start failure without code", &install.StartError{Unit: "corky-alpha.service"}, types.ExitFailure},
		{"plain error", errors.New("boom"), types.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}
