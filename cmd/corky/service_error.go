// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/corky/corky/internal/elevate"
	"github.com/corky/corky/internal/install"
	"github.com/corky/corky/internal/integrity"
	"github.com/corky/corky/internal/issue"
	"github.com/corky/corky/internal/manifest"
	"github.com/corky/corky/internal/proc"
	"github.com/corky/corky/internal/services"
	"github.com/corky/corky/pkg/types"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. When the CLI layer receives a ServiceError, it renders the
// styled error message (if present) before the issue help text.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
// All construction sites must use this instead of struct literals.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// renderServiceError renders a ServiceError in the CLI layer.
// It prints any styled message first, then the issue help section rendered
// with the given glamour style. An empty style omits the help section.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, style string) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 || style == "" {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(style)
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// classifyError maps a workflow or resolution failure to an issue catalog
// entry and the plain message printed above it.
func classifyError(err error, verbose bool) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var (
		ambiguous *services.AmbiguousSelectionError
		notFound  *services.NotFoundError
		startErr  *install.StartError
	)

	switch {
	case errors.Is(err, elevate.ErrElevationLoop):
		return newServiceError(err, issue.ElevationLoopId, errorLine(
			"Elevation loop detected: corky is already running with elevated privileges but is not root."))
	case errors.Is(err, manifest.ErrManifestNotFound):
		return newServiceError(err, issue.ManifestNotFoundId, errorLine(
			"No Cargo.toml found in the current directory."))
	case errors.Is(err, manifest.ErrNotManageable):
		return newServiceError(err, issue.NotManageableId, errorLine("This does not appear to be a Corky package.")+
			"Only Corky packages can be installed with corky.\n"+
			"A Corky package must have [corky] section with is_corky_package = true in Cargo.toml.\n")
	case errors.Is(err, services.ErrNoServicesFound):
		return newServiceError(err, issue.NoServicesFoundId,
			"No Corky services found. You may need to install a service first.\n")
	case errors.As(err, &ambiguous):
		var sb strings.Builder
		if ambiguous.Selector != "" && ambiguous.Selector != "auto" {
			fmt.Fprintf(&sb, "Multiple services match the name: %s\nPlease specify which one:\n", ambiguous.Selector)
		} else {
			sb.WriteString("Multiple services found. Please specify one:\n")
		}
		for i, rec := range ambiguous.Candidates {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, rec)
		}
		return newServiceError(err, issue.AmbiguousServiceId, sb.String())
	case errors.As(err, &notFound):
		var sb strings.Builder
		fmt.Fprintf(&sb, "No service found with name: %s\n", notFound.Name)
		if len(notFound.Available) > 0 {
			sb.WriteString("Available services:\n")
			for _, rec := range notFound.Available {
				fmt.Fprintf(&sb, "  %s\n", rec)
			}
		}
		return newServiceError(err, issue.ServiceNotFoundId, sb.String())
	case errors.Is(err, services.ErrBulkSelection):
		return newServiceError(err, issue.BulkSelectionId,
			"Cannot perform this operation on all services.\nPlease specify a single service name.\n")
	case errors.Is(err, services.ErrSelectionCancelled):
		return newServiceError(err, 0, "Service selection cancelled.\n")
	case errors.Is(err, integrity.ErrIntegrityViolation):
		return newServiceError(err, issue.IntegrityViolationId, errorLine(formatErrorForDisplay(err, verbose)))
	case errors.Is(err, elevate.ErrHelperNotFound):
		return newServiceError(err, issue.HelperNotFoundId, errorLine(formatErrorForDisplay(err, verbose)))
	case errors.Is(err, proc.ErrToolNotFound):
		return newServiceError(err, issue.SupervisorNotFoundId, errorLine(formatErrorForDisplay(err, verbose)))
	case errors.As(err, &startErr):
		var sb strings.Builder
		sb.WriteString(errorLine(startErr.Error()))
		sb.WriteString("Inspect the service with:\n")
		for _, hint := range startErr.Hints {
			fmt.Fprintf(&sb, "  %s\n", CmdStyle.Render(hint))
		}
		return newServiceError(err, issue.ServiceStartFailedId, sb.String())
	case errors.Is(err, install.ErrUserScopeUninstall):
		return newServiceError(err, 0, errorLine(err.Error())+
			"corky only uninstalls the system services it installs.\n"+
			"Remove user units with 'systemctl --user'.\n")
	case errors.Is(err, install.ErrArtifactNotFound):
		return newServiceError(err, issue.BuildFailedId, errorLine(formatErrorForDisplay(err, verbose)))
	case errors.Is(err, os.ErrPermission):
		return newServiceError(err, issue.PermissionDeniedId, errorLine(formatErrorForDisplay(err, verbose)))
	case isConfigError(err):
		return newServiceError(err, issue.ConfigLoadFailedId, errorLine(formatErrorForDisplay(err, verbose)))
	default:
		return newServiceError(err, 0, errorLine(formatErrorForDisplay(err, verbose)))
	}
}

// exitCodeFor returns the process exit code for err: the child's code when a
// child process failed, systemctl's code when a freshly installed service
// failed to start, otherwise 1.
func exitCodeFor(err error) types.ExitCode {
	var (
		exitErr  *ExitError
		startErr *install.StartError
	)
	if errors.As(err, &exitErr) && !exitErr.Code.IsSuccess() {
		return exitErr.Code.OrFailure()
	}
	if errors.As(err, &startErr) && !startErr.Code.IsSuccess() {
		return startErr.Code.OrFailure()
	}
	if code, ok := proc.ExitCodeOf(err); ok && !code.IsSuccess() {
		return code.OrFailure()
	}
	return types.ExitFailure
}

func isConfigError(err error) bool {
	var ae *issue.ActionableError
	return errors.As(err, &ae) && strings.HasSuffix(ae.Operation, "configuration")
}

func errorLine(msg string) string {
	return fmt.Sprintf("%s %s\n", ErrorStyle.Render("Error:"), msg)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
