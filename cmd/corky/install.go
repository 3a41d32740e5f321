// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/corky/corky/internal/install"
	"github.com/corky/corky/internal/services"

	"github.com/spf13/cobra"
)

func newInstallCommand(app *App) *cobra.Command {
	var dryRun bool

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Build the package in the current directory and install it as a service",
		Long: `Build the Corky package in the current directory and install it as a
system service.

The package is built as the invoking user. corky then re-executes itself
through sudo, verifies the built artifact against the checksum taken
before elevation, installs the binary and unit file, and enables and
starts the service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := app.session(ctx)
			if err != nil {
				return classifyError(err, app.flags.verbose)
			}
			outcome, err := s.workflow.Install(ctx, install.InstallOptions{
				DryRun: dryRun,
				Args:   app.childArgs("install"),
			})
			return app.finish(outcome, err)
		},
	}

	installCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the steps without changing anything")

	return installCmd
}

func newUninstallCommand(app *App) *cobra.Command {
	var dryRun bool

	uninstallCmd := &cobra.Command{
		Use:   "uninstall [service]",
		Short: "Stop and remove an installed service",
		Long: `Stop, disable and remove an installed service.

Without an argument the service is derived from the package in the current
directory. A service argument is resolved against the installed services.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSelectors(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.session(ctx)
			if err != nil {
				return classifyError(err, app.flags.verbose)
			}
			outcome, err := s.workflow.Uninstall(ctx, install.UninstallOptions{
				DryRun:   dryRun,
				Selector: services.SelectorFromArgs(args),
				Args:     app.childArgs("uninstall"),
			})
			return app.finish(outcome, err)
		},
	}

	uninstallCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the steps without changing anything")

	return uninstallCmd
}

// finish reports a workflow outcome. A delegated run already printed its own
// output, so only its exit code is carried.
func (a *App) finish(outcome install.Outcome, err error) error {
	if err != nil {
		if code := outcome.ExitCode; !code.IsSuccess() {
			return &ExitError{Code: code, Err: classifyError(err, a.flags.verbose)}
		}
		return classifyError(err, a.flags.verbose)
	}

	if warnings := outcome.Report.WarningList(); len(warnings) > 0 {
		fmt.Fprintln(a.stderr, WarningStyle.Render(fmt.Sprintf("Completed with %d warning(s):", len(warnings))))
		for _, w := range warnings {
			fmt.Fprintf(a.stderr, "  - %s\n", w)
		}
	}

	if outcome.Delegated && !outcome.ExitCode.IsSuccess() {
		return &ExitError{Code: outcome.ExitCode}
	}
	return nil
}
