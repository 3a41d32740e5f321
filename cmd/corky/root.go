// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/corky/corky/internal/supervisor"
	"github.com/corky/corky/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "corky",
		Short: "Install and manage corky- systemd services",
		Long: TitleStyle.Render("corky") + SubtitleStyle.Render(" - Install and manage corky- systemd services") + `

corky builds the Corky package in the current directory, installs its
binary and a systemd unit, and proxies the everyday systemctl and
journalctl operations for every installed corky- service. Operations
that need root re-execute corky through sudo.

` + SubtitleStyle.Render("Examples:") + `
  corky install             Build and install the package in this directory
  corky list                List installed services
  corky status alpha        Show the status of corky-alpha
  corky restart             Restart the only installed service
  corky logs interactive    Pick a service and follow its journal
  corky uninstall alpha     Remove corky-alpha`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			app.setupLogging()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.configFile, "config", "", "config file (default is $HOME/.config/corky/config.cue)")

	rootCmd.AddCommand(newInstallCommand(app))
	rootCmd.AddCommand(newUninstallCommand(app))
	for _, action := range supervisor.Actions() {
		rootCmd.AddCommand(newServiceCommand(app, action))
	}
	rootCmd.AddCommand(newLogsCommand(app))
	rootCmd.AddCommand(newListCommand(app))
	rootCmd.AddCommand(newCompletionCommand(app))
	rootCmd.AddCommand(newCompletionItemsCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	return rootCmd
}

// run executes the command tree with args and returns the process exit code.
func run(ctx context.Context, app *App, args []string) types.ExitCode {
	rootCmd := newRootCommand(app)
	rootCmd.SetArgs(args)

	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	)
	if err == nil {
		return types.ExitSuccess
	}
	return exitCodeFor(err)
}

// Execute runs corky with the process arguments and exits.
// This is called by main.main().
func Execute() {
	os.Exit(int(run(context.Background(), NewApp(Dependencies{}), os.Args[1:])))
}

// handleError prints err the way corky reports failures. Errors that were
// already reported print nothing; anything unclassified falls back to fang.
func (a *App) handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(w, svcErr, a.issueStyle())
		return
	}

	fang.DefaultErrorHandler(w, styles, err)
}

// issueStyle picks the glamour style for issue help text.
func (a *App) issueStyle() string {
	if f, ok := a.stderr.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "dark"
	}
	return "notty"
}
