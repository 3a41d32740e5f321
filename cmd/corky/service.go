// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corky/corky/internal/elevate"
	"github.com/corky/corky/internal/install"
	"github.com/corky/corky/internal/services"
	"github.com/corky/corky/internal/supervisor"

	"github.com/spf13/cobra"
)

var actionShort = map[supervisor.Action]string{
	supervisor.ActionStatus:  "Show the status of a service",
	supervisor.ActionStart:   "Start a service",
	supervisor.ActionStop:    "Stop a service",
	supervisor.ActionRestart: "Restart a service",
	supervisor.ActionEnable:  "Enable a service at boot",
	supervisor.ActionDisable: "Disable a service at boot",
}

// newServiceCommand builds the command proxying action to systemctl.
func newServiceCommand(app *App, action supervisor.Action) *cobra.Command {
	return &cobra.Command{
		Use:   action.String() + " [service]",
		Short: actionShort[action],
		Long: actionShort[action] + `.

The service argument is a name with or without the corky- prefix, or one
of auto, interactive. Without it the only installed service is used, and
the operator is asked to choose when there are several.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSelectors(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.control(cmd.Context(), action, args)
		},
	}
}

// control resolves the target and runs action on it, re-executing through
// the privilege helper first when the scope needs root.
func (a *App) control(ctx context.Context, action supervisor.Action, args []string) error {
	s, err := a.session(ctx)
	if err != nil {
		return classifyError(err, a.flags.verbose)
	}

	rec, err := s.target(ctx, args)
	if err != nil {
		return classifyError(err, a.flags.verbose)
	}

	if done, err := a.delegate(ctx, s, elevate.OperationFor(action), rec, action.String()); done {
		return err
	}

	fmt.Fprintf(a.stdout, "Running: %s\n", s.systemd.CommandLine(rec.Scope, action, rec.Name))

	if action.Interactive() {
		code, err := s.systemd.Control(ctx, rec.Scope, action, rec.Name)
		if err != nil {
			return classifyError(err, a.flags.verbose)
		}
		if !code.IsSuccess() {
			return &ExitError{Code: code}
		}
		return nil
	}

	res, err := s.systemd.ControlOutput(ctx, rec.Scope, action, rec.Name)
	if err != nil {
		return classifyError(err, a.flags.verbose)
	}
	if len(res.Stdout) > 0 {
		fmt.Fprintln(a.stdout, string(res.Stdout))
	}
	if len(res.Stderr) > 0 {
		fmt.Fprintln(a.stderr, string(res.Stderr))
	}

	if !res.ExitCode.IsSuccess() {
		fmt.Fprintf(a.stderr, "Failed to %s service %s. Exit code: %d\n", action, rec.Name, res.ExitCode)
		return &ExitError{Code: res.ExitCode}
	}
	fmt.Fprintln(a.stdout, SuccessStyle.Render(fmt.Sprintf("Service %s successfully %s.", rec.Name, action.PastTense())))
	return nil
}

// delegate re-executes corky through the privilege helper when op on rec
// needs root. done reports whether the child handled the operation.
func (a *App) delegate(ctx context.Context, s *session, op elevate.Operation, rec services.Record, args ...string) (done bool, err error) {
	if !s.elevator.NeedsElevation(op, rec.Scope) {
		return false, nil
	}

	if !s.current.Elevated {
		fmt.Fprintln(a.stdout, install.RootNotice)
	}
	carry := s.current.WithService(rec.Ref()).WithConfigFile(s.cfg.Path)
	code, err := s.elevator.Elevate(ctx, a.childArgs(args...), carry)
	if err != nil {
		return true, classifyError(err, a.flags.verbose)
	}
	if !code.IsSuccess() {
		return true, &ExitError{Code: code}
	}
	return true, nil
}

func newLogsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logs [service]",
		Short: "Follow the journal of a service",
		Long: `Follow the journal of a service with journalctl until interrupted.

The service argument is resolved the same way as for status.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSelectors(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.session(ctx)
			if err != nil {
				return classifyError(err, app.flags.verbose)
			}
			rec, err := s.target(ctx, args)
			if err != nil {
				return classifyError(err, app.flags.verbose)
			}
			if done, err := app.delegate(ctx, s, elevate.OpLogs, rec, "logs"); done {
				return err
			}

			slog.Debug("following journal", "command", s.systemd.FollowLine(rec.Scope, rec.Name))
			code, err := s.systemd.Follow(ctx, rec.Scope, rec.Name)
			if err != nil {
				return classifyError(err, app.flags.verbose)
			}
			if !code.IsSuccess() && ctx.Err() == nil {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
}

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := app.session(ctx)
			if err != nil {
				return classifyError(err, app.flags.verbose)
			}

			records := s.directory.List(ctx)
			if len(records) == 0 {
				fmt.Fprintln(app.stderr, "No Corky services found. You may need to install a service first.")
				app.warnIfNotSystemd(ctx)
				return nil
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render("Available Corky Services:"))
			fmt.Fprintln(app.stdout, "-------------------------")
			for _, rec := range records {
				fmt.Fprintf(app.stdout, "  %s\n", rec)
			}
			return nil
		},
	}
}

// warnIfNotSystemd explains an empty listing on hosts not booted with systemd.
func (a *App) warnIfNotSystemd(ctx context.Context) {
	ok, err := supervisor.IsSystemd(ctx, a.initName)
	if err != nil {
		slog.Debug("init detection failed", "error", err)
		return
	}
	if !ok {
		slog.Warn("PID 1 is not systemd; corky services cannot be managed on this host")
	}
}
