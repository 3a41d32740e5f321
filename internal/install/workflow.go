// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/corky/corky/internal/elevate"
	"github.com/corky/corky/internal/integrity"
	"github.com/corky/corky/internal/manifest"
	"github.com/corky/corky/internal/proc"
	"github.com/corky/corky/internal/services"
	"github.com/corky/corky/internal/supervisor"
	"github.com/corky/corky/pkg/types"
)

const (
	unitMode os.FileMode = 0o644

	// RootNotice is printed before re-executing through the privilege helper.
	RootNotice = "This operation requires root privileges."
)

var (
	// ErrArtifactNotFound is returned when the build did not produce the
	// expected binary.
	ErrArtifactNotFound = errors.New("build artifact not found")

	// ErrServiceStartFailed is the sentinel error wrapped by StartError.
	ErrServiceStartFailed = errors.New("service failed to start")

	// ErrFileAbsent is recorded as a warning when uninstall finds nothing to remove.
	ErrFileAbsent = errors.New("file not present")

	// ErrUserScopeUninstall is returned when uninstall resolves to a user
	// unit. Install only writes system units, so user units are left to
	// their owner.
	ErrUserScopeUninstall = errors.New("cannot uninstall a user service")
)

type (
	// BuildConfig is the command that produces the release artifact.
	BuildConfig struct {
		Command string
		Args    []string
	}

	// Config is the workflow configuration.
	Config struct {
		Layout     manifest.Layout
		Build      BuildConfig
		Unit       UnitConfig
		Restorecon string
		// ConfigFile is forwarded to the elevated phase.
		ConfigFile string
	}

	// Option configures a Workflow.
	Option func(*Workflow)

	// Workflow runs install and uninstall.
	Workflow struct {
		cfg      Config
		runner   *proc.Runner
		systemd  *supervisor.Client
		elevator *elevate.Elevator
		resolver *services.Resolver
		out      io.Writer
		getwd    func() (string, error)
		chdir    func(string) error
		account  func() (Account, error)
	}

	// InstallOptions controls Install.
	InstallOptions struct {
		DryRun bool
		// Args re-executes corky in the elevated phase (e.g. ["install"]).
		Args []string
	}

	// UninstallOptions controls Uninstall.
	UninstallOptions struct {
		DryRun bool
		// Selector names the service to remove. When nil the target comes from
		// the manifest in the working directory.
		Selector *services.Selector
		Args     []string
	}

	// Outcome is the result of a workflow run. When the elevated phase ran in
	// a child process, Delegated is set and ExitCode is the child's.
	Outcome struct {
		Report    Report
		Delegated bool
		ExitCode  types.ExitCode
	}

	// StartError reports a unit that was installed but did not start.
	StartError struct {
		Unit  string
		Code  types.ExitCode
		Hints []string
	}

	// removal is what uninstall deletes.
	removal struct {
		record   services.Record
		binary   string
		unitFile string
	}
)

// Error implements the error interface.
func (e *StartError) Error() string {
	return fmt.Sprintf("%s failed to start (systemctl exited with status %d)", e.Unit, e.Code)
}

// Unwrap returns ErrServiceStartFailed so callers can use errors.Is.
func (e *StartError) Unwrap() error { return ErrServiceStartFailed }

// WithOutput sets where progress lines are written.
func WithOutput(w io.Writer) Option {
	return func(wf *Workflow) { wf.out = w }
}

// WithGetwd overrides how the working directory is read.
func WithGetwd(fn func() (string, error)) Option {
	return func(wf *Workflow) { wf.getwd = fn }
}

// WithChdir overrides how the elevated phase returns to the caller's directory.
func WithChdir(fn func(string) error) Option {
	return func(wf *Workflow) { wf.chdir = fn }
}

// WithAccount overrides how the service account is determined.
func WithAccount(fn func() (Account, error)) Option {
	return func(wf *Workflow) { wf.account = fn }
}

// NewWorkflow creates a Workflow. resolver is only used by Uninstall with a selector.
func NewWorkflow(cfg Config, runner *proc.Runner, systemd *supervisor.Client, elevator *elevate.Elevator, resolver *services.Resolver, opts ...Option) *Workflow {
	wf := &Workflow{
		cfg:      cfg,
		runner:   runner,
		systemd:  systemd,
		elevator: elevator,
		resolver: resolver,
		out:      os.Stdout,
		getwd:    os.Getwd,
		chdir:    os.Chdir,
		account: func() (Account, error) {
			return LookupAccount(os.LookupEnv)
		},
	}
	for _, opt := range opts {
		opt(wf)
	}
	return wf
}

// Install runs the install state machine from the phase the process is in.
func (w *Workflow) Install(ctx context.Context, opts InstallOptions) (Outcome, error) {
	current := w.elevator.Current()
	if current.Elevated {
		if w.elevator.NeedsElevation(elevate.OpInstall, supervisor.ScopeSystem) {
			code, err := w.elevator.Elevate(ctx, opts.Args, current)
			return Outcome{ExitCode: code}, err
		}
		return w.installElevated(ctx, current, opts.DryRun)
	}

	dir, err := w.getwd()
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to read working directory: %w", err)
	}
	m, err := manifest.Load(dir)
	if err != nil {
		return Outcome{}, err
	}
	if err := m.RequireManageable(); err != nil {
		return Outcome{}, err
	}
	target := m.Target(w.cfg.Layout)

	checksum := ""
	if opts.DryRun {
		w.dryRun(proc.Quote(w.cfg.Build.Command, w.cfg.Build.Args...))
		w.dryRun("sha256 " + target.SourceBinary)
	} else {
		if err := w.build(ctx, target); err != nil {
			return Outcome{}, err
		}
		if checksum, err = w.checksum(target); err != nil {
			return Outcome{}, err
		}
	}

	carry := current.WithChecksum(checksum).WithConfigFile(w.cfg.ConfigFile)

	if opts.DryRun || !w.elevator.NeedsElevation(elevate.OpInstall, supervisor.ScopeSystem) {
		if opts.DryRun && w.elevator.NeedsElevation(elevate.OpInstall, supervisor.ScopeSystem) {
			line, err := w.elevator.Describe(opts.Args, carry)
			if err != nil {
				return Outcome{}, err
			}
			w.dryRun(line)
		}
		carry.Elevated = true
		carry.OriginalDir = dir
		return w.installElevated(ctx, carry, opts.DryRun)
	}

	fmt.Fprintln(w.out, RootNotice)
	code, err := w.elevator.Elevate(ctx, opts.Args, carry)
	if err != nil {
		return Outcome{ExitCode: code}, err
	}
	return Outcome{Delegated: true, ExitCode: code}, nil
}

func (w *Workflow) installElevated(ctx context.Context, ec elevate.Context, dryRun bool) (Outcome, error) {
	dir, err := w.enterOriginalDir(ec, dryRun)
	if err != nil {
		return Outcome{}, err
	}

	m, err := manifest.Load(dir)
	if err != nil {
		return Outcome{}, err
	}
	if err := m.RequireManageable(); err != nil {
		return Outcome{}, err
	}
	target := m.Target(w.cfg.Layout)
	report := Report{Service: target.ServiceName, DryRun: dryRun}

	checksum := ec.Checksum
	switch {
	case dryRun:
	case checksum != "":
		if err := integrity.VerifyFile(target.SourceBinary, checksum); err != nil {
			return Outcome{}, err
		}
	default:
		if checksum, err = w.checksum(target); err != nil {
			return Outcome{}, err
		}
	}

	account, err := w.account()
	if err != nil {
		return Outcome{}, err
	}
	unit, err := RenderUnit(target, account, w.cfg.Unit)
	if err != nil {
		return Outcome{}, err
	}

	if dryRun {
		w.dryRun(fmt.Sprintf("install %s -> %s (mode %04o)", target.SourceBinary, target.DestBinary, binaryMode))
		w.dryRun(fmt.Sprintf("write %s (mode %04o)", target.UnitFile, unitMode))
		w.dryRun(proc.Quote(w.restorecon(), target.DestBinary, target.UnitFile))
		w.dryRun(w.systemd.Line(supervisor.ScopeSystem, "daemon-reload"))
		w.dryRun(w.systemd.CommandLine(supervisor.ScopeSystem, supervisor.ActionEnable, target.ServiceName))
		w.dryRun(w.systemd.CommandLine(supervisor.ScopeSystem, supervisor.ActionStart, target.ServiceName))
		return Outcome{Report: report}, nil
	}

	if err := writeBinary(target.SourceBinary, target.DestBinary, checksum); err != nil {
		return Outcome{}, err
	}
	fmt.Fprintf(w.out, "Installed %s\n", target.DestBinary)

	if err := writeUnit(target.UnitFile, unit); err != nil {
		return Outcome{}, err
	}
	fmt.Fprintf(w.out, "Wrote %s\n", target.UnitFile)

	report.warn("restorecon", w.relabel(ctx, target.DestBinary, target.UnitFile))

	if err := w.systemd.DaemonReload(ctx, supervisor.ScopeSystem); err != nil {
		return Outcome{Report: report}, err
	}
	code, err := w.systemd.Control(ctx, supervisor.ScopeSystem, supervisor.ActionEnable, target.ServiceName)
	if err != nil {
		return Outcome{Report: report}, err
	}
	if !code.IsSuccess() {
		return Outcome{Report: report}, &proc.CommandError{
			Command: w.systemd.CommandLine(supervisor.ScopeSystem, supervisor.ActionEnable, target.ServiceName),
			Code:    code,
		}
	}
	code, err = w.systemd.Control(ctx, supervisor.ScopeSystem, supervisor.ActionStart, target.ServiceName)
	if err != nil {
		return Outcome{Report: report}, err
	}
	if !code.IsSuccess() {
		return Outcome{Report: report}, &StartError{
			Unit:  supervisor.UnitName(target.ServiceName),
			Code:  code,
			Hints: w.systemd.InspectHints(target.ServiceName),
		}
	}

	fmt.Fprintf(w.out, "Service %s installed and started.\n", target.ServiceName)
	return Outcome{Report: report}, nil
}

// Uninstall removes a service from the phase the process is in.
func (w *Workflow) Uninstall(ctx context.Context, opts UninstallOptions) (Outcome, error) {
	current := w.elevator.Current()

	dir := current.OriginalDir
	if dir == "" {
		var err error
		if dir, err = w.getwd(); err != nil {
			return Outcome{}, fmt.Errorf("failed to read working directory: %w", err)
		}
	}

	rm, err := w.removalTarget(ctx, current, dir, opts.Selector)
	if err != nil {
		return Outcome{}, err
	}

	if !current.Elevated && !opts.DryRun && w.elevator.NeedsElevation(elevate.OpUninstall, rm.record.Scope) {
		carry := current.WithService(rm.record.Ref()).WithConfigFile(w.cfg.ConfigFile)
		fmt.Fprintln(w.out, RootNotice)
		code, err := w.elevator.Elevate(ctx, opts.Args, carry)
		if err != nil {
			return Outcome{ExitCode: code}, err
		}
		return Outcome{Delegated: true, ExitCode: code}, nil
	}
	if current.Elevated && w.elevator.NeedsElevation(elevate.OpUninstall, rm.record.Scope) {
		code, err := w.elevator.Elevate(ctx, opts.Args, current)
		return Outcome{ExitCode: code}, err
	}
	if opts.DryRun && w.elevator.NeedsElevation(elevate.OpUninstall, rm.record.Scope) {
		line, err := w.elevator.Describe(opts.Args, current.WithService(rm.record.Ref()))
		if err != nil {
			return Outcome{}, err
		}
		w.dryRun(line)
	}
	if current.Elevated && !opts.DryRun {
		if _, err := w.enterOriginalDir(current, false); err != nil {
			return Outcome{}, err
		}
	}

	return w.remove(ctx, rm, opts.DryRun)
}

func (w *Workflow) remove(ctx context.Context, rm removal, dryRun bool) (Outcome, error) {
	report := Report{Service: rm.record.Name, DryRun: dryRun}
	scope := rm.record.Scope

	if dryRun {
		w.dryRun(w.systemd.CommandLine(scope, supervisor.ActionStop, rm.record.Name))
		w.dryRun(w.systemd.CommandLine(scope, supervisor.ActionDisable, rm.record.Name))
		w.dryRun("remove " + rm.unitFile)
		w.dryRun("remove " + rm.binary)
		w.dryRun(w.systemd.Line(scope, "daemon-reload"))
		w.dryRun(w.systemd.Line(scope, "reset-failed", rm.record.Unit()))
		return Outcome{Report: report}, nil
	}

	for _, action := range []supervisor.Action{supervisor.ActionStop, supervisor.ActionDisable} {
		report.warn(action.String(), w.controlQuiet(ctx, scope, action, rm.record.Name))
	}

	for _, path := range []string{rm.unitFile, rm.binary} {
		removed, err := removeIfPresent(path)
		if err != nil {
			return Outcome{Report: report}, err
		}
		if removed {
			fmt.Fprintf(w.out, "Removed %s\n", path)
		} else {
			report.warn("remove", fmt.Errorf("%w: %s", ErrFileAbsent, path))
		}
	}

	report.warn("daemon-reload", w.systemd.DaemonReload(ctx, scope))
	if err := w.systemd.ResetFailed(ctx, scope, rm.record.Name); err != nil {
		slog.Debug("reset-failed", "service", rm.record.Name, "error", err)
	}

	fmt.Fprintf(w.out, "Service %s uninstalled.\n", rm.record.Name)
	return Outcome{Report: report}, nil
}

func (w *Workflow) removalTarget(ctx context.Context, current elevate.Context, dir string, sel *services.Selector) (removal, error) {
	family := w.family()

	var rec services.Record
	switch {
	case current.Service != "":
		r, err := services.ParseRef(current.Service)
		if err != nil {
			return removal{}, err
		}
		rec = r
	case sel != nil:
		if w.resolver == nil {
			return removal{}, fmt.Errorf("cannot resolve %q: no service directory available", sel.String())
		}
		r, err := w.resolver.Resolve(ctx, sel)
		if err != nil {
			return removal{}, err
		}
		rec = r
	default:
		m, err := manifest.Load(dir)
		if err != nil {
			return removal{}, err
		}
		t := m.Target(w.cfg.Layout)
		return removal{record: t.Record(), binary: t.DestBinary, unitFile: t.UnitFile}, nil
	}

	if rec.Scope != supervisor.ScopeSystem {
		return removal{}, fmt.Errorf("%w: %s", ErrUserScopeUninstall, rec)
	}

	return removal{
		record:   rec,
		binary:   filepath.Join(w.cfg.Layout.BinDir, family.StripPrefix(rec.Name)),
		unitFile: filepath.Join(w.cfg.Layout.UnitDir, rec.Unit()),
	}, nil
}

func (w *Workflow) build(ctx context.Context, target manifest.Target) error {
	fmt.Fprintf(w.out, "Building %s: %s\n", target.Package, proc.Quote(w.cfg.Build.Command, w.cfg.Build.Args...))
	code, err := w.runner.Run(ctx, w.cfg.Build.Command, w.cfg.Build.Args...)
	if err != nil {
		return err
	}
	return proc.Check(code, w.cfg.Build.Command, w.cfg.Build.Args...)
}

func (w *Workflow) checksum(target manifest.Target) (string, error) {
	sum, err := integrity.ComputeFileHash(target.SourceBinary)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrArtifactNotFound, target.SourceBinary)
		}
		return "", fmt.Errorf("failed to checksum %s: %w", target.SourceBinary, err)
	}
	slog.Debug("artifact checksum", "path", target.SourceBinary, "sha256", sum)
	return sum, nil
}

// relabel refreshes security labels. A missing restorecon is not an error.
func (w *Workflow) relabel(ctx context.Context, paths ...string) error {
	res, err := w.runner.Output(ctx, w.restorecon(), paths...)
	if errors.Is(err, proc.ErrToolNotFound) {
		slog.Debug("restorecon not available, skipping relabel")
		return nil
	}
	if err != nil {
		return err
	}
	return proc.Check(res.ExitCode, w.restorecon(), paths...)
}

func (w *Workflow) controlQuiet(ctx context.Context, scope supervisor.Scope, action supervisor.Action, name string) error {
	res, err := w.systemd.ControlOutput(ctx, scope, action, name)
	if err != nil {
		return err
	}
	if !res.ExitCode.IsSuccess() {
		return &proc.CommandError{Command: w.systemd.CommandLine(scope, action, name), Code: res.ExitCode}
	}
	return nil
}

func (w *Workflow) enterOriginalDir(ec elevate.Context, dryRun bool) (string, error) {
	if ec.OriginalDir == "" {
		return w.getwd()
	}
	if !dryRun {
		if err := w.chdir(ec.OriginalDir); err != nil {
			return "", fmt.Errorf("failed to return to %s: %w", ec.OriginalDir, err)
		}
	}
	return ec.OriginalDir, nil
}

func (w *Workflow) dryRun(action string) {
	fmt.Fprintf(w.out, "[dry-run] %s\n", action)
}

func (w *Workflow) restorecon() string {
	if w.cfg.Restorecon == "" {
		return "restorecon"
	}
	return w.cfg.Restorecon
}

func (w *Workflow) family() services.Family {
	if w.cfg.Layout.Family == "" {
		return services.DefaultFamily
	}
	return w.cfg.Layout.Family
}

func writeUnit(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, unitMode); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}
	return nil
}

func removeIfPresent(path string) (bool, error) {
	err := os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to remove %s: %w", path, err)
	}
}
