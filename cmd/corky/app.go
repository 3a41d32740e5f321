// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/corky/corky/internal/config"
	"github.com/corky/corky/internal/elevate"
	"github.com/corky/corky/internal/install"
	"github.com/corky/corky/internal/manifest"
	"github.com/corky/corky/internal/proc"
	"github.com/corky/corky/internal/services"
	"github.com/corky/corky/internal/supervisor"
	"github.com/corky/corky/internal/tui"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: all Cobra command handlers receive an App reference and build
	// the per-invocation services through session.
	App struct {
		Config   ConfigProvider
		Prompter services.Prompter

		runner     *proc.Runner
		lookupEnv  func(string) (string, bool)
		geteuid    func() int
		executable func() (string, error)
		getwd      func() (string, error)
		initName   supervisor.InitNameFunc
		stdout     io.Writer
		stderr     io.Writer

		flags  rootFlags
		logger *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp. Tests can supply doubles to
	// isolate process spawning, privilege checks, and prompting.
	Dependencies struct {
		Config     ConfigProvider
		Prompter   services.Prompter
		Runner     *proc.Runner
		LookupEnv  func(string) (string, bool)
		Geteuid    func() int
		Executable func() (string, error)
		Getwd      func() (string, error)
		InitName   supervisor.InitNameFunc
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	rootFlags struct {
		verbose    bool
		configFile string
	}

	// session holds the services built from one loaded configuration.
	session struct {
		cfg       *config.Config
		current   elevate.Context
		family    services.Family
		systemd   *supervisor.Client
		directory *services.Directory
		resolver  *services.Resolver
		elevator  *elevate.Elevator
		workflow  *install.Workflow
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runner == nil {
		deps.Runner = proc.NewRunner(proc.WithStdio(os.Stdin, deps.Stdout, deps.Stderr))
	}
	if deps.LookupEnv == nil {
		deps.LookupEnv = os.LookupEnv
	}
	if deps.Geteuid == nil {
		deps.Geteuid = os.Geteuid
	}
	if deps.Executable == nil {
		deps.Executable = os.Executable
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}
	if deps.InitName == nil {
		deps.InitName = supervisor.InitName
	}

	return &App{
		Config:     deps.Config,
		Prompter:   deps.Prompter,
		runner:     deps.Runner,
		lookupEnv:  deps.LookupEnv,
		geteuid:    deps.Geteuid,
		executable: deps.Executable,
		getwd:      deps.Getwd,
		initName:   deps.InitName,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
}

// setupLogging installs a charm log handler behind the default slog logger.
func (a *App) setupLogging() {
	a.logger = log.NewWithOptions(a.stderr, log.Options{Prefix: "corky"})
	a.setVerbose(a.flags.verbose)
	slog.SetDefault(slog.New(a.logger))
}

func (a *App) setVerbose(verbose bool) {
	if a.logger == nil {
		return
	}
	if verbose {
		a.logger.SetLevel(log.DebugLevel)
		return
	}
	a.logger.SetLevel(log.InfoLevel)
}

// currentContext parses the elevation context of this process.
func (a *App) currentContext() elevate.Context {
	return elevate.FromEnviron(a.lookupEnv)
}

// configFile returns the explicit config path: --config, else CORKY_CONFIG.
func (a *App) configFile() string {
	if a.flags.configFile != "" {
		return a.flags.configFile
	}
	return a.currentContext().ConfigFile
}

func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configFile()})
}

// session loads configuration and builds the services an operation needs.
func (a *App) session(ctx context.Context) (*session, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose {
		a.setVerbose(true)
	}

	current := a.currentContext()
	family := services.Family(cfg.FamilyPrefix)
	systemd := supervisor.NewClient(a.runner, supervisor.Tools{
		Systemctl:  cfg.Tools.Systemctl,
		Journalctl: cfg.Tools.Journalctl,
	})
	directory := services.NewDirectory(systemd, family)

	prompter := a.Prompter
	if prompter == nil {
		prompter = tui.NewPrompter(tui.DefaultConfig(cfg.UI.Theme, cfg.UI.Accessible))
	}
	resolver := services.NewResolver(directory, prompter, family)

	elevator := elevate.NewElevator(a.runner, cfg.Tools.Sudo, current,
		elevate.WithEUID(a.geteuid),
		elevate.WithExecutable(a.executable),
		elevate.WithGetwd(a.getwd),
	)

	workflow := install.NewWorkflow(install.Config{
		Layout: manifest.Layout{
			Family:      family,
			BinDir:      cfg.Paths.BinDir,
			UnitDir:     cfg.Paths.UnitDir,
			ArtifactDir: cfg.Build.ArtifactDir,
		},
		Build: install.BuildConfig{
			Command: cfg.Build.Command,
			Args:    cfg.Build.Args,
		},
		Unit: install.UnitConfig{
			Restart:    cfg.Unit.Restart,
			RestartSec: cfg.Unit.RestartSec,
			WantedBy:   cfg.Unit.WantedBy,
		},
		Restorecon: cfg.Tools.Restorecon,
		ConfigFile: cfg.Path,
	}, a.runner, systemd, elevator, resolver,
		install.WithOutput(a.stdout),
		install.WithGetwd(a.getwd),
		install.WithAccount(func() (install.Account, error) {
			return install.LookupAccount(a.lookupEnv)
		}),
	)

	slog.Debug("session ready", "config", cfg.Path, "elevated", current.Elevated, "family", family.String())

	return &session{
		cfg:       cfg,
		current:   current,
		family:    family,
		systemd:   systemd,
		directory: directory,
		resolver:  resolver,
		elevator:  elevator,
		workflow:  workflow,
	}, nil
}

// childArgs is the argument list the elevated child is started with.
func (a *App) childArgs(args ...string) []string {
	if a.flags.verbose {
		return append([]string{"--verbose"}, args...)
	}
	return args
}

// target returns the record an operation acts on: the one resolved by the
// unprivileged parent when present, otherwise the selector's resolution.
func (s *session) target(ctx context.Context, args []string) (services.Record, error) {
	if s.current.Service != "" {
		return services.ParseRef(s.current.Service)
	}
	return s.resolver.Resolve(ctx, services.SelectorFromArgs(args))
}
