// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/corky/corky/internal/config"
	"github.com/corky/corky/internal/proc"
	"github.com/corky/corky/internal/proc/proctest"
	"github.com/corky/corky/internal/services"
	"github.com/corky/corky/pkg/types"
)

const testExecutable = "/usr/local/bin/corky"

func TestHelperProcess(t *testing.T) { proctest.HelperProcess(t) }

type (
	staticConfig struct {
		cfg  *config.Config
		seen []config.LoadOptions
	}

	stubPrompter struct {
		choice int
		err    error
		titles []string
		seen   []string
	}

	testHarness struct {
		app    *App
		rec    *proctest.Recorder
		stdout *bytes.Buffer
		stderr *bytes.Buffer
		env    map[string]string
		euid   int
		dir    string
		init   string
	}
)

func (s *staticConfig) Load(_ context.Context, opts config.LoadOptions) (*config.Config, error) {
	s.seen = append(s.seen, opts)
	cfg := *s.cfg
	cfg.Path = opts.ConfigFilePath
	return &cfg, nil
}

func (p *stubPrompter) Choose(title string, options []string) (int, error) {
	p.titles = append(p.titles, title)
	p.seen = options
	return p.choice, p.err
}

var _ services.Prompter = (*stubPrompter)(nil)

// newHarness builds an App for an unprivileged user whose commands are
// answered by rec. Install destinations live under a temporary directory.
func newHarness(t *testing.T, rec *proctest.Recorder, prompter services.Prompter) *testHarness {
	t.Helper()

	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Paths.BinDir = filepath.Join(root, "bin")
	cfg.Paths.UnitDir = filepath.Join(root, "units")

	h := &testHarness{
		rec:    rec,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		env:    map[string]string{},
		euid:   1000,
		dir:    filepath.Join(root, "pkg"),
		init:   "systemd",
	}

	runner := proc.NewRunner(proc.WithExecCommand(rec.CommandFunc(t)), proc.WithStdio(nil, h.stdout, h.stderr))
	h.app = NewApp(Dependencies{
		Config:   &staticConfig{cfg: cfg},
		Prompter: prompter,
		Runner:   runner,
		LookupEnv: func(key string) (string, bool) {
			v, ok := h.env[key]
			return v, ok
		},
		Geteuid:    func() int { return h.euid },
		Executable: func() (string, error) { return testExecutable, nil },
		Getwd:      func() (string, error) { return h.dir, nil },
		InitName:   func(context.Context) (string, error) { return h.init, nil },
		Stdout:     h.stdout,
		Stderr:     h.stderr,
	})
	return h
}

func (h *testHarness) run(args ...string) types.ExitCode {
	return run(context.Background(), h.app, args)
}

func TestApp_ConfigFileFromEnvironment(t *testing.T) {
	t.Parallel()

	h := newHarness(t, proctest.NewRecorder(), nil)
	h.env["CORKY_CONFIG"] = "/etc/corky/config.cue"

	if got := h.app.configFile(); got != "/etc/corky/config.cue" {
		t.Errorf("configFile() = %q, want the CORKY_CONFIG value", got)
	}

	h.app.flags.configFile = "/tmp/explicit.cue"
	if got := h.app.configFile(); got != "/tmp/explicit.cue" {
		t.Errorf("configFile() = %q, want the --config value", got)
	}
}

func TestApp_ChildArgsCarryVerbose(t *testing.T) {
	t.Parallel()

	h := newHarness(t, proctest.NewRecorder(), nil)
	if got := h.app.childArgs("start"); len(got) != 1 || got[0] != "start" {
		t.Errorf("childArgs() = %q, want [start]", got)
	}

	h.app.flags.verbose = true
	got := h.app.childArgs("start")
	if len(got) != 2 || got[0] != "--verbose" || got[1] != "start" {
		t.Errorf("childArgs() = %q, want [--verbose start]", got)
	}
}
