// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	// Themes lists the accepted ui.theme values.
	Themes = []string{"default", "charm", "dracula", "catppuccin", "base16"}
)

type (
	// Config is the corky configuration.
	Config struct {
		// FamilyPrefix is the name prefix shared by every managed service.
		FamilyPrefix string `json:"family_prefix" mapstructure:"family_prefix"`
		// Paths configures install destinations.
		Paths PathsConfig `json:"paths" mapstructure:"paths"`
		// Build configures how the release artifact is produced.
		Build BuildConfig `json:"build" mapstructure:"build"`
		// Tools names the external programs corky drives.
		Tools ToolsConfig `json:"tools" mapstructure:"tools"`
		// Unit configures the generated systemd unit.
		Unit UnitConfig `json:"unit" mapstructure:"unit"`
		// UI configures presentation.
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// Path is the file the configuration was loaded from; empty for defaults.
		Path string `json:"-" mapstructure:"-"`
	}

	// PathsConfig configures install destinations.
	PathsConfig struct {
		BinDir  string `json:"bin_dir" mapstructure:"bin_dir"`
		UnitDir string `json:"unit_dir" mapstructure:"unit_dir"`
	}

	// BuildConfig configures the artifact build.
	BuildConfig struct {
		Command     string   `json:"command" mapstructure:"command"`
		Args        []string `json:"args" mapstructure:"args"`
		ArtifactDir string   `json:"artifact_dir" mapstructure:"artifact_dir"`
	}

	// ToolsConfig names the external programs.
	ToolsConfig struct {
		Sudo       string `json:"sudo" mapstructure:"sudo"`
		Systemctl  string `json:"systemctl" mapstructure:"systemctl"`
		Journalctl string `json:"journalctl" mapstructure:"journalctl"`
		Restorecon string `json:"restorecon" mapstructure:"restorecon"`
	}

	// UnitConfig configures the generated unit file.
	UnitConfig struct {
		Restart    string `json:"restart" mapstructure:"restart"`
		RestartSec int    `json:"restart_sec" mapstructure:"restart_sec"`
		WantedBy   string `json:"wanted_by" mapstructure:"wanted_by"`
	}

	// UIConfig configures presentation.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// Accessible forces plain-text prompts.
		Accessible bool `json:"accessible" mapstructure:"accessible"`
		// Theme names the prompt color theme, one of Themes.
		Theme string `json:"theme" mapstructure:"theme"`
	}

	// InvalidConfigError is returned when a decoded Config violates a
	// constraint. It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		FamilyPrefix: "corky-",
		Paths: PathsConfig{
			BinDir:  "/usr/local/bin",
			UnitDir: "/etc/systemd/system",
		},
		Build: BuildConfig{
			Command:     "cargo",
			Args:        []string{"build", "--release"},
			ArtifactDir: "target/release",
		},
		Tools: ToolsConfig{
			Sudo:       "sudo",
			Systemctl:  "systemctl",
			Journalctl: "journalctl",
			Restorecon: "restorecon",
		},
		Unit: UnitConfig{
			Restart:    "on-failure",
			RestartSec: 5,
			WantedBy:   "multi-user.target",
		},
		UI: UIConfig{
			Theme: "default",
		},
	}
}

// Validate checks the constraints the loader relies on. Values coming from
// the config file were already checked by the CUE schema; this catches
// values injected through environment overrides.
func (c Config) Validate() error {
	var errs []error
	if !strings.HasSuffix(c.FamilyPrefix, "-") || strings.TrimSpace(c.FamilyPrefix) == "-" {
		errs = append(errs, fmt.Errorf("family_prefix %q must be non-empty and end with '-'", c.FamilyPrefix))
	}
	if !filepath.IsAbs(c.Paths.BinDir) {
		errs = append(errs, fmt.Errorf("paths.bin_dir %q must be absolute", c.Paths.BinDir))
	}
	if !filepath.IsAbs(c.Paths.UnitDir) {
		errs = append(errs, fmt.Errorf("paths.unit_dir %q must be absolute", c.Paths.UnitDir))
	}
	if strings.TrimSpace(c.Build.Command) == "" {
		errs = append(errs, errors.New("build.command must not be empty"))
	}
	if c.Unit.RestartSec < 0 {
		errs = append(errs, fmt.Errorf("unit.restart_sec %d must not be negative", c.Unit.RestartSec))
	}
	if !slices.Contains(Themes, c.UI.Theme) {
		errs = append(errs, fmt.Errorf("ui.theme %q must be one of %s", c.UI.Theme, strings.Join(Themes, ", ")))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
