// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corky/corky/internal/issue"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "corky"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. CORKY_PATHS_BIN_DIR.
	EnvPrefix = "CORKY"
)

// ErrConfigExists is returned by CreateDefaultConfig when the target file is already present.
var ErrConfigExists = errors.New("config file already exists")

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the corky configuration directory: $XDG_CONFIG_HOME/corky,
// defaulting to ~/.config/corky.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultConfigPath returns the path of the user's config file, whether or not it exists.
func DefaultConfigPath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// An explicit --config path is used exclusively and must exist.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'corky config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, err
		}
		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			resolvedPath = cuePath
		}
		// No config file means defaults.
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'corky config --help' for configuration options").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check CORKY_* environment variables for invalid values").
			Wrap(err).
			BuildError()
	}

	cfg.Path = resolvedPath
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("family_prefix", defaults.FamilyPrefix)
	v.SetDefault("paths.bin_dir", defaults.Paths.BinDir)
	v.SetDefault("paths.unit_dir", defaults.Paths.UnitDir)
	v.SetDefault("build.command", defaults.Build.Command)
	v.SetDefault("build.args", defaults.Build.Args)
	v.SetDefault("build.artifact_dir", defaults.Build.ArtifactDir)
	v.SetDefault("tools.sudo", defaults.Tools.Sudo)
	v.SetDefault("tools.systemctl", defaults.Tools.Systemctl)
	v.SetDefault("tools.journalctl", defaults.Tools.Journalctl)
	v.SetDefault("tools.restorecon", defaults.Tools.Restorecon)
	v.SetDefault("unit.restart", defaults.Unit.Restart)
	v.SetDefault("unit.restart_sec", defaults.Unit.RestartSec)
	v.SetDefault("unit.wanted_by", defaults.Unit.WantedBy)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.accessible", defaults.UI.Accessible)
	v.SetDefault("ui.theme", defaults.UI.Theme)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	values, err := decodeConfigFile(data, path)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to path, creating
// parent directories. An existing file is never overwritten.
func CreateDefaultConfig(path string) error {
	if fileExists(path) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// corky configuration file\n\n")

	fmt.Fprintf(&sb, "family_prefix: %q\n", cfg.FamilyPrefix)

	sb.WriteString("\npaths: {\n")
	fmt.Fprintf(&sb, "\tbin_dir:  %q\n", cfg.Paths.BinDir)
	fmt.Fprintf(&sb, "\tunit_dir: %q\n", cfg.Paths.UnitDir)
	sb.WriteString("}\n")

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\tcommand: %q\n", cfg.Build.Command)
	quoted := make([]string, len(cfg.Build.Args))
	for i, arg := range cfg.Build.Args {
		quoted[i] = fmt.Sprintf("%q", arg)
	}
	fmt.Fprintf(&sb, "\targs: [%s]\n", strings.Join(quoted, ", "))
	fmt.Fprintf(&sb, "\tartifact_dir: %q\n", cfg.Build.ArtifactDir)
	sb.WriteString("}\n")

	sb.WriteString("\ntools: {\n")
	fmt.Fprintf(&sb, "\tsudo:       %q\n", cfg.Tools.Sudo)
	fmt.Fprintf(&sb, "\tsystemctl:  %q\n", cfg.Tools.Systemctl)
	fmt.Fprintf(&sb, "\tjournalctl: %q\n", cfg.Tools.Journalctl)
	fmt.Fprintf(&sb, "\trestorecon: %q\n", cfg.Tools.Restorecon)
	sb.WriteString("}\n")

	sb.WriteString("\nunit: {\n")
	fmt.Fprintf(&sb, "\trestart:     %q\n", cfg.Unit.Restart)
	fmt.Fprintf(&sb, "\trestart_sec: %d\n", cfg.Unit.RestartSec)
	fmt.Fprintf(&sb, "\twanted_by:   %q\n", cfg.Unit.WantedBy)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:    %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\taccessible: %v\n", cfg.UI.Accessible)
	fmt.Fprintf(&sb, "\ttheme:      %q\n", cfg.UI.Theme)
	sb.WriteString("}\n")

	return sb.String()
}
