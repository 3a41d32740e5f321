// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/corky/corky/internal/config"
	"github.com/corky/corky/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `corky config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage corky configuration",
		Long: `Manage corky configuration.

Configuration is stored in $XDG_CONFIG_HOME/corky/config.cue, falling back
to ~/.config/corky/config.cue. The --config flag or the CORKY_CONFIG
environment variable select another file. Any key can be overridden with a
CORKY_ environment variable, e.g. CORKY_PATHS_BIN_DIR.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.flags.configFile
			if len(args) > 0 {
				path = args[0]
			}
			return initConfig(app, path, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return classifyError(err, app.flags.verbose)
	}

	keyStyle := CmdStyle

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)
	if cfg.Path != "" {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), cfg.Path)
	} else {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(app.stdout)
	fmt.Fprint(app.stdout, config.GenerateCUE(cfg))

	return nil
}

func initConfig(app *App, path string, force bool) error {
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return classifyError(err, app.flags.verbose)
		}
	}

	if force {
		if err := removeIfExists(path); err != nil {
			return classifyError(err, app.flags.verbose)
		}
	}

	if err := config.CreateDefaultConfig(path); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return classifyError(issue.NewErrorContext().
				WithOperation("initialize configuration").
				WithResource(path).
				WithSuggestion("Edit the existing file, or pass --force to replace it").
				Wrap(err).
				BuildError(), app.flags.verbose)
		}
		return classifyError(err, app.flags.verbose)
	}

	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return classifyError(err, app.flags.verbose)
	}
	cfgPath, err := config.DefaultConfigPath()
	if err != nil {
		return classifyError(err, app.flags.verbose)
	}

	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "Config file: %s\n", cfgPath)
	if explicit := app.configFile(); explicit != "" {
		fmt.Fprintf(app.stdout, "Active config file: %s\n", explicit)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove existing config: %w", err)
	}
	return nil
}
