// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Theme represents the visual theme for TUI components.
type Theme string

const (
	// ThemeDefault uses the default huh theme.
	ThemeDefault Theme = "default"
	// ThemeCharm uses the Charm theme.
	ThemeCharm Theme = "charm"
	// ThemeDracula uses the Dracula theme.
	ThemeDracula Theme = "dracula"
	// ThemeCatppuccin uses the Catppuccin theme.
	ThemeCatppuccin Theme = "catppuccin"
	// ThemeBase16 uses the Base16 theme.
	ThemeBase16 Theme = "base16"
)

// Config holds common configuration for TUI components.
type Config struct {
	// Theme specifies the visual theme to use.
	Theme Theme
	// Accessible enables accessible mode for screen readers and pipes.
	Accessible bool
	// Output specifies where prompts are written.
	Output io.Writer
	// Input specifies where answers are read from.
	Input io.Reader
}

// DefaultConfig returns the configuration for prompts drawn with theme, the
// ui.theme config value. Accessible mode is enabled when forced by the
// caller, when the ACCESSIBLE environment variable is set, or when stdin is
// not a terminal. Prompts go to stderr so they are never captured by command
// substitution.
func DefaultConfig(theme string, forceAccessible bool) Config {
	accessible := forceAccessible || os.Getenv("ACCESSIBLE") != "" || !isInputTerminal()
	return Config{
		Theme:      Theme(theme),
		Accessible: accessible,
		Output:     os.Stderr,
		Input:      os.Stdin,
	}
}

// isInputTerminal returns true if stdin is connected to a terminal.
func isInputTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// getHuhTheme converts a Theme to a huh.Theme. Unknown names fall back to
// the base theme.
func getHuhTheme(t Theme) *huh.Theme {
	switch t {
	case ThemeCharm:
		return huh.ThemeCharm()
	case ThemeDracula:
		return huh.ThemeDracula()
	case ThemeCatppuccin:
		return huh.ThemeCatppuccin()
	case ThemeBase16:
		return huh.ThemeBase16()
	default:
		return huh.ThemeBase()
	}
}
