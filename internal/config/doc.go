// SPDX-License-Identifier: MPL-2.0

// Package config handles corky configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/corky/config.cue (defaulting to
// ~/.config/corky/config.cue), or from an explicit path given with --config or
// the CORKY_CONFIG environment variable. Every key has a default, so the file is
// optional; it is read-only input and is only written by "corky config init".
//
// The file is validated against an embedded CUE schema (config_schema.cue) before
// it is merged into Viper. Individual keys may also be overridden with CORKY_*
// environment variables (for example CORKY_PATHS_BIN_DIR).
package config
