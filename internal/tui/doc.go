// SPDX-License-Identifier: MPL-2.0

// Package tui provides the interactive service picker. It wraps
// charmbracelet/huh and falls back to huh's accessible line-based mode when
// stdin is not a terminal.
package tui
