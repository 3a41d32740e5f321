// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for corky.
//
// This package implements the Cobra command hierarchy for the corky CLI,
// executed through charmbracelet/fang. Commands share an App, the
// composition root that loads configuration and builds the service
// directory, resolver, elevator, and install workflow for each invocation.
//
// Command tree:
//
//	corky install [--dry-run]
//	corky uninstall [--dry-run] [service]
//	corky status|start|stop|restart|enable|disable [service]
//	corky logs [service]
//	corky list
//	corky completion bash|zsh|fish|powershell
//	corky config show|path|init
//
// A [service] argument is a selector: a service name with or without the
// family prefix, or one of the keywords auto, all, interactive.
package cmd
