// SPDX-License-Identifier: MPL-2.0

// Package supervisor drives the host service supervisor (systemd) through its
// command-line tools. Every call is a blocking child process started by
// proc.Runner; nothing is cached between calls.
package supervisor
