// SPDX-License-Identifier: MPL-2.0

// Package install implements the two-phase install and the uninstall of a
// corky service.
//
// Install runs as a state machine. The unprivileged phase validates the
// manifest, builds the artifact as the invoking user and records its
// checksum; the elevated phase re-derives the target, verifies the checksum
// against the artifact on disk, and only then writes the binary and unit file
// and registers the unit with systemd.
package install
