// SPDX-License-Identifier: MPL-2.0

// Package proc runs the external programs corky delegates to (systemctl,
// journalctl, sudo, cargo, restorecon) as blocking child processes.
//
// Every invocation goes through an injectable ExecCommandFunc so tests can
// substitute the TestHelperProcess pattern from the proctest subpackage.
// Exit codes of children are preserved verbatim: they become corky's own exit
// status when an operation delegates to a child.
package proc
