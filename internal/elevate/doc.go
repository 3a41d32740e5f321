// SPDX-License-Identifier: MPL-2.0

// Package elevate implements the transition from an unprivileged invocation
// to a privileged one by re-executing the current binary through sudo.
//
// State crosses the privilege boundary only as environment variables set on
// the child: the re-entrancy guard, the caller's working directory, and the
// artifact checksum recorded before elevation. The parent's environment is
// never modified.
package elevate
