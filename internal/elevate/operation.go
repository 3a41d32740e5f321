// SPDX-License-Identifier: MPL-2.0

package elevate

import "github.com/corky/corky/internal/supervisor"

const (
	OpInstall    Operation = "install"
	OpUninstall  Operation = "uninstall"
	OpStart      Operation = "start"
	OpStop       Operation = "stop"
	OpRestart    Operation = "restart"
	OpEnable     Operation = "enable"
	OpDisable    Operation = "disable"
	OpStatus     Operation = "status"
	OpLogs       Operation = "logs"
	OpList       Operation = "list"
	OpCompletion Operation = "completion"
	OpConfig     Operation = "config"
)

// Operation is a top-level corky command.
type Operation string

// RequiresElevation reports whether op on a service in scope needs root.
// Install and uninstall always do; supervisor operations do only for system
// scope; read-only tooling never does.
func RequiresElevation(op Operation, scope supervisor.Scope) bool {
	switch op {
	case OpInstall, OpUninstall:
		return true
	case OpStart, OpStop, OpRestart, OpEnable, OpDisable, OpStatus, OpLogs:
		return scope == supervisor.ScopeSystem
	default:
		return false
	}
}

// OperationFor maps a proxied supervisor action to its Operation.
func OperationFor(action supervisor.Action) Operation {
	return Operation(action)
}
