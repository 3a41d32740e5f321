// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"errors"
	"fmt"
)

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
	ActionStatus  Action = "status"
)

// ErrInvalidAction is the sentinel error wrapped by InvalidActionError.
var ErrInvalidAction = errors.New("invalid action")

type (
	// Action is a lifecycle verb forwarded to systemctl.
	Action string

	// InvalidActionError is returned for verbs corky does not proxy.
	InvalidActionError struct {
		Value Action
	}
)

// Error implements the error interface.
func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %q", string(e.Value))
}

// Unwrap returns ErrInvalidAction so callers can use errors.Is.
func (e *InvalidActionError) Unwrap() error { return ErrInvalidAction }

// Actions lists the proxied verbs in help order.
func Actions() []Action {
	return []Action{ActionStatus, ActionStart, ActionStop, ActionRestart, ActionEnable, ActionDisable}
}

// Validate returns an error if a is not a proxied verb.
func (a Action) Validate() error {
	switch a {
	case ActionStart, ActionStop, ActionRestart, ActionEnable, ActionDisable, ActionStatus:
		return nil
	default:
		return &InvalidActionError{Value: a}
	}
}

// PastTense returns the verb used in success messages ("started", "enabled").
func (a Action) PastTense() string {
	switch a {
	case ActionStart:
		return "started"
	case ActionStop:
		return "stopped"
	case ActionRestart:
		return "restarted"
	case ActionEnable:
		return "enabled"
	case ActionDisable:
		return "disabled"
	default:
		return string(a) + "ed"
	}
}

// Interactive reports whether the action's output belongs on the operator's
// terminal rather than being captured and summarized.
func (a Action) Interactive() bool { return a == ActionStatus }

// String returns the verb.
func (a Action) String() string { return string(a) }
