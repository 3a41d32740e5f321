// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"errors"
	"fmt"
	"strings"
)

// Scope values.
const (
	// ScopeUser is the per-user service manager (systemctl --user).
	ScopeUser Scope = "user"
	// ScopeSystem is the system-wide service manager.
	ScopeSystem Scope = "system"
)

// ErrInvalidScope is the sentinel error wrapped by InvalidScopeError.
var ErrInvalidScope = errors.New("invalid scope")

type (
	// Scope identifies which service manager instance a unit is registered with.
	Scope string

	// InvalidScopeError is returned when a scope string is neither user nor system.
	InvalidScopeError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("invalid scope %q (must be %q or %q)", e.Value, ScopeUser, ScopeSystem)
}

// Unwrap returns ErrInvalidScope so callers can use errors.Is.
func (e *InvalidScopeError) Unwrap() error { return ErrInvalidScope }

// ParseScope converts s into a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeUser:
		return ScopeUser, nil
	case ScopeSystem:
		return ScopeSystem, nil
	default:
		return "", &InvalidScopeError{Value: s}
	}
}

// String returns the scope name.
func (s Scope) String() string { return string(s) }

// Scopes returns every scope in directory query order.
func Scopes() []Scope { return []Scope{ScopeUser, ScopeSystem} }

// flags returns the systemctl/journalctl flags selecting this scope.
func (s Scope) flags() []string {
	if s == ScopeUser {
		return []string{"--user"}
	}
	return nil
}
