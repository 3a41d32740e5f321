// SPDX-License-Identifier: MPL-2.0

package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corky/corky/internal/supervisor"
)

// DefaultFamily is the name prefix shared by every managed service.
const DefaultFamily Family = "corky-"

// ErrInvalidRef is returned when a serialized record reference cannot be parsed.
var ErrInvalidRef = errors.New("invalid service reference")

type (
	// Family is the name prefix identifying managed services (e.g. "corky-").
	Family string

	// Record is one installed service as reported by the supervisor.
	// Name always carries the family prefix and never the unit suffix.
	Record struct {
		Name  string
		Scope supervisor.Scope
	}
)

// WithPrefix returns name carrying the family prefix. It is idempotent.
// Names used for supervisor registration always go through WithPrefix.
func (f Family) WithPrefix(name string) string {
	if strings.HasPrefix(name, string(f)) {
		return name
	}
	return string(f) + name
}

// StripPrefix returns name without the family prefix. It is idempotent.
// Names used for binary lookup or display always go through StripPrefix.
func (f Family) StripPrefix(name string) string {
	return strings.TrimPrefix(name, string(f))
}

// Has reports whether name carries the family prefix.
func (f Family) Has(name string) bool {
	return strings.HasPrefix(name, string(f))
}

// Pattern returns the unit file glob matching every family member.
func (f Family) Pattern() string {
	return string(f) + "*" + supervisor.UnitSuffix
}

// Label renders rec the way it is presented to the operator: "alpha (user)".
func (f Family) Label(rec Record) string {
	return fmt.Sprintf("%s (%s)", f.StripPrefix(rec.Name), rec.Scope)
}

// String returns the prefix.
func (f Family) String() string { return string(f) }

// Unit returns the unit name of the record.
func (r Record) Unit() string { return supervisor.UnitName(r.Name) }

// Ref serializes the record as "scope:name" for handing it across a process boundary.
func (r Record) Ref() string { return string(r.Scope) + ":" + r.Name }

// String implements fmt.Stringer.
func (r Record) String() string { return fmt.Sprintf("%s (%s)", r.Name, r.Scope) }

// ParseRef is the inverse of Record.Ref.
func ParseRef(ref string) (Record, error) {
	scopeStr, name, ok := strings.Cut(ref, ":")
	if !ok || name == "" {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	scope, err := supervisor.ParseScope(scopeStr)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrInvalidRef, err)
	}
	return Record{Name: name, Scope: scope}, nil
}
