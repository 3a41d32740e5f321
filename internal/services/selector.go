// SPDX-License-Identifier: MPL-2.0

package services

import "strings"

const (
	// SelectAuto picks the only installed service, failing when there are several.
	SelectAuto SelectorKind = iota
	// SelectAll names every service; no single-target operation accepts it.
	SelectAll
	// SelectInteractive asks the operator to choose.
	SelectInteractive
	// SelectCustom names one service.
	SelectCustom
)

type (
	// SelectorKind enumerates the selector variants.
	SelectorKind int

	// Selector is how the operator names the target of an operation. A nil
	// *Selector means no selector was given.
	Selector struct {
		kind SelectorKind
		name string
	}
)

// Keywords returns the reserved selector words, for completion.
func Keywords() []string { return []string{"auto", "all", "interactive"} }

// ParseSelector classifies raw. The keywords auto, all and interactive are
// matched case-insensitively; anything else names a service.
func ParseSelector(raw string) Selector {
	switch strings.ToLower(raw) {
	case "auto":
		return Selector{kind: SelectAuto}
	case "all":
		return Selector{kind: SelectAll}
	case "interactive":
		return Selector{kind: SelectInteractive}
	default:
		return Selector{kind: SelectCustom, name: raw}
	}
}

// SelectorFromArgs parses the first positional argument, returning nil when
// there is none.
func SelectorFromArgs(args []string) *Selector {
	if len(args) == 0 || args[0] == "" {
		return nil
	}
	sel := ParseSelector(args[0])
	return &sel
}

// Kind returns the selector variant.
func (s Selector) Kind() SelectorKind { return s.kind }

// Name returns the service name of a SelectCustom selector.
func (s Selector) Name() string { return s.name }

// String renders the selector as the operator typed it.
func (s Selector) String() string {
	switch s.kind {
	case SelectAuto:
		return "auto"
	case SelectAll:
		return "all"
	case SelectInteractive:
		return "interactive"
	default:
		return s.name
	}
}
