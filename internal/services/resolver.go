// SPDX-License-Identifier: MPL-2.0

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// PromptTitle is shown above the interactive service list.
const PromptTitle = "Select a service:"

type (
	// Prompter presents options to the operator and returns the chosen index.
	// Implementations return ErrSelectionCancelled when the operator dismisses
	// the prompt without choosing.
	Prompter interface {
		Choose(title string, options []string) (int, error)
	}

	// Resolver turns a selector into exactly one installed service.
	Resolver struct {
		source   Source
		prompter Prompter
		family   Family
	}
)

// NewResolver creates a Resolver over source. prompter may be nil, in which
// case any selection that needs the operator fails as ambiguous.
func NewResolver(source Source, prompter Prompter, family Family) *Resolver {
	if family == "" {
		family = DefaultFamily
	}
	return &Resolver{source: source, prompter: prompter, family: family}
}

// Resolve returns the single record sel designates. A nil sel picks the only
// installed service or, when there are several, asks the operator.
func (r *Resolver) Resolve(ctx context.Context, sel *Selector) (Record, error) {
	records := r.source.List(ctx)
	if len(records) == 0 {
		return Record{}, ErrNoServicesFound
	}

	if sel == nil {
		if len(records) == 1 {
			return records[0], nil
		}
		return r.choose(records)
	}

	switch sel.Kind() {
	case SelectAuto:
		if len(records) == 1 {
			return records[0], nil
		}
		return Record{}, &AmbiguousSelectionError{Selector: sel.String(), Candidates: records}
	case SelectAll:
		return Record{}, ErrBulkSelection
	case SelectInteractive:
		return r.choose(records)
	default:
		return r.lookup(sel.Name(), records)
	}
}

func (r *Resolver) lookup(name string, records []Record) (Record, error) {
	want := r.family.WithPrefix(name)
	matches := lo.Filter(records, func(rec Record, _ int) bool {
		return rec.Name == want
	})

	switch len(matches) {
	case 0:
		return Record{}, &NotFoundError{Name: want, Available: records}
	case 1:
		return matches[0], nil
	default:
		return Record{}, &AmbiguousSelectionError{Selector: name, Candidates: matches}
	}
}

func (r *Resolver) choose(records []Record) (Record, error) {
	if r.prompter == nil {
		return Record{}, &AmbiguousSelectionError{Selector: "interactive", Candidates: records}
	}

	options := lo.Map(records, func(rec Record, _ int) string { return r.family.Label(rec) })
	idx, err := r.prompter.Choose(PromptTitle, options)
	if err != nil {
		if errors.Is(err, ErrSelectionCancelled) {
			return Record{}, ErrSelectionCancelled
		}
		return Record{}, fmt.Errorf("service selection failed: %w", err)
	}
	if idx < 0 || idx >= len(records) {
		return Record{}, fmt.Errorf("service selection failed: index %d out of range", idx)
	}
	return records[idx], nil
}
