// SPDX-License-Identifier: MPL-2.0

package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/corky/corky/internal/supervisor"
)

type (
	// UnitLister is the supervisor capability the directory reads from.
	UnitLister interface {
		ListUnitFiles(ctx context.Context, scope supervisor.Scope, pattern string) ([]string, error)
	}

	// Source yields the current set of installed services.
	Source interface {
		List(ctx context.Context) []Record
	}

	// Directory lists installed family members across both supervisor scopes.
	Directory struct {
		lister UnitLister
		family Family
	}
)

// NewDirectory creates a Directory reading unit files through lister.
func NewDirectory(lister UnitLister, family Family) *Directory {
	if family == "" {
		family = DefaultFamily
	}
	return &Directory{lister: lister, family: family}
}

// Family returns the prefix the directory filters on.
func (d *Directory) Family() Family { return d.family }

// List returns user-scope records followed by system-scope records. A scope
// whose query fails contributes nothing. Duplicates across scopes are kept.
func (d *Directory) List(ctx context.Context) []Record {
	var records []Record
	for _, scope := range supervisor.Scopes() {
		units, err := d.lister.ListUnitFiles(ctx, scope, d.family.Pattern())
		if err != nil {
			slog.Debug("service listing failed", "scope", scope, "error", err)
			continue
		}
		records = append(records, d.parse(scope, units)...)
	}
	return records
}

// Names returns the prefix-stripped names of every installed service, in
// listing order and without duplicates.
func (d *Directory) Names(ctx context.Context) []string {
	return lo.Uniq(lo.Map(d.List(ctx), func(rec Record, _ int) string {
		return d.family.StripPrefix(rec.Name)
	}))
}

func (d *Directory) parse(scope supervisor.Scope, units []string) []Record {
	units = lo.Filter(units, func(unit string, _ int) bool {
		return d.family.Has(unit) && strings.HasSuffix(unit, supervisor.UnitSuffix)
	})
	return lo.Map(units, func(unit string, _ int) Record {
		return Record{Name: strings.TrimSuffix(unit, supervisor.UnitSuffix), Scope: scope}
	})
}
