// SPDX-License-Identifier: MPL-2.0

package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoServicesFound is returned when no family member is installed in any scope.
	ErrNoServicesFound = errors.New("no services found")

	// ErrAmbiguousSelection is the sentinel error wrapped by AmbiguousSelectionError.
	ErrAmbiguousSelection = errors.New("ambiguous service selection")

	// ErrSelectionCancelled is returned when the operator dismisses the prompt.
	ErrSelectionCancelled = errors.New("service selection cancelled")

	// ErrServiceNotFound is the sentinel error wrapped by NotFoundError.
	ErrServiceNotFound = errors.New("service not found")

	// ErrBulkSelection is returned for the "all" selector, which no
	// single-target operation accepts.
	ErrBulkSelection = errors.New("cannot perform this operation on all services")
)

type (
	// AmbiguousSelectionError is returned when a selector matches several records.
	AmbiguousSelectionError struct {
		Selector   string
		Candidates []Record
	}

	// NotFoundError is returned when a named service is not installed.
	NotFoundError struct {
		Name      string
		Available []Record
	}
)

// Error implements the error interface.
func (e *AmbiguousSelectionError) Error() string {
	return fmt.Sprintf("%q matches %d services: %s", e.Selector, len(e.Candidates), joinRecords(e.Candidates))
}

// Unwrap returns ErrAmbiguousSelection so callers can use errors.Is.
func (e *AmbiguousSelectionError) Unwrap() error { return ErrAmbiguousSelection }

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("service %q not found", e.Name)
	}
	return fmt.Sprintf("service %q not found (installed: %s)", e.Name, joinRecords(e.Available))
}

// Unwrap returns ErrServiceNotFound so callers can use errors.Is.
func (e *NotFoundError) Unwrap() error { return ErrServiceNotFound }

func joinRecords(recs []Record) string {
	parts := make([]string, len(recs))
	for i, r := range recs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
