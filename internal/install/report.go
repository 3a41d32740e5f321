// SPDX-License-Identifier: MPL-2.0

package install

import (
	"log/slog"

	"go.uber.org/multierr"
)

// Report summarizes a workflow run. Warnings aggregates the best-effort
// steps that failed without aborting the run.
type Report struct {
	Service  string
	DryRun   bool
	Warnings error
}

// warn records a best-effort failure and logs it.
func (r *Report) warn(step string, err error) {
	if err == nil {
		return
	}
	slog.Warn(step+" failed", "service", r.Service, "error", err)
	r.Warnings = multierr.Append(r.Warnings, err)
}

// WarningList returns the individual best-effort failures.
func (r *Report) WarningList() []error {
	return multierr.Errors(r.Warnings)
}
