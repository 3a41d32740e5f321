// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/process"
)

// initPID is the PID of the init process.
const initPID = 1

// InitNameFunc returns the process name of PID 1.
type InitNameFunc func(ctx context.Context) (string, error)

// InitName reads the name of PID 1 from the process table.
func InitName(ctx context.Context) (string, error) {
	p, err := process.NewProcessWithContext(ctx, initPID)
	if err != nil {
		return "", fmt.Errorf("failed to inspect init process: %w", err)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read init process name: %w", err)
	}
	return name, nil
}

// IsSystemd reports whether PID 1 is systemd. A nil nameFn uses InitName.
func IsSystemd(ctx context.Context, nameFn InitNameFunc) (bool, error) {
	if nameFn == nil {
		nameFn = InitName
	}
	name, err := nameFn(ctx)
	if err != nil {
		return false, err
	}
	return filepath.Base(name) == "systemd", nil
}
