// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"context"
	"errors"
	"testing"
)

func TestParseScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"user", ScopeUser, false},
		{"SYSTEM", ScopeSystem, false},
		{" user ", ScopeUser, false},
		{"global", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidScope) {
				t.Errorf("ParseScope(%q) error = %v, want ErrInvalidScope", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseScope(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestAction_PastTenseAndValidate(t *testing.T) {
	t.Parallel()

	want := map[Action]string{
		ActionStart:   "started",
		ActionStop:    "stopped",
		ActionRestart: "restarted",
		ActionEnable:  "enabled",
		ActionDisable: "disabled",
	}
	for _, a := range Actions() {
		if err := a.Validate(); err != nil {
			t.Errorf("%s.Validate() = %v", a, err)
		}
		if a == ActionStatus {
			if !a.Interactive() {
				t.Error("status should be interactive")
			}
			continue
		}
		if got := a.PastTense(); got != want[a] {
			t.Errorf("%s.PastTense() = %q, want %q", a, got, want[a])
		}
	}

	if err := Action("reload-or-kill").Validate(); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Validate() error = %v, want ErrInvalidAction", err)
	}
}

func TestIsSystemd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		init    string
		err     error
		want    bool
		wantErr bool
	}{
		{"systemd", "systemd", nil, true, false},
		{"full path", "/usr/lib/systemd/systemd", nil, true, false},
		{"openrc", "openrc-init", nil, false, false},
		{"unreadable", "", errors.New("permission denied"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := IsSystemd(context.Background(), func(context.Context) (string, error) {
				return tt.init, tt.err
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("IsSystemd() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IsSystemd() = %v, want %v", got, tt.want)
			}
		})
	}
}
