// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestDecodeConfigFile_Valid(t *testing.T) {
	t.Parallel()

	data := []byte(`build: args: ["build", "--release", "--locked"]
unit: restart_sec: 3
`)
	values, err := decodeConfigFile(data, "config.cue")
	if err != nil {
		t.Fatalf("decodeConfigFile() error = %v", err)
	}
	build, ok := values["build"].(map[string]any)
	if !ok {
		t.Fatalf("build = %#v", values["build"])
	}
	if args, _ := build["args"].([]any); len(args) != 3 || args[2] != "--locked" {
		t.Errorf("build.args = %#v", build["args"])
	}
	if _, ok := values["paths"]; ok {
		t.Error("unset sections should be absent so Viper defaults apply")
	}
}

func TestDecodeConfigFile_Violations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"negative restart delay", `unit: restart_sec: -1`, "unit.restart_sec"},
		{"non-string build arg", `build: args: ["build", 3]`, "build.args[1]"},
		{"relative unit dir", `paths: unit_dir: "units"`, "paths.unit_dir"},
		{"target without suffix", `unit: wanted_by: "multi-user"`, "unit.wanted_by"},
		{"unknown top-level key", `colour: "blue"`, "colour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := decodeConfigFile([]byte(tt.content+"\n"), "/etc/corky.cue")
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *SchemaError", err)
			}
			if se.File != "/etc/corky.cue" {
				t.Errorf("File = %q", se.File)
			}
			if !slices.Contains(se.Fields(), tt.field) {
				t.Errorf("Fields() = %q, want %q", se.Fields(), tt.field)
			}
			if !strings.HasPrefix(err.Error(), "/etc/corky.cue: ") {
				t.Errorf("Error() should lead with the file, got %q", err.Error())
			}
		})
	}
}

func TestDecodeConfigFile_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := decodeConfigFile([]byte(`unit: { restart_sec: `), "config.cue")
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SchemaError", err)
	}
	if len(se.Violations) == 0 {
		t.Error("syntax error should produce at least one violation")
	}
}

func TestDecodeConfigFile_TooLarge(t *testing.T) {
	t.Parallel()

	data := []byte("// " + strings.Repeat("x", MaxConfigSize) + "\n")
	_, err := decodeConfigFile(data, "huge.cue")
	if !errors.Is(err, ErrConfigTooLarge) {
		t.Fatalf("error = %v, want ErrConfigTooLarge", err)
	}
	if !strings.Contains(err.Error(), "huge.cue") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestSchemaError_Error(t *testing.T) {
	t.Parallel()

	one := &SchemaError{File: "c.cue", Violations: []Violation{{Field: "unit.restart_sec", Message: "invalid value -1"}}}
	if got, want := one.Error(), "c.cue: unit.restart_sec: invalid value -1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	two := &SchemaError{File: "c.cue", Violations: []Violation{
		{Field: "build.args[0]", Message: "conflicting values"},
		{Message: "expected operand"},
	}}
	want := "c.cue: 2 schema violations:\n  build.args[0]: conflicting values\n  expected operand"
	if got := two.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := two.Fields(); !slices.Equal(got, []string{"build.args[0]"}) {
		t.Errorf("Fields() = %q", got)
	}
}

func TestFieldPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"family_prefix"}, "family_prefix"},
		{[]string{"#Config", "unit", "restart_sec"}, "unit.restart_sec"},
		{[]string{"build", "args", "1"}, "build.args[1]"},
		{[]string{"#Config", "build", "args", "10"}, "build.args[10]"},
	}

	for _, tt := range tests {
		if got := fieldPath(tt.path); got != tt.want {
			t.Errorf("fieldPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
