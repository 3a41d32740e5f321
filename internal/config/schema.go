// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/samber/lo"
)

// MaxConfigSize bounds the size of a config file (1 MiB).
const MaxConfigSize = 1 << 20

// ErrConfigTooLarge is returned for config files over MaxConfigSize.
var ErrConfigTooLarge = errors.New("config file too large")

type (
	// Violation is one config field rejected by #Config.
	Violation struct {
		// Field is the dotted key, e.g. "unit.restart_sec" or "build.args[1]".
		// Empty for syntax errors.
		Field   string
		Message string
	}

	// SchemaError lists every violation found in one config file.
	SchemaError struct {
		File       string
		Violations []Violation
	}
)

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if len(e.Violations) == 1 {
		return e.File + ": " + e.Violations[0].String()
	}
	lines := lo.Map(e.Violations, func(v Violation, _ int) string { return v.String() })
	return fmt.Sprintf("%s: %d schema violations:\n  %s", e.File, len(lines), strings.Join(lines, "\n  "))
}

// Fields returns the keys of every violation that names one.
func (e *SchemaError) Fields() []string {
	return lo.FilterMap(e.Violations, func(v Violation, _ int) (string, bool) {
		return v.Field, v.Field != ""
	})
}

// decodeConfigFile validates data against #Config and returns the keys it
// sets. Every schema field is optional, so validation is non-concrete.
func decodeConfigFile(data []byte, file string) (map[string]any, error) {
	if len(data) > MaxConfigSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrConfigTooLarge, file, len(data), MaxConfigSize)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(configSchema, cue.Filename("config_schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("internal error: config schema: %w", err)
	}

	user := ctx.CompileBytes(data, cue.Filename(file))
	if err := user.Err(); err != nil {
		return nil, newSchemaError(file, err)
	}

	unified := schema.Unify(user)
	if err := unified.Validate(); err != nil {
		return nil, newSchemaError(file, err)
	}

	var values map[string]any
	if err := unified.Decode(&values); err != nil {
		return nil, newSchemaError(file, err)
	}
	return values, nil
}

func newSchemaError(file string, err error) *SchemaError {
	se := &SchemaError{File: file}
	for _, e := range cueerrors.Errors(err) {
		field := fieldPath(cueerrors.Path(e))
		msg := e.Error()
		if field != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, field), ":"))
		}
		se.Violations = append(se.Violations, Violation{Field: field, Message: msg})
	}
	if len(se.Violations) == 0 {
		se.Violations = []Violation{{Message: err.Error()}}
	}
	se.Violations = lo.UniqBy(se.Violations, Violation.String)
	return se
}

// fieldPath renders a CUE path as a config key. Definition selectors are
// dropped and list indices are bracketed: ["#Config", "build", "args", "1"]
// becomes "build.args[1]".
func fieldPath(path []string) string {
	var sb strings.Builder
	for _, part := range path {
		switch {
		case strings.HasPrefix(part, "#"):
			continue
		case sb.Len() > 0 && isIndex(part):
			sb.WriteString("[" + part + "]")
		default:
			if sb.Len() > 0 {
				sb.WriteString(".")
			}
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func isIndex(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
}
