// SPDX-License-Identifier: MPL-2.0

package elevate

import (
	"os"
	"strings"
)

// Environment variables carrying a Context across the elevation boundary.
const (
	EnvElevated    = "CORKY_ELEVATED"
	EnvOriginalCwd = "CORKY_ORIGINAL_CWD"
	EnvChecksum    = "CORKY_BINARY_CHECKSUM"
	EnvConfig      = "CORKY_CONFIG"
	EnvService     = "CORKY_SERVICE"
)

// Context is the state handed from the unprivileged phase to the elevated
// one. It is parsed once at startup and is never mutated afterwards; With*
// methods return modified copies.
type Context struct {
	// Elevated is the re-entrancy guard. A process with Elevated set must
	// never try to elevate again.
	Elevated bool
	// OriginalDir is the working directory of the unprivileged phase.
	OriginalDir string
	// Checksum is the hex SHA-256 of the artifact built before elevation.
	Checksum string
	// ConfigFile is the configuration file the unprivileged phase loaded.
	ConfigFile string
	// Service is the "scope:name" reference of an already-resolved service.
	Service string
}

// Current parses the Context of the running process.
func Current() Context {
	return FromEnviron(os.LookupEnv)
}

// FromEnviron parses a Context through lookup.
func FromEnviron(lookup func(string) (string, bool)) Context {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	return Context{
		Elevated:    isTruthy(get(EnvElevated)),
		OriginalDir: get(EnvOriginalCwd),
		Checksum:    get(EnvChecksum),
		ConfigFile:  get(EnvConfig),
		Service:     get(EnvService),
	}
}

// Environ serializes c as KEY=VALUE entries. Empty fields are omitted.
func (c Context) Environ() []string {
	var env []string
	if c.Elevated {
		env = append(env, EnvElevated+"=1")
	}
	add := func(key, value string) {
		if value != "" {
			env = append(env, key+"="+value)
		}
	}
	add(EnvOriginalCwd, c.OriginalDir)
	add(EnvChecksum, c.Checksum)
	add(EnvConfig, c.ConfigFile)
	add(EnvService, c.Service)
	return env
}

// Keys returns the variable names present in Environ, for sudo's --preserve-env.
func (c Context) Keys() []string {
	env := c.Environ()
	keys := make([]string, 0, len(env))
	for _, kv := range env {
		k, _, _ := strings.Cut(kv, "=")
		keys = append(keys, k)
	}
	return keys
}

// WithChecksum returns a copy of c carrying checksum.
func (c Context) WithChecksum(checksum string) Context {
	c.Checksum = checksum
	return c
}

// WithService returns a copy of c carrying a resolved service reference.
func (c Context) WithService(ref string) Context {
	c.Service = ref
	return c
}

// WithConfigFile returns a copy of c carrying the configuration path.
func (c Context) WithConfigFile(path string) Context {
	c.ConfigFile = path
	return c
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
