// SPDX-License-Identifier: MPL-2.0

// Package manifest reads the Cargo.toml of a service package and derives
// where its binary and unit file are installed.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/corky/corky/pkg/types"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the manifest file looked up in the package directory.
const FileName = "Cargo.toml"

var (
	// ErrManifestNotFound is returned when the package directory has no manifest.
	ErrManifestNotFound = errors.New("package manifest not found")

	// ErrNotManageable is returned when the manifest lacks the
	// [corky] is_corky_package = true marker.
	ErrNotManageable = errors.New("not a corky package")

	// ErrInvalidManifest is the sentinel error wrapped by InvalidManifestError.
	ErrInvalidManifest = errors.New("invalid package manifest")
)

type (
	// Manifest is the subset of Cargo.toml corky reads.
	Manifest struct {
		Package PackageSection `toml:"package"`
		Corky   CorkySection   `toml:"corky"`

		// Path is the file the manifest was read from.
		Path string `toml:"-"`
	}

	// PackageSection is the [package] table.
	PackageSection struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description types.DescriptionText `toml:"description"`
	}

	// CorkySection is the [corky] table.
	CorkySection struct {
		IsCorkyPackage bool `toml:"is_corky_package"`
	}

	// InvalidManifestError reports a manifest that cannot be decoded or lacks
	// required fields.
	InvalidManifestError struct {
		Path   string
		Line   int
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidManifestError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrInvalidManifest so callers can use errors.Is.
func (e *InvalidManifestError) Unwrap() error { return ErrInvalidManifest }

// Load reads the manifest in dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes manifest content read from path.
func Parse(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		invalid := &InvalidManifestError{Path: path, Reason: err.Error()}
		var decErr *toml.DecodeError
		if errors.As(err, &decErr) {
			invalid.Line, _ = decErr.Position()
		}
		return nil, invalid
	}
	m.Path = path

	m.Package.Name = strings.TrimSpace(m.Package.Name)
	if m.Package.Name == "" {
		return nil, &InvalidManifestError{Path: path, Reason: "[package] name is required"}
	}
	if strings.ContainsAny(m.Package.Name, `/\`) {
		return nil, &InvalidManifestError{Path: path, Reason: fmt.Sprintf("package name %q must not contain path separators", m.Package.Name)}
	}
	return &m, nil
}

// Manageable reports whether the manifest carries the corky marker.
func (m *Manifest) Manageable() bool { return m.Corky.IsCorkyPackage }

// RequireManageable returns ErrNotManageable unless the marker is present.
func (m *Manifest) RequireManageable() error {
	if !m.Manageable() {
		return fmt.Errorf("%w: %s has no [corky] is_corky_package = true", ErrNotManageable, m.Path)
	}
	return nil
}

// Dir returns the package directory.
func (m *Manifest) Dir() string { return filepath.Dir(m.Path) }
