// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"path/filepath"

	"github.com/corky/corky/internal/services"
	"github.com/corky/corky/internal/supervisor"
	"github.com/corky/corky/pkg/types"
)

type (
	// Layout is where artifacts are read from and installed to.
	Layout struct {
		Family      services.Family
		BinDir      string
		UnitDir     string
		ArtifactDir string
	}

	// Target is everything the install workflow needs to know about one
	// package. It is derived from the manifest on every run.
	Target struct {
		Package     string
		Description types.DescriptionText
		// ServiceName carries the family prefix and never the unit suffix.
		ServiceName string
		// BinaryName never carries the family prefix.
		BinaryName   string
		SourceBinary string
		DestBinary   string
		UnitFile     string
		WorkingDir   string
	}
)

// Target derives the installation target of m under layout. A relative
// ArtifactDir is resolved against the package directory.
func (m *Manifest) Target(layout Layout) Target {
	family := layout.Family
	if family == "" {
		family = services.DefaultFamily
	}

	dir := m.Dir()
	artifactDir := layout.ArtifactDir
	if !filepath.IsAbs(artifactDir) {
		artifactDir = filepath.Join(dir, artifactDir)
	}

	service := family.WithPrefix(m.Package.Name)
	binary := family.StripPrefix(m.Package.Name)

	description := m.Package.Description
	if description == "" || description.Validate() != nil {
		description = types.DescriptionText("Corky service " + binary)
	}

	return Target{
		Package:      m.Package.Name,
		Description:  description,
		ServiceName:  service,
		BinaryName:   binary,
		SourceBinary: filepath.Join(artifactDir, m.Package.Name),
		DestBinary:   filepath.Join(layout.BinDir, binary),
		UnitFile:     filepath.Join(layout.UnitDir, supervisor.UnitName(service)),
		WorkingDir:   dir,
	}
}

// Record returns the supervisor record the target is registered as.
func (t Target) Record() services.Record {
	return services.Record{Name: t.ServiceName, Scope: supervisor.ScopeSystem}
}
