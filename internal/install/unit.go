// SPDX-License-Identifier: MPL-2.0

package install

import (
	"bytes"
	"fmt"
	"os/user"
	"text/template"

	"github.com/corky/corky/internal/manifest"
)

const unitTemplate = `[Unit]
Description={{ .Description }}
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
User={{ .User }}
Group={{ .Group }}
WorkingDirectory={{ .WorkingDirectory }}
ExecStartPre=/usr/bin/test -x {{ .ExecStart }}
ExecStart={{ .ExecStart }}
Restart={{ .Restart }}
RestartSec={{ .RestartSec }}

[Install]
WantedBy={{ .WantedBy }}
`

var unitTmpl = template.Must(template.New("unit").Parse(unitTemplate))

type (
	// UnitConfig holds the unit file settings not derived from the manifest.
	UnitConfig struct {
		Restart    string
		RestartSec int
		WantedBy   string
	}

	// Account is the user and group the service runs as.
	Account struct {
		User  string
		Group string
	}

	unitData struct {
		Description      string
		User             string
		Group            string
		WorkingDirectory string
		ExecStart        string
		Restart          string
		RestartSec       int
		WantedBy         string
	}
)

// DefaultUnitConfig returns the unit settings used when none are configured.
func DefaultUnitConfig() UnitConfig {
	return UnitConfig{Restart: "on-failure", RestartSec: 5, WantedBy: "multi-user.target"}
}

// RenderUnit renders the systemd unit file for target.
func RenderUnit(target manifest.Target, account Account, cfg UnitConfig) ([]byte, error) {
	def := DefaultUnitConfig()
	if cfg.Restart == "" {
		cfg.Restart = def.Restart
	}
	if cfg.WantedBy == "" {
		cfg.WantedBy = def.WantedBy
	}
	if cfg.RestartSec < 0 {
		cfg.RestartSec = def.RestartSec
	}

	var buf bytes.Buffer
	err := unitTmpl.Execute(&buf, unitData{
		Description:      target.Description.SingleLine(),
		User:             account.User,
		Group:            account.Group,
		WorkingDirectory: target.WorkingDir,
		ExecStart:        target.DestBinary,
		Restart:          cfg.Restart,
		RestartSec:       cfg.RestartSec,
		WantedBy:         cfg.WantedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render unit file: %w", err)
	}
	return buf.Bytes(), nil
}

// LookupAccount returns the account that invoked corky: the sudo caller when
// running under sudo, otherwise the current user.
func LookupAccount(lookupEnv func(string) (string, bool)) (Account, error) {
	var (
		u   *user.User
		err error
	)
	if name, ok := lookupEnv("SUDO_USER"); ok && name != "" {
		u, err = user.Lookup(name)
	} else {
		u, err = user.Current()
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to look up service account: %w", err)
	}

	group := u.Username
	if g, gErr := user.LookupGroupId(u.Gid); gErr == nil {
		group = g.Name
	}
	return Account{User: u.Username, Group: group}, nil
}
