// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"fmt"

	"github.com/corky/corky/internal/services"

	"github.com/charmbracelet/huh"
)

// ErrNoOptions is returned when Choose is called with nothing to choose from.
var ErrNoOptions = errors.New("no options to choose from")

// Prompter asks the operator to pick one entry from a list.
type Prompter struct {
	cfg Config
}

var _ services.Prompter = (*Prompter)(nil)

// NewPrompter creates a Prompter.
func NewPrompter(cfg Config) *Prompter {
	return &Prompter{cfg: cfg}
}

// Choose shows a single-select prompt and returns the index of the chosen option.
// Dismissing the prompt returns services.ErrSelectionCancelled.
func (p *Prompter) Choose(title string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, ErrNoOptions
	}

	huhOpts := make([]huh.Option[int], len(options))
	for i, opt := range options {
		huhOpts[i] = huh.NewOption(opt, i)
	}

	choice := -1
	sel := huh.NewSelect[int]().
		Title(title).
		Options(huhOpts...).
		Value(&choice)

	form := huh.NewForm(huh.NewGroup(sel)).
		WithTheme(getHuhTheme(p.cfg.Theme)).
		WithAccessible(p.cfg.Accessible)
	if p.cfg.Output != nil {
		form = form.WithOutput(p.cfg.Output)
	}
	if p.cfg.Input != nil {
		form = form.WithInput(p.cfg.Input)
	}

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return -1, services.ErrSelectionCancelled
		}
		return -1, fmt.Errorf("service prompt: %w", err)
	}

	if choice < 0 || choice >= len(options) {
		return -1, services.ErrSelectionCancelled
	}
	return choice, nil
}
