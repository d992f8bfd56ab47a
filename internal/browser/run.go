package browser

import (
	"errors"
	"fmt"

	"github.com/apexion-ai/mcpcli/internal/tui"
)

// Prompter is the part of the terminal the picker talks to. tui.IO
// satisfies it.
type Prompter interface {
	Choose(title string, options []string) (int, error)
	ReadLine(prompt string) (string, error)
	Warning(msg string)
}

// Run shows the picker starting at start and returns the chosen path. ok is
// false when the user cancelled; a menu dismissed with tui.ErrCancelled
// counts as Cancel. Other input errors, such as end of input, are returned.
func Run(p Prompter, mode Mode, start string) (path string, ok bool, err error) {
	return Drive(p, New(mode, start, nil))
}

// Drive runs an existing machine to completion.
func Drive(p Prompter, m *Machine) (string, bool, error) {
	for m.State() != Done {
		switch m.State() {
		case Browsing:
			title := "Current directory: " + m.Dir()
			if err := m.ListErr(); err != nil {
				title += fmt.Sprintf(" (cannot list: %v)", err)
			}
			choice, err := p.Choose(title, m.Options())
			if err != nil {
				if errors.Is(err, tui.ErrCancelled) {
					_ = m.Handle(Cancel())
					continue
				}
				return "", false, err
			}
			ev, err := m.EventFor(choice)
			if err != nil {
				return "", false, err
			}
			if err := m.Handle(ev); err != nil {
				return "", false, fmt.Errorf("%s: %w", ev, err)
			}

		case Confirming:
			name, err := p.ReadLine("New file name: ")
			if err != nil {
				return "", false, err
			}
			if err := m.Handle(Name(name)); err != nil {
				if errors.Is(err, ErrEmptyName) {
					p.Warning("File name cannot be empty.")
					continue
				}
				return "", false, err
			}
		}
	}
	path, ok := m.Result()
	return path, ok, nil
}
