// Package browser implements the interactive filesystem picker used by the
// read, list, browse and edit commands.
//
// The picker is a Machine advanced one Event at a time. It never reads input
// itself; Run feeds it from a Prompter, and tests feed it scripted events.
package browser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/apexion-ai/mcpcli/internal/fsview"
)

// State is the phase the picker is in.
type State int

const (
	Browsing   State = iota // choosing among the entries of the current directory
	Confirming              // create mode: waiting for the new file name
	Done                    // finished, with or without a selection
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Confirming:
		return "confirming"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Mode selects what the picker returns.
type Mode int

const (
	ModeFile      Mode = iota // pick an existing file
	ModeDirectory             // pick the current directory, or a file
	ModeCreate                // pick a directory, then name a new file in it
)

var (
	// ErrInvalidEvent is returned when an event does not apply to the
	// current state. The machine is left unchanged.
	ErrInvalidEvent = errors.New("invalid event for current state")

	// ErrEmptyName rejects a blank file name in create mode.
	ErrEmptyName = errors.New("file name cannot be empty")
)

// EventKind identifies an Event.
type EventKind int

const (
	EventEnter EventKind = iota
	EventParent
	EventSelectCurrent
	EventCancel
	EventName
)

// Event is one user action.
type Event struct {
	Kind  EventKind
	Index int    // EventEnter: index into Entries
	Name  string // EventName
}

func Enter(i int) Event    { return Event{Kind: EventEnter, Index: i} }
func Parent() Event        { return Event{Kind: EventParent} }
func SelectCurrent() Event { return Event{Kind: EventSelectCurrent} }
func Cancel() Event        { return Event{Kind: EventCancel} }
func Name(s string) Event  { return Event{Kind: EventName, Name: s} }

func (e Event) String() string {
	switch e.Kind {
	case EventEnter:
		return fmt.Sprintf("enter(%d)", e.Index)
	case EventParent:
		return "parent"
	case EventSelectCurrent:
		return "select-current"
	case EventCancel:
		return "cancel"
	case EventName:
		return fmt.Sprintf("name(%q)", e.Name)
	default:
		return fmt.Sprintf("Event(%d)", int(e.Kind))
	}
}

// Lister reads one directory. It must return directories before files.
type Lister func(dir string) ([]fsview.FileItem, error)

// Control option labels.
const (
	ParentLabel        = ".. (parent directory)"
	SelectCurrentLabel = "Select this directory"
	CancelLabel        = "Cancel"
)

// Machine is the picker state machine.
type Machine struct {
	mode   Mode
	state  State
	dir    string
	lister Lister

	entries []fsview.FileItem
	listErr error

	selected string
	ok       bool
}

// New creates a machine in Browsing state at start. A nil lister reads the
// real filesystem.
func New(mode Mode, start string, lister Lister) *Machine {
	if lister == nil {
		lister = fsview.ListDirectory
	}
	if abs, err := filepath.Abs(start); err == nil {
		start = abs
	}
	m := &Machine{mode: mode, state: Browsing, dir: start, lister: lister}
	m.load()
	return m
}

func (m *Machine) load() {
	items, err := m.lister(m.dir)
	m.listErr = err
	if err != nil {
		m.entries = nil
		return
	}
	if m.mode == ModeCreate {
		dirs := items[:0:0]
		for _, it := range items {
			if it.IsDirectory {
				dirs = append(dirs, it)
			}
		}
		items = dirs
	}
	m.entries = items
}

func (m *Machine) Mode() Mode   { return m.mode }
func (m *Machine) State() State { return m.state }
func (m *Machine) Dir() string  { return m.dir }

// Entries returns the listing of the current directory.
func (m *Machine) Entries() []fsview.FileItem {
	return append([]fsview.FileItem(nil), m.entries...)
}

// ListErr returns the error from the last directory listing, if any.
func (m *Machine) ListErr() error { return m.listErr }

// Result returns the selected path once the machine is Done. ok is false
// when the user cancelled.
func (m *Machine) Result() (path string, ok bool) {
	return m.selected, m.ok
}

func (m *Machine) controls() []Event {
	if m.mode == ModeFile {
		return []Event{Parent(), Cancel()}
	}
	return []Event{Parent(), SelectCurrent(), Cancel()}
}

// Options returns the menu labels for the Browsing state: control entries
// first, then one line per directory entry.
func (m *Machine) Options() []string {
	var opts []string
	for _, c := range m.controls() {
		switch c.Kind {
		case EventParent:
			opts = append(opts, ParentLabel)
		case EventSelectCurrent:
			opts = append(opts, SelectCurrentLabel)
		case EventCancel:
			opts = append(opts, CancelLabel)
		}
	}
	for _, it := range m.entries {
		if it.IsDirectory {
			opts = append(opts, "[DIR]  "+it.Name+"/")
		} else {
			opts = append(opts, "[FILE] "+it.Name)
		}
	}
	return opts
}

// EventFor maps an index into Options to the event it stands for.
func (m *Machine) EventFor(option int) (Event, error) {
	ctrl := m.controls()
	switch {
	case option < 0:
		return Event{}, fmt.Errorf("option %d: %w", option, ErrInvalidEvent)
	case option < len(ctrl):
		return ctrl[option], nil
	case option-len(ctrl) < len(m.entries):
		return Enter(option - len(ctrl)), nil
	default:
		return Event{}, fmt.Errorf("option %d: %w", option, ErrInvalidEvent)
	}
}

// Handle applies ev. It returns ErrInvalidEvent, or ErrEmptyName for a blank
// name, and leaves the machine unchanged on error.
func (m *Machine) Handle(ev Event) error {
	switch m.state {
	case Browsing:
		return m.handleBrowsing(ev)
	case Confirming:
		return m.handleConfirming(ev)
	default:
		return ErrInvalidEvent
	}
}

func (m *Machine) handleBrowsing(ev Event) error {
	switch ev.Kind {
	case EventEnter:
		if ev.Index < 0 || ev.Index >= len(m.entries) {
			return ErrInvalidEvent
		}
		it := m.entries[ev.Index]
		if it.IsDirectory {
			m.dir = it.Path
			m.load()
			return nil
		}
		if m.mode == ModeCreate {
			return ErrInvalidEvent
		}
		m.finish(it.Path)
		return nil

	case EventParent:
		parent := filepath.Dir(m.dir)
		if parent == m.dir {
			return nil
		}
		m.dir = parent
		m.load()
		return nil

	case EventSelectCurrent:
		switch m.mode {
		case ModeDirectory:
			m.finish(m.dir)
		case ModeCreate:
			m.state = Confirming
		default:
			return ErrInvalidEvent
		}
		return nil

	case EventCancel:
		m.state = Done
		return nil
	}
	return ErrInvalidEvent
}

func (m *Machine) handleConfirming(ev Event) error {
	switch ev.Kind {
	case EventName:
		name := strings.TrimSpace(ev.Name)
		if name == "" {
			return ErrEmptyName
		}
		m.finish(filepath.Join(m.dir, name))
		return nil
	case EventCancel:
		m.state = Done
		return nil
	}
	return ErrInvalidEvent
}

func (m *Machine) finish(path string) {
	m.selected = path
	m.ok = true
	m.state = Done
}
