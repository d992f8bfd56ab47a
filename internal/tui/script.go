package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ScriptIO is a silent IO implementation that answers prompts from a
// prepared script and captures everything it would have shown. Lines feed
// ReadLine and Confirm; Choices feed Choose. An exhausted script reads as
// io.EOF, and a choice of -1 cancels the menu.
type ScriptIO struct {
	mu      sync.Mutex
	lines   []string
	choices []int
	buf     strings.Builder
	events  []Event
}

// Event is one captured output call.
type Event struct {
	Kind string // "info", "success", "warning", "error", "print", "thinking", "response", "header", "help", "menu"
	Text string
}

var _ IO = (*ScriptIO)(nil)

// NewScriptIO creates a ScriptIO that will answer with lines and choices in order.
func NewScriptIO(lines []string, choices []int) *ScriptIO {
	return &ScriptIO{lines: lines, choices: choices}
}

// Output returns all captured text output.
func (s *ScriptIO) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Events returns a copy of the captured output calls.
func (s *ScriptIO) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Texts returns the text of every captured event of the given kind.
func (s *ScriptIO) Texts(kind string) []string {
	var out []string
	for _, e := range s.Events() {
		if e.Kind == kind {
			out = append(out, e.Text)
		}
	}
	return out
}

func (s *ScriptIO) record(kind, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{Kind: kind, Text: text})
	s.buf.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		s.buf.WriteByte('\n')
	}
}

func (s *ScriptIO) ReadLine(_ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *ScriptIO) Choose(title string, options []string) (int, error) {
	s.record("menu", title+"\n"+strings.Join(options, "\n"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.choices) == 0 {
		return -1, io.EOF
	}
	c := s.choices[0]
	s.choices = s.choices[1:]
	if c < 0 {
		return -1, ErrCancelled
	}
	if c >= len(options) {
		return -1, fmt.Errorf("scripted choice %d out of range (%d options)", c, len(options))
	}
	return c, nil
}

func (s *ScriptIO) Confirm(_ string, def bool) (bool, error) {
	line, err := s.ReadLine("")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (s *ScriptIO) Info(msg string)               { s.record("info", msg) }
func (s *ScriptIO) Success(msg string)            { s.record("success", msg) }
func (s *ScriptIO) Warning(msg string)            { s.record("warning", msg) }
func (s *ScriptIO) Error(msg string)              { s.record("error", msg) }
func (s *ScriptIO) Print(text string)             { s.record("print", text) }
func (s *ScriptIO) Thinking(model string)         { s.record("thinking", model) }
func (s *ScriptIO) AIResponse(model, text string) { s.record("response", model+": "+text) }
func (s *ScriptIO) Header()                       { s.record("header", banner) }
func (s *ScriptIO) Help()                         { s.record("help", (&Renderer{}).Help()) }
