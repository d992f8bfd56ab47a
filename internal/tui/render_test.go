package tui

import (
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestHighlightCodeBlocks_KnownLanguage(t *testing.T) {
	in := "Here:\n```go\nfunc main() {}\n```\ndone"
	out := HighlightCodeBlocks(in, "monokai")

	if !strings.HasPrefix(out, "Here:\n```go\n") {
		t.Errorf("prefix lost: %q", out)
	}
	if !strings.HasSuffix(out, "```\ndone") {
		t.Errorf("suffix lost: %q", out)
	}
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("expected ANSI escapes in highlighted block, got %q", out)
	}
	if !strings.Contains(out, "main") {
		t.Errorf("code text lost: %q", out)
	}
}

func TestHighlightCodeBlocks_PassThrough(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no blocks", "just text"},
		{"untagged block", "```\nplain code\n```"},
		{"unknown language", "```nosuchlang\nx\n```"},
		{"unterminated", "```go\nfunc x() {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighlightCodeBlocks(tt.in, "monokai"); got != tt.in {
				t.Errorf("HighlightCodeBlocks(%q) = %q", tt.in, got)
			}
		})
	}
}

func TestRenderer_NoColor(t *testing.T) {
	r := &Renderer{}
	if got := r.Error("boom"); got != "Error: boom" {
		t.Errorf("Error = %q", got)
	}
	if got := r.Info("hi"); got != "hi" {
		t.Errorf("Info = %q", got)
	}
	if got := r.AIResponse("Claude", "```go\nx\n```"); got != "\nClaude response:\n```go\nx\n```" {
		t.Errorf("AIResponse = %q", got)
	}
	if got := r.Thinking("Gemini"); got != "Gemini is thinking..." {
		t.Errorf("Thinking = %q", got)
	}
}

func TestRenderer_HelpListsCommands(t *testing.T) {
	help := (&Renderer{}).Help()
	for _, cmd := range []string{"claude", "gemini", "gemini-agent", "bash", "read", "list", "browse", "edit", "chat", "sessions", "help", "exit"} {
		if !strings.Contains(help, "  "+cmd) {
			t.Errorf("help is missing %q", cmd)
		}
	}
}

func TestResolveToggle(t *testing.T) {
	tests := []struct {
		v    string
		auto bool
		want bool
	}{
		{"", true, true},
		{"auto", false, false},
		{"always", false, true},
		{"never", true, false},
		{"OFF", true, false},
	}
	for _, tt := range tests {
		if got := resolveToggle(tt.v, tt.auto); got != tt.want {
			t.Errorf("resolveToggle(%q, %v) = %v, want %v", tt.v, tt.auto, got, tt.want)
		}
	}
}

func TestMenuModel_Navigation(t *testing.T) {
	var m tea.Model = newMenuModel("Pick", []string{"a", "b", "c"})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}) // clamps at last
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	got := m.(menuModel)
	if got.chosen != 1 {
		t.Errorf("chosen = %d, want 1", got.chosen)
	}
	if cmd == nil {
		t.Error("expected quit command after select")
	}
}

func TestMenuModel_Cancel(t *testing.T) {
	var m tea.Model = newMenuModel("Pick", []string{"a"})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !m.(menuModel).cancelled {
		t.Error("expected cancelled")
	}
}

func TestScriptIO(t *testing.T) {
	s := NewScriptIO([]string{"hello", "y"}, []int{1, -1})

	line, err := s.ReadLine("> ")
	if err != nil || line != "hello" {
		t.Fatalf("ReadLine = %q, %v", line, err)
	}
	ok, err := s.Confirm("sure?", false)
	if err != nil || !ok {
		t.Fatalf("Confirm = %v, %v", ok, err)
	}
	idx, err := s.Choose("pick", []string{"a", "b"})
	if err != nil || idx != 1 {
		t.Fatalf("Choose = %d, %v", idx, err)
	}
	if _, err := s.Choose("pick", []string{"a"}); !errors.Is(err, ErrCancelled) {
		t.Fatalf("Choose err = %v, want ErrCancelled", err)
	}
	if _, err := s.ReadLine("> "); !errors.Is(err, io.EOF) {
		t.Fatalf("ReadLine err = %v, want EOF", err)
	}

	s.Error("bad")
	s.AIResponse("Claude", "hi")
	if got := s.Texts("error"); len(got) != 1 || got[0] != "bad" {
		t.Errorf("errors = %v", got)
	}
	if !strings.Contains(s.Output(), "Claude: hi") {
		t.Errorf("output = %q", s.Output())
	}
}
