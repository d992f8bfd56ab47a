package tui

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// ---------- styles ----------

var (
	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// Renderer turns status lines and model replies into terminal text. With
// Color off every method returns plain text.
type Renderer struct {
	Color     bool
	Markdown  bool   // render replies through glamour
	CodeStyle string // chroma style name, e.g. "monokai"
	Width     int    // word wrap for markdown; 0 = 80

	md *glamour.TermRenderer
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.Color {
		return text
	}
	return s.Render(text)
}

// Info and friends format one status line.
func (r *Renderer) Info(msg string) string    { return r.style(infoStyle, msg) }
func (r *Renderer) Success(msg string) string { return r.style(successStyle, msg) }
func (r *Renderer) Warning(msg string) string { return r.style(warningStyle, msg) }

func (r *Renderer) Error(msg string) string {
	return r.style(errorStyle, "Error:") + " " + msg
}

func (r *Renderer) Prompt(p string) string { return r.style(primaryStyle, p) }

func (r *Renderer) Thinking(model string) string {
	return r.style(primaryStyle, model+" is thinking...")
}

// AIResponse renders a reply under a "<model> response:" label.
func (r *Renderer) AIResponse(model, text string) string {
	label := r.style(primaryStyle, model+" response:")
	var body string
	switch {
	case r.Markdown && r.Color:
		body = r.renderMarkdown(text)
	case r.Color:
		body = HighlightCodeBlocks(text, r.CodeStyle)
	default:
		body = text
	}
	return "\n" + label + "\n" + body
}

// ---------- markdown rendering ----------

func (r *Renderer) getMarkdownRenderer() *glamour.TermRenderer {
	if r.md != nil {
		return r.md
	}
	width := r.Width
	if width <= 0 {
		width = 80
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return nil
	}
	r.md = md
	return md
}

func (r *Renderer) renderMarkdown(text string) string {
	md := r.getMarkdownRenderer()
	if md == nil {
		return HighlightCodeBlocks(text, r.CodeStyle)
	}
	rendered, err := md.Render(text)
	if err != nil {
		return HighlightCodeBlocks(text, r.CodeStyle)
	}
	return strings.TrimRight(rendered, "\n")
}

// ---------- code highlighting ----------

// fencedBlockRe matches ```lang\ncode``` blocks; the language tag is optional.
var fencedBlockRe = regexp.MustCompile("```([a-zA-Z0-9_+#]*)[\\s\\n]([\\s\\S]*?)```")

// HighlightCodeBlocks colors the body of every fenced block that names a
// language chroma knows. Untagged blocks, unknown languages and all text
// outside blocks pass through unchanged, fences included.
func HighlightCodeBlocks(text, style string) string {
	return fencedBlockRe.ReplaceAllStringFunc(text, func(block string) string {
		m := fencedBlockRe.FindStringSubmatch(block)
		lang, code := m[1], m[2]
		if lang == "" {
			return block
		}
		highlighted, ok := highlightCode(code, lang, style)
		if !ok {
			return block
		}
		return "```" + lang + "\n" + highlighted + "```"
	})
}

func highlightCode(code, lang, styleName string) (string, bool) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return "", false
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	formatter := formatters.Get("terminal256")

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", false
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return "", false
	}
	return buf.String(), true
}

// ---------- banner & help ----------

const banner = `
   __  __  ____ ____     ____ _     ___
  |  \/  |/ ___|  _ \   / ___| |   |_ _|
  | |\/| | |   | |_) | | |   | |    | |
  | |  | | |___|  __/  | |___| |___ | |
  |_|  |_|\____|_|      \____|_____|___|
`

func (r *Renderer) Header() string {
	return r.style(headerStyle, banner)
}

type helpEntry struct {
	usage string
	desc  string
}

var helpEntries = []helpEntry{
	{"claude <text>", "Send a prompt to Claude"},
	{"gemini <text>", "Send a prompt to Gemini"},
	{"gemini-agent <text>", "Let Gemini plan and run file operations"},
	{"bash <command>", "Run a shell command"},
	{"read [path]", "Read a file (no path: browse)"},
	{"list [path|browse]", "List a directory"},
	{"browse", "Start the interactive file browser"},
	{"edit [path content]", "Create or edit a file"},
	{"chat", "Start a chat session with history"},
	{"sessions", "List saved chat sessions"},
	{"help", "Show this help"},
	{"exit", "Quit"},
}

func (r *Renderer) Help() string {
	width := 0
	for _, e := range helpEntries {
		if len(e.usage) > width {
			width = len(e.usage)
		}
	}

	var sb strings.Builder
	sb.WriteString("\n" + r.style(headerStyle, "Welcome to mcpcli!") + "\n")
	sb.WriteString("Available commands:\n")
	for _, e := range helpEntries {
		pad := strings.Repeat(" ", width-len(e.usage))
		fmt.Fprintf(&sb, "  %s%s  %s\n", r.style(primaryStyle, e.usage), pad, e.desc)
	}
	sb.WriteString("\n" + r.style(hintStyle, "Example: claude Write a Go function that computes a factorial") + "\n")
	sb.WriteString(r.style(hintStyle, "Example: chat - start a conversation that remembers context"))
	return sb.String()
}
