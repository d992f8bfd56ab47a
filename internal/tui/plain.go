package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
)

// PlainIO implements IO on a terminal or any reader/writer pair. Menus use
// an arrow-key list when Menu is enabled and stdin is a terminal, and a
// numbered list otherwise.
type PlainIO struct {
	in     *os.File
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
	menu   bool
	r      *Renderer
	mu     sync.Mutex
}

// Options tunes PlainIO. Empty string fields mean "auto".
type Options struct {
	Color     string // "auto" | "always" | "never"
	Markdown  string
	Menu      string
	CodeStyle string
}

// NewPlainIO creates a PlainIO on stdin/stdout/stderr.
func NewPlainIO(opts Options) *PlainIO {
	tty := IsTerminal(os.Stdin) && IsTerminal(os.Stdout)
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	return &PlainIO{
		in:     os.Stdin,
		reader: bufio.NewReaderSize(os.Stdin, 1024*1024),
		out:    os.Stdout,
		errOut: os.Stderr,
		menu:   resolveToggle(opts.Menu, tty),
		r: &Renderer{
			Color:     resolveToggle(opts.Color, tty),
			Markdown:  resolveToggle(opts.Markdown, false),
			CodeStyle: opts.CodeStyle,
			Width:     width,
		},
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// resolveToggle maps an "auto"/"always"/"never" style setting to a bool.
func resolveToggle(v string, auto bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "always", "on", "true", "yes":
		return true
	case "never", "off", "false", "no":
		return false
	default:
		return auto
	}
}

func (p *PlainIO) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

func (p *PlainIO) ReadLine(prompt string) (string, error) {
	p.mu.Lock()
	fmt.Fprint(p.out, p.r.Prompt(prompt))
	p.mu.Unlock()

	line, err := p.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *PlainIO) Choose(title string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, fmt.Errorf("no options to choose from")
	}
	if p.menu {
		return runMenu(p.in, p.out, title, options)
	}

	p.println("\n? " + title)
	for i, opt := range options {
		p.println(fmt.Sprintf("  %d. %s", i+1, opt))
	}
	for {
		answer, err := p.ReadLine("Enter number (empty to cancel): ")
		if err != nil {
			return -1, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return -1, ErrCancelled
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		p.Warning(fmt.Sprintf("Please enter a number between 1 and %d.", len(options)))
	}
}

func (p *PlainIO) Confirm(question string, def bool) (bool, error) {
	hint := " [y/N] "
	if def {
		hint = " [Y/n] "
	}
	answer, err := p.ReadLine(question + hint)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *PlainIO) Info(msg string)    { p.println(p.r.Info(msg)) }
func (p *PlainIO) Success(msg string) { p.println(p.r.Success(msg)) }
func (p *PlainIO) Warning(msg string) { p.println(p.r.Warning(msg)) }

func (p *PlainIO) Error(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.errOut, p.r.Error(msg))
}

func (p *PlainIO) Print(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(p.out)
	}
}

func (p *PlainIO) Thinking(model string)         { p.println(p.r.Thinking(model)) }
func (p *PlainIO) AIResponse(model, text string) { p.println(p.r.AIResponse(model, text)) }
func (p *PlainIO) Header()                       { p.println(p.r.Header()) }
func (p *PlainIO) Help()                         { p.println(p.r.Help()) }
