// Package tui defines the IO interface between the command loop and the
// terminal, plus PlainIO (interactive terminal) and ScriptIO (scripted
// input with captured output, used by tests).
package tui

import "errors"

// ErrCancelled is returned by Choose and ReadLine when the user backs out
// (esc in a menu, ctrl+c at a prompt).
var ErrCancelled = errors.New("cancelled")

// IO is the contract between the command loop and the UI layer.
// Every method maps to a distinct visual event so command handlers never
// depend on a specific rendering implementation.
type IO interface {
	// ReadLine shows prompt and blocks until the user submits a line.
	// Returns ("", io.EOF) when input is closed.
	ReadLine(prompt string) (string, error)

	// Choose shows a selection list and returns the chosen index.
	Choose(title string, options []string) (int, error)

	// Confirm asks a yes/no question; def is the answer for an empty reply.
	Confirm(question string, def bool) (bool, error)

	// Info, Success, Warning and Error print a single status line.
	Info(msg string)
	Success(msg string)
	Warning(msg string)
	Error(msg string)

	// Print writes text as-is (file contents, listings).
	Print(text string)

	// Thinking shows that model is working on a reply.
	Thinking(model string)

	// AIResponse renders a model reply, highlighting fenced code blocks.
	AIResponse(model, text string)

	// Header prints the start-up banner.
	Header()

	// Help prints the command summary.
	Help()
}
