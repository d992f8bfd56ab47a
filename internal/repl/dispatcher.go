// Package repl is the interactive command loop of the client: it parses a
// line of input, routes it to a command handler, and renders the outcome.
package repl

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"unicode"
)

// ErrExit is returned by the exit command to end the loop.
var ErrExit = errors.New("exit")

// UnknownCommandError names a command token that has no handler.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %s. Type 'help' for the list of commands.", e.Name)
}

// HandlerPanicError is a handler panic converted into an error.
type HandlerPanicError struct {
	Command string
	Value   any
	Stack   []byte
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Value)
}

// HandlerFunc runs one command. rest is the text after the command name.
type HandlerFunc func(ctx context.Context, rest string) error

// Parse splits a line into a lowercased command name and the remaining
// text. Leading whitespace of rest is dropped; the rest is kept as typed.
func Parse(line string) (name, rest string) {
	line = strings.TrimSpace(line)
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return strings.ToLower(line), ""
	}
	return strings.ToLower(line[:i]), strings.TrimLeftFunc(line[i:], unicode.IsSpace)
}

// Dispatcher maps command names to handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Register adds or replaces the handler for name (case-insensitive).
func (d *Dispatcher) Register(name string, h HandlerFunc) {
	d.handlers[strings.ToLower(name)] = h
}

// Commands returns the registered names in sorted order.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for n := range d.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the handler for line. Blank lines are a no-op. An unknown
// command yields *UnknownCommandError; a panicking handler yields
// *HandlerPanicError.
func (d *Dispatcher) Dispatch(ctx context.Context, line string) error {
	name, rest := Parse(line)
	if name == "" {
		return nil
	}
	h, ok := d.handlers[name]
	if !ok {
		return &UnknownCommandError{Name: name}
	}
	return safeRun(ctx, name, rest, h)
}

func safeRun(ctx context.Context, name, rest string, h HandlerFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerPanicError{Command: name, Value: r, Stack: debug.Stack()}
		}
	}()
	return h(ctx, rest)
}
