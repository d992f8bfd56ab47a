package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/apexion-ai/mcpcli/internal/fsview"
	"github.com/apexion-ai/mcpcli/internal/logging"
	"github.com/apexion-ai/mcpcli/internal/mcp"
	"github.com/apexion-ai/mcpcli/internal/provider"
	"github.com/apexion-ai/mcpcli/internal/session"
	"github.com/apexion-ai/mcpcli/internal/tui"
)

// Tools is the part of the tool protocol the commands use. *mcp.Invoker
// implements it.
type Tools interface {
	Claude(ctx context.Context, prompt string, history []provider.Message) mcp.Result
	Gemini(ctx context.Context, prompt string, history []provider.Message) mcp.Result
	Bash(ctx context.Context, command string, timeoutMS int) mcp.Result
	ReadFile(ctx context.Context, path string) mcp.Result
	ListFiles(ctx context.Context, path string) ([]fsview.FileItem, mcp.Result)
	EditFile(ctx context.Context, path, content string) mcp.Result
}

var _ Tools = (*mcp.Invoker)(nil)

// Options tunes an App.
type Options struct {
	// ContextMessages is how many prior messages accompany a chat turn.
	ContextMessages int

	// WorkDir resolves relative paths and is where the browser starts.
	// Empty means the process working directory.
	WorkDir string

	Logger *zap.Logger
}

// App is the interactive client: a prompt loop over a Dispatcher with the
// fixed command table registered.
type App struct {
	io     tui.IO
	tools  Tools
	store  *session.Store
	disp   *Dispatcher
	logger *zap.Logger

	contextMessages int
	workDir         string
}

// New builds an App and registers every command.
func New(ui tui.IO, t Tools, store *session.Store, opts Options) *App {
	if opts.ContextMessages <= 0 {
		opts.ContextMessages = session.DefaultRecentMessages
	}
	if opts.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.WorkDir = wd
		} else {
			opts.WorkDir = "."
		}
	}
	a := &App{
		io:              ui,
		tools:           t,
		store:           store,
		disp:            NewDispatcher(),
		logger:          logging.OrNop(opts.Logger),
		contextMessages: opts.ContextMessages,
		workDir:         opts.WorkDir,
	}
	a.registerCommands()
	return a
}

// Dispatcher exposes the command table.
func (a *App) Dispatcher() *Dispatcher { return a.disp }

func (a *App) registerCommands() {
	a.disp.Register("claude", a.cmdClaude)
	a.disp.Register("gemini", a.cmdGemini)
	a.disp.Register("gemini-agent", a.cmdGeminiAgent)
	a.disp.Register("bash", a.cmdBash)
	a.disp.Register("read", a.cmdRead)
	a.disp.Register("list", a.cmdList)
	a.disp.Register("browse", a.cmdBrowse)
	a.disp.Register("edit", a.cmdEdit)
	a.disp.Register("chat", a.cmdChat)
	a.disp.Register("sessions", a.cmdSessions)
	a.disp.Register("help", func(context.Context, string) error {
		a.io.Help()
		return nil
	})
	a.disp.Register("exit", func(context.Context, string) error {
		return ErrExit
	})
}

// Run reads and dispatches commands until exit or end of input, both of
// which return nil. Each command runs under a context that an interrupt
// (ctrl-c) cancels without ending the loop.
func (a *App) Run(ctx context.Context) error {
	a.io.Header()
	a.io.Info("Type 'help' to see the available commands.")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := a.io.ReadLine("mcpcli> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		cmdCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		err = a.disp.Dispatch(cmdCtx, line)
		stop()

		if errors.Is(err, ErrExit) {
			a.io.Info("Exiting mcpcli...")
			return nil
		}
		if err != nil {
			a.report(err)
		}
	}
}

// report renders a command error. Nothing a handler returns stops the loop.
func (a *App) report(err error) {
	var panicErr *HandlerPanicError
	switch {
	case errors.Is(err, tui.ErrCancelled):
		a.io.Info("Cancelled.")
	case errors.Is(err, context.Canceled):
		a.io.Warning("Interrupted.")
	case errors.As(err, &panicErr):
		a.logger.Error("command panicked",
			zap.String("command", panicErr.Command),
			zap.Any("panic", panicErr.Value),
			zap.ByteString("stack", panicErr.Stack))
		a.io.Error(err.Error())
	default:
		a.io.Error(err.Error())
	}
}
