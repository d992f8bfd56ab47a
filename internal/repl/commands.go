package repl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/apexion-ai/mcpcli/internal/browser"
	"github.com/apexion-ai/mcpcli/internal/fsview"
	"github.com/apexion-ai/mcpcli/internal/mcp"
	"github.com/apexion-ai/mcpcli/internal/provider"
	"github.com/apexion-ai/mcpcli/internal/tools"
)

// Model labels shown in responses and stored on assistant messages.
const (
	LabelClaude = "Claude"
	LabelGemini = "Gemini"
)

func (a *App) callModel(ctx context.Context, label, prompt string, history []provider.Message) mcp.Result {
	if label == LabelClaude {
		return a.tools.Claude(ctx, prompt, history)
	}
	return a.tools.Gemini(ctx, prompt, history)
}

// resolve makes p absolute against the working directory.
func (a *App) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(a.workDir, p)
}

// ── claude / gemini ──────────────────────────────────────────────────────────

func (a *App) cmdClaude(ctx context.Context, rest string) error {
	return a.ask(ctx, LabelClaude, "claude Write a Go function that computes a factorial", rest)
}

func (a *App) cmdGemini(ctx context.Context, rest string) error {
	return a.ask(ctx, LabelGemini, "gemini How do I write a web scraper in Python?", rest)
}

// ask sends a one-off prompt with no session context and offers to save the reply.
func (a *App) ask(ctx context.Context, label, example, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("please enter a prompt. Example: %s", example)
	}

	a.io.Thinking(label)
	res := a.callModel(ctx, label, prompt, nil)
	if res.IsError() {
		return fmt.Errorf("%s error: %w", label, res.Err())
	}
	a.io.AIResponse(label, res.Text())
	return a.offerSave(ctx, res.Text())
}

// offerSave asks whether to write response to a file in the working
// directory. A failed write is reported and is not an error.
func (a *App) offerSave(ctx context.Context, response string) error {
	ok, err := a.io.Confirm("Save this response to a file?", false)
	if err != nil || !ok {
		return err
	}
	name, err := a.io.ReadLine("File name: ")
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		a.io.Info("Save cancelled.")
		return nil
	}

	path := filepath.Join(a.workDir, name)
	if res := a.tools.EditFile(ctx, path, response); res.IsError() {
		a.io.Error("Failed to save response: " + res.Text())
		return nil
	}
	a.io.Success(fmt.Sprintf("Response saved to %s.", name))
	return nil
}

// ── gemini-agent ─────────────────────────────────────────────────────────────

const agentPrompt = "You are a filesystem assistant. Analyze the request below and explain " +
	"which operations I need to perform. They may be reading, listing or creating files. " +
	"Describe exactly how to perform each one:\n\n"

// cmdGeminiAgent asks Gemini to plan a filesystem request, then runs the
// list, create and read steps its analysis mentions.
func (a *App) cmdGeminiAgent(ctx context.Context, rest string) error {
	request := strings.TrimSpace(rest)
	if request == "" {
		return fmt.Errorf("please enter a request. Example: gemini-agent List the files here and create test.py")
	}

	a.io.Thinking(LabelGemini)
	res := a.tools.Gemini(ctx, agentPrompt+request, nil)
	if res.IsError() {
		return fmt.Errorf("gemini-agent: %w", res.Err())
	}
	a.io.Info("Gemini's analysis:")
	a.io.Print(res.Text())

	ok, err := a.io.Confirm("Do you want to perform these operations?", false)
	if err != nil || !ok {
		return err
	}

	steps := agentSteps(res.Text())
	a.logger.Debug("gemini-agent steps", zap.Strings("steps", steps))
	for _, step := range steps {
		var err error
		switch step {
		case "list":
			a.io.Info("Listing directory...")
			err = a.listDirectory(ctx, a.workDir)
		case "create":
			a.io.Info("Starting the file browser to create a file...")
			err = a.createFile(ctx)
		case "read":
			a.io.Info("Starting the file browser to read a file...")
			err = a.readFile(ctx, "")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// agentSteps picks the follow-up operations an analysis asks for, in the
// order list, create, read.
func agentSteps(analysis string) []string {
	text := strings.ToLower(analysis)
	var steps []string
	if strings.Contains(text, "list") {
		steps = append(steps, "list")
	}
	if strings.Contains(text, "create") || strings.Contains(text, "edit") {
		steps = append(steps, "create")
	}
	if strings.Contains(text, "read") {
		steps = append(steps, "read")
	}
	return steps
}

func (a *App) createFile(ctx context.Context) error {
	path, ok, err := browser.Run(a.io, browser.ModeCreate, a.workDir)
	if err != nil {
		return err
	}
	if !ok {
		a.io.Info("File creation cancelled.")
		return nil
	}
	content, err := a.io.ReadLine("File content: ")
	if err != nil {
		return err
	}
	res := a.tools.EditFile(ctx, path, content)
	if res.IsError() {
		return res.Err()
	}
	a.io.Success("File operation result: " + res.Text())
	return nil
}

// ── bash ─────────────────────────────────────────────────────────────────────

func (a *App) cmdBash(ctx context.Context, rest string) error {
	command := strings.TrimSpace(rest)
	if command == "" {
		return fmt.Errorf("please enter a shell command. Example: bash ls -la")
	}
	a.io.Info("Running command...")
	res := a.tools.Bash(ctx, command, 0)
	if res.IsError() {
		return res.Err()
	}
	a.io.Info("Command output:")
	a.io.Print(res.Text())
	return nil
}

// ── read / list / browse ─────────────────────────────────────────────────────

func (a *App) cmdRead(ctx context.Context, rest string) error {
	return a.readFile(ctx, strings.TrimSpace(rest))
}

// readFile shows the numbered contents of path, or of a file picked in the
// browser when path is empty.
func (a *App) readFile(ctx context.Context, path string) error {
	if path == "" {
		picked, ok, err := browser.Run(a.io, browser.ModeFile, a.workDir)
		if err != nil {
			return err
		}
		if !ok {
			a.io.Info("File selection cancelled.")
			return nil
		}
		path = picked
	}
	path = a.resolve(path)

	a.io.Info(fmt.Sprintf("Reading %s...", path))
	res := a.tools.ReadFile(ctx, path)
	if res.IsError() {
		return res.Err()
	}
	a.io.Info("File content: " + filepath.Base(path))
	a.io.Print(res.Text())
	return nil
}

func (a *App) cmdList(ctx context.Context, rest string) error {
	dir := strings.TrimSpace(rest)
	switch dir {
	case "":
		dir = a.workDir
	case "browse":
		picked, ok, err := browser.Run(a.io, browser.ModeDirectory, a.workDir)
		if err != nil {
			return err
		}
		if !ok {
			a.io.Info("Directory selection cancelled.")
			return nil
		}
		dir = picked
	}
	return a.listDirectory(ctx, a.resolve(dir))
}

func (a *App) listDirectory(ctx context.Context, dir string) error {
	a.io.Info(fmt.Sprintf("Listing %s...", dir))
	items, res := a.tools.ListFiles(ctx, dir)
	if res.IsError() {
		return res.Err()
	}
	a.io.Info("Directory contents: " + filepath.Base(dir))
	a.io.Print(FormatListing(items))
	return nil
}

// FormatListing renders directory entries as [DIR]/[FILE] lines.
func FormatListing(items []fsview.FileItem) string {
	if len(items) == 0 {
		return "(empty directory)"
	}
	var sb strings.Builder
	for _, it := range items {
		if it.IsDirectory {
			fmt.Fprintf(&sb, "[DIR]  %s/\n", it.Name)
			continue
		}
		if it.Size != nil {
			fmt.Fprintf(&sb, "[FILE] %s (%s)\n", it.Name, fsview.FormatSize(*it.Size))
		} else {
			fmt.Fprintf(&sb, "[FILE] %s\n", it.Name)
		}
	}
	return sb.String()
}

// cmdBrowse lists a picked directory or reads a picked file.
func (a *App) cmdBrowse(ctx context.Context, _ string) error {
	picked, ok, err := browser.Run(a.io, browser.ModeDirectory, a.workDir)
	if err != nil {
		return err
	}
	if !ok {
		a.io.Info("File browser cancelled.")
		return nil
	}
	info, err := os.Stat(picked)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return a.listDirectory(ctx, picked)
	}
	return a.readFile(ctx, picked)
}

// ── edit ─────────────────────────────────────────────────────────────────────

var editActions = []string{"Create a new file", "Edit an existing file", "Cancel"}

// cmdEdit writes "path content..." directly, or with no arguments walks the
// user through picking or naming a file and typing its new content.
func (a *App) cmdEdit(ctx context.Context, rest string) error {
	rest = strings.TrimSpace(rest)
	if rest != "" {
		path, content := splitFirstWord(rest)
		return a.writeFile(ctx, a.resolve(path), content)
	}

	choice, err := a.io.Choose("File operation:", editActions)
	if err != nil {
		return err
	}
	var (
		path string
		ok   bool
	)
	switch choice {
	case 0:
		path, ok, err = browser.Run(a.io, browser.ModeCreate, a.workDir)
	case 1:
		path, ok, err = browser.Run(a.io, browser.ModeFile, a.workDir)
	default:
		a.io.Info("Edit cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	if !ok {
		a.io.Info("File selection cancelled.")
		return nil
	}

	if choice == 1 {
		res := a.tools.ReadFile(ctx, path)
		if res.IsError() {
			return res.Err()
		}
		a.io.Info("Current content: " + filepath.Base(path))
		a.io.Print(tools.StripLineNumbers(res.Text()))
	}

	content, err := a.io.ReadLine("File content: ")
	if err != nil {
		return err
	}
	return a.writeFile(ctx, path, content)
}

func (a *App) writeFile(ctx context.Context, path, content string) error {
	a.io.Info(fmt.Sprintf("Editing %s...", path))
	res := a.tools.EditFile(ctx, path, content)
	if res.IsError() {
		return res.Err()
	}
	a.io.Success(res.Text())
	return nil
}

// splitFirstWord splits s at its first run of whitespace.
func splitFirstWord(s string) (first, rest string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}
