package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// BashTool executes shell commands. Banned commands are rejected by the
// executor's permission policy before this tool runs.
type BashTool struct {
	WorkDir          string
	DefaultTimeoutMS int
	MaxTimeoutMS     int
}

func (t *BashTool) Name() string                     { return "bash" }
func (t *BashTool) IsReadOnly() bool                 { return false }
func (t *BashTool) PermissionLevel() PermissionLevel { return PermissionExecute }
func (t *BashTool) Required() []string               { return []string{"command"} }

func (t *BashTool) Description() string {
	return "Execute a shell command and return its combined stdout and stderr output. " +
		"stdin is disconnected, so interactive commands will fail."
}

const (
	defaultBashTimeoutMS = 120000
	maxBashTimeoutMS     = 600000
)

func (t *BashTool) Parameters() map[string]any {
	return map[string]any{
		"command": map[string]any{
			"type":        "string",
			"description": "The shell command to execute",
		},
		"timeout": map[string]any{
			"type":        "number",
			"description": "Optional timeout in milliseconds (max 600000)",
		},
	}
}

// timeout resolves the requested timeout in milliseconds against the
// configured default and maximum.
func (t *BashTool) timeout(requestedMS int) time.Duration {
	def := t.DefaultTimeoutMS
	if def <= 0 {
		def = defaultBashTimeoutMS
	}
	max := t.MaxTimeoutMS
	if max <= 0 {
		max = maxBashTimeoutMS
	}
	ms := def
	if requestedMS > 0 {
		ms = requestedMS
	}
	if ms > max {
		ms = max
	}
	return time.Duration(ms) * time.Millisecond
}

func (t *BashTool) Execute(ctx context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		Command string  `json:"command"`
		Timeout float64 `json:"timeout"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ToolResult{}, fmt.Errorf("invalid params: %w", err)
	}
	if p.Command == "" {
		return ToolResult{}, fmt.Errorf("command is required")
	}

	return t.run(ctx, p.Command, t.timeout(int(p.Timeout)))
}

// run executes a command with a hard timeout. The command runs in its own
// process group so a timeout kills everything it spawned.
func (t *BashTool) run(ctx context.Context, command string, timeout time.Duration) (ToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(shellBin(), "-c", command)
	cmd.Stdin = nil
	cmd.Dir = t.WorkDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var buf safeBuffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Start(); err != nil {
		return ToolResult{
			Content: fmt.Sprintf("Failed to start: %v", err),
			IsError: true,
		}, nil
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		result := buf.String()
		if err != nil {
			return ToolResult{
				Content: fmt.Sprintf("Exit error: %v\nOutput:\n%s", err, result),
				IsError: true,
			}, nil
		}
		return ToolResult{Content: result}, nil

	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		result := buf.String()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			secs := int(timeout.Seconds())
			return ToolResult{
				Content: fmt.Sprintf("Command timed out after %dm%ds.\nOutput:\n%s",
					secs/60, secs%60, result),
				IsError: true,
			}, nil
		}
		return ToolResult{}, fmt.Errorf("cancelled")
	}
}

// killProcessGroup sends SIGTERM to the process group, waits briefly, then
// sends SIGKILL if the process is still alive.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	// Negative PID sends signal to the entire process group.
	_ = syscall.Kill(-pid, syscall.SIGTERM)
	time.Sleep(200 * time.Millisecond)
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// safeBuffer is a bytes.Buffer safe for concurrent reads and writes.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = (*safeBuffer)(nil)

// shellBin returns the user's preferred shell, falling back to bash then sh.
func shellBin() string {
	if s := os.Getenv("SHELL"); s != "" {
		if _, err := os.Stat(s); err == nil {
			return s
		}
	}
	if p, err := exec.LookPath("bash"); err == nil {
		return p
	}
	return "sh"
}
