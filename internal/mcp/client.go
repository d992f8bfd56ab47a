package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/apexion-ai/mcpcli/internal/config"
	"github.com/apexion-ai/mcpcli/internal/fsview"
	"github.com/apexion-ai/mcpcli/internal/logging"
	"github.com/apexion-ai/mcpcli/internal/provider"
)

// Invoker is the client side of the tool protocol. Every command reaches
// the LLM providers and the local filesystem through it.
//
// Call never returns a Go error: transport failures and tool-reported
// failures both come back as a Failure result.
type Invoker struct {
	mu      sync.Mutex
	session *mcp.ClientSession
	logger  *zap.Logger
}

// ClientVersion is announced to the server during the handshake.
var ClientVersion = "dev"

func newClient() *mcp.Client {
	return mcp.NewClient(&mcp.Implementation{
		Name:    ServerName + "-client",
		Version: ClientVersion,
	}, nil)
}

// Connect establishes a session with the tool server described by cfg.
// When a URL-based config has no explicit type, it tries Streamable HTTP
// first, then falls back to SSE.
func Connect(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) (*Invoker, error) {
	logger = logging.OrNop(logger)
	autoDetect := cfg.URL != "" && cfg.Type == ""

	transport, err := buildTransport(cfg)
	if err != nil {
		return nil, err
	}

	session, err := newClient().Connect(ctx, transport, nil)
	if err != nil && autoDetect {
		logger.Debug("streamable HTTP connect failed, trying SSE", zap.Error(err))
		sseCfg := cfg
		sseCfg.Type = config.ServerTypeSSE
		sseTransport, sseErr := buildTransport(sseCfg)
		if sseErr != nil {
			return nil, fmt.Errorf("connect (streamable HTTP failed: %v; SSE build failed: %v)", err, sseErr)
		}
		session, sseErr = newClient().Connect(ctx, sseTransport, nil)
		if sseErr != nil {
			return nil, fmt.Errorf("connect failed (tried streamable HTTP: %v; SSE: %v)", err, sseErr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	logger.Debug("connected to tool server", zap.String("transport", string(cfg.EffectiveType())))
	return &Invoker{session: session, logger: logger}, nil
}

// ConnectTransport establishes a session over an already-built transport.
func ConnectTransport(ctx context.Context, t mcp.Transport, logger *zap.Logger) (*Invoker, error) {
	session, err := newClient().Connect(ctx, t, nil)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &Invoker{session: session, logger: logging.OrNop(logger)}, nil
}

// Close ends the session. Closing a stdio session stops the server process.
func (inv *Invoker) Close() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.session == nil {
		return nil
	}
	err := inv.session.Close()
	inv.session = nil
	return err
}

// Tools lists the tools the server offers.
func (inv *Invoker) Tools(ctx context.Context) ([]*mcp.Tool, error) {
	session, err := inv.current()
	if err != nil {
		return nil, err
	}
	res, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return res.Tools, nil
}

// Call invokes a tool by name.
func (inv *Invoker) Call(ctx context.Context, tool string, args map[string]any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			inv.logger.Error("tool call panicked", zap.String("tool", tool), zap.Any("panic", r))
			res = Failure(fmt.Sprintf("tool %s failed: %v", tool, r))
		}
	}()

	session, err := inv.current()
	if err != nil {
		return Failure(err.Error())
	}
	if args == nil {
		args = map[string]any{}
	}

	out, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      tool,
		Arguments: args,
	})
	if err != nil {
		inv.logger.Debug("tool call failed", zap.String("tool", tool), zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return FailureFrom(ctxErr)
		}
		return Failure(fmt.Sprintf("call tool %q: %v", tool, err))
	}

	text := extractContent(out)
	if out.IsError {
		return Failure(text)
	}
	return Success(text)
}

func (inv *Invoker) current() (*mcp.ClientSession, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.session == nil {
		return nil, fmt.Errorf("not connected")
	}
	return inv.session, nil
}

// ── Typed helpers ────────────────────────────────────────────────────────────

// Claude sends a prompt, with optional prior turns, through the "prompt" tool.
func (inv *Invoker) Claude(ctx context.Context, prompt string, history []provider.Message) Result {
	return inv.Call(ctx, "prompt", llmArgs(prompt, history))
}

// Gemini sends a prompt through the "gemini" tool.
func (inv *Invoker) Gemini(ctx context.Context, prompt string, history []provider.Message) Result {
	return inv.Call(ctx, "gemini", llmArgs(prompt, history))
}

func llmArgs(prompt string, history []provider.Message) map[string]any {
	args := map[string]any{"prompt": prompt}
	if len(history) > 0 {
		msgs := make([]map[string]any, len(history))
		for i, m := range history {
			msgs[i] = map[string]any{"role": string(m.Role), "content": m.Content}
		}
		args["messages"] = msgs
	}
	return args
}

// Bash runs a shell command. timeoutMS <= 0 uses the server default.
func (inv *Invoker) Bash(ctx context.Context, command string, timeoutMS int) Result {
	args := map[string]any{"command": command}
	if timeoutMS > 0 {
		args["timeout"] = timeoutMS
	}
	return inv.Call(ctx, "bash", args)
}

// ReadFile returns the numbered contents of path.
func (inv *Invoker) ReadFile(ctx context.Context, path string) Result {
	return inv.Call(ctx, "readFile", map[string]any{"file_path": path})
}

// ListFiles lists a directory. The entries are decoded from the tool's
// JSON output; an undecodable reply is a Failure.
func (inv *Invoker) ListFiles(ctx context.Context, path string) ([]fsview.FileItem, Result) {
	res := inv.Call(ctx, "listFiles", map[string]any{"path": path})
	if res.IsError() {
		return nil, res
	}
	var items []fsview.FileItem
	if err := json.Unmarshal([]byte(res.Text()), &items); err != nil {
		return nil, Failure(fmt.Sprintf("decode listing: %v", err))
	}
	return items, res
}

// EditFile replaces the contents of path.
func (inv *Invoker) EditFile(ctx context.Context, path, content string) Result {
	return inv.Call(ctx, "editFile", map[string]any{"file_path": path, "content": content})
}

// SearchGlob finds files matching pattern under path ("" = server cwd).
func (inv *Invoker) SearchGlob(ctx context.Context, pattern, path string) Result {
	args := map[string]any{"pattern": pattern}
	if path != "" {
		args["path"] = path
	}
	return inv.Call(ctx, "searchGlob", args)
}

// Grep searches file contents. include filters file names, e.g. "*.go".
func (inv *Invoker) Grep(ctx context.Context, pattern, path, include string) Result {
	args := map[string]any{"pattern": pattern}
	if path != "" {
		args["path"] = path
	}
	if include != "" {
		args["include"] = include
	}
	return inv.Call(ctx, "grep", args)
}

// ── Utility functions ────────────────────────────────────────────────────────

// buildTransport creates the appropriate transport based on ServerConfig.
func buildTransport(cfg config.ServerConfig) (mcp.Transport, error) {
	switch cfg.EffectiveType() {
	case config.ServerTypeStdio:
		if cfg.Command == "" {
			return nil, fmt.Errorf("stdio transport requires 'command'")
		}
		cmd := exec.Command(cfg.Command, cfg.Args...)
		cmd.Stderr = os.Stderr
		// Inherit parent process env, then append custom env
		if len(cfg.Env) > 0 {
			cmd.Env = os.Environ()
			for k, v := range cfg.Env {
				cmd.Env = append(cmd.Env, k+"="+v)
			}
		}
		return &mcp.CommandTransport{Command: cmd}, nil

	case config.ServerTypeHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("http transport requires 'url'")
		}
		t := &mcp.StreamableClientTransport{Endpoint: cfg.URL}
		if len(cfg.Headers) > 0 {
			t.HTTPClient = headerClient(cfg.Headers)
		}
		return t, nil

	case config.ServerTypeSSE:
		if cfg.URL == "" {
			return nil, fmt.Errorf("sse transport requires 'url'")
		}
		t := &mcp.SSEClientTransport{Endpoint: cfg.URL}
		if len(cfg.Headers) > 0 {
			t.HTTPClient = headerClient(cfg.Headers)
		}
		return t, nil

	default:
		return nil, fmt.Errorf("unknown transport type: %q", cfg.EffectiveType())
	}
}

func headerClient(headers map[string]string) *http.Client {
	return &http.Client{
		Transport: &headerRoundTripper{
			base:    http.DefaultTransport,
			headers: headers,
		},
	}
}

// extractContent extracts text content from a CallToolResult.
func extractContent(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// headerRoundTripper injects fixed headers into every HTTP request.
type headerRoundTripper struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone request to avoid mutating the original
	r := req.Clone(req.Context())
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}
