package mcp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/apexion-ai/mcpcli/internal/config"
	"github.com/apexion-ai/mcpcli/internal/permission"
	"github.com/apexion-ai/mcpcli/internal/provider"
	"github.com/apexion-ai/mcpcli/internal/tools"
)

type echoProvider struct {
	history []provider.Message
}

func (p *echoProvider) Complete(_ context.Context, req *provider.Request) (string, error) {
	p.history = req.History
	return "echo: " + req.Prompt, nil
}
func (p *echoProvider) Name() string         { return "echo" }
func (p *echoProvider) DefaultModel() string { return "echo-1" }

// connectInMemory wires a tool server and an Invoker over in-memory transports.
func connectInMemory(t *testing.T, claude provider.Provider) *Invoker {
	t.Helper()
	ctx := context.Background()

	reg := tools.DefaultRegistry(tools.RegistryConfig{
		Claude: claude,
		Gemini: provider.Unavailable("genai", provider.ErrMissingAPIKey),
	})
	exec := tools.NewExecutor(reg, permission.NewCommandPolicy(config.DefaultBannedCommands), nil)
	srv := NewServer(exec, "test", nil)

	clientT, serverT := mcp.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	inv, err := ConnectTransport(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inv.Close() })
	return inv
}

func TestInvoker_ListsServedTools(t *testing.T) {
	inv := connectInMemory(t, nil)

	list, err := inv.Tools(context.Background())
	require.NoError(t, err)

	var names []string
	for _, tl := range list {
		names = append(names, tl.Name)
	}
	require.ElementsMatch(t, []string{
		"bash", "codeReview", "editFile", "gemini", "grep",
		"listFiles", "prompt", "readFile", "searchGlob", "think",
	}, names)
}

func TestInvoker_Think(t *testing.T) {
	inv := connectInMemory(t, nil)

	res := inv.Call(context.Background(), "think", map[string]any{"thought": "plan"})
	require.False(t, res.IsError())
	require.Equal(t, "Thought process: plan", res.Text())
}

func TestInvoker_EditThenRead(t *testing.T) {
	inv := connectInMemory(t, nil)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes", "a.txt")

	res := inv.EditFile(ctx, path, "first\nsecond\n")
	require.False(t, res.IsError(), res.Text())
	require.Equal(t, "File "+path+" has been updated.", res.Text())

	res = inv.ReadFile(ctx, path)
	require.False(t, res.IsError(), res.Text())
	require.Equal(t, "first\nsecond\n", tools.StripLineNumbers(res.Text()))
}

func TestInvoker_ListFilesDecodesItems(t *testing.T) {
	inv := connectInMemory(t, nil)
	ctx := context.Background()
	dir := t.TempDir()

	require.False(t, inv.EditFile(ctx, filepath.Join(dir, "sub", "x.go"), "package x\n").IsError())
	require.False(t, inv.EditFile(ctx, filepath.Join(dir, "a.txt"), "hi").IsError())

	items, res := inv.ListFiles(ctx, dir)
	require.False(t, res.IsError(), res.Text())
	require.Len(t, items, 2)
	require.Equal(t, "sub", items[0].Name)
	require.True(t, items[0].IsDirectory)
	require.Equal(t, "a.txt", items[1].Name)
}

func TestInvoker_SearchAndGrep(t *testing.T) {
	inv := connectInMemory(t, nil)
	ctx := context.Background()
	dir := t.TempDir()
	require.False(t, inv.EditFile(ctx, filepath.Join(dir, "main.go"), "package main\n// marker\n").IsError())
	require.False(t, inv.EditFile(ctx, filepath.Join(dir, "notes.md"), "marker\n").IsError())

	res := inv.SearchGlob(ctx, "*.go", dir)
	require.False(t, res.IsError())
	require.Contains(t, res.Text(), "main.go")
	require.NotContains(t, res.Text(), "notes.md")

	res = inv.Grep(ctx, "marker", dir, "*.go")
	require.False(t, res.IsError())
	require.Contains(t, res.Text(), "main.go:2:// marker")
	require.NotContains(t, res.Text(), "notes.md")
}

func TestInvoker_ToolFailureIsFailureResult(t *testing.T) {
	inv := connectInMemory(t, nil)

	res := inv.ReadFile(context.Background(), "/nonexistent/file.txt")
	require.True(t, res.IsError())
	require.Error(t, res.Err())
	require.True(t, strings.HasPrefix(res.Text(), "error: "), res.Text())
}

func TestInvoker_BannedCommand(t *testing.T) {
	inv := connectInMemory(t, nil)

	res := inv.Bash(context.Background(), "wget http://example.invalid", 0)
	require.True(t, res.IsError())
	require.Equal(t, "Error: The command 'wget' is not allowed for security reasons.", res.Text())
}

func TestInvoker_BashRuns(t *testing.T) {
	inv := connectInMemory(t, nil)

	res := inv.Bash(context.Background(), "echo hi", 5000)
	require.False(t, res.IsError(), res.Text())
	require.Equal(t, "hi\n", res.Text())
}

func TestInvoker_ClaudeForwardsHistory(t *testing.T) {
	p := &echoProvider{}
	inv := connectInMemory(t, p)

	history := []provider.Message{
		{Role: provider.RoleUser, Content: "a"},
		{Role: provider.RoleAssistant, Content: "b"},
	}
	res := inv.Claude(context.Background(), "c", history)
	require.False(t, res.IsError(), res.Text())
	require.Equal(t, "echo: c", res.Text())
	require.Equal(t, history, p.history)
}

func TestInvoker_GeminiUnavailable(t *testing.T) {
	inv := connectInMemory(t, nil)

	res := inv.Gemini(context.Background(), "hello", nil)
	require.True(t, res.IsError())
	require.Contains(t, res.Text(), provider.ErrMissingAPIKey.Error())
}

func TestInvoker_ClosedIsFailure(t *testing.T) {
	inv := connectInMemory(t, nil)
	require.NoError(t, inv.Close())

	res := inv.Call(context.Background(), "think", map[string]any{"thought": "x"})
	require.True(t, res.IsError())
	require.Equal(t, "not connected", res.Text())
}

func TestResult(t *testing.T) {
	ok := Success("done")
	require.False(t, ok.IsError())
	require.NoError(t, ok.Err())
	require.Equal(t, "done", ok.Text())

	bad := Failure("boom")
	require.True(t, bad.IsError())
	require.Equal(t, "boom", bad.Text())
	require.EqualError(t, bad.Err(), "boom")

	var zero Result
	require.False(t, zero.IsError())
	require.False(t, errors.Is(zero.Err(), errors.New("boom")))
}

// blockingProvider waits for its context to end.
type blockingProvider struct {
	started chan struct{}
}

func (p *blockingProvider) Complete(ctx context.Context, _ *provider.Request) (string, error) {
	close(p.started)
	<-ctx.Done()
	return "", ctx.Err()
}
func (p *blockingProvider) Name() string         { return "blocking" }
func (p *blockingProvider) DefaultModel() string { return "blocking-1" }

func TestInvoker_CancelledCallKeepsContextError(t *testing.T) {
	p := &blockingProvider{started: make(chan struct{})}
	inv := connectInMemory(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-p.started
		cancel()
	}()

	res := inv.Claude(ctx, "wait", nil)
	require.True(t, res.IsError())
	require.ErrorIs(t, res.Err(), context.Canceled)
}

func TestResult_FailureFrom(t *testing.T) {
	res := FailureFrom(context.DeadlineExceeded)
	require.True(t, res.IsError())
	require.Equal(t, context.DeadlineExceeded.Error(), res.Text())
	require.ErrorIs(t, res.Err(), context.DeadlineExceeded)
}
