package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/apexion-ai/mcpcli/internal/logging"
	"github.com/apexion-ai/mcpcli/internal/tools"
)

// ServerName is the implementation name announced during the handshake.
const ServerName = "mcpcli"

// NewServer builds a protocol server exposing every tool in the executor's
// registry. Calls run through the executor, so permission checks, panic
// recovery and output limits apply. Tool failures are reported in the
// result with isError set, never as protocol errors.
func NewServer(exec *tools.Executor, version string, logger *zap.Logger) *mcp.Server {
	logger = logging.OrNop(logger)
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}, nil)

	for _, t := range exec.Registry().All() {
		name := t.Name()
		srv.AddTool(&mcp.Tool{
			Name:        name,
			Description: t.Description(),
			InputSchema: tools.InputSchema(t),
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			logger.Debug("tool call", zap.String("tool", name))
			res := exec.Execute(ctx, name, req.Params.Arguments)
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: res.Content}},
				IsError: res.IsError,
			}, nil
		})
	}
	return srv
}

// ServeStdio serves srv over stdin/stdout until the client disconnects or
// ctx is cancelled.
func ServeStdio(ctx context.Context, srv *mcp.Server) error {
	err := srv.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ServeHTTP serves srv over Streamable HTTP on addr until ctx is cancelled.
// ready, when non-nil, receives the bound address once the listener is up.
func ServeHTTP(ctx context.Context, srv *mcp.Server, addr string, logger *zap.Logger, ready chan<- string) error {
	logger = logging.OrNop(logger)

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)
	mux.Handle("/", handler)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("tool server listening", zap.String("addr", ln.Addr().String()))
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown tool server", zap.Error(err))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
