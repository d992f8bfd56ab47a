package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apexion-ai/mcpcli/internal/config"
	"github.com/apexion-ai/mcpcli/internal/mcp"
	"github.com/apexion-ai/mcpcli/internal/permission"
	"github.com/apexion-ai/mcpcli/internal/provider"
	"github.com/apexion-ai/mcpcli/internal/tools"
)

func newServeCmd() *cobra.Command {
	var httpAddr string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the tool server",
		Long: "Serves the bash, prompt, gemini, readFile, listFiles, searchGlob, grep, think,\n" +
			"codeReview and editFile tools over stdio (default) or Streamable HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), httpAddr)
		},
	}
	c.Flags().StringVar(&httpAddr, "http", "", "serve Streamable HTTP on this address instead of stdio (e.g. :8080)")
	return c
}

// buildProvider creates the provider behind one LLM tool. A missing key or
// a bad provider config does not stop the server; calls to that tool fail
// with the reason instead.
func buildProvider(ctx context.Context, section string, pc config.ProviderConfig, logger *zap.Logger) provider.Provider {
	p, err := provider.New(ctx, pc)
	if err != nil {
		if errors.Is(err, provider.ErrMissingAPIKey) {
			logger.Warn("API key not configured; tool disabled", zap.String("provider", section))
		} else {
			logger.Error("provider unavailable", zap.String("provider", section), zap.Error(err))
		}
		return provider.Unavailable(section, err)
	}
	return p
}

func runServe(ctx context.Context, httpAddr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := tools.DefaultRegistry(tools.RegistryConfig{
		Bash: tools.BashToolConfig{
			WorkDir:          cfg.Bash.WorkDir,
			DefaultTimeoutMS: cfg.Bash.DefaultTimeoutMS,
			MaxTimeoutMS:     cfg.Bash.MaxTimeoutMS,
		},
		Claude: buildProvider(ctx, "claude", cfg.Claude, logger),
		Gemini: buildProvider(ctx, "gemini", cfg.Gemini, logger),
	})
	policy := permission.NewCommandPolicy(cfg.Bash.BannedCommands)
	executor := tools.NewExecutor(registry, policy, logger)
	srv := mcp.NewServer(executor, appVersion, logger)

	if httpAddr != "" {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return mcp.ServeHTTP(ctx, srv, httpAddr, logger, nil)
	}

	// Over stdio the client shares our terminal, and ctrl-c there cancels a
	// single command. The server ends when the client closes stdin.
	signal.Ignore(os.Interrupt)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()
	logger.Debug("serving tools over stdio")
	return mcp.ServeStdio(ctx, srv)
}
