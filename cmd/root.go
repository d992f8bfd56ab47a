package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apexion-ai/mcpcli/internal/config"
	"github.com/apexion-ai/mcpcli/internal/logging"
	"github.com/apexion-ai/mcpcli/internal/mcp"
	"github.com/apexion-ai/mcpcli/internal/repl"
	"github.com/apexion-ai/mcpcli/internal/session"
	"github.com/apexion-ai/mcpcli/internal/tui"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// connectTimeout bounds the handshake with the tool server at startup.
const connectTimeout = 30 * time.Second

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
	mcp.ClientVersion = version

	rootCmd := &cobra.Command{
		Use:   "mcpcli",
		Short: "Terminal client for Claude, Gemini and local file tools",
		Long: "mcpcli is an interactive prompt loop that reaches Claude, Gemini and local\n" +
			"filesystem and shell tools through a Model Context Protocol tool server.",
		// Running mcpcli with no subcommand starts the interactive loop.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/mcpcli/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Subcommands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration, applying CLI flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if noColor {
		cfg.UI.Color = "never"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// openStore opens the configured session backend.
func openStore(cfg *config.Config, logger *zap.Logger) (*session.Store, error) {
	var backend session.Backend
	switch cfg.History.Backend {
	case config.BackendSQLite:
		b, err := session.NewSQLiteBackend(cfg.SessionDBPath())
		if err != nil {
			return nil, fmt.Errorf("open session database: %w", err)
		}
		backend = b
	case config.BackendJSON, "":
		backend = session.NewJSONBackend(cfg.History.Dir)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
	store, err := session.NewStore(backend, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return store, nil
}

func uiOptions(cfg *config.Config) tui.Options {
	opts := tui.Options{
		Color:     cfg.UI.Color,
		Markdown:  "never",
		Menu:      cfg.UI.Menu,
		CodeStyle: cfg.UI.CodeStyle,
	}
	if cfg.UI.Markdown {
		opts.Markdown = "always"
	}
	if cfg.UI.Menu == "numbered" {
		opts.Menu = "never"
	}
	return opts
}

// runInteractive connects to the tool server and runs the prompt loop.
// Startup failures are returned and end the process with exit code 1.
func runInteractive(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	srvCfg, err := mcp.ResolveServerConfig(cfg.Server, cfgFile)
	if err != nil {
		return err
	}
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	inv, err := mcp.Connect(connectCtx, srvCfg, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to tool server: %w", err)
	}
	defer inv.Close()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close session store", zap.Error(err))
		}
	}()

	ui := tui.NewPlainIO(uiOptions(cfg))
	app := repl.New(ui, inv, store, repl.Options{
		ContextMessages: cfg.History.ContextMessages,
		Logger:          logger,
	})
	return app.Run(ctx)
}
