// Package cli provides the command-line interface for bankchat.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/bankchat/internal/chat"
	"github.com/raphaelgruber/bankchat/internal/client"
	"github.com/raphaelgruber/bankchat/internal/config"
	"github.com/raphaelgruber/bankchat/internal/extract"
	"github.com/raphaelgruber/bankchat/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	// Global config and logger
	cfg           config.Config
	logger        *slog.Logger
	loggerCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
// Without a subcommand it opens the chat view.
var rootCmd = &cobra.Command{
	Use:   "bankchat",
	Short: "Chat with the Banking AI Engine",
	Long: `Bankchat is a terminal chat client for the Banking AI Engine.

Type a banking complaint or upload a PDF, and the engine's structured analysis
(category, priority, risk, SLA, resolution steps and a draft reply) is shown
as a chat message.

Configuration is read from environment variables (BANKCHAT_*), a .env file in
the working directory and ~/.config/bankchat/config.yaml.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}

		// The chat view owns the terminal: log to file only.
		if isChatCommand(cmd) {
			logger, loggerCleanup = config.SetupFileLogger(cfg.LogFile, level)
		} else {
			logger, loggerCleanup = config.SetupLogger(cfg.LogFile, level)
		}
		slog.SetDefault(logger)

		logger.Debug("config loaded",
			"server_url", cfg.ServerURL,
			"timeout", cfg.ClientTimeout,
			"ordering", cfg.Ordering,
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if loggerCleanup != nil {
			if err := loggerCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
	RunE: runChat,
}

// services bundles what every command needs to talk to the engine.
type services struct {
	client    *client.Client
	extractor *extract.Extractor
	chat      *chat.Service
	metrics   *metrics.Collector
}

// newServices wires the engine client and extractor from the loaded config.
func newServices() *services {
	m := metrics.NewCollector()

	c := client.New(cfg.ServerURL,
		client.WithTimeout(cfg.ClientTimeout),
		client.WithLogger(logger),
		client.WithMetrics(m),
	)
	ex := extract.New(
		extract.WithMaxBytes(cfg.MaxFileBytes),
		extract.WithLogger(logger),
		extract.WithMetrics(m),
	)

	return &services{
		client:    c,
		extractor: ex,
		chat:      chat.NewService(c, ex, logger),
		metrics:   m,
	}
}

func isChatCommand(cmd *cobra.Command) bool {
	return cmd.Name() == "chat" || !cmd.HasParent()
}

// Execute adds all child commands to the root command and runs it.
// SIGINT and SIGTERM cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Banking AI Engine base URL (overrides BANKCHAT_SERVER_URL)")

	addChatFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(healthCmd)
}
