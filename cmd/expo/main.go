package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axeldelafosse/expo-cli/client"
	"github.com/axeldelafosse/expo-cli/internal/config"
	"github.com/axeldelafosse/expo-cli/internal/core"
	"github.com/axeldelafosse/expo-cli/internal/logging"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	offline     bool
	projectRoot string

	settings   *config.Settings
	logger     *zap.Logger
	httpClient *client.Client
)

var rootCmd = &cobra.Command{
	Use:           "expo",
	Short:         "Tools for building and serving universal app projects",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		settings, err = config.Load(configPath)
		if err != nil {
			return core.WrapCommandError(core.EUsage, "loading config", err)
		}
		if cmd.Flags().Changed("offline") {
			settings.Offline = offline
		}
		if verbose {
			settings.LogLevel = "debug"
		}
		if err := settings.Validate(); err != nil {
			return core.WrapCommandError(core.EUsage, "invalid config", err)
		}

		logger, err = logging.New(settings.LogLevel, false)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		httpClient = client.NewClient(
			client.WithTimeout(settings.HTTPTimeout),
			client.WithMaxRetries(settings.HTTPRetries),
		).WithUserAgent(settings.UserAgent)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logBreakerStates(logger, httpClient)
			_ = logger.Sync()
		}
	},
}

// logBreakerStates reports hosts whose circuit breaker tripped during the
// command.
func logBreakerStates(l *zap.Logger, c *client.Client) {
	if c == nil {
		return
	}
	for host, state := range c.BreakerStates() {
		if state != "closed" {
			l.Debug("Circuit breaker open", zap.String("host", host), zap.String("state", state))
		}
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Skip all network requests")
	rootCmd.PersistentFlags().StringVarP(&projectRoot, "project-root", "p", ".", "Project directory")

	rootCmd.AddCommand(nativeModulesCmd, buildConfigCmd, devSessionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error's code to the process exit status.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return 130
	}
	switch core.CodeOf(err) {
	case core.EUsage:
		return 2
	default:
		return 1
	}
}
