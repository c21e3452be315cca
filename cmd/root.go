package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"push-relay/pkg/config"
	"push-relay/pkg/logger"

	"github.com/spf13/cobra"
)

var log = logger.For("CLI")

var rootCmd = &cobra.Command{
	Use:           "push-relay",
	Short:         "Device registry and push notification relay",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// loadConfig reads the environment and configures logging before any command runs
func loadConfig() *config.Config {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	return cfg
}

// Execute runs the CLI and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&autoMigrate, "migrate", true, "apply pending database migrations on startup")
	}
	rootCmd.AddCommand(serveCmd, migrateCmd, publishCmd, tokenCmd)
}
