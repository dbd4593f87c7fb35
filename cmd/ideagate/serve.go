package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/contentpro/ideagate/bootstrap"
	"github.com/contentpro/ideagate/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot",
	Long: `Start the IdeaGate bot.

The bot will:
  - Load configuration from ideagate.yaml (or --config)
  - Or load configuration from IDEAGATE_* environment variables
  - Open the user store
  - Poll Telegram for updates
  - Serve health and metrics endpoints over HTTP

Environment variables (for Docker deployments):
  IDEAGATE_TELEGRAM_TOKEN     - Telegram bot token (required)
  IDEAGATE_PROVIDER_TOKEN     - Payment provider token
  IDEAGATE_GENERATOR_API_KEY  - OpenAI API key
  IDEAGATE_STORAGE_DRIVER     - Storage driver: memory, jsonfile, or sqlite
  IDEAGATE_STORAGE_PATH       - Storage file path
  IDEAGATE_SERVER_PORT        - HTTP port (default: 8080)
  IDEAGATE_LOG_LEVEL          - Log level: debug, info, warn, error

Examples:
  ideagate serve
  ideagate serve --config /etc/ideagate/config.yaml
  ideagate serve --hot-reload=false

  # Docker (env vars only):
  IDEAGATE_TELEGRAM_TOKEN=123:abc ideagate serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	hasEnvConfig := config.HasEnvConfig()

	// No configuration at all
	if !hasConfigFile && !hasEnvConfig {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Option 1: Create %s\n", cfgFile)
		fmt.Println("Option 2: Set IDEAGATE_TELEGRAM_TOKEN environment variable")
		fmt.Println()
		fmt.Println("Example (env vars):")
		fmt.Println("  IDEAGATE_TELEGRAM_TOKEN=123:abc ideagate serve")
		return nil
	}

	// Create application
	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		// Load config (file with env overrides, or env-only)
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}

		if !hasConfigFile {
			fmt.Println("Running with environment variables (no config file)")
		}

		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run (blocks until shutdown)
	return app.Run(ctx)
}
