package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ideagate",
	Short: "Telegram bot that sells metered access to AI content-idea generation",
	Long: `IdeaGate is a self-hosted Telegram bot for content creators.

It generates content ideas on demand, meters free usage with a daily
quota, and sells subscriptions through Telegram payments (USDT, TON,
or Telegram Stars).

Quick start:
  ideagate serve     # Start the bot
  ideagate validate  # Check the configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "ideagate.yaml", "config file path")
}
