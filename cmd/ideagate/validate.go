package main

import (
	"fmt"
	"os"

	"github.com/contentpro/ideagate/adapters/sqlite"
	"github.com/contentpro/ideagate/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the IdeaGate configuration file.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - Prices are well formed
  - Storage is writable (optional)

Examples:
  ideagate validate
  ideagate validate --config /etc/ideagate/config.yaml`,
	RunE: runValidate,
}

var (
	validateCheckStorage bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckStorage, "check-storage", false, "check if storage is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	// Check file exists
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	// Load and validate config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)
	fmt.Printf("  %s Required fields present\n", checkMark)
	fmt.Printf("  %s Prices configured (%d currencies)\n", checkMark, len(cfg.Prices))

	if validateCheckStorage && cfg.Storage.Driver == "sqlite" {
		db, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			fmt.Printf("  %s Storage writable\n", crossMark)
			return fmt.Errorf("storage error: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			fmt.Printf("  %s Storage writable\n", crossMark)
			return fmt.Errorf("migration error: %w", err)
		}
		fmt.Printf("  %s Storage writable\n", checkMark)
	}

	fmt.Println("\nConfiguration is valid.")
	return nil
}
