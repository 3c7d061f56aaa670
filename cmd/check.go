package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csvjira/csvjira/pkg/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration and tracker connectivity",
	Long: `Validate the configuration and verify that the configured tracker is
reachable with the current credentials.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if config.Exists() {
		fmt.Printf("Using configuration file %s\n", config.FindConfigPath())
	} else {
		fmt.Println("No configuration file found; using defaults and environment")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Println("Configuration is valid")

	client, err := newTrackerClient(cfg)
	if err != nil {
		return err
	}

	if err := client.TestConnection(cmd.Context()); err != nil {
		return fmt.Errorf("failed to connect to %s tracker: %w", cfg.Tracker, err)
	}

	fmt.Printf("Successfully connected to %s tracker\n", cfg.Tracker)
	return nil
}
