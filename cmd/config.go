package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/csvjira/csvjira/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long:  `Print the configuration after merging the config file and environment, with secrets masked.`,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fmt.Println("Current Configuration")
	fmt.Println(strings.Repeat("=", 30))
	if config.Exists() {
		fmt.Printf("Config file: %s\n", config.FindConfigPath())
	} else {
		fmt.Println("Config file: (none found, using defaults)")
	}
	fmt.Printf("Tracker: %s\n", cfg.Tracker)
	fmt.Printf("Default CSV file: %s\n", orUnset(cfg.CSVFile))
	fmt.Printf("Retry attempts: %d\n", cfg.Retry.Attempts)
	fmt.Printf("Retry base delay: %s\n", time.Duration(cfg.Retry.BaseDelay))

	if cfg.Tracker == config.TrackerJira {
		fmt.Printf("Jira URL: %s\n", orUnset(cfg.Jira.URL))
		fmt.Printf("Jira username: %s\n", orUnset(cfg.Jira.Username))
		fmt.Printf("Jira API token: %s\n", mask(cfg.Jira.Token))
	}

	return nil
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return strings.Repeat("*", len(secret))
}
