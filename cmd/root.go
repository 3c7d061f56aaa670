package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "csvjira",
	Short: "Create issues and subtasks in a remote tracker from CSV data",
	Long: `csvjira reads a CSV file describing issues and their subtasks, groups
related rows, validates them, and creates the issues in a remote tracker
(Jira, or GitHub as an alternative backend).

Rows sharing an ID form one group: exactly one row carries the main issue
fields, and any row may contribute a subtask. The whole file is validated
before anything is uploaded; remote failures are retried and reported
per entity without aborting the run.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Global flags
var (
	outputFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, csv, quiet)")
}

func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
