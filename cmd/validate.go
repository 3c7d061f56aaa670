package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csvjira/csvjira/pkg/output"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a CSV file without uploading",
	Long: `Parse a CSV file, group its rows, and run every validation check that the
upload command would run, without making any remote calls.`,
	Example: `  csvjira validate --csv-file data/issues.csv`,
	RunE:    runValidate,
}

var validateCSVFile string

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateCSVFile, "csv-file", "f", "", "Path to CSV file to validate")
	_ = validateCmd.MarkFlagRequired("csv-file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	formatter := output.NewFormatter(output.ParseFormat(outputFormat))

	groups, err := loadGroups(validateCSVFile)
	if err != nil {
		if ferr := formatter.FormatError(err); ferr != nil {
			return ferr
		}
		return fmt.Errorf("%s is not valid", validateCSVFile)
	}

	subtasks := 0
	for _, g := range groups {
		subtasks += len(g.Subtasks)
	}

	fmt.Printf("%s is valid: %d group(s), %d subtask(s)\n", validateCSVFile, len(groups), subtasks)
	return nil
}
