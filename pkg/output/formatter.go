package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/csvjira/csvjira/pkg/upload"
)

// FormatType represents the output format type
type FormatType int

const (
	// FormatTable outputs as a formatted table
	FormatTable FormatType = iota
	// FormatJSON outputs as JSON
	FormatJSON
	// FormatCSV outputs as CSV
	FormatCSV
	// FormatQuiet outputs minimal information
	FormatQuiet
)

// ParseFormat maps a --output flag value to a format type.
func ParseFormat(name string) FormatType {
	switch name {
	case "json":
		return FormatJSON
	case "csv":
		return FormatCSV
	case "quiet":
		return FormatQuiet
	default:
		return FormatTable
	}
}

// Formatter handles output formatting
type Formatter struct {
	format FormatType
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(format FormatType) *Formatter {
	return &Formatter{
		format: format,
		writer: os.Stdout,
	}
}

// NewFormatterWithWriter creates a new formatter with custom writer
func NewFormatterWithWriter(format FormatType, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
	}
}

// FormatSummary formats an upload run summary.
func (f *Formatter) FormatSummary(summary *upload.Summary) error {
	switch f.format {
	case FormatQuiet:
		return f.formatSummaryQuiet(summary)
	case FormatJSON:
		return f.formatSummaryJSON(summary)
	case FormatCSV:
		return f.formatSummaryCSV(summary)
	default:
		return f.formatSummaryTable(summary)
	}
}

// formatSummaryQuiet prints only the created keys, one per line.
func (f *Formatter) formatSummaryQuiet(summary *upload.Summary) error {
	for _, r := range summary.Results {
		if r.Failed() {
			continue
		}
		if _, err := fmt.Fprintln(f.writer, r.Key); err != nil {
			return err
		}
	}
	return nil
}

// formatSummaryTable formats a summary as a table
func (f *Formatter) formatSummaryTable(summary *upload.Summary) error {
	w := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Upload Complete\n\n")
	fmt.Fprintf(w, "Groups:\t%d\n", summary.Groups)
	fmt.Fprintf(w, "Main issues created:\t%d\n", summary.MainCreated)
	fmt.Fprintf(w, "Main issues failed:\t%d\n", summary.MainFailed)
	fmt.Fprintf(w, "Subtasks created:\t%d\n", summary.SubtasksCreated)
	fmt.Fprintf(w, "Subtasks failed:\t%d\n", summary.SubtasksFailed)

	created := false
	for _, r := range summary.Results {
		if r.Failed() {
			continue
		}
		if !created {
			fmt.Fprintf(w, "\nCreated:\n")
			fmt.Fprintf(w, "Group\tKind\tKey\tSummary\n")
			created = true
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.GroupID, r.Kind, r.Key, r.Summary)
	}

	if len(summary.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures:\n")
		for _, r := range summary.Failures {
			fmt.Fprintf(w, "  [%s] %s %q: %s\n", r.GroupID, r.Kind, r.Summary, r.Error)
		}
	}

	return nil
}

// formatSummaryJSON formats a summary as JSON
func (f *Formatter) formatSummaryJSON(summary *upload.Summary) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

// formatSummaryCSV formats a summary as CSV
func (f *Formatter) formatSummaryCSV(summary *upload.Summary) error {
	w := csv.NewWriter(f.writer)
	defer w.Flush()

	if err := w.Write([]string{"Group", "Kind", "Key", "Summary", "Error"}); err != nil {
		return err
	}

	for _, r := range summary.Results {
		record := []string{r.GroupID, string(r.Kind), r.Key, r.Summary, r.Error}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// FormatError formats an error for output
func (f *Formatter) FormatError(err error) error {
	if f.format == FormatJSON {
		errorData := map[string]string{
			"error": err.Error(),
		}

		encoder := json.NewEncoder(f.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(errorData)
	}

	_, printErr := fmt.Fprintln(f.writer, err.Error())
	return printErr
}
