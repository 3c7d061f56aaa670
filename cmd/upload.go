package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/csvjira/csvjira/pkg/config"
	"github.com/csvjira/csvjira/pkg/group"
	"github.com/csvjira/csvjira/pkg/output"
	"github.com/csvjira/csvjira/pkg/record"
	"github.com/csvjira/csvjira/pkg/tracker"
	"github.com/csvjira/csvjira/pkg/tracker/github"
	"github.com/csvjira/csvjira/pkg/tracker/jira"
	"github.com/csvjira/csvjira/pkg/upload"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload issues and subtasks from a CSV file",
	Long: `Read a CSV file, group and validate its rows, and create the issues and
subtasks in the configured tracker.

The whole file is validated before any remote call is made; an invalid file
uploads nothing. Once uploading starts, transient failures are retried with
exponential backoff and every failure is recorded in the run summary. The
command exits non-zero unless every entity was created.`,
	Example: `  # Upload the configured default file
  csvjira upload

  # Upload a specific file
  csvjira upload --csv-file data/issues.csv

  # Machine-readable summary
  csvjira upload -f data/issues.csv -o json`,
	RunE: runUpload,
}

// Command flags
var (
	uploadCSVFile  string
	uploadLogLevel string
)

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVarP(&uploadCSVFile, "csv-file", "f", "", "Path to CSV file (default: csv_file from configuration)")
	uploadCmd.Flags().StringVarP(&uploadLogLevel, "log-level", "l", "info", "Log level (debug, info, warning, error)")
}

type UploadCommand struct {
	config    *config.Config
	uploader  *upload.Uploader
	formatter *output.Formatter
	log       *logrus.Logger
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(uploadLogLevel)
	if err != nil {
		return err
	}

	client, err := newTrackerClient(cfg)
	if err != nil {
		return err
	}

	command := &UploadCommand{
		config: cfg,
		uploader: upload.New(client, upload.Options{
			RetryAttempts:  uint64(cfg.Retry.Attempts),
			RetryBaseDelay: time.Duration(cfg.Retry.BaseDelay),
		}, log),
		formatter: output.NewFormatter(output.ParseFormat(outputFormat)),
		log:       log,
	}

	return command.Execute(cmd.Context(), uploadCSVFile)
}

// Execute runs the full pipeline, falling back to the configured default
// CSV path when csvFile is empty. Validation errors are written through the
// formatter so machine-readable consumers see them structured.
func (c *UploadCommand) Execute(ctx context.Context, csvFile string) error {
	path := csvFile
	if path == "" {
		path = c.config.CSVFile
	}
	if path == "" {
		return fmt.Errorf("no CSV file given: pass --csv-file or set csv_file in %s", config.ConfigFileName)
	}

	groups, err := loadGroups(path)
	if err != nil {
		if ferr := c.formatter.FormatError(err); ferr != nil {
			return ferr
		}
		return fmt.Errorf("validation failed: nothing was uploaded")
	}

	c.log.WithFields(logrus.Fields{"file": path, "groups": len(groups)}).Info("starting upload")

	summary := c.uploader.Run(ctx, groups)

	if err := c.formatter.FormatSummary(summary); err != nil {
		return err
	}

	if !summary.OK() {
		return fmt.Errorf("upload finished with %d failure(s)", summary.MainFailed+summary.SubtasksFailed)
	}
	return nil
}

// loadGroups reads, groups, and validates a CSV file. Any error means
// nothing may be uploaded.
func loadGroups(path string) ([]group.Group, error) {
	rows, err := record.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("csv validation failed:\n%w", err)
	}

	groups, err := group.Validate(group.Build(rows))
	if err != nil {
		return nil, fmt.Errorf("group validation failed:\n%w", err)
	}

	return groups, nil
}

// newTrackerClient builds the remote client for the configured backend.
func newTrackerClient(cfg *config.Config) (tracker.Client, error) {
	switch cfg.Tracker {
	case config.TrackerGitHub:
		client, err := github.NewClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create github client: %w", err)
		}
		return client, nil
	default:
		client, err := jira.NewClient(cfg.Jira.URL, cfg.Jira.Username, cfg.Jira.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to create jira client: %w", err)
		}
		return client, nil
	}
}

func newLogger(level string) (*logrus.Logger, error) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(parsed)
	return log, nil
}
