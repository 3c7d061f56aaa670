package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ConfigFileName = ".csvjira.yml"

// Tracker backends.
const (
	TrackerJira   = "jira"
	TrackerGitHub = "github"
)

// Environment variables carrying Jira credentials. Secrets stay out of the
// config file.
const (
	EnvJiraURL      = "JIRA_BASE_URL"
	EnvJiraUsername = "JIRA_USERNAME"
	EnvJiraToken    = "JIRA_API_TOKEN"
)

// Config represents the tool configuration.
type Config struct {
	Tracker string       `yaml:"tracker"`
	CSVFile string       `yaml:"csv_file,omitempty"`
	Retry   RetryConfig  `yaml:"retry"`
	Jira    JiraConfig   `yaml:"jira,omitempty"`
	GitHub  GitHubConfig `yaml:"github,omitempty"`
}

// RetryConfig controls the upload retry policy.
type RetryConfig struct {
	// Attempts is the number of retries after the initial attempt.
	Attempts int `yaml:"attempts"`
	// BaseDelay is the delay before the first retry; it doubles on each
	// subsequent retry.
	BaseDelay Duration `yaml:"base_delay"`
}

// Duration is a time.Duration that round-trips through YAML in the "5s"
// notation.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("base_delay must be a duration string like \"5s\"")
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// JiraConfig represents Jira connection settings. Credentials are read from
// the environment, not the file.
type JiraConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"-"`
	Token    string `yaml:"-"`
}

// GitHubConfig represents GitHub settings for the alternate backend.
type GitHubConfig struct {
	Repository string `yaml:"repository"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Tracker: TrackerJira,
		Retry: RetryConfig{
			Attempts:  3,
			BaseDelay: Duration(5 * time.Second),
		},
	}
}

// Load loads configuration from the config file, then overlays credentials
// from the environment. A .env file in the working directory is read first
// if present.
func Load() (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	config := DefaultConfig()

	configPath := findConfigFile()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file at %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv(EnvJiraURL); v != "" {
		config.Jira.URL = v
	}
	config.Jira.Username = os.Getenv(EnvJiraUsername)
	config.Jira.Token = os.Getenv(EnvJiraToken)

	return config, nil
}

// Save saves configuration to file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid for the selected backend.
func (c *Config) Validate() error {
	switch c.Tracker {
	case TrackerJira:
		if c.Jira.URL == "" {
			return fmt.Errorf("jira url is required (set jira.url or %s)", EnvJiraURL)
		}
		if c.Jira.Username == "" {
			return fmt.Errorf("jira username is required (set %s)", EnvJiraUsername)
		}
		if c.Jira.Token == "" {
			return fmt.Errorf("jira api token is required (set %s)", EnvJiraToken)
		}
	case TrackerGitHub:
		// The repository comes from each row's project key; nothing
		// further to check here.
	default:
		return fmt.Errorf("unknown tracker %q: must be %q or %q", c.Tracker, TrackerJira, TrackerGitHub)
	}

	if c.Retry.Attempts < 0 {
		return fmt.Errorf("retry attempts must be zero or greater")
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("retry base delay must be zero or greater")
	}

	return nil
}

// findConfigFile searches for config file in current and parent directories
func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Exists checks if configuration file exists
func Exists() bool {
	return findConfigFile() != ""
}

// FindConfigPath returns the path to the configuration file
func FindConfigPath() string {
	return findConfigFile()
}
