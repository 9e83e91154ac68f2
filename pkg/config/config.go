package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Jira scraper
type Config struct {
	// Jira tracker connection settings
	Jira JiraConfig `yaml:"jira" json:"jira"`

	// Fetch pipeline settings
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry behavior for remote calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// JiraConfig holds tracker-specific configuration
type JiraConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	Email          string        `yaml:"email" json:"email"`
	APIToken       string        `yaml:"api_token" json:"api_token"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// FetchConfig holds the fetch pipeline defaults
type FetchConfig struct {
	// Projects fetched when none are named on the command line
	Projects []string `yaml:"projects" json:"projects"`
	// Limit caps new records per project per run; 0 means unbounded
	Limit int `yaml:"limit" json:"limit"`
	// BatchSize is the page size requested from the tracker
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// RateLimitConfig holds the courtesy throttle configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration for remote calls
type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoff    time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff" json:"max_backoff"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
	JitterFactor      float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// OutputConfig holds the artifact layout configuration. Raw records live
// under <base>/raw/<PROJECT>/ and normalized streams under
// <base>/processed/; the ledger lives at StateFile.
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	StateFile     string `yaml:"state_file" json:"state_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Jira: JiraConfig{
			BaseURL:        "https://issues.apache.org/jira",
			UserAgent:      "jirascraper/1.0",
			RequestTimeout: 30 * time.Second,
		},
		Fetch: FetchConfig{
			Projects:  []string{"SPARK", "HADOOP", "HIVE"},
			Limit:     10,
			BatchSize: 50,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			MaxAttempts:       5,
			InitialBackoff:    2 * time.Second,
			MaxBackoff:        60 * time.Second,
			BackoffMultiplier: 2.0,
			JitterFactor:      0.2,
		},
		Output: OutputConfig{
			BaseDirectory: "outputs",
			StateFile:     filepath.Join("state", "checkpoints.json"),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Tracker connection
	if baseURL := os.Getenv("JIRASCRAPER_BASE_URL"); baseURL != "" {
		c.Jira.BaseURL = baseURL
	} else if baseURL := os.Getenv("JIRA_BASE"); baseURL != "" {
		// Legacy variable name
		c.Jira.BaseURL = baseURL
	}
	if email := os.Getenv("JIRASCRAPER_EMAIL"); email != "" {
		c.Jira.Email = email
	}
	if token := os.Getenv("JIRASCRAPER_API_TOKEN"); token != "" {
		c.Jira.APIToken = token
	}
	if userAgent := os.Getenv("JIRASCRAPER_USER_AGENT"); userAgent != "" {
		c.Jira.UserAgent = userAgent
	}
	if timeout := envInt("JIRASCRAPER_REQUEST_TIMEOUT", "REQUEST_TIMEOUT"); timeout > 0 {
		c.Jira.RequestTimeout = time.Duration(timeout) * time.Second
	}

	// Fetch settings
	if projects := os.Getenv("JIRASCRAPER_PROJECTS"); projects != "" {
		c.Fetch.Projects = splitList(projects)
	}
	if limit := os.Getenv("JIRASCRAPER_LIMIT"); limit != "" {
		var val int
		if _, err := fmt.Sscanf(limit, "%d", &val); err == nil && val >= 0 {
			c.Fetch.Limit = val
		}
	}
	if batch := envInt("JIRASCRAPER_BATCH_SIZE", "MAX_RESULTS"); batch > 0 {
		c.Fetch.BatchSize = batch
	}

	// Rate limiting
	if rpm := envInt("JIRASCRAPER_REQUESTS_PER_MINUTE"); rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}

	// Retry attempts
	if attempts := envInt("JIRASCRAPER_MAX_RETRIES"); attempts > 0 {
		c.Retry.MaxAttempts = attempts
	}

	// Output locations
	if outputDir := os.Getenv("JIRASCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if stateFile := os.Getenv("JIRASCRAPER_STATE_FILE"); stateFile != "" {
		c.Output.StateFile = stateFile
	}

	// Logging level
	if logLevel := os.Getenv("JIRASCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// envInt reads the first set variable from names as a positive integer,
// returning 0 when none parse
func envInt(names ...string) int {
	for _, name := range names {
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		var val int
		if _, err := fmt.Sscanf(raw, "%d", &val); err == nil && val > 0 {
			return val
		}
	}
	return 0
}

// splitList splits a comma or whitespace separated list
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".jirascraper.yaml",
		".jirascraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "jirascraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "jirascraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".jirascraper.yaml"),
		filepath.Join(os.Getenv("HOME"), ".jirascraper.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Validate tracker connection
	if c.Jira.BaseURL == "" {
		errs = append(errs, errors.New("jira base URL is required"))
	} else if !strings.HasPrefix(c.Jira.BaseURL, "http://") && !strings.HasPrefix(c.Jira.BaseURL, "https://") {
		errs = append(errs, errors.New("jira base URL must start with http:// or https://"))
	}
	if c.Jira.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	// Validate fetch settings
	if c.Fetch.Limit < 0 {
		errs = append(errs, errors.New("limit cannot be negative"))
	}
	if c.Fetch.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}
	if c.Fetch.BatchSize > 1000 {
		errs = append(errs, errors.New("batch size should not exceed 1000"))
	}

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	// Validate retry settings
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max retry attempts must be positive"))
	}
	if c.Retry.InitialBackoff <= 0 {
		errs = append(errs, errors.New("initial backoff must be positive"))
	}
	if c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		errs = append(errs, errors.New("max backoff cannot be below initial backoff"))
	}

	// Validate output settings
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.StateFile == "" {
		errs = append(errs, errors.New("state file path is required"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Jira.BaseURL = baseURL
	}
	if projects, ok := flags["projects"].([]string); ok && len(projects) > 0 {
		c.Fetch.Projects = projects
	}
	// An explicit 0 means an unbounded run, so 0 is accepted here
	if limit, ok := flags["limit"].(int); ok && limit >= 0 {
		c.Fetch.Limit = limit
	}
	if batchSize, ok := flags["batch-size"].(int); ok && batchSize > 0 {
		c.Fetch.BatchSize = batchSize
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if stateFile, ok := flags["state-file"].(string); ok && stateFile != "" {
		c.Output.StateFile = stateFile
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.Logging.NoColor = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".jirascraper.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
