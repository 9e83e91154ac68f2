package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jirascraper/pkg/config"
	"jirascraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage jirascraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.jirascraper.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values

The API token is masked for security.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	// Determine config file path
	configPath := configFile
	if configPath == "" {
		configPath = ".jirascraper.yaml"
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	// Create example configuration
	exampleConfig := `# jirascraper configuration file
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with JIRASCRAPER_
# For example: JIRASCRAPER_BASE_URL, JIRASCRAPER_LIMIT

# Jira tracker connection
jira:
  # Base URL of the tracker (no trailing slash needed)
  base_url: "https://issues.apache.org/jira"

  # Credentials for private trackers (leave empty for anonymous access;
  # prefer 'jirascraper auth login' over putting the token here)
  email: ""
  api_token: ""

  # User agent sent with every request
  user_agent: "jirascraper/1.0"

  # Per-request timeout
  request_timeout: 30s

# Fetch pipeline defaults
fetch:
  # Projects fetched when none are named on the command line
  projects:
    - SPARK
    - HADOOP
    - HIVE

  # Max new records per project per run; 0 means unbounded
  limit: 10

  # Page size requested from the tracker
  # Range: 1-1000
  batch_size: 50

# Rate limiting configuration
rate_limit:
  # Requests per minute
  requests_per_minute: 60

  # Burst size (number of requests allowed in a burst)
  burst_size: 10

# Retry configuration
retry:
  # Maximum number of attempts per request
  max_attempts: 5

  # Initial backoff duration
  initial_backoff: 2s

  # Maximum backoff duration
  max_backoff: 60s

  # Backoff multiplier
  backoff_multiplier: 2.0

  # Jitter factor (0.0-1.0)
  jitter_factor: 0.1

# Artifact layout
output:
  # Base directory for raw/ and processed/ trees
  base_directory: "./outputs"

  # Path of the offset ledger
  state_file: "./state/checkpoints.json"

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to the console only
  file: ""

  # Disable colored console output
  no_color: false
`

	// Write configuration file
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the file to point at your tracker and projects")
	fmt.Println("2. Run 'jirascraper config validate' to check it")
	fmt.Println("3. Start fetching with 'jirascraper fetch'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Create a sanitized version for display
	displayCfg := *cfg

	// Mask the token
	if displayCfg.Jira.APIToken != "" {
		if len(displayCfg.Jira.APIToken) > 8 {
			displayCfg.Jira.APIToken = displayCfg.Jira.APIToken[:4] + "..." + displayCfg.Jira.APIToken[len(displayCfg.Jira.APIToken)-4:]
		} else {
			displayCfg.Jira.APIToken = "***"
		}
	}

	// Convert to YAML for display
	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	// Show configuration sources
	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (JIRASCRAPER_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (auto-discovered)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	// Check if config file is specified
	if configFile == "" {
		// Try to find config file in common locations
		possiblePaths := []string{
			".jirascraper.yaml",
			".jirascraper.yml",
			"jirascraper.yaml",
			filepath.Join(os.Getenv("HOME"), ".jirascraper.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "jirascraper", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	// Try to load and validate configuration
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	// Perform additional checks beyond structural validation
	warnings := []string{}
	errors := []string{}

	if len(cfg.Fetch.Projects) == 0 {
		warnings = append(warnings, "no default projects configured; every fetch must name them explicitly")
	}
	if cfg.Jira.Email != "" && cfg.Jira.APIToken == "" {
		warnings = append(warnings, "jira.email set without jira.api_token; requests will be anonymous")
	}

	// Check paths
	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create output directory: %v", err))
		}
	}
	if cfg.Output.StateFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Output.StateFile), 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create state directory: %v", err))
		}
	}

	// Check logging file path
	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	// Display results
	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	// Show summary
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Tracker: %s\n", cfg.Jira.BaseURL)
	fmt.Printf("  Projects: %v\n", cfg.Fetch.Projects)
	fmt.Printf("  Limit per run: %d\n", cfg.Fetch.Limit)
	fmt.Printf("  Batch size: %d\n", cfg.Fetch.BatchSize)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Ledger: %s\n", cfg.Output.StateFile)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
