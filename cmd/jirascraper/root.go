package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"jirascraper/pkg/config"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jirascraper",
	Short: "A resumable Jira issue fetcher and dataset builder",
	Long: `jirascraper pulls issues from a Jira tracker project by project and turns
them into training-ready datasets.

Features:
  - Resumable fetching: an offset ledger records exactly where each
    project stopped, so interrupted runs pick up where they left off
  - Raw issue documents archived verbatim, one JSON file per issue
  - Normalized JSONL streams with summarization, classification, and
    question-answering task prompts per issue
  - Smart rate limiting and automatic retry with exponential backoff
  - Secure credential storage using the system keychain (public
    trackers need no credentials at all)`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set quiet mode if requested or log level is error
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}

		// Don't show logo for certain commands
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .jirascraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress decorative output")

	// Version template
	rootCmd.SetVersionTemplate(`jirascraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadRuntime loads configuration with the global flags folded in and
// initializes the logger. Exits on configuration errors.
func loadRuntime(flags map[string]interface{}) *config.Config {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	if noColor {
		flags["no-color"] = true
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging", err.Error())
		os.Exit(1)
	}
	return cfg
}

// selectProjects resolves the project list from arguments or the
// configured defaults.
func selectProjects(args []string, cfg *config.Config) []string {
	if len(args) > 0 {
		return args
	}
	return cfg.Fetch.Projects
}
