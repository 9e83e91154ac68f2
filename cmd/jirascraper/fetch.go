package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jirascraper/pkg/auth"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/report"
	"jirascraper/pkg/scraper"
	"jirascraper/pkg/ui"
)

var (
	// Fetch command flags
	fetchLimit    int
	batchSize     int
	outputDir     string
	stateFile     string
	accountName   string
	skipTransform bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [PROJECT...]",
	Short: "Fetch issues for one or more projects",
	Long: `Fetch issues from the configured Jira tracker, project by project.

Each project resumes from the offset recorded in the ledger, so a second
run continues exactly where the first one stopped. Raw issue documents
are archived under raw/<PROJECT>/ and a normalized JSONL record is
appended to processed/<PROJECT>.jsonl for every new issue, unless
--skip-transform defers that stage.

Public trackers need no credentials. For private trackers store an API
token with 'jirascraper auth login' or set JIRASCRAPER_EMAIL and
JIRASCRAPER_API_TOKEN.`,
	Example: `  # Fetch the next 10 issues of each configured project
  jirascraper fetch

  # Fetch the next 100 SPARK issues in pages of 25
  jirascraper fetch SPARK --limit 100 --batch-size 25

  # Fetch everything the tracker has for HADOOP
  jirascraper fetch HADOOP --limit 0

  # Archive raw documents now, normalize later
  jirascraper fetch HIVE --skip-transform`,
	Args: cobra.ArbitraryArgs,
	Run:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVarP(&fetchLimit, "limit", "l", -1, "max new records per project this run (0 = unbounded)")
	fetchCmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "page size requested from the tracker")
	fetchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "base directory for raw and processed artifacts")
	fetchCmd.Flags().StringVar(&stateFile, "state-file", "", "path of the offset ledger")
	fetchCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	fetchCmd.Flags().BoolVar(&skipTransform, "skip-transform", false, "archive raw documents without normalizing")
}

func runFetch(cmd *cobra.Command, args []string) {
	// Build flags map from command line
	flags := make(map[string]interface{})
	if fetchLimit >= 0 {
		flags["limit"] = fetchLimit
	}
	if batchSize > 0 {
		flags["batch-size"] = batchSize
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if stateFile != "" {
		flags["state-file"] = stateFile
	}

	cfg := loadRuntime(flags)
	logger.WithField("version", version).Info("jirascraper starting")

	projects := selectProjects(args, cfg)
	if len(projects) == 0 {
		ui.PrintError("No projects selected", "name projects as arguments or set fetch.projects in the config file")
		os.Exit(1)
	}

	// Resolve credentials; anonymous access is fine for public trackers
	if account := resolveAccount(); account != nil {
		cfg.Jira.Email = account.Email
		cfg.Jira.APIToken = account.APIToken
		logger.WithField("account", account.Name).Info("Using stored credentials")
		ui.PrintInfo("Using account", account.Name)
	}

	ui.PrintInfo("Tracker", cfg.Jira.BaseURL)

	s, err := scraper.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize scraper", err.Error())
		os.Exit(1)
	}
	s.SetSkipTransform(skipTransform)

	logger.LogComponentStart("fetch", map[string]interface{}{
		"projects":   len(projects),
		"limit":      cfg.Fetch.Limit,
		"batch_size": cfg.Fetch.BatchSize,
	})

	rep := report.New()
	results := s.Run(projects)

	failed := 0
	total := 0
	for _, r := range results {
		total += r.Fetched
		if r.Err != nil {
			failed++
		}
		run := report.ProjectRun{
			Project:      r.Project,
			Fetched:      r.Fetched,
			Offset:       r.Offset,
			TotalFetched: r.TotalFetched,
		}
		if r.Err != nil {
			run.Error = r.Err.Error()
		}
		rep.Add(run)
	}
	rep.Finish()

	if err := rep.Save(report.PathFor(cfg.Output.StateFile)); err != nil {
		logger.WithError(err).Warn("Failed to write run report")
	}
	logger.LogMetrics("fetch", map[string]interface{}{
		"new_records": total,
		"projects":    len(results),
		"failed":      failed,
		"duration":    rep.Duration(),
	})

	notifier := ui.NewNotifier()
	fmt.Println()
	ui.PrintInfo("New records", fmt.Sprintf("%d", total))
	if failed > 0 {
		ui.PrintError(fmt.Sprintf("%d of %d projects failed", failed, len(results)))
		notifier.SendError("jirascraper", fmt.Sprintf("%d of %d projects failed", failed, len(results)))
		logger.LogComponentStop("fetch", "error")
		os.Exit(1)
	}
	ui.PrintSuccess("All projects up to date")
	notifier.SendSuccess("jirascraper", fmt.Sprintf("%d new records across %d projects", total, len(results)))
	logger.LogComponentStop("fetch", "completed")
}

// resolveAccount returns stored credentials when available. A missing
// default account is not an error; the explicitly requested one is.
func resolveAccount() *auth.Account {
	manager, err := auth.NewManager()
	if err != nil {
		logger.WithError(err).Warn("Credential manager unavailable, continuing anonymously")
		return nil
	}

	if accountName != "" {
		account, err := manager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "use 'jirascraper auth list' to see stored accounts")
			os.Exit(1)
		}
		return account
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		return nil
	}
	return account
}
