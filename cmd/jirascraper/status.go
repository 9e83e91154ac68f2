package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jirascraper/pkg/jira"
	"jirascraper/pkg/ledger"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/report"
	"jirascraper/pkg/storage"
	"jirascraper/pkg/ui"
)

var statusPing bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status [PROJECT...]",
	Short: "Show fetch progress for projects",
	Long: `Show the ledger entry and on-disk artifact counts for each project.

An in_progress status means the last run was interrupted; fetching again
resumes from the recorded offset. With --ping the configured tracker is
contacted to verify it is reachable.`,
	Example: `  # Status of everything fetched so far
  jirascraper status

  # Status of one project plus a connectivity check
  jirascraper status SPARK --ping`,
	Args: cobra.ArbitraryArgs,
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusPing, "ping", false, "contact the tracker to verify connectivity")
	statusCmd.Flags().StringVarP(&outputDir, "output", "o", "", "base directory for raw and processed artifacts")
	statusCmd.Flags().StringVar(&stateFile, "state-file", "", "path of the offset ledger")
}

func runStatus(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if stateFile != "" {
		flags["state-file"] = stateFile
	}
	cfg := loadRuntime(flags)
	log := logger.GetLogger()

	if statusPing {
		client := jira.NewClientWithConfig(&cfg.Jira, &cfg.Retry, log)
		if err := client.Ping(); err != nil {
			ui.PrintError("Tracker unreachable", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Tracker reachable: " + cfg.Jira.BaseURL)
	}

	store, err := storage.NewManager(cfg.Output.BaseDirectory, log)
	if err != nil {
		ui.PrintError("Failed to open storage", err.Error())
		os.Exit(1)
	}
	ledgerStore, err := ledger.Open(cfg.Output.StateFile, log)
	if err != nil {
		ui.PrintError("Failed to open ledger", err.Error())
		os.Exit(1)
	}

	projects := args
	if len(projects) == 0 {
		projects = ledgerStore.Projects()
	}
	if len(projects) == 0 {
		ui.PrintInfo("No fetch state found", "run 'jirascraper fetch <PROJECT>' to get started")
		return
	}

	fmt.Printf("%-12s %10s %10s %8s %12s %8s %10s\n",
		"PROJECT", "OFFSET", "FETCHED", "PENDING", "STATUS", "RAW", "PROCESSED")
	interrupted := 0
	for _, raw := range projects {
		project := jira.SanitizeProjectKey(raw)
		entry := ledgerStore.Get(project)

		// Pad before colorizing; escape codes would break the column math
		status := fmt.Sprintf("%12s", string(entry.LastStatus))
		if !ledgerStore.Has(project) {
			status = fmt.Sprintf("%12s", "-")
		} else {
			switch entry.LastStatus {
			case ledger.StatusSuccess:
				status = ui.Green(status)
			case ledger.StatusFailed:
				status = ui.Red(status)
			case ledger.StatusInProgress:
				status = ui.Yellow(status)
				interrupted++
			}
		}

		fmt.Printf("%-12s %10d %10d %8s %s %8d %10d\n",
			project,
			entry.StartAt,
			entry.TotalFetched,
			formatPending(entry.Pending),
			status,
			store.RawCount(project),
			store.ProcessedCount(project),
		)
	}

	if interrupted > 0 {
		fmt.Println()
		ui.PrintWarning(fmt.Sprintf("%d project(s) were interrupted; fetch again to resume", interrupted))
	}

	if reportPath := report.PathFor(cfg.Output.StateFile); report.Exists(reportPath) {
		if last, err := report.Load(reportPath); err == nil {
			fmt.Println()
			ui.PrintInfo("Last run", fmt.Sprintf("%s, %d new records in %s",
				last.FinishedAt.Format("2006-01-02 15:04:05"),
				last.TotalNew(),
				last.Duration().Round(time.Second)))
			if failed := last.FailedProjects(); len(failed) > 0 {
				ui.PrintWarning("Failed last run", strings.Join(failed, ", "))
			}
		}
	}
}

// formatPending renders the pending counter, naming the unbounded
// sentinel instead of printing a huge number.
func formatPending(pending int) string {
	if pending >= ledger.UnboundedPending {
		return "all"
	}
	return fmt.Sprintf("%d", pending)
}
