package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jirascraper/pkg/scraper"
	"jirascraper/pkg/ui"
)

var (
	resetAll bool
	resetYes bool
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset [PROJECT...]",
	Short: "Discard local state for projects",
	Long: `Discard the ledger entry, archived raw documents, and processed stream
for the named projects, so the next fetch starts from the beginning.

The ledger is cleared and persisted before any files are removed; an
interruption can therefore never leave the ledger pointing at data that
no longer exists. Other projects are untouched. With --all, every
project's state and the entire output tree are removed.`,
	Example: `  # Start SPARK over from offset zero
  jirascraper reset SPARK

  # Wipe all local state without prompting
  jirascraper reset --all --yes`,
	Args: cobra.ArbitraryArgs,
	Run:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVar(&resetAll, "all", false, "reset every project and remove the entire output tree")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	resetCmd.Flags().StringVarP(&outputDir, "output", "o", "", "base directory for raw and processed artifacts")
	resetCmd.Flags().StringVar(&stateFile, "state-file", "", "path of the offset ledger")
}

func runReset(cmd *cobra.Command, args []string) {
	if resetAll && len(args) > 0 {
		ui.PrintError("Cannot combine --all with project arguments")
		os.Exit(1)
	}
	if !resetAll && len(args) == 0 {
		ui.PrintError("Nothing to reset", "name projects or pass --all")
		os.Exit(1)
	}

	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if stateFile != "" {
		flags["state-file"] = stateFile
	}
	cfg := loadRuntime(flags)

	s, err := scraper.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize scraper", err.Error())
		os.Exit(1)
	}

	if resetAll {
		if !resetYes {
			fmt.Printf("Remove ALL fetched data under %s? This cannot be undone! (yes/N): ", cfg.Output.BaseDirectory)
			reader := bufio.NewReader(os.Stdin)
			confirm, _ := reader.ReadString('\n')
			if strings.TrimSpace(confirm) != "yes" {
				fmt.Println("Aborted.")
				return
			}
		}
		if err := s.ResetAll(); err != nil {
			ui.PrintError("Reset failed", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("All local state removed")
		return
	}

	if err := s.ResetProjects(args); err != nil {
		ui.PrintError("Reset failed", err.Error())
		os.Exit(1)
	}
	for _, project := range args {
		ui.PrintSuccess("✓ " + strings.ToUpper(strings.TrimSpace(project)) + " reset")
	}
}
