package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jirascraper/pkg/scraper"
	"jirascraper/pkg/ui"
)

// transformCmd represents the transform command
var transformCmd = &cobra.Command{
	Use:   "transform [PROJECT...]",
	Short: "Normalize raw issue documents already on disk",
	Long: `Re-run the transform stage over every raw issue document stored for the
named projects.

The emitted-key set is rebuilt from the existing processed stream first,
so records that were already normalized are skipped and the operation is
safe to repeat. Use this after a fetch with --skip-transform or to
recover from an interrupted transform.`,
	Example: `  # Normalize everything fetched for SPARK
  jirascraper transform SPARK

  # Normalize all configured projects
  jirascraper transform`,
	Args: cobra.ArbitraryArgs,
	Run:  runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().StringVarP(&outputDir, "output", "o", "", "base directory for raw and processed artifacts")
}

func runTransform(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	cfg := loadRuntime(flags)

	projects := selectProjects(args, cfg)
	if len(projects) == 0 {
		ui.PrintError("No projects selected", "name projects as arguments or set fetch.projects in the config file")
		os.Exit(1)
	}

	s, err := scraper.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize scraper", err.Error())
		os.Exit(1)
	}

	failed := 0
	for _, project := range projects {
		result, err := s.TransformProject(project)
		if err != nil {
			failed++
			ui.PrintError(fmt.Sprintf("✗ %s failed", project), err)
			continue
		}
		ui.PrintSuccess(fmt.Sprintf("✓ %s: %d emitted, %d already present, %d skipped",
			project, result.Emitted, result.Duplicates, result.Skipped))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
