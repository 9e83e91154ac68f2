// Package ui provides terminal UI components for jirascraper
// This file demonstrates example usage of the UI components
package ui

/*
Example usage of the UI components:

// Terminal colors and output
ui.PrintLogo()                                   // Print ASCII logo
ui.PrintInfo("Tracker", cfg.Jira.BaseURL)        // Cyan label, yellow value
ui.PrintSuccess("All projects up to date")       // Green success message
ui.PrintError("Fetch failed", err)               // Red error message
ui.PrintWarning("Resuming after failed run")     // Yellow warning message
ui.PrintHighlight("▶ SPARK")                     // Magenta highlight message

// Quiet mode for scripted runs
ui.SetQuietMode(true)                            // Suppress decorative output

// Progress tracking for one project fetch
tracker := ui.NewProgressTracker("SPARK", 100)
tracker.AddBatch(50)                             // Record a committed batch
tracker.PrintProgress()                          // Redraw the progress line
tracker.PrintSummary()                           // Final totals with rate

// Notifications (cross-platform)
notifier := ui.NewNotifier()
notifier.SendSuccess("Fetch complete", "120 new records across 3 projects")
notifier.SendError("Fetch failed", "SPARK aborted at offset 250")

// Direct color usage
fmt.Printf("%s: %s\n", ui.Cyan("Project"), ui.Yellow("SPARK"))
fmt.Println(ui.Green("✓ SPARK"))
fmt.Println(ui.Red("✗ HIVE"))
*/
