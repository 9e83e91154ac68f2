package logger

// This file shows how to integrate the logger into the main application

/*
Example integration in a command:

package main

import (
	"os"

	"jirascraper/pkg/config"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/scraper"
	"jirascraper/pkg/ui"
)

func runFetch(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize the logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}

	// Now you can use the logger throughout the application
	logger.Info("jirascraper starting")
	logger.WithField("project", "SPARK").Info("Fetching project")

	// Log configuration (be careful not to log credentials)
	logger.WithFields(map[string]interface{}{
		"base_url":   cfg.Jira.BaseURL,
		"output_dir": cfg.Output.BaseDirectory,
		"rate_limit": cfg.RateLimit.RequestsPerMinute,
		"log_level":  cfg.Logging.Level,
	}).Debug("Configuration loaded")

	// Create and run the scraper with logging
	s, err := scraper.New(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize scraper")
	}

	// Log component start
	logger.LogComponentStart("fetch", map[string]interface{}{
		"projects": len(projects),
		"limit":    cfg.Fetch.Limit,
	})

	results := s.Run(projects)
	for _, r := range results {
		if r.Err != nil {
			logger.WithError(r.Err).WithField("project", r.Project).Error("Fetch failed")
		}
	}

	logger.LogComponentStop("fetch", "completed")
}
*/

// Example integration in the scraper package:
/*
func (s *Scraper) FetchProject(project string, limit, batchSize int) (int, error) {
	log := logger.GetLogger().
		WithField("component", "scraper").
		WithField("project", project)

	log.Info("Starting fetch")

	entry := s.ledger.Get(project)
	log.WithFields(map[string]interface{}{
		"start_at":      entry.StartAt,
		"total_fetched": entry.TotalFetched,
	}).Debug("Resuming from ledger entry")

	// ... rest of the implementation ...
}
*/

// Example integration with the HTTP client:
/*
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := logger.GetLogger().
		WithField("component", "jira").
		WithField("url", req.URL.String())

	log.Debug("Sending request")

	// ... request logic ...

	duration := time.Since(start)
	log.WithField("duration", duration).Debug("Request completed")

	// Use helper function for standardized logging
	logger.LogRequest(req.Method, req.URL.String(), resp.StatusCode, duration.Seconds()*1000)

	return resp, nil
}
*/

// Example integration with the retry backoff:
/*
cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
	if errs.TypeOf(err) == errs.ErrorTypeRateLimit {
		logger.LogRateLimit(url, delay)
	}
}
*/
