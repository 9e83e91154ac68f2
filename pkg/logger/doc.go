// Package logger provides a structured logging interface for jirascraper.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional JSON file output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "jirascraper/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/var/log/jirascraper.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Application started")
//	logger.WithField("project", "SPARK").Info("Fetching project")
//	logger.WithError(err).Error("Failed to fetch issue")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "scraper").
//	    WithField("project", "SPARK")
//
//	// Use structured logging
//	log.InfoWithFields("Batch committed", map[string]interface{}{
//	    "received": 50,
//	    "start_at": 150,
//	    "duration": time.Second * 5,
//	})
//
// The logger supports the following configuration options:
// - Level: Log level (debug, info, warn, error, fatal)
// - File: Path to log file (empty for console only)
// - NoColor: Disable ANSI colors on the console output
package logger
