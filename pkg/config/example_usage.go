package config

// Example usage of the configuration system:
//
// 1. Load configuration with all sources:
//
//     config, err := config.Load("", nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 2. Load with custom config file:
//
//     config, err := config.Load("/path/to/config.yaml", nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 3. Load with command line flags:
//
//     flags := map[string]interface{}{
//         "base-url": "https://issues.apache.org/jira",
//         "projects": "SPARK,HADOOP",
//         "limit": 100,
//         "batch-size": 25,
//         "output": "./outputs",
//         "log-level": "debug",
//     }
//     config, err := config.Load("", flags)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 4. Programmatic configuration:
//
//     config := config.DefaultConfig()
//     config.Jira.BaseURL = "https://tracker.example.com/jira"
//     config.Fetch.Limit = 100
//     config.Fetch.BatchSize = 25
//
//     if err := config.Validate(); err != nil {
//         log.Fatal(err)
//     }
//
// 5. Save configuration to file:
//
//     if err := config.Save(".jirascraper.yaml"); err != nil {
//         log.Fatal(err)
//     }
//
// 6. Environment variables:
//
//     export JIRASCRAPER_BASE_URL="https://issues.apache.org/jira"
//     export JIRASCRAPER_EMAIL="you@example.com"
//     export JIRASCRAPER_API_TOKEN="your-api-token"
//     export JIRASCRAPER_PROJECTS="SPARK,HADOOP,HIVE"
//     export JIRASCRAPER_LIMIT="100"
//     export JIRASCRAPER_BATCH_SIZE="50"
//     export JIRASCRAPER_REQUESTS_PER_MINUTE="60"
//     export JIRASCRAPER_OUTPUT_DIR="./outputs"
//     export JIRASCRAPER_LOG_LEVEL="debug"
//
//     The legacy names JIRA_BASE, MAX_RESULTS and REQUEST_TIMEOUT are
//     still honored when the JIRASCRAPER_* form is absent.
//
// 7. Using configuration in your application:
//
//     // Create a tracker client with config
//     client := jira.NewClientWithConfig(
//         &config.Jira,
//         &config.Retry,
//         log,
//     )
//
//     // Set up rate limiter
//     client.SetLimiter(ratelimit.NewLimiter(
//         config.RateLimit.RequestsPerMinute,
//         config.RateLimit.BurstSize,
//     ))
//
//     // Open the artifact store
//     store, err := storage.NewManager(config.Output.BaseDirectory, log)
