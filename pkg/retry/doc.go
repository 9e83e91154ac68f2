// Package retry provides exponential backoff and retry logic for handling
// transient failures in network operations, particularly for Jira REST calls.
//
// Features:
//   - Multiple backoff strategies (exponential, linear, constant)
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Error-type specific backoff strategies and attempt budgets
//   - Retry-After header hints override computed delays
//   - Configurable retry predicates
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return client.Ping()
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     60 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
//	// HTTP-tuned configuration with error-type backoff
//	cfg := retry.NewHTTPConfig(5, logger.GetLogger())
//	result, err := retry.DoWithResult(func() (*jira.SearchResult, error) {
//		return client.SearchIssues(jql, 0, 50)
//	}, cfg)
//
// Error Type Handling:
//
// The package provides different backoff schedules for different error types:
//   - Network errors: doubling waits capped at a minute
//   - Rate limit errors: higher starting delay, larger attempt budget,
//     Retry-After hints honored verbatim
//   - Server errors: treated like network faults
//   - Parsing errors: a small bounded budget of re-requests
//   - Client/auth/not-found errors: no retry (non-retryable)
package retry
