// Package jira provides a client for the REST v2 API of Jira-style trackers.
//
// This package includes:
//   - A configurable HTTP client with header injection, optional basic auth
//     and a courtesy rate limiter
//   - Classified errors per response status, with Retry-After hints on 429
//   - Retry with per-error-class backoff wrapped around every call
//   - Type-safe models for search pages and defensive issue parsing
//   - Helper functions for constructing endpoints and validating keys
//
// Example usage:
//
//	client := jira.NewClient(30*time.Second, logger.GetLogger())
//
//	// Fetch one offset window of a project
//	page, err := client.FetchPage("SPARK", 0, 50)
//	if err != nil {
//	    var apiErr *errors.Error
//	    if stderrors.As(err, &apiErr) {
//	        switch apiErr.Type {
//	        case errors.ErrorTypeRateLimit:
//	            // The tracker pushed back harder than the retry budget
//	        case errors.ErrorTypeClientError:
//	            // The request itself is wrong; do not repeat it
//	        }
//	    }
//	}
//
//	for _, record := range page.Records {
//	    // record.Data is the issue body verbatim
//	}
package jira
