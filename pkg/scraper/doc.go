// Package scraper provides the core functionality for fetching Jira
// issues into local datasets.
//
// The scraper package orchestrates the entire pipeline, coordinating
// between the Jira API client, the offset ledger, raw record storage,
// and the transform stage.
//
// Architecture:
//
// The Scraper struct is the main component that:
//   - Pages through a project's issues in stable created-ascending order
//   - Persists each raw issue document before anything else touches it
//   - Normalizes every batch into the project's processed stream
//   - Advances and persists the offset ledger only after a batch is safe
//     on disk, so an interrupted run resumes where it stopped
//
// Usage:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := scraper.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, r := range s.Run([]string{"SPARK", "HADOOP"}) {
//	    if r.Err != nil {
//	        log.Printf("%s: %v", r.Project, r.Err)
//	    }
//	}
//
// Execution model:
//
// Everything runs single-threaded. Projects are processed one at a
// time in the order given, pages within a project strictly in offset
// order, and blocking waits (network retries, backoff, the courtesy
// throttle) happen inline.
//
// Storage:
//
// Raw issue documents are saved under raw/{PROJECT}/{KEY}.json and
// normalized records appended to processed/{PROJECT}.jsonl. Both paths
// are idempotent across refetches: raw saves overwrite byte-identical
// content and the transform stage filters out already-emitted keys.
package scraper
