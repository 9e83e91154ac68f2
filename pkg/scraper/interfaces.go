package scraper

import "jirascraper/pkg/jira"

// IssueFetcher defines the interface for remote Jira operations the
// fetch controller depends on. The production implementation is
// jira.Client; tests substitute fakes.
type IssueFetcher interface {
	FetchPage(project string, startAt, pageSize int) (*jira.Page, error)
	Ping() error
}
