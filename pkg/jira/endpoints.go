package jira

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL points at the public Apache tracker
	DefaultBaseURL = "https://issues.apache.org/jira"

	// REST API v2 paths
	searchPath     = "/rest/api/2/search"
	issuePath      = "/rest/api/2/issue/"
	serverInfoPath = "/rest/api/2/serverInfo"

	// AllFields asks the tracker for every issue field, comments included
	AllFields = "*all"

	// DefaultPageSize is the page size used when none is configured
	DefaultPageSize = 50

	// MaxPageSize is the largest page the tracker will serve
	MaxPageSize = 1000
)

var (
	projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	issueKeyPattern   = regexp.MustCompile(`^[A-Z][A-Z0-9_]*-[0-9]+$`)
)

// ProjectJQL returns the fixed per-project query: every issue of the project
// in ascending creation order, which keeps page offsets stable across runs
func ProjectJQL(project string) string {
	return fmt.Sprintf("project = %s ORDER BY created ASC", project)
}

// SearchURL builds the paginated JQL search URL. An empty fields value lets
// the tracker pick its default field set.
func SearchURL(baseURL, jql string, startAt, maxResults int, fields string) string {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("startAt", strconv.Itoa(startAt))
	params.Set("maxResults", strconv.Itoa(maxResults))
	if fields != "" {
		params.Set("fields", fields)
	}
	return strings.TrimSuffix(baseURL, "/") + searchPath + "?" + params.Encode()
}

// IssueURL builds the single-issue URL for the given key
func IssueURL(baseURL, key, fields string) string {
	u := strings.TrimSuffix(baseURL, "/") + issuePath + url.PathEscape(key)
	if fields != "" {
		params := url.Values{}
		params.Set("fields", fields)
		u += "?" + params.Encode()
	}
	return u
}

// ServerInfoURL builds the server info URL used for connectivity checks
func ServerInfoURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + serverInfoPath
}

// IsValidProjectKey checks if a project key has the expected tracker format
func IsValidProjectKey(key string) bool {
	if key == "" || len(key) > 64 {
		return false
	}
	return projectKeyPattern.MatchString(key)
}

// IsValidIssueKey checks if an issue key is safe to use as a file name.
// Keys arrive from remote JSON, so anything that does not look like
// PROJECT-123 is rejected before it can touch the filesystem.
func IsValidIssueKey(key string) bool {
	if key == "" || len(key) > 80 {
		return false
	}
	return issueKeyPattern.MatchString(key)
}

// SanitizeProjectKey normalizes command line input into tracker form
func SanitizeProjectKey(raw string) string {
	key := strings.TrimSpace(raw)
	key = strings.Trim(key, "/")
	return strings.ToUpper(key)
}
