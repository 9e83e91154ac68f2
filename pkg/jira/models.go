package jira

import "encoding/json"

// SearchResult is one page of a JQL search response
type SearchResult struct {
	Expand     string      `json:"expand"`
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []IssueStub `json:"issues"`
}

// IssueStub identifies one issue inside a search page
type IssueStub struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// Record pairs an issue key with its full body exactly as the tracker sent
// it. The body stays verbatim so raw files on disk mirror the remote data.
type Record struct {
	Key  string
	Data json.RawMessage
}

// Page is the result of fetching one offset window: the hydrated records
// plus the count the tracker actually returned. Received drives offset
// bookkeeping even when individual records were unusable.
type Page struct {
	Records  []Record
	Received int
	Total    int
}

// Issue is the defensive view of a full issue body. Every nested object is a
// pointer because the tracker omits or nulls fields freely.
type Issue struct {
	ID     string       `json:"id"`
	Key    string       `json:"key"`
	Self   string       `json:"self"`
	Fields *IssueFields `json:"fields"`
}

// IssueFields holds the subset of issue fields the pipeline maps
type IssueFields struct {
	Summary     string       `json:"summary"`
	Description string       `json:"description"`
	Project     *ProjectRef  `json:"project"`
	Status      *Status      `json:"status"`
	Priority    *Priority    `json:"priority"`
	Assignee    *User        `json:"assignee"`
	Reporter    *User        `json:"reporter"`
	IssueType   *IssueType   `json:"issuetype"`
	Labels      []string     `json:"labels"`
	Created     string       `json:"created"`
	Updated     string       `json:"updated"`
	Comment     *CommentPage `json:"comment"`
}

// ProjectRef identifies the project an issue belongs to
type ProjectRef struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Status is the workflow state of an issue
type Status struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Priority of an issue
type Priority struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is a tracker account reference
type User struct {
	Name         string `json:"name"`
	Key          string `json:"key"`
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
}

// IssueType classifies an issue (Bug, Improvement, Task, ...)
type IssueType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

// CommentPage wraps the comment list of an issue
type CommentPage struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Comments   []Comment `json:"comments"`
}

// Comment is a single issue comment
type Comment struct {
	ID      string `json:"id"`
	Body    string `json:"body"`
	Author  *User  `json:"author"`
	Created string `json:"created"`
	Updated string `json:"updated"`
}
