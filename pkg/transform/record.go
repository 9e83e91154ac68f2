package transform

import (
	"encoding/json"
	"fmt"

	errs "jirascraper/pkg/errors"
	"jirascraper/pkg/jira"
)

// Record is one normalized output line. Nullable fields marshal as explicit
// JSON null when the source had nothing usable; list fields marshal as []
// rather than null.
type Record struct {
	ID          string     `json:"id"`
	Key         string     `json:"key"`
	Project     string     `json:"project"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    *string    `json:"priority"`
	Assignee    *string    `json:"assignee"`
	Reporter    *string    `json:"reporter"`
	Labels      []string   `json:"labels"`
	Created     string     `json:"created"`
	Updated     string     `json:"updated"`
	Comments    []string   `json:"comments"`
	Tasks       TaskBundle `json:"tasks"`
}

// TaskBundle holds the derived prompts emitted with every record
type TaskBundle struct {
	Summarization  string `json:"summarization"`
	Classification string `json:"classification"`
	QnA            string `json:"qna"`
}

// SummarizationPrompt derives the summarization task text
func SummarizationPrompt(title string) string {
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("Summarize the issue titled '%s'", title)
}

// ClassificationPrompt derives the classification task text
func ClassificationPrompt(issueType string) string {
	if issueType == "" {
		issueType = "Unknown"
	}
	return fmt.Sprintf("Classify the type of issue: %s", issueType)
}

// QnAPrompt derives the question-answering task text
func QnAPrompt(description string) string {
	if description == "" {
		description = "No description provided."
	}
	return fmt.Sprintf("Question: What is the issue about?\nAnswer: %s", description)
}

// BuildTasks assembles the task bundle from the already-normalized fields
func BuildTasks(title, issueType, description string) TaskBundle {
	return TaskBundle{
		Summarization:  SummarizationPrompt(title),
		Classification: ClassificationPrompt(issueType),
		QnA:            QnAPrompt(description),
	}
}

// MapIssue converts one raw issue body into a normalized record. A record
// missing its id, key or project key is rejected as malformed; every other
// absent field degrades to its documented default instead of failing.
func MapIssue(data []byte) (*Record, error) {
	var issue jira.Issue
	if err := json.Unmarshal(data, &issue); err != nil {
		return nil, errs.New(errs.ErrorTypeMalformed, fmt.Sprintf("unparseable raw record: %v", err))
	}

	fields := issue.Fields
	if issue.ID == "" || issue.Key == "" || fields == nil || fields.Project == nil || fields.Project.Key == "" {
		return nil, errs.New(errs.ErrorTypeMalformed, "record lacks id, key or project")
	}

	record := &Record{
		ID:          issue.ID,
		Key:         issue.Key,
		Project:     fields.Project.Key,
		Title:       fields.Summary,
		Description: fields.Description,
		Labels:      []string{},
		Created:     fields.Created,
		Updated:     fields.Updated,
		Comments:    []string{},
	}

	if fields.Status != nil {
		record.Status = fields.Status.Name
	}
	record.Priority = optionalName(fields.Priority)
	record.Assignee = optionalDisplayName(fields.Assignee)
	record.Reporter = optionalDisplayName(fields.Reporter)

	if len(fields.Labels) > 0 {
		record.Labels = append(record.Labels, fields.Labels...)
	}

	if fields.Comment != nil {
		for _, comment := range fields.Comment.Comments {
			record.Comments = append(record.Comments, comment.Body)
		}
	}

	issueType := ""
	if fields.IssueType != nil {
		issueType = fields.IssueType.Name
	}
	record.Tasks = BuildTasks(record.Title, issueType, record.Description)

	return record, nil
}

// optionalName lifts a priority name into a nullable string
func optionalName(p *jira.Priority) *string {
	if p == nil || p.Name == "" {
		return nil
	}
	name := p.Name
	return &name
}

// optionalDisplayName lifts a user display name into a nullable string
func optionalDisplayName(u *jira.User) *string {
	if u == nil || u.DisplayName == "" {
		return nil
	}
	name := u.DisplayName
	return &name
}
