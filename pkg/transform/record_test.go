package transform

import (
	"encoding/json"
	"testing"

	errs "jirascraper/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullIssue = `{
	"id": "12345",
	"key": "SPARK-42",
	"fields": {
		"summary": "Executor crashes on shuffle",
		"description": "The executor dies when shuffle spill exceeds memory.",
		"project": {"id": "1", "key": "SPARK", "name": "Spark"},
		"status": {"id": "3", "name": "In Progress"},
		"priority": {"id": "2", "name": "Critical"},
		"assignee": {"name": "jdoe", "displayName": "Jane Doe"},
		"reporter": {"name": "rroe", "displayName": "Richard Roe"},
		"issuetype": {"id": "1", "name": "Bug"},
		"labels": ["shuffle", "memory"],
		"created": "2024-03-01T10:00:00.000+0000",
		"updated": "2024-03-02T11:30:00.000+0000",
		"comment": {
			"total": 2,
			"comments": [
				{"id": "c1", "body": "Reproduced on 3.5."},
				{"id": "c2", "body": "Fix in review."}
			]
		}
	}
}`

func TestMapIssue(t *testing.T) {
	record, err := MapIssue([]byte(fullIssue))
	require.NoError(t, err)

	assert.Equal(t, "12345", record.ID)
	assert.Equal(t, "SPARK-42", record.Key)
	assert.Equal(t, "SPARK", record.Project)
	assert.Equal(t, "Executor crashes on shuffle", record.Title)
	assert.Equal(t, "The executor dies when shuffle spill exceeds memory.", record.Description)
	assert.Equal(t, "In Progress", record.Status)

	require.NotNil(t, record.Priority)
	assert.Equal(t, "Critical", *record.Priority)
	require.NotNil(t, record.Assignee)
	assert.Equal(t, "Jane Doe", *record.Assignee)
	require.NotNil(t, record.Reporter)
	assert.Equal(t, "Richard Roe", *record.Reporter)

	assert.Equal(t, []string{"shuffle", "memory"}, record.Labels)
	assert.Equal(t, "2024-03-01T10:00:00.000+0000", record.Created)
	assert.Equal(t, "2024-03-02T11:30:00.000+0000", record.Updated)

	// Comment bodies keep their source order
	assert.Equal(t, []string{"Reproduced on 3.5.", "Fix in review."}, record.Comments)

	assert.Equal(t, "Summarize the issue titled 'Executor crashes on shuffle'", record.Tasks.Summarization)
	assert.Equal(t, "Classify the type of issue: Bug", record.Tasks.Classification)
	assert.Equal(t, "Question: What is the issue about?\nAnswer: The executor dies when shuffle spill exceeds memory.", record.Tasks.QnA)
}

func TestMapIssueDefaults(t *testing.T) {
	minimal := `{"id": "1", "key": "HIVE-1", "fields": {"project": {"key": "HIVE"}}}`

	record, err := MapIssue([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, "1", record.ID)
	assert.Equal(t, "HIVE-1", record.Key)
	assert.Equal(t, "HIVE", record.Project)
	assert.Empty(t, record.Title)
	assert.Empty(t, record.Description)
	assert.Empty(t, record.Status)

	// Absent nullable fields stay nil
	assert.Nil(t, record.Priority)
	assert.Nil(t, record.Assignee)
	assert.Nil(t, record.Reporter)

	// Absent list fields become empty, never nil
	assert.NotNil(t, record.Labels)
	assert.Empty(t, record.Labels)
	assert.NotNil(t, record.Comments)
	assert.Empty(t, record.Comments)

	// Prompts fall back to their placeholder inputs
	assert.Equal(t, "Summarize the issue titled 'Untitled'", record.Tasks.Summarization)
	assert.Equal(t, "Classify the type of issue: Unknown", record.Tasks.Classification)
	assert.Equal(t, "Question: What is the issue about?\nAnswer: No description provided.", record.Tasks.QnA)
}

func TestMapIssueMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "not json",
			data: `this is not an issue`,
		},
		{
			name: "missing id",
			data: `{"key": "SPARK-1", "fields": {"project": {"key": "SPARK"}}}`,
		},
		{
			name: "missing key",
			data: `{"id": "1", "fields": {"project": {"key": "SPARK"}}}`,
		},
		{
			name: "missing fields",
			data: `{"id": "1", "key": "SPARK-1"}`,
		},
		{
			name: "missing project",
			data: `{"id": "1", "key": "SPARK-1", "fields": {"summary": "x"}}`,
		},
		{
			name: "empty project key",
			data: `{"id": "1", "key": "SPARK-1", "fields": {"project": {"key": ""}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := MapIssue([]byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, record)
			assert.Equal(t, errs.ErrorTypeMalformed, errs.TypeOf(err))
		})
	}
}

func TestTaskPrompts(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(string) string
		input    string
		expected string
	}{
		{
			name:     "summarization with title",
			fn:       SummarizationPrompt,
			input:    "Broken build",
			expected: "Summarize the issue titled 'Broken build'",
		},
		{
			name:     "summarization without title",
			fn:       SummarizationPrompt,
			input:    "",
			expected: "Summarize the issue titled 'Untitled'",
		},
		{
			name:     "classification with type",
			fn:       ClassificationPrompt,
			input:    "Improvement",
			expected: "Classify the type of issue: Improvement",
		},
		{
			name:     "classification without type",
			fn:       ClassificationPrompt,
			input:    "",
			expected: "Classify the type of issue: Unknown",
		},
		{
			name:     "qna with description",
			fn:       QnAPrompt,
			input:    "It fails.",
			expected: "Question: What is the issue about?\nAnswer: It fails.",
		},
		{
			name:     "qna without description",
			fn:       QnAPrompt,
			input:    "",
			expected: "Question: What is the issue about?\nAnswer: No description provided.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.fn(tt.input))
		})
	}
}

func TestRecordJSONShape(t *testing.T) {
	minimal := `{"id": "1", "key": "HIVE-1", "fields": {"project": {"key": "HIVE"}}}`
	record, err := MapIssue([]byte(minimal))
	require.NoError(t, err)

	line, err := json.Marshal(record)
	require.NoError(t, err)

	// Nullable fields serialize as explicit null, list fields as []
	assert.Contains(t, string(line), `"priority":null`)
	assert.Contains(t, string(line), `"assignee":null`)
	assert.Contains(t, string(line), `"reporter":null`)
	assert.Contains(t, string(line), `"labels":[]`)
	assert.Contains(t, string(line), `"comments":[]`)
}

func BenchmarkMapIssue(b *testing.B) {
	data := []byte(fullIssue)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = MapIssue(data)
	}
}
