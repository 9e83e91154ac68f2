package jira

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectJQL(t *testing.T) {
	assert.Equal(t, "project = SPARK ORDER BY created ASC", ProjectJQL("SPARK"))
	assert.Equal(t, "project = HADOOP ORDER BY created ASC", ProjectJQL("HADOOP"))
}

func TestSearchURL(t *testing.T) {
	tests := []struct {
		name       string
		baseURL    string
		jql        string
		startAt    int
		maxResults int
		fields     string
	}{
		{
			name:       "plain base",
			baseURL:    "https://issues.apache.org/jira",
			jql:        ProjectJQL("SPARK"),
			startAt:    0,
			maxResults: 50,
			fields:     "id,key",
		},
		{
			name:       "trailing slash trimmed",
			baseURL:    "https://issues.apache.org/jira/",
			jql:        ProjectJQL("HIVE"),
			startAt:    100,
			maxResults: 25,
			fields:     "id,key",
		},
		{
			name:       "no fields parameter",
			baseURL:    "https://tracker.example.com",
			jql:        ProjectJQL("KAFKA"),
			startAt:    10,
			maxResults: 10,
			fields:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := SearchURL(tt.baseURL, tt.jql, tt.startAt, tt.maxResults, tt.fields)

			parsed, err := url.Parse(raw)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(parsed.Path, "/rest/api/2/search"))
			assert.NotContains(t, raw, "//rest")

			q := parsed.Query()
			assert.Equal(t, tt.jql, q.Get("jql"))
			assert.Equal(t, tt.fields, q.Get("fields"))
		})
	}
}

func TestIssueURL(t *testing.T) {
	t.Run("with fields", func(t *testing.T) {
		raw := IssueURL("https://issues.apache.org/jira", "SPARK-42", AllFields)
		parsed, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "/jira/rest/api/2/issue/SPARK-42", parsed.Path)
		assert.Equal(t, "*all", parsed.Query().Get("fields"))
	})

	t.Run("without fields", func(t *testing.T) {
		raw := IssueURL("https://issues.apache.org/jira/", "HIVE-7", "")
		assert.Equal(t, "https://issues.apache.org/jira/rest/api/2/issue/HIVE-7", raw)
	})
}

func TestServerInfoURL(t *testing.T) {
	assert.Equal(t,
		"https://issues.apache.org/jira/rest/api/2/serverInfo",
		ServerInfoURL("https://issues.apache.org/jira"))
	assert.Equal(t,
		"https://issues.apache.org/jira/rest/api/2/serverInfo",
		ServerInfoURL("https://issues.apache.org/jira/"))
}

func TestIsValidProjectKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected bool
	}{
		{name: "simple key", key: "SPARK", expected: true},
		{name: "with digits", key: "LOG4J2", expected: true},
		{name: "with underscore", key: "MY_PROJ", expected: true},
		{name: "single letter", key: "K", expected: true},
		{name: "empty", key: "", expected: false},
		{name: "lowercase", key: "spark", expected: false},
		{name: "leading digit", key: "4SPARK", expected: false},
		{name: "with space", key: "SPA RK", expected: false},
		{name: "with hyphen", key: "SPA-RK", expected: false},
		{name: "with slash", key: "SPARK/1", expected: false},
		{name: "too long", key: "ABCDEFGHIJABCDEFGHIJABCDEFGHIJABCDEFGHIJABCDEFGHIJABCDEFGHIJABCDE", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidProjectKey(tt.key))
		})
	}
}

func TestIsValidIssueKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected bool
	}{
		{name: "simple key", key: "SPARK-1", expected: true},
		{name: "long number", key: "HADOOP-123456", expected: true},
		{name: "project with digits", key: "LOG4J2-99", expected: true},
		{name: "empty", key: "", expected: false},
		{name: "no number", key: "SPARK-", expected: false},
		{name: "no hyphen", key: "SPARK1", expected: false},
		{name: "lowercase", key: "spark-1", expected: false},
		{name: "path traversal", key: "../SPARK-1", expected: false},
		{name: "with slash", key: "SPARK/1-2", expected: false},
		{name: "with space", key: "SPARK -1", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidIssueKey(tt.key))
		})
	}
}

func TestSanitizeProjectKey(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "clean key", raw: "SPARK", expected: "SPARK"},
		{name: "lowercase", raw: "spark", expected: "SPARK"},
		{name: "surrounding spaces", raw: "  spark  ", expected: "SPARK"},
		{name: "trailing slash", raw: "spark/", expected: "SPARK"},
		{name: "leading slash", raw: "/spark", expected: "SPARK"},
		{name: "empty", raw: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeProjectKey(tt.raw))
		})
	}
}

func BenchmarkSearchURL(b *testing.B) {
	jql := ProjectJQL("SPARK")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = SearchURL(DefaultBaseURL, jql, 1000, 50, "id,key")
	}
}

func BenchmarkIsValidIssueKey(b *testing.B) {
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = IsValidIssueKey("SPARK-12345")
	}
}
