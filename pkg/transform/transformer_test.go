package transform

import (
	"fmt"
	"testing"

	"jirascraper/pkg/jira"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransformer(t *testing.T) (*Transformer, *storage.Manager) {
	t.Helper()
	store, err := storage.NewManager(t.TempDir(), logger.NewNopLogger())
	require.NoError(t, err)
	return New(store, logger.NewNopLogger()), store
}

func rawIssue(project string, n int) jira.Record {
	key := fmt.Sprintf("%s-%d", project, n)
	body := fmt.Sprintf(`{
		"id": "%d",
		"key": "%s",
		"fields": {
			"summary": "Issue %d",
			"description": "Body %d",
			"project": {"key": "%s"},
			"status": {"name": "Open"},
			"issuetype": {"name": "Task"}
		}
	}`, 20000+n, key, n, n, project)
	return jira.Record{Key: key, Data: []byte(body)}
}

func rawIssues(project string, ns ...int) []jira.Record {
	records := make([]jira.Record, 0, len(ns))
	for _, n := range ns {
		records = append(records, rawIssue(project, n))
	}
	return records
}

func TestTransformBatch(t *testing.T) {
	transformer, store := newTestTransformer(t)

	result, err := transformer.TransformBatch("SPARK", rawIssues("SPARK", 1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Emitted)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 0, result.Skipped)

	keys, err := store.ProcessedKeys("SPARK")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
	assert.Contains(t, keys, "SPARK-2")
}

func TestTransformBatchIdempotent(t *testing.T) {
	transformer, store := newTestTransformer(t)
	batch := rawIssues("SPARK", 1, 2, 3)

	_, err := transformer.TransformBatch("SPARK", batch)
	require.NoError(t, err)

	// Re-running the same batch adds nothing to the stream
	result, err := transformer.TransformBatch("SPARK", batch)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Emitted)
	assert.Equal(t, 3, result.Duplicates)

	assert.Equal(t, 3, store.ProcessedCount("SPARK"))
}

func TestTransformBatchSkipsMalformed(t *testing.T) {
	transformer, store := newTestTransformer(t)

	batch := rawIssues("SPARK", 1, 2)
	batch = append(batch, jira.Record{
		Key:  "SPARK-3",
		Data: []byte(`{"key": "SPARK-3", "fields": {"summary": "no id"}}`),
	})

	result, err := transformer.TransformBatch("SPARK", batch)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Emitted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, store.ProcessedCount("SPARK"))
}

func TestTransformBatchEmpty(t *testing.T) {
	transformer, store := newTestTransformer(t)

	result, err := transformer.TransformBatch("SPARK", nil)
	require.NoError(t, err)
	assert.Zero(t, result.Emitted)
	assert.Zero(t, result.Duplicates)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, 0, store.ProcessedCount("SPARK"))
}

func TestTransformBatchSeparatesProjects(t *testing.T) {
	transformer, store := newTestTransformer(t)

	_, err := transformer.TransformBatch("SPARK", rawIssues("SPARK", 1))
	require.NoError(t, err)
	_, err = transformer.TransformBatch("HIVE", rawIssues("HIVE", 1))
	require.NoError(t, err)

	sparkKeys, err := store.ProcessedKeys("SPARK")
	require.NoError(t, err)
	hiveKeys, err := store.ProcessedKeys("HIVE")
	require.NoError(t, err)

	assert.Contains(t, sparkKeys, "SPARK-1")
	assert.NotContains(t, sparkKeys, "HIVE-1")
	assert.Contains(t, hiveKeys, "HIVE-1")
}

func TestTransformProject(t *testing.T) {
	transformer, store := newTestTransformer(t)

	for n := 1; n <= 3; n++ {
		record := rawIssue("SPARK", n)
		require.NoError(t, store.SaveRaw("SPARK", record.Key, record.Data))
	}

	result, err := transformer.TransformProject("SPARK")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Emitted)

	// A second full pass over the same raw files emits nothing new
	result, err = transformer.TransformProject("SPARK")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Emitted)
	assert.Equal(t, 3, result.Duplicates)
	assert.Equal(t, 3, store.ProcessedCount("SPARK"))
}

func TestTransformProjectEmpty(t *testing.T) {
	transformer, _ := newTestTransformer(t)

	result, err := transformer.TransformProject("GHOST")
	require.NoError(t, err)
	assert.Zero(t, result.Emitted)
}

func TestSeenSetRebuiltFromStream(t *testing.T) {
	_, store := newTestTransformer(t)

	// Simulate an earlier run that already emitted SPARK-1
	first := rawIssue("SPARK", 1)
	earlier := New(store, logger.NewNopLogger())
	_, err := earlier.TransformBatch("SPARK", []jira.Record{first})
	require.NoError(t, err)

	// A fresh transformer learns the emitted set from the stream on disk
	fresh := New(store, logger.NewNopLogger())
	result, err := fresh.TransformBatch("SPARK", rawIssues("SPARK", 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Emitted)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 2, store.ProcessedCount("SPARK"))
}

func TestForget(t *testing.T) {
	transformer, store := newTestTransformer(t)

	_, err := transformer.TransformBatch("SPARK", rawIssues("SPARK", 1))
	require.NoError(t, err)

	// Reset the project on disk, then drop the cache
	require.NoError(t, store.RemoveProject("SPARK"))
	transformer.Forget("SPARK")

	// The record is new again because the stream is gone
	result, err := transformer.TransformBatch("SPARK", rawIssues("SPARK", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Emitted)
	assert.Equal(t, 0, result.Duplicates)
}

func TestForgetAll(t *testing.T) {
	transformer, store := newTestTransformer(t)

	_, err := transformer.TransformBatch("SPARK", rawIssues("SPARK", 1))
	require.NoError(t, err)
	_, err = transformer.TransformBatch("HIVE", rawIssues("HIVE", 1))
	require.NoError(t, err)

	require.NoError(t, store.RemoveAll())
	transformer.ForgetAll()

	for _, project := range []string{"SPARK", "HIVE"} {
		result, err := transformer.TransformBatch(project, rawIssues(project, 1))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Emitted, "project %s", project)
	}
}
