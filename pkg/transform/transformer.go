package transform

import (
	"encoding/json"
	"fmt"

	"jirascraper/pkg/jira"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/storage"
)

// BatchResult summarizes one transform pass
type BatchResult struct {
	// Emitted is the number of lines appended to the stream
	Emitted int
	// Duplicates were already present in the stream and filtered out
	Duplicates int
	// Skipped records were malformed and logged
	Skipped int
}

// Transformer turns raw records into normalized JSONL lines. Per project it
// keeps the set of keys already emitted, rebuilt from the existing stream on
// first use, which makes every transform pass idempotent.
type Transformer struct {
	store  *storage.Manager
	logger logger.Logger
	seen   map[string]map[string]struct{}
}

// New creates a transformer over the given storage layout
func New(store *storage.Manager, log logger.Logger) *Transformer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Transformer{
		store:  store,
		logger: log,
		seen:   make(map[string]map[string]struct{}),
	}
}

// seenKeys returns the emitted-key set for a project, loading it from the
// existing stream on first use
func (t *Transformer) seenKeys(project string) (map[string]struct{}, error) {
	if keys, ok := t.seen[project]; ok {
		return keys, nil
	}
	keys, err := t.store.ProcessedKeys(project)
	if err != nil {
		return nil, err
	}
	t.seen[project] = keys
	return keys, nil
}

// Forget drops the cached emitted-key set for a project. Called after a
// reset so the next transform rebuilds from the (now empty) stream.
func (t *Transformer) Forget(project string) {
	delete(t.seen, project)
}

// ForgetAll drops every cached emitted-key set.
func (t *Transformer) ForgetAll() {
	t.seen = make(map[string]map[string]struct{})
}

// TransformBatch normalizes a batch of raw records and appends the new ones
// to the project's stream. Malformed records are logged and skipped without
// failing the batch; only filesystem trouble is an error.
func (t *Transformer) TransformBatch(project string, records []jira.Record) (*BatchResult, error) {
	result := &BatchResult{}
	if len(records) == 0 {
		return result, nil
	}

	seen, err := t.seenKeys(project)
	if err != nil {
		return nil, fmt.Errorf("rebuilding emitted set for %s: %w", project, err)
	}

	lines := make([][]byte, 0, len(records))
	newKeys := make([]string, 0, len(records))

	for _, raw := range records {
		record, err := MapIssue(raw.Data)
		if err != nil {
			result.Skipped++
			t.logger.WarnWithFields("skipping malformed record", map[string]interface{}{
				"project": project,
				"key":     raw.Key,
				"error":   err.Error(),
			})
			continue
		}

		if _, dup := seen[record.Key]; dup {
			result.Duplicates++
			continue
		}

		line, err := json.Marshal(record)
		if err != nil {
			result.Skipped++
			t.logger.WarnWithFields("skipping unencodable record", map[string]interface{}{
				"project": project,
				"key":     record.Key,
				"error":   err.Error(),
			})
			continue
		}

		lines = append(lines, line)
		newKeys = append(newKeys, record.Key)
	}

	if err := t.store.AppendProcessed(project, lines); err != nil {
		// The stream may hold any prefix of the batch now; drop the cache
		// so the next pass rebuilds it from what actually landed
		t.Forget(project)
		return result, err
	}

	// Mark keys emitted only after the append landed, so a failed append
	// leaves them eligible for the retried batch
	for _, key := range newKeys {
		seen[key] = struct{}{}
	}
	result.Emitted = len(newKeys)

	if result.Emitted > 0 || result.Skipped > 0 {
		t.logger.InfoWithFields("transformed batch", map[string]interface{}{
			"project":     project,
			"emitted":     result.Emitted,
			"duplicates":  result.Duplicates,
			"skipped":     result.Skipped,
			"destination": t.store.ProcessedPath(project),
		})
	}

	return result, nil
}

// TransformProject runs the transform over every raw record on disk for the
// project. Used by the standalone transform command and for recovery after
// a fetch run that skipped transformation.
func (t *Transformer) TransformProject(project string) (*BatchResult, error) {
	keys, err := t.store.RawKeys(project)
	if err != nil {
		return nil, fmt.Errorf("listing raw records for %s: %w", project, err)
	}

	records := make([]jira.Record, 0, len(keys))
	for _, key := range keys {
		data, err := t.store.ReadRaw(project, key)
		if err != nil {
			return nil, err
		}
		records = append(records, jira.Record{Key: key, Data: data})
	}

	return t.TransformBatch(project, records)
}
