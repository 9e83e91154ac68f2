package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"jirascraper/pkg/config"
	errs "jirascraper/pkg/errors"
	"jirascraper/pkg/jira"
	"jirascraper/pkg/ledger"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/storage"
	"jirascraper/pkg/transform"
	"jirascraper/pkg/ui"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	ui.SetQuietMode(true)
	os.Exit(m.Run())
}

// pageCall records one FetchPage invocation
type pageCall struct {
	project  string
	startAt  int
	pageSize int
}

// fakeFetcher serves canned issues per project and can fail on demand
type fakeFetcher struct {
	issues  map[string][]jira.Record
	calls   []pageCall
	failAt  int // fail the Nth FetchPage call, 0 means never
	failErr error
	pingErr error
}

func (f *fakeFetcher) FetchPage(project string, startAt, pageSize int) (*jira.Page, error) {
	f.calls = append(f.calls, pageCall{project: project, startAt: startAt, pageSize: pageSize})

	if f.failAt > 0 && len(f.calls) == f.failAt {
		return nil, f.failErr
	}

	all := f.issues[project]
	if startAt >= len(all) {
		return &jira.Page{Total: len(all)}, nil
	}

	end := startAt + pageSize
	if end > len(all) {
		end = len(all)
	}

	records := append([]jira.Record(nil), all[startAt:end]...)
	return &jira.Page{
		Records:  records,
		Received: len(records),
		Total:    len(all),
	}, nil
}

func (f *fakeFetcher) Ping() error {
	return f.pingErr
}

func (f *fakeFetcher) callsFor(project string) []pageCall {
	var out []pageCall
	for _, call := range f.calls {
		if call.project == project {
			out = append(out, call)
		}
	}
	return out
}

// issueBody builds one complete raw issue document
func issueBody(project string, n int) []byte {
	key := fmt.Sprintf("%s-%d", project, n)
	return []byte(fmt.Sprintf(`{
		"id": "%d",
		"key": "%s",
		"fields": {
			"summary": "Issue %d",
			"description": "Description of issue %d",
			"project": {"key": "%s", "name": "%s Project"},
			"status": {"name": "Open"},
			"issuetype": {"name": "Bug"},
			"created": "2024-01-01T00:00:00.000+0000",
			"updated": "2024-01-02T00:00:00.000+0000"
		}
	}`, 10000+n, key, n, n, project, project))
}

// makeIssues builds n well-formed records for a project
func makeIssues(project string, n int) []jira.Record {
	records := make([]jira.Record, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, jira.Record{
			Key:  fmt.Sprintf("%s-%d", project, i),
			Data: issueBody(project, i),
		})
	}
	return records
}

// newTestScraper wires a scraper over a fake fetcher and a temp directory
func newTestScraper(t *testing.T, fake *fakeFetcher) *Scraper {
	t.Helper()

	dir := t.TempDir()
	log := logger.NewNopLogger()

	store, err := storage.NewManager(filepath.Join(dir, "outputs"), log)
	require.NoError(t, err)

	ledgerStore, err := ledger.Open(filepath.Join(dir, "state", "checkpoints.json"), log)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = filepath.Join(dir, "outputs")
	cfg.Output.StateFile = filepath.Join(dir, "state", "checkpoints.json")

	return &Scraper{
		client:      fake,
		ledger:      ledgerStore,
		store:       store,
		transformer: transform.New(store, log),
		config:      cfg,
		logger:      log,
	}
}

func TestFetchProject(t *testing.T) {
	fake := &fakeFetcher{issues: map[string][]jira.Record{"SPARK": makeIssues("SPARK", 10)}}
	s := newTestScraper(t, fake)

	fetched, err := s.FetchProject("SPARK", 5, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, fetched)

	// Three pages cover a budget of 5 with batches of 2
	calls := fake.callsFor("SPARK")
	require.Len(t, calls, 3)
	assert.Equal(t, pageCall{"SPARK", 0, 2}, calls[0])
	assert.Equal(t, pageCall{"SPARK", 2, 2}, calls[1])
	assert.Equal(t, pageCall{"SPARK", 4, 1}, calls[2])

	// Ledger reflects the finished run
	entry := s.ledger.Get("SPARK")
	assert.Equal(t, 5, entry.StartAt)
	assert.Equal(t, 0, entry.Pending)
	assert.Equal(t, 5, entry.TotalFetched)
	assert.Equal(t, ledger.StatusSuccess, entry.LastStatus)

	// Artifacts on disk: one raw file per record, one stream line per record
	assert.Equal(t, 5, s.store.RawCount("SPARK"))
	assert.Equal(t, 5, s.store.ProcessedCount("SPARK"))

	raw, err := s.store.ReadRaw("SPARK", "SPARK-3")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"key": "SPARK-3"`)
}

func TestFetchProjectResumes(t *testing.T) {
	fake := &fakeFetcher{issues: map[string][]jira.Record{"SPARK": makeIssues("SPARK", 10)}}
	s := newTestScraper(t, fake)

	fetched, err := s.FetchProject("SPARK", 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, fetched)

	// Second run continues where the first stopped
	fetched, err = s.FetchProject("SPARK", 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, fetched)

	offsets := make([]int, 0, len(fake.calls))
	for _, call := range fake.calls {
		offsets = append(offsets, call.startAt)
	}
	assert.Equal(t, []int{0, 2, 4, 6}, offsets)

	entry := s.ledger.Get("SPARK")
	assert.Equal(t, 8, entry.StartAt)
	assert.Equal(t, 8, entry.TotalFetched)
	assert.Equal(t, ledger.StatusSuccess, entry.LastStatus)

	// No record was fetched twice
	assert.Equal(t, 8, s.store.RawCount("SPARK"))
	assert.Equal(t, 8, s.store.ProcessedCount("SPARK"))
}

func TestFetchProjectStopsAtEndOfData(t *testing.T) {
	t.Run("short page ends unbounded run", func(t *testing.T) {
		fake := &fakeFetcher{issues: map[string][]jira.Record{"SPARK": makeIssues("SPARK", 3)}}
		s := newTestScraper(t, fake)

		fetched, err := s.FetchProject("SPARK", 0, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, fetched)

		// Second page came back short, so no third request happened
		assert.Len(t, fake.callsFor("SPARK"), 2)

		entry := s.ledger.Get("SPARK")
		assert.Equal(t, 3, entry.StartAt)
		assert.Equal(t, 0, entry.Pending)
		assert.Equal(t, ledger.StatusSuccess, entry.LastStatus)
	})

	t.Run("empty first page is a successful run", func(t *testing.T) {
		fake := &fakeFetcher{issues: map[string][]jira.Record{"EMPTY": nil}}
		s := newTestScraper(t, fake)

		fetched, err := s.FetchProject("EMPTY", 0, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, fetched)
		assert.Len(t, fake.callsFor("EMPTY"), 1)

		entry := s.ledger.Get("EMPTY")
		assert.Equal(t, 0, entry.StartAt)
		assert.Equal(t, ledger.StatusSuccess, entry.LastStatus)
	})

	t.Run("exhausted project fetches nothing on rerun", func(t *testing.T) {
		fake := &fakeFetcher{issues: map[string][]jira.Record{"SPARK": makeIssues("SPARK", 3)}}
		s := newTestScraper(t, fake)

		_, err := s.FetchProject("SPARK", 0, 5)
		require.NoError(t, err)

		fetched, err := s.FetchProject("SPARK", 0, 5)
		require.NoError(t, err)
		assert.Equal(t, 0, fetched)

		entry := s.ledger.Get("SPARK")
		assert.Equal(t, 3, entry.StartAt)
		assert.Equal(t, 3, entry.TotalFetched)
	})
}

func TestFetchProjectFailurePersistsProgress(t *testing.T) {
	fake := &fakeFetcher{
		issues:  map[string][]jira.Record{"SPARK": makeIssues("SPARK", 10)},
		failAt:  2,
		failErr: errs.New(errs.ErrorTypeServerError, "upstream exploded"),
	}
	s := newTestScraper(t, fake)

	fetched, err := s.FetchProject("SPARK", 6, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 2")
	assert.Equal(t, 2, fetched)

	// The committed first batch survives the failure
	entry := s.ledger.Get("SPARK")
	assert.Equal(t, 2, entry.StartAt)
	assert.Equal(t, 2, entry.TotalFetched)
	assert.Equal(t, ledger.StatusFailed, entry.LastStatus)

	// The failed status reached disk, not just memory
	reloaded, err := ledger.Open(s.ledger.Path(), logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Get("SPARK").StartAt)
	assert.Equal(t, ledger.StatusFailed, reloaded.Get("SPARK").LastStatus)

	// A later run picks up at the committed offset
	fake.failAt = 0
	fetched, err = s.FetchProject("SPARK", 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, fetched)

	entry = s.ledger.Get("SPARK")
	assert.Equal(t, 6, entry.StartAt)
	assert.Equal(t, 6, entry.TotalFetched)
	assert.Equal(t, ledger.StatusSuccess, entry.LastStatus)
}

func TestFetchProjectSkipsMalformedRecords(t *testing.T) {
	records := makeIssues("SPARK", 1)
	records = append(records, jira.Record{
		Key:  "SPARK-2",
		Data: []byte(`{"key":"SPARK-2","fields":{"summary":"no id","project":{"key":"SPARK"}}}`),
	})
	fake := &fakeFetcher{issues: map[string][]jira.Record{"SPARK": records}}
	s := newTestScraper(t, fake)

	fetched, err := s.FetchProject("SPARK", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched)

	// Both raw bodies land on disk, only the well-formed one is emitted
	assert.Equal(t, 2, s.store.RawCount("SPARK"))
	assert.Equal(t, 1, s.store.ProcessedCount("SPARK"))

	// The offset still covers the malformed record
	assert.Equal(t, 2, s.ledger.Get("SPARK").StartAt)
}

func TestFetchProjectSkipTransform(t *testing.T) {
	fake := &fakeFetcher{issues: map[string][]jira.Record{"SPARK": makeIssues("SPARK", 4)}}
	s := newTestScraper(t, fake)
	s.SetSkipTransform(true)

	fetched, err := s.FetchProject("SPARK", 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, fetched)

	assert.Equal(t, 4, s.store.RawCount("SPARK"))
	assert.Equal(t, 0, s.store.ProcessedCount("SPARK"))

	// The standalone transform stage catches up from the raw files
	result, err := s.TransformProject("SPARK")
	require.NoError(t, err)
	assert.Equal(t, 4, result.Emitted)
	assert.Equal(t, 4, s.store.ProcessedCount("SPARK"))
}

func TestFetchProjectInvalidKey(t *testing.T) {
	fake := &fakeFetcher{issues: map[string][]jira.Record{}}
	s := newTestScraper(t, fake)

	for _, key := range []string{"BAD KEY", "9SPARK", "spark issues"} {
		_, err := s.FetchProject(key, 5, 2)
		assert.Error(t, err, "key %q", key)
	}
	assert.Empty(t, fake.calls)

	// Lowercase input is normalized rather than rejected
	fake.issues["SPARK"] = makeIssues("SPARK", 1)
	fetched, err := s.FetchProject("spark", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched)
}

func TestRun(t *testing.T) {
	fake := &fakeFetcher{
		issues: map[string][]jira.Record{
			"SPARK": makeIssues("SPARK", 3),
			"HIVE":  makeIssues("HIVE", 2),
		},
	}
	s := newTestScraper(t, fake)
	s.config.Fetch.Limit = 0
	s.config.Fetch.BatchSize = 2

	results := s.Run([]string{"spark", "HIVE"})
	require.Len(t, results, 2)

	assert.Equal(t, "SPARK", results[0].Project)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 3, results[0].Fetched)
	assert.Equal(t, 3, results[0].Offset)
	assert.Equal(t, 3, results[0].TotalFetched)

	assert.Equal(t, "HIVE", results[1].Project)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, 2, results[1].Fetched)
}

func TestRunContinuesAfterProjectFailure(t *testing.T) {
	fake := &fakeFetcher{
		issues: map[string][]jira.Record{
			"SPARK": makeIssues("SPARK", 2),
			"HIVE":  makeIssues("HIVE", 2),
		},
		failAt:  1,
		failErr: errs.New(errs.ErrorTypeServerError, "boom"),
	}
	s := newTestScraper(t, fake)
	s.config.Fetch.Limit = 0
	s.config.Fetch.BatchSize = 5

	results := s.Run([]string{"SPARK", "HIVE"})
	require.Len(t, results, 2)

	// First project fails on its first page, second still runs
	assert.Error(t, results[0].Err)
	assert.Equal(t, 0, results[0].Fetched)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, 2, results[1].Fetched)
}

func TestResetProjects(t *testing.T) {
	fake := &fakeFetcher{
		issues: map[string][]jira.Record{
			"SPARK": makeIssues("SPARK", 2),
			"HIVE":  makeIssues("HIVE", 2),
		},
	}
	s := newTestScraper(t, fake)

	for _, project := range []string{"SPARK", "HIVE"} {
		_, err := s.FetchProject(project, 0, 5)
		require.NoError(t, err)
	}

	require.NoError(t, s.ResetProjects([]string{"SPARK"}))

	// SPARK is gone from the ledger and from disk
	assert.False(t, s.ledger.Has("SPARK"))
	assert.Equal(t, 0, s.store.RawCount("SPARK"))
	assert.Equal(t, 0, s.store.ProcessedCount("SPARK"))

	// HIVE is untouched
	assert.True(t, s.ledger.Has("HIVE"))
	assert.Equal(t, 2, s.store.RawCount("HIVE"))
	assert.Equal(t, 2, s.store.ProcessedCount("HIVE"))

	// A reset project starts over from offset zero
	fetched, err := s.FetchProject("SPARK", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched)
	calls := fake.callsFor("SPARK")
	assert.Equal(t, 0, calls[len(calls)-1].startAt)
}

func TestResetAll(t *testing.T) {
	fake := &fakeFetcher{
		issues: map[string][]jira.Record{
			"SPARK": makeIssues("SPARK", 2),
			"HIVE":  makeIssues("HIVE", 2),
		},
	}
	s := newTestScraper(t, fake)

	for _, project := range []string{"SPARK", "HIVE"} {
		_, err := s.FetchProject(project, 0, 5)
		require.NoError(t, err)
	}

	require.NoError(t, s.ResetAll())

	assert.Equal(t, 0, s.ledger.Len())
	assert.Equal(t, 0, s.store.RawCount("SPARK"))
	assert.Equal(t, 0, s.store.RawCount("HIVE"))
	assert.Equal(t, 0, s.store.ProcessedCount("SPARK"))
	assert.Equal(t, 0, s.store.ProcessedCount("HIVE"))
}

func TestPing(t *testing.T) {
	fake := &fakeFetcher{}
	s := newTestScraper(t, fake)
	assert.NoError(t, s.Ping())

	fake.pingErr = errs.New(errs.ErrorTypeAuth, "credentials rejected")
	assert.Error(t, s.Ping())
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = filepath.Join(dir, "outputs")
	cfg.Output.StateFile = filepath.Join(dir, "state", "checkpoints.json")

	s, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.client)
	assert.NotNil(t, s.ledger)
	assert.NotNil(t, s.store)
	assert.NotNil(t, s.transformer)
	assert.Equal(t, cfg, s.config)
}
