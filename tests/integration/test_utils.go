package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"jirascraper/pkg/config"
	"jirascraper/pkg/ledger"
	"jirascraper/pkg/scraper"
)

// TestHelper provides shared setup and on-disk assertions for
// integration tests
type TestHelper struct {
	t            *testing.T
	mockServer   *MockJiraServer
	tempDir      string
	cfg          *config.Config
	cleanupFuncs []func()
}

// NewTestHelper creates a test helper with a temporary workspace
func NewTestHelper(t *testing.T) *TestHelper {
	tempDir, err := os.MkdirTemp("", "jirascraper_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	h := &TestHelper{
		t:            t,
		tempDir:      tempDir,
		cleanupFuncs: []func(){},
	}
	h.AddCleanup(func() {
		os.RemoveAll(tempDir)
	})
	return h
}

// AddCleanup registers a function to run when the test finishes
func (h *TestHelper) AddCleanup(fn func()) {
	h.cleanupFuncs = append(h.cleanupFuncs, fn)
}

// Cleanup runs all registered cleanup functions in reverse order
func (h *TestHelper) Cleanup() {
	for i := len(h.cleanupFuncs) - 1; i >= 0; i-- {
		h.cleanupFuncs[i]()
	}
	h.cleanupFuncs = nil
}

// SetupMockServer starts the mock tracker, once per helper
func (h *TestHelper) SetupMockServer() *MockJiraServer {
	if h.mockServer != nil {
		return h.mockServer
	}
	h.mockServer = NewMockJiraServer()
	h.AddCleanup(h.mockServer.Close)
	return h.mockServer
}

// GetTempDir returns the temporary directory for test files
func (h *TestHelper) GetTempDir() string {
	return h.tempDir
}

// CreateTestConfig returns a configuration aimed at the mock tracker,
// with fast retries and artifact paths under the helper's workspace
func (h *TestHelper) CreateTestConfig() *config.Config {
	if h.cfg != nil {
		return h.cfg
	}
	mock := h.SetupMockServer()

	cfg := config.DefaultConfig()
	cfg.Jira.BaseURL = mock.GetURL()
	cfg.Jira.UserAgent = "jirascraper-integration/1.0"
	cfg.Jira.RequestTimeout = 5 * time.Second
	cfg.Fetch.Projects = nil
	cfg.Fetch.Limit = 0
	cfg.Fetch.BatchSize = 2
	cfg.RateLimit.RequestsPerMinute = 6000
	cfg.RateLimit.BurstSize = 1000
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.InitialBackoff = 5 * time.Millisecond
	cfg.Retry.MaxBackoff = 25 * time.Millisecond
	cfg.Retry.BackoffMultiplier = 2.0
	cfg.Retry.JitterFactor = 0
	cfg.Output.BaseDirectory = filepath.Join(h.tempDir, "outputs")
	cfg.Output.StateFile = filepath.Join(h.tempDir, "state", "checkpoints.json")
	cfg.Logging.Level = "error"

	if err := cfg.Validate(); err != nil {
		h.t.Fatalf("Test config failed validation: %v", err)
	}

	h.cfg = cfg
	return cfg
}

// NewScraper builds a scraper wired to the mock tracker. Calling it again
// builds a fresh instance over the same workspace, which is how the
// resume tests simulate separate process runs.
func (h *TestHelper) NewScraper() *scraper.Scraper {
	s, err := scraper.New(h.CreateTestConfig())
	if err != nil {
		h.t.Fatalf("Failed to create scraper: %v", err)
	}
	return s
}

// RawDirPath returns where a project's raw records live on disk
func (h *TestHelper) RawDirPath(project string) string {
	return filepath.Join(h.CreateTestConfig().Output.BaseDirectory, "raw", project)
}

// ProcessedFilePath returns where a project's normalized stream lives
func (h *TestHelper) ProcessedFilePath(project string) string {
	return filepath.Join(h.CreateTestConfig().Output.BaseDirectory, "processed", project+".jsonl")
}

// RawFileNames lists the raw record files stored for a project, sorted.
// The listing reads the directory directly so assertions do not depend
// on the storage code under test.
func (h *TestHelper) RawFileNames(project string) []string {
	entries, err := os.ReadDir(h.RawDirPath(project))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		h.t.Fatalf("Failed to read raw dir for %s: %v", project, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

// ProcessedKeys returns the issue keys in a project's normalized stream,
// in file order. A missing stream yields nil.
func (h *TestHelper) ProcessedKeys(project string) []string {
	data, err := os.ReadFile(h.ProcessedFilePath(project))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		h.t.Fatalf("Failed to read processed stream for %s: %v", project, err)
	}

	var keys []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var record struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			h.t.Fatalf("Processed stream for %s has an unparseable line: %v", project, err)
		}
		keys = append(keys, record.Key)
	}
	return keys
}

// HasProcessedFile reports whether a project's normalized stream exists
func (h *TestHelper) HasProcessedFile(project string) bool {
	_, err := os.Stat(h.ProcessedFilePath(project))
	return err == nil
}

// LedgerEntries reads the checkpoint file straight from disk. A missing
// file yields an empty map.
func (h *TestHelper) LedgerEntries() map[string]ledger.Entry {
	data, err := os.ReadFile(h.CreateTestConfig().Output.StateFile)
	if os.IsNotExist(err) {
		return map[string]ledger.Entry{}
	}
	if err != nil {
		h.t.Fatalf("Failed to read state file: %v", err)
	}

	entries := make(map[string]ledger.Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		h.t.Fatalf("State file is not valid JSON: %v", err)
	}
	return entries
}

// AssertFileExists fails the test when path is missing
func (h *TestHelper) AssertFileExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		h.t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertNoFile fails the test when path is present
func (h *TestHelper) AssertNoFile(path string) {
	if _, err := os.Stat(path); err == nil {
		h.t.Errorf("Expected file to be absent: %s", path)
	}
}
