package integration

import (
	"fmt"
	"net/http"
	"os"
	"testing"

	"jirascraper/pkg/config"
	"jirascraper/pkg/ledger"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/ui"
)

func TestMain(m *testing.M) {
	ui.SetQuietMode(true)
	_ = logger.Initialize(&config.LoggingConfig{Level: "error"})
	os.Exit(m.Run())
}

// TestFetchPipeline runs a complete fetch against the mock tracker and
// verifies every artifact the pipeline leaves on disk
func TestFetchPipeline(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup()

	mockServer := helper.SetupMockServer()
	mockServer.SeedProject("SPARK", 5)

	s := helper.NewScraper()
	results := s.Run([]string{"SPARK"})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	result := results[0]
	if result.Err != nil {
		t.Fatalf("Fetch failed: %v", result.Err)
	}
	if result.Fetched != 5 {
		t.Errorf("Expected 5 fetched records, got %d", result.Fetched)
	}
	if result.Offset != 5 {
		t.Errorf("Expected offset 5, got %d", result.Offset)
	}
	if result.TotalFetched != 5 {
		t.Errorf("Expected total 5, got %d", result.TotalFetched)
	}

	// Raw records land one file per issue
	rawFiles := helper.RawFileNames("SPARK")
	if len(rawFiles) != 5 {
		t.Fatalf("Expected 5 raw files, got %d: %v", len(rawFiles), rawFiles)
	}
	if rawFiles[0] != "SPARK-1.json" {
		t.Errorf("Expected SPARK-1.json first, got %s", rawFiles[0])
	}

	// The normalized stream carries every record once, in fetch order
	keys := helper.ProcessedKeys("SPARK")
	if len(keys) != 5 {
		t.Fatalf("Expected 5 processed records, got %d", len(keys))
	}
	for i, key := range keys {
		expected := fmt.Sprintf("SPARK-%d", i+1)
		if key != expected {
			t.Errorf("Expected processed key %s at position %d, got %s", expected, i, key)
		}
	}

	// The checkpoint file reflects the finished run
	entries := helper.LedgerEntries()
	entry, ok := entries["SPARK"]
	if !ok {
		t.Fatal("Expected a ledger entry for SPARK")
	}
	if entry.StartAt != 5 {
		t.Errorf("Expected start_at 5, got %d", entry.StartAt)
	}
	if entry.Pending != 0 {
		t.Errorf("Expected pending 0, got %d", entry.Pending)
	}
	if entry.LastStatus != ledger.StatusSuccess {
		t.Errorf("Expected status %s, got %s", ledger.StatusSuccess, entry.LastStatus)
	}

	// Batch size 2 over 5 issues takes three pages
	if got := mockServer.GetSearchRequestCount(); got != 3 {
		t.Errorf("Expected 3 search requests, got %d", got)
	}
	if got := mockServer.GetIssueRequestCount(); got != 5 {
		t.Errorf("Expected 5 issue requests, got %d", got)
	}
}

// TestResumeAcrossRuns verifies a fresh scraper picks up where the
// previous one stopped, using only the on-disk checkpoint
func TestResumeAcrossRuns(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup()

	mockServer := helper.SetupMockServer()
	mockServer.SeedProject("SPARK", 6)

	// First run takes only the first batch
	first := helper.NewScraper()
	fetched, err := first.FetchProject("SPARK", 2, 2)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if fetched != 2 {
		t.Errorf("Expected 2 records from the first run, got %d", fetched)
	}
	if entry := helper.LedgerEntries()["SPARK"]; entry.StartAt != 2 {
		t.Errorf("Expected start_at 2 after the first run, got %d", entry.StartAt)
	}

	// A brand new scraper resumes from the stored offset
	second := helper.NewScraper()
	fetched, err = second.FetchProject("SPARK", 2, 2)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if fetched != 2 {
		t.Errorf("Expected 2 records from the second run, got %d", fetched)
	}
	if entry := helper.LedgerEntries()["SPARK"]; entry.StartAt != 4 {
		t.Errorf("Expected start_at 4 after the second run, got %d", entry.StartAt)
	}

	// A final unbounded run drains the remainder
	third := helper.NewScraper()
	fetched, err = third.FetchProject("SPARK", 0, 2)
	if err != nil {
		t.Fatalf("Third run failed: %v", err)
	}
	if fetched != 2 {
		t.Errorf("Expected 2 records from the third run, got %d", fetched)
	}

	entry := helper.LedgerEntries()["SPARK"]
	if entry.StartAt != 6 {
		t.Errorf("Expected start_at 6 after draining, got %d", entry.StartAt)
	}
	if entry.TotalFetched != 6 {
		t.Errorf("Expected total 6, got %d", entry.TotalFetched)
	}
	if entry.LastStatus != ledger.StatusSuccess {
		t.Errorf("Expected status %s, got %s", ledger.StatusSuccess, entry.LastStatus)
	}

	// No record was fetched or emitted twice
	keys := helper.ProcessedKeys("SPARK")
	if len(keys) != 6 {
		t.Fatalf("Expected 6 processed records, got %d", len(keys))
	}
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			t.Errorf("Key %s appears more than once in the stream", key)
		}
		seen[key] = true
	}

	// Every page was requested exactly once, in offset order
	startAts := mockServer.SearchStartAts()
	expected := []int{0, 2, 4, 6}
	if len(startAts) != len(expected) {
		t.Fatalf("Expected %d search pages, got %d: %v", len(expected), len(startAts), startAts)
	}
	for i, want := range expected {
		if startAts[i] != want {
			t.Errorf("Expected search %d at offset %d, got %d", i, want, startAts[i])
		}
	}
}

// TestFailureRecovery injects a hydration failure mid-run, then clears it
// and verifies the next run completes from the committed offset
func TestFailureRecovery(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup()

	mockServer := helper.SetupMockServer()
	mockServer.SeedProject("SPARK", 6)
	mockServer.SetErrorResponse("/rest/api/2/issue/SPARK-3", http.StatusInternalServerError)

	s := helper.NewScraper()
	fetched, err := s.FetchProject("SPARK", 0, 2)
	if err == nil {
		t.Fatal("Expected the run to fail while SPARK-3 is broken")
	}
	if fetched != 2 {
		t.Errorf("Expected 2 records committed before the failure, got %d", fetched)
	}

	// The first page is committed, the failed page is not
	entry := helper.LedgerEntries()["SPARK"]
	if entry.StartAt != 2 {
		t.Errorf("Expected start_at 2 after the failure, got %d", entry.StartAt)
	}
	if entry.LastStatus != ledger.StatusFailed {
		t.Errorf("Expected status %s, got %s", ledger.StatusFailed, entry.LastStatus)
	}
	if got := helper.RawFileNames("SPARK"); len(got) != 2 {
		t.Errorf("Expected 2 raw files after the failure, got %d: %v", len(got), got)
	}

	// Clear the fault and rerun; the scraper resumes at the failed page
	mockServer.ClearErrorResponse("/rest/api/2/issue/SPARK-3")
	fetched, err = s.FetchProject("SPARK", 0, 2)
	if err != nil {
		t.Fatalf("Recovery run failed: %v", err)
	}
	if fetched != 4 {
		t.Errorf("Expected 4 records from the recovery run, got %d", fetched)
	}

	entry = helper.LedgerEntries()["SPARK"]
	if entry.StartAt != 6 {
		t.Errorf("Expected start_at 6 after recovery, got %d", entry.StartAt)
	}
	if entry.TotalFetched != 6 {
		t.Errorf("Expected total 6 after recovery, got %d", entry.TotalFetched)
	}
	if entry.LastStatus != ledger.StatusSuccess {
		t.Errorf("Expected status %s, got %s", ledger.StatusSuccess, entry.LastStatus)
	}

	if got := helper.RawFileNames("SPARK"); len(got) != 6 {
		t.Errorf("Expected 6 raw files after recovery, got %d", len(got))
	}
	keys := helper.ProcessedKeys("SPARK")
	if len(keys) != 6 {
		t.Errorf("Expected 6 processed records after recovery, got %d", len(keys))
	}
}

// TestSkipTransformThenCatchUp fetches raw-only, then runs the transform
// stage separately over the stored records
func TestSkipTransformThenCatchUp(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup()

	mockServer := helper.SetupMockServer()
	mockServer.SeedProject("HIVE", 4)

	s := helper.NewScraper()
	s.SetSkipTransform(true)

	fetched, err := s.FetchProject("HIVE", 0, 3)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetched != 4 {
		t.Errorf("Expected 4 records, got %d", fetched)
	}
	if got := helper.RawFileNames("HIVE"); len(got) != 4 {
		t.Errorf("Expected 4 raw files, got %d", len(got))
	}
	if helper.HasProcessedFile("HIVE") {
		t.Fatal("Expected no normalized stream while the transform is skipped")
	}

	// The transform stage catches up from the raw records on disk
	result, err := s.TransformProject("HIVE")
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if result.Emitted != 4 {
		t.Errorf("Expected 4 emitted records, got %d", result.Emitted)
	}
	if got := helper.ProcessedKeys("HIVE"); len(got) != 4 {
		t.Errorf("Expected 4 processed records, got %d", len(got))
	}

	// A second pass emits nothing new
	result, err = s.TransformProject("HIVE")
	if err != nil {
		t.Fatalf("Second transform failed: %v", err)
	}
	if result.Emitted != 0 {
		t.Errorf("Expected 0 emitted records on the second pass, got %d", result.Emitted)
	}
	if result.Duplicates != 4 {
		t.Errorf("Expected 4 duplicates on the second pass, got %d", result.Duplicates)
	}
}

// TestResetIsolation clears one project and verifies its neighbors keep
// their artifacts and offsets
func TestResetIsolation(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup()

	mockServer := helper.SetupMockServer()
	mockServer.SeedProject("SPARK", 3)
	mockServer.SeedProject("HIVE", 3)

	s := helper.NewScraper()
	for _, result := range s.Run([]string{"SPARK", "HIVE"}) {
		if result.Err != nil {
			t.Fatalf("Fetch for %s failed: %v", result.Project, result.Err)
		}
	}

	if err := s.ResetProjects([]string{"SPARK"}); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	// SPARK artifacts are gone
	if got := helper.RawFileNames("SPARK"); len(got) != 0 {
		t.Errorf("Expected no raw files for SPARK, got %v", got)
	}
	if helper.HasProcessedFile("SPARK") {
		t.Error("Expected the SPARK stream to be removed")
	}
	entries := helper.LedgerEntries()
	if _, ok := entries["SPARK"]; ok {
		t.Error("Expected the SPARK ledger entry to be removed")
	}

	// HIVE survives untouched
	if got := helper.RawFileNames("HIVE"); len(got) != 3 {
		t.Errorf("Expected 3 raw files for HIVE, got %d", len(got))
	}
	if got := helper.ProcessedKeys("HIVE"); len(got) != 3 {
		t.Errorf("Expected 3 processed records for HIVE, got %d", len(got))
	}
	if entries["HIVE"].StartAt != 3 {
		t.Errorf("Expected HIVE start_at 3, got %d", entries["HIVE"].StartAt)
	}

	// Refetching the cleared project starts over from the beginning
	mockServer.ResetCounters()
	fetched, err := s.FetchProject("SPARK", 0, 2)
	if err != nil {
		t.Fatalf("Refetch failed: %v", err)
	}
	if fetched != 3 {
		t.Errorf("Expected 3 records from the refetch, got %d", fetched)
	}
	startAts := mockServer.SearchStartAts()
	if len(startAts) == 0 || startAts[0] != 0 {
		t.Errorf("Expected the refetch to start at offset 0, got %v", startAts)
	}
	if got := helper.ProcessedKeys("SPARK"); len(got) != 3 {
		t.Errorf("Expected 3 processed records after the refetch, got %d", len(got))
	}
}

// TestRateLimitRecovery verifies a throttled search is retried and the
// run still completes
func TestRateLimitRecovery(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup()

	mockServer := helper.SetupMockServer()
	mockServer.SeedProject("SPARK", 2)
	mockServer.EnableRateLimiting(2)

	s := helper.NewScraper()
	fetched, err := s.FetchProject("SPARK", 0, 2)
	if err != nil {
		t.Fatalf("Fetch failed despite retryable throttling: %v", err)
	}
	if fetched != 2 {
		t.Errorf("Expected 2 records, got %d", fetched)
	}
	if mockServer.GetRateLimitHits() == 0 {
		t.Error("Expected the mock to throttle at least one search")
	}

	entry := helper.LedgerEntries()["SPARK"]
	if entry.LastStatus != ledger.StatusSuccess {
		t.Errorf("Expected status %s, got %s", ledger.StatusSuccess, entry.LastStatus)
	}
}

// TestMalformedRecordKeptRawOnly stores a record the transform stage
// cannot map and verifies the offset still advances past it
func TestMalformedRecordKeptRawOnly(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup()

	mockServer := helper.SetupMockServer()
	mockServer.SeedProject("SPARK", 2)
	mockServer.SeedIssue("SPARK", "SPARK-3", "10903", []byte(`{"id":"10903","key":"SPARK-3"}`))

	s := helper.NewScraper()
	fetched, err := s.FetchProject("SPARK", 0, 3)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetched != 3 {
		t.Errorf("Expected 3 records, got %d", fetched)
	}

	// The raw copy is kept even though the record cannot be normalized
	if got := helper.RawFileNames("SPARK"); len(got) != 3 {
		t.Errorf("Expected 3 raw files, got %d: %v", len(got), got)
	}
	keys := helper.ProcessedKeys("SPARK")
	if len(keys) != 2 {
		t.Fatalf("Expected 2 processed records, got %d: %v", len(keys), keys)
	}
	for _, key := range keys {
		if key == "SPARK-3" {
			t.Error("Expected SPARK-3 to be dropped from the stream")
		}
	}

	// The offset moved past the malformed record
	entry := helper.LedgerEntries()["SPARK"]
	if entry.StartAt != 3 {
		t.Errorf("Expected start_at 3, got %d", entry.StartAt)
	}
	if entry.LastStatus != ledger.StatusSuccess {
		t.Errorf("Expected status %s, got %s", ledger.StatusSuccess, entry.LastStatus)
	}
}
