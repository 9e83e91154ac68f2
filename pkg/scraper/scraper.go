package scraper

import (
	"errors"
	"fmt"

	"jirascraper/pkg/config"
	errs "jirascraper/pkg/errors"
	"jirascraper/pkg/jira"
	"jirascraper/pkg/ledger"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/ratelimit"
	"jirascraper/pkg/storage"
	"jirascraper/pkg/transform"
	"jirascraper/pkg/ui"
)

// Scraper orchestrates the fetch pipeline: pull pages of issues from
// the tracker, persist each raw record, hand the batch to the transform
// stage, then advance the offset ledger. All work is single-threaded;
// blocking waits (network, backoff, throttle) happen inline.
type Scraper struct {
	client        IssueFetcher
	ledger        *ledger.Store
	store         *storage.Manager
	transformer   *transform.Transformer
	config        *config.Config
	logger        logger.Logger
	skipTransform bool
}

// ProjectResult is the outcome of one project's fetch run. Offset and
// TotalFetched reflect the ledger entry after the run.
type ProjectResult struct {
	Project      string
	Fetched      int
	Offset       int
	TotalFetched int
	Err          error
}

// New creates a new Scraper instance wired from configuration.
func New(cfg *config.Config) (*Scraper, error) {
	log := logger.GetLogger()

	client := jira.NewClientWithConfig(&cfg.Jira, &cfg.Retry, log)
	client.SetLimiter(ratelimit.NewLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize))

	store, err := storage.NewManager(cfg.Output.BaseDirectory, log)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	ledgerStore, err := ledger.Open(cfg.Output.StateFile, log)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	return &Scraper{
		client:      client,
		ledger:      ledgerStore,
		store:       store,
		transformer: transform.New(store, log),
		config:      cfg,
		logger:      log,
	}, nil
}

// SetSkipTransform disables the inline transform stage. Raw records are
// still written; run the transform command later to catch up.
func (s *Scraper) SetSkipTransform(skip bool) {
	s.skipTransform = skip
}

// Ledger exposes the offset ledger for status reporting.
func (s *Scraper) Ledger() *ledger.Store {
	return s.ledger
}

// Store exposes the storage manager for status reporting.
func (s *Scraper) Store() *storage.Manager {
	return s.store
}

// Ping verifies the tracker is reachable with the configured settings.
func (s *Scraper) Ping() error {
	return s.client.Ping()
}

// Run fetches every named project in order. A failing project is
// reported and the remaining projects still run.
func (s *Scraper) Run(projects []string) []ProjectResult {
	results := make([]ProjectResult, 0, len(projects))
	for _, raw := range projects {
		project := jira.SanitizeProjectKey(raw)
		ui.PrintHighlight(fmt.Sprintf("▶ %s", project))

		fetched, err := s.FetchProject(project, s.config.Fetch.Limit, s.config.Fetch.BatchSize)
		entry := s.ledger.Get(project)
		results = append(results, ProjectResult{
			Project:      project,
			Fetched:      fetched,
			Offset:       entry.StartAt,
			TotalFetched: entry.TotalFetched,
			Err:          err,
		})
		if err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"project": project,
			}).Error("Project fetch failed")
			ui.PrintError(fmt.Sprintf("✗ %s failed", project), err)
			continue
		}
		ui.PrintSuccess(fmt.Sprintf("✓ %s: %d new records", project, fetched))
	}
	return results
}

// FetchProject advances one project's fetch window until the run budget
// is exhausted or the tracker runs out of issues. It returns the number
// of records fetched by this call.
//
// limit caps the records fetched this run; limit <= 0 means fetch until
// the project is exhausted. batchSize is the page size requested from
// the tracker.
func (s *Scraper) FetchProject(project string, limit, batchSize int) (int, error) {
	project = jira.SanitizeProjectKey(project)
	if !jira.IsValidProjectKey(project) {
		return 0, errs.New(errs.ErrorTypeClientError, fmt.Sprintf("invalid project key %q", project))
	}
	if batchSize <= 0 {
		batchSize = jira.DefaultPageSize
	}

	entry := s.ledger.Get(project)
	if limit > 0 {
		entry.Pending = limit
	} else {
		entry.Pending = ledger.UnboundedPending
	}
	entry.LastStatus = ledger.StatusInProgress
	s.ledger.Set(project, entry)
	if err := s.ledger.Save(); err != nil {
		return 0, fmt.Errorf("persisting ledger for %s: %w", project, err)
	}

	s.logger.InfoWithFields("Starting fetch", map[string]interface{}{
		"project":    project,
		"start_at":   entry.StartAt,
		"pending":    pendingDisplay(entry.Pending),
		"batch_size": batchSize,
	})

	budget := 0
	if limit > 0 {
		budget = limit
	}
	tracker := ui.NewProgressTracker(project, budget)

	fetched := 0
	for entry.Pending > 0 {
		pageSize := batchSize
		if entry.Pending < pageSize {
			pageSize = entry.Pending
		}

		page, err := s.client.FetchPage(project, entry.StartAt, pageSize)
		if err != nil {
			s.failProject(project, entry)
			return fetched, fmt.Errorf("fetching %s at offset %d: %w", project, entry.StartAt, err)
		}

		if page.Received == 0 {
			entry.Pending = 0
			s.logger.InfoWithFields("No more records available", map[string]interface{}{
				"project":  project,
				"start_at": entry.StartAt,
			})
			break
		}

		for _, record := range page.Records {
			if err := s.store.SaveRaw(project, record.Key, record.Data); err != nil {
				s.failProject(project, entry)
				return fetched, fmt.Errorf("saving raw record %s: %w", record.Key, err)
			}
		}

		if !s.skipTransform {
			if _, err := s.transformer.TransformBatch(project, page.Records); err != nil {
				s.failProject(project, entry)
				return fetched, fmt.Errorf("transforming batch for %s: %w", project, err)
			}
		}

		// The offset advances by what the tracker returned, not by what
		// was stored; otherwise a page with unusable keys would be
		// refetched forever.
		entry.StartAt += page.Received
		entry.TotalFetched += page.Received
		entry.Pending -= page.Received
		if entry.Pending < 0 {
			entry.Pending = 0
		}
		fetched += page.Received

		s.ledger.Set(project, entry)
		if err := s.ledger.Save(); err != nil {
			return fetched, fmt.Errorf("persisting ledger for %s: %w", project, err)
		}

		tracker.AddBatch(page.Received)
		tracker.PrintProgress()

		s.logger.InfoWithFields("Batch committed", map[string]interface{}{
			"project":       project,
			"received":      page.Received,
			"stored":        len(page.Records),
			"start_at":      entry.StartAt,
			"pending":       pendingDisplay(entry.Pending),
			"total_fetched": entry.TotalFetched,
		})

		if page.Received < pageSize {
			entry.Pending = 0
			s.logger.InfoWithFields("Reached end of project data", map[string]interface{}{
				"project":  project,
				"start_at": entry.StartAt,
			})
		}
	}

	entry.LastStatus = ledger.StatusSuccess
	s.ledger.Set(project, entry)
	if err := s.ledger.Save(); err != nil {
		return fetched, fmt.Errorf("persisting ledger for %s: %w", project, err)
	}

	tracker.PrintSummary()
	s.logger.InfoWithFields("Fetch complete", map[string]interface{}{
		"project":       project,
		"new_records":   fetched,
		"total_fetched": entry.TotalFetched,
		"start_at":      entry.StartAt,
	})
	return fetched, nil
}

// TransformProject re-runs the transform stage over every raw record
// already on disk for a project.
func (s *Scraper) TransformProject(project string) (*transform.BatchResult, error) {
	project = jira.SanitizeProjectKey(project)
	if !jira.IsValidProjectKey(project) {
		return nil, errs.New(errs.ErrorTypeClientError, fmt.Sprintf("invalid project key %q", project))
	}
	return s.transformer.TransformProject(project)
}

// ResetProjects discards all local state for the named projects. Ledger
// entries are cleared and persisted before any files are removed so a
// crash cannot leave the ledger pointing at deleted data.
func (s *Scraper) ResetProjects(projects []string) error {
	cleared := make([]string, 0, len(projects))
	for _, raw := range projects {
		project := jira.SanitizeProjectKey(raw)
		s.ledger.Delete(project)
		cleared = append(cleared, project)
	}
	if err := s.ledger.Save(); err != nil {
		return fmt.Errorf("persisting ledger: %w", err)
	}

	var problems []error
	for _, project := range cleared {
		if err := s.store.RemoveProject(project); err != nil {
			problems = append(problems, fmt.Errorf("removing %s: %w", project, err))
			continue
		}
		s.transformer.Forget(project)
		s.logger.InfoWithFields("Project reset", map[string]interface{}{
			"project": project,
		})
	}
	return errors.Join(problems...)
}

// ResetAll discards the entire ledger and every stored artifact.
func (s *Scraper) ResetAll() error {
	s.ledger.Clear()
	if err := s.ledger.Save(); err != nil {
		return fmt.Errorf("persisting ledger: %w", err)
	}
	if err := s.store.RemoveAll(); err != nil {
		return err
	}
	s.transformer.ForgetAll()
	s.logger.Info("All local state reset")
	return nil
}

// failProject records a failed status without touching committed offset
// progress.
func (s *Scraper) failProject(project string, entry ledger.Entry) {
	entry.LastStatus = ledger.StatusFailed
	s.ledger.Set(project, entry)
	if err := s.ledger.Save(); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"project": project,
		}).Error("Failed to persist ledger after fetch failure")
	}
}

// pendingDisplay renders the pending counter for logs, naming the
// unbounded sentinel instead of printing a huge number.
func pendingDisplay(pending int) interface{} {
	if pending >= ledger.UnboundedPending {
		return "unbounded"
	}
	return pending
}
