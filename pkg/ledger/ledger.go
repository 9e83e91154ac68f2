package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"jirascraper/pkg/logger"
)

// Status is the recorded outcome of the most recent fetch attempt
type Status string

const (
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusInProgress Status = "in_progress"
)

// UnboundedPending is the pending value for runs without a record limit.
// It is large enough that page-size arithmetic never exhausts it.
const UnboundedPending = 1<<31 - 1

// Entry tracks fetch progress for one project.
//
// StartAt is the next page offset and equals the count of records ever
// fetched; it only moves forward. Pending is run-scoped: how many records
// the current run still wants. TotalFetched counts records fetched across
// all runs.
type Entry struct {
	StartAt      int    `json:"start_at"`
	Pending      int    `json:"pending"`
	TotalFetched int    `json:"total_fetched"`
	LastStatus   Status `json:"last_status"`
}

// Store persists per-project entries as a single JSON document keyed by
// project. Writes are atomic: temp file, fsync, rename.
type Store struct {
	path    string
	entries map[string]Entry
	logger  logger.Logger
}

// NewStore creates a store against the given state file path
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{
		path:    path,
		entries: make(map[string]Entry),
		logger:  log,
	}
}

// Open creates a store and loads any existing state file
func Open(path string, log logger.Logger) (*Store, error) {
	s := NewStore(path, log)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the state file. A missing file yields an empty store. A file
// that does not parse at all is logged and treated as empty rather than
// refusing to run.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	var rawEntries map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawEntries); err != nil {
		s.logger.WarnWithFields("ledger file is corrupt, starting fresh", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		s.entries = make(map[string]Entry)
		return nil
	}

	entries := make(map[string]Entry, len(rawEntries))
	for project, raw := range rawEntries {
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err == nil {
			entries[project] = entry
			continue
		}

		// Legacy flat form: the value is just the count of fetched records
		var count int
		if err := json.Unmarshal(raw, &count); err == nil && count >= 0 {
			s.logger.InfoWithFields("migrating legacy ledger entry", map[string]interface{}{
				"project": project,
				"count":   count,
			})
			entries[project] = Entry{
				StartAt:      count,
				Pending:      0,
				TotalFetched: count,
				LastStatus:   StatusSuccess,
			}
			continue
		}

		s.logger.WarnWithFields("dropping unreadable ledger entry", map[string]interface{}{
			"project": project,
		})
	}

	s.entries = entries
	return nil
}

// Get returns the entry for a project, initialized fresh when absent
func (s *Store) Get(project string) Entry {
	if entry, ok := s.entries[project]; ok {
		return entry
	}
	return Entry{LastStatus: StatusSuccess}
}

// Has reports whether the project has a recorded entry
func (s *Store) Has(project string) bool {
	_, ok := s.entries[project]
	return ok
}

// Set records the entry for a project in memory; call Save to persist
func (s *Store) Set(project string, entry Entry) {
	s.entries[project] = entry
}

// Delete removes a project's entry, reporting whether one existed
func (s *Store) Delete(project string) bool {
	_, ok := s.entries[project]
	delete(s.entries, project)
	return ok
}

// Clear removes every entry
func (s *Store) Clear() {
	s.entries = make(map[string]Entry)
}

// Projects returns the tracked project keys in sorted order
func (s *Store) Projects() []string {
	projects := make([]string, 0, len(s.entries))
	for project := range s.entries {
		projects = append(projects, project)
	}
	sort.Strings(projects)
	return projects
}

// Len returns the number of tracked projects
func (s *Store) Len() int {
	return len(s.entries)
}

// Path returns the state file location
func (s *Store) Path() string {
	return s.path
}

// Save writes the state file atomically
func (s *Store) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp ledger file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.entries); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	// Flush to disk before the rename makes it visible
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync ledger file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close ledger file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename ledger file: %w", err)
	}

	s.logger.DebugWithFields("ledger saved", map[string]interface{}{
		"path":     s.path,
		"projects": len(s.entries),
	})

	return nil
}
