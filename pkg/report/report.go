package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the report file kept next to the ledger in the state
// directory. Each fetch run overwrites it.
const FileName = "last_run.json"

// RunReport captures the outcome of one fetch invocation across all
// requested projects. It is informational only; resume correctness
// comes from the ledger, never from this file.
type RunReport struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Projects   []ProjectRun `json:"projects"`
}

// ProjectRun is one project's slice of a fetch run.
type ProjectRun struct {
	Project string `json:"project"`

	// Fetched counts records newly fetched by this run
	Fetched int `json:"fetched"`

	// Offset and TotalFetched mirror the ledger entry after the run
	Offset       int `json:"offset"`
	TotalFetched int `json:"total_fetched"`

	// Error holds the failure rendering when the project run aborted
	Error string `json:"error,omitempty"`
}

// New starts a report clocked from now.
func New() *RunReport {
	return &RunReport{StartedAt: time.Now()}
}

// Add records one project outcome.
func (r *RunReport) Add(run ProjectRun) {
	r.Projects = append(r.Projects, run)
}

// Finish stamps the end time.
func (r *RunReport) Finish() {
	r.FinishedAt = time.Now()
}

// Duration returns the wall-clock span of the run.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TotalNew sums the newly fetched records across projects.
func (r *RunReport) TotalNew() int {
	total := 0
	for _, p := range r.Projects {
		total += p.Fetched
	}
	return total
}

// FailedProjects returns the projects whose run aborted.
func (r *RunReport) FailedProjects() []string {
	var failed []string
	for _, p := range r.Projects {
		if p.Error != "" {
			failed = append(failed, p.Project)
		}
	}
	return failed
}

// PathFor places the report file in the same directory as the ledger.
func PathFor(stateFile string) string {
	return filepath.Join(filepath.Dir(stateFile), FileName)
}

// Save writes the report as indented JSON.
func (r *RunReport) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return nil
}

// Load reads a previously saved report.
func Load(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &r, nil
}

// Exists checks whether a report has been written.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
