package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// ProgressTracker follows one project's fetch run. Budget is the number
// of records the run aims for; zero means unbounded and the bar is
// replaced by plain counters.
type ProgressTracker struct {
	Project   string
	Budget    int
	Fetched   int
	Batches   int
	StartTime time.Time
}

// NewProgressTracker starts tracking a project fetch.
func NewProgressTracker(project string, budget int) *ProgressTracker {
	return &ProgressTracker{
		Project:   project,
		Budget:    budget,
		StartTime: time.Now(),
	}
}

// AddBatch records one committed batch.
func (pt *ProgressTracker) AddBatch(received int) {
	pt.Fetched += received
	pt.Batches++
}

// Bar returns a formatted progress bar against the run budget.
func (pt *ProgressTracker) Bar() string {
	const width = 20
	if pt.Budget <= 0 {
		return fmt.Sprintf("%d records / %d batches", pt.Fetched, pt.Batches)
	}

	progress := float64(pt.Fetched) / float64(pt.Budget)
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, pt.Fetched, pt.Budget)
}

// Elapsed returns the time since tracking started.
func (pt *ProgressTracker) Elapsed() time.Duration {
	return time.Since(pt.StartTime)
}

// Rate returns the average fetch rate in records per minute.
func (pt *ProgressTracker) Rate() float64 {
	elapsed := pt.Elapsed().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(pt.Fetched) / elapsed
}

// PrintProgress redraws the in-place progress line for the project.
func (pt *ProgressTracker) PrintProgress() {
	if quietMode {
		return
	}
	fmt.Printf("\r%s %s %s", Magenta("[FETCHING]"), Cyan(pt.Project), Yellow(pt.Bar()))
}

// PrintSummary terminates the progress line with the run totals.
func (pt *ProgressTracker) PrintSummary() {
	if quietMode {
		return
	}
	fmt.Printf("\r%s %s: %d records in %s (%.1f/min)\n",
		Green("[FETCHED]"),
		pt.Project,
		pt.Fetched,
		pt.Elapsed().Round(time.Second),
		pt.Rate())
}
