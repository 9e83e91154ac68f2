package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jirascraper/pkg/logger"
)

const (
	rawDirName       = "raw"
	processedDirName = "processed"

	// Issue descriptions can be enormous; allow long JSONL lines
	maxLineBytes = 10 * 1024 * 1024
)

// Manager owns the on-disk artifact layout: one JSON file per raw record
// under raw/<PROJECT>/, one append-only JSONL stream per project under
// processed/.
type Manager struct {
	baseDir string
	logger  logger.Logger
}

// NewManager creates a storage manager rooted at baseDir and ensures the
// layout directories exist
func NewManager(baseDir string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	manager := &Manager{
		baseDir: baseDir,
		logger:  log,
	}

	if err := manager.EnsureLayout(); err != nil {
		return nil, err
	}

	return manager, nil
}

// EnsureLayout creates the raw/ and processed/ directories
func (m *Manager) EnsureLayout() error {
	for _, dir := range []string{m.rawRoot(), m.processedRoot()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}

// BaseDir returns the output root
func (m *Manager) BaseDir() string {
	return m.baseDir
}

func (m *Manager) rawRoot() string {
	return filepath.Join(m.baseDir, rawDirName)
}

func (m *Manager) processedRoot() string {
	return filepath.Join(m.baseDir, processedDirName)
}

// RawDir returns the raw record directory for a project
func (m *Manager) RawDir(project string) string {
	return filepath.Join(m.rawRoot(), project)
}

// ProcessedPath returns the normalized stream path for a project
func (m *Manager) ProcessedPath(project string) string {
	return filepath.Join(m.processedRoot(), project+".jsonl")
}

// usableKey rejects keys that cannot safely become file names. Keys arrive
// from remote data, so path separators and dot names are refused outright.
func usableKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	if strings.ContainsAny(key, `/\`) {
		return false
	}
	return true
}

// SaveRaw writes one raw record to raw/<PROJECT>/<KEY>.json atomically.
// Saving the same key again overwrites the previous content.
func (m *Manager) SaveRaw(project, key string, data []byte) error {
	if !usableKey(key) {
		return fmt.Errorf("unusable issue key %q", key)
	}

	dir := m.RawDir(project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create raw directory: %w", err)
	}

	filename := filepath.Join(dir, key+".json")
	tempFile := filename + ".tmp"

	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, writeErr := out.Write(data)
	if writeErr == nil {
		writeErr = out.Sync()
	}
	closeErr := out.Close()

	if writeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write raw record: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	// Atomic rename
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// HasRaw reports whether a raw record exists for the key
func (m *Manager) HasRaw(project, key string) bool {
	if !usableKey(key) {
		return false
	}
	_, err := os.Stat(filepath.Join(m.RawDir(project), key+".json"))
	return err == nil
}

// ReadRaw returns the stored raw record for the key
func (m *Manager) ReadRaw(project, key string) ([]byte, error) {
	if !usableKey(key) {
		return nil, fmt.Errorf("unusable issue key %q", key)
	}
	data, err := os.ReadFile(filepath.Join(m.RawDir(project), key+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read raw record: %w", err)
	}
	return data, nil
}

// RawKeys lists the stored raw record keys for a project in sorted order
func (m *Manager) RawKeys(project string) ([]string, error) {
	entries, err := os.ReadDir(m.RawDir(project))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read raw directory: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// RawCount returns the number of stored raw records for a project
func (m *Manager) RawCount(project string) int {
	keys, err := m.RawKeys(project)
	if err != nil {
		return 0
	}
	return len(keys)
}

// AppendProcessed appends pre-marshaled JSON lines to the project's
// normalized stream
func (m *Manager) AppendProcessed(project string, lines [][]byte) error {
	if len(lines) == 0 {
		return nil
	}

	path := m.ProcessedPath(project)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open processed stream: %w", err)
	}

	for _, line := range lines {
		if _, err := file.Write(append(line, '\n')); err != nil {
			file.Close()
			return fmt.Errorf("failed to append processed record: %w", err)
		}
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync processed stream: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close processed stream: %w", err)
	}

	return nil
}

// ProcessedKeys scans the project's normalized stream and returns the set
// of source keys already emitted. Unreadable lines are skipped so one
// interrupted append never blocks future transforms.
func (m *Manager) ProcessedKeys(project string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	file, err := os.Open(m.ProcessedPath(project))
	if err != nil {
		if os.IsNotExist(err) {
			return keys, nil
		}
		return nil, fmt.Errorf("failed to open processed stream: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(line, &record); err != nil || record.Key == "" {
			m.logger.WarnWithFields("skipping unreadable processed line", map[string]interface{}{
				"project": project,
				"line":    lineNo,
			})
			continue
		}
		keys[record.Key] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan processed stream: %w", err)
	}

	return keys, nil
}

// ProcessedCount returns the number of emitted records for a project
func (m *Manager) ProcessedCount(project string) int {
	keys, err := m.ProcessedKeys(project)
	if err != nil {
		return 0
	}
	return len(keys)
}

// RemoveProject deletes the project's raw directory and processed stream.
// Missing artifacts are not errors.
func (m *Manager) RemoveProject(project string) error {
	var errList []error

	if err := os.RemoveAll(m.RawDir(project)); err != nil {
		errList = append(errList, fmt.Errorf("failed to remove raw directory: %w", err))
	}
	if err := os.Remove(m.ProcessedPath(project)); err != nil && !os.IsNotExist(err) {
		errList = append(errList, fmt.Errorf("failed to remove processed stream: %w", err))
	}

	return errors.Join(errList...)
}

// RemoveAll deletes every raw and processed artifact and recreates the
// empty layout
func (m *Manager) RemoveAll() error {
	if err := os.RemoveAll(m.rawRoot()); err != nil {
		return fmt.Errorf("failed to remove raw tree: %w", err)
	}
	if err := os.RemoveAll(m.processedRoot()); err != nil {
		return fmt.Errorf("failed to remove processed tree: %w", err)
	}
	return m.EnsureLayout()
}
