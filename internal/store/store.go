// Package store provides a file-based history of monitoring records.
// Each record (snapshot plus analysis) is written as a timestamped JSON
// file; the payloads are opaque to the store. Auto-cleanup enforces the
// configured size limit by dropping the oldest records first.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/models"
)

// recordTimeFormat orders files lexicographically by collection time.
const recordTimeFormat = "20060102T150405.000"

// Store persists monitoring history on the local filesystem.
type Store struct {
	dir       string
	maxSizeMB int
	logger    *zap.Logger
	mu        sync.Mutex
}

// New creates a history store at the given directory, creating it if needed.
func New(dir string, maxSizeMB int, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}
	return &Store{
		dir:       dir,
		maxSizeMB: maxSizeMB,
		logger:    logger,
	}, nil
}

// Save writes one monitoring record. When the store exceeds its size limit,
// the oldest records are dropped until it fits.
func (s *Store) Save(record models.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.maxSizeMB > 0 && s.currentSizeMB() >= s.maxSizeMB {
		if !s.dropOldest() {
			break
		}
		s.logger.Warn("History store full, dropped oldest record")
	}

	ts, err := time.Parse(time.RFC3339Nano, record.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}
	filename := filepath.Join(s.dir, ts.UTC().Format(recordTimeFormat)+".json")

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0640)
}

// List returns records with a timestamp at or after since, in chronological
// order. Corrupted files are skipped with a warning.
func (s *Store) List(since time.Time) ([]models.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.recordFiles()
	if err != nil {
		return nil, err
	}

	cutoff := ""
	if !since.IsZero() {
		cutoff = since.UTC().Format(recordTimeFormat)
	}

	var records []models.HistoryRecord
	for _, name := range names {
		base := name[:len(name)-len(".json")]
		if cutoff != "" && base < cutoff {
			continue
		}
		path := filepath.Join(s.dir, name)
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			s.logger.Warn("Failed to read history file",
				zap.String("file", path),
				zap.Error(rerr))
			continue
		}
		var record models.HistoryRecord
		if uerr := json.Unmarshal(data, &record); uerr != nil {
			s.logger.Warn("Skipping corrupted history file",
				zap.String("file", path),
				zap.Error(uerr))
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.recordFiles()
	if err != nil {
		return 0
	}
	return len(names)
}

// Prune removes records older than the cutoff and returns how many were
// deleted.
func (s *Store) Prune(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.recordFiles()
	if err != nil {
		return 0
	}

	cutoff := before.UTC().Format(recordTimeFormat)
	removed := 0
	for _, name := range names {
		base := name[:len(name)-len(".json")]
		if base >= cutoff {
			break
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err == nil {
			removed++
		}
	}
	return removed
}

// recordFiles lists record file names in chronological order.
// Must be called with s.mu held.
func (s *Store) recordFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// currentSizeMB returns the total size of all record files in megabytes.
// Must be called with s.mu held.
func (s *Store) currentSizeMB() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	var totalSize int64
	for _, entry := range entries {
		if info, ierr := entry.Info(); ierr == nil {
			totalSize += info.Size()
		}
	}
	return int(totalSize / (1024 * 1024))
}

// dropOldest removes the oldest record file. Returns false when there was
// nothing to remove. Must be called with s.mu held.
func (s *Store) dropOldest() bool {
	names, err := s.recordFiles()
	if err != nil || len(names) == 0 {
		return false
	}
	path := filepath.Join(s.dir, names[0])
	if err := os.Remove(path); err != nil {
		s.logger.Warn("Failed to remove oldest history file",
			zap.String("file", path),
			zap.Error(err))
		return false
	}
	return true
}
