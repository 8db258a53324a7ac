package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"NewsPoster/internal/domain"
	"NewsPoster/internal/ports"
)

// FileStore keeps the record snapshot as a single JSON array on disk. Writes
// go to a temp file in the same directory and are renamed into place, so a
// concurrent reader sees either the old or the new snapshot in full. A mutex
// serializes Update closures, giving single-writer semantics in-process.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

var _ ports.RecordStore = (*FileStore)(nil)

// NewFileStore wires the backing file path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load returns the current snapshot. A missing or unparseable file yields an
// empty snapshot (cold start), never an error.
func (s *FileStore) Load(ctx context.Context) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(), nil
}

// Update applies mutate to the current snapshot under the store lock and
// persists the result only when mutate reports a change.
func (s *FileStore) Update(ctx context.Context, mutate func([]domain.Record) ([]domain.Record, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	updated, changed, err := mutate(records)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.saveLocked(updated)
}

func (s *FileStore) loadLocked() []domain.Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("read store, starting empty", "path", s.path, "error", err)
		}
		return []domain.Record{}
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("corrupt store, starting empty", "path", s.path, "error", err)
		return []domain.Record{}
	}
	return records
}

func (s *FileStore) saveLocked(records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
