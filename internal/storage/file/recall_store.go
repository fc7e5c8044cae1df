// Package file persists recall entries as a JSON array on local disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// RecallStore is a JSON file implementation of storage.RecallStore.
// Writes replace the file atomically via a temp file and rename.
type RecallStore struct {
	path   string
	limit  int
	logger *zap.Logger

	mu sync.Mutex
}

// NewRecallStore creates a store backed by path. The file need not exist.
func NewRecallStore(path string, logger *zap.Logger) *RecallStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecallStore{
		path:   path,
		limit:  storage.RecallCap,
		logger: logger,
	}
}

var _ storage.RecallStore = (*RecallStore)(nil)

// Path returns the backing file path.
func (s *RecallStore) Path() string {
	return s.path
}

// Load reads the file. A missing or corrupt file loads as empty.
func (s *RecallStore) Load(_ context.Context) ([]domain.RecallEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Merge reads, merges and rewrites the file under the store mutex.
func (s *RecallStore) Merge(ctx context.Context, entries []domain.RecallEntry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read()
	if err != nil {
		return 0, err
	}

	merged := storage.MergeRecall(existing, entries, s.limit)
	if err := s.write(merged); err != nil {
		return 0, err
	}
	return len(merged), nil
}

// read must be called with mu held.
func (s *RecallStore) read() ([]domain.RecallEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		s.logger.Warn("recall file unreadable, starting empty",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return nil, nil
	}

	var entries []domain.RecallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("recall file corrupt, starting empty",
			zap.String("path", s.path),
			zap.Error(fmt.Errorf("%w: %w", storage.ErrCorrupt, err)),
		)
		return nil, nil
	}

	entries = storage.NormalizeBatch(entries)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	return entries, nil
}

// write must be called with mu held.
func (s *RecallStore) write(entries []domain.RecallEntry) error {
	if entries == nil {
		entries = []domain.RecallEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode recall: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create recall dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace recall file: %w", err)
	}
	committed = true
	return nil
}
