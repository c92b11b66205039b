// Package storage persists named analyses to a single JSON file. The
// whole list is rewritten on every mutation; there is no incremental
// update. A payload that does not parse as the expected list shape is
// discarded and the store starts over empty.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
)

// FileStore is a mutex-guarded file-backed AnalysisStore.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// NewFileStore creates a store at path, creating parent directories as
// needed.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// List returns all saved analyses, newest first by creation-timestamp id.
// A missing file is an empty store; a corrupted file is wiped and treated
// as empty, never surfaced as an error.
func (s *FileStore) List() ([]domain.SavedAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(), nil
}

func (s *FileStore) listLocked() []domain.SavedAnalysis {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []domain.SavedAnalysis{}
	}

	var analyses []domain.SavedAnalysis
	if err := json.Unmarshal(data, &analyses); err != nil {
		s.logger.Error("corrupted analysis store, discarding",
			zap.String("path", s.path),
			zap.Error(err),
		)
		_ = os.Remove(s.path)
		return []domain.SavedAnalysis{}
	}

	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].ID > analyses[j].ID
	})
	return analyses
}

// Save appends a new named analysis and rewrites the store. The id is the
// creation timestamp. Returns false (with no error for the caller to
// handle beyond logging) when the write fails.
func (s *FileStore) Save(name string, inputs domain.FinancialSnapshot, result domain.TaxAnalysis) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	analyses := s.listLocked()
	analyses = append(analyses, domain.SavedAnalysis{
		ID:     now.UTC().Format("2006-01-02T15:04:05.000000000Z"),
		Name:   name,
		Date:   now.Format("02/01/2006 15:04"),
		Inputs: inputs,
		Result: result,
	})

	if err := s.writeLocked(analyses); err != nil {
		s.logger.Error("failed to write analysis store", zap.Error(err))
		return false, nil
	}
	return true, nil
}

// Delete removes the analysis with the given id and rewrites the store.
// Deleting an unknown id is a no-op.
func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	analyses := s.listLocked()
	kept := analyses[:0]
	for _, a := range analyses {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	return s.writeLocked(kept)
}

// writeLocked rewrites the whole store atomically (write-temp + rename).
func (s *FileStore) writeLocked(analyses []domain.SavedAnalysis) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(analyses, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
