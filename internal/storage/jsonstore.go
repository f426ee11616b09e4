// Package storage implements append-only record collections backed by flat JSON-array files.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// Store holds an ordered in-memory sequence of records of one kind,
// mirrored to a backing JSON-array file. The whole collection is loaded
// at open time and rewritten on every append. A mutex serializes
// writers; without it two concurrent appends would race on the file and
// the last full rewrite would win.
type Store[T any] struct {
	path    string
	mu      sync.Mutex
	records []T
}

// Open loads the full record collection from the backing file.
// A missing file is not an error; the store starts empty.
func Open[T any](path string) (*Store[T], error) {
	s := &Store[T]{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Info().Str("path", path).Msg("Store file missing, starting empty")
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return s, nil
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, err
	}

	log.Debug().Str("path", path).Int("records", len(s.records)).Msg("Store loaded")
	return s, nil
}

// Append inserts the record at the end of the sequence and synchronously
// rewrites the backing file with the entire collection.
func (s *Store[T]) Append(record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	if err := s.flush(); err != nil {
		// Keep memory and file consistent on write failure
		s.records = s.records[:len(s.records)-1]
		return err
	}

	return nil
}

// Replace swaps the whole collection and rewrites the backing file.
// Used by offline maintenance only; the serving path never compacts.
func (s *Store[T]) Replace(records []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.records
	s.records = records
	if err := s.flush(); err != nil {
		s.records = old
		return err
	}

	return nil
}

// All returns a snapshot copy of the record sequence in append order.
func (s *Store[T]) All() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the current number of records.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Path returns the backing file path.
func (s *Store[T]) Path() string {
	return s.path
}

// flush serializes the collection and atomically replaces the backing
// file via a temporary file and rename. Callers must hold the mutex.
func (s *Store[T]) flush() error {
	records := s.records
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.path)
}
