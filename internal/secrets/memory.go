package secrets

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]byte{}}
}

// Name implements Store.
func (s *MemoryStore) Name() string { return "memory" }

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, path string, value []byte, meta Metadata) error {
	record, err := encodeEnvelope(value, meta)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[strings.Trim(path, "/")] = record
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	record, ok := s.records[strings.Trim(path, "/")]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	value, _, err := decodeEnvelope(record)
	return value, err
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	prefix = strings.Trim(prefix, "/")
	s.mu.RLock()
	defer s.mu.RUnlock()
	var paths []string
	for path := range s.records {
		if prefix == "" || path == prefix || strings.HasPrefix(path, prefix+"/") {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
