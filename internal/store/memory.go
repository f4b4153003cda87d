package store

import (
	"context"
	"sync"

	"github.com/Aman-CERP/wikimg/internal/errors"
)

// MemoryStore keeps entries in an in-process map. Nothing survives Close.
type MemoryStore struct {
	name string

	mu      sync.RWMutex
	entries map[string]map[string]struct{}
	closed  bool
}

// Verify interface implementation at compile time
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store bound to name.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:    name,
		entries: make(map[string]map[string]struct{}),
	}
}

// Name returns the namespace of the store.
func (s *MemoryStore) Name() string {
	return s.name
}

// Contains reports whether key is present.
func (s *MemoryStore) Contains(_ context.Context, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[key]
	return ok
}

// Get returns the sorted values of key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.entries[key]
	if !ok {
		return nil, errors.NotFound(s.name, key)
	}
	return sortedValues(set), nil
}

// Put adds value to the set under key.
func (s *MemoryStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.InternalError("memory store "+s.name+" is closed", nil)
	}

	set, ok := s.entries[key]
	if !ok {
		set = make(map[string]struct{}, 1)
		s.entries[key] = set
	}
	set[value] = struct{}{}
	return nil
}

// Delete removes key and all of its values.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return errors.NotFound(s.name, key)
	}
	delete(s.entries, key)
	return nil
}

// Len returns the number of keys held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close marks the store closed. Entries stay readable so a finished build can
// still be queried in the same process.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
