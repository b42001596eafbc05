// Package storage provides in-memory history storage.
//
// Information Hiding:
// - Slice storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"slices"
	"sync"
)

// InMemoryHistory implements HistoryStore using an in-memory slice.
// Data is lost when process terminates.
type InMemoryHistory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewInMemoryHistory creates a new in-memory history.
func NewInMemoryHistory() *InMemoryHistory {
	return &InMemoryHistory{}
}

// Record appends an entry.
func (s *InMemoryHistory) Record(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, cloneEntry(entry))
	return nil
}

// List returns up to limit entries, newest first.
func (s *InMemoryHistory) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, cloneEntry(s.entries[i]))
	}
	return out, nil
}

// Get returns the entry with the given ID, or nil if not found.
func (s *InMemoryHistory) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			copied := cloneEntry(e)
			return &copied, nil
		}
	}
	return nil, nil
}

// Clear deletes every entry.
func (s *InMemoryHistory) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	return nil
}

// cloneEntry copies the JSON payloads to avoid external mutations.
func cloneEntry(e Entry) Entry {
	e.Request = slices.Clone(e.Request)
	e.Result = slices.Clone(e.Result)
	return e
}

// Verify InMemoryHistory implements HistoryStore
var _ HistoryStore = (*InMemoryHistory)(nil)
