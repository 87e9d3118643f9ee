package dlq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/miriambudayr/tierq/id"
)

// MemoryStore is an in-process Store implementation. It is safe for
// concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // insertion order, oldest first
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory DLQ store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// PushDLQ adds an entry to the store.
func (s *MemoryStore) PushDLQ(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entry.ID.String()
	if _, exists := s.entries[key]; exists {
		return fmt.Errorf("dlq entry %s already exists", key)
	}
	s.entries[key] = entry
	s.order = append(s.order, key)
	return nil
}

// ListDLQ returns entries oldest first, honoring Offset and Limit.
func (s *MemoryStore) ListDLQ(_ context.Context, opts ListOpts) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if opts.Offset >= len(s.order) {
		return nil, nil
	}
	keys := s.order[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(keys) {
		keys = keys[:opts.Limit]
	}

	out := make([]*Entry, 0, len(keys))
	for _, key := range keys {
		e := *s.entries[key]
		out = append(out, &e)
	}
	return out, nil
}

// GetDLQ retrieves an entry by ID.
func (s *MemoryStore) GetDLQ(_ context.Context, entryID id.DLQID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[entryID.String()]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", entryID, ErrEntryNotFound)
	}
	cp := *e
	return &cp, nil
}

// ReplayDLQ stamps the entry's ReplayedAt.
func (s *MemoryStore) ReplayDLQ(_ context.Context, entryID id.DLQID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID.String()]
	if !ok {
		return fmt.Errorf("replay %s: %w", entryID, ErrEntryNotFound)
	}
	now := time.Now().UTC()
	e.ReplayedAt = &now
	return nil
}

// PurgeDLQ removes entries whose FailedAt is before the given time.
func (s *MemoryStore) PurgeDLQ(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	kept := s.order[:0]
	for _, key := range s.order {
		if s.entries[key].FailedAt.Before(before) {
			delete(s.entries, key)
			removed++
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept
	return removed, nil
}

// CountDLQ returns the number of stored entries.
func (s *MemoryStore) CountDLQ(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}
