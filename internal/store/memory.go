package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps run records in process memory with an optional TTL.
// Suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryItem
	ttl     time.Duration
	now     func() time.Time
}

type memoryItem struct {
	rec       Record
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory run store. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryItem),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expires time.Time
	if s.ttl > 0 {
		expires = s.now().Add(s.ttl)
	}
	s.records[rec.RunID] = memoryItem{rec: rec, expiresAt: expires}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, runID string) (Record, error) {
	s.mu.RLock()
	item, ok := s.records[runID]
	s.mu.RUnlock()
	if !ok || s.expired(item) {
		return Record{}, ErrNotFound
	}
	return item.rec, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, item := range s.records {
		if s.expired(item) {
			continue
		}
		out = append(out, item.rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) expired(item memoryItem) bool {
	return !item.expiresAt.IsZero() && s.now().After(item.expiresAt)
}
