package trace

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	records   []Record
	expiresAt time.Time
}

// MemoryStore keeps traces in a map with lazy TTL expiry. It is the
// default when Redis is not configured.
type MemoryStore struct {
	ttl     time.Duration
	mu      sync.RWMutex
	threads map[string]*memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &MemoryStore{ttl: ttl, threads: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Record(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	entry, ok := s.threads[rec.ThreadID]
	if !ok {
		entry = &memoryEntry{}
		s.threads[rec.ThreadID] = entry
	}
	entry.records = append(entry.records, rec)
	entry.expiresAt = time.Now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) List(_ context.Context, threadID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.threads[threadID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	out := make([]Record, len(entry.records))
	copy(out, entry.records)
	return out, nil
}

// prune drops expired threads; callers hold the write lock.
func (s *MemoryStore) prune() {
	now := time.Now()
	for id, entry := range s.threads {
		if now.After(entry.expiresAt) && !entry.expiresAt.IsZero() {
			delete(s.threads, id)
		}
	}
}
