package staging

import (
	"context"
	"sync"
	"time"

	"golistingsync_api/internal/listings/business/models"
)

// Store holds speculative listing records that must not reach the durable
// cache until explicitly confirmed. Entries are keyed by (session, local id)
// and expire on their own; nothing auto-promotes.
type Store interface {
	Put(ctx context.Context, session string, record models.CachedListingRecord, ttl time.Duration) error
	List(ctx context.Context, session string) ([]models.CachedListingRecord, error)
	// Take removes and returns one staged record, or nil when it is absent
	// or already expired.
	Take(ctx context.Context, session, localID string) (*models.CachedListingRecord, error)
	Discard(ctx context.Context, session string) error
}

type memoryEntry struct {
	record    models.CachedListingRecord
	expiresAt time.Time
}

// MemoryStore is the in-process Store used in tests and when no redis
// address is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, session string, record models.CachedListingRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[session] == nil {
		s.entries[session] = make(map[string]memoryEntry)
	}
	s.entries[session][record.LocalID] = memoryEntry{
		record:    record,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, session string) ([]models.CachedListingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.CachedListingRecord
	for localID, entry := range s.entries[session] {
		if s.now().After(entry.expiresAt) {
			delete(s.entries[session], localID)
			continue
		}
		records = append(records, entry.record)
	}
	return records, nil
}

func (s *MemoryStore) Take(_ context.Context, session, localID string) (*models.CachedListingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[session][localID]
	if !ok {
		return nil, nil
	}
	delete(s.entries[session], localID)
	if s.now().After(entry.expiresAt) {
		return nil, nil
	}
	record := entry.record
	return &record, nil
}

func (s *MemoryStore) Discard(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, session)
	return nil
}
