package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// memoryEntry wraps a cached value with its expiry. A zero expiresAt means
// the entry never expires.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	storedAt  time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is an in-process Store. Entries are small and TTL-bounded, so
// there is no background sweep; expired entries are dropped on read. An
// optional MaxEntries cap bounds the map, evicting expired entries first
// and the oldest entry otherwise.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]*memoryEntry
	maxEntries int
	logger     *zap.Logger
}

// MemoryStoreOption configures a MemoryStore
type MemoryStoreOption func(*MemoryStore)

// WithMaxEntries bounds the number of cached entries. Zero means unbounded.
func WithMaxEntries(n int) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.maxEntries = n
	}
}

// WithMemoryLogger sets the logger for the store
func WithMemoryLogger(logger *zap.Logger) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.logger = logger
	}
}

// NewMemoryStore creates an in-process cache store
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if entry.expired(time.Now()) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it
		if current, ok := s.entries[key]; ok && current == entry {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		s.logger.Debug("cache entry expired", zap.String("key", key))
		return nil, false
	}
	return entry.value, true
}

// GetStale implements Store
func (s *MemoryStore) GetStale(ctx context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return entry.value, true
}

// Set implements Store
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	now := time.Now()
	entry := &memoryEntry{value: value, storedAt: now}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evictLocked(now)
	}
	s.entries[key] = entry
}

// evictLocked frees one slot: expired entries go first, then the oldest.
// Caller must hold the write lock.
func (s *MemoryStore) evictLocked(now time.Time) {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			return
		}
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
		}
	}
	if oldestKey != "" {
		s.logger.Debug("cache full, evicting oldest entry", zap.String("key", oldestKey))
		delete(s.entries, oldestKey)
	}
}

// Delete implements Store
func (s *MemoryStore) Delete(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear implements Store
func (s *MemoryStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*memoryEntry)
}

// Len reports the current number of entries, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
