package store

import (
	"context"
	"sync"
	"time"

	"github.com/xeelshop/backend/internal/domain"
)

// storeItem represents a single entry with its expiration
type storeItem struct {
	Value      []byte
	Expiration time.Time
}

// MemoryStore is a thread-safe in-memory key-value store with TTL support,
// used for checkout sessions and idempotency records.
type MemoryStore struct {
	data  map[string]storeItem
	mutex sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		data: make(map[string]storeItem),
	}

	// Start cleanup goroutine to remove expired entries every 10 minutes
	go store.cleanupExpired()

	return store
}

// Get retrieves a value from the store
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, exists := s.data[key]
	if !exists {
		return nil, domain.ErrStoreMiss
	}

	// Check if expired
	if time.Now().After(item.Expiration) {
		return nil, domain.ErrStoreMiss
	}

	return item.Value, nil
}

// Set stores a value with TTL. A zero or negative TTL keeps the entry for
// a year, effectively without expiry.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}

	// Copy so callers cannot mutate stored bytes afterwards
	stored := make([]byte, len(value))
	copy(stored, value)

	s.data[key] = storeItem{
		Value:      stored,
		Expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a value from the store
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.data, key)
	return nil
}

// Exists checks if a key exists in the store and is not expired
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, exists := s.data[key]
	if !exists {
		return false, nil
	}

	// Check if expired
	if time.Now().After(item.Expiration) {
		return false, nil
	}

	return true, nil
}

// cleanupExpired removes expired entries from the store periodically
func (s *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mutex.Lock()
		now := time.Now()
		for key, item := range s.data {
			if now.After(item.Expiration) {
				delete(s.data, key)
			}
		}
		s.mutex.Unlock()
	}
}

// Size returns the current number of items in the store (for debugging/monitoring)
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Clear removes all items from the store
func (s *MemoryStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data = make(map[string]storeItem)
}
