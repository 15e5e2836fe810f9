package database

import (
	"context"
	"sync"

	"github.com/bluele/gcache"
)

// LRUStore keeps the most recently used values of another store in memory.
// Reads fall through to the backing store on a miss; writes go to both.
// mu serializes every path that touches both tiers so they never disagree.
type LRUStore struct {
	mu    sync.Mutex
	inner KVStore
	cache gcache.Cache
}

// NewLRUStore wraps inner with an in-memory LRU of the given size
func NewLRUStore(inner KVStore, size int) *LRUStore {
	return &LRUStore{
		inner: inner,
		cache: gcache.New(size).LRU().Build(),
	}
}

func (s *LRUStore) Get(ctx context.Context, key string) (string, bool, error) {
	if value, ok := s.cached(key); ok {
		return value, true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// a writer may have filled the entry while we waited
	if value, ok := s.cached(key); ok {
		return value, true, nil
	}

	value, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return value, ok, err
	}

	_ = s.cache.Set(key, value)
	return value, true, nil
}

func (s *LRUStore) cached(key string) (string, bool) {
	v, err := s.cache.Get(key)
	if err != nil {
		return "", false
	}
	value, ok := v.(string)
	return value, ok
}

func (s *LRUStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.inner.Set(ctx, key, value); err != nil {
		s.cache.Remove(key)
		return err
	}
	_ = s.cache.Set(key, value)
	return nil
}

func (s *LRUStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		s.cache.Remove(key)
	}
	return s.inner.Delete(ctx, keys...)
}

func (s *LRUStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Purge()
	return s.inner.Clear(ctx)
}

func (s *LRUStore) HealthCheck(ctx context.Context) error {
	return s.inner.HealthCheck(ctx)
}

func (s *LRUStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Purge()
	return s.inner.Close()
}
