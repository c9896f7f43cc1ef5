package dashboard

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// PreferenceStore is the injected get/set capability for the single cached
// UI preference (the KPI target). Values are plain strings with no schema,
// no versioning and session-scoped lifetime.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// RedisPreferenceStore keeps preferences in Redis.
type RedisPreferenceStore struct {
	client *redis.Client
}

// NewRedisPreferenceStore creates a Redis-backed preference store.
func NewRedisPreferenceStore(client *redis.Client) *RedisPreferenceStore {
	return &RedisPreferenceStore{client: client}
}

// Get returns the stored value, or "" when the key is absent.
func (s *RedisPreferenceStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set stores the value.
func (s *RedisPreferenceStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

// Delete removes the value.
func (s *RedisPreferenceStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// MemoryPreferenceStore keeps preferences in process memory. Used when Redis
// is unavailable, and in tests.
type MemoryPreferenceStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryPreferenceStore creates an empty in-memory preference store.
func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{values: make(map[string]string)}
}

func (s *MemoryPreferenceStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *MemoryPreferenceStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryPreferenceStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
