// Package inflight tracks keys that currently have a mutation in progress so a
// second mutation of the same key can be turned away.
package inflight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned by Do when the key already has a mutation in flight
var ErrBusy = errors.New("operation already in progress")

// Set is a set of keys currently being mutated
type Set interface {
	// Acquire adds key to the set and reports whether it was absent
	Acquire(ctx context.Context, key string) (bool, error)
	// Release removes key from the set
	Release(ctx context.Context, key string) error
}

// Do runs fn while holding key. It returns ErrBusy without calling fn when the
// key is already held.
func Do(ctx context.Context, s Set, key string, fn func(ctx context.Context) error) error {
	ok, err := s.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return ErrBusy
	}
	defer s.Release(context.WithoutCancel(ctx), key)
	return fn(ctx)
}

// MemorySet is a process-local Set
type MemorySet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMemorySet creates an empty in-process set
func NewMemorySet() *MemorySet {
	return &MemorySet{keys: make(map[string]struct{})}
}

func (m *MemorySet) Acquire(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.keys[key]; held {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *MemorySet) Release(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.keys, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of held keys
func (m *MemorySet) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

// RedisSet shares the set between server instances. Markers expire after ttl
// so a crashed holder cannot wedge a key.
type RedisSet struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSet creates a Redis-backed set whose keys live under prefix
func NewRedisSet(client *redis.Client, prefix string, ttl time.Duration) *RedisSet {
	return &RedisSet{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisSet) Acquire(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+key, 1, r.ttl).Result()
}

func (r *RedisSet) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
