package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/trail-guide/internal/database"
	"github.com/foxxcyber/trail-guide/internal/inflight"
	"github.com/foxxcyber/trail-guide/internal/models"
)

// memoryFavorites is a FavoriteStore over a map. block, when set, is waited
// on inside IsFavorite so a test can hold a toggle open.
type memoryFavorites struct {
	mu      sync.Mutex
	rows    map[string]bool
	block   chan struct{}
	entered chan struct{}
}

func newMemoryFavorites() *memoryFavorites {
	return &memoryFavorites{rows: map[string]bool{}}
}

func (m *memoryFavorites) IsFavorite(_ context.Context, userID, trailID string) (bool, error) {
	if m.block != nil {
		m.entered <- struct{}{}
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[userID+"/"+trailID], nil
}

func (m *memoryFavorites) AddFavorite(_ context.Context, userID, trailID string) (*models.Favorite, error) {
	if trailID == "missing" {
		return nil, database.ErrTrailNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[userID+"/"+trailID] = true
	return &models.Favorite{UserID: userID, TrailID: trailID}, nil
}

func (m *memoryFavorites) RemoveFavorite(_ context.Context, userID, trailID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.rows[userID+"/"+trailID]
	delete(m.rows, userID+"/"+trailID)
	return had, nil
}

func (m *memoryFavorites) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func TestToggleAlternatesAndRestores(t *testing.T) {
	store := newMemoryFavorites()
	svc := NewFavoriteService(store, inflight.NewMemorySet())
	ctx := context.Background()

	first, err := svc.Toggle(ctx, "u-1", "t-1")
	require.NoError(t, err)
	assert.True(t, first.IsFavorite)
	assert.Equal(t, 1, store.count())

	second, err := svc.Toggle(ctx, "u-1", "t-1")
	require.NoError(t, err)
	assert.False(t, second.IsFavorite)
	assert.Equal(t, 0, store.count())
}

func TestToggleRejectsConcurrentSameKey(t *testing.T) {
	store := newMemoryFavorites()
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	set := inflight.NewMemorySet()
	svc := NewFavoriteService(store, set)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Toggle(context.Background(), "u-1", "t-1")
		done <- err
	}()
	<-store.entered

	_, err := svc.Toggle(context.Background(), "u-1", "t-1")
	assert.True(t, errors.Is(err, ErrToggleInFlight))

	close(store.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, store.count(), "only the first toggle should have written")
	assert.Equal(t, 0, set.Len())
}

func TestToggleUnknownTrailReleasesKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewFavoriteService(newMemoryFavorites(), inflight.NewRedisSet(rdb, "inflight:", 0))

	_, err := svc.Toggle(context.Background(), "u-1", "missing")
	assert.True(t, errors.Is(err, database.ErrTrailNotFound))
	assert.False(t, mr.Exists("inflight:"+FavoriteKey("u-1", "missing")))
}
