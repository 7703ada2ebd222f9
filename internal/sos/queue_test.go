package sos

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/trail-guide/internal/models"
)

// fakeWriter records alerts. When gate is set each write waits on it.
type fakeWriter struct {
	mu      sync.Mutex
	written []*models.CreateAlertRequest
	calls   atomic.Int32
	failOn  string
	entered chan struct{}
	gate    chan struct{}
}

func (w *fakeWriter) CreateAlert(_ context.Context, req *models.CreateAlertRequest) (*models.Alert, error) {
	w.calls.Add(1)
	if w.entered != nil {
		w.entered <- struct{}{}
	}
	if w.gate != nil {
		<-w.gate
	}
	if req.ID == w.failOn {
		return nil, errors.New("connection reset")
	}
	w.mu.Lock()
	w.written = append(w.written, req)
	w.mu.Unlock()
	return &models.Alert{ID: req.ID, Message: req.Message, Status: req.Status, CreatedAt: *req.CreatedAt}, nil
}

func (w *fakeWriter) ids() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.written))
	for _, r := range w.written {
		ids = append(ids, r.ID)
	}
	return ids
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{"sqlite": sqlite, "redis": NewRedisStore(client)}
}

func TestQueueRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := NewQueue(store)

			queued, err := q.Append(ctx, models.Alert{Message: "help", Status: models.AlertSent})
			require.NoError(t, err)
			assert.NotEmpty(t, queued.ID)
			assert.False(t, queued.CreatedAt.IsZero())
			assert.Equal(t, models.AlertPending, queued.Status)

			pending, err := q.Pending(ctx)
			require.NoError(t, err)
			require.Len(t, pending, 1)
			assert.Equal(t, queued.ID, pending[0].ID)

			w := &fakeWriter{}
			res, err := q.Flush(ctx, w)
			require.NoError(t, err)
			assert.Equal(t, FlushResult{Sent: 1, Remaining: 0}, res)
			require.Len(t, w.written, 1)
			assert.Equal(t, models.AlertSent, w.written[0].Status)
			assert.Equal(t, queued.ID, w.written[0].ID)

			_, err = store.Load(ctx, QueueKey)
			assert.ErrorIs(t, err, ErrNotFound)

			pending, err = q.Pending(ctx)
			require.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}

func TestFlushEmptyQueue(t *testing.T) {
	q := NewQueue(stores(t)["redis"])
	w := &fakeWriter{}
	res, err := q.Flush(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, FlushResult{}, res)
	assert.Zero(t, w.calls.Load())
}

func TestFlushStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(stores(t)["sqlite"])
	for _, id := range []string{"a-1", "a-2", "a-3"} {
		_, err := q.Append(ctx, models.Alert{ID: id, Message: "help"})
		require.NoError(t, err)
	}

	w := &fakeWriter{failOn: "a-2"}
	res, err := q.Flush(ctx, w)
	require.Error(t, err)
	assert.Equal(t, FlushResult{Sent: 1, Remaining: 2}, res)
	assert.Equal(t, []string{"a-1"}, w.ids())

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a-2", pending[0].ID)
	assert.Equal(t, models.AlertPending, pending[0].Status)
}

func TestAppendDuringFlushIsKept(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(stores(t)["redis"])
	_, err := q.Append(ctx, models.Alert{ID: "first", Message: "help"})
	require.NoError(t, err)

	w := &fakeWriter{entered: make(chan struct{}, 1), gate: make(chan struct{})}
	done := make(chan FlushResult, 1)
	go func() {
		res, _ := q.Flush(ctx, w)
		done <- res
	}()

	<-w.entered
	_, err = q.Append(ctx, models.Alert{ID: "second", Message: "help again"})
	require.NoError(t, err)
	close(w.gate)

	select {
	case res := <-done:
		assert.Equal(t, FlushResult{Sent: 1, Remaining: 1}, res)
	case <-time.After(2 * time.Second):
		t.Fatal("flush did not finish")
	}

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "second", pending[0].ID)
}

func TestConcurrentFlushesShareOneRun(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(stores(t)["redis"])
	_, err := q.Append(ctx, models.Alert{ID: "only", Message: "help"})
	require.NoError(t, err)

	w := &fakeWriter{entered: make(chan struct{}, 1), gate: make(chan struct{})}

	var wg sync.WaitGroup
	results := make(chan FlushResult, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, _ := q.Flush(ctx, w)
		results <- res
	}()
	<-w.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		res, _ := q.Flush(ctx, w)
		results <- res
	}()
	// Let the second caller join the in-flight flush before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(w.gate)
	wg.Wait()
	close(results)

	sent := 0
	for res := range results {
		sent += res.Sent
	}
	assert.GreaterOrEqual(t, sent, 1)
	assert.Equal(t, int32(1), w.calls.Load())
}

// flakyStore fails the next failLoads Load calls with a read error
type flakyStore struct {
	Store
	failLoads int
}

func (s *flakyStore) Load(ctx context.Context, key string) ([]byte, error) {
	if s.failLoads > 0 {
		s.failLoads--
		return nil, errors.New("disk I/O error")
	}
	return s.Store.Load(ctx, key)
}

func TestAppendKeepsQueueWhenLoadFails(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: stores(t)["sqlite"]}
	q := NewQueue(store)
	for _, id := range []string{"a-1", "a-2", "a-3"} {
		_, err := q.Append(ctx, models.Alert{ID: id, Message: "help"})
		require.NoError(t, err)
	}

	store.failLoads = 1
	_, err := q.Append(ctx, models.Alert{ID: "a-4", Message: "help"})
	require.Error(t, err)

	store.failLoads = 1
	_, err = q.Pending(ctx)
	require.Error(t, err)

	store.failLoads = 1
	w := &fakeWriter{}
	_, err = q.Flush(ctx, w)
	require.Error(t, err)
	assert.Zero(t, w.calls.Load())

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "a-1", pending[0].ID)
	assert.Equal(t, "a-3", pending[2].ID)
}
