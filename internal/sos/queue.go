package sos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/foxxcyber/trail-guide/internal/models"
)

// QueueKey is the storage key holding the pending alert list
const QueueKey = "@trailguide/pending_sos_alerts"

// ErrNotFound is returned by a Store when the key holds nothing
var ErrNotFound = errors.New("key not found")

// Store persists one JSON document per key
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// AlertWriter records an alert remotely
type AlertWriter interface {
	CreateAlert(ctx context.Context, req *models.CreateAlertRequest) (*models.Alert, error)
}

// FlushResult reports how much of the queue a flush delivered
type FlushResult struct {
	Sent      int `json:"sent"`
	Remaining int `json:"remaining"`
}

// Queue is the offline SOS alert queue. Appends serialize against the read
// and clear windows of a flush, and concurrent flushes share one run, so an
// alert appended mid-flush stays queued for the next one.
type Queue struct {
	store Store
	key   string
	now   func() time.Time

	mu    sync.Mutex
	group singleflight.Group
}

func NewQueue(store Store) *Queue {
	return &Queue{store: store, key: QueueKey, now: time.Now}
}

func (q *Queue) load(ctx context.Context) ([]models.Alert, error) {
	data, err := q.store.Load(ctx, q.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var alerts []models.Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	return alerts, nil
}

func (q *Queue) save(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return q.store.Delete(ctx, q.key)
	}
	data, err := json.Marshal(alerts)
	if err != nil {
		return err
	}
	return q.store.Save(ctx, q.key, data)
}

// Append queues an alert with status pending. A missing ID or timestamp is
// filled in so the server can recognise the alert if it is flushed twice.
func (q *Queue) Append(ctx context.Context, alert models.Alert) (models.Alert, error) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = q.now().UTC()
	}
	alert.Status = models.AlertPending

	q.mu.Lock()
	defer q.mu.Unlock()

	alerts, err := q.load(ctx)
	if err != nil {
		return alert, err
	}
	if err := q.save(ctx, append(alerts, alert)); err != nil {
		return alert, fmt.Errorf("save queue: %w", err)
	}
	return alert, nil
}

// Pending returns the queued alerts, oldest first
func (q *Queue) Pending(ctx context.Context) ([]models.Alert, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

// Flush writes every queued alert with status sent and removes the ones that
// were written. Delivery stops at the first failure, leaving that alert and
// everything after it queued. Concurrent calls share the in-progress flush.
func (q *Queue) Flush(ctx context.Context, w AlertWriter) (FlushResult, error) {
	v, err, _ := q.group.Do(q.key, func() (interface{}, error) {
		return q.flush(ctx, w)
	})
	res, _ := v.(FlushResult)
	return res, err
}

func (q *Queue) flush(ctx context.Context, w AlertWriter) (FlushResult, error) {
	q.mu.Lock()
	snapshot, err := q.load(ctx)
	q.mu.Unlock()
	if err != nil || len(snapshot) == 0 {
		return FlushResult{}, err
	}

	sent := 0
	var sendErr error
	for i := range snapshot {
		if _, err := w.CreateAlert(ctx, sentRequest(snapshot[i])); err != nil {
			sendErr = fmt.Errorf("flush alert %s: %w", snapshot[i].ID, err)
			break
		}
		sent++
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	current, err := q.load(ctx)
	if err != nil {
		return FlushResult{Sent: sent}, err
	}
	remaining := dropSent(current, snapshot[:sent])
	if sent > 0 {
		if err := q.save(ctx, remaining); err != nil {
			return FlushResult{Sent: sent, Remaining: len(current)}, fmt.Errorf("save queue: %w", err)
		}
	}
	return FlushResult{Sent: sent, Remaining: len(remaining)}, sendErr
}

// dropSent removes the delivered alerts from the current queue by ID
func dropSent(current, delivered []models.Alert) []models.Alert {
	if len(delivered) == 0 {
		return current
	}
	done := make(map[string]struct{}, len(delivered))
	for _, a := range delivered {
		done[a.ID] = struct{}{}
	}
	kept := current[:0:0]
	for _, a := range current {
		if _, ok := done[a.ID]; !ok {
			kept = append(kept, a)
		}
	}
	return kept
}

func sentRequest(a models.Alert) *models.CreateAlertRequest {
	createdAt := a.CreatedAt
	return &models.CreateAlertRequest{
		ID:        a.ID,
		TrailID:   a.TrailID,
		TrailName: a.TrailName,
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		Message:   a.Message,
		Status:    models.AlertSent,
		CreatedAt: &createdAt,
	}
}
