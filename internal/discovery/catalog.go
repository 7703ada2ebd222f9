package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/foxxcyber/trail-guide/internal/models"
)

// ErrNotLoaded is returned when a view is requested before the first load
var ErrNotLoaded = errors.New("trail list not loaded")

// LoadFunc fetches the full trail list with derived ratings already applied
type LoadFunc func(ctx context.Context) ([]*models.Trail, error)

// Catalog holds one loaded trail list. Review aggregates are whatever they
// were at LoadedAt; callers check Stale and call Refresh to pick up new reviews.
type Catalog struct {
	load   LoadFunc
	maxAge time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	trails   []*models.Trail
	loadedAt time.Time
}

// NewCatalog creates a catalog. A zero maxAge means the list never goes stale.
func NewCatalog(load LoadFunc, maxAge time.Duration) *Catalog {
	return &Catalog{
		load:   load,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Refresh re-fetches the list and resets LoadedAt
func (c *Catalog) Refresh(ctx context.Context) error {
	trails, err := c.load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.trails = trails
	c.loadedAt = c.now()
	c.mu.Unlock()
	return nil
}

// LoadedAt returns when the list was last fetched (zero if never)
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Stale reports whether the list is older than the catalog's max age
func (c *Catalog) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loadedAt.IsZero() {
		return true
	}
	if c.maxAge <= 0 {
		return false
	}
	return c.now().Sub(c.loadedAt) > c.maxAge
}

// View runs the pipeline for f over the loaded list, refreshing first when stale
func (c *Catalog) View(ctx context.Context, f Filter) ([]*models.Trail, error) {
	if c.Stale() {
		if err := c.Refresh(ctx); err != nil {
			c.mu.RLock()
			loaded := !c.loadedAt.IsZero()
			c.mu.RUnlock()
			if !loaded {
				return nil, err
			}
		}
	}

	c.mu.RLock()
	trails := c.trails
	loaded := !c.loadedAt.IsZero()
	c.mu.RUnlock()

	if !loaded {
		return nil, ErrNotLoaded
	}
	return Apply(trails, f), nil
}

// Trails returns the loaded list in load order
func (c *Catalog) Trails() []*models.Trail {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*models.Trail(nil), c.trails...)
}
