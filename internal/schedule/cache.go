package schedule

import (
	"context"
	"errors"
	"sync"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
)

// Cache holds the last generated schedule per project for the lifetime of
// a session. Get reports ok=false when nothing is cached.
type Cache interface {
	Get(ctx context.Context, projectID int64) (model.ScheduleResult, bool, error)
	Put(ctx context.Context, projectID int64, res model.ScheduleResult) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[int64]model.ScheduleResult
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[int64]model.ScheduleResult{}}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, projectID int64) (model.ScheduleResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[projectID]
	return res, ok, nil
}

// Put implements Cache.
func (c *MemoryCache) Put(_ context.Context, projectID int64, res model.ScheduleResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[projectID] = res
	return nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[int64]model.ScheduleResult{}
}

// scheduleStore is the part of store.Store a StoreCache needs.
type scheduleStore interface {
	GetSchedule(ctx context.Context, projectID int64) (*model.ScheduleResult, error)
	PutSchedule(ctx context.Context, projectID int64, res model.ScheduleResult) error
}

// StoreCache is a Cache backed by the session-scoped SQLite store.
type StoreCache struct {
	s scheduleStore
}

// NewStoreCache wraps s.
func NewStoreCache(s scheduleStore) *StoreCache {
	return &StoreCache{s: s}
}

// Get implements Cache.
func (c *StoreCache) Get(ctx context.Context, projectID int64) (model.ScheduleResult, bool, error) {
	res, err := c.s.GetSchedule(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return model.ScheduleResult{}, false, nil
	}
	if err != nil {
		return model.ScheduleResult{}, false, err
	}
	return *res, true, nil
}

// Put implements Cache.
func (c *StoreCache) Put(ctx context.Context, projectID int64, res model.ScheduleResult) error {
	return c.s.PutSchedule(ctx, projectID, res)
}
