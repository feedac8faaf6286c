// Package cache holds small time-bounded snapshots shared across requests,
// such as the pool of meme posts.
package cache

import (
	"context"
	"sync"
	"time"

	"cryptodash/internal/logger"
)

type Entry[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store keeps the latest snapshot. Concurrent writers are not coordinated:
// the last Save wins.
type Store[T any] interface {
	Load(ctx context.Context) (Entry[T], bool, error)
	Save(ctx context.Context, e Entry[T]) error
}

type Memory[T any] struct {
	mu  sync.RWMutex
	e   Entry[T]
	set bool
}

func NewMemory[T any]() *Memory[T] { return &Memory[T]{} }

func (m *Memory[T]) Load(context.Context) (Entry[T], bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.e, m.set, nil
}

func (m *Memory[T]) Save(_ context.Context, e Entry[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.e, m.set = e, true
	return nil
}

// TTL decides freshness of a Store's snapshot with an injected clock.
type TTL[T any] struct {
	store Store[T]
	ttl   time.Duration
	now   func() time.Time
}

func NewTTL[T any](store Store[T], ttl time.Duration, now func() time.Time) *TTL[T] {
	if now == nil {
		now = time.Now
	}
	return &TTL[T]{store: store, ttl: ttl, now: now}
}

// Fresh returns the snapshot if it was fetched within the TTL.
func (c *TTL[T]) Fresh(ctx context.Context) (T, bool) {
	e, ok := c.load(ctx)
	if !ok || c.now().Sub(e.FetchedAt) > c.ttl {
		var zero T
		return zero, false
	}
	return e.Value, true
}

// Last returns the snapshot regardless of age.
func (c *TTL[T]) Last(ctx context.Context) (T, bool) {
	e, ok := c.load(ctx)
	return e.Value, ok
}

func (c *TTL[T]) Put(ctx context.Context, v T) {
	if err := c.store.Save(ctx, Entry[T]{Value: v, FetchedAt: c.now()}); err != nil {
		logger.Warn("cache save failed", logger.ErrorField(err))
	}
}

func (c *TTL[T]) load(ctx context.Context) (Entry[T], bool) {
	e, ok, err := c.store.Load(ctx)
	if err != nil {
		logger.Warn("cache load failed", logger.ErrorField(err))
		return e, false
	}
	return e, ok
}
