package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTTL_Freshness(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTL[[]string](NewMemory[[]string](), 10*time.Minute, clock.Now)

	_, ok := c.Fresh(ctx)
	assert.False(t, ok)
	_, ok = c.Last(ctx)
	assert.False(t, ok)

	c.Put(ctx, []string{"a", "b"})

	v, ok := c.Fresh(ctx)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)

	clock.Advance(10 * time.Minute)
	_, ok = c.Fresh(ctx)
	assert.True(t, ok, "still fresh at exactly the TTL")

	clock.Advance(time.Second)
	_, ok = c.Fresh(ctx)
	assert.False(t, ok)

	v, ok = c.Last(ctx)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)

	c.Put(ctx, []string{"c"})
	v, ok = c.Fresh(ctx)
	assert.True(t, ok)
	assert.Equal(t, []string{"c"}, v)
}

type brokenStore struct{}

func (brokenStore) Load(context.Context) (Entry[int], bool, error) {
	return Entry[int]{}, false, errors.New("down")
}
func (brokenStore) Save(context.Context, Entry[int]) error { return errors.New("down") }

func TestTTL_StoreErrorsAreMisses(t *testing.T) {
	ctx := context.Background()
	c := NewTTL[int](brokenStore{}, time.Minute, nil)

	c.Put(ctx, 1)
	_, ok := c.Fresh(ctx)
	assert.False(t, ok)
	_, ok = c.Last(ctx)
	assert.False(t, ok)
}
