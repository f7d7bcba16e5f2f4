package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c := New[int](10*time.Second, 0)
	c.now = func() time.Time { return now }

	c.Set("k", 42)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	now = now.Add(11 * time.Second)

	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_SweepsExpiredBeforeGrowing(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c := New[string](10*time.Second, 2)
	c.now = func() time.Time { return now }

	c.Set("a", "x")
	c.Set("b", "y")

	now = now.Add(11 * time.Second)
	c.Set("c", "z")

	assert.Equal(t, 1, c.Len())
	_, ok := c.m["a"]
	assert.False(t, ok)
	_, ok = c.m["b"]
	assert.False(t, ok)

	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "z", v)
}

func TestCache_BoundEvictsOldest(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c := New[int](time.Minute, 2)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(time.Second)
	c.Set("b", 2)
	now = now.Add(time.Second)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)

	// overwriting an existing key never evicts
	c.Set("c", 4)
	assert.Equal(t, 2, c.Len())
}
