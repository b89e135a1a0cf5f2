package credentials

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPutGet(t *testing.T) {
	c := New()
	c.Put("u1", "secret1")

	pw, ok := c.Get("u1")
	assert.True(t, ok)
	assert.Equal(t, "secret1", pw)

	_, ok = c.Get("u2")
	assert.False(t, ok)
}

func TestTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	c := New(WithTTL(time.Hour), WithClock(func() time.Time { return now }))
	c.Put("u1", "secret1")

	now = now.Add(59 * time.Minute)
	_, ok := c.Get("u1")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("u1")
	assert.False(t, ok)
}

func TestExpiredReadKeepsFreshPut(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	var c *Cache
	reads := 0
	c = New(WithTTL(time.Hour), WithClock(func() time.Time {
		reads++
		// Get reads the clock between releasing the read lock and taking
		// the write lock; a Put lands in that gap.
		if reads == 1 {
			c.entries["u1"] = entry{password: "fresh", expiresAt: now.Add(time.Hour)}
		}
		return now
	}))
	c.entries["u1"] = entry{password: "stale", expiresAt: now.Add(-time.Minute)}

	_, ok := c.Get("u1")
	assert.False(t, ok)

	pw, ok := c.Get("u1")
	assert.True(t, ok)
	assert.Equal(t, "fresh", pw)
}

func TestDisabled(t *testing.T) {
	c := New(Disabled())
	c.Put("u1", "secret1")
	_, ok := c.Get("u1")
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("u%d", i)
			c.Put(id, "pw")
			_, _ = c.Get(id)
		}(i)
	}
	wg.Wait()
	for i := 0; i < 50; i++ {
		_, ok := c.Get(fmt.Sprintf("u%d", i))
		assert.True(t, ok)
	}
}
