// Package credentials remembers the plaintext passwords managers set for new
// employees so they can be looked up again from the employee list.
//
// This is a convenience for small teams, not a security practice: entries
// live only in process memory, are never persisted and vanish on restart.
package credentials

import (
	"sync"
	"time"
)

type entry struct {
	password  string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Cache is safe for concurrent use. A zero TTL keeps entries until restart.
// A disabled cache stores nothing.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Disabled turns Put into a no-op; passwords are then shown only once.
func Disabled() Option {
	return func(c *Cache) { c.enabled = false }
}

func New(opts ...Option) *Cache {
	c := &Cache{entries: map[string]entry{}, enabled: true, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Put(userID, password string) {
	if !c.enabled {
		return
	}
	e := entry{password: password}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[userID] = e
	c.mu.Unlock()
}

func (c *Cache) Get(userID string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	now := c.now()
	if e.expired(now) {
		c.mu.Lock()
		// A Put may have replaced the entry since the read lock was released.
		if cur, ok := c.entries[userID]; ok && cur.expired(now) {
			delete(c.entries, userID)
		}
		c.mu.Unlock()
		return "", false
	}
	return e.password, true
}
