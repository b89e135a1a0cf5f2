package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"task_tracker/internal/session"
	"task_tracker/pkg/logger"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	DefaultReplayTTL  = 24 * time.Hour
	idempotencyPrefix = "idempotency:"
)

// ResponseCache stores replayable responses by key.
type ResponseCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		logger.Logger.Error("Redis get error", zap.Error(err))
		return nil, false
	}
	return val, true
}

func (c *RedisCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Logger.Error("Redis set error", zap.Error(err))
	}
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is the in-process ResponseCache. Expired replays are dropped
// on lookup and by Sweep.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memoryEntry{}, now: time.Now}
}

func (c *MemoryCache) GetBytes(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
}

// Sweep removes every expired replay and reports how many were dropped.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

type bufferingRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *bufferingRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bufferingRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key. Keys are scoped to the caller's session user and route,
// so requests without a session or without the header are not cached.
func Idempotency(cache ResponseCache, ttl time.Duration) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultReplayTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			s := session.FromContext(r.Context())
			if key == "" || s == nil {
				next.ServeHTTP(w, r)
				return
			}
			cacheKey := idempotencyPrefix + s.UserID + ":" + r.Method + " " + r.URL.Path + ":" + key

			if raw, ok := cache.GetBytes(r.Context(), cacheKey); ok {
				var cached cachedResponse
				if err := json.Unmarshal(raw, &cached); err == nil {
					logger.Logger.Info("Returning cached response", zap.String("key", key))
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set(replayedHeader, "true")
					w.WriteHeader(cached.Status)
					_, _ = w.Write(cached.Body)
					return
				}
				logger.Logger.Error("Failed to decode cached response", zap.String("key", key))
			}

			rec := &bufferingRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status >= http.StatusOK && rec.status < http.StatusMultipleChoices {
				raw, err := json.Marshal(cachedResponse{Status: rec.status, Body: rec.body.Bytes()})
				if err != nil {
					logger.Logger.Error("Failed to encode response for replay", zap.Error(err))
					return
				}
				cache.SetBytes(r.Context(), cacheKey, raw, ttl)
			}
		})
	}
}
