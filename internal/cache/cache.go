// Package cache shares recent scan payloads between callers.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"token-radar/internal/observability"
)

// DefaultTTL is how long a payload is served before regeneration.
const DefaultTTL = 15 * time.Second

// ErrMiss is returned by backends when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Entry is one cached payload.
type Entry struct {
	Key       string    `json:"key"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

// Backend stores entries with a time-to-live.
type Backend interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, entry Entry, ttl time.Duration) error
}

// Loader produces a fresh payload on a miss.
type Loader func(ctx context.Context) ([]byte, error)

// Cache is a TTL cache with one in-flight load per key.
type Cache struct {
	backend Backend
	ttl     time.Duration
	group   singleflight.Group
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a Cache. A nil backend uses an in-memory backend.
func New(backend Backend, ttl time.Duration, logger *zap.Logger) *Cache {
	if backend == nil {
		backend = NewMemoryBackend(nil)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		backend: backend,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the payload stored under key. Backend errors count as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, err := c.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return entry.Payload, true
}

// Put stores payload under key for the configured TTL.
func (c *Cache) Put(ctx context.Context, key string, payload []byte) error {
	entry := Entry{Key: key, Payload: payload, CreatedAt: c.now().UTC()}
	if err := c.backend.Set(ctx, entry, c.ttl); err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	return nil
}

// GetOrLoad returns the cached payload or runs load once for all
// concurrent callers of the same key. The load survives cancellation of
// the caller that started it so its result is still cached. hit reports
// whether the payload came from the cache.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load Loader) (payload []byte, hit bool, err error) {
	if payload, ok := c.Get(ctx, key); ok {
		observability.RecordCacheLookup("hit")
		return payload, true, nil
	}
	observability.RecordCacheLookup("miss")

	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)

		// A concurrent caller may have filled the key while we queued.
		if payload, ok := c.Get(loadCtx, key); ok {
			return payload, nil
		}

		payload, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := c.Put(loadCtx, key, payload); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]byte), false, nil
	}
}
