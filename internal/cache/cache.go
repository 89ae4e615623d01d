// Package cache keeps rendered search pages in Redis. Entries are keyed by a
// generation counter; bumping the counter orphans every cached page at once.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinestream/internal/metrics"
)

const (
	keyPrefix     = "cinestream:search"
	generationKey = keyPrefix + ":generation"
)

// Connect dials Redis and verifies it answers PING.
func Connect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// backend is the part of the Redis API the cache uses. *redis.Client
// satisfies it.
type backend interface {
	Get(key string) *redis.StringCmd
	Set(key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(key string) *redis.IntCmd
}

// SearchCache is a read-through cache for search result pages. Failures are
// logged and reported as misses; callers always have the store to fall back on.
type SearchCache struct {
	conn   func(ctx context.Context) backend
	ttl    time.Duration
	logger zerolog.Logger
}

// NewSearchCache wraps an established client.
func NewSearchCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *SearchCache {
	return newSearchCache(func(ctx context.Context) backend {
		return client.WithContext(ctx)
	}, ttl, logger)
}

func newSearchCache(conn func(ctx context.Context) backend, ttl time.Duration, logger zerolog.Logger) *SearchCache {
	return &SearchCache{
		conn:   conn,
		ttl:    ttl,
		logger: logger.With().Str("component", "search_cache").Logger(),
	}
}

// Lookup returns the cached payload for a search page. On a miss, key names
// the slot for that page under the generation read here; passing it to Store
// keeps a page computed before an Invalidate out of the newer generation.
// key is empty when the generation could not be read.
func (c *SearchCache) Lookup(ctx context.Context, query string, page, limit int) (payload []byte, key string, ok bool) {
	rc := c.conn(ctx)
	gen, err := rc.Get(generationKey).Int64()
	if err != nil && err != redis.Nil {
		c.fail(err, "read generation")
		return nil, "", false
	}
	key = Key(gen, query, page, limit)

	val, err := rc.Get(key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.fail(err, "get")
		}
		metrics.RecordCacheLookup(false)
		return nil, key, false
	}
	metrics.RecordCacheLookup(true)
	return val, key, true
}

// Store caches payload under a key returned by Lookup.
func (c *SearchCache) Store(ctx context.Context, key string, payload []byte) {
	if key == "" {
		return
	}
	if err := c.conn(ctx).Set(key, payload, c.ttl).Err(); err != nil {
		c.fail(err, "set")
	}
}

// Invalidate bumps the generation so earlier pages are never read again.
// They expire on their own TTL.
func (c *SearchCache) Invalidate(ctx context.Context) {
	if err := c.conn(ctx).Incr(generationKey).Err(); err != nil {
		c.fail(err, "bump generation")
	}
}

func (c *SearchCache) fail(err error, op string) {
	metrics.RecordCacheError()
	c.logger.Warn().Err(err).Str("op", op).Msg("search cache unavailable")
}

// Key formats the Redis key for one search page.
func Key(generation int64, query string, page, limit int) string {
	return strings.Join([]string{
		keyPrefix,
		strconv.FormatInt(generation, 10),
		strings.ToLower(query),
		strconv.Itoa(page),
		strconv.Itoa(limit),
	}, ":")
}

// Nop satisfies the same contract and never caches anything.
type Nop struct{}

func (Nop) Lookup(context.Context, string, int, int) ([]byte, string, bool) { return nil, "", false }

func (Nop) Store(context.Context, string, []byte) {}

func (Nop) Invalidate(context.Context) {}
