// Package cache memoizes scored query results in Redis. Concurrent misses
// for the same key are collapsed into one computation, and a circuit
// breaker stops lookups while Redis keeps failing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/resilience"
)

const keyPrefix = "textsearch:query:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, ttl time.Duration) *QueryCache {
	return &QueryCache{
		store: store,
		ttl:   ttl,
		breaker: resilience.NewCircuitBreaker("query-cache", resilience.BreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     10 * time.Second,
		}),
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached result for query and opts. Store and decode
// failures are logged and reported as misses.
func (c *QueryCache) Get(ctx context.Context, query string, opts indexer.SearchOptions) (indexer.SearchResult, bool) {
	key := BuildKey(query, opts)
	var (
		data  []byte
		found bool
	)
	err := c.breaker.Execute(func() error {
		var err error
		data, found, err = c.store.Get(ctx, key)
		return err
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache get failed", "key", key, "error", err)
	}
	if err != nil || !found {
		c.misses.Add(1)
		return indexer.SearchResult{}, false
	}
	var result indexer.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache decode failed", "key", key, "error", err)
		c.misses.Add(1)
		return indexer.SearchResult{}, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return result, true
}

func (c *QueryCache) Set(ctx context.Context, query string, opts indexer.SearchOptions, result indexer.SearchResult) {
	key := BuildKey(query, opts)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache encode failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or runs compute and caches its
// output. The boolean reports whether the result came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	opts indexer.SearchOptions,
	compute func() indexer.SearchResult,
) (indexer.SearchResult, bool) {
	if result, ok := c.Get(ctx, query, opts); ok {
		return result, true
	}
	v, _, _ := c.group.Do(BuildKey(query, opts), func() (any, error) {
		result := compute()
		c.Set(ctx, query, opts, result)
		return result, nil
	})
	return v.(indexer.SearchResult), false
}

// Invalidate drops every cached query result. It bypasses the breaker so
// an outage never hides a failed invalidation.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Debug("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BuildKey hashes the canonical form of a scored query. Field weights are
// ordered by name, and fuzzy distance only counts when fuzzy is on.
func BuildKey(query string, opts indexer.SearchOptions) string {
	var b strings.Builder
	b.WriteString(normalizeQuery(query))
	fmt.Fprintf(&b, "|limit=%d|offset=%d", opts.Limit, opts.Offset)
	for _, field := range slices.Sorted(maps.Keys(opts.FieldWeights)) {
		b.WriteString("|w:")
		b.WriteString(field)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(opts.FieldWeights[field], 'g', -1, 64))
	}
	if opts.Fuzzy {
		fmt.Fprintf(&b, "|fuzzy=%d", opts.MaxDistance)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return keyPrefix + hex.EncodeToString(sum[:16])
}

// normalizeQuery lower-cases and sorts the query words. Scored search
// treats the query as a set, so word order never changes the result.
func normalizeQuery(query string) string {
	words := strings.Fields(strings.ToLower(query))
	slices.Sort(words)
	return strings.Join(words, " ")
}
