// Package gateway composes the durable kv byte store with the TTL cache and
// owns (de)serialization. Corruption and backend failures never escape as
// errors: reads fall back, writes report a boolean.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"laundrycore/internal/cache"
	kvcore "laundrycore/internal/infra/kv/core"
)

// DefaultCacheTTL applies when options leave the TTL unset.
const DefaultCacheTTL = 5 * time.Minute

// PersistenceError wraps a durable read/write failure or parse corruption.
// It is reported to the error hook, never returned to callers.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Key, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// Gateway is the single point through which collections reach durable
// storage.
type Gateway struct {
	kv      kvcore.Store
	cache   *cache.Store
	onError func(PersistenceError)
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithErrorHook installs a hook invoked with every swallowed failure, so the
// engine can log what the contract hides.
func WithErrorHook(hook func(PersistenceError)) Option {
	return func(g *Gateway) { g.onError = hook }
}

// New constructs a gateway over the given backend and cache. A nil cache
// disables caching entirely.
func New(store kvcore.Store, c *cache.Store, opts ...Option) *Gateway {
	g := &Gateway{kv: store, cache: c, onError: func(PersistenceError) {}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Cache exposes the cache for invalidation by callers that bypass the
// gateway in tests.
func (g *Gateway) Cache() *cache.Store { return g.cache }

func (g *Gateway) report(op, key string, err error) {
	g.onError(PersistenceError{Op: op, Key: key, Err: err})
}

// GetOptions controls a typed read.
type GetOptions[T any] struct {
	// Fallback is returned on any miss, read failure, or parse failure.
	Fallback T
	// SkipCache bypasses the cache for this read.
	SkipCache bool
	// CacheTTL overrides DefaultCacheTTL when re-warming the cache.
	CacheTTL time.Duration
	// Normalize runs on every successfully decoded value before it is
	// cached or returned; used for date reconstruction and field backfill.
	Normalize func(*T)
}

// SetOptions controls a typed write.
type SetOptions struct {
	// SkipCache leaves the cache untouched after a successful write.
	SkipCache bool
	// CacheTTL overrides DefaultCacheTTL when mirroring into the cache.
	CacheTTL time.Duration
}

func ttlOr(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultCacheTTL
	}
	return d
}

// GetItem reads key through the cache, falling back to the durable store and
// re-warming the cache on a hit. Every failure path yields opts.Fallback.
func GetItem[T any](ctx context.Context, g *Gateway, key string, opts GetOptions[T]) T {
	if g.cache != nil && !opts.SkipCache {
		if v, ok := g.cache.Lookup(key); ok {
			if typed, ok := v.(T); ok {
				return typed
			}
			// A foreign type under our key means the cache was poisoned;
			// drop it and fall through to durable storage.
			g.cache.Invalidate(key)
		}
	}
	raw, found, err := g.kv.Get(ctx, key)
	if err != nil {
		g.report("read", key, err)
		return opts.Fallback
	}
	if !found {
		return opts.Fallback
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		g.report("decode", key, err)
		return opts.Fallback
	}
	if opts.Normalize != nil {
		opts.Normalize(&value)
	}
	if g.cache != nil && !opts.SkipCache {
		g.cache.Set(key, value, ttlOr(opts.CacheTTL))
	}
	return value
}

// SetItem serializes value, writes it durably, then mirrors it into the
// cache. It returns false on any failure; callers check the boolean, nothing
// is thrown.
func SetItem[T any](ctx context.Context, g *Gateway, key string, value T, opts SetOptions) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		g.report("encode", key, err)
		return false
	}
	if err := g.kv.Set(ctx, key, raw); err != nil {
		g.report("write", key, err)
		return false
	}
	if g.cache != nil && !opts.SkipCache {
		g.cache.Set(key, value, ttlOr(opts.CacheTTL))
	}
	return true
}

// Invalidate drops any cached value for key.
func (g *Gateway) Invalidate(key string) {
	if g.cache != nil {
		g.cache.Invalidate(key)
	}
}
