// Package kvstore provides the durable persistent store: the in-memory
// transactional mirror combined with whole-collection persistence through the
// gateway into an opaque key-value backend. Every successful transaction
// writes the four collection buckets back in full; the mirror commits only
// after the write succeeds.
package kvstore

import (
	"context"
	"fmt"
	"time"

	"laundrycore/internal/gateway"
	"laundrycore/internal/infra/persistence/memory"
	"laundrycore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// Persisted bucket keys, each mapping to a JSON-encoded collection.
const (
	BucketOrders    = "orders"
	BucketInventory = "inventory"
	BucketDrivers   = "drivers"
	BucketRoutes    = "routes"
)

// Store persists the in-memory state through a persistence gateway.
type Store struct {
	*memory.Store
	gw  *gateway.Gateway
	ttl time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithCacheTTL overrides the cache TTL used for bucket reads and writes.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// New constructs a durable store over the given gateway and hydrates the
// mirror from any previously persisted collections. The store is ready — all
// collections loaded — when New returns.
func New(ctx context.Context, gw *gateway.Gateway, engine *domain.RulesEngine, opts ...Option) (*Store, error) {
	mem := memory.NewStore(engine)
	s := &Store{Store: mem, gw: gw, ttl: gateway.DefaultCacheTTL}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	mem.SetPersistFunc(s.persist)
	return s, nil
}

// load hydrates the mirror from the durable buckets. Corrupt or missing
// buckets fall back to empty collections; normalization and backfill happen
// in ImportState.
func (s *Store) load(ctx context.Context) {
	now := time.Now().UTC()
	snapshot := memory.Snapshot{
		Orders: gateway.GetItem(ctx, s.gw, BucketOrders, gateway.GetOptions[map[string]domain.Order]{
			Fallback: map[string]domain.Order{},
			CacheTTL: s.ttl,
			Normalize: func(m *map[string]domain.Order) {
				for id, o := range *m {
					o.Normalize(now)
					(*m)[id] = o
				}
			},
		}),
		Inventory: gateway.GetItem(ctx, s.gw, BucketInventory, gateway.GetOptions[map[string]domain.InventoryItem]{
			Fallback: map[string]domain.InventoryItem{},
			CacheTTL: s.ttl,
			Normalize: func(m *map[string]domain.InventoryItem) {
				for id, i := range *m {
					i.Normalize(now)
					(*m)[id] = i
				}
			},
		}),
		Drivers: gateway.GetItem(ctx, s.gw, BucketDrivers, gateway.GetOptions[map[string]domain.Driver]{
			Fallback: map[string]domain.Driver{},
			CacheTTL: s.ttl,
			Normalize: func(m *map[string]domain.Driver) {
				for id, d := range *m {
					d.Normalize(now)
					(*m)[id] = d
				}
			},
		}),
		Routes: gateway.GetItem(ctx, s.gw, BucketRoutes, gateway.GetOptions[map[string]domain.DeliveryRoute]{
			Fallback: map[string]domain.DeliveryRoute{},
			CacheTTL: s.ttl,
			Normalize: func(m *map[string]domain.DeliveryRoute) {
				for id, r := range *m {
					r.Normalize(now)
					(*m)[id] = r
				}
			},
		}),
	}
	s.ImportState(snapshot)
}

// persist writes every bucket back in full. Whole-collection writes keep the
// durable copy free of partial-collection corruption at the cost of O(n) per
// mutation, which is acceptable for a local medium and small n.
func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) error {
	opts := gateway.SetOptions{CacheTTL: s.ttl}
	if !gateway.SetItem(ctx, s.gw, BucketOrders, snapshot.Orders, opts) {
		return fmt.Errorf("persist bucket %s", BucketOrders)
	}
	if !gateway.SetItem(ctx, s.gw, BucketInventory, snapshot.Inventory, opts) {
		return fmt.Errorf("persist bucket %s", BucketInventory)
	}
	if !gateway.SetItem(ctx, s.gw, BucketDrivers, snapshot.Drivers, opts) {
		return fmt.Errorf("persist bucket %s", BucketDrivers)
	}
	if !gateway.SetItem(ctx, s.gw, BucketRoutes, snapshot.Routes, opts) {
		return fmt.Errorf("persist bucket %s", BucketRoutes)
	}
	return nil
}
