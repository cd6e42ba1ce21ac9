package engine

import (
	"context"

	"laundrycore/internal/cache"
	"laundrycore/internal/gateway"
	"laundrycore/internal/infra/kv"
	"laundrycore/internal/infra/persistence/kvstore"
	"laundrycore/internal/infra/persistence/memory"
	"laundrycore/pkg/domain"
)

// StorageDriver identifies a concrete key-value backend.
type StorageDriver = kv.Driver

const (
	StorageMemory   = kv.DriverMemory
	StorageFS       = kv.DriverFS
	StorageSQLite   = kv.DriverSQLite
	StoragePostgres = kv.DriverPostgres
	StorageS3       = kv.DriverS3
)

// OpenPersistentStore composes the full persistence stack from environment
// configuration: kv backend, TTL cache, gateway and the durable store with
// the default rules registered. Swallowed persistence failures surface
// through logger.
//
// Backend selection is documented on kv.Open (LAUNDRYCORE_KV_DRIVER and
// friends).
func OpenPersistentStore(ctx context.Context, logger Logger) (domain.PersistentStore, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	backend, err := kv.Open(ctx)
	if err != nil {
		return nil, err
	}

	gw := gateway.New(backend, cache.New(), gateway.WithErrorHook(func(perr gateway.PersistenceError) {
		logger.Error(ctx, "persistence failure",
			"op", perr.Op,
			"key", perr.Key,
			"error", perr.Err)
	}))

	engine := domain.NewRulesEngine()
	RegisterDefaultRules(engine)

	return kvstore.New(ctx, gw, engine, kvstore.WithCacheTTL(gateway.DefaultCacheTTL))
}

// NewMemoryStore builds a store with no durable backend, with the default
// rules registered. Intended for tests and ephemeral sessions.
func NewMemoryStore() *memory.Store {
	engine := domain.NewRulesEngine()
	RegisterDefaultRules(engine)
	return memory.NewStore(engine)
}
