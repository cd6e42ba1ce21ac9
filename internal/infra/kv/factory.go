package kv

import (
	"context"
	"fmt"
	"os"

	kvfs "laundrycore/internal/infra/kv/fs"
	kvmem "laundrycore/internal/infra/kv/memory"
	kvpg "laundrycore/internal/infra/kv/postgres"
	kvs3 "laundrycore/internal/infra/kv/s3"
	kvsqlite "laundrycore/internal/infra/kv/sqlite"
)

// Open selects a Store implementation using environment variables.
//
//	LAUNDRYCORE_KV_DRIVER: memory|fs|sqlite|postgres|s3 (default fs)
//	LAUNDRYCORE_KV_FS_ROOT: directory root when driver=fs (default ./laundrydata)
//	LAUNDRYCORE_SQLITE_PATH: path to sqlite file (default ./laundrycore.db)
//	LAUNDRYCORE_POSTGRES_DSN: postgres DSN when driver=postgres
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("LAUNDRYCORE_KV_DRIVER")
	if driver == "" {
		driver = string(DriverFS)
	}
	switch Driver(driver) {
	case DriverMemory:
		return kvmem.New(), nil
	case DriverFS:
		return kvfs.New(os.Getenv("LAUNDRYCORE_KV_FS_ROOT"))
	case DriverSQLite:
		return kvsqlite.New(os.Getenv("LAUNDRYCORE_SQLITE_PATH"))
	case DriverPostgres:
		return kvpg.New(ctx, os.Getenv("LAUNDRYCORE_POSTGRES_DSN"))
	case DriverS3:
		return kvs3.OpenFromEnv(ctx)
	default:
		return nil, fmt.Errorf("unknown kv driver %s", driver)
	}
}
