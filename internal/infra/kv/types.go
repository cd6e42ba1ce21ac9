// Package kv re-exports the durable key-value store abstractions for stable
// imports and provides the environment-driven driver factory.
package kv

import "laundrycore/internal/infra/kv/core"

type (
	// Driver identifies a kv backend driver.
	Driver = core.Driver
	// Store is the interface for durable key-value backends.
	Store = core.Store
	// Closer is implemented by backends holding external resources.
	Closer = core.Closer
)

const (
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
	// DriverFS is the local filesystem driver.
	DriverFS = core.DriverFS
	// DriverSQLite is the embedded sqlite driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the PostgreSQL driver.
	DriverPostgres = core.DriverPostgres
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
)

// ErrClosed indicates an operation on a closed backend.
var ErrClosed = core.ErrClosed
