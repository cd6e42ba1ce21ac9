// Package core defines the contract shared by the kv drivers: the opaque
// durable key-value byte store the persistence gateway writes through. Keys
// are opaque strings, values are raw bytes; the gateway owns serialization.
package core

import (
	"context"
	"errors"
)

// Driver identifies a concrete durable backend implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverFS       Driver = "fs"       // local filesystem (default, dev)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
	DriverS3       Driver = "s3"       // S3 / MinIO compatible
)

// Store is the minimal surface a durable backend must provide. Set overwrites
// unconditionally; Get reports presence rather than returning a typed
// not-found error so callers can fall back without classification.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Driver() Driver
}

// Closer is implemented by backends holding external resources.
type Closer interface {
	Close() error
}

// ErrClosed is returned by backends after Close.
var ErrClosed = errors.New("kv: store closed")
