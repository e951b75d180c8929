// Package database provides the store abstraction for the reconciliation
// service.
//
// The Database interface exposes three operations:
//   - Query: returns multiple results (candidate-set selects)
//   - QueryOne: returns a single result (lookups by id)
//   - Execute: no return value (updates, inserts)
//
// The store is assumed to support per-statement atomicity but not
// multi-statement transactions spanning a job's item loop. Jobs therefore
// guard against concurrent double-processing with conditional updates
// (WHERE status = $expected) rather than transactions.
//
// Standard errors are defined for common failure cases and checked with
// errors.Is:
//
//	if errors.Is(err, database.ErrDuplicate) {
//	    // unique-key violation, e.g. interest already accrued today
//	}
package database

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")

	// ErrStaleRow indicates a conditional update matched no row because the
	// expected status no longer holds. A concurrent run got there first.
	ErrStaleRow = errors.New("row changed since read")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure.
	ErrQuery = errors.New("query error")
)

// Database defines the interface for store operations.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns results
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns a single result
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database connection settings.
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}
