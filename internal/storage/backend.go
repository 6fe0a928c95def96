// Package storage provides the durable keyspace under the tree engine:
// a pluggable Backend contract mapping fiber ids to serialized records,
// an in-memory implementation, a SQLite-file implementation, and a
// write-through LRU cache that fronts either.
package storage

import "github.com/fibertree/fibertree/internal/fiber"

// Backend is the capability contract every store implements. Put followed
// by Get returns an equivalent fiber; Delete followed by Get returns
// fiber.ErrNotFound. All observes a consistent snapshot for a
// single-threaded caller; behavior under concurrent mutation is
// undefined and must be serialized by the caller.
type Backend interface {
	// Get returns the fiber stored under id, or fiber.ErrNotFound.
	Get(id string) (*fiber.Fiber, error)

	// Put stores the fiber under id, replacing any previous record.
	Put(id string, f *fiber.Fiber) error

	// Delete removes the record under id. Deleting an absent id is a no-op.
	Delete(id string) error

	// All calls fn for every stored (id, fiber) pair, stopping at the
	// first error, which it returns. Enumeration order is unspecified.
	All(fn func(id string, f *fiber.Fiber) error) error

	// Count returns the number of stored records.
	Count() (int, error)

	// Clear removes every record.
	Clear() error

	// Close releases any resources held by the backend.
	Close() error
}
