package storage

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/fibertree/fibertree/internal/fiber"
)

// Cache is a bounded read accelerator in front of another Backend. Writes
// are write-through: every Put reaches the inner backend before the cache
// is updated, so a failed backend write never leaves the cache ahead of
// durable state. Reads fill the cache on miss, counting as a use for
// recency ordering.
type Cache struct {
	inner Backend
	lru   *lru.Cache
}

// NewCache wraps inner with an LRU of at most size entries.
func NewCache(inner Backend, size int) (*Cache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Cache{inner: inner, lru: c}, nil
}

// Get returns a clone of the cached record so that in-place mutation by
// the caller cannot bypass the write-through path.
func (c *Cache) Get(id string) (*fiber.Fiber, error) {
	if v, ok := c.lru.Get(id); ok {
		return v.(*fiber.Fiber).Clone(), nil
	}
	f, err := c.inner.Get(id)
	if err != nil {
		return nil, err
	}
	c.lru.Add(id, f.Clone())
	return f, nil
}

func (c *Cache) Put(id string, f *fiber.Fiber) error {
	if err := c.inner.Put(id, f); err != nil {
		return err
	}
	c.lru.Add(id, f.Clone())
	return nil
}

func (c *Cache) Delete(id string) error {
	if err := c.inner.Delete(id); err != nil {
		return err
	}
	c.lru.Remove(id)
	return nil
}

// All enumerates the inner backend directly; the cache holds a subset of
// the same records, so the backend is the authoritative snapshot.
func (c *Cache) All(fn func(id string, f *fiber.Fiber) error) error {
	return c.inner.All(fn)
}

func (c *Cache) Count() (int, error) {
	return c.inner.Count()
}

func (c *Cache) Clear() error {
	if err := c.inner.Clear(); err != nil {
		return err
	}
	c.lru.Purge()
	return nil
}

func (c *Cache) Close() error {
	c.lru.Purge()
	return c.inner.Close()
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	return c.lru.Len()
}
