package storage

import "github.com/fibertree/fibertree/internal/fiber"

// Memory is an unordered in-memory Backend with no eviction. Records are
// cloned on Put and Get, so a fiber mutated by the caller does not change
// until it is written back, same as a durable backend. The engine assumes
// a single logical writer, so no locking is done here.
type Memory struct {
	fibers map[string]*fiber.Fiber
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{fibers: make(map[string]*fiber.Fiber)}
}

func (m *Memory) Get(id string) (*fiber.Fiber, error) {
	f, ok := m.fibers[id]
	if !ok {
		return nil, fiber.ErrNotFound
	}
	return f.Clone(), nil
}

func (m *Memory) Put(id string, f *fiber.Fiber) error {
	m.fibers[id] = f.Clone()
	return nil
}

func (m *Memory) Delete(id string) error {
	delete(m.fibers, id)
	return nil
}

func (m *Memory) All(fn func(id string, f *fiber.Fiber) error) error {
	for id, f := range m.fibers {
		if err := fn(id, f); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) Count() (int, error) {
	return len(m.fibers), nil
}

func (m *Memory) Clear() error {
	m.fibers = make(map[string]*fiber.Fiber)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
