// Package tree implements the prefix-tree engine: path-building
// sessions, root-to-leaf statistics propagation, structural merge and
// pruning, and the read-only analytical queries built on traversal.
package tree

import (
	"fmt"

	"github.com/fibertree/fibertree/internal/fiber"
	"github.com/fibertree/fibertree/internal/storage"
)

// Tree owns the root fiber and the path-building session state. All
// node resolution goes through the configured storage backend, so a
// Tree is as durable as the backend behind it. A Tree assumes a single
// logical writer; concurrent mutation must be serialized by the caller.
type Tree struct {
	store storage.Backend

	// Session state: Idle (building == false) or Building.
	building bool
	cursorID string
	path     []fiber.Move

	// Last committed path, so an outcome can be re-recorded after the
	// session returns to Idle.
	lastPath []fiber.Move
}

// New creates a Tree over the given backend, bootstrapping the root
// fiber if the backend does not hold one yet.
func New(store storage.Backend) (*Tree, error) {
	t := &Tree{store: store, cursorID: fiber.RootID}
	if _, err := store.Get(fiber.RootID); err != nil {
		if err := store.Put(fiber.RootID, fiber.NewRoot()); err != nil {
			return nil, fmt.Errorf("bootstrap root: %w", err)
		}
	}
	return t, nil
}

// Root returns the root fiber.
func (t *Tree) Root() (*fiber.Fiber, error) {
	return t.store.Get(fiber.RootID)
}

// Get returns the fiber with the given id.
func (t *Tree) Get(id string) (*fiber.Fiber, error) {
	return t.store.Get(id)
}

// Size returns the number of live fibers, root included.
func (t *Tree) Size() (int, error) {
	return t.store.Count()
}

// All enumerates every live (id, fiber) pair. Together with FindPath and
// the depth/children accessors this is the full collaborator-facing read
// surface; renderers never touch storage directly.
func (t *Tree) All(fn func(id string, f *fiber.Fiber) error) error {
	return t.store.All(fn)
}

// StartPath begins a path-building session, resetting the cursor to the
// root. Starting while already Building discards the in-progress path.
func (t *Tree) StartPath() {
	t.building = true
	t.cursorID = fiber.RootID
	t.path = nil
}

// AddMove advances the session cursor along the given move, creating the
// child fiber if the edge does not exist yet. Valid only while Building.
func (t *Tree) AddMove(m fiber.Move) error {
	if !t.building {
		return fmt.Errorf("add move: %w", fiber.ErrSessionState)
	}
	child, err := t.resolveChild(t.cursorID, m)
	if err != nil {
		return err
	}
	t.cursorID = child.ID
	t.path = append(t.path, m)
	return nil
}

// AddMoves applies AddMove for each move in order.
func (t *Tree) AddMoves(moves []fiber.Move) error {
	for _, m := range moves {
		if err := t.AddMove(m); err != nil {
			return err
		}
	}
	return nil
}

// CurrentPath returns a copy of the moves accumulated in this session.
func (t *Tree) CurrentPath() []fiber.Move {
	out := make([]fiber.Move, len(t.path))
	copy(out, t.path)
	return out
}

// RecordOutcome commits an outcome for the session's path, incrementing
// visits and the matching outcome counter on every node from the root to
// the cursor inclusive. Outcomes outside win/loss/draw count toward
// visits only. After EndPath the last committed path can be re-recorded.
func (t *Tree) RecordOutcome(outcome string, visits uint64) error {
	path := t.path
	if !t.building {
		if t.lastPath == nil {
			return fmt.Errorf("record outcome: %w", fiber.ErrSessionState)
		}
		path = t.lastPath
	}
	if err := t.propagate(path, outcome, visits); err != nil {
		return err
	}
	t.lastPath = append([]fiber.Move(nil), path...)
	return nil
}

// EndPath returns the session to Idle. Statistics are untouched; an
// outcome must be recorded before ending or the path's occurrence is
// not counted.
func (t *Tree) EndPath() {
	t.building = false
	t.cursorID = fiber.RootID
	t.path = nil
}

// SimulatePath is the session-free equivalent of StartPath, AddMoves,
// RecordOutcome, EndPath. Used for bulk seeding; it applies the same
// get-or-create and propagation rules.
func (t *Tree) SimulatePath(path []fiber.Move, outcome string, visits uint64) error {
	if _, err := t.AddPath(path); err != nil {
		return err
	}
	return t.propagate(path, outcome, visits)
}

// AddPath builds (or extends) the given path without touching any
// statistics, returning the terminal fiber id.
func (t *Tree) AddPath(path []fiber.Move) (string, error) {
	cur := fiber.RootID
	for _, m := range path {
		child, err := t.resolveChild(cur, m)
		if err != nil {
			return "", err
		}
		cur = child.ID
	}
	return cur, nil
}

// FindPath walks from the root following the given moves and returns the
// terminal fiber id. Pure read: nothing is created. A missing edge
// yields fiber.ErrPathNotFound.
func (t *Tree) FindPath(path []fiber.Move) (string, error) {
	cur, err := t.Root()
	if err != nil {
		return "", err
	}
	for _, m := range path {
		key, err := m.Key()
		if err != nil {
			return "", err
		}
		childID, ok := cur.ChildID(key)
		if !ok {
			return "", fmt.Errorf("find path at %s: %w", m, fiber.ErrPathNotFound)
		}
		if cur, err = t.store.Get(childID); err != nil {
			return "", err
		}
	}
	return cur.ID, nil
}

// Children returns the direct child fibers of the given node.
func (t *Tree) Children(id string) ([]*fiber.Fiber, error) {
	f, err := t.store.Get(id)
	if err != nil {
		return nil, err
	}
	out := make([]*fiber.Fiber, 0, len(f.Children))
	for _, childID := range f.Children {
		child, err := t.store.Get(childID)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// Depth returns the number of edges between the root and the given node.
func (t *Tree) Depth(id string) (int, error) {
	depth := 0
	for id != fiber.RootID {
		f, err := t.store.Get(id)
		if err != nil {
			return 0, err
		}
		id = f.ParentID
		depth++
	}
	return depth, nil
}

// PathTo reconstructs the move sequence that reaches the given node by
// following parent back-references up to the root.
func (t *Tree) PathTo(id string) ([]fiber.Move, error) {
	var rev []fiber.Move
	for id != fiber.RootID {
		f, err := t.store.Get(id)
		if err != nil {
			return nil, err
		}
		if f.Move == nil {
			return nil, fmt.Errorf("fiber %s has no move: %w", id, fiber.ErrSerialization)
		}
		rev = append(rev, *f.Move)
		id = f.ParentID
	}
	// Reverse into root-first order
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev, nil
}

// resolveChild returns the child of parentID along move m, creating and
// linking a fresh zero-visit fiber if the edge is absent.
func (t *Tree) resolveChild(parentID string, m fiber.Move) (*fiber.Fiber, error) {
	key, err := m.Key()
	if err != nil {
		return nil, err
	}
	parent, err := t.store.Get(parentID)
	if err != nil {
		return nil, err
	}
	if childID, ok := parent.ChildID(key); ok {
		return t.store.Get(childID)
	}

	child := fiber.New(m, parentID)
	if err := t.store.Put(child.ID, child); err != nil {
		return nil, err
	}
	parent.Children[key] = child.ID
	if err := t.store.Put(parent.ID, parent); err != nil {
		return nil, err
	}
	return child, nil
}

// propagate applies the outcome to every node on the path, root first.
// The path must already exist. Not atomic across nodes: a failure leaves
// earlier nodes updated.
func (t *Tree) propagate(path []fiber.Move, outcome string, visits uint64) error {
	ids := make([]string, 0, len(path)+1)
	ids = append(ids, fiber.RootID)

	cur, err := t.Root()
	if err != nil {
		return err
	}
	for _, m := range path {
		key, err := m.Key()
		if err != nil {
			return err
		}
		childID, ok := cur.ChildID(key)
		if !ok {
			return fmt.Errorf("propagate at %s: %w", m, fiber.ErrPathNotFound)
		}
		if cur, err = t.store.Get(childID); err != nil {
			return err
		}
		ids = append(ids, childID)
	}

	for _, id := range ids {
		f, err := t.store.Get(id)
		if err != nil {
			return err
		}
		f.Stats.Record(outcome, visits)
		if err := t.store.Put(id, f); err != nil {
			return err
		}
	}
	return nil
}

// walk traverses the tree breadth-first from the root, calling fn with
// each fiber, its depth, and the path that reaches it. Only nodes
// reachable from the root are visited.
func (t *Tree) walk(fn func(f *fiber.Fiber, depth int, path []fiber.Move) error) error {
	root, err := t.Root()
	if err != nil {
		return err
	}

	type item struct {
		f     *fiber.Fiber
		depth int
		path  []fiber.Move
	}
	queue := []item{{f: root}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if err := fn(cur.f, cur.depth, cur.path); err != nil {
			return err
		}
		for _, childID := range cur.f.Children {
			child, err := t.store.Get(childID)
			if err != nil {
				return err
			}
			childPath := cur.path
			if child.Move != nil {
				childPath = append(append([]fiber.Move(nil), cur.path...), *child.Move)
			}
			queue = append(queue, item{f: child, depth: cur.depth + 1, path: childPath})
		}
	}
	return nil
}
