package tree

import (
	"github.com/fibertree/fibertree/internal/fiber"
)

// PruneOptions is the retention predicate for Prune. A node is removed
// when its visits fall below MinVisits, when its depth exceeds MaxDepth
// (if MaxDepth > 0), or when Predicate returns true for it.
type PruneOptions struct {
	MinVisits uint64
	MaxDepth  int
	Predicate func(*fiber.Fiber) bool
}

func (o PruneOptions) condemns(f *fiber.Fiber, depth int) bool {
	if f.Stats.Visits < o.MinVisits {
		return true
	}
	if o.MaxDepth > 0 && depth > o.MaxDepth {
		return true
	}
	return o.Predicate != nil && o.Predicate(f)
}

// Prune walks the tree pre-order and removes every node failing the
// retention predicate, cascading to the node's whole subtree without
// re-evaluating descendants: a removed prefix makes its extensions
// unreachable regardless of their own statistics. The root is never
// removed. Returns the total number of nodes removed, cascaded
// descendants included.
func (t *Tree) Prune(opts PruneOptions) (int, error) {
	root, err := t.Root()
	if err != nil {
		return 0, err
	}
	return t.pruneChildren(root, 1, opts)
}

func (t *Tree) pruneChildren(parent *fiber.Fiber, depth int, opts PruneOptions) (int, error) {
	removed := 0

	// Copy the child list first: removal mutates parent.Children.
	childIDs := make([]string, 0, len(parent.Children))
	for _, id := range parent.Children {
		childIDs = append(childIDs, id)
	}

	for _, id := range childIDs {
		child, err := t.store.Get(id)
		if err != nil {
			return removed, err
		}
		if opts.condemns(child, depth) {
			n, err := t.removeSubtree(child, parent)
			removed += n
			if err != nil {
				return removed, err
			}
			continue
		}
		n, err := t.pruneChildren(child, depth+1, opts)
		removed += n
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// removeSubtree deletes f and every descendant from storage and detaches
// f from its parent's child map.
func (t *Tree) removeSubtree(f, parent *fiber.Fiber) (int, error) {
	if f.Move != nil {
		key, err := f.Move.Key()
		if err != nil {
			return 0, err
		}
		delete(parent.Children, key)
		if err := t.store.Put(parent.ID, parent); err != nil {
			return 0, err
		}
	}

	removed := 0
	stack := []*fiber.Fiber{f}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, childID := range cur.Children {
			child, err := t.store.Get(childID)
			if err != nil {
				return removed, err
			}
			stack = append(stack, child)
		}
		if err := t.store.Delete(cur.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
