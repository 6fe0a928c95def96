package tree

import (
	"fmt"

	"github.com/fibertree/fibertree/internal/fiber"
)

// MergeStrategy selects how statistics are combined when a source path
// already exists in the destination tree.
type MergeStrategy string

const (
	// StatsSum adds source counters to destination counters pairwise.
	StatsSum MergeStrategy = "stats_sum"
	// KeepMax keeps whichever side has the larger visit count, wholesale.
	// Ties favor the destination.
	KeepMax MergeStrategy = "keep_max"
	// KeepCurrent leaves destination statistics untouched and only
	// imports the existence of new paths.
	KeepCurrent MergeStrategy = "keep_current"
)

// Merge walks src breadth-first and resolves every source path into this
// tree, creating missing nodes and combining statistics under the given
// strategy. Returns the number of source nodes matched or created on the
// destination side. The source tree is not modified.
func (t *Tree) Merge(src *Tree, strategy MergeStrategy) (int, error) {
	switch strategy {
	case StatsSum, KeepMax, KeepCurrent:
	default:
		return 0, fmt.Errorf("unknown merge strategy %q", strategy)
	}

	type item struct {
		srcID string
		dstID string
	}

	srcRoot, err := src.Root()
	if err != nil {
		return 0, fmt.Errorf("merge source root: %w", err)
	}
	// Root stats are aggregates of all paths; combine them like any
	// other matched node.
	dstRoot, err := t.Root()
	if err != nil {
		return 0, err
	}
	if err := t.combine(dstRoot, srcRoot, strategy); err != nil {
		return 0, err
	}

	// The root resolves to the destination root and counts as matched.
	merged := 1
	queue := []item{{srcID: srcRoot.ID, dstID: dstRoot.ID}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		srcFiber, err := src.Get(cur.srcID)
		if err != nil {
			return merged, err
		}
		for _, srcChildID := range srcFiber.Children {
			srcChild, err := src.Get(srcChildID)
			if err != nil {
				return merged, err
			}
			if srcChild.Move == nil {
				continue
			}
			dstChild, err := t.resolveChild(cur.dstID, *srcChild.Move)
			if err != nil {
				return merged, err
			}
			if err := t.combine(dstChild, srcChild, strategy); err != nil {
				return merged, err
			}
			merged++
			queue = append(queue, item{srcID: srcChild.ID, dstID: dstChild.ID})
		}
	}
	return merged, nil
}

func (t *Tree) combine(dst, src *fiber.Fiber, strategy MergeStrategy) error {
	before := dst.Stats
	switch strategy {
	case StatsSum:
		dst.Stats.Add(src.Stats)
	case KeepMax:
		if src.Stats.Visits > dst.Stats.Visits {
			dst.Stats = src.Stats
		}
	case KeepCurrent:
	}
	if dst.Stats == before {
		return nil
	}
	return t.store.Put(dst.ID, dst)
}
