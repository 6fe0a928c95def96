// Package viz renders trees for humans. Renderers consume only the
// engine's read API (enumeration, FindPath, children accessors) and hold
// no state of their own.
package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fibertree/fibertree/internal/fiber"
	"github.com/fibertree/fibertree/internal/tree"
)

// Text renders the tree as an indented outline, one node per line with
// its visit count and win rate. maxDepth <= 0 renders the whole tree.
func Text(t *tree.Tree, maxDepth int) (string, error) {
	var b strings.Builder

	root, err := t.Root()
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "Root (visits: %d)\n", root.Stats.Visits)

	if err := textChildren(t, &b, root, 1, maxDepth); err != nil {
		return "", err
	}
	return b.String(), nil
}

func textChildren(t *tree.Tree, b *strings.Builder, parent *fiber.Fiber, depth, maxDepth int) error {
	if maxDepth > 0 && depth > maxDepth {
		return nil
	}
	children, err := t.Children(parent.ID)
	if err != nil {
		return err
	}
	sortByVisits(children)

	indent := strings.Repeat("  ", depth)
	for _, c := range children {
		fmt.Fprintf(b, "%s%s (visits: %d, win rate: %.2f)\n",
			indent, c.Move, c.Stats.Visits, c.WinRate())
		if err := textChildren(t, b, c, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

func sortByVisits(fibers []*fiber.Fiber) {
	sort.Slice(fibers, func(i, j int) bool {
		if fibers[i].Stats.Visits != fibers[j].Stats.Visits {
			return fibers[i].Stats.Visits > fibers[j].Stats.Visits
		}
		// Stable display order between equally visited siblings
		return fibers[i].Move.String() < fibers[j].Move.String()
	})
}
