package viz

import (
	"fmt"
	"strings"

	"github.com/fibertree/fibertree/internal/fiber"
	"github.com/fibertree/fibertree/internal/tree"
)

// Dot renders the tree as a Graphviz digraph. Node fill encodes win
// rate: red below 0.4, yellow up to 0.6, green above. maxDepth <= 0
// renders the whole tree.
func Dot(t *tree.Tree, maxDepth int) (string, error) {
	var b strings.Builder
	b.WriteString("digraph fibertree {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled];\n")

	root, err := t.Root()
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "  %q [label=\"root\\nvisits: %d\", fillcolor=lightgray];\n",
		root.ID, root.Stats.Visits)

	if err := dotChildren(t, &b, root, 1, maxDepth); err != nil {
		return "", err
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func dotChildren(t *tree.Tree, b *strings.Builder, parent *fiber.Fiber, depth, maxDepth int) error {
	if maxDepth > 0 && depth > maxDepth {
		return nil
	}
	children, err := t.Children(parent.ID)
	if err != nil {
		return err
	}
	sortByVisits(children)

	for _, c := range children {
		fmt.Fprintf(b, "  %q [label=\"%s\\nvisits: %d\\nwin: %.2f\", fillcolor=%s];\n",
			c.ID, escapeLabel(c.Move.String()), c.Stats.Visits, c.WinRate(), fillFor(c))
		fmt.Fprintf(b, "  %q -> %q;\n", parent.ID, c.ID)
		if err := dotChildren(t, b, c, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

func fillFor(f *fiber.Fiber) string {
	switch wr := f.WinRate(); {
	case f.Stats.Visits == 0:
		return "white"
	case wr < 0.4:
		return "lightcoral"
	case wr <= 0.6:
		return "khaki"
	default:
		return "palegreen"
	}
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
