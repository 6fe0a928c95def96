package tree

import (
	"errors"
	"testing"

	"github.com/fibertree/fibertree/internal/fiber"
)

func TestPruneMinVisits(t *testing.T) {
	tr := memTree(t)
	for i := 0; i < 10; i++ {
		if err := tr.SimulatePath(moves(i, i+100), fiber.Win, uint64(i)); err != nil {
			t.Fatalf("SimulatePath: %v", err)
		}
	}

	before, _ := tr.Size()
	removed, err := tr.Prune(PruneOptions{MinVisits: 5})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	after, _ := tr.Size()

	if removed == 0 {
		t.Fatal("nothing pruned")
	}
	if after != before-removed {
		t.Errorf("size = %d, want %d - %d", after, before, removed)
	}

	// Every surviving non-root node satisfies the threshold
	err = tr.All(func(id string, f *fiber.Fiber) error {
		if !f.IsRoot() && f.Stats.Visits < 5 {
			t.Errorf("node %s survives with %d visits", id, f.Stats.Visits)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("All: %v", err)
	}
}

func TestPruneCascades(t *testing.T) {
	tr := memTree(t)

	// Child "a" is weak, grandchild "a/b" is strong: the cascade removes
	// it anyway, since its prefix is gone.
	if err := tr.SimulatePath(moves("a"), fiber.Win, 1); err != nil {
		t.Fatalf("SimulatePath: %v", err)
	}
	if err := tr.SimulatePath(moves("a", "b"), fiber.Win, 100); err != nil {
		t.Fatalf("SimulatePath: %v", err)
	}

	aID, _ := tr.FindPath(moves("a"))
	a, _ := tr.Get(aID)
	if a.Stats.Visits != 101 {
		t.Fatalf("setup: a visits = %d", a.Stats.Visits)
	}

	// Condemn "a" specifically, not by visits
	removed, err := tr.Prune(PruneOptions{Predicate: func(f *fiber.Fiber) bool {
		return f.ID == aID
	}})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2 (node and descendant)", removed)
	}

	if _, err := tr.FindPath(moves("a")); !errors.Is(err, fiber.ErrPathNotFound) {
		t.Errorf("pruned path still resolves: %v", err)
	}
	if _, err := tr.FindPath(moves("a", "b")); !errors.Is(err, fiber.ErrPathNotFound) {
		t.Errorf("descendant of pruned path still resolves: %v", err)
	}

	// Backend holds only the root now
	if n, _ := tr.Size(); n != 1 {
		t.Errorf("Size = %d, want 1", n)
	}
}

func TestPruneNeverRemovesRoot(t *testing.T) {
	tr := memTree(t)
	if err := tr.SimulatePath(moves(1), fiber.Win, 1); err != nil {
		t.Fatalf("SimulatePath: %v", err)
	}

	// Root has visits=1 < 1000, and the predicate condemns everything
	removed, err := tr.Prune(PruneOptions{
		MinVisits: 1000,
		Predicate: func(*fiber.Fiber) bool { return true },
	})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := tr.Root(); err != nil {
		t.Errorf("root gone after prune: %v", err)
	}
}

func TestPruneMaxDepth(t *testing.T) {
	tr := memTree(t)
	if err := tr.SimulatePath(moves(1, 2, 3, 4), fiber.Win, 10); err != nil {
		t.Fatalf("SimulatePath: %v", err)
	}

	removed, err := tr.Prune(PruneOptions{MaxDepth: 2})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2 (depths 3 and 4)", removed)
	}

	if _, err := tr.FindPath(moves(1, 2)); err != nil {
		t.Errorf("depth-2 node lost: %v", err)
	}
	if _, err := tr.FindPath(moves(1, 2, 3)); !errors.Is(err, fiber.ErrPathNotFound) {
		t.Errorf("depth-3 node survives MaxDepth=2: %v", err)
	}
}

func TestPruneDetachesFromParent(t *testing.T) {
	tr := memTree(t)
	if err := tr.SimulatePath(moves("keep"), fiber.Win, 10); err != nil {
		t.Fatalf("SimulatePath: %v", err)
	}
	if err := tr.SimulatePath(moves("drop"), fiber.Win, 1); err != nil {
		t.Fatalf("SimulatePath: %v", err)
	}

	if _, err := tr.Prune(PruneOptions{MinVisits: 5}); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	root, _ := tr.Root()
	if len(root.Children) != 1 {
		t.Errorf("root has %d children after prune, want 1", len(root.Children))
	}
	for key := range root.Children {
		if key != `"keep"` {
			t.Errorf("surviving child key = %s, want \"keep\"", key)
		}
	}
}
