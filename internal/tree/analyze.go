package tree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fibertree/fibertree/internal/fiber"
)

// Continuation is one candidate next move from a prefix, ranked by
// win rate with visits as the tie-break.
type Continuation struct {
	Move    fiber.Move `json:"move"`
	WinRate float64    `json:"win_rate"`
	Visits  uint64     `json:"visits"`
}

// BestContinuation resolves path (root if empty) and ranks its direct
// children with at least minVisits visits by descending win rate,
// breaking ties by descending visits. Returns at most topN records; a
// path that does not resolve yields an empty result.
func (t *Tree) BestContinuation(path []fiber.Move, topN int, minVisits uint64) ([]Continuation, error) {
	id, err := t.FindPath(path)
	if err != nil {
		if errors.Is(err, fiber.ErrPathNotFound) {
			return nil, nil
		}
		return nil, err
	}

	children, err := t.Children(id)
	if err != nil {
		return nil, err
	}

	var out []Continuation
	for _, c := range children {
		if c.Stats.Visits < minVisits || c.Move == nil {
			continue
		}
		out = append(out, Continuation{
			Move:    *c.Move,
			WinRate: c.WinRate(),
			Visits:  c.Stats.Visits,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		return out[i].Visits > out[j].Visits
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// MoveFrequency counts, per canonical move value, how many nodes at
// exactly the given depth carry that value and have at least minVisits
// visits. The count is of nodes, not of visits.
func (t *Tree) MoveFrequency(depth int, minVisits uint64) (map[string]int, error) {
	freq := make(map[string]int)
	err := t.walk(func(f *fiber.Fiber, d int, _ []fiber.Move) error {
		if d != depth || f.Move == nil || f.Stats.Visits < minVisits {
			return nil
		}
		key, err := f.Move.Key()
		if err != nil {
			return err
		}
		freq[key]++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return freq, nil
}

// PathStat describes one node together with the full path reaching it.
type PathStat struct {
	ID      string       `json:"id"`
	Path    []fiber.Move `json:"path"`
	Visits  uint64       `json:"visits"`
	WinRate float64      `json:"win_rate"`
	Depth   int          `json:"depth"`
}

// Diversity summarizes the tree's shape in a single traversal.
type Diversity struct {
	TotalFibers        int         `json:"total_fibers"`
	MaxDepth           int         `json:"max_depth"`
	LeafNodes          int         `json:"leaf_nodes"`
	AvgBranchingFactor float64     `json:"avg_branching_factor"`
	DepthDistribution  map[int]int `json:"depth_distribution"`
	MostVisitedPaths   []PathStat  `json:"most_visited_paths"`
}

// mostVisitedLimit caps the path list carried by a diversity report.
const mostVisitedLimit = 10

// PathDiversity computes the tree's structural profile: maximum depth,
// leaf count, mean branching factor over non-leaf nodes, node count per
// depth, and the most visited paths.
func (t *Tree) PathDiversity() (Diversity, error) {
	div := Diversity{DepthDistribution: make(map[int]int)}

	var branchSum, branchNodes int
	var paths []PathStat

	err := t.walk(func(f *fiber.Fiber, depth int, path []fiber.Move) error {
		div.TotalFibers++
		div.DepthDistribution[depth]++
		if depth > div.MaxDepth {
			div.MaxDepth = depth
		}
		if len(f.Children) == 0 {
			div.LeafNodes++
		} else {
			branchSum += len(f.Children)
			branchNodes++
		}
		if !f.IsRoot() && f.Stats.Visits > 0 {
			paths = append(paths, PathStat{
				ID:      f.ID,
				Path:    path,
				Visits:  f.Stats.Visits,
				WinRate: f.WinRate(),
				Depth:   depth,
			})
		}
		return nil
	})
	if err != nil {
		return Diversity{}, err
	}

	if branchNodes > 0 {
		div.AvgBranchingFactor = float64(branchSum) / float64(branchNodes)
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i].Visits > paths[j].Visits })
	if len(paths) > mostVisitedLimit {
		paths = paths[:mostVisitedLimit]
	}
	div.MostVisitedPaths = paths
	return div, nil
}

// CommonPaths returns every non-root node with at least minVisits
// visits, with its full path, sorted by descending visits.
func (t *Tree) CommonPaths(minVisits uint64) ([]PathStat, error) {
	var out []PathStat
	err := t.walk(func(f *fiber.Fiber, depth int, path []fiber.Move) error {
		if f.IsRoot() || f.Stats.Visits < minVisits {
			return nil
		}
		out = append(out, PathStat{
			ID:      f.ID,
			Path:    path,
			Visits:  f.Stats.Visits,
			WinRate: f.WinRate(),
			Depth:   depth,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Visits > out[j].Visits })
	return out, nil
}

// MoveHeatmap aggregates visits per board cell, assuming integer move
// values in [0, boardSize²) encoded as row*boardSize+col. Nodes at any
// depth contribute; non-integer or out-of-range values are skipped.
func (t *Tree) MoveHeatmap(boardSize int) ([][]uint64, error) {
	if boardSize <= 0 {
		return nil, fmt.Errorf("board size must be positive, got %d", boardSize)
	}
	grid := make([][]uint64, boardSize)
	for i := range grid {
		grid[i] = make([]uint64, boardSize)
	}

	err := t.walk(func(f *fiber.Fiber, _ int, _ []fiber.Move) error {
		if f.Move == nil {
			return nil
		}
		v, ok := f.Move.Int()
		if !ok || v < 0 || v >= boardSize*boardSize {
			return nil
		}
		grid[v/boardSize][v%boardSize] += f.Stats.Visits
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grid, nil
}
