package fiber

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RootID is the reserved id of the tree's root fiber. The root carries no
// move and no parent; it is never deleted.
const RootID = "root"

// Outcome labels for a completed path. Any other label is accepted and
// counted toward visits without being bucketed.
const (
	Win  = "win"
	Loss = "loss"
	Draw = "draw"
)

// Stats is the aggregated outcome record carried by every fiber.
// Wins+Losses+Draws == Visits holds except when custom outcome labels
// were recorded, which count toward Visits only.
type Stats struct {
	Visits uint64 `json:"visits"`
	Wins   uint64 `json:"wins"`
	Losses uint64 `json:"losses"`
	Draws  uint64 `json:"draws"`
}

// WinRate is wins divided by visits, 0 when visits is 0.
func (s Stats) WinRate() float64 {
	if s.Visits == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Visits)
}

// Record applies one outcome to the stats, visits times.
func (s *Stats) Record(outcome string, visits uint64) {
	s.Visits += visits
	switch outcome {
	case Win:
		s.Wins += visits
	case Loss:
		s.Losses += visits
	case Draw:
		s.Draws += visits
	}
}

// Add accumulates another stats record pairwise.
func (s *Stats) Add(other Stats) {
	s.Visits += other.Visits
	s.Wins += other.Wins
	s.Losses += other.Losses
	s.Draws += other.Draws
}

// Fiber is a single node of the prefix tree: the move that reaches it,
// an id-valued back-reference to its parent, a map from canonical move
// key to child id, and aggregated outcome statistics. Children hold ids,
// not references, so fibers live in arena storage keyed by id.
type Fiber struct {
	ID       string            `json:"id"`
	Move     *Move             `json:"move"`
	ParentID string            `json:"parent_id,omitempty"`
	Children map[string]string `json:"children"`
	Stats    Stats             `json:"stats"`
}

// New creates a fiber for the given move under the given parent, with a
// fresh id and zeroed statistics.
func New(move Move, parentID string) *Fiber {
	return &Fiber{
		ID:       uuid.NewString(),
		Move:     &move,
		ParentID: parentID,
		Children: make(map[string]string),
	}
}

// NewRoot creates the root fiber: no move, no parent, reserved id.
func NewRoot() *Fiber {
	return &Fiber{
		ID:       RootID,
		Children: make(map[string]string),
	}
}

// IsRoot reports whether this fiber is the tree root.
func (f *Fiber) IsRoot() bool {
	return f.ID == RootID
}

// WinRate is wins divided by visits at this fiber, 0 when unvisited.
func (f *Fiber) WinRate() float64 {
	return f.Stats.WinRate()
}

// ChildID returns the id of the child reached by the given move key.
func (f *Fiber) ChildID(key string) (string, bool) {
	id, ok := f.Children[key]
	return id, ok
}

// Clone returns a deep copy of the fiber. Backends clone at their read
// and write boundaries so stored records never alias caller memory.
func (f *Fiber) Clone() *Fiber {
	c := *f
	c.Children = make(map[string]string, len(f.Children))
	for k, v := range f.Children {
		c.Children[k] = v
	}
	if f.Move != nil {
		m := *f.Move
		c.Move = &m
	}
	return &c
}

// Encode serializes the fiber to its persisted record form.
func (f *Fiber) Encode() ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode fiber %s: %w", f.ID, ErrSerialization)
	}
	return b, nil
}

// Decode reconstructs a fiber from its persisted record form.
func Decode(data []byte) (*Fiber, error) {
	var f Fiber
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fiber record: %w", ErrSerialization)
	}
	if f.Children == nil {
		f.Children = make(map[string]string)
	}
	return &f, nil
}
