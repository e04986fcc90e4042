package physics

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
)

// IndexKind selects the broad-phase neighbor index
type IndexKind string

const (
	IndexAuto       IndexKind = "auto"
	IndexBruteForce IndexKind = "brute"
	IndexQuadtree   IndexKind = "quadtree"
)

// QuadtreeThreshold is the active drone count above which IndexAuto uses a quadtree.
const QuadtreeThreshold = 200

// NeighborIndex answers circle queries over a snapshot of drone positions.
// Results exclude the querying drone and are ordered by ID.
type NeighborIndex interface {
	Build(snapshot []Neighbor)
	Query(self Neighbor, radius float64) []Neighbor
}

// BruteForceIndex tests every pair. O(n²) per tick.
type BruteForceIndex struct {
	snapshot []Neighbor
}

// Build stores the snapshot
func (b *BruteForceIndex) Build(snapshot []Neighbor) {
	b.snapshot = snapshot
}

// Query returns every other drone within radius of self
func (b *BruteForceIndex) Query(self Neighbor, radius float64) []Neighbor {
	limit := radius * radius
	var out []Neighbor
	for _, n := range b.snapshot {
		if n.ID == self.ID {
			continue
		}
		if planar.DistanceSquared(self.Position, n.Position) <= limit {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, byID)
	return out
}

// QuadtreeIndex is rebuilt from each snapshot over its padded bound.
type QuadtreeIndex struct {
	tree *quadtree.Quadtree
	buf  []orb.Pointer
}

// Build indexes the snapshot
func (q *QuadtreeIndex) Build(snapshot []Neighbor) {
	if len(snapshot) == 0 {
		q.tree = nil
		return
	}
	bound := snapshot[0].Position.Bound()
	for _, n := range snapshot[1:] {
		bound = bound.Extend(n.Position)
	}
	q.tree = quadtree.New(bound.Pad(1))
	for _, n := range snapshot {
		// the bound covers every snapshot point, so Add cannot fail
		_ = q.tree.Add(n)
	}
}

// Query returns every other drone within radius of self
func (q *QuadtreeIndex) Query(self Neighbor, radius float64) []Neighbor {
	if q.tree == nil {
		return nil
	}
	limit := radius * radius
	q.buf = q.tree.InBoundMatching(q.buf[:0], self.Position.Bound().Pad(radius), func(p orb.Pointer) bool {
		n := p.(Neighbor)
		return n.ID != self.ID && planar.DistanceSquared(self.Position, n.Position) <= limit
	})
	if len(q.buf) == 0 {
		return nil
	}
	out := make([]Neighbor, 0, len(q.buf))
	for _, p := range q.buf {
		out = append(out, p.(Neighbor))
	}
	slices.SortFunc(out, byID)
	return out
}

// NewIndex returns the index for kind given the active drone count
func NewIndex(kind IndexKind, active int) NeighborIndex {
	switch kind {
	case IndexQuadtree:
		return &QuadtreeIndex{}
	case IndexBruteForce:
		return &BruteForceIndex{}
	default:
		if active > QuadtreeThreshold {
			return &QuadtreeIndex{}
		}
		return &BruteForceIndex{}
	}
}

func byID(a, b Neighbor) int {
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
