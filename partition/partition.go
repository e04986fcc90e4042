// Package partition splits a flock into the two communication networks and
// wires each network's initial topology.
package partition

import (
	"cmp"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"

	"github.com/TFMV/dronenet/graph"
	"github.com/TFMV/dronenet/models"
)

// DefaultPivotIndex is the position in the spawn order whose ammunition splits the flock.
const DefaultPivotIndex = 10

// Network tags and their display colors
const (
	TagLessOrEqual   = "lte"
	TagGreater       = "gt"
	ColorLessOrEqual = "#334D1A" // dark green
	ColorGreater     = "#998066" // tan
)

// ByAmmo buckets drones by comparing their ammunition with that of
// drones[pivotIndex]. The pivot is a placeholder heuristic, not a median:
// bucket sizes depend on the data. An out of range pivot index falls back to
// the last drone.
func ByAmmo(drones []*models.Drone, pivotIndex int) (lte, gt []*models.Drone) {
	if len(drones) == 0 {
		return nil, nil
	}
	if pivotIndex < 0 || pivotIndex >= len(drones) {
		pivotIndex = len(drones) - 1
	}
	pivot := drones[pivotIndex].Ammo

	for _, d := range drones {
		if d == nil {
			continue
		}
		if d.Ammo <= pivot {
			lte = append(lte, d)
		} else {
			gt = append(gt, d)
		}
	}
	return lte, gt
}

// Build partitions drones and registers each bucket in its own network.
func Build(drones []*models.Drone, pivotIndex int) (lte, gt *graph.Network) {
	lte = graph.NewNetwork(TagLessOrEqual, ColorLessOrEqual)
	gt = graph.NewNetwork(TagGreater, ColorGreater)

	low, high := ByAmmo(drones, pivotIndex)
	for _, d := range low {
		lte.AddNode(d)
	}
	for _, d := range high {
		gt.AddNode(d)
	}
	return lte, gt
}

// member is a network drone placed in the quadtree.
type member struct {
	id int64
	p  orb.Point
}

func (m member) Point() orb.Point { return m.p }

// LinkNearest connects every member of net to up to k of its nearest fellow
// members lying within maxDistance. A non-positive maxDistance means no limit.
// Members are processed in ID order and the result depends only on positions.
func LinkNearest(net *graph.Network, k int, maxDistance float64) int {
	drones := net.Drones()
	if len(drones) < 2 || k <= 0 {
		return 0
	}

	bound := drones[0].Position.Bound()
	for _, d := range drones[1:] {
		bound = bound.Extend(d.Position)
	}
	tree := quadtree.New(bound.Pad(1))
	for _, d := range drones {
		_ = tree.Add(member{id: d.ID, p: d.Position})
	}

	before := net.EdgeCount()
	var buf []orb.Pointer
	for _, d := range drones {
		self := d.ID
		notSelf := func(p orb.Pointer) bool { return p.(member).id != self }
		if maxDistance > 0 {
			buf = tree.KNearestMatching(buf[:0], d.Position, k, notSelf, maxDistance)
		} else {
			buf = tree.KNearestMatching(buf[:0], d.Position, k, notSelf)
		}
		sortByDistance(buf, d.Position)
		for _, p := range buf {
			net.Connect(self, p.(member).id)
		}
	}
	return net.EdgeCount() - before
}

// sortByDistance orders the k-nearest result closest first, ties by ID.
func sortByDistance(buf []orb.Pointer, from orb.Point) {
	slices.SortFunc(buf, func(a, b orb.Pointer) int {
		da := planar.DistanceSquared(from, a.Point())
		db := planar.DistanceSquared(from, b.Point())
		if c := cmp.Compare(da, db); c != 0 {
			return c
		}
		return cmp.Compare(a.(member).id, b.(member).id)
	})
}
