// Package physics implements the spatial flock simulator: neighbor discovery,
// steering behaviors, per-tick movement integration with a speed clamp, and
// the timer queue that periodically refreshes drone attributes.
package physics

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Neighbor is the read-only view of a drone handed to steering behaviors.
type Neighbor struct {
	ID       int64
	Position orb.Point
	Heading  float64
	Velocity orb.Point
}

// Point implements orb.Pointer so neighbors can live in a quadtree.
func (n Neighbor) Point() orb.Point {
	return n.Position
}

// Forward returns the unit vector the neighbor is facing.
func (n Neighbor) Forward() orb.Point {
	return orb.Point{math.Cos(n.Heading), math.Sin(n.Heading)}
}

// Params are the simulation parameters visible to behaviors.
type Params struct {
	DriveFactor               float64
	MaxSpeed                  float64
	NeighborRadius            float64
	AvoidanceRadiusMultiplier float64
}

// SquareMaxSpeed returns MaxSpeed².
func (p Params) SquareMaxSpeed() float64 { return p.MaxSpeed * p.MaxSpeed }

// SquareNeighborRadius returns NeighborRadius².
func (p Params) SquareNeighborRadius() float64 { return p.NeighborRadius * p.NeighborRadius }

// SquareAvoidanceRadius returns the squared radius inside which neighbors are avoided.
func (p Params) SquareAvoidanceRadius() float64 {
	return p.SquareNeighborRadius() * p.AvoidanceRadiusMultiplier * p.AvoidanceRadiusMultiplier
}

// Behavior computes a desired velocity for self given its neighbors.
// Implementations must only read the values they are given.
type Behavior interface {
	CalculateMove(self Neighbor, neighbors []Neighbor, p Params) orb.Point
	Name() string
}

// Cohesion steers toward the average position of the neighbors
type Cohesion struct{}

// Name returns the name of the behavior
func (Cohesion) Name() string { return "cohesion" }

// CalculateMove returns the offset from self to the neighbors' centroid
func (Cohesion) CalculateMove(self Neighbor, neighbors []Neighbor, _ Params) orb.Point {
	if len(neighbors) == 0 {
		return orb.Point{}
	}
	var sum orb.Point
	for _, n := range neighbors {
		sum = add(sum, n.Position)
	}
	centroid := scale(sum, 1/float64(len(neighbors)))
	return sub(centroid, self.Position)
}

// Alignment steers toward the average heading of the neighbors
type Alignment struct{}

// Name returns the name of the behavior
func (Alignment) Name() string { return "alignment" }

// CalculateMove returns the mean forward vector, or self's own forward
// vector when alone.
func (Alignment) CalculateMove(self Neighbor, neighbors []Neighbor, _ Params) orb.Point {
	if len(neighbors) == 0 {
		return self.Forward()
	}
	var sum orb.Point
	for _, n := range neighbors {
		sum = add(sum, n.Forward())
	}
	return scale(sum, 1/float64(len(neighbors)))
}

// Avoidance steers away from neighbors inside the avoidance radius
type Avoidance struct{}

// Name returns the name of the behavior
func (Avoidance) Name() string { return "avoidance" }

// CalculateMove averages the vectors pointing away from each crowding neighbor
func (Avoidance) CalculateMove(self Neighbor, neighbors []Neighbor, p Params) orb.Point {
	var sum orb.Point
	crowding := 0
	limit := p.SquareAvoidanceRadius()
	for _, n := range neighbors {
		if planar.DistanceSquared(self.Position, n.Position) < limit {
			sum = add(sum, sub(self.Position, n.Position))
			crowding++
		}
	}
	if crowding == 0 {
		return orb.Point{}
	}
	return scale(sum, 1/float64(crowding))
}

// StayInRadius pulls drones back once they stray far from Center
type StayInRadius struct {
	Center orb.Point
	Radius float64
}

// Name returns the name of the behavior
func (StayInRadius) Name() string { return "stay-in-radius" }

// CalculateMove is zero inside 90% of the radius and grows quadratically beyond it
func (s StayInRadius) CalculateMove(self Neighbor, _ []Neighbor, _ Params) orb.Point {
	if s.Radius <= 0 {
		return orb.Point{}
	}
	offset := sub(s.Center, self.Position)
	t := length(offset) / s.Radius
	if t < 0.9 {
		return orb.Point{}
	}
	return scale(offset, t*t)
}

// Composite blends several behaviors. Each partial move is capped at its weight.
type Composite struct {
	Behaviors []Behavior
	Weights   []float64
}

// Name returns the name of the behavior
func (c Composite) Name() string {
	names := make([]string, len(c.Behaviors))
	for i, b := range c.Behaviors {
		names[i] = b.Name()
	}
	return "composite(" + strings.Join(names, ",") + ")"
}

// CalculateMove sums the weighted partial moves
func (c Composite) CalculateMove(self Neighbor, neighbors []Neighbor, p Params) orb.Point {
	var move orb.Point
	for i, b := range c.Behaviors {
		weight := 1.0
		if i < len(c.Weights) {
			weight = c.Weights[i]
		}
		partial := scale(b.CalculateMove(self, neighbors, p), weight)
		if sq := lengthSquared(partial); sq > 0 && sq > weight*weight {
			partial = scale(normalize(partial), weight)
		}
		move = add(move, partial)
	}
	return move
}

// DefaultComposite returns the standard flocking blend used by the command line.
func DefaultComposite(radius float64, seed int64) Composite {
	return Composite{
		Behaviors: []Behavior{Alignment{}, Cohesion{}, Avoidance{}, StayInRadius{Radius: radius}, NewWander(seed)},
		Weights:   []float64{1, 4, 5, 0.1, 0.5},
	}
}

// BehaviorByName returns the behavior registered under name
func BehaviorByName(name string, radius float64, seed int64) (Behavior, error) {
	switch strings.ToLower(name) {
	case "", "flock", "composite":
		return DefaultComposite(radius, seed), nil
	case "cohesion":
		return Cohesion{}, nil
	case "alignment":
		return Alignment{}, nil
	case "avoidance":
		return Avoidance{}, nil
	case "stay", "stay-in-radius":
		return StayInRadius{Radius: radius}, nil
	case "wander":
		return NewWander(seed), nil
	default:
		return nil, fmt.Errorf("unknown behavior: %s", name)
	}
}

// Vector helpers on orb.Point

func add(a, b orb.Point) orb.Point { return orb.Point{a[0] + b[0], a[1] + b[1]} }

func sub(a, b orb.Point) orb.Point { return orb.Point{a[0] - b[0], a[1] - b[1]} }

func scale(a orb.Point, k float64) orb.Point { return orb.Point{a[0] * k, a[1] * k} }

func lengthSquared(a orb.Point) float64 { return a[0]*a[0] + a[1]*a[1] }

func length(a orb.Point) float64 { return math.Sqrt(lengthSquared(a)) }

func normalize(a orb.Point) orb.Point {
	l := length(a)
	if l == 0 {
		return orb.Point{}
	}
	return scale(a, 1/l)
}
