package physics

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"github.com/paulmach/orb"
)

// Wander drifts drones along a simplex noise flow field.
// The field is fixed by the seed, so the move depends only on position and identity.
type Wander struct {
	noise      opensimplex.Noise
	noiseScale float64
	strength   float64
}

// NewWander creates a wander behavior over the noise field for seed
func NewWander(seed int64) *Wander {
	return &Wander{
		noise:      opensimplex.New(seed),
		noiseScale: 0.15,
		strength:   1.0,
	}
}

// Name returns the name of the behavior
func (w *Wander) Name() string { return "wander" }

// CalculateMove samples the flow field at self's position
func (w *Wander) CalculateMove(self Neighbor, _ []Neighbor, _ Params) orb.Point {
	// each drone reads its own slice of the field
	phase := float64(self.ID) * 0.1
	n := w.noise.Eval3(self.Position[0]*w.noiseScale, self.Position[1]*w.noiseScale, phase)
	angle := n * math.Pi * 2
	return orb.Point{math.Cos(angle) * w.strength, math.Sin(angle) * w.strength}
}
