package physics

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/TFMV/dronenet/models"
)

// AgentDensity scales the spawn disk radius with the drone count.
const AgentDensity = 0.08

// FlockConfig holds the tunable movement parameters of a flock
type FlockConfig struct {
	DriveFactor               float64
	MaxSpeed                  float64
	NeighborRadius            float64
	AvoidanceRadiusMultiplier float64
	ManualSpeed               float64
	Index                     IndexKind
}

// DefaultFlockConfig returns the standard flock parameters
func DefaultFlockConfig() FlockConfig {
	return FlockConfig{
		DriveFactor:               10,
		MaxSpeed:                  5,
		NeighborRadius:            1.5,
		AvoidanceRadiusMultiplier: 0.5,
		ManualSpeed:               5,
		Index:                     IndexAuto,
	}
}

// PrefabConfig describes how spawned drones are built
type PrefabConfig struct {
	NamePrefix     string
	ColliderRadius float64
}

// DefaultPrefab returns the standard drone prefab
func DefaultPrefab() PrefabConfig {
	return PrefabConfig{NamePrefix: "Drone", ColliderRadius: 0.5}
}

// Flock owns the drone collection and advances it tick by tick.
// Flock holds no locks; drive it from one goroutine.
type Flock struct {
	cfg      FlockConfig
	behavior Behavior
	index    NeighborIndex
	rng      *rand.Rand
	logger   *slog.Logger
	ids      *models.IDAllocator

	drones []*models.Drone
	byID   map[int64]*models.Drone
	manual map[int64]orb.Point
	ticks  uint64
}

// FlockOption configures a Flock
type FlockOption func(*Flock)

// WithRand sets the random source used for spawning and attribute rolls
func WithRand(rng *rand.Rand) FlockOption {
	return func(f *Flock) {
		if rng != nil {
			f.rng = rng
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) FlockOption {
	return func(f *Flock) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithIDAllocator shares an identity allocator with the flock
func WithIDAllocator(a *models.IDAllocator) FlockOption {
	return func(f *Flock) {
		if a != nil {
			f.ids = a
		}
	}
}

// WithIndex pins the neighbor index, overriding FlockConfig.Index
func WithIndex(idx NeighborIndex) FlockOption {
	return func(f *Flock) {
		f.index = idx
	}
}

// NewFlock creates an empty flock steered by behavior
func NewFlock(cfg FlockConfig, behavior Behavior, opts ...FlockOption) *Flock {
	f := &Flock{
		cfg:      cfg,
		behavior: behavior,
		rng:      rand.New(rand.NewSource(1)),
		logger:   slog.New(slog.DiscardHandler),
		ids:      models.NewIDAllocator(0),
		byID:     make(map[int64]*models.Drone),
		manual:   make(map[int64]orb.Point),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Params returns the parameters handed to behaviors
func (f *Flock) Params() Params {
	return Params{
		DriveFactor:               f.cfg.DriveFactor,
		MaxSpeed:                  f.cfg.MaxSpeed,
		NeighborRadius:            f.cfg.NeighborRadius,
		AvoidanceRadiusMultiplier: f.cfg.AvoidanceRadiusMultiplier,
	}
}

// Spawn creates count drones inside a disk whose radius grows with count.
func (f *Flock) Spawn(count int, prefab PrefabConfig) []*models.Drone {
	radius := float64(count) * AgentDensity
	spawned := make([]*models.Drone, 0, count)
	for i := 0; i < count; i++ {
		pos := f.insideDisk(radius)
		heading := f.rng.Float64() * 2 * math.Pi
		d := models.NewDrone(f.ids.Next(), prefab.NamePrefix, pos, heading,
			models.Collider{Radius: prefab.ColliderRadius}, f.rng)

		f.drones = append(f.drones, d)
		f.byID[d.ID] = d
		spawned = append(spawned, d)
	}
	f.logger.Info("spawned drones", "count", count, "radius", radius, "total", len(f.drones))
	return spawned
}

// insideDisk draws a uniformly distributed point in a disk of radius r
func (f *Flock) insideDisk(r float64) orb.Point {
	dist := math.Sqrt(f.rng.Float64()) * r
	angle := f.rng.Float64() * 2 * math.Pi
	return orb.Point{dist * math.Cos(angle), dist * math.Sin(angle)}
}

// Tick advances every active drone once.
// All neighbor queries read the positions from the start of the tick.
func (f *Flock) Tick(dt float64) {
	snapshot := f.snapshot()
	index := f.index
	if index == nil {
		index = NewIndex(f.cfg.Index, len(snapshot))
	}
	index.Build(snapshot)

	params := f.Params()
	moves := make([]orb.Point, len(snapshot))
	for i, self := range snapshot {
		d := f.byID[self.ID]
		if d.UnderControl {
			moves[i] = f.ManualOverride(d, f.manual[d.ID], f.cfg.ManualSpeed)
			continue
		}
		neighbors := index.Query(self, f.cfg.NeighborRadius)
		move := scale(f.behavior.CalculateMove(self, neighbors, params), f.cfg.DriveFactor)
		moves[i] = f.clamp(move)
	}

	for i, self := range snapshot {
		d := f.byID[self.ID]
		d.Move(moves[i], dt)
		d.RandomizeTemperature(f.rng)
	}
	f.ticks++
}

// clamp limits v to MaxSpeed, comparing squared magnitudes.
func (f *Flock) clamp(v orb.Point) orb.Point {
	if lengthSquared(v) > f.cfg.MaxSpeed*f.cfg.MaxSpeed {
		return scale(normalize(v), f.cfg.MaxSpeed)
	}
	return v
}

// ManualOverride turns raw directional input into a clamped velocity,
// bypassing the steering behavior.
func (f *Flock) ManualOverride(d *models.Drone, input orb.Point, speed float64) orb.Point {
	if lengthSquared(input) == 0 {
		return orb.Point{}
	}
	return f.clamp(scale(normalize(input), speed))
}

// SetControlled flags a drone for manual control. Releasing clears any held input.
func (f *Flock) SetControlled(id int64, controlled bool) bool {
	d, ok := f.byID[id]
	if !ok || !d.Active {
		return false
	}
	d.UnderControl = controlled
	if !controlled {
		delete(f.manual, id)
	}
	return true
}

// SetManualInput records the directional input held for a controlled drone.
func (f *Flock) SetManualInput(id int64, input orb.Point) bool {
	d, ok := f.byID[id]
	if !ok || !d.UnderControl {
		return false
	}
	f.manual[id] = input
	return true
}

// Deactivate removes a drone from movement and neighbor queries from the next tick on.
func (f *Flock) Deactivate(id int64) bool {
	d, ok := f.byID[id]
	if !ok || !d.Active {
		return false
	}
	d.Active = false
	d.UnderControl = false
	d.Velocity = orb.Point{}
	delete(f.manual, id)
	f.logger.Debug("drone deactivated", "id", id)
	return true
}

// RefreshAttributes re-rolls ammunition and capacity of an active drone
func (f *Flock) RefreshAttributes(id int64) bool {
	d, ok := f.byID[id]
	if !ok || !d.Active {
		return false
	}
	d.RandomizeAttributes(f.rng)
	return true
}

// Find returns the drone with id, active or not
func (f *Flock) Find(id int64) (*models.Drone, bool) {
	d, ok := f.byID[id]
	return d, ok
}

// Drones returns every drone ever spawned, in ID order
func (f *Flock) Drones() []*models.Drone {
	return f.drones
}

// Active returns the drones still taking part in the simulation
func (f *Flock) Active() []*models.Drone {
	out := make([]*models.Drone, 0, len(f.drones))
	for _, d := range f.drones {
		if d.Active {
			out = append(out, d)
		}
	}
	return out
}

// Ticks returns the number of completed ticks
func (f *Flock) Ticks() uint64 {
	return f.ticks
}

// Neighbors returns the active drones currently within the neighbor radius of id
func (f *Flock) Neighbors(id int64) []Neighbor {
	d, ok := f.byID[id]
	if !ok || !d.Active {
		return nil
	}
	idx := &BruteForceIndex{}
	idx.Build(f.snapshot())
	return idx.Query(view(d), f.cfg.NeighborRadius)
}

func (f *Flock) snapshot() []Neighbor {
	out := make([]Neighbor, 0, len(f.drones))
	for _, d := range f.drones {
		if d.Active {
			out = append(out, view(d))
		}
	}
	return out
}

func view(d *models.Drone) Neighbor {
	return Neighbor{ID: d.ID, Position: d.Position, Heading: d.Heading, Velocity: d.Velocity}
}
