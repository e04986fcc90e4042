package models

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/paulmach/orb"
)

// NewDrone creates an active drone with the given identity, pose and collider.
// Resource attributes are drawn from rng.
func NewDrone(id int64, prefix string, position orb.Point, heading float64, collider Collider, rng *rand.Rand) *Drone {
	d := &Drone{
		ID:       id,
		Name:     fmt.Sprintf("%s %d", prefix, id),
		Position: position,
		Heading:  heading,
		Active:   true,
		Collider: collider,
	}
	d.RandomizeAttributes(rng)
	d.RandomizeTemperature(rng)
	return d
}

// RandomizeAttributes re-rolls ammunition and weapon capacity
func (d *Drone) RandomizeAttributes(rng *rand.Rand) {
	d.Ammo = MinAmmo + rng.Intn(MaxAmmo-MinAmmo)
	d.WeaponCapacity = MinCapacity + rng.Intn(MaxCapacity-MinCapacity)
}

// RandomizeTemperature re-rolls the temperature reading
func (d *Drone) RandomizeTemperature(rng *rand.Rand) {
	d.Temperature = MinTemperature + rng.Intn(MaxTemperature-MinTemperature)
}

// Move turns the drone to face velocity and integrates its position over dt.
// A zero velocity leaves the heading untouched.
func (d *Drone) Move(velocity orb.Point, dt float64) {
	if velocity[0] != 0 || velocity[1] != 0 {
		d.Heading = math.Atan2(velocity[1], velocity[0])
	}
	d.Velocity = velocity
	d.Position = orb.Point{
		d.Position[0] + velocity[0]*dt,
		d.Position[1] + velocity[1]*dt,
	}
}

// SetPosition places the drone without touching its heading
func (d *Drone) SetPosition(p orb.Point) {
	d.Position = p
}
