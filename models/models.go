// Package models provides the data structures shared across dronenet.
// It defines the drone record and the identity allocator that issues drone IDs.
package models

import (
	"fmt"
	"sync/atomic"

	"github.com/paulmach/orb"
)

// Attribute bounds. Upper bounds are exclusive.
const (
	MinAmmo        = 1
	MaxAmmo        = 100
	MinCapacity    = 1
	MaxCapacity    = 100
	MinTemperature = 0
	MaxTemperature = 100
)

// Collider is the shape handle a drone occupies in the flock.
// It is handed to the drone explicitly at spawn time.
type Collider struct {
	Radius float64 `json:"radius"`
}

// Drone represents a single simulated agent
type Drone struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Ammo           int       `json:"ammo"`
	WeaponCapacity int       `json:"weapon_capacity"`
	Temperature    int       `json:"temperature"`
	Position       orb.Point `json:"position"`
	Heading        float64   `json:"heading"`  // radians, direction of travel
	Velocity       orb.Point `json:"velocity"` // last applied velocity
	UnderControl   bool      `json:"under_control"`
	Active         bool      `json:"active"`
	Collider       Collider  `json:"collider"`
}

// String returns a short human readable description of the drone
func (d *Drone) String() string {
	return fmt.Sprintf("Drone %d (ammo=%d capacity=%d temp=%d) at (%.2f, %.2f)",
		d.ID, d.Ammo, d.WeaponCapacity, d.Temperature, d.Position.X(), d.Position.Y())
}

// IDAllocator issues monotonic drone identities. IDs are never reused.
type IDAllocator struct {
	next atomic.Int64
}

// NewIDAllocator creates an allocator whose first ID is start.
func NewIDAllocator(start int64) *IDAllocator {
	a := &IDAllocator{}
	a.next.Store(start)
	return a
}

// Next returns a fresh identity.
func (a *IDAllocator) Next() int64 {
	return a.next.Add(1) - 1
}

// Peek returns the identity the next call to Next will hand out.
func (a *IDAllocator) Peek() int64 {
	return a.next.Load()
}
