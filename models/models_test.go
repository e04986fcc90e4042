package models

import (
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAllocatorMonotonic(t *testing.T) {
	a := NewIDAllocator(0)
	for want := int64(0); want < 50; want++ {
		require.Equal(t, want, a.Next())
	}
	assert.Equal(t, int64(50), a.Peek())

	b := NewIDAllocator(100)
	assert.Equal(t, int64(100), b.Next())
	assert.Equal(t, int64(101), b.Next())
}

func TestNewDroneAttributesInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		d := NewDrone(int64(i), "Drone", orb.Point{}, 0, Collider{Radius: 0.5}, rng)
		require.True(t, d.Active)
		require.GreaterOrEqual(t, d.Ammo, MinAmmo)
		require.Less(t, d.Ammo, MaxAmmo)
		require.GreaterOrEqual(t, d.WeaponCapacity, MinCapacity)
		require.Less(t, d.WeaponCapacity, MaxCapacity)
		require.GreaterOrEqual(t, d.Temperature, MinTemperature)
		require.Less(t, d.Temperature, MaxTemperature)
	}
}

func TestDroneName(t *testing.T) {
	d := NewDrone(12, "Drone", orb.Point{}, 0, Collider{}, rand.New(rand.NewSource(1)))
	assert.Equal(t, "Drone 12", d.Name)
}

func TestMoveIntegratesAndFacesVelocity(t *testing.T) {
	d := &Drone{Position: orb.Point{1, 1}}
	d.Move(orb.Point{0, 2}, 0.5)

	assert.InDelta(t, 1.0, d.Position.X(), 1e-9)
	assert.InDelta(t, 2.0, d.Position.Y(), 1e-9)
	assert.InDelta(t, math.Pi/2, d.Heading, 1e-9)
	assert.Equal(t, orb.Point{0, 2}, d.Velocity)
}

func TestMoveZeroVelocityKeepsHeading(t *testing.T) {
	d := &Drone{Position: orb.Point{3, 4}, Heading: 1.25}
	d.Move(orb.Point{}, 1)

	assert.Equal(t, orb.Point{3, 4}, d.Position)
	assert.Equal(t, 1.25, d.Heading)
}
