package gamemath

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestLaunchVelocityAndKinematicPosition(t *testing.T) {
	rot := Rotator{Pitch: 10, Yaw: 60}
	const speed = 4000.0

	vel := LaunchVelocity(rot, speed)
	assert.InDelta(t, speed, vel.Len(), 1e-6)
	assertVecNear(t, rot.Vector().Mul(speed), vel, 1e-9)

	spawn := mgl64.Vec3{10, 20, 30}
	pos := KinematicPosition(spawn, vel, 0.25)
	assertVecNear(t, spawn.Add(vel.Mul(0.25)), pos, 1e-9)
}

func TestSubSteps(t *testing.T) {
	assert.Equal(t, 14, SubSteps(4000, 0.05, 15, 32))
	assert.Equal(t, 1, SubSteps(10, 0.05, 15, 32))
	assert.Equal(t, 32, SubSteps(1e6, 0.05, 15, 32))
	assert.Equal(t, 1, SubSteps(4000, 0.05, 0, 32))
}

func TestAttachedLocation(t *testing.T) {
	// Parent faces +Y; a child offset 10 along its own +X lands at +Y in world space.
	got := AttachedLocation(
		mgl64.Vec3{100, 0, 0},
		Rotator{Yaw: 90},
		mgl64.Vec3{0, 0, 5},
		Rotator{},
		mgl64.Vec3{10, 0, 0},
	)
	assertVecNear(t, mgl64.Vec3{100, 10, 5}, got, 1e-9, "got %v", got)
}
