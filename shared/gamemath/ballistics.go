package gamemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LaunchVelocity returns the initial projectile velocity for a shot fired
// along rot at the given speed.
func LaunchVelocity(rot Rotator, speed float64) mgl64.Vec3 {
	return rot.Vector().Mul(speed)
}

// KinematicPosition is spawn + velocity*t. Projectiles carry no gravity.
func KinematicPosition(spawn, velocity mgl64.Vec3, t float64) mgl64.Vec3 {
	return spawn.Add(velocity.Mul(t))
}

// SubSteps returns how many equal sub-steps keep a body moving at speed from
// travelling further than maxStep per sub-step during dt, clamped to [1, limit].
func SubSteps(speed, dt, maxStep float64, limit int) int {
	if maxStep <= 0 || speed <= 0 || dt <= 0 {
		return 1
	}
	n := int(math.Ceil(speed * dt / maxStep))
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// AttachedLocation resolves a point given in a child frame (offset, then
// rotated by childRot, then shifted by relLocation) into world space under a
// parent at parentLoc with parentRot.
func AttachedLocation(parentLoc mgl64.Vec3, parentRot Rotator, relLocation mgl64.Vec3, childRot Rotator, offset mgl64.Vec3) mgl64.Vec3 {
	local := relLocation.Add(childRot.RotateVector(offset))
	return parentLoc.Add(parentRot.RotateVector(local))
}
