package components

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// ProjectileMotionData lets observers extrapolate a projectile kinematically.
// Observers never resolve collisions; they wait for the host's destroy event.
type ProjectileMotionData struct {
	Origin   mgl64.Vec3
	Velocity mgl64.Vec3
	FiredAt  time.Duration
	Elapsed  time.Duration
}

var ProjectileMotion = donburi.NewComponentType[ProjectileMotionData]()
