package core

import (
	"time"

	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/automoto/shootnrun-mp/tags"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
)

// ProjectilePhysics holds host-side physics state for a projectile entity.
type ProjectilePhysics struct {
	ID       netconfig.EntityID
	Object   *resolv.Object
	Origin   mgl64.Vec3
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Radius   float64

	FiredAt   time.Duration
	Simulated time.Duration // host time Position corresponds to

	OwnerEntity donburi.Entity
	OwnerID     netconfig.EntityID

	// Resolved is set by the first collision outcome; later overlaps are ignored
	Resolved bool
}

func newProjectilePhysics(level *ServerLevel, origin mgl64.Vec3, radius float64) *ProjectilePhysics {
	obj := resolv.NewObject(origin.X()-radius, origin.Y()-radius, radius*2, radius*2, tags.ResolvProjectile)
	obj.SetShape(resolv.NewRectangle(0, 0, radius*2, radius*2))
	level.Space.Add(obj)

	return &ProjectilePhysics{
		Object:   obj,
		Origin:   origin,
		Position: origin,
		Radius:   radius,
	}
}

// syncObject moves the broad-phase box onto Position.
func (pp *ProjectilePhysics) syncObject() {
	pp.Object.X = pp.Position.X() - pp.Radius
	pp.Object.Y = pp.Position.Y() - pp.Radius
	pp.Object.Update()
}
