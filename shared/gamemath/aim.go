package gamemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Up is the world up axis. The aim plane is horizontal, so its normal is Up.
var Up = axisZ

// Ray is a pointer ray deprojected from the viewport by the presentation layer.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// LinePlaneIntersection intersects the ray origin + t*dir (t >= 0) with the
// plane through planeOrigin with normal planeNormal. It reports false when the
// ray is parallel to the plane or points away from it.
func LinePlaneIntersection(origin, dir, planeOrigin, planeNormal mgl64.Vec3) (mgl64.Vec3, bool) {
	denom := dir.Dot(planeNormal)
	if math.Abs(denom) < 1e-9 {
		return mgl64.Vec3{}, false
	}
	t := planeOrigin.Sub(origin).Dot(planeNormal) / denom
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	return origin.Add(dir.Mul(t)), true
}

// FindLookAtRotation returns the rotation whose forward vector points from
// start to target. Roll is always zero.
func FindLookAtRotation(start, target mgl64.Vec3) Rotator {
	d := target.Sub(start)
	return Rotator{
		Pitch: mgl64.RadToDeg(math.Atan2(d.Z(), math.Hypot(d.X(), d.Y()))),
		Yaw:   mgl64.RadToDeg(math.Atan2(d.Y(), d.X())),
	}
}

// AimRotation computes the orientation an entity at location should take to
// face where the pointer ray meets the horizontal plane through location.
// It reports false when the ray misses the plane or lands on the entity itself.
func AimRotation(location mgl64.Vec3, pointer Ray) (Rotator, bool) {
	hit, ok := LinePlaneIntersection(pointer.Origin, pointer.Direction, location, Up)
	if !ok {
		return Rotator{}, false
	}
	if hit.Sub(location).Len() < 1e-6 {
		return Rotator{}, false
	}

	rot := FindLookAtRotation(location, hit)
	rot.Yaw = NormalizeAxis(rot.Yaw)
	return rot, true
}
