// Package gamemath holds the orientation and ballistic math shared by the host
// and clients. It has no dependency on the ECS or the network layer so both
// sides compute identical results from identical inputs.
package gamemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rotator is an orientation in degrees. Yaw turns about +Z, pitch raises the
// forward axis toward +Z, roll spins about the forward axis.
type Rotator struct {
	Pitch float64
	Yaw   float64
	Roll  float64
}

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// NormalizeAxis wraps an angle in degrees into (-180, 180].
func NormalizeAxis(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	if angle > 180 {
		angle -= 360
	}
	return angle
}

// Normalized returns r with every axis wrapped into (-180, 180].
func (r Rotator) Normalized() Rotator {
	return Rotator{
		Pitch: NormalizeAxis(r.Pitch),
		Yaw:   NormalizeAxis(r.Yaw),
		Roll:  NormalizeAxis(r.Roll),
	}
}

// IsFinite reports whether no axis is NaN or infinite.
func (r Rotator) IsFinite() bool {
	for _, v := range [3]float64{r.Pitch, r.Yaw, r.Roll} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Delta returns the shortest per-axis rotation taking from onto r.
func (r Rotator) Delta(from Rotator) Rotator {
	return Rotator{
		Pitch: NormalizeAxis(r.Pitch - from.Pitch),
		Yaw:   NormalizeAxis(r.Yaw - from.Yaw),
		Roll:  NormalizeAxis(r.Roll - from.Roll),
	}
}

func (r Rotator) maxAbs() float64 {
	return math.Max(math.Abs(r.Pitch), math.Max(math.Abs(r.Yaw), math.Abs(r.Roll)))
}

// Equals reports whether r and o differ by at most tolerance degrees on every axis.
func (r Rotator) Equals(o Rotator, tolerance float64) bool {
	return AngularDistance(r, o) <= tolerance
}

// Vector returns the unit forward vector of r.
func (r Rotator) Vector() mgl64.Vec3 {
	pitch := mgl64.DegToRad(r.Pitch)
	yaw := mgl64.DegToRad(r.Yaw)
	cp := math.Cos(pitch)
	return mgl64.Vec3{cp * math.Cos(yaw), cp * math.Sin(yaw), math.Sin(pitch)}
}

// Quat returns the rotation as a quaternion, applied roll first, then pitch,
// then yaw. Quat().Rotate(+X) equals Vector().
func (r Rotator) Quat() mgl64.Quat {
	yaw := mgl64.QuatRotate(mgl64.DegToRad(r.Yaw), axisZ)
	pitch := mgl64.QuatRotate(-mgl64.DegToRad(r.Pitch), axisY)
	roll := mgl64.QuatRotate(mgl64.DegToRad(r.Roll), axisX)
	return yaw.Mul(pitch).Mul(roll)
}

// RotateVector rotates v from r's local frame into the parent frame.
func (r Rotator) RotateVector(v mgl64.Vec3) mgl64.Vec3 {
	return r.Quat().Rotate(v)
}

// AngularDistance is the largest per-axis difference between a and b, in
// degrees, along the shortest way round.
func AngularDistance(a, b Rotator) float64 {
	return b.Delta(a).maxAbs()
}

// RInterpTo rotates current toward target by clamp(dt*speed, 0, 1) of the
// remaining per-axis delta. The approach is exponential: every call with
// dt*speed in (0, 1) shrinks the error by the same factor and never reaches
// zero on its own. A positive snap tolerance returns target once the error is
// within it. speed <= 0 jumps straight to target; dt <= 0 leaves current alone.
func RInterpTo(current, target Rotator, dt, speed, snap float64) Rotator {
	if dt <= 0 {
		return current
	}
	if speed <= 0 {
		return target.Normalized()
	}

	delta := target.Delta(current)
	if snap > 0 && delta.maxAbs() <= snap {
		return target.Normalized()
	}

	alpha := mgl64.Clamp(dt*speed, 0, 1)
	return Rotator{
		Pitch: current.Pitch + delta.Pitch*alpha,
		Yaw:   current.Yaw + delta.Yaw*alpha,
		Roll:  current.Roll + delta.Roll*alpha,
	}.Normalized()
}
