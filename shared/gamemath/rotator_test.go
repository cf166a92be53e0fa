package gamemath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertVecNear compares vectors component by component with an absolute
// tolerance, so exact zeros match values like cos(90°).
func assertVecNear(t *testing.T, want, got mgl64.Vec3, delta float64, msgAndArgs ...any) bool {
	t.Helper()
	return assert.InDeltaSlice(t, want[:], got[:], delta, msgAndArgs...)
}

func TestNormalizeAxis(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{190, -170},
		{-190, 170},
		{540, 180},
		{720, 0},
		{-45, -45},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, NormalizeAxis(c.in), 1e-9, "NormalizeAxis(%v)", c.in)
	}
}

func TestRotatorVector(t *testing.T) {
	v := Rotator{Yaw: 90}.Vector()
	assertVecNear(t, mgl64.Vec3{0, 1, 0}, v, 1e-9, "got %v", v)

	v = Rotator{Pitch: 30}.Vector()
	assert.InDelta(t, math.Cos(math.Pi/6), v.X(), 1e-9)
	assert.InDelta(t, 0.5, v.Z(), 1e-9)
	assert.InDelta(t, 1, v.Len(), 1e-9)
}

func TestRotatorQuatMatchesVector(t *testing.T) {
	for _, r := range []Rotator{
		{},
		{Yaw: 90},
		{Pitch: 30, Yaw: -120},
		{Pitch: -45, Yaw: 10, Roll: 70},
	} {
		got := r.RotateVector(mgl64.Vec3{1, 0, 0})
		assertVecNear(t, r.Vector(), got, 1e-9, "rotator %+v: %v vs %v", r, got, r.Vector())
	}
}

func TestRotatorDeltaTakesShortestWay(t *testing.T) {
	d := Rotator{Yaw: -170}.Delta(Rotator{Yaw: 170})
	assert.InDelta(t, 20, d.Yaw, 1e-9)
	assert.InDelta(t, 20, AngularDistance(Rotator{Yaw: 170}, Rotator{Yaw: -170}), 1e-9)
}

func TestRotatorIsFinite(t *testing.T) {
	assert.True(t, Rotator{Pitch: 10, Yaw: 20}.IsFinite())
	assert.False(t, Rotator{Yaw: math.NaN()}.IsFinite())
	assert.False(t, Rotator{Roll: math.Inf(1)}.IsFinite())
}

func TestRInterpToConvergesMonotonically(t *testing.T) {
	target := Rotator{Pitch: 10, Yaw: 135}
	current := Rotator{Yaw: -90}
	const (
		dt    = 0.05
		speed = 10.0
	)

	prevErr := AngularDistance(current, target)
	require.Greater(t, prevErr, 0.0)

	for tick := 1; tick <= 40; tick++ {
		current = RInterpTo(current, target, dt, speed, 0)
		err := AngularDistance(current, target)
		assert.Less(t, err, prevErr, "tick %d did not reduce the error", tick)
		assert.Greater(t, err, 0.0, "tick %d reached the target without a snap tolerance", tick)
		prevErr = err
	}
}

func TestRInterpToSnapTolerance(t *testing.T) {
	target := Rotator{Yaw: 45}
	got := RInterpTo(Rotator{Yaw: 44.99}, target, 0.05, 10, 0.05)
	assert.Equal(t, target, got)

	got = RInterpTo(Rotator{Yaw: 40}, target, 0.05, 10, 0.05)
	assert.InDelta(t, 42.5, got.Yaw, 1e-9)
}

func TestRInterpToEdgeCases(t *testing.T) {
	current := Rotator{Yaw: 10}
	target := Rotator{Yaw: 50}

	assert.Equal(t, current, RInterpTo(current, target, 0, 10, 0), "zero dt keeps current")
	assert.Equal(t, target, RInterpTo(current, target, 0.05, 0, 0), "zero speed jumps")
	assert.Equal(t, target, RInterpTo(current, target, 1, 10, 0), "alpha clamps to one")
}
