package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// NetInterpData stores interpolation state for smooth presentation of remote
// networked entities between host corrections.
type NetInterpData struct {
	Prev        mgl64.Vec3
	Target      mgl64.Vec3
	T           float64
	Initialized bool
}

var NetInterp = donburi.NewComponentType[NetInterpData]()

// Retarget starts a new interpolation leg from the currently presented point.
func (n *NetInterpData) Retarget(target mgl64.Vec3) {
	if !n.Initialized {
		n.Prev, n.Target, n.T, n.Initialized = target, target, 1, true
		return
	}
	n.Prev = n.Current()
	n.Target = target
	n.T = 0
}

// Advance moves along the leg; a leg spans one host tick.
func (n *NetInterpData) Advance(dt, tickInterval float64) {
	if tickInterval <= 0 {
		n.T = 1
		return
	}
	n.T += dt / tickInterval
	if n.T > 1 {
		n.T = 1
	}
}

// Current is the presented point.
func (n *NetInterpData) Current() mgl64.Vec3 {
	return n.Prev.Add(n.Target.Sub(n.Prev).Mul(n.T))
}
