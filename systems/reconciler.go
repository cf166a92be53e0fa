package systems

import (
	"github.com/automoto/shootnrun-mp/components"
	"github.com/automoto/shootnrun-mp/config"
	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
)

// OrientationReconciler produces the presented orientation of a mirrored
// character from its two sources. A local prediction is shown as is;
// otherwise the presented value approaches the authoritative one a fixed
// fraction of the remaining error per tick.
type OrientationReconciler struct {
	InterpSpeed   float64
	SnapTolerance float64
}

func NewOrientationReconciler(cfg config.OrientationConfig) *OrientationReconciler {
	return &OrientationReconciler{
		InterpSpeed:   cfg.InterpSpeed,
		SnapTolerance: cfg.SnapTolerance,
	}
}

// Step advances slots by dt seconds.
func (o *OrientationReconciler) Step(slots *components.OrientationSlotsData, dt float64) {
	if slots.HasPrediction {
		slots.Presented = slots.Predicted
		return
	}
	if !slots.Initialized {
		return
	}
	slots.Presented = gamemath.RInterpTo(slots.Presented, slots.Authoritative, dt, o.InterpSpeed, o.SnapTolerance)
}

// Target is the orientation the controlling client computes from its own
// pointer: look from the entity toward where the pointer ray meets the
// horizontal plane through it.
func (o *OrientationReconciler) Target(location mgl64.Vec3, pointer gamemath.Ray) (gamemath.Rotator, bool) {
	return gamemath.AimRotation(location, pointer)
}
