package components

import (
	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/yohamta/donburi"
)

// OrientationSlotsData keeps the two orientation sources of a mirrored
// character apart. Authoritative is only written by host corrections;
// Predicted is only written by the local controller and is cleared whenever
// a correction arrives. Presented is what the presentation layer reads.
type OrientationSlotsData struct {
	Authoritative gamemath.Rotator
	Predicted     gamemath.Rotator
	HasPrediction bool
	Presented     gamemath.Rotator
	Initialized   bool
}

var OrientationSlots = donburi.NewComponentType[OrientationSlotsData]()
