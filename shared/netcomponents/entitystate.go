package netcomponents

import (
	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// NetEntityStateData is the canonical, host-owned record of a controlled
// character. Only the host writes it; observers receive it field by field
// through corrections.
type NetEntityStateData struct {
	Orientation  gamemath.Rotator
	AimDirection mgl64.Vec3
	IsFiring     bool
	SpeedTier    netconfig.SpeedTier
}

var NetEntityState = donburi.NewComponentType[NetEntityStateData]()
