package netcomponents

import (
	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// NetWeaponData describes how a weapon hangs off its owner's skeleton.
type NetWeaponData struct {
	ProjectileKind string
	Socket         string
	RelLocation    mgl64.Vec3
	RelRotation    gamemath.Rotator
	MuzzleOffset   mgl64.Vec3
}

var NetWeapon = donburi.NewComponentType[NetWeaponData]()
