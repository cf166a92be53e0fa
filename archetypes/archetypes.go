package archetypes

import (
	"github.com/automoto/shootnrun-mp/components"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/tags"
	"github.com/yohamta/donburi"
)

// Host-side archetypes. Every host entity carries NetIdentity so observers
// can address it by EntityID.
var (
	Character = newArchetype(
		tags.Character,
		netcomponents.NetIdentity,
		netcomponents.NetPosition,
		netcomponents.NetEntityState,
	)
	Weapon = newArchetype(
		tags.Weapon,
		netcomponents.NetIdentity,
		netcomponents.NetWeapon,
	)
	Projectile = newArchetype(
		tags.Projectile,
		netcomponents.NetIdentity,
		netcomponents.NetProjectile,
	)
)

// Client-side mirrors. A character additionally carries the orientation
// slots the reconciler works on and its location interpolation leg.
var (
	CharacterMirror = newArchetype(
		tags.Character,
		netcomponents.NetIdentity,
		netcomponents.NetPosition,
		netcomponents.NetEntityState,
		components.OrientationSlots,
		components.NetInterp,
	)
	WeaponMirror     = Weapon
	ProjectileMirror = newArchetype(
		tags.Projectile,
		netcomponents.NetIdentity,
		netcomponents.NetProjectile,
		components.ProjectileMotion,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Spawn(w donburi.World, cs ...donburi.IComponentType) *donburi.Entry {
	e := w.Entry(w.Create(
		append(a.components, cs...)...,
	))
	return e
}
