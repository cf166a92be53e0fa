package core

import (
	"time"

	"github.com/automoto/shootnrun-mp/archetypes"
	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// MuzzleLocation resolves the world position a shot leaves from: the
// character's socket, then the weapon's placement on it, then the muzzle
// offset along the weapon.
func MuzzleLocation(charLoc mgl64.Vec3, charRot gamemath.Rotator, socketOffset mgl64.Vec3, weapon netcomponents.NetWeaponData) mgl64.Vec3 {
	return gamemath.AttachedLocation(
		charLoc,
		charRot,
		socketOffset.Add(weapon.RelLocation),
		weapon.RelRotation,
		weapon.MuzzleOffset,
	)
}

// equipWeapon attaches the configured weapon to a character. With no weapon
// kind configured nothing is equipped and fire events are ignored.
func (s *Server) equipWeapon(owner donburi.Entity) {
	cp, ok := s.characters[owner]
	if !ok || cp.HasWeapon {
		return
	}
	combat := s.cfg.Combat
	if combat.WeaponKind == "" {
		return
	}

	id := s.allocateID()
	entry := archetypes.Weapon.Spawn(s.world)
	entity := entry.Entity()

	netcomponents.NetIdentity.Set(entry, &netcomponents.NetIdentityData{
		ID:    id,
		Kind:  netconfig.KindWeapon,
		Owner: cp.ID,
	})
	netcomponents.NetWeapon.Set(entry, &netcomponents.NetWeaponData{
		ProjectileKind: combat.WeaponKind,
		Socket:         combat.WeaponSocket,
		RelLocation:    combat.WeaponRelLocation.Vec(),
		RelRotation:    combat.WeaponRelRotation.Rotator(),
		MuzzleOffset:   combat.MuzzleOffset.Vec(),
	})

	cp.Weapon = entity
	cp.HasWeapon = true
	s.entities[id] = entity

	if err := s.replicator.Track(s.world, entity, netconfig.KindWeapon); err != nil {
		s.log.Error().Err(err).Msg("failed to setup network sync for weapon")
	}
	s.broadcastEvent(s.equippedMessage(entity, cp.ID))
}

func (s *Server) equippedMessage(weapon donburi.Entity, owner netconfig.EntityID) messages.WeaponEquipped {
	entry := s.world.Entry(weapon)
	w := netcomponents.NetWeapon.Get(entry)
	return messages.WeaponEquipped{
		Entity:         netcomponents.NetIdentity.Get(entry).ID,
		Owner:          owner,
		ProjectileKind: w.ProjectileKind,
		Socket:         w.Socket,
		RelLocation:    w.RelLocation,
		RelRotation:    w.RelRotation,
	}
}

// fireWeapon handles one cadence event: the shot leaves the muzzle along the
// character's current aim and the aim direction is recorded on the character.
func (s *Server) fireWeapon(owner donburi.Entity, at time.Duration) {
	cp, ok := s.characters[owner]
	if !ok || !cp.HasWeapon || !s.world.Valid(cp.Weapon) {
		return
	}
	entry := s.world.Entry(owner)
	state := netcomponents.NetEntityState.Get(entry)
	loc := netcomponents.NetPosition.Get(entry).Vec()
	weapon := netcomponents.NetWeapon.Get(s.world.Entry(cp.Weapon))

	aim := state.Orientation
	muzzle := MuzzleLocation(loc, aim, s.cfg.Combat.SocketOffset.Vec(), *weapon)
	state.AimDirection = aim.Vector()

	s.spawnProjectile(owner, muzzle, aim, at)
}
