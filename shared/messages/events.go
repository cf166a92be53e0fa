package messages

import (
	"time"

	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
)

// FieldUpdate carries one encoded replicated field.
type FieldUpdate struct {
	Field uint8
	Data  []byte
}

// Correction is broadcast by the host whenever a character's replicated state
// changes. Seq is the host-wide broadcast counter; Ack is the last command
// sequence applied for the character's owner, 0 for host characters. The
// owning client treats Ack like a CommandAck.
type Correction struct {
	Entity netconfig.EntityID
	Seq    uint32
	Ack    uint32
	Fields []FieldUpdate
}

// EntitySpawned is broadcast when a character enters the session.
type EntitySpawned struct {
	Entity   netconfig.EntityID
	Kind     netconfig.ActorKind
	Owner    netconfig.EntityID
	Position mgl64.Vec3
}

// WeaponEquipped is broadcast when the host attaches a weapon to a character.
type WeaponEquipped struct {
	Entity         netconfig.EntityID
	Owner          netconfig.EntityID
	ProjectileKind string
	Socket         string
	RelLocation    mgl64.Vec3
	RelRotation    gamemath.Rotator
}

// ProjectileSpawned is broadcast when the host fires a projectile.
type ProjectileSpawned struct {
	Entity   netconfig.EntityID
	Owner    netconfig.EntityID
	Origin   mgl64.Vec3
	Velocity mgl64.Vec3
	Radius   float64
	FiredAt  time.Duration // host simulation time
}

// EntityDestroyed is broadcast when the host removes an entity.
type EntityDestroyed struct {
	Entity     netconfig.EntityID
	Kind       netconfig.ActorKind
	Cause      netconfig.DestroyCause
	Instigator netconfig.EntityID // projectile or character responsible, 0 if none
}
