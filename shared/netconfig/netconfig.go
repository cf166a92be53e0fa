// Package netconfig defines lightweight types shared between client and server
// for network serialization. It must stay free of ECS, transport and physics
// imports so every binary can depend on it.
package netconfig

import "time"

// EntityID is the host-assigned identifier of a replicated entity. Zero means
// "no entity".
type EntityID uint32

// SpeedTier selects the character's maximum planar speed.
type SpeedTier uint8

const (
	SpeedNormal SpeedTier = iota
	SpeedSprint
)

func (t SpeedTier) String() string {
	switch t {
	case SpeedNormal:
		return "normal"
	case SpeedSprint:
		return "sprint"
	}
	return "unknown"
}

// ActorKind tags what an entity is, both in the host world and on the wire.
type ActorKind uint8

const (
	KindNone ActorKind = iota
	KindCharacter
	KindWeapon
	KindProjectile
	KindProp
	KindObstacle
)

func (k ActorKind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindWeapon:
		return "weapon"
	case KindProjectile:
		return "projectile"
	case KindProp:
		return "prop"
	case KindObstacle:
		return "obstacle"
	}
	return "none"
}

// DestroyCause explains why the host destroyed an entity.
type DestroyCause uint8

const (
	CauseNone DestroyCause = iota
	CauseProjectileHit      // a projectile overlapped this character (or its owner)
	CauseProjectileImpact   // the projectile itself struck something
	CauseOutOfBounds        // the projectile left the arena
	CauseDisconnect         // the owning session went away
)

func (c DestroyCause) String() string {
	switch c {
	case CauseProjectileHit:
		return "projectile_hit"
	case CauseProjectileImpact:
		return "projectile_impact"
	case CauseOutOfBounds:
		return "out_of_bounds"
	case CauseDisconnect:
		return "disconnect"
	}
	return "none"
}

// Defaults taken from the reference tuning. Configuration overrides all of them.
const (
	DefaultFirePeriod       = 100 * time.Millisecond
	DefaultProjectileSpeed  = 4000.0
	DefaultProjectileRadius = 15.0
	DefaultInterpSpeed      = 10.0
	DefaultNormalSpeed      = 300.0
	DefaultSprintSpeed      = 500.0
	DefaultWeaponSocket     = "RightHand"
)
