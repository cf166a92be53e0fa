package core

import (
	"math"
	"time"

	"github.com/automoto/shootnrun-mp/archetypes"
	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/automoto/shootnrun-mp/tags"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
)

// overlap is one narrow-phase hit found during a projectile sub-step.
type overlap struct {
	entity donburi.Entity // characters only
	kind   netconfig.ActorKind
	dist   float64
}

// Same-distance hits resolve obstacle first, then character, then prop.
func overlapRank(kind netconfig.ActorKind) int {
	switch kind {
	case netconfig.KindObstacle:
		return 0
	case netconfig.KindCharacter:
		return 1
	}
	return 2
}

// spawnProjectile fires a projectile from origin along rot at simulation time at.
func (s *Server) spawnProjectile(owner donburi.Entity, origin mgl64.Vec3, rot gamemath.Rotator, at time.Duration) {
	cp, ok := s.characters[owner]
	if !ok {
		return
	}

	id := s.allocateID()
	radius := s.cfg.Combat.ProjectileRadius
	velocity := gamemath.LaunchVelocity(rot, s.cfg.Combat.ProjectileSpeed)

	entry := archetypes.Projectile.Spawn(s.world)
	entity := entry.Entity()
	netcomponents.NetIdentity.Set(entry, &netcomponents.NetIdentityData{
		ID:    id,
		Kind:  netconfig.KindProjectile,
		Owner: cp.ID,
	})
	netcomponents.NetProjectile.Set(entry, &netcomponents.NetProjectileData{
		X:      origin.X(),
		Y:      origin.Y(),
		Z:      origin.Z(),
		VelX:   velocity.X(),
		VelY:   velocity.Y(),
		VelZ:   velocity.Z(),
		Radius: radius,
	})

	pp := newProjectilePhysics(s.level, origin, radius)
	pp.ID = id
	pp.Velocity = velocity
	pp.FiredAt = at
	pp.Simulated = at
	pp.OwnerEntity = owner
	pp.OwnerID = cp.ID

	s.projectiles[entity] = pp
	s.entities[id] = entity
	s.metrics.ProjectileSpawned()

	// Register for network sync
	if err := s.replicator.Track(s.world, entity, netconfig.KindProjectile); err != nil {
		s.log.Error().Err(err).Msg("failed to sync projectile")
	}

	s.broadcastEvent(messages.ProjectileSpawned{
		Entity:   id,
		Owner:    cp.ID,
		Origin:   origin,
		Velocity: velocity,
		Radius:   radius,
		FiredAt:  at,
	})
}

// updateProjectiles advances every projectile to the current simulation time.
func (s *Server) updateProjectiles() {
	for _, e := range s.sortedProjectiles() {
		pp, ok := s.projectiles[e]
		if !ok || pp.Resolved {
			continue
		}
		s.stepProjectile(e, pp)
	}
}

// stepProjectile moves a projectile in sub-steps no longer than its radius
// so it cannot tunnel through thin geometry. Positions are evaluated from
// the launch parameters, not accumulated.
func (s *Server) stepProjectile(e donburi.Entity, pp *ProjectilePhysics) {
	dt := (s.now - pp.Simulated).Seconds()
	if dt <= 0 {
		return
	}
	steps := gamemath.SubSteps(pp.Velocity.Len(), dt, pp.Radius, s.cfg.Combat.MaxSubSteps)
	start := (pp.Simulated - pp.FiredAt).Seconds()

	for i := 1; i <= steps; i++ {
		from := pp.Position
		pp.Position = gamemath.KinematicPosition(pp.Origin, pp.Velocity, start+dt*float64(i)/float64(steps))
		pp.syncObject()

		if !s.level.InBounds(pp.Position) {
			pp.Resolved = true
			s.destroyEntity(e, netconfig.CauseOutOfBounds, 0)
			return
		}
		if hit, ok := s.firstOverlap(pp, from); ok {
			s.onProjectileOverlap(e, pp, hit)
			return
		}
	}
	pp.Simulated = s.now

	np := netcomponents.NetProjectile.Get(s.world.Entry(e))
	np.X, np.Y, np.Z = pp.Position.X(), pp.Position.Y(), pp.Position.Z()
}

// firstOverlap runs the resolv broad phase and a circle-vs-box narrow phase,
// returning the hit closest to where the sub-step started. The owner is
// never hit by its own projectile.
func (s *Server) firstOverlap(pp *ProjectilePhysics, from mgl64.Vec3) (overlap, bool) {
	check := pp.Object.Check(0, 0, tags.ResolvSolid, tags.ResolvCharacter, tags.ResolvProp)
	if check == nil {
		return overlap{}, false
	}

	x, y := pp.Position.X(), pp.Position.Y()
	best := overlap{dist: math.Inf(1)}
	found := false
	consider := func(o overlap, obj *resolv.Object) {
		if !circleOverlapsObject(x, y, pp.Radius, obj) {
			return
		}
		o.dist = distanceToObject(from.X(), from.Y(), obj)
		if !found || o.dist < best.dist || (o.dist == best.dist && overlapRank(o.kind) < overlapRank(best.kind)) {
			best = o
			found = true
		}
	}

	for _, obj := range check.ObjectsByTags(tags.ResolvSolid) {
		consider(overlap{kind: netconfig.KindObstacle}, obj)
	}
	for _, obj := range check.ObjectsByTags(tags.ResolvCharacter) {
		target, ok := obj.Data.(donburi.Entity)
		if !ok || target == pp.OwnerEntity {
			continue
		}
		if _, alive := s.characters[target]; !alive {
			continue
		}
		consider(overlap{entity: target, kind: netconfig.KindCharacter}, obj)
	}
	for _, obj := range check.ObjectsByTags(tags.ResolvProp) {
		consider(overlap{kind: netconfig.KindProp}, obj)
	}
	return best, found
}

// onProjectileOverlap applies the collision outcome exactly once per
// projectile. Hitting a character takes out its weapon, the character and
// the projectile together; anything else only stops the projectile.
func (s *Server) onProjectileOverlap(e donburi.Entity, pp *ProjectilePhysics, hit overlap) {
	if pp.Resolved {
		return
	}
	pp.Resolved = true

	switch hit.kind {
	case netconfig.KindCharacter:
		victim := s.idOf(hit.entity)
		s.log.Info().
			Uint32("projectile", uint32(pp.ID)).
			Uint32("shooter", uint32(pp.OwnerID)).
			Uint32("victim", uint32(victim)).
			Msg("character hit")
		s.destroyCharacter(hit.entity, netconfig.CauseProjectileHit, pp.ID)
		s.destroyEntity(e, netconfig.CauseProjectileHit, victim)
	default:
		s.destroyEntity(e, netconfig.CauseProjectileImpact, 0)
	}
}
