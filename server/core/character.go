package core

import (
	"math"
	"time"

	"github.com/automoto/shootnrun-mp/archetypes"
	"github.com/automoto/shootnrun-mp/network"
	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/automoto/shootnrun-mp/shared/protocol"
	"github.com/automoto/shootnrun-mp/tags"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
)

// CharacterPhysics holds per-character host state. This is not a donburi
// component; it exists only on the host and is never synced.
type CharacterPhysics struct {
	ID     netconfig.EntityID
	Owner  network.PeerID // empty for host-controlled characters
	Object *resolv.Object

	// Latest movement intent (written by commands, read by the movement step)
	Move mgl64.Vec2

	Cadence   *ShootCadenceController
	Weapon    donburi.Entity
	HasWeapon bool

	// Last state sent to observers; corrections carry the difference
	Replicated protocol.CharacterSnapshot
	Announced  bool
}

// Center returns the ground-plane centre of the collision box.
func (cp *CharacterPhysics) Center() (float64, float64) {
	return cp.Object.X + cp.Object.W/2, cp.Object.Y + cp.Object.H/2
}

func (s *Server) newCharacterPhysics(id netconfig.EntityID, owner network.PeerID, x, y float64) *CharacterPhysics {
	w, h := s.cfg.Combat.CharacterWidth, s.cfg.Combat.CharacterHeight
	obj := resolv.NewObject(x-w/2, y-h/2, w, h, tags.ResolvCharacter)
	obj.SetShape(resolv.NewRectangle(0, 0, w, h))
	s.level.Space.Add(obj)

	return &CharacterPhysics{
		ID:     id,
		Owner:  owner,
		Object: obj,
	}
}

// spawnCharacter creates a character at the next spawn point. Nothing is
// broadcast until announceCharacter.
func (s *Server) spawnCharacter(owner network.PeerID) donburi.Entity {
	sp := s.level.Arena.Spawn(s.spawnCount)
	s.spawnCount++

	id := s.allocateID()
	entry := archetypes.Character.Spawn(s.world)
	entity := entry.Entity()

	orientation := gamemath.Rotator{Yaw: gamemath.NormalizeAxis(sp.Yaw)}
	netcomponents.NetIdentity.Set(entry, &netcomponents.NetIdentityData{
		ID:   id,
		Kind: netconfig.KindCharacter,
	})
	netcomponents.NetPosition.Set(entry, &netcomponents.NetPositionData{
		X: sp.X,
		Y: sp.Y,
		Z: s.cfg.Server.SpawnHeight,
	})
	netcomponents.NetEntityState.Set(entry, &netcomponents.NetEntityStateData{
		Orientation:  orientation,
		AimDirection: orientation.Vector(),
		SpeedTier:    netconfig.SpeedNormal,
	})

	cp := s.newCharacterPhysics(id, owner, sp.X, sp.Y)
	cp.Object.Data = entity
	cp.Cadence = NewShootCadenceController(s.cfg.Combat.FirePeriod, func(at time.Duration) {
		s.fireWeapon(entity, at)
	})
	s.characters[entity] = cp
	s.entities[id] = entity

	if err := s.replicator.Track(s.world, entity, netconfig.KindCharacter); err != nil {
		s.log.Error().Err(err).Msg("failed to setup network sync for character")
	}
	return entity
}

// announceCharacter tells every observer about a freshly spawned character,
// equips it, and sends its full state.
func (s *Server) announceCharacter(entity donburi.Entity) {
	cp, ok := s.characters[entity]
	if !ok {
		return
	}
	s.broadcastEvent(s.spawnedMessage(entity, cp))
	s.equipWeapon(entity)

	snap := s.snapshotOf(s.world.Entry(entity))
	fields, err := protocol.Full(&snap)
	if err != nil {
		s.log.Error().Err(err).Msg("encode character state")
		return
	}
	s.broadcastEvent(s.correction(cp, fields))
	cp.Replicated = snap
	cp.Announced = true
}

// SpawnHostCharacter spawns a character the host itself controls, as a
// listen-server player or a target dummy.
func (s *Server) SpawnHostCharacter() netconfig.EntityID {
	entity := s.spawnCharacter("")
	s.announceCharacter(entity)
	return s.idOf(entity)
}

// ApplyHostCommand applies a command to a host-controlled character without
// sequencing; the host is its own authority.
func (s *Server) ApplyHostCommand(id netconfig.EntityID, cmd messages.Command) error {
	entity, ok := s.Entity(id)
	if !ok {
		return nil
	}
	if err := s.validator.Validate(withHostSequence(cmd)); err != nil {
		return err
	}
	s.applyCommand(entity, cmd)
	s.replicateCharacter(entity)
	return nil
}

func withHostSequence(cmd messages.Command) messages.Command {
	if cmd.Sequence == 0 {
		cmd.Sequence = 1
	}
	return cmd
}

// AimFromPointer computes the target orientation for a host-controlled
// character from a pointer ray and applies it when it differs from the
// stored one. It reports whether the orientation changed.
func (s *Server) AimFromPointer(id netconfig.EntityID, pointer gamemath.Ray) bool {
	entity, ok := s.Entity(id)
	if !ok {
		return false
	}
	entry := s.world.Entry(entity)
	loc := netcomponents.NetPosition.Get(entry).Vec()
	target, ok := gamemath.AimRotation(loc, pointer)
	if !ok {
		return false
	}
	state := netcomponents.NetEntityState.Get(entry)
	if state.Orientation == target {
		return false
	}
	state.Orientation = target
	s.replicateCharacter(entity)
	return true
}

// destroyCharacter removes a character's weapon first, then the character.
func (s *Server) destroyCharacter(entity donburi.Entity, cause netconfig.DestroyCause, instigator netconfig.EntityID) {
	cp, ok := s.characters[entity]
	if !ok {
		return
	}
	if cp.HasWeapon {
		s.destroyEntity(cp.Weapon, cause, instigator)
	}
	s.destroyEntity(entity, cause, instigator)
}

// destroyEntity removes any host entity exactly once and tells observers.
// Unknown or already-removed entities are ignored.
func (s *Server) destroyEntity(entity donburi.Entity, cause netconfig.DestroyCause, instigator netconfig.EntityID) bool {
	if !s.world.Valid(entity) {
		return false
	}
	entry := s.world.Entry(entity)
	ident := *netcomponents.NetIdentity.Get(entry)

	switch ident.Kind {
	case netconfig.KindCharacter:
		if cp, ok := s.characters[entity]; ok {
			cp.Cadence.Stop()
			s.level.Space.Remove(cp.Object)
			delete(s.characters, entity)
			if sess, ok := s.sessions[cp.Owner]; ok && sess.Character == entity {
				sess.Alive = false
			}
		}
	case netconfig.KindWeapon:
		if owner, ok := s.Entity(ident.Owner); ok {
			if cp, ok := s.characters[owner]; ok && cp.Weapon == entity {
				cp.HasWeapon = false
			}
		}
	case netconfig.KindProjectile:
		if pp, ok := s.projectiles[entity]; ok {
			s.level.Space.Remove(pp.Object)
			delete(s.projectiles, entity)
		}
	}

	delete(s.entities, ident.ID)
	s.world.Remove(entity)
	s.metrics.EntityDestroyed(ident.Kind, cause)

	s.broadcastEvent(messages.EntityDestroyed{
		Entity:     ident.ID,
		Kind:       ident.Kind,
		Cause:      cause,
		Instigator: instigator,
	})
	s.log.Debug().
		Uint32("entity", uint32(ident.ID)).
		Stringer("kind", ident.Kind).
		Stringer("cause", cause).
		Uint32("instigator", uint32(instigator)).
		Msg("entity destroyed")
	return true
}

// updateMovement displaces every character by intent * tier speed * dt,
// blocked by obstacles, props and the arena edge.
func (s *Server) updateMovement(dt time.Duration) {
	secs := dt.Seconds()
	for _, e := range s.sortedCharacters() {
		cp := s.characters[e]
		if cp.Move == (mgl64.Vec2{}) {
			continue
		}
		entry := s.world.Entry(e)
		state := netcomponents.NetEntityState.Get(entry)
		speed := s.tierSpeed(state.SpeedTier)

		s.moveCharacter(cp, cp.Move.X()*speed*secs, cp.Move.Y()*speed*secs)

		pos := netcomponents.NetPosition.Get(entry)
		pos.X, pos.Y = cp.Center()
	}
}

func (s *Server) tierSpeed(tier netconfig.SpeedTier) float64 {
	if tier == netconfig.SpeedSprint {
		return s.cfg.Movement.SprintSpeed
	}
	return s.cfg.Movement.NormalSpeed
}

// moveCharacter resolves each axis separately so a character slides along
// walls instead of sticking to them.
func (s *Server) moveCharacter(cp *CharacterPhysics, dx, dy float64) {
	obj := cp.Object

	// --- Resolve horizontal collision ---
	if dx != 0 {
		if check := obj.Check(dx, 0, tags.ResolvSolid, tags.ResolvProp); check != nil {
			for _, solid := range check.ObjectsByTags(tags.ResolvSolid, tags.ResolvProp) {
				if !overlapsY(obj, solid) {
					continue
				}
				if dx > 0 && solid.X >= obj.X+obj.W {
					dx = math.Min(dx, solid.X-(obj.X+obj.W))
				} else if dx < 0 && solid.X+solid.W <= obj.X {
					dx = math.Max(dx, solid.X+solid.W-obj.X)
				}
			}
		}
		obj.X = clamp(obj.X+dx, 0, s.level.Arena.Width-obj.W)
	}

	// --- Resolve vertical collision ---
	if dy != 0 {
		if check := obj.Check(0, dy, tags.ResolvSolid, tags.ResolvProp); check != nil {
			for _, solid := range check.ObjectsByTags(tags.ResolvSolid, tags.ResolvProp) {
				if !overlapsX(obj, solid) {
					continue
				}
				if dy > 0 && solid.Y >= obj.Y+obj.H {
					dy = math.Min(dy, solid.Y-(obj.Y+obj.H))
				} else if dy < 0 && solid.Y+solid.H <= obj.Y {
					dy = math.Max(dy, solid.Y+solid.H-obj.Y)
				}
			}
		}
		obj.Y = clamp(obj.Y+dy, 0, s.level.Arena.Height-obj.H)
	}

	obj.Update()
}

func overlapsX(a, b *resolv.Object) bool {
	return a.X < b.X+b.W && b.X < a.X+a.W
}

func overlapsY(a, b *resolv.Object) bool {
	return a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}
