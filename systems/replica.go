package systems

import (
	"time"

	"github.com/automoto/shootnrun-mp/archetypes"
	"github.com/automoto/shootnrun-mp/components"
	"github.com/automoto/shootnrun-mp/config"
	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/logging"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/automoto/shootnrun-mp/shared/protocol"
	"github.com/automoto/shootnrun-mp/tags"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/leap-fish/necs/esync"
	"github.com/rs/zerolog"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

const defaultTickInterval = 50 * time.Millisecond

var (
	characterMirrors  = donburi.NewQuery(filter.Contains(tags.Character, components.OrientationSlots))
	projectileMirrors = donburi.NewQuery(filter.Contains(tags.Projectile, components.ProjectileMotion))
)

// Replica is an observer's read-only mirror of the host world. Host messages
// go in through Handle in arrival order; Tick runs the presentation side
// once per client frame. Only the loop goroutine may touch it.
type Replica struct {
	world        donburi.World
	entities     map[netconfig.EntityID]donburi.Entity
	lastSeq      map[netconfig.EntityID]uint32
	reconciler   *OrientationReconciler
	tickInterval time.Duration
	local        netconfig.EntityID
	onDestroyed  []func(messages.EntityDestroyed)
	log          zerolog.Logger
}

func NewReplica(cfg config.OrientationConfig, logger zerolog.Logger) *Replica {
	return &Replica{
		world:        donburi.NewWorld(),
		entities:     make(map[netconfig.EntityID]donburi.Entity),
		lastSeq:      make(map[netconfig.EntityID]uint32),
		reconciler:   NewOrientationReconciler(cfg),
		tickInterval: defaultTickInterval,
		log:          logging.Component(logger, "replica"),
	}
}

// World returns the mirror world for presentation queries.
func (r *Replica) World() donburi.World {
	return r.world
}

// Local is the character this client controls, zero before the join completes.
func (r *Replica) Local() netconfig.EntityID {
	return r.local
}

// OnDestroyed registers fn to run for every host destruction event after the
// mirror entity is gone.
func (r *Replica) OnDestroyed(fn func(messages.EntityDestroyed)) {
	r.onDestroyed = append(r.onDestroyed, fn)
}

// Handle applies one host message and reports whether it was a replica message.
func (r *Replica) Handle(msg any) bool {
	switch m := msg.(type) {
	case messages.JoinAccepted:
		r.local = m.Entity
		if m.TickRate > 0 {
			r.tickInterval = time.Second / time.Duration(m.TickRate)
		}
	case messages.EntitySpawned:
		r.spawnCharacter(m)
	case messages.WeaponEquipped:
		r.equipWeapon(m)
	case messages.ProjectileSpawned:
		r.spawnProjectile(m)
	case messages.Correction:
		r.applyCorrection(m)
	case messages.EntityDestroyed:
		r.destroy(m)
	default:
		return false
	}
	return true
}

func (r *Replica) spawnCharacter(m messages.EntitySpawned) {
	if _, exists := r.entities[m.Entity]; exists {
		return
	}
	entry := archetypes.CharacterMirror.Spawn(r.world)
	netcomponents.NetIdentity.Set(entry, &netcomponents.NetIdentityData{
		ID:    m.Entity,
		Kind:  netconfig.KindCharacter,
		Owner: m.Owner,
	})
	pos := netcomponents.PositionFromVec(m.Position)
	netcomponents.NetPosition.Set(entry, &pos)
	components.NetInterp.Get(entry).Retarget(m.Position)
	r.entities[m.Entity] = entry.Entity()
}

func (r *Replica) equipWeapon(m messages.WeaponEquipped) {
	if _, exists := r.entities[m.Entity]; exists {
		return
	}
	entry := archetypes.WeaponMirror.Spawn(r.world)
	netcomponents.NetIdentity.Set(entry, &netcomponents.NetIdentityData{
		ID:    m.Entity,
		Kind:  netconfig.KindWeapon,
		Owner: m.Owner,
	})
	netcomponents.NetWeapon.Set(entry, &netcomponents.NetWeaponData{
		ProjectileKind: m.ProjectileKind,
		Socket:         m.Socket,
		RelLocation:    m.RelLocation,
		RelRotation:    m.RelRotation,
	})
	r.entities[m.Entity] = entry.Entity()
}

func (r *Replica) spawnProjectile(m messages.ProjectileSpawned) {
	if _, exists := r.entities[m.Entity]; exists {
		return
	}
	entry := archetypes.ProjectileMirror.Spawn(r.world)
	netcomponents.NetIdentity.Set(entry, &netcomponents.NetIdentityData{
		ID:    m.Entity,
		Kind:  netconfig.KindProjectile,
		Owner: m.Owner,
	})
	netcomponents.NetProjectile.Set(entry, &netcomponents.NetProjectileData{
		X:      m.Origin.X(),
		Y:      m.Origin.Y(),
		Z:      m.Origin.Z(),
		VelX:   m.Velocity.X(),
		VelY:   m.Velocity.Y(),
		VelZ:   m.Velocity.Z(),
		Radius: m.Radius,
	})
	components.ProjectileMotion.Set(entry, &components.ProjectileMotionData{
		Origin:   m.Origin,
		Velocity: m.Velocity,
		FiredAt:  m.FiredAt,
	})
	r.entities[m.Entity] = entry.Entity()
}

// applyCorrection overwrites the authoritative slot and discards any local
// prediction. Corrections not newer than the last one applied to the same
// entity are ignored.
func (r *Replica) applyCorrection(c messages.Correction) {
	entity, ok := r.entities[c.Entity]
	if !ok || !r.world.Valid(entity) {
		r.log.Debug().Uint32("entity", uint32(c.Entity)).Msg("correction for unknown entity")
		return
	}
	if c.Seq <= r.lastSeq[c.Entity] {
		return
	}
	entry := r.world.Entry(entity)
	if !entry.HasComponent(components.OrientationSlots) {
		return
	}

	state := netcomponents.NetEntityState.Get(entry)
	pos := netcomponents.NetPosition.Get(entry)
	snap := protocol.CharacterSnapshot{NetEntityStateData: *state, Position: *pos}
	if err := protocol.Apply(c.Fields, &snap); err != nil {
		r.log.Warn().Err(err).Uint32("entity", uint32(c.Entity)).Uint32("seq", c.Seq).Msg("bad correction")
		return
	}
	r.lastSeq[c.Entity] = c.Seq

	*state = snap.NetEntityStateData
	if snap.Position != *pos {
		*pos = snap.Position
		components.NetInterp.Get(entry).Retarget(pos.Vec())
	}

	slots := components.OrientationSlots.Get(entry)
	slots.Authoritative = state.Orientation
	slots.HasPrediction = false
	if !slots.Initialized {
		slots.Presented = slots.Authoritative
		slots.Initialized = true
	}
}

func (r *Replica) destroy(m messages.EntityDestroyed) {
	entity, ok := r.entities[m.Entity]
	if !ok {
		return
	}
	delete(r.entities, m.Entity)
	delete(r.lastSeq, m.Entity)
	if r.world.Valid(entity) {
		r.world.Remove(entity)
	}
	for _, fn := range r.onDestroyed {
		fn(m)
	}
}

// Predict stores a locally computed orientation for id and presents it
// immediately. The next correction for id discards it.
func (r *Replica) Predict(id netconfig.EntityID, rot gamemath.Rotator) bool {
	entry, ok := r.entry(id)
	if !ok || !entry.HasComponent(components.OrientationSlots) {
		return false
	}
	slots := components.OrientationSlots.Get(entry)
	slots.Predicted = rot
	slots.HasPrediction = true
	slots.Presented = rot
	return true
}

// Tick advances presentation by dt: orientations, location legs and
// projectile extrapolation. Observers never resolve projectile collisions;
// a projectile stays until the host destroys it.
func (r *Replica) Tick(dt time.Duration) {
	secs := dt.Seconds()
	leg := r.tickInterval.Seconds()

	characterMirrors.Each(r.world, func(entry *donburi.Entry) {
		r.reconciler.Step(components.OrientationSlots.Get(entry), secs)
		components.NetInterp.Get(entry).Advance(secs, leg)
	})

	projectileMirrors.Each(r.world, func(entry *donburi.Entry) {
		motion := components.ProjectileMotion.Get(entry)
		motion.Elapsed += dt
		p := gamemath.KinematicPosition(motion.Origin, motion.Velocity, motion.Elapsed.Seconds())
		np := netcomponents.NetProjectile.Get(entry)
		np.X, np.Y, np.Z = p.X(), p.Y(), p.Z()
	})
}

// ApplySnapshot folds an esync world snapshot into the mirror. Snapshots only
// refresh locations; entity lifetime follows the host's spawn and destroy
// events.
func (r *Replica) ApplySnapshot(snapshot esync.WorldSnapshot) {
	for _, ent := range snapshot {
		var compData []any
		for _, componentBytes := range ent.State {
			instance, err := esync.Mapper.Deserialize(componentBytes)
			if err != nil {
				continue
			}
			compData = append(compData, instance)
		}

		var ident *netcomponents.NetIdentityData
		for _, data := range compData {
			if v, ok := data.(netcomponents.NetIdentityData); ok {
				ident = &v
				break
			}
		}
		if ident == nil {
			continue
		}
		entry, ok := r.entry(ident.ID)
		if !ok {
			continue
		}

		for _, data := range compData {
			switch v := data.(type) {
			case netcomponents.NetPositionData:
				if !entry.HasComponent(components.NetInterp) {
					continue
				}
				pos := netcomponents.NetPosition.Get(entry)
				if *pos != v {
					*pos = v
					components.NetInterp.Get(entry).Retarget(v.Vec())
				}
			case netcomponents.NetProjectileData:
				if !entry.HasComponent(components.ProjectileMotion) {
					continue
				}
				// Re-anchor extrapolation on the host's position.
				motion := components.ProjectileMotion.Get(entry)
				motion.Origin = mgl64.Vec3{v.X, v.Y, v.Z}
				motion.Elapsed = 0
				*netcomponents.NetProjectile.Get(entry) = v
			}
		}
	}
}

func (r *Replica) entry(id netconfig.EntityID) (*donburi.Entry, bool) {
	e, ok := r.entities[id]
	if !ok || !r.world.Valid(e) {
		return nil, false
	}
	return r.world.Entry(e), true
}

// Exists reports whether id is mirrored.
func (r *Replica) Exists(id netconfig.EntityID) bool {
	_, ok := r.entry(id)
	return ok
}

// Presented returns the orientation the presentation layer should draw.
func (r *Replica) Presented(id netconfig.EntityID) (gamemath.Rotator, bool) {
	entry, ok := r.entry(id)
	if !ok || !entry.HasComponent(components.OrientationSlots) {
		return gamemath.Rotator{}, false
	}
	return components.OrientationSlots.Get(entry).Presented, true
}

// Slots returns a copy of a character's orientation slots.
func (r *Replica) Slots(id netconfig.EntityID) (components.OrientationSlotsData, bool) {
	entry, ok := r.entry(id)
	if !ok || !entry.HasComponent(components.OrientationSlots) {
		return components.OrientationSlotsData{}, false
	}
	return *components.OrientationSlots.Get(entry), true
}

// State returns the mirrored authoritative state of a character.
func (r *Replica) State(id netconfig.EntityID) (netcomponents.NetEntityStateData, bool) {
	entry, ok := r.entry(id)
	if !ok || !entry.HasComponent(netcomponents.NetEntityState) {
		return netcomponents.NetEntityStateData{}, false
	}
	return *netcomponents.NetEntityState.Get(entry), true
}

// Position returns the presented location of a character or projectile.
func (r *Replica) Position(id netconfig.EntityID) (mgl64.Vec3, bool) {
	entry, ok := r.entry(id)
	if !ok {
		return mgl64.Vec3{}, false
	}
	switch {
	case entry.HasComponent(components.NetInterp):
		return components.NetInterp.Get(entry).Current(), true
	case entry.HasComponent(netcomponents.NetProjectile):
		np := netcomponents.NetProjectile.Get(entry)
		return mgl64.Vec3{np.X, np.Y, np.Z}, true
	case entry.HasComponent(netcomponents.NetPosition):
		return netcomponents.NetPosition.Get(entry).Vec(), true
	}
	return mgl64.Vec3{}, false
}

// Len is the number of mirrored entities.
func (r *Replica) Len() int {
	return len(r.entities)
}
