package systems

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/automoto/shootnrun-mp/components"
	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// Bot tuning.
const (
	botCameraHeight   = 1000.0
	botFireCone       = 5.0 // degrees
	botKeepDistance   = 400.0
	botSprintDistance = 800.0
	botWanderPeriod   = 2 * time.Second
)

// Bot drives a Controller from the mirrored world: it aims at the nearest
// other character, fires while facing it, closes in when far and strafes
// when near. It sees only what the replica shows, like a player would.
type Bot struct {
	ctrl    *Controller
	replica *Replica
	rng     *rand.Rand

	elapsed    time.Duration
	nextWander time.Duration
	wander     mgl64.Vec2
}

// NewBot creates a bot. A fixed seed gives a reproducible wander pattern.
func NewBot(ctrl *Controller, replica *Replica, seed int64) *Bot {
	return &Bot{
		ctrl:    ctrl,
		replica: replica,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Update decides this frame's input.
func (b *Bot) Update(dt time.Duration) error {
	b.elapsed += dt
	if b.elapsed >= b.nextWander {
		angle := b.rng.Float64() * 2 * math.Pi
		b.wander = mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
		b.nextWander = b.elapsed + botWanderPeriod
	}

	self := b.replica.Local()
	loc, ok := b.replica.Position(self)
	if !ok {
		return nil
	}

	target, found := b.nearestTarget(self, loc)
	if !found {
		return errors.Join(
			b.ctrl.SetFiring(false),
			b.ctrl.SetSprinting(false),
			b.ctrl.Move(b.wander.X(), b.wander.Y()),
		)
	}

	aimPoint := mgl64.Vec3{target.X(), target.Y(), loc.Z()}
	camera := loc.Add(mgl64.Vec3{0, 0, botCameraHeight})
	_, aimErr := b.ctrl.Aim(gamemath.Ray{Origin: camera, Direction: aimPoint.Sub(camera).Normalize()})

	want := gamemath.FindLookAtRotation(loc, aimPoint)
	presented, _ := b.replica.Presented(self)
	facing := math.Abs(gamemath.NormalizeAxis(want.Yaw-presented.Yaw)) <= botFireCone

	to := mgl64.Vec2{aimPoint.X() - loc.X(), aimPoint.Y() - loc.Y()}
	dist := to.Len()
	move := b.wander
	if dist > botKeepDistance && dist > 0 {
		move = to.Mul(1 / dist)
	}

	return errors.Join(
		aimErr,
		b.ctrl.SetFiring(facing),
		b.ctrl.SetSprinting(dist > botSprintDistance),
		b.ctrl.Move(move.X(), move.Y()),
	)
}

// nearestTarget returns the closest other character, lowest ID on ties.
func (b *Bot) nearestTarget(self netconfig.EntityID, loc mgl64.Vec3) (mgl64.Vec3, bool) {
	var (
		best   mgl64.Vec3
		bestID netconfig.EntityID
		bestD  = math.Inf(1)
		found  bool
	)
	characterMirrors.Each(b.replica.world, func(entry *donburi.Entry) {
		id := netcomponents.NetIdentity.Get(entry).ID
		if id == self {
			return
		}
		p := components.NetInterp.Get(entry).Current()
		d := math.Hypot(p.X()-loc.X(), p.Y()-loc.Y())
		if d < bestD || (d == bestD && id < bestID) {
			best, bestID, bestD, found = p, id, d, true
		}
	})
	return best, found
}
