package systems

import (
	"testing"
	"time"

	"github.com/automoto/shootnrun-mp/config"
	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/automoto/shootnrun-mp/shared/protocol"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertVecNear compares vectors component by component with an absolute
// tolerance, so exact zeros match values like cos(90°).
func assertVecNear(t *testing.T, want, got mgl64.Vec3, delta float64, msgAndArgs ...any) bool {
	t.Helper()
	return assert.InDeltaSlice(t, want[:], got[:], delta, msgAndArgs...)
}

func newTestReplica() *Replica {
	return NewReplica(config.OrientationConfig{InterpSpeed: 10}, zerolog.Nop())
}

func correctionFor(t *testing.T, id netconfig.EntityID, seq uint32, state netcomponents.NetEntityStateData, pos mgl64.Vec3) messages.Correction {
	t.Helper()
	fields, err := protocol.Full(&protocol.CharacterSnapshot{
		NetEntityStateData: state,
		Position:           netcomponents.PositionFromVec(pos),
	})
	require.NoError(t, err)
	return messages.Correction{Entity: id, Seq: seq, Fields: fields}
}

func TestReplicaIgnoresStaleCorrections(t *testing.T) {
	r := newTestReplica()
	pos := mgl64.Vec3{10, 20, 90}
	r.Handle(messages.EntitySpawned{Entity: 7, Kind: netconfig.KindCharacter, Position: pos})

	r.Handle(correctionFor(t, 7, 5, netcomponents.NetEntityStateData{Orientation: gamemath.Rotator{Yaw: 90}}, pos))
	r.Handle(correctionFor(t, 7, 3, netcomponents.NetEntityStateData{Orientation: gamemath.Rotator{Yaw: 10}}, pos))
	r.Handle(correctionFor(t, 7, 5, netcomponents.NetEntityStateData{Orientation: gamemath.Rotator{Yaw: 20}}, pos))

	st, ok := r.State(7)
	require.True(t, ok)
	assert.InDelta(t, 90, st.Orientation.Yaw, 1e-9)

	slots, _ := r.Slots(7)
	assert.Equal(t, st.Orientation, slots.Authoritative)
	assert.Equal(t, st.Orientation, slots.Presented, "first correction is presented as is")
}

func TestReplicaInterpolatesTowardCorrection(t *testing.T) {
	r := newTestReplica()
	pos := mgl64.Vec3{0, 0, 90}
	r.Handle(messages.EntitySpawned{Entity: 1, Kind: netconfig.KindCharacter, Position: pos})
	r.Handle(correctionFor(t, 1, 1, netcomponents.NetEntityStateData{}, pos))

	r.Handle(correctionFor(t, 1, 2, netcomponents.NetEntityStateData{Orientation: gamemath.Rotator{Yaw: 60}}, mgl64.Vec3{100, 0, 90}))
	presented, _ := r.Presented(1)
	assert.InDelta(t, 0, presented.Yaw, 1e-9, "corrections do not move the presented value by themselves")

	r.Tick(25 * time.Millisecond)
	presented, _ = r.Presented(1)
	assert.InDelta(t, 15, presented.Yaw, 1e-9)

	loc, ok := r.Position(1)
	require.True(t, ok)
	assert.InDelta(t, 50, loc.X(), 1e-9, "half a host tick along the location leg")
}

func TestReplicaPredictionDiscardedByCorrection(t *testing.T) {
	r := newTestReplica()
	pos := mgl64.Vec3{0, 0, 90}
	r.Handle(messages.JoinAccepted{Entity: 1, TickRate: 20})
	r.Handle(messages.EntitySpawned{Entity: 1, Kind: netconfig.KindCharacter, Position: pos})
	r.Handle(correctionFor(t, 1, 1, netcomponents.NetEntityStateData{}, pos))
	assert.Equal(t, netconfig.EntityID(1), r.Local())

	require.True(t, r.Predict(1, gamemath.Rotator{Yaw: 45}))
	presented, _ := r.Presented(1)
	assert.InDelta(t, 45, presented.Yaw, 1e-9, "prediction shows before the host answers")

	r.Handle(correctionFor(t, 1, 2, netcomponents.NetEntityStateData{Orientation: gamemath.Rotator{Yaw: 40}}, pos))
	slots, _ := r.Slots(1)
	assert.False(t, slots.HasPrediction)
	assert.InDelta(t, 40, slots.Authoritative.Yaw, 1e-9)

	r.Tick(50 * time.Millisecond)
	presented, _ = r.Presented(1)
	assert.InDelta(t, 42.5, presented.Yaw, 1e-9)
}

func TestReplicaProjectileExtrapolationAndDestroy(t *testing.T) {
	r := newTestReplica()
	var destroyed []messages.EntityDestroyed
	r.OnDestroyed(func(m messages.EntityDestroyed) { destroyed = append(destroyed, m) })

	r.Handle(messages.ProjectileSpawned{
		Entity:   9,
		Owner:    1,
		Origin:   mgl64.Vec3{0, 0, 100},
		Velocity: mgl64.Vec3{4000, 0, 0},
		Radius:   15,
	})
	r.Tick(100 * time.Millisecond)

	loc, ok := r.Position(9)
	require.True(t, ok)
	assertVecNear(t, mgl64.Vec3{400, 0, 100}, loc, 1e-9, "got %v", loc)

	ev := messages.EntityDestroyed{Entity: 9, Kind: netconfig.KindProjectile, Cause: netconfig.CauseProjectileImpact}
	r.Handle(ev)
	r.Handle(ev)
	assert.False(t, r.Exists(9))
	assert.Equal(t, []messages.EntityDestroyed{ev}, destroyed, "a repeated destroy is a no-op")
	assert.Zero(t, r.Len())
}

func TestReplicaIgnoresUnknownMessages(t *testing.T) {
	r := newTestReplica()
	assert.False(t, r.Handle("hello"))
	assert.True(t, r.Handle(messages.Correction{Entity: 42, Seq: 1}), "correction for an unknown entity is dropped quietly")
}
