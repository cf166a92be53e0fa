package systems

import (
	"testing"
	"time"

	"github.com/automoto/shootnrun-mp/network"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRelay struct {
	sent []messages.Command
	acks []uint32
	full bool
}

func (r *recordingRelay) SendCommand(cmd messages.Command) error {
	if r.full {
		return network.ErrBacklogFull
	}
	cmd.Sequence = uint32(len(r.sent) + 1)
	r.sent = append(r.sent, cmd)
	return nil
}

func (r *recordingRelay) HandleAck(ack messages.CommandAck) {
	r.acks = append(r.acks, ack.Sequence)
}

func (r *recordingRelay) Resend(time.Time) int { return 0 }

func (r *recordingRelay) kinds() []messages.CommandKind {
	var out []messages.CommandKind
	for _, c := range r.sent {
		out = append(out, c.Kind)
	}
	return out
}

func spawnAt(t *testing.T, r *Replica, id netconfig.EntityID, pos mgl64.Vec3) {
	t.Helper()
	r.Handle(messages.EntitySpawned{Entity: id, Kind: netconfig.KindCharacter, Position: pos})
	r.Handle(correctionFor(t, id, 1, netcomponents.NetEntityStateData{}, pos))
}

func TestBotAimsAndFiresAtNearestCharacter(t *testing.T) {
	r := newTestReplica()
	relay := &recordingRelay{}
	ctrl := NewController(r, relay, zerolog.Nop())
	bot := NewBot(ctrl, r, 42)

	r.Handle(messages.JoinAccepted{Entity: 1, TickRate: 20})
	spawnAt(t, r, 1, mgl64.Vec3{1000, 1000, 90})
	spawnAt(t, r, 2, mgl64.Vec3{1000, 1300, 90})
	spawnAt(t, r, 3, mgl64.Vec3{2500, 1000, 90})

	require.NoError(t, bot.Update(50*time.Millisecond))

	require.NotEmpty(t, relay.sent)
	rotate := relay.sent[0]
	assert.Equal(t, messages.CommandRotate, rotate.Kind)
	assert.InDelta(t, 90, rotate.Rotation.Yaw, 1e-6, "faces the closer character")
	assert.Contains(t, relay.kinds(), messages.CommandFire)
	assert.True(t, ctrl.Firing())
	assert.False(t, ctrl.Sprinting())
}

func TestBotChasesDistantTarget(t *testing.T) {
	r := newTestReplica()
	relay := &recordingRelay{}
	ctrl := NewController(r, relay, zerolog.Nop())
	bot := NewBot(ctrl, r, 7)

	r.Handle(messages.JoinAccepted{Entity: 1, TickRate: 20})
	spawnAt(t, r, 1, mgl64.Vec3{0, 0, 90})
	spawnAt(t, r, 2, mgl64.Vec3{1000, 0, 90})

	require.NoError(t, bot.Update(50*time.Millisecond))
	assert.True(t, ctrl.Sprinting())

	var move *messages.Command
	for i := range relay.sent {
		if relay.sent[i].Kind == messages.CommandMove {
			move = &relay.sent[i]
		}
	}
	require.NotNil(t, move)
	assert.InDelta(t, 1, move.MoveX, 1e-9)
	assert.InDelta(t, 0, move.MoveY, 1e-9)
}

func TestBotWandersAlone(t *testing.T) {
	r := newTestReplica()
	relay := &recordingRelay{}
	ctrl := NewController(r, relay, zerolog.Nop())
	bot := NewBot(ctrl, r, 1)

	r.Handle(messages.JoinAccepted{Entity: 1, TickRate: 20})
	spawnAt(t, r, 1, mgl64.Vec3{0, 0, 90})

	require.NoError(t, bot.Update(50*time.Millisecond))
	assert.Equal(t, []messages.CommandKind{messages.CommandMove}, relay.kinds())
	assert.False(t, ctrl.Firing())
}
