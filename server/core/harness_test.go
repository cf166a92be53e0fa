package core_test

import (
	"testing"
	"time"

	"github.com/automoto/shootnrun-mp/config"
	"github.com/automoto/shootnrun-mp/network"
	"github.com/automoto/shootnrun-mp/server/core"
	"github.com/automoto/shootnrun-mp/shared/leveldata"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 50 * time.Millisecond

// inbox records everything the host sent to one peer.
type inbox struct {
	msgs []any
}

// assertVecNear compares vectors component by component with an absolute
// tolerance, so exact zeros match values like cos(90°).
func assertVecNear(t *testing.T, want, got mgl64.Vec3, delta float64, msgAndArgs ...any) bool {
	t.Helper()
	return assert.InDeltaSlice(t, want[:], got[:], delta, msgAndArgs...)
}

func (in *inbox) receive(msg any) { in.msgs = append(in.msgs, msg) }

func (in *inbox) reset() { in.msgs = nil }

func ofType[T any](msgs []any) []T {
	var out []T
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

type player struct {
	peer   *network.LoopbackPeer
	inbox  *inbox
	entity netconfig.EntityID
	seq    uint32
}

// send stamps the next sequence onto cmd and queues it for the host.
func (p *player) send(t *testing.T, cmd messages.Command) uint32 {
	t.Helper()
	p.seq++
	cmd.Sequence = p.seq
	require.NoError(t, p.peer.SendMessage(cmd))
	return p.seq
}

type harness struct {
	t   *testing.T
	cfg *config.Config
	lb  *network.Loopback
	srv *core.Server
}

func newHarness(t *testing.T, arena *leveldata.Arena, tweak func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	if tweak != nil {
		tweak(cfg)
	}
	if arena == nil {
		arena = leveldata.OpenArena(cfg.Server.ArenaWidth, cfg.Server.ArenaHeight)
	}

	lb := network.NewLoopback()
	srv, err := core.NewServer(cfg, lb, zerolog.Nop(),
		core.WithLevel(core.NewServerLevel(arena, cfg.Server.ArenaCeiling, zerolog.Nop())))
	require.NoError(t, err)
	lb.Bind(srv)

	return &harness{t: t, cfg: cfg, lb: lb, srv: srv}
}

// duelArena places two spawns facing each other along the X axis.
func duelArena() *leveldata.Arena {
	return &leveldata.Arena{
		Name:   "duel",
		Width:  2000,
		Height: 1000,
		SpawnPoints: []leveldata.SpawnPoint{
			{X: 500, Y: 500, Yaw: 0, Index: 0},
			{X: 1000, Y: 500, Yaw: 180, Index: 1},
		},
	}
}

// step delivers queued client traffic, runs one tick and delivers the replies.
func (h *harness) step() {
	h.lb.DeliverToHost()
	h.srv.Tick(tick)
	h.lb.DeliverToClients()
}

func (h *harness) steps(n int) {
	for range n {
		h.step()
	}
}

// connect opens a peer without joining.
func (h *harness) connect(name string) *player {
	h.t.Helper()
	in := &inbox{}
	peer, err := h.lb.Connect(network.PeerID(name), in.receive)
	require.NoError(h.t, err)
	return &player{peer: peer, inbox: in}
}

// join connects and joins a player, failing the test if the host refuses.
func (h *harness) join(name string) *player {
	h.t.Helper()
	p := h.connect(name)
	require.NoError(h.t, p.peer.SendMessage(messages.JoinRequest{Version: h.cfg.Server.Version, PlayerName: name}))
	h.step()

	accepted := ofType[messages.JoinAccepted](p.inbox.msgs)
	require.Len(h.t, accepted, 1, "join accepted")
	p.entity = accepted[0].Entity
	return p
}

func (h *harness) state(p *player) (yaw, pitch float64, firing bool, tier netconfig.SpeedTier) {
	h.t.Helper()
	st, ok := h.srv.State(p.entity)
	require.True(h.t, ok, "character %d alive", p.entity)
	return st.Orientation.Yaw, st.Orientation.Pitch, st.IsFiring, st.SpeedTier
}

func destroyedOf(msgs []any, id netconfig.EntityID) []messages.EntityDestroyed {
	var out []messages.EntityDestroyed
	for _, d := range ofType[messages.EntityDestroyed](msgs) {
		if d.Entity == id {
			out = append(out, d)
		}
	}
	return out
}
