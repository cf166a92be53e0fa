package network

import (
	"errors"
	"testing"
	"time"

	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []any
	err  error
}

func (r *recordingSender) SendMessage(msg any) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestCommandChannelNumbersCommands(t *testing.T) {
	out := &recordingSender{}
	ch := NewCommandChannel(out, 250*time.Millisecond, 16, zerolog.Nop())
	now := time.Unix(0, 0)

	require.NoError(t, ch.SendCommandAt(messages.RotateCommand(gamemath.Rotator{Yaw: 10}), now))
	require.NoError(t, ch.SendCommandAt(messages.FireCommand(true), now))

	require.Len(t, out.sent, 2)
	assert.Equal(t, uint32(1), out.sent[0].(messages.Command).Sequence)
	assert.Equal(t, uint32(2), out.sent[1].(messages.Command).Sequence)
	assert.Equal(t, 2, ch.Pending())
}

func TestCommandChannelResendsUntilAcked(t *testing.T) {
	out := &recordingSender{}
	ch := NewCommandChannel(out, 250*time.Millisecond, 16, zerolog.Nop())
	t0 := time.Unix(0, 0)

	require.NoError(t, ch.SendCommandAt(messages.SprintCommand(true), t0))
	require.NoError(t, ch.SendCommandAt(messages.FireCommand(true), t0.Add(100*time.Millisecond)))

	assert.Equal(t, 0, ch.Resend(t0.Add(200*time.Millisecond)), "nothing is old enough yet")
	assert.Equal(t, 1, ch.Resend(t0.Add(300*time.Millisecond)))
	assert.Equal(t, uint32(1), out.sent[2].(messages.Command).Sequence)

	ch.HandleAck(messages.CommandAck{Sequence: 2})
	assert.Equal(t, 0, ch.Pending())
	assert.Equal(t, 0, ch.Resend(t0.Add(time.Second)))
}

func TestCommandChannelKeepsFailedSends(t *testing.T) {
	out := &recordingSender{err: ErrNotConnected}
	ch := NewCommandChannel(out, 250*time.Millisecond, 16, zerolog.Nop())
	t0 := time.Unix(0, 0)

	err := ch.SendCommandAt(messages.FireCommand(true), t0)
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.Equal(t, 1, ch.Pending())

	out.err = nil
	assert.Equal(t, 1, ch.Resend(t0.Add(time.Second)))
	require.Len(t, out.sent, 1)
	assert.Equal(t, uint32(1), out.sent[0].(messages.Command).Sequence)
}

func TestCommandChannelRefusesWhenBacklogFull(t *testing.T) {
	out := &recordingSender{}
	ch := NewCommandChannel(out, 250*time.Millisecond, 2, zerolog.Nop())
	t0 := time.Unix(0, 0)

	require.NoError(t, ch.SendCommandAt(messages.FireCommand(true), t0))
	require.NoError(t, ch.SendCommandAt(messages.FireCommand(false), t0))

	err := ch.SendCommandAt(messages.SprintCommand(true), t0)
	assert.ErrorIs(t, err, ErrBacklogFull)
	assert.Len(t, out.sent, 2, "refused command never reaches the wire")
	assert.Equal(t, 2, ch.Pending())
	assert.Zero(t, ch.Acked())

	// Unacknowledged commands keep going out until the host catches up.
	assert.Equal(t, 2, ch.Resend(t0.Add(time.Second)))

	ch.HandleAck(messages.CommandAck{Sequence: 1})
	require.NoError(t, ch.SendCommandAt(messages.SprintCommand(true), t0.Add(time.Second)))
	last := out.sent[len(out.sent)-1].(messages.Command)
	assert.Equal(t, uint32(3), last.Sequence, "no gap in the sequence")
	assert.Equal(t, messages.CommandSprint, last.Kind)
}
