package network

import (
	"fmt"
	"sync"
	"time"

	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/rs/zerolog"
)

// CommandChannel numbers outgoing commands, remembers them until the host
// acknowledges them, and re-sends the ones that stay unacknowledged. The host
// drops duplicates, so re-sending is always safe.
type CommandChannel struct {
	mu          sync.Mutex
	out         MessageSender
	pending     *PendingCommands
	resendAfter time.Duration
	log         zerolog.Logger
}

// NewCommandChannel wraps out. Commands unacknowledged for resendAfter are
// re-sent by Resend; at most limit commands are kept.
func NewCommandChannel(out MessageSender, resendAfter time.Duration, limit int, logger zerolog.Logger) *CommandChannel {
	return &CommandChannel{
		out:         out,
		pending:     NewPendingCommands(limit),
		resendAfter: resendAfter,
		log:         logger.With().Str("component", "commands").Logger(),
	}
}

// SendCommand assigns the next sequence number and sends cmd.
func (c *CommandChannel) SendCommand(cmd messages.Command) error {
	return c.SendCommandAt(cmd, time.Now())
}

// SendCommandAt is SendCommand with an explicit clock. A command that fails
// to send stays pending and goes out again on the next Resend. When limit
// commands are already unacknowledged, cmd is neither numbered nor sent and
// ErrBacklogFull is returned.
func (c *CommandChannel) SendCommandAt(cmd messages.Command, now time.Time) error {
	c.mu.Lock()
	cmd.Sequence = c.pending.NextSeq()
	if !c.pending.Store(cmd, now) {
		acked := c.pending.Acked()
		c.mu.Unlock()
		c.log.Warn().Str("kind", cmd.Kind.String()).Uint32("acked", acked).Msg("command backlog full")
		return fmt.Errorf("send %s: %w", cmd.Kind, ErrBacklogFull)
	}
	c.mu.Unlock()

	if err := c.out.SendMessage(cmd); err != nil {
		return fmt.Errorf("send %s #%d: %w", cmd.Kind, cmd.Sequence, err)
	}
	return nil
}

// HandleAck releases every command up to ack.Sequence.
func (c *CommandChannel) HandleAck(ack messages.CommandAck) {
	c.mu.Lock()
	c.pending.Ack(ack.Sequence)
	c.mu.Unlock()
}

// Resend re-sends every command unacknowledged for longer than the resend
// interval and returns how many went out.
func (c *CommandChannel) Resend(now time.Time) int {
	c.mu.Lock()
	due := c.pending.Due(now.Add(-c.resendAfter), now)
	c.mu.Unlock()

	sent := 0
	for _, cmd := range due {
		if err := c.out.SendMessage(cmd); err != nil {
			c.log.Debug().Err(err).Uint32("seq", cmd.Sequence).Msg("resend failed")
			break
		}
		sent++
	}
	if sent > 0 {
		c.log.Debug().Int("count", sent).Msg("resent unacknowledged commands")
	}
	return sent
}

// Pending returns how many commands await acknowledgement.
func (c *CommandChannel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.Len()
}

// Acked returns the highest sequence the host has acknowledged.
func (c *CommandChannel) Acked() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.Acked()
}
