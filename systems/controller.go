package systems

import (
	"errors"
	"time"

	"github.com/automoto/shootnrun-mp/network"
	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/logging"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

// CommandRelay is the client end of the command channel as the controller
// uses it.
type CommandRelay interface {
	network.CommandSender
	HandleAck(ack messages.CommandAck)
	Resend(now time.Time) int
}

// Controller is the controlling client's input boundary. It predicts what it
// can locally and relays every intent change to the host as a command.
type Controller struct {
	replica  *Replica
	commands CommandRelay
	log      zerolog.Logger

	aim       gamemath.Rotator
	hasAim    bool
	firing    bool
	sprinting bool
	move      mgl64.Vec2
}

func NewController(replica *Replica, commands CommandRelay, logger zerolog.Logger) *Controller {
	return &Controller{
		replica:  replica,
		commands: commands,
		log:      logging.Component(logger, "controller"),
	}
}

// Handle routes one host message: acks to the command channel, everything
// else to the replica. A correction of the local character also acknowledges
// the commands it reflects, which covers a lost CommandAck.
func (c *Controller) Handle(msg any) {
	switch m := msg.(type) {
	case messages.CommandAck:
		c.commands.HandleAck(m)
		return
	case messages.Correction:
		if m.Ack > 0 && m.Entity == c.replica.Local() {
			c.commands.HandleAck(messages.CommandAck{Sequence: m.Ack})
		}
	}
	if !c.replica.Handle(msg) {
		c.log.Debug().Type("message", msg).Msg("unhandled message")
	}
}

// relay sends cmd and rolls the caller's intent back with undo when the
// backlog refuses it, so the same intent is retried on the next change.
func (c *Controller) relay(cmd messages.Command, undo func()) error {
	err := c.commands.SendCommand(cmd)
	if errors.Is(err, network.ErrBacklogFull) {
		undo()
	}
	return err
}

// Update runs one client frame: presentation, then re-sending whatever the
// host has not acknowledged yet.
func (c *Controller) Update(dt time.Duration, now time.Time) {
	c.replica.Tick(dt)
	c.commands.Resend(now)
}

// Aim computes the target orientation from the pointer ray, presents it at
// once, and proposes it to the host when it differs from the last proposal.
// It reports whether a command went out.
func (c *Controller) Aim(pointer gamemath.Ray) (bool, error) {
	id := c.replica.Local()
	loc, ok := c.replica.Position(id)
	if !ok {
		return false, nil
	}
	target, ok := c.replica.reconciler.Target(loc, pointer)
	if !ok {
		return false, nil
	}
	c.replica.Predict(id, target)

	if c.hasAim && target == c.aim {
		return false, nil
	}
	prev, had := c.aim, c.hasAim
	c.aim, c.hasAim = target, true
	err := c.relay(messages.RotateCommand(target), func() { c.aim, c.hasAim = prev, had })
	if errors.Is(err, network.ErrBacklogFull) {
		return false, err
	}
	return true, err
}

// SetFiring relays the fire intent. Only the host fires; Firing mirrors the
// intent for local feedback.
func (c *Controller) SetFiring(active bool) error {
	if active == c.firing {
		return nil
	}
	c.firing = active
	return c.relay(messages.FireCommand(active), func() { c.firing = !active })
}

func (c *Controller) SetSprinting(active bool) error {
	if active == c.sprinting {
		return nil
	}
	c.sprinting = active
	return c.relay(messages.SprintCommand(active), func() { c.sprinting = !active })
}

// Move relays the planar movement intent, scaled down to unit length if
// longer.
func (c *Controller) Move(x, y float64) error {
	v := mgl64.Vec2{x, y}
	if l := v.Len(); l > 1 {
		v = v.Mul(1 / l)
	}
	if v == c.move {
		return nil
	}
	prev := c.move
	c.move = v
	return c.relay(messages.MoveCommand(v.X(), v.Y()), func() { c.move = prev })
}

func (c *Controller) Firing() bool { return c.firing }

func (c *Controller) Sprinting() bool { return c.sprinting }
