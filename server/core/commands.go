package core

import (
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// receiveCommand enforces exactly-once, in-order application per session.
// Whatever happens to the command, the sender gets an ack carrying the
// highest contiguous sequence consumed so far.
func (s *Server) receiveCommand(sess *Session, cmd messages.Command) {
	if !sess.Joined {
		return
	}
	defer func() {
		s.sendTo(sess.Peer, messages.CommandAck{Sequence: sess.lastApplied})
	}()

	switch {
	case cmd.Sequence <= sess.lastApplied:
		s.metrics.CommandDuplicate()
		s.cmdLog.Debug().Str("peer", string(sess.Peer)).Uint32("seq", cmd.Sequence).Msg("duplicate command dropped")
		return
	case cmd.Sequence > sess.lastApplied+1:
		if _, dup := sess.parked[cmd.Sequence]; dup {
			s.metrics.CommandDuplicate()
			return
		}
		if len(sess.parked) >= maxParked {
			s.log.Warn().Str("peer", string(sess.Peer)).Uint32("seq", cmd.Sequence).Msg("too many out-of-order commands, dropping")
			return
		}
		sess.parked[cmd.Sequence] = cmd
		return
	}

	s.consumeCommand(sess, cmd)
	for {
		next, ok := sess.parked[sess.lastApplied+1]
		if !ok {
			break
		}
		delete(sess.parked, next.Sequence)
		s.consumeCommand(sess, next)
	}
}

// consumeCommand marks cmd as delivered, then validates and applies it.
// Rejected commands change nothing and get no reply beyond the ack.
func (s *Server) consumeCommand(sess *Session, cmd messages.Command) {
	sess.lastApplied = cmd.Sequence

	if err := s.validator.Validate(cmd); err != nil {
		s.metrics.CommandRejected(cmd.Kind)
		s.cmdLog.Debug().Err(err).Str("peer", string(sess.Peer)).Uint32("seq", cmd.Sequence).Msg("command rejected")
		return
	}
	s.metrics.CommandAccepted(cmd.Kind)

	if !sess.Alive {
		return
	}
	s.applyCommand(sess.Character, cmd)
	s.replicateCharacter(sess.Character)
}

// applyCommand mutates the canonical state of one character.
func (s *Server) applyCommand(entity donburi.Entity, cmd messages.Command) {
	cp, ok := s.characters[entity]
	if !ok || !s.world.Valid(entity) {
		return
	}
	state := netcomponents.NetEntityState.Get(s.world.Entry(entity))

	switch cmd.Kind {
	case messages.CommandRotate:
		state.Orientation = cmd.Rotation.Normalized()
	case messages.CommandFire:
		state.IsFiring = cmd.Active
		cp.Cadence.SetFiring(cmd.Active, s.now)
	case messages.CommandSprint:
		if cmd.Active {
			state.SpeedTier = netconfig.SpeedSprint
		} else {
			state.SpeedTier = netconfig.SpeedNormal
		}
	case messages.CommandMove:
		cp.Move = mgl64.Vec2{cmd.MoveX, cmd.MoveY}
	}
}
