package core

import (
	"fmt"

	"github.com/automoto/shootnrun-mp/network"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/automoto/shootnrun-mp/shared/protocol"
	"github.com/google/uuid"
	"github.com/yohamta/donburi"
)

// maxParked bounds how many out-of-order commands a session may hold while
// waiting for a gap to fill.
const maxParked = 256

// Session is one connected peer.
type Session struct {
	Peer      network.PeerID
	Name      string
	Token     string
	Joined    bool
	Character donburi.Entity
	Alive     bool

	lastApplied uint32
	parked      map[uint32]messages.Command
}

// LastApplied is the highest contiguous command sequence consumed.
func (sess *Session) LastApplied() uint32 {
	return sess.lastApplied
}

func newSession(peer network.PeerID) *Session {
	return &Session{
		Peer:   peer,
		parked: make(map[uint32]messages.Command),
	}
}

func (s *Server) onConnect(peer network.PeerID) {
	if _, exists := s.sessions[peer]; exists {
		return
	}
	s.sessions[peer] = newSession(peer)
	s.log.Info().Str("peer", string(peer)).Msg("client connected")
}

func (s *Server) onDisconnect(peer network.PeerID) {
	sess, ok := s.sessions[peer]
	if !ok {
		return
	}
	delete(s.sessions, peer)

	if sess.Alive {
		s.destroyCharacter(sess.Character, netconfig.CauseDisconnect, 0)
	}
	if sess.Joined {
		s.players.Add(-1)
	}
	s.log.Info().Str("peer", string(peer)).Str("player", sess.Name).Msg("client disconnected")
}

func (s *Server) onMessage(peer network.PeerID, msg any) {
	sess, ok := s.sessions[peer]
	if !ok {
		s.log.Debug().Str("peer", string(peer)).Type("message", msg).Msg("message from unknown peer")
		return
	}

	switch m := msg.(type) {
	case messages.JoinRequest:
		s.onJoinRequest(sess, m)
	case messages.Command:
		s.receiveCommand(sess, m)
	default:
		s.log.Debug().Str("peer", string(peer)).Type("message", msg).Msg("unhandled message")
	}
}

func (s *Server) onJoinRequest(sess *Session, req messages.JoinRequest) {
	if sess.Joined {
		return
	}

	if want := s.cfg.Server.Version; want != "" && req.Version != want {
		s.rejectJoin(sess, fmt.Sprintf("version mismatch: server requires %s", want))
		return
	}
	if s.PlayerCount() >= s.cfg.Server.MaxPlayers {
		s.rejectJoin(sess, "server full")
		return
	}

	entity := s.spawnCharacter(sess.Peer)
	sess.Joined = true
	sess.Name = req.PlayerName
	sess.Token = uuid.NewString()
	sess.Character = entity
	sess.Alive = true
	s.players.Add(1)

	s.sendTo(sess.Peer, messages.JoinAccepted{
		Entity:       s.idOf(entity),
		SessionToken: sess.Token,
		ServerName:   s.cfg.Server.Name,
		TickRate:     s.cfg.Server.TickRate,
		FirePeriod:   s.cfg.Combat.FirePeriod,
	})
	s.sendSnapshot(sess, entity)
	s.announceCharacter(entity)

	s.log.Info().
		Str("peer", string(sess.Peer)).
		Str("player", req.PlayerName).
		Uint32("entity", uint32(s.idOf(entity))).
		Msg("player joined")
}

func (s *Server) rejectJoin(sess *Session, reason string) {
	s.log.Info().Str("peer", string(sess.Peer)).Str("reason", reason).Msg("join rejected")
	s.sendTo(sess.Peer, messages.JoinRejected{Reason: reason})
}

// sendSnapshot brings a late joiner up to date with every live entity except
// its own character, which is announced to everyone right after.
func (s *Server) sendSnapshot(sess *Session, own donburi.Entity) {
	for _, e := range s.sortedCharacters() {
		if e == own {
			continue
		}
		cp := s.characters[e]
		entry := s.world.Entry(e)
		s.sendTo(sess.Peer, s.spawnedMessage(e, cp))
		if cp.HasWeapon && s.world.Valid(cp.Weapon) {
			s.sendTo(sess.Peer, s.equippedMessage(cp.Weapon, cp.ID))
		}

		snap := s.snapshotOf(entry)
		fields, err := protocol.Full(&snap)
		if err != nil {
			s.log.Error().Err(err).Msg("encode snapshot")
			continue
		}
		s.sendTo(sess.Peer, s.correction(cp, fields))
	}

	for _, e := range s.sortedProjectiles() {
		pp := s.projectiles[e]
		s.sendTo(sess.Peer, messages.ProjectileSpawned{
			Entity:   pp.ID,
			Owner:    pp.OwnerID,
			Origin:   pp.Position,
			Velocity: pp.Velocity,
			Radius:   pp.Radius,
			FiredAt:  pp.Simulated,
		})
	}
}

func (s *Server) spawnedMessage(e donburi.Entity, cp *CharacterPhysics) messages.EntitySpawned {
	pos := netcomponents.NetPosition.Get(s.world.Entry(e))
	return messages.EntitySpawned{
		Entity:   cp.ID,
		Kind:     netconfig.KindCharacter,
		Position: pos.Vec(),
	}
}
