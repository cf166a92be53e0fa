package core

import (
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/protocol"
	"github.com/yohamta/donburi"
)

func (s *Server) snapshotOf(entry *donburi.Entry) protocol.CharacterSnapshot {
	return protocol.CharacterSnapshot{
		NetEntityStateData: *netcomponents.NetEntityState.Get(entry),
		Position:           *netcomponents.NetPosition.Get(entry),
	}
}

// replicateCharacter broadcasts one correction holding every field that
// changed since the last one. Unchanged characters send nothing.
func (s *Server) replicateCharacter(entity donburi.Entity) {
	cp, ok := s.characters[entity]
	if !ok || !cp.Announced || !s.world.Valid(entity) {
		return
	}
	cur := s.snapshotOf(s.world.Entry(entity))

	fields, err := protocol.Diff(&cp.Replicated, &cur)
	if err != nil {
		s.log.Error().Err(err).Uint32("entity", uint32(cp.ID)).Msg("encode correction")
		return
	}
	if len(fields) == 0 {
		return
	}
	s.broadcastEvent(s.correction(cp, fields))
	cp.Replicated = cur
}

// correction stamps fields with the next host sequence and the owner's
// command acknowledgement.
func (s *Server) correction(cp *CharacterPhysics, fields []messages.FieldUpdate) messages.Correction {
	s.correctionSeq++
	var ack uint32
	if sess, ok := s.sessions[cp.Owner]; ok {
		ack = sess.lastApplied
	}
	return messages.Correction{
		Entity: cp.ID,
		Seq:    s.correctionSeq,
		Ack:    ack,
		Fields: fields,
	}
}
