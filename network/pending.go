package network

import (
	"time"

	"github.com/automoto/shootnrun-mp/shared/messages"
)

// PendingRecord stores a sent command alongside when it was last put on the wire.
type PendingRecord struct {
	Command messages.Command
	SentAt  time.Time
	Sends   int
}

// PendingCommands is a ring buffer of commands the host has not acknowledged
// yet, indexed by sequence number.
type PendingCommands struct {
	history []PendingRecord
	acked   uint32
	nextSeq uint32
}

// NewPendingCommands creates a ring holding up to size unacknowledged commands.
func NewPendingCommands(size int) *PendingCommands {
	if size < 1 {
		size = 1
	}
	return &PendingCommands{
		history: make([]PendingRecord, size),
		nextSeq: 1,
	}
}

// Store saves a sent command. It reports false and keeps nothing when the
// ring is already full of unacknowledged commands, so every stored command
// stays available for re-sending until the host acknowledges it.
func (pb *PendingCommands) Store(cmd messages.Command, sentAt time.Time) bool {
	if pb.Len() >= len(pb.history) {
		return false
	}
	idx := int(cmd.Sequence % uint32(len(pb.history)))
	pb.history[idx] = PendingRecord{Command: cmd, SentAt: sentAt, Sends: 1}
	pb.nextSeq = cmd.Sequence + 1
	return true
}

// Get retrieves a stored record by sequence number. Returns false if not found,
// already acknowledged, or if the slot has been overwritten.
func (pb *PendingCommands) Get(seq uint32) (PendingRecord, bool) {
	if seq <= pb.acked {
		return PendingRecord{}, false
	}
	record := pb.history[seq%uint32(len(pb.history))]
	if record.Command.Sequence != seq {
		return PendingRecord{}, false
	}
	return record, true
}

// NextSeq returns the sequence number the next command should carry.
func (pb *PendingCommands) NextSeq() uint32 {
	return pb.nextSeq
}

// Ack drops every command up to and including seq. Stale acks are ignored.
func (pb *PendingCommands) Ack(seq uint32) {
	if seq >= pb.nextSeq {
		seq = pb.nextSeq - 1
	}
	if seq > pb.acked {
		pb.acked = seq
	}
}

// Acked returns the highest acknowledged sequence.
func (pb *PendingCommands) Acked() uint32 {
	return pb.acked
}

// Len returns how many commands await acknowledgement.
func (pb *PendingCommands) Len() int {
	return int(pb.nextSeq - 1 - pb.acked)
}

// Due returns the unacknowledged commands last sent at or before cutoff, in
// sequence order, and marks them as sent at now.
func (pb *PendingCommands) Due(cutoff, now time.Time) []messages.Command {
	var out []messages.Command
	for seq := pb.acked + 1; seq < pb.nextSeq; seq++ {
		idx := seq % uint32(len(pb.history))
		record := &pb.history[idx]
		if record.Command.Sequence != seq || record.SentAt.After(cutoff) {
			continue
		}
		record.SentAt = now
		record.Sends++
		out = append(out, record.Command)
	}
	return out
}
