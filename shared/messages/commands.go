package messages

import (
	"github.com/automoto/shootnrun-mp/shared/gamemath"
)

// CommandKind enumerates the requests a controlling client may send to the host.
type CommandKind uint8

const (
	CommandUnknown CommandKind = iota
	CommandRotate
	CommandFire
	CommandSprint
	CommandMove
)

func (k CommandKind) String() string {
	switch k {
	case CommandRotate:
		return "rotate"
	case CommandFire:
		return "fire"
	case CommandSprint:
		return "sprint"
	case CommandMove:
		return "move"
	}
	return "unknown"
}

// Command is sent from a controlling client to the host. Commands from one
// originator share a single Sequence space (starting at 1) so the host can
// apply them exactly once and in the order they were sent. The host resolves
// the target entity from the sending session, never from the payload.
type Command struct {
	Kind     CommandKind
	Sequence uint32

	Rotation     gamemath.Rotator // CommandRotate
	Active       bool             // CommandFire, CommandSprint
	MoveX, MoveY float64          // CommandMove
}

// RotateCommand proposes a new orientation for the sender's character.
func RotateCommand(rot gamemath.Rotator) Command {
	return Command{Kind: CommandRotate, Rotation: rot}
}

// FireCommand relays the fire-intent boolean.
func FireCommand(active bool) Command {
	return Command{Kind: CommandFire, Active: active}
}

// SprintCommand relays the sprint-intent boolean.
func SprintCommand(active bool) Command {
	return Command{Kind: CommandSprint, Active: active}
}

// MoveCommand relays the 2D movement intent.
func MoveCommand(x, y float64) Command {
	return Command{Kind: CommandMove, MoveX: x, MoveY: y}
}

// CommandAck tells the sender the highest contiguous Sequence the host has
// consumed. It is a delivery receipt: rejected commands are acknowledged too.
type CommandAck struct {
	Sequence uint32
}
