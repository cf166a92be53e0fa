package protocol

import (
	"errors"
	"fmt"
	"math"

	"github.com/automoto/shootnrun-mp/shared/messages"
)

var (
	// ErrMalformed marks a command whose payload the host refuses to apply.
	ErrMalformed = errors.New("malformed command")
	// ErrUnknownCommand marks a command with an unrecognised kind.
	ErrUnknownCommand = errors.New("unknown command kind")
)

// Validator decides whether the host should apply a command. It must be pure:
// no state mutation, no blocking.
type Validator interface {
	Validate(cmd messages.Command) error
}

// Policy is the default Validator. Every command is accepted unless its
// payload is outside the limits below.
type Policy struct {
	// MaxPitch bounds |pitch| of a rotate command after normalisation.
	MaxPitch float64
	// MaxMove bounds the magnitude of a move intent.
	MaxMove float64
}

// DefaultPolicy accepts any finite rotation with |pitch| <= 90 and any move
// intent of magnitude <= 1.
func DefaultPolicy() Policy {
	return Policy{MaxPitch: 90, MaxMove: 1}
}

const validateEpsilon = 1e-6

func (p Policy) Validate(cmd messages.Command) error {
	if cmd.Sequence == 0 {
		return fmt.Errorf("%w: zero sequence", ErrMalformed)
	}

	switch cmd.Kind {
	case messages.CommandRotate:
		if !cmd.Rotation.IsFinite() {
			return fmt.Errorf("%w: non-finite rotation", ErrMalformed)
		}
		if pitch := cmd.Rotation.Normalized().Pitch; p.MaxPitch > 0 && math.Abs(pitch) > p.MaxPitch+validateEpsilon {
			return fmt.Errorf("%w: pitch %.2f out of range", ErrMalformed, pitch)
		}
	case messages.CommandFire, messages.CommandSprint:
	case messages.CommandMove:
		if math.IsNaN(cmd.MoveX) || math.IsNaN(cmd.MoveY) || math.IsInf(cmd.MoveX, 0) || math.IsInf(cmd.MoveY, 0) {
			return fmt.Errorf("%w: non-finite move intent", ErrMalformed)
		}
		if mag := math.Hypot(cmd.MoveX, cmd.MoveY); p.MaxMove > 0 && mag > p.MaxMove+validateEpsilon {
			return fmt.Errorf("%w: move magnitude %.3f", ErrMalformed, mag)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCommand, cmd.Kind)
	}
	return nil
}

// AcceptAll applies every command of a known kind without inspecting its
// payload. Hosts running with validation disabled use it.
type AcceptAll struct{}

func (AcceptAll) Validate(cmd messages.Command) error {
	switch cmd.Kind {
	case messages.CommandRotate, messages.CommandFire, messages.CommandSprint, messages.CommandMove:
		return nil
	}
	return fmt.Errorf("%w: %d", ErrUnknownCommand, cmd.Kind)
}
