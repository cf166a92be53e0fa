package protocol

import (
	"math"
	"testing"

	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/stretchr/testify/assert"
)

func seq(cmd messages.Command, n uint32) messages.Command {
	cmd.Sequence = n
	return cmd
}

func TestPolicyValidate(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name    string
		cmd     messages.Command
		wantErr error
	}{
		{"rotate", seq(messages.RotateCommand(gamemath.Rotator{Pitch: 30, Yaw: 200}), 1), nil},
		{"rotate pitch limit", seq(messages.RotateCommand(gamemath.Rotator{Pitch: 90}), 1), nil},
		{"rotate pitch too steep", seq(messages.RotateCommand(gamemath.Rotator{Pitch: 120}), 1), ErrMalformed},
		{"rotate nan", seq(messages.RotateCommand(gamemath.Rotator{Yaw: math.NaN()}), 1), ErrMalformed},
		{"fire", seq(messages.FireCommand(true), 2), nil},
		{"sprint", seq(messages.SprintCommand(false), 3), nil},
		{"move", seq(messages.MoveCommand(0.6, 0.8), 4), nil},
		{"move too fast", seq(messages.MoveCommand(1, 1), 4), ErrMalformed},
		{"move inf", seq(messages.MoveCommand(math.Inf(1), 0), 4), ErrMalformed},
		{"zero sequence", messages.FireCommand(true), ErrMalformed},
		{"unknown kind", messages.Command{Kind: 99, Sequence: 5}, ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(tt.cmd)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAcceptAll(t *testing.T) {
	var v Validator = AcceptAll{}
	assert.NoError(t, v.Validate(messages.RotateCommand(gamemath.Rotator{Pitch: 400})))
	assert.ErrorIs(t, v.Validate(messages.Command{Kind: messages.CommandUnknown}), ErrUnknownCommand)
}
