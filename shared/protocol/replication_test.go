package protocol

import (
	"testing"

	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldIDsAreUnique(t *testing.T) {
	seen := map[FieldID]string{}
	for _, f := range EntityStateFields {
		prev, dup := seen[f.ID]
		assert.False(t, dup, "field %s reuses id %d of %s", f.Name, f.ID, prev)
		seen[f.ID] = f.Name
	}
}

func TestDiffOnlyChangedFields(t *testing.T) {
	prev := CharacterSnapshot{}
	cur := prev
	cur.Orientation = gamemath.Rotator{Yaw: 45}
	cur.IsFiring = true

	updates, err := Diff(&prev, &cur)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, uint8(FieldOrientation), updates[0].Field)
	assert.Equal(t, uint8(FieldFiring), updates[1].Field)

	updates, err = Diff(&cur, &cur)
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestApplyReproducesSource(t *testing.T) {
	src := CharacterSnapshot{
		NetEntityStateData: netcomponents.NetEntityStateData{
			Orientation:  gamemath.Rotator{Pitch: -5, Yaw: 135},
			AimDirection: mgl64.Vec3{0, 1, 0},
			IsFiring:     true,
			SpeedTier:    netconfig.SpeedSprint,
		},
		Position: netcomponents.NetPositionData{X: 10, Y: 20, Z: 90},
	}

	updates, err := Full(&src)
	require.NoError(t, err)
	assert.Len(t, updates, len(EntityStateFields))

	var dst CharacterSnapshot
	require.NoError(t, Apply(updates, &dst))
	assert.Equal(t, src, dst)
}

func TestApplyUnknownField(t *testing.T) {
	var dst CharacterSnapshot
	err := Apply([]messages.FieldUpdate{{Field: 200}}, &dst)
	assert.ErrorIs(t, err, ErrUnknownField)
}
