package protocol

import (
	"errors"
	"fmt"

	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownField is returned by Apply for a field ID missing from EntityStateFields.
var ErrUnknownField = errors.New("unknown replicated field")

// FieldID identifies a replicated character field on the wire.
type FieldID uint8

const (
	FieldOrientation FieldID = iota + 1
	FieldAimDirection
	FieldFiring
	FieldSpeedTier
	FieldPosition
)

// CharacterSnapshot is the replicated view of one character: its entity state
// plus its location.
type CharacterSnapshot struct {
	netcomponents.NetEntityStateData
	Position netcomponents.NetPositionData
}

// ReplicatedField describes how one field is compared, encoded and decoded.
type ReplicatedField struct {
	ID     FieldID
	Name   string
	Dirty  func(prev, cur *CharacterSnapshot) bool
	Encode func(s *CharacterSnapshot) ([]byte, error)
	Decode func(data []byte, s *CharacterSnapshot) error
}

func field[T comparable](id FieldID, name string, get func(*CharacterSnapshot) *T) ReplicatedField {
	return ReplicatedField{
		ID:   id,
		Name: name,
		Dirty: func(prev, cur *CharacterSnapshot) bool {
			return *get(prev) != *get(cur)
		},
		Encode: func(s *CharacterSnapshot) ([]byte, error) {
			return msgpack.Marshal(*get(s))
		},
		Decode: func(data []byte, s *CharacterSnapshot) error {
			return msgpack.Unmarshal(data, get(s))
		},
	}
}

// EntityStateFields is the wire contract for character state. Adding a field
// means adding a row here; IDs must never be reused.
var EntityStateFields = []ReplicatedField{
	field(FieldOrientation, "orientation", func(s *CharacterSnapshot) *gamemath.Rotator { return &s.Orientation }),
	field(FieldAimDirection, "aim_direction", func(s *CharacterSnapshot) *mgl64.Vec3 { return &s.AimDirection }),
	field(FieldFiring, "is_firing", func(s *CharacterSnapshot) *bool { return &s.IsFiring }),
	field(FieldSpeedTier, "speed_tier", func(s *CharacterSnapshot) *netconfig.SpeedTier { return &s.SpeedTier }),
	field(FieldPosition, "position", func(s *CharacterSnapshot) *netcomponents.NetPositionData { return &s.Position }),
}

func lookupField(id FieldID) (ReplicatedField, bool) {
	for _, f := range EntityStateFields {
		if f.ID == id {
			return f, true
		}
	}
	return ReplicatedField{}, false
}

// Diff encodes every field that differs between prev and cur. It returns nil
// when nothing changed.
func Diff(prev, cur *CharacterSnapshot) ([]messages.FieldUpdate, error) {
	var updates []messages.FieldUpdate
	for _, f := range EntityStateFields {
		if !f.Dirty(prev, cur) {
			continue
		}
		data, err := f.Encode(cur)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.Name, err)
		}
		updates = append(updates, messages.FieldUpdate{Field: uint8(f.ID), Data: data})
	}
	return updates, nil
}

// Full encodes every field of cur, for late joiners.
func Full(cur *CharacterSnapshot) ([]messages.FieldUpdate, error) {
	updates := make([]messages.FieldUpdate, 0, len(EntityStateFields))
	for _, f := range EntityStateFields {
		data, err := f.Encode(cur)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.Name, err)
		}
		updates = append(updates, messages.FieldUpdate{Field: uint8(f.ID), Data: data})
	}
	return updates, nil
}

// Apply decodes updates into dst. Fields are applied in order; on error dst
// may be partially updated.
func Apply(updates []messages.FieldUpdate, dst *CharacterSnapshot) error {
	for _, u := range updates {
		f, ok := lookupField(FieldID(u.Field))
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownField, u.Field)
		}
		if err := f.Decode(u.Data, dst); err != nil {
			return fmt.Errorf("decode %s: %w", f.Name, err)
		}
	}
	return nil
}
