package protocol

import (
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/leap-fish/necs/esync"
)

// Sync ID constants - ID 1 is reserved by necs for NetworkId
const (
	SyncIDNetIdentity   uint = 10
	SyncIDNetPosition   uint = 11
	SyncIDNetWeapon     uint = 12
	SyncIDNetProjectile uint = 13
)

// Interpolation IDs (uint8 for WithInterpFn)
const (
	InterpIDNetPosition   uint8 = 11
	InterpIDNetProjectile uint8 = 13
)

// RegisterComponents registers the structurally replicated components with
// necs. Both host and clients must call it before any network operations.
// Character orientation and input state do not go through esync; they travel
// in Correction messages encoded by EntityStateFields.
func RegisterComponents() error {
	// Identity: no interpolation (never changes after spawn)
	if err := esync.RegisterComponent(
		SyncIDNetIdentity,
		netcomponents.NetIdentityData{},
		netcomponents.NetIdentity,
	); err != nil {
		return err
	}

	if err := esync.RegisterComponent(
		SyncIDNetPosition,
		netcomponents.NetPositionData{},
		netcomponents.NetPosition,
		esync.WithInterpFn(InterpIDNetPosition, netcomponents.LerpNetPosition),
	); err != nil {
		return err
	}

	if err := esync.RegisterComponent(
		SyncIDNetWeapon,
		netcomponents.NetWeaponData{},
		netcomponents.NetWeapon,
	); err != nil {
		return err
	}

	if err := esync.RegisterComponent(
		SyncIDNetProjectile,
		netcomponents.NetProjectileData{},
		netcomponents.NetProjectile,
		esync.WithInterpFn(InterpIDNetProjectile, netcomponents.LerpNetProjectile),
	); err != nil {
		return err
	}

	return nil
}
