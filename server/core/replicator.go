package core

import (
	"fmt"

	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/leap-fish/necs/esync/srvsync"
	"github.com/yohamta/donburi"
)

// Replicator mirrors entity existence and interpolated location to clients.
// Character state is not its concern; that travels in corrections.
type Replicator interface {
	Attach(world donburi.World)
	Track(world donburi.World, entity donburi.Entity, kind netconfig.ActorKind) error
	Sync() error
}

// NoopReplicator is used with the loopback transport and in tests.
type NoopReplicator struct{}

func (NoopReplicator) Attach(donburi.World) {}

func (NoopReplicator) Track(donburi.World, donburi.Entity, netconfig.ActorKind) error { return nil }

func (NoopReplicator) Sync() error { return nil }

// EsyncReplicator replicates through necs esync snapshots.
type EsyncReplicator struct{}

func NewEsyncReplicator() *EsyncReplicator {
	return &EsyncReplicator{}
}

func (r *EsyncReplicator) Attach(world donburi.World) {
	srvsync.UseEsync(world)
}

func (r *EsyncReplicator) Track(world donburi.World, entity donburi.Entity, kind netconfig.ActorKind) error {
	var err error
	switch kind {
	case netconfig.KindCharacter:
		err = srvsync.NetworkSync(world, &entity,
			srvsync.WithInterp(netcomponents.NetPosition),
			netcomponents.NetIdentity,
		)
	case netconfig.KindWeapon:
		err = srvsync.NetworkSync(world, &entity,
			netcomponents.NetIdentity,
			netcomponents.NetWeapon,
		)
	case netconfig.KindProjectile:
		err = srvsync.NetworkSync(world, &entity,
			srvsync.WithInterp(netcomponents.NetProjectile),
			netcomponents.NetIdentity,
		)
	default:
		return fmt.Errorf("no replication for %s", kind)
	}
	if err != nil {
		return fmt.Errorf("network sync %s: %w", kind, err)
	}
	return nil
}

func (r *EsyncReplicator) Sync() error {
	return srvsync.DoSync()
}
