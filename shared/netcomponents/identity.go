package netcomponents

import (
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/yohamta/donburi"
)

// NetIdentityData names an entity across the network. Owner is a
// back-reference only: a weapon points at its character, a projectile at the
// character that fired it.
type NetIdentityData struct {
	ID    netconfig.EntityID
	Kind  netconfig.ActorKind
	Owner netconfig.EntityID
}

var NetIdentity = donburi.NewComponentType[NetIdentityData]()
