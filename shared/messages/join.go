package messages

import (
	"time"

	"github.com/automoto/shootnrun-mp/shared/netconfig"
)

// JoinRequest is sent by a client after connecting to request joining the game.
type JoinRequest struct {
	Version    string
	PlayerName string
}

// JoinAccepted is sent by the server when a client's join request is accepted.
// SessionToken, ServerName and FirePeriod are informational; clients only log
// them.
type JoinAccepted struct {
	Entity       netconfig.EntityID
	SessionToken string
	ServerName   string
	TickRate     int
	FirePeriod   time.Duration
}

// JoinRejected is sent by the server when a client's join request is rejected.
type JoinRejected struct {
	Reason string
}
