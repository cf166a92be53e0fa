package network

import (
	"errors"

	"github.com/automoto/shootnrun-mp/shared/messages"
)

var (
	// ErrNotConnected is returned when sending on a connection that is not up.
	ErrNotConnected = errors.New("not connected")
	// ErrClosed is returned when sending on a transport that has been shut down.
	ErrClosed = errors.New("transport closed")
	// ErrBacklogFull is returned when too many commands await acknowledgement
	// to accept another one.
	ErrBacklogFull = errors.New("command backlog full")
)

// PeerID identifies a connected client on the host.
type PeerID string

// MessageSender delivers a single message from a client to the host.
type MessageSender interface {
	SendMessage(msg any) error
}

// CommandSender is the client-side half of the command channel: the
// non-authoritative holder proposes a change and the host decides.
type CommandSender interface {
	SendCommand(cmd messages.Command) error
}

// HostTransport is the host-side half: unicast to one peer or broadcast to
// every connected peer. Both are fire-and-forget and ordered per peer.
type HostTransport interface {
	Send(peer PeerID, msg any) error
	Broadcast(msg any) error
}

// HostHandler receives transport events on the host. Implementations must be
// safe to call from transport goroutines.
type HostHandler interface {
	OnConnect(peer PeerID)
	OnDisconnect(peer PeerID)
	OnMessage(peer PeerID, msg any)
}
