package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/automoto/shootnrun-mp/network"
	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/rs/zerolog"
)

// NecsTransport is the networked HostTransport: necs router callbacks in,
// necs client sends out, over a websocket server.
type NecsTransport struct {
	mu      sync.RWMutex
	clients map[network.PeerID]*router.NetworkClient
	order   []network.PeerID
	log     zerolog.Logger
}

func NewNecsTransport(logger zerolog.Logger) *NecsTransport {
	return &NecsTransport{
		clients: make(map[network.PeerID]*router.NetworkClient),
		log:     logger.With().Str("component", "transport").Logger(),
	}
}

// Bind registers the router callbacks that feed h.
func (t *NecsTransport) Bind(h network.HostHandler) {
	// Handle new connections
	router.OnConnect(func(client *router.NetworkClient) {
		peer := network.PeerID(client.Id())
		t.mu.Lock()
		if _, exists := t.clients[peer]; !exists {
			t.order = append(t.order, peer)
		}
		t.clients[peer] = client
		t.mu.Unlock()
		t.log.Info().Str("peer", string(peer)).Msg("client connected")
		h.OnConnect(peer)
	})

	// Handle disconnections
	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		peer := network.PeerID(client.Id())
		t.mu.Lock()
		delete(t.clients, peer)
		for i, id := range t.order {
			if id == peer {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
		t.mu.Unlock()
		t.log.Info().Str("peer", string(peer)).Err(err).Msg("client disconnected")
		h.OnDisconnect(peer)
	})

	router.On(func(client *router.NetworkClient, msg messages.JoinRequest) {
		h.OnMessage(network.PeerID(client.Id()), msg)
	})

	router.On(func(client *router.NetworkClient, msg messages.Command) {
		h.OnMessage(network.PeerID(client.Id()), msg)
	})

	// Handle errors
	router.OnError(func(client *router.NetworkClient, err error) {
		t.log.Warn().Str("peer", string(client.Id())).Err(err).Msg("client error")
	})
}

// Listen starts the websocket server and blocks until it stops.
func (t *NecsTransport) Listen(port uint) error {
	t.log.Info().Uint("port", port).Msg("listening")
	return transports.NewWsServerTransport(port, "", nil).Start()
}

func (t *NecsTransport) Send(peer network.PeerID, msg any) error {
	t.mu.RLock()
	client, ok := t.clients[peer]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("peer %s: %w", peer, network.ErrNotConnected)
	}
	return client.SendMessage(msg)
}

func (t *NecsTransport) Broadcast(msg any) error {
	t.mu.RLock()
	clients := make([]*router.NetworkClient, 0, len(t.order))
	for _, id := range t.order {
		clients = append(clients, t.clients[id])
	}
	t.mu.RUnlock()

	var errs []error
	for _, client := range clients {
		if err := client.SendMessage(msg); err != nil {
			errs = append(errs, fmt.Errorf("peer %s: %w", client.Id(), err))
		}
	}
	return errors.Join(errs...)
}
