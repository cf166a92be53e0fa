package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/automoto/shootnrun-mp/shared/messages"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/coder/websocket"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/rs/zerolog"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateJoinedGame
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateJoinedGame:
		return "joined"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Client manages a WebSocket connection to the game host.
// All shared fields are protected by mu (router callbacks run on necs goroutines).
type Client struct {
	mu  sync.RWMutex
	log zerolog.Logger

	state     ClientState
	lastError error
	entity    netconfig.EntityID
	tickRate  int
	conn      *websocket.Conn

	// inbox keeps host messages in arrival order until the game loop drains them
	inbox []any

	snapshotCh chan esync.WorldSnapshot // size-1 buffered; latest wins
}

func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		log:        logger.With().Str("component", "client").Logger(),
		state:      StateDisconnected,
		snapshotCh: make(chan esync.WorldSnapshot, 1),
	}
}

// Connect dials the host in a background goroutine and initiates the join handshake.
func (c *Client) Connect(url, version, playerName string) {
	c.mu.Lock()
	c.state = StateConnecting
	c.lastError = nil
	c.mu.Unlock()

	router.OnConnect(func(_ *router.NetworkClient) {
		c.log.Info().Str("url", url).Msg("connected to server")
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()

		if err := c.SendMessage(messages.JoinRequest{
			Version:    version,
			PlayerName: playerName,
		}); err != nil {
			c.setError(fmt.Errorf("failed to send join request: %w", err))
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinAccepted) { c.onJoinAccepted(msg) })

	router.On(func(_ *router.NetworkClient, msg messages.JoinRejected) {
		c.log.Warn().Str("reason", msg.Reason).Msg("join rejected")
		c.setError(fmt.Errorf("join rejected: %s", msg.Reason))
	})

	router.On(func(_ *router.NetworkClient, snapshot esync.WorldSnapshot) {
		select { // drain stale, push latest
		case <-c.snapshotCh:
		default:
		}
		c.snapshotCh <- snapshot
	})

	router.On(func(_ *router.NetworkClient, msg messages.CommandAck) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.Correction) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.EntitySpawned) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.WeaponEquipped) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.ProjectileSpawned) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.EntityDestroyed) { c.push(msg) })

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		c.log.Info().Err(err).Msg("disconnected")
		c.mu.Lock()
		if c.state != StateError {
			c.state = StateDisconnected
		}
		c.conn = nil
		c.mu.Unlock()
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		c.log.Error().Err(err).Msg("router error")
	})

	go func() {
		transport := transports.NewWsClientTransport(url)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.setError(fmt.Errorf("connection failed: %w", err))
		}
	}()
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}

	router.ResetRouter()
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// Entity returns the character the host assigned to this client.
func (c *Client) Entity() netconfig.EntityID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entity
}

// TickRate returns the host simulation rate announced on join, 0 before.
func (c *Client) TickRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickRate
}

// LatestSnapshot returns the most recent WorldSnapshot, or nil. Non-blocking.
func (c *Client) LatestSnapshot() *esync.WorldSnapshot {
	select {
	case snap := <-c.snapshotCh:
		return &snap
	default:
		return nil
	}
}

// Drain returns every host message received since the last call, in order.
func (c *Client) Drain() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.inbox
	c.inbox = nil
	return out
}

func (c *Client) SendMessage(msg any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	return conn.Write(context.Background(), websocket.MessageBinary, payload)
}

func (c *Client) onJoinAccepted(msg messages.JoinAccepted) {
	c.log.Info().
		Uint32("entity", uint32(msg.Entity)).
		Str("server", msg.ServerName).
		Int("tickRate", msg.TickRate).
		Dur("firePeriod", msg.FirePeriod).
		Msg("join accepted")
	c.mu.Lock()
	c.entity = msg.Entity
	c.tickRate = msg.TickRate
	c.state = StateJoinedGame
	c.mu.Unlock()
	c.push(msg)
}

func (c *Client) push(msg any) {
	c.mu.Lock()
	c.inbox = append(c.inbox, msg)
	c.mu.Unlock()
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.mu.Unlock()
}
